// Package state defines the per-player record that match storage owns and
// player code refers to without owning.
package state

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/plus3/tickbox/ecs"
)

// PlayerID identifies one side of a match.
type PlayerID uint8

const (
	Player1 PlayerID = 1
	Player2 PlayerID = 2
)

// Players lists both sides in result order.
var Players = [2]PlayerID{Player1, Player2}

// Valid reports whether p is Player1 or Player2.
func (p PlayerID) Valid() bool {
	return p == Player1 || p == Player2
}

// Index returns 0 for Player1 and 1 for Player2.
func (p PlayerID) Index() int {
	return int(p) - 1
}

func (p PlayerID) String() string {
	return fmt.Sprintf("player_%d", p)
}

const DefaultHealth = 100

// PlayerState is one player's mutable record. It is an ECS component and
// lives in match storage for the duration of the match.
type PlayerState struct {
	Player   PlayerID
	Position mgl64.Vec3
	Health   int
	Score    int64
}

// New returns a full-health state for player p at spawn.
func New(p PlayerID, spawn mgl64.Vec3) PlayerState {
	return PlayerState{
		Player:   p,
		Position: spawn,
		Health:   DefaultHealth,
	}
}

// Equal compares every field exactly.
func (s PlayerState) Equal(other PlayerState) bool {
	return s == other
}

// SpawnPoint places Player1 at the origin and Player2 at the far corner of
// a square map of the given size.
func SpawnPoint(p PlayerID, mapSize float64) mgl64.Vec3 {
	if p == Player2 {
		return mgl64.Vec3{mapSize, mapSize, 0}
	}
	return mgl64.Vec3{}
}

// RegisterComponents registers the package's component types.
func RegisterComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[PlayerState](registry)
}
