package state_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/plus3/tickbox/ecs"
	"github.com/plus3/tickbox/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerID(t *testing.T) {
	assert.True(t, state.Player1.Valid())
	assert.True(t, state.Player2.Valid())
	assert.False(t, state.PlayerID(0).Valid())
	assert.False(t, state.PlayerID(3).Valid())

	assert.Equal(t, 0, state.Player1.Index())
	assert.Equal(t, 1, state.Player2.Index())
	assert.Equal(t, "player_2", state.Player2.String())
}

func TestEqual(t *testing.T) {
	a := state.New(state.Player1, mgl64.Vec3{1, 2, 3})
	b := a

	assert.True(t, a.Equal(b))

	b.Position = b.Position.Add(mgl64.Vec3{0, 0, 1e-9})
	assert.False(t, a.Equal(b))

	b = a
	b.Score++
	assert.False(t, a.Equal(b))
}

func TestSpawnPoint(t *testing.T) {
	assert.Equal(t, mgl64.Vec3{}, state.SpawnPoint(state.Player1, 64))
	assert.Equal(t, mgl64.Vec3{64, 64, 0}, state.SpawnPoint(state.Player2, 64))
}

func TestStoredAsComponent(t *testing.T) {
	registry := ecs.NewComponentRegistry()
	state.RegisterComponents(registry)
	storage := ecs.NewStorage(registry)

	id, err := storage.Spawn(state.New(state.Player2, state.SpawnPoint(state.Player2, 10)))
	require.NoError(t, err)

	got := ecs.ReadComponent[state.PlayerState](storage, id)
	require.NotNil(t, got)
	assert.Equal(t, state.Player2, got.Player)
	assert.Equal(t, state.DefaultHealth, got.Health)
}
