package ecs_test

import "github.com/plus3/tickbox/ecs"

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Name struct {
	Value string
}

type Health struct {
	Current int
	Max     int
}

type Score int32

func newTestRegistry() *ecs.ComponentRegistry {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry)
	ecs.RegisterComponent[Name](registry)
	ecs.RegisterComponent[Health](registry)
	ecs.RegisterComponent[Score](registry)
	return registry
}

func mustSpawn(t interface {
	Helper()
	Fatalf(string, ...any)
}, storage *ecs.Storage, components ...any) ecs.EntityId {
	t.Helper()
	id, err := storage.Spawn(components...)
	if err != nil {
		t.Fatalf("spawn failed: %v", err)
	}
	return id
}
