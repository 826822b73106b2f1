package ecs

import "github.com/rs/zerolog"

// UpdateFrame is what a system sees during one tick.
type UpdateFrame struct {
	Tick      uint64
	DeltaTime float64
	Commands  *Commands
	Storage   *Storage

	// Logger is scoped to the running system.
	Logger zerolog.Logger
}

func newUpdateFrame(tick uint64, dt float64, storage *Storage, logger zerolog.Logger) *UpdateFrame {
	return &UpdateFrame{
		Tick:      tick,
		DeltaTime: dt,
		Commands:  newCommands(),
		Storage:   storage,
		Logger:    logger,
	}
}
