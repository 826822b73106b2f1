package ecs

import "github.com/rotisserie/eris"

// Commands buffers structural changes requested while systems run. The
// Scheduler flushes them once every system of the frame has executed, so a
// system never despawns an entity out from under another system's iteration.
type Commands struct {
	despawns []EntityId
	spawns   []spawnCommand
	defers   []func()
}

func newCommands() *Commands {
	return &Commands{}
}

type spawnCommand struct {
	components []any
	then       func(EntityId)
}

// Spawn queues an entity spawn with the given components.
func (c *Commands) Spawn(components ...any) {
	c.spawns = append(c.spawns, spawnCommand{components: components})
}

// SpawnThen queues a spawn and calls then with the new entity's ID once it
// exists.
func (c *Commands) SpawnThen(then func(EntityId), components ...any) {
	c.spawns = append(c.spawns, spawnCommand{components: components, then: then})
}

// Despawn queues an entity despawn.
func (c *Commands) Despawn(entity EntityId) {
	c.despawns = append(c.despawns, entity)
}

// Defer queues fn to run after despawns and spawns have been applied.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Len returns the number of queued commands.
func (c *Commands) Len() int {
	return len(c.despawns) + len(c.spawns) + len(c.defers)
}

// Flush applies despawns, then spawns, then deferred functions, and resets
// the buffer. Every command is attempted; the first error is returned.
func (c *Commands) Flush(storage *Storage) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	despawned := make(map[EntityId]bool, len(c.despawns))
	for _, id := range c.despawns {
		if despawned[id] {
			continue
		}
		despawned[id] = true
		keep(storage.Despawn(id))
	}

	for _, cmd := range c.spawns {
		id, err := storage.Spawn(cmd.components...)
		if err != nil {
			keep(eris.Wrap(err, "deferred spawn"))
			continue
		}
		if cmd.then != nil {
			cmd.then(id)
		}
	}

	for _, fn := range c.defers {
		fn()
	}

	c.despawns = c.despawns[:0]
	c.spawns = c.spawns[:0]
	c.defers = c.defers[:0]
	return firstErr
}
