package playercode

import (
	"github.com/plus3/tickbox/ecs"
)

// Script attaches a hook to an entity.
type Script struct {
	Hook Hook
}

// RegisterComponents registers the package's component types.
func RegisterComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[Script](registry)
}

// System ticks every attached hook once per frame, in entity order.
type System struct {
	Scripts ecs.Query[Script]

	skipped uint64
}

func (s *System) Execute(frame *ecs.UpdateFrame) error {
	for id, script := range s.Scripts.Iter() {
		if script.Hook == nil {
			continue
		}
		if bound, ok := script.Hook.(Bound); ok && !bound.State().Valid() {
			s.skipped++
			frame.Logger.Warn().Uint64("entity_id", uint64(id)).Msg("skipping hook with invalid state")
			continue
		}
		script.Hook.Tick()
	}
	return nil
}

// Skipped returns how many hook invocations were skipped because their state
// had been despawned.
func (s *System) Skipped() uint64 {
	return s.skipped
}
