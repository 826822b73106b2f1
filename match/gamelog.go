package match

import (
	"github.com/plus3/tickbox/ecs"
	"github.com/plus3/tickbox/state"
	"github.com/rs/zerolog"
)

// gameLogSystem writes one JSON event per tick describing both players.
type gameLogSystem struct {
	Players ecs.Query[state.PlayerState]

	logger zerolog.Logger
}

func (s *gameLogSystem) Execute(frame *ecs.UpdateFrame) error {
	event := s.logger.Info().Uint64("tick", frame.Tick)
	for p := range s.Players.Values() {
		event = event.Dict(p.Player.String(), zerolog.Dict().
			Floats64("position", p.Position[:]).
			Int("health", p.Health).
			Int64("score", p.Score))
	}
	event.Msg("tick")
	return nil
}
