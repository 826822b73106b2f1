// Package match drives a two-player game: it owns the ECS world, binds one
// hook to each player's state and steps the scheduler until the configured
// number of ticks has elapsed.
package match

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/plus3/tickbox/debuglog"
	"github.com/plus3/tickbox/ecs"
	"github.com/plus3/tickbox/playercode"
	"github.com/plus3/tickbox/state"
	"github.com/plus3/tickbox/statsd"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

const (
	// MapSize is the side of the square map players spawn on.
	MapSize = 64.0

	// DefaultTickRate is the simulated frame length when Config.TickRate is
	// zero. Such matches run as fast as the scheduler allows.
	DefaultTickRate = time.Second / 60
)

var (
	ErrNoTicks     = eris.New("match needs at least one tick")
	ErrNilFactory  = eris.New("hook factory must not be nil")
	ErrMatchClosed = eris.New("match is closed")
)

type Config struct {
	Ticks    uint64
	TickRate time.Duration
	MatchID  string
}

// Match is one game between Player1 and Player2. It is not safe for
// concurrent use.
type Match struct {
	cfg Config

	storage   *ecs.Storage
	scheduler *ecs.Scheduler
	scripts   *playercode.System
	logger    zerolog.Logger

	factory playercode.Factory
	mirrors [2]io.Writer

	gameLog    *debuglog.Buffer
	playerLogs [2]*debuglog.Buffer
	sinks      [2]*debuglog.Sink

	players [2]ecs.EntityId
	refs    [2]*ecs.EntityRef
	hooks   [2]ecs.EntityId

	startedAt time.Time
	closed    bool
}

type Option func(*Match)

// WithHookFactory replaces the hook bound to each player.
func WithHookFactory(factory playercode.Factory) Option {
	return func(m *Match) {
		m.factory = factory
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(m *Match) {
		m.logger = logger
	}
}

// WithDebugSinks mirrors each player's debug lines to an extra writer. The
// lines are still captured for the Result. A nil writer disables mirroring
// for that player.
func WithDebugSinks(player1, player2 io.Writer) Option {
	return func(m *Match) {
		m.mirrors = [2]io.Writer{player1, player2}
	}
}

// New builds the world for one match. Each player's state is spawned first,
// then a hook is bound to a reference to that state and attached to its own
// script entity.
func New(cfg Config, opts ...Option) (*Match, error) {
	if cfg.Ticks == 0 {
		return nil, ErrNoTicks
	}
	if cfg.MatchID == "" {
		cfg.MatchID = uuid.NewString()
	}

	m := &Match{
		cfg:     cfg,
		factory: playercode.DefaultFactory,
		logger:  zerolog.Nop(),
		gameLog: &debuglog.Buffer{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.factory == nil {
		return nil, ErrNilFactory
	}
	m.logger = m.logger.With().Str("match_id", cfg.MatchID).Logger()

	registry := ecs.NewComponentRegistry()
	state.RegisterComponents(registry)
	playercode.RegisterComponents(registry)

	m.storage = ecs.NewStorage(registry, ecs.WithStorageLogger(m.logger))
	m.scheduler = ecs.NewScheduler(m.storage, ecs.WithSchedulerLogger(m.logger))

	for i, player := range state.Players {
		if err := m.spawnPlayer(i, player); err != nil {
			return nil, err
		}
	}

	m.scripts = &playercode.System{}
	m.scheduler.Register(m.scripts)
	m.scheduler.Register(&gameLogSystem{
		logger: zerolog.New(m.gameLog).With().Str("match_id", cfg.MatchID).Logger(),
	})

	m.logger.Debug().Uint64("ticks", cfg.Ticks).Dur("tick_rate", cfg.TickRate).Msg("match created")
	return m, nil
}

func (m *Match) spawnPlayer(i int, player state.PlayerID) error {
	m.playerLogs[i] = &debuglog.Buffer{}
	var w io.Writer = m.playerLogs[i]
	if m.mirrors[i] != nil {
		w = io.MultiWriter(m.playerLogs[i], m.mirrors[i])
	}
	m.sinks[i] = debuglog.New(w)

	id, err := m.storage.Spawn(state.New(player, state.SpawnPoint(player, MapSize)))
	if err != nil {
		return eris.Wrapf(err, "spawning %s", player)
	}
	m.players[i] = id
	m.refs[i] = m.storage.CreateEntityRef(id)

	hook, err := m.factory(m.refs[i], m.sinks[i])
	if err != nil {
		return eris.Wrapf(err, "binding hook for %s", player)
	}

	hookID, err := m.storage.Spawn(playercode.Script{Hook: hook})
	if err != nil {
		return eris.Wrapf(err, "attaching hook for %s", player)
	}
	m.hooks[i] = hookID
	return nil
}

func (m *Match) ID() string {
	return m.cfg.MatchID
}

func (m *Match) Config() Config {
	return m.cfg
}

// Tick returns the number of completed ticks.
func (m *Match) Tick() uint64 {
	return m.scheduler.Tick()
}

// Done reports whether every configured tick has run.
func (m *Match) Done() bool {
	return m.scheduler.Tick() >= m.cfg.Ticks
}

// Step runs one tick.
func (m *Match) Step() error {
	if m.closed {
		return ErrMatchClosed
	}
	if m.startedAt.IsZero() {
		m.startedAt = time.Now()
		m.logger.Info().Msg("match started")
	}

	start := time.Now()
	err := m.scheduler.Once(m.frameLength().Seconds())
	statsd.EmitTickStat(start, "match")
	if err != nil {
		return eris.Wrapf(err, "match %s", m.cfg.MatchID)
	}
	return nil
}

func (m *Match) frameLength() time.Duration {
	if m.cfg.TickRate > 0 {
		return m.cfg.TickRate
	}
	return DefaultTickRate
}

// Run steps until the match is done or ctx ends. A cancelled match is not an
// error; its result has StatusUndefined.
func (m *Match) Run(ctx context.Context) (*Result, error) {
	var ticker *time.Ticker
	if m.cfg.TickRate > 0 {
		ticker = time.NewTicker(m.cfg.TickRate)
		defer ticker.Stop()
	}

	for !m.Done() {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return m.finish(), nil
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			return m.finish(), nil
		}

		if err := m.Step(); err != nil {
			return nil, err
		}
	}
	return m.finish(), nil
}

func (m *Match) finish() *Result {
	result := m.Result()
	statsd.EmitMatchResult(string(result.Status))
	m.logger.Info().
		Str("status", string(result.Status)).
		Uint64("ticks", result.Ticks).
		Dur("elapsed", time.Since(m.startedAt)).
		Msg("match finished")
	return result
}

// Result reports the match as it stands. Until every tick has run the status
// is StatusUndefined and no logs are attached.
func (m *Match) Result() *Result {
	result := &Result{
		MatchID:    m.cfg.MatchID,
		Status:     StatusUndefined,
		Ticks:      m.scheduler.Tick(),
		FinishedAt: time.Now().UTC(),
	}
	for i, id := range m.players {
		if s := ecs.ReadComponent[state.PlayerState](m.storage, id); s != nil {
			result.Scores[i] = s.Score
		}
	}
	if !m.Done() {
		return result
	}

	result.Status = statusFor(result.Scores)
	result.GameLog = m.gameLog.Bytes()
	for i, buf := range m.playerLogs {
		result.PlayerLogs[i] = buf.Bytes()
	}
	return result
}

// PlayerLog exposes player i's captured debug log (0 or 1).
func (m *Match) PlayerLog(i int) *debuglog.Buffer {
	return m.playerLogs[i]
}

// PlayerState returns the live state of player p, or nil after Close.
func (m *Match) PlayerState(p state.PlayerID) *state.PlayerState {
	if !p.Valid() {
		return nil
	}
	return ecs.ReadComponent[state.PlayerState](m.storage, m.players[p.Index()])
}

// Ref returns the reference player p's hook is bound to.
func (m *Match) Ref(p state.PlayerID) *ecs.EntityRef {
	if !p.Valid() {
		return nil
	}
	return m.refs[p.Index()]
}

// SkippedHooks counts hook calls skipped because their state was gone.
func (m *Match) SkippedHooks() uint64 {
	return m.scripts.Skipped()
}

func (m *Match) SchedulerStats() *ecs.SchedulerStats {
	return m.scheduler.GetStats()
}

func (m *Match) StorageStats() *ecs.StorageStats {
	return m.storage.CollectStats()
}

// Close tears the world down. Hooks are despawned before the state they
// refer to, so no hook ever outlives its referent. Close is idempotent.
func (m *Match) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true

	for _, id := range m.hooks {
		if err := m.storage.Despawn(id); err != nil {
			return eris.Wrap(err, "despawning hook")
		}
	}
	for _, id := range m.players {
		if err := m.storage.Despawn(id); err != nil {
			return eris.Wrap(err, "despawning player state")
		}
	}
	m.logger.Debug().Msg("match closed")
	return nil
}
