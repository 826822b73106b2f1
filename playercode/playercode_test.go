package playercode_test

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/plus3/tickbox/debuglog"
	"github.com/plus3/tickbox/ecs"
	"github.com/plus3/tickbox/playercode"
	"github.com/plus3/tickbox/state"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStorage(t *testing.T) *ecs.Storage {
	t.Helper()
	registry := ecs.NewComponentRegistry()
	state.RegisterComponents(registry)
	playercode.RegisterComponents(registry)
	return ecs.NewStorage(registry)
}

func spawnPlayer(t *testing.T, storage *ecs.Storage, p state.PlayerID) (ecs.EntityId, *ecs.EntityRef) {
	t.Helper()
	id, err := storage.Spawn(state.New(p, state.SpawnPoint(p, 32)))
	require.NoError(t, err)
	ref := storage.CreateEntityRef(id)
	require.NotNil(t, ref)
	return id, ref
}

func TestNewLeavesStateUntouched(t *testing.T) {
	storage := newStorage(t)
	id, ref := spawnPlayer(t, storage, state.Player1)
	before := *ecs.ReadComponent[state.PlayerState](storage, id)

	var buf debuglog.Buffer
	code, err := playercode.New(ref, debuglog.New(&buf))
	require.NoError(t, err)

	assert.Same(t, ref, code.State())
	assert.True(t, before.Equal(*ecs.ReadComponent[state.PlayerState](storage, id)))
	assert.Zero(t, buf.Len(), "construction must not write")
}

func TestNewRejectsBadArguments(t *testing.T) {
	storage := newStorage(t)
	id, ref := spawnPlayer(t, storage, state.Player1)
	sink := debuglog.New(&debuglog.Buffer{})

	_, err := playercode.New(nil, sink)
	assert.ErrorIs(t, err, playercode.ErrNilState)

	_, err = playercode.New(ref, nil)
	assert.ErrorIs(t, err, playercode.ErrNilSink)

	require.NoError(t, storage.Despawn(id))
	_, err = playercode.New(ref, sink)
	assert.ErrorIs(t, err, playercode.ErrInvalidState)
}

func TestTickWritesOneLinePerCall(t *testing.T) {
	storage := newStorage(t)
	id, ref := spawnPlayer(t, storage, state.Player2)
	before := *ecs.ReadComponent[state.PlayerState](storage, id)

	for _, n := range []int{1, 4, 10} {
		buf := &debuglog.Buffer{}
		code, err := playercode.New(ref, debuglog.New(buf))
		require.NoError(t, err)

		for i := 0; i < n; i++ {
			code.Tick()
		}
		assert.Equal(t, strings.Repeat("Hello World!\n", n), buf.String())
	}

	assert.True(t, before.Equal(*ecs.ReadComponent[state.PlayerState](storage, id)), "ticks must not mutate state")
}

func TestThreeTicksScenario(t *testing.T) {
	storage := newStorage(t)
	_, ref := spawnPlayer(t, storage, state.Player1)

	var buf debuglog.Buffer
	code, err := playercode.New(ref, debuglog.New(&buf))
	require.NoError(t, err)

	code.Tick()
	code.Tick()
	code.Tick()

	assert.Equal(t, []string{"Hello World!", "Hello World!", "Hello World!"}, buf.Lines())
}

func TestConcurrentTicksShareSink(t *testing.T) {
	storage := newStorage(t)
	_, ref1 := spawnPlayer(t, storage, state.Player1)
	_, ref2 := spawnPlayer(t, storage, state.Player2)

	var buf debuglog.Buffer
	sink := debuglog.New(&buf)
	hooks := make([]*playercode.PlayerCode, 0, 2)
	for _, ref := range []*ecs.EntityRef{ref1, ref2} {
		code, err := playercode.New(ref, sink)
		require.NoError(t, err)
		hooks = append(hooks, code)
	}

	const ticks = 500
	var wg sync.WaitGroup
	for _, code := range hooks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < ticks; i++ {
				code.Tick()
			}
		}()
	}
	wg.Wait()

	lines := buf.Lines()
	require.Len(t, lines, 2*ticks)
	for _, line := range lines {
		assert.Equal(t, playercode.Greeting, line)
	}
}

// recordingHook notes which entity ticked, in call order.
type recordingHook struct {
	name string
	ref  *ecs.EntityRef
	log  *[]string
}

func (h *recordingHook) Tick() { *h.log = append(*h.log, h.name) }

func (h *recordingHook) State() *ecs.EntityRef { return h.ref }

func TestSystemTicksEveryScriptInOrder(t *testing.T) {
	storage := newStorage(t)
	_, ref1 := spawnPlayer(t, storage, state.Player1)
	_, ref2 := spawnPlayer(t, storage, state.Player2)

	var calls []string
	_, err := storage.Spawn(playercode.Script{Hook: &recordingHook{name: "one", ref: ref1, log: &calls}})
	require.NoError(t, err)
	_, err = storage.Spawn(playercode.Script{Hook: &recordingHook{name: "two", ref: ref2, log: &calls}})
	require.NoError(t, err)

	scheduler := ecs.NewScheduler(storage)
	scheduler.Register(&playercode.System{})

	for i := 0; i < 3; i++ {
		require.NoError(t, scheduler.Once(1))
	}

	assert.Equal(t, []string{"one", "two", "one", "two", "one", "two"}, calls)
}

func TestSystemSkipsHooksWithDespawnedState(t *testing.T) {
	storage := newStorage(t)
	id1, ref1 := spawnPlayer(t, storage, state.Player1)
	_, ref2 := spawnPlayer(t, storage, state.Player2)

	var buf1, buf2 debuglog.Buffer
	code1, err := playercode.New(ref1, debuglog.New(&buf1))
	require.NoError(t, err)
	code2, err := playercode.New(ref2, debuglog.New(&buf2))
	require.NoError(t, err)

	_, err = storage.Spawn(playercode.Script{Hook: code1})
	require.NoError(t, err)
	_, err = storage.Spawn(playercode.Script{Hook: code2})
	require.NoError(t, err)

	var logs bytes.Buffer
	scheduler := ecs.NewScheduler(storage, ecs.WithSchedulerLogger(zerolog.New(&logs)))
	system := &playercode.System{}
	scheduler.Register(system)

	require.NoError(t, scheduler.Once(1))
	require.NoError(t, storage.Despawn(id1))
	require.NoError(t, scheduler.Once(1))

	assert.Len(t, buf1.Lines(), 1)
	assert.Len(t, buf2.Lines(), 2)
	assert.Equal(t, uint64(1), system.Skipped())
	assert.Contains(t, logs.String(), "skipping hook with invalid state")
}

func TestDefaultFactory(t *testing.T) {
	storage := newStorage(t)
	_, ref := spawnPlayer(t, storage, state.Player1)

	hook, err := playercode.DefaultFactory(ref, debuglog.New(&debuglog.Buffer{}))
	require.NoError(t, err)
	assert.IsType(t, &playercode.PlayerCode{}, hook)

	hook, err = playercode.DefaultFactory(nil, debuglog.New(&debuglog.Buffer{}))
	assert.ErrorIs(t, err, playercode.ErrNilState)
	assert.Nil(t, hook)
}
