// Package playercode holds the per-entity update hooks that the match
// scheduler ticks once per simulation step.
package playercode

import (
	"github.com/plus3/tickbox/debuglog"
	"github.com/plus3/tickbox/ecs"
	"github.com/rotisserie/eris"
)

var (
	ErrNilState     = eris.New("player code requires a state reference")
	ErrInvalidState = eris.New("player code state reference is no longer valid")
	ErrNilSink      = eris.New("player code requires a debug sink")
)

// Greeting is the line every Tick writes.
const Greeting = "Hello World!"

// Hook is called once per tick for the entity it is attached to.
type Hook interface {
	Tick()
}

// Bound is implemented by hooks that refer to entity state.
type Bound interface {
	State() *ecs.EntityRef
}

// PlayerCode is the default hook. It holds a reference to the player's state
// but does not own it and never touches it.
type PlayerCode struct {
	state *ecs.EntityRef
	sink  *debuglog.Sink
}

// New binds player code to state. The referent must outlive the returned
// hook; storage despawn invalidates state, after which the hook is skipped.
func New(state *ecs.EntityRef, sink *debuglog.Sink) (*PlayerCode, error) {
	if state == nil {
		return nil, ErrNilState
	}
	if !state.Valid() {
		return nil, ErrInvalidState
	}
	if sink == nil {
		return nil, ErrNilSink
	}
	return &PlayerCode{state: state, sink: sink}, nil
}

// Tick writes one greeting line to the sink. Write failures are counted by
// the sink and otherwise ignored.
func (p *PlayerCode) Tick() {
	_ = p.sink.Line(Greeting)
}

// State returns the reference the hook was bound to.
func (p *PlayerCode) State() *ecs.EntityRef {
	return p.state
}

// Factory builds the hook for one player's state.
type Factory func(state *ecs.EntityRef, sink *debuglog.Sink) (Hook, error)

// DefaultFactory builds PlayerCode hooks.
func DefaultFactory(state *ecs.EntityRef, sink *debuglog.Sink) (Hook, error) {
	code, err := New(state, sink)
	if err != nil {
		return nil, err
	}
	return code, nil
}
