package ecs

// System is behaviour run once per tick by a Scheduler. Systems may declare
// Query and Singleton fields; the Scheduler initializes them on Register.
// Other fields persist between ticks.
//
// An error aborts the remaining systems of the tick.
type System interface {
	Execute(frame *UpdateFrame) error
}

// SystemFunc adapts a plain function to System.
type SystemFunc func(frame *UpdateFrame) error

func (f SystemFunc) Execute(frame *UpdateFrame) error {
	return f(frame)
}
