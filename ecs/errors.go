package ecs

import (
	"reflect"

	"github.com/rotisserie/eris"
)

var (
	ErrNoComponents        = eris.New("cannot spawn entity without components")
	ErrInvalidComponent    = eris.New("components cannot be pointers to pointers, maps, channels, or functions")
	ErrDuplicateComponent  = eris.New("entity cannot carry the same component type twice")
	ErrUnregistered        = eris.New("component type not registered")
	ErrEntityNotFound      = eris.New("entity not found")
	ErrSingletonRegistered = eris.New("singleton already added")
)

// ErrUnregisteredComponent wraps ErrUnregistered with the offending type.
func ErrUnregisteredComponent(t reflect.Type) error {
	return eris.Wrapf(ErrUnregistered, "component %s", t)
}
