package ecs

import (
	"reflect"
	"slices"
	"weak"

	"github.com/kamstrup/intmap"
)

type byTypeName []reflect.Type

func (a byTypeName) Len() int           { return len(a) }
func (a byTypeName) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a byTypeName) Less(i, j int) bool { return a[i].String() < a[j].String() }

// Archetype holds every entity that carries exactly one particular set of
// component types. Each component type gets its own column and an entity's
// slot index is the same in every column.
type Archetype struct {
	id      uint32
	types   []reflect.Type
	columns []componentColumn

	// refs interns the EntityRef handed out for each live entity. Weak
	// pointers let unused refs be collected without the archetype noticing.
	refs *intmap.Map[EntityId, weak.Pointer[EntityRef]]
}

func newArchetype(id uint32, types []reflect.Type, registry *ComponentRegistry) (*Archetype, error) {
	a := &Archetype{
		id:      id,
		types:   types,
		columns: make([]componentColumn, len(types)),
		refs:    intmap.New[EntityId, weak.Pointer[EntityRef]](64),
	}

	for i, typ := range types {
		column := registry.newColumn(typ)
		if column == nil {
			return nil, ErrUnregisteredComponent(typ)
		}
		a.columns[i] = column
	}

	return a, nil
}

func (a *Archetype) columnFor(compType reflect.Type) int {
	for i, typ := range a.types {
		if typ == compType {
			return i
		}
	}
	return -1
}

// spawn appends the components to their columns and returns the shared slot.
// components must match a.types one to one.
func (a *Archetype) spawn(components []any) uint32 {
	slot := -1
	for _, comp := range components {
		idx := a.columnFor(componentType(comp))
		if idx == -1 {
			continue
		}
		slot = a.columns[idx].Append(comp)
	}
	return uint32(slot)
}

// despawn clears the slot in every column and invalidates the interned ref.
func (a *Archetype) despawn(index uint32) bool {
	if len(a.columns) == 0 || !a.columns[0].Has(int(index)) {
		return false
	}

	id := NewEntityId(a.id, index)
	if weakRef, ok := a.refs.Get(id); ok {
		if ref := weakRef.Value(); ref != nil {
			ref.Id = 0
			ref.Archetype = nil
		}
		a.refs.Del(id)
	}

	for _, column := range a.columns {
		column.Delete(int(index))
	}
	return true
}

// Component returns a pointer to the entity's component of the given type, or
// nil if the slot is empty or the archetype lacks the type.
func (a *Archetype) Component(index uint32, compType reflect.Type) any {
	idx := a.columnFor(compType)
	if idx == -1 {
		return nil
	}
	return a.columns[idx].Get(int(index))
}

// Alive reports whether the slot currently holds an entity.
func (a *Archetype) Alive(index uint32) bool {
	return len(a.columns) > 0 && a.columns[0].Has(int(index))
}

// HasComponent checks if this archetype has the given component type
func (a *Archetype) HasComponent(compType reflect.Type) bool {
	return slices.Contains(a.types, compType)
}

// ID returns the archetype's identifier
func (a *Archetype) ID() uint32 {
	return a.id
}

// Types returns the archetype's component types sorted by name
func (a *Archetype) Types() []reflect.Type {
	return a.types
}

// Len returns the number of live entities in the archetype.
func (a *Archetype) Len() int {
	if len(a.columns) == 0 {
		return 0
	}
	return a.columns[0].Len()
}

// Iter yields the archetype's live entities in slot order.
func (a *Archetype) Iter() func(yield func(EntityId) bool) {
	return func(yield func(EntityId) bool) {
		if len(a.columns) == 0 {
			return
		}
		for index := range a.columns[0].Iter() {
			if !yield(NewEntityId(a.id, uint32(index))) {
				return
			}
		}
	}
}
