package ecs

import (
	"reflect"
	"slices"
	"sort"
	"unsafe"
	"weak"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Storage owns every entity and singleton of one world.
type Storage struct {
	archetypes map[uint32]*Archetype
	singletons map[reflect.Type]*singletonEntry
	registry   *ComponentRegistry
	logger     zerolog.Logger
}

type singletonEntry struct {
	value   reflect.Value
	dataPtr unsafe.Pointer
}

// StorageOption configures a Storage.
type StorageOption func(*Storage)

// WithStorageLogger sets the logger used for lifecycle events.
func WithStorageLogger(logger zerolog.Logger) StorageOption {
	return func(s *Storage) {
		s.logger = logger
	}
}

// NewStorage creates a new storage backed by the given component registry
func NewStorage(registry *ComponentRegistry, opts ...StorageOption) *Storage {
	s := &Storage{
		archetypes: make(map[uint32]*Archetype),
		singletons: make(map[reflect.Type]*singletonEntry),
		registry:   registry,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Spawn creates a new entity with the provided components. Components may be
// passed by value or by pointer; pointers are copied into storage.
func (s *Storage) Spawn(components ...any) (EntityId, error) {
	if len(components) == 0 {
		return 0, ErrNoComponents
	}

	types, err := componentTypes(components)
	if err != nil {
		return 0, err
	}

	archetype, err := s.archetypeFor(types)
	if err != nil {
		return 0, err
	}

	id := NewEntityId(archetype.id, archetype.spawn(components))
	s.logger.Trace().Uint64("entity_id", uint64(id)).Int("components", len(types)).Msg("spawned entity")
	return id, nil
}

// Despawn removes the entity and invalidates every ref to it.
func (s *Storage) Despawn(id EntityId) error {
	archetype, ok := s.archetypes[id.ArchetypeId()]
	if !ok || !archetype.despawn(id.Index()) {
		return eris.Wrapf(ErrEntityNotFound, "despawn %d", id)
	}
	s.logger.Trace().Uint64("entity_id", uint64(id)).Msg("despawned entity")
	return nil
}

// Alive reports whether id names a live entity.
func (s *Storage) Alive(id EntityId) bool {
	archetype, ok := s.archetypes[id.ArchetypeId()]
	return ok && archetype.Alive(id.Index())
}

// CreateEntityRef returns the interned ref for id, creating it on first use.
// It returns nil if id does not name a live entity.
func (s *Storage) CreateEntityRef(id EntityId) *EntityRef {
	archetype := s.archetypes[id.ArchetypeId()]
	if archetype == nil || !archetype.Alive(id.Index()) {
		return nil
	}

	if weakRef, ok := archetype.refs.Get(id); ok {
		if ref := weakRef.Value(); ref != nil {
			return ref
		}
		archetype.refs.Del(id)
	}

	ref := &EntityRef{
		Id:        id,
		Archetype: archetype,
	}
	archetype.refs.Put(id, weak.Make(ref))
	return ref
}

// ResolveEntityRef returns the entity the ref points at, or false if the ref
// is nil or its entity has been despawned.
func (s *Storage) ResolveEntityRef(ref *EntityRef) (EntityId, bool) {
	if !ref.Valid() {
		return 0, false
	}
	return ref.Id, true
}

// InvalidateEntityRef detaches the ref from its entity without despawning the
// entity. Returns false if the ref was already invalid.
func (s *Storage) InvalidateEntityRef(ref *EntityRef) bool {
	if !ref.Valid() {
		return false
	}

	if archetype := s.archetypes[ref.Id.ArchetypeId()]; archetype != nil {
		archetype.refs.Del(ref.Id)
	}

	ref.Id = 0
	ref.Archetype = nil
	return true
}

// GetArchetype returns the archetype for exactly the given component set, if
// one exists
func (s *Storage) GetArchetype(components ...any) *Archetype {
	types, err := componentTypes(components)
	if err != nil {
		return nil
	}
	return s.archetypes[hashTypesToUint32(types)]
}

// GetComponent returns a pointer to the component of compType on the entity,
// or nil.
func (s *Storage) GetComponent(id EntityId, compType reflect.Type) any {
	archetype, ok := s.archetypes[id.ArchetypeId()]
	if !ok {
		return nil
	}
	return archetype.Component(id.Index(), compType)
}

// HasComponent checks if an entity has a specific component type
func (s *Storage) HasComponent(id EntityId, compType reflect.Type) bool {
	archetype, ok := s.archetypes[id.ArchetypeId()]
	if !ok || !archetype.Alive(id.Index()) {
		return false
	}
	return archetype.HasComponent(compType)
}

// AddSingleton stores value as the single instance of its type.
func (s *Storage) AddSingleton(value any) error {
	t := reflect.TypeOf(value)
	if t == nil {
		return ErrInvalidComponent
	}
	if _, exists := s.singletons[t]; exists {
		return eris.Wrapf(ErrSingletonRegistered, "singleton %s", t)
	}

	ptr := reflect.New(t)
	ptr.Elem().Set(reflect.ValueOf(value))
	s.singletons[t] = &singletonEntry{
		value:   ptr,
		dataPtr: ptr.UnsafePointer(),
	}
	return nil
}

func (s *Storage) getSingletonEntry(t reflect.Type) *singletonEntry {
	return s.singletons[t]
}

func (s *Storage) archetypeFor(types []reflect.Type) (*Archetype, error) {
	id := hashTypesToUint32(types)
	if archetype, ok := s.archetypes[id]; ok {
		return archetype, nil
	}

	archetype, err := newArchetype(id, types, s.registry)
	if err != nil {
		return nil, err
	}
	s.archetypes[id] = archetype
	s.logger.Debug().Uint32("archetype_id", id).Int("components", len(types)).Msg("created archetype")
	return archetype, nil
}

// sortedArchetypes returns archetypes ordered by ID so iteration does not
// depend on map order.
func (s *Storage) sortedArchetypes() []*Archetype {
	out := make([]*Archetype, 0, len(s.archetypes))
	for _, archetype := range s.archetypes {
		out = append(out, archetype)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func componentType(component any) reflect.Type {
	t := reflect.TypeOf(component)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// componentTypes extracts and sorts the component types of a spawn call
func componentTypes(components []any) ([]reflect.Type, error) {
	types := make([]reflect.Type, 0, len(components))
	for _, comp := range components {
		t := componentType(comp)
		if t == nil {
			return nil, ErrInvalidComponent
		}
		if v := reflect.ValueOf(comp); v.Kind() == reflect.Ptr && v.IsNil() {
			return nil, eris.Wrapf(ErrInvalidComponent, "nil %s", t)
		}
		switch t.Kind() {
		case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func:
			return nil, eris.Wrapf(ErrInvalidComponent, "component %s", t)
		}
		if slices.Contains(types, t) {
			return nil, eris.Wrapf(ErrDuplicateComponent, "component %s", t)
		}
		types = append(types, t)
	}
	sort.Sort(byTypeName(types))
	return types, nil
}

// hashTypesToUint32 is FNV-1a over the sorted type names. Zero is reserved so
// that no live entity gets EntityId 0.
func hashTypesToUint32(types []reflect.Type) uint32 {
	var h uint32 = 2166136261
	const prime uint32 = 16777619

	for _, t := range types {
		name := t.PkgPath() + "." + t.String()
		for i := 0; i < len(name); i++ {
			h ^= uint32(name[i])
			h *= prime
		}
		h ^= 0xff
		h *= prime
	}

	if h == 0 {
		h = 1
	}
	return h
}

type ComponentReader interface {
	GetComponent(EntityId, reflect.Type) any
}

// ReadComponent returns the entity's T component, or nil if it has none.
func ReadComponent[T any](reader ComponentReader, entityId EntityId) *T {
	comp, _ := reader.GetComponent(entityId, reflect.TypeFor[T]()).(*T)
	return comp
}
