package ecs

import (
	"iter"
	"reflect"
)

// Query iterates every entity carrying component T. Iteration order is stable:
// archetypes by ID, then slots ascending. Systems rely on that order to make
// ticks reproducible.
//
// Matching archetypes are cached and rebuilt only when the storage gains an
// archetype.
type Query[T any] struct {
	storage            *Storage
	componentType      reflect.Type
	cachedArchetypes   []*Archetype
	lastArchetypeCount int
}

// NewQuery creates a query over storage.
func NewQuery[T any](storage *Storage) *Query[T] {
	q := &Query[T]{}
	q.Init(storage)
	return q
}

// Init binds the query to storage and drops any cached archetypes. The
// Scheduler calls it for Query fields of registered systems.
func (q *Query[T]) Init(storage *Storage) {
	q.storage = storage
	q.componentType = reflect.TypeFor[T]()
	q.cachedArchetypes = nil
	q.lastArchetypeCount = -1
}

func (q *Query[T]) archetypes() []*Archetype {
	if q.storage == nil {
		panic("Query used before Init")
	}

	if count := len(q.storage.archetypes); count != q.lastArchetypeCount {
		q.cachedArchetypes = q.cachedArchetypes[:0]
		for _, archetype := range q.storage.sortedArchetypes() {
			if archetype.HasComponent(q.componentType) {
				q.cachedArchetypes = append(q.cachedArchetypes, archetype)
			}
		}
		q.lastArchetypeCount = count
	}
	return q.cachedArchetypes
}

// Iter yields each matching entity and a pointer to its T component. Entities
// despawned by an earlier step of the same iteration are skipped.
func (q *Query[T]) Iter() iter.Seq2[EntityId, *T] {
	return func(yield func(EntityId, *T) bool) {
		for _, archetype := range q.archetypes() {
			column := archetype.columnFor(q.componentType)
			for id := range archetype.Iter() {
				comp, ok := archetype.columns[column].Get(int(id.Index())).(*T)
				if !ok {
					continue
				}
				if !yield(id, comp) {
					return
				}
			}
		}
	}
}

// Values yields just the components.
func (q *Query[T]) Values() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for _, comp := range q.Iter() {
			if !yield(comp) {
				return
			}
		}
	}
}

// Count returns the number of matching entities.
func (q *Query[T]) Count() int {
	n := 0
	for _, archetype := range q.archetypes() {
		n += archetype.Len()
	}
	return n
}
