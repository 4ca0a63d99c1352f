package goudcore

import (
	"reflect"
	"unsafe"
)

// queryCache holds the archetypes matching a filter signature together with
// the iteration cursor shared by every Filter arity. Matching archetypes are
// kept in creation order; rows are visited in storage order.
type queryCache struct {
	world       *World
	cur         *chunk
	matching    []*archetype
	include     bitmask256
	exclude     bitmask256
	archVersion uint32
	archPos     int // index into matching
	chunkPos    int // index into matching[archPos].chunks
	idx         int // row inside cur
	curSize     int
}

func newQueryCache(w *World, include bitmask256) queryCache {
	q := queryCache{world: w, include: include}
	q.updateMatching()
	q.rewind()
	return q
}

// IsStale reports whether archetypes were created since the matching list
// was built.
func (q *queryCache) IsStale() bool {
	return q.archVersion != q.world.archetypes.archetypeVersion
}

func (q *queryCache) updateMatching() {
	q.matching = q.matching[:0]
	for _, a := range q.world.archetypes.archetypes {
		if a.mask.contains(q.include) && !a.mask.intersects(q.exclude) {
			q.matching = append(q.matching, a)
		}
	}
	q.archVersion = q.world.archetypes.archetypeVersion
}

func (q *queryCache) rewind() {
	q.archPos = 0
	q.chunkPos = -1
	q.idx = -1
	q.cur = nil
	q.curSize = 0
}

func (q *queryCache) reset() {
	if q.IsStale() {
		q.updateMatching()
	}
	q.rewind()
}

// advance moves the cursor to the first row of the next non-empty chunk.
func (q *queryCache) advance() bool {
	for q.archPos < len(q.matching) {
		a := q.matching[q.archPos]
		q.chunkPos++
		if q.chunkPos < len(a.chunks) {
			q.cur = a.chunks[q.chunkPos]
			q.curSize = q.cur.size
			q.idx = 0
			if q.curSize > 0 {
				return true
			}
			continue
		}
		q.archPos++
		q.chunkPos = -1
	}
	q.cur = nil
	q.curSize = 0
	return false
}

// next steps the cursor by one row.
func (q *queryCache) next() bool {
	q.idx++
	if q.idx < q.curSize {
		return true
	}
	return q.advance()
}

// Entity returns the current `Entity` in the iteration. This should only be
// called after `Next()` has returned true.
func (q *queryCache) Entity() Entity {
	return q.cur.entityIDs[q.idx]
}

// Count returns the number of entities currently matching the filter. It does
// not disturb an iteration in progress.
func (q *queryCache) Count() int {
	if q.IsStale() {
		q.updateMatching()
	}
	n := 0
	for _, a := range q.matching {
		n += a.size
	}
	return n
}

// Entities returns a snapshot of every matching entity. The slice is owned by
// the caller, so it is safe to mutate the world while walking it.
func (q *queryCache) Entities() []Entity {
	if q.IsStale() {
		q.updateMatching()
	}
	out := make([]Entity, 0, q.Count())
	for _, a := range q.matching {
		for _, c := range a.chunks {
			out = append(out, c.entityIDs[:c.size]...)
		}
	}
	return out
}

func (q *queryCache) without(ids []ComponentID) {
	for _, id := range ids {
		q.exclude.set(uint8(id))
	}
	q.updateMatching()
	q.rewind()
}

// Filter provides a fast, cache-friendly iterator over all entities that have a
// specific set of components. It is the primary mechanism for implementing
// game logic (systems). The filter iterates directly over the component arrays
// within matching archetypes, chunk by chunk.
//
// The sequence is single pass: call Reset to walk it again. Adding or removing
// components, spawning or despawning while a Filter is iterating an affected
// archetype is not allowed. Use Entities to collect first, then mutate.
type Filter[T any] struct {
	queryCache
	compSize uintptr
	compID   uint8
}

// NewFilter creates a new `Filter` that iterates over all entities possessing
// at least the component of type `T`. The filter discovers and caches the
// archetypes that match this component signature.
//
// Parameters:
//   - w: The World to query.
//
// Returns:
//   - A pointer to the newly created `Filter[T]`.
func NewFilter[T any](w *World) *Filter[T] {
	t := reflect.TypeFor[T]()
	id := w.components.register(t)
	var m bitmask256
	m.set(id)
	return &Filter[T]{
		queryCache: newQueryCache(w, m),
		compID:     id,
		compSize:   t.Size(),
	}
}

// Without excludes entities carrying any of the given components and rewinds
// the filter.
func (f *Filter[T]) Without(ids ...ComponentID) *Filter[T] {
	f.without(ids)
	return f
}

// Reset rewinds the filter's iterator to the beginning. It should be called if
// you need to iterate over the same set of entities multiple times. The filter
// will also detect if new archetypes have been created since the last
// iteration and update its internal list accordingly.
func (f *Filter[T]) Reset() {
	f.reset()
}

// Next advances the filter to the next matching entity. It returns true if an
// entity was found, and false if the iteration is complete. This method must
// be called before accessing the entity or its components.
//
// Example:
//
//	query := goudcore.NewFilter[Position](world)
//	for query.Next() {
//	    // ... process entity
//	}
func (f *Filter[T]) Next() bool {
	return f.next()
}

// Get returns a pointer to the component of type `T` for the current entity
// in the iteration. This should only be called after `Next()` has returned true.
func (f *Filter[T]) Get() *T {
	return (*T)(unsafe.Add(f.cur.compPointers[f.compID], uintptr(f.idx)*f.compSize))
}
