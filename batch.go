package goudcore

import "reflect"

// AddComponentBatch adds a component of type `T` set to val to every entity
// in entities that does not have one yet. Entities that already carry a T keep
// their value. Transitions are resolved once per source archetype.
//
// Returns:
//   - Pointers to each entity's T in input order, nil for stale entities. They
//     stay valid until the next structural change.
func AddComponentBatch[T any](w *World, entities []Entity, val T) []*T {
	id := w.components.register(reflect.TypeFor[T]())
	res := make([]*T, len(entities))
	targets := make(map[int]*archetype)
	for i, e := range entities {
		if !w.IsValid(e) {
			continue
		}
		a, meta := w.archetypeOf(e)
		if a.mask.containsBit(id) {
			res[i] = componentAt[T](a.chunks[meta.chunkIndex], id, meta.index)
			continue
		}
		target, ok := targets[a.index]
		if !ok {
			target = w.transitionTarget(a, id, true)
			targets[a.index] = target
		}
		c, idx := w.moveEntity(e, meta, target)
		p := componentAt[T](c, id, idx)
		*p = val
		res[i] = p
	}
	return res
}

// SetComponentBatch sets the component of type `T` on every live entity in
// entities, adding it where missing. It returns the number of entities
// updated.
func SetComponentBatch[T any](w *World, entities []Entity, val T) int {
	n := 0
	for _, p := range AddComponentBatch(w, entities, val) {
		if p != nil {
			*p = val
			n++
		}
	}
	return n
}

// RemoveComponentBatch removes the component of type `T` from every entity in
// entities that has one. It returns the number of entities changed.
func RemoveComponentBatch[T any](w *World, entities []Entity) int {
	id, ok := w.components.lookup(reflect.TypeFor[T]())
	if !ok {
		return 0
	}
	n := 0
	targets := make(map[int]*archetype)
	for _, e := range entities {
		if !w.IsValid(e) {
			continue
		}
		a, meta := w.archetypeOf(e)
		if !a.mask.containsBit(id) {
			continue
		}
		target, ok := targets[a.index]
		if !ok {
			target = w.transitionTarget(a, id, false)
			targets[a.index] = target
		}
		w.moveEntity(e, meta, target)
		n++
	}
	return n
}

// DespawnBatch despawns every live entity in entities and returns how many
// were removed. Stale handles are skipped.
func (w *World) DespawnBatch(entities []Entity) int {
	n := 0
	for _, e := range entities {
		if w.Despawn(e) == nil {
			n++
		}
	}
	return n
}
