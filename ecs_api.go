package goudcore

import (
	"reflect"
	"unsafe"

	"github.com/rotisserie/eris"
)

// componentAt returns a typed pointer to row idx of column id in c.
func componentAt[T any](c *chunk, id uint8, idx int) *T {
	var zero T
	return (*T)(unsafe.Add(c.compPointers[id], uintptr(idx)*unsafe.Sizeof(zero)))
}

// AddComponent attaches a component of type `T` with the given value to an
// entity. The entity moves to the archetype holding its current component set
// plus T; every other component value is carried over unchanged.
//
// Parameters:
//   - w: The World where the entity resides.
//   - e: The Entity to modify.
//   - val: The component data of type `T`.
//
// Returns:
//   - ErrUnknownEntity if e is stale, ErrDuplicateComponent if e already has
//     a T. The world is left untouched in both cases.
func AddComponent[T any](w *World, e Entity, val T) error {
	t := reflect.TypeFor[T]()
	if !w.IsValid(e) {
		return eris.Wrapf(ErrUnknownEntity, "add %s to %s", t, e)
	}
	id := w.components.register(t)
	a, meta := w.archetypeOf(e)
	if a.mask.containsBit(id) {
		return eris.Wrapf(ErrDuplicateComponent, "add %s to %s", t, e)
	}
	c, idx := w.moveEntity(e, meta, w.transitionTarget(a, id, true))
	*componentAt[T](c, id, idx) = val
	return nil
}

// SetComponent adds a component of type `T` with the given value to an entity,
// or updates it if the component already exists.
//
// If the entity does not already have the component, adding it will cause the
// entity to move to a different archetype. This is a relatively expensive
// operation compared to updating an existing component.
//
// Returns:
//   - ErrUnknownEntity if e is stale.
func SetComponent[T any](w *World, e Entity, val T) error {
	t := reflect.TypeFor[T]()
	if !w.IsValid(e) {
		return eris.Wrapf(ErrUnknownEntity, "set %s on %s", t, e)
	}
	id := w.components.register(t)
	a, meta := w.archetypeOf(e)
	if a.mask.containsBit(id) {
		*componentAt[T](a.chunks[meta.chunkIndex], id, meta.index) = val
		return nil
	}
	c, idx := w.moveEntity(e, meta, w.transitionTarget(a, id, true))
	*componentAt[T](c, id, idx) = val
	return nil
}

// RemoveComponent removes the component of type `T` from the specified entity.
//
// This operation will cause the entity to move to a new archetype that does not
// include the removed component. The removed value is dropped.
//
// Returns:
//   - ErrUnknownEntity if e is stale, ErrComponentNotFound if e has no T.
func RemoveComponent[T any](w *World, e Entity) error {
	t := reflect.TypeFor[T]()
	if !w.IsValid(e) {
		return eris.Wrapf(ErrUnknownEntity, "remove %s from %s", t, e)
	}
	id, ok := w.components.lookup(t)
	a, meta := w.archetypeOf(e)
	if !ok || !a.mask.containsBit(id) {
		return eris.Wrapf(ErrComponentNotFound, "remove %s from %s", t, e)
	}
	w.moveEntity(e, meta, w.transitionTarget(a, id, false))
	return nil
}

// GetComponent retrieves a pointer to the component of type `T` for the given
// entity. The pointer is valid until the next structural change to the
// entity's archetype.
//
// If the entity is invalid or does not have the component, this function
// returns nil.
func GetComponent[T any](w *World, e Entity) *T {
	if !w.IsValid(e) {
		return nil
	}
	id, ok := w.components.lookup(reflect.TypeFor[T]())
	if !ok {
		return nil
	}
	a, meta := w.archetypeOf(e)
	if !a.mask.containsBit(id) {
		return nil
	}
	return componentAt[T](a.chunks[meta.chunkIndex], id, meta.index)
}

// GetComponent2 retrieves pointers to two components of an entity at once.
// Both pointers are nil unless the entity has both components.
func GetComponent2[T1 any, T2 any](w *World, e Entity) (*T1, *T2) {
	if !w.IsValid(e) {
		return nil, nil
	}
	id1, ok1 := w.components.lookup(reflect.TypeFor[T1]())
	id2, ok2 := w.components.lookup(reflect.TypeFor[T2]())
	if !ok1 || !ok2 {
		return nil, nil
	}
	a, meta := w.archetypeOf(e)
	if !a.mask.containsBit(id1) || !a.mask.containsBit(id2) {
		return nil, nil
	}
	c := a.chunks[meta.chunkIndex]
	return componentAt[T1](c, id1, meta.index), componentAt[T2](c, id2, meta.index)
}

// HasComponent reports whether e is alive and carries a component of type T.
func HasComponent[T any](w *World, e Entity) bool {
	if !w.IsValid(e) {
		return false
	}
	id, ok := w.components.lookup(reflect.TypeFor[T]())
	if !ok {
		return false
	}
	a, _ := w.archetypeOf(e)
	return a.mask.containsBit(id)
}
