package goudcore

import (
	"fmt"
	"reflect"
	"unsafe"
)

// signature registers types with w and returns their IDs, sizes and the
// combined mask. It panics if a type appears twice.
func signature(w *World, name string, types ...reflect.Type) ([]uint8, []uintptr, bitmask256) {
	ids := make([]uint8, len(types))
	sizes := make([]uintptr, len(types))
	var m bitmask256
	for i, t := range types {
		id := w.components.register(t)
		if m.containsBit(id) {
			panic(fmt.Sprintf("ecs: duplicate component types in %s", name))
		}
		m.set(id)
		ids[i] = id
		sizes[i] = t.Size()
	}
	return ids, sizes, m
}

// Filter2 provides a fast, cache-friendly iterator over all entities that
// have the 2 components: T1, T2.
type Filter2[T1 any, T2 any] struct {
	queryCache
	compSizes [2]uintptr
	ids       [2]uint8
}

// NewFilter2 creates a new `Filter` that iterates over all entities
// possessing at least the 2 components: T1, T2.
func NewFilter2[T1 any, T2 any](w *World) *Filter2[T1, T2] {
	ids, sizes, m := signature(w, "Filter2", reflect.TypeFor[T1](), reflect.TypeFor[T2]())
	f := &Filter2[T1, T2]{queryCache: newQueryCache(w, m)}
	copy(f.ids[:], ids)
	copy(f.compSizes[:], sizes)
	return f
}

// Without excludes entities carrying any of the given components.
func (f *Filter2[T1, T2]) Without(ids ...ComponentID) *Filter2[T1, T2] {
	f.without(ids)
	return f
}

// Reset rewinds the filter's iterator to the beginning. It must be called
// before re-iterating over a filter (e.g., in a loop).
func (f *Filter2[T1, T2]) Reset() {
	f.reset()
}

// Next advances the filter to the next matching entity.
func (f *Filter2[T1, T2]) Next() bool {
	return f.next()
}

// Get returns pointers to the 2 components (T1, T2) for the
// current entity in the iteration.
func (f *Filter2[T1, T2]) Get() (*T1, *T2) {
	c := f.cur
	return (*T1)(unsafe.Add(c.compPointers[f.ids[0]], uintptr(f.idx)*f.compSizes[0])),
		(*T2)(unsafe.Add(c.compPointers[f.ids[1]], uintptr(f.idx)*f.compSizes[1]))
}

// Filter3 provides a fast, cache-friendly iterator over all entities that
// have the 3 components: T1, T2, T3.
type Filter3[T1 any, T2 any, T3 any] struct {
	queryCache
	compSizes [3]uintptr
	ids       [3]uint8
}

// NewFilter3 creates a new `Filter` that iterates over all entities
// possessing at least the 3 components: T1, T2, T3.
func NewFilter3[T1 any, T2 any, T3 any](w *World) *Filter3[T1, T2, T3] {
	ids, sizes, m := signature(w, "Filter3",
		reflect.TypeFor[T1](), reflect.TypeFor[T2](), reflect.TypeFor[T3]())
	f := &Filter3[T1, T2, T3]{queryCache: newQueryCache(w, m)}
	copy(f.ids[:], ids)
	copy(f.compSizes[:], sizes)
	return f
}

// Without excludes entities carrying any of the given components.
func (f *Filter3[T1, T2, T3]) Without(ids ...ComponentID) *Filter3[T1, T2, T3] {
	f.without(ids)
	return f
}

// Reset rewinds the filter's iterator to the beginning.
func (f *Filter3[T1, T2, T3]) Reset() {
	f.reset()
}

// Next advances the filter to the next matching entity.
func (f *Filter3[T1, T2, T3]) Next() bool {
	return f.next()
}

// Get returns pointers to the 3 components (T1, T2, T3) for the
// current entity in the iteration.
func (f *Filter3[T1, T2, T3]) Get() (*T1, *T2, *T3) {
	c := f.cur
	return (*T1)(unsafe.Add(c.compPointers[f.ids[0]], uintptr(f.idx)*f.compSizes[0])),
		(*T2)(unsafe.Add(c.compPointers[f.ids[1]], uintptr(f.idx)*f.compSizes[1])),
		(*T3)(unsafe.Add(c.compPointers[f.ids[2]], uintptr(f.idx)*f.compSizes[2]))
}

// Filter4 provides a fast, cache-friendly iterator over all entities that
// have the 4 components: T1, T2, T3, T4.
type Filter4[T1 any, T2 any, T3 any, T4 any] struct {
	queryCache
	compSizes [4]uintptr
	ids       [4]uint8
}

// NewFilter4 creates a new `Filter` that iterates over all entities
// possessing at least the 4 components: T1, T2, T3, T4.
func NewFilter4[T1 any, T2 any, T3 any, T4 any](w *World) *Filter4[T1, T2, T3, T4] {
	ids, sizes, m := signature(w, "Filter4",
		reflect.TypeFor[T1](), reflect.TypeFor[T2](), reflect.TypeFor[T3](), reflect.TypeFor[T4]())
	f := &Filter4[T1, T2, T3, T4]{queryCache: newQueryCache(w, m)}
	copy(f.ids[:], ids)
	copy(f.compSizes[:], sizes)
	return f
}

// Without excludes entities carrying any of the given components.
func (f *Filter4[T1, T2, T3, T4]) Without(ids ...ComponentID) *Filter4[T1, T2, T3, T4] {
	f.without(ids)
	return f
}

// Reset rewinds the filter's iterator to the beginning.
func (f *Filter4[T1, T2, T3, T4]) Reset() {
	f.reset()
}

// Next advances the filter to the next matching entity.
func (f *Filter4[T1, T2, T3, T4]) Next() bool {
	return f.next()
}

// Get returns pointers to the 4 components (T1, T2, T3, T4) for the
// current entity in the iteration.
func (f *Filter4[T1, T2, T3, T4]) Get() (*T1, *T2, *T3, *T4) {
	c := f.cur
	return (*T1)(unsafe.Add(c.compPointers[f.ids[0]], uintptr(f.idx)*f.compSizes[0])),
		(*T2)(unsafe.Add(c.compPointers[f.ids[1]], uintptr(f.idx)*f.compSizes[1])),
		(*T3)(unsafe.Add(c.compPointers[f.ids[2]], uintptr(f.idx)*f.compSizes[2])),
		(*T4)(unsafe.Add(c.compPointers[f.ids[3]], uintptr(f.idx)*f.compSizes[3]))
}
