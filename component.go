package goudcore

import (
	"reflect"
	"unsafe"
)

// ComponentID identifies a component type inside one World. IDs are handed
// out in registration order and are not shared between worlds.
type ComponentID uint8

// compInfo bundles a component type's ID and reflect.Type.
type compInfo struct {
	typ      reflect.Type
	size     uintptr
	id       uint8
	pointers bool // value holds GC-visible pointers and must be copied typed
}

// componentRegistry maps Go types to per-world component IDs.
type componentRegistry struct {
	infos          [MaxComponentTypes]compInfo
	compTypeMap    map[reflect.Type]uint8
	nextCompTypeID uint16 // counter for assigning new component type IDs
}

// register or fetch a component type ID for t.
func (r *componentRegistry) register(t reflect.Type) uint8 {
	if id, ok := r.compTypeMap[t]; ok {
		return id
	}
	if r.nextCompTypeID >= MaxComponentTypes {
		panic("ecs: too many component types")
	}
	id := uint8(r.nextCompTypeID)
	r.compTypeMap[t] = id
	r.infos[id] = compInfo{
		typ:      t,
		size:     t.Size(),
		id:       id,
		pointers: hasPointers(t),
	}
	r.nextCompTypeID++
	return id
}

// lookup returns the ID of t without registering it.
func (r *componentRegistry) lookup(t reflect.Type) (uint8, bool) {
	id, ok := r.compTypeMap[t]
	return id, ok
}

// copyValue copies one component value of type id from src to dst. Types
// holding pointers go through reflect so the write barrier sees the store.
func (r *componentRegistry) copyValue(id uint8, dst, src unsafe.Pointer) {
	sp := &r.infos[id]
	if sp.pointers {
		reflect.NewAt(sp.typ, dst).Elem().Set(reflect.NewAt(sp.typ, src).Elem())
		return
	}
	memCopy(dst, src, sp.size)
}

// zeroValue clears a vacated row so the GC can drop what it referenced.
func (r *componentRegistry) zeroValue(id uint8, p unsafe.Pointer) {
	sp := &r.infos[id]
	if sp.pointers {
		reflect.NewAt(sp.typ, p).Elem().SetZero()
		return
	}
	if sp.size > 0 {
		clear(unsafe.Slice((*byte)(p), sp.size))
	}
}

// ComponentIDOf registers T with the world if needed and returns its ID. It is
// mostly useful for building exclusion lists for filters.
func ComponentIDOf[T any](w *World) ComponentID {
	return ComponentID(w.components.register(reflect.TypeFor[T]()))
}

// hasPointers reports whether values of t contain anything the garbage
// collector has to trace.
func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Chan,
		reflect.Func, reflect.Interface, reflect.Slice, reflect.String:
		return true
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
	}
	return false
}

// memCopy copies size bytes from src to dst using built-in copy for performance.
func memCopy(dst, src unsafe.Pointer, size uintptr) {
	if size == 0 {
		return
	}
	dstBytes := unsafe.Slice((*byte)(dst), size)
	srcBytes := unsafe.Slice((*byte)(src), size)
	copy(dstBytes, srcBytes)
}
