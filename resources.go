package goudcore

import (
	"fmt"
	"reflect"
)

// Resources holds world-wide singletons (clocks, config, the collision
// pipeline, asset stores) that systems look up by type. At most one resource
// of a given dynamic type is stored at a time. IDs freed by Remove are reused.
type Resources struct {
	items   []any
	types   map[reflect.Type]int
	freeIds []int
}

// Add stores res and returns its ID. It panics if res is nil or a resource of
// the same dynamic type is already present.
func (r *Resources) Add(res any) int {
	if res == nil {
		panic("ecs: cannot add nil resource")
	}
	t := reflect.TypeOf(res)
	if r.types == nil {
		r.types = make(map[reflect.Type]int)
	}
	if _, ok := r.types[t]; ok {
		panic(fmt.Sprintf("ecs: resource %s already exists", t))
	}
	var id int
	if n := len(r.freeIds); n > 0 {
		id = r.freeIds[n-1]
		r.freeIds = r.freeIds[:n-1]
		r.items[id] = res
	} else {
		r.items = append(r.items, res)
		id = len(r.items) - 1
	}
	r.types[t] = id
	return id
}

// Has checks if a resource with the given ID exists.
func (r *Resources) Has(id int) bool {
	return id >= 0 && id < len(r.items) && r.items[id] != nil
}

// Get retrieves the resource by ID, or nil if it doesn't exist.
func (r *Resources) Get(id int) any {
	if !r.Has(id) {
		return nil
	}
	return r.items[id]
}

// Remove drops the resource by ID if it exists.
func (r *Resources) Remove(id int) {
	if !r.Has(id) {
		return
	}
	delete(r.types, reflect.TypeOf(r.items[id]))
	r.items[id] = nil
	r.freeIds = append(r.freeIds, id)
}

// Len returns the number of stored resources.
func (r *Resources) Len() int {
	return len(r.types)
}

// Clear removes all resources.
func (r *Resources) Clear() {
	clear(r.items)
	r.items = r.items[:0]
	clear(r.types)
	r.freeIds = r.freeIds[:0]
}

// HasResource reports whether a *T resource exists and returns its ID, or
// false and -1.
func HasResource[T any](r *Resources) (bool, int) {
	if id, ok := r.types[reflect.TypeFor[*T]()]; ok {
		return true, id
	}
	return false, -1
}

// GetResource returns the stored *T and its ID, or nil and -1. Resources are
// keyed by their dynamic type, so they must be added as pointers to be found
// here. SetResource does that for you.
func GetResource[T any](r *Resources) (*T, int) {
	if id, ok := r.types[reflect.TypeFor[*T]()]; ok {
		return r.items[id].(*T), id
	}
	return nil, -1
}

// SetResource stores res as the *T resource, replacing any previous one in
// place so its ID stays stable. It returns the ID. A nil res panics.
func SetResource[T any](r *Resources, res *T) int {
	if res == nil {
		panic(fmt.Sprintf("ecs: cannot set nil resource %s", reflect.TypeFor[*T]()))
	}
	if id, ok := r.types[reflect.TypeFor[*T]()]; ok {
		r.items[id] = res
		return id
	}
	return r.Add(res)
}

// RemoveResource drops the *T resource and returns it, or nil and false.
func RemoveResource[T any](r *Resources) (*T, bool) {
	res, id := GetResource[T](r)
	if id < 0 {
		return nil, false
	}
	r.Remove(id)
	return res, true
}

// MustResource returns the *T resource and panics when it is missing. Use it
// in systems whose resources are registered at startup.
func MustResource[T any](r *Resources) *T {
	res, id := GetResource[T](r)
	if id < 0 {
		panic(fmt.Sprintf("ecs: missing resource %s", reflect.TypeFor[*T]()))
	}
	return res
}
