package goudcore

import "reflect"

// Builder spawns entities straight into the archetype {T}, skipping the
// transitions AddComponent would go through.
type Builder[T any] struct {
	world  *World
	arch   *archetype
	compID uint8
}

// NewBuilder registers T with w and resolves its archetype.
func NewBuilder[T any](w *World) *Builder[T] {
	ids, _, mask := signature(w, "Builder", reflect.TypeFor[T]())
	return &Builder[T]{world: w, arch: w.getOrCreateArchetype(mask), compID: ids[0]}
}

// Spawn creates one entity carrying v.
func (b *Builder[T]) Spawn(v T) Entity {
	e := b.world.createEntity(b.arch)
	meta := b.world.metas[e.Index]
	*componentAt[T](b.arch.chunks[meta.chunkIndex], b.compID, meta.index) = v
	return e
}

// SpawnBatch creates count entities that all start with v.
func (b *Builder[T]) SpawnBatch(count int, v T) []Entity {
	if count <= 0 {
		return nil
	}
	ents := make([]Entity, count)
	for i := range ents {
		ents[i] = b.Spawn(v)
	}
	return ents
}

// Get returns e's T, or nil when e is stale or has no T.
func (b *Builder[T]) Get(e Entity) *T {
	return GetComponent[T](b.world, e)
}

// Builder2 spawns entities straight into the archetype {T1, T2}.
type Builder2[T1 any, T2 any] struct {
	world *World
	arch  *archetype
	ids   [2]uint8
}

// NewBuilder2 registers T1 and T2 with w and resolves their archetype.
func NewBuilder2[T1 any, T2 any](w *World) *Builder2[T1, T2] {
	ids, _, mask := signature(w, "Builder2", reflect.TypeFor[T1](), reflect.TypeFor[T2]())
	b := &Builder2[T1, T2]{world: w, arch: w.getOrCreateArchetype(mask)}
	copy(b.ids[:], ids)
	return b
}

// Spawn creates one entity carrying v1 and v2.
func (b *Builder2[T1, T2]) Spawn(v1 T1, v2 T2) Entity {
	e := b.world.createEntity(b.arch)
	meta := b.world.metas[e.Index]
	c := b.arch.chunks[meta.chunkIndex]
	*componentAt[T1](c, b.ids[0], meta.index) = v1
	*componentAt[T2](c, b.ids[1], meta.index) = v2
	return e
}

// SpawnBatch creates count entities that all start with v1 and v2.
func (b *Builder2[T1, T2]) SpawnBatch(count int, v1 T1, v2 T2) []Entity {
	if count <= 0 {
		return nil
	}
	ents := make([]Entity, count)
	for i := range ents {
		ents[i] = b.Spawn(v1, v2)
	}
	return ents
}

// Get returns e's components, or nils when e no longer matches.
func (b *Builder2[T1, T2]) Get(e Entity) (*T1, *T2) {
	return GetComponent2[T1, T2](b.world, e)
}

// Builder3 spawns entities straight into the archetype {T1, T2, T3}.
type Builder3[T1 any, T2 any, T3 any] struct {
	world *World
	arch  *archetype
	ids   [3]uint8
}

// NewBuilder3 registers T1, T2 and T3 with w and resolves their archetype.
func NewBuilder3[T1 any, T2 any, T3 any](w *World) *Builder3[T1, T2, T3] {
	ids, _, mask := signature(w, "Builder3",
		reflect.TypeFor[T1](), reflect.TypeFor[T2](), reflect.TypeFor[T3]())
	b := &Builder3[T1, T2, T3]{world: w, arch: w.getOrCreateArchetype(mask)}
	copy(b.ids[:], ids)
	return b
}

// Spawn creates one entity carrying v1, v2 and v3.
func (b *Builder3[T1, T2, T3]) Spawn(v1 T1, v2 T2, v3 T3) Entity {
	e := b.world.createEntity(b.arch)
	meta := b.world.metas[e.Index]
	c := b.arch.chunks[meta.chunkIndex]
	*componentAt[T1](c, b.ids[0], meta.index) = v1
	*componentAt[T2](c, b.ids[1], meta.index) = v2
	*componentAt[T3](c, b.ids[2], meta.index) = v3
	return e
}

// SpawnBatch creates count entities that all start with the given values.
func (b *Builder3[T1, T2, T3]) SpawnBatch(count int, v1 T1, v2 T2, v3 T3) []Entity {
	if count <= 0 {
		return nil
	}
	ents := make([]Entity, count)
	for i := range ents {
		ents[i] = b.Spawn(v1, v2, v3)
	}
	return ents
}

// Get returns e's components, or nils when e no longer matches.
func (b *Builder3[T1, T2, T3]) Get(e Entity) (*T1, *T2, *T3) {
	w := b.world
	t1, t2 := GetComponent2[T1, T2](w, e)
	t3 := GetComponent[T3](w, e)
	if t1 == nil || t3 == nil {
		return nil, nil, nil
	}
	return t1, t2, t3
}
