// Package goudcore is the runtime core of the engine: an archetype-based
// entity component store with typed builders and filters. Entities that share
// a component set live in the same archetype, whose data is laid out column by
// column in fixed-size chunks.
//
// A World is not safe for concurrent use. Structural changes (spawn, despawn,
// adding or removing components) must not happen while a Filter is iterating
// an archetype they touch: collect entities first, mutate afterwards.
package goudcore

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/rotisserie/eris"

	"github.com/edwinsyarief/goudcore/handle"
)

// MaxComponentTypes defines the maximum number of unique component types that can be
// registered in a World. This value is fixed at 256.
const MaxComponentTypes = 256

// ChunkSize is the number of rows stored in one chunk of an archetype.
const ChunkSize = 1024

// Entity identifies an object in the World. It is a generational handle: a
// recycled index never validates against an Entity issued before the recycle.
type Entity = handle.Handle

// entityMeta holds the internal location of an entity.
type entityMeta struct {
	archetypeIndex int // index in World.archetypes
	chunkIndex     int // index in archetype.chunks
	index          int // position inside the chunk's component arrays
}

// chunk holds column storage for up to ChunkSize rows.
type chunk struct {
	entityIDs    [ChunkSize]Entity
	compPointers [MaxComponentTypes]unsafe.Pointer
	size         int // number of rows in this chunk, 0 to ChunkSize
}

// at returns the address of row idx in the column for id.
func (c *chunk) at(id uint8, idx int, size uintptr) unsafe.Pointer {
	return unsafe.Add(c.compPointers[id], uintptr(idx)*size)
}

// archetype holds storage for one unique component-set mask. Every chunk but
// the last one is full.
type archetype struct {
	chunks    []*chunk
	compOrder []uint8 // component IDs in ascending order
	compSizes [MaxComponentTypes]uintptr
	mask      bitmask256 // which component bits this arch uses
	index     int        // position in world.archetypes
	size      int        // total entity count across chunks
}

// archetypeRegistry tracks every archetype of a world. Archetypes are never
// pruned, so an index stays valid for the world's lifetime.
type archetypeRegistry struct {
	maskToArcIndex   map[bitmask256]int // lookup mask→archetype index
	archetypes       []*archetype       // in creation order
	archetypeVersion uint32             // incremented when a new archetype is created
}

// World owns entities, their archetypes and the per-world component registry.
type World struct {
	resources       *Resources
	events          *EventBus
	handles         *handle.Allocator
	metas           []entityMeta // indexed by Entity.Index
	archetypes      archetypeRegistry
	components      componentRegistry
	mutationVersion uint32 // incremented on structural mutations
}

// NewWorld creates a World with room for initialCapacity entities before its
// entity tables have to grow.
func NewWorld(initialCapacity int) *World {
	w := &World{
		resources: &Resources{},
		events:    &EventBus{},
		handles:   handle.NewAllocator(initialCapacity),
		metas:     make([]entityMeta, 0, initialCapacity),
		components: componentRegistry{
			compTypeMap: make(map[reflect.Type]uint8, 16),
		},
		archetypes: archetypeRegistry{
			maskToArcIndex: make(map[bitmask256]int),
			archetypes:     make([]*archetype, 0, 16),
		},
	}
	// archetype 0 is always the empty component set
	w.getOrCreateArchetype(bitmask256{})
	return w
}

// Resources returns the world's typed singleton registry.
func (w *World) Resources() *Resources {
	return w.resources
}

// Events returns the world's synchronous event bus.
func (w *World) Events() *EventBus {
	return w.events
}

// IsValid reports whether e is currently alive in this world.
func (w *World) IsValid(e Entity) bool {
	return w.handles.IsValid(e)
}

// Len returns the number of live entities.
func (w *World) Len() int {
	return w.handles.Len()
}

// ArchetypeCount returns the number of archetypes created so far, including
// the empty one.
func (w *World) ArchetypeCount() int {
	return len(w.archetypes.archetypes)
}

// Spawn creates an entity with no components.
func (w *World) Spawn() Entity {
	return w.createEntity(w.archetypes.archetypes[0])
}

// SpawnBatch creates count entities with no components.
func (w *World) SpawnBatch(count int) []Entity {
	if count <= 0 {
		return nil
	}
	a := w.archetypes.archetypes[0]
	ents := make([]Entity, count)
	for i := range ents {
		ents[i] = w.createEntity(a)
	}
	return ents
}

// Despawn removes e and all its components. The handle is released and will
// never validate again.
func (w *World) Despawn(e Entity) error {
	if !w.IsValid(e) {
		return eris.Wrapf(ErrUnknownEntity, "despawn %s", e)
	}
	meta := &w.metas[e.Index]
	a := w.archetypes.archetypes[meta.archetypeIndex]
	w.removeFromArchetype(a, meta)
	*meta = entityMeta{archetypeIndex: -1, chunkIndex: -1, index: -1}
	if err := w.handles.Deallocate(e); err != nil {
		panic(fmt.Sprintf("ecs: entity table out of sync: %v", err))
	}
	w.mutationVersion++
	return nil
}

// Clear removes every entity. Archetypes and registered component types are
// kept so filters built earlier stay usable.
func (w *World) Clear() {
	for _, a := range w.archetypes.archetypes {
		clear(a.chunks)
		a.chunks = a.chunks[:0]
		a.size = 0
	}
	for i := range w.metas {
		w.metas[i] = entityMeta{archetypeIndex: -1, chunkIndex: -1, index: -1}
	}
	w.handles.Clear()
	w.mutationVersion++
}

// archetypeOf returns the archetype e lives in; e must be valid.
func (w *World) archetypeOf(e Entity) (*archetype, *entityMeta) {
	meta := &w.metas[e.Index]
	return w.archetypes.archetypes[meta.archetypeIndex], meta
}

// getOrCreateArchetype returns the archetype for mask, creating it when this
// component combination is seen for the first time.
func (w *World) getOrCreateArchetype(mask bitmask256) *archetype {
	if idx, ok := w.archetypes.maskToArcIndex[mask]; ok {
		return w.archetypes.archetypes[idx]
	}
	a := &archetype{
		index:     len(w.archetypes.archetypes),
		mask:      mask,
		chunks:    make([]*chunk, 0, 4),
		compOrder: mask.ids(make([]uint8, 0, mask.count())),
	}
	for _, cid := range a.compOrder {
		a.compSizes[cid] = w.components.infos[cid].size
	}
	w.archetypes.archetypes = append(w.archetypes.archetypes, a)
	w.archetypes.maskToArcIndex[mask] = a.index
	w.archetypes.archetypeVersion++
	return a
}

// newChunk allocates one column per component of the archetype.
func (w *World) newChunk(a *archetype) *chunk {
	c := &chunk{}
	for _, cid := range a.compOrder {
		typ := w.components.infos[cid].typ
		slice := reflect.MakeSlice(reflect.SliceOf(typ), ChunkSize, ChunkSize)
		c.compPointers[cid] = slice.UnsafePointer()
	}
	return c
}

// reserveRow makes sure the archetype's last chunk has a free row and returns
// it. Nothing observable changes: sizes are bumped by the caller once the row
// is written.
func (w *World) reserveRow(a *archetype) (*chunk, int) {
	if len(a.chunks) == 0 || a.chunks[len(a.chunks)-1].size == ChunkSize {
		a.chunks = append(a.chunks, w.newChunk(a))
	}
	c := a.chunks[len(a.chunks)-1]
	return c, c.size
}

// createEntity allocates a handle and appends a zeroed row for it in a.
func (w *World) createEntity(a *archetype) Entity {
	c, idx := w.reserveRow(a)
	e, err := w.handles.Allocate()
	if err != nil {
		panic(err)
	}
	if int(e.Index) >= len(w.metas) {
		w.metas = append(w.metas, make([]entityMeta, int(e.Index)+1-len(w.metas))...)
	}
	c.entityIDs[idx] = e
	c.size++
	a.size++
	w.metas[e.Index] = entityMeta{
		archetypeIndex: a.index,
		chunkIndex:     len(a.chunks) - 1,
		index:          idx,
	}
	w.mutationVersion++
	return e
}

// transitionTarget returns the archetype reached from a by adding (add=true)
// or removing component id.
func (w *World) transitionTarget(a *archetype, id uint8, add bool) *archetype {
	if add {
		return w.getOrCreateArchetype(a.mask.with(id))
	}
	return w.getOrCreateArchetype(a.mask.without(id))
}

// moveEntity performs an archetype transition: e's row is appended to target,
// every column both archetypes share is copied over, then the source row is
// swap-removed. The destination row is reserved before anything is written,
// so a failed chunk allocation leaves e untouched. It returns the new row.
func (w *World) moveEntity(e Entity, meta *entityMeta, target *archetype) (*chunk, int) {
	src := w.archetypes.archetypes[meta.archetypeIndex]
	dst, dstIdx := w.reserveRow(target)
	srcChunk := src.chunks[meta.chunkIndex]
	if meta.index >= srcChunk.size {
		panic("ecs: row index out of range")
	}
	for _, cid := range src.compOrder {
		if !target.mask.containsBit(cid) {
			continue
		}
		size := src.compSizes[cid]
		w.components.copyValue(cid, dst.at(cid, dstIdx, size), srcChunk.at(cid, meta.index, size))
	}
	dst.entityIDs[dstIdx] = e
	dst.size++
	target.size++
	dstChunkIdx := len(target.chunks) - 1
	w.removeFromArchetype(src, meta)
	meta.archetypeIndex = target.index
	meta.chunkIndex = dstChunkIdx
	meta.index = dstIdx
	w.mutationVersion++
	return dst, dstIdx
}

// removeFromArchetype drops the entity's row from a by moving the archetype's
// last row into the hole. It does not touch the entity's handle or meta.
func (w *World) removeFromArchetype(a *archetype, meta *entityMeta) {
	c := a.chunks[meta.chunkIndex]
	idx := meta.index
	if idx >= c.size {
		panic("ecs: row index out of range")
	}
	lastChunkIdx := len(a.chunks) - 1
	lastC := a.chunks[lastChunkIdx]
	lastIdx := lastC.size - 1
	if c != lastC || idx != lastIdx {
		lastEnt := lastC.entityIDs[lastIdx]
		c.entityIDs[idx] = lastEnt
		for _, cid := range a.compOrder {
			size := a.compSizes[cid]
			w.components.copyValue(cid, c.at(cid, idx, size), lastC.at(cid, lastIdx, size))
		}
		moved := &w.metas[lastEnt.Index]
		moved.chunkIndex = meta.chunkIndex
		moved.index = idx
	}
	for _, cid := range a.compOrder {
		w.components.zeroValue(cid, lastC.at(cid, lastIdx, a.compSizes[cid]))
	}
	lastC.entityIDs[lastIdx] = Entity{}
	lastC.size--
	a.size--
	if lastC.size == 0 {
		a.chunks[lastChunkIdx] = nil
		a.chunks = a.chunks[:lastChunkIdx]
	}
}
