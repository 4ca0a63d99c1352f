// Package handle implements generational indices: small, copyable references
// that can be recycled without letting stale copies alias the new occupant.
package handle

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"
)

var (
	// ErrStaleHandle is returned when a handle's generation no longer matches
	// the allocator's live table, or its index was never allocated.
	ErrStaleHandle = eris.New("stale handle")
	// ErrAllocatorExhausted is returned when every 32-bit index is in use or
	// retired.
	ErrAllocatorExhausted = eris.New("handle allocator exhausted")
)

// maxIndex is the number of addressable slots. math.MaxUint32 itself is never
// handed out.
const maxIndex = math.MaxUint32

// Handle combines a slot index with the generation that slot had when the
// handle was issued. The zero Handle is never valid because generations start
// at 1.
type Handle struct {
	// Index is the recyclable slot identifier.
	Index uint32
	// Generation is bumped every time the slot is released.
	Generation uint32
}

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool {
	return h.Index == 0 && h.Generation == 0
}

// Less orders handles by index, then generation. It gives pair lists a
// deterministic order.
func (h Handle) Less(o Handle) bool {
	if h.Index != o.Index {
		return h.Index < o.Index
	}
	return h.Generation < o.Generation
}

// Bits packs the handle into a single uint64, generation in the upper half.
func (h Handle) Bits() uint64 {
	return uint64(h.Generation)<<32 | uint64(h.Index)
}

// FromBits is the inverse of Bits.
func FromBits(v uint64) Handle {
	return Handle{Index: uint32(v), Generation: uint32(v >> 32)}
}

// String formats h as <index>v<generation>, e.g. "3v2".
func (h Handle) String() string {
	return fmt.Sprintf("%dv%d", h.Index, h.Generation)
}

// Allocator issues handles and tracks which generation is live in each slot.
// It is not safe for concurrent use.
type Allocator struct {
	generations []uint32
	alive       []bool
	freeList    []uint32
	live        int
	retired     int
}

// NewAllocator returns an allocator with room for capacity slots before the
// generation table has to grow.
func NewAllocator(capacity int) *Allocator {
	return &Allocator{
		generations: make([]uint32, 0, capacity),
		alive:       make([]bool, 0, capacity),
		freeList:    make([]uint32, 0, capacity/4),
	}
}

// Allocate pops a recycled slot or grows the table by one. The only failure is
// exhaustion of the index space.
func (a *Allocator) Allocate() (Handle, error) {
	if n := len(a.freeList); n > 0 {
		idx := a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
		a.alive[idx] = true
		a.live++
		return Handle{Index: idx, Generation: a.generations[idx]}, nil
	}
	if uint64(len(a.generations)) >= maxIndex {
		return Handle{}, eris.Wrapf(ErrAllocatorExhausted, "%d slots in use or retired", len(a.generations))
	}
	idx := uint32(len(a.generations))
	a.generations = append(a.generations, 1)
	a.alive = append(a.alive, true)
	a.live++
	return Handle{Index: idx, Generation: 1}, nil
}

// Deallocate invalidates h and returns its slot to the free list. Releasing a
// handle twice yields ErrStaleHandle on the second call.
func (a *Allocator) Deallocate(h Handle) error {
	if !a.IsValid(h) {
		return eris.Wrapf(ErrStaleHandle, "deallocate %s", h)
	}
	next := a.generations[h.Index] + 1
	a.alive[h.Index] = false
	a.live--
	if next == 0 {
		// generation would wrap; keep the slot dead forever
		a.generations[h.Index] = 0
		a.retired++
		return nil
	}
	a.generations[h.Index] = next
	a.freeList = append(a.freeList, h.Index)
	return nil
}

// IsValid reports whether h refers to the live occupant of its slot.
func (a *Allocator) IsValid(h Handle) bool {
	if h.Generation == 0 || int(h.Index) >= len(a.generations) {
		return false
	}
	return a.alive[h.Index] && a.generations[h.Index] == h.Generation
}

// GenerationAt returns the current generation of a slot and whether that slot
// is live.
func (a *Allocator) GenerationAt(index uint32) (uint32, bool) {
	if int(index) >= len(a.generations) {
		return 0, false
	}
	return a.generations[index], a.alive[index]
}

// Len returns the number of live handles.
func (a *Allocator) Len() int { return a.live }

// Capacity returns the number of slots ever created, live or not.
func (a *Allocator) Capacity() int { return len(a.generations) }

// Retired returns the number of slots permanently taken out of rotation.
func (a *Allocator) Retired() int { return a.retired }

// Clear invalidates every live handle at once. Slots are kept and their
// generations bumped so no handle issued before Clear can validate again.
func (a *Allocator) Clear() {
	a.freeList = a.freeList[:0]
	a.live = 0
	for i := len(a.generations) - 1; i >= 0; i-- {
		g := a.generations[i]
		if g == 0 {
			continue
		}
		a.alive[i] = false
		next := g + 1
		if next == 0 {
			a.generations[i] = 0
			a.retired++
			continue
		}
		a.generations[i] = next
		a.freeList = append(a.freeList, uint32(i))
	}
}
