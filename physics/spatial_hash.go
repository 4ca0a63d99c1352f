package physics

import (
	"fmt"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/edwinsyarief/goudcore/handle"
)

// Pair is a candidate collision pair. A is always ordered before B.
type Pair struct {
	A, B handle.Handle
}

func makePair(a, b handle.Handle) Pair {
	if b.Less(a) {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

func comparePairs(x, y Pair) int {
	switch {
	case x.A.Less(y.A):
		return -1
	case y.A.Less(x.A):
		return 1
	case x.B.Less(y.B):
		return -1
	case y.B.Less(x.B):
		return 1
	}
	return 0
}

func compareHandles(x, y handle.Handle) int {
	switch {
	case x.Less(y):
		return -1
	case y.Less(x):
		return 1
	}
	return 0
}

type cellKey struct {
	x, y int32
}

// cellRange is an inclusive range of grid cells.
type cellRange struct {
	min, max cellKey
}

type hashEntry struct {
	bounds AABB
	cells  cellRange
}

// Stats describes the occupancy of a SpatialHash.
type Stats struct {
	Entities   int
	Cells      int
	MaxPerCell int
	AvgPerCell float32
	LastPairs  int
}

// SpatialHash is a uniform grid broad-phase. Each entry is bucketed into every
// cell its AABB touches, and candidate pairs are produced per cell without an
// all-pairs scan. It is not safe for concurrent use.
type SpatialHash struct {
	cells     map[cellKey][]handle.Handle
	entries   map[handle.Handle]*hashEntry
	pairs     []Pair
	cellSize  float32
	invSize   float32
	lastPairs int
}

// NewSpatialHash creates a grid with square cells of the given size. It
// panics if cellSize is not positive.
func NewSpatialHash(cellSize float32) *SpatialHash {
	if !(cellSize > 0) || math.IsInf(float64(cellSize), 0) {
		panic(fmt.Sprintf("physics: invalid cell size %v", cellSize))
	}
	return &SpatialHash{
		cells:    make(map[cellKey][]handle.Handle),
		entries:  make(map[handle.Handle]*hashEntry),
		cellSize: cellSize,
		invSize:  1 / cellSize,
	}
}

// CellSize returns the edge length of a grid cell.
func (h *SpatialHash) CellSize() float32 {
	return h.cellSize
}

func (h *SpatialHash) cellOf(p Vec2) cellKey {
	return cellKey{
		x: int32(math.Floor(float64(p[0] * h.invSize))),
		y: int32(math.Floor(float64(p[1] * h.invSize))),
	}
}

func (h *SpatialHash) rangeOf(b AABB) cellRange {
	return cellRange{min: h.cellOf(b.Min), max: h.cellOf(b.Max)}
}

func (h *SpatialHash) addToCells(id handle.Handle, r cellRange) {
	for x := r.min.x; x <= r.max.x; x++ {
		for y := r.min.y; y <= r.max.y; y++ {
			k := cellKey{x, y}
			h.cells[k] = append(h.cells[k], id)
		}
	}
}

func (h *SpatialHash) removeFromCells(id handle.Handle, r cellRange) {
	for x := r.min.x; x <= r.max.x; x++ {
		for y := r.min.y; y <= r.max.y; y++ {
			k := cellKey{x, y}
			bucket := h.cells[k]
			for i, other := range bucket {
				if other == id {
					last := len(bucket) - 1
					bucket[i] = bucket[last]
					bucket = bucket[:last]
					break
				}
			}
			if len(bucket) == 0 {
				delete(h.cells, k)
			} else {
				h.cells[k] = bucket
			}
		}
	}
}

// Insert adds id with the given bounds. Inserting an id that is already
// present moves it, like Update.
func (h *SpatialHash) Insert(id handle.Handle, bounds AABB) {
	if _, ok := h.entries[id]; ok {
		h.Update(id, bounds)
		return
	}
	e := &hashEntry{bounds: bounds, cells: h.rangeOf(bounds)}
	h.entries[id] = e
	h.addToCells(id, e.cells)
}

// Update moves id to new bounds, inserting it if absent. Cell buckets are only
// touched when the covered cell range changes.
func (h *SpatialHash) Update(id handle.Handle, bounds AABB) {
	e, ok := h.entries[id]
	if !ok {
		h.Insert(id, bounds)
		return
	}
	e.bounds = bounds
	r := h.rangeOf(bounds)
	if r == e.cells {
		return
	}
	h.removeFromCells(id, e.cells)
	e.cells = r
	h.addToCells(id, r)
}

// Remove deletes id from every cell it occupies. It reports whether id was
// present.
func (h *SpatialHash) Remove(id handle.Handle) bool {
	e, ok := h.entries[id]
	if !ok {
		return false
	}
	h.removeFromCells(id, e.cells)
	delete(h.entries, id)
	return true
}

// Contains reports whether id is tracked.
func (h *SpatialHash) Contains(id handle.Handle) bool {
	_, ok := h.entries[id]
	return ok
}

// AABBOf returns the bounds stored for id.
func (h *SpatialHash) AABBOf(id handle.Handle) (AABB, bool) {
	e, ok := h.entries[id]
	if !ok {
		return AABB{}, false
	}
	return e.bounds, true
}

// Len returns the number of tracked entries.
func (h *SpatialHash) Len() int {
	return len(h.entries)
}

// Clear removes every entry.
func (h *SpatialHash) Clear() {
	clear(h.cells)
	clear(h.entries)
	h.lastPairs = 0
}

// QueryPairs returns every pair of entries whose AABBs overlap, exactly once,
// sorted by handle. A pair sharing several cells is only emitted from the
// lowest cell of their shared range. The returned slice is reused by the next
// call.
func (h *SpatialHash) QueryPairs() []Pair {
	h.pairs = h.pairs[:0]
	for k, bucket := range h.cells {
		for i := 0; i < len(bucket); i++ {
			ea := h.entries[bucket[i]]
			for j := i + 1; j < len(bucket); j++ {
				eb := h.entries[bucket[j]]
				owner := cellKey{
					x: max(ea.cells.min.x, eb.cells.min.x),
					y: max(ea.cells.min.y, eb.cells.min.y),
				}
				if owner != k || !ea.bounds.Intersects(eb.bounds) {
					continue
				}
				h.pairs = append(h.pairs, makePair(bucket[i], bucket[j]))
			}
		}
	}
	slices.SortFunc(h.pairs, comparePairs)
	h.lastPairs = len(h.pairs)
	return h.pairs
}

// QueryAABB returns the entries whose bounds intersect region, sorted by
// handle.
func (h *SpatialHash) QueryAABB(region AABB) []handle.Handle {
	r := h.rangeOf(region)
	var out []handle.Handle
	for x := r.min.x; x <= r.max.x; x++ {
		for y := r.min.y; y <= r.max.y; y++ {
			k := cellKey{x, y}
			for _, id := range h.cells[k] {
				e := h.entries[id]
				owner := cellKey{x: max(e.cells.min.x, r.min.x), y: max(e.cells.min.y, r.min.y)}
				if owner == k && e.bounds.Intersects(region) {
					out = append(out, id)
				}
			}
		}
	}
	slices.SortFunc(out, compareHandles)
	return out
}

// QueryPoint returns the entries whose bounds contain p, sorted by handle.
func (h *SpatialHash) QueryPoint(p Vec2) []handle.Handle {
	var out []handle.Handle
	for _, id := range h.cells[h.cellOf(p)] {
		if h.entries[id].bounds.Contains(p) {
			out = append(out, id)
		}
	}
	slices.SortFunc(out, compareHandles)
	return out
}

// QueryCircle returns the entries whose bounds come within radius of center,
// sorted by handle.
func (h *SpatialHash) QueryCircle(center Vec2, radius float32) []handle.Handle {
	candidates := h.QueryAABB(AABBFromCenter(center, Vec2{radius, radius}))
	out := candidates[:0]
	for _, id := range candidates {
		b := h.entries[id].bounds
		closest := Vec2{
			mgl32.Clamp(center[0], b.Min[0], b.Max[0]),
			mgl32.Clamp(center[1], b.Min[1], b.Max[1]),
		}
		if closest.Sub(center).LenSqr() <= radius*radius {
			out = append(out, id)
		}
	}
	return out
}

// Stats reports the current occupancy of the grid.
func (h *SpatialHash) Stats() Stats {
	s := Stats{Entities: len(h.entries), Cells: len(h.cells), LastPairs: h.lastPairs}
	total := 0
	for _, bucket := range h.cells {
		total += len(bucket)
		s.MaxPerCell = max(s.MaxPerCell, len(bucket))
	}
	if s.Cells > 0 {
		s.AvgPerCell = float32(total) / float32(s.Cells)
	}
	return s
}
