package physics

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/edwinsyarief/goudcore/handle"
)

func h(i int) handle.Handle {
	return handle.Handle{Index: uint32(i), Generation: 1}
}

func bruteForcePairs(ids []handle.Handle, boxes map[handle.Handle]AABB) []Pair {
	var out []Pair
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			if boxes[ids[i]].Intersects(boxes[ids[j]]) {
				out = append(out, makePair(ids[i], ids[j]))
			}
		}
	}
	slices.SortFunc(out, comparePairs)
	return out
}

func randomBox(rng *rand.Rand, world float32) AABB {
	center := Vec2{rng.Float32() * world, rng.Float32() * world}
	half := Vec2{0.5 + rng.Float32()*2.5, 0.5 + rng.Float32()*2.5}
	return AABBFromCenter(center, half)
}

func TestQueryPairsMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	hash := NewSpatialHash(10)
	boxes := make(map[handle.Handle]AABB)
	ids := make([]handle.Handle, 1000)
	for i := range ids {
		ids[i] = h(i + 1)
		boxes[ids[i]] = randomBox(rng, 300)
		hash.Insert(ids[i], boxes[ids[i]])
	}
	check := func(stage string) {
		got := slices.Clone(hash.QueryPairs())
		want := bruteForcePairs(ids, boxes)
		if len(want) == 0 {
			t.Fatalf("%s: degenerate fixture, no overlaps", stage)
		}
		if !slices.Equal(got, want) {
			t.Fatalf("%s: got %d pairs, want %d", stage, len(got), len(want))
		}
	}
	check("insert")

	// move half of the shapes, some across cell boundaries
	for i := 0; i < len(ids); i += 2 {
		b := boxes[ids[i]]
		d := Vec2{rng.Float32()*20 - 10, rng.Float32()*20 - 10}
		b = AABB{Min: b.Min.Add(d), Max: b.Max.Add(d)}
		boxes[ids[i]] = b
		hash.Update(ids[i], b)
	}
	check("update")

	// drop a third
	kept := ids[:0:0]
	for i, id := range ids {
		if i%3 == 0 {
			if !hash.Remove(id) {
				t.Fatalf("remove %v reported absent", id)
			}
			delete(boxes, id)
			continue
		}
		kept = append(kept, id)
	}
	ids = kept
	check("remove")
	if hash.Len() != len(ids) {
		t.Errorf("Len = %d, want %d", hash.Len(), len(ids))
	}
}

func TestPairSpanningManyCellsReportedOnce(t *testing.T) {
	hash := NewSpatialHash(1)
	hash.Insert(h(1), AABB{Min: Vec2{0.5, 0.5}, Max: Vec2{3.5, 3.5}})
	hash.Insert(h(2), AABB{Min: Vec2{1.5, 1.5}, Max: Vec2{4.5, 4.5}})
	hash.Insert(h(3), AABB{Min: Vec2{-3, -3}, Max: Vec2{-2, -2}})
	pairs := hash.QueryPairs()
	if len(pairs) != 1 || pairs[0] != (Pair{A: h(1), B: h(2)}) {
		t.Fatalf("expected exactly one pair, got %v", pairs)
	}
	if s := hash.Stats(); s.LastPairs != 1 || s.Entities != 3 || s.MaxPerCell != 2 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestSharedCellWithoutOverlap(t *testing.T) {
	hash := NewSpatialHash(10)
	hash.Insert(h(1), AABB{Min: Vec2{0, 0}, Max: Vec2{1, 1}})
	hash.Insert(h(2), AABB{Min: Vec2{5, 5}, Max: Vec2{6, 6}})
	if pairs := hash.QueryPairs(); len(pairs) != 0 {
		t.Errorf("boxes sharing a cell but not overlapping were paired: %v", pairs)
	}
}

func TestNegativeCoordinates(t *testing.T) {
	hash := NewSpatialHash(4)
	hash.Insert(h(1), AABB{Min: Vec2{-5, -5}, Max: Vec2{-3, -3}})
	hash.Insert(h(2), AABB{Min: Vec2{-3, -3}, Max: Vec2{0, 0}})
	if pairs := hash.QueryPairs(); len(pairs) != 1 {
		t.Errorf("touching boxes across the origin should pair, got %v", pairs)
	}
}

func TestUpdateAndRemove(t *testing.T) {
	hash := NewSpatialHash(10)
	hash.Insert(h(1), AABB{Min: Vec2{0, 0}, Max: Vec2{2, 2}})
	hash.Insert(h(2), AABB{Min: Vec2{1, 1}, Max: Vec2{3, 3}})
	if len(hash.QueryPairs()) != 1 {
		t.Fatal("expected overlap")
	}
	hash.Update(h(2), AABB{Min: Vec2{50, 50}, Max: Vec2{52, 52}})
	if len(hash.QueryPairs()) != 0 {
		t.Error("moved box still paired")
	}
	if b, ok := hash.AABBOf(h(2)); !ok || b.Min != (Vec2{50, 50}) {
		t.Errorf("AABBOf = %v, %v", b, ok)
	}
	if got := hash.Stats().Cells; got != 2 {
		t.Errorf("stale cells left behind: %d", got)
	}
	if !hash.Remove(h(2)) || hash.Remove(h(2)) {
		t.Error("Remove should succeed once")
	}
	if hash.Contains(h(2)) {
		t.Error("removed entry still tracked")
	}
	hash.Clear()
	if hash.Len() != 0 || hash.Stats().Cells != 0 {
		t.Error("Clear left entries")
	}
}

func TestRegionQueries(t *testing.T) {
	hash := NewSpatialHash(5)
	hash.Insert(h(1), AABB{Min: Vec2{0, 0}, Max: Vec2{12, 2}})
	hash.Insert(h(2), AABB{Min: Vec2{20, 20}, Max: Vec2{21, 21}})
	hash.Insert(h(3), AABB{Min: Vec2{8, 0}, Max: Vec2{9, 1}})

	got := hash.QueryAABB(AABB{Min: Vec2{7, -1}, Max: Vec2{11, 1}})
	if !slices.Equal(got, []handle.Handle{h(1), h(3)}) {
		t.Errorf("QueryAABB = %v", got)
	}
	if got := hash.QueryPoint(Vec2{20.5, 20.5}); !slices.Equal(got, []handle.Handle{h(2)}) {
		t.Errorf("QueryPoint = %v", got)
	}
	if got := hash.QueryCircle(Vec2{23, 23}, 2); len(got) != 0 {
		t.Errorf("QueryCircle outside corner radius = %v", got)
	}
	if got := hash.QueryCircle(Vec2{22, 22}, 1.5); !slices.Equal(got, []handle.Handle{h(2)}) {
		t.Errorf("QueryCircle = %v", got)
	}
}

func TestInvalidCellSizePanics(t *testing.T) {
	for _, size := range []float32{0, -1} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("cell size %v did not panic", size)
				}
			}()
			NewSpatialHash(size)
		}()
	}
}

func BenchmarkQueryPairs(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	hash := NewSpatialHash(10)
	for i := range 5000 {
		hash.Insert(h(i+1), randomBox(rng, 700))
	}
	b.ReportAllocs()
	for b.Loop() {
		hash.QueryPairs()
	}
}
