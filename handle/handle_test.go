package handle

import (
	"math"
	"math/rand"
	"testing"

	"github.com/rotisserie/eris"
)

func mustAllocate(t *testing.T, a *Allocator) Handle {
	t.Helper()
	h, err := a.Allocate()
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	return h
}

func TestAllocateSequential(t *testing.T) {
	a := NewAllocator(4)
	h0 := mustAllocate(t, a)
	h1 := mustAllocate(t, a)
	if h0 != (Handle{Index: 0, Generation: 1}) {
		t.Errorf("expected 0v1, got %s", h0)
	}
	if h1 != (Handle{Index: 1, Generation: 1}) {
		t.Errorf("expected 1v1, got %s", h1)
	}
	if a.Len() != 2 {
		t.Errorf("expected 2 live handles, got %d", a.Len())
	}
}

func TestDeallocateRecyclesWithNewGeneration(t *testing.T) {
	a := NewAllocator(0)
	h := mustAllocate(t, a)
	if err := a.Deallocate(h); err != nil {
		t.Fatalf("deallocate: %v", err)
	}
	if a.IsValid(h) {
		t.Fatal("deallocated handle still valid")
	}
	h2 := mustAllocate(t, a)
	if h2.Index != h.Index {
		t.Fatalf("expected index %d to be recycled, got %d", h.Index, h2.Index)
	}
	if h2.Generation != h.Generation+1 {
		t.Errorf("expected generation %d, got %d", h.Generation+1, h2.Generation)
	}
	if a.IsValid(h) {
		t.Error("old handle validated against recycled slot")
	}
	if !a.IsValid(h2) {
		t.Error("new handle should be valid")
	}
}

func TestDoubleDeallocate(t *testing.T) {
	a := NewAllocator(0)
	h := mustAllocate(t, a)
	if err := a.Deallocate(h); err != nil {
		t.Fatalf("first deallocate: %v", err)
	}
	err := a.Deallocate(h)
	if !eris.Is(err, ErrStaleHandle) {
		t.Fatalf("expected ErrStaleHandle, got %v", err)
	}
	if a.Len() != 0 {
		t.Errorf("live count corrupted: %d", a.Len())
	}
}

func TestIsValidEdgeCases(t *testing.T) {
	a := NewAllocator(0)
	if a.IsValid(Handle{}) {
		t.Error("zero handle must never be valid")
	}
	if a.IsValid(Handle{Index: 42, Generation: 1}) {
		t.Error("unallocated index must not be valid")
	}
	h := mustAllocate(t, a)
	_ = a.Deallocate(h)
	// the slot's next generation is already stored but not handed out yet
	if a.IsValid(Handle{Index: h.Index, Generation: h.Generation + 1}) {
		t.Error("free slot must not validate a guessed generation")
	}
}

func TestGenerationWrapRetiresSlot(t *testing.T) {
	a := NewAllocator(0)
	h := mustAllocate(t, a)
	a.generations[h.Index] = math.MaxUint32
	h.Generation = math.MaxUint32
	if err := a.Deallocate(h); err != nil {
		t.Fatalf("deallocate: %v", err)
	}
	if a.Retired() != 1 {
		t.Fatalf("expected retired slot, got %d", a.Retired())
	}
	h2 := mustAllocate(t, a)
	if h2.Index == h.Index {
		t.Error("retired slot was reused")
	}
}

func TestClearInvalidatesEverything(t *testing.T) {
	a := NewAllocator(8)
	var hs []Handle
	for range 8 {
		hs = append(hs, mustAllocate(t, a))
	}
	a.Clear()
	if a.Len() != 0 {
		t.Fatalf("expected 0 live, got %d", a.Len())
	}
	for _, h := range hs {
		if a.IsValid(h) {
			t.Errorf("handle %s survived Clear", h)
		}
	}
	h := mustAllocate(t, a)
	if h.Index != 0 {
		t.Errorf("expected lowest slot first after Clear, got %d", h.Index)
	}
}

func TestGenerationAt(t *testing.T) {
	a := NewAllocator(0)
	h := mustAllocate(t, a)
	if g, live := a.GenerationAt(h.Index); g != 1 || !live {
		t.Errorf("expected (1, true), got (%d, %v)", g, live)
	}
	_ = a.Deallocate(h)
	if g, live := a.GenerationAt(h.Index); g != 2 || live {
		t.Errorf("expected (2, false), got (%d, %v)", g, live)
	}
	if _, live := a.GenerationAt(99); live {
		t.Error("out of range slot reported live")
	}
}

func TestBitsRoundTrip(t *testing.T) {
	h := Handle{Index: 7, Generation: 9}
	if FromBits(h.Bits()) != h {
		t.Errorf("bits round trip failed for %s", h)
	}
}

// Random allocate/deallocate sequences never produce two equal live handles and
// never revive a released one.
func TestAllocatorRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	a := NewAllocator(0)
	live := map[Handle]struct{}{}
	var dead []Handle
	for step := 0; step < 5000; step++ {
		if len(live) == 0 || rng.Intn(3) != 0 {
			h := mustAllocate(t, a)
			if _, dup := live[h]; dup {
				t.Fatalf("step %d: handle %s issued twice", step, h)
			}
			live[h] = struct{}{}
			continue
		}
		for h := range live {
			if err := a.Deallocate(h); err != nil {
				t.Fatalf("step %d: %v", step, err)
			}
			delete(live, h)
			dead = append(dead, h)
			break
		}
	}
	for _, h := range dead {
		if a.IsValid(h) {
			t.Fatalf("released handle %s is valid again", h)
		}
	}
	if a.Len() != len(live) {
		t.Fatalf("expected %d live, got %d", len(live), a.Len())
	}
}

func BenchmarkAllocateDeallocate(b *testing.B) {
	a := NewAllocator(1024)
	for b.Loop() {
		h, _ := a.Allocate()
		_ = a.Deallocate(h)
	}
	b.ReportAllocs()
}
