package goudcore_test

import (
	"math/rand"
	"testing"

	"github.com/edwinsyarief/goudcore"
)

// go test -run ^TestFilterWithout$ . -count 1
func TestFilterWithout(t *testing.T) {
	w := goudcore.NewWorld(0)
	moving := goudcore.NewBuilder2[Position, Velocity](w).SpawnBatch(3, Position{}, Velocity{VX: 1})
	static := goudcore.NewBuilder[Position](w).SpawnBatch(2, Position{X: 7})

	f := goudcore.NewFilter[Position](w).Without(goudcore.ComponentIDOf[Velocity](w))
	if f.Count() != len(static) {
		t.Fatalf("expected %d static entities, got %d", len(static), f.Count())
	}
	for f.Next() {
		if f.Get().X != 7 {
			t.Errorf("excluded entity %s leaked into the filter", f.Entity())
		}
	}
	if goudcore.NewFilter[Position](w).Count() != len(moving)+len(static) {
		t.Error("unfiltered count wrong")
	}
}

// go test -run ^TestFilterResetPicksUpNewArchetypes$ . -count 1
func TestFilterResetPicksUpNewArchetypes(t *testing.T) {
	w := goudcore.NewWorld(0)
	goudcore.NewBuilder[Position](w).Spawn(Position{X: 1})
	f := goudcore.NewFilter[Position](w)

	// new archetype created after the filter
	e := goudcore.NewBuilder2[Position, Health](w).Spawn(Position{X: 2}, Health{})
	f.Reset()
	found := false
	for f.Next() {
		if f.Entity() == e {
			found = true
		}
	}
	if !found {
		t.Error("Reset did not refresh the archetype list")
	}
}

// go test -run ^TestFilterArchetypeOrder$ . -count 1
func TestFilterArchetypeOrder(t *testing.T) {
	w := goudcore.NewWorld(0)
	a := goudcore.NewBuilder[Position](w).SpawnBatch(2, Position{})
	b := goudcore.NewBuilder2[Position, Tag](w).SpawnBatch(2, Position{}, Tag{})
	want := append(append([]goudcore.Entity{}, a...), b...)
	got := goudcore.NewFilter[Position](w).Entities()
	if len(got) != len(want) {
		t.Fatalf("expected %d entities, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

// go test -run ^TestFilterSingleUse$ . -count 1
func TestFilterSingleUse(t *testing.T) {
	w := goudcore.NewWorld(0)
	goudcore.NewBuilder[Position](w).SpawnBatch(3, Position{})
	f := goudcore.NewFilter[Position](w)
	n := 0
	for f.Next() {
		n++
	}
	if f.Next() {
		t.Error("exhausted filter yielded again without Reset")
	}
	f.Reset()
	for f.Next() {
		n++
	}
	if n != 6 {
		t.Errorf("expected two passes of 3, got %d", n)
	}
}

// go test -run ^TestFilterMatchesSignature$ . -count 1
func TestFilterMatchesSignature(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	w := goudcore.NewWorld(0)
	want := map[goudcore.Entity]bool{}
	for i := 0; i < 3000; i++ {
		e := w.Spawn()
		hasPos, hasVel, hasHealth := rng.Intn(2) == 0, rng.Intn(2) == 0, rng.Intn(2) == 0
		if hasPos {
			_ = goudcore.AddComponent(w, e, Position{X: float32(i)})
		}
		if hasVel {
			_ = goudcore.AddComponent(w, e, Velocity{VX: float32(i)})
		}
		if hasHealth {
			_ = goudcore.AddComponent(w, e, Health{Current: i})
		}
		if hasPos && hasVel && !hasHealth {
			want[e] = true
		}
	}
	f := goudcore.NewFilter2[Position, Velocity](w).Without(goudcore.ComponentIDOf[Health](w))
	got := 0
	for f.Next() {
		e := f.Entity()
		if !want[e] {
			t.Fatalf("filter yielded %s which does not match", e)
		}
		p, v := f.Get()
		if p.X != v.VX {
			t.Fatalf("%s: columns out of step: %+v %+v", e, p, v)
		}
		got++
	}
	if got != len(want) {
		t.Errorf("expected %d matches, got %d", len(want), got)
	}
}

// go test -run ^TestFilter3And4$ . -count 1
func TestFilter3And4(t *testing.T) {
	w := goudcore.NewWorld(0)
	e := w.Spawn()
	_ = goudcore.AddComponent(w, e, Position{X: 1})
	_ = goudcore.AddComponent(w, e, Velocity{VX: 2})
	_ = goudcore.AddComponent(w, e, Health{Current: 3})
	_ = goudcore.AddComponent(w, e, Name{Value: "four"})

	f3 := goudcore.NewFilter3[Position, Velocity, Health](w)
	if !f3.Next() {
		t.Fatal("Filter3 found nothing")
	}
	p, v, h := f3.Get()
	if p.X != 1 || v.VX != 2 || h.Current != 3 {
		t.Errorf("Filter3 values %+v %+v %+v", p, v, h)
	}
	h.Current = 30
	if goudcore.GetComponent[Health](w, e).Current != 30 {
		t.Error("write through filter pointer was lost")
	}

	f4 := goudcore.NewFilter4[Position, Velocity, Health, Name](w)
	if !f4.Next() || f4.Entity() != e {
		t.Fatal("Filter4 did not yield the entity")
	}
	_, _, _, n := f4.Get()
	if n.Value != "four" {
		t.Errorf("Filter4 name %q", n.Value)
	}
	if f4.Next() {
		t.Error("Filter4 yielded a second entity")
	}
}

func TestFilterDuplicateTypesPanics(t *testing.T) {
	w := goudcore.NewWorld(0)
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	goudcore.NewFilter2[Position, Position](w)
}

func TestFilterEmptyWorld(t *testing.T) {
	w := goudcore.NewWorld(0)
	f := goudcore.NewFilter[Position](w)
	if f.Next() {
		t.Error("empty world yielded an entity")
	}
	if f.Count() != 0 || len(f.Entities()) != 0 {
		t.Error("empty world counted entities")
	}
}
