package goudcore

import (
	"fmt"
	"reflect"
	"testing"
)

type clock struct{ Tick uint64 }
type gravity struct{ Y float32 }

func TestResources(t *testing.T) {
	t.Run("Add and Get", func(t *testing.T) {
		r := &Resources{}
		res := &clock{}
		id := r.Add(res)
		if id != 0 {
			t.Errorf("expected id 0, got %d", id)
		}
		if got := r.Get(0); got != res {
			t.Errorf("expected %v, got %v", res, got)
		}
		if r.Len() != 1 {
			t.Errorf("expected 1 resource, got %d", r.Len())
		}
	})

	t.Run("Has", func(t *testing.T) {
		r := &Resources{}
		r.Add(&clock{})
		if !r.Has(0) {
			t.Error("expected true")
		}
		if r.Has(1) || r.Has(-1) {
			t.Error("expected false")
		}
	})

	t.Run("Add same type panics", func(t *testing.T) {
		r := &Resources{}
		r.Add(&clock{})
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		r.Add(&clock{})
	})

	t.Run("Add nil panics", func(t *testing.T) {
		r := &Resources{}
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		r.Add(nil)
	})

	t.Run("Remove and reuse", func(t *testing.T) {
		r := &Resources{}
		id0 := r.Add(&clock{})
		id1 := r.Add(&gravity{})
		r.Remove(id0)
		if r.Has(id0) || r.Get(id0) != nil {
			t.Error("removed resource still reachable")
		}
		r.Remove(id1)
		if id := r.Add(&clock{}); id != id1 {
			t.Errorf("expected reused id %d, got %d", id1, id)
		}
		if id := r.Add(&gravity{}); id != id0 {
			t.Errorf("expected reused id %d, got %d", id0, id)
		}
	})

	t.Run("Remove non-existent", func(t *testing.T) {
		r := &Resources{}
		r.Remove(0) // no panic
	})

	t.Run("Clear", func(t *testing.T) {
		r := &Resources{}
		r.Add(&clock{})
		r.Add(&gravity{})
		r.Clear()
		if len(r.items) != 0 || len(r.types) != 0 || len(r.freeIds) != 0 {
			t.Error("expected empty registry")
		}
		if r.Has(0) {
			t.Error("expected false")
		}
	})

	t.Run("Typed lookup", func(t *testing.T) {
		r := &Resources{}
		c := &clock{Tick: 9}
		id := r.Add(c)
		ok, gotID := HasResource[clock](r)
		if !ok || gotID != id {
			t.Errorf("HasResource = (%v, %d), expected (true, %d)", ok, gotID, id)
		}
		got, _ := GetResource[clock](r)
		if got != c {
			t.Errorf("expected same pointer %p, got %p", c, got)
		}
		if g, gid := GetResource[gravity](r); g != nil || gid != -1 {
			t.Error("expected missing gravity")
		}
	})
}

func TestTypedResources(t *testing.T) {
	r := &Resources{}
	first := &clock{Tick: 1}
	id := SetResource(r, first)

	second := &clock{Tick: 2}
	if got := SetResource(r, second); got != id {
		t.Errorf("replace changed the id: %d -> %d", id, got)
	}
	if c := MustResource[clock](r); c != second {
		t.Errorf("MustResource = %+v, want the replacement", c)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d after replace", r.Len())
	}

	SetResource(r, &gravity{Y: -9.8})
	removed, ok := RemoveResource[clock](r)
	if !ok || removed != second {
		t.Fatalf("RemoveResource = %v, %v", removed, ok)
	}
	if _, ok := RemoveResource[clock](r); ok {
		t.Error("second remove found something")
	}
	if ok, _ := HasResource[clock](r); ok {
		t.Error("clock still registered")
	}
	if g, _ := GetResource[gravity](r); g == nil || g.Y != -9.8 {
		t.Errorf("gravity = %v", g)
	}
	// the freed slot is reused
	if got := SetResource(r, &clock{}); got != id {
		t.Errorf("re-added clock got id %d, want recycled %d", got, id)
	}

	defer func() {
		if recover() == nil {
			t.Error("MustResource on a missing type should panic")
		}
	}()
	MustResource[struct{ X int }](r)
}

func generateDistinctTypesAndRes(n int) ([]reflect.Type, []any) {
	types := make([]reflect.Type, n)
	res := make([]any, n)
	for i := 0; i < n; i++ {
		fields := []reflect.StructField{
			{Name: fmt.Sprintf("F%d", i), Type: reflect.TypeOf(0)},
		}
		types[i] = reflect.StructOf(fields)
		res[i] = reflect.New(types[i]).Interface()
	}
	return types, res
}

func BenchmarkResourcesAdd(b *testing.B) {
	for _, size := range []int{1000, 10000} {
		b.Run(fmt.Sprintf("%dK", size/1000), func(b *testing.B) {
			_, reses := generateDistinctTypesAndRes(size)
			b.ReportAllocs()
			for b.Loop() {
				r := &Resources{}
				for i := 0; i < size; i++ {
					r.Add(reses[i])
				}
			}
		})
	}
}

func BenchmarkResourcesGet(b *testing.B) {
	for _, size := range []int{1000, 10000} {
		b.Run(fmt.Sprintf("%dK", size/1000), func(b *testing.B) {
			_, reses := generateDistinctTypesAndRes(size)
			r := &Resources{}
			for i := 0; i < size; i++ {
				r.Add(reses[i])
			}
			b.ReportAllocs()
			for b.Loop() {
				for i := 0; i < size; i++ {
					r.Get(i)
				}
			}
		})
	}
}
