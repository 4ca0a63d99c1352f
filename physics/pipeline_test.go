package physics

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/edwinsyarief/goudcore"
	"github.com/edwinsyarief/goudcore/components"
)

func spawnBody(t *testing.T, w *goudcore.World, pos Vec2, col Collider, body *RigidBody) goudcore.Entity {
	t.Helper()
	e := w.Spawn()
	if err := goudcore.AddComponent(w, e, components.NewTransform2D(pos)); err != nil {
		t.Fatal(err)
	}
	if err := goudcore.AddComponent(w, e, col); err != nil {
		t.Fatal(err)
	}
	if body != nil {
		if err := goudcore.AddComponent(w, e, *body); err != nil {
			t.Fatal(err)
		}
	}
	return e
}

func TestPipelineResolvesAndPublishes(t *testing.T) {
	w := goudcore.NewWorld(8)
	var started []CollisionStarted
	var ended []CollisionEnded
	goudcore.Subscribe(w.Events(), func(e CollisionStarted) { started = append(started, e) })
	goudcore.Subscribe(w.Events(), func(e CollisionEnded) { ended = append(ended, e) })

	unit := Collider{Shape: Circle{Radius: 1}}
	a := spawnBody(t, w, Vec2{0, 0}, unit, &RigidBody{Velocity: Vec2{1, 0}, InvMass: 1})
	b := spawnBody(t, w, Vec2{1.5, 0}, unit, nil)
	spawnBody(t, w, Vec2{40, 40}, unit, nil)

	p := NewPipeline(w, 4)
	contacts := p.Step()
	if len(contacts) != 1 || contacts[0].A != a || contacts[0].B != b {
		t.Fatalf("unexpected contacts %+v", contacts)
	}
	if len(started) != 1 || started[0].A != a || started[0].B != b {
		t.Fatalf("unexpected started events %+v", started)
	}

	body := goudcore.GetComponent[RigidBody](w, a)
	if !approxVec(body.Velocity, Vec2{-0.4, 0}) {
		t.Errorf("velocity after bounce = %v", body.Velocity)
	}
	tr := goudcore.GetComponent[components.Transform2D](w, a)
	if !approxVec(tr.Position, Vec2{-0.196, 0}) {
		t.Errorf("position after correction = %v", tr.Position)
	}
	if got := goudcore.GetComponent[components.Transform2D](w, b).Position; got != (Vec2{1.5, 0}) {
		t.Errorf("static body moved to %v", got)
	}

	// still touching: no new started event
	p.Step()
	if len(started) != 1 || len(ended) != 0 {
		t.Fatalf("events on a held contact: %d started, %d ended", len(started), len(ended))
	}

	goudcore.GetComponent[components.Transform2D](w, b).Position = Vec2{10, 0}
	if got := p.Step(); len(got) != 0 {
		t.Fatalf("contacts after separation: %+v", got)
	}
	if len(ended) != 1 || ended[0] != (CollisionEnded{A: a, B: b}) {
		t.Errorf("unexpected ended events %+v", ended)
	}
}

func TestPipelineSensorsAndLayers(t *testing.T) {
	w := goudcore.NewWorld(8)
	body := &RigidBody{Velocity: Vec2{1, 0}, InvMass: 1}
	a := spawnBody(t, w, Vec2{0, 0}, Collider{Shape: Box{HalfExtents: Vec2{1, 1}}}, body)
	spawnBody(t, w, Vec2{1.5, 0}, Collider{Shape: Circle{Radius: 1}, Sensor: true}, nil)
	spawnBody(t, w, Vec2{-1.5, 0}, Collider{Shape: Circle{Radius: 1}, Layer: 2, Mask: 2}, nil)

	p := NewPipeline(w, 4, WithResponse(Elastic()))
	contacts := p.Step()
	if len(contacts) != 1 || !contacts[0].Sensor {
		t.Fatalf("expected one sensor contact, got %+v", contacts)
	}
	if v := goudcore.GetComponent[RigidBody](w, a).Velocity; v != (Vec2{1, 0}) {
		t.Errorf("sensor contact changed velocity to %v", v)
	}
	if p.Response() != Elastic() {
		t.Error("WithResponse ignored")
	}
}

func TestPipelineDropsVanishedColliders(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	w := goudcore.NewWorld(8)
	unit := Collider{Shape: Circle{Radius: 1}}
	a := spawnBody(t, w, Vec2{0, 0}, unit, nil)
	b := spawnBody(t, w, Vec2{1, 0}, unit, nil)
	c := spawnBody(t, w, Vec2{-1, 0}, unit, nil)

	p := NewPipeline(w, 4, WithLogger(zap.New(core)))
	if got := len(p.Step()); got != 2 {
		t.Fatalf("expected 2 contacts, got %d", got)
	}

	if err := w.Despawn(b); err != nil {
		t.Fatal(err)
	}
	goudcore.GetComponent[Collider](w, c).Disabled = true
	if got := len(p.Step()); got != 0 {
		t.Errorf("expected no contacts, got %d", got)
	}
	if p.Hash().Contains(b) || p.Hash().Contains(c) || !p.Hash().Contains(a) {
		t.Error("broad-phase not synced with the world")
	}
	if n := logs.FilterMessage("collider entity despawned between ticks").Len(); n != 1 {
		t.Errorf("expected one despawn warning, got %d", n)
	}
}
