// Profiling:
// go build ./profile/broadphase
// go tool pprof -http=":8000" -nodefraction=0.001 ./broadphase cpu.pprof

package main

import (
	"fmt"
	"math/rand"

	"github.com/pkg/profile"

	"github.com/edwinsyarief/goudcore"
	"github.com/edwinsyarief/goudcore/components"
	"github.com/edwinsyarief/goudcore/physics"
)

func main() {
	ticks := 600
	bodies := 20000
	p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	contacts := run(ticks, bodies)
	p.Stop()
	fmt.Printf("%d contacts over %d ticks\n", contacts, ticks)
}

// run moves a field of small circles every tick and steps the collision
// pipeline, so both hash maintenance and pair generation are profiled.
func run(ticks, numBodies int) int {
	rng := rand.New(rand.NewSource(1))
	w := goudcore.NewWorld(numBodies)
	spawn := goudcore.NewBuilder3[components.Transform2D, physics.Collider, physics.RigidBody](w)
	for range numBodies {
		pos := physics.Vec2{rng.Float32() * 4000, rng.Float32() * 4000}
		vel := physics.Vec2{rng.Float32()*2 - 1, rng.Float32()*2 - 1}
		spawn.Spawn(
			components.NewTransform2D(pos),
			physics.Collider{Shape: physics.Circle{Radius: 2 + rng.Float32()*4}},
			physics.RigidBody{Velocity: vel, InvMass: 1},
		)
	}

	pipeline := physics.NewPipeline(w, 16)
	bodies := goudcore.NewFilter2[components.Transform2D, physics.RigidBody](w)
	total := 0
	for range ticks {
		bodies.Reset()
		for bodies.Next() {
			tr, rb := bodies.Get()
			tr.Translate(rb.Velocity)
		}
		total += len(pipeline.Step())
	}
	return total
}
