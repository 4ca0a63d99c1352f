// Profiling:
// go build ./profile/entities
// go tool pprof -http=":8000" -nodefraction=0.001 ./entities mem.pprof

package main

import (
	"github.com/edwinsyarief/goudcore"
	"github.com/pkg/profile"
)

type comp1 struct {
	V int64
	W int64
}

type comp2 struct {
	V int64
	W int64
}

type comp3 struct {
	V int64
}

func main() {
	count := 50
	iters := 1000
	entities := 1000
	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	run(count, iters, entities)
	p.Stop()
}

// run churns entities through spawn, an archetype transition and despawn so
// allocation in chunk and handle reuse shows up in the profile.
func run(rounds, iters, numEntities int) {
	for range rounds {
		w := goudcore.NewWorld(numEntities)
		query := goudcore.NewFilter2[comp1, comp2](w)
		batch := goudcore.NewBuilder2[comp1, comp2](w)
		entities := make([]goudcore.Entity, 0, numEntities)

		for range iters {
			batch.SpawnBatch(numEntities, comp1{}, comp2{V: 1, W: 1})
			entities = entities[:0]
			query.Reset()
			for query.Next() {
				entities = append(entities, query.Entity())
				c1, c2 := query.Get()
				c1.V += c2.V
				c1.W += c2.W
			}
			for i, e := range entities {
				if i%2 == 0 {
					_ = goudcore.AddComponent(w, e, comp3{V: int64(i)})
				}
			}
			for _, e := range entities {
				_ = w.Despawn(e)
			}
		}
	}
}
