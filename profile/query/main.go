// Profiling:
// go build ./profile/query
// go tool pprof -http=":8000" -nodefraction=0.001 ./query cpu.pprof

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
	W int64
}

type comp4 struct {
	V int64
	W int64
}

type comp5 struct {
	V int64
}

func main() {
	count := 10
	iters := 1000
	entities := 100000
	p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	run(count, iters, entities)
	p.Stop()
}

func run(rounds, iters, numEntities int) {
	for range rounds {
		w := goudcore.NewWorld(numEntities)
		query := goudcore.NewFilter4[comp1, comp2, comp3, comp4](w)
		batch := goudcore.NewBuilder3[comp1, comp2, comp3](w)
		for i, e := range batch.SpawnBatch(numEntities, comp1{}, comp2{V: 1, W: 2}, comp3{}) {
			_ = goudcore.AddComponent(w, e, comp4{})
			if i%4 == 0 {
				_ = goudcore.AddComponent(w, e, comp5{})
			}
		}

		for range iters {
			query.Reset()
			for query.Next() {
				c1, c2, _, _ := query.Get()
				c1.V += c2.V
				c1.W += c2.W
			}
		}
	}
}
