package main

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/edwinsyarief/goudcore"
	"github.com/edwinsyarief/goudcore/asset"
	"github.com/edwinsyarief/goudcore/components"
	"github.com/edwinsyarief/goudcore/handle"
	"github.com/edwinsyarief/goudcore/internal/config"
	"github.com/edwinsyarief/goudcore/physics"
	"github.com/edwinsyarief/goudcore/system"
)

const statsInterval = 60

// bodyTexture is the texture path sprites use. When the manifest does not
// provide it a 1x1 white pixel is inserted under the same path.
const bodyTexture = "textures/body.bin"

// fixedStep is the dt handed to systems when the simulation runs unthrottled.
const fixedStep = time.Second / 60

// markerOffset places the marker sprite carried by every box body.
var markerOffset = physics.Vec2{0, 5}

type simulation struct {
	cfg      *config.Config
	log      *zap.Logger
	store    *asset.Store
	world    *goudcore.World
	pipeline *physics.Pipeline
	movers   *goudcore.Filter2[components.Transform2D, physics.RigidBody]
	sprites  *components.SpriteQuery
	globals  *components.TransformPropagator
	runner   *system.Runner
	drawList []components.SpriteInstance
	contacts []physics.CollisionContact
	markers  []goudcore.Entity
	frame    int

	started, ended int
}

func newSimulation(cfg *config.Config, store *asset.Store, log *zap.Logger) *simulation {
	w := goudcore.NewWorld(cfg.World.InitialCapacity)
	pc := cfg.Physics
	s := &simulation{
		cfg:   cfg,
		log:   log,
		store: store,
		world: w,
		pipeline: physics.NewPipeline(w, pc.CellSize,
			physics.WithLogger(log),
			physics.WithResponse(physics.NewResponse(pc.Restitution, pc.Friction, pc.PositionCorrection, pc.Slop))),
		movers:  goudcore.NewFilter2[components.Transform2D, physics.RigidBody](w),
		sprites: components.NewSpriteQuery(w),
		globals: components.NewTransformPropagator(w),
		runner:  system.NewRunner(),
	}
	goudcore.SetResource(w.Resources(), store)
	goudcore.SetResource(w.Resources(), s.pipeline)
	goudcore.Subscribe(w.Events(), func(physics.CollisionStarted) { s.started++ })
	goudcore.Subscribe(w.Events(), func(physics.CollisionEnded) { s.ended++ })
	s.spawn()
	s.runner.Register(system.Func(system.PhaseUpdate, s.integrate))
	s.runner.Register(system.Func(system.PhaseUpdate, s.collide))
	s.runner.Register(system.Func(system.PhasePostUpdate, s.propagate))
	s.runner.Register(system.Func(system.PhasePreRender, s.collect))
	s.runner.Register(system.Func(system.PhasePostRender, s.stats))
	return s
}

func (s *simulation) texture() handle.Handle {
	white := []byte{0xff, 0xff, 0xff, 0xff}
	h, ok := s.store.GetByPath(bodyTexture)
	if !ok {
		return s.store.InsertWithPath(bodyTexture, white)
	}
	if st, _ := s.store.State(h); st != asset.Loaded {
		// the manifest listed it but it failed; fill the record in place
		if err := s.store.SetLoaded(h, white); err != nil {
			s.log.Warn("fallback texture not stored", zap.String("path", bodyTexture), zap.Error(err))
		}
	}
	return h
}

// spawn scatters the configured number of bodies over the arena. Every tenth
// body is a static oriented box; the rest are moving circles and boxes. Each
// moving box carries a marker sprite as a child entity.
func (s *simulation) spawn() {
	sc := s.cfg.Sim
	rng := rand.New(rand.NewSource(sc.Seed))
	tex := s.texture()
	dynamic := goudcore.NewBuilder3[components.Transform2D, physics.Collider, physics.RigidBody](s.world)
	static := goudcore.NewBuilder2[components.Transform2D, physics.Collider](s.world)

	for i := range sc.Bodies {
		pos := physics.Vec2{rng.Float32() * sc.Arena, rng.Float32() * sc.Arena}
		tr := components.NewTransform2D(pos)
		var e goudcore.Entity
		switch {
		case i%10 == 0:
			tr.Rotation = rng.Float32() * 3.14159
			e = static.Spawn(tr, physics.Collider{
				Shape: physics.OrientedBox{HalfExtents: physics.Vec2{8 + rng.Float32()*16, 4}},
			})
		case i%3 == 0:
			e = dynamic.Spawn(tr,
				physics.Collider{Shape: physics.Box{HalfExtents: physics.Vec2{3, 3}}},
				physics.RigidBody{Velocity: randomVelocity(rng), InvMass: 0.5})
			s.attachMarker(e, tex)
		default:
			e = dynamic.Spawn(tr,
				physics.Collider{Shape: physics.Circle{Radius: 2 + rng.Float32()*3}},
				physics.RigidBody{Velocity: randomVelocity(rng), InvMass: 1})
		}
		sp := components.NewSprite(tex)
		sp.ZOrder = int32(i % 4)
		if err := goudcore.AddComponent(s.world, e, sp); err != nil {
			s.log.Warn("sprite not attached", zap.Stringer("entity", e), zap.Error(err))
		}
	}
	s.log.Info("bodies spawned",
		zap.Int("entities", s.world.Len()),
		zap.Int("archetypes", s.world.ArchetypeCount()))
}

func (s *simulation) attachMarker(parent goudcore.Entity, tex handle.Handle) {
	m := s.world.Spawn()
	sp := components.NewSprite(tex)
	sp.ZOrder = 10
	err := goudcore.AddComponent(s.world, m, components.NewTransform2D(markerOffset))
	if err == nil {
		err = goudcore.AddComponent(s.world, m, sp)
	}
	if err == nil {
		err = components.SetParent(s.world, m, parent)
	}
	if err != nil {
		s.log.Warn("marker not attached", zap.Stringer("entity", parent), zap.Error(err))
		components.DespawnRecursive(s.world, m)
		return
	}
	s.markers = append(s.markers, m)
}

func randomVelocity(rng *rand.Rand) physics.Vec2 {
	return physics.Vec2{rng.Float32()*4 - 2, rng.Float32()*4 - 2}
}

// integrate moves every rigid body by its velocity and bounces it off the
// arena walls. Velocities are per tick, so dt is unused.
func (s *simulation) integrate(time.Duration) {
	arena := s.cfg.Sim.Arena
	s.movers.Reset()
	for s.movers.Next() {
		tr, rb := s.movers.Get()
		if rb.InvMass == 0 {
			continue
		}
		tr.Translate(rb.Velocity)
		for axis := range 2 {
			if tr.Position[axis] < 0 {
				tr.Position[axis] = 0
				rb.Velocity[axis] = -rb.Velocity[axis]
			} else if tr.Position[axis] > arena {
				tr.Position[axis] = arena
				rb.Velocity[axis] = -rb.Velocity[axis]
			}
		}
	}
}

// collide steps the pipeline found through the world resources.
func (s *simulation) collide(time.Duration) {
	s.contacts = goudcore.MustResource[physics.Pipeline](s.world.Resources()).Step()
}

func (s *simulation) propagate(time.Duration) {
	s.globals.Run()
}

// collect builds the draw list a renderer would consume.
func (s *simulation) collect(time.Duration) {
	store := goudcore.MustResource[asset.Store](s.world.Resources())
	s.drawList = s.sprites.Collect(store, s.drawList)
}

func (s *simulation) stats(time.Duration) {
	if s.frame%statsInterval != 0 {
		return
	}
	st := s.pipeline.Hash().Stats()
	s.log.Info("tick",
		zap.Int("tick", s.frame),
		zap.Int("contacts", len(s.contacts)),
		zap.Int("pairs", st.LastPairs),
		zap.Int("cells", st.Cells),
		zap.Int("max_per_cell", st.MaxPerCell),
		zap.Float32("avg_per_cell", st.AvgPerCell),
		zap.Int("sprites", len(s.drawList)))
}

// tick runs every registered system once, in phase order.
func (s *simulation) tick(n int) {
	s.frame = n
	dt := s.cfg.Sim.TickRate
	if dt <= 0 {
		dt = fixedStep
	}
	s.runner.Tick(dt)
}

func (s *simulation) run(ctx context.Context) error {
	sc := s.cfg.Sim
	var ticker *time.Ticker
	if sc.TickRate > 0 {
		ticker = time.NewTicker(sc.TickRate)
		defer ticker.Stop()
	}
	start := time.Now()
	n := 0
	for sc.Ticks == 0 || n < sc.Ticks {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return s.finish(n, start)
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			break
		}
		s.tick(n)
		n++
	}
	return s.finish(n, start)
}

func (s *simulation) finish(ticks int, start time.Time) error {
	s.log.Info("simulation finished",
		zap.Int("ticks", ticks),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("collisions_started", s.started),
		zap.Int("collisions_ended", s.ended))
	return nil
}
