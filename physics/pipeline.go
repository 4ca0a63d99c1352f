package physics

import (
	"slices"

	"go.uber.org/zap"

	"github.com/edwinsyarief/goudcore"
	"github.com/edwinsyarief/goudcore/components"
	"github.com/edwinsyarief/goudcore/handle"
)

// Collider makes an entity take part in collision detection. The entity must
// also carry a components.Transform2D.
//
// A zero Layer means layer 1 and a zero Mask means every layer. Two colliders
// interact only when each one's layer is in the other's mask.
type Collider struct {
	Shape    Shape
	Layer    uint32
	Mask     uint32
	Sensor   bool // reports contacts but never gets a response
	Disabled bool
}

func (c *Collider) layer() uint32 {
	if c.Layer == 0 {
		return 1
	}
	return c.Layer
}

func (c *Collider) mask() uint32 {
	if c.Mask == 0 {
		return ^uint32(0)
	}
	return c.Mask
}

// Interacts reports whether the two colliders' layers and masks allow a
// contact between them.
func (c *Collider) Interacts(o *Collider) bool {
	return c.layer()&o.mask() != 0 && o.layer()&c.mask() != 0
}

// RigidBody gives a collider a velocity and a mass for collision response.
// Colliders without one, or with InvMass 0, are static.
type RigidBody struct {
	Velocity Vec2
	InvMass  float32
}

// CollisionContact is one narrow-phase contact found during a Step.
type CollisionContact struct {
	A, B    handle.Handle
	Contact Contact
	Sensor  bool
}

// CollisionStarted is published on the world's event bus the first tick two
// colliders touch.
type CollisionStarted struct {
	A, B    handle.Handle
	Contact Contact
	Sensor  bool
}

// CollisionEnded is published the first tick two colliders stop touching.
type CollisionEnded struct {
	A, B handle.Handle
}

type pipelineOptions struct {
	log      *zap.Logger
	response Response
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*pipelineOptions)

// WithLogger sets the logger used for warnings about vanished entities.
func WithLogger(log *zap.Logger) PipelineOption {
	return func(o *pipelineOptions) {
		if log != nil {
			o.log = log
		}
	}
}

// WithResponse sets the material parameters used for every contact.
func WithResponse(r Response) PipelineOption {
	return func(o *pipelineOptions) {
		o.response = r
	}
}

// Pipeline runs collision detection and response over a world once per tick.
// It owns its spatial hash and must be driven from the world's goroutine.
type Pipeline struct {
	world     *goudcore.World
	hash      *SpatialHash
	colliders *goudcore.Filter2[components.Transform2D, Collider]
	log       *zap.Logger
	response  Response

	tracked  map[handle.Handle]struct{}
	seen     map[handle.Handle]struct{}
	active   map[Pair]struct{}
	previous map[Pair]struct{}
	ended    []Pair
	contacts []CollisionContact
}

// NewPipeline creates a pipeline for w whose broad-phase uses the given cell
// size.
func NewPipeline(w *goudcore.World, cellSize float32, opts ...PipelineOption) *Pipeline {
	o := pipelineOptions{log: zap.NewNop(), response: DefaultResponse()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Pipeline{
		world:     w,
		hash:      NewSpatialHash(cellSize),
		colliders: goudcore.NewFilter2[components.Transform2D, Collider](w),
		log:       o.log,
		response:  o.response,
		tracked:   make(map[handle.Handle]struct{}),
		seen:      make(map[handle.Handle]struct{}),
		active:    make(map[Pair]struct{}),
		previous:  make(map[Pair]struct{}),
	}
}

// Hash exposes the broad-phase, for picking queries between steps.
func (p *Pipeline) Hash() *SpatialHash {
	return p.hash
}

// Response returns the material parameters applied to contacts.
func (p *Pipeline) Response() Response {
	return p.response
}

// Contacts returns the contacts found by the last Step.
func (p *Pipeline) Contacts() []CollisionContact {
	return p.contacts
}

// Step syncs every enabled collider into the broad-phase, tests the candidate
// pairs exactly, resolves non-sensor contacts and publishes started and ended
// events. The returned slice is reused by the next call.
func (p *Pipeline) Step() []CollisionContact {
	p.sync()

	clear(p.active)
	p.contacts = p.contacts[:0]
	for _, pair := range p.hash.QueryPairs() {
		ta, ca := goudcore.GetComponent2[components.Transform2D, Collider](p.world, pair.A)
		tb, cb := goudcore.GetComponent2[components.Transform2D, Collider](p.world, pair.B)
		if ta == nil || ca == nil || tb == nil || cb == nil || !ca.Interacts(cb) {
			continue
		}
		c, ok := Collide(ca.Shape, ta.Position, ta.Rotation, cb.Shape, tb.Position, tb.Rotation)
		if !ok {
			continue
		}
		sensor := ca.Sensor || cb.Sensor
		if !sensor {
			p.respond(pair, c, ta, tb)
		}
		p.contacts = append(p.contacts, CollisionContact{A: pair.A, B: pair.B, Contact: c, Sensor: sensor})
		p.active[pair] = struct{}{}
	}
	p.publish()
	return p.contacts
}

// sync moves every enabled collider's bounds into the hash and drops entries
// whose entity vanished or lost its collider since the last tick.
func (p *Pipeline) sync() {
	clear(p.seen)
	p.colliders.Reset()
	for p.colliders.Next() {
		tr, col := p.colliders.Get()
		if col.Disabled || col.Shape == nil {
			continue
		}
		e := p.colliders.Entity()
		p.hash.Update(e, col.Shape.Bounds(tr.Position, tr.Rotation))
		p.seen[e] = struct{}{}
	}
	for e := range p.tracked {
		if _, ok := p.seen[e]; ok {
			continue
		}
		p.hash.Remove(e)
		if !p.world.IsValid(e) {
			p.log.Warn("collider entity despawned between ticks", zap.Stringer("entity", e))
		}
	}
	p.tracked, p.seen = p.seen, p.tracked
}

func (p *Pipeline) respond(pair Pair, c Contact, ta, tb *components.Transform2D) {
	ba := goudcore.GetComponent[RigidBody](p.world, pair.A)
	bb := goudcore.GetComponent[RigidBody](p.world, pair.B)
	var velA, velB Vec2
	var invA, invB float32
	if ba != nil {
		velA, invA = ba.Velocity, ba.InvMass
	}
	if bb != nil {
		velB, invB = bb.Velocity, bb.InvMass
	}
	if invA+invB < epsilon {
		return
	}
	dvA, dvB := ResolveImpulse(c, velA, velB, invA, invB, p.response)
	if ba != nil {
		ba.Velocity = ba.Velocity.Add(dvA)
	}
	if bb != nil {
		bb.Velocity = bb.Velocity.Add(dvB)
	}
	corrA, corrB := PositionCorrection(c, invA, invB, p.response)
	ta.Position = ta.Position.Add(corrA)
	tb.Position = tb.Position.Add(corrB)
}

func (p *Pipeline) publish() {
	bus := p.world.Events()
	if goudcore.HasSubscribers[CollisionStarted](bus) {
		for _, c := range p.contacts {
			if _, ok := p.previous[Pair{A: c.A, B: c.B}]; !ok {
				goudcore.Publish(bus, CollisionStarted{A: c.A, B: c.B, Contact: c.Contact, Sensor: c.Sensor})
			}
		}
	}
	if goudcore.HasSubscribers[CollisionEnded](bus) {
		p.ended = p.ended[:0]
		for pair := range p.previous {
			if _, ok := p.active[pair]; !ok {
				p.ended = append(p.ended, pair)
			}
		}
		slices.SortFunc(p.ended, comparePairs)
		for _, pair := range p.ended {
			goudcore.Publish(bus, CollisionEnded{A: pair.A, B: pair.B})
		}
	}
	p.active, p.previous = p.previous, p.active
}
