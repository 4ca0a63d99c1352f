package components

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/edwinsyarief/goudcore"
)

// GlobalTransform2D is an entity's world-space transform: its own Transform2D
// composed with every ancestor's. TransformPropagator writes it each tick;
// gameplay code edits Transform2D instead.
type GlobalTransform2D struct {
	Matrix mgl32.Mat3
}

// NewGlobalTransform2D returns the world transform of an entity with no
// parent.
func NewGlobalTransform2D(t Transform2D) GlobalTransform2D {
	return GlobalTransform2D{Matrix: t.Matrix()}
}

// Translation returns the world-space position.
func (g GlobalTransform2D) Translation() mgl32.Vec2 {
	return mgl32.Vec2{g.Matrix[6], g.Matrix[7]}
}

// Rotation returns the world-space rotation in radians.
func (g GlobalTransform2D) Rotation() float32 {
	return float32(math.Atan2(float64(g.Matrix[1]), float64(g.Matrix[0])))
}

// Scale returns the world-space scale. A mirrored transform reports a
// negative Y scale.
func (g GlobalTransform2D) Scale() mgl32.Vec2 {
	sx := mgl32.Vec2{g.Matrix[0], g.Matrix[1]}.Len()
	sy := mgl32.Vec2{g.Matrix[3], g.Matrix[4]}.Len()
	if g.Matrix.Det() < 0 {
		sy = -sy
	}
	return mgl32.Vec2{sx, sy}
}

// ToTransform decomposes g back into position, rotation and scale. Shear
// introduced by non-uniform parent scale is lost.
func (g GlobalTransform2D) ToTransform() Transform2D {
	return Transform2D{Position: g.Translation(), Rotation: g.Rotation(), Scale: g.Scale()}
}

// TransformBy composes a child's local transform onto g.
func (g GlobalTransform2D) TransformBy(local Transform2D) GlobalTransform2D {
	return GlobalTransform2D{Matrix: g.Matrix.Mul3(local.Matrix())}
}

// TransformPoint maps a local point into world space.
func (g GlobalTransform2D) TransformPoint(p mgl32.Vec2) mgl32.Vec2 {
	return g.Matrix.Mul3x1(p.Vec3(1)).Vec2()
}

// TransformDirection maps a local direction into world space, ignoring
// translation.
func (g GlobalTransform2D) TransformDirection(d mgl32.Vec2) mgl32.Vec2 {
	return g.Matrix.Mul3x1(d.Vec3(0)).Vec2()
}

// Inverse returns the inverse transform, or false if g is singular (a zero
// scale axis).
func (g GlobalTransform2D) Inverse() (GlobalTransform2D, bool) {
	if mgl32.Abs(g.Matrix.Det()) < 1e-8 {
		return GlobalTransform2D{}, false
	}
	return GlobalTransform2D{Matrix: g.Matrix.Inv()}, true
}

// LocalTransform returns the Transform2D a child of parent needs so that its
// world transform becomes desired. A nil parent means desired is already
// local. It fails when parent is singular.
func LocalTransform(desired GlobalTransform2D, parent *GlobalTransform2D) (Transform2D, bool) {
	if parent == nil {
		return desired.ToTransform(), true
	}
	inv, ok := parent.Inverse()
	if !ok {
		return Transform2D{}, false
	}
	return GlobalTransform2D{Matrix: inv.Matrix.Mul3(desired.Matrix)}.ToTransform(), true
}

// TransformPropagator recomputes GlobalTransform2D for every entity with a
// Transform2D, walking each hierarchy from its roots. Keep one per world.
type TransformPropagator struct {
	world    *goudcore.World
	missing  *goudcore.Filter[Transform2D]
	roots    *goudcore.Filter2[Transform2D, GlobalTransform2D]
	attached *goudcore.Filter3[Transform2D, GlobalTransform2D, Parent]
	stack    []goudcore.Entity
}

// NewTransformPropagator creates a propagator for w.
func NewTransformPropagator(w *goudcore.World) *TransformPropagator {
	global := goudcore.ComponentIDOf[GlobalTransform2D](w)
	parent := goudcore.ComponentIDOf[Parent](w)
	return &TransformPropagator{
		world:    w,
		missing:  goudcore.NewFilter[Transform2D](w).Without(global),
		roots:    goudcore.NewFilter2[Transform2D, GlobalTransform2D](w).Without(parent),
		attached: goudcore.NewFilter3[Transform2D, GlobalTransform2D, Parent](w),
	}
}

// Run gives every Transform2D entity a GlobalTransform2D if it lacks one,
// then writes the world transforms top down. Entities whose parent was
// despawned or has no Transform2D are treated as roots. Run returns the number
// of transforms written.
func (p *TransformPropagator) Run() int {
	p.missing.Reset()
	if pending := p.missing.Entities(); len(pending) > 0 {
		goudcore.AddComponentBatch(p.world, pending, GlobalTransform2D{Matrix: mgl32.Ident3()})
	}

	n := 0
	p.stack = p.stack[:0]
	p.roots.Reset()
	for p.roots.Next() {
		local, global := p.roots.Get()
		global.Matrix = local.Matrix()
		n++
		p.pushChildren(p.roots.Entity())
	}
	p.attached.Reset()
	for p.attached.Next() {
		local, global, parent := p.attached.Get()
		if goudcore.HasComponent[GlobalTransform2D](p.world, parent.Entity) {
			continue
		}
		global.Matrix = local.Matrix()
		n++
		p.pushChildren(p.attached.Entity())
	}

	for len(p.stack) > 0 {
		e := p.stack[len(p.stack)-1]
		p.stack = p.stack[:len(p.stack)-1]
		local, global := goudcore.GetComponent2[Transform2D, GlobalTransform2D](p.world, e)
		if local == nil {
			continue
		}
		pg := p.parentGlobal(e)
		if pg == nil {
			global.Matrix = local.Matrix()
		} else {
			global.Matrix = pg.Matrix.Mul3(local.Matrix())
		}
		n++
		p.pushChildren(e)
	}
	return n
}

func (p *TransformPropagator) parentGlobal(e goudcore.Entity) *GlobalTransform2D {
	parent := goudcore.GetComponent[Parent](p.world, e)
	if parent == nil {
		return nil
	}
	return goudcore.GetComponent[GlobalTransform2D](p.world, parent.Entity)
}

// pushChildren stacks e's children in reverse so they pop in attach order.
func (p *TransformPropagator) pushChildren(e goudcore.Entity) {
	ch := goudcore.GetComponent[Children](p.world, e)
	if ch == nil {
		return
	}
	for i := len(ch.entities) - 1; i >= 0; i-- {
		p.stack = append(p.stack, ch.entities[i])
	}
}
