// Package components holds the component types shared between gameplay,
// physics and the renderer, and the sprite query the renderer consumes.
package components

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Transform2D places an entity in 2D space. Rotation is in radians,
// counter-clockwise, and forward is +X after rotation.
type Transform2D struct {
	Position mgl32.Vec2
	Rotation float32
	Scale    mgl32.Vec2
}

// NewTransform2D returns a transform at pos with no rotation and unit scale.
func NewTransform2D(pos mgl32.Vec2) Transform2D {
	return Transform2D{Position: pos, Scale: mgl32.Vec2{1, 1}}
}

// LookAt returns a transform at pos whose forward direction points at target.
func LookAt(pos, target mgl32.Vec2) Transform2D {
	t := NewTransform2D(pos)
	t.LookAtTarget(target)
	return t
}

// Translate moves the transform by offset in world space.
func (t *Transform2D) Translate(offset mgl32.Vec2) {
	t.Position = t.Position.Add(offset)
}

// TranslateLocal moves the transform by offset expressed in its own frame.
func (t *Transform2D) TranslateLocal(offset mgl32.Vec2) {
	t.Position = t.Position.Add(mgl32.Rotate2D(t.Rotation).Mul2x1(offset))
}

// Rotate adds angle radians to the rotation.
func (t *Transform2D) Rotate(angle float32) {
	t.Rotation += angle
}

// LookAtTarget turns the transform so forward points at target.
func (t *Transform2D) LookAtTarget(target mgl32.Vec2) {
	d := target.Sub(t.Position)
	t.Rotation = float32(math.Atan2(float64(d[1]), float64(d[0])))
}

// RotationDegrees returns the rotation in degrees.
func (t Transform2D) RotationDegrees() float32 {
	return mgl32.RadToDeg(t.Rotation)
}

// Forward returns the unit +X axis after rotation.
func (t Transform2D) Forward() mgl32.Vec2 {
	s, c := math.Sincos(float64(t.Rotation))
	return mgl32.Vec2{float32(c), float32(s)}
}

// Right returns the unit +Y axis after rotation, perpendicular to Forward.
func (t Transform2D) Right() mgl32.Vec2 {
	s, c := math.Sincos(float64(t.Rotation))
	return mgl32.Vec2{float32(-s), float32(c)}
}

// Matrix returns the homogeneous scale, rotate, translate matrix.
func (t Transform2D) Matrix() mgl32.Mat3 {
	return mgl32.Translate2D(t.Position[0], t.Position[1]).
		Mul3(mgl32.HomogRotate2D(t.Rotation)).
		Mul3(mgl32.Scale2D(t.Scale[0], t.Scale[1]))
}

// TransformPoint maps a local point into world space.
func (t Transform2D) TransformPoint(p mgl32.Vec2) mgl32.Vec2 {
	return t.Matrix().Mul3x1(p.Vec3(1)).Vec2()
}
