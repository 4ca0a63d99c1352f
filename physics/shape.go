// Package physics implements 2D collision detection for the engine: a uniform
// spatial hash broad-phase, exact narrow-phase shape tests, impulse and
// position-correction primitives, and a per-tick pipeline that runs them over
// world entities.
//
// There is no integrator here. Moving bodies is game logic; the pipeline only
// detects contacts and applies collision response.
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Vec2 is the vector type used throughout the package.
type Vec2 = mgl32.Vec2

// AABB is an axis-aligned bounding box. Min must not exceed Max on either
// axis.
type AABB struct {
	Min, Max Vec2
}

// AABBFromCenter builds a box from its centre and half extents.
func AABBFromCenter(center, half Vec2) AABB {
	return AABB{Min: center.Sub(half), Max: center.Add(half)}
}

// Intersects reports whether the boxes overlap. Touching edges count as
// overlap.
func (b AABB) Intersects(o AABB) bool {
	return b.Min[0] <= o.Max[0] && o.Min[0] <= b.Max[0] &&
		b.Min[1] <= o.Max[1] && o.Min[1] <= b.Max[1]
}

// Contains reports whether p lies inside b, edges included.
func (b AABB) Contains(p Vec2) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] && p[1] >= b.Min[1] && p[1] <= b.Max[1]
}

// Union returns the smallest box enclosing both.
func (b AABB) Union(o AABB) AABB {
	return AABB{
		Min: Vec2{min(b.Min[0], o.Min[0]), min(b.Min[1], o.Min[1])},
		Max: Vec2{max(b.Max[0], o.Max[0]), max(b.Max[1], o.Max[1])},
	}
}

// Expand grows b by margin on every side.
func (b AABB) Expand(margin float32) AABB {
	m := Vec2{margin, margin}
	return AABB{Min: b.Min.Sub(m), Max: b.Max.Add(m)}
}

// Center returns the midpoint of b.
func (b AABB) Center() Vec2 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// HalfExtents returns half the size of b.
func (b AABB) HalfExtents() Vec2 {
	return b.Max.Sub(b.Min).Mul(0.5)
}

// Shape is a collidable shape in local space. Its world-space bounds are
// always derived from a position and rotation and never cached on the shape.
type Shape interface {
	// Bounds returns the world-space AABB of the shape placed at pos and
	// rotated by rot radians.
	Bounds(pos Vec2, rot float32) AABB
	shape()
}

// Circle is a disc of the given radius.
type Circle struct {
	Radius float32
}

// Box is an axis-aligned rectangle. It ignores the rotation of its owner.
type Box struct {
	HalfExtents Vec2
}

// OrientedBox is a rectangle rotated by Rotation radians on top of its owner's
// rotation.
type OrientedBox struct {
	HalfExtents Vec2
	Rotation    float32
}

// Polygon is a convex polygon with vertices relative to its owner's position.
type Polygon struct {
	Vertices []Vec2
}

func (Circle) shape()      {}
func (Box) shape()         {}
func (OrientedBox) shape() {}
func (Polygon) shape()     {}

// Bounds returns the square around the circle; rotation does not change it.
func (c Circle) Bounds(pos Vec2, _ float32) AABB {
	return AABBFromCenter(pos, Vec2{c.Radius, c.Radius})
}

// Bounds returns the box itself. Box ignores rotation.
func (b Box) Bounds(pos Vec2, _ float32) AABB {
	return AABBFromCenter(pos, b.HalfExtents)
}

// Bounds returns the AABB of the rotated box.
func (b OrientedBox) Bounds(pos Vec2, rot float32) AABB {
	angle := float64(rot + b.Rotation)
	c := float32(math.Abs(math.Cos(angle)))
	s := float32(math.Abs(math.Sin(angle)))
	hx := b.HalfExtents[0]*c + b.HalfExtents[1]*s
	hy := b.HalfExtents[0]*s + b.HalfExtents[1]*c
	return AABBFromCenter(pos, Vec2{hx, hy})
}

// Bounds returns the AABB of the transformed vertices.
func (p Polygon) Bounds(pos Vec2, rot float32) AABB {
	if len(p.Vertices) == 0 {
		return AABB{Min: pos, Max: pos}
	}
	world := p.worldVertices(pos, rot, nil)
	b := AABB{Min: world[0], Max: world[0]}
	for _, v := range world[1:] {
		b.Min = Vec2{min(b.Min[0], v[0]), min(b.Min[1], v[1])}
		b.Max = Vec2{max(b.Max[0], v[0]), max(b.Max[1], v[1])}
	}
	return b
}

// worldVertices appends the polygon's vertices transformed to world space.
func (p Polygon) worldVertices(pos Vec2, rot float32, dst []Vec2) []Vec2 {
	r := mgl32.Rotate2D(rot)
	for _, v := range p.Vertices {
		dst = append(dst, r.Mul2x1(v).Add(pos))
	}
	return dst
}

// boxVertices returns the corners of an oriented box in world space.
func boxVertices(center, half Vec2, rot float32) []Vec2 {
	r := mgl32.Rotate2D(rot)
	corners := [4]Vec2{
		{-half[0], -half[1]},
		{half[0], -half[1]},
		{half[0], half[1]},
		{-half[0], half[1]},
	}
	out := make([]Vec2, 4)
	for i, c := range corners {
		out[i] = r.Mul2x1(c).Add(center)
	}
	return out
}
