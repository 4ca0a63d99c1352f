package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const epsilon = 1e-6

// Contact describes how two shapes overlap. Normal is a unit vector pointing
// from the first shape towards the second; moving the second shape by
// Normal*Penetration separates them.
type Contact struct {
	Point       Vec2
	Normal      Vec2
	Penetration float32
}

// IsColliding reports whether the shapes actually overlap.
func (c Contact) IsColliding() bool {
	return c.Penetration > 0
}

// SeparationVector returns the translation that separates the second shape
// from the first.
func (c Contact) SeparationVector() Vec2 {
	return c.Normal.Mul(c.Penetration)
}

// Reversed returns the same contact seen from the second shape.
func (c Contact) Reversed() Contact {
	return Contact{Point: c.Point, Normal: c.Normal.Mul(-1), Penetration: c.Penetration}
}

func sqrt32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}

// CircleCircle tests two circles. They overlap iff the distance between the
// centres is below the sum of the radii. Coincident centres separate along +X.
func CircleCircle(ca Vec2, ra float32, cb Vec2, rb float32) (Contact, bool) {
	delta := cb.Sub(ca)
	distSq := delta.LenSqr()
	sum := ra + rb
	if distSq >= sum*sum {
		return Contact{}, false
	}
	dist := sqrt32(distSq)
	normal := Vec2{1, 0}
	if dist > epsilon {
		normal = delta.Mul(1 / dist)
	}
	pen := sum - dist
	return Contact{
		Point:       ca.Add(normal.Mul(ra - pen*0.5)),
		Normal:      normal,
		Penetration: pen,
	}, true
}

// AABBAABB tests two axis-aligned boxes given by centre and half extents. The
// normal is the axis of least overlap.
func AABBAABB(ca, ha, cb, hb Vec2) (Contact, bool) {
	minA, maxA := ca.Sub(ha), ca.Add(ha)
	minB, maxB := cb.Sub(hb), cb.Add(hb)
	if maxA[0] <= minB[0] || maxB[0] <= minA[0] || maxA[1] <= minB[1] || maxB[1] <= minA[1] {
		return Contact{}, false
	}
	overlapX := min(maxA[0], maxB[0]) - max(minA[0], minB[0])
	overlapY := min(maxA[1], maxB[1]) - max(minA[1], minB[1])
	var c Contact
	if overlapX < overlapY {
		c.Penetration = overlapX
		c.Normal = Vec2{1, 0}
		if cb[0] < ca[0] {
			c.Normal = Vec2{-1, 0}
		}
	} else {
		c.Penetration = overlapY
		c.Normal = Vec2{0, 1}
		if cb[1] < ca[1] {
			c.Normal = Vec2{0, -1}
		}
	}
	c.Point = Vec2{
		(max(minA[0], minB[0]) + min(maxA[0], maxB[0])) * 0.5,
		(max(minA[1], minB[1]) + min(maxA[1], maxB[1])) * 0.5,
	}
	return c, true
}

// boxAxes returns the local X and Y axes of a box rotated by rot.
func boxAxes(rot float32) [2]Vec2 {
	s, c := math.Sincos(float64(rot))
	return [2]Vec2{{float32(c), float32(s)}, {float32(-s), float32(c)}}
}

// BoxBox tests two oriented boxes with the separating axis theorem over the
// four face axes, two per box.
func BoxBox(ca, ha Vec2, rotA float32, cb, hb Vec2, rotB float32) (Contact, bool) {
	axA := boxAxes(rotA)
	axB := boxAxes(rotB)
	delta := cb.Sub(ca)

	minOverlap := float32(math.MaxFloat32)
	normal := Vec2{1, 0}
	for _, axis := range [4]Vec2{axA[0], axA[1], axB[0], axB[1]} {
		rA := ha[0]*mgl32.Abs(axis.Dot(axA[0])) + ha[1]*mgl32.Abs(axis.Dot(axA[1]))
		rB := hb[0]*mgl32.Abs(axis.Dot(axB[0])) + hb[1]*mgl32.Abs(axis.Dot(axB[1]))
		d := axis.Dot(delta)
		overlap := rA + rB - mgl32.Abs(d)
		if overlap <= 0 {
			return Contact{}, false
		}
		if overlap < minOverlap {
			minOverlap = overlap
			normal = axis
			if d < 0 {
				normal = axis.Mul(-1)
			}
		}
	}
	return Contact{
		Point:       ca.Add(delta.Mul(0.5)),
		Normal:      normal,
		Penetration: minOverlap,
	}, true
}

// CircleAABB tests a circle against an axis-aligned box. The normal points
// from the circle towards the box.
func CircleAABB(center Vec2, radius float32, boxCenter, half Vec2) (Contact, bool) {
	boxMin, boxMax := boxCenter.Sub(half), boxCenter.Add(half)
	closest := Vec2{
		mgl32.Clamp(center[0], boxMin[0], boxMax[0]),
		mgl32.Clamp(center[1], boxMin[1], boxMax[1]),
	}
	delta := center.Sub(closest)
	distSq := delta.LenSqr()
	// the clamp returns center unchanged exactly when it lies in the box
	inside := distSq == 0
	if !inside && distSq >= radius*radius {
		return Contact{}, false
	}
	if inside {
		// push out through the nearest face
		penX := half[0] - mgl32.Abs(center[0]-boxCenter[0]) + radius
		penY := half[1] - mgl32.Abs(center[1]-boxCenter[1]) + radius
		if min(penX, penY) <= 0 {
			return Contact{}, false
		}
		if penX < penY {
			c := Contact{Normal: Vec2{-1, 0}, Point: Vec2{boxMax[0], center[1]}, Penetration: penX}
			if center[0] <= boxCenter[0] {
				c.Normal = Vec2{1, 0}
				c.Point[0] = boxMin[0]
			}
			return c, true
		}
		c := Contact{Normal: Vec2{0, -1}, Point: Vec2{center[0], boxMax[1]}, Penetration: penY}
		if center[1] <= boxCenter[1] {
			c.Normal = Vec2{0, 1}
			c.Point[1] = boxMin[1]
		}
		return c, true
	}
	dist := sqrt32(distSq)
	if dist >= radius {
		return Contact{}, false
	}
	return Contact{
		Point:       closest,
		Normal:      delta.Mul(-1 / dist),
		Penetration: radius - dist,
	}, true
}

// CircleOBB tests a circle against an oriented box by moving the circle into
// the box's local frame.
func CircleOBB(center Vec2, radius float32, boxCenter, half Vec2, rot float32) (Contact, bool) {
	if mgl32.Abs(rot) < epsilon {
		return CircleAABB(center, radius, boxCenter, half)
	}
	local := mgl32.Rotate2D(-rot).Mul2x1(center.Sub(boxCenter))
	c, ok := CircleAABB(local, radius, Vec2{}, half)
	if !ok {
		return Contact{}, false
	}
	r := mgl32.Rotate2D(rot)
	c.Normal = r.Mul2x1(c.Normal)
	c.Point = r.Mul2x1(c.Point).Add(boxCenter)
	return c, true
}

func centroid(verts []Vec2) Vec2 {
	var sum Vec2
	for _, v := range verts {
		sum = sum.Add(v)
	}
	return sum.Mul(1 / float32(len(verts)))
}

// edgeNormals appends the unit normal of every edge of a convex polygon.
func edgeNormals(dst, verts []Vec2) []Vec2 {
	for i := range verts {
		edge := verts[(i+1)%len(verts)].Sub(verts[i])
		n := Vec2{-edge[1], edge[0]}
		if n.LenSqr() < epsilon*epsilon {
			continue
		}
		dst = append(dst, n.Normalize())
	}
	return dst
}

func project(verts []Vec2, axis Vec2) (lo, hi float32) {
	lo = axis.Dot(verts[0])
	hi = lo
	for _, v := range verts[1:] {
		d := axis.Dot(v)
		lo = min(lo, d)
		hi = max(hi, d)
	}
	return lo, hi
}

// satResolve finds the axis of least penetration. It reports false as soon
// as a separating axis is found.
func satResolve(axes []Vec2, projA, projB func(Vec2) (float32, float32), delta Vec2) (Vec2, float32, bool) {
	if len(axes) == 0 {
		return Vec2{}, 0, false
	}
	best := float32(math.MaxFloat32)
	var normal Vec2
	for _, axis := range axes {
		loA, hiA := projA(axis)
		loB, hiB := projB(axis)
		overlap := min(hiA-loB, hiB-loA)
		if overlap <= 0 {
			return Vec2{}, 0, false
		}
		if overlap < best {
			best = overlap
			normal = axis
		}
	}
	if normal.Dot(delta) < 0 {
		normal = normal.Mul(-1)
	}
	return normal, best, true
}

// PolygonPolygon tests two convex polygons given in world space.
func PolygonPolygon(a, b []Vec2) (Contact, bool) {
	if len(a) < 3 || len(b) < 3 {
		return Contact{}, false
	}
	axes := edgeNormals(edgeNormals(make([]Vec2, 0, len(a)+len(b)), a), b)
	ca, cb := centroid(a), centroid(b)
	normal, pen, ok := satResolve(axes,
		func(ax Vec2) (float32, float32) { return project(a, ax) },
		func(ax Vec2) (float32, float32) { return project(b, ax) },
		cb.Sub(ca))
	if !ok {
		return Contact{}, false
	}
	return Contact{Point: ca.Add(cb).Mul(0.5), Normal: normal, Penetration: pen}, true
}

// CirclePolygon tests a circle against a convex polygon in world space. The
// normal points from the circle towards the polygon.
func CirclePolygon(center Vec2, radius float32, poly []Vec2) (Contact, bool) {
	if len(poly) < 3 {
		return Contact{}, false
	}
	axes := edgeNormals(make([]Vec2, 0, len(poly)+1), poly)
	nearest := poly[0]
	for _, v := range poly[1:] {
		if v.Sub(center).LenSqr() < nearest.Sub(center).LenSqr() {
			nearest = v
		}
	}
	if toVertex := nearest.Sub(center); toVertex.LenSqr() > epsilon*epsilon {
		axes = append(axes, toVertex.Normalize())
	}
	normal, pen, ok := satResolve(axes,
		func(ax Vec2) (float32, float32) {
			d := ax.Dot(center)
			return d - radius, d + radius
		},
		func(ax Vec2) (float32, float32) { return project(poly, ax) },
		centroid(poly).Sub(center))
	if !ok {
		return Contact{}, false
	}
	return Contact{
		Point:       center.Add(normal.Mul(radius - pen*0.5)),
		Normal:      normal,
		Penetration: pen,
	}, true
}

// asPolygon returns the world-space vertices of a box-like or polygon shape.
func asPolygon(s Shape, pos Vec2, rot float32) []Vec2 {
	switch v := s.(type) {
	case Box:
		return boxVertices(pos, v.HalfExtents, 0)
	case OrientedBox:
		return boxVertices(pos, v.HalfExtents, rot+v.Rotation)
	case Polygon:
		return v.worldVertices(pos, rot, make([]Vec2, 0, len(v.Vertices)))
	}
	return nil
}

// Collide runs the narrow-phase test matching the two shapes. The contact
// normal points from a towards b.
func Collide(a Shape, posA Vec2, rotA float32, b Shape, posB Vec2, rotB float32) (Contact, bool) {
	switch sa := a.(type) {
	case Circle:
		switch sb := b.(type) {
		case Circle:
			return CircleCircle(posA, sa.Radius, posB, sb.Radius)
		case Box:
			return CircleAABB(posA, sa.Radius, posB, sb.HalfExtents)
		case OrientedBox:
			return CircleOBB(posA, sa.Radius, posB, sb.HalfExtents, rotB+sb.Rotation)
		case Polygon:
			return CirclePolygon(posA, sa.Radius, asPolygon(sb, posB, rotB))
		}
	case Box:
		switch sb := b.(type) {
		case Circle:
			return flip(Collide(b, posB, rotB, a, posA, rotA))
		case Box:
			return AABBAABB(posA, sa.HalfExtents, posB, sb.HalfExtents)
		case OrientedBox:
			return BoxBox(posA, sa.HalfExtents, 0, posB, sb.HalfExtents, rotB+sb.Rotation)
		case Polygon:
			return PolygonPolygon(asPolygon(sa, posA, rotA), asPolygon(sb, posB, rotB))
		}
	case OrientedBox:
		switch sb := b.(type) {
		case Circle:
			return flip(Collide(b, posB, rotB, a, posA, rotA))
		case Box:
			return BoxBox(posA, sa.HalfExtents, rotA+sa.Rotation, posB, sb.HalfExtents, 0)
		case OrientedBox:
			return BoxBox(posA, sa.HalfExtents, rotA+sa.Rotation, posB, sb.HalfExtents, rotB+sb.Rotation)
		case Polygon:
			return PolygonPolygon(asPolygon(sa, posA, rotA), asPolygon(sb, posB, rotB))
		}
	case Polygon:
		switch b.(type) {
		case Circle:
			return flip(Collide(b, posB, rotB, a, posA, rotA))
		case Box, OrientedBox, Polygon:
			return PolygonPolygon(asPolygon(sa, posA, rotA), asPolygon(b, posB, rotB))
		}
	}
	return Contact{}, false
}

func flip(c Contact, ok bool) (Contact, bool) {
	if !ok {
		return Contact{}, false
	}
	return c.Reversed(), true
}
