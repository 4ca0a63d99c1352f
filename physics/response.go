package physics

import "github.com/go-gl/mathgl/mgl32"

// Response holds the material parameters used to resolve a contact.
type Response struct {
	Restitution        float32 // 0 is perfectly inelastic, 1 perfectly elastic
	Friction           float32 // Coulomb coefficient
	PositionCorrection float32 // fraction of the penetration removed per tick
	Slop               float32 // penetration tolerated without correction
}

// NewResponse clamps restitution, friction and correction to [0, 1] and slop
// to a non-negative value.
func NewResponse(restitution, friction, correction, slop float32) Response {
	return Response{
		Restitution:        mgl32.Clamp(restitution, 0, 1),
		Friction:           mgl32.Clamp(friction, 0, 1),
		PositionCorrection: mgl32.Clamp(correction, 0, 1),
		Slop:               max(slop, 0),
	}
}

// DefaultResponse is a moderate bounce with moderate friction.
func DefaultResponse() Response { return NewResponse(0.4, 0.4, 0.4, 0.01) }

// Bouncy suits balls and projectiles.
func Bouncy() Response { return NewResponse(0.8, 0.2, 0.4, 0.01) }

// Character never bounces and grips hard, for player controllers.
func Character() Response { return NewResponse(0, 0.8, 0.6, 0.01) }

// Slippery is for ice and other low-friction surfaces.
func Slippery() Response { return NewResponse(0.3, 0.1, 0.4, 0.01) }

// Elastic conserves normal velocity completely.
func Elastic() Response { return NewResponse(1, 0.4, 0.4, 0.01) }

// ResolveImpulse computes the velocity changes for two bodies in contact.
// The contact normal points from A to B. invA and invB are inverse masses;
// zero means static. Bodies that are already separating are left alone.
func ResolveImpulse(c Contact, velA, velB Vec2, invA, invB float32, r Response) (dvA, dvB Vec2) {
	totalInv := invA + invB
	if totalInv < epsilon {
		return Vec2{}, Vec2{}
	}
	rv := velB.Sub(velA)
	vn := rv.Dot(c.Normal)
	if vn > 0 {
		return Vec2{}, Vec2{}
	}
	j := -(1 + r.Restitution) * vn / totalInv
	impulse := c.Normal.Mul(j)
	dvA = impulse.Mul(-invA)
	dvB = impulse.Mul(invB)

	tangent := Vec2{-c.Normal[1], c.Normal[0]}
	vt := rv.Add(dvB).Sub(dvA).Dot(tangent)
	if mgl32.Abs(vt) < epsilon {
		return dvA, dvB
	}
	limit := j * r.Friction
	jt := mgl32.Clamp(-vt/totalInv, -limit, limit)
	friction := tangent.Mul(jt)
	dvA = dvA.Sub(friction.Mul(invA))
	dvB = dvB.Add(friction.Mul(invB))
	return dvA, dvB
}

// PositionCorrection returns the positional nudges that push two
// interpenetrating bodies apart, split by inverse mass.
func PositionCorrection(c Contact, invA, invB float32, r Response) (corrA, corrB Vec2) {
	totalInv := invA + invB
	if totalInv < epsilon {
		return Vec2{}, Vec2{}
	}
	pen := c.Penetration - r.Slop
	if pen <= 0 {
		return Vec2{}, Vec2{}
	}
	mag := pen * r.PositionCorrection / totalInv
	corr := c.Normal.Mul(mag)
	return corr.Mul(-invA), corr.Mul(invB)
}
