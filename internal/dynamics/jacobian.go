package dynamics

import "github.com/go-gl/mathgl/mgl64"

// JacobianEntry holds one constraint row's projections for a pair of
// bodies: the linear axis, the angular jacobians in each body's frame, the
// inverse-inertia-scaled versions of those, and the scalar effective
// inverse mass ("Adiag") dividing impulses on this row.
//
// Adiag is strictly positive for every pair with combined finite mass; a
// non-positive value means a degenerate configuration (coincident pivots
// with zero combined inverse mass) and is a fatal construction error.
type JacobianEntry struct {
	linearJointAxis mgl64.Vec3
	aJ              mgl64.Vec3
	bJ              mgl64.Vec3
	minvJtA         mgl64.Vec3
	minvJtB         mgl64.Vec3
	adiag           float64
}

// NewJacobianEntry builds a row for a constraint acting along jointAxis at
// relPosA/relPosB from the bodies' centers of mass. world2A and world2B
// are the transposed world bases of the bodies.
func NewJacobianEntry(world2A, world2B mgl64.Mat3, relPosA, relPosB, jointAxis,
	invInertiaA mgl64.Vec3, invMassA float64, invInertiaB mgl64.Vec3, invMassB float64) JacobianEntry {
	j := JacobianEntry{
		linearJointAxis: jointAxis,
		aJ:              world2A.Mul3x1(relPosA.Cross(jointAxis)),
		bJ:              world2B.Mul3x1(relPosB.Cross(jointAxis.Mul(-1))),
	}
	j.minvJtA = mulElem(invInertiaA, j.aJ)
	j.minvJtB = mulElem(invInertiaB, j.bJ)
	j.adiag = invMassA + j.minvJtA.Dot(j.aJ) + invMassB + j.minvJtB.Dot(j.bJ)
	assert(j.adiag > 0, "degenerate jacobian: non-positive effective inverse mass")
	return j
}

// NewAngularJacobianEntry builds a purely angular row about jointAxis.
func NewAngularJacobianEntry(jointAxis mgl64.Vec3, world2A, world2B mgl64.Mat3,
	invInertiaA, invInertiaB mgl64.Vec3) JacobianEntry {
	j := JacobianEntry{
		linearJointAxis: mgl64.Vec3{},
		aJ:              world2A.Mul3x1(jointAxis),
		bJ:              world2B.Mul3x1(jointAxis.Mul(-1)),
	}
	j.minvJtA = mulElem(invInertiaA, j.aJ)
	j.minvJtB = mulElem(invInertiaB, j.bJ)
	j.adiag = j.minvJtA.Dot(j.aJ) + j.minvJtB.Dot(j.bJ)
	assert(j.adiag > 0, "degenerate angular jacobian: non-positive effective inverse mass")
	return j
}

// NewJacobianEntryFromRow builds an entry from the world-frame jacobian
// blocks of an assembled constraint row. The row protocol emits equal and
// opposite linear blocks, so only body A's is taken.
func NewJacobianEntryFromRow(linearA, angularA, angularB mgl64.Vec3, world2A, world2B mgl64.Mat3,
	invInertiaA mgl64.Vec3, invMassA float64, invInertiaB mgl64.Vec3, invMassB float64) JacobianEntry {
	j := JacobianEntry{
		linearJointAxis: linearA,
		aJ:              world2A.Mul3x1(angularA),
		bJ:              world2B.Mul3x1(angularB),
	}
	j.minvJtA = mulElem(invInertiaA, j.aJ)
	j.minvJtB = mulElem(invInertiaB, j.bJ)
	j.adiag = linearA.Dot(linearA)*(invMassA+invMassB) +
		j.minvJtA.Dot(j.aJ) + j.minvJtB.Dot(j.bJ)
	assert(j.adiag > 0, "degenerate jacobian: non-positive effective inverse mass")
	return j
}

// Diagonal returns the effective inverse mass for this row.
func (j JacobianEntry) Diagonal() float64 { return j.adiag }

// RelativeVelocity projects the two bodies' velocities onto the row.
func (j JacobianEntry) RelativeVelocity(linVelA, angVelA, linVelB, angVelB mgl64.Vec3) float64 {
	lin := linVelA.Sub(linVelB).Dot(j.linearJointAxis)
	return lin + angVelA.Dot(j.aJ) + angVelB.Dot(j.bJ)
}

// NonDiagonal returns the massInvA-weighted coupling term between this
// row and another row sharing body A, used when solving coupled row
// pairs directly instead of iteratively.
func (j JacobianEntry) NonDiagonal(other JacobianEntry, massInvA float64) float64 {
	lin := j.linearJointAxis.Mul(massInvA).Dot(other.linearJointAxis)
	ang := j.minvJtA.Dot(other.aJ)
	return lin + ang
}
