package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type p2pFlags int

const (
	p2pFlagERP p2pFlags = 1 << iota
	p2pFlagCFM
)

// ConstraintSetting tunes a point-to-point joint: Tau scales the error
// feedback, Damping the velocity feedback, and ImpulseClamp bounds each
// row symmetrically (0 means unbounded). A small clamp keeps drag/pick
// constraints deliberately weak.
type ConstraintSetting struct {
	Tau          float64
	Damping      float64
	ImpulseClamp float64
}

// Point2PointConstraint couples a local pivot point on each body: a
// 3-row ball-socket joint leaving all relative rotation free.
type Point2PointConstraint struct {
	jointBase

	pivotInA mgl64.Vec3
	pivotInB mgl64.Vec3

	Setting ConstraintSetting

	flags p2pFlags
	erp   float64
	cfm   float64
}

// NewPoint2PointConstraint joins bodyA and bodyB at the given body-local
// pivot points.
func NewPoint2PointConstraint(bodyA, bodyB *RigidBody, pivotInA, pivotInB mgl64.Vec3) *Point2PointConstraint {
	return &Point2PointConstraint{
		jointBase: newJointBase(Point2PointConstraintType, bodyA, bodyB),
		pivotInA:  pivotInA,
		pivotInB:  pivotInB,
		Setting:   ConstraintSetting{Tau: 0.3, Damping: 1},
	}
}

// NewPoint2PointConstraintWorld anchors bodyA's local pivot to a fixed
// world position through a caller-owned immovable body.
func NewPoint2PointConstraintWorld(bodyA *RigidBody, pivotInA mgl64.Vec3) *Point2PointConstraint {
	pivotWorld := bodyA.CenterOfMassTransform().TransformPoint(pivotInA)
	anchor := NewFixedBody(IdentityTransform())
	return NewPoint2PointConstraint(bodyA, anchor, pivotInA, pivotWorld)
}

func (c *Point2PointConstraint) PivotInA() mgl64.Vec3 { return c.pivotInA }
func (c *Point2PointConstraint) PivotInB() mgl64.Vec3 { return c.pivotInB }

func (c *Point2PointConstraint) SetPivotA(p mgl64.Vec3) { c.pivotInA = p }
func (c *Point2PointConstraint) SetPivotB(p mgl64.Vec3) { c.pivotInB = p }

// CountRows: a ball-socket always contributes three rows and leaves the
// three rotational degrees of freedom unconstrained.
func (c *Point2PointConstraint) CountRows() RowInfo {
	return RowInfo{Rows: 3, Nub: 3}
}

// BuildRows writes the three world-axis rows: identity linear jacobians
// with pivot-arm cross terms for the angular parts, and the world-space
// pivot separation as the error, scaled by fps times the effective ERP.
func (c *Point2PointConstraint) BuildRows(batch *RowBatch) {
	transA := c.bodyA.CenterOfMassTransform()
	transB := c.bodyB.CenterOfMassTransform()

	a1 := transA.Basis.Mul3x1(c.pivotInA)
	a2 := transB.Basis.Mul3x1(c.pivotInB)

	a1r0, a1r1, a1r2 := skewRows(a1.Mul(-1))
	a2r0, a2r1, a2r2 := skewRows(a2)

	batch.Damping = c.Setting.Damping

	erp := batch.ERP
	if c.flags&p2pFlagERP != 0 {
		erp = c.erp
	}
	k := batch.Fps * erp

	pivotAWorld := transA.Origin.Add(a1)
	pivotBWorld := transB.Origin.Add(a2)
	err := pivotBWorld.Sub(pivotAWorld)

	for i := 0; i < 3; i++ {
		row := &batch.Rows[i]
		row.LinearA[i] = 1
		row.LinearB[i] = -1
		row.RHS = k * err[i]
		if c.flags&p2pFlagCFM != 0 {
			row.CFM = clampCFM(c.cfm)
		}
		row.LowerLimit = math.Inf(-1)
		row.UpperLimit = math.Inf(1)
		if c.Setting.ImpulseClamp > 0 {
			row.LowerLimit = -c.Setting.ImpulseClamp
			row.UpperLimit = c.Setting.ImpulseClamp
		}
	}
	batch.Rows[0].AngularA, batch.Rows[1].AngularA, batch.Rows[2].AngularA = a1r0, a1r1, a1r2
	batch.Rows[0].AngularB, batch.Rows[1].AngularB, batch.Rows[2].AngularB = a2r0, a2r1, a2r2
}

// SetParam overrides ERP or CFM for all three rows; the axis argument
// must be -1 or a valid axis index and exists only for interface
// symmetry with the multi-axis joints.
func (c *Point2PointConstraint) SetParam(p Param, value float64, axis int) {
	assert(axis >= -1 && axis < 3, "point2point: invalid axis")
	switch p {
	case ParamERP, ParamStopERP:
		c.erp = value
		c.flags |= p2pFlagERP
	case ParamCFM, ParamStopCFM:
		c.cfm = value
		c.flags |= p2pFlagCFM
	default:
		assert(false, "point2point: unknown parameter")
	}
}

// GetParam returns a previously set override; reading one that was never
// set is a contract violation and panics.
func (c *Point2PointConstraint) GetParam(p Param, axis int) float64 {
	assert(axis >= -1 && axis < 3, "point2point: invalid axis")
	switch p {
	case ParamERP, ParamStopERP:
		assert(c.flags&p2pFlagERP != 0, "point2point: ERP override read before set")
		return c.erp
	case ParamCFM, ParamStopCFM:
		assert(c.flags&p2pFlagCFM != 0, "point2point: CFM override read before set")
		return c.cfm
	}
	assert(false, "point2point: unknown parameter")
	return 0
}
