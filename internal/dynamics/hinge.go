package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type hingeFlags int

const (
	hingeFlagCFMStop hingeFlags = 1 << iota
	hingeFlagERPStop
	hingeFlagCFMNorm
	hingeFlagERPNorm
)

// HingeConstraint restricts relative motion to one rotational degree of
// freedom about a shared axis: three linear rows keep the pivots
// coincident, two angular rows keep the axes aligned, and a sixth row
// appears only while the angle limit is violated or the motor is enabled.
type HingeConstraint struct {
	jointBase

	rbAFrame Transform
	rbBFrame Transform

	limit *AngularLimit

	enableMotor         bool
	motorTargetVelocity float64
	maxMotorImpulse     float64

	useReferenceFrameA bool
	referenceSign      float64

	flags     hingeFlags
	normalCFM float64
	normalERP float64
	stopCFM   float64
	stopERP   float64
}

// NewHingeConstraint builds a hinge from body-local pivots and axes. The
// axis becomes the Z column of each per-body reference frame; the hinge
// angle is measured between the remaining frame columns.
func NewHingeConstraint(bodyA, bodyB *RigidBody, pivotInA, pivotInB, axisInA, axisInB mgl64.Vec3) *HingeConstraint {
	axisInA = safeNormalize(axisInA)
	axisInB = safeNormalize(axisInB)

	rbAxisA1, rbAxisA2 := PlaneSpace(axisInA)
	frameA := Transform{
		Basis:  mgl64.Mat3FromCols(rbAxisA1, rbAxisA2, axisInA),
		Origin: pivotInA,
	}

	rotationArc := mgl64.QuatBetweenVectors(axisInA, axisInB)
	rbAxisB1 := rotationArc.Rotate(rbAxisA1)
	rbAxisB2 := axisInB.Cross(rbAxisB1)
	frameB := Transform{
		Basis:  mgl64.Mat3FromCols(rbAxisB1, rbAxisB2, axisInB),
		Origin: pivotInB,
	}

	return NewHingeConstraintFrames(bodyA, bodyB, frameA, frameB)
}

// NewHingeConstraintFrames builds a hinge from explicit per-body
// reference frames whose Z columns are the hinge axis.
func NewHingeConstraintFrames(bodyA, bodyB *RigidBody, frameA, frameB Transform) *HingeConstraint {
	return &HingeConstraint{
		jointBase:     newJointBase(HingeConstraintType, bodyA, bodyB),
		rbAFrame:      frameA,
		rbBFrame:      frameB,
		limit:         NewAngularLimit(),
		referenceSign: 1,
	}
}

// NewHingeConstraintWorld hinges bodyA against a caller-owned immovable
// anchor at the joint's initial world placement.
func NewHingeConstraintWorld(bodyA *RigidBody, pivotInA, axisInA mgl64.Vec3) *HingeConstraint {
	transA := bodyA.CenterOfMassTransform()
	anchor := NewFixedBody(IdentityTransform())
	pivotInB := transA.TransformPoint(pivotInA)
	axisInB := transA.Basis.Mul3x1(axisInA)
	return NewHingeConstraint(bodyA, anchor, pivotInA, pivotInB, axisInA, axisInB)
}

func (c *HingeConstraint) FrameA() Transform { return c.rbAFrame }
func (c *HingeConstraint) FrameB() Transform { return c.rbBFrame }
func (c *HingeConstraint) Limit() *AngularLimit { return c.limit }

// SetUseReferenceFrameA flips which body's frame defines the positive
// rotation direction.
func (c *HingeConstraint) SetUseReferenceFrameA(use bool) {
	c.useReferenceFrameA = use
	if use {
		c.referenceSign = -1
	} else {
		c.referenceSign = 1
	}
}

// SetLimit bounds the hinge angle to [low, high] with default softness.
func (c *HingeConstraint) SetLimit(low, high float64) {
	c.limit.Set(low, high)
}

// SetLimitAll bounds the hinge angle and tunes the stop softness, bias
// and relaxation.
func (c *HingeConstraint) SetLimitAll(low, high, softness, biasFactor, relaxationFactor float64) {
	c.limit.SetAll(low, high, softness, biasFactor, relaxationFactor)
}

// EnableAngularMotor drives the hinge toward targetVelocity, bounded per
// tick by maxMotorImpulse scaled by dt.
func (c *HingeConstraint) EnableAngularMotor(enable bool, targetVelocity, maxMotorImpulse float64) {
	c.enableMotor = enable
	c.motorTargetVelocity = targetVelocity
	c.maxMotorImpulse = maxMotorImpulse
}

func (c *HingeConstraint) MotorEnabled() bool          { return c.enableMotor }
func (c *HingeConstraint) MotorTargetVelocity() float64 { return c.motorTargetVelocity }
func (c *HingeConstraint) MaxMotorImpulse() float64     { return c.maxMotorImpulse }

// HingeAngle measures the current angle from the relative orientation of
// the two reference frames.
func (c *HingeConstraint) HingeAngle() float64 {
	return c.hingeAngle(c.bodyA.CenterOfMassTransform(), c.bodyB.CenterOfMassTransform())
}

func (c *HingeConstraint) hingeAngle(transA, transB Transform) float64 {
	refAxis0 := transA.Basis.Mul3x1(c.rbAFrame.Basis.Col(0))
	refAxis1 := transA.Basis.Mul3x1(c.rbAFrame.Basis.Col(1))
	swingAxis := transB.Basis.Mul3x1(c.rbBFrame.Basis.Col(1))
	angle := math.Atan2(swingAxis.Dot(refAxis0), swingAxis.Dot(refAxis1))
	return c.referenceSign * angle
}

// TestLimit evaluates the angle limit at the current transforms and
// returns whether it is violated.
func (c *HingeConstraint) TestLimit() bool {
	return c.limit.Test(c.HingeAngle())
}

// SolveLimit reports whether the last TestLimit (or row count) found the
// limit violated.
func (c *HingeConstraint) SolveLimit() bool { return c.limit.IsLimit() }

// CountRows declares five rows for the point-coincidence and
// axis-alignment parts, plus a sixth while the limit is violated or the
// motor is on.
func (c *HingeConstraint) CountRows() RowInfo {
	info := RowInfo{Rows: 5, Nub: 1}
	c.TestLimit()
	if c.SolveLimit() || c.enableMotor {
		info.Rows++
		info.Nub--
	}
	return info
}

// BuildRows fills the linear rows like a ball-socket, the two angular
// rows from the axis misalignment projected onto the frame's transverse
// columns, and the limit/motor row about the hinge axis. When both a
// violated limit and an enabled motor apply, the stop softness wins.
func (c *HingeConstraint) BuildRows(batch *RowBatch) {
	transA := c.bodyA.CenterOfMassTransform()
	transB := c.bodyB.CenterOfMassTransform()
	trA := transA.Mul(c.rbAFrame)
	trB := transB.Mul(c.rbBFrame)

	normalERP := batch.ERP
	if c.flags&hingeFlagERPNorm != 0 {
		normalERP = c.normalERP
	}
	k := batch.Fps * normalERP

	// linear rows
	a1 := trA.Origin.Sub(transA.Origin)
	a2 := trB.Origin.Sub(transB.Origin)
	a1r0, a1r1, a1r2 := skewRows(a1.Mul(-1))
	a2r0, a2r1, a2r2 := skewRows(a2)
	err := trB.Origin.Sub(trA.Origin)
	for i := 0; i < 3; i++ {
		row := &batch.Rows[i]
		row.LinearA[i] = 1
		row.LinearB[i] = -1
		row.RHS = k * err[i]
		row.LowerLimit = math.Inf(-1)
		row.UpperLimit = math.Inf(1)
	}
	batch.Rows[0].AngularA, batch.Rows[1].AngularA, batch.Rows[2].AngularA = a1r0, a1r1, a1r2
	batch.Rows[0].AngularB, batch.Rows[1].AngularB, batch.Rows[2].AngularB = a2r0, a2r1, a2r2

	// two angular rows keeping the axes aligned
	ax1 := trA.Basis.Col(2)
	p := trA.Basis.Col(0)
	q := trA.Basis.Col(1)
	ax2 := trB.Basis.Col(2)
	u := ax1.Cross(ax2)

	batch.Rows[3].AngularA = p
	batch.Rows[3].AngularB = p.Mul(-1)
	batch.Rows[4].AngularA = q
	batch.Rows[4].AngularB = q.Mul(-1)
	batch.Rows[3].RHS = k * u.Dot(p)
	batch.Rows[4].RHS = k * u.Dot(q)
	for i := 3; i < 5; i++ {
		batch.Rows[i].LowerLimit = math.Inf(-1)
		batch.Rows[i].UpperLimit = math.Inf(1)
	}
	if c.flags&hingeFlagCFMNorm != 0 {
		for i := 0; i < 5; i++ {
			batch.Rows[i].CFM = clampCFM(c.normalCFM)
		}
	}

	if len(batch.Rows) < 6 {
		return
	}

	// limit/motor row about the hinge axis
	limitErr := 0.0
	limit := LimitFree
	if c.SolveLimit() {
		limitErr = c.limit.Correction() * c.referenceSign
		if limitErr > 0 {
			limit = LimitAtLower
		} else {
			limit = LimitAtUpper
		}
	}
	powered := c.enableMotor

	row := &batch.Rows[5]
	row.AngularA = ax1
	row.AngularB = ax1.Mul(-1)
	row.LowerLimit = math.Inf(-1)
	row.UpperLimit = math.Inf(1)

	loStop := c.limit.Low()
	hiStop := c.limit.High()
	if limit != LimitFree && loStop == hiStop {
		// locked joint, the motor cannot act
		powered = false
	}

	currERP := normalERP
	if c.flags&hingeFlagERPStop != 0 {
		currERP = c.stopERP
	}

	if powered {
		if c.flags&hingeFlagCFMNorm != 0 {
			row.CFM = clampCFM(c.normalCFM)
		}
		motFact := motorFactor(c.HingeAngle(), loStop, hiStop, c.motorTargetVelocity, batch.Fps*currERP)
		row.RHS += motFact * c.motorTargetVelocity * c.referenceSign
		dt := 1 / batch.Fps
		row.LowerLimit = -c.maxMotorImpulse * dt
		row.UpperLimit = c.maxMotorImpulse * dt
	}

	if limit != LimitFree {
		ks := batch.Fps * currERP
		row.RHS += ks * limitErr
		if c.flags&hingeFlagCFMStop != 0 {
			row.CFM = clampCFM(c.stopCFM)
		}
		if loStop == hiStop {
			row.LowerLimit = math.Inf(-1)
			row.UpperLimit = math.Inf(1)
		} else if limit == LimitAtLower {
			row.LowerLimit = 0
			row.UpperLimit = math.Inf(1)
		} else {
			row.LowerLimit = math.Inf(-1)
			row.UpperLimit = 0
		}
		// restitution at the stop, only against incoming velocity
		bounce := c.limit.RelaxationFactor()
		if bounce > 0 {
			vel := c.bodyA.AngularVelocity().Dot(ax1) - c.bodyB.AngularVelocity().Dot(ax1)
			if limit == LimitAtLower {
				if vel < 0 {
					if newc := -bounce * vel; newc > row.RHS {
						row.RHS = newc
					}
				}
			} else {
				if vel > 0 {
					if newc := -bounce * vel; newc < row.RHS {
						row.RHS = newc
					}
				}
			}
		}
		row.RHS *= c.limit.BiasFactor()
	}
}

// SetParam overrides stabilization parameters. Equality-row overrides
// accept axis -1; stop overrides apply to the limit row (axis 5).
func (c *HingeConstraint) SetParam(p Param, value float64, axis int) {
	assert(axis == -1 || axis == 5, "hinge: invalid axis")
	switch p {
	case ParamStopERP:
		c.stopERP = value
		c.flags |= hingeFlagERPStop
	case ParamStopCFM:
		c.stopCFM = value
		c.flags |= hingeFlagCFMStop
	case ParamERP:
		c.normalERP = value
		c.flags |= hingeFlagERPNorm
	case ParamCFM:
		c.normalCFM = value
		c.flags |= hingeFlagCFMNorm
	default:
		assert(false, "hinge: unknown parameter")
	}
}

// GetParam returns a previously set override and panics on a read of one
// that was never set.
func (c *HingeConstraint) GetParam(p Param, axis int) float64 {
	assert(axis == -1 || axis == 5, "hinge: invalid axis")
	switch p {
	case ParamStopERP:
		assert(c.flags&hingeFlagERPStop != 0, "hinge: stop ERP override read before set")
		return c.stopERP
	case ParamStopCFM:
		assert(c.flags&hingeFlagCFMStop != 0, "hinge: stop CFM override read before set")
		return c.stopCFM
	case ParamERP:
		assert(c.flags&hingeFlagERPNorm != 0, "hinge: ERP override read before set")
		return c.normalERP
	case ParamCFM:
		assert(c.flags&hingeFlagCFMNorm != 0, "hinge: CFM override read before set")
		return c.normalCFM
	}
	assert(false, "hinge: unknown parameter")
	return 0
}
