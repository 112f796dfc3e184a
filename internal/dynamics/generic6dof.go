package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	sixDofFlagCFMNorm = 1 << iota
	sixDofFlagCFMStop
	sixDofFlagERPStop
)

// RowOrdering selects which historically grown row layout the 6-DOF
// joint emits. The two differ in subtle numerical behavior, so both stay
// available as explicit configuration.
type RowOrdering int

const (
	// OffsetAwareOrdering emits angular rows first and distributes the
	// linear rows' angular correction between the bodies by mass-weighted
	// frame offsets. The default.
	OffsetAwareOrdering RowOrdering = iota
	// LegacyOrdering emits linear rows first and anchors their angular
	// arms at frame B only.
	LegacyOrdering
)

// Generic6DofConstraint configures up to three linear and three
// rotational axes (X-Y-Z Euler decomposition of the relative
// orientation), each governed by its own limit motor. An axis
// contributes a row only while it is limited or motorized.
//
// The per-tick basis for every row is recomputed from three quantities:
// the two calculated frame transforms, the relative linear offset in
// body A's frame, and the relative Euler angle difference.
type Generic6DofConstraint struct {
	jointBase

	frameInA Transform
	frameInB Transform

	linearLimits  *TranslationalLimitMotor
	angularLimits [3]*RotationalLimitMotor

	useLinearReferenceFrameA bool
	ordering                 RowOrdering

	// recomputed by CalculateTransforms
	calculatedTransformA    Transform
	calculatedTransformB    Transform
	calculatedAxisAngleDiff mgl64.Vec3
	calculatedAxis          [3]mgl64.Vec3
	calculatedLinearDiff    mgl64.Vec3
	factA, factB            float64
	hasStaticBody           bool

	flags [6]uint8

	// axis index per emitted row, in emission order; lets the solver
	// feed accumulated impulses back into the per-axis motors
	rowAxes []int
}

// NewGeneric6DofConstraint builds the joint from body-local frames. When
// useLinearReferenceFrameA is set, linear displacement is measured in
// body A's calculated frame, otherwise in body B's.
func NewGeneric6DofConstraint(bodyA, bodyB *RigidBody, frameInA, frameInB Transform, useLinearReferenceFrameA bool) *Generic6DofConstraint {
	c := &Generic6DofConstraint{
		jointBase:                newJointBase(Generic6DofConstraintType, bodyA, bodyB),
		frameInA:                 frameInA,
		frameInB:                 frameInB,
		linearLimits:             NewTranslationalLimitMotor(),
		useLinearReferenceFrameA: useLinearReferenceFrameA,
	}
	for i := range c.angularLimits {
		c.angularLimits[i] = NewRotationalLimitMotor()
	}
	c.CalculateTransforms()
	return c
}

// NewGeneric6DofConstraintWorld anchors bodyB's frame against a
// caller-owned immovable body placed at the frame's initial world
// transform.
func NewGeneric6DofConstraintWorld(bodyB *RigidBody, frameInB Transform, useLinearReferenceFrameB bool) *Generic6DofConstraint {
	frameInA := bodyB.CenterOfMassTransform().Mul(frameInB)
	anchor := NewFixedBody(IdentityTransform())
	return NewGeneric6DofConstraint(anchor, bodyB, frameInA, frameInB, !useLinearReferenceFrameB)
}

func (c *Generic6DofConstraint) FrameInA() Transform { return c.frameInA }
func (c *Generic6DofConstraint) FrameInB() Transform { return c.frameInB }

// TranslationalLimitMotor returns the shared three-axis linear motor.
func (c *Generic6DofConstraint) TranslationalLimitMotor() *TranslationalLimitMotor {
	return c.linearLimits
}

// RotationalLimitMotor returns the motor for rotational axis i in [0,3).
func (c *Generic6DofConstraint) RotationalLimitMotor(i int) *RotationalLimitMotor {
	assert(i >= 0 && i < 3, "generic6dof: invalid rotational axis")
	return c.angularLimits[i]
}

// SetRowOrdering selects between the offset-aware and legacy row
// layouts.
func (c *Generic6DofConstraint) SetRowOrdering(o RowOrdering) { c.ordering = o }
func (c *Generic6DofConstraint) RowOrdering() RowOrdering     { return c.ordering }

// SetLimit routes axis 0-2 to the linear bounds verbatim and axis 3-5 to
// the rotational bounds after angle normalization. lo > hi marks the
// axis free.
func (c *Generic6DofConstraint) SetLimit(axis int, lo, hi float64) {
	assert(axis >= 0 && axis < 6, "generic6dof: invalid axis")
	if axis < 3 {
		c.linearLimits.LowerLimit[axis] = lo
		c.linearLimits.UpperLimit[axis] = hi
	} else {
		lo = NormalizeAngle(lo)
		hi = NormalizeAngle(hi)
		c.angularLimits[axis-3].LoLimit = lo
		c.angularLimits[axis-3].HiLimit = hi
	}
}

// IsLimited reports whether the given axis has an active range.
func (c *Generic6DofConstraint) IsLimited(axis int) bool {
	assert(axis >= 0 && axis < 6, "generic6dof: invalid axis")
	if axis < 3 {
		return c.linearLimits.IsLimited(axis)
	}
	return c.angularLimits[axis-3].IsLimited()
}

func (c *Generic6DofConstraint) SetLinearLowerLimit(v mgl64.Vec3) { c.linearLimits.LowerLimit = v }
func (c *Generic6DofConstraint) SetLinearUpperLimit(v mgl64.Vec3) { c.linearLimits.UpperLimit = v }

func (c *Generic6DofConstraint) SetAngularLowerLimit(v mgl64.Vec3) {
	for i := 0; i < 3; i++ {
		c.angularLimits[i].LoLimit = NormalizeAngle(v[i])
	}
}

func (c *Generic6DofConstraint) SetAngularUpperLimit(v mgl64.Vec3) {
	for i := 0; i < 3; i++ {
		c.angularLimits[i].HiLimit = NormalizeAngle(v[i])
	}
}

// Axis returns the world direction currently used for rotational axis i.
func (c *Generic6DofConstraint) Axis(i int) mgl64.Vec3 {
	assert(i >= 0 && i < 3, "generic6dof: invalid rotational axis")
	return c.calculatedAxis[i]
}

// Angle returns the current Euler angle difference about rotational
// axis i, as of the last CalculateTransforms.
func (c *Generic6DofConstraint) Angle(i int) float64 {
	assert(i >= 0 && i < 3, "generic6dof: invalid rotational axis")
	return c.calculatedAxisAngleDiff[i]
}

// RelativePivotPosition returns the current linear displacement along
// axis i, as of the last CalculateTransforms.
func (c *Generic6DofConstraint) RelativePivotPosition(i int) float64 {
	assert(i >= 0 && i < 3, "generic6dof: invalid linear axis")
	return c.calculatedLinearDiff[i]
}

// CalculateTransforms refreshes the calculated frames, the linear offset
// and the Euler angle difference. Called once per tick at the row-count
// query and again at row fill.
func (c *Generic6DofConstraint) CalculateTransforms() {
	c.calculatedTransformA = c.bodyA.CenterOfMassTransform().Mul(c.frameInA)
	c.calculatedTransformB = c.bodyB.CenterOfMassTransform().Mul(c.frameInB)
	c.calculateLinearInfo()
	c.calculateAngleInfo()

	miA := c.bodyA.InvMass()
	miB := c.bodyB.InvMass()
	c.hasStaticBody = miA == 0 || miB == 0
	miS := miA + miB
	if miS > 0 {
		c.factA = miB / miS
	} else {
		c.factA = 0.5
	}
	c.factB = 1 - c.factA
}

func (c *Generic6DofConstraint) calculateLinearInfo() {
	diff := c.calculatedTransformB.Origin.Sub(c.calculatedTransformA.Origin)
	c.calculatedLinearDiff = c.calculatedTransformA.Basis.Transpose().Mul3x1(diff)
	for i := 0; i < 3; i++ {
		c.linearLimits.CurrentLinearDiff[i] = c.calculatedLinearDiff[i]
		c.linearLimits.TestLimitValue(i, c.calculatedLinearDiff[i])
	}
}

func (c *Generic6DofConstraint) calculateAngleInfo() {
	relativeFrame := c.calculatedTransformA.Basis.Transpose().Mul3(c.calculatedTransformB.Basis)
	c.calculatedAxisAngleDiff, _ = matrixToEulerXYZ(relativeFrame)

	// The constraint axes interpolate between the two frames so neither
	// body's frame is privileged.
	axis0 := c.calculatedTransformB.Basis.Col(0)
	axis2 := c.calculatedTransformA.Basis.Col(2)
	c.calculatedAxis[1] = axis2.Cross(axis0)
	c.calculatedAxis[0] = c.calculatedAxis[1].Cross(axis2)
	c.calculatedAxis[2] = axis0.Cross(c.calculatedAxis[1])
	for i := 0; i < 3; i++ {
		c.calculatedAxis[i] = safeNormalize(c.calculatedAxis[i])
	}
}

// testAngularLimitMotor refreshes rotational axis i's tri-state from the
// current angle and reports whether the axis contributes a row.
func (c *Generic6DofConstraint) testAngularLimitMotor(i int) bool {
	m := c.angularLimits[i]
	angle := adjustAngleToLimits(c.calculatedAxisAngleDiff[i], m.LoLimit, m.HiLimit)
	m.CurrentPosition = angle
	m.TestLimitValue(angle)
	return m.NeedApplyTorques()
}

// adjustAngleToLimits shifts an angle by a full turn when the wrapped
// representation is closer to the active range.
func adjustAngleToLimits(angle, lo, hi float64) float64 {
	if lo >= hi {
		return angle
	}
	if angle < lo {
		diffLo := math.Abs(NormalizeAngle(lo - angle))
		diffHi := math.Abs(NormalizeAngle(hi - angle))
		if diffHi < diffLo {
			return angle + 2*math.Pi
		}
	} else if angle > hi {
		diffLo := math.Abs(NormalizeAngle(angle - lo))
		diffHi := math.Abs(NormalizeAngle(angle - hi))
		if diffLo < diffHi {
			return angle - 2*math.Pi
		}
	}
	return angle
}

// CountRows refreshes the calculated frames and declares one row per
// axis that is limited or motorized.
func (c *Generic6DofConstraint) CountRows() RowInfo {
	c.CalculateTransforms()
	info := RowInfo{Nub: 6}
	for i := 0; i < 3; i++ {
		if c.linearLimits.NeedApplyForce(i) {
			info.Rows++
			info.Nub--
		}
	}
	for i := 0; i < 3; i++ {
		if c.testAngularLimitMotor(i) {
			info.Rows++
			info.Nub--
		}
	}
	return info
}

// BuildRows emits the active rows in the configured ordering.
func (c *Generic6DofConstraint) BuildRows(batch *RowBatch) {
	c.CalculateTransforms()
	for i := 0; i < 3; i++ {
		c.testAngularLimitMotor(i)
	}
	c.rowAxes = c.rowAxes[:0]

	if c.ordering == OffsetAwareOrdering {
		row := c.buildAngularRows(batch, 0)
		c.buildLinearRows(batch, row)
	} else {
		row := c.buildLinearRows(batch, 0)
		c.buildAngularRows(batch, row)
	}
}

func (c *Generic6DofConstraint) buildLinearRows(batch *RowBatch, row int) int {
	for i := 0; i < 3; i++ {
		if !c.linearLimits.NeedApplyForce(i) {
			continue
		}
		limot := c.resolveLinearMotor(batch, i)
		axis := c.calculatedTransformA.Basis.Col(i)
		rotAllowed := true
		if c.ordering == OffsetAwareOrdering {
			// suppress angular redistribution when both transverse
			// rotations are already held by limits
			i1 := (i + 1) % 3
			i2 := (i + 2) % 3
			rotAllowed = c.angularLimits[i1].CurrentLimit == LimitFree ||
				c.angularLimits[i2].CurrentLimit == LimitFree
		}
		row += c.buildLimitMotorRow(batch, row, limot, axis, false, rotAllowed)
		c.rowAxes = append(c.rowAxes, i)
	}
	return row
}

func (c *Generic6DofConstraint) buildAngularRows(batch *RowBatch, row int) int {
	for i := 0; i < 3; i++ {
		m := c.angularLimits[i]
		if !m.NeedApplyTorques() {
			continue
		}
		limot := c.resolveAngularMotor(batch, i)
		axis := c.calculatedAxis[i]
		row += c.buildLimitMotorRow(batch, row, limot, axis, true, true)
		c.rowAxes = append(c.rowAxes, i+3)
	}
	return row
}

// resolveLinearMotor flattens linear axis i into a per-row motor view
// with its parameter overrides applied.
func (c *Generic6DofConstraint) resolveLinearMotor(batch *RowBatch, i int) RotationalLimitMotor {
	l := c.linearLimits
	limot := RotationalLimitMotor{
		Bounce:            l.Restitution,
		CurrentLimit:      l.CurrentLimit[i],
		CurrentLimitError: l.CurrentLimitError[i],
		CurrentPosition:   l.CurrentLinearDiff[i],
		Damping:           l.Damping,
		EnableMotor:       l.EnableMotor[i],
		LoLimit:           l.LowerLimit[i],
		HiLimit:           l.UpperLimit[i],
		LimitSoftness:     l.LimitSoftness,
		MaxMotorForce:     l.MaxMotorForce[i],
		TargetVelocity:    l.TargetVelocity[i],
	}
	flags := c.flags[i]
	limot.NormalCFM = 0
	if flags&sixDofFlagCFMNorm != 0 {
		limot.NormalCFM = l.NormalCFM[i]
	}
	limot.StopCFM = 0
	if flags&sixDofFlagCFMStop != 0 {
		limot.StopCFM = l.StopCFM[i]
	}
	limot.StopERP = batch.ERP
	if flags&sixDofFlagERPStop != 0 {
		limot.StopERP = l.StopERP[i]
	}
	return limot
}

func (c *Generic6DofConstraint) resolveAngularMotor(batch *RowBatch, i int) RotationalLimitMotor {
	limot := *c.angularLimits[i]
	flags := c.flags[i+3]
	if flags&sixDofFlagCFMNorm == 0 {
		limot.NormalCFM = 0
	}
	if flags&sixDofFlagCFMStop == 0 {
		limot.StopCFM = 0
	}
	if flags&sixDofFlagERPStop == 0 {
		limot.StopERP = batch.ERP
	}
	return limot
}

// buildLimitMotorRow is the unifying row builder: given an axis, its
// limit motor and the relevant world direction it decides whether to
// emit a row, writes the jacobian (redistributing the linear rows'
// angular correction by mass-weighted factors in the offset-aware
// layout), applies softness, and adds restitution only against incoming
// velocity. Returns the number of rows written (0 or 1).
//
// Sign convention: every row measures body A's velocity against body B's
// along the axis, and the governed coordinate (linear offset or Euler
// angle, both of B relative to A) moves opposite to that row velocity.
func (c *Generic6DofConstraint) buildLimitMotorRow(batch *RowBatch, rowIdx int, limot RotationalLimitMotor, ax1 mgl64.Vec3, rotational, rotAllowed bool) int {
	powered := limot.EnableMotor
	limit := limot.CurrentLimit
	if !powered && limit == LimitFree {
		return 0
	}

	transA := c.bodyA.CenterOfMassTransform()
	transB := c.bodyB.CenterOfMassTransform()
	row := &batch.Rows[rowIdx]
	row.LowerLimit = math.Inf(-1)
	row.UpperLimit = math.Inf(1)

	if rotational {
		row.AngularA = ax1
		row.AngularB = ax1.Mul(-1)
	} else {
		row.LinearA = ax1
		row.LinearB = ax1.Mul(-1)
		if c.ordering == OffsetAwareOrdering {
			// Distribute the angular part of the correction between the
			// bodies by their mass ratio, anchored on the projections of
			// both frames; without this a light body hinged to a heavy
			// one picks up spurious torque.
			relB := c.calculatedTransformB.Origin.Sub(transB.Origin)
			projB := ax1.Mul(relB.Dot(ax1))
			orthoB := relB.Sub(projB)
			relA := c.calculatedTransformA.Origin.Sub(transA.Origin)
			projA := ax1.Mul(relA.Dot(ax1))
			orthoA := relA.Sub(projA)

			desiredOffs := limot.CurrentPosition - limot.CurrentLimitError
			totalDist := projA.Add(ax1.Mul(desiredOffs)).Sub(projB)

			relA = orthoA.Add(totalDist.Mul(c.factA))
			relB = orthoB.Sub(totalDist.Mul(c.factB))
			tmpA := relA.Cross(ax1)
			tmpB := relB.Cross(ax1)
			if c.hasStaticBody && !rotAllowed {
				tmpA = tmpA.Mul(c.factA)
				tmpB = tmpB.Mul(c.factB)
			}
			row.AngularA = tmpA
			row.AngularB = tmpB.Mul(-1)
		} else {
			// legacy layout anchors both angular arms at frame B
			arm := c.calculatedTransformB.Origin.Sub(transA.Origin)
			row.AngularA = arm.Cross(ax1)
			arm = c.calculatedTransformB.Origin.Sub(transB.Origin)
			row.AngularB = arm.Cross(ax1).Mul(-1)
		}
	}

	// a joint locked at coincident bounds leaves no room for the motor
	if limit != LimitFree && limot.LoLimit == limot.HiLimit {
		powered = false
	}

	if powered {
		row.CFM = clampCFM(limot.NormalCFM)
		if limit == LimitFree {
			motFact := motorFactor(limot.CurrentPosition, limot.LoLimit, limot.HiLimit,
				limot.TargetVelocity, batch.Fps*limot.StopERP)
			row.RHS -= motFact * limot.TargetVelocity
			dt := 1 / batch.Fps
			row.LowerLimit = -limot.MaxMotorForce * dt
			row.UpperLimit = limot.MaxMotorForce * dt
		}
	}

	if limit != LimitFree {
		k := batch.Fps * limot.StopERP
		row.RHS += k * limot.CurrentLimitError
		row.CFM = clampCFM(limot.StopCFM)
		if limot.LoLimit == limot.HiLimit {
			// locked axis behaves as an equality row
			row.LowerLimit = math.Inf(-1)
			row.UpperLimit = math.Inf(1)
		} else {
			if limit == LimitAtLower {
				row.LowerLimit = math.Inf(-1)
				row.UpperLimit = 0
			} else {
				row.LowerLimit = 0
				row.UpperLimit = math.Inf(1)
			}
			if limot.Bounce > 0 {
				var vel float64
				if rotational {
					vel = c.bodyA.AngularVelocity().Dot(ax1) - c.bodyB.AngularVelocity().Dot(ax1)
				} else {
					vel = c.bodyA.LinearVelocity().Dot(ax1) - c.bodyB.LinearVelocity().Dot(ax1)
				}
				if limit == LimitAtLower {
					// incoming toward the lower stop: row velocity positive
					if vel > 0 {
						if newc := -limot.Bounce * vel; newc < row.RHS {
							row.RHS = newc
						}
					}
				} else {
					if vel < 0 {
						if newc := -limot.Bounce * vel; newc > row.RHS {
							row.RHS = newc
						}
					}
				}
			}
		}
		row.RHS *= limot.LimitSoftness
	}
	return 1
}

// noteRowImpulses stores the solver's per-row accumulated impulses back
// into the per-axis motors, in the emission order of the last BuildRows.
func (c *Generic6DofConstraint) noteRowImpulses(impulses []float64) {
	if len(impulses) != len(c.rowAxes) {
		return
	}
	for n, axis := range c.rowAxes {
		if axis < 3 {
			c.linearLimits.AccumulatedImpulse[axis] = impulses[n]
		} else {
			c.angularLimits[axis-3].AccumulatedImpulse = impulses[n]
		}
	}
}

// SetParam overrides stabilization parameters per axis: 0-2 linear, 3-5
// rotational. Equality-row ERP has no per-axis form here; only CFM,
// stop-ERP and stop-CFM apply.
func (c *Generic6DofConstraint) SetParam(p Param, value float64, axis int) {
	assert(axis >= 0 && axis < 6, "generic6dof: invalid axis")
	if axis < 3 {
		switch p {
		case ParamStopERP:
			c.linearLimits.StopERP[axis] = value
			c.flags[axis] |= sixDofFlagERPStop
		case ParamStopCFM:
			c.linearLimits.StopCFM[axis] = value
			c.flags[axis] |= sixDofFlagCFMStop
		case ParamCFM:
			c.linearLimits.NormalCFM[axis] = value
			c.flags[axis] |= sixDofFlagCFMNorm
		default:
			assert(false, "generic6dof: unsupported parameter")
		}
		return
	}
	m := c.angularLimits[axis-3]
	switch p {
	case ParamStopERP:
		m.StopERP = value
		c.flags[axis] |= sixDofFlagERPStop
	case ParamStopCFM:
		m.StopCFM = value
		c.flags[axis] |= sixDofFlagCFMStop
	case ParamCFM:
		m.NormalCFM = value
		c.flags[axis] |= sixDofFlagCFMNorm
	default:
		assert(false, "generic6dof: unsupported parameter")
	}
}

// GetParam returns a previously set override and panics on a read of one
// that was never set.
func (c *Generic6DofConstraint) GetParam(p Param, axis int) float64 {
	assert(axis >= 0 && axis < 6, "generic6dof: invalid axis")
	var flag uint8
	switch p {
	case ParamStopERP:
		flag = sixDofFlagERPStop
	case ParamStopCFM:
		flag = sixDofFlagCFMStop
	case ParamCFM:
		flag = sixDofFlagCFMNorm
	default:
		assert(false, "generic6dof: unsupported parameter")
	}
	assert(c.flags[axis]&flag != 0, "generic6dof: parameter override read before set")
	if axis < 3 {
		switch p {
		case ParamStopERP:
			return c.linearLimits.StopERP[axis]
		case ParamStopCFM:
			return c.linearLimits.StopCFM[axis]
		default:
			return c.linearLimits.NormalCFM[axis]
		}
	}
	m := c.angularLimits[axis-3]
	switch p {
	case ParamStopERP:
		return m.StopERP
	case ParamStopCFM:
		return m.StopCFM
	default:
		return m.NormalCFM
	}
}
