package dynamics

import "github.com/go-gl/mathgl/mgl64"

// ConstraintType discriminates the closed set of joint variants.
type ConstraintType int

const (
	Point2PointConstraintType ConstraintType = iota + 1
	HingeConstraintType
	Generic6DofConstraintType
)

func (t ConstraintType) String() string {
	switch t {
	case Point2PointConstraintType:
		return "point2point"
	case HingeConstraintType:
		return "hinge"
	case Generic6DofConstraintType:
		return "generic6dof"
	}
	return "unknown"
}

// Param keys the per-constraint solver parameter overrides.
type Param int

const (
	// ParamERP overrides the error reduction used by equality rows.
	ParamERP Param = iota + 1
	// ParamStopERP overrides the error reduction used by limit rows.
	ParamStopERP
	// ParamCFM overrides the softness of equality rows.
	ParamCFM
	// ParamStopCFM overrides the softness of limit rows.
	ParamStopCFM
)

// RowInfo is the result of the row-count query: how many scalar rows the
// constraint contributes this tick and how many degrees of freedom it
// leaves unconstrained.
type RowInfo struct {
	Rows int
	Nub  int
}

// Row is one scalar constraint equation. The four jacobian blocks relate
// the two bodies' velocities to the row's constraint-space velocity; RHS
// is the target velocity (positional error scaled by fps*ERP plus any
// motor term), CFM the softness, and the limits bound the accumulated
// impulse the solver may apply on this row in one tick.
type Row struct {
	LinearA  mgl64.Vec3
	AngularA mgl64.Vec3
	LinearB  mgl64.Vec3
	AngularB mgl64.Vec3

	RHS float64
	CFM float64

	LowerLimit float64
	UpperLimit float64
}

// RowBatch collects the rows of one constraint for one tick, together
// with the stabilization parameters the fill call should use.
type RowBatch struct {
	Fps     float64 // simulation frequency, 1/dt
	ERP     float64 // default error reduction for equality rows
	Damping float64 // velocity feedback factor applied by the solver

	Rows []Row
}

// NewRowBatch allocates a batch of n rows.
func NewRowBatch(n int, fps, erp float64) *RowBatch {
	return &RowBatch{Fps: fps, ERP: erp, Damping: 1, Rows: make([]Row, n)}
}

// Constraint is the contract every joint variant implements: a row-count
// query followed by a row fill. The row count declared by CountRows must
// exactly match the rows written by BuildRows in the same tick.
//
// The variant set is closed; the unexported method keeps implementations
// inside this package.
type Constraint interface {
	Type() ConstraintType
	BodyA() *RigidBody
	BodyB() *RigidBody

	CountRows() RowInfo
	BuildRows(batch *RowBatch)

	Enabled() bool
	SetEnabled(bool)

	// AppliedImpulse is the total impulse magnitude the solver applied
	// through this constraint in the last solve.
	AppliedImpulse() float64

	// SetParam overrides a stabilization parameter, keyed by axis for
	// multi-axis joints. GetParam panics if the override was never set:
	// silently returning a default would mask misconfiguration.
	SetParam(p Param, value float64, axis int)
	GetParam(p Param, axis int) float64

	setAppliedImpulse(v float64)
}

// AsPoint2Point returns the concrete point-to-point joint, if c is one.
func AsPoint2Point(c Constraint) (*Point2PointConstraint, bool) {
	j, ok := c.(*Point2PointConstraint)
	return j, ok
}

// AsHinge returns the concrete hinge joint, if c is one.
func AsHinge(c Constraint) (*HingeConstraint, bool) {
	j, ok := c.(*HingeConstraint)
	return j, ok
}

// AsGeneric6Dof returns the concrete six-degree-of-freedom joint, if c is
// one.
func AsGeneric6Dof(c Constraint) (*Generic6DofConstraint, bool) {
	j, ok := c.(*Generic6DofConstraint)
	return j, ok
}

// jointBase carries the state shared by every joint variant.
type jointBase struct {
	typ            ConstraintType
	bodyA, bodyB   *RigidBody
	enabled        bool
	appliedImpulse float64
}

func newJointBase(typ ConstraintType, a, b *RigidBody) jointBase {
	assert(a != nil && b != nil, "constraint requires two bodies; use NewFixedBody for a world anchor")
	return jointBase{typ: typ, bodyA: a, bodyB: b, enabled: true}
}

func (j *jointBase) Type() ConstraintType     { return j.typ }
func (j *jointBase) BodyA() *RigidBody        { return j.bodyA }
func (j *jointBase) BodyB() *RigidBody        { return j.bodyB }
func (j *jointBase) Enabled() bool            { return j.enabled }
func (j *jointBase) SetEnabled(e bool)        { j.enabled = e }
func (j *jointBase) AppliedImpulse() float64  { return j.appliedImpulse }
func (j *jointBase) setAppliedImpulse(v float64) { j.appliedImpulse = v }

// motorFactor shrinks a motor's drive when the target velocity would push
// the joint past a limit within one correction interval. Returns a factor
// in [0,1].
func motorFactor(pos, lowLim, uppLim, vel, timeFact float64) float64 {
	if lowLim > uppLim {
		return 1 // unlimited axis
	}
	if timeFact == 0 {
		return 0
	}
	deltaMax := vel / timeFact
	t := 1.0
	if vel > 0 {
		if pos+deltaMax > uppLim {
			t = (uppLim - pos) / deltaMax
		}
	} else if vel < 0 {
		if pos+deltaMax < lowLim {
			t = (lowLim - pos) / deltaMax
		}
	}
	return mgl64.Clamp(t, 0, 1)
}

// clampCFM keeps a constraint-force-mixing value away from zero so the
// stiffness division below it stays finite.
func clampCFM(cfm float64) float64 {
	if cfm < mgl64.Epsilon {
		return mgl64.Epsilon
	}
	return cfm
}
