package dynamics

import "github.com/go-gl/mathgl/mgl64"

// Limit tri-state recomputed each tick from the current relative position.
const (
	LimitFree    = 0
	LimitAtLower = 1
	LimitAtUpper = 2
)

// RotationalLimitMotor governs one rotational axis of a 6-DOF joint:
// optional [lo, hi] limit, optional velocity motor, and the accumulated
// impulse carried between ticks as a warm start.
//
// LoLimit > HiLimit is the explicit "free axis" convention.
type RotationalLimitMotor struct {
	LoLimit        float64
	HiLimit        float64
	TargetVelocity float64
	MaxMotorForce  float64
	MaxLimitForce  float64
	Damping        float64
	LimitSoftness  float64
	NormalCFM      float64
	StopERP        float64
	StopCFM        float64
	Bounce         float64
	EnableMotor    bool

	// recomputed every tick
	CurrentLimit      int
	CurrentLimitError float64
	CurrentPosition   float64

	AccumulatedImpulse float64
}

func NewRotationalLimitMotor() *RotationalLimitMotor {
	return &RotationalLimitMotor{
		LoLimit:       1,
		HiLimit:       -1,
		MaxLimitForce: 300,
		Damping:       1,
		LimitSoftness: 0.5,
		StopERP:       0.2,
	}
}

// IsLimited reports whether the axis has an active range.
func (m *RotationalLimitMotor) IsLimited() bool {
	return m.LoLimit <= m.HiLimit
}

// NeedApplyTorques reports whether this axis contributes a row this tick.
func (m *RotationalLimitMotor) NeedApplyTorques() bool {
	return m.CurrentLimit != LimitFree || m.EnableMotor
}

// TestLimitValue classifies value against the limit range, recording the
// violation error, and returns the resulting tri-state.
func (m *RotationalLimitMotor) TestLimitValue(value float64) int {
	if !m.IsLimited() {
		m.CurrentLimit = LimitFree
		m.CurrentLimitError = 0
		return LimitFree
	}
	if value < m.LoLimit {
		m.CurrentLimit = LimitAtLower
		m.CurrentLimitError = value - m.LoLimit
	} else if value > m.HiLimit {
		m.CurrentLimit = LimitAtUpper
		m.CurrentLimitError = value - m.HiLimit
	} else {
		m.CurrentLimit = LimitFree
		m.CurrentLimitError = 0
	}
	return m.CurrentLimit
}

// TranslationalLimitMotor governs the three linear axes of a 6-DOF joint.
// Per-axis limits follow the same lo > hi "free" convention.
type TranslationalLimitMotor struct {
	LowerLimit     mgl64.Vec3
	UpperLimit     mgl64.Vec3
	Restitution    float64
	Damping        float64
	LimitSoftness  float64
	NormalCFM      mgl64.Vec3
	StopERP        mgl64.Vec3
	StopCFM        mgl64.Vec3
	EnableMotor    [3]bool
	TargetVelocity mgl64.Vec3
	MaxMotorForce  mgl64.Vec3

	// recomputed every tick
	CurrentLimit       [3]int
	CurrentLimitError  mgl64.Vec3
	CurrentLinearDiff  mgl64.Vec3

	AccumulatedImpulse mgl64.Vec3
}

func NewTranslationalLimitMotor() *TranslationalLimitMotor {
	return &TranslationalLimitMotor{
		LowerLimit:    mgl64.Vec3{},
		UpperLimit:    mgl64.Vec3{},
		Restitution:   0.5,
		Damping:       1,
		LimitSoftness: 0.7,
		StopERP:       mgl64.Vec3{0.2, 0.2, 0.2},
	}
}

// IsLimited reports whether axis i has an active range.
func (m *TranslationalLimitMotor) IsLimited(i int) bool {
	return m.UpperLimit[i] >= m.LowerLimit[i]
}

// NeedApplyForce reports whether axis i contributes a row this tick.
func (m *TranslationalLimitMotor) NeedApplyForce(i int) bool {
	return m.CurrentLimit[i] != LimitFree || m.EnableMotor[i]
}

// TestLimitValue classifies value against axis i's range and returns the
// resulting tri-state; a free axis always reports LimitFree.
func (m *TranslationalLimitMotor) TestLimitValue(i int, value float64) int {
	lo := m.LowerLimit[i]
	hi := m.UpperLimit[i]
	if lo > hi {
		m.CurrentLimit[i] = LimitFree
		m.CurrentLimitError[i] = 0
		return LimitFree
	}
	if value < lo {
		m.CurrentLimit[i] = LimitAtLower
		m.CurrentLimitError[i] = value - lo
	} else if value > hi {
		m.CurrentLimit[i] = LimitAtUpper
		m.CurrentLimitError[i] = value - hi
	} else {
		m.CurrentLimit[i] = LimitFree
		m.CurrentLimitError[i] = 0
	}
	return m.CurrentLimit[i]
}
