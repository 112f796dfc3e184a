package dynamics

// AngularLimit evaluates a single-axis angle limit: a center angle and a
// half range, with softness and stabilization factors. Test classifies an
// angle and records the correction needed; the outputs are transient and
// recomputed on every call.
//
// A negative half range means the axis is unlimited and Test never
// reports a violation.
type AngularLimit struct {
	center           float64
	halfRange        float64
	softness         float64
	biasFactor       float64
	relaxationFactor float64

	correction float64
	sign       float64
	solveLimit bool
}

// NewAngularLimit returns an unlimited angular limit with default
// softness parameters.
func NewAngularLimit() *AngularLimit {
	return &AngularLimit{
		halfRange:        -1,
		softness:         0.9,
		biasFactor:       0.3,
		relaxationFactor: 1,
	}
}

// Set configures the limit as [low, high] with default softness.
func (l *AngularLimit) Set(low, high float64) {
	l.SetAll(low, high, 0.9, 0.3, 1)
}

// SetAll configures the limit range and its softness, bias and relaxation
// factors. The range is stored as center plus half range so a test angle
// can be normalized relative to the center.
func (l *AngularLimit) SetAll(low, high, softness, biasFactor, relaxationFactor float64) {
	l.center = NormalizeAngle((low + high) / 2)
	l.halfRange = (high - low) / 2
	l.softness = softness
	l.biasFactor = biasFactor
	l.relaxationFactor = relaxationFactor
}

// Test classifies angle against the limit. It reports true and records a
// correction when the angle deviates beyond the half range: below the
// range the correction sign is +1, above it -1.
func (l *AngularLimit) Test(angle float64) bool {
	l.correction = 0
	l.sign = 0
	l.solveLimit = false

	if l.halfRange >= 0 {
		deviation := NormalizeAngle(angle - l.center)
		if deviation < -l.halfRange {
			l.solveLimit = true
			l.correction = -(deviation + l.halfRange)
			l.sign = 1
		} else if deviation > l.halfRange {
			l.solveLimit = true
			l.correction = l.halfRange - deviation
			l.sign = -1
		}
	}
	return l.solveLimit
}

func (l *AngularLimit) Softness() float64         { return l.softness }
func (l *AngularLimit) BiasFactor() float64       { return l.biasFactor }
func (l *AngularLimit) RelaxationFactor() float64 { return l.relaxationFactor }

// Correction returns the angle still needed to bring a violated limit
// back into range, as of the last Test.
func (l *AngularLimit) Correction() float64 { return l.correction }

// Sign returns the direction of the last correction: +1 pushes the angle
// up toward the low bound, -1 down toward the high bound.
func (l *AngularLimit) Sign() float64 { return l.sign }

// IsLimit reports whether the last Test found a violation.
func (l *AngularLimit) IsLimit() bool { return l.solveLimit }

// Half returns the half range; negative means unlimited.
func (l *AngularLimit) Half() float64 { return l.halfRange }

// Low returns the lower bound of the configured range.
func (l *AngularLimit) Low() float64 { return NormalizeAngle(l.center - l.halfRange) }

// High returns the upper bound of the configured range.
func (l *AngularLimit) High() float64 { return NormalizeAngle(l.center + l.halfRange) }

// Fit clamps a violated angle to the nearest bound.
func (l *AngularLimit) Fit(angle float64) float64 {
	if l.halfRange <= 0 {
		return angle
	}
	relative := NormalizeAngle(angle - l.center)
	if relative > l.halfRange {
		return l.High()
	} else if relative < -l.halfRange {
		return l.Low()
	}
	return angle
}
