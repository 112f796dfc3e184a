package metrics

import (
	"math"

	"github.com/san-kum/rigidsim/internal/dynamics"
)

// SleepRatio tracks the average fraction of dynamic bodies that are
// asleep over the observed window.
type SleepRatio struct {
	name    string
	sum     float64
	samples int
}

func NewSleepRatio() *SleepRatio {
	return &SleepRatio{
		name: "sleep_ratio",
	}
}

func (s *SleepRatio) Name() string { return s.name }

func (s *SleepRatio) Observe(w *dynamics.World, t float64) {
	var dynCount, asleep int
	for _, b := range w.Bodies() {
		if b.IsStaticObject() {
			continue
		}
		dynCount++
		if b.ActivationState() == dynamics.StateSleeping {
			asleep++
		}
	}
	if dynCount == 0 {
		return
	}
	s.sum += float64(asleep) / float64(dynCount)
	s.samples++
}

func (s *SleepRatio) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return s.sum / float64(s.samples)
}

func (s *SleepRatio) Reset() {
	s.sum = 0
	s.samples = 0
}

// MaxImpulse records the largest solver impulse any joint reported.
type MaxImpulse struct {
	name string
	max  float64
}

func NewMaxImpulse() *MaxImpulse {
	return &MaxImpulse{
		name: "max_impulse",
	}
}

func (m *MaxImpulse) Name() string { return m.name }

func (m *MaxImpulse) Observe(w *dynamics.World, t float64) {
	for _, c := range w.Constraints() {
		m.max = math.Max(m.max, c.AppliedImpulse())
	}
}

func (m *MaxImpulse) Value() float64 {
	return m.max
}

func (m *MaxImpulse) Reset() {
	m.max = 0
}
