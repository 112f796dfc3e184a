package metrics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/rigidsim/internal/dynamics"
)

func newMetricsWorld() *dynamics.World {
	return dynamics.NewWorld(dynamics.NewSequentialImpulseSolver(dynamics.DefaultSolverParams()))
}

func newBall(mass float64) *dynamics.RigidBody {
	return dynamics.NewRigidBody(dynamics.DefaultRigidBodyConfig(mass, nil, dynamics.NewSphere(0.5)))
}

func TestKineticEnergyValue(t *testing.T) {
	w := newMetricsWorld()
	b := newBall(2.0)
	b.SetLinearVelocity(mgl64.Vec3{3, 0, 0})
	b.SetAngularVelocity(mgl64.Vec3{0, 0, 2})
	w.AddBody(b)

	m := NewKineticEnergy()
	m.Observe(w, 0)

	// Linear: 0.5*2*9 = 9. Angular: sphere inertia 0.4*2*0.25 = 0.2,
	// so 0.5*0.2*4 = 0.4.
	expected := 9.4
	if math.Abs(m.Value()-expected) > 1e-9 {
		t.Errorf("expected energy %f, got %f", expected, m.Value())
	}
}

func TestKineticEnergyIgnoresStatic(t *testing.T) {
	w := newMetricsWorld()
	anchor := dynamics.NewFixedBody(dynamics.IdentityTransform())
	w.AddBody(anchor)

	m := NewKineticEnergy()
	m.Observe(w, 0)
	if m.Value() != 0 {
		t.Errorf("expected zero energy for static-only world, got %f", m.Value())
	}
}

func TestKineticEnergyReset(t *testing.T) {
	w := newMetricsWorld()
	b := newBall(1.0)
	b.SetLinearVelocity(mgl64.Vec3{1, 0, 0})
	w.AddBody(b)

	m := NewKineticEnergy()
	m.Observe(w, 0)
	if m.Value() == 0 {
		t.Error("expected non-zero energy")
	}

	m.Reset()
	if m.Value() != 0 {
		t.Errorf("expected zero energy after reset, got %f", m.Value())
	}
}

func TestEnergyDriftTracksMaxRelativeChange(t *testing.T) {
	w := newMetricsWorld()
	b := newBall(1.0)
	b.SetLinearVelocity(mgl64.Vec3{2, 0, 0})
	w.AddBody(b)

	m := NewEnergyDrift()
	m.Observe(w, 0)
	if m.Value() != 0 {
		t.Errorf("expected zero drift at first sample, got %f", m.Value())
	}

	// Double the speed: energy quadruples, relative drift 3.
	b.SetLinearVelocity(mgl64.Vec3{4, 0, 0})
	m.Observe(w, 1)
	if math.Abs(m.Value()-3.0) > 1e-9 {
		t.Errorf("expected drift 3, got %f", m.Value())
	}

	// Back to initial: max is sticky.
	b.SetLinearVelocity(mgl64.Vec3{2, 0, 0})
	m.Observe(w, 2)
	if math.Abs(m.Value()-3.0) > 1e-9 {
		t.Errorf("expected drift to stay 3, got %f", m.Value())
	}
}

func TestConstraintDriftMeasuresPivotSeparation(t *testing.T) {
	w := newMetricsWorld()
	a := newBall(1.0)
	b := newBall(1.0)
	w.AddBody(a)
	w.AddBody(b)

	// Pivots one unit apart in world space.
	joint := dynamics.NewPoint2PointConstraint(a, b, mgl64.Vec3{}, mgl64.Vec3{1, 0, 0})
	w.AddConstraint(joint)

	m := NewConstraintDrift()
	m.Observe(w, 0)
	if math.Abs(m.Value()-1.0) > 1e-9 {
		t.Errorf("expected drift 1, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Errorf("expected zero drift after reset, got %f", m.Value())
	}
}

func TestSleepRatio(t *testing.T) {
	w := newMetricsWorld()
	awake := newBall(1.0)
	asleep := newBall(1.0)
	asleep.ForceActivationState(dynamics.StateSleeping)
	w.AddBody(awake)
	w.AddBody(asleep)

	m := NewSleepRatio()
	m.Observe(w, 0)
	if math.Abs(m.Value()-0.5) > 1e-9 {
		t.Errorf("expected sleep ratio 0.5, got %f", m.Value())
	}
}

func TestMaxImpulseDefaultsToZero(t *testing.T) {
	w := newMetricsWorld()
	a := newBall(1.0)
	b := newBall(1.0)
	w.AddBody(a)
	w.AddBody(b)
	w.AddConstraint(dynamics.NewPoint2PointConstraint(a, b, mgl64.Vec3{}, mgl64.Vec3{}))

	m := NewMaxImpulse()
	m.Observe(w, 0)
	if m.Value() != 0 {
		t.Errorf("expected zero impulse before solving, got %f", m.Value())
	}
}
