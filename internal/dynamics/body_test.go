package dynamics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func newDynamicBody(mass float64) *RigidBody {
	return NewRigidBody(DefaultRigidBodyConfig(mass, nil, NewSphere(0.5)))
}

func TestStaticBodyImmutable(t *testing.T) {
	b := NewFixedBody(IdentityTransform())

	b.SetLinearVelocity(mgl64.Vec3{1, 0, 0})
	b.SetAngularVelocity(mgl64.Vec3{0, 1, 0})
	b.ApplyCentralForce(mgl64.Vec3{100, 0, 0})
	b.ApplyTorque(mgl64.Vec3{0, 100, 0})
	b.ApplyCentralImpulse(mgl64.Vec3{0, 0, 100})
	b.ApplyImpulse(mgl64.Vec3{5, 5, 5}, mgl64.Vec3{1, 0, 0})
	b.IntegrateVelocities(0.1)

	if b.LinearVelocity().Len() != 0 || b.AngularVelocity().Len() != 0 {
		t.Error("static body acquired velocity")
	}
	if b.TotalForce().Len() != 0 || b.TotalTorque().Len() != 0 {
		t.Error("static body accumulated force")
	}
	if !b.IsStaticObject() {
		t.Error("fixed body not static")
	}
}

func TestIntegrateVelocities(t *testing.T) {
	b := newDynamicBody(2)

	b.ApplyCentralForce(mgl64.Vec3{4, 0, 0})
	b.IntegrateVelocities(0.5)

	// dv = F/m * dt = 4/2 * 0.5
	want := mgl64.Vec3{1, 0, 0}
	if !b.LinearVelocity().ApproxEqualThreshold(want, 1e-12) {
		t.Errorf("expected velocity %v, got %v", want, b.LinearVelocity())
	}
}

func TestIntegrateVelocitiesClampsSpin(t *testing.T) {
	b := newDynamicBody(1)
	dt := 0.01

	b.ApplyTorque(mgl64.Vec3{0, 0, 1e6})
	b.IntegrateVelocities(dt)

	if b.AngularVelocity().Len()*dt > math.Pi/2+1e-9 {
		t.Errorf("angular step %f exceeds the cap", b.AngularVelocity().Len()*dt)
	}
}

func TestApplyImpulse(t *testing.T) {
	b := newDynamicBody(1)

	b.ApplyImpulse(mgl64.Vec3{0, 1, 0}, mgl64.Vec3{1, 0, 0})

	if !b.LinearVelocity().ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, 1e-12) {
		t.Errorf("expected linear velocity (0,1,0), got %v", b.LinearVelocity())
	}
	// torque impulse (1,0,0) x (0,1,0) = (0,0,1) through the sphere inertia
	if b.AngularVelocity().Z() <= 0 {
		t.Errorf("expected positive spin about z, got %v", b.AngularVelocity())
	}
}

func TestApplyDampingNeverSpeedsUp(t *testing.T) {
	tests := []struct {
		name    string
		damping float64
	}{
		{"none", 0},
		{"light", 0.05},
		{"heavy", 0.9},
		{"full", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newDynamicBody(1)
			b.SetDamping(tt.damping, tt.damping)
			b.SetLinearVelocity(mgl64.Vec3{3, 0, 0})
			b.SetAngularVelocity(mgl64.Vec3{0, 2, 0})

			prevLin := b.LinearVelocity().Len()
			prevAng := b.AngularVelocity().Len()
			for i := 0; i < 10; i++ {
				b.ApplyDamping(1.0 / 60)
				lin := b.LinearVelocity().Len()
				ang := b.AngularVelocity().Len()
				if lin > prevLin+1e-12 || ang > prevAng+1e-12 {
					t.Fatalf("damping increased speed at step %d", i)
				}
				prevLin, prevAng = lin, ang
			}
			if tt.damping == 1 && prevLin > 1e-9 {
				t.Errorf("full damping left residual speed %f", prevLin)
			}
		})
	}
}

func TestSetDampingClamps(t *testing.T) {
	b := newDynamicBody(1)
	b.SetDamping(-0.5, 2)

	if b.LinearDamping() != 0 {
		t.Errorf("expected linear damping clamped to 0, got %f", b.LinearDamping())
	}
	if b.AngularDamping() != 1 {
		t.Errorf("expected angular damping clamped to 1, got %f", b.AngularDamping())
	}
}

func TestGravityMassScaling(t *testing.T) {
	b := newDynamicBody(4)
	b.SetGravity(mgl64.Vec3{0, -10, 0})

	b.ApplyGravity()
	if !b.TotalForce().ApproxEqualThreshold(mgl64.Vec3{0, -40, 0}, 1e-12) {
		t.Errorf("expected force (0,-40,0), got %v", b.TotalForce())
	}

	b.ClearGravity()
	if b.TotalForce().Len() > 1e-12 {
		t.Errorf("clear gravity left force %v", b.TotalForce())
	}
}

func TestDisableWorldGravityFlag(t *testing.T) {
	b := newDynamicBody(1)
	b.SetFlags(DisableWorldGravity)
	b.SetGravity(mgl64.Vec3{0, -10, 0})

	b.ApplyGravity()
	if b.TotalForce().Len() != 0 {
		t.Errorf("gravity applied despite flag: %v", b.TotalForce())
	}
}

func TestDeactivationStateMachine(t *testing.T) {
	b := newDynamicBody(1)
	b.SetSleepingThresholds(0.5, 0.5)
	b.SetLinearVelocity(mgl64.Vec3{0.1, 0, 0})

	// below threshold: the timer accumulates until the body wants out
	steps := int(DeactivationTime/0.1) + 2
	for i := 0; i < steps; i++ {
		b.UpdateDeactivation(0.1)
	}
	if b.ActivationState() != StateWantsDeactivation {
		t.Fatalf("expected StateWantsDeactivation, got %v", b.ActivationState())
	}
	if !b.WantsSleeping() {
		t.Error("expected WantsSleeping after the timer ran out")
	}

	// fast motion resets the machine
	b.SetLinearVelocity(mgl64.Vec3{5, 0, 0})
	b.UpdateDeactivation(0.1)
	if b.ActivationState() != StateActive {
		t.Errorf("expected StateActive after motion, got %v", b.ActivationState())
	}
	if b.DeactivationTimer() != 0 {
		t.Errorf("expected timer reset, got %f", b.DeactivationTimer())
	}
}

func TestActivateWakesSleepingBody(t *testing.T) {
	b := newDynamicBody(1)
	b.ForceActivationState(StateSleeping)

	if b.IsActive() {
		t.Fatal("sleeping body reported active")
	}
	b.Activate()
	if !b.IsActive() || b.ActivationState() != StateActive {
		t.Error("Activate did not wake the body")
	}
}

func TestAlwaysActivePinned(t *testing.T) {
	b := newDynamicBody(1)
	b.ForceActivationState(StateAlwaysActive)

	b.SetActivationState(StateSleeping)
	if b.ActivationState() != StateAlwaysActive {
		t.Error("SetActivationState overrode StateAlwaysActive")
	}
	if b.WantsSleeping() {
		t.Error("always-active body wants sleep")
	}
	b.UpdateDeactivation(100)
	if b.DeactivationTimer() != 0 {
		t.Error("always-active body accumulated deactivation time")
	}
}

func TestUpdateInertiaTensorFollowsOrientation(t *testing.T) {
	cfg := DefaultRigidBodyConfig(1, nil, NewBox(mgl64.Vec3{1, 0.1, 0.1}))
	b := NewRigidBody(cfg)

	before := b.InvInertiaTensorWorld()

	tr := b.CenterOfMassTransform()
	tr.Basis = mgl64.Rotate3DZ(math.Pi / 2)
	b.SetCenterOfMassTransform(tr)

	after := b.InvInertiaTensorWorld()
	// a quarter turn about z swaps the x and y axes of a long thin box
	if math.Abs(after.At(0, 0)-before.At(1, 1)) > 1e-9 ||
		math.Abs(after.At(1, 1)-before.At(0, 0)) > 1e-9 {
		t.Errorf("world inertia did not follow the rotation:\nbefore %v\nafter %v", before, after)
	}
}

func TestVelocityInLocalPoint(t *testing.T) {
	b := newDynamicBody(1)
	b.SetLinearVelocity(mgl64.Vec3{1, 0, 0})
	b.SetAngularVelocity(mgl64.Vec3{0, 0, 2})

	// v + w x r = (1,0,0) + (0,0,2) x (0,1,0) = (1,0,0) + (-2,0,0)
	got := b.VelocityInLocalPoint(mgl64.Vec3{0, 1, 0})
	want := mgl64.Vec3{-1, 0, 0}
	if !got.ApproxEqualThreshold(want, 1e-12) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestGyroscopicForceExplicitClamped(t *testing.T) {
	cfg := DefaultRigidBodyConfig(10, nil, NewBox(mgl64.Vec3{2, 0.1, 0.1}))
	b := NewRigidBody(cfg)
	b.SetAngularVelocity(mgl64.Vec3{50, 50, 0})

	gf := b.ComputeGyroscopicForceExplicit(1.0)
	if gf.Len() > 1.0+1e-9 {
		t.Errorf("gyroscopic torque %f exceeds the clamp", gf.Len())
	}
}

func TestGyroscopicImplicitPreservesSymmetricSpin(t *testing.T) {
	// for a spherical inertia w x Iw vanishes, so the implicit update must
	// not change the spin
	b := newDynamicBody(1)
	b.SetAngularVelocity(mgl64.Vec3{1, 2, 3})

	if d := b.ComputeGyroscopicImpulseImplicitBody(0.01); d.Len() > 1e-9 {
		t.Errorf("body-frame update changed symmetric spin by %v", d)
	}
	if d := b.ComputeGyroscopicImpulseImplicitWorld(0.01); d.Len() > 1e-9 {
		t.Errorf("world-frame update changed symmetric spin by %v", d)
	}
}
