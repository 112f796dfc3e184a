package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ActivationState is the liveness state of a body.
type ActivationState int

const (
	// StateActive bodies take part in integration and solving.
	StateActive ActivationState = iota + 1
	// StateSleeping bodies are skipped until something wakes them.
	StateSleeping
	// StateWantsDeactivation bodies have been slow for longer than
	// DeactivationTime and may be put to sleep by the world.
	StateWantsDeactivation
	// StateAlwaysActive bodies never deactivate.
	StateAlwaysActive
	// StateDisabled bodies are excluded from simulation entirely.
	StateDisabled
)

// BodyFlags toggle optional per-body behavior.
type BodyFlags int

const (
	// DisableWorldGravity exempts the body from world gravity; explicitly
	// set per-body gravity still applies.
	DisableWorldGravity BodyFlags = 1 << iota
	// EnableGyroscopicForceExplicit adds an explicit gyroscopic torque
	// each tick, clamped to MaxGyroscopicForce.
	EnableGyroscopicForceExplicit
	// EnableGyroscopicForceImplicitWorld solves the gyroscopic term
	// implicitly in world frame.
	EnableGyroscopicForceImplicitWorld
	// EnableGyroscopicForceImplicitBody solves the gyroscopic term
	// implicitly in body frame.
	EnableGyroscopicForceImplicitBody
)

// DeactivationTime is how long a body must stay below its sleeping
// thresholds before it reports WantsSleeping.
var DeactivationTime = 2.0

// MaxGyroscopicForce clamps the explicit gyroscopic torque magnitude.
const MaxGyroscopicForce = 100.0

const (
	defaultLinearSleepingThreshold  = 0.8
	defaultAngularSleepingThreshold = 1.0

	// additional damping: legacy velocity bleed for bodies hovering
	// around their sleeping thresholds
	additionalDampingFactor          = 0.005
	additionalLinearDampingSqr       = 0.01
	additionalAngularDampingSqr      = 0.01
)

// RigidBodyConfig describes a body to construct. Mass 0 builds a static
// (infinite-mass) body. When MotionState is set the starting transform is
// read from it, otherwise StartTransform is used.
type RigidBodyConfig struct {
	Mass              float64
	MotionState       MotionState
	StartTransform    Transform
	Shape             Shape
	LocalInertia      mgl64.Vec3
	LinearDamping     float64
	AngularDamping    float64
	Friction          float64
	Restitution       float64
	AdditionalDamping bool
}

// DefaultRigidBodyConfig returns a config for a dynamic body of the given
// mass with inertia computed from the shape.
func DefaultRigidBodyConfig(mass float64, ms MotionState, shape Shape) RigidBodyConfig {
	var inertia mgl64.Vec3
	if mass != 0 && shape != nil {
		inertia = shape.CalculateLocalInertia(mass)
	}
	return RigidBodyConfig{
		Mass:           mass,
		MotionState:    ms,
		StartTransform: IdentityTransform(),
		Shape:          shape,
		LocalInertia:   inertia,
		Friction:       0.5,
	}
}

// RigidBody is a single rigid body: mass properties, transform, velocity,
// accumulated force and torque, and the deactivation state machine. A body
// with inverse mass zero is static and is never mutated by integration,
// force application or impulse application.
type RigidBody struct {
	worldTransform       Transform
	linearVelocity       mgl64.Vec3
	angularVelocity      mgl64.Vec3
	inverseMass          float64
	invInertiaLocal      mgl64.Vec3
	invInertiaTensorWorld mgl64.Mat3

	totalForce  mgl64.Vec3
	totalTorque mgl64.Vec3
	gravity     mgl64.Vec3 // mass-scaled
	gravityAcceleration mgl64.Vec3

	linearDamping  float64
	angularDamping float64
	friction       float64
	restitution    float64

	additionalDamping bool

	linearSleepingThreshold  float64
	angularSleepingThreshold float64
	deactivationTime         float64
	activationState          ActivationState

	flags       BodyFlags
	motionState MotionState
	shape       Shape
}

// NewRigidBody constructs a body from a config.
func NewRigidBody(cfg RigidBodyConfig) *RigidBody {
	b := &RigidBody{
		worldTransform:           cfg.StartTransform,
		friction:                 cfg.Friction,
		restitution:              cfg.Restitution,
		additionalDamping:        cfg.AdditionalDamping,
		linearSleepingThreshold:  defaultLinearSleepingThreshold,
		angularSleepingThreshold: defaultAngularSleepingThreshold,
		activationState:          StateActive,
		motionState:              cfg.MotionState,
		shape:                    cfg.Shape,
		invInertiaTensorWorld:    mgl64.Ident3(),
	}
	if cfg.MotionState != nil {
		cfg.MotionState.GetWorldTransform(&b.worldTransform)
	}
	b.SetDamping(cfg.LinearDamping, cfg.AngularDamping)
	b.SetMassProps(cfg.Mass, cfg.LocalInertia)
	b.UpdateInertiaTensor()
	return b
}

// NewFixedBody returns a caller-owned immovable body anchored at t, for
// use as the second endpoint of single-body constraints.
func NewFixedBody(t Transform) *RigidBody {
	b := NewRigidBody(RigidBodyConfig{StartTransform: t})
	b.ForceActivationState(StateAlwaysActive)
	return b
}

// IsStaticObject reports whether the body has infinite mass.
func (b *RigidBody) IsStaticObject() bool { return b.inverseMass == 0 }

func (b *RigidBody) InvMass() float64                      { return b.inverseMass }
func (b *RigidBody) Mass() float64 {
	if b.inverseMass == 0 {
		return 0
	}
	return 1 / b.inverseMass
}
func (b *RigidBody) InvInertiaDiagLocal() mgl64.Vec3       { return b.invInertiaLocal }
func (b *RigidBody) InvInertiaTensorWorld() mgl64.Mat3     { return b.invInertiaTensorWorld }
func (b *RigidBody) LinearVelocity() mgl64.Vec3            { return b.linearVelocity }
func (b *RigidBody) AngularVelocity() mgl64.Vec3           { return b.angularVelocity }
func (b *RigidBody) TotalForce() mgl64.Vec3                { return b.totalForce }
func (b *RigidBody) TotalTorque() mgl64.Vec3               { return b.totalTorque }
func (b *RigidBody) Friction() float64                     { return b.friction }
func (b *RigidBody) Restitution() float64                  { return b.restitution }
func (b *RigidBody) LinearDamping() float64                { return b.linearDamping }
func (b *RigidBody) AngularDamping() float64               { return b.angularDamping }
func (b *RigidBody) CenterOfMassTransform() Transform      { return b.worldTransform }
func (b *RigidBody) CenterOfMassPosition() mgl64.Vec3      { return b.worldTransform.Origin }
func (b *RigidBody) MotionState() MotionState              { return b.motionState }
func (b *RigidBody) Shape() Shape                          { return b.shape }
func (b *RigidBody) Flags() BodyFlags                      { return b.flags }
func (b *RigidBody) SetFlags(f BodyFlags)                  { b.flags = f }

func (b *RigidBody) SetLinearVelocity(v mgl64.Vec3) {
	if b.IsStaticObject() {
		return
	}
	b.linearVelocity = v
}

func (b *RigidBody) SetAngularVelocity(w mgl64.Vec3) {
	if b.IsStaticObject() {
		return
	}
	b.angularVelocity = w
}

// SetCenterOfMassTransform replaces the body transform and refreshes the
// world-space inertia tensor.
func (b *RigidBody) SetCenterOfMassTransform(t Transform) {
	b.worldTransform = t
	b.UpdateInertiaTensor()
}

// SetMassProps recomputes inverse mass and inverse inertia. Mass 0 makes
// the body static.
func (b *RigidBody) SetMassProps(mass float64, inertia mgl64.Vec3) {
	if mass == 0 {
		b.inverseMass = 0
	} else {
		b.inverseMass = 1 / mass
	}
	// keep mass-scaled gravity in sync with the new mass
	b.gravity = b.gravityAcceleration.Mul(mass)
	for i := 0; i < 3; i++ {
		if inertia[i] != 0 {
			b.invInertiaLocal[i] = 1 / inertia[i]
		} else {
			b.invInertiaLocal[i] = 0
		}
	}
	b.UpdateInertiaTensor()
}

// UpdateInertiaTensor recomputes the world-frame inverse inertia tensor
// from the body-local diagonal and the current orientation.
func (b *RigidBody) UpdateInertiaTensor() {
	basis := b.worldTransform.Basis
	b.invInertiaTensorWorld = basis.Mul3(mgl64.Diag3(b.invInertiaLocal)).Mul3(basis.Transpose())
}

// SetGravity sets the per-body gravitational acceleration, stored
// mass-scaled so ApplyGravity is a plain force accumulation.
func (b *RigidBody) SetGravity(acceleration mgl64.Vec3) {
	b.gravityAcceleration = acceleration
	if b.inverseMass != 0 {
		b.gravity = acceleration.Mul(1 / b.inverseMass)
	}
}

func (b *RigidBody) Gravity() mgl64.Vec3 { return b.gravityAcceleration }

// ApplyGravity accumulates the stored mass-scaled gravity force. No-op for
// static bodies and bodies flagged DisableWorldGravity.
func (b *RigidBody) ApplyGravity() {
	if b.IsStaticObject() || b.flags&DisableWorldGravity != 0 {
		return
	}
	b.ApplyCentralForce(b.gravity)
}

// ClearGravity removes the gravity contribution accumulated this tick.
func (b *RigidBody) ClearGravity() {
	if b.IsStaticObject() || b.flags&DisableWorldGravity != 0 {
		return
	}
	b.totalForce = b.totalForce.Sub(b.gravity)
}

// ApplyCentralForce accumulates a force acting through the center of mass.
func (b *RigidBody) ApplyCentralForce(force mgl64.Vec3) {
	if b.IsStaticObject() {
		return
	}
	b.totalForce = b.totalForce.Add(force)
}

// ApplyForce accumulates a force acting at relPos from the center of mass,
// producing torque as well.
func (b *RigidBody) ApplyForce(force, relPos mgl64.Vec3) {
	if b.IsStaticObject() {
		return
	}
	b.ApplyCentralForce(force)
	b.ApplyTorque(relPos.Cross(force))
}

func (b *RigidBody) ApplyTorque(torque mgl64.Vec3) {
	if b.IsStaticObject() {
		return
	}
	b.totalTorque = b.totalTorque.Add(torque)
}

// ApplyCentralImpulse immediately changes linear velocity by impulse
// scaled by inverse mass.
func (b *RigidBody) ApplyCentralImpulse(impulse mgl64.Vec3) {
	if b.IsStaticObject() {
		return
	}
	b.linearVelocity = b.linearVelocity.Add(impulse.Mul(b.inverseMass))
}

func (b *RigidBody) ApplyTorqueImpulse(torque mgl64.Vec3) {
	if b.IsStaticObject() {
		return
	}
	b.angularVelocity = b.angularVelocity.Add(b.invInertiaTensorWorld.Mul3x1(torque))
}

// ApplyImpulse applies an impulse at relPos from the center of mass,
// affecting both linear and angular velocity.
func (b *RigidBody) ApplyImpulse(impulse, relPos mgl64.Vec3) {
	if b.IsStaticObject() {
		return
	}
	b.ApplyCentralImpulse(impulse)
	b.ApplyTorqueImpulse(relPos.Cross(impulse))
}

// ClearForces zeroes the accumulated force and torque buffers.
func (b *RigidBody) ClearForces() {
	b.totalForce = mgl64.Vec3{}
	b.totalTorque = mgl64.Vec3{}
}

// SetDamping clamps both coefficients to [0,1].
func (b *RigidBody) SetDamping(linear, angular float64) {
	b.linearDamping = mgl64.Clamp(linear, 0, 1)
	b.angularDamping = mgl64.Clamp(angular, 0, 1)
}

// ApplyDamping decays both velocities. The decay factor (1-d)^dt is in
// [0,1] for any damping in [0,1], so speed never increases here.
func (b *RigidBody) ApplyDamping(dt float64) {
	b.linearVelocity = b.linearVelocity.Mul(math.Pow(1-b.linearDamping, dt))
	b.angularVelocity = b.angularVelocity.Mul(math.Pow(1-b.angularDamping, dt))

	if b.additionalDamping {
		// bleed velocity from bodies hovering near rest
		if b.angularVelocity.Dot(b.angularVelocity) < additionalAngularDampingSqr &&
			b.linearVelocity.Dot(b.linearVelocity) < additionalLinearDampingSqr {
			b.linearVelocity = b.linearVelocity.Mul(1 - additionalDampingFactor)
			b.angularVelocity = b.angularVelocity.Mul(1 - additionalDampingFactor)
		}

		speed := b.linearVelocity.Len()
		if speed < b.linearDamping {
			const delta = 0.005
			if speed > delta {
				dir := b.linearVelocity.Mul(1 / speed)
				b.linearVelocity = b.linearVelocity.Sub(dir.Mul(delta))
			} else {
				b.linearVelocity = mgl64.Vec3{}
			}
		}
		angSpeed := b.angularVelocity.Len()
		if angSpeed < b.angularDamping {
			const delta = 0.005
			if angSpeed > delta {
				dir := b.angularVelocity.Mul(1 / angSpeed)
				b.angularVelocity = b.angularVelocity.Sub(dir.Mul(delta))
			} else {
				b.angularVelocity = mgl64.Vec3{}
			}
		}
	}
}

// IntegrateVelocities advances velocities by the accumulated force and
// torque over dt. No-op for static bodies. Angular velocity is clamped so
// a single step never rotates past a half turn.
func (b *RigidBody) IntegrateVelocities(dt float64) {
	if b.IsStaticObject() {
		return
	}
	b.linearVelocity = b.linearVelocity.Add(b.totalForce.Mul(b.inverseMass * dt))
	b.angularVelocity = b.angularVelocity.Add(b.invInertiaTensorWorld.Mul3x1(b.totalTorque).Mul(dt))

	angSpeed := b.angularVelocity.Len()
	if angSpeed*dt > maxAngularStep {
		b.angularVelocity = b.angularVelocity.Mul(maxAngularStep / dt / angSpeed)
	}
}

// PredictIntegratedTransform computes the transform the body would reach
// after dt at its current velocity, without mutating stored state.
func (b *RigidBody) PredictIntegratedTransform(dt float64, out *Transform) {
	*out = IntegrateTransform(b.worldTransform, b.linearVelocity, b.angularVelocity, dt)
}

// ProceedToTransform moves the body to the given transform, as computed by
// PredictIntegratedTransform at the end of a tick.
func (b *RigidBody) ProceedToTransform(t Transform) {
	b.SetCenterOfMassTransform(t)
}

// VelocityInLocalPoint returns the world-space velocity of a point rigidly
// attached at relPos from the center of mass.
func (b *RigidBody) VelocityInLocalPoint(relPos mgl64.Vec3) mgl64.Vec3 {
	return b.linearVelocity.Add(b.angularVelocity.Cross(relPos))
}

// SetSleepingThresholds sets the linear and angular speeds below which the
// body accumulates deactivation time.
func (b *RigidBody) SetSleepingThresholds(linear, angular float64) {
	b.linearSleepingThreshold = linear
	b.angularSleepingThreshold = angular
}

// ActivationState returns the current liveness state.
func (b *RigidBody) ActivationState() ActivationState { return b.activationState }

// SetActivationState changes the liveness state unless the body is pinned
// to StateAlwaysActive or StateDisabled.
func (b *RigidBody) SetActivationState(s ActivationState) {
	if b.activationState == StateAlwaysActive || b.activationState == StateDisabled {
		return
	}
	b.activationState = s
}

// ForceActivationState sets the state unconditionally.
func (b *RigidBody) ForceActivationState(s ActivationState) {
	b.activationState = s
}

// Activate wakes the body and resets its deactivation timer.
func (b *RigidBody) Activate() {
	b.SetActivationState(StateActive)
	b.deactivationTime = 0
}

func (b *RigidBody) IsActive() bool {
	return b.activationState != StateSleeping && b.activationState != StateDisabled
}

func (b *RigidBody) DeactivationTimer() float64 { return b.deactivationTime }

// UpdateDeactivation accumulates time spent below the sleeping thresholds
// and resets to active on any motion above them.
func (b *RigidBody) UpdateDeactivation(dt float64) {
	if b.activationState == StateSleeping || b.activationState == StateAlwaysActive || b.activationState == StateDisabled {
		return
	}
	linTh := b.linearSleepingThreshold
	angTh := b.angularSleepingThreshold
	if b.linearVelocity.Dot(b.linearVelocity) < linTh*linTh &&
		b.angularVelocity.Dot(b.angularVelocity) < angTh*angTh {
		b.deactivationTime += dt
		if b.deactivationTime > DeactivationTime {
			b.SetActivationState(StateWantsDeactivation)
		}
	} else {
		b.deactivationTime = 0
		b.SetActivationState(StateActive)
	}
}

// WantsSleeping reports whether the body has been slow for long enough to
// be put to sleep.
func (b *RigidBody) WantsSleeping() bool {
	switch b.activationState {
	case StateAlwaysActive:
		return false
	case StateSleeping, StateWantsDeactivation, StateDisabled:
		return true
	}
	return b.deactivationTime > DeactivationTime
}

// ComputeGyroscopicForceExplicit returns the gyroscopic torque w x Iw for
// the current spin, clamped to maxForce in magnitude.
func (b *RigidBody) ComputeGyroscopicForceExplicit(maxForce float64) mgl64.Vec3 {
	basis := b.worldTransform.Basis
	inertiaWorld := basis.Mul3(mgl64.Diag3(b.localInertiaDiag())).Mul3(basis.Transpose())
	gf := b.angularVelocity.Cross(inertiaWorld.Mul3x1(b.angularVelocity))
	l2 := gf.Dot(gf)
	if l2 > maxForce*maxForce {
		gf = gf.Mul(maxForce / math.Sqrt(l2))
	}
	return gf
}

// ComputeGyroscopicImpulseImplicitBody solves the gyroscopic update in the
// body frame with one Newton step and returns the angular velocity delta.
func (b *RigidBody) ComputeGyroscopicImpulseImplicitBody(dt float64) mgl64.Vec3 {
	idl := b.localInertiaDiag()
	omega1 := b.angularVelocity
	q := b.worldTransform.Rotation()

	omegaBody := q.Inverse().Rotate(omega1)
	ib := mgl64.Diag3(idl)
	ibo := ib.Mul3x1(omegaBody)

	// residual of the implicit Euler equation
	f := omegaBody.Cross(ibo).Mul(dt)
	jac := ib.Add(skewMat(omegaBody).Mul3(ib).Sub(skewMat(ibo)).Mul(dt))
	omegaBody = omegaBody.Sub(jac.Inv().Mul3x1(f))

	omega2 := q.Rotate(omegaBody)
	return omega2.Sub(omega1)
}

// ComputeGyroscopicImpulseImplicitWorld solves the gyroscopic update in
// the world frame with one Newton step and returns the angular velocity
// delta.
func (b *RigidBody) ComputeGyroscopicImpulseImplicitWorld(dt float64) mgl64.Vec3 {
	basis := b.worldTransform.Basis
	inertiaWorld := basis.Mul3(mgl64.Diag3(b.localInertiaDiag())).Mul3(basis.Transpose())
	w0 := b.angularVelocity

	w1 := w0
	// f(w') = I w' + w' x I w' dt - I w0; one Newton step
	fw := inertiaWorld.Mul3x1(w1).Add(w1.Cross(inertiaWorld.Mul3x1(w1)).Mul(dt)).Sub(inertiaWorld.Mul3x1(w0))
	dfw := inertiaWorld.Add(skewMat(w1).Mul3(inertiaWorld).Sub(skewMat(inertiaWorld.Mul3x1(w1))).Mul(dt))
	w1 = w1.Sub(dfw.Inv().Mul3x1(fw))
	return w1.Sub(w0)
}

func (b *RigidBody) localInertiaDiag() mgl64.Vec3 {
	var inertia mgl64.Vec3
	for i := 0; i < 3; i++ {
		if b.invInertiaLocal[i] != 0 {
			inertia[i] = 1 / b.invInertiaLocal[i]
		}
	}
	return inertia
}

func skewMat(v mgl64.Vec3) mgl64.Mat3 {
	r0, r1, r2 := skewRows(v)
	return mgl64.Mat3FromRows(r0, r1, r2)
}
