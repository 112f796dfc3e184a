package scenario

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/dynamics"
)

func newWorldFromConfig(cfg *config.Config) *dynamics.World {
	w := dynamics.NewWorld(dynamics.NewSequentialImpulseSolver(cfg.SolverParams()))
	w.SetGravity(mgl64.Vec3{cfg.Gravity.X, cfg.Gravity.Y, cfg.Gravity.Z})
	return w
}

func translation(p mgl64.Vec3) dynamics.Transform {
	t := dynamics.IdentityTransform()
	t.Origin = p
	return t
}

// PendulumChain hangs a chain of point masses from a fixed anchor with
// ball joints. The tilt angle swings the whole chain away from vertical,
// and the seed adds a small per-link perturbation so ensemble runs
// decorrelate.
type PendulumChain struct{}

func NewPendulumChain() *PendulumChain { return &PendulumChain{} }

func (s *PendulumChain) Name() string { return "pendulum_chain" }

func (s *PendulumChain) Description() string {
	return "chain of ball-jointed masses swinging from a fixed anchor"
}

func (s *PendulumChain) Build(cfg *config.Config) (*dynamics.World, error) {
	w := newWorldFromConfig(cfg)

	links := cfg.Scene.Links
	if links <= 0 {
		links = config.DefaultLinks
	}
	length := cfg.Scene.LinkLength
	if length <= 0 {
		length = config.DefaultLinkLength
	}
	mass := cfg.Scene.Mass
	if mass <= 0 {
		mass = config.DefaultMass
	}

	anchor := dynamics.NewFixedBody(dynamics.IdentityTransform())
	w.AddBody(anchor)

	rng := rand.New(rand.NewSource(cfg.Seed))

	prev := anchor
	pos := mgl64.Vec3{}
	for i := 0; i < links; i++ {
		tilt := cfg.Scene.Tilt + 0.01*rng.Float64()
		dir := mgl64.Vec3{math.Sin(tilt), -math.Cos(tilt), 0}

		jointWorld := pos
		pos = pos.Add(dir.Mul(length))

		ms := dynamics.NewDefaultMotionState(translation(pos))
		link := dynamics.NewRigidBody(dynamics.DefaultRigidBodyConfig(mass, ms, dynamics.NewSphere(0.2*length)))
		w.AddBody(link)

		pivotInA := jointWorld.Sub(prev.CenterOfMassPosition())
		pivotInB := jointWorld.Sub(pos)
		w.AddConstraint(dynamics.NewPoint2PointConstraint(prev, link, pivotInA, pivotInB))

		prev = link
	}

	return w, nil
}

// HingeDoor mounts a box on a vertical hinge. The tilt field doubles as
// the door's initial angular speed about the hinge axis; motor and limit
// settings come straight from the scene config.
type HingeDoor struct{}

func NewHingeDoor() *HingeDoor { return &HingeDoor{} }

func (s *HingeDoor) Name() string { return "hinge_door" }

func (s *HingeDoor) Description() string {
	return "box door on a vertical hinge with optional motor and stops"
}

func (s *HingeDoor) Build(cfg *config.Config) (*dynamics.World, error) {
	w := newWorldFromConfig(cfg)

	mass := cfg.Scene.Mass
	if mass <= 0 {
		mass = config.DefaultMass
	}
	halfWidth := cfg.Scene.LinkLength
	if halfWidth <= 0 {
		halfWidth = config.DefaultLinkLength
	}

	frame := dynamics.NewFixedBody(dynamics.IdentityTransform())
	w.AddBody(frame)

	ms := dynamics.NewDefaultMotionState(translation(mgl64.Vec3{halfWidth, 0, 0}))
	shape := dynamics.NewBox(mgl64.Vec3{halfWidth, 1.0, 0.05})
	door := dynamics.NewRigidBody(dynamics.DefaultRigidBodyConfig(mass, ms, shape))
	door.SetAngularVelocity(mgl64.Vec3{0, cfg.Scene.Tilt, 0})
	w.AddBody(door)

	axis := mgl64.Vec3{0, 1, 0}
	hinge := dynamics.NewHingeConstraint(door, frame,
		mgl64.Vec3{-halfWidth, 0, 0}, mgl64.Vec3{}, axis, axis)

	if cfg.Scene.LimitLow <= cfg.Scene.LimitHigh {
		hinge.SetLimit(cfg.Scene.LimitLow, cfg.Scene.LimitHigh)
	}
	if cfg.Scene.MotorImpulse > 0 {
		hinge.EnableAngularMotor(true, cfg.Scene.MotorVelocity, cfg.Scene.MotorImpulse)
	}
	w.AddConstraint(hinge)

	return w, nil
}

// SixDofCrate suspends a crate from a fixed anchor on a six degree of
// freedom joint. Travel opens a vertical sliding range below the anchor,
// softness loosens the translational stops, and the limit fields bound
// rotation on all three axes.
type SixDofCrate struct{}

func NewSixDofCrate() *SixDofCrate { return &SixDofCrate{} }

func (s *SixDofCrate) Name() string { return "sixdof_crate" }

func (s *SixDofCrate) Description() string {
	return "crate on a configurable six degree of freedom suspension"
}

func (s *SixDofCrate) Build(cfg *config.Config) (*dynamics.World, error) {
	w := newWorldFromConfig(cfg)

	mass := cfg.Scene.Mass
	if mass <= 0 {
		mass = config.DefaultMass
	}
	half := cfg.Scene.LinkLength
	if half <= 0 {
		half = 0.5
	}

	anchor := dynamics.NewFixedBody(dynamics.IdentityTransform())
	w.AddBody(anchor)

	ms := dynamics.NewDefaultMotionState(dynamics.IdentityTransform())
	shape := dynamics.NewBox(mgl64.Vec3{half, half, half})
	crate := dynamics.NewRigidBody(dynamics.DefaultRigidBodyConfig(mass, ms, shape))
	w.AddBody(crate)

	joint := dynamics.NewGeneric6DofConstraint(anchor, crate,
		dynamics.IdentityTransform(), dynamics.IdentityTransform(), true)

	joint.SetLinearLowerLimit(mgl64.Vec3{0, -cfg.Scene.Travel, 0})
	joint.SetLinearUpperLimit(mgl64.Vec3{})
	if cfg.Scene.Softness > 0 {
		joint.TranslationalLimitMotor().LimitSoftness = cfg.Scene.Softness
	}

	lo, hi := cfg.Scene.LimitLow, cfg.Scene.LimitHigh
	joint.SetAngularLowerLimit(mgl64.Vec3{lo, lo, lo})
	joint.SetAngularUpperLimit(mgl64.Vec3{hi, hi, hi})

	w.AddConstraint(joint)

	return w, nil
}
