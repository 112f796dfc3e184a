package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// World owns a set of bodies and constraints and drives them through the
// fixed per-tick sequence: clear forces, apply gravity, build and solve
// constraint rows, integrate velocities, apply damping, advance
// transforms, notify motion states, update deactivation.
type World struct {
	bodies      []*RigidBody
	constraints []Constraint
	solver      *SequentialImpulseSolver
	gravity     mgl64.Vec3

	contactRows []ExternalRows

	stepCount int
	time      float64
}

// NewWorld creates a world around the given solver with standard earth
// gravity.
func NewWorld(solver *SequentialImpulseSolver) *World {
	return &World{
		solver:  solver,
		gravity: mgl64.Vec3{0, -9.81, 0},
	}
}

func (w *World) Gravity() mgl64.Vec3 { return w.gravity }

// SetGravity updates the world gravity and every registered body that
// does not opt out of it.
func (w *World) SetGravity(g mgl64.Vec3) {
	w.gravity = g
	for _, b := range w.bodies {
		if b.Flags()&DisableWorldGravity == 0 {
			b.SetGravity(g)
		}
	}
}

// AddBody registers a body and applies world gravity to it.
func (w *World) AddBody(b *RigidBody) {
	if b.Flags()&DisableWorldGravity == 0 {
		b.SetGravity(w.gravity)
	}
	w.bodies = append(w.bodies, b)
}

// RemoveBody unregisters a body. The body itself stays caller-owned.
func (w *World) RemoveBody(b *RigidBody) error {
	for i, bb := range w.bodies {
		if bb == b {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			return nil
		}
	}
	return ErrBodyNotInWorld
}

// AddConstraint registers a constraint and wakes both endpoints.
func (w *World) AddConstraint(c Constraint) {
	w.constraints = append(w.constraints, c)
	c.BodyA().Activate()
	c.BodyB().Activate()
}

// RemoveConstraint unregisters a constraint and drops its warm-start
// state.
func (w *World) RemoveConstraint(c Constraint) error {
	for i, cc := range w.constraints {
		if cc == c {
			w.constraints = append(w.constraints[:i], w.constraints[i+1:]...)
			w.solver.Forget(c)
			return nil
		}
	}
	return ErrConstraintNotInWorld
}

func (w *World) Bodies() []*RigidBody      { return w.bodies }
func (w *World) Constraints() []Constraint { return w.constraints }
func (w *World) StepCount() int            { return w.stepCount }
func (w *World) Time() float64             { return w.time }

// InjectContactRows queues externally generated contact-manifold rows
// for the next step's solve group. The queue is drained every step.
func (w *World) InjectContactRows(rows ExternalRows) {
	w.contactRows = append(w.contactRows, rows)
}

// StepSimulation advances the world one tick of length dt.
func (w *World) StepSimulation(dt float64) error {
	if dt <= 0 {
		return ErrInvalidTimestep
	}

	// clear forces, then apply gravity and gyroscopic torque
	for _, b := range w.bodies {
		b.ClearForces()
	}
	for _, b := range w.bodies {
		if !b.IsActive() || b.IsStaticObject() {
			continue
		}
		b.ApplyGravity()
		if b.Flags()&EnableGyroscopicForceExplicit != 0 {
			gf := b.ComputeGyroscopicForceExplicit(MaxGyroscopicForce)
			b.ApplyTorque(gf.Mul(-1))
		}
	}

	// injected contact rows wake their dynamic endpoints; a joint must
	// never feed impulses into a frozen body, so any sleeping body that
	// shares an enabled joint with an awake dynamic one wakes too. The
	// pass repeats so wake-ups propagate along chains.
	for _, ext := range w.contactRows {
		if ext.BodyA != nil && !ext.BodyA.IsStaticObject() {
			ext.BodyA.Activate()
		}
		if ext.BodyB != nil && !ext.BodyB.IsStaticObject() {
			ext.BodyB.Activate()
		}
	}
	for woke := true; woke; {
		woke = false
		for _, c := range w.constraints {
			if !c.Enabled() {
				continue
			}
			a, bb := c.BodyA(), c.BodyB()
			if a.ActivationState() == StateSleeping && bb.IsActive() && !bb.IsStaticObject() {
				a.Activate()
				woke = true
			}
			if bb.ActivationState() == StateSleeping && a.IsActive() && !a.IsStaticObject() {
				bb.Activate()
				woke = true
			}
		}
	}

	// assemble and solve all active constraint rows plus injected
	// contact rows
	active := make([]Constraint, 0, len(w.constraints))
	for _, c := range w.constraints {
		if !c.Enabled() {
			continue
		}
		// a joint participates only while a dynamic endpoint is awake;
		// fixed anchors never deactivate and must not keep it alive
		a, bb := c.BodyA(), c.BodyB()
		if (a.IsActive() && !a.IsStaticObject()) || (bb.IsActive() && !bb.IsStaticObject()) {
			active = append(active, c)
		}
	}
	if err := w.solver.SolveGroup(active, w.contactRows, dt); err != nil {
		return &StepError{Step: w.stepCount, Time: w.time, Wrapped: err}
	}
	w.contactRows = w.contactRows[:0]

	// integrate, damp, advance transforms
	for _, b := range w.bodies {
		if !b.IsActive() || b.IsStaticObject() {
			continue
		}
		b.IntegrateVelocities(dt)
		if b.Flags()&EnableGyroscopicForceImplicitBody != 0 {
			b.SetAngularVelocity(b.AngularVelocity().Add(b.ComputeGyroscopicImpulseImplicitBody(dt)))
		} else if b.Flags()&EnableGyroscopicForceImplicitWorld != 0 {
			b.SetAngularVelocity(b.AngularVelocity().Add(b.ComputeGyroscopicImpulseImplicitWorld(dt)))
		}
		b.ApplyDamping(dt)

		var predicted Transform
		b.PredictIntegratedTransform(dt, &predicted)
		b.ProceedToTransform(predicted)

		if !validVec(b.LinearVelocity()) || !validVec(b.AngularVelocity()) || !validVec(predicted.Origin) {
			return &StepError{Step: w.stepCount, Time: w.time, Wrapped: ErrInvalidState}
		}
	}

	// mirror transforms out and run the deactivation state machine
	for _, b := range w.bodies {
		if b.IsStaticObject() {
			continue
		}
		if ms := b.MotionState(); ms != nil && b.IsActive() {
			ms.SetWorldTransform(b.CenterOfMassTransform())
		}
	}
	w.updateDeactivation(dt)

	w.stepCount++
	w.time += dt
	return nil
}

// updateDeactivation advances every dynamic body's deactivation timer and
// decides sleep island-wise: a body goes to sleep only when every dynamic
// body in its constraint-connected component wants to, so a joint never
// spans a sleeping body and an awake one.
func (w *World) updateDeactivation(dt float64) {
	idx := make(map[*RigidBody]int, len(w.bodies))
	parent := make([]int, 0, len(w.bodies))
	for _, b := range w.bodies {
		if b.IsStaticObject() {
			continue
		}
		b.UpdateDeactivation(dt)
		idx[b] = len(parent)
		parent = append(parent, len(parent))
	}

	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for _, c := range w.constraints {
		if !c.Enabled() {
			continue
		}
		ia, oka := idx[c.BodyA()]
		ib, okb := idx[c.BodyB()]
		if oka && okb {
			ra, rb := find(ia), find(ib)
			if ra != rb {
				parent[ra] = rb
			}
		}
	}

	ready := make(map[int]bool)
	for _, b := range w.bodies {
		if b.IsStaticObject() {
			continue
		}
		root := find(idx[b])
		r, seen := ready[root]
		if !seen {
			r = true
		}
		ready[root] = r && b.WantsSleeping()
	}
	for _, b := range w.bodies {
		if b.IsStaticObject() {
			continue
		}
		if ready[find(idx[b])] && b.ActivationState() == StateWantsDeactivation {
			b.SetActivationState(StateSleeping)
			b.SetLinearVelocity(mgl64.Vec3{})
			b.SetAngularVelocity(mgl64.Vec3{})
		}
	}
}

func validVec(v mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return false
		}
	}
	return true
}
