package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SolverParams tune the iterative impulse solver.
type SolverParams struct {
	// Iterations bounds the work per solve group regardless of
	// convergence.
	Iterations int
	// ERP is the default error reduction for equality rows.
	ERP float64
	// Damping scales the velocity feedback term.
	Damping float64
	// WarmStarting seeds each row with a fraction of the impulse it
	// accumulated in the previous tick.
	WarmStarting bool
	// WarmStartFactor is that fraction.
	WarmStartFactor float64
}

func DefaultSolverParams() SolverParams {
	return SolverParams{
		Iterations:      10,
		ERP:             0.2,
		Damping:         1,
		WarmStarting:    true,
		WarmStartFactor: 0.85,
	}
}

// ExternalRows injects rows assembled outside the constraint protocol
// (contact manifolds) into a solve group.
type ExternalRows struct {
	BodyA *RigidBody
	BodyB *RigidBody
	Rows  []Row
}

type solverRow struct {
	Row
	bodyA, bodyB   *RigidBody
	damping        float64
	jacDiagInv     float64
	appliedImpulse float64
}

// SequentialImpulseSolver performs projected Gauss-Seidel over the rows
// of a solve group: for a fixed number of iterations it applies clamped
// corrective impulses row by row, mutating the referenced bodies'
// velocities directly.
//
// The solver carries a warm-start cache between ticks; Reset drops it so
// independent solve groups cannot leak impulses into each other.
type SequentialImpulseSolver struct {
	params SolverParams
	cache  map[Constraint][]float64

	rows []solverRow
}

func NewSequentialImpulseSolver(params SolverParams) *SequentialImpulseSolver {
	if params.Iterations <= 0 {
		params.Iterations = 1
	}
	return &SequentialImpulseSolver{
		params: params,
		cache:  make(map[Constraint][]float64),
	}
}

// Reset drops all warm-start state. Steady-state behavior is unchanged;
// convergence just starts cold on the next group.
func (s *SequentialImpulseSolver) Reset() {
	s.cache = make(map[Constraint][]float64)
}

// SolveGroup assembles rows from every enabled constraint via the
// two-call protocol, appends the externally supplied contact rows, and
// iterates impulse corrections.
func (s *SequentialImpulseSolver) SolveGroup(constraints []Constraint, contacts []ExternalRows, dt float64) error {
	if dt <= 0 {
		return ErrInvalidTimestep
	}
	fps := 1 / dt

	s.rows = s.rows[:0]
	type span struct {
		c     Constraint
		start int
		n     int
	}
	spans := make([]span, 0, len(constraints))

	for _, c := range constraints {
		if !c.Enabled() {
			continue
		}
		info := c.CountRows()
		if info.Rows == 0 {
			continue
		}
		batch := NewRowBatch(info.Rows, fps, s.params.ERP)
		c.BuildRows(batch)
		assert(len(batch.Rows) == info.Rows, "constraint wrote a different row count than it declared")

		start := len(s.rows)
		for i := range batch.Rows {
			r := batch.Rows[i]
			assert(!isZeroRow(r), "constraint declared a row it did not write")
			s.rows = append(s.rows, solverRow{
				Row:     r,
				bodyA:   c.BodyA(),
				bodyB:   c.BodyB(),
				damping: batch.Damping * s.params.Damping,
			})
		}
		spans = append(spans, span{c: c, start: start, n: info.Rows})
	}
	nConstraintRows := len(s.rows)
	for _, ext := range contacts {
		for i := range ext.Rows {
			s.rows = append(s.rows, solverRow{
				Row:     ext.Rows[i],
				bodyA:   ext.BodyA,
				bodyB:   ext.BodyB,
				damping: s.params.Damping,
			})
		}
	}

	// effective inverse mass per row. Constraint rows go through the
	// jacobian entry, whose assert makes a degenerate row fatal; external
	// contact rows may legitimately pin two immovable bodies and are
	// skipped instead.
	for i := range s.rows {
		r := &s.rows[i]
		if i < nConstraintRows {
			jac := NewJacobianEntryFromRow(r.LinearA, r.AngularA, r.AngularB,
				r.bodyA.CenterOfMassTransform().Basis.Transpose(),
				r.bodyB.CenterOfMassTransform().Basis.Transpose(),
				r.bodyA.InvInertiaDiagLocal(), r.bodyA.InvMass(),
				r.bodyB.InvInertiaDiagLocal(), r.bodyB.InvMass())
			r.jacDiagInv = 1 / (jac.Diagonal() + r.CFM)
			continue
		}
		d := r.LinearA.Dot(r.LinearA)*r.bodyA.InvMass() +
			r.AngularA.Dot(r.bodyA.InvInertiaTensorWorld().Mul3x1(r.AngularA)) +
			r.LinearB.Dot(r.LinearB)*r.bodyB.InvMass() +
			r.AngularB.Dot(r.bodyB.InvInertiaTensorWorld().Mul3x1(r.AngularB))
		if d < mgl64.Epsilon {
			r.jacDiagInv = 0
			continue
		}
		r.jacDiagInv = 1 / (d + r.CFM)
	}

	if s.params.WarmStarting {
		for _, sp := range spans {
			prev, ok := s.cache[sp.c]
			if !ok || len(prev) != sp.n {
				continue
			}
			for i := 0; i < sp.n; i++ {
				r := &s.rows[sp.start+i]
				j := prev[i] * s.params.WarmStartFactor
				j = mgl64.Clamp(j, r.LowerLimit, r.UpperLimit)
				r.appliedImpulse = j
				applyRowImpulse(r, j)
			}
		}
	}

	for it := 0; it < s.params.Iterations; it++ {
		for i := range s.rows {
			r := &s.rows[i]
			if r.jacDiagInv == 0 {
				continue
			}
			relVel := r.LinearA.Dot(r.bodyA.LinearVelocity()) +
				r.AngularA.Dot(r.bodyA.AngularVelocity()) +
				r.LinearB.Dot(r.bodyB.LinearVelocity()) +
				r.AngularB.Dot(r.bodyB.AngularVelocity())
			delta := (r.RHS - r.damping*relVel - r.CFM*r.appliedImpulse) * r.jacDiagInv
			applied := mgl64.Clamp(r.appliedImpulse+delta, r.LowerLimit, r.UpperLimit)
			delta = applied - r.appliedImpulse
			r.appliedImpulse = applied
			applyRowImpulse(r, delta)
		}
	}

	for _, sp := range spans {
		impulses := make([]float64, sp.n)
		total := 0.0
		for i := 0; i < sp.n; i++ {
			impulses[i] = s.rows[sp.start+i].appliedImpulse
			total += math.Abs(impulses[i])
		}
		sp.c.setAppliedImpulse(total)
		if sink, ok := sp.c.(interface{ noteRowImpulses([]float64) }); ok {
			sink.noteRowImpulses(impulses)
		}
		s.cache[sp.c] = impulses
	}
	return nil
}

// Forget drops one constraint's warm-start state, for use when it is
// removed from the world.
func (s *SequentialImpulseSolver) Forget(c Constraint) {
	delete(s.cache, c)
}

func applyRowImpulse(r *solverRow, j float64) {
	if j == 0 {
		return
	}
	a := r.bodyA
	if !a.IsStaticObject() {
		a.SetLinearVelocity(a.LinearVelocity().Add(r.LinearA.Mul(j * a.InvMass())))
		a.SetAngularVelocity(a.AngularVelocity().Add(a.InvInertiaTensorWorld().Mul3x1(r.AngularA).Mul(j)))
	}
	b := r.bodyB
	if !b.IsStaticObject() {
		b.SetLinearVelocity(b.LinearVelocity().Add(r.LinearB.Mul(j * b.InvMass())))
		b.SetAngularVelocity(b.AngularVelocity().Add(b.InvInertiaTensorWorld().Mul3x1(r.AngularB).Mul(j)))
	}
}

func isZeroRow(r Row) bool {
	return r.LinearA == (mgl64.Vec3{}) && r.AngularA == (mgl64.Vec3{}) &&
		r.LinearB == (mgl64.Vec3{}) && r.AngularB == (mgl64.Vec3{})
}
