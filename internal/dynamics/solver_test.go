package dynamics

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// rowConstraint feeds hand-written rows through the two-call protocol.
type rowConstraint struct {
	jointBase
	declared int
	rows     []Row
}

func newRowConstraint(a, b *RigidBody, rows []Row) *rowConstraint {
	return &rowConstraint{
		jointBase: newJointBase(Point2PointConstraintType, a, b),
		declared:  len(rows),
		rows:      rows,
	}
}

func (c *rowConstraint) CountRows() RowInfo { return RowInfo{Rows: c.declared, Nub: 6 - c.declared} }

func (c *rowConstraint) BuildRows(batch *RowBatch) {
	copy(batch.Rows, c.rows)
}

func (c *rowConstraint) SetParam(p Param, value float64, axis int) {}
func (c *rowConstraint) GetParam(p Param, axis int) float64        { return 0 }

func velocityRow(rhs, lo, hi float64) Row {
	return Row{
		LinearA:    mgl64.Vec3{1, 0, 0},
		LinearB:    mgl64.Vec3{-1, 0, 0},
		RHS:        rhs,
		LowerLimit: lo,
		UpperLimit: hi,
	}
}

func TestSolveGroupInvalidTimestep(t *testing.T) {
	s := NewSequentialImpulseSolver(DefaultSolverParams())

	for _, dt := range []float64{0, -0.1} {
		if err := s.SolveGroup(nil, nil, dt); !errors.Is(err, ErrInvalidTimestep) {
			t.Errorf("dt %f: expected ErrInvalidTimestep, got %v", dt, err)
		}
	}
}

func TestSolveGroupReachesTargetVelocity(t *testing.T) {
	a := newDynamicBody(1)
	anchor := NewFixedBody(IdentityTransform())
	c := newRowConstraint(a, anchor, []Row{velocityRow(3, math.Inf(-1), math.Inf(1))})

	s := NewSequentialImpulseSolver(DefaultSolverParams())
	if err := s.SolveGroup([]Constraint{c}, nil, 1.0/60); err != nil {
		t.Fatalf("solve failed: %v", err)
	}

	if math.Abs(a.LinearVelocity().X()-3) > 1e-9 {
		t.Errorf("expected velocity 3 along the row, got %f", a.LinearVelocity().X())
	}
	if math.Abs(c.AppliedImpulse()-3) > 1e-9 {
		t.Errorf("expected applied impulse 3, got %f", c.AppliedImpulse())
	}
}

func TestSolveGroupRespectsImpulseBounds(t *testing.T) {
	a := newDynamicBody(1)
	anchor := NewFixedBody(IdentityTransform())
	c := newRowConstraint(a, anchor, []Row{velocityRow(100, 0, 0.5)})

	s := NewSequentialImpulseSolver(DefaultSolverParams())
	if err := s.SolveGroup([]Constraint{c}, nil, 1.0/60); err != nil {
		t.Fatalf("solve failed: %v", err)
	}

	// unit mass: the clamped impulse maps directly to velocity
	if math.Abs(a.LinearVelocity().X()-0.5) > 1e-9 {
		t.Errorf("expected clamped velocity 0.5, got %f", a.LinearVelocity().X())
	}
}

func TestSolveGroupOneSidedRowNeverPulls(t *testing.T) {
	a := newDynamicBody(1)
	anchor := NewFixedBody(IdentityTransform())
	// negative target but only non-negative impulses allowed
	c := newRowConstraint(a, anchor, []Row{velocityRow(-5, 0, math.Inf(1))})

	s := NewSequentialImpulseSolver(DefaultSolverParams())
	if err := s.SolveGroup([]Constraint{c}, nil, 1.0/60); err != nil {
		t.Fatalf("solve failed: %v", err)
	}

	if a.LinearVelocity().Len() > 1e-12 {
		t.Errorf("one-sided row applied a pulling impulse: %v", a.LinearVelocity())
	}
}

func TestSolveGroupRowCountMismatchPanics(t *testing.T) {
	a := newDynamicBody(1)
	anchor := NewFixedBody(IdentityTransform())
	c := newRowConstraint(a, anchor, []Row{velocityRow(1, math.Inf(-1), math.Inf(1))})
	c.declared = 2 // lies about its row count

	s := NewSequentialImpulseSolver(DefaultSolverParams())
	defer func() {
		if recover() == nil {
			t.Error("expected panic on undeclared empty row")
		}
	}()
	s.SolveGroup([]Constraint{c}, nil, 1.0/60)
}

func TestSolverWarmStartMatchesColdStart(t *testing.T) {
	run := func(prime bool) float64 {
		a := newDynamicBody(1)
		anchor := NewFixedBody(IdentityTransform())
		c := newRowConstraint(a, anchor, []Row{velocityRow(2, math.Inf(-1), math.Inf(1))})

		s := NewSequentialImpulseSolver(DefaultSolverParams())
		if prime {
			if err := s.SolveGroup([]Constraint{c}, nil, 1.0/60); err != nil {
				t.Fatalf("priming solve failed: %v", err)
			}
		}
		if err := s.SolveGroup([]Constraint{c}, nil, 1.0/60); err != nil {
			t.Fatalf("solve failed: %v", err)
		}
		return a.LinearVelocity().X()
	}

	cold := run(false)
	warm := run(true)
	if math.Abs(cold-warm) > 1e-6 {
		t.Errorf("warm start changed the converged velocity: %f vs %f", cold, warm)
	}
}

func TestSolverResetDropsCache(t *testing.T) {
	a := newDynamicBody(1)
	anchor := NewFixedBody(IdentityTransform())
	c := newRowConstraint(a, anchor, []Row{velocityRow(2, math.Inf(-1), math.Inf(1))})

	s := NewSequentialImpulseSolver(DefaultSolverParams())
	if err := s.SolveGroup([]Constraint{c}, nil, 1.0/60); err != nil {
		t.Fatalf("solve failed: %v", err)
	}

	s.Reset()
	a.SetLinearVelocity(mgl64.Vec3{})
	if err := s.SolveGroup([]Constraint{c}, nil, 1.0/60); err != nil {
		t.Fatalf("solve after reset failed: %v", err)
	}
	if math.Abs(a.LinearVelocity().X()-2) > 1e-9 {
		t.Errorf("expected cold solve to reach the target, got %f", a.LinearVelocity().X())
	}
}

func TestSolverForget(t *testing.T) {
	a := newDynamicBody(1)
	anchor := NewFixedBody(IdentityTransform())
	c := newRowConstraint(a, anchor, []Row{velocityRow(2, math.Inf(-1), math.Inf(1))})

	s := NewSequentialImpulseSolver(DefaultSolverParams())
	if err := s.SolveGroup([]Constraint{c}, nil, 1.0/60); err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	s.Forget(c)
	// removing twice is harmless
	s.Forget(c)
}

func TestSolveGroupExternalRows(t *testing.T) {
	a := newDynamicBody(1)
	anchor := NewFixedBody(IdentityTransform())

	ext := ExternalRows{
		BodyA: a,
		BodyB: anchor,
		Rows:  []Row{velocityRow(1.5, math.Inf(-1), math.Inf(1))},
	}

	s := NewSequentialImpulseSolver(DefaultSolverParams())
	if err := s.SolveGroup(nil, []ExternalRows{ext}, 1.0/60); err != nil {
		t.Fatalf("solve failed: %v", err)
	}

	if math.Abs(a.LinearVelocity().X()-1.5) > 1e-9 {
		t.Errorf("expected injected row to set velocity 1.5, got %f", a.LinearVelocity().X())
	}
}

func TestSolveGroupSkipsDisabledConstraint(t *testing.T) {
	a := newDynamicBody(1)
	anchor := NewFixedBody(IdentityTransform())
	c := newRowConstraint(a, anchor, []Row{velocityRow(2, math.Inf(-1), math.Inf(1))})
	c.SetEnabled(false)

	s := NewSequentialImpulseSolver(DefaultSolverParams())
	if err := s.SolveGroup([]Constraint{c}, nil, 1.0/60); err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if a.LinearVelocity().Len() != 0 {
		t.Errorf("disabled constraint moved the body: %v", a.LinearVelocity())
	}
}

func TestSolveGroupDegenerateConstraintRowPanics(t *testing.T) {
	a := NewFixedBody(IdentityTransform())
	b := NewFixedBody(IdentityTransform())
	c := newRowConstraint(a, b, []Row{velocityRow(1, math.Inf(-1), math.Inf(1))})

	s := NewSequentialImpulseSolver(DefaultSolverParams())
	defer func() {
		if recover() == nil {
			t.Error("expected panic on a constraint row with no movable endpoint")
		}
	}()
	s.SolveGroup([]Constraint{c}, nil, 1.0/60)
}

func TestSolveGroupRotatedBodyEffectiveMass(t *testing.T) {
	// a purely angular row about world y on a body rotated 90 degrees
	// about z: the effective mass must come from the body's local x
	// inertia, not its local y
	cfg := DefaultRigidBodyConfig(2, nil, NewBox(mgl64.Vec3{0.5, 1.0, 0.25}))
	cfg.StartTransform.Basis = mgl64.Rotate3DZ(math.Pi / 2)
	a := NewRigidBody(cfg)
	anchor := NewFixedBody(IdentityTransform())

	row := Row{
		AngularA:   mgl64.Vec3{0, 1, 0},
		AngularB:   mgl64.Vec3{0, -1, 0},
		RHS:        1,
		LowerLimit: math.Inf(-1),
		UpperLimit: math.Inf(1),
	}
	c := newRowConstraint(a, anchor, []Row{row})

	s := NewSequentialImpulseSolver(DefaultSolverParams())
	if err := s.SolveGroup([]Constraint{c}, nil, 1.0/60); err != nil {
		t.Fatalf("solve failed: %v", err)
	}

	if math.Abs(a.AngularVelocity().Y()-1) > 1e-6 {
		t.Errorf("expected angular velocity 1 about y, got %f", a.AngularVelocity().Y())
	}
	// impulse = inertia about the row axis; world y maps to local x,
	// so I = m/3 (hy^2 + hz^2) = 2/3 * (1 + 0.0625)
	wantImpulse := 2.0 / 3 * 1.0625
	if math.Abs(c.AppliedImpulse()-wantImpulse) > 1e-6 {
		t.Errorf("expected applied impulse %f, got %f", wantImpulse, c.AppliedImpulse())
	}
}

func TestSolveGroupBothStaticRowSkipped(t *testing.T) {
	a := NewFixedBody(IdentityTransform())
	b := NewFixedBody(IdentityTransform())

	ext := ExternalRows{
		BodyA: a,
		BodyB: b,
		Rows:  []Row{velocityRow(10, math.Inf(-1), math.Inf(1))},
	}

	s := NewSequentialImpulseSolver(DefaultSolverParams())
	if err := s.SolveGroup(nil, []ExternalRows{ext}, 1.0/60); err != nil {
		t.Fatalf("solve failed: %v", err)
	}
}
