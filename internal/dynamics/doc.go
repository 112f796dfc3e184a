// Package dynamics implements a constraint-based rigid-body core: bodies
// with mass and inertia, force and impulse application, velocity
// integration, and velocity-level joint constraints solved by iterative
// impulse correction.
//
// The main pieces:
//
//   - [RigidBody]: mass/inertia/transform/velocity state with force,
//     impulse, integration, damping and deactivation operations
//   - [Constraint]: the two-call row protocol every joint implements
//     ([Point2PointConstraint], [HingeConstraint], [Generic6DofConstraint])
//   - [JacobianEntry]: per-row effective inverse mass computation
//   - [SequentialImpulseSolver]: projected Gauss-Seidel over assembled rows
//   - [World]: the per-tick sequence wiring the above together
//
// One tick is a strict synchronous sequence: clear forces, apply gravity,
// build constraint rows, solve, integrate velocities, apply damping,
// update transforms, notify motion states. Nothing in this package spawns
// goroutines; callers parallelizing across worlds must not share bodies.
//
// Positional drift is corrected through the error-reduction parameter
// (ERP), a per-tick fraction of the error fed back as velocity bias.
// Constraint-force mixing (CFM) softens rows, trading accuracy for
// stability. Both have global defaults in [SolverParams] and per-joint
// overrides via [Constraint.SetParam].
package dynamics
