package metrics

import (
	"math"

	"github.com/san-kum/rigidsim/internal/dynamics"
)

// ConstraintDrift reports the worst anchor separation seen across all
// joints in the world. A perfectly rigid joint keeps it at zero.
type ConstraintDrift struct {
	name     string
	maxDrift float64
}

func NewConstraintDrift() *ConstraintDrift {
	return &ConstraintDrift{
		name: "constraint_drift",
	}
}

func (d *ConstraintDrift) Name() string { return d.name }

func (d *ConstraintDrift) Observe(w *dynamics.World, t float64) {
	for _, c := range w.Constraints() {
		sep, ok := anchorSeparation(c)
		if !ok {
			continue
		}
		d.maxDrift = math.Max(d.maxDrift, sep)
	}
}

func (d *ConstraintDrift) Value() float64 {
	return d.maxDrift
}

func (d *ConstraintDrift) Reset() {
	d.maxDrift = 0
}

func anchorSeparation(c dynamics.Constraint) (float64, bool) {
	trA := c.BodyA().CenterOfMassTransform()
	trB := c.BodyB().CenterOfMassTransform()

	if p2p, ok := dynamics.AsPoint2Point(c); ok {
		pa := trA.TransformPoint(p2p.PivotInA())
		pb := trB.TransformPoint(p2p.PivotInB())
		return pa.Sub(pb).Len(), true
	}
	if h, ok := dynamics.AsHinge(c); ok {
		pa := trA.TransformPoint(h.FrameA().Origin)
		pb := trB.TransformPoint(h.FrameB().Origin)
		return pa.Sub(pb).Len(), true
	}
	if g, ok := dynamics.AsGeneric6Dof(c); ok {
		pa := trA.TransformPoint(g.FrameInA().Origin)
		pb := trB.TransformPoint(g.FrameInB().Origin)
		return pa.Sub(pb).Len(), true
	}
	return 0, false
}
