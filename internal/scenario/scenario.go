package scenario

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/dynamics"
)

// Scenario builds a ready-to-step world from a configuration. Build is
// deterministic for a given config, including its seed.
type Scenario interface {
	Name() string
	Description() string
	Build(cfg *config.Config) (*dynamics.World, error)
}

type Metric interface {
	Name() string
	Observe(w *dynamics.World, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(w *dynamics.World, t float64)
}

// Frame holds the world-space center of mass of every body, in the
// order the world lists them.
type Frame []mgl64.Vec3

type Result struct {
	Times      []float64
	Frames     []Frame
	Metrics    map[string]float64
	StepsTaken int
	Errors     []error
}

func snapshot(w *dynamics.World) Frame {
	bodies := w.Bodies()
	f := make(Frame, len(bodies))
	for i, b := range bodies {
		f[i] = b.CenterOfMassPosition()
	}
	return f
}
