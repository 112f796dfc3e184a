package scenario

import (
	"fmt"

	"github.com/san-kum/rigidsim/internal/metrics"
)

type Registry struct {
	scenarios map[string]func() Scenario
}

func NewRegistry() *Registry {
	r := &Registry{
		scenarios: make(map[string]func() Scenario),
	}

	r.scenarios["pendulum_chain"] = func() Scenario { return NewPendulumChain() }
	r.scenarios["hinge_door"] = func() Scenario { return NewHingeDoor() }
	r.scenarios["sixdof_crate"] = func() Scenario { return NewSixDofCrate() }

	return r
}

func (r *Registry) Get(name string) (Scenario, error) {
	fn, ok := r.scenarios[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario: %s", name)
	}
	return fn(), nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.scenarios))
	for name := range r.scenarios {
		names = append(names, name)
	}
	return names
}

func (r *Registry) DefaultMetrics() []Metric {
	return []Metric{
		metrics.NewKineticEnergy(),
		metrics.NewEnergyDrift(),
		metrics.NewConstraintDrift(),
		metrics.NewMaxImpulse(),
		metrics.NewSleepRatio(),
	}
}
