package metrics

import (
	"math"

	"github.com/san-kum/rigidsim/internal/dynamics"
)

type KineticEnergy struct {
	name    string
	total   float64
	samples int
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{
		name: "kinetic_energy",
	}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(w *dynamics.World, t float64) {
	e.total += worldKineticEnergy(w)
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *KineticEnergy) Reset() {
	e.total = 0
	e.samples = 0
}

type EnergyDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{
		name: "energy_drift",
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(w *dynamics.World, t float64) {
	energy := worldKineticEnergy(w)

	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(energy-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}

func worldKineticEnergy(w *dynamics.World) float64 {
	var total float64
	for _, b := range w.Bodies() {
		if b.IsStaticObject() {
			continue
		}
		v := b.LinearVelocity()
		total += 0.5 * b.Mass() * v.Dot(v)

		wl := b.CenterOfMassTransform().Basis.Transpose().Mul3x1(b.AngularVelocity())
		inv := b.InvInertiaDiagLocal()
		for i := 0; i < 3; i++ {
			if inv[i] != 0 {
				total += 0.5 * wl[i] * wl[i] / inv[i]
			}
		}
	}
	return total
}
