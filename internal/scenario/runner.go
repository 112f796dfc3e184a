package scenario

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/dynamics"
)

type Runner struct {
	scn       Scenario
	metrics   []Metric
	observers []Observer
}

func New(scn Scenario) *Runner {
	return &Runner{
		scn:       scn,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

func (r *Runner) Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	if err := r.validateConfig(cfg); err != nil {
		return nil, err
	}

	world, err := r.scn.Build(cfg)
	if err != nil {
		return nil, err
	}

	steps := int(cfg.Duration / cfg.Dt)
	result := &Result{
		Times:   make([]float64, 0, steps+1),
		Frames:  make([]Frame, 0, steps+1),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	result.Times = append(result.Times, world.Time())
	result.Frames = append(result.Frames, snapshot(world))

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if err := world.StepSimulation(cfg.Dt); err != nil {
			result.Errors = append(result.Errors, err)
			if errors.Is(err, dynamics.ErrInvalidState) {
				break
			}
			continue
		}

		t := world.Time()
		for _, m := range r.metrics {
			m.Observe(world, t)
		}
		for _, obs := range r.observers {
			obs.OnStep(world, t)
		}

		result.StepsTaken++
		result.Times = append(result.Times, t)
		result.Frames = append(result.Frames, snapshot(world))
	}

	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

// RunWithCallback steps the world and hands it to the callback after
// every step. Returning false from the callback stops the run.
func (r *Runner) RunWithCallback(ctx context.Context, cfg *config.Config, callback func(w *dynamics.World, t float64) bool) error {
	if err := r.validateConfig(cfg); err != nil {
		return err
	}

	world, err := r.scn.Build(cfg)
	if err != nil {
		return err
	}

	for world.Time() < cfg.Duration {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := world.StepSimulation(cfg.Dt); err != nil {
			return err
		}

		if !callback(world, world.Time()) {
			return nil
		}
	}

	return nil
}

func (r *Runner) validateConfig(cfg *config.Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	return nil
}
