package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/rigidsim/internal/dynamics"
)

const (
	DefaultDt         = 1.0 / 60.0
	DefaultDuration   = 10.0
	DefaultIterations = 10
	DefaultERP        = 0.2
	DefaultLinks      = 3
	DefaultLinkLength = 1.0
	DefaultMass       = 1.0
	DefaultGravityY   = -9.81
)

type Config struct {
	Scenario string        `yaml:"scenario"`
	Dt       float64       `yaml:"dt"`
	Duration float64       `yaml:"duration"`
	Seed     int64         `yaml:"seed"`
	Runs     int           `yaml:"runs"`
	Gravity  GravityConfig `yaml:"gravity"`
	Solver   SolverConfig  `yaml:"solver"`
	Scene    SceneConfig   `yaml:"scene"`
}

type GravityConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

type SolverConfig struct {
	Iterations      int     `yaml:"iterations"`
	ERP             float64 `yaml:"erp"`
	Damping         float64 `yaml:"damping"`
	WarmStarting    bool    `yaml:"warm_starting"`
	WarmStartFactor float64 `yaml:"warm_start_factor"`
}

type SceneConfig struct {
	Links         int     `yaml:"links"`
	LinkLength    float64 `yaml:"link_length"`
	Mass          float64 `yaml:"mass"`
	Tilt          float64 `yaml:"tilt"`
	MotorVelocity float64 `yaml:"motor_velocity"`
	MotorImpulse  float64 `yaml:"motor_impulse"`
	LimitLow      float64 `yaml:"limit_low"`
	LimitHigh     float64 `yaml:"limit_high"`
	Softness      float64 `yaml:"softness"`
	Travel        float64 `yaml:"travel"`
}

func DefaultConfig() *Config {
	return &Config{
		Scenario: "pendulum_chain",
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		Runs:     1,
		Gravity:  GravityConfig{Y: DefaultGravityY},
		Solver: SolverConfig{
			Iterations:      DefaultIterations,
			ERP:             DefaultERP,
			Damping:         1.0,
			WarmStarting:    true,
			WarmStartFactor: 0.85,
		},
		Scene: SceneConfig{
			Links:      DefaultLinks,
			LinkLength: DefaultLinkLength,
			Mass:       DefaultMass,
			Tilt:       0.3,
			LimitLow:   1,
			LimitHigh:  -1,
			Softness:   0.9,
			Travel:     0.5,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SolverParams maps the YAML solver block onto the solver's native
// parameter struct, falling back to defaults for zero values.
func (c *Config) SolverParams() dynamics.SolverParams {
	p := dynamics.DefaultSolverParams()
	if c.Solver.Iterations > 0 {
		p.Iterations = c.Solver.Iterations
	}
	if c.Solver.ERP > 0 {
		p.ERP = c.Solver.ERP
	}
	if c.Solver.Damping > 0 {
		p.Damping = c.Solver.Damping
	}
	p.WarmStarting = c.Solver.WarmStarting
	if c.Solver.WarmStartFactor > 0 {
		p.WarmStartFactor = c.Solver.WarmStartFactor
	}
	return p
}
