package config

var Presets = map[string]map[string]*Config{
	"pendulum_chain": {
		"single": {
			Scenario: "pendulum_chain", Dt: DefaultDt, Duration: 10.0,
			Scene: SceneConfig{Links: 1, LinkLength: 1.0, Mass: 1.0, Tilt: 0.0, LimitLow: 1, LimitHigh: -1},
		},
		"triple": {
			Scenario: "pendulum_chain", Dt: DefaultDt, Duration: 20.0,
			Scene: SceneConfig{Links: 3, LinkLength: 1.0, Mass: 1.0, Tilt: 0.5, LimitLow: 1, LimitHigh: -1},
		},
		"long": {
			Scenario: "pendulum_chain", Dt: 1.0 / 120.0, Duration: 30.0,
			Solver: SolverConfig{Iterations: 20, ERP: 0.2, Damping: 1.0, WarmStarting: true, WarmStartFactor: 0.85},
			Scene:  SceneConfig{Links: 8, LinkLength: 0.5, Mass: 0.5, Tilt: 0.2, LimitLow: 1, LimitHigh: -1},
		},
	},
	"hinge_door": {
		"swing": {
			Scenario: "hinge_door", Dt: DefaultDt, Duration: 15.0,
			Scene: SceneConfig{Mass: 2.0, LinkLength: 0.8, Tilt: 1.2, LimitLow: 1, LimitHigh: -1},
		},
		"motor": {
			Scenario: "hinge_door", Dt: DefaultDt, Duration: 10.0,
			Scene: SceneConfig{Mass: 2.0, LinkLength: 0.8, MotorVelocity: 1.0, MotorImpulse: 12.0, LimitLow: 1, LimitHigh: -1},
		},
		"stop": {
			Scenario: "hinge_door", Dt: DefaultDt, Duration: 10.0,
			Scene: SceneConfig{Mass: 2.0, LinkLength: 0.8, MotorVelocity: 1.5, MotorImpulse: 12.0, LimitLow: -0.4, LimitHigh: 0.4},
		},
	},
	"sixdof_crate": {
		"locked": {
			Scenario: "sixdof_crate", Dt: DefaultDt, Duration: 10.0,
			Scene: SceneConfig{Mass: 4.0, LinkLength: 0.5, Travel: 0.0, Softness: 0.7, LimitLow: 0, LimitHigh: 0},
		},
		"slider": {
			Scenario: "sixdof_crate", Dt: DefaultDt, Duration: 15.0,
			Scene: SceneConfig{Mass: 4.0, LinkLength: 0.5, Travel: 0.5, Softness: 0.7, LimitLow: 0, LimitHigh: 0},
		},
		"spring": {
			Scenario: "sixdof_crate", Dt: DefaultDt, Duration: 20.0,
			Scene: SceneConfig{Mass: 4.0, LinkLength: 0.5, Travel: 1.0, Softness: 0.3, LimitLow: -0.3, LimitHigh: 0.3},
		},
	},
}

func GetPreset(scenario, preset string) *Config {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	cfg, ok := scenarioPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(scenario string) []string {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenarioPresets))
	for name := range scenarioPresets {
		names = append(names, name)
	}
	return names
}
