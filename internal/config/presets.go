package config

import "sort"

// Presets are overrides on top of DefaultConfig, keyed by scenario and
// preset name.
var Presets = map[string]map[string]func(*Config){
	"equilibrium": {
		"small": func(c *Config) {
			c.Mesh.Cells = 2
			c.Steps = 200
		},
		"fine": func(c *Config) {
			c.Mesh.Cells = 16
			c.Steps = 500
		},
	},
	"parachute": {
		"light": func(c *Config) {
			c.Material.Payload = 0.1
			c.Steps = 2000
		},
		"heavy": func(c *Config) {
			c.Material.Payload = 2.0
			c.Material.Kl = 4000
			c.NSub = 40
		},
		"inflated": func(c *Config) {
			c.Pressure = 20
		},
		"stiff": func(c *Config) {
			c.Material.Ks = 2000
			c.Law = "strain"
			c.NSub = 40
		},
	},
	"drape": {
		"soft": func(c *Config) {
			c.Mesh.Cells = 8
			c.Material.Ks = 200
			c.Dt = 0.002
			c.Steps = 600
		},
		"tight": func(c *Config) {
			c.Mesh.Cells = 8
			c.Collision.Tol = 0.01
			c.Dt = 0.002
			c.Steps = 600
		},
	},
}

// GetPreset returns a fresh config with the preset applied, or nil.
func GetPreset(scenario, preset string) *Config {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	apply, ok := scenarioPresets[preset]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Scenario = scenario
	apply(cfg)
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
	sort.Strings(names)
	return names
}
