package scenario

import "github.com/san-kum/fragility/internal/fragility"

// Presets are named, ready-to-run scenario fixtures, mirroring
// config.Presets' per-model preset table shape.
var Presets = map[string]*Scenario{
	"quadratic-2d": Default(),
	"vanilla-call-1d": {
		Pricer: "vanilla_call",
		Strike: 100,
		Dimensions: []DimensionConfig{
			{Type: "spot", Name: "spot", Min: 80, Max: 120, N: 41},
		},
		Fragility: fromFragilityConfig(withConstraintThreshold(1.0)),
	},
	"black-scholes-call-4d": {
		Pricer: "black_scholes_call",
		Strike: 100,
		Dimensions: []DimensionConfig{
			{Type: "spot", Name: "spot", Min: 60, Max: 140, N: 17},
			{Type: "volatility", Name: "vol", Min: 0.05, Max: 0.8, N: 9},
			{Type: "rate", Name: "rate", Min: 0.0, Max: 0.1, N: 5},
			{Type: "time", Name: "tau", Min: 0.05, Max: 2.0, N: 9},
		},
		Fragility: fromFragilityConfig(withConstraintThreshold(5.0)),
	},
}

func withConstraintThreshold(t float64) fragility.Config {
	cfg := fragility.DefaultConfig()
	cfg.ConstraintThreshold = t
	return cfg
}

// ListPresets returns the registered preset names.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}

// GetPreset returns the named preset, or nil if unknown.
func GetPreset(name string) *Scenario {
	return Presets[name]
}
