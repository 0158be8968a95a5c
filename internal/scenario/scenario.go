// Package scenario defines the YAML-loadable description of a
// fragility run: the state-space dimensions, constraint list,
// fragility weights/scales/thresholds, and which registered pricing
// function to sample. It carries no transport-metric samples. Grounded on
// internal/config/config.go's DefaultConfig/Load/Save shape.
package scenario

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/fragility/internal/constraint"
	"github.com/san-kum/fragility/internal/fragility"
	"github.com/san-kum/fragility/internal/grid"
	"github.com/san-kum/fragility/internal/pricers"
)

// DimensionConfig describes one axis of the state space.
type DimensionConfig struct {
	Type string  `yaml:"type"`
	Name string  `yaml:"name"`
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
	N    int     `yaml:"n"`
}

// ConstraintConfig describes one simple threshold constraint. Custom
// and callback-evaluated constraints are not YAML-representable and
// must be added programmatically after load, per spec §6's "constraint
// evaluator" collaborator boundary.
type ConstraintConfig struct {
	Kind        string  `yaml:"kind"`
	Name        string  `yaml:"name"`
	DimIndex    int     `yaml:"dim_index"`
	Threshold   float64 `yaml:"threshold"`
	Direction   string  `yaml:"direction,omitempty"`
	Hardness    string  `yaml:"hardness,omitempty"`
	PenaltyRate float64 `yaml:"penalty_rate,omitempty"`
}

// WeightsConfig mirrors fragility.Weights for YAML round-tripping.
type WeightsConfig struct {
	Gradient     float64 `yaml:"gradient"`
	Curvature    float64 `yaml:"curvature"`
	Conditioning float64 `yaml:"conditioning"`
	Constraint   float64 `yaml:"constraint"`
}

// FragilityConfig mirrors fragility.Config for YAML round-tripping.
type FragilityConfig struct {
	Weights             WeightsConfig `yaml:"weights"`
	GradientScale       float64       `yaml:"gradient_scale"`
	CurvatureScale      float64       `yaml:"curvature_scale"`
	ConditionThreshold  float64       `yaml:"condition_threshold"`
	ConstraintThreshold float64       `yaml:"constraint_threshold"`
	FragilityThreshold  float64       `yaml:"fragility_threshold"`
	Bump                float64       `yaml:"bump"`
}

// Scenario is the top-level YAML document.
type Scenario struct {
	Pricer      string             `yaml:"pricer"`
	Strike      float64            `yaml:"strike"`
	Dimensions  []DimensionConfig  `yaml:"dimensions"`
	Constraints []ConstraintConfig `yaml:"constraints"`
	Fragility   FragilityConfig    `yaml:"fragility"`
}

// Default returns the scenario §8 scenario #1/#6 fixture: a 2-D grid
// on [-5,5]^2 with 21x21 nodes sampling an isotropic quadratic,
// default fragility weights, and no constraints.
func Default() *Scenario {
	return &Scenario{
		Pricer: "isotropic_quadratic",
		Dimensions: []DimensionConfig{
			{Type: "custom", Name: "x", Min: -5, Max: 5, N: 21},
			{Type: "custom", Name: "y", Min: -5, Max: 5, N: 21},
		},
		Fragility: fromFragilityConfig(fragility.DefaultConfig()),
	}
}

func fromFragilityConfig(cfg fragility.Config) FragilityConfig {
	return FragilityConfig{
		Weights: WeightsConfig{
			Gradient:     cfg.Weights.Gradient,
			Curvature:    cfg.Weights.Curvature,
			Conditioning: cfg.Weights.Conditioning,
			Constraint:   cfg.Weights.Constraint,
		},
		GradientScale:       cfg.GradientScale,
		CurvatureScale:      cfg.CurvatureScale,
		ConditionThreshold:  cfg.ConditionThreshold,
		ConstraintThreshold: cfg.ConstraintThreshold,
		FragilityThreshold:  cfg.FragilityThreshold,
		Bump:                cfg.Bump,
	}
}

// Load reads and parses a scenario YAML file, starting from Default
// so unspecified fields keep sane values.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := Default()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Save writes s to path as YAML.
func Save(path string, s *Scenario) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// dimKind maps the YAML type tag to a grid.DimKind.
func dimKind(tag string) grid.DimKind {
	switch tag {
	case "spot":
		return grid.Spot
	case "volatility":
		return grid.Volatility
	case "rate":
		return grid.Rate
	case "time":
		return grid.Time
	case "liquidity":
		return grid.Liquidity
	default:
		return grid.Custom
	}
}

// BuildDimensions constructs the grid.Dimension slice described by s.
func (s *Scenario) BuildDimensions() ([]*grid.Dimension, error) {
	dims := make([]*grid.Dimension, 0, len(s.Dimensions))
	for _, dc := range s.Dimensions {
		d, err := grid.NewDimension(dimKind(dc.Type), dc.Name, dc.Min, dc.Max, dc.N)
		if err != nil {
			return nil, err
		}
		dims = append(dims, d)
	}
	return dims, nil
}

func constraintKind(tag string) constraint.Kind {
	switch tag {
	case "liquidity":
		return constraint.LiquidityKind
	case "position-limit":
		return constraint.PositionLimitKind
	case "margin":
		return constraint.MarginKind
	case "regulatory":
		return constraint.RegulatoryKind
	default:
		return constraint.CustomKind
	}
}

func constraintDirection(tag string) constraint.Direction {
	switch tag {
	case "lower":
		return constraint.Lower
	case "equality":
		return constraint.Equality
	default:
		return constraint.Upper
	}
}

func constraintHardness(tag string) constraint.Hardness {
	switch tag {
	case "soft":
		return constraint.Soft
	case "dynamic":
		return constraint.Dynamic
	default:
		return constraint.Hard
	}
}

// BuildConstraintSurface constructs a constraint.Surface from s's
// constraint list, or nil if the scenario has none.
func (s *Scenario) BuildConstraintSurface() (*constraint.Surface, error) {
	if len(s.Constraints) == 0 {
		return nil, nil
	}
	surface := constraint.New()
	for _, cc := range s.Constraints {
		if cc.Direction == "" && cc.Hardness == "" {
			if _, err := surface.Add(constraintKind(cc.Kind), cc.Name, cc.DimIndex, cc.Threshold); err != nil {
				return nil, err
			}
			continue
		}
		if _, err := surface.AddFull(constraint.Constraint{
			Kind:        constraintKind(cc.Kind),
			Name:        cc.Name,
			Direction:   constraintDirection(cc.Direction),
			Hardness:    constraintHardness(cc.Hardness),
			Threshold:   cc.Threshold,
			DimIndex:    cc.DimIndex,
			PenaltyRate: cc.PenaltyRate,
		}); err != nil {
			return nil, err
		}
	}
	return surface, nil
}

// BuildPricer resolves the scenario's named pricing function, sized to
// the scenario's own dimension count.
func (s *Scenario) BuildPricer() (grid.PricingFunc, error) {
	fn, err := pricers.Resolve(s.Pricer, len(s.Dimensions), s.Strike)
	if err != nil {
		return nil, err
	}
	return grid.PricingFunc(fn), nil
}

// BuildFragilityConfig converts the YAML fragility block to
// fragility.Config.
func (s *Scenario) BuildFragilityConfig() fragility.Config {
	fc := s.Fragility
	return fragility.Config{
		Weights: fragility.Weights{
			Gradient:     fc.Weights.Gradient,
			Curvature:    fc.Weights.Curvature,
			Conditioning: fc.Weights.Conditioning,
			Constraint:   fc.Weights.Constraint,
		},
		GradientScale:       fc.GradientScale,
		CurvatureScale:      fc.CurvatureScale,
		ConditionThreshold:  fc.ConditionThreshold,
		ConstraintThreshold: fc.ConstraintThreshold,
		FragilityThreshold:  fc.FragilityThreshold,
		Bump:                fc.Bump,
	}
}
