package scenario

import (
	"path/filepath"
	"testing"
)

func TestDefaultScenarioBuilds(t *testing.T) {
	s := Default()

	dims, err := s.BuildDimensions()
	if err != nil {
		t.Fatalf("BuildDimensions: %v", err)
	}
	if len(dims) != 2 {
		t.Fatalf("len(dims) = %d, want 2", len(dims))
	}

	pricer, err := s.BuildPricer()
	if err != nil {
		t.Fatalf("BuildPricer: %v", err)
	}
	if got := pricer([]float64{2, 3}); got != 13 {
		t.Fatalf("pricer(2,3) = %v, want 13", got)
	}

	surface, err := s.BuildConstraintSurface()
	if err != nil {
		t.Fatalf("BuildConstraintSurface: %v", err)
	}
	if surface != nil {
		t.Fatal("expected nil surface for a scenario with no constraints")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")

	s := Default()
	s.Constraints = []ConstraintConfig{
		{Kind: "position-limit", Name: "dim0-upper", DimIndex: 0, Threshold: 100},
	}

	if err := Save(path, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Dimensions) != len(s.Dimensions) {
		t.Fatalf("loaded dimensions = %d, want %d", len(loaded.Dimensions), len(s.Dimensions))
	}
	if len(loaded.Constraints) != 1 {
		t.Fatalf("loaded constraints = %d, want 1", len(loaded.Constraints))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/to/scenario.yaml"); err == nil {
		t.Fatal("expected error loading a missing file")
	}
}

func TestBuildConstraintSurfaceWithDefaults(t *testing.T) {
	s := Default()
	s.Constraints = []ConstraintConfig{
		{Kind: "liquidity", Name: "liq", DimIndex: 0, Threshold: 5},
	}
	surface, err := s.BuildConstraintSurface()
	if err != nil {
		t.Fatalf("BuildConstraintSurface: %v", err)
	}
	if surface == nil || len(surface.Constraints()) != 1 {
		t.Fatal("expected one constraint built from defaults")
	}
}

func TestPresetsAreRegistered(t *testing.T) {
	names := ListPresets()
	if len(names) == 0 {
		t.Fatal("expected at least one registered preset")
	}
	if GetPreset("quadratic-2d") == nil {
		t.Fatal("expected quadratic-2d preset to be registered")
	}
	if GetPreset("does-not-exist") != nil {
		t.Fatal("expected nil for unknown preset")
	}
}
