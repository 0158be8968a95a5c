package runstore

import (
	"path/filepath"
	"testing"

	"github.com/san-kum/fragility/internal/fragility"
	"github.com/san-kum/fragility/internal/grid"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func computedMap(t *testing.T) *fragility.Map {
	t.Helper()
	dx, err := grid.NewDimension(grid.Custom, "x", -5, 5, 11)
	if err != nil {
		t.Fatalf("dim: %v", err)
	}
	space, err := grid.NewFromDimensions([]*grid.Dimension{dx})
	if err != nil {
		t.Fatalf("state space: %v", err)
	}
	if err := space.MapPrices(func(c []float64) float64 { return c[0] * c[0] }); err != nil {
		t.Fatalf("map prices: %v", err)
	}

	cfg := fragility.DefaultConfig()
	cfg.FragilityThreshold = 0.01
	m, err := fragility.New(space, nil, cfg)
	if err != nil {
		t.Fatalf("new map: %v", err)
	}
	if err := m.Compute(); err != nil {
		t.Fatalf("compute: %v", err)
	}
	return m
}

func TestSaveAndGetRun(t *testing.T) {
	s := tempStore(t)
	m := computedMap(t)

	runID, err := s.SaveRun("quadratic-1d", m)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if runID == "" {
		t.Fatal("expected non-empty run ID")
	}

	rec, err := s.GetRun(runID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if rec.Scenario != "quadratic-1d" {
		t.Fatalf("scenario = %q, want quadratic-1d", rec.Scenario)
	}
	if rec.TotalPoints != 11 {
		t.Fatalf("total points = %d, want 11", rec.TotalPoints)
	}
}

func TestListRunsAndRegions(t *testing.T) {
	s := tempStore(t)
	m := computedMap(t)

	runID, err := s.SaveRun("quadratic-1d", m)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	runs, err := s.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(runs))
	}

	regions, err := s.ListRegions(runID)
	if err != nil {
		t.Fatalf("ListRegions: %v", err)
	}
	if len(regions) != m.NumFragileRegions() {
		t.Fatalf("len(regions) = %d, want %d", len(regions), m.NumFragileRegions())
	}
	for _, r := range regions {
		if len(r.Coords) != 1 {
			t.Fatalf("region coords length = %d, want 1", len(r.Coords))
		}
	}
}

func TestSaveRunRequiresComputedMap(t *testing.T) {
	s := tempStore(t)

	dx, err := grid.NewDimension(grid.Custom, "x", -1, 1, 5)
	if err != nil {
		t.Fatalf("dim: %v", err)
	}
	space, err := grid.NewFromDimensions([]*grid.Dimension{dx})
	if err != nil {
		t.Fatalf("state space: %v", err)
	}
	if err := space.MapPrices(func(c []float64) float64 { return c[0] }); err != nil {
		t.Fatalf("map prices: %v", err)
	}
	m, err := fragility.New(space, nil, fragility.DefaultConfig())
	if err != nil {
		t.Fatalf("new map: %v", err)
	}

	if _, err := s.SaveRun("uncomputed", m); err == nil {
		t.Fatal("expected error saving a map that has not been computed")
	}
}
