package jacobian

import (
	"math"
	"testing"

	"github.com/san-kum/fragility/internal/errs"
	"github.com/san-kum/fragility/internal/grid"
)

func buildSpace(t *testing.T) *grid.StateSpace {
	t.Helper()
	dx, err := grid.NewDimension(grid.Spot, "x", -5, 5, 21)
	if err != nil {
		t.Fatalf("NewDimension: %v", err)
	}
	dy, err := grid.NewDimension(grid.Spot, "y", -5, 5, 21)
	if err != nil {
		t.Fatalf("NewDimension: %v", err)
	}
	s, err := grid.NewFromDimensions([]*grid.Dimension{dx, dy})
	if err != nil {
		t.Fatalf("NewFromDimensions: %v", err)
	}
	if err := s.MapPrices(func(c []float64) float64 { return c[0]*c[0] + c[1]*c[1] }); err != nil {
		t.Fatalf("MapPrices: %v", err)
	}
	return s
}

// Scenario #1 of spec §8: f(x,y) = x^2 + y^2 at (2,3).
func TestComputeAtScenarioOne(t *testing.T) {
	s := buildSpace(t)
	j, err := New(2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := j.Compute(s, []float64{2, 3}, 0); err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !j.Valid() {
		t.Fatal("expected valid jacobian")
	}

	if math.Abs(j.Get(0)-4.0) > 0.2 {
		t.Errorf("d/dx = %v, want ~4.0", j.Get(0))
	}
	if math.Abs(j.Get(1)-6.0) > 0.2 {
		t.Errorf("d/dy = %v, want ~6.0", j.Get(1))
	}
	if math.Abs(j.Norm()-math.Sqrt(52)) > 0.2 {
		t.Errorf("norm = %v, want ~%v", j.Norm(), math.Sqrt(52))
	}
}

func TestMostSensitiveDim(t *testing.T) {
	s := buildSpace(t)
	j, _ := New(2)
	if err := j.Compute(s, []float64{2, 3}, 0); err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got := j.MostSensitiveDim(); got != 1 {
		t.Errorf("MostSensitiveDim = %d, want 1 (larger |dy|)", got)
	}
}

func TestDirectionUnitVector(t *testing.T) {
	s := buildSpace(t)
	j, _ := New(2)
	if err := j.Compute(s, []float64{2, 3}, 0); err != nil {
		t.Fatalf("Compute: %v", err)
	}
	dir := make([]float64, 2)
	if err := j.Direction(dir); err != nil {
		t.Fatalf("Direction: %v", err)
	}
	norm := math.Sqrt(dir[0]*dir[0] + dir[1]*dir[1])
	if math.Abs(norm-1.0) > 1e-9 {
		t.Errorf("direction norm = %v, want 1.0", norm)
	}
}

func TestDirectionZeroForVanishingGradient(t *testing.T) {
	j, _ := New(2)
	j.valid = true
	j.partial = []float64{0, 0}
	dir := make([]float64, 2)
	if err := j.Direction(dir); err != nil {
		t.Fatalf("Direction: %v", err)
	}
	if dir[0] != 0 || dir[1] != 0 {
		t.Errorf("expected zero direction, got %v", dir)
	}
}

func TestComputeFailsOnDimensionMismatch(t *testing.T) {
	s := buildSpace(t)
	j, _ := New(3)
	if err := j.Compute(s, []float64{1, 2, 3}, 0); err == nil {
		t.Error("expected DimensionMismatch error")
	}
}

func TestSetContextRecordsLastError(t *testing.T) {
	s := buildSpace(t)
	j, _ := New(3)
	ctx := errs.NewContext()
	j.SetContext(ctx)

	if err := j.Compute(s, []float64{1, 2, 3}, 0); err == nil {
		t.Fatal("expected DimensionMismatch error")
	}
	if ctx.LastError() == nil {
		t.Fatal("expected context to record the failed Compute's error")
	}
	if !errs.Is(ctx.LastError(), errs.DimensionMismatch) {
		t.Errorf("last error = %v, want DimensionMismatch", ctx.LastError())
	}

	ctx.ClearError()
	if ctx.LastError() != nil {
		t.Error("expected ClearError to reset the last-error slot")
	}
}

func TestComputeFailsWithoutPrices(t *testing.T) {
	dx, _ := grid.NewDimension(grid.Spot, "x", -1, 1, 5)
	s, _ := grid.NewFromDimensions([]*grid.Dimension{dx})
	j, _ := New(1)
	if err := j.Compute(s, []float64{0}, 0); err == nil {
		t.Error("expected NotInitialized error")
	}
}

func TestDirectionalDerivative(t *testing.T) {
	s := buildSpace(t)
	j, _ := New(2)
	if err := j.Compute(s, []float64{2, 3}, 0); err != nil {
		t.Fatalf("Compute: %v", err)
	}
	dd, err := j.DirectionalDerivative([]float64{1, 0})
	if err != nil {
		t.Fatalf("DirectionalDerivative: %v", err)
	}
	if math.Abs(dd-j.Get(0)) > 1e-12 {
		t.Errorf("directional derivative along e0 = %v, want %v", dd, j.Get(0))
	}
}
