package grid

import (
	"math"
	"testing"
)

func buildXY(t *testing.T) *StateSpace {
	t.Helper()
	dx, err := NewDimension(Spot, "x", -5, 5, 21)
	if err != nil {
		t.Fatalf("NewDimension x: %v", err)
	}
	dy, err := NewDimension(Spot, "y", -5, 5, 21)
	if err != nil {
		t.Fatalf("NewDimension y: %v", err)
	}
	s, err := NewFromDimensions([]*Dimension{dx, dy})
	if err != nil {
		t.Fatalf("NewFromDimensions: %v", err)
	}
	return s
}

func TestDimensionLastNodeEqualsMax(t *testing.T) {
	d, err := NewDimension(Custom, "d", 0, 1, 7)
	if err != nil {
		t.Fatalf("NewDimension: %v", err)
	}
	if d.Node(d.N()-1) != 1 {
		t.Errorf("last node = %v, want exactly max 1", d.Node(d.N()-1))
	}
}

func TestDimensionRejectsBadBounds(t *testing.T) {
	if _, err := NewDimension(Custom, "d", 1, 1, 5); err == nil {
		t.Error("expected error for min == max")
	}
	if _, err := NewDimension(Custom, "d", 0, 1, 1); err == nil {
		t.Error("expected error for n < 2")
	}
}

func TestStridesAndTotalPoints(t *testing.T) {
	s := buildXY(t)
	if s.TotalPoints() != 21*21 {
		t.Errorf("total points = %d, want %d", s.TotalPoints(), 21*21)
	}
	if s.Stride(s.N()-1) != 1 {
		t.Errorf("last stride = %d, want 1", s.Stride(s.N()-1))
	}
	for d := 0; d < s.N()-1; d++ {
		if s.Stride(d) <= s.Stride(d+1) {
			t.Errorf("stride[%d]=%d should be > stride[%d]=%d", d, s.Stride(d), d+1, s.Stride(d+1))
		}
	}
}

func TestFlatMultiIndexRoundTrip(t *testing.T) {
	s := buildXY(t)
	for flat := 0; flat < s.TotalPoints(); flat += 7 {
		idx, err := s.MultiIndex(flat)
		if err != nil {
			t.Fatalf("MultiIndex(%d): %v", flat, err)
		}
		back, err := s.FlatIndex(idx)
		if err != nil {
			t.Fatalf("FlatIndex: %v", err)
		}
		if back != flat {
			t.Errorf("round trip mismatch: %d -> %v -> %d", flat, idx, back)
		}
	}
}

func TestMapPricesAndNearest(t *testing.T) {
	s := buildXY(t)
	err := s.MapPrices(func(c []float64) float64 { return c[0]*c[0] + c[1]*c[1] })
	if err != nil {
		t.Fatalf("MapPrices: %v", err)
	}
	if !s.PricesValid() {
		t.Fatal("prices should be valid after MapPrices")
	}

	flat, err := s.NearestFlatIndex([]float64{2, 3})
	if err != nil {
		t.Fatalf("NearestFlatIndex: %v", err)
	}
	coords, _ := s.Coords(flat)
	price, err := s.GetPrice(flat)
	if err != nil {
		t.Fatalf("GetPrice: %v", err)
	}
	want := coords[0]*coords[0] + coords[1]*coords[1]
	if math.Abs(price-want) > 1e-12 {
		t.Errorf("price at nearest node = %v, want %v", price, want)
	}
}

func TestInterpolateExactAtNode(t *testing.T) {
	s := buildXY(t)
	if err := s.MapPrices(func(c []float64) float64 { return c[0]*c[0] + c[1]*c[1] }); err != nil {
		t.Fatalf("MapPrices: %v", err)
	}

	for flat := 0; flat < s.TotalPoints(); flat += 13 {
		coords, _ := s.Coords(flat)
		got, err := s.Interpolate(coords)
		if err != nil {
			t.Fatalf("Interpolate: %v", err)
		}
		want, _ := s.GetPrice(flat)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("interpolate at node %v = %v, want %v", coords, got, want)
		}
	}
}

func TestInterpolateClampsAtBoundary(t *testing.T) {
	s := buildXY(t)
	if err := s.MapPrices(func(c []float64) float64 { return c[0] + c[1] }); err != nil {
		t.Fatalf("MapPrices: %v", err)
	}

	beyond, err := s.Interpolate([]float64{100, 100})
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}
	atBoundary, err := s.Interpolate([]float64{5, 5})
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}
	if math.Abs(beyond-atBoundary) > 1e-9 {
		t.Errorf("beyond-boundary interpolation %v should collapse to boundary value %v", beyond, atBoundary)
	}
}

func TestInterpolateFailsWithoutPrices(t *testing.T) {
	s := buildXY(t)
	if _, err := s.Interpolate([]float64{0, 0}); err == nil {
		t.Error("expected NotInitialized error")
	} else if err.Kind.String() != "NotInitialized" {
		t.Errorf("expected NotInitialized, got %v", err.Kind)
	}
}

func TestAddDimensionInvalidatesPrices(t *testing.T) {
	s := buildXY(t)
	if err := s.MapPrices(func(c []float64) float64 { return 0 }); err != nil {
		t.Fatalf("MapPrices: %v", err)
	}
	dz, _ := NewDimension(Custom, "z", 0, 1, 3)
	if err := s.AddDimension(dz); err != nil {
		t.Fatalf("AddDimension: %v", err)
	}
	if s.PricesValid() {
		t.Error("adding a dimension should invalidate prices")
	}
}
