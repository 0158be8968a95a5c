package diffcalc

import (
	"math"
	"testing"
)

// quadratic implements f(x) = sum x_i^2, so partials are 2*x_i and the
// diagonal second partial is exactly 2.
func quadratic(x []float64) float64 {
	s := 0.0
	for _, v := range x {
		s += v * v
	}
	return s
}

func TestCentralMatchesAnalytic(t *testing.T) {
	point := []float64{2, 3}
	got := Central(quadratic, point, 0, 1e-4)
	want := 4.0
	if math.Abs(got-want) > 1e-4 {
		t.Errorf("Central = %v, want %v", got, want)
	}
	if point[0] != 2 {
		t.Errorf("scratch point mutated: %v", point)
	}
}

func TestFivePointHigherOrder(t *testing.T) {
	point := []float64{2, 3}
	got := FivePoint(quadratic, point, 1, 1e-3)
	want := 6.0
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("FivePoint = %v, want %v", got, want)
	}
}

func TestDiagonalSecondExactForQuadratic(t *testing.T) {
	point := []float64{2, 3}
	centre := quadratic(point)
	got := DiagonalSecond(quadratic, point, 0, 1e-3, centre)
	if math.Abs(got-2.0) > 1e-4 {
		t.Errorf("DiagonalSecond = %v, want 2.0", got)
	}
}

func TestMixedSecondZeroForSeparable(t *testing.T) {
	point := []float64{2, 3}
	got := MixedSecond(quadratic, point, 0, 1, 1e-3, 1e-3)
	if math.Abs(got) > 1e-3 {
		t.Errorf("MixedSecond for separable quadratic = %v, want ~0", got)
	}
	if point[0] != 2 || point[1] != 3 {
		t.Errorf("scratch point not restored: %v", point)
	}
}

func TestMixedSecondForCrossTerm(t *testing.T) {
	// f(x,y) = x*y => d^2f/dxdy = 1 everywhere.
	cross := func(x []float64) float64 { return x[0] * x[1] }
	point := []float64{2, 3}
	got := MixedSecond(cross, point, 0, 1, 1e-3, 1e-3)
	if math.Abs(got-1.0) > 1e-6 {
		t.Errorf("MixedSecond for x*y = %v, want 1.0", got)
	}
}
