package pricers

import (
	"math"
	"testing"
)

func TestIsotropicQuadratic(t *testing.T) {
	q := NewIsotropicQuadratic(2)
	got := q.Eval([]float64{2, 3})
	if want := 13.0; got != want {
		t.Fatalf("Eval(2,3) = %v, want %v", got, want)
	}
}

func TestVanillaCallPayoff(t *testing.T) {
	c := &VanillaCallPayoff{Strike: 100}
	if got := c.Eval([]float64{90}); got != 0 {
		t.Fatalf("Eval(90) = %v, want 0", got)
	}
	if got := c.Eval([]float64{110}); got != 10 {
		t.Fatalf("Eval(110) = %v, want 10", got)
	}
}

func TestBlackScholesCallMonotoneInSpot(t *testing.T) {
	b := &BlackScholesCall{Strike: 100}
	low := b.Eval([]float64{90, 0.2, 0.01, 1})
	high := b.Eval([]float64{110, 0.2, 0.01, 1})
	if !(high > low) {
		t.Fatalf("expected call price increasing in spot: low=%v high=%v", low, high)
	}
}

func TestBlackScholesCallExpiryFallback(t *testing.T) {
	b := &BlackScholesCall{Strike: 100}
	got := b.Eval([]float64{120, 0.2, 0.01, 0})
	if got != 20 {
		t.Fatalf("Eval at tau=0 = %v, want intrinsic 20", got)
	}
}

func TestLinearEval(t *testing.T) {
	l := &Linear{Coef: []float64{1, -2}, B: 5}
	got := l.Eval([]float64{3, 4})
	want := 1*3 + -2*4 + 5.0
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("Eval = %v, want %v", got, want)
	}
}
