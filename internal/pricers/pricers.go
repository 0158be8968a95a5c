// Package pricers provides small stand-ins for the external pricing
// callback of spec §6, used by tests and cmd/fragility in place of a
// real pricing engine. Grounded on physics.Pendulum's self-contained
// closed-form params+Derive shape, retargeted from a state-derivative
// callable f: R^n -> R^n to a scalar pricing callable f: R^n -> R.
package pricers

import (
	"fmt"
	"math"
)

// Func matches grid.PricingFunc's shape without importing grid, so
// this package stays a leaf the grid/jacobian/hessian packages do not
// need to know about.
type Func func(coords []float64) float64

// Quadratic returns f(x) = x^T A x + b for a symmetric A given in
// row-major order, the canonical test fixture for the Hessian
// convergence property of spec §8 ("for f(x) = x^T A x with symmetric
// A, the computed Hessian converges to 2A").
type Quadratic struct {
	A []float64
	N int
	B float64
}

// NewIsotropicQuadratic builds f(x) = sum_i x_i^2, the n-dimensional
// scenario #1/#2 fixture of spec §8 (A = identity).
func NewIsotropicQuadratic(n int) *Quadratic {
	a := make([]float64, n*n)
	for i := 0; i < n; i++ {
		a[i*n+i] = 1
	}
	return &Quadratic{A: a, N: n}
}

// Eval implements Func.
func (q *Quadratic) Eval(coords []float64) float64 {
	sum := 0.0
	for i := 0; i < q.N; i++ {
		rowSum := 0.0
		for j := 0; j < q.N; j++ {
			rowSum += q.A[i*q.N+j] * coords[j]
		}
		sum += coords[i] * rowSum
	}
	return sum + q.B
}

// Linear returns f(x) = sum_i coef_i * x_i + b, the zero-curvature
// fixture of spec §8 ("for any f linear in its arguments... the
// computed Hessian has ||H||_F <= eps").
type Linear struct {
	Coef []float64
	B    float64
}

// Eval implements Func.
func (l *Linear) Eval(coords []float64) float64 {
	sum := l.B
	for i, c := range l.Coef {
		sum += c * coords[i]
	}
	return sum
}

// VanillaCallPayoff is the one-dimensional kinked payoff of spec §8
// scenario #3: f(S) = max(S - K, 0).
type VanillaCallPayoff struct {
	Strike float64
}

// Eval implements Func.
func (c *VanillaCallPayoff) Eval(coords []float64) float64 {
	return math.Max(coords[0]-c.Strike, 0)
}

// VanillaPutPayoff is the put-side analogue: f(S) = max(K - S, 0).
type VanillaPutPayoff struct {
	Strike float64
}

// Eval implements Func.
func (p *VanillaPutPayoff) Eval(coords []float64) float64 {
	return math.Max(p.Strike-coords[0], 0)
}

// BlackScholesCall closed-form European call price over (spot, vol,
// rate, time-to-expiry) coordinates, the multi-factor fixture used to
// exercise the fragility map's gradient/curvature components against
// a smooth, strictly convex manifold away from the strike.
type BlackScholesCall struct {
	Strike float64
}

// Eval implements Func over coords = [spot, vol, rate, tau].
func (b *BlackScholesCall) Eval(coords []float64) float64 {
	spot, vol, rate, tau := coords[0], coords[1], coords[2], coords[3]
	if tau <= 0 || vol <= 0 {
		return math.Max(spot-b.Strike, 0)
	}
	sqrtTau := math.Sqrt(tau)
	d1 := (math.Log(spot/b.Strike) + (rate+0.5*vol*vol)*tau) / (vol * sqrtTau)
	d2 := d1 - vol*sqrtTau
	return spot*normCDF(d1) - b.Strike*math.Exp(-rate*tau)*normCDF(d2)
}

func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// Resolve looks up a registered pricer by name, sizing it to n
// dimensions and the given strike where applicable. It is the bridge
// internal/scenario uses to turn a YAML "pricer" field into a callable
// without either package depending on the other's concrete types.
func Resolve(name string, n int, strike float64) (Func, error) {
	switch name {
	case "", "isotropic_quadratic":
		q := NewIsotropicQuadratic(n)
		return q.Eval, nil
	case "vanilla_call":
		c := &VanillaCallPayoff{Strike: strike}
		return c.Eval, nil
	case "vanilla_put":
		p := &VanillaPutPayoff{Strike: strike}
		return p.Eval, nil
	case "black_scholes_call":
		b := &BlackScholesCall{Strike: strike}
		return b.Eval, nil
	default:
		return nil, fmt.Errorf("pricers: unknown pricer %q", name)
	}
}
