// Package diffcalc implements numerical differentiation of spec §4.2:
// finite-difference partials and mixed partials over a user callable,
// run against an owned scratch coordinate vector that is always
// restored before return.
package diffcalc

// Func is the differentiated callable: given a coordinate vector, it
// must not be retained past the call and must treat its argument as
// read-only (the contract the scratch-vector discipline below enforces
// from this side).
type Func func(coords []float64) float64

// bumpEval bumps point[i] by delta, evaluates fn, and restores point[i]
// to its original value before returning, mirroring
// integrators.RK4.Step's ensureScratch/restore discipline applied to a
// single coordinate instead of a whole state vector.
func bumpEval(fn Func, point []float64, i int, delta float64) float64 {
	orig := point[i]
	point[i] = orig + delta
	v := fn(point)
	point[i] = orig
	return v
}

// Forward computes the forward-difference partial d/dx_i f, O(h).
func Forward(fn Func, point []float64, i int, h float64) float64 {
	f0 := fn(point)
	f1 := bumpEval(fn, point, i, h)
	return (f1 - f0) / h
}

// Central computes the central-difference partial d/dx_i f, O(h^2).
// This is the default differencing scheme used by Jacobian/Hessian.
func Central(fn Func, point []float64, i int, h float64) float64 {
	fPlus := bumpEval(fn, point, i, h)
	fMinus := bumpEval(fn, point, i, -h)
	return (fPlus - fMinus) / (2 * h)
}

// FivePoint computes the five-point stencil partial d/dx_i f, O(h^4).
func FivePoint(fn Func, point []float64, i int, h float64) float64 {
	fP2 := bumpEval(fn, point, i, 2*h)
	fP1 := bumpEval(fn, point, i, h)
	fM1 := bumpEval(fn, point, i, -h)
	fM2 := bumpEval(fn, point, i, -2*h)
	return (-fP2 + 8*fP1 - 8*fM1 + fM2) / (12 * h)
}

// DiagonalSecond computes the diagonal second partial d^2/dx_i^2 f via
// the three-point stencil (f(x+h) - 2f(x) + f(x-h))/h^2.
func DiagonalSecond(fn Func, point []float64, i int, h float64, centre float64) float64 {
	fPlus := bumpEval(fn, point, i, h)
	fMinus := bumpEval(fn, point, i, -h)
	return (fPlus - 2*centre + fMinus) / (h * h)
}

// MixedSecond computes the mixed second partial d^2/(dx_i dx_j) f via
// the four-corner stencil
// (f_{++} - f_{+-} - f_{-+} + f_{--}) / (4 h_i h_j), per spec §4.2.
func MixedSecond(fn Func, point []float64, i, j int, hi, hj float64) float64 {
	origI, origJ := point[i], point[j]

	point[i], point[j] = origI+hi, origJ+hj
	fpp := fn(point)

	point[i], point[j] = origI+hi, origJ-hj
	fpm := fn(point)

	point[i], point[j] = origI-hi, origJ+hj
	fmp := fn(point)

	point[i], point[j] = origI-hi, origJ-hj
	fmm := fn(point)

	point[i], point[j] = origI, origJ

	return (fpp - fpm - fmp + fmm) / (4 * hi * hj)
}
