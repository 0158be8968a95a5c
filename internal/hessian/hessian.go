// Package hessian computes the symmetric curvature matrix of a scalar
// field at a point, per spec §4.4: grid-backed central/four-corner
// stencils, plus a Jacobi-rotation eigendecomposition for condition
// number and definiteness.
package hessian

import (
	"math"
	"sort"

	"github.com/san-kum/fragility/internal/diffcalc"
	"github.com/san-kum/fragility/internal/errs"
	"github.com/san-kum/fragility/internal/grid"
)

// DefaultBump is the fallback absolute step used only when a
// dimension's grid step is non-finite or degenerate, per spec §4.4 and
// the DESIGN NOTES bump-sizing fix.
const DefaultBump = 1e-4

// eigenTolerance (tau) is the Jacobi sweep's off-diagonal convergence
// threshold, per spec §4.4.
const eigenTolerance = 1e-12

// maxSweeps bounds the Jacobi iteration.
const maxSweeps = 100

// negligibleEigen is the |lambda| floor below which an eigenvalue is
// ignored for condition-number purposes, per spec §4.4.
const negligibleEigen = 1e-15

// conditionSentinel is returned when no eigenvalue has |lambda| at or
// above negligibleEigen (an all-zero Hessian).
const conditionSentinel = 1e15

// Hessian holds an n x n symmetric matrix, an evaluation point, a
// cached sorted-by-|eigenvalue| eigenvalue vector, and separate
// valid/eigenValid flags, per spec §3.
type Hessian struct {
	n          int
	h          []float64 // row-major n*n
	point      []float64
	valid      bool
	eigen      []float64
	eigenValid bool
	ctx        *errs.Context
}

// New creates an empty Hessian for a fixed dimension count n.
func New(n int) (*Hessian, *errs.Error) {
	if n <= 0 || n > grid.MaxDimensions {
		return nil, errs.New(errs.InvalidArgument, "hessian dimension %d out of range [1, %d]", n, grid.MaxDimensions)
	}
	return &Hessian{
		n:     n,
		h:     make([]float64, n*n),
		point: make([]float64, n),
	}, nil
}

// SetContext attaches the owning context that Compute/ComputeDirect/
// Eigenvalues record their last failure onto, per spec §3/§6. Pass nil
// to detach.
func (h *Hessian) SetContext(ctx *errs.Context) { h.ctx = ctx }

// Context returns the attached owning context, or nil if none was set.
func (h *Hessian) Context() *errs.Context { return h.ctx }

func (h *Hessian) N() int            { return h.n }
func (h *Hessian) Valid() bool       { return h.valid }
func (h *Hessian) Point() []float64  { return append([]float64(nil), h.point...) }

// Get returns H[i][j].
func (h *Hessian) Get(i, j int) float64 { return h.h[i*h.n+j] }

func (h *Hessian) set(i, j int, v float64) {
	h.h[i*h.n+j] = v
}

// invalidate clears the eigenvalue cache; writing H invalidates it,
// per spec §3.
func (h *Hessian) invalidate() {
	h.eigenValid = false
	h.eigen = nil
}

// Compute evaluates the Hessian at point using the state space's
// multilinear interpolation. Per spec §4.4, h_i is pinned to the
// dimension's grid step whenever it is finite and non-trivial; the
// fallback bump is used only for degenerate dimensions. Using bump
// directly against an interpolated grid is the bug this design
// corrects: a sub-grid shift can collapse to the same nearest node and
// explode the second derivative.
func (h *Hessian) Compute(space *grid.StateSpace, point []float64, bump float64) *errs.Error {
	h.valid = false
	h.invalidate()

	if space == nil {
		return h.ctx.Record(errs.New(errs.NullPointer, "nil state space"))
	}
	if point == nil {
		return h.ctx.Record(errs.New(errs.NullPointer, "nil point"))
	}
	if space.N() != h.n {
		return h.ctx.Record(errs.New(errs.DimensionMismatch, "hessian has n=%d, state space has n=%d", h.n, space.N()))
	}
	if !space.PricesValid() {
		return h.ctx.Record(errs.New(errs.NotInitialized, "state space prices are not valid"))
	}
	if bump <= 0 {
		bump = DefaultBump
	}

	scratch := make([]float64, h.n)
	copy(scratch, point)

	centre, err := space.Interpolate(scratch)
	if err != nil {
		return h.ctx.Record(err)
	}

	fn := func(c []float64) float64 {
		v, ierr := space.Interpolate(c)
		if ierr != nil {
			return centre
		}
		return v
	}

	steps := make([]float64, h.n)
	for i := 0; i < h.n; i++ {
		d := space.Dim(i)
		step := d.Step()
		if math.IsNaN(step) || math.IsInf(step, 0) || step <= 0 {
			steps[i] = bump
		} else {
			steps[i] = step
		}
	}

	for i := 0; i < h.n; i++ {
		v := diffcalc.DiagonalSecond(fn, scratch, i, steps[i], centre)
		h.set(i, i, v)
	}
	for i := 0; i < h.n; i++ {
		for j := i + 1; j < h.n; j++ {
			v := diffcalc.MixedSecond(fn, scratch, i, j, steps[i], steps[j])
			h.set(i, j, v)
			h.set(j, i, v)
		}
	}

	copy(h.point, point)
	h.valid = true
	return nil
}

// ComputeDirect evaluates the Hessian at point against a direct
// callable using a fixed absolute step h per dimension, bypassing the
// grid.
func (h *Hessian) ComputeDirect(fn diffcalc.Func, point []float64, step float64) *errs.Error {
	h.valid = false
	h.invalidate()

	if fn == nil {
		return h.ctx.Record(errs.New(errs.NullPointer, "nil pricing function"))
	}
	if point == nil {
		return h.ctx.Record(errs.New(errs.NullPointer, "nil point"))
	}
	if len(point) != h.n {
		return h.ctx.Record(errs.New(errs.DimensionMismatch, "hessian has n=%d, point has %d components", h.n, len(point)))
	}
	if step <= 0 {
		return h.ctx.Record(errs.New(errs.InvalidArgument, "step must be positive, got %g", step))
	}

	scratch := make([]float64, h.n)
	copy(scratch, point)
	centre := fn(scratch)

	for i := 0; i < h.n; i++ {
		v := diffcalc.DiagonalSecond(fn, scratch, i, step, centre)
		h.set(i, i, v)
	}
	for i := 0; i < h.n; i++ {
		for j := i + 1; j < h.n; j++ {
			v := diffcalc.MixedSecond(fn, scratch, i, j, step, step)
			h.set(i, j, v)
			h.set(j, i, v)
		}
	}

	copy(h.point, point)
	h.valid = true
	return nil
}

// Trace returns sum_i H_ii.
func (h *Hessian) Trace() float64 {
	sum := 0.0
	for i := 0; i < h.n; i++ {
		sum += h.Get(i, i)
	}
	return sum
}

// Frobenius returns sqrt(sum_ij H_ij^2).
func (h *Hessian) Frobenius() float64 {
	sum := 0.0
	for _, v := range h.h {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Eigenvalues returns the cached eigenvalues, computing them via
// classical Jacobi iteration if the cache is stale. Eigenvalues are
// sorted descending by absolute value, per spec §4.4/§9.
func (h *Hessian) Eigenvalues() ([]float64, *errs.Error) {
	if h.eigenValid {
		return append([]float64(nil), h.eigen...), nil
	}
	if !h.valid {
		return nil, h.ctx.Record(errs.New(errs.NotInitialized, "hessian has not been computed"))
	}

	eig, err := jacobiEigenvalues(h.h, h.n)
	if err != nil {
		return nil, h.ctx.Record(err)
	}

	sort.Slice(eig, func(a, b int) bool { return math.Abs(eig[a]) > math.Abs(eig[b]) })
	h.eigen = eig
	h.eigenValid = true
	return append([]float64(nil), h.eigen...), nil
}

// jacobiEigenvalues runs the classical Jacobi rotation sweep on a
// working copy of the row-major n x n matrix a, leaving the caller's
// matrix untouched, per spec §4.4/§5 ("operates on a working copy").
func jacobiEigenvalues(a []float64, n int) ([]float64, *errs.Error) {
	work := append([]float64(nil), a...)
	get := func(i, j int) float64 { return work[i*n+j] }
	set := func(i, j int, v float64) { work[i*n+j] = v }

	for sweep := 0; sweep < maxSweeps; sweep++ {
		offDiagSq := 0.0
		p, q := -1, -1
		largest := 0.0
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				v := get(i, j)
				offDiagSq += v * v
				if math.Abs(v) > largest {
					largest = math.Abs(v)
					p, q = i, j
				}
			}
		}

		if math.Sqrt(2*offDiagSq) < eigenTolerance {
			eig := make([]float64, n)
			for i := 0; i < n; i++ {
				eig[i] = get(i, i)
			}
			return eig, nil
		}

		if p < 0 {
			break
		}

		hpp, hqq, hpq := get(p, p), get(q, q), get(p, q)

		var theta float64
		if hpp == hqq {
			theta = math.Pi / 4
		} else {
			theta = 0.5 * math.Atan2(2*hpq, hqq-hpp)
		}
		c := math.Cos(theta)
		s := math.Sin(theta)

		for k := 0; k < n; k++ {
			if k == p || k == q {
				continue
			}
			hkp, hkq := get(k, p), get(k, q)
			newKP := c*hkp - s*hkq
			newKQ := s*hkp + c*hkq
			set(k, p, newKP)
			set(p, k, newKP)
			set(k, q, newKQ)
			set(q, k, newKQ)
		}

		newPP := c*c*hpp - 2*s*c*hpq + s*s*hqq
		newQQ := s*s*hpp + 2*s*c*hpq + c*c*hqq
		set(p, p, newPP)
		set(q, q, newQQ)
		set(p, q, 0)
		set(q, p, 0)
	}

	return nil, errs.New(errs.NumericalInstability, "jacobi eigendecomposition did not converge within %d sweeps", maxSweeps)
}

// Condition returns |lambda_max| / |lambda_min| over non-negligible
// eigenvalues, per spec §4.4: eigenvalues with |lambda| below
// negligibleEigen are left out of the ratio, so a singular Hessian with
// some non-negligible eigenvalues gets the ratio over those alone.
// Returns conditionSentinel when every eigenvalue is negligible.
func (h *Hessian) Condition() (float64, *errs.Error) {
	eig, err := h.Eigenvalues()
	if err != nil {
		return conditionSentinel, err
	}

	maxAbs, minAbs := 0.0, math.Inf(1)
	found := false
	for _, v := range eig {
		a := math.Abs(v)
		if a < negligibleEigen {
			continue
		}
		found = true
		if a > maxAbs {
			maxAbs = a
		}
		if a < minAbs {
			minAbs = a
		}
	}
	if !found || minAbs < negligibleEigen {
		return conditionSentinel, nil
	}
	return maxAbs / minAbs, nil
}

// Definiteness classifies the Hessian by the strict sign of all
// eigenvalues, per spec §4.4.
type Definiteness int

const (
	Indefinite Definiteness = iota
	PositiveDefinite
	NegativeDefinite
)

func (d Definiteness) String() string {
	switch d {
	case PositiveDefinite:
		return "positive-definite"
	case NegativeDefinite:
		return "negative-definite"
	default:
		return "indefinite"
	}
}

// Definite returns the Hessian's definiteness classification.
func (h *Hessian) Definite() (Definiteness, *errs.Error) {
	eig, err := h.Eigenvalues()
	if err != nil {
		return Indefinite, err
	}

	allPos, allNeg := true, true
	for _, v := range eig {
		if v <= 0 {
			allPos = false
		}
		if v >= 0 {
			allNeg = false
		}
	}
	switch {
	case allPos:
		return PositiveDefinite, nil
	case allNeg:
		return NegativeDefinite, nil
	default:
		return Indefinite, nil
	}
}
