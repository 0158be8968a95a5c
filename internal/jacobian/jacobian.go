// Package jacobian computes the gradient of a scalar field at a point,
// per spec §4.3, either grid-backed (via multilinear interpolation) or
// direct against a user callable.
package jacobian

import (
	"math"

	"github.com/san-kum/fragility/internal/diffcalc"
	"github.com/san-kum/fragility/internal/errs"
	"github.com/san-kum/fragility/internal/grid"
)

// DefaultBump is the relative grid-fraction bump used when scaling the
// finite-difference step per dimension, per spec §4.3.
const DefaultBump = 1e-4

// directionEpsilon is the gradient-norm floor below which Direction
// returns the zero vector instead of dividing by ~0, per spec §4.3.
const directionEpsilon = 1e-15

// Jacobian holds an evaluation point, the partial-derivative vector at
// that point, the centre value, and a validity flag, per spec §3.
type Jacobian struct {
	n       int
	point   []float64
	partial []float64
	centre  float64
	valid   bool
	ctx     *errs.Context
}

// New creates an empty Jacobian for a fixed dimension count n.
func New(n int) (*Jacobian, *errs.Error) {
	if n <= 0 || n > grid.MaxDimensions {
		return nil, errs.New(errs.InvalidArgument, "jacobian dimension %d out of range [1, %d]", n, grid.MaxDimensions)
	}
	return &Jacobian{n: n, point: make([]float64, n), partial: make([]float64, n)}, nil
}

// SetContext attaches the owning context that Compute/ComputeDirect
// record their last failure onto, per spec §3/§6. Pass nil to detach.
func (j *Jacobian) SetContext(ctx *errs.Context) { j.ctx = ctx }

// Context returns the attached owning context, or nil if none was set.
func (j *Jacobian) Context() *errs.Context { return j.ctx }

// N returns the fixed dimension count.
func (j *Jacobian) N() int { return j.n }

// Valid reports whether the last Compute/ComputeDirect call succeeded.
func (j *Jacobian) Valid() bool { return j.valid }

// Point returns a copy of the stored evaluation point.
func (j *Jacobian) Point() []float64 {
	return append([]float64(nil), j.point...)
}

// Centre returns the centre value f(x) recorded by the last compute.
func (j *Jacobian) Centre() float64 { return j.centre }

// Get returns the i-th partial derivative. Meaningful only when Valid.
func (j *Jacobian) Get(i int) float64 { return j.partial[i] }

// Compute evaluates the gradient at point using the state space's
// multilinear interpolation, scaling the bump per dimension to
// bump*(max-min), per spec §4.3. bump <= 0 selects DefaultBump.
func (j *Jacobian) Compute(space *grid.StateSpace, point []float64, bump float64) *errs.Error {
	j.valid = false

	if space == nil {
		return j.ctx.Record(errs.New(errs.NullPointer, "nil state space"))
	}
	if point == nil {
		return j.ctx.Record(errs.New(errs.NullPointer, "nil point"))
	}
	if space.N() != j.n {
		return j.ctx.Record(errs.New(errs.DimensionMismatch, "jacobian has n=%d, state space has n=%d", j.n, space.N()))
	}
	if !space.PricesValid() {
		return j.ctx.Record(errs.New(errs.NotInitialized, "state space prices are not valid"))
	}
	if bump <= 0 {
		bump = DefaultBump
	}

	scratch := make([]float64, j.n)
	copy(scratch, point)

	centre, err := space.Interpolate(scratch)
	if err != nil {
		return j.ctx.Record(err)
	}

	fn := func(c []float64) float64 {
		v, ierr := space.Interpolate(c)
		if ierr != nil {
			return centre
		}
		return v
	}

	for i := 0; i < j.n; i++ {
		d := space.Dim(i)
		h := bump * (d.Max() - d.Min())
		j.partial[i] = diffcalc.Central(fn, scratch, i, h)
	}

	copy(j.point, point)
	j.centre = centre
	j.valid = true
	return nil
}

// ComputeDirect evaluates the gradient at point against a direct
// callable using a fixed absolute step h, bypassing the grid.
func (j *Jacobian) ComputeDirect(fn diffcalc.Func, point []float64, h float64) *errs.Error {
	j.valid = false

	if fn == nil {
		return j.ctx.Record(errs.New(errs.NullPointer, "nil pricing function"))
	}
	if point == nil {
		return j.ctx.Record(errs.New(errs.NullPointer, "nil point"))
	}
	if len(point) != j.n {
		return j.ctx.Record(errs.New(errs.DimensionMismatch, "jacobian has n=%d, point has %d components", j.n, len(point)))
	}
	if h <= 0 {
		return j.ctx.Record(errs.New(errs.InvalidArgument, "step h must be positive, got %g", h))
	}

	scratch := make([]float64, j.n)
	copy(scratch, point)

	for i := 0; i < j.n; i++ {
		j.partial[i] = diffcalc.Central(fn, scratch, i, h)
	}

	copy(j.point, point)
	j.centre = fn(scratch)
	j.valid = true
	return nil
}

// Norm returns the L2 norm of the gradient.
func (j *Jacobian) Norm() float64 {
	sum := 0.0
	for _, v := range j.partial {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// LinfNorm returns the L-infinity (max absolute component) norm.
func (j *Jacobian) LinfNorm() float64 {
	max := 0.0
	for _, v := range j.partial {
		if a := math.Abs(v); a > max {
			max = a
		}
	}
	return max
}

// MostSensitiveDim returns the index of the dimension with the largest
// absolute partial derivative.
func (j *Jacobian) MostSensitiveDim() int {
	best := 0
	bestAbs := math.Abs(j.partial[0])
	for i := 1; i < j.n; i++ {
		if a := math.Abs(j.partial[i]); a > bestAbs {
			best, bestAbs = i, a
		}
	}
	return best
}

// Direction writes the unit gradient into out, or the zero vector when
// the gradient norm is below directionEpsilon, per spec §4.3.
func (j *Jacobian) Direction(out []float64) *errs.Error {
	if len(out) != j.n {
		return j.ctx.Record(errs.New(errs.DimensionMismatch, "direction buffer has %d components, jacobian has n=%d", len(out), j.n))
	}
	norm := j.Norm()
	if norm < directionEpsilon {
		for i := range out {
			out[i] = 0
		}
		return nil
	}
	for i := range out {
		out[i] = j.partial[i] / norm
	}
	return nil
}

// DirectionalDerivative returns sum_i partial_i * v_i.
func (j *Jacobian) DirectionalDerivative(v []float64) (float64, *errs.Error) {
	if len(v) != j.n {
		return 0, j.ctx.Record(errs.New(errs.DimensionMismatch, "direction vector has %d components, jacobian has n=%d", len(v), j.n))
	}
	sum := 0.0
	for i, p := range j.partial {
		sum += p * v[i]
	}
	return sum, nil
}
