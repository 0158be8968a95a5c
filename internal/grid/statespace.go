package grid

import (
	"github.com/san-kum/fragility/internal/errs"
)

// PricingFunc is the external pricing callback of spec §6: given a
// coordinate vector it must treat as read-only, return a finite scalar.
type PricingFunc func(coords []float64) float64

// StateSpace is the Cartesian product of an ordered sequence of
// Dimensions, plus the optional flat sampled-value buffer ("prices")
// of spec §3.
type StateSpace struct {
	dims        []*Dimension
	strides     []int
	totalPoints int
	prices      []float64
	pricesValid bool
}

// New creates an empty state space. Dimensions are added with
// AddDimension.
func New() *StateSpace {
	return &StateSpace{totalPoints: 1}
}

// NewFromDimensions builds a state space from a complete dimension
// list in one step.
func NewFromDimensions(dims []*Dimension) (*StateSpace, *errs.Error) {
	s := New()
	for _, d := range dims {
		if err := s.AddDimension(d); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// AddDimension appends a dimension, recomputing strides and the total
// point count in O(n). Adding a dimension invalidates prices, per
// spec §3.
func (s *StateSpace) AddDimension(d *Dimension) *errs.Error {
	if d == nil {
		return errs.New(errs.NullPointer, "nil dimension")
	}
	if len(s.dims) >= MaxDimensions {
		return errs.New(errs.InvalidArgument, "state space already has the maximum of %d dimensions", MaxDimensions)
	}

	s.dims = append(s.dims, d)
	s.recomputeStrides()
	s.prices = nil
	s.pricesValid = false
	return nil
}

func (s *StateSpace) recomputeStrides() {
	n := len(s.dims)
	s.strides = make([]int, n)
	total := 1
	for i := n - 1; i >= 0; i-- {
		s.strides[i] = total
		total *= s.dims[i].N()
	}
	s.totalPoints = total
}

// N returns the number of dimensions.
func (s *StateSpace) N() int { return len(s.dims) }

// Dim returns the i-th dimension.
func (s *StateSpace) Dim(i int) *Dimension { return s.dims[i] }

// Dims returns the dimension slice. Callers must not mutate it.
func (s *StateSpace) Dims() []*Dimension { return s.dims }

// TotalPoints returns the product of all dimension sizes.
func (s *StateSpace) TotalPoints() int { return s.totalPoints }

// Stride returns the row-major stride of dimension i.
func (s *StateSpace) Stride(i int) int { return s.strides[i] }

// PricesValid reports whether the flat price buffer was populated by a
// successful MapPrices call and has not been invalidated since.
func (s *StateSpace) PricesValid() bool { return s.pricesValid }

// FlatIndex computes the flat index for a multi-index, per spec §4.1:
// sum_d idx[d] * stride[d].
func (s *StateSpace) FlatIndex(idx []int) (int, *errs.Error) {
	if len(idx) != len(s.dims) {
		return 0, errs.New(errs.DimensionMismatch, "multi-index has %d components, state space has %d dimensions", len(idx), len(s.dims))
	}
	flat := 0
	for d, i := range idx {
		if i < 0 || i >= s.dims[d].N() {
			return 0, errs.New(errs.InvalidArgument, "index %d out of range for dimension %d (size %d)", i, d, s.dims[d].N())
		}
		flat += i * s.strides[d]
	}
	return flat, nil
}

// MultiIndex reconstructs the multi-index for a flat index via
// iterative division with remainder in stride order, per spec §4.1.
func (s *StateSpace) MultiIndex(flat int) ([]int, *errs.Error) {
	if flat < 0 || flat >= s.totalPoints {
		return nil, errs.New(errs.InvalidArgument, "flat index %d out of range [0, %d)", flat, s.totalPoints)
	}
	idx := make([]int, len(s.dims))
	rem := flat
	for d := range s.dims {
		idx[d] = rem / s.strides[d]
		rem = rem % s.strides[d]
	}
	return idx, nil
}

// Coords returns the coordinate vector for a flat index: a fresh copy,
// never a view into grid storage.
func (s *StateSpace) Coords(flat int) ([]float64, *errs.Error) {
	idx, err := s.MultiIndex(flat)
	if err != nil {
		return nil, err
	}
	coords := make([]float64, len(s.dims))
	for d, i := range idx {
		coords[d] = s.dims[d].Node(i)
	}
	return coords, nil
}

// NearestFlatIndex returns the flat index of the grid node nearest x,
// applying each dimension's NearestIndex independently.
func (s *StateSpace) NearestFlatIndex(x []float64) (int, *errs.Error) {
	if len(x) != len(s.dims) {
		return 0, errs.New(errs.DimensionMismatch, "point has %d components, state space has %d dimensions", len(x), len(s.dims))
	}
	flat := 0
	for d, v := range x {
		flat += s.dims[d].NearestIndex(v) * s.strides[d]
	}
	return flat, nil
}

// MapPrices visits every flat index in order, reconstructs coordinates,
// invokes fn with a fresh coordinate copy, and stores the result. Marks
// prices valid on completion, per spec §4.1.
func (s *StateSpace) MapPrices(fn PricingFunc) *errs.Error {
	if fn == nil {
		return errs.New(errs.NullPointer, "nil pricing function")
	}
	if len(s.dims) == 0 {
		return errs.New(errs.InvalidArgument, "state space has no dimensions")
	}

	prices := make([]float64, s.totalPoints)
	for flat := 0; flat < s.totalPoints; flat++ {
		coords, err := s.Coords(flat)
		if err != nil {
			return err
		}
		prices[flat] = fn(coords)
	}

	s.prices = prices
	s.pricesValid = true
	return nil
}

// GetPrice returns the stored price at a flat index. Fails with
// NotInitialized if prices are not valid.
func (s *StateSpace) GetPrice(flat int) (float64, *errs.Error) {
	if !s.pricesValid {
		return 0, errs.New(errs.NotInitialized, "prices have not been mapped")
	}
	if flat < 0 || flat >= len(s.prices) {
		return 0, errs.New(errs.InvalidArgument, "flat index %d out of range", flat)
	}
	return s.prices[flat], nil
}

// Interpolate computes the multilinear interpolation of the sampled
// price field at an arbitrary point x, per spec §4.1. Edge policy: at
// or beyond a boundary, interpolation collapses to the boundary value
// (no extrapolation).
func (s *StateSpace) Interpolate(x []float64) (float64, *errs.Error) {
	if !s.pricesValid {
		return 0, errs.New(errs.NotInitialized, "prices have not been mapped")
	}
	if len(x) != len(s.dims) {
		return 0, errs.New(errs.DimensionMismatch, "point has %d components, state space has %d dimensions", len(x), len(s.dims))
	}

	n := len(s.dims)
	lo := make([]int, n)
	hi := make([]int, n)
	t := make([]float64, n)

	for d := 0; d < n; d++ {
		l, h := s.dims[d].Bracket(x[d])
		lo[d], hi[d] = l, h
		if h == l {
			t[d] = 0
			continue
		}
		span := s.dims[d].Node(h) - s.dims[d].Node(l)
		if span == 0 {
			t[d] = 0
		} else {
			t[d] = (x[d] - s.dims[d].Node(l)) / span
		}
	}

	corners := 1 << n
	sum := 0.0
	for c := 0; c < corners; c++ {
		weight := 1.0
		flat := 0
		for d := 0; d < n; d++ {
			idx := lo[d]
			if c&(1<<d) != 0 {
				idx = hi[d]
				weight *= t[d]
			} else {
				weight *= 1 - t[d]
			}
			flat += idx * s.strides[d]
		}
		if weight == 0 {
			continue
		}
		sum += weight * s.prices[flat]
	}
	return sum, nil
}
