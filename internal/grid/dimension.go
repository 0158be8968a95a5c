// Package grid implements the gridded state space of spec §3/§4.1: a
// Cartesian product of uniform axis grids, a flat sampled-value buffer,
// and nearest-neighbour / multilinear interpolation over it.
package grid

import (
	"github.com/san-kum/fragility/internal/errs"
)

// DimKind tags the risk-factor a Dimension represents. Custom covers
// anything not named by the standard set.
type DimKind int

const (
	Custom DimKind = iota
	Spot
	Volatility
	Rate
	Time
	Liquidity
)

func (k DimKind) String() string {
	switch k {
	case Spot:
		return "spot"
	case Volatility:
		return "volatility"
	case Rate:
		return "rate"
	case Time:
		return "time"
	case Liquidity:
		return "liquidity"
	default:
		return "custom"
	}
}

// MaxDimensions is D_max from spec §3.
const MaxDimensions = 16

// Dimension is an immutable uniform axis grid: min+i*step for
// i in [0, N), with the last node pinned to max to avoid floating
// drift, per spec §3.
type Dimension struct {
	kind  DimKind
	name  string
	min   float64
	max   float64
	nodes []float64
	step  float64
}

// NewDimension builds a uniform grid of n nodes over [min, max].
// Requires min < max and n >= 2.
func NewDimension(kind DimKind, name string, min, max float64, n int) (*Dimension, *errs.Error) {
	if n < 2 {
		return nil, errs.New(errs.InvalidArgument, "dimension %q needs at least 2 nodes, got %d", name, n)
	}
	if !(min < max) {
		return nil, errs.New(errs.InvalidArgument, "dimension %q requires min < max, got [%g, %g]", name, min, max)
	}

	step := (max - min) / float64(n-1)
	nodes := make([]float64, n)
	for i := 0; i < n; i++ {
		nodes[i] = min + float64(i)*step
	}
	nodes[n-1] = max

	return &Dimension{kind: kind, name: name, min: min, max: max, nodes: nodes, step: step}, nil
}

func (d *Dimension) Kind() DimKind   { return d.kind }
func (d *Dimension) Name() string    { return d.name }
func (d *Dimension) Min() float64    { return d.min }
func (d *Dimension) Max() float64    { return d.max }
func (d *Dimension) Step() float64   { return d.step }
func (d *Dimension) N() int          { return len(d.nodes) }
func (d *Dimension) Node(i int) float64 { return d.nodes[i] }

// Nodes returns the underlying node slice. Callers must not mutate it.
func (d *Dimension) Nodes() []float64 { return d.nodes }

// NearestIndex returns the index of the grid node closest to v, after
// clamping v to [min, max]. Ties resolve to the lower index, per
// spec §4.1.
func (d *Dimension) NearestIndex(v float64) int {
	v = clamp(v, d.min, d.max)
	lo, hi := d.Bracket(v)
	if hi == lo {
		return lo
	}
	if v-d.nodes[lo] <= d.nodes[hi]-v {
		return lo
	}
	return hi
}

// Bracket returns the node indices (lo, hi) such that
// nodes[lo] <= v <= nodes[hi] after clamping v into range. lo == hi at
// or beyond the upper boundary; at or below the lower boundary it
// returns (0, 1).
func (d *Dimension) Bracket(v float64) (lo, hi int) {
	v = clamp(v, d.min, d.max)
	if d.step <= 0 {
		return 0, 0
	}
	idx := int((v - d.min) / d.step)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(d.nodes)-1 {
		return len(d.nodes) - 1, len(d.nodes) - 1
	}
	// Guard against floating error nudging v just past nodes[idx+1].
	for idx < len(d.nodes)-2 && v > d.nodes[idx+1] {
		idx++
	}
	return idx, idx + 1
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
