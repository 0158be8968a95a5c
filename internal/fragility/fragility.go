// Package fragility implements the fragility map of spec §4.7/§4.8: it
// combines gradient norm, Hessian Frobenius norm, Hessian condition
// number, and constraint proximity into a bounded [0,1] score at every
// grid node, classifies the result, and tracks the fragile regions
// that exceed a threshold. Grounded on metrics.Stability's
// Observe/Value/Reset running-accumulator shape (applied here to
// max/mean/fragile-fraction instead of a violation ratio) and on
// analysis/bifurcation.go's plain-text table-rendering style for
// Report.
package fragility

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/fragility/internal/constraint"
	"github.com/san-kum/fragility/internal/errs"
	"github.com/san-kum/fragility/internal/grid"
	"github.com/san-kum/fragility/internal/hessian"
	"github.com/san-kum/fragility/internal/jacobian"
)

// initialCapacity is the fragile-points slice's starting capacity,
// doubled on growth, per spec §5.
const initialCapacity = 64

// Weights are the non-negative linear-combination coefficients of
// spec §4.7. Defaults sum to 1 but this is not enforced.
type Weights struct {
	Gradient      float64
	Curvature     float64
	Conditioning  float64
	Constraint    float64
}

// DefaultWeights returns the spec §4.7 defaults (0.25, 0.30, 0.25, 0.20).
func DefaultWeights() Weights {
	return Weights{Gradient: 0.25, Curvature: 0.30, Conditioning: 0.25, Constraint: 0.20}
}

// Config is the Fragility Map's user-tunable configuration of
// spec §4.8.
type Config struct {
	Weights            Weights
	GradientScale      float64
	CurvatureScale     float64
	ConditionThreshold float64
	ConstraintThreshold float64
	FragilityThreshold float64
	Bump               float64
}

// DefaultConfig returns reasonable defaults: unit scales, a condition
// threshold of 1e3, a constraint-proximity threshold of 1.0, and a
// fragility threshold of 0.5.
func DefaultConfig() Config {
	return Config{
		Weights:             DefaultWeights(),
		GradientScale:       1.0,
		CurvatureScale:      1.0,
		ConditionThreshold:  1e3,
		ConstraintThreshold: 1.0,
		FragilityThreshold:  0.5,
		Bump:                jacobian.DefaultBump,
	}
}

// sigmoid maps a non-negative raw measure to [0,1] via the rational
// sigmoid x/(1+x), per the OPEN QUESTION DECISION in SPEC_FULL.md
// (monotone, map(0)=0, saturates to 1, no math.Exp in the hot loop).
func sigmoid(m, scale float64) float64 {
	if scale <= 0 {
		scale = 1
	}
	x := m / scale
	if x < 0 {
		x = 0
	}
	return x / (1 + x)
}

// conditionScore maps the Hessian condition number to [0,1] via the
// log-scale mapping of spec §4.7: 0 when kappa <= 1, otherwise
// log(kappa)/log(threshold^2) clamped to [0,1].
func conditionScore(kappa, threshold float64) float64 {
	if kappa <= 1 {
		return 0
	}
	if threshold <= 1 {
		threshold = 2
	}
	denom := math.Log(threshold * threshold)
	if denom <= 0 {
		return 1
	}
	v := math.Log(kappa) / denom
	return clamp01(v)
}

// constraintScore maps the minimum signed distance d to [0,1] via the
// linear ramp of spec §4.7: 1 if d <= 0, 0 if d >= threshold, linear
// in between.
func constraintScore(d, threshold float64) float64 {
	if d <= 0 {
		return 1
	}
	if threshold <= 0 || d >= threshold {
		return 0
	}
	return 1 - d/threshold
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Class is the region classification of spec §4.8.
type Class int

const (
	Stable Class = iota
	Sensitive
	Fragile
	Critical
)

func (c Class) String() string {
	switch c {
	case Stable:
		return "STABLE"
	case Sensitive:
		return "SENSITIVE"
	case Fragile:
		return "FRAGILE"
	default:
		return "CRITICAL"
	}
}

// Classify buckets a score per spec §4.8's thresholds (0.25, 0.50, 0.75).
func Classify(score float64) Class {
	switch {
	case score < 0.25:
		return Stable
	case score < 0.50:
		return Sensitive
	case score < 0.75:
		return Fragile
	default:
		return Critical
	}
}

// Point is a fragile-point record of spec §3: a coordinate copy plus
// its score, curvature, gradient norm, and near-constraint flag. The
// map owns the coordinate buffer; Region callers must not retain it
// across further writes to the map, per the DESIGN NOTES ownership
// rule.
type Point struct {
	Coords        []float64
	Score         float64
	Curvature     float64
	GradientNorm  float64
	NearConstraint bool
}

// Statistics are the published run summary of spec §4.8.
type Statistics struct {
	Max             float64
	Mean            float64
	FragileFraction float64
}

// Map is the Fragility Map of spec §3/§4.8: a borrowed handle to a
// State Space, a configuration record, the grid-wide score buffer, the
// growable fragile-points list, and summary statistics.
type Map struct {
	space      *grid.StateSpace
	constraint *constraint.Surface
	cfg        Config

	scores   []float64
	points   []Point
	computed bool
	stats    Statistics
	ctx      *errs.Context
}

// New creates a fragility map borrowing space (and, optionally, a
// constraint surface; pass nil to omit constraint scoring). The map
// owns a fresh errs.Context from construction on, so Context is never
// nil: New attaches it to surface (if present) and Compute attaches it
// to the Jacobian/Hessian it builds internally, so a caller can later
// inspect why the last grid node skipped during a sweep, per spec §3/§6.
func New(space *grid.StateSpace, surface *constraint.Surface, cfg Config) (*Map, *errs.Error) {
	ctx := errs.NewContext()
	if space == nil {
		return nil, ctx.Record(errs.New(errs.NullPointer, "nil state space"))
	}
	if surface != nil {
		surface.SetContext(ctx)
	}
	return &Map{
		space:      space,
		constraint: surface,
		cfg:        cfg,
		points:     make([]Point, 0, initialCapacity),
		ctx:        ctx,
	}, nil
}

// Context returns the map's owning error context. It is never nil.
func (m *Map) Context() *errs.Context { return m.ctx }

// Computed reports whether Compute has run successfully.
func (m *Map) Computed() bool { return m.computed }

// Compute sweeps every grid node per spec §4.8: it reconstructs
// coordinates, computes the Jacobian and Hessian there (skipping nodes
// where either fails, a deliberate robustness choice for degenerate
// boundary neighbourhoods per §7), combines the four component scores,
// and records the result.
func (m *Map) Compute() *errs.Error {
	m.ctx.ClearError()

	if !m.space.PricesValid() {
		return m.ctx.Record(errs.New(errs.NotInitialized, "state space prices are not valid"))
	}
	n := m.space.N()
	total := m.space.TotalPoints()

	m.scores = make([]float64, total)
	m.points = make([]Point, 0, initialCapacity)

	jac, err := jacobian.New(n)
	if err != nil {
		return m.ctx.Record(err)
	}
	jac.SetContext(m.ctx)
	hes, err := hessian.New(n)
	if err != nil {
		return m.ctx.Record(err)
	}
	hes.SetContext(m.ctx)

	sum := 0.0
	max := 0.0
	fragileCount := 0

	for flat := 0; flat < total; flat++ {
		coords, cErr := m.space.Coords(flat)
		if cErr != nil {
			return m.ctx.Record(cErr)
		}

		if jErr := jac.Compute(m.space, coords, m.cfg.Bump); jErr != nil {
			continue
		}
		if hErr := hes.Compute(m.space, coords, m.cfg.Bump); hErr != nil {
			continue
		}

		gradNorm := jac.Norm()
		curvature := hes.Frobenius()
		condition, _ := hes.Condition()

		minDist := math.Inf(1)
		if m.constraint != nil {
			d, dErr := m.constraint.Distance(coords)
			if dErr == nil {
				minDist = d
			}
		}

		score := m.combine(gradNorm, curvature, condition, minDist)
		m.scores[flat] = score
		sum += score
		if score > max {
			max = score
		}

		if score >= m.cfg.FragilityThreshold {
			fragileCount++
			m.points = append(m.points, Point{
				Coords:         coords,
				Score:          score,
				Curvature:      curvature,
				GradientNorm:   gradNorm,
				NearConstraint: minDist < m.cfg.ConstraintThreshold,
			})
		}
	}

	m.stats = Statistics{
		Max:             max,
		Mean:            sum / float64(total),
		FragileFraction: float64(fragileCount) / float64(total),
	}
	m.computed = true
	return nil
}

// combine maps raw measurements to component scores and linearly
// combines them per spec §4.7, clamping the result to [0,1].
func (m *Map) combine(gradNorm, curvature, condition, minDist float64) float64 {
	w := m.cfg.Weights
	gScore := sigmoid(gradNorm, m.cfg.GradientScale)
	cScore := sigmoid(curvature, m.cfg.CurvatureScale)
	kScore := conditionScore(condition, m.cfg.ConditionThreshold)
	bScore := constraintScore(minDist, m.cfg.ConstraintThreshold)

	score := w.Gradient*gScore + w.Curvature*cScore + w.Conditioning*kScore + w.Constraint*bScore
	return clamp01(score)
}

// NumFragileRegions returns the count of recorded fragile points.
func (m *Map) NumFragileRegions() int { return len(m.points) }

// GetRegion returns a borrowed view of the i-th fragile-point record.
func (m *Map) GetRegion(i int) (*Point, *errs.Error) {
	if i < 0 || i >= len(m.points) {
		return nil, m.ctx.Record(errs.New(errs.InvalidArgument, "region index %d out of range", i))
	}
	return &m.points[i], nil
}

// FragilityAt returns the score at the grid node nearest x, or 0 if
// the map has not been computed, per spec §4.8.
func (m *Map) FragilityAt(x []float64) float64 {
	if !m.computed {
		return 0
	}
	flat, err := m.space.NearestFlatIndex(x)
	if err != nil {
		return 0
	}
	return m.scores[flat]
}

// Scores returns the full grid score buffer. Callers must not mutate
// it.
func (m *Map) Scores() []float64 { return m.scores }

// Statistics returns the published max/mean/fragile-fraction summary.
func (m *Map) Statistics() Statistics { return m.stats }

// Report renders a deterministic plain-text summary of the top-N
// fragile regions, sorted by descending score, in the style of
// analysis.BifurcationToASCII's dependency-free table formatting.
func (m *Map) Report(topN int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "fragility report: %d/%d nodes fragile (%.1f%%), max=%.4f mean=%.4f\n",
		len(m.points), len(m.scores), m.stats.FragileFraction*100, m.stats.Max, m.stats.Mean)

	if len(m.points) == 0 {
		return b.String()
	}

	ranked := append([]Point(nil), m.points...)
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if topN > 0 && topN < len(ranked) {
		ranked = ranked[:topN]
	}

	fmt.Fprintf(&b, "%-6s %-10s %-10s %-10s %-10s\n", "rank", "class", "score", "curvature", "grad_norm")
	for i, p := range ranked {
		fmt.Fprintf(&b, "%-6d %-10s %-10.4f %-10.4f %-10.4f\n", i+1, Classify(p.Score), p.Score, p.Curvature, p.GradientNorm)
	}
	return b.String()
}
