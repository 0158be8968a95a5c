// Package transport implements the transport metric of spec §4.6: a
// sampled Riemannian tensor field over R^n, inverse-distance
// interpolation of the local metric tensor, and midpoint-rule geodesic
// cost integration. Grounded on integrators.RK4's midpoint-style
// stepping (k2/k3 evaluated at t+dt*0.5) adapted to a single
// midpoint-rule integral, and on physics.Pendulum's per-kind
// parametrized constructors for the tensor factories below.
package transport

import (
	"math"

	"github.com/san-kum/fragility/internal/errs"
)

// MaxSamples is S_max from spec §3.
const MaxSamples = 1024

// geodesicSteps (K) is the midpoint-rule discretization count of §4.6.
const geodesicSteps = 100

// idwEpsilon and idwPower parametrize the inverse-distance weighting,
// per spec §4.6.
const (
	idwEpsilon = 1e-10
	idwPower   = 2.0
)

// Tensor is a symmetric positive-definite n x n matrix, row-major. The
// caller is responsible for symmetry and positive-definiteness; the
// metric does not re-verify samples on read, per spec §3.
type Tensor struct {
	n    int
	data []float64
}

// NewTensor allocates a zero n x n tensor.
func NewTensor(n int) *Tensor {
	return &Tensor{n: n, data: make([]float64, n*n)}
}

// Identity returns the n x n identity tensor.
func Identity(n int) *Tensor {
	t := NewTensor(n)
	for i := 0; i < n; i++ {
		t.Set(i, i, 1)
	}
	return t
}

// Diagonal returns a tensor with diag on the main diagonal and zero
// off-diagonal.
func Diagonal(diag []float64) *Tensor {
	t := NewTensor(len(diag))
	for i, v := range diag {
		t.Set(i, i, v)
	}
	return t
}

func (t *Tensor) N() int               { return t.n }
func (t *Tensor) Get(i, j int) float64 { return t.data[i*t.n+j] }
func (t *Tensor) Set(i, j int, v float64) { t.data[i*t.n+j] = v }

// Clone returns an independent copy of t.
func (t *Tensor) Clone() *Tensor {
	c := &Tensor{n: t.n, data: append([]float64(nil), t.data...)}
	return c
}

// scale multiplies every entry of t by k in place.
func (t *Tensor) scale(k float64) {
	for i := range t.data {
		t.data[i] *= k
	}
}

// addWeighted accumulates w*other into t in place.
func (t *Tensor) addWeighted(other *Tensor, w float64) {
	for i := range t.data {
		t.data[i] += w * other.data[i]
	}
}

// quadraticForm returns v^T t v.
func (t *Tensor) quadraticForm(v []float64) float64 {
	n := t.n
	sum := 0.0
	for i := 0; i < n; i++ {
		rowSum := 0.0
		for j := 0; j < n; j++ {
			rowSum += t.Get(i, j) * v[j]
		}
		sum += v[i] * rowSum
	}
	return sum
}

// FromLiquidity builds the diagonal tensor G_ii = 1/max(liq_i, eps),
// per spec §4.6's factory list.
func FromLiquidity(liq []float64, eps float64) *Tensor {
	if eps <= 0 {
		eps = idwEpsilon
	}
	diag := make([]float64, len(liq))
	for i, l := range liq {
		if l < eps {
			l = eps
		}
		diag[i] = 1 / l
	}
	return Diagonal(diag)
}

// FromMarketImpact builds the diagonal tensor
// G_ii = 1 + kappa_i*|pos_i|, per spec §4.6's factory list.
func FromMarketImpact(kappa, pos []float64) *Tensor {
	n := len(kappa)
	diag := make([]float64, n)
	for i := 0; i < n; i++ {
		diag[i] = 1 + kappa[i]*math.Abs(pos[i])
	}
	return Diagonal(diag)
}

// AverageCosts returns the symmetric average 0.5*(buy+sell) of two
// tensors of equal dimension, per spec §4.6's factory list.
func AverageCosts(buy, sell *Tensor) (*Tensor, *errs.Error) {
	if buy == nil || sell == nil {
		return nil, errs.New(errs.NullPointer, "nil cost tensor")
	}
	if buy.n != sell.n {
		return nil, errs.New(errs.DimensionMismatch, "buy tensor has n=%d, sell tensor has n=%d", buy.n, sell.n)
	}
	avg := NewTensor(buy.n)
	for i := range avg.data {
		avg.data[i] = 0.5 * (buy.data[i] + sell.data[i])
	}
	return avg, nil
}

// sample is one stored (x, G) pair of spec §3.
type sample struct {
	x []float64
	g *Tensor
}

// Metric is the sampled Riemannian tensor field of spec §3/§4.6.
type Metric struct {
	n       int
	samples []sample
	def     *Tensor
	radius  float64
	ctx     *errs.Context
}

// New creates a metric over R^n with the identity as default tensor
// and interpolation radius r (r == 0 means "consider all samples").
func New(n int, r float64) (*Metric, *errs.Error) {
	if n <= 0 {
		return nil, errs.New(errs.InvalidArgument, "metric dimension must be positive, got %d", n)
	}
	if r < 0 {
		return nil, errs.New(errs.InvalidArgument, "interpolation radius must be non-negative, got %g", r)
	}
	return &Metric{n: n, def: Identity(n), radius: r}, nil
}

// SetContext attaches the owning context that metric queries record
// their last failure onto, per spec §3/§6. Pass nil to detach.
func (m *Metric) SetContext(ctx *errs.Context) { m.ctx = ctx }

// Context returns the attached owning context, or nil if none was set.
func (m *Metric) Context() *errs.Context { return m.ctx }

// N returns the fixed dimension count.
func (m *Metric) N() int { return m.n }

// SetDefault overrides the default tensor returned when no sample is
// usable, per spec §4.6.
func (m *Metric) SetDefault(g *Tensor) *errs.Error {
	if g == nil {
		return m.ctx.Record(errs.New(errs.NullPointer, "nil default tensor"))
	}
	if g.n != m.n {
		return m.ctx.Record(errs.New(errs.DimensionMismatch, "default tensor has n=%d, metric has n=%d", g.n, m.n))
	}
	m.def = g
	return nil
}

// AddSample appends a (x, G) sample, per spec §3.
func (m *Metric) AddSample(x []float64, g *Tensor) *errs.Error {
	if x == nil || g == nil {
		return m.ctx.Record(errs.New(errs.NullPointer, "nil sample coordinate or tensor"))
	}
	if len(x) != m.n || g.n != m.n {
		return m.ctx.Record(errs.New(errs.DimensionMismatch, "sample has n=%d, metric has n=%d", len(x), m.n))
	}
	if len(m.samples) >= MaxSamples {
		return m.ctx.Record(errs.New(errs.InvalidArgument, "metric already has the maximum of %d samples", MaxSamples))
	}
	m.samples = append(m.samples, sample{x: append([]float64(nil), x...), g: g.Clone()})
	return nil
}

func euclidean(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Interpolate returns the tensor at x, per spec §4.6: inverse-distance
// weighting over samples within the interpolation radius (or all
// samples when radius == 0), falling back to the default tensor when
// no samples exist, none fall within radius, or the weight sum
// underflows.
func (m *Metric) Interpolate(x []float64) (*Tensor, *errs.Error) {
	if len(x) != m.n {
		return nil, m.ctx.Record(errs.New(errs.DimensionMismatch, "point has %d components, metric has n=%d", len(x), m.n))
	}
	if len(m.samples) == 0 {
		return m.def.Clone(), nil
	}

	acc := NewTensor(m.n)
	weightSum := 0.0
	for _, s := range m.samples {
		d := euclidean(x, s.x)
		if m.radius > 0 && d > m.radius {
			continue
		}
		w := 1 / math.Pow(d+idwEpsilon, idwPower)
		acc.addWeighted(s.g, w)
		weightSum += w
	}
	if weightSum <= 0 {
		return m.def.Clone(), nil
	}
	acc.scale(1 / weightSum)
	return acc, nil
}

// GeodesicCost integrates the arc length of the straight segment from
// a to b under the interpolated metric, via the midpoint rule of
// spec §4.6: K=100 steps, each evaluated at the segment midpoint.
func (m *Metric) GeodesicCost(a, b []float64) (float64, *errs.Error) {
	if len(a) != m.n || len(b) != m.n {
		return 0, m.ctx.Record(errs.New(errs.DimensionMismatch, "endpoint has wrong dimension for metric n=%d", m.n))
	}

	delta := make([]float64, m.n)
	for i := range delta {
		delta[i] = (b[i] - a[i]) / geodesicSteps
	}

	total := 0.0
	xs := make([]float64, m.n)
	for s := 0; s < geodesicSteps; s++ {
		frac := float64(s) + 0.5
		for i := range xs {
			xs[i] = a[i] + frac*delta[i]
		}
		g, err := m.Interpolate(xs)
		if err != nil {
			return 0, err
		}
		v := g.quadraticForm(delta)
		if v < 0 {
			v = 0
		}
		total += math.Sqrt(v)
	}
	return total, nil
}

// Distance is the exported transport distance of spec §4.6, an alias
// of GeodesicCost at the top level.
func (m *Metric) Distance(a, b []float64) (float64, *errs.Error) {
	return m.GeodesicCost(a, b)
}

// PathCost sums the geodesic cost of every consecutive pair of a
// polyline, per spec §4.6.
func (m *Metric) PathCost(points [][]float64) (float64, *errs.Error) {
	if len(points) < 2 {
		return 0, nil
	}
	total := 0.0
	for i := 0; i+1 < len(points); i++ {
		c, err := m.GeodesicCost(points[i], points[i+1])
		if err != nil {
			return 0, err
		}
		total += c
	}
	return total, nil
}

// FrictionRatio is the transport distance divided by the Euclidean
// distance, per spec §4.6: 1 for the identity metric, >1 indicating
// friction, and reported as 1 for coincident endpoints (where the
// ratio is otherwise undefined).
func (m *Metric) FrictionRatio(a, b []float64) (float64, *errs.Error) {
	euc := euclidean(a, b)
	if euc == 0 {
		return 1, nil
	}
	geo, err := m.GeodesicCost(a, b)
	if err != nil {
		return 0, err
	}
	return geo / euc, nil
}
