// Package constraint implements the constraint surface of spec §4.5:
// a tagged sum type of threshold- and callback-based constraints, with
// signed-distance, violation, and penalty queries.
package constraint

import (
	"math"

	"github.com/san-kum/fragility/internal/errs"
)

// Kind tags the risk category a constraint represents.
type Kind int

const (
	CustomKind Kind = iota
	LiquidityKind
	PositionLimitKind
	MarginKind
	RegulatoryKind
)

func (k Kind) String() string {
	switch k {
	case LiquidityKind:
		return "liquidity"
	case PositionLimitKind:
		return "position-limit"
	case MarginKind:
		return "margin"
	case RegulatoryKind:
		return "regulatory"
	default:
		return "custom"
	}
}

// Direction selects how a threshold is interpreted, per spec §4.5.
type Direction int

const (
	Upper Direction = iota
	Lower
	Equality
)

// Hardness tags how a violation should be treated by a higher layer,
// per spec §3.
type Hardness int

const (
	Hard Hardness = iota
	Soft
	Dynamic
)

// EvalFunc is the constraint evaluator callback of spec §6: same shape
// as the pricing callback, returning the constrained quantity.
type EvalFunc func(coords []float64) float64

// Constraint is the tagged record of spec §3/§9: either a simple
// dimension-index threshold comparison or an arbitrary callable,
// modeled here as a sum type selected by evalFn being nil, per the
// DESIGN NOTES' "polymorphism over constraints" guidance.
type Constraint struct {
	Kind      Kind
	Name      string
	Direction Direction
	Hardness  Hardness
	Threshold float64
	Tolerance float64 // used only for Equality direction
	DimIndex  int     // used when EvalFn is nil
	EvalFn    EvalFunc
	PenaltyRate float64
	Active    bool
}

func (c *Constraint) value(point []float64) (float64, *errs.Error) {
	if c.EvalFn != nil {
		return c.EvalFn(point), nil
	}
	if c.DimIndex < 0 || c.DimIndex >= len(point) {
		return 0, errs.New(errs.InvalidArgument, "constraint %q dimension index %d out of range for point of length %d", c.Name, c.DimIndex, len(point))
	}
	return point[c.DimIndex], nil
}

// signedDistance returns the signed distance for the constrained value
// v against the constraint's direction and threshold, per the table in
// spec §4.5. Positive = inside, zero = on the boundary, negative =
// violated.
func signedDistance(dir Direction, threshold, tolerance, v float64) float64 {
	switch dir {
	case Upper:
		return threshold - v
	case Lower:
		return v - threshold
	default: // Equality
		return tolerance - math.Abs(v-threshold)
	}
}

// MaxConstraints is C_max from spec §3.
const MaxConstraints = 64

// Surface owns up to MaxConstraints constraints, per spec §3.
type Surface struct {
	constraints []*Constraint
	ctx         *errs.Context
}

// New creates an empty constraint surface.
func New() *Surface {
	return &Surface{}
}

// SetContext attaches the owning context that surface queries record
// their last failure onto, per spec §3/§6. Pass nil to detach.
func (s *Surface) SetContext(ctx *errs.Context) { s.ctx = ctx }

// Context returns the attached owning context, or nil if none was set.
func (s *Surface) Context() *errs.Context { return s.ctx }

// kindDefaults returns the hardness/direction/penalty defaults for a
// simple threshold constraint of the given kind, per
// SPEC_FULL.md's SUPPLEMENTED FEATURES item 1.
func kindDefaults(kind Kind) (Hardness, Direction, float64) {
	switch kind {
	case LiquidityKind:
		return Soft, Upper, 100.0
	case PositionLimitKind:
		return Hard, Upper, 0
	case MarginKind:
		return Soft, Lower, 50.0
	case RegulatoryKind:
		return Hard, Upper, 0
	default: // CustomKind
		return Soft, Upper, 1.0
	}
}

// Add creates a simple threshold constraint on dimension dimIndex with
// kind-appropriate defaults, per spec §4.5.
func (s *Surface) Add(kind Kind, name string, dimIndex int, threshold float64) (*Constraint, *errs.Error) {
	if len(s.constraints) >= MaxConstraints {
		return nil, s.ctx.Record(errs.New(errs.InvalidArgument, "constraint surface already has the maximum of %d constraints", MaxConstraints))
	}
	hardness, dir, penalty := kindDefaults(kind)
	c := &Constraint{
		Kind:        kind,
		Name:        name,
		Direction:   dir,
		Hardness:    hardness,
		Threshold:   threshold,
		DimIndex:    dimIndex,
		PenaltyRate: penalty,
		Active:      true,
	}
	s.constraints = append(s.constraints, c)
	return c, nil
}

// AddFull creates a constraint with every field explicit, per spec §4.5.
func (s *Surface) AddFull(c Constraint) (*Constraint, *errs.Error) {
	if len(s.constraints) >= MaxConstraints {
		return nil, s.ctx.Record(errs.New(errs.InvalidArgument, "constraint surface already has the maximum of %d constraints", MaxConstraints))
	}
	stored := c
	stored.Active = true
	s.constraints = append(s.constraints, &stored)
	return &stored, nil
}

// AddCustom creates a callback-evaluated constraint, per spec §4.5.
func (s *Surface) AddCustom(name string, eval EvalFunc, dir Direction, threshold float64, hardness Hardness) (*Constraint, *errs.Error) {
	if eval == nil {
		return nil, s.ctx.Record(errs.New(errs.NullPointer, "nil eval function"))
	}
	if len(s.constraints) >= MaxConstraints {
		return nil, s.ctx.Record(errs.New(errs.InvalidArgument, "constraint surface already has the maximum of %d constraints", MaxConstraints))
	}
	_, _, penalty := kindDefaults(CustomKind)
	c := &Constraint{
		Kind:        CustomKind,
		Name:        name,
		Direction:   dir,
		Hardness:    hardness,
		Threshold:   threshold,
		EvalFn:      eval,
		PenaltyRate: penalty,
		Active:      true,
	}
	s.constraints = append(s.constraints, c)
	return c, nil
}

// Constraints returns the owned constraint slice. Callers must not
// retain entries across further surface mutations.
func (s *Surface) Constraints() []*Constraint { return s.constraints }

// Distances returns the signed distance of every active constraint at
// point; inactive constraints contribute +Inf, per spec §4.5.
func (s *Surface) Distances(point []float64) ([]float64, *errs.Error) {
	out := make([]float64, len(s.constraints))
	for i, c := range s.constraints {
		if !c.Active {
			out[i] = math.Inf(1)
			continue
		}
		v, err := c.value(point)
		if err != nil {
			return nil, s.ctx.Record(err)
		}
		out[i] = signedDistance(c.Direction, c.Threshold, c.Tolerance, v)
	}
	return out, nil
}

// Distance returns the minimum signed distance over all constraints at
// point (+Inf if the surface has none), per spec §4.5.
func (s *Surface) Distance(point []float64) (float64, *errs.Error) {
	dists, err := s.Distances(point)
	if err != nil {
		return 0, err
	}
	min := math.Inf(1)
	for _, d := range dists {
		if d < min {
			min = d
		}
	}
	return min, nil
}

// Nearest returns the index of the most-binding (smallest signed
// distance) active constraint, or -1 if none are active.
func (s *Surface) Nearest(point []float64) (int, *errs.Error) {
	dists, err := s.Distances(point)
	if err != nil {
		return -1, err
	}
	best := -1
	bestD := math.Inf(1)
	for i, d := range dists {
		if d < bestD {
			bestD, best = d, i
		}
	}
	return best, nil
}

// IsViolated reports whether the i-th constraint is violated at point.
func (s *Surface) IsViolated(i int, point []float64) (bool, *errs.Error) {
	if i < 0 || i >= len(s.constraints) {
		return false, s.ctx.Record(errs.New(errs.InvalidArgument, "constraint index %d out of range", i))
	}
	c := s.constraints[i]
	if !c.Active {
		return false, nil
	}
	v, err := c.value(point)
	if err != nil {
		return false, s.ctx.Record(err)
	}
	return signedDistance(c.Direction, c.Threshold, c.Tolerance, v) < 0, nil
}

// Check reports whether any active constraint is violated at point.
func (s *Surface) Check(point []float64) (bool, *errs.Error) {
	for i := range s.constraints {
		v, err := s.IsViolated(i, point)
		if err != nil {
			return false, err
		}
		if v {
			return true, nil
		}
	}
	return false, nil
}

// Penalty returns the soft-constraint penalty for the i-th constraint
// at point: penalty_rate * max(0, -signed_distance). Hard constraints
// carry no penalty, per spec §4.5.
func (s *Surface) Penalty(i int, point []float64) (float64, *errs.Error) {
	if i < 0 || i >= len(s.constraints) {
		return 0, s.ctx.Record(errs.New(errs.InvalidArgument, "constraint index %d out of range", i))
	}
	c := s.constraints[i]
	if !c.Active || c.Hardness == Hard {
		return 0, nil
	}
	v, err := c.value(point)
	if err != nil {
		return 0, s.ctx.Record(err)
	}
	d := signedDistance(c.Direction, c.Threshold, c.Tolerance, v)
	if d >= 0 {
		return 0, nil
	}
	return c.PenaltyRate * -d, nil
}

// TotalPenalty sums the penalty of every constraint at point.
func (s *Surface) TotalPenalty(point []float64) (float64, *errs.Error) {
	total := 0.0
	for i := range s.constraints {
		p, err := s.Penalty(i, point)
		if err != nil {
			return 0, err
		}
		total += p
	}
	return total, nil
}

// AnyHardViolation reports whether any active hard constraint is
// violated at point.
func (s *Surface) AnyHardViolation(point []float64) (bool, *errs.Error) {
	for i, c := range s.constraints {
		if c.Hardness != Hard {
			continue
		}
		v, err := s.IsViolated(i, point)
		if err != nil {
			return false, err
		}
		if v {
			return true, nil
		}
	}
	return false, nil
}
