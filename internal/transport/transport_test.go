package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Scenario #5 of spec §8: two identity samples, query (0,0)->(3,4).
func TestGeodesicCostIdentityScenarioFive(t *testing.T) {
	m, err := New(2, 0)
	assert.Nil(t, err)

	assert.Nil(t, m.AddSample([]float64{0, 0}, Identity(2)))
	assert.Nil(t, m.AddSample([]float64{10, 0}, Identity(2)))

	cost, err := m.GeodesicCost([]float64{0, 0}, []float64{3, 4})
	assert.Nil(t, err)
	assert.InDelta(t, 5.0, cost, 0.05)
}

func TestFrictionRatioIdentityIsOne(t *testing.T) {
	m, err := New(2, 0)
	assert.Nil(t, err)

	ratio, err := m.FrictionRatio([]float64{1, 1}, []float64{4, 5})
	assert.Nil(t, err)
	assert.InDelta(t, 1.0, ratio, 1e-12)
}

func TestFrictionRatioCoincidentEndpointsIsOne(t *testing.T) {
	m, err := New(2, 0)
	assert.Nil(t, err)

	ratio, err := m.FrictionRatio([]float64{2, 2}, []float64{2, 2})
	assert.Nil(t, err)
	assert.Equal(t, 1.0, ratio)
}

func TestInterpolateFallsBackToDefaultWithNoSamples(t *testing.T) {
	m, err := New(3, 0)
	assert.Nil(t, err)

	g, err := m.Interpolate([]float64{1, 2, 3})
	assert.Nil(t, err)
	for i := 0; i < 3; i++ {
		assert.Equal(t, 1.0, g.Get(i, i))
	}
}

func TestInterpolateOutsideRadiusFallsBackToDefault(t *testing.T) {
	m, err := New(1, 0.5)
	assert.Nil(t, err)
	assert.Nil(t, m.AddSample([]float64{0}, Diagonal([]float64{4})))

	g, err := m.Interpolate([]float64{10})
	assert.Nil(t, err)
	assert.Equal(t, 1.0, g.Get(0, 0))
}

func TestFromLiquidityFactory(t *testing.T) {
	g := FromLiquidity([]float64{2, 0}, 1e-3)
	assert.InDelta(t, 0.5, g.Get(0, 0), 1e-12)
	assert.InDelta(t, 1000.0, g.Get(1, 1), 1e-6)
}

func TestFromMarketImpactFactory(t *testing.T) {
	g := FromMarketImpact([]float64{0.1, 0.2}, []float64{5, -3})
	assert.InDelta(t, 1.5, g.Get(0, 0), 1e-12)
	assert.InDelta(t, 1.6, g.Get(1, 1), 1e-12)
}

func TestAverageCosts(t *testing.T) {
	buy := Diagonal([]float64{2, 4})
	sell := Diagonal([]float64{4, 8})
	avg, err := AverageCosts(buy, sell)
	assert.Nil(t, err)
	assert.InDelta(t, 3.0, avg.Get(0, 0), 1e-12)
	assert.InDelta(t, 6.0, avg.Get(1, 1), 1e-12)
}

func TestMaxSamplesEnforced(t *testing.T) {
	m, err := New(1, 0)
	assert.Nil(t, err)
	for i := 0; i < MaxSamples; i++ {
		assert.Nil(t, m.AddSample([]float64{float64(i)}, Identity(1)))
	}
	err = m.AddSample([]float64{9999}, Identity(1))
	assert.NotNil(t, err)
}

func TestPathCostSumsSegments(t *testing.T) {
	m, err := New(1, 0)
	assert.Nil(t, err)

	cost, err := m.PathCost([][]float64{{0}, {1}, {3}})
	assert.Nil(t, err)
	assert.InDelta(t, 3.0, cost, 1e-9)
}
