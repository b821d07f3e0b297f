package quest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questkit/domain/core"
)

func demoParams() Params {
	p := DefaultParams()
	p.PriorMean = 0.9
	return p
}

func TestWeibullLimits(t *testing.T) {
	// far below threshold the observer is guessing, far above only lapses miss
	pLow := Weibull(3.5, 0.01, 0.5, -5)
	pHigh := Weibull(3.5, 0.01, 0.5, 5)
	assert.InDelta(t, 0.5, pLow, 1e-6)
	assert.InDelta(t, 0.01*0.5+0.99, pHigh, 1e-6)
}

func TestPsychTableCriterionCrossing(t *testing.T) {
	p := demoParams()
	p.Range = 5

	dim, err := gridDim(p.Grain, p.Range)
	require.NoError(t, err)
	table, err := newPsychTable(p, dim)
	require.NoError(t, err)

	// The crossing is defined by inverse interpolation over the unshifted
	// table, so forward interpolation over the same segment must return the
	// criterion almost exactly.
	n := 2*dim + 1
	x2 := make([]float64, n)
	p2 := make([]float64, n)
	for j := range x2 {
		x2[j] = float64(j-dim) * p.Grain
		p2[j] = Weibull(p.Beta, p.Delta, p.Gamma, x2[j])
	}
	ps, offs := strictlyMonotone(p2, x2)
	require.GreaterOrEqual(t, len(ps), 2)
	assert.InDelta(t, p.Criterion, interpolate(table.xThreshold, offs, ps), 1e-9)

	// and the analytic function agrees up to discretization error
	assert.InDelta(t, p.Criterion, Weibull(p.Beta, p.Delta, p.Gamma, table.xThreshold), 1e-4)

	// after the shift, the table's midpoint sits at the criterion
	assert.InDelta(t, p.Criterion, table.p2[dim], 1e-4)
}

func TestPsychTableCriterionNotBracketed(t *testing.T) {
	p := demoParams()
	p.Criterion = 0.999 // above delta*gamma + (1-delta)
	_, err := gridDim(p.Grain, p.Range)
	require.NoError(t, err)
	_, err = newPsychTable(p, defaultDim)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrCriterionNotBracketed)
	assert.True(t, core.IsConfigError(err))
}

func TestStrictlyMonotone(t *testing.T) {
	p := []float64{0.5, 0.5, 0.6, 0.8, 0.8, 0.9}
	x := []float64{0, 1, 2, 3, 4, 5}
	ps, offs := strictlyMonotone(p, x)
	assert.Equal(t, []float64{0.5, 0.6, 0.8}, ps)
	assert.Equal(t, []float64{1, 2, 4}, offs)

	ps, _ = strictlyMonotone([]float64{0.7, 0.7, 0.7}, []float64{0, 1, 2})
	assert.Len(t, ps, 0)
}

func TestResponseKernelMirrors(t *testing.T) {
	p := demoParams()
	table, err := newPsychTable(p, defaultDim)
	require.NoError(t, err)

	kernel := table.responseKernel()
	n := len(table.p2)
	require.Len(t, kernel[0], n)
	require.Len(t, kernel[1], n)
	for j := 0; j < n; j++ {
		assert.Equal(t, table.p2[n-1-j], kernel[1][j])
		assert.Equal(t, 1-table.p2[n-1-j], kernel[0][j])
	}
}

func TestOptimalQuantileOrder(t *testing.T) {
	p := demoParams()
	table, err := newPsychTable(p, defaultDim)
	require.NoError(t, err)

	order := table.optimalQuantileOrder()
	require.False(t, math.IsNaN(order))
	assert.Greater(t, order, 0.0)
	assert.Less(t, order, 1.0)

	// the fixed entropy formula, evaluated independently
	pL := table.p2[0]
	pH := table.p2[len(table.p2)-1]
	pE := pH*math.Log(pH+machEps) - pL*math.Log(pL+machEps) +
		(1-pH+machEps)*math.Log(1-pH+machEps) - (1-pL+machEps)*math.Log(1-pL+machEps)
	pE = 1 / (1 + math.Exp(pE/(pL-pH)))
	assert.InDelta(t, (pE-pL)/(pH-pL), order, 1e-15)
}
