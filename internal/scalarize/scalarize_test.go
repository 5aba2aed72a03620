package scalarize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaigundersen/Optimization-Project/internal/problem"
)

func TestLinspace(t *testing.T) {
	tests := []struct {
		name string
		lo   float64
		hi   float64
		n    int
		want []float64
	}{
		{"single value collapses to lo", 2, 9, 1, []float64{2}},
		{"two values are the endpoints", 0, 1, 2, []float64{0, 1}},
		{"five values over unit range", 0, 1, 5, []float64{0, 0.25, 0.5, 0.75, 1}},
		{"degenerate range", 3, 3, 4, []float64{3, 3, 3, 3}},
		{"negative span", -2, 2, 3, []float64{-2, 0, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := linspace(tt.lo, tt.hi, tt.n)
			require.Len(t, got, tt.n)
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-12)
			}
			assert.Equal(t, tt.hi, got[len(got)-1], "upper endpoint must be exact")
		})
	}
}

func TestForName(t *testing.T) {
	ws, err := ForName("weighted-sum", nil)
	require.NoError(t, err)
	assert.Equal(t, "weighted-sum", ws.Name())

	ec, err := ForName("epsilon-constraint", &fakeSolver{})
	require.NoError(t, err)
	assert.Equal(t, "epsilon-constraint", ec.Name())

	_, err = ForName("lexicographic", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown strategy")
}

func TestStrategyNames(t *testing.T) {
	assert.Equal(t, []string{"epsilon-constraint", "weighted-sum"}, StrategyNames())
}

func TestBaseRequest(t *testing.T) {
	p := problem.Cone()
	req := baseRequest(p)

	assert.Equal(t, "cone", req.Problem)
	require.Len(t, req.Variables, 2)
	assert.Equal(t, "r", req.Variables[0].Name)
	assert.Equal(t, 10.0, req.Variables[0].Upper)
	require.Len(t, req.Constraints, 1)
	assert.Equal(t, "volume", req.Constraints[0].Name)
	assert.Equal(t, ">=", req.Constraints[0].Op)
	assert.Equal(t, 200.0, req.Constraints[0].Bound)
	require.NotNil(t, req.Constraints[0].Eval)
	assert.Nil(t, req.Objective.Eval, "objective is the strategy's to fill")
}
