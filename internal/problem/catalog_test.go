package problem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	p, err := Lookup("cone")
	require.NoError(t, err)
	assert.Equal(t, "cone", p.Name)
	require.Len(t, p.Constraints, 1)
	assert.Equal(t, GreaterEqual, p.Constraints[0].Rel)
	assert.Equal(t, 200.0, p.Constraints[0].Bound)

	_, err = Lookup("rosenbrock")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown problem")
}

func TestLookupReturnsFreshInstance(t *testing.T) {
	a, err := Lookup("quadratic")
	require.NoError(t, err)
	b, err := Lookup("quadratic")
	require.NoError(t, err)
	require.NotSame(t, a, b)

	a.Variables[0].Upper = 99
	assert.Equal(t, 4.0, b.Variables[0].Upper, "catalog instances must not share state")
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"cone", "quadratic"}, Names())
}

func TestQuadraticObjectives(t *testing.T) {
	p := Quadratic()

	o1, o2, err := p.Evaluate([]float64{0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, o1, 1e-12)
	assert.InDelta(t, 3.0, o2, 1e-12)

	o1, o2, err = p.Evaluate([]float64{1, 1})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, o1, 1e-12)
	assert.InDelta(t, 0.0, o2, 1e-12)

	assert.Empty(t, p.Constraints)
	assert.True(t, p.Feasible([]float64{-2, 4}))
	assert.False(t, p.Feasible([]float64{-2.5, 0}))
}
