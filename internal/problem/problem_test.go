package problem

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVariables() []Variable {
	return []Variable{
		{Name: "a", Lower: 0, Upper: 1},
		{Name: "b", Lower: 0, Upper: 1},
	}
}

func testObjectives() []Objective {
	return []Objective{
		{Name: "o1", Expr: "a", Eval: func(x []float64) float64 { return x[0] }},
		{Name: "o2", Expr: "b", Eval: func(x []float64) float64 { return x[1] }},
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		problem string
		vars    []Variable
		objs    []Objective
		cons    []Constraint
		wantErr string
	}{
		{
			name:    "valid",
			problem: "demo",
			vars:    testVariables(),
			objs:    testObjectives(),
		},
		{
			name:    "empty name",
			problem: "",
			vars:    testVariables(),
			objs:    testObjectives(),
			wantErr: "name must not be empty",
		},
		{
			name:    "wrong variable count",
			problem: "demo",
			vars:    testVariables()[:1],
			objs:    testObjectives(),
			wantErr: "expected 2 variables",
		},
		{
			name:    "wrong objective count",
			problem: "demo",
			vars:    testVariables(),
			objs:    testObjectives()[:1],
			wantErr: "expected 2 objectives",
		},
		{
			name:    "inverted bounds",
			problem: "demo",
			vars: []Variable{
				{Name: "a", Lower: 1, Upper: 0},
				{Name: "b", Lower: 0, Upper: 1},
			},
			objs:    testObjectives(),
			wantErr: "empty range",
		},
		{
			name:    "objective without evaluator",
			problem: "demo",
			vars:    testVariables(),
			objs: []Objective{
				{Name: "o1", Expr: "a"},
				{Name: "o2", Expr: "b", Eval: func(x []float64) float64 { return x[1] }},
			},
			wantErr: "no evaluator",
		},
		{
			name:    "constraint without evaluator",
			problem: "demo",
			vars:    testVariables(),
			objs:    testObjectives(),
			cons:    []Constraint{{Name: "c", Expr: "a", Rel: LessEqual, Bound: 1}},
			wantErr: "no evaluator",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.problem, tt.vars, tt.objs, tt.cons)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, p)
			assert.Equal(t, tt.problem, p.Name)
		})
	}
}

func TestRelationString(t *testing.T) {
	assert.Equal(t, ">=", GreaterEqual.String())
	assert.Equal(t, "<=", LessEqual.String())
	assert.Equal(t, "=", Equal.String())
}

func TestConstraintSatisfied(t *testing.T) {
	c := Constraint{
		Name:  "c",
		Rel:   GreaterEqual,
		Bound: 10,
		Eval:  func(x []float64) float64 { return x[0] },
	}

	assert.True(t, c.Satisfied([]float64{10.5}, 1e-6))
	assert.True(t, c.Satisfied([]float64{10}, 1e-6), "boundary point is feasible")
	assert.True(t, c.Satisfied([]float64{10 - 1e-9}, 1e-6), "tolerance absorbs solver noise")
	assert.False(t, c.Satisfied([]float64{9}, 1e-6))

	le := Constraint{Rel: LessEqual, Bound: 2, Eval: func(x []float64) float64 { return x[0] }}
	assert.True(t, le.Satisfied([]float64{1.5}, 1e-6))
	assert.False(t, le.Satisfied([]float64{2.1}, 1e-6))

	eq := Constraint{Rel: Equal, Bound: 1, Eval: func(x []float64) float64 { return x[0] }}
	assert.True(t, eq.Satisfied([]float64{1 + 1e-8}, 1e-6))
	assert.False(t, eq.Satisfied([]float64{1.01}, 1e-6))
}

func TestConstraintViolation(t *testing.T) {
	c := Constraint{Rel: GreaterEqual, Bound: 10, Eval: func(x []float64) float64 { return x[0] }}
	assert.Zero(t, c.Violation([]float64{11}))
	assert.InDelta(t, 3.0, c.Violation([]float64{7}), 1e-12)

	le := Constraint{Rel: LessEqual, Bound: 2, Eval: func(x []float64) float64 { return x[0] }}
	assert.Zero(t, le.Violation([]float64{1}))
	assert.InDelta(t, 0.5, le.Violation([]float64{2.5}), 1e-12)
}

func TestEvaluate(t *testing.T) {
	p := Cone()

	r, h := 5.0, 10.0
	slant := math.Sqrt(r*r + h*h)
	o1, o2, err := p.Evaluate([]float64{r, h})
	require.NoError(t, err)
	assert.InDelta(t, math.Pi*r*slant, o1, 1e-9)
	assert.InDelta(t, math.Pi*r*(r+slant), o2, 1e-9)
}

func TestEvaluateWrongDimension(t *testing.T) {
	p := Cone()
	_, _, err := p.Evaluate([]float64{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "coordinates")
}

func TestEvaluateDomainError(t *testing.T) {
	p, err := New("partial",
		testVariables(),
		[]Objective{
			{Name: "root", Expr: "sqrt(a - 5)", Eval: func(x []float64) float64 { return math.Sqrt(x[0] - 5) }},
			{Name: "flat", Expr: "b", Eval: func(x []float64) float64 { return x[1] }},
		},
		nil,
	)
	require.NoError(t, err)

	_, _, err = p.Evaluate([]float64{0.5, 0.5})
	require.Error(t, err)

	var derr *DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "partial", derr.Problem)
	assert.Equal(t, "root", derr.Objective)
	assert.Equal(t, []float64{0.5, 0.5}, derr.Point)
	assert.Contains(t, derr.Error(), "undefined")
}

func TestFeasible(t *testing.T) {
	p := Cone()

	tests := []struct {
		name string
		x    []float64
		want bool
	}{
		{"comfortably feasible", []float64{5, 10}, true},                      // V ~ 261.8
		{"volume too small", []float64{2, 5}, false},                          // V ~ 20.9
		{"outside radius bound", []float64{11, 10}, false},                    //
		{"negative height", []float64{5, -1}, false},                          //
		{"boundary within tolerance", []float64{5, 10 - 1e-9}, true},          //
		{"wrong dimension", []float64{5}, false},                              //
		{"volume exactly at bound", []float64{5, 600 / (math.Pi * 25)}, true}, // V = 200
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Feasible(tt.x))
		})
	}
}

func TestBounds(t *testing.T) {
	p := Cone()
	assert.Equal(t, [][2]float64{{0, 10}, {0, 20}}, p.Bounds())
}
