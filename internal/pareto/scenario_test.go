package pareto

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaigundersen/Optimization-Project/internal/problem"
	"github.com/shaigundersen/Optimization-Project/internal/scalarize"
	"github.com/shaigundersen/Optimization-Project/internal/solver"
)

// gridSolver minimizes by exhaustive search over an evenly spaced grid.
// Slow and crude, but deterministic and honest: it answers every
// scalarized request from the compiled forms alone, which makes it a
// good oracle for end-to-end sweeps.
type gridSolver struct {
	n int
}

func (g *gridSolver) Name() string     { return "grid" }
func (g *gridSolver) Concurrent() bool { return true }

func (g *gridSolver) Solve(ctx context.Context, req *solver.Request) (*solver.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := g.n
	if n < 2 {
		n = 121
	}
	axes := make([][]float64, len(req.Variables))
	for i, v := range req.Variables {
		axes[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			axes[i][j] = v.Lower + float64(j)*(v.Upper-v.Lower)/float64(n-1)
		}
	}

	best := math.Inf(1)
	var bestPt []float64
	pt := make([]float64, 2)
	for _, x := range axes[0] {
		for _, y := range axes[1] {
			pt[0], pt[1] = x, y
			feasible := true
			for _, c := range req.Constraints {
				if gridViolation(c, pt) > 1e-9 {
					feasible = false
					break
				}
			}
			if !feasible {
				continue
			}
			if v := req.Objective.Eval(pt); v < best {
				best = v
				bestPt = []float64{x, y}
			}
		}
	}
	if bestPt == nil {
		return &solver.Result{Status: solver.StatusInfeasible, Diagnostic: "no feasible grid point"}, nil
	}
	return &solver.Result{Status: solver.StatusOptimal, Point: bestPt, Objective: best}, nil
}

func gridViolation(c solver.ConstraintSpec, x []float64) float64 {
	g := c.Eval(x)
	switch c.Op {
	case ">=":
		return math.Max(0, c.Bound-g)
	case "<=":
		return math.Max(0, g-c.Bound)
	default:
		return math.Abs(g - c.Bound)
	}
}

func assertValidFront(t *testing.T, p *problem.Problem, front Front) {
	t.Helper()
	require.NotEmpty(t, front)
	for i := 1; i < len(front); i++ {
		assert.LessOrEqual(t, front[i-1].O1, front[i].O1, "front must be sorted by O1")
	}
	for i, a := range front {
		for j, b := range front {
			if i != j {
				assert.False(t, a.Dominates(b), "points %d and %d are not mutually nondominated", i, j)
			}
		}
		o1, o2, err := p.Evaluate(a.X)
		require.NoError(t, err)
		assert.InDelta(t, a.O1, o1, 1e-9, "recorded objectives must match the model")
		assert.InDelta(t, a.O2, o2, 1e-9)
		assert.True(t, p.Feasible(a.X), "front point %v must be feasible", a.X)
	}
}

func TestSweepWeightedSumOnQuadratic(t *testing.T) {
	p := problem.Quadratic()
	b := NewBuilder(&gridSolver{}, Options{})

	front, warnings, err := b.Build(context.Background(), p, scalarize.NewWeightedSum(), 11)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assertValidFront(t, p, front)

	// The sweep endpoints are the single-objective optima: f1 bottoms
	// out at (0,0), f2 at (1,1).
	assert.InDelta(t, 0.0, front[0].O1, 1e-2)
	assert.InDelta(t, 3.0, front[0].O2, 1e-2)
	last := front[len(front)-1]
	assert.InDelta(t, 3.0, last.O1, 1e-2)
	assert.InDelta(t, 0.0, last.O2, 1e-2)

	assert.GreaterOrEqual(t, len(front), 5, "intermediate weights should land between the extremes")
	assert.LessOrEqual(t, len(front), 11)
}

func TestSweepEpsilonConstraintOnQuadratic(t *testing.T) {
	p := problem.Quadratic()
	grid := &gridSolver{}
	b := NewBuilder(grid, Options{})

	front, warnings, err := b.Build(context.Background(), p, scalarize.NewEpsilonConstraint(grid), 6)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assertValidFront(t, p, front)

	// eps spans [min f2, f2 at the f1 optimum] = [0, 3]. The loosest
	// step is the unconstrained f1 minimum, the tightest pins f2 to its
	// own optimum.
	assert.InDelta(t, 0.0, front[0].O1, 1e-2)
	assert.InDelta(t, 3.0, front[0].O2, 1e-2)
	last := front[len(front)-1]
	assert.InDelta(t, 3.0, last.O1, 1e-2)
	assert.InDelta(t, 0.0, last.O2, 1e-2)

	assert.GreaterOrEqual(t, len(front), 4)
	assert.LessOrEqual(t, len(front), 6)
}

func TestSweepParallelGridMatchesSequential(t *testing.T) {
	p := problem.Quadratic()

	seq, _, err := NewBuilder(&gridSolver{n: 61}, Options{}).
		Build(context.Background(), p, scalarize.NewWeightedSum(), 9)
	require.NoError(t, err)

	par, _, err := NewBuilder(&gridSolver{n: 61}, Options{Workers: 4}).
		Build(context.Background(), p, scalarize.NewWeightedSum(), 9)
	require.NoError(t, err)

	assert.Equal(t, seq, par)
}

func TestSweepNelderMeadOnCone(t *testing.T) {
	if testing.Short() {
		t.Skip("multi-start sweep is slow")
	}
	p := problem.Cone()
	s, err := solver.Open("nelder-mead", solver.Options{Seed: 3})
	require.NoError(t, err)

	front, warnings, err := NewBuilder(s, Options{}).
		Build(context.Background(), p, scalarize.NewWeightedSum(), 5)
	require.NoError(t, err)
	assertValidFront(t, p, front)
	require.GreaterOrEqual(t, len(front), 2, "the cone trades lateral against total surface")

	// Every front point keeps the volume constraint active or satisfied
	// and stays inside reasonable surface ranges for V >= 200.
	for _, pt := range front {
		assert.Greater(t, pt.O1, 130.0, "lateral surface %v implausibly small", pt.O1)
		assert.Less(t, pt.O1, 170.0, "lateral surface %v implausibly large", pt.O1)
		assert.Greater(t, pt.O2, 195.0)
		assert.Less(t, pt.O2, 245.0)
	}

	// The ends of the sweep disagree: smaller lateral surface costs
	// total surface.
	first, last := front[0], front[len(front)-1]
	assert.Less(t, first.O1, last.O1)
	assert.Greater(t, first.O2, last.O2)

	for _, w := range warnings {
		t.Logf("warning: %+v", w)
	}
}
