package solver

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/optimize"
)

func init() {
	Register("nelder-mead", newNelderMead)
}

const (
	// penaltyWeight scales the quadratic constraint penalty. Large
	// enough that residual violations at a converged optimum stay well
	// below feasTol for objectives of moderate magnitude.
	penaltyWeight = 1e9

	// feasTol is the violation the backend still reports as feasible.
	feasTol = 1e-6
)

// nelderMead is a derivative-free in-process backend: multi-start
// Nelder-Mead with a quadratic penalty for constraints. It needs the
// compiled Eval forms on the request; the algebraic strings are ignored.
type nelderMead struct {
	seed   int64
	logger *zap.Logger
}

func newNelderMead(opts Options) (Solver, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &nelderMead{seed: seed, logger: logger}, nil
}

func (s *nelderMead) Name() string { return "nelder-mead" }

// Concurrent is true: every Solve call builds its own random source and
// scratch state.
func (s *nelderMead) Concurrent() bool { return true }

func (s *nelderMead) Solve(ctx context.Context, req *Request) (*Result, error) {
	const op = "nelderMead.Solve"

	if req.Objective.Eval == nil {
		return nil, NewErrorf("request has no compiled objective").
			WithOp(op).WithBackend("nelder-mead")
	}
	for _, c := range req.Constraints {
		if c.Eval == nil {
			return nil, NewErrorf("constraint %s has no compiled form", c.Name).
				WithOp(op).WithBackend("nelder-mead")
		}
	}
	nDims := len(req.Variables)
	if nDims == 0 {
		return nil, NewErrorf("request has no variables").
			WithOp(op).WithBackend("nelder-mead")
	}

	bounds := make([][2]float64, nDims)
	for i, v := range req.Variables {
		bounds[i] = [2]float64{v.Lower, v.Upper}
	}

	// Penalized objective. The candidate is projected into the box and
	// both the projection distance and any constraint violations are
	// charged quadratically, so the search space stays unconstrained as
	// Nelder-Mead requires. The incoming slice is never mutated; gonum
	// owns it.
	penalized := func(x []float64) float64 {
		pt := make([]float64, len(x))
		box := 0.0
		for i := range x {
			lo, hi := bounds[i][0], bounds[i][1]
			v := x[i]
			if v < lo {
				box += (lo - v) * (lo - v)
				v = lo
			} else if v > hi {
				box += (v - hi) * (v - hi)
				v = hi
			}
			pt[i] = v
		}
		f := req.Objective.Eval(pt)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return math.Inf(1)
		}
		f += penaltyWeight * box
		for _, c := range req.Constraints {
			v := constraintViolation(c, pt)
			if v > 0 {
				f += penaltyWeight * v * v
			}
		}
		return f
	}

	// Deterministic per call: the same request and seed walk the same
	// start points, so sweeps are reproducible regardless of worker
	// scheduling.
	rng := rand.New(rand.NewSource(s.seed))

	nStarts := 8 + int(4*math.Sqrt(float64(nDims)))
	starts := make([][]float64, nStarts)
	starts[0] = make([]float64, nDims)
	for j := 0; j < nDims; j++ {
		starts[0][j] = (bounds[j][0] + bounds[j][1]) / 2
	}
	for i := 1; i < nStarts; i++ {
		starts[i] = make([]float64, nDims)
		for j := 0; j < nDims; j++ {
			lo, hi := bounds[j][0], bounds[j][1]
			starts[i][j] = lo + rng.Float64()*(hi-lo)
		}
	}

	gonumProblem := optimize.Problem{Func: penalized}
	settings := &optimize.Settings{
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Relative:   1e-10,
			Iterations: 400,
		},
	}

	bestX := make([]float64, nDims)
	bestVal := math.Inf(1)
	for _, start := range starts {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		method := &optimize.NelderMead{
			Reflection:  1.0,
			Expansion:   2.0,
			Contraction: 0.5,
			Shrink:      0.5,
			SimplexSize: 0.2,
		}
		result, err := optimize.Minimize(gonumProblem, append([]float64(nil), start...), settings, method)
		if err == nil && result.F < bestVal {
			bestVal = result.F
			copy(bestX, result.X)
		}
	}

	if math.IsInf(bestVal, 1) {
		return &Result{
			Status:     StatusError,
			Diagnostic: "no restart converged to a finite value",
		}, nil
	}

	for i := range bestX {
		bestX[i] = math.Max(bounds[i][0], math.Min(bestX[i], bounds[i][1]))
	}

	// Report infeasibility from the unpenalized model: a large penalty
	// can hide a genuinely empty feasible set behind a finite value.
	worstName, worst := "", 0.0
	for _, c := range req.Constraints {
		if v := constraintViolation(c, bestX); v > worst {
			worst = v
			worstName = c.Name
		}
	}
	if worst > feasTol {
		return &Result{
			Status:     StatusInfeasible,
			Diagnostic: fmt.Sprintf("best point violates %s by %.3g", worstName, worst),
		}, nil
	}

	objective := req.Objective.Eval(bestX)
	s.logger.Debug("nelder-mead solve finished",
		zap.String("problem", req.Problem),
		zap.Int("restarts", nStarts),
		zap.Float64("objective", objective),
	)
	return &Result{
		Status:    StatusOptimal,
		Point:     bestX,
		Objective: objective,
	}, nil
}

// constraintViolation measures how far x is from satisfying c, zero when
// satisfied. Unknown operators count as infinitely violated so a typo in
// a hand-built request cannot silently pass.
func constraintViolation(c ConstraintSpec, x []float64) float64 {
	g := c.Eval(x)
	switch c.Op {
	case ">=":
		return math.Max(0, c.Bound-g)
	case "<=":
		return math.Max(0, g-c.Bound)
	case "=":
		return math.Abs(g - c.Bound)
	default:
		return math.Inf(1)
	}
}
