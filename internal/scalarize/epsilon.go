package scalarize

import (
	"context"
	"fmt"

	"github.com/shaigundersen/Optimization-Project/internal/problem"
	"github.com/shaigundersen/Optimization-Project/internal/solver"
)

// EpsilonConstraintName is the name of the constraint the strategy
// appends to each request. Solver logs and warnings refer to it.
const EpsilonConstraintName = "epsilon"

// EpsilonConstraint sweeps minimize f1 subject to f2 <= eps. The eps
// range is bounded by two preparatory single-objective solves: the
// best reachable f2 on one end and f2 at the f1 optimum on the other.
// Unlike weighted-sum it can reach non-convex stretches of the front.
type EpsilonConstraint struct {
	solver solver.Solver
}

// NewEpsilonConstraint returns the epsilon-constraint strategy backed
// by the given solver for its preparatory solves.
func NewEpsilonConstraint(s solver.Solver) *EpsilonConstraint {
	return &EpsilonConstraint{solver: s}
}

func (ec *EpsilonConstraint) Name() string { return "epsilon-constraint" }

// Instances runs the two extreme solves, spans eps across the observed
// f2 range with both ends included, and builds one request per eps. A
// resolution of 1 uses the tight end of the range alone. Failure of
// either extreme solve fails the whole strategy: without the span there
// is no sweep to run.
func (ec *EpsilonConstraint) Instances(ctx context.Context, p *problem.Problem, resolution int) ([]Instance, error) {
	if resolution < 1 {
		return nil, fmt.Errorf("scalarize: resolution must be at least 1, got %d", resolution)
	}

	f1, f2 := p.Objectives[0], p.Objectives[1]

	pointAtF2, err := ec.solveExtreme(ctx, p, f2)
	if err != nil {
		return nil, err
	}
	pointAtF1, err := ec.solveExtreme(ctx, p, f1)
	if err != nil {
		return nil, err
	}

	_, epsMin, err := p.Evaluate(pointAtF2)
	if err != nil {
		return nil, fmt.Errorf("scalarize: evaluating %s optimum: %w", f2.Name, err)
	}
	_, epsMax, err := p.Evaluate(pointAtF1)
	if err != nil {
		return nil, fmt.Errorf("scalarize: evaluating %s optimum: %w", f1.Name, err)
	}
	// A noisy backend can report extremes out of order; the sweep only
	// cares about the interval, so normalize. A degenerate interval
	// yields identical instances that the front later collapses.
	if epsMax < epsMin {
		epsMin, epsMax = epsMax, epsMin
	}

	instances := make([]Instance, 0, resolution)
	for i, eps := range linspace(epsMin, epsMax, resolution) {
		req := baseRequest(p)
		req.Objective = solver.ObjectiveSpec{
			Expr:  f1.Expr,
			Sense: solver.SenseMinimize,
			Eval:  f1.Eval,
		}
		req.Constraints = append(req.Constraints, solver.ConstraintSpec{
			Name:  EpsilonConstraintName,
			Expr:  f2.Expr,
			Op:    "<=",
			Bound: eps,
			Eval:  f2.Eval,
		})
		instances = append(instances, Instance{
			Strategy: ec.Name(),
			Step:     i,
			Scan:     eps,
			Request:  req,
		})
	}
	return instances, nil
}

// solveExtreme minimizes a single objective over the problem's own
// constraints. Transient solver failures get one retry, matching how
// sweep steps are treated; a second failure is fatal here because the
// eps range cannot be bounded without both extremes.
func (ec *EpsilonConstraint) solveExtreme(ctx context.Context, p *problem.Problem, obj problem.Objective) ([]float64, error) {
	req := baseRequest(p)
	req.Objective = solver.ObjectiveSpec{
		Expr:  obj.Expr,
		Sense: solver.SenseMinimize,
		Eval:  obj.Eval,
	}

	res, err := ec.solver.Solve(ctx, req)
	if err == nil && res.Status == solver.StatusError {
		res, err = ec.solver.Solve(ctx, req)
	}
	if err != nil {
		return nil, fmt.Errorf("scalarize: extreme solve for %s: %w", obj.Name, err)
	}
	if res.Status != solver.StatusOptimal {
		return nil, fmt.Errorf("scalarize: extreme solve for %s returned %s: %s", obj.Name, res.Status, res.Diagnostic)
	}
	return res.Point, nil
}
