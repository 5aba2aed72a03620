// Package scalarize turns a bi-objective problem into a finite series
// of single-objective solver requests. Each strategy fixes how the two
// objectives are folded or constrained at every step of the sweep.
package scalarize

import (
	"context"
	"fmt"

	"github.com/shaigundersen/Optimization-Project/internal/problem"
	"github.com/shaigundersen/Optimization-Project/internal/solver"
)

// Instance is one scalarized solve in a sweep. Scan is the value of the
// strategy's scan parameter at this step: the weight for weighted-sum,
// the epsilon bound for epsilon-constraint.
type Instance struct {
	Strategy string
	Step     int
	Scan     float64
	Request  *solver.Request
}

// Strategy materializes the full sweep up front. Instances are
// self-contained: solving them in any order, or again after a failure,
// yields the same front.
type Strategy interface {
	Name() string
	Instances(ctx context.Context, p *problem.Problem, resolution int) ([]Instance, error)
}

// ForName returns the named strategy. The solver is used by strategies
// that need preparatory solves of their own, such as epsilon-constraint
// bounding the scan range.
func ForName(name string, s solver.Solver) (Strategy, error) {
	switch name {
	case "weighted-sum":
		return NewWeightedSum(), nil
	case "epsilon-constraint":
		return NewEpsilonConstraint(s), nil
	default:
		return nil, fmt.Errorf("scalarize: unknown strategy %q (known: %v)", name, StrategyNames())
	}
}

// StrategyNames lists the available strategies in lexical order.
func StrategyNames() []string {
	return []string{"epsilon-constraint", "weighted-sum"}
}

// baseRequest converts the problem's variables and constraints into
// wire form. The objective is left for the strategy to fill in.
func baseRequest(p *problem.Problem) *solver.Request {
	vars := make([]solver.VariableSpec, len(p.Variables))
	for i, v := range p.Variables {
		vars[i] = solver.VariableSpec{Name: v.Name, Lower: v.Lower, Upper: v.Upper}
	}
	var cons []solver.ConstraintSpec
	for _, c := range p.Constraints {
		cons = append(cons, solver.ConstraintSpec{
			Name:  c.Name,
			Expr:  c.Expr,
			Op:    c.Rel.String(),
			Bound: c.Bound,
			Eval:  c.Eval,
		})
	}
	return &solver.Request{
		Problem:     p.Name,
		Variables:   vars,
		Constraints: cons,
	}
}

// linspace returns n evenly spaced values from lo to hi, both ends
// included. n = 1 collapses to lo. The last element is set to hi
// exactly so accumulated rounding never clips the endpoint.
func linspace(lo, hi float64, n int) []float64 {
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}
