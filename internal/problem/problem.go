// Package problem defines bi-objective continuous optimization problems:
// two decision variables, two objectives to minimize, and algebraic
// inequality constraints over the decision space.
package problem

import (
	"fmt"
	"math"
)

// FeasibilityTol is the absolute slack allowed when checking constraint
// satisfaction. Solver backends report points that sit numerically on a
// constraint boundary, so exact comparison would reject valid optima.
const FeasibilityTol = 1e-6

// Relation is the comparison operator of a constraint.
type Relation int

const (
	GreaterEqual Relation = iota
	LessEqual
	Equal
)

// String returns the operator in the form used on the solver wire.
func (r Relation) String() string {
	switch r {
	case GreaterEqual:
		return ">="
	case LessEqual:
		return "<="
	case Equal:
		return "="
	default:
		return fmt.Sprintf("Relation(%d)", int(r))
	}
}

// Variable is a bounded decision variable.
type Variable struct {
	Name  string
	Lower float64
	Upper float64
}

// Objective is a scalar function of the decision vector. Expr is the
// algebraic form handed to external solvers; Eval is the in-process
// implementation of the same function.
type Objective struct {
	Name string
	Expr string
	Eval func(x []float64) float64
}

// Constraint restricts the decision space: Eval(x) Rel Bound.
type Constraint struct {
	Name  string
	Expr  string
	Rel   Relation
	Bound float64
	Eval  func(x []float64) float64
}

// Satisfied reports whether x meets the constraint within tol.
func (c Constraint) Satisfied(x []float64, tol float64) bool {
	g := c.Eval(x)
	switch c.Rel {
	case GreaterEqual:
		return g >= c.Bound-tol
	case LessEqual:
		return g <= c.Bound+tol
	case Equal:
		return math.Abs(g-c.Bound) <= tol
	default:
		return false
	}
}

// Violation returns how far x is from satisfying the constraint.
// Zero means satisfied exactly.
func (c Constraint) Violation(x []float64) float64 {
	g := c.Eval(x)
	switch c.Rel {
	case GreaterEqual:
		return math.Max(0, c.Bound-g)
	case LessEqual:
		return math.Max(0, g-c.Bound)
	case Equal:
		return math.Abs(g - c.Bound)
	default:
		return math.Inf(1)
	}
}

// Problem is a bi-objective minimization problem over two variables.
type Problem struct {
	Name        string
	Description string
	Variables   []Variable
	Objectives  []Objective
	Constraints []Constraint
}

// New validates and returns a problem. Both objectives are minimized.
func New(name string, vars []Variable, objs []Objective, cons []Constraint) (*Problem, error) {
	if name == "" {
		return nil, fmt.Errorf("problem: name must not be empty")
	}
	if len(vars) != 2 {
		return nil, fmt.Errorf("problem %s: expected 2 variables, got %d", name, len(vars))
	}
	if len(objs) != 2 {
		return nil, fmt.Errorf("problem %s: expected 2 objectives, got %d", name, len(objs))
	}
	for _, v := range vars {
		if v.Name == "" {
			return nil, fmt.Errorf("problem %s: variable with empty name", name)
		}
		if !(v.Lower < v.Upper) {
			return nil, fmt.Errorf("problem %s: variable %s has empty range [%v, %v]", name, v.Name, v.Lower, v.Upper)
		}
	}
	for _, o := range objs {
		if o.Eval == nil {
			return nil, fmt.Errorf("problem %s: objective %s has no evaluator", name, o.Name)
		}
	}
	for _, c := range cons {
		if c.Eval == nil {
			return nil, fmt.Errorf("problem %s: constraint %s has no evaluator", name, c.Name)
		}
	}
	return &Problem{
		Name:        name,
		Variables:   vars,
		Objectives:  objs,
		Constraints: cons,
	}, nil
}

// DomainError reports an objective that evaluated to NaN or Inf at a
// point inside the variable bounds. It indicates a modeling defect, not
// a solver failure.
type DomainError struct {
	Problem   string
	Objective string
	Point     []float64
	Value     float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("problem %s: objective %s is undefined at %v (got %v)",
		e.Problem, e.Objective, e.Point, e.Value)
}

// Evaluate computes both objectives at x. It returns a DomainError when
// either objective is NaN or infinite at x.
func (p *Problem) Evaluate(x []float64) (o1, o2 float64, err error) {
	if len(x) != len(p.Variables) {
		return 0, 0, fmt.Errorf("problem %s: point has %d coordinates, want %d", p.Name, len(x), len(p.Variables))
	}
	vals := make([]float64, len(p.Objectives))
	for i, obj := range p.Objectives {
		v := obj.Eval(x)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, &DomainError{
				Problem:   p.Name,
				Objective: obj.Name,
				Point:     append([]float64(nil), x...),
				Value:     v,
			}
		}
		vals[i] = v
	}
	return vals[0], vals[1], nil
}

// Feasible reports whether x lies inside the variable bounds and
// satisfies every constraint within FeasibilityTol.
func (p *Problem) Feasible(x []float64) bool {
	if len(x) != len(p.Variables) {
		return false
	}
	for i, v := range p.Variables {
		if x[i] < v.Lower-FeasibilityTol || x[i] > v.Upper+FeasibilityTol {
			return false
		}
	}
	for _, c := range p.Constraints {
		if !c.Satisfied(x, FeasibilityTol) {
			return false
		}
	}
	return true
}

// Bounds returns the variable ranges as [lower, upper] pairs, in
// variable order.
func (p *Problem) Bounds() [][2]float64 {
	b := make([][2]float64, len(p.Variables))
	for i, v := range p.Variables {
		b[i] = [2]float64{v.Lower, v.Upper}
	}
	return b
}
