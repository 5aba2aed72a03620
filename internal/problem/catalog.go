package problem

import (
	"fmt"
	"math"
	"sort"
)

// Expression strings follow the small algebraic grammar shared with
// external solver executables: variable names, numeric literals, the
// constant pi, + - * / ^ and sqrt().

// Cone is the cone sizing problem: pick base radius r (cm) and height
// h (cm) minimizing both the lateral surface S and the total surface T,
// subject to the cone holding at least 200 cubic centimeters.
func Cone() *Problem {
	slant := func(x []float64) float64 {
		return math.Sqrt(x[0]*x[0] + x[1]*x[1])
	}
	p, err := New("cone",
		[]Variable{
			{Name: "r", Lower: 0, Upper: 10},
			{Name: "h", Lower: 0, Upper: 20},
		},
		[]Objective{
			{
				Name: "lateral_surface",
				Expr: "pi * r * sqrt(r^2 + h^2)",
				Eval: func(x []float64) float64 {
					return math.Pi * x[0] * slant(x)
				},
			},
			{
				Name: "total_surface",
				Expr: "pi * r * (r + sqrt(r^2 + h^2))",
				Eval: func(x []float64) float64 {
					return math.Pi * x[0] * (x[0] + slant(x))
				},
			},
		},
		[]Constraint{
			{
				Name:  "volume",
				Expr:  "pi * r^2 * h / 3",
				Rel:   GreaterEqual,
				Bound: 200,
				Eval: func(x []float64) float64 {
					return math.Pi * x[0] * x[0] * x[1] / 3
				},
			},
		},
	)
	if err != nil {
		panic(err)
	}
	p.Description = "cone sizing: minimize lateral and total surface with volume >= 200 cm^3"
	return p
}

// Quadratic is a smooth unconstrained benchmark with a convex front,
// useful for exercising solver backends without constraint handling.
func Quadratic() *Problem {
	p, err := New("quadratic",
		[]Variable{
			{Name: "x", Lower: -2, Upper: 4},
			{Name: "y", Lower: -2, Upper: 4},
		},
		[]Objective{
			{
				Name: "f1",
				Expr: "2*x^2 + y^2",
				Eval: func(x []float64) float64 {
					return 2*x[0]*x[0] + x[1]*x[1]
				},
			},
			{
				Name: "f2",
				Expr: "(x - 1)^2 + 2*(y - 1)^2",
				Eval: func(x []float64) float64 {
					dx, dy := x[0]-1, x[1]-1
					return dx*dx + 2*dy*dy
				},
			},
		},
		nil,
	)
	if err != nil {
		panic(err)
	}
	p.Description = "quadratic benchmark: two convex paraboloids on [-2, 4]^2"
	return p
}

var catalog = map[string]func() *Problem{
	"cone":      Cone,
	"quadratic": Quadratic,
}

// Lookup returns a fresh instance of the named catalog problem.
func Lookup(name string) (*Problem, error) {
	build, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("problem: unknown problem %q (known: %v)", name, Names())
	}
	return build(), nil
}

// Names lists the catalog problems in lexical order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
