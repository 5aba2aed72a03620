// Package pareto assembles approximate Pareto fronts from the results
// of scalarized solver sweeps.
package pareto

import (
	"errors"
	"sort"

	"gonum.org/v1/gonum/floats/scalar"
)

const (
	// DefaultDominanceTol is the objective-space distance under which
	// two points count as the same point.
	DefaultDominanceTol = 1e-9
	// DefaultCrossCheckTol is the relative disagreement between the
	// solver's reported objective and the model's own evaluation that
	// triggers a warning.
	DefaultCrossCheckTol = 1e-6
)

// ErrEmptyFront means no scan step produced a feasible optimum, so
// there is no front to report.
var ErrEmptyFront = errors.New("pareto: no scan step produced a feasible optimum")

// Point is one solution on the front: both objective values and the
// decision vector that attains them.
type Point struct {
	O1 float64   `json:"o1"`
	O2 float64   `json:"o2"`
	X  []float64 `json:"x"`
}

// Dominates reports whether p weakly dominates q: no worse in either
// objective and strictly better in at least one. Only the objective
// pair matters; the decision vectors play no part.
func (p Point) Dominates(q Point) bool {
	return p.O1 <= q.O1 && p.O2 <= q.O2 && (p.O1 < q.O1 || p.O2 < q.O2)
}

// Front is a nondominated point set sorted by O1 ascending, ties by O2
// ascending.
type Front []Point

// NewFront reduces raw candidates to a front: objective pairs closer
// than tol collapse to a single point, dominated points drop out, and
// the rest are sorted. Candidates are sorted before deduplication, so
// the result does not depend on the order solutions arrived in. A tol
// of zero or below selects DefaultDominanceTol.
func NewFront(points []Point, tol float64) Front {
	if len(points) == 0 {
		return nil
	}
	if tol <= 0 {
		tol = DefaultDominanceTol
	}

	pts := make([]Point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool { return lessPoint(pts[i], pts[j]) })

	uniq := make([]Point, 0, len(pts))
	for _, p := range pts {
		if n := len(uniq); n > 0 {
			last := uniq[n-1]
			if scalar.EqualWithinAbs(p.O1, last.O1, tol) && scalar.EqualWithinAbs(p.O2, last.O2, tol) {
				continue
			}
		}
		uniq = append(uniq, p)
	}

	front := make(Front, 0, len(uniq))
	for i, p := range uniq {
		dominated := false
		for j, q := range uniq {
			if i != j && q.Dominates(p) {
				dominated = true
				break
			}
		}
		if !dominated {
			front = append(front, p)
		}
	}
	return front
}

// lessPoint orders by the objective pair, then by the decision vector,
// so equal objective pairs with different solutions still sort
// deterministically.
func lessPoint(a, b Point) bool {
	if a.O1 != b.O1 {
		return a.O1 < b.O1
	}
	if a.O2 != b.O2 {
		return a.O2 < b.O2
	}
	for i := range a.X {
		if i >= len(b.X) {
			return false
		}
		if a.X[i] != b.X[i] {
			return a.X[i] < b.X[i]
		}
	}
	return len(a.X) < len(b.X)
}
