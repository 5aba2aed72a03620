package scalarize

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shaigundersen/Optimization-Project/internal/problem"
	"github.com/shaigundersen/Optimization-Project/internal/solver"
)

// WeightedSum sweeps a convex blend of the two objectives:
// minimize w*f1 + (1-w)*f2 for w evenly spaced over [0, 1], endpoints
// included. The endpoints are the two single-objective optima. Points
// on non-convex stretches of the front are unreachable by any weight;
// that is inherent to the method, not a defect of the sweep.
type WeightedSum struct{}

// NewWeightedSum returns the weighted-sum strategy.
func NewWeightedSum() *WeightedSum {
	return &WeightedSum{}
}

func (ws *WeightedSum) Name() string { return "weighted-sum" }

// Instances builds one request per weight. A resolution of 1 uses the
// single weight 0.5, an equal blend, rather than either endpoint.
func (ws *WeightedSum) Instances(_ context.Context, p *problem.Problem, resolution int) ([]Instance, error) {
	if resolution < 1 {
		return nil, fmt.Errorf("scalarize: resolution must be at least 1, got %d", resolution)
	}

	var weights []float64
	if resolution == 1 {
		weights = []float64{0.5}
	} else {
		weights = linspace(0, 1, resolution)
	}

	f1, f2 := p.Objectives[0], p.Objectives[1]
	instances := make([]Instance, 0, len(weights))
	for i, w := range weights {
		w := w
		req := baseRequest(p)
		req.Objective = solver.ObjectiveSpec{
			Expr:  fmt.Sprintf("%s*(%s) + %s*(%s)", formatWeight(w), f1.Expr, formatWeight(1-w), f2.Expr),
			Sense: solver.SenseMinimize,
			Eval: func(x []float64) float64 {
				return w*f1.Eval(x) + (1-w)*f2.Eval(x)
			},
		}
		instances = append(instances, Instance{
			Strategy: ws.Name(),
			Step:     i,
			Scan:     w,
			Request:  req,
		})
	}
	return instances, nil
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'g', -1, 64)
}
