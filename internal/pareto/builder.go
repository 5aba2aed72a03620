package pareto

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/shaigundersen/Optimization-Project/internal/logging"
	"github.com/shaigundersen/Optimization-Project/internal/problem"
	"github.com/shaigundersen/Optimization-Project/internal/scalarize"
	"github.com/shaigundersen/Optimization-Project/internal/solver"
	"github.com/shaigundersen/Optimization-Project/internal/telemetry"
)

// Warning kinds.
const (
	// WarnSolverError marks a scan step that still failed after its
	// retry.
	WarnSolverError = "solver-error"
	// WarnObjectiveMismatch marks a recorded point whose solver-reported
	// objective disagrees with the model's own evaluation.
	WarnObjectiveMismatch = "objective-mismatch"
	// WarnUndefinedObjective marks a solver point at which the model
	// objectives are NaN or infinite. It points at a modeling defect.
	WarnUndefinedObjective = "undefined-objective"
)

// Warning records a non-fatal irregularity at one scan step. The sweep
// carries on; the warning surfaces in the report.
type Warning struct {
	Strategy string  `json:"strategy"`
	Step     int     `json:"step"`
	Scan     float64 `json:"scan"`
	Kind     string  `json:"kind"`
	Detail   string  `json:"detail"`
}

// Options configures a Builder. Zero values select the defaults.
type Options struct {
	// Workers is the number of scan steps solved concurrently. One
	// means sequential.
	Workers int
	// DominanceTol merges near-identical objective pairs.
	DominanceTol float64
	// CrossCheckTol bounds the accepted relative disagreement between
	// solver-reported and model-evaluated objectives.
	CrossCheckTol float64
	Logger        *logging.Logger
	Metrics       *telemetry.Metrics
}

// Builder runs a scalarization sweep against a solver and reduces the
// results to a front.
type Builder struct {
	solver        solver.Solver
	workers       int
	dominanceTol  float64
	crossCheckTol float64
	logger        *logging.Logger
	metrics       *telemetry.Metrics
}

// NewBuilder returns a Builder on the given solver. The solver is gated
// when it does not support concurrent calls, so raising Workers is
// always safe.
func NewBuilder(s solver.Solver, opts Options) *Builder {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	dominanceTol := opts.DominanceTol
	if dominanceTol <= 0 {
		dominanceTol = DefaultDominanceTol
	}
	crossCheckTol := opts.CrossCheckTol
	if crossCheckTol <= 0 {
		crossCheckTol = DefaultCrossCheckTol
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Builder{
		solver:        solver.Gated(s),
		workers:       workers,
		dominanceTol:  dominanceTol,
		crossCheckTol: crossCheckTol,
		logger:        logger,
		metrics:       opts.Metrics,
	}
}

// stepResult is the outcome of one scan step: a candidate point, or
// nothing, plus any warnings raised along the way.
type stepResult struct {
	point    *Point
	warnings []Warning
}

// Build materializes the strategy's instances, solves every step, and
// reduces the surviving points to a front.
//
// Per-step failures never abort the sweep: a step that still fails
// after one retry turns into a warning, an infeasible step is simply
// skipped. The error return is reserved for conditions that make the
// whole sweep meaningless: the strategy failing to produce instances,
// context cancellation, or every step coming back empty, which
// surfaces as ErrEmptyFront alongside the collected warnings.
func (b *Builder) Build(ctx context.Context, p *problem.Problem, strategy scalarize.Strategy, resolution int) (Front, []Warning, error) {
	instances, err := strategy.Instances(ctx, p, resolution)
	if err != nil {
		b.metrics.Sweep(telemetry.SweepFailed)
		return nil, nil, err
	}

	results := make([]stepResult, len(instances))
	if b.workers == 1 || len(instances) == 1 {
		err = b.runSequential(ctx, p, instances, results)
	} else {
		err = b.runParallel(ctx, p, instances, results)
	}
	if err != nil {
		b.metrics.Sweep(telemetry.SweepFailed)
		return nil, nil, err
	}

	var warnings []Warning
	var candidates []Point
	for _, r := range results {
		warnings = append(warnings, r.warnings...)
		if r.point != nil {
			candidates = append(candidates, *r.point)
		}
	}

	if len(candidates) == 0 {
		b.metrics.Sweep(telemetry.SweepEmpty)
		return nil, warnings, ErrEmptyFront
	}

	front := NewFront(candidates, b.dominanceTol)
	b.metrics.FrontSize(len(front))
	b.metrics.Sweep(telemetry.SweepBuilt)
	b.logger.Info("front built", map[string]interface{}{
		"problem":    p.Name,
		"strategy":   strategy.Name(),
		"steps":      len(instances),
		"solved":     len(candidates),
		"front_size": len(front),
		"warnings":   len(warnings),
	})
	return front, warnings, nil
}

func (b *Builder) runSequential(ctx context.Context, p *problem.Problem, instances []scalarize.Instance, results []stepResult) error {
	for i := range instances {
		r, err := b.runStep(ctx, p, &instances[i])
		if err != nil {
			return err
		}
		results[i] = r
	}
	return nil
}

func (b *Builder) runParallel(ctx context.Context, p *problem.Problem, instances []scalarize.Instance, results []stepResult) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := b.workers
	if workers > len(instances) {
		workers = len(instances)
	}

	jobs := make(chan int)
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				r, err := b.runStep(ctx, p, &instances[i])
				if err != nil {
					errOnce.Do(func() {
						firstErr = err
						cancel()
					})
					return
				}
				results[i] = r
			}
		}()
	}

feed:
	for i := range instances {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// runStep solves one instance. A transient failure, including an
// adapter error that is not a cancellation, gets exactly one retry.
// The returned error is non-nil only when the sweep must stop.
func (b *Builder) runStep(ctx context.Context, p *problem.Problem, inst *scalarize.Instance) (stepResult, error) {
	stepLogger := b.logger.WithFields(map[string]interface{}{
		"strategy": inst.Strategy,
		"step":     inst.Step,
		"scan":     inst.Scan,
	})

	res, err := b.solveOnce(ctx, inst)
	if err != nil {
		return stepResult{}, err
	}
	if res.Status == solver.StatusError {
		stepLogger.Debug("scan step failed, retrying once", map[string]interface{}{
			"diagnostic": res.Diagnostic,
		})
		res, err = b.solveOnce(ctx, inst)
		if err != nil {
			return stepResult{}, err
		}
		if res.Status == solver.StatusError {
			b.metrics.Step(telemetry.StepFailed)
			stepLogger.Warn("scan step dropped after retry", map[string]interface{}{
				"diagnostic": res.Diagnostic,
			})
			return stepResult{warnings: []Warning{{
				Strategy: inst.Strategy,
				Step:     inst.Step,
				Scan:     inst.Scan,
				Kind:     WarnSolverError,
				Detail:   fmt.Sprintf("failed after retry: %s", res.Diagnostic),
			}}}, nil
		}
	}

	switch res.Status {
	case solver.StatusInfeasible:
		b.metrics.Step(telemetry.StepInfeasible)
		stepLogger.Debug("scan step infeasible", map[string]interface{}{
			"diagnostic": res.Diagnostic,
		})
		return stepResult{}, nil

	case solver.StatusOptimal:
		return b.recordPoint(p, inst, res, stepLogger)

	default:
		// Backends only emit the three statuses; anything else is an
		// adapter bug worth stopping for.
		return stepResult{}, solver.NewErrorf("unexpected status %q from backend %s", res.Status, b.solver.Name())
	}
}

// solveOnce performs a single solver call with timing and metrics.
// Adapter errors other than cancellation are folded into a StatusError
// result so that the retry path treats them like any other transient
// failure.
func (b *Builder) solveOnce(ctx context.Context, inst *scalarize.Instance) (*solver.Result, error) {
	start := time.Now()
	res, err := b.solver.Solve(ctx, inst.Request)
	elapsed := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			b.metrics.SolverCall(b.solver.Name(), "cancelled", elapsed)
			return nil, ctx.Err()
		}
		b.metrics.SolverCall(b.solver.Name(), "adapter-error", elapsed)
		return &solver.Result{Status: solver.StatusError, Diagnostic: err.Error()}, nil
	}
	b.metrics.SolverCall(b.solver.Name(), string(res.Status), elapsed)
	return res, nil
}

// recordPoint re-evaluates the model objectives at the solver's point,
// cross-checks them against what the solver reported, and emits the
// candidate. Mismatches warn but keep the point: the model evaluation
// is authoritative.
func (b *Builder) recordPoint(p *problem.Problem, inst *scalarize.Instance, res *solver.Result, stepLogger *logging.Logger) (stepResult, error) {
	warn := func(kind, detail string) Warning {
		return Warning{
			Strategy: inst.Strategy,
			Step:     inst.Step,
			Scan:     inst.Scan,
			Kind:     kind,
			Detail:   detail,
		}
	}

	o1, o2, err := p.Evaluate(res.Point)
	if err != nil {
		b.metrics.Step(telemetry.StepFailed)
		stepLogger.Warn("model objectives undefined at solver point", map[string]interface{}{
			"error": err.Error(),
		})
		return stepResult{warnings: []Warning{warn(WarnUndefinedObjective, err.Error())}}, nil
	}

	var warnings []Warning
	if local := inst.Request.Objective.Eval(res.Point); relDiff(local, res.Objective) > b.crossCheckTol {
		warnings = append(warnings, warn(WarnObjectiveMismatch,
			fmt.Sprintf("solver reported scalar %g, model evaluates %g", res.Objective, local)))
	}
	if len(res.Objectives) == 2 {
		if relDiff(res.Objectives[0], o1) > b.crossCheckTol || relDiff(res.Objectives[1], o2) > b.crossCheckTol {
			warnings = append(warnings, warn(WarnObjectiveMismatch,
				fmt.Sprintf("solver reported objectives (%g, %g), model evaluates (%g, %g)",
					res.Objectives[0], res.Objectives[1], o1, o2)))
		}
	}

	b.metrics.Step(telemetry.StepRecorded)
	stepLogger.Debug("scan step recorded", map[string]interface{}{
		"o1": o1,
		"o2": o2,
	})
	return stepResult{
		point:    &Point{O1: o1, O2: o2, X: append([]float64(nil), res.Point...)},
		warnings: warnings,
	}, nil
}

// relDiff is the difference between a and b relative to their
// magnitude, with an absolute floor of 1 so values near zero compare
// absolutely.
func relDiff(a, b float64) float64 {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) / scale
}
