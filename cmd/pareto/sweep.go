package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaigundersen/Optimization-Project/internal/logging"
	"github.com/shaigundersen/Optimization-Project/internal/pareto"
	"github.com/shaigundersen/Optimization-Project/internal/problem"
	"github.com/shaigundersen/Optimization-Project/internal/report"
	"github.com/shaigundersen/Optimization-Project/internal/scalarize"
	"github.com/shaigundersen/Optimization-Project/internal/solver"
)

var (
	sweepProblem    string
	sweepStrategy   string
	sweepResolution int
	sweepWorkers    int
	sweepBackend    string
	sweepSolverPath string
	sweepTimeout    time.Duration
	sweepSeed       int64
	sweepConcurrent bool
	sweepJSONPath   string
	sweepCSVPath    string
	sweepPlotPath   string
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Build the Pareto front for a catalog problem",
	Long: `Sweep runs the chosen scalarization strategy across its scan range,
solves every step with the selected backend, and prints the resulting
nondominated front. The front can additionally be written to JSON, CSV
and a chart.

A missing solver executable or a sweep in which no step produced a
feasible optimum exits non-zero.`,
	RunE: runSweep,
}

func init() {
	f := sweepCmd.Flags()
	f.StringVar(&sweepProblem, "problem", "", "Catalog problem to sweep (required)")
	f.StringVar(&sweepStrategy, "strategy", "weighted-sum", "Scalarization strategy (weighted-sum, epsilon-constraint)")
	f.IntVar(&sweepResolution, "resolution", 10, "Number of scan steps")
	f.IntVar(&sweepWorkers, "workers", 1, "Scan steps solved concurrently")
	f.StringVar(&sweepBackend, "solver", "nelder-mead", "Solver backend")
	f.StringVar(&sweepSolverPath, "solver-path", "", "Solver executable (exec backend)")
	f.DurationVar(&sweepTimeout, "timeout", 30*time.Second, "Per-call solver timeout")
	f.Int64Var(&sweepSeed, "seed", 1, "Random seed for stochastic backends")
	f.BoolVar(&sweepConcurrent, "concurrent-solver", false, "Declare the exec backend safe for concurrent calls")
	f.StringVar(&sweepJSONPath, "json", "", "Write the front as JSON to this path")
	f.StringVar(&sweepCSVPath, "csv", "", "Write the front as CSV to this path")
	f.StringVar(&sweepPlotPath, "plot", "", "Render the front to this image path (extension picks the format)")

	sweepCmd.MarkFlagRequired("problem")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := problem.Lookup(sweepProblem)
	if err != nil {
		return err
	}
	s, err := solver.Open(sweepBackend, solver.Options{
		Path:       sweepSolverPath,
		Timeout:    sweepTimeout,
		Seed:       sweepSeed,
		Concurrent: sweepConcurrent,
		Logger:     logging.NewZapLogger(logger),
	})
	if err != nil {
		return err
	}
	strategy, err := scalarize.ForName(sweepStrategy, s)
	if err != nil {
		return err
	}

	logger.Info("starting sweep", map[string]interface{}{
		"problem":    p.Name,
		"strategy":   strategy.Name(),
		"resolution": sweepResolution,
		"backend":    s.Name(),
		"workers":    sweepWorkers,
	})

	builder := pareto.NewBuilder(s, pareto.Options{
		Workers:       sweepWorkers,
		DominanceTol:  cfg.Sweep.DominanceTol,
		CrossCheckTol: cfg.Sweep.CrossCheckTol,
		Logger:        logger,
	})

	start := time.Now()
	front, warnings, err := builder.Build(ctx, p, strategy, sweepResolution)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	doc := report.New(p, strategy.Name(), sweepResolution, s.Name(), front, warnings)
	if sweepJSONPath != "" {
		if err := doc.SaveJSON(sweepJSONPath); err != nil {
			return err
		}
	}
	if sweepCSVPath != "" {
		if err := doc.SaveCSV(sweepCSVPath); err != nil {
			return err
		}
	}
	if sweepPlotPath != "" {
		if err := doc.SavePlot(sweepPlotPath); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	printFront(out, doc)
	fmt.Fprintf(out, "\nBuilt %d-point front in %s", len(front), elapsed.Round(time.Millisecond))
	if len(warnings) > 0 {
		fmt.Fprintf(out, " (%d warnings, see log)", len(warnings))
	}
	fmt.Fprintln(out)
	return nil
}

// printFront renders the front as an aligned table, objectives first.
func printFront(out io.Writer, doc *report.Document) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "%s\t%s", doc.Objectives[0], doc.Objectives[1])
	for _, name := range doc.Variables {
		fmt.Fprintf(w, "\t%s", name)
	}
	fmt.Fprintln(w)

	for _, pt := range doc.Points {
		fmt.Fprintf(w, "%.6g\t%.6g", pt.O1, pt.O2)
		for _, x := range pt.X {
			fmt.Fprintf(w, "\t%.6g", x)
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}
