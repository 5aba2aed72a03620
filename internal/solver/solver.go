// Package solver abstracts single-objective nonlinear solvers behind a
// common interface. Backends register themselves by name; callers open
// one by name and submit scalarized minimization requests.
package solver

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status classifies the outcome of a single solve call.
type Status string

const (
	// StatusOptimal means the backend found a feasible minimizer.
	StatusOptimal Status = "optimal"
	// StatusInfeasible means the backend proved or concluded the
	// instance has no feasible point.
	StatusInfeasible Status = "infeasible"
	// StatusError means the backend failed transiently: crash, timeout,
	// malformed output. Errors are worth one retry.
	StatusError Status = "error"
)

// SenseMinimize is the only objective sense used on the wire. It is
// written explicitly so solver executables need not assume a default.
const SenseMinimize = "minimize"

// VariableSpec is a bounded decision variable on the wire.
type VariableSpec struct {
	Name  string  `json:"name"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// ObjectiveSpec carries the scalar objective in two forms: Expr is the
// algebraic string handed to external solver processes, Eval is the
// compiled form used by in-process backends. Eval is never serialized.
type ObjectiveSpec struct {
	Expr  string `json:"expr"`
	Sense string `json:"sense"`

	Eval func(x []float64) float64 `json:"-"`
}

// ConstraintSpec is a single constraint: Expr Op Bound. Like
// ObjectiveSpec it carries a compiled Eval for in-process backends.
type ConstraintSpec struct {
	Name  string  `json:"name,omitempty"`
	Expr  string  `json:"expr"`
	Op    string  `json:"op"`
	Bound float64 `json:"bound"`

	Eval func(x []float64) float64 `json:"-"`
}

// Request is one scalarized minimization instance.
type Request struct {
	Problem     string           `json:"problem,omitempty"`
	Objective   ObjectiveSpec    `json:"objective"`
	Variables   []VariableSpec   `json:"variables"`
	Constraints []ConstraintSpec `json:"constraints,omitempty"`
}

// Result is the outcome of one solve call. Point and Objective are only
// meaningful when Status is StatusOptimal. Objectives optionally carries
// both problem objectives when the backend reports them; most backends
// leave it nil and the caller re-evaluates the pair itself. Diagnostic
// holds backend detail for infeasible and error outcomes.
type Result struct {
	Status     Status    `json:"status"`
	Point      []float64 `json:"point,omitempty"`
	Objective  float64   `json:"objective,omitempty"`
	Objectives []float64 `json:"objectives,omitempty"`
	Diagnostic string    `json:"diagnostic,omitempty"`
}

// Solver is a single-objective nonlinear minimizer.
//
// Solve returns a non-nil Result for every outcome the backend itself
// classified, including infeasibility and transient failures. A non-nil
// error means the call never produced a classification: context
// cancellation or a misuse of the adapter.
type Solver interface {
	// Name identifies the backend, e.g. "exec" or "nelder-mead".
	Name() string
	// Concurrent reports whether Solve may be called from multiple
	// goroutines at once. Wrap non-concurrent solvers with Gated.
	Concurrent() bool
	Solve(ctx context.Context, req *Request) (*Result, error)
}

// Options configures a backend at Open time. Backends ignore fields
// that do not apply to them.
type Options struct {
	// Path locates the solver executable (exec backend).
	Path string
	// Timeout bounds a single solve call. Zero means the backend
	// default.
	Timeout time.Duration
	// Seed fixes the random source of stochastic backends. Zero means
	// the backend default, which is itself deterministic.
	Seed int64
	// Concurrent declares an external executable safe for concurrent
	// invocation. In-process backends decide this themselves.
	Concurrent bool
	// Logger receives per-call debug logs. Nil disables logging.
	Logger *zap.Logger
}

// Factory builds a configured backend.
type Factory func(opts Options) (Solver, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a backend available under the given name. It panics if
// the name is already taken, following the database/sql convention:
// registration happens in init functions and a collision is a bug.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if factory == nil {
		panic("solver: Register with nil factory")
	}
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("solver: Register called twice for %q", name))
	}
	registry[name] = factory
}

// Open builds the named backend. It returns an error wrapping
// ErrUnknownBackend when no backend registered under that name.
func Open(name string, opts Options) (Solver, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, &Error{
			Message: fmt.Sprintf("no backend registered as %q (known: %v)", name, Names()),
			Op:      "Open",
			Err:     ErrUnknownBackend,
		}
	}
	return factory(opts)
}

// Names lists the registered backends in lexical order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
