package solver

import (
	"context"
	"sync"
)

// Gated returns s wrapped with a mutex so that at most one Solve call
// runs at a time. Solvers that already allow concurrent calls are
// returned unchanged.
func Gated(s Solver) Solver {
	if s.Concurrent() {
		return s
	}
	return &gatedSolver{inner: s}
}

type gatedSolver struct {
	mu    sync.Mutex
	inner Solver
}

func (g *gatedSolver) Name() string { return g.inner.Name() }

// Concurrent is true: the gate is what makes concurrent use safe.
func (g *gatedSolver) Concurrent() bool { return true }

func (g *gatedSolver) Solve(ctx context.Context, req *Request) (*Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inner.Solve(ctx, req)
}
