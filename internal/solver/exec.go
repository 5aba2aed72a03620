package solver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

func init() {
	Register("exec", newExecSolver)
}

const (
	// defaultExecTimeout bounds one external solve call when Options
	// leaves Timeout unset.
	defaultExecTimeout = 30 * time.Second

	// stderrTailLimit caps how much solver stderr ends up in a
	// diagnostic. Solvers with verbose logs would otherwise drown the
	// warning list.
	stderrTailLimit = 2048
)

// execSolver runs an external solver executable once per request:
//
//	<path> <request.json> <response.json>
//
// The request file holds the JSON form of Request. The executable must
// exit 0 and write a response file with a status of "optimal",
// "infeasible" or "error"; anything else, including a missing or
// unparseable response, is classified as a transient StatusError.
type execSolver struct {
	path       string
	timeout    time.Duration
	concurrent bool
	logger     *zap.Logger
}

func newExecSolver(opts Options) (Solver, error) {
	const op = "exec.Open"

	if opts.Path == "" {
		return nil, WrapErrorf(ErrUnavailable, "no executable path configured").
			WithOp(op).WithBackend("exec")
	}
	info, err := os.Stat(opts.Path)
	if err != nil {
		return nil, WrapErrorf(ErrUnavailable, "stat %s: %v", opts.Path, err).
			WithOp(op).WithBackend("exec")
	}
	if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		return nil, WrapErrorf(ErrUnavailable, "%s is not an executable file", opts.Path).
			WithOp(op).WithBackend("exec")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultExecTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &execSolver{
		path:       opts.Path,
		timeout:    timeout,
		concurrent: opts.Concurrent,
		logger:     logger,
	}, nil
}

func (s *execSolver) Name() string { return "exec" }

// Concurrent reflects the Options given at Open time. Many solver
// binaries share scratch files or license tokens and cannot overlap.
func (s *execSolver) Concurrent() bool { return s.concurrent }

func (s *execSolver) Solve(ctx context.Context, req *Request) (*Result, error) {
	const op = "exec.Solve"

	dir, err := os.MkdirTemp("", "pareto-solve-")
	if err != nil {
		return nil, WrapErrorf(err, "create scratch dir").WithOp(op).WithBackend("exec")
	}
	defer os.RemoveAll(dir)

	reqPath := filepath.Join(dir, "request.json")
	respPath := filepath.Join(dir, "response.json")

	payload, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return nil, WrapErrorf(err, "encode request").WithOp(op).WithBackend("exec")
	}
	if err := os.WriteFile(reqPath, payload, 0o600); err != nil {
		return nil, WrapErrorf(err, "write request file").WithOp(op).WithBackend("exec")
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(callCtx, s.path, reqPath, respPath)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	s.logger.Debug("external solver call finished",
		zap.String("path", s.path),
		zap.Duration("elapsed", elapsed),
		zap.Bool("exited_clean", runErr == nil),
	)

	// The sweep being cancelled is not a solver outcome; hand the
	// context error back so the caller stops instead of retrying.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if callCtx.Err() == context.DeadlineExceeded {
		return &Result{
			Status:     StatusError,
			Diagnostic: fmt.Sprintf("timed out after %s", s.timeout),
		}, nil
	}
	if runErr != nil {
		return &Result{
			Status:     StatusError,
			Diagnostic: fmt.Sprintf("process failed: %v%s", runErr, stderrTail(&stderr)),
		}, nil
	}

	raw, err := os.ReadFile(respPath)
	if err != nil {
		return &Result{
			Status:     StatusError,
			Diagnostic: fmt.Sprintf("no response file: %v%s", err, stderrTail(&stderr)),
		}, nil
	}

	var resp wireResult
	if err := json.Unmarshal(raw, &resp); err != nil {
		return &Result{
			Status:     StatusError,
			Diagnostic: fmt.Sprintf("malformed response: %v", err),
		}, nil
	}
	return s.classify(req, &resp), nil
}

// wireResult is the response file schema. Objective is a pointer so a
// missing field can be told apart from a genuine zero.
type wireResult struct {
	Status     string    `json:"status"`
	Point      []float64 `json:"point"`
	Objective  *float64  `json:"objective"`
	Objectives []float64 `json:"objectives"`
	Message    string    `json:"message"`
}

// classify validates the decoded response against the request and maps
// it onto a Result. Violations of the contract degrade to StatusError
// rather than failing the call: from the sweep's point of view a solver
// talking garbage and a solver crashing are the same transient event.
func (s *execSolver) classify(req *Request, resp *wireResult) *Result {
	switch Status(resp.Status) {
	case StatusOptimal:
		if len(resp.Point) != len(req.Variables) {
			return &Result{
				Status:     StatusError,
				Diagnostic: fmt.Sprintf("optimal response with %d coordinates, want %d", len(resp.Point), len(req.Variables)),
			}
		}
		if resp.Objective == nil {
			return &Result{
				Status:     StatusError,
				Diagnostic: "optimal response without objective value",
			}
		}
		for _, v := range resp.Point {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &Result{
					Status:     StatusError,
					Diagnostic: fmt.Sprintf("optimal response with non-finite coordinate %v", v),
				}
			}
		}
		if len(resp.Objectives) != 0 && len(resp.Objectives) != 2 {
			return &Result{
				Status:     StatusError,
				Diagnostic: fmt.Sprintf("optimal response with %d objective values, want 2", len(resp.Objectives)),
			}
		}
		return &Result{
			Status:     StatusOptimal,
			Point:      resp.Point,
			Objective:  *resp.Objective,
			Objectives: resp.Objectives,
			Diagnostic: resp.Message,
		}
	case StatusInfeasible:
		return &Result{Status: StatusInfeasible, Diagnostic: resp.Message}
	case StatusError:
		return &Result{Status: StatusError, Diagnostic: resp.Message}
	default:
		return &Result{
			Status:     StatusError,
			Diagnostic: fmt.Sprintf("unrecognized status %q", resp.Status),
		}
	}
}

func stderrTail(buf *bytes.Buffer) string {
	text := strings.TrimSpace(buf.String())
	if text == "" {
		return ""
	}
	if len(text) > stderrTailLimit {
		text = text[len(text)-stderrTailLimit:]
	}
	return "; stderr: " + text
}
