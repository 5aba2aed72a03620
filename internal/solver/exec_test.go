package solver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSolverScript drops an executable shell script acting as a fake
// solver. The script receives the request path as $1 and the response
// path as $2, matching the exec backend contract.
func writeSolverScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-solver")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func respondWith(t *testing.T, responseJSON string) string {
	t.Helper()
	return writeSolverScript(t, fmt.Sprintf("cat > \"$2\" <<'EOF'\n%s\nEOF", responseJSON))
}

func quadRequest() *Request {
	return &Request{
		Problem:   "quadratic",
		Objective: ObjectiveSpec{Expr: "2*x^2 + y^2", Sense: SenseMinimize},
		Variables: []VariableSpec{
			{Name: "x", Lower: -2, Upper: 4},
			{Name: "y", Lower: -2, Upper: 4},
		},
		Constraints: []ConstraintSpec{
			{Name: "cap", Expr: "x + y", Op: "<=", Bound: 3},
		},
	}
}

func TestExecOpenValidation(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		_, err := Open("exec", Options{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Open("exec", Options{Path: filepath.Join(t.TempDir(), "nope")})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("not executable", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "solver.txt")
		require.NoError(t, os.WriteFile(path, []byte("not a program"), 0o644))
		_, err := Open("exec", Options{Path: path})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := Open("exec", Options{Path: t.TempDir()})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("valid executable", func(t *testing.T) {
		path := writeSolverScript(t, "exit 0")
		s, err := Open("exec", Options{Path: path})
		require.NoError(t, err)
		assert.Equal(t, "exec", s.Name())
		assert.False(t, s.Concurrent(), "exec defaults to non-concurrent")
	})
}

func TestExecSolveOptimal(t *testing.T) {
	path := respondWith(t, `{"status":"optimal","point":[0.5,1.5],"objective":2.75,"message":"converged"}`)
	s, err := Open("exec", Options{Path: path})
	require.NoError(t, err)

	res, err := s.Solve(context.Background(), quadRequest())
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, res.Status)
	assert.Equal(t, []float64{0.5, 1.5}, res.Point)
	assert.Equal(t, 2.75, res.Objective)
	assert.Equal(t, "converged", res.Diagnostic)
	assert.Nil(t, res.Objectives)
}

func TestExecSolveOptimalWithObjectivePair(t *testing.T) {
	path := respondWith(t, `{"status":"optimal","point":[0.5,1.5],"objective":2.75,"objectives":[2.75,1.0]}`)
	s, err := Open("exec", Options{Path: path})
	require.NoError(t, err)

	res, err := s.Solve(context.Background(), quadRequest())
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, res.Status)
	assert.Equal(t, []float64{2.75, 1.0}, res.Objectives)
}

func TestExecSolveInfeasible(t *testing.T) {
	path := respondWith(t, `{"status":"infeasible","message":"constraints conflict"}`)
	s, err := Open("exec", Options{Path: path})
	require.NoError(t, err)

	res, err := s.Solve(context.Background(), quadRequest())
	require.NoError(t, err)
	assert.Equal(t, StatusInfeasible, res.Status)
	assert.Equal(t, "constraints conflict", res.Diagnostic)
}

func TestExecSolveRequestWireFormat(t *testing.T) {
	capture := filepath.Join(t.TempDir(), "captured.json")
	body := fmt.Sprintf("cp \"$1\" %q\ncat > \"$2\" <<'EOF'\n{\"status\":\"optimal\",\"point\":[0,0],\"objective\":0}\nEOF", capture)
	s, err := Open("exec", Options{Path: writeSolverScript(t, body)})
	require.NoError(t, err)

	_, err = s.Solve(context.Background(), quadRequest())
	require.NoError(t, err)

	raw, err := os.ReadFile(capture)
	require.NoError(t, err)

	var decoded struct {
		Problem   string `json:"problem"`
		Objective struct {
			Expr  string `json:"expr"`
			Sense string `json:"sense"`
		} `json:"objective"`
		Variables []struct {
			Name  string  `json:"name"`
			Lower float64 `json:"lower"`
			Upper float64 `json:"upper"`
		} `json:"variables"`
		Constraints []struct {
			Name  string  `json:"name"`
			Expr  string  `json:"expr"`
			Op    string  `json:"op"`
			Bound float64 `json:"bound"`
		} `json:"constraints"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "quadratic", decoded.Problem)
	assert.Equal(t, "2*x^2 + y^2", decoded.Objective.Expr)
	assert.Equal(t, SenseMinimize, decoded.Objective.Sense)
	require.Len(t, decoded.Variables, 2)
	assert.Equal(t, "x", decoded.Variables[0].Name)
	assert.Equal(t, -2.0, decoded.Variables[0].Lower)
	assert.Equal(t, 4.0, decoded.Variables[0].Upper)
	require.Len(t, decoded.Constraints, 1)
	assert.Equal(t, "<=", decoded.Constraints[0].Op)
	assert.Equal(t, 3.0, decoded.Constraints[0].Bound)
}

func TestExecSolveTransientFailures(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantDiag string
	}{
		{
			name:     "nonzero exit",
			body:     "echo 'license expired' >&2\nexit 7",
			wantDiag: "license expired",
		},
		{
			name:     "no response file",
			body:     "exit 0",
			wantDiag: "no response file",
		},
		{
			name:     "malformed response",
			body:     "echo 'not json {' > \"$2\"",
			wantDiag: "malformed response",
		},
		{
			name:     "unrecognized status",
			body:     "echo '{\"status\":\"maybe\"}' > \"$2\"",
			wantDiag: "unrecognized status",
		},
		{
			name:     "optimal without objective",
			body:     "echo '{\"status\":\"optimal\",\"point\":[1,2]}' > \"$2\"",
			wantDiag: "without objective",
		},
		{
			name:     "optimal with wrong dimension",
			body:     "echo '{\"status\":\"optimal\",\"point\":[1],\"objective\":1}' > \"$2\"",
			wantDiag: "coordinates",
		},
		{
			name:     "optimal with non-numeric coordinate",
			body:     "echo '{\"status\":\"optimal\",\"point\":[1,\"NaN\"],\"objective\":1}' > \"$2\"",
			wantDiag: "malformed response",
		},
		{
			name:     "error status from solver",
			body:     "echo '{\"status\":\"error\",\"message\":\"singular basis\"}' > \"$2\"",
			wantDiag: "singular basis",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open("exec", Options{Path: writeSolverScript(t, tt.body)})
			require.NoError(t, err)

			res, err := s.Solve(context.Background(), quadRequest())
			require.NoError(t, err, "transient failures are results, not errors")
			assert.Equal(t, StatusError, res.Status)
			assert.Contains(t, res.Diagnostic, tt.wantDiag)
		})
	}
}

func TestExecSolveTimeout(t *testing.T) {
	s, err := Open("exec", Options{
		Path:    writeSolverScript(t, "sleep 5"),
		Timeout: 100 * time.Millisecond,
	})
	require.NoError(t, err)

	start := time.Now()
	res, err := s.Solve(context.Background(), quadRequest())
	require.NoError(t, err)
	assert.Equal(t, StatusError, res.Status)
	assert.Contains(t, res.Diagnostic, "timed out")
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestExecSolveCancellation(t *testing.T) {
	s, err := Open("exec", Options{Path: writeSolverScript(t, "sleep 5")})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err = s.Solve(ctx, quadRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecSolveCleansScratchDir(t *testing.T) {
	capture := filepath.Join(t.TempDir(), "scratch-path")
	body := fmt.Sprintf("dirname \"$1\" > %q\ncat > \"$2\" <<'EOF'\n{\"status\":\"optimal\",\"point\":[0,0],\"objective\":0}\nEOF", capture)
	s, err := Open("exec", Options{Path: writeSolverScript(t, body)})
	require.NoError(t, err)

	_, err = s.Solve(context.Background(), quadRequest())
	require.NoError(t, err)

	raw, err := os.ReadFile(capture)
	require.NoError(t, err)
	scratch := string(raw[:len(raw)-1]) // trailing newline from shell
	_, err = os.Stat(scratch)
	assert.True(t, os.IsNotExist(err), "scratch dir %s must be removed after the call", scratch)
}

func TestExecConcurrentOption(t *testing.T) {
	path := respondWith(t, `{"status":"infeasible"}`)
	s, err := Open("exec", Options{Path: path, Concurrent: true})
	require.NoError(t, err)
	assert.True(t, s.Concurrent())
}
