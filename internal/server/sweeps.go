package server

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaigundersen/Optimization-Project/internal/pareto"
)

// SweepState is the lifecycle state of a sweep job.
type SweepState string

const (
	StatePending   SweepState = "pending"
	StateRunning   SweepState = "running"
	StateCompleted SweepState = "completed"
	StateFailed    SweepState = "failed"
	StateCancelled SweepState = "cancelled"
)

// Terminal reports whether the state can still change.
func (s SweepState) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCancelled:
		return true
	}
	return false
}

var (
	ErrSweepNotFound = errors.New("sweep not found")
	ErrSweepFinished = errors.New("sweep already finished")
)

// SweepRequest is what a client posts to start a sweep. Zero values
// fall back to the server's configured defaults.
type SweepRequest struct {
	Problem    string `json:"problem"`
	Strategy   string `json:"strategy,omitempty"`
	Resolution int    `json:"resolution,omitempty"`
	Workers    int    `json:"workers,omitempty"`
}

// Sweep tracks one front construction from acceptance to its terminal
// state.
type Sweep struct {
	ID        string           `json:"id"`
	State     SweepState       `json:"state"`
	Request   SweepRequest     `json:"request"`
	Front     pareto.Front     `json:"front,omitempty"`
	Warnings  []pareto.Warning `json:"warnings,omitempty"`
	StartTime time.Time        `json:"start_time"`
	EndTime   *time.Time       `json:"end_time,omitempty"`
	Error     string           `json:"error,omitempty"`

	cancel context.CancelFunc
}

// SweepManager owns the sweep table. Get and List hand out copies so
// readers never race the worker goroutine updating the live record.
type SweepManager struct {
	mu     sync.RWMutex
	sweeps map[string]*Sweep
}

func NewSweepManager() *SweepManager {
	return &SweepManager{sweeps: make(map[string]*Sweep)}
}

// Create registers a new pending sweep and returns a snapshot of it.
// The cancel func is fired when the sweep is cancelled through Cancel.
func (m *SweepManager) Create(req SweepRequest, cancel context.CancelFunc) Sweep {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &Sweep{
		ID:        uuid.New().String(),
		State:     StatePending,
		Request:   req,
		StartTime: time.Now(),
		cancel:    cancel,
	}
	m.sweeps[s.ID] = s
	return *s
}

// Get returns a snapshot of the sweep with the given ID.
func (m *SweepManager) Get(id string) (Sweep, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sweeps[id]
	if !ok {
		return Sweep{}, false
	}
	return *s, true
}

// List returns snapshots of all sweeps, oldest first.
func (m *SweepManager) List() []Sweep {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Sweep, 0, len(m.sweeps))
	for _, s := range m.sweeps {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Update applies fn to the live record under the write lock.
func (m *SweepManager) Update(id string, fn func(*Sweep)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sweeps[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSweepNotFound, id)
	}
	fn(s)
	return nil
}

// Cancel moves a non-terminal sweep to cancelled and fires its cancel
// func so the worker stops solving.
func (m *SweepManager) Cancel(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sweeps[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSweepNotFound, id)
	}
	if s.State.Terminal() {
		return fmt.Errorf("%w: state is %s", ErrSweepFinished, s.State)
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.State = StateCancelled
	now := time.Now()
	s.EndTime = &now
	return nil
}

// CancelAll fires the cancel func of every sweep that is still running.
// Used on shutdown.
func (m *SweepManager) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.sweeps {
		if !s.State.Terminal() && s.cancel != nil {
			s.cancel()
		}
	}
}
