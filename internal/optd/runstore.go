// Package optd exposes the experiment driver as a long-running HTTP
// daemon: submit a configuration, poll its progress, cancel it.
package optd

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hydronet/optinet/internal/experiment"
)

// Status is the lifecycle state of a submitted run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// ExperimentRun is one submitted experiment and its current state.
type ExperimentRun struct {
	ID          string              `json:"id"`
	Status      Status              `json:"status"`
	SubmittedAt time.Time           `json:"submitted_at"`
	StartedAt   time.Time           `json:"started_at,omitempty"`
	FinishedAt  time.Time           `json:"finished_at,omitempty"`
	Progress    experiment.Progress `json:"progress"`
	Error       string              `json:"error,omitempty"`
	Summary     *experiment.Summary `json:"summary,omitempty"`
}

// RunStore tracks submitted runs in memory. It is safe for concurrent
// use.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]*ExperimentRun
}

// NewRunStore creates an empty run store.
func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[string]*ExperimentRun)}
}

// Add registers a new pending run.
func (s *RunStore) Add(id string) *ExperimentRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	run := &ExperimentRun{
		ID:          id,
		Status:      StatusPending,
		SubmittedAt: time.Now(),
	}
	s.runs[id] = run
	return run
}

// Get returns a copy of the run for id.
func (s *RunStore) Get(id string) (ExperimentRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return ExperimentRun{}, fmt.Errorf("unknown run %s", id)
	}
	return *run, nil
}

// List returns copies of all runs, newest first.
func (s *RunStore) List() []ExperimentRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ExperimentRun, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, *run)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].SubmittedAt.Equal(out[b].SubmittedAt) {
			return out[a].ID > out[b].ID
		}
		return out[a].SubmittedAt.After(out[b].SubmittedAt)
	})
	return out
}

// update applies fn to the run under the write lock.
func (s *RunStore) update(id string, fn func(*ExperimentRun)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run, ok := s.runs[id]; ok {
		fn(run)
	}
}
