package store

import (
	"sort"
	"sync"
)

// MemoryStore keeps every record in process memory. It is the default
// backend for one-shot runs and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	experiments map[string]ExperimentRecord
	stats       map[string][]GenerationRow
	best        map[string]BestSolution
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		experiments: make(map[string]ExperimentRecord),
		stats:       make(map[string][]GenerationRow),
		best:        make(map[string]BestSolution),
	}
}

func (s *MemoryStore) Init() error {
	return nil
}

func (s *MemoryStore) SaveExperiment(rec ExperimentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.experiments[rec.ID] = rec
	return nil
}

func (s *MemoryStore) GetExperiment(id string) (ExperimentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.experiments[id]
	if !ok {
		return ExperimentRecord{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) ListExperiments() ([]ExperimentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ExperimentRecord, 0, len(s.experiments))
	for _, rec := range s.experiments {
		out = append(out, rec)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].StartedAt.Equal(out[b].StartedAt) {
			return out[a].ID < out[b].ID
		}
		return out[a].StartedAt.Before(out[b].StartedAt)
	})
	return out, nil
}

func (s *MemoryStore) SaveGenerationStats(experimentID string, rows []GenerationRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[experimentID] = append(s.stats[experimentID], rows...)
	return nil
}

func (s *MemoryStore) GenerationStats(experimentID string) ([]GenerationRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.stats[experimentID]
	out := make([]GenerationRow, len(rows))
	copy(out, rows)
	sort.Slice(out, func(a, b int) bool {
		if out[a].Execution == out[b].Execution {
			return out[a].Generation < out[b].Generation
		}
		return out[a].Execution < out[b].Execution
	})
	return out, nil
}

func (s *MemoryStore) SaveBestSolution(sol BestSolution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.best[sol.ExperimentID] = sol
	return nil
}

func (s *MemoryStore) BestSolution(experimentID string) (BestSolution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sol, ok := s.best[experimentID]
	if !ok {
		return BestSolution{}, ErrNotFound
	}
	return sol, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
