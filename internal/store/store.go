// Package store persists experiment runs, their per-generation
// statistics and their best solutions.
package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no record matches the requested ID.
var ErrNotFound = errors.New("record not found")

// ExperimentRecord describes one optimization experiment.
type ExperimentRecord struct {
	ID          string
	Network     string
	PricesFile  string
	Executions  int
	Population  int
	Generations int
	Seed        int64
	Status      string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// GenerationRow is one statistics row of one execution.
type GenerationRow struct {
	Execution  int
	Generation int
	NumEvals   int
	Avg        float64
	Std        float64
	Min        float64
	Max        float64
	BestFit    float64
}

// BestSolution is the cheapest network an experiment found.
type BestSolution struct {
	ExperimentID string
	Execution    int
	Fitness      float64
	MaterialCost float64
	Feasible     bool
	Genome       []int
	Diameters    []float64
}

// Store persists experiments. Implementations must be safe for
// concurrent use.
type Store interface {
	// Init prepares the backing storage. It must be called before any
	// other method and is idempotent.
	Init() error

	// SaveExperiment inserts or replaces an experiment record.
	SaveExperiment(rec ExperimentRecord) error

	// GetExperiment returns the record for id or ErrNotFound.
	GetExperiment(id string) (ExperimentRecord, error)

	// ListExperiments returns all records ordered by start time.
	ListExperiments() ([]ExperimentRecord, error)

	// SaveGenerationStats appends statistics rows for an experiment.
	SaveGenerationStats(experimentID string, rows []GenerationRow) error

	// GenerationStats returns all statistics rows for an experiment
	// ordered by execution, then generation.
	GenerationStats(experimentID string) ([]GenerationRow, error)

	// SaveBestSolution inserts or replaces an experiment's best solution.
	SaveBestSolution(sol BestSolution) error

	// BestSolution returns the best solution for an experiment or
	// ErrNotFound.
	BestSolution(experimentID string) (BestSolution, error)

	// Close releases the backing storage.
	Close() error
}
