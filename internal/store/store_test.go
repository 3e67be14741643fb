package store_test

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/hydronet/optinet/internal/store"
)

// storeBackends builds one instance of every backend so the whole
// contract runs against each.
func storeBackends(t *testing.T) map[string]store.Store {
	t.Helper()
	return map[string]store.Store{
		"memory": store.NewMemoryStore(),
		"sqlite": store.NewSQLiteStore(filepath.Join(t.TempDir(), "optinet.db")),
	}
}

func sampleExperiment(id string, started time.Time) store.ExperimentRecord {
	return store.ExperimentRecord{
		ID:          id,
		Network:     "TwoLoop.inp",
		PricesFile:  "prices.csv",
		Executions:  3,
		Population:  200,
		Generations: 500,
		Seed:        42,
		Status:      "running",
		StartedAt:   started,
		FinishedAt:  time.Time{},
	}
}

func TestStoreExperimentLifecycle(t *testing.T) {
	for name, s := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Init(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer s.Close()

			started := time.Now().Truncate(time.Microsecond)
			rec := sampleExperiment("exp-1", started)
			if err := s.SaveExperiment(rec); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got, err := s.GetExperiment("exp-1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Network != "TwoLoop.inp" || got.Population != 200 || got.Status != "running" {
				t.Errorf("Unexpected record: %+v", got)
			}

			// Saving the same ID again must update in place.
			rec.Status = "completed"
			rec.FinishedAt = started.Add(time.Minute)
			if err := s.SaveExperiment(rec); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got, err = s.GetExperiment("exp-1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Status != "completed" {
				t.Errorf("Expected status completed after update, got %q", got.Status)
			}

			_, err = s.GetExperiment("absent")
			if !errors.Is(err, store.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestStoreListExperimentsOrdered(t *testing.T) {
	for name, s := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Init(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer s.Close()

			base := time.Now().Truncate(time.Microsecond)
			for i, id := range []string{"exp-c", "exp-a", "exp-b"} {
				rec := sampleExperiment(id, base.Add(time.Duration(2-i)*time.Hour))
				if err := s.SaveExperiment(rec); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}

			list, err := s.ListExperiments()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(list) != 3 {
				t.Fatalf("Expected 3 experiments, got %d", len(list))
			}
			// exp-b started first, then exp-a, then exp-c.
			wantOrder := []string{"exp-b", "exp-a", "exp-c"}
			for i, want := range wantOrder {
				if list[i].ID != want {
					t.Errorf("Expected %s at position %d, got %s", want, i, list[i].ID)
				}
			}
		})
	}
}

func TestStoreGenerationStats(t *testing.T) {
	for name, s := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Init(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer s.Close()

			batch1 := []store.GenerationRow{
				{Execution: 0, Generation: 0, NumEvals: 200, Avg: 900000, Std: 120000, Min: 640000, Max: 1400000, BestFit: 640000},
				{Execution: 0, Generation: 1, NumEvals: 184, Avg: 820000, Std: 90000, Min: 580000, Max: 1200000, BestFit: 580000},
			}
			batch2 := []store.GenerationRow{
				{Execution: 1, Generation: 0, NumEvals: 200, Avg: 910000, Std: 100000, Min: 700000, Max: 1350000, BestFit: 700000},
			}
			if err := s.SaveGenerationStats("exp-1", batch1); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := s.SaveGenerationStats("exp-1", batch2); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			rows, err := s.GenerationStats("exp-1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(rows) != 3 {
				t.Fatalf("Expected 3 statistics rows, got %d", len(rows))
			}
			if rows[0].Execution != 0 || rows[0].Generation != 0 || rows[0].BestFit != 640000 {
				t.Errorf("Unexpected first row: %+v", rows[0])
			}
			if rows[2].Execution != 1 {
				t.Errorf("Expected execution 1 last, got %+v", rows[2])
			}

			empty, err := s.GenerationStats("absent")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(empty) != 0 {
				t.Errorf("Expected no rows for an unknown experiment, got %d", len(empty))
			}
		})
	}
}

func TestStoreBestSolution(t *testing.T) {
	for name, s := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Init(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer s.Close()

			sol := store.BestSolution{
				ExperimentID: "exp-1",
				Execution:    2,
				Fitness:      419000,
				MaterialCost: 419000,
				Feasible:     true,
				Genome:       []int{10, 6, 9, 3, 9, 6, 6, 0},
				Diameters:    []float64{457, 254, 406, 102, 406, 254, 254, 25},
			}
			if err := s.SaveBestSolution(sol); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got, err := s.BestSolution("exp-1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, sol) {
				t.Errorf("Round-tripped solution differs:\nwant %+v\ngot  %+v", sol, got)
			}

			// A cheaper later solution replaces the stored one.
			sol.Fitness = 405000
			if err := s.SaveBestSolution(sol); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got, err = s.BestSolution("exp-1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Fitness != 405000 {
				t.Errorf("Expected updated fitness 405000, got %g", got.Fitness)
			}

			_, err = s.BestSolution("absent")
			if !errors.Is(err, store.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestFactory(t *testing.T) {
	s, err := store.New("memory", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.(*store.MemoryStore); !ok {
		t.Errorf("Expected a MemoryStore, got %T", s)
	}

	s, err = store.New("sqlite", filepath.Join(t.TempDir(), "optinet.db"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.(*store.SQLiteStore); !ok {
		t.Errorf("Expected a SQLiteStore, got %T", s)
	}

	if _, err := store.New("sqlite", ""); err == nil {
		t.Error("expected error for sqlite store without a path")
	}
	if _, err := store.New("postgres", ""); err == nil {
		t.Error("expected error for an unknown backend")
	}
}
