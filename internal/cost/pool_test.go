package cost_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hydronet/optinet/internal/cost"
	"github.com/hydronet/optinet/internal/hydraulic"
	"github.com/hydronet/optinet/internal/hydraulic/hydrotest"
)

func newTwoLoopPool(t *testing.T, size int) *cost.Pool {
	t.Helper()
	inputPath := filepath.Join(t.TempDir(), "TwoLoop.inp")
	if err := os.WriteFile(inputPath, []byte("[TITLE]\n"), 0o644); err != nil {
		t.Fatalf("failed to write topology file: %v", err)
	}

	factory := func() (hydraulic.Engine, error) {
		return hydrotest.TwoLoop(), nil
	}
	pool, err := cost.NewPool(factory, inputPath, size, loadTwoLoopCatalog(t), cost.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to build pool: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}

func TestPoolEvaluate(t *testing.T) {
	pool := newTwoLoopPool(t, 1)

	fitness, err := pool.Evaluate(context.Background(), bestKnownGenome)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fitness != 419000 {
		t.Errorf("Expected fitness 419000, got %g", fitness)
	}
}

func TestPoolConcurrentEvaluations(t *testing.T) {
	pool := newTwoLoopPool(t, 4)
	ctx := context.Background()

	const evaluations = 32
	results := make([]float64, evaluations)
	errs := make([]error, evaluations)

	var wg sync.WaitGroup
	for i := 0; i < evaluations; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			results[slot], errs[slot] = pool.Evaluate(ctx, bestKnownGenome)
		}(i)
	}
	wg.Wait()

	for i := 0; i < evaluations; i++ {
		if errs[i] != nil {
			t.Fatalf("evaluation %d failed: %v", i, errs[i])
		}
		if results[i] != 419000 {
			t.Errorf("Expected identical fitness for identical genomes, got %g at slot %d",
				results[i], i)
		}
	}
}

func TestPoolInvalidSize(t *testing.T) {
	factory := func() (hydraulic.Engine, error) {
		return hydrotest.TwoLoop(), nil
	}
	_, err := cost.NewPool(factory, "irrelevant.inp", 0, nil, cost.DefaultOptions())
	if err == nil {
		t.Fatal("expected error for pool size 0")
	}
}

func TestPoolCheckoutCancellation(t *testing.T) {
	pool := newTwoLoopPool(t, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Breakdown on a cancelled context fails either at checkout or
	// inside the simulation loop; both paths surface ctx.Err.
	_, err := pool.Breakdown(ctx, bestKnownGenome)
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestPoolBreakdown(t *testing.T) {
	pool := newTwoLoopPool(t, 2)

	result, err := pool.Breakdown(context.Background(), bestKnownGenome)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Feasible() {
		t.Errorf("Expected a feasible breakdown, got %+v", result)
	}
	if result.MaterialCost != 419000 {
		t.Errorf("Expected material cost 419000, got %g", result.MaterialCost)
	}
}
