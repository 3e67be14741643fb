package cost

import (
	"context"
	"fmt"

	"github.com/hydronet/optinet/internal/catalog"
	"github.com/hydronet/optinet/internal/hydraulic"
)

// Pool owns a fixed set of evaluators, each bound to its own solver
// session over the same topology. Checkout goes through a buffered
// channel, so at most size evaluations run at once and no session is
// ever shared between goroutines.
type Pool struct {
	evaluators chan *Evaluator
	size       int
	links      int
}

// NewPool opens size independent solver sessions for inputPath and
// wraps each in an evaluator. On any failure the sessions opened so
// far are closed before the error is returned.
func NewPool(factory hydraulic.Factory, inputPath string, size int, cat *catalog.Catalog, opts Options) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool size must be at least 1, got %d", size)
	}

	pool := &Pool{
		evaluators: make(chan *Evaluator, size),
		size:       size,
	}

	for i := 0; i < size; i++ {
		engine, err := factory()
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create engine %d: %w", i, err)
		}
		net, err := hydraulic.Open(engine, inputPath)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to open session %d: %w", i, err)
		}
		if err := net.Initialize(); err != nil {
			_ = net.Close()
			pool.Close()
			return nil, fmt.Errorf("failed to initialize session %d: %w", i, err)
		}
		pool.links = net.LinkCount()
		pool.evaluators <- NewEvaluator(net, cat, opts)
	}

	return pool, nil
}

// Size returns the number of sessions in the pool.
func (p *Pool) Size() int {
	return p.size
}

// LinkCount returns the link count of the pooled topology. All
// sessions share one topology, so the count is pool-wide.
func (p *Pool) LinkCount() int {
	return p.links
}

// checkout blocks until an evaluator is free or ctx is done.
func (p *Pool) checkout(ctx context.Context) (*Evaluator, error) {
	select {
	case e := <-p.evaluators:
		return e, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Evaluate scores one genome of catalog indexes and returns its
// penalized cost.
func (p *Pool) Evaluate(ctx context.Context, genome []int) (float64, error) {
	result, err := p.Breakdown(ctx, genome)
	if err != nil {
		return 0, err
	}
	return result.Cost, nil
}

// Breakdown scores one genome and returns the full cost breakdown.
func (p *Pool) Breakdown(ctx context.Context, genome []int) (Result, error) {
	e, err := p.checkout(ctx)
	if err != nil {
		return Result{}, err
	}
	defer func() { p.evaluators <- e }()

	return e.EvaluateIndexes(ctx, genome)
}

// Close releases every session currently in the pool.
func (p *Pool) Close() error {
	var firstErr error
	for {
		select {
		case e := <-p.evaluators:
			if err := e.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		default:
			return firstErr
		}
	}
}
