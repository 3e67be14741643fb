package ga

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hydronet/optinet/pkg/logger"
	"github.com/hydronet/optinet/pkg/utils"
)

// Evaluator scores one genome. Implementations must be safe for
// concurrent use when Params.Workers is greater than one.
type Evaluator interface {
	Evaluate(ctx context.Context, genome []int) (float64, error)
}

// Params configures one genetic algorithm run.
type Params struct {
	Population       int     // individuals per generation
	Generations      int     // generations after the initial one
	CrossoverProb    float64 // probability a parent pair is mated
	MutationProb     float64 // probability an offspring is mutated
	GeneMutationProb float64 // per-gene swap probability inside mutation
	GenomeLength     int     // genes per individual
	GeneBound        int     // genes are drawn from [0, GeneBound)
	Workers          int     // concurrent fitness evaluations
}

// validate rejects parameter combinations the loop cannot run with.
func (p Params) validate() error {
	if p.Population < 2 {
		return fmt.Errorf("population must be at least 2, got %d", p.Population)
	}
	if p.Generations < 0 {
		return fmt.Errorf("generations must not be negative, got %d", p.Generations)
	}
	if p.CrossoverProb < 0 || p.CrossoverProb > 1 {
		return fmt.Errorf("crossover probability must be in [0, 1], got %g", p.CrossoverProb)
	}
	if p.MutationProb < 0 || p.MutationProb > 1 {
		return fmt.Errorf("mutation probability must be in [0, 1], got %g", p.MutationProb)
	}
	if p.GeneMutationProb < 0 || p.GeneMutationProb > 1 {
		return fmt.Errorf("gene mutation probability must be in [0, 1], got %g", p.GeneMutationProb)
	}
	if p.GenomeLength < 1 {
		return fmt.Errorf("genome length must be at least 1, got %d", p.GenomeLength)
	}
	if p.GeneBound < 1 {
		return fmt.Errorf("gene bound must be at least 1, got %d", p.GeneBound)
	}
	if p.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", p.Workers)
	}
	return nil
}

// ProgressFunc is called after every generation with its statistics
// and a copy of the best individual found so far.
type ProgressFunc func(stats GenerationStats, best *Individual)

// Result is one finished run: the best individual ever seen, the final
// population, and one statistics row per generation, the initial
// population included.
type Result struct {
	Best       *Individual
	Population []*Individual
	Stats      []GenerationStats
}

// Engine drives the generational loop: roulette selection, two-point
// crossover, shuffle mutation, full population replacement.
type Engine struct {
	params    Params
	evaluator Evaluator
	rng       *utils.RandSource
	logger    *slog.Logger
	progress  ProgressFunc
}

// New creates an engine for the given parameters.
func New(params Params, evaluator Evaluator, rng *utils.RandSource) (*Engine, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	if evaluator == nil {
		return nil, fmt.Errorf("evaluator must not be nil")
	}
	if rng == nil {
		rng = utils.NewRandSource(0)
	}
	return &Engine{
		params:    params,
		evaluator: evaluator,
		rng:       rng,
		logger:    logger.Default,
	}, nil
}

// SetLogger sets the engine's logger
func (e *Engine) SetLogger(l *slog.Logger) {
	e.logger = l
}

// SetProgress registers a per-generation progress callback.
func (e *Engine) SetProgress(fn ProgressFunc) {
	e.progress = fn
}

// Run executes the full generational loop. The returned statistics
// hold Generations+1 rows. Run stops early with an error when the
// context is cancelled or an evaluation fails.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	population := make([]*Individual, e.params.Population)
	for i := range population {
		population[i] = NewRandomIndividual(e.rng, e.params.GenomeLength, e.params.GeneBound)
	}

	numEvals, err := e.evaluatePopulation(ctx, population)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate initial population: %w", err)
	}

	var best *Individual
	best = updateBest(best, population)

	stats := make([]GenerationStats, 0, e.params.Generations+1)
	stats = append(stats, computeStats(0, numEvals, population))
	e.report(stats[0], best)

	for gen := 1; gen <= e.params.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run cancelled at generation %d: %w", gen, err)
		}

		offspring := SelRoulette(e.rng, population, len(population))
		for i := range offspring {
			offspring[i] = offspring[i].Clone()
		}

		for i := 0; i+1 < len(offspring); i += 2 {
			if e.rng.BernoulliBool(e.params.CrossoverProb) {
				CxTwoPoint(e.rng, offspring[i], offspring[i+1])
			}
		}
		for _, ind := range offspring {
			if e.rng.BernoulliBool(e.params.MutationProb) {
				MutShuffleIndexes(e.rng, ind, e.params.GeneMutationProb)
			}
		}

		numEvals, err := e.evaluatePopulation(ctx, offspring)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate generation %d: %w", gen, err)
		}

		population = offspring
		best = updateBest(best, population)

		row := computeStats(gen, numEvals, population)
		stats = append(stats, row)
		e.report(row, best)
	}

	e.logger.Info("run finished",
		"generations", e.params.Generations,
		"best_fitness", best.Fitness)

	return &Result{Best: best, Population: population, Stats: stats}, nil
}

// evaluatePopulation scores every individual without a cached fitness,
// at most Workers at a time, and returns how many evaluations ran.
func (e *Engine) evaluatePopulation(ctx context.Context, population []*Individual) (int, error) {
	pending := make([]*Individual, 0, len(population))
	for _, ind := range population {
		if !ind.Evaluated {
			pending = append(pending, ind)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	if e.params.Workers == 1 {
		for _, ind := range pending {
			fitness, err := e.evaluator.Evaluate(ctx, ind.Genome)
			if err != nil {
				return 0, err
			}
			ind.Fitness = fitness
			ind.Evaluated = true
		}
		return len(pending), nil
	}

	sem := make(chan struct{}, e.params.Workers)
	errs := make([]error, len(pending))
	var wg sync.WaitGroup

	for i, ind := range pending {
		wg.Add(1)
		sem <- struct{}{}
		go func(slot int, ind *Individual) {
			defer wg.Done()
			defer func() { <-sem }()

			fitness, err := e.evaluator.Evaluate(ctx, ind.Genome)
			if err != nil {
				errs[slot] = err
				return
			}
			ind.Fitness = fitness
			ind.Evaluated = true
		}(i, ind)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return 0, err
		}
	}
	return len(pending), nil
}

// updateBest keeps the incumbent unless a strictly cheaper individual
// appears, so the best-so-far trace is monotone non-increasing.
func updateBest(best *Individual, population []*Individual) *Individual {
	for _, ind := range population {
		if best == nil || ind.Fitness < best.Fitness {
			best = ind.Clone()
		}
	}
	return best
}

func (e *Engine) report(stats GenerationStats, best *Individual) {
	e.logger.Debug("generation evaluated",
		"generation", stats.Generation,
		"evaluations", stats.NumEvals,
		"min", stats.Min,
		"avg", stats.Avg,
		"best_fitness", best.Fitness)
	if e.progress != nil {
		e.progress(stats, best.Clone())
	}
}
