// Package experiment drives complete optimization experiments: several
// independent genetic algorithm executions over one network, with
// statistics, artifacts and the best solution persisted at the end.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/hydronet/optinet/internal/catalog"
	"github.com/hydronet/optinet/internal/cost"
	"github.com/hydronet/optinet/internal/ga"
	"github.com/hydronet/optinet/internal/hydraulic"
	"github.com/hydronet/optinet/internal/report"
	"github.com/hydronet/optinet/internal/store"
	"github.com/hydronet/optinet/pkg/config"
	"github.com/hydronet/optinet/pkg/logger"
	"github.com/hydronet/optinet/pkg/utils"
)

// Progress describes how far a running experiment has advanced.
type Progress struct {
	Execution   int
	Generation  int
	BestFitness float64
}

// ProgressFunc receives progress updates while an experiment runs.
type ProgressFunc func(Progress)

// Summary is the outcome of one finished experiment.
type Summary struct {
	ExperimentID  string
	Executions    int
	BestExecution int
	Best          cost.Result
	Genome        []int
	Diameters     []float64
	StatsFile     string
	ReportFile    string
	ChartFile     string
	Elapsed       time.Duration
}

// Experiment runs the multi-execution optimization described by a
// configuration.
type Experiment struct {
	cfg      *config.Config
	factory  hydraulic.Factory
	store    store.Store
	logger   *slog.Logger
	progress ProgressFunc
}

// New creates an experiment. The factory builds one engine per worker
// session; the store receives the results.
func New(cfg *config.Config, factory hydraulic.Factory, st store.Store) *Experiment {
	return &Experiment{
		cfg:     cfg,
		factory: factory,
		store:   st,
		logger:  logger.Default,
	}
}

// SetLogger sets the experiment's logger
func (e *Experiment) SetLogger(l *slog.Logger) {
	e.logger = l
}

// SetProgress registers a progress callback.
func (e *Experiment) SetProgress(fn ProgressFunc) {
	e.progress = fn
}

// faultTolerantEvaluator maps recoverable solver faults to a fixed
// very poor fitness instead of aborting the run. One degenerate
// network must not kill an experiment that has been running for hours.
type faultTolerantEvaluator struct {
	pool         *cost.Pool
	faultFitness float64
	logger       *slog.Logger
}

func (f *faultTolerantEvaluator) Evaluate(ctx context.Context, genome []int) (float64, error) {
	fitness, err := f.pool.Evaluate(ctx, genome)
	if err != nil {
		var solverErr *hydraulic.SolverError
		if errors.As(err, &solverErr) {
			f.logger.Warn("solver fault, assigning fault fitness",
				"op", solverErr.Op,
				"code", solverErr.Code,
				"fault_fitness", f.faultFitness)
			return f.faultFitness, nil
		}
		return 0, err
	}
	return fitness, nil
}

// Run executes the full experiment and returns its summary. Statistics
// accumulated before a failing execution are still flushed to the
// artifact file, so partial results survive a crash mid-experiment.
func (e *Experiment) Run(ctx context.Context) (*Summary, error) {
	started := time.Now()
	experimentID := utils.GenerateExperimentID()

	cat, err := catalog.LoadPrices(e.cfg.PricesFile)
	if err != nil {
		return nil, err
	}

	opts := cost.Options{
		HMin:        e.cfg.Constraints.HMin,
		HMax:        e.cfg.Constraints.HMax,
		VMin:        e.cfg.Constraints.VMin,
		VMax:        e.cfg.Constraints.VMax,
		PenaltyStep: e.cfg.Constraints.PenaltyStep,
	}
	pool, err := cost.NewPool(e.factory, e.cfg.Network.InputFile, e.cfg.GA.Workers, cat, opts)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	genomeLength := pool.LinkCount()
	if genomeLength < 1 {
		return nil, fmt.Errorf("network %s has no links to size", e.cfg.Network.InputFile)
	}

	if err := e.store.SaveExperiment(store.ExperimentRecord{
		ID:          experimentID,
		Network:     e.cfg.Network.InputFile,
		PricesFile:  e.cfg.PricesFile,
		Executions:  e.cfg.GA.Executions,
		Population:  e.cfg.GA.Population,
		Generations: e.cfg.GA.Generations,
		Seed:        e.cfg.GA.Seed,
		Status:      "running",
		StartedAt:   started,
	}); err != nil {
		return nil, fmt.Errorf("failed to record experiment start: %w", err)
	}

	evaluator := &faultTolerantEvaluator{
		pool:         pool,
		faultFitness: e.cfg.GA.FaultFitness,
		logger:       e.logger,
	}

	var allRows []store.GenerationRow
	var best *ga.Individual
	bestExecution := -1
	bestSoFar := math.Inf(1)

	for exec := 0; exec < e.cfg.GA.Executions; exec++ {
		e.logger.Info("starting execution",
			"experiment", experimentID,
			"execution", exec,
			"executions", e.cfg.GA.Executions)

		result, err := e.runExecution(ctx, exec, genomeLength, cat.Size(), evaluator)
		if err != nil {
			e.finish(experimentID, started, "failed", allRows)
			return nil, fmt.Errorf("execution %d failed: %w", exec, err)
		}

		for _, row := range result.Stats {
			bestSoFar = bestFitAt(bestSoFar, row.Min)
			allRows = append(allRows, store.GenerationRow{
				Execution:  exec,
				Generation: row.Generation,
				NumEvals:   row.NumEvals,
				Avg:        row.Avg,
				Std:        row.Std,
				Min:        row.Min,
				Max:        row.Max,
				BestFit:    bestSoFar,
			})
		}

		if best == nil || result.Best.Fitness < best.Fitness {
			best = result.Best
			bestExecution = exec
		}
	}

	// Verification pass: re-evaluate the winner on a clean session and
	// keep the full cost breakdown.
	breakdown, err := pool.Breakdown(ctx, best.Genome)
	if err != nil {
		e.finish(experimentID, started, "failed", allRows)
		return nil, fmt.Errorf("failed to verify best solution: %w", err)
	}

	diameters := make([]float64, len(best.Genome))
	for i, gene := range best.Genome {
		d, err := cat.IndexToDiameter(gene)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve best genome: %w", err)
		}
		diameters[i] = d
	}

	summary := &Summary{
		ExperimentID:  experimentID,
		Executions:    e.cfg.GA.Executions,
		BestExecution: bestExecution,
		Best:          breakdown,
		Genome:        best.Genome,
		Diameters:     diameters,
		Elapsed:       time.Since(started),
	}

	if err := e.writeArtifacts(summary, allRows, started); err != nil {
		e.finish(experimentID, started, "failed", allRows)
		return nil, err
	}

	if err := e.store.SaveBestSolution(store.BestSolution{
		ExperimentID: experimentID,
		Execution:    bestExecution,
		Fitness:      breakdown.Cost,
		MaterialCost: breakdown.MaterialCost,
		Feasible:     breakdown.Feasible(),
		Genome:       best.Genome,
		Diameters:    diameters,
	}); err != nil {
		return nil, fmt.Errorf("failed to save best solution: %w", err)
	}
	e.finish(experimentID, started, "completed", allRows)

	e.logger.Info("experiment finished",
		"experiment", experimentID,
		"best_fitness", breakdown.Cost,
		"feasible", breakdown.Feasible(),
		"elapsed", summary.Elapsed)

	return summary, nil
}

// runExecution runs one independent genetic algorithm execution with
// its own derived seed.
func (e *Experiment) runExecution(ctx context.Context, exec, genomeLength, geneBound int, evaluator ga.Evaluator) (*ga.Result, error) {
	seed := e.cfg.GA.Seed
	if seed != 0 {
		// Each execution explores independently while the experiment
		// as a whole stays reproducible.
		seed += int64(exec)
	}

	engine, err := ga.New(ga.Params{
		Population:       e.cfg.GA.Population,
		Generations:      e.cfg.GA.Generations,
		CrossoverProb:    e.cfg.GA.CrossoverProb,
		MutationProb:     e.cfg.GA.MutationProb,
		GeneMutationProb: e.cfg.GA.GeneMutationProb,
		GenomeLength:     genomeLength,
		GeneBound:        geneBound,
		Workers:          e.cfg.GA.Workers,
	}, evaluator, utils.NewRandSource(seed))
	if err != nil {
		return nil, err
	}
	engine.SetLogger(e.logger)
	if e.progress != nil {
		engine.SetProgress(func(stats ga.GenerationStats, best *ga.Individual) {
			e.progress(Progress{
				Execution:   exec,
				Generation:  stats.Generation,
				BestFitness: best.Fitness,
			})
		})
	}

	return engine.Run(ctx)
}

// bestFitAt folds one generation's minimum into the experiment-wide
// incumbent. The resulting tag never rises across executions, so the
// concatenated statistics always describe the best-of-best so far.
func bestFitAt(incumbent, generationMin float64) float64 {
	if generationMin < incumbent {
		return generationMin
	}
	return incumbent
}

// finish records the terminal status and flushes the statistics rows
// collected so far. A failed experiment still leaves its partial
// statistics behind, in the store and as a CSV artifact.
func (e *Experiment) finish(experimentID string, started time.Time, status string, rows []store.GenerationRow) {
	if len(rows) > 0 {
		if err := e.store.SaveGenerationStats(experimentID, rows); err != nil {
			e.logger.Error("failed to save generation statistics",
				"experiment", experimentID,
				"error", err)
		}
		if status == "failed" {
			if _, err := e.writeStatsCSV(started.Format("2006_01_02-15_04_05"), rows); err != nil {
				e.logger.Error("failed to flush partial statistics",
					"experiment", experimentID,
					"error", err)
			}
		}
	}
	if err := e.store.SaveExperiment(store.ExperimentRecord{
		ID:          experimentID,
		Network:     e.cfg.Network.InputFile,
		PricesFile:  e.cfg.PricesFile,
		Executions:  e.cfg.GA.Executions,
		Population:  e.cfg.GA.Population,
		Generations: e.cfg.GA.Generations,
		Seed:        e.cfg.GA.Seed,
		Status:      status,
		StartedAt:   started,
		FinishedAt:  time.Now(),
	}); err != nil {
		e.logger.Error("failed to record experiment status",
			"experiment", experimentID,
			"status", status,
			"error", err)
	}
}

// writeArtifacts writes the statistics CSV, the best-solution report
// and, when enabled, the convergence chart.
func (e *Experiment) writeArtifacts(summary *Summary, rows []store.GenerationRow, started time.Time) error {
	stamp := started.Format("2006_01_02-15_04_05")

	statsFile, err := e.writeStatsCSV(stamp, rows)
	if err != nil {
		return err
	}
	summary.StatsFile = statsFile

	reportFile, err := e.writeReport(stamp, summary)
	if err != nil {
		return err
	}
	summary.ReportFile = reportFile

	if e.cfg.Output.Chart {
		chartFile, err := e.writeChart(stamp, statsFile)
		if err != nil {
			return err
		}
		summary.ChartFile = chartFile
	}
	return nil
}

// writeChart derives the envelope from the statistics artifact and
// renders it.
func (e *Experiment) writeChart(stamp, statsFile string) (string, error) {
	rows, err := report.ReadStatsCSV(statsFile)
	if err != nil {
		return "", err
	}
	envelope, err := report.Envelope(rows, e.cfg.GA.Executions)
	if err != nil {
		return "", err
	}
	chartFile := e.artifactPath(stamp, "png")
	if err := report.RenderChart(envelope, e.cfg.GA.Executions, chartFile); err != nil {
		return "", err
	}
	return chartFile, nil
}
