package optd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hydronet/optinet/internal/experiment"
	"github.com/hydronet/optinet/internal/hydraulic"
	"github.com/hydronet/optinet/internal/store"
	"github.com/hydronet/optinet/pkg/config"
	"github.com/hydronet/optinet/pkg/logger"
	"github.com/hydronet/optinet/pkg/utils"
)

// Executor runs submitted experiments in background goroutines, one
// goroutine per run, and keeps the run store current. Each run persists
// to the store its own configuration asks for.
type Executor struct {
	runs    *RunStore
	factory hydraulic.Factory
	logger  *slog.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// NewExecutor creates an executor over the given run store.
func NewExecutor(runs *RunStore, factory hydraulic.Factory) *Executor {
	return &Executor{
		runs:    runs,
		factory: factory,
		logger:  logger.Default,
		cancels: make(map[string]context.CancelFunc),
	}
}

// SetLogger sets the executor's logger
func (e *Executor) SetLogger(l *slog.Logger) {
	e.logger = l
}

// Submit registers a configuration and starts it in the background.
// The returned value is a snapshot of the pending run.
func (e *Executor) Submit(cfg *config.Config) ExperimentRun {
	id := utils.GenerateExperimentID()
	run := *e.runs.Add(id)

	ctx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	e.cancels[id] = cancel
	e.mu.Unlock()

	e.wg.Add(1)
	go e.execute(ctx, id, cfg)

	return run
}

// Cancel stops a running experiment. Finished runs cannot be
// cancelled.
func (e *Executor) Cancel(id string) error {
	run, err := e.runs.Get(id)
	if err != nil {
		return err
	}
	if run.Status != StatusPending && run.Status != StatusRunning {
		return fmt.Errorf("run %s is already %s", id, run.Status)
	}

	e.mu.Lock()
	cancel, ok := e.cancels[id]
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("run %s has no active execution", id)
	}
	cancel()
	return nil
}

// Shutdown cancels every active run and waits for their goroutines.
func (e *Executor) Shutdown() {
	e.mu.Lock()
	for _, cancel := range e.cancels {
		cancel()
	}
	e.mu.Unlock()
	e.wg.Wait()
}

func (e *Executor) execute(ctx context.Context, id string, cfg *config.Config) {
	defer e.wg.Done()
	defer func() {
		e.mu.Lock()
		delete(e.cancels, id)
		e.mu.Unlock()
	}()

	e.runs.update(id, func(run *ExperimentRun) {
		run.Status = StatusRunning
		run.StartedAt = time.Now()
	})

	st, err := openStore(cfg)
	if err != nil {
		e.runs.update(id, func(run *ExperimentRun) {
			run.FinishedAt = time.Now()
			run.Status = StatusFailed
			run.Error = err.Error()
		})
		e.logger.Error("run failed", "run", id, "error", err)
		return
	}
	defer st.Close()

	exp := experiment.New(cfg, e.factory, st)
	exp.SetLogger(e.logger)
	exp.SetProgress(func(p experiment.Progress) {
		e.runs.update(id, func(run *ExperimentRun) {
			run.Progress = p
		})
	})

	summary, err := exp.Run(ctx)

	e.runs.update(id, func(run *ExperimentRun) {
		run.FinishedAt = time.Now()
		switch {
		case errors.Is(err, context.Canceled):
			run.Status = StatusCancelled
		case err != nil:
			run.Status = StatusFailed
			run.Error = err.Error()
		default:
			run.Status = StatusCompleted
			run.Summary = summary
		}
	})

	if err != nil && !errors.Is(err, context.Canceled) {
		e.logger.Error("run failed", "run", id, "error", err)
	}
}

// openStore builds and initializes the store a submitted configuration
// selects.
func openStore(cfg *config.Config) (store.Store, error) {
	st, err := store.New(cfg.Output.Store, cfg.Output.StorePath)
	if err != nil {
		return nil, err
	}
	if err := st.Init(); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}
