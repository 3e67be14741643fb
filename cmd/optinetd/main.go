// optinetd finds least-cost pipe diameter assignments for a water
// distribution network with a genetic algorithm over an external
// hydraulic solver. It runs a single experiment by default or serves
// an HTTP API with -serve.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hydronet/optinet/internal/experiment"
	"github.com/hydronet/optinet/internal/hydraulic"
	"github.com/hydronet/optinet/internal/optd"
	"github.com/hydronet/optinet/internal/store"
	"github.com/hydronet/optinet/pkg/config"
	"github.com/hydronet/optinet/pkg/logger"
)

func main() {
	configPath := flag.String("config", "optinet.yaml", "path to the experiment configuration")
	serve := flag.Bool("serve", false, "run as an HTTP daemon instead of a one-shot experiment")
	httpAddr := flag.String("http-addr", ":8080", "daemon listen address")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	if *serve {
		if err := runDaemon(*httpAddr, *logLevel); err != nil {
			logger.Error("daemon failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := runExperiment(*configPath, *logLevel); err != nil {
		logger.Error("experiment failed", "error", err)
		os.Exit(1)
	}
}

// runExperiment executes the configured experiment once and prints the
// best network found.
func runExperiment(configPath, logLevel string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	logger.SetDefault(logger.NewText(logLevel, os.Stderr))

	st, err := store.New(cfg.Output.Store, cfg.Output.StorePath)
	if err != nil {
		return err
	}
	if err := st.Init(); err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	exp := experiment.New(cfg, hydraulic.NewEPANETEngine, st)
	exp.SetProgress(func(p experiment.Progress) {
		logger.Debug("progress",
			"execution", p.Execution,
			"generation", p.Generation,
			"best_fitness", p.BestFitness)
	})

	summary, err := exp.Run(ctx)
	if err != nil {
		return err
	}

	printSummary(summary)
	if err := printBestNetwork(ctx, cfg, summary); err != nil {
		// The run itself succeeded; the verification printout is
		// informational.
		logger.Warn("failed to print the best network", "error", err)
	}
	return nil
}

func printSummary(summary *experiment.Summary) {
	fmt.Printf("\nExperiment %s finished in %s\n", summary.ExperimentID, summary.Elapsed.Round(time.Millisecond))
	fmt.Printf("Best network cost: %s (material %s)\n",
		humanize.CommafWithDigits(summary.Best.Cost, 2),
		humanize.CommafWithDigits(summary.Best.MaterialCost, 2))
	if !summary.Best.Feasible() {
		fmt.Printf("Warning: best network violates %d pressure and %d velocity bounds\n",
			summary.Best.PressureViolations, summary.Best.VelocityViolations)
	}
	fmt.Printf("Statistics: %s\n", summary.StatsFile)
	fmt.Printf("Report: %s\n", summary.ReportFile)
	if summary.ChartFile != "" {
		fmt.Printf("Chart: %s\n", summary.ChartFile)
	}
}

// printBestNetwork re-simulates the winning assignment on a fresh
// solver session and prints its node and pipe tables.
func printBestNetwork(ctx context.Context, cfg *config.Config, summary *experiment.Summary) error {
	engine, err := hydraulic.NewEPANETEngine()
	if err != nil {
		return err
	}
	net, err := hydraulic.Open(engine, cfg.Network.InputFile)
	if err != nil {
		return err
	}
	defer net.Close()

	if err := net.Initialize(); err != nil {
		return err
	}
	if err := net.SetDiameters(summary.Diameters); err != nil {
		return err
	}
	snapshot, err := net.RunSimulation(ctx)
	if err != nil {
		return err
	}
	return snapshot.WriteProperties(os.Stdout)
}

// runDaemon serves the experiment API until interrupted.
func runDaemon(addr, logLevel string) error {
	if logLevel == "" {
		logLevel = "info"
	}
	logger.SetDefault(logger.New(logLevel, os.Stderr))

	runs := optd.NewRunStore()
	executor := optd.NewExecutor(runs, hydraulic.NewEPANETEngine)
	defer executor.Shutdown()

	server := &http.Server{
		Addr:              addr,
		Handler:           optd.NewServer(executor, runs).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("daemon listening", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
