package hydraulic_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/hydronet/optinet/internal/hydraulic"
	"github.com/hydronet/optinet/internal/hydraulic/hydrotest"
)

// writeTopologyFile creates a placeholder topology input; the fake
// engine never reads it, but Open checks for its existence.
func writeTopologyFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "TwoLoop.inp")
	if err := os.WriteFile(path, []byte("[TITLE]\nTwo loop network\n"), 0o644); err != nil {
		t.Fatalf("failed to write topology file: %v", err)
	}
	return path
}

func openTwoLoop(t *testing.T) (*hydraulic.Network, *hydrotest.Engine) {
	t.Helper()
	engine := hydrotest.TwoLoop()
	net, err := hydraulic.Open(engine, writeTopologyFile(t))
	if err != nil {
		t.Fatalf("unexpected error opening network: %v", err)
	}
	if err := net.Initialize(); err != nil {
		t.Fatalf("unexpected error initializing network: %v", err)
	}
	return net, engine
}

func TestOpenMissingTopology(t *testing.T) {
	engine := hydrotest.TwoLoop()
	_, err := hydraulic.Open(engine, filepath.Join(t.TempDir(), "absent.inp"))
	if err == nil {
		t.Fatal("expected error for missing topology file")
	}

	var cfgErr *hydraulic.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %T: %v", err, err)
	}
	if engine.Opened {
		t.Error("engine must not be touched when the topology file is missing")
	}
}

func TestInitializeCounts(t *testing.T) {
	net, _ := openTwoLoop(t)

	if net.NodeCount() != 7 {
		t.Errorf("Expected 7 nodes, got %d", net.NodeCount())
	}
	if net.LinkCount() != 8 {
		t.Errorf("Expected 8 links, got %d", net.LinkCount())
	}
}

func TestSetDiametersDimensionMismatch(t *testing.T) {
	net, engine := openTwoLoop(t)

	err := net.SetDiameters([]float64{457, 254, 406})
	if err == nil {
		t.Fatal("expected error for short diameter assignment")
	}

	var dimErr *hydraulic.DimensionMismatchError
	if !errors.As(err, &dimErr) {
		t.Fatalf("expected DimensionMismatchError, got %T: %v", err, err)
	}
	if dimErr.Want != 8 || dimErr.Got != 3 {
		t.Errorf("Expected mismatch 8/3, got %d/%d", dimErr.Want, dimErr.Got)
	}
	if engine.DiameterWrites != 0 {
		t.Errorf("Expected no solver-state mutation before the length check, got %d writes", engine.DiameterWrites)
	}
}

func TestSetDiametersWritesEveryLink(t *testing.T) {
	net, engine := openTwoLoop(t)

	if err := net.SetDiameters(hydrotest.TwoLoopDiameters); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if engine.DiameterWrites != 8 {
		t.Errorf("Expected 8 diameter writes, got %d", engine.DiameterWrites)
	}
	if engine.Links[3].Diameter != 102 {
		t.Errorf("Expected link 4 diameter 102, got %f", engine.Links[3].Diameter)
	}
}

func TestRunSimulationResetsPerCall(t *testing.T) {
	net, engine := openTwoLoop(t)
	ctx := context.Background()

	first, err := net.RunSimulation(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := net.RunSimulation(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if engine.InitCalls != 2 {
		t.Errorf("Expected the solver to be re-initialized on every run, got %d init calls", engine.InitCalls)
	}
	if len(first.Periods) != 1 || len(second.Periods) != 1 {
		t.Fatalf("Expected one period per run, got %d and %d", len(first.Periods), len(second.Periods))
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical snapshots for identical diameters (determinism)")
	}

	// Snapshots must be independent values, not shared accumulation state.
	first.Periods[0].Nodes[0].Pressure = -1
	if second.Periods[0].Nodes[0].Pressure == -1 {
		t.Error("Expected each run to return a freshly allocated snapshot")
	}
}

func TestRunSimulationExtendedPeriod(t *testing.T) {
	engine := hydrotest.TwoLoop()
	engine.PeriodCount = 24
	net, err := hydraulic.Open(engine, writeTopologyFile(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := net.Initialize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap, err := net.RunSimulation(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Periods) != 24 {
		t.Fatalf("Expected 24 periods, got %d", len(snap.Periods))
	}
	if snap.Periods[23].Time != 23*3600 {
		t.Errorf("Expected last period clock 82800, got %d", snap.Periods[23].Time)
	}
	for _, p := range snap.Periods {
		if len(p.Nodes) != 7 || len(p.Links) != 8 {
			t.Fatalf("Expected full entity tables per period, got %d nodes and %d links", len(p.Nodes), len(p.Links))
		}
	}
}

func TestRunSimulationCancellation(t *testing.T) {
	net, _ := openTwoLoop(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := net.RunSimulation(ctx)
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunSimulationSolverFault(t *testing.T) {
	engine := hydrotest.TwoLoop()
	engine.SolveErr = &hydraulic.SolverError{Op: "SolvePeriod", Code: 110, Err: errors.New("cannot solve network hydraulic equations")}
	net, err := hydraulic.Open(engine, writeTopologyFile(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := net.Initialize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = net.RunSimulation(context.Background())
	var solverErr *hydraulic.SolverError
	if !errors.As(err, &solverErr) {
		t.Fatalf("expected SolverError, got %T: %v", err, err)
	}
	if solverErr.Code != 110 {
		t.Errorf("Expected engine code 110, got %d", solverErr.Code)
	}
}

func TestClose(t *testing.T) {
	net, engine := openTwoLoop(t)

	if err := net.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if engine.HydraulicsOpen {
		t.Error("Expected hydraulics solver to be released")
	}
	if !engine.Closed {
		t.Error("Expected solver session to be released")
	}
}

func TestWriteProperties(t *testing.T) {
	net, _ := openTwoLoop(t)

	snap, err := net.RunSimulation(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sb strings.Builder
	if err := snap.WriteProperties(&sb); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := sb.String()
	for _, want := range []string{"Network nodes", "Network pipes", "Pressure", "Velocity", "53.25"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected properties output to contain %q, got:\n%s", want, out)
		}
	}
}
