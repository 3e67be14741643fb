package optd_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hydronet/optinet/internal/hydraulic"
	"github.com/hydronet/optinet/internal/hydraulic/hydrotest"
	"github.com/hydronet/optinet/internal/optd"
	"github.com/hydronet/optinet/internal/store"
)

const twoLoopPrices = `25,2
51,5
76,8
102,11
152,16
203,23
254,32
305,50
356,60
406,90
457,130
508,170
559,300
610,550
`

func newTestServer(t *testing.T) (*httptest.Server, *optd.Executor, string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "TwoLoop.inp"), []byte("[TITLE]\n"), 0o644); err != nil {
		t.Fatalf("failed to write topology file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "prices.csv"), []byte(twoLoopPrices), 0o644); err != nil {
		t.Fatalf("failed to write price table: %v", err)
	}

	factory := func() (hydraulic.Engine, error) {
		return hydrotest.TwoLoop(), nil
	}
	runs := optd.NewRunStore()
	executor := optd.NewExecutor(runs, factory)
	t.Cleanup(executor.Shutdown)

	server := httptest.NewServer(optd.NewServer(executor, runs).Handler())
	t.Cleanup(server.Close)
	return server, executor, dir
}

func experimentYAML(dir string, generations int) string {
	return fmt.Sprintf(`network:
  input_file: %s
prices_file: %s
ga:
  population: 12
  generations: %d
  executions: 1
  seed: 42
output:
  dir: %s
  chart: false
`, filepath.Join(dir, "TwoLoop.inp"), filepath.Join(dir, "prices.csv"),
		generations, filepath.Join(dir, "results"))
}

func submitRun(t *testing.T, server *httptest.Server, body string) optd.ExperimentRun {
	t.Helper()
	resp, err := http.Post(server.URL+"/v1/experiments", "application/yaml", strings.NewReader(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", resp.StatusCode)
	}
	var run optd.ExperimentRun
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		t.Fatalf("failed to decode run: %v", err)
	}
	return run
}

func waitForStatus(t *testing.T, server *httptest.Server, id string, want ...optd.Status) optd.ExperimentRun {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(server.URL + "/v1/experiments/" + id)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var run optd.ExperimentRun
		err = json.NewDecoder(resp.Body).Decode(&run)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("failed to decode run: %v", err)
		}
		for _, status := range want {
			if run.Status == status {
				return run
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("run %s never reached %v", id, want)
	return optd.ExperimentRun{}
}

func TestHealth(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
}

func TestSubmitAndComplete(t *testing.T) {
	server, _, dir := newTestServer(t)

	run := submitRun(t, server, experimentYAML(dir, 4))
	if run.ID == "" {
		t.Fatal("Expected a run ID")
	}

	done := waitForStatus(t, server, run.ID, optd.StatusCompleted)
	if done.Summary == nil {
		t.Fatal("Expected a summary on the completed run")
	}
	if len(done.Summary.Genome) != 8 {
		t.Errorf("Expected a genome for 8 pipes, got %d", len(done.Summary.Genome))
	}
	if done.Error != "" {
		t.Errorf("Expected no error, got %q", done.Error)
	}
}

func TestSubmitInvalidConfig(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp, err := http.Post(server.URL+"/v1/experiments", "application/yaml",
		strings.NewReader("ga:\n  population: 1\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", resp.StatusCode)
	}
}

func TestGetUnknownRun(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/v1/experiments/absent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}
}

func TestCancelRun(t *testing.T) {
	server, _, dir := newTestServer(t)

	// A generation count this large cannot finish before the cancel.
	run := submitRun(t, server, experimentYAML(dir, 1000000))

	resp, err := http.Post(server.URL+"/v1/experiments/"+run.ID+"/cancel", "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", resp.StatusCode)
	}

	done := waitForStatus(t, server, run.ID, optd.StatusCancelled)
	if done.Summary != nil {
		t.Error("Expected no summary on a cancelled run")
	}

	// A second cancel must be rejected.
	done = waitForStatus(t, server, run.ID, optd.StatusCancelled)
	resp, err = http.Post(server.URL+"/v1/experiments/"+done.ID+"/cancel", "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Expected status 409 for a finished run, got %d", resp.StatusCode)
	}
}

func TestSubmittedStoreKindHonored(t *testing.T) {
	server, _, dir := newTestServer(t)

	storePath := filepath.Join(dir, "runs.db")
	body := experimentYAML(dir, 3) +
		fmt.Sprintf("  store: sqlite\n  store_path: %s\n", storePath)
	run := submitRun(t, server, body)
	waitForStatus(t, server, run.ID, optd.StatusCompleted)

	st, err := store.New("sqlite", storePath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := st.Init(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer st.Close()

	recs, err := st.ListExperiments()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("Expected 1 persisted experiment, got %d", len(recs))
	}
	if recs[0].Status != "completed" {
		t.Errorf("Expected a completed record, got %q", recs[0].Status)
	}

	sol, err := st.BestSolution(recs[0].ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sol.Genome) != 8 {
		t.Errorf("Expected a persisted genome for 8 pipes, got %d", len(sol.Genome))
	}
}

func TestListRuns(t *testing.T) {
	server, _, dir := newTestServer(t)

	first := submitRun(t, server, experimentYAML(dir, 2))
	second := submitRun(t, server, experimentYAML(dir, 2))
	waitForStatus(t, server, first.ID, optd.StatusCompleted)
	waitForStatus(t, server, second.ID, optd.StatusCompleted)

	resp, err := http.Get(server.URL + "/v1/experiments")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	var runs []optd.ExperimentRun
	if err := json.NewDecoder(resp.Body).Decode(&runs); err != nil {
		t.Fatalf("failed to decode runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
}
