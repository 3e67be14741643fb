package experiment

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/hydronet/optinet/internal/store"
)

// artifactPath builds the timestamped artifact name inside the output
// directory.
func (e *Experiment) artifactPath(stamp, ext string) string {
	return filepath.Join(e.cfg.Output.Dir, fmt.Sprintf("ga_dimen_%s.%s", stamp, ext))
}

// writeStatsCSV writes every execution's generation statistics to one
// CSV artifact, executions concatenated in order.
func (e *Experiment) writeStatsCSV(stamp string, rows []store.GenerationRow) (string, error) {
	if err := os.MkdirAll(e.cfg.Output.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", e.cfg.Output.Dir, err)
	}

	path := e.artifactPath(stamp, "csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create statistics file %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"gen", "nevals", "avg", "std", "min", "max", "bestFit"}); err != nil {
		return "", fmt.Errorf("failed to write statistics header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.Generation),
			strconv.Itoa(row.NumEvals),
			formatFloat(row.Avg),
			formatFloat(row.Std),
			formatFloat(row.Min),
			formatFloat(row.Max),
			formatFloat(row.BestFit),
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("failed to write statistics row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush statistics file: %w", err)
	}
	return path, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// writeReport writes the human-readable best-solution report.
func (e *Experiment) writeReport(stamp string, summary *Summary) (string, error) {
	path := e.artifactPath(stamp, "txt")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file %s: %w", path, err)
	}
	defer f.Close()

	feasibility := "feasible"
	if !summary.Best.Feasible() {
		feasibility = fmt.Sprintf("infeasible (%d pressure, %d velocity violations)",
			summary.Best.PressureViolations, summary.Best.VelocityViolations)
	}

	fmt.Fprintf(f, "Experiment %s\n", summary.ExperimentID)
	fmt.Fprintf(f, "Network: %s\n", e.cfg.Network.InputFile)
	fmt.Fprintf(f, "Executions: %d (best from execution %d)\n", summary.Executions, summary.BestExecution)
	fmt.Fprintf(f, "Elapsed: %s\n\n", summary.Elapsed.Round(1e6))

	fmt.Fprintf(f, "Best network cost: %s\n", humanize.CommafWithDigits(summary.Best.Cost, 2))
	fmt.Fprintf(f, "Material cost: %s\n", humanize.CommafWithDigits(summary.Best.MaterialCost, 2))
	fmt.Fprintf(f, "Feasibility: %s\n\n", feasibility)

	fmt.Fprintf(f, "%-6s %10s %10s\n", "Pipe", "Index", "Diameter")
	for i, d := range summary.Diameters {
		fmt.Fprintf(f, "%-6d %10d %10.0f\n", i+1, summary.Genome[i], d)
	}
	return path, nil
}
