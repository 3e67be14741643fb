// Package report turns per-generation statistics into convergence
// artifacts: the best-so-far envelope and its chart.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// Row is one generation's statistics as written to the run artifact.
type Row struct {
	Generation int
	NumEvals   int
	Avg        float64
	Std        float64
	Min        float64
	Max        float64
	BestFit    float64
}

// ReadStatsCSV reads a statistics artifact back. The file carries one
// header row and the executions' generation rows concatenated in order.
func ReadStatsCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open statistics file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 7

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read statistics file %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("statistics file %s has no data rows", path)
	}

	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		row, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("statistics file %s, row %d: %w", path, i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(record []string) (Row, error) {
	var row Row
	var err error

	if row.Generation, err = strconv.Atoi(record[0]); err != nil {
		return row, fmt.Errorf("invalid generation %q", record[0])
	}
	if row.NumEvals, err = strconv.Atoi(record[1]); err != nil {
		return row, fmt.Errorf("invalid evaluation count %q", record[1])
	}

	fields := []struct {
		value string
		dst   *float64
	}{
		{record[2], &row.Avg},
		{record[3], &row.Std},
		{record[4], &row.Min},
		{record[5], &row.Max},
		{record[6], &row.BestFit},
	}
	for _, f := range fields {
		v, err := strconv.ParseFloat(f.value, 64)
		if err != nil {
			return row, fmt.Errorf("invalid value %q", f.value)
		}
		*f.dst = v
	}
	return row, nil
}

// Envelope computes the convergence envelope over executions runs:
// the per-execution best-so-far trace first, then the elementwise
// minimum across executions. The result has one point per generation
// and is monotone non-increasing. The rows must split evenly into
// executions equally long traces.
func Envelope(rows []Row, executions int) ([]float64, error) {
	if executions < 1 {
		return nil, fmt.Errorf("executions must be at least 1, got %d", executions)
	}
	if len(rows) == 0 || len(rows)%executions != 0 {
		return nil, fmt.Errorf("%d statistics rows do not split into %d executions", len(rows), executions)
	}

	perExec := len(rows) / executions
	envelope := make([]float64, perExec)

	for exec := 0; exec < executions; exec++ {
		trace := rows[exec*perExec : (exec+1)*perExec]
		bestSoFar := trace[0].BestFit
		for gen, row := range trace {
			if row.BestFit < bestSoFar {
				bestSoFar = row.BestFit
			}
			if exec == 0 || bestSoFar < envelope[gen] {
				envelope[gen] = bestSoFar
			}
		}
	}
	return envelope, nil
}
