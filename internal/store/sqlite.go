package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists records in a single SQLite database file, so
// experiment history survives daemon restarts.
type SQLiteStore struct {
	path string
	db   *sql.DB
}

// NewSQLiteStore creates a store backed by the database file at path.
// The file is created on Init.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init() error {
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database %s: %w", s.path, err)
	}
	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent saves.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		_ = db.Close()
		return err
	}
	s.db = db
	return nil
}

func createTables(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS experiments (
			id TEXT PRIMARY KEY,
			network TEXT NOT NULL,
			prices_file TEXT NOT NULL,
			executions INTEGER NOT NULL,
			population INTEGER NOT NULL,
			generations INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			status TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS generation_stats (
			experiment_id TEXT NOT NULL,
			execution INTEGER NOT NULL,
			generation INTEGER NOT NULL,
			num_evals INTEGER NOT NULL,
			avg REAL NOT NULL,
			std REAL NOT NULL,
			min REAL NOT NULL,
			max REAL NOT NULL,
			best_fit REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_generation_stats_experiment
			ON generation_stats(experiment_id, execution, generation)`,
		`CREATE TABLE IF NOT EXISTS best_solutions (
			experiment_id TEXT PRIMARY KEY,
			execution INTEGER NOT NULL,
			fitness REAL NOT NULL,
			material_cost REAL NOT NULL,
			feasible INTEGER NOT NULL,
			genome TEXT NOT NULL,
			diameters TEXT NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) SaveExperiment(rec ExperimentRecord) error {
	_, err := s.db.Exec(`INSERT INTO experiments
		(id, network, prices_file, executions, population, generations, seed, status, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			finished_at = excluded.finished_at`,
		rec.ID, rec.Network, rec.PricesFile, rec.Executions, rec.Population,
		rec.Generations, rec.Seed, rec.Status,
		rec.StartedAt.UnixNano(), rec.FinishedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save experiment %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetExperiment(id string) (ExperimentRecord, error) {
	row := s.db.QueryRow(`SELECT id, network, prices_file, executions, population,
		generations, seed, status, started_at, finished_at
		FROM experiments WHERE id = ?`, id)
	return scanExperiment(row)
}

func (s *SQLiteStore) ListExperiments() ([]ExperimentRecord, error) {
	rows, err := s.db.Query(`SELECT id, network, prices_file, executions, population,
		generations, seed, status, started_at, finished_at
		FROM experiments ORDER BY started_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}
	defer rows.Close()

	var out []ExperimentRecord
	for rows.Next() {
		rec, err := scanExperiment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExperiment(row rowScanner) (ExperimentRecord, error) {
	var rec ExperimentRecord
	var startedAt, finishedAt int64
	err := row.Scan(&rec.ID, &rec.Network, &rec.PricesFile, &rec.Executions,
		&rec.Population, &rec.Generations, &rec.Seed, &rec.Status,
		&startedAt, &finishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ExperimentRecord{}, ErrNotFound
	}
	if err != nil {
		return ExperimentRecord{}, fmt.Errorf("failed to scan experiment: %w", err)
	}
	rec.StartedAt = time.Unix(0, startedAt)
	rec.FinishedAt = time.Unix(0, finishedAt)
	return rec, nil
}

func (s *SQLiteStore) SaveGenerationStats(experimentID string, rows []GenerationRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO generation_stats
		(experiment_id, execution, generation, num_evals, avg, std, min, max, best_fit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(experimentID, r.Execution, r.Generation,
			r.NumEvals, r.Avg, r.Std, r.Min, r.Max, r.BestFit); err != nil {
			return fmt.Errorf("failed to save statistics row: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) GenerationStats(experimentID string) ([]GenerationRow, error) {
	rows, err := s.db.Query(`SELECT execution, generation, num_evals, avg, std, min, max, best_fit
		FROM generation_stats WHERE experiment_id = ?
		ORDER BY execution, generation`, experimentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query statistics: %w", err)
	}
	defer rows.Close()

	var out []GenerationRow
	for rows.Next() {
		var r GenerationRow
		if err := rows.Scan(&r.Execution, &r.Generation, &r.NumEvals,
			&r.Avg, &r.Std, &r.Min, &r.Max, &r.BestFit); err != nil {
			return nil, fmt.Errorf("failed to scan statistics row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveBestSolution(sol BestSolution) error {
	genome, err := json.Marshal(sol.Genome)
	if err != nil {
		return fmt.Errorf("failed to encode genome: %w", err)
	}
	diameters, err := json.Marshal(sol.Diameters)
	if err != nil {
		return fmt.Errorf("failed to encode diameters: %w", err)
	}

	_, err = s.db.Exec(`INSERT INTO best_solutions
		(experiment_id, execution, fitness, material_cost, feasible, genome, diameters)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(experiment_id) DO UPDATE SET
			execution = excluded.execution,
			fitness = excluded.fitness,
			material_cost = excluded.material_cost,
			feasible = excluded.feasible,
			genome = excluded.genome,
			diameters = excluded.diameters`,
		sol.ExperimentID, sol.Execution, sol.Fitness, sol.MaterialCost,
		sol.Feasible, string(genome), string(diameters))
	if err != nil {
		return fmt.Errorf("failed to save best solution for %s: %w", sol.ExperimentID, err)
	}
	return nil
}

func (s *SQLiteStore) BestSolution(experimentID string) (BestSolution, error) {
	var sol BestSolution
	var genome, diameters string
	err := s.db.QueryRow(`SELECT experiment_id, execution, fitness, material_cost, feasible, genome, diameters
		FROM best_solutions WHERE experiment_id = ?`, experimentID).
		Scan(&sol.ExperimentID, &sol.Execution, &sol.Fitness, &sol.MaterialCost,
			&sol.Feasible, &genome, &diameters)
	if errors.Is(err, sql.ErrNoRows) {
		return BestSolution{}, ErrNotFound
	}
	if err != nil {
		return BestSolution{}, fmt.Errorf("failed to scan best solution: %w", err)
	}

	if err := json.Unmarshal([]byte(genome), &sol.Genome); err != nil {
		return BestSolution{}, fmt.Errorf("failed to decode genome: %w", err)
	}
	if err := json.Unmarshal([]byte(diameters), &sol.Diameters); err != nil {
		return BestSolution{}, fmt.Errorf("failed to decode diameters: %w", err)
	}
	return sol, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
