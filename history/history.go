// Package history records per-run summaries in a SQLite database. The
// store is purely informational: it never influences what a scrape fetches
// or writes.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// RunSummary describes one completed scrape run.
type RunSummary struct {
	RunID      uuid.UUID `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Pages      int       `json:"pages"`
	Matched    int       `json:"matched"`
	Saved      int       `json:"saved"`
	OutputDir  string    `json:"output_dir"`
	Source     string    `json:"source"` // "listing" or "feed"
}

// RunStore persists run summaries using SQLite.
type RunStore struct {
	db *sql.DB
}

// Open opens the run store at the given database path, creating the schema
// if needed.
func Open(dbPath string) (*RunStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &RunStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the runs table if it doesn't exist.
func (s *RunStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		pages INTEGER NOT NULL,
		matched INTEGER NOT NULL,
		saved INTEGER NOT NULL,
		output_dir TEXT NOT NULL,
		source TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *RunStore) Close() error {
	return s.db.Close()
}

// RecordRun inserts one run summary.
func (s *RunStore) RecordRun(run RunSummary) error {
	query := `INSERT INTO runs
		(run_id, started_at, finished_at, pages, matched, saved, output_dir, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query,
		run.RunID.String(),
		run.StartedAt.Format(time.RFC3339),
		run.FinishedAt.Format(time.RFC3339),
		run.Pages,
		run.Matched,
		run.Saved,
		run.OutputDir,
		run.Source,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	return nil
}

// ListRuns returns past runs, newest first, up to limit (0 means all).
func (s *RunStore) ListRuns(limit int) ([]RunSummary, error) {
	query := `SELECT run_id, started_at, finished_at, pages, matched, saved, output_dir, source
		FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var run RunSummary
		var id, started, finished string
		if err := rows.Scan(&id, &started, &finished,
			&run.Pages, &run.Matched, &run.Saved, &run.OutputDir, &run.Source); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.RunID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("failed to parse run id: %w", err)
		}
		if run.StartedAt, err = time.Parse(time.RFC3339, started); err != nil {
			return nil, fmt.Errorf("failed to parse started_at: %w", err)
		}
		if run.FinishedAt, err = time.Parse(time.RFC3339, finished); err != nil {
			return nil, fmt.Errorf("failed to parse finished_at: %w", err)
		}

		runs = append(runs, run)
	}

	return runs, rows.Err()
}
