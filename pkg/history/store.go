// Package history persists a queryable audit of pipeline runs in SQLite.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages the run-history database.
type Store struct {
	DBPath string
	db     *sql.DB
}

// Run is one recorded pipeline run.
type Run struct {
	ID           string
	StartedAt    time.Time
	Objective    string
	Mode         string
	PlanSteps    int
	PlanFallback bool
	ReviewValid  *bool
	ScriptOrigin string
	ScriptPath   string
	Passed       *bool
	ExitCode     *int
	TimedOut     bool
}

// Open opens or creates the history database.
func Open(path string) (*Store, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve history db path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history db dir: %w", err)
	}

	db, err := sql.Open("sqlite", absPath)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	store := &Store{DBPath: absPath, db: db}
	if err := store.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) ensureSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	objective TEXT NOT NULL,
	mode TEXT NOT NULL,
	plan_steps INTEGER NOT NULL,
	plan_fallback INTEGER NOT NULL,
	review_valid INTEGER,
	script_origin TEXT,
	script_path TEXT,
	passed INTEGER,
	exit_code INTEGER,
	timed_out INTEGER NOT NULL DEFAULT 0
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("ensure history schema: %w", err)
	}
	return nil
}

// Record inserts one run into the history.
func (s *Store) Record(run Run) error {
	_, err := s.db.Exec(`
INSERT INTO runs (id, started_at, objective, mode, plan_steps, plan_fallback,
	review_valid, script_origin, script_path, passed, exit_code, timed_out)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.Objective,
		run.Mode,
		run.PlanSteps,
		boolToInt(run.PlanFallback),
		nullableBool(run.ReviewValid),
		run.ScriptOrigin,
		run.ScriptPath,
		nullableBool(run.Passed),
		nullableInt(run.ExitCode),
		boolToInt(run.TimedOut),
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Recent returns the most recent runs, newest first.
func (s *Store) Recent(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
SELECT id, started_at, objective, mode, plan_steps, plan_fallback,
	review_valid, script_origin, script_path, passed, exit_code, timed_out
FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run          Run
			startedAt    string
			planFallback int
			reviewValid  sql.NullInt64
			passed       sql.NullInt64
			exitCode     sql.NullInt64
			timedOut     int
		)
		if err := rows.Scan(&run.ID, &startedAt, &run.Objective, &run.Mode,
			&run.PlanSteps, &planFallback, &reviewValid, &run.ScriptOrigin,
			&run.ScriptPath, &passed, &exitCode, &timedOut); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339, startedAt); err == nil {
			run.StartedAt = ts
		}
		run.PlanFallback = planFallback != 0
		run.TimedOut = timedOut != 0
		if reviewValid.Valid {
			v := reviewValid.Int64 != 0
			run.ReviewValid = &v
		}
		if passed.Valid {
			v := passed.Int64 != 0
			run.Passed = &v
		}
		if exitCode.Valid {
			v := int(exitCode.Int64)
			run.ExitCode = &v
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableBool(b *bool) any {
	if b == nil {
		return nil
	}
	return boolToInt(*b)
}

func nullableInt(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}
