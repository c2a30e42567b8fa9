package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS attempts (
	run_id          TEXT NOT NULL,
	tier_index      INTEGER NOT NULL,
	tier_name       TEXT NOT NULL,
	iteration_index INTEGER NOT NULL,
	test_status     TEXT NOT NULL,
	failed_tests    TEXT NOT NULL,
	error_messages  TEXT NOT NULL,
	cost_usd        REAL NOT NULL,
	duration_ms     INTEGER NOT NULL,
	recorded_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_attempts_run_id ON attempts(run_id);
CREATE INDEX IF NOT EXISTS idx_attempts_run_tier ON attempts(run_id, tier_index);

CREATE TABLE IF NOT EXISTS run_metadata (
	run_id             TEXT PRIMARY KEY,
	objective          TEXT NOT NULL,
	working_dir        TEXT NOT NULL,
	test_command       TEXT NOT NULL,
	tier_config_path   TEXT NOT NULL,
	started_at         TEXT NOT NULL,
	completed_at       TEXT,
	outcome            TEXT NOT NULL,
	resolved_tier_name TEXT NOT NULL,
	resolved_iteration INTEGER NOT NULL
);
`

// SQLiteStore is the default Store backend: one embedded, pure-Go (no
// cgo) SQLite database file per working directory.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates (or reuses) the SQLite database at path and applies the
// schema idempotently. A 3-second timeout bounds how long a misbehaving
// or locked database file can block startup — callers should fall back to
// NewNoOpStore() if Open fails, per spec §4.8's "best-effort" requirement.
func Open(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("audit: create %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite serializes writers; avoid lock contention

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// RecordAttempt inserts one attempts row, JSON-encoding the list-valued
// fields per spec §4.8.
func (s *SQLiteStore) RecordAttempt(ctx context.Context, a AttemptRecord) error {
	failedTests, err := json.Marshal(a.FailedTests)
	if err != nil {
		return err
	}
	errorMessages, err := json.Marshal(a.ErrorMessages)
	if err != nil {
		return err
	}

	recordedAt := a.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO attempts (run_id, tier_index, tier_name, iteration_index, test_status, failed_tests, error_messages, cost_usd, duration_ms, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.RunID, a.TierIndex, a.TierName, a.IterationIndex, a.TestStatus, string(failedTests), string(errorMessages), a.CostUSD, a.DurationMS, recordedAt.Format(time.RFC3339Nano),
	)
	return err
}

// UpsertRunMetadata inserts or replaces the single run_metadata row for
// m.RunID, so the same run can be updated repeatedly as it progresses
// (in_progress -> success/failed).
func (s *SQLiteStore) UpsertRunMetadata(ctx context.Context, m RunMetadata) error {
	var completedAt interface{}
	if m.CompletedAt != nil {
		completedAt = m.CompletedAt.Format(time.RFC3339Nano)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_metadata (run_id, objective, working_dir, test_command, tier_config_path, started_at, completed_at, outcome, resolved_tier_name, resolved_iteration)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			completed_at = excluded.completed_at,
			outcome = excluded.outcome,
			resolved_tier_name = excluded.resolved_tier_name,
			resolved_iteration = excluded.resolved_iteration`,
		m.RunID, m.Objective, m.WorkingDir, m.TestCommand, m.TierConfigPath, m.StartedAt.Format(time.RFC3339Nano), completedAt, string(m.Outcome), m.ResolvedTierName, m.ResolvedIteration,
	)
	return err
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
