// Package audit implements the Audit Store (spec §4.8): best-effort
// persistence of every attempt and run across a ralph invocation. It
// follows the teacher framework's ExecutionStore design — interface-first,
// safe-defaults NoOp fallback, writes that never propagate errors to the
// caller — adapted from a single StoredExecution blob to the two-table
// (attempts, run_metadata) relational shape spec §4.8 names, and backed by
// an embedded SQLite database instead of the teacher's pluggable
// StorageProvider (Redis/etc.), since ralph runs as a local CLI with no
// shared backing store to point at.
package audit

import (
	"context"
	"time"
)

// Outcome is a run's terminal status, per spec §4.8's run_metadata.outcome.
type Outcome string

const (
	OutcomeSuccess         Outcome = "success"
	OutcomeFailed          Outcome = "failed"
	OutcomeBudgetExhausted Outcome = "budget_exhausted"
	OutcomeInProgress      Outcome = "in_progress"
)

// AttemptRecord is one row of the attempts table: every field of
// tier.TierAttemptRecord, plus the run it belongs to.
type AttemptRecord struct {
	RunID          string
	TierIndex      int
	TierName       string
	IterationIndex int
	TestStatus     string
	FailedTests    []string
	ErrorMessages  []string
	CostUSD        float64
	DurationMS     int64
	RecordedAt     time.Time
}

// RunMetadata is one row of the run_metadata table.
type RunMetadata struct {
	RunID             string
	Objective         string
	WorkingDir        string
	TestCommand       string
	TierConfigPath    string
	StartedAt         time.Time
	CompletedAt       *time.Time
	Outcome           Outcome
	ResolvedTierName  string
	ResolvedIteration int
}

// Store persists attempts and run metadata. Every method is best-effort:
// implementations must never return an error that changes control flow —
// see Wrap, which enforces this at the call site regardless of what a
// given backend does internally.
type Store interface {
	RecordAttempt(ctx context.Context, a AttemptRecord) error
	UpsertRunMetadata(ctx context.Context, m RunMetadata) error
	Close() error
}
