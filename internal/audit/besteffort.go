package audit

import (
	"context"

	"github.com/itsneelabh/ralph/internal/corekit"
)

// BestEffort wraps a Store so that every call is guaranteed to never
// propagate an error to the caller — spec §4.8: "a failure to persist is
// logged at warn level and swallowed; the run continues unaffected." This
// is enforced here rather than trusted to each backend, since a future
// Store implementation might forget to honor it.
type BestEffort struct {
	inner  Store
	logger corekit.Logger
}

// Wrap builds a BestEffort around inner, defaulting to a NoOpLogger.
func Wrap(inner Store, logger corekit.Logger) *BestEffort {
	if logger == nil {
		logger = &corekit.NoOpLogger{}
	}
	return &BestEffort{inner: inner, logger: logger}
}

// RecordAttempt never returns an error; a failure is logged and dropped.
func (b *BestEffort) RecordAttempt(ctx context.Context, a AttemptRecord) {
	if err := b.inner.RecordAttempt(ctx, a); err != nil {
		b.logger.Warn("audit: failed to record attempt", map[string]interface{}{
			"run_id": a.RunID, "iteration": a.IterationIndex, "error": err.Error(),
		})
	}
}

// UpsertRunMetadata never returns an error; a failure is logged and dropped.
func (b *BestEffort) UpsertRunMetadata(ctx context.Context, m RunMetadata) {
	if err := b.inner.UpsertRunMetadata(ctx, m); err != nil {
		b.logger.Warn("audit: failed to upsert run metadata", map[string]interface{}{
			"run_id": m.RunID, "error": err.Error(),
		})
	}
}

// Close closes the underlying store, logging but swallowing any error.
func (b *BestEffort) Close() {
	if err := b.inner.Close(); err != nil {
		b.logger.Warn("audit: failed to close store", map[string]interface{}{"error": err.Error()})
	}
}

// OpenBestEffort opens a SQLite-backed store at path, falling back to a
// NoOpStore (and a single warn log) if Open fails for any reason — a
// locked file, a read-only filesystem, a corrupt database.
func OpenBestEffort(path string, logger corekit.Logger) *BestEffort {
	if logger == nil {
		logger = &corekit.NoOpLogger{}
	}
	store, err := Open(path)
	if err != nil {
		logger.Warn("audit: falling back to no-op store", map[string]interface{}{"path": path, "error": err.Error()})
		return Wrap(NewNoOpStore(), logger)
	}
	return Wrap(store, logger)
}
