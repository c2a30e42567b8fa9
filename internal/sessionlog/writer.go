// Package sessionlog implements the per-run filesystem layout (spec §6):
// <project>/.ralph/session-<session_id>/iterations.log, one JSON line per
// iteration event, plus a per-iteration checkpoint snapshot file. This
// sits alongside, not instead of, the Audit Store's SQLite tables — the
// session directory is a plain, greppable record a user can tail or ship
// to a bug report without a SQLite client.
package sessionlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/itsneelabh/ralph/internal/corekit"
)

// IterationEvent is one line appended to iterations.log.
type IterationEvent struct {
	TierIndex      int       `json:"tier_index"`
	TierName       string    `json:"tier_name"`
	IterationIndex int       `json:"iteration_index"`
	TestStatus     string    `json:"test_status"`
	FailedTests    []string  `json:"failed_tests"`
	ErrorMessages  []string  `json:"error_messages"`
	CostUSD        float64   `json:"cost_usd"`
	DurationMS     int64     `json:"duration_ms"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// Writer appends iteration events to a single run's session directory.
type Writer struct {
	dir     string
	logPath string
	mu      sync.Mutex
}

// Open creates <projectDir>/.ralph/session-<sessionID>/ and returns a
// Writer bound to it.
func Open(projectDir, sessionID string) (*Writer, error) {
	dir := filepath.Join(projectDir, ".ralph", fmt.Sprintf("session-%s", sessionID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("sessionlog: create %s: %w", dir, err)
	}
	return &Writer{dir: dir, logPath: filepath.Join(dir, "iterations.log")}, nil
}

// AppendIteration appends ev as one JSON line to iterations.log and writes
// a companion checkpoint snapshot file for the same iteration.
func (w *Writer) AppendIteration(ev IterationEvent) error {
	if ev.RecordedAt.IsZero() {
		ev.RecordedAt = time.Now()
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	line, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(w.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("sessionlog: open %s: %w", w.logPath, err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return err
	}

	return w.writeCheckpoint(ev)
}

// writeCheckpoint persists one indented JSON snapshot per iteration, named
// so a directory listing sorts in run order regardless of tier.
func (w *Writer) writeCheckpoint(ev IterationEvent) error {
	name := fmt.Sprintf("iteration-%04d-tier%d.json", ev.IterationIndex, ev.TierIndex)
	data, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(w.dir, name), data, 0o644)
}

// BestEffort wraps a Writer so a failure to persist is logged and
// swallowed, matching internal/audit.BestEffort's "never block the run
// over an optional collaborator" contract.
type BestEffort struct {
	inner  *Writer
	logger corekit.Logger
}

// OpenBestEffort opens a session directory under projectDir, falling back
// to a no-op writer (and a single warn log) if creation fails — a
// read-only filesystem or a permissions error should never abort a run.
func OpenBestEffort(projectDir, sessionID string, logger corekit.Logger) *BestEffort {
	if logger == nil {
		logger = &corekit.NoOpLogger{}
	}
	w, err := Open(projectDir, sessionID)
	if err != nil {
		logger.Warn("sessionlog: falling back to no-op writer", map[string]interface{}{
			"project_dir": projectDir, "session_id": sessionID, "error": err.Error(),
		})
		return &BestEffort{logger: logger}
	}
	return &BestEffort{inner: w, logger: logger}
}

// AppendIteration never returns an error; a failure is logged and dropped.
func (b *BestEffort) AppendIteration(ev IterationEvent) {
	if b.inner == nil {
		return
	}
	if err := b.inner.AppendIteration(ev); err != nil {
		b.logger.Warn("sessionlog: failed to append iteration event", map[string]interface{}{
			"iteration": ev.IterationIndex, "error": err.Error(),
		})
	}
}
