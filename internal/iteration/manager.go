// Package iteration implements the Iteration Manager (spec §4.3): per-run
// budget accounting and increment/reset bookkeeping. The entropy detector
// in entropy.go adapts the teacher framework's CircuitBreaker to a simpler,
// non-recoverable trip exposed as Observe/Tripped/Reset —
// see entropy.go's doc comment for why half-open/recovery was dropped.
package iteration

import (
	"time"

	"github.com/itsneelabh/ralph/internal/agentctx"
)

// BudgetStatus is the result of a check_budget call.
type BudgetStatus struct {
	WithinBudget bool
	Reason       string // names which constraint triggered, empty when within budget
}

// Manager tracks the counters shared across Phase A and Phase C of a run:
// iteration count, cumulative cost, and wall-clock elapsed time.
type Manager struct {
	iteration           int
	totalCostUSD        float64
	startWallClock       time.Time
	maxIterations        int
	maxCostUSD           float64
	maxDurationMinutes   float64
	contextResetFrequency int

	entropy *EntropyDetector
}

// Config seeds a Manager's budget caps and reset policy.
type Config struct {
	MaxIterations         int
	MaxCostUSD            float64
	MaxDurationMinutes    float64
	ContextResetFrequency int // default 1: reset every iteration
	EntropyThreshold      int // default 3
}

// New builds a Manager with its clock started now.
func New(cfg Config) *Manager {
	resetFreq := cfg.ContextResetFrequency
	if resetFreq <= 0 {
		resetFreq = 1
	}
	return &Manager{
		startWallClock:        time.Now(),
		maxIterations:         cfg.MaxIterations,
		maxCostUSD:            cfg.MaxCostUSD,
		maxDurationMinutes:    cfg.MaxDurationMinutes,
		contextResetFrequency: resetFreq,
		entropy:               NewEntropyDetector(cfg.EntropyThreshold),
	}
}

// CheckBudget reports whether the run is still within its caps.
//
// Cost is the only per-iteration predictive check: iteration count is
// compared against the cap as-is, never pre-incremented, so a run is never
// declared exhausted before it has actually reached max_iterations (a
// historical bug in two-phase loops this design deliberately avoids
// reproducing).
func (m *Manager) CheckBudget() BudgetStatus {
	if m.iteration >= m.maxIterations {
		return BudgetStatus{WithinBudget: false, Reason: "max_iterations"}
	}
	if m.totalCostUSD >= m.maxCostUSD {
		return BudgetStatus{WithinBudget: false, Reason: "cost"}
	}
	elapsedMinutes := time.Since(m.startWallClock).Minutes()
	if elapsedMinutes >= m.maxDurationMinutes {
		return BudgetStatus{WithinBudget: false, Reason: "duration"}
	}
	return BudgetStatus{WithinBudget: true}
}

// RecordCost adds deltaUSD to the running total.
func (m *Manager) RecordCost(deltaUSD float64) {
	m.totalCostUSD += deltaUSD
}

// IncrementIteration advances and returns the new iteration count. Called
// once at the start of each iteration, before any work happens.
func (m *Manager) IncrementIteration() int {
	m.iteration++
	return m.iteration
}

// Iteration returns the current iteration count without advancing it.
func (m *Manager) Iteration() int { return m.iteration }

// TotalCostUSD returns the cumulative cost recorded so far.
func (m *Manager) TotalCostUSD() float64 { return m.totalCostUSD }

// ElapsedMinutes returns wall-clock minutes since the Manager started.
func (m *Manager) ElapsedMinutes() float64 { return time.Since(m.startWallClock).Minutes() }

// TrackError feeds a normalized error signature to the entropy detector and
// reports whether this call tripped it.
func (m *Manager) TrackError(signature string) bool {
	return m.entropy.Observe(signature)
}

// ShouldResetContext reports whether agent state should be discarded
// after the given iteration finishes, per the configured reset frequency.
func (m *Manager) ShouldResetContext(iteration int) bool {
	if m.contextResetFrequency <= 0 {
		return false
	}
	return iteration%m.contextResetFrequency == 0
}

// BudgetFromConfig builds the agentctx.Budget view of this manager's caps,
// for stamping onto an AgentContext at run start.
func (cfg Config) BudgetFromConfig(start time.Time) agentctx.Budget {
	return agentctx.Budget{
		MaxCostUSD:         cfg.MaxCostUSD,
		MaxDurationMinutes: cfg.MaxDurationMinutes,
		MaxIterations:      cfg.MaxIterations,
		StartTime:          start,
	}
}
