// Package tier implements the Tier Engine (spec §4.7): the generalization
// of internal/loop's two-phase Simple/Full split into N sequential tiers,
// each with its own mode, model set, and iteration budget. Activated only
// when the caller supplies a TierEscalationConfig; otherwise the plain
// two-phase path in internal/loop runs instead.
package tier

import "github.com/itsneelabh/ralph/internal/provider"

// Mode selects which of internal/loop's phase semantics a tier runs.
type Mode string

const (
	ModeSimple Mode = "simple"
	ModeFull   Mode = "full"
)

// ModelOverride pins one agent role to a specific vendor/model pair for a
// tier, the same "provider:model" pairing the pack's escalation-chain
// parser uses for its retry-escalation list.
type ModelOverride struct {
	Provider    provider.Tag `yaml:"provider"`
	Model       string       `yaml:"model"`
	Temperature float32      `yaml:"temperature"`
}

// TierConfig is one entry in a TierEscalationConfig's chain.
type TierConfig struct {
	Name              string        `yaml:"name"`
	Mode              Mode          `yaml:"mode"`
	MaxIterations     int           `yaml:"max_iterations"`
	ArtisanModel      ModelOverride `yaml:"artisan_model"`
	LibrarianModel    ModelOverride `yaml:"librarian_model,omitempty"`
	CriticModel       ModelOverride `yaml:"critic_model,omitempty"`
}

// TierEscalationConfig is the user-supplied N-tier chain, per spec §3/§4.7.
// The three global caps are optional: zero means "fall back to the
// RunConfig-level cap already enforced by the shared iteration.Manager".
type TierEscalationConfig struct {
	Tiers                  []TierConfig `yaml:"tiers"`
	MaxTotalCostUSD        float64      `yaml:"max_total_cost_usd,omitempty"`
	MaxTotalDurationMinutes float64     `yaml:"max_total_duration_minutes,omitempty"`
	AuditDBPath            string       `yaml:"audit_db_path,omitempty"`
}

// TierAttemptRecord is one iteration's outcome within a tier, the unit the
// Audit Store's attempts table persists one row per.
type TierAttemptRecord struct {
	TierIndex      int
	TierName       string
	IterationIndex int
	TestStatus     string
	FailedTests    []string
	ErrorMessages  []string
	CostUSD        float64
	DurationMS     int64
}

// TierRunResult is run_tier's return value: whether this tier solved the
// objective, why it stopped otherwise, and every attempt it made.
type TierRunResult struct {
	TierIndex       int
	TierName        string
	Success         bool
	ExitReason      string
	IterationsUsed  int
	TotalCostUSD    float64
	Attempts        []TierAttemptRecord
}
