// Package config loads ralph's run configuration with the same
// three-layer precedence the teacher framework's core.Config uses:
// DefaultConfig() seeds sane defaults, LoadFromEnv() overlays RALPH_*
// environment variables, and functional Options (flags, in this CLI)
// apply last and win over everything else.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/itsneelabh/ralph/internal/agentctx"
	"github.com/itsneelabh/ralph/internal/provider"
)

// RunConfig is everything one `ralph run` invocation needs.
type RunConfig struct {
	Objective        string
	TargetFile       string
	WorkingDirectory string
	TestCommand      string
	TestFramework    agentctx.TestFramework

	SimpleIterations int
	MaxIterations    int
	MaxCostUSD       float64
	MaxDurationMinutes float64

	ContextResetFrequency int
	EntropyThreshold      int

	NoEscalate bool
	FullMode   bool

	TierConfigPath string

	LibrarianProvider provider.Tag
	LibrarianModel    string
	ArtisanProvider   provider.Tag
	ArtisanModel      string
	CriticProvider    provider.Tag
	CriticModel       string
	ChaosProvider     provider.Tag
	ChaosModel        string

	// Generate calls a TestFileGenerator when no test file exists for
	// TargetFile. The only generator shipped is a stub that returns
	// ErrNotImplemented, so no test file is written.
	Generate bool
	// Adversarial requests the chaos/adversarial tester pass. No chaos
	// tester is wired: cmd/ralph logs the request and skips the pass, and
	// nothing from it reaches the entropy detector.
	Adversarial bool

	AuditDBPath string
}

// Option mutates a RunConfig, returning an error for an invalid value —
// the same shape as the teacher's core.Option.
type Option func(*RunConfig) error

// DefaultConfig returns spec.md's named defaults: simple_iterations=5,
// max_iterations=30, max_budget=$2.00, max_duration=15 minutes,
// context_reset_frequency=1 (every iteration), entropy threshold=3.
func DefaultConfig() *RunConfig {
	return &RunConfig{
		WorkingDirectory:      ".",
		TestFramework:         agentctx.FrameworkCustom,
		SimpleIterations:      5,
		MaxIterations:         30,
		MaxCostUSD:            2.00,
		MaxDurationMinutes:    15,
		ContextResetFrequency: 1,
		EntropyThreshold:      3,
		LibrarianProvider:     provider.Anthropic,
		LibrarianModel:        "claude-haiku-3.5",
		ArtisanProvider:       provider.Anthropic,
		ArtisanModel:          "claude-sonnet-4",
		CriticProvider:        provider.Anthropic,
		CriticModel:           "claude-haiku-3.5",
		ChaosProvider:         provider.Anthropic,
		ChaosModel:            "claude-haiku-3.5",
		Generate:              true,
		Adversarial:           true,
		AuditDBPath:           ".ralph/audit.db",
	}
}

// LoadFromEnv overlays RALPH_* environment variables onto c. Malformed
// numeric values are reported, not silently ignored, matching the
// teacher's LoadFromEnv contract.
func (c *RunConfig) LoadFromEnv() error {
	if v, ok := os.LookupEnv("RALPH_OBJECTIVE"); ok {
		c.Objective = v
	}
	if v, ok := os.LookupEnv("RALPH_TARGET_FILE"); ok {
		c.TargetFile = v
	}
	if v, ok := os.LookupEnv("RALPH_WORKING_DIRECTORY"); ok {
		c.WorkingDirectory = v
	}
	if v, ok := os.LookupEnv("RALPH_TEST_COMMAND"); ok {
		c.TestCommand = v
	}
	if v, ok := os.LookupEnv("RALPH_TEST_FRAMEWORK"); ok {
		c.TestFramework = agentctx.TestFramework(v)
	}
	if v, ok := os.LookupEnv("RALPH_SIMPLE_ITERATIONS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RALPH_SIMPLE_ITERATIONS: %w", err)
		}
		c.SimpleIterations = n
	}
	if v, ok := os.LookupEnv("RALPH_MAX_ITERATIONS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RALPH_MAX_ITERATIONS: %w", err)
		}
		c.MaxIterations = n
	}
	if v, ok := os.LookupEnv("RALPH_MAX_COST_USD"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RALPH_MAX_COST_USD: %w", err)
		}
		c.MaxCostUSD = f
	}
	if v, ok := os.LookupEnv("RALPH_MAX_DURATION_MINUTES"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RALPH_MAX_DURATION_MINUTES: %w", err)
		}
		c.MaxDurationMinutes = f
	}
	if v, ok := os.LookupEnv("RALPH_CONTEXT_RESET_FREQUENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RALPH_CONTEXT_RESET_FREQUENCY: %w", err)
		}
		c.ContextResetFrequency = n
	}
	if v, ok := os.LookupEnv("RALPH_NO_ESCALATE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RALPH_NO_ESCALATE: %w", err)
		}
		c.NoEscalate = b
	}
	if v, ok := os.LookupEnv("RALPH_FULL_MODE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RALPH_FULL_MODE: %w", err)
		}
		c.FullMode = b
	}
	if v, ok := os.LookupEnv("RALPH_TIER_CONFIG"); ok {
		c.TierConfigPath = v
	}
	if v, ok := os.LookupEnv("RALPH_AUDIT_DB_PATH"); ok {
		c.AuditDBPath = v
	}
	if v, ok := os.LookupEnv("RALPH_GENERATE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RALPH_GENERATE: %w", err)
		}
		c.Generate = b
	}
	if v, ok := os.LookupEnv("RALPH_ADVERSARIAL"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RALPH_ADVERSARIAL: %w", err)
		}
		c.Adversarial = b
	}
	if v, ok := os.LookupEnv("RALPH_CHAOS_PROVIDER"); ok {
		c.ChaosProvider = provider.Tag(v)
	}
	if v, ok := os.LookupEnv("RALPH_CHAOS_MODEL"); ok {
		c.ChaosModel = v
	}
	return nil
}

// Apply runs every option against c in order, stopping at the first error.
func (c *RunConfig) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// WithObjective sets the fix objective.
func WithObjective(objective string) Option {
	return func(c *RunConfig) error {
		if objective == "" {
			return fmt.Errorf("objective must not be empty")
		}
		c.Objective = objective
		return nil
	}
}

// WithTargetFile sets the file ralph is fixing.
func WithTargetFile(path string) Option {
	return func(c *RunConfig) error { c.TargetFile = path; return nil }
}

// WithTestCommand sets the external command the test runner invokes.
func WithTestCommand(command string) Option {
	return func(c *RunConfig) error {
		if command == "" {
			return fmt.Errorf("test command must not be empty")
		}
		c.TestCommand = command
		return nil
	}
}

// WithSimpleIterations overrides Phase A's iteration cap.
func WithSimpleIterations(n int) Option {
	return func(c *RunConfig) error {
		if n < 0 {
			return fmt.Errorf("simple iterations must be non-negative")
		}
		c.SimpleIterations = n
		return nil
	}
}

// WithMaxIterations overrides the run's total iteration cap.
func WithMaxIterations(n int) Option {
	return func(c *RunConfig) error {
		if n <= 0 {
			return fmt.Errorf("max iterations must be positive")
		}
		c.MaxIterations = n
		return nil
	}
}

// WithBudget overrides the cost and duration caps.
func WithBudget(maxCostUSD, maxDurationMinutes float64) Option {
	return func(c *RunConfig) error {
		if maxCostUSD <= 0 {
			return fmt.Errorf("max cost must be positive")
		}
		if maxDurationMinutes <= 0 {
			return fmt.Errorf("max duration must be positive")
		}
		c.MaxCostUSD = maxCostUSD
		c.MaxDurationMinutes = maxDurationMinutes
		return nil
	}
}

// WithNoEscalate disables Phase B's Simple-to-Full escalation gate.
func WithNoEscalate(noEscalate bool) Option {
	return func(c *RunConfig) error { c.NoEscalate = noEscalate; return nil }
}

// WithFullMode skips Phase A entirely and starts at Phase C.
func WithFullMode(fullMode bool) Option {
	return func(c *RunConfig) error { c.FullMode = fullMode; return nil }
}

// WithTierConfigPath activates the Tier Engine with the config file at path.
func WithTierConfigPath(path string) Option {
	return func(c *RunConfig) error { c.TierConfigPath = path; return nil }
}

// WithGenerate toggles auto-generating a test file when none exists for
// the target.
func WithGenerate(generate bool) Option {
	return func(c *RunConfig) error { c.Generate = generate; return nil }
}

// WithAdversarial toggles the chaos/adversarial tester pass.
func WithAdversarial(adversarial bool) Option {
	return func(c *RunConfig) error { c.Adversarial = adversarial; return nil }
}

// WithChaosModel overrides the chaos/adversarial tester's provider/model.
func WithChaosModel(tag provider.Tag, model string) Option {
	return func(c *RunConfig) error {
		if model == "" {
			return fmt.Errorf("chaos model must not be empty")
		}
		c.ChaosProvider = tag
		c.ChaosModel = model
		return nil
	}
}

// Load assembles a RunConfig the way main() does: defaults, then env,
// then the caller-supplied options (normally parsed CLI flags).
func Load(opts ...Option) (*RunConfig, error) {
	cfg := DefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Apply(opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BudgetStartTime stamps when a run's clock starts, for AgentContext.Budget.
func BudgetStartTime() time.Time { return time.Now() }
