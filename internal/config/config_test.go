package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsneelabh/ralph/internal/provider"
)

func TestDefaultConfigMatchesDocumentedDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 5, cfg.SimpleIterations)
	assert.Equal(t, 30, cfg.MaxIterations)
	assert.Equal(t, 2.00, cfg.MaxCostUSD)
	assert.Equal(t, 15.0, cfg.MaxDurationMinutes)
	assert.Equal(t, 1, cfg.ContextResetFrequency)
	assert.Equal(t, 3, cfg.EntropyThreshold)
	assert.True(t, cfg.Generate)
	assert.True(t, cfg.Adversarial)
}

func TestLoadFromEnvOverridesDefaults(t *testing.T) {
	t.Setenv("RALPH_SIMPLE_ITERATIONS", "8")
	t.Setenv("RALPH_MAX_COST_USD", "2.5")
	t.Setenv("RALPH_NO_ESCALATE", "true")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, 8, cfg.SimpleIterations)
	assert.Equal(t, 2.5, cfg.MaxCostUSD)
	assert.True(t, cfg.NoEscalate)
}

func TestLoadFromEnvReportsMalformedValues(t *testing.T) {
	t.Setenv("RALPH_MAX_ITERATIONS", "not-a-number")
	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromEnv())
}

func TestOptionsWinOverEnvAndDefaults(t *testing.T) {
	t.Setenv("RALPH_SIMPLE_ITERATIONS", "8")

	cfg, err := Load(WithSimpleIterations(2), WithObjective("fix it"), WithTestCommand("pytest"))
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.SimpleIterations)
	assert.Equal(t, "fix it", cfg.Objective)
}

func TestWithObjectiveRejectsEmptyString(t *testing.T) {
	_, err := Load(WithObjective(""))
	assert.Error(t, err)
}

func TestWithBudgetRejectsNonPositiveValues(t *testing.T) {
	_, err := Load(WithBudget(0, 10))
	assert.Error(t, err)

	_, err = Load(WithBudget(1, -1))
	assert.Error(t, err)
}

func TestGenerateAndAdversarialOverrideFromEnvAndOptions(t *testing.T) {
	t.Setenv("RALPH_GENERATE", "false")
	t.Setenv("RALPH_ADVERSARIAL", "false")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())
	assert.False(t, cfg.Generate)
	assert.False(t, cfg.Adversarial)

	cfg2, err := Load(WithGenerate(true), WithAdversarial(true))
	require.NoError(t, err)
	assert.True(t, cfg2.Generate)
	assert.True(t, cfg2.Adversarial)
}

func TestWithChaosModelRejectsEmptyModel(t *testing.T) {
	_, err := Load(WithChaosModel(provider.Anthropic, ""))
	assert.Error(t, err)
}
