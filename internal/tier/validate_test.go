package tier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsneelabh/ralph/internal/corekit"
	"github.com/itsneelabh/ralph/internal/provider"
)

func TestValidateRejectsEmptyTierList(t *testing.T) {
	err := TierEscalationConfig{}.Validate()
	require.Error(t, err)
}

func TestValidateAccumulatesEveryFieldErrorInsteadOfFirst(t *testing.T) {
	cfg := TierEscalationConfig{Tiers: []TierConfig{
		{Name: "", Mode: "bogus", MaxIterations: 0},
		{Name: "cheap", Mode: ModeFull, MaxIterations: 3, ArtisanModel: ModelOverride{Provider: provider.Anthropic, Model: "claude-haiku-3.5"}},
	}}

	err := cfg.Validate()
	require.Error(t, err)

	var verrs *corekit.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.GreaterOrEqual(t, len(verrs.Errors), 4)
}

func TestValidateAcceptsWellFormedChain(t *testing.T) {
	cfg := TierEscalationConfig{Tiers: []TierConfig{
		{
			Name: "cheap", Mode: ModeSimple, MaxIterations: 5,
			ArtisanModel: ModelOverride{Provider: provider.Anthropic, Model: "claude-haiku-3.5"},
		},
		{
			Name: "thorough", Mode: ModeFull, MaxIterations: 5,
			ArtisanModel:   ModelOverride{Provider: provider.Anthropic, Model: "claude-opus-4"},
			LibrarianModel: ModelOverride{Provider: provider.Google, Model: "gemini-1.5-pro"},
			CriticModel:    ModelOverride{Provider: provider.OpenAI, Model: "gpt-4o"},
		},
	}}

	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsNegativeGlobalCaps(t *testing.T) {
	cfg := TierEscalationConfig{
		Tiers: []TierConfig{
			{Name: "cheap", Mode: ModeSimple, MaxIterations: 5, ArtisanModel: ModelOverride{Provider: provider.Anthropic, Model: "claude-haiku-3.5"}},
		},
		MaxTotalCostUSD:         -1,
		MaxTotalDurationMinutes: -1,
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_total_cost_usd")
	assert.Contains(t, err.Error(), "max_total_duration_minutes")
}

func TestValidateAcceptsZeroGlobalCapsAsNoOverride(t *testing.T) {
	cfg := TierEscalationConfig{
		Tiers: []TierConfig{
			{Name: "cheap", Mode: ModeSimple, MaxIterations: 5, ArtisanModel: ModelOverride{Provider: provider.Anthropic, Model: "claude-haiku-3.5"}},
		},
	}

	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsDuplicateTierNames(t *testing.T) {
	cfg := TierEscalationConfig{Tiers: []TierConfig{
		{Name: "dup", Mode: ModeSimple, MaxIterations: 1, ArtisanModel: ModelOverride{Provider: provider.Anthropic, Model: "x"}},
		{Name: "dup", Mode: ModeSimple, MaxIterations: 1, ArtisanModel: ModelOverride{Provider: provider.Anthropic, Model: "x"}},
	}}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate tier name")
}
