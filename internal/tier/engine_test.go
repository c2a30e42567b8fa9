package tier

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsneelabh/ralph/internal/agent"
	"github.com/itsneelabh/ralph/internal/agentctx"
	"github.com/itsneelabh/ralph/internal/iteration"
	"github.com/itsneelabh/ralph/internal/loop"
	"github.com/itsneelabh/ralph/internal/provider"
	"github.com/itsneelabh/ralph/internal/provider/providertest"
	"github.com/itsneelabh/ralph/internal/testrunner"
)

func fixedCodeResponse(code string) provider.Response {
	return provider.Response{Content: "```\n" + code + "\n```\nreasoning", InputTokens: 10, OutputTokens: 5, CostUSD: 0.01}
}

func TestRunChainHaltsAtFirstSuccessfulTierAndSkipsLaterTiers(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "math.py")
	require.NoError(t, os.WriteFile(target, []byte("stub\n"), 0o644))

	passingArtisan := providertest.NewFakeAdapter(fixedCodeResponse("def multiply(a, b):\n    return a * b\n"))

	cfg := TierEscalationConfig{Tiers: []TierConfig{
		{Name: "cheap", Mode: ModeSimple, MaxIterations: 3, ArtisanModel: ModelOverride{Provider: provider.Anthropic, Model: "claude-haiku-3.5"}},
		{Name: "expensive", Mode: ModeSimple, MaxIterations: 3, ArtisanModel: ModelOverride{Provider: provider.Anthropic, Model: "claude-opus-4"}},
	}}

	mgr := iteration.New(iteration.Config{MaxIterations: 20, MaxCostUSD: 5, MaxDurationMinutes: 10})
	runner := testrunner.New("exit 0", dir)

	factories := AgentFactories{
		NewArtisan: func(m ModelOverride) agent.Agent {
			return agent.NewArtisan(providertest.NewTestRouter(m.Provider, passingArtisan), agent.Config{Provider: m.Provider, Model: m.Model})
		},
	}

	ac := agentctx.AgentContext{TargetFile: target, WorkingDirectory: dir, Objective: "fix multiply"}
	result, err := tier_RunChain(cfg, ac, mgr, factories, runner)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "cheap", result.ResolvedTier)
	assert.Len(t, result.TierResults, 1)
}

func TestRunChainEscalatesThroughTiersAndAccumulatesSummary(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "math.py")
	require.NoError(t, os.WriteFile(target, []byte("stub\n"), 0o644))

	failingArtisan := providertest.NewFakeAdapter(fixedCodeResponse("still wrong"))
	passingArtisan := providertest.NewFakeAdapter(fixedCodeResponse("def multiply(a, b):\n    return a * b\n"))

	cfg := TierEscalationConfig{Tiers: []TierConfig{
		{Name: "cheap", Mode: ModeSimple, MaxIterations: 2, ArtisanModel: ModelOverride{Provider: provider.Anthropic, Model: "claude-haiku-3.5"}},
		{Name: "expensive", Mode: ModeSimple, MaxIterations: 2, ArtisanModel: ModelOverride{Provider: provider.Anthropic, Model: "claude-opus-4"}},
	}}

	mgr := iteration.New(iteration.Config{MaxIterations: 20, MaxCostUSD: 5, MaxDurationMinutes: 10})

	// Fails the first two invocations, then passes every call after — models
	// the "cheap tier exhausts, expensive tier solves it" escalation path
	// without needing a dynamic per-call command.
	countCmd := "c=$(cat .count 2>/dev/null || echo 0); c=$((c+1)); echo $c > .count; " +
		"if [ $c -le 2 ]; then echo 'FAIL: test_multiply'; exit 1; else exit 0; fi"
	runner := testrunner.New(countCmd, dir)

	factories := AgentFactories{
		NewArtisan: func(m ModelOverride) agent.Agent {
			if m.Model == "claude-opus-4" {
				return agent.NewArtisan(providertest.NewTestRouter(m.Provider, passingArtisan), agent.Config{Provider: m.Provider, Model: m.Model})
			}
			return agent.NewArtisan(providertest.NewTestRouter(m.Provider, failingArtisan), agent.Config{Provider: m.Provider, Model: m.Model})
		},
	}

	ac := agentctx.AgentContext{TargetFile: target, WorkingDirectory: dir, Objective: "fix multiply"}
	result, err := tier_RunChain(cfg, ac, mgr, factories, runner)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "expensive", result.ResolvedTier)
	assert.Len(t, result.TierResults, 2)
	assert.NotEmpty(t, result.Context.EscalationContext)
	assert.Contains(t, result.Context.EscalationContext, "TIER 1 FAILURES: cheap")
}

func tier_RunChain(cfg TierEscalationConfig, ac agentctx.AgentContext, mgr *iteration.Manager, factories AgentFactories, runner *testrunner.Runner) (ChainResult, error) {
	return RunChain(context.Background(), cfg, ac, mgr, factories, runner, nil)
}

func TestRunChainHaltsWhenGlobalCostCapAlreadyExceeded(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "math.py")
	require.NoError(t, os.WriteFile(target, []byte("stub\n"), 0o644))

	cfg := TierEscalationConfig{
		Tiers: []TierConfig{
			{Name: "cheap", Mode: ModeSimple, MaxIterations: 3, ArtisanModel: ModelOverride{Provider: provider.Anthropic, Model: "claude-haiku-3.5"}},
		},
		MaxTotalCostUSD: 0.01,
	}

	mgr := iteration.New(iteration.Config{MaxIterations: 20, MaxCostUSD: 5, MaxDurationMinutes: 10})
	mgr.RecordCost(0.02) // already over the tier chain's own (tighter) cap

	runner := testrunner.New("exit 1", dir)
	factories := AgentFactories{
		NewArtisan: func(m ModelOverride) agent.Agent {
			return agent.NewArtisan(providertest.NewTestRouter(m.Provider, providertest.NewFakeAdapter(fixedCodeResponse("x"))), agent.Config{Provider: m.Provider, Model: m.Model})
		},
	}

	ac := agentctx.AgentContext{TargetFile: target, WorkingDirectory: dir, Objective: "fix multiply"}
	result, err := tier_RunChain(cfg, ac, mgr, factories, runner)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, string(loop.ExitBudgetExhausted), result.FinalExitReason)
	assert.Empty(t, result.TierResults)
}
