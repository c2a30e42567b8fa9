package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsneelabh/ralph/internal/agentctx"
	"github.com/itsneelabh/ralph/internal/provider"
	"github.com/itsneelabh/ralph/internal/provider/providertest"
)

func TestCriticParsesApproveVerdict(t *testing.T) {
	fake := providertest.NewFakeAdapter(provider.Response{Content: "VERDICT: APPROVE\nLooks correct."})
	router := providertest.NewTestRouter(provider.OpenAI, fake)

	critic := NewCritic(router, Config{Provider: provider.OpenAI, Model: "gpt-4o"})
	ac := agentctx.AgentContext{
		Objective:   "fix bug",
		ArtisanCode: &agentctx.ArtisanOutput{Code: "fixed", Reasoning: "because"},
	}
	require.NoError(t, critic.Initialize(context.Background(), ac))

	result, err := critic.Execute(context.Background())
	require.NoError(t, err)

	out := result.Data.(agentctx.CriticOutput)
	assert.True(t, out.Approved)
	assert.Equal(t, "Looks correct.", out.Critique)
}

func TestCriticParsesRejectVerdict(t *testing.T) {
	fake := providertest.NewFakeAdapter(provider.Response{Content: "VERDICT: REJECT\nStill broken."})
	router := providertest.NewTestRouter(provider.OpenAI, fake)

	critic := NewCritic(router, Config{Provider: provider.OpenAI, Model: "gpt-4o"})
	ac := agentctx.AgentContext{
		Objective:   "fix bug",
		ArtisanCode: &agentctx.ArtisanOutput{Code: "still broken"},
	}
	require.NoError(t, critic.Initialize(context.Background(), ac))

	result, err := critic.Execute(context.Background())
	require.NoError(t, err)

	out := result.Data.(agentctx.CriticOutput)
	assert.False(t, out.Approved)
}

func TestCriticTreatsMissingVerdictLineAsNotApproved(t *testing.T) {
	fake := providertest.NewFakeAdapter(provider.Response{Content: "I have thoughts but no clear verdict."})
	router := providertest.NewTestRouter(provider.OpenAI, fake)

	critic := NewCritic(router, Config{Provider: provider.OpenAI, Model: "gpt-4o"})
	ac := agentctx.AgentContext{
		Objective:   "fix bug",
		ArtisanCode: &agentctx.ArtisanOutput{Code: "x"},
	}
	require.NoError(t, critic.Initialize(context.Background(), ac))

	result, err := critic.Execute(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Data.(agentctx.CriticOutput).Approved)
}

func TestCriticErrorsWithoutArtisanOutput(t *testing.T) {
	fake := providertest.NewFakeAdapter(provider.Response{Content: "VERDICT: APPROVE"})
	router := providertest.NewTestRouter(provider.OpenAI, fake)

	critic := NewCritic(router, Config{Provider: provider.OpenAI, Model: "gpt-4o"})
	require.NoError(t, critic.Initialize(context.Background(), agentctx.AgentContext{Objective: "fix"}))

	_, err := critic.Execute(context.Background())
	assert.Error(t, err)
}
