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

func TestArtisanSplitsCodeAndReasoningFromFencedResponse(t *testing.T) {
	reply := "Here is the fix.\n```js\nconsole.log('fixed')\n```\nThis change corrects the typo."
	fake := providertest.NewFakeAdapter(provider.Response{Content: reply})
	router := providertest.NewTestRouter(provider.OpenAI, fake)

	art := NewArtisan(router, Config{Provider: provider.OpenAI, Model: "gpt-4o"})
	require.NoError(t, art.Initialize(context.Background(), agentctx.AgentContext{Objective: "fix typo"}))

	result, err := art.Execute(context.Background())
	require.NoError(t, err)

	out, ok := result.Data.(agentctx.ArtisanOutput)
	require.True(t, ok)
	assert.Equal(t, "console.log('fixed')", out.Code)
	assert.Contains(t, out.Reasoning, "Here is the fix.")
	assert.Contains(t, out.Reasoning, "This change corrects the typo.")
}

func TestArtisanTreatsUnfencedResponseAsWholeCode(t *testing.T) {
	fake := providertest.NewFakeAdapter(provider.Response{Content: "just raw code, no fence"})
	router := providertest.NewTestRouter(provider.OpenAI, fake)

	art := NewArtisan(router, Config{Provider: provider.OpenAI, Model: "gpt-4o"})
	require.NoError(t, art.Initialize(context.Background(), agentctx.AgentContext{Objective: "fix"}))

	result, err := art.Execute(context.Background())
	require.NoError(t, err)

	out := result.Data.(agentctx.ArtisanOutput)
	assert.Equal(t, "just raw code, no fence", out.Code)
	assert.Empty(t, out.Reasoning)
}

func TestArtisanPropagatesProviderError(t *testing.T) {
	fake := providertest.NewFakeAdapter()
	fake.SetError(assert.AnError)
	router := providertest.NewTestRouter(provider.OpenAI, fake)

	art := NewArtisan(router, Config{Provider: provider.OpenAI, Model: "gpt-4o"})
	require.NoError(t, art.Initialize(context.Background(), agentctx.AgentContext{Objective: "fix"}))

	_, err := art.Execute(context.Background())
	assert.Error(t, err)
}
