package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsneelabh/ralph/internal/corekit"
)

type echoAdapter struct {
	response Response
	err      error
}

func (e *echoAdapter) Complete(ctx context.Context, req Request) (Response, error) {
	if e.err != nil {
		return Response{}, e.err
	}
	return e.response, nil
}

func TestRouterCompleteStampsCostAndProvider(t *testing.T) {
	adapter := &echoAdapter{response: Response{Content: "ok", InputTokens: 1000, OutputTokens: 500}}
	pt := NewPriceTable()
	pt.Set("test-model", PriceEntry{InputPer1K: 0.01, OutputPer1K: 0.02})

	router := NewRouter(WithAdapter(OpenAI, adapter), WithPriceTable(pt))

	resp, err := router.Complete(context.Background(), Request{Provider: OpenAI, Model: "test-model"})
	require.NoError(t, err)
	assert.Equal(t, OpenAI, resp.ProviderUsed)
	assert.InDelta(t, 0.02, resp.CostUSD, 0.0001)
}

func TestRouterCompleteWrapsAdapterErrorAsProviderError(t *testing.T) {
	adapter := &echoAdapter{err: assert.AnError}
	router := NewRouter(WithAdapter(Anthropic, adapter))

	_, err := router.Complete(context.Background(), Request{Provider: Anthropic, Model: "claude-opus-4"})
	require.Error(t, err)
	assert.ErrorIs(t, err, corekit.ErrProviderError)
}

func TestRouterCompleteReturnsMissingCredentialsWhenEnvVarAbsent(t *testing.T) {
	resetGlobalRegistry()
	defer resetGlobalRegistry()
	require.NoError(t, Register(stubFactory{tag: "needs-creds", envVar: "SOME_TEST_API_KEY"}))

	router := NewRouter(WithEnvLookup(func(string) (string, bool) { return "", false }))

	_, err := router.Complete(context.Background(), Request{Provider: "needs-creds", Model: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, corekit.ErrMissingCredentials)
}

func TestRouterCompleteReturnsErrorForUnregisteredProvider(t *testing.T) {
	resetGlobalRegistry()
	defer resetGlobalRegistry()

	router := NewRouter()
	_, err := router.Complete(context.Background(), Request{Provider: "nonexistent", Model: "x"})
	assert.Error(t, err)
}
