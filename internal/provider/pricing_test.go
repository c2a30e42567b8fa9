package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriceTableLookupKnownModel(t *testing.T) {
	pt := NewPriceTable()

	entry := pt.Lookup("gpt-4o-mini")
	assert.Equal(t, 0.00015, entry.InputPer1K)
	assert.Equal(t, 0.0006, entry.OutputPer1K)
}

func TestPriceTableLookupIsCaseInsensitiveAndPrefixed(t *testing.T) {
	pt := NewPriceTable()

	withSuffix := pt.Lookup("claude-sonnet-4-20250219")
	direct := pt.Lookup("claude-sonnet-4")
	assert.Equal(t, direct, withSuffix)

	upper := pt.Lookup("GPT-4O")
	assert.Equal(t, pt.Lookup("gpt-4o"), upper)
}

func TestPriceTableFallsBackToMostExpensiveForUnknownModel(t *testing.T) {
	pt := NewPriceTable()

	got := pt.Lookup("some-future-model-nobody-has-heard-of")
	assert.Equal(t, pt.FallbackRate, got)

	// The fallback must be at least as expensive as every known entry, so a
	// run never silently under-bills an unrecognized model.
	for _, e := range pt.entries {
		assert.GreaterOrEqual(t, pt.FallbackRate.InputPer1K+pt.FallbackRate.OutputPer1K, e.InputPer1K+e.OutputPer1K)
	}
}

func TestPriceTableCost(t *testing.T) {
	pt := NewPriceTable()
	pt.Set("test-model", PriceEntry{InputPer1K: 0.01, OutputPer1K: 0.02})

	cost := pt.Cost("test-model", 1000, 500)
	assert.InDelta(t, 0.01+0.01, cost, 0.0001)
}
