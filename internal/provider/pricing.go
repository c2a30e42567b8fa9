package provider

import "strings"

// PriceEntry is the USD-per-1000-token rate pair for one model.
type PriceEntry struct {
	InputPer1K  float64
	OutputPer1K float64
}

// PriceTable resolves a model name to a price, falling back to a
// conservative rate for unknown models so cost accounting never silently
// reports zero for a model that was added to a vendor's catalog after this
// table was last updated (DESIGN.md Open Question: fallback rate policy).
type PriceTable struct {
	entries map[string]PriceEntry
	// FallbackRate is used for any model not present in entries. It defaults
	// to the most expensive known pair in the table, which biases budget
	// accounting toward stopping a run early rather than silently
	// under-billing it.
	FallbackRate PriceEntry
}

// NewPriceTable builds the default price table. Rates are USD per 1000
// tokens and are deliberately approximate list prices — callers needing
// exact billing should override entries via Set.
func NewPriceTable() *PriceTable {
	t := &PriceTable{
		entries: map[string]PriceEntry{
			"claude-opus-4":       {InputPer1K: 0.015, OutputPer1K: 0.075},
			"claude-sonnet-4":     {InputPer1K: 0.003, OutputPer1K: 0.015},
			"claude-haiku-3.5":    {InputPer1K: 0.0008, OutputPer1K: 0.004},
			"gpt-4o":              {InputPer1K: 0.0025, OutputPer1K: 0.010},
			"gpt-4o-mini":         {InputPer1K: 0.00015, OutputPer1K: 0.0006},
			"gemini-1.5-pro":      {InputPer1K: 0.00125, OutputPer1K: 0.005},
			"gemini-1.5-flash":    {InputPer1K: 0.000075, OutputPer1K: 0.0003},
		},
	}
	t.FallbackRate = t.mostExpensive()
	return t
}

func (t *PriceTable) mostExpensive() PriceEntry {
	var worst PriceEntry
	for _, e := range t.entries {
		if e.InputPer1K+e.OutputPer1K > worst.InputPer1K+worst.OutputPer1K {
			worst = e
		}
	}
	return worst
}

// Set overrides or adds a model's price entry.
func (t *PriceTable) Set(model string, entry PriceEntry) {
	t.entries[model] = entry
}

// Lookup resolves a model name to its price entry, matching case
// insensitively and on a best-effort prefix basis (vendors append date
// suffixes like "-20250219" to model names).
func (t *PriceTable) Lookup(model string) PriceEntry {
	lower := strings.ToLower(model)
	if e, ok := t.entries[lower]; ok {
		return e
	}
	for name, e := range t.entries {
		if strings.HasPrefix(lower, name) {
			return e
		}
	}
	return t.FallbackRate
}

// Cost computes the USD cost of a completion given token counts.
func (t *PriceTable) Cost(model string, inputTokens, outputTokens int) float64 {
	rate := t.Lookup(model)
	return float64(inputTokens)/1000*rate.InputPer1K + float64(outputTokens)/1000*rate.OutputPer1K
}
