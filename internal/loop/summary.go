package loop

import (
	"fmt"
	"strings"
)

const maxSummaryLen = 2000

const truncationMarker = "\n[summary truncated for context efficiency]"

// FailureSummary is the output of build_failure_summary (spec §4.5).
type FailureSummary struct {
	TotalIterations       int
	TotalCostUSD          float64
	UniqueErrorSignatures []string
	FinalFailedTests      []string
	FinalErrorMessages    []string
	NaturalLanguageSummary string
}

// BuildFailureSummary deduplicates error signatures across records,
// extracts the final iteration's failure detail, and renders the
// natural-language block Phase B hands to Phase C via
// AgentContext.EscalationContext.
func BuildFailureSummary(records []SimpleIterationRecord) FailureSummary {
	if len(records) == 0 {
		return FailureSummary{}
	}

	var totalCost float64
	seen := make(map[string]bool)
	var uniqueErrors []string
	for _, r := range records {
		totalCost += r.CostUSD
		for _, msg := range r.ErrorMessages {
			if !seen[msg] {
				seen[msg] = true
				uniqueErrors = append(uniqueErrors, msg)
			}
		}
	}

	last := records[len(records)-1]

	var b strings.Builder
	fmt.Fprintf(&b, "SIMPLE MODE HISTORY (%d iterations, all failed):\n", len(records))
	for _, r := range records {
		firstTwo := firstN(r.ErrorMessages, 2)
		fmt.Fprintf(&b, "Iteration %d: %s. Tests: %s\n", r.IterationIndex, r.CodeChangeSummary, strings.Join(firstTwo, "; "))
	}
	fmt.Fprintf(&b, "Unique error patterns: %s\n", strings.Join(firstN(uniqueErrors, 5), " | "))

	summary := b.String()
	if len(summary) > maxSummaryLen {
		summary = hardTruncate(summary, maxSummaryLen)
	}

	return FailureSummary{
		TotalIterations:        len(records),
		TotalCostUSD:           totalCost,
		UniqueErrorSignatures:  uniqueErrors,
		FinalFailedTests:       last.FailedTests,
		FinalErrorMessages:     last.ErrorMessages,
		NaturalLanguageSummary: summary,
	}
}

// hardTruncate caps s to maxLen including the marker's own length, dropping
// content from the middle/bottom per spec §4.5.
func hardTruncate(s string, maxLen int) string {
	keep := maxLen - len(truncationMarker)
	if keep < 0 {
		keep = 0
	}
	if keep > len(s) {
		keep = len(s)
	}
	return s[:keep] + truncationMarker
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
