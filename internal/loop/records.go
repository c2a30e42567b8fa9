// Package loop implements Simple-Mode (Phase A), the Escalation Gate
// (Phase B), and Full-Mode (Phase C) as spec §4.5-4.6 describe them: two
// sequential, budget-sharing phases glued by a one-shot failure summary.
// The Tier Engine in internal/tier generalizes this same run_tier shape
// to N tiers; this package's RunSimple/RunFull are what run_tier actually
// calls for mode=simple/mode=full.
package loop

import "github.com/itsneelabh/ralph/internal/agentctx"

// SimpleIterationRecord is one Simple-Mode attempt, per spec §3.
type SimpleIterationRecord struct {
	IterationIndex    int
	CodeChangeSummary string // truncated to 200 chars by the loop that builds it
	TestStatus        agentctx.TestStatus
	FailedTests       []string
	ErrorMessages     []string
	DurationMS        int64
	CostUSD           float64
}

const maxChangeSummaryLen = 200

// truncateSummary caps s at maxChangeSummaryLen, per SimpleIterationRecord's
// ≤200-char field.
func truncateSummary(s string) string {
	if len(s) <= maxChangeSummaryLen {
		return s
	}
	return s[:maxChangeSummaryLen]
}
