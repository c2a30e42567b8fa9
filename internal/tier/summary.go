package tier

import (
	"fmt"
	"strings"
)

const maxAccumulatedSummaryLen = 4000

const accumulatedTruncationMarker = "\n[older tier history truncated for context efficiency]"

// BuildAccumulatedSummary implements build_accumulated_summary (spec
// §4.7): one block per prior tier, newest last, with a footer totaling
// iterations and cost across every prior tier. When the concatenation is
// over the 4000-character cap, the oldest tier blocks are dropped first;
// if even the single remaining (most recent) block is over cap on its
// own, it is hard-sliced.
func BuildAccumulatedSummary(priorResults []TierRunResult) string {
	if len(priorResults) == 0 {
		return ""
	}

	blocks := make([]string, len(priorResults))
	var totalIterations int
	var totalCost float64
	for i, r := range priorResults {
		blocks[i] = buildTierBlock(r)
		totalIterations += r.IterationsUsed
		totalCost += r.TotalCostUSD
	}
	footer := fmt.Sprintf("[total accumulated across %d tier(s): %d iterations, $%.4f]", len(priorResults), totalIterations, totalCost)

	dropped := 0
	for len(blocks) > 0 {
		body := strings.Join(blocks, "\n") + "\n" + footer
		if dropped > 0 {
			body = accumulatedTruncationMarker + "\n" + body
		}
		if len(body) <= maxAccumulatedSummaryLen {
			return body
		}
		if len(blocks) == 1 {
			// The sole remaining (most recent) block is over cap on its
			// own: hard-slice rather than drop it entirely.
			return hardSlice(body, maxAccumulatedSummaryLen)
		}
		blocks = blocks[1:]
		dropped++
	}
	return footer
}

func buildTierBlock(r TierRunResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== TIER %d FAILURES: %s (%d iterations) ===\n", r.TierIndex+1, r.TierName, r.IterationsUsed)

	seen := make(map[string]bool)
	var uniqueErrors []string
	for _, a := range r.Attempts {
		fmt.Fprintf(&b, "Iteration %d: status=%s\n", a.IterationIndex, a.TestStatus)
		for _, msg := range a.ErrorMessages {
			if !seen[msg] {
				seen[msg] = true
				uniqueErrors = append(uniqueErrors, msg)
			}
		}
	}
	fmt.Fprintf(&b, "Unique error patterns: %s", strings.Join(firstN(uniqueErrors, 5), " | "))
	return b.String()
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

func hardSlice(s string, maxLen int) string {
	keep := maxLen - len(accumulatedTruncationMarker)
	if keep < 0 {
		keep = 0
	}
	if keep > len(s) {
		keep = len(s)
	}
	return s[:keep] + accumulatedTruncationMarker
}
