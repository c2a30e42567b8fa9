package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/itsneelabh/ralph/internal/audit"
	"github.com/itsneelabh/ralph/internal/iteration"
	"github.com/itsneelabh/ralph/internal/loop"
)

func TestRunReportOutcomeMapsSuccessFailureAndBudget(t *testing.T) {
	assert.Equal(t, audit.OutcomeSuccess, runReport{success: true}.outcome())
	assert.Equal(t, audit.OutcomeBudgetExhausted, runReport{success: false, exitReason: string(loop.ExitBudgetExhausted)}.outcome())
	assert.Equal(t, audit.OutcomeFailed, runReport{success: false, exitReason: string(loop.ExitEntropyDetected)}.outcome())
}

func TestDedupCapDeduplicatesAndCapsAtMax(t *testing.T) {
	items := []string{"a", "b", "a", "c", "d", "e", "f"}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, dedupCap(items, 5))
}

func TestDedupCapHandlesFewerItemsThanMax(t *testing.T) {
	assert.Equal(t, []string{"x"}, dedupCap([]string{"x"}, 5))
}

func TestAuditDBAbsPathJoinsRelativeAndLeavesAbsoluteAlone(t *testing.T) {
	assert.Equal(t, "/work/.ralph/audit.db", auditDBAbsPath("/work", ".ralph/audit.db"))
	assert.Equal(t, "/var/ralph/audit.db", auditDBAbsPath("/work", "/var/ralph/audit.db"))
}

func TestSumRecordCostAddsEveryRecord(t *testing.T) {
	records := []loop.SimpleIterationRecord{{CostUSD: 0.1}, {CostUSD: 0.25}}
	assert.InDelta(t, 0.35, sumRecordCost(records), 0.0001)
}

func TestTopErrorsFromRecordsReadsOnlyFinalIteration(t *testing.T) {
	records := []loop.SimpleIterationRecord{
		{ErrorMessages: []string{"stale error"}},
		{ErrorMessages: []string{"fresh error", "fresh error", "another"}},
	}
	assert.Equal(t, []string{"fresh error", "another"}, topErrorsFromRecords(records))
}

func TestPrintReportIncludesStatusModeAndPhaseErrors(t *testing.T) {
	var buf bytes.Buffer
	mgr := iteration.New(iteration.Config{MaxIterations: 10, MaxCostUSD: 1, MaxDurationMinutes: 5})
	mgr.IncrementIteration()
	mgr.IncrementIteration()

	report := runReport{
		success:        false,
		exitReason:     string(loop.ExitIterationsUsed),
		modeDescriptor: "Simple → Full (escalated)",
		totalCostUSD:   0.42,
		phases: []phaseReport{
			{name: "Simple", iterationsUsed: 2, costUSD: 0.1, topErrors: []string{"boom"}},
		},
	}
	printReport(&buf, report, mgr)

	out := buf.String()
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "Simple → Full (escalated)")
	assert.Contains(t, out, "iterations_exhausted")
	assert.Contains(t, out, "boom")
}
