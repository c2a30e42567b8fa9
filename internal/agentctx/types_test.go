package agentctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithMethodsDoNotMutateReceiver(t *testing.T) {
	base := AgentContext{SessionID: "s1", Iteration: 0}

	next := base.WithIteration(5)

	assert.Equal(t, 0, base.Iteration)
	assert.Equal(t, 5, next.Iteration)
	assert.Equal(t, base.SessionID, next.SessionID)
}

func TestEscalationContextCanOnlyBeReplacedNeverCleared(t *testing.T) {
	base := AgentContext{}
	withSummary := base.WithEscalationContext("first failure summary")
	assert.Equal(t, "first failure summary", withSummary.EscalationContext)

	replaced := withSummary.WithEscalationContext("second, richer summary")
	assert.Equal(t, "second, richer summary", replaced.EscalationContext)
	// The original value is untouched by copy-on-write.
	assert.Equal(t, "first failure summary", withSummary.EscalationContext)
}

func TestResetAgentOutputsPreservesIdentityAndBudget(t *testing.T) {
	full := AgentContext{
		SessionID:         "s1",
		Iteration:         3,
		EscalationContext: "keep me",
		Budget:            Budget{MaxIterations: 30},
		ArtisanCode:       &ArtisanOutput{Code: "x"},
		CriticReview:      &CriticOutput{Approved: true},
		TestResult:        &TestResult{Status: TestFailed},
	}

	reset := full.ResetAgentOutputs()

	assert.Nil(t, reset.ArtisanCode)
	assert.Nil(t, reset.CriticReview)
	assert.Nil(t, reset.TestResult)
	assert.Equal(t, "s1", reset.SessionID)
	assert.Equal(t, "keep me", reset.EscalationContext)
	assert.Equal(t, 30, reset.Budget.MaxIterations)
}

func TestWithBudgetReturnsIndependentCopy(t *testing.T) {
	base := AgentContext{Budget: Budget{CurrentCostUSD: 0.10}}
	next := base.WithBudget(Budget{CurrentCostUSD: 0.25})

	assert.Equal(t, 0.10, base.Budget.CurrentCostUSD)
	assert.Equal(t, 0.25, next.Budget.CurrentCostUSD)
}
