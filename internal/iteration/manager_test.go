package iteration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckBudgetWithinBudgetInitially(t *testing.T) {
	m := New(Config{MaxIterations: 5, MaxCostUSD: 1.0, MaxDurationMinutes: 10})
	status := m.CheckBudget()
	assert.True(t, status.WithinBudget)
	assert.Empty(t, status.Reason)
}

func TestCheckBudgetDoesNotTriggerOnIterationCountBeforeReachingMax(t *testing.T) {
	// Historical bug guarded against: iteration >= max must not fire until
	// the manager has actually incremented up to max.
	m := New(Config{MaxIterations: 3, MaxCostUSD: 100, MaxDurationMinutes: 100})
	m.IncrementIteration() // iteration = 1
	m.IncrementIteration() // iteration = 2
	status := m.CheckBudget()
	assert.True(t, status.WithinBudget)
}

func TestCheckBudgetTriggersOnIterationExhaustion(t *testing.T) {
	m := New(Config{MaxIterations: 2, MaxCostUSD: 100, MaxDurationMinutes: 100})
	m.IncrementIteration()
	m.IncrementIteration()
	status := m.CheckBudget()
	require.False(t, status.WithinBudget)
	assert.Equal(t, "max_iterations", status.Reason)
}

func TestCheckBudgetTriggersOnCost(t *testing.T) {
	m := New(Config{MaxIterations: 100, MaxCostUSD: 0.05, MaxDurationMinutes: 100})
	m.RecordCost(0.05)
	status := m.CheckBudget()
	require.False(t, status.WithinBudget)
	assert.Equal(t, "cost", status.Reason)
}

func TestCheckBudgetTriggersOnDuration(t *testing.T) {
	m := New(Config{MaxIterations: 100, MaxCostUSD: 100, MaxDurationMinutes: 0})
	time.Sleep(time.Millisecond)
	status := m.CheckBudget()
	require.False(t, status.WithinBudget)
	assert.Equal(t, "duration", status.Reason)
}

func TestRecordCostAccumulates(t *testing.T) {
	m := New(Config{MaxIterations: 10, MaxCostUSD: 10, MaxDurationMinutes: 10})
	m.RecordCost(0.1)
	m.RecordCost(0.2)
	assert.InDelta(t, 0.3, m.TotalCostUSD(), 0.0001)
}

func TestShouldResetContextDefaultsToEveryIteration(t *testing.T) {
	m := New(Config{MaxIterations: 10, MaxCostUSD: 10, MaxDurationMinutes: 10})
	assert.True(t, m.ShouldResetContext(1))
	assert.True(t, m.ShouldResetContext(2))
}

func TestShouldResetContextHonorsFrequency(t *testing.T) {
	m := New(Config{MaxIterations: 10, MaxCostUSD: 10, MaxDurationMinutes: 10, ContextResetFrequency: 3})
	assert.False(t, m.ShouldResetContext(1))
	assert.False(t, m.ShouldResetContext(2))
	assert.True(t, m.ShouldResetContext(3))
}

func TestTrackErrorDelegatesToEntropyDetector(t *testing.T) {
	m := New(Config{MaxIterations: 10, MaxCostUSD: 10, MaxDurationMinutes: 10, EntropyThreshold: 2})
	assert.False(t, m.TrackError("TypeError: x is undefined at foo.js:10:5"))
	assert.True(t, m.TrackError("TypeError: x is undefined at foo.js:22:9"))
}

func TestElapsedMinutesGrowsFromStart(t *testing.T) {
	m := New(Config{MaxIterations: 10, MaxCostUSD: 10, MaxDurationMinutes: 10})
	assert.GreaterOrEqual(t, m.ElapsedMinutes(), 0.0)
	assert.Less(t, m.ElapsedMinutes(), 1.0)
}
