package testrunner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsneelabh/ralph/internal/agentctx"
)

func TestRunReportsPassedOnZeroExit(t *testing.T) {
	r := New("exit 0", t.TempDir())
	result, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, agentctx.TestPassed, result.Status)
}

func TestRunReportsFailedOnNonZeroExit(t *testing.T) {
	r := New("echo 'FAIL: test_add' && exit 1", t.TempDir())
	result, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, agentctx.TestFailed, result.Status)
	assert.Contains(t, result.FailedTests, "FAIL: test_add")
}

func TestRunReportsErrorOnTimeout(t *testing.T) {
	r := New("sleep 5", t.TempDir(), WithTimeout(50*time.Millisecond))
	result, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, agentctx.TestError, result.Status)
}

func TestRunReportsFailedWhenShellCommandNotFound(t *testing.T) {
	// sh -c exits non-zero (127) for an unresolvable command, which is an
	// ordinary *exec.ExitError — a failed run, not a runner crash.
	r := New("this-binary-should-not-exist-anywhere", t.TempDir())
	result, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, agentctx.TestFailed, result.Status)
}
