package sessionlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesSessionDirectory(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(dir, "abc123")
	require.NoError(t, err)

	info, statErr := os.Stat(filepath.Join(dir, ".ralph", "session-abc123"))
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())
	assert.NotNil(t, w)
}

func TestAppendIterationWritesLogLineAndCheckpoint(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(dir, "sess1")
	require.NoError(t, err)

	ev := IterationEvent{
		TierIndex: 0, TierName: "cheap", IterationIndex: 1,
		TestStatus: "failed", FailedTests: []string{"test_x"},
		ErrorMessages: []string{"AssertionError"}, CostUSD: 0.01, DurationMS: 120,
	}
	require.NoError(t, w.AppendIteration(ev))

	logPath := filepath.Join(dir, ".ralph", "session-sess1", "iterations.log")
	f, err := os.Open(logPath)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())
	var got IterationEvent
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &got))
	assert.Equal(t, "cheap", got.TierName)
	assert.Equal(t, 1, got.IterationIndex)
	assert.False(t, scanner.Scan())

	checkpointPath := filepath.Join(dir, ".ralph", "session-sess1", "iteration-0001-tier0.json")
	data, err := os.ReadFile(checkpointPath)
	require.NoError(t, err)
	var checkpoint IterationEvent
	require.NoError(t, json.Unmarshal(data, &checkpoint))
	assert.Equal(t, "failed", checkpoint.TestStatus)
}

func TestAppendIterationAppendsMultipleLines(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(dir, "sess2")
	require.NoError(t, err)

	require.NoError(t, w.AppendIteration(IterationEvent{IterationIndex: 1}))
	require.NoError(t, w.AppendIteration(IterationEvent{IterationIndex: 2}))

	logPath := filepath.Join(dir, ".ralph", "session-sess2", "iterations.log")
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)

	lines := 0
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if scanner.Text() != "" {
			lines++
		}
	}
	assert.Equal(t, 2, lines)
}

func TestBestEffortFallsBackToNoOpWhenDirectoryCannotBeCreated(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	b := OpenBestEffort(blocker, "sess3", nil)
	assert.NotPanics(t, func() {
		b.AppendIteration(IterationEvent{IterationIndex: 1})
	})
}
