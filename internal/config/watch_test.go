package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsneelabh/ralph/internal/corekit"
)

func TestWatchConfigFileReturnsNilForEmptyPath(t *testing.T) {
	watcher, err := WatchConfigFile("", nil)
	require.NoError(t, err)
	assert.Nil(t, watcher)
}

func TestWatchConfigFileDetectsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ralph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("objective: x\n"), 0o644))

	recorder := &recordingLogger{}
	watcher, err := WatchConfigFile(path, recorder)
	require.NoError(t, err)
	require.NotNil(t, watcher)
	defer watcher.Close()

	require.NoError(t, os.WriteFile(path, []byte("objective: y\n"), 0o644))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if recorder.infoCount() > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.GreaterOrEqual(t, recorder.infoCount(), 1)
}

// recordingLogger embeds corekit.NoOpLogger so it satisfies corekit.Logger
// and only needs to override Info.
type recordingLogger struct {
	corekit.NoOpLogger
	infos int
}

func (r *recordingLogger) Info(msg string, fields map[string]interface{}) {
	r.infos++
}

func (r *recordingLogger) infoCount() int { return r.infos }
