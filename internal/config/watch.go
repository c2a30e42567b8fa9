package config

import (
	"github.com/fsnotify/fsnotify"

	"github.com/itsneelabh/ralph/internal/corekit"
)

// WatchConfigFile watches path for on-disk writes and logs a notice when one
// fires. ralph does not read the config file's contents at all: RunConfig
// comes from defaults, RALPH_* environment variables and flags only, and
// is never reloaded mid-run, since swapping caps out from under a live
// budget check would make CheckBudget's decisions non-reproducible. The
// watcher only tells the operator that the file changed and that the run's
// configuration is unchanged. Returns a nil watcher and nil error if path
// is empty.
func WatchConfigFile(path string, logger corekit.Logger) (*fsnotify.Watcher, error) {
	if path == "" {
		return nil, nil
	}
	if logger == nil {
		logger = &corekit.NoOpLogger{}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					logger.Info("config file changed on disk; this run keeps its current configuration", map[string]interface{}{
						"path": path,
					})
				}
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", map[string]interface{}{"error": watchErr.Error()})
			}
		}
	}()

	return watcher, nil
}
