package config

import (
	"os"
	"path/filepath"
)

var configFileNames = []string{".ralph.yaml", ".ralph.yml", "ralph.yaml"}

// FindConfigFile ascends from startDir toward the filesystem root, at each
// level checking for one of configFileNames, and stops early once it
// passes a VCS root (a directory containing .git) — a config file above
// the repository the run is operating in is assumed irrelevant. Returns
// "" if nothing is found.
func FindConfigFile(startDir string) string {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return ""
	}

	for {
		for _, name := range configFileNames {
			candidate := filepath.Join(dir, name)
			if fileExists(candidate) {
				return candidate
			}
		}

		if isVCSRoot(dir) {
			return ""
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func isVCSRoot(dir string) bool {
	return fileExists(filepath.Join(dir, ".git"))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
