package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LogStore persists captured job output under a base directory, one
// subdirectory per run.
type LogStore struct {
	BaseDir string
}

// NewLogStore creates a new log store handler.
func NewLogStore(baseDir string) *LogStore {
	return &LogStore{BaseDir: baseDir}
}

// SaveJobLog writes the output of one job of one run and returns the path.
func (ls *LogStore) SaveJobLog(runID, job, output string) (string, error) {
	dir := filepath.Join(ls.BaseDir, sanitize(runID))
	if err := os.MkdirAll(dir, 0775); err != nil {
		return "", err
	}

	// Timestamp keeps repeated jobs of one run from clobbering each other
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.log", sanitize(job), timestamp)
	path := filepath.Join(dir, filename)

	if err := os.WriteFile(path, []byte(output), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// sanitize strips characters that are awkward in file names.
func sanitize(name string) string {
	clean := make([]rune, 0, len(name))
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' {
			clean = append(clean, r)
		}
	}
	if len(clean) == 0 {
		return "job"
	}
	return string(clean)
}
