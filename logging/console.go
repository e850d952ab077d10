// Package logging stores the raw console output of each harness run on
// disk. This is a per-run capture for debugging a flaky board, not a
// historical results store: nothing ever reads these files back.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	// RunDirectoryPrefix is the standardized prefix for run directories.
	RunDirectoryPrefix = "testrun-"
	// ConsoleFilename holds the verbatim console protocol lines.
	ConsoleFilename = "console.log"
	// SummaryFilename holds the rendered end-of-run summary.
	SummaryFilename = "summary.txt"
)

// ConsoleCapture tees a run's console protocol into
// <baseDir>/testrun-<runID>/console.log and maintains a "latest" symlink to
// the most recent run directory.
type ConsoleCapture struct {
	baseDir string
	runDir  string
	runID   string

	mu      sync.Mutex
	console *os.File
}

// NewConsoleCapture creates the run directory and opens the console file.
func NewConsoleCapture(baseDir string, runID string) (*ConsoleCapture, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	if runID == "" {
		return nil, fmt.Errorf("run ID is required")
	}

	runDir := filepath.Join(baseDir, RunDirectoryPrefix+safeFilename(runID))
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("creating run directory %s: %w", runDir, err)
	}

	console, err := os.Create(filepath.Join(runDir, ConsoleFilename))
	if err != nil {
		return nil, fmt.Errorf("creating console log: %w", err)
	}

	c := &ConsoleCapture{
		baseDir: baseDir,
		runDir:  runDir,
		runID:   runID,
		console: console,
	}
	c.updateLatestSymlink()
	return c, nil
}

// Write implements io.Writer so the capture can sit behind an io.MultiWriter
// with the live console.
func (c *ConsoleCapture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.console == nil {
		return 0, fmt.Errorf("console capture is closed")
	}
	return c.console.Write(p)
}

// WriteSummary stores the rendered summary next to the console log.
func (c *ConsoleCapture) WriteSummary(summary string) error {
	path := filepath.Join(c.runDir, SummaryFilename)
	if err := os.WriteFile(path, []byte(summary), 0644); err != nil {
		return fmt.Errorf("writing summary file: %w", err)
	}
	return nil
}

// Close flushes and closes the console file.
func (c *ConsoleCapture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.console == nil {
		return nil
	}
	err := c.console.Close()
	c.console = nil
	return err
}

// RunDir returns the directory holding this run's files.
func (c *ConsoleCapture) RunDir() string { return c.runDir }

// RunID returns the run ID the capture was created with.
func (c *ConsoleCapture) RunID() string { return c.runID }

// updateLatestSymlink points <baseDir>/latest at the current run directory.
// Best effort: some filesystems used on CI runners reject symlinks.
func (c *ConsoleCapture) updateLatestSymlink() {
	latest := filepath.Join(c.baseDir, "latest")
	_ = os.Remove(latest)
	_ = os.Symlink(filepath.Base(c.runDir), latest)
}

// safeFilename replaces characters that are problematic in filenames.
func safeFilename(s string) string {
	r := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	return r.Replace(s)
}
