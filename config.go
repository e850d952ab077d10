package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/baremetal-ci/kt-harness/flags"
	"github.com/baremetal-ci/kt-harness/registry"
	"github.com/baremetal-ci/kt-harness/runner"
)

// Config holds the application configuration
type Config struct {
	BoardConfig   string        // Path to the board config file (optional)
	Board         string        // Board label for metrics and logs
	LogDir        string        // Directory to store per-run console captures
	Console       string        // Console device/file path; empty means stdout
	WatchdogTicks uint64        // Tick budget for a pending async test (0 disables)
	RunInterval   time.Duration // Interval between suite runs
	RunOnce       bool          // Indicates if the service should exit after one run
	Watch         bool          // Re-run when the board config changes

	// Registry overrides the linked-in image's global registry. Used by
	// tests; the deliverable binary always runs what was linked in.
	Registry *registry.Registry

	Log log.Logger
}

// boardFile is the YAML shape of the board config. Flags override it. Note
// there is deliberately no test-selection field here: the test set is fixed
// when the image is linked.
type boardFile struct {
	Board         string  `yaml:"board"`
	WatchdogTicks *uint64 `yaml:"watchdog_ticks,omitempty"`
	Console       string  `yaml:"console,omitempty"`
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	cfg := &Config{
		Board:         ctx.String(flags.Board.Name),
		LogDir:        ctx.String(flags.LogDir.Name),
		Console:       ctx.String(flags.Console.Name),
		WatchdogTicks: runner.DefaultWatchdogTicks,
		RunInterval:   ctx.Duration(flags.RunInterval.Name),
		Watch:         ctx.Bool(flags.Watch.Name),
		Log:           log,
	}
	cfg.RunOnce = cfg.RunInterval == 0

	if boardConfig := ctx.String(flags.BoardConfig.Name); boardConfig != "" {
		abs, err := filepath.Abs(boardConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for board config '%s': %w", boardConfig, err)
		}
		cfg.BoardConfig = abs
		if err := cfg.applyBoardFile(abs); err != nil {
			return nil, err
		}
	}

	// Flag wins over board file, file wins over the built-in default.
	if ctx.IsSet(flags.WatchdogTicks.Name) {
		cfg.WatchdogTicks = ctx.Uint64(flags.WatchdogTicks.Name)
	}
	if cfg.Board == "" {
		cfg.Board = "unknown"
	}

	if cfg.LogDir != "" {
		abs, err := filepath.Abs(cfg.LogDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for log directory '%s': %w", cfg.LogDir, err)
		}
		cfg.LogDir = abs
	}

	if cfg.Watch && cfg.BoardConfig == "" {
		return nil, fmt.Errorf("watch mode requires a board config file to watch")
	}

	return cfg, nil
}

// applyBoardFile fills config fields not already set from flags.
func (c *Config) applyBoardFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading board config file: %w", err)
	}

	var bf boardFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return fmt.Errorf("parsing board config file: %w", err)
	}

	if c.Board == "" {
		c.Board = bf.Board
	}
	if bf.WatchdogTicks != nil {
		c.WatchdogTicks = *bf.WatchdogTicks
	}
	if c.Console == "" {
		c.Console = bf.Console
	}
	return nil
}
