// Package harness is the host-side driver around the in-image test core: it
// boots the linked-in kernel test suite, captures the console protocol,
// renders a summary and maps the run onto CI exit codes.
package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum/go-ethereum/log"

	"github.com/baremetal-ci/kt-harness/exitcodes"
	"github.com/baremetal-ci/kt-harness/kernel"
	"github.com/baremetal-ci/kt-harness/logging"
	"github.com/baremetal-ci/kt-harness/registry"
	"github.com/baremetal-ci/kt-harness/reporter"
	"github.com/baremetal-ci/kt-harness/runner"
	"github.com/baremetal-ci/kt-harness/types"
)

// Harness implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &Harness{}

// Harness boots the kernel test image and reports its results.
type Harness struct {
	ctx      context.Context
	config   *Config
	version  string
	registry *registry.Registry
	result   *types.SuiteResult

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup

	shutdownCallback func(error) // Callback to signal application shutdown
}

func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*Harness, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	reg := config.Registry
	if reg == nil {
		reg = registry.Default()
	}

	config.Log.Debug("Creating harness with config",
		"board", config.Board,
		"boardConfig", config.BoardConfig,
		"watchdogTicks", config.WatchdogTicks,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce,
		"watch", config.Watch)

	return &Harness{
		ctx:              ctx,
		config:           config,
		version:          version,
		registry:         reg,
		done:             make(chan struct{}),
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start boots the image and runs the suite. In run-once mode the process
// exits afterwards with the suite's exit code; otherwise the suite is
// re-run on the configured interval, or whenever the board config changes
// in watch mode.
// Start implements the cliapp.Lifecycle interface.
func (h *Harness) Start(ctx context.Context) error {
	defer func() {
		if r := recover(); r != nil {
			h.config.Log.Error("Runtime error occurred", "error", r)
			os.Exit(exitcodes.RuntimeErr)
		}
	}()

	h.ctx = ctx
	h.done = make(chan struct{})
	h.running.Store(true)

	switch {
	case h.config.RunOnce:
		h.config.Log.Info("Starting kt-harness in run-once mode")
	case h.config.Watch:
		h.config.Log.Info("Starting kt-harness in watch mode", "boardConfig", h.config.BoardConfig)
	default:
		h.config.Log.Info("Starting kt-harness in continuous mode", "interval", h.config.RunInterval)
	}

	if err := h.runSuite(); err != nil {
		h.config.Log.Error("Runtime error running test suite", "error", err)
		return NewRuntimeError(err)
	}

	if h.config.RunOnce {
		h.config.Log.Info("Suite completed, exiting (run-once mode)")

		if h.result != nil && h.result.Status() == types.OutcomeFail {
			h.config.Log.Warn("Run-once suite completed with failures, returning exit code 1")
			return NewTestFailureError(h.result.String())
		}

		go func() {
			h.shutdownCallback(nil)
		}()
		return nil
	}

	if h.config.Watch {
		return h.startWatcher()
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.config.Log.Debug("Starting periodic suite goroutine", "interval", h.config.RunInterval)

		for {
			select {
			case <-time.After(h.config.RunInterval):
				if !h.running.Load() {
					h.config.Log.Debug("Service stopped, exiting periodic suite runner")
					return
				}
				h.config.Log.Info("Running periodic suite")
				if err := h.runSuite(); err != nil {
					h.config.Log.Error("Error running periodic suite", "error", err)
				}

			case <-h.done:
				h.config.Log.Debug("Done signal received, stopping periodic suite runner")
				return

			case <-ctx.Done():
				h.config.Log.Debug("Context canceled, stopping periodic suite runner")
				h.running.Store(false)
				return
			}
		}
	}()
	h.config.Log.Debug("kt-harness started successfully")
	return nil
}

// startWatcher re-runs the suite whenever the board config file is written.
func (h *Harness) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return NewRuntimeError(fmt.Errorf("creating config watcher: %w", err))
	}
	if err := watcher.Add(h.config.BoardConfig); err != nil {
		watcher.Close()
		return NewRuntimeError(fmt.Errorf("watching board config %s: %w", h.config.BoardConfig, err))
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer watcher.Close()

		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if !h.running.Load() {
					return
				}
				h.config.Log.Info("Board config changed, re-running suite", "event", ev.Op.String())
				if err := h.runSuite(); err != nil {
					h.config.Log.Error("Error running suite after config change", "error", err)
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				h.config.Log.Error("Config watcher error", "error", err)

			case <-h.done:
				return

			case <-h.ctx.Done():
				h.running.Store(false)
				return
			}
		}
	}()
	return nil
}

// runSuite boots the image once and processes the results.
func (h *Harness) runSuite() error {
	runID := uuid.New().String()

	console, closeConsole, err := h.openConsole()
	if err != nil {
		return err
	}
	defer closeConsole()

	consoleOut := console
	var capture *logging.ConsoleCapture
	if h.config.LogDir != "" {
		capture, err = logging.NewConsoleCapture(h.config.LogDir, runID)
		if err != nil {
			return fmt.Errorf("creating console capture: %w", err)
		}
		defer capture.Close()
		consoleOut = io.MultiWriter(console, capture)
	}

	result, err := Boot(h.ctx, BootConfig{
		Registry:      h.registry,
		Console:       consoleOut,
		Log:           h.config.Log,
		Board:         h.config.Board,
		WatchdogTicks: h.config.WatchdogTicks,
		RunID:         runID,
	})
	if err != nil {
		return err
	}
	h.result = result

	summary := h.renderResultsTable(result)
	fmt.Println(summary)
	fmt.Println(result.String())
	if capture != nil {
		if err := capture.WriteSummary(summary + "\n" + result.String() + "\n"); err != nil {
			h.config.Log.Error("Failed to store summary", "error", err)
		}
	}

	h.config.Log.Info("Suite run completed", "run_id", result.RunID, "status", result.Status())
	return nil
}

// openConsole resolves the console writer: a serial device or file when
// configured, stdout otherwise.
func (h *Harness) openConsole() (io.Writer, func(), error) {
	if h.config.Console == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.OpenFile(h.config.Console, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening console %s: %w", h.config.Console, err)
	}
	return f, func() { f.Close() }, nil
}

// Stop stops the harness service.
// Stop implements the cliapp.Lifecycle interface.
func (h *Harness) Stop(ctx context.Context) error {
	h.config.Log.Info("Stopping kt-harness")

	if !h.running.Load() {
		h.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}

	h.running.Store(false)

	h.config.Log.Debug("Sending done signal to goroutines")
	close(h.done)

	if err := h.WaitForShutdown(ctx); err != nil {
		return err
	}

	h.config.Log.Info("kt-harness stopped successfully")
	return nil
}

// WaitForShutdown blocks until all goroutines have terminated or ctx
// expires, so the process cannot exit with a suite run still in flight.
func (h *Harness) WaitForShutdown(ctx context.Context) error {
	h.config.Log.Debug("Waiting for all goroutines to terminate")

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.config.Log.Debug("All goroutines terminated successfully")
		return nil
	case <-ctx.Done():
		h.config.Log.Warn("Timed out waiting for goroutines to terminate", "error", ctx.Err())
		return ctx.Err()
	}
}

// Stopped returns true if the harness service is stopped.
// Stopped implements the cliapp.Lifecycle interface.
func (h *Harness) Stopped() bool {
	return !h.running.Load()
}

// renderResultsTable renders the per-test outcomes as a table.
func (h *Harness) renderResultsTable(result *types.SuiteResult) string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("Kernel Test Results (%s)", formatDuration(result.Duration)))

	t.AppendHeader(table.Row{"Test", "Kind", "Duration", "Status", "Diagnostic"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Test", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Diagnostic", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, r := range result.Results {
		t.AppendRow(table.Row{
			r.Name,
			string(r.Kind),
			formatDuration(r.Duration),
			getResultString(r.Outcome),
			r.Message,
		})
	}

	t.AppendFooter(table.Row{
		fmt.Sprintf("%d tests", result.Total),
		"",
		"",
		getResultString(result.Status()),
		fmt.Sprintf("%d passed, %d failed", result.Passed, result.Failed),
	})
	return t.Render()
}

// getResultString returns a marked string representing the test result
func getResultString(outcome types.Outcome) string {
	switch outcome {
	case types.OutcomePass:
		return "✓ pass"
	case types.OutcomeFail:
		return "✗ fail"
	default:
		return string(outcome)
	}
}

// formatDuration trims sub-millisecond noise for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return d.Round(time.Microsecond).String()
	}
	return d.Round(time.Millisecond).String()
}

// BootConfig carries what the boot entry point needs from board bring-up.
type BootConfig struct {
	Registry      *registry.Registry
	Console       io.Writer
	Log           log.Logger
	Board         string
	WatchdogTicks uint64
	RunID         string
}

// Boot is the single entry point handing control to the runner: board
// bring-up calls it once after basic initialization. It wires a fresh
// kernel loop and reporter to the registry and runs the suite to
// completion.
func Boot(ctx context.Context, cfg BootConfig) (*types.SuiteResult, error) {
	rep := reporter.New(cfg.Console, cfg.Log)
	loop := kernel.NewLoop(cfg.Log)

	r, err := runner.NewRunner(runner.Config{
		Registry:      cfg.Registry,
		Reporter:      rep,
		Loop:          loop,
		Log:           cfg.Log,
		Board:         cfg.Board,
		WatchdogTicks: cfg.WatchdogTicks,
		RunID:         cfg.RunID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create test runner: %w", err)
	}
	return r.Run(ctx)
}
