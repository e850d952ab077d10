// Package runner sequences the execution of every registered kernel test.
// It iterates the registry in stored order exactly once, dispatches each
// descriptor to the synchronous or asynchronous executor, and streams
// lifecycle events to the reporter as they happen.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/baremetal-ci/kt-harness/kernel"
	"github.com/baremetal-ci/kt-harness/metrics"
	"github.com/baremetal-ci/kt-harness/registry"
	"github.com/baremetal-ci/kt-harness/reporter"
	"github.com/baremetal-ci/kt-harness/types"
)

// DefaultWatchdogTicks bounds how many event-loop ticks an asynchronous
// test may stay pending before the watchdog fails it, so a hung test
// cannot stall the whole suite. Zero disables the watchdog.
const DefaultWatchdogTicks uint64 = 1000

// Config holds configuration for creating a new runner
type Config struct {
	Registry      *registry.Registry
	Reporter      *reporter.Reporter
	Loop          *kernel.Loop
	Log           log.Logger
	Board         string // board label for metrics
	WatchdogTicks uint64
	RunID         string // generated when empty
}

// Runner executes the registered suite once per Run call.
type Runner struct {
	registry *registry.Registry
	reporter *reporter.Reporter
	loop     *kernel.Loop
	log      log.Logger
	board    string
	watchdog uint64
	runID    string
	tracer   trace.Tracer
}

// NewRunner creates a new runner instance
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if cfg.Reporter == nil {
		return nil, fmt.Errorf("reporter is required")
	}
	if cfg.Loop == nil {
		return nil, fmt.Errorf("kernel loop is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.Root()
		cfg.Log.Error("No logger provided, using default")
	}
	if cfg.Board == "" {
		cfg.Board = "unknown"
	}

	cfg.Log.Debug("NewRunner()", "board", cfg.Board, "watchdogTicks", cfg.WatchdogTicks)

	return &Runner{
		registry: cfg.Registry,
		reporter: cfg.Reporter,
		loop:     cfg.Loop,
		log:      cfg.Log,
		board:    cfg.Board,
		watchdog: cfg.WatchdogTicks,
		runID:    cfg.RunID,
		tracer:   otel.Tracer("kernel test runner"),
	}, nil
}

// Run executes every registered test in registry order and returns the
// finalized suite result. A corrupt registry aborts before any test runs;
// per-test failures never stop the iteration. An empty registry is a valid
// run: a start event with zero tests and an immediate summary.
func (r *Runner) Run(ctx context.Context) (*types.SuiteResult, error) {
	runID := r.runID
	if runID == "" {
		runID = uuid.New().String()
	}
	r.runID = runID
	defer func() {
		r.runID = ""
	}()

	descs, err := r.registry.Descriptors()
	if err != nil {
		return nil, fmt.Errorf("scanning test registry: %w", err)
	}

	ctx, span := r.tracer.Start(ctx, "kernel test suite")
	defer span.End()

	start := time.Now()
	r.log.Debug("Running kernel test suite", "run_id", runID, "tests", len(descs))
	r.reporter.SuiteStart(len(descs))

	result := &types.SuiteResult{RunID: runID}
	for _, desc := range descs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("suite interrupted before %s: %w", desc.Name, err)
		}
		result.Record(r.runTest(ctx, desc))
	}

	result.Duration = time.Since(start)
	r.reporter.SuiteComplete(result.Passed, result.Failed)
	metrics.RecordSuite(r.board, runID, result.Status(),
		result.Total, result.Passed, result.Failed, result.Duration)
	r.log.Info("Kernel test suite complete",
		"run_id", runID, "total", result.Total, "passed", result.Passed, "failed", result.Failed)
	return result, nil
}

// runTest dispatches one descriptor to the executor matching its kind. The
// returned result is always terminal; the next descriptor is not touched
// until it is.
func (r *Runner) runTest(ctx context.Context, desc registry.Descriptor) types.TestResult {
	r.reporter.Running(desc.Name)

	_, span := r.tracer.Start(ctx, fmt.Sprintf("test %s", desc.Name))
	start := time.Now()

	var outcome types.Outcome
	var message string
	switch desc.Kind {
	case types.KindSync:
		outcome, message = r.runSync(desc)
	case types.KindAsync:
		outcome, message = r.runAsync(desc)
	default:
		// Register rejects unknown kinds; a descriptor can only get here
		// through region corruption missed by the scanner.
		outcome, message = types.OutcomeFail, fmt.Sprintf("unknown test kind %q", desc.Kind)
	}

	duration := time.Since(start)
	span.End()

	if outcome == types.OutcomePass {
		r.reporter.Pass(desc.Name)
	} else {
		r.reporter.Fail(desc.Name, message)
	}
	metrics.RecordTest(r.board, r.runID, desc.Name, desc.Kind, outcome)

	return types.TestResult{
		Name:     desc.Name,
		Kind:     desc.Kind,
		Outcome:  outcome,
		Message:  message,
		Duration: duration,
	}
}
