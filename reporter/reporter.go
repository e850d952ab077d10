// Package reporter emits the line-oriented console protocol scraped by CI.
// Lines are written as the runner progresses, not batched at the end, so a
// scraper observes progress even when a later test hangs the image.
package reporter

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/acarl005/stripansi"
	"github.com/ethereum/go-ethereum/log"
)

// Reporter renders one line per lifecycle event on a console writer.
type Reporter struct {
	log log.Logger

	mu sync.Mutex
	w  io.Writer
}

// New creates a reporter writing the protocol to w.
func New(w io.Writer, logger log.Logger) *Reporter {
	if logger == nil {
		logger = log.Root()
	}
	return &Reporter{w: w, log: logger}
}

// SuiteStart emits the start-of-suite line with the total test count.
func (r *Reporter) SuiteStart(total int) {
	r.emit("[TEST] Starting kernel test suite (%d tests)", total)
}

// Running emits the per-test running line.
func (r *Reporter) Running(name string) {
	r.emit("[TEST] Running %s", name)
}

// Pass emits the pass line for a test.
func (r *Reporter) Pass(name string) {
	r.emit("[PASS] %s", name)
}

// Fail emits the fail line for a test. The diagnostic is appended when one
// was supplied.
func (r *Reporter) Fail(name, diagnostic string) {
	if diagnostic == "" {
		r.emit("[FAIL] %s", name)
		return
	}
	r.emit("[FAIL] %s: %s", name, sanitize(diagnostic))
}

// SuiteComplete emits the final summary line.
func (r *Reporter) SuiteComplete(passed, failed int) {
	r.emit("[TEST] Test suite complete: %d passed, %d failed", passed, failed)
}

func (r *Reporter) emit(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := fmt.Fprintf(r.w, format+"\n", args...); err != nil {
		r.log.Error("Failed to write console line", "error", err)
	}
}

// sanitize keeps the protocol one-event-per-line: diagnostics produced by
// test bodies may carry ANSI escapes or newlines from driver output.
func sanitize(s string) string {
	s = stripansi.Strip(s)
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.TrimSpace(s)
}
