// Package check provides the check contexts handed to test bodies: T for
// synchronous tests and AsyncState for callback-driven tests. A body signals
// its outcome explicitly; returning without a signal is itself a failure,
// detected by the executor.
package check

import (
	"fmt"

	"github.com/ethereum/go-ethereum/log"

	"github.com/baremetal-ci/kt-harness/types"
)

// failNow is the sentinel used to unwind a synchronous test body after a
// terminal Fail. It must never escape Invoke.
type failNow struct{}

// T is the check context for a synchronous test body. The body runs on the
// harness's calling context and must signal Pass or Fail before returning.
type T struct {
	name    string
	log     log.Logger
	outcome types.Outcome
	message string
}

// NewT returns a check context for the named test.
func NewT(name string, logger log.Logger) *T {
	if logger == nil {
		logger = log.Root()
	}
	return &T{
		name:    name,
		log:     logger.New("test", name),
		outcome: types.OutcomePending,
	}
}

// Name returns the test's registered name.
func (t *T) Name() string { return t.name }

// Outcome returns the recorded outcome and diagnostic message.
func (t *T) Outcome() (types.Outcome, string) { return t.outcome, t.message }

// Log emits a debug line attributed to the test.
func (t *T) Log(msg string, ctx ...any) {
	t.log.Debug(msg, ctx...)
}

// Pass records a passing outcome. The body keeps running; a later Fail
// overrides it.
func (t *T) Pass() {
	if t.outcome == types.OutcomePending {
		t.outcome = types.OutcomePass
	}
}

// Fail records a failing outcome with a diagnostic and unwinds the test
// body. It does not return.
func (t *T) Fail(msg string) {
	t.outcome = types.OutcomeFail
	t.message = msg
	panic(failNow{})
}

// Failf is Fail with formatting.
func (t *T) Failf(format string, args ...any) {
	t.Fail(fmt.Sprintf(format, args...))
}

// AssertEqual fails the test unless got == want. The diagnostic names both
// compared values.
func (t *T) AssertEqual(got, want any, what string) {
	if got != want {
		t.Failf("assertion failed: %s: expected %v, got %v", what, want, got)
	}
}

// AssertNotEqual fails the test when got == notWant.
func (t *T) AssertNotEqual(got, notWant any, what string) {
	if got == notWant {
		t.Failf("assertion failed: %s: both values are %v", what, got)
	}
}

// AssertTrue fails the test with msg unless cond holds.
func (t *T) AssertTrue(cond bool, msg string) {
	if !cond {
		t.Failf("assertion failed: %s", msg)
	}
}

// Invoke runs a synchronous test body against t, containing the two ways a
// body can leave early: the Fail unwind, which is already recorded, and a
// foreign panic, which is recorded as a failure so one faulting test cannot
// take down the whole suite. A body expecting a specific fault must catch it
// itself.
func Invoke(t *T, body func(*T)) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if _, ok := r.(failNow); ok {
			return
		}
		t.outcome = types.OutcomeFail
		t.message = fmt.Sprintf("fault: %v", r)
		t.log.Error("test body panicked", "panic", r)
	}()
	body(t)
}
