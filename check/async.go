package check

import (
	"fmt"

	"github.com/ethereum/go-ethereum/log"

	"github.com/baremetal-ci/kt-harness/types"
)

// AsyncState is the per-test state record for one asynchronous test. It is
// created by the executor at the start of that test, mutated by the test body
// across callback invocations, and destroyed when the test completes. At most
// one AsyncState is live at a time; the executor owns it exclusively.
type AsyncState struct {
	name    string
	log     log.Logger
	outcome types.Outcome
	message string

	// Payload is the setup-supplied, test-defined state carried across
	// resumptions. The harness never inspects it.
	Payload any
}

// NewAsyncState returns a fresh state record for the named test.
func NewAsyncState(name string, logger log.Logger) *AsyncState {
	if logger == nil {
		logger = log.Root()
	}
	return &AsyncState{
		name:    name,
		log:     logger.New("test", name),
		outcome: types.OutcomePending,
	}
}

// Name returns the test's registered name.
func (s *AsyncState) Name() string { return s.name }

// Pending reports whether the test has not yet reached a terminal outcome.
func (s *AsyncState) Pending() bool { return !s.outcome.Terminal() }

// Outcome returns the recorded outcome and diagnostic message.
func (s *AsyncState) Outcome() (types.Outcome, string) { return s.outcome, s.message }

// Log emits a debug line attributed to the test.
func (s *AsyncState) Log(msg string, ctx ...any) {
	s.log.Debug(msg, ctx...)
}

// Pass records a terminal passing outcome. Once terminal, further signals
// are ignored: the first terminal state a resumption produces wins.
func (s *AsyncState) Pass() {
	if s.outcome == types.OutcomePending {
		s.outcome = types.OutcomePass
	}
}

// Fail records a terminal failing outcome with a diagnostic. Unlike T.Fail
// there is no unwind: a resumption returns control to the event loop
// normally and the executor observes the terminal state.
func (s *AsyncState) Fail(msg string) {
	if s.outcome == types.OutcomePending {
		s.outcome = types.OutcomeFail
		s.message = msg
	}
}

// Failf is Fail with formatting.
func (s *AsyncState) Failf(format string, args ...any) {
	s.Fail(fmt.Sprintf(format, args...))
}
