package runner

import (
	"fmt"

	"github.com/baremetal-ci/kt-harness/check"
	"github.com/baremetal-ci/kt-harness/kernel"
	"github.com/baremetal-ci/kt-harness/registry"
	"github.com/baremetal-ci/kt-harness/types"
)

// runAsync drives one asynchronous test through its three-phase protocol:
// setup arms the test's event source, each delivered event re-enters the
// body with the shared state record, and completion detaches the test once
// a terminal outcome is recorded. Exactly one asynchronous test is
// outstanding at a time; this function does not return until the test is
// terminal, so the runner cannot dispatch the next descriptor early.
//
// State machine per resumption:
//
//	Pending --event--> Pending   (keep waiting, control returns to the loop)
//	Pending --event--> Pass/Fail (terminal, executor detaches)
//	Pending --watchdog expiry--> Fail (terminal)
func (r *Runner) runAsync(desc registry.Descriptor) (outcome types.Outcome, message string) {
	st := check.NewAsyncState(desc.Name, r.log)

	// The test body never talks to the loop's delivery side directly; the
	// executor is the registered client and forwards every event into
	// Resume with the state record it owns.
	client := kernel.ClientFunc(func(ev kernel.Event) {
		desc.Async.Resume(st, ev)
	})

	defer func() {
		desc.Async.Detach()
		// Drop anything the finished test left queued; the next test must
		// start against an empty loop.
		r.loop.Flush()
		if rec := recover(); rec != nil {
			// A fault inside setup or a resumption. Contain it to this
			// test, same policy as the synchronous executor.
			r.log.Error("async test body panicked", "test", desc.Name, "panic", rec)
			outcome, message = types.OutcomeFail, fmt.Sprintf("fault: %v", rec)
		}
	}()

	if err := desc.Async.Setup(st, r.loop, client); err != nil {
		return types.OutcomeFail, fmt.Sprintf("setup: %v", err)
	}

	for ticks := uint64(0); st.Pending(); {
		if r.watchdog > 0 && ticks >= r.watchdog {
			st.Failf("watchdog: no terminal outcome within %d ticks", r.watchdog)
			break
		}
		if !r.loop.Tick() && r.loop.Idle() {
			// Nothing queued and no source armed: no future tick can
			// resume this test. Waiting longer would hang the suite.
			st.Fail("event loop idle while test still pending")
			break
		}
		ticks++
	}

	return st.Outcome()
}
