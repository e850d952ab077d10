// Package timer holds asynchronous kernel tests driven by the tick-based
// timer source. They exercise the full setup/resume/completion protocol:
// state carried across resumptions, re-arming from inside a callback, and
// terminal signaling back to the executor.
package timer

import (
	"github.com/baremetal-ci/kt-harness/check"
	"github.com/baremetal-ci/kt-harness/kernel"
	"github.com/baremetal-ci/kt-harness/registry"
)

func init() {
	registry.MustRegisterAsync("timer_single_shot", &singleShotTest{delay: 3})
	registry.MustRegisterAsync("timer_rearm_sequence", &rearmTest{delay: 2, fires: 3})
}

// singleShotTest arms the timer once and passes when the event arrives.
type singleShotTest struct {
	delay uint64
	timer *kernel.Timer
	armed uint64 // tick at arm time
}

func (s *singleShotTest) Setup(st *check.AsyncState, loop *kernel.Loop, client kernel.Client) error {
	s.timer = loop.NewTimer("timer0")
	s.armed = loop.Now()
	s.timer.Arm(s.delay, client)
	st.Log("armed single-shot timer", "delay", s.delay)
	return nil
}

func (s *singleShotTest) Resume(st *check.AsyncState, ev kernel.Event) {
	if ev.Source != "timer0" {
		st.Failf("unexpected event source %q", ev.Source)
		return
	}
	if elapsed := ev.Tick - s.armed; elapsed < s.delay {
		st.Failf("timer fired after %d ticks, expected at least %d", elapsed, s.delay)
		return
	}
	st.Pass()
}

func (s *singleShotTest) Detach() {
	if s.timer != nil {
		s.timer.Disarm()
	}
}

// rearmTest re-arms its timer from inside the callback and only passes
// after the configured number of fires, checking the per-test state payload
// survives across resumptions.
type rearmTest struct {
	delay  uint64
	fires  int
	timer  *kernel.Timer
	client kernel.Client
}

func (r *rearmTest) Setup(st *check.AsyncState, loop *kernel.Loop, client kernel.Client) error {
	r.timer = loop.NewTimer("timer1")
	r.client = client
	st.Payload = 0 // fires observed so far
	r.timer.Arm(r.delay, client)
	return nil
}

func (r *rearmTest) Resume(st *check.AsyncState, ev kernel.Event) {
	seen, ok := st.Payload.(int)
	if !ok {
		st.Failf("state payload corrupted: %T", st.Payload)
		return
	}
	seen++
	st.Payload = seen
	st.Log("timer fired", "seen", seen, "tick", ev.Tick)

	if seen < r.fires {
		r.timer.Arm(r.delay, r.client)
		return // keep waiting, outcome stays pending
	}
	st.Pass()
}

func (r *rearmTest) Detach() {
	if r.timer != nil {
		r.timer.Disarm()
	}
}
