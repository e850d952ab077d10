package kernel

// Timer is a tick-based alarm source. Arm registers a client to receive one
// delivery once the given number of ticks has elapsed; it stands in for a
// hardware timer interrupt. A timer fires at most once per Arm.
type Timer struct {
	loop *Loop
	name string

	// guarded by loop.mu
	client   Client
	armed    bool
	deadline uint64
}

// NewTimer creates a timer bound to the loop. The name becomes the Source
// of delivered events. The timer joins the loop's active set when armed.
func (l *Loop) NewTimer(name string) *Timer {
	return &Timer{loop: l, name: name}
}

// Arm schedules a single delivery to c after ticks further ticks. Re-arming
// an armed timer replaces its deadline and client.
func (t *Timer) Arm(ticks uint64, c Client) {
	t.loop.mu.Lock()
	defer t.loop.mu.Unlock()
	t.client = c
	t.armed = true
	t.deadline = t.loop.tick + ticks
	t.loop.attach(t)
}

// Disarm cancels a pending delivery and drops the timer from the loop's
// active set, so a detached test's timer cannot outlive it. Disarming an
// idle timer is a no-op.
func (t *Timer) Disarm() {
	t.loop.mu.Lock()
	defer t.loop.mu.Unlock()
	t.armed = false
	t.client = nil
	t.loop.detach(t)
}

// Armed reports whether the timer has a pending delivery.
func (t *Timer) Armed() bool {
	t.loop.mu.Lock()
	defer t.loop.mu.Unlock()
	return t.armed
}
