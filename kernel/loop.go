// Package kernel models the collaborator side of the harness: a
// single-threaded cooperative event loop with deferred calls and tick-based
// event sources. On real hardware this role is played by the kernel's
// deferred-call and interrupt machinery; the harness core only depends on
// the delivery contract, which this package pins down: deliveries are
// serialized, never nested, and happen only inside Tick.
package kernel

import (
	"sync"

	"github.com/ethereum/go-ethereum/log"
)

// Event is one delivery from an event source to its client.
type Event struct {
	Source string
	Tick   uint64
	Data   any
}

// Client receives serialized deliveries from the loop.
type Client interface {
	Deliver(ev Event)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ev Event)

func (f ClientFunc) Deliver(ev Event) { f(ev) }

type delivery struct {
	client Client
	ev     Event
}

// Loop is the cooperative event loop. Producers may enqueue from any
// goroutine, but delivery happens only on the goroutine calling Tick, one
// item per tick, so callback re-entries into test bodies are never
// concurrent with each other.
type Loop struct {
	log log.Logger

	mu     sync.Mutex
	queue  []delivery
	timers []*Timer
	tick   uint64
}

// NewLoop returns an idle loop.
func NewLoop(logger log.Logger) *Loop {
	if logger == nil {
		logger = log.Root()
	}
	return &Loop{log: logger}
}

// Now returns the current tick count.
func (l *Loop) Now() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tick
}

// Post enqueues a delivery for a later tick. Posting from inside a delivery
// is allowed and lands at the back of the queue; it is never delivered
// within the same tick.
func (l *Loop) Post(c Client, ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queue = append(l.queue, delivery{client: c, ev: ev})
}

// Defer schedules fn as a deferred call: it runs on a later tick, after
// everything already queued. Deferred calls run in FIFO order.
func (l *Loop) Defer(fn func()) {
	l.Post(ClientFunc(func(Event) { fn() }), Event{Source: "deferred"})
}

// Tick advances the loop by one step: the tick counter is incremented, due
// timers fire into the queue, and at most one pending delivery is handed to
// its client. It returns false when nothing was delivered.
func (l *Loop) Tick() bool {
	l.mu.Lock()
	l.tick++
	now := l.tick
	for _, t := range l.timers {
		if t.armed && now >= t.deadline {
			t.armed = false
			l.queue = append(l.queue, delivery{
				client: t.client,
				ev:     Event{Source: t.name, Tick: now},
			})
		}
	}
	if len(l.queue) == 0 {
		l.mu.Unlock()
		return false
	}
	d := l.queue[0]
	l.queue = l.queue[1:]
	l.mu.Unlock()

	d.client.Deliver(d.ev)
	return true
}

// Flush discards every queued delivery. The executor calls it between
// tests so an event armed by a finished test is never delivered into the
// next one.
func (l *Loop) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queue = nil
}

// attach adds t to the active timer set. Caller holds l.mu.
func (l *Loop) attach(t *Timer) {
	for _, x := range l.timers {
		if x == t {
			return
		}
	}
	l.timers = append(l.timers, t)
}

// detach removes t from the active timer set. Caller holds l.mu.
func (l *Loop) detach(t *Timer) {
	for i, x := range l.timers {
		if x == t {
			l.timers = append(l.timers[:i], l.timers[i+1:]...)
			return
		}
	}
}

// Idle reports whether the loop has no queued deliveries and no armed
// timers, i.e. no future Tick can make progress without outside input.
func (l *Loop) Idle() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) > 0 {
		return false
	}
	for _, t := range l.timers {
		if t.armed {
			return false
		}
	}
	return true
}
