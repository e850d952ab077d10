package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTickOnEmptyLoop(t *testing.T) {
	loop := NewLoop(nil)
	assert.False(t, loop.Tick())
	assert.True(t, loop.Idle())
	assert.Equal(t, uint64(1), loop.Now(), "tick counter advances even when idle")
}

func TestPostDeliversOnce(t *testing.T) {
	loop := NewLoop(nil)

	var got []Event
	loop.Post(ClientFunc(func(ev Event) { got = append(got, ev) }), Event{Source: "src", Data: 42})

	require.True(t, loop.Tick())
	require.Len(t, got, 1)
	assert.Equal(t, "src", got[0].Source)
	assert.Equal(t, 42, got[0].Data)

	assert.False(t, loop.Tick())
	assert.Len(t, got, 1)
}

func TestOneDeliveryPerTick(t *testing.T) {
	loop := NewLoop(nil)

	delivered := 0
	for i := 0; i < 3; i++ {
		loop.Defer(func() { delivered++ })
	}

	require.True(t, loop.Tick())
	assert.Equal(t, 1, delivered)
	require.True(t, loop.Tick())
	assert.Equal(t, 2, delivered)
	require.True(t, loop.Tick())
	assert.Equal(t, 3, delivered)
	assert.False(t, loop.Tick())
}

func TestDeferredCallsRunInFIFOOrder(t *testing.T) {
	loop := NewLoop(nil)

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		loop.Defer(func() { order = append(order, i) })
	}
	for loop.Tick() {
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestPostFromDeliveryIsNotNested(t *testing.T) {
	loop := NewLoop(nil)

	var events []string
	loop.Defer(func() {
		loop.Defer(func() { events = append(events, "inner") })
		events = append(events, "outer")
	})

	require.True(t, loop.Tick())
	assert.Equal(t, []string{"outer"}, events, "inner must not run within the same tick")
	require.True(t, loop.Tick())
	assert.Equal(t, []string{"outer", "inner"}, events)
}

func TestTimerFiresAfterDeadline(t *testing.T) {
	loop := NewLoop(nil)
	timer := loop.NewTimer("alarm")

	var fired []Event
	timer.Arm(3, ClientFunc(func(ev Event) { fired = append(fired, ev) }))
	require.True(t, timer.Armed())
	assert.False(t, loop.Idle())

	// Ticks 1 and 2: deadline not reached, nothing queued.
	assert.False(t, loop.Tick())
	assert.False(t, loop.Tick())
	require.Empty(t, fired)

	// Tick 3: timer fires into the queue and is delivered.
	require.True(t, loop.Tick())
	require.Len(t, fired, 1)
	assert.Equal(t, "alarm", fired[0].Source)
	assert.Equal(t, uint64(3), fired[0].Tick)
	assert.False(t, timer.Armed(), "a timer fires at most once per arm")

	// No further deliveries without a re-arm.
	assert.False(t, loop.Tick())
	assert.Len(t, fired, 1)
	assert.True(t, loop.Idle())
}

func TestTimerDisarm(t *testing.T) {
	loop := NewLoop(nil)
	timer := loop.NewTimer("alarm")

	fired := false
	timer.Arm(1, ClientFunc(func(Event) { fired = true }))
	timer.Disarm()
	require.False(t, timer.Armed())
	assert.True(t, loop.Idle())

	assert.False(t, loop.Tick())
	assert.False(t, fired)

	// Disarming an idle timer is a no-op.
	timer.Disarm()
}

func TestTimerRearmReplacesDeadline(t *testing.T) {
	loop := NewLoop(nil)
	timer := loop.NewTimer("alarm")

	var fired []uint64
	client := ClientFunc(func(ev Event) { fired = append(fired, ev.Tick) })
	timer.Arm(1, client)
	timer.Arm(4, client)

	assert.False(t, loop.Tick(), "original deadline was replaced")
	assert.False(t, loop.Tick())
	assert.False(t, loop.Tick())
	require.True(t, loop.Tick())
	require.Len(t, fired, 1)
	assert.Equal(t, uint64(4), fired[0])
}

func TestRearmFromInsideDelivery(t *testing.T) {
	loop := NewLoop(nil)
	timer := loop.NewTimer("alarm")

	fires := 0
	var client ClientFunc
	client = func(Event) {
		fires++
		if fires < 3 {
			timer.Arm(2, client)
		}
	}
	timer.Arm(2, client)

	for !loop.Idle() {
		loop.Tick()
	}
	assert.Equal(t, 3, fires)
}

func TestTimerArmAfterDisarm(t *testing.T) {
	loop := NewLoop(nil)
	timer := loop.NewTimer("alarm")

	fired := 0
	client := ClientFunc(func(Event) { fired++ })
	timer.Arm(1, client)
	timer.Disarm()
	timer.Arm(2, client)

	assert.False(t, loop.Tick())
	require.True(t, loop.Tick())
	assert.Equal(t, 1, fired)
}

func TestFlushDiscardsQueuedDeliveries(t *testing.T) {
	loop := NewLoop(nil)

	delivered := false
	loop.Defer(func() { delivered = true })
	loop.Flush()

	assert.True(t, loop.Idle())
	assert.False(t, loop.Tick())
	assert.False(t, delivered)
}

func TestIdle(t *testing.T) {
	loop := NewLoop(nil)
	assert.True(t, loop.Idle())

	loop.Defer(func() {})
	assert.False(t, loop.Idle())
	loop.Tick()
	assert.True(t, loop.Idle())

	timer := loop.NewTimer("alarm")
	assert.True(t, loop.Idle(), "an unarmed timer does not hold the loop busy")
	timer.Arm(1, ClientFunc(func(Event) {}))
	assert.False(t, loop.Idle())
}
