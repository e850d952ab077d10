// Package sched holds kernel tests for the event loop's scheduling
// primitives: deferred-call ordering and delivery discipline. The tests run
// synchronously and drive a private loop instance, so they cannot interfere
// with the loop executing the suite itself.
package sched

import (
	"github.com/ethereum/go-ethereum/log"

	"github.com/baremetal-ci/kt-harness/check"
	"github.com/baremetal-ci/kt-harness/kernel"
	"github.com/baremetal-ci/kt-harness/registry"
)

func init() {
	registry.MustRegisterSync("sched_deferred_fifo_order", deferredFIFOOrder)
	registry.MustRegisterSync("sched_one_delivery_per_tick", oneDeliveryPerTick)
	registry.MustRegisterSync("sched_no_nested_delivery", noNestedDelivery)
}

// deferredFIFOOrder verifies deferred calls run in the order they were set.
func deferredFIFOOrder(t *check.T) {
	loop := kernel.NewLoop(log.Root())

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		loop.Defer(func() { order = append(order, i) })
	}
	for loop.Tick() {
	}

	t.AssertEqual(len(order), 3, "deferred call count")
	for i, got := range order {
		t.AssertEqual(got, i, "deferred call order")
	}
	t.Pass()
}

// oneDeliveryPerTick verifies a tick delivers at most one queued item.
func oneDeliveryPerTick(t *check.T) {
	loop := kernel.NewLoop(log.Root())

	ran := 0
	loop.Defer(func() { ran++ })
	loop.Defer(func() { ran++ })

	t.AssertTrue(loop.Tick(), "first tick should deliver")
	t.AssertEqual(ran, 1, "deliveries after one tick")
	t.AssertTrue(loop.Tick(), "second tick should deliver")
	t.AssertEqual(ran, 2, "deliveries after two ticks")
	t.AssertEqual(loop.Tick(), false, "third tick should be idle")
	t.Pass()
}

// noNestedDelivery verifies a deferred call set from inside a delivery runs
// on a later tick, never nested within the current one.
func noNestedDelivery(t *check.T) {
	loop := kernel.NewLoop(log.Root())

	var events []string
	loop.Defer(func() {
		loop.Defer(func() { events = append(events, "inner") })
		events = append(events, "outer")
	})

	loop.Tick()
	t.AssertEqual(len(events), 1, "events after first tick")
	t.AssertEqual(events[0], "outer", "first delivered event")

	loop.Tick()
	t.AssertEqual(len(events), 2, "events after second tick")
	t.AssertEqual(events[1], "inner", "second delivered event")
	t.Pass()
}
