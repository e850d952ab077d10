// Package registry holds the build-time test set. Declaring a test appends
// exactly one fixed-size descriptor record to a contiguous region; no other
// step is needed to enable it. Suite packages register from init(), so
// linking a suite into the image (importing its package) is what populates
// the registry, and registration order is link order.
package registry

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/baremetal-ci/kt-harness/check"
	"github.com/baremetal-ci/kt-harness/kernel"
	"github.com/baremetal-ci/kt-harness/types"
)

// SyncFunc is the entry point of a synchronous test.
type SyncFunc func(t *check.T)

// AsyncTest is the entry point of an asynchronous test. The executor calls
// Setup once, then Resume once per delivered event until the state reaches a
// terminal outcome, then Detach.
type AsyncTest interface {
	// Setup constructs the test's side of the state record and arms its
	// event source on the loop, registering client as the delivery target.
	Setup(st *check.AsyncState, loop *kernel.Loop, client kernel.Client) error
	// Resume is re-entered with the current state each time the registered
	// event fires. Leaving the state pending returns control to the event
	// loop; recording Pass or Fail is terminal.
	Resume(st *check.AsyncState, ev kernel.Event)
	// Detach disarms whatever Setup armed. Called exactly once after the
	// terminal outcome is observed, before the next test's setup begins.
	Detach()
}

// Descriptor is the immutable record describing one test. Exactly one of
// Sync or Async is set, matching Kind.
type Descriptor struct {
	Name  string
	Kind  types.Kind
	Sync  SyncFunc
	Async AsyncTest
}

// Config contains registry configuration
type Config struct {
	Log log.Logger
}

// Registry is the ordered collection of descriptors. Records live in one
// contiguous byte region; entry references live in a link table resolved
// when the region is scanned. Once sealed (first scan), registration is an
// error: the test set is fixed before the runner starts.
type Registry struct {
	log log.Logger

	mu      sync.Mutex
	region  []byte      // fixed-size records, no gaps
	names   []byte      // string table referenced by records
	entries []linkEntry // link table referenced by records
	seen    map[string]struct{}
	sealed  bool
}

type linkEntry struct {
	sync  SyncFunc
	async AsyncTest
}

// New creates an empty registry.
func New(cfg Config) *Registry {
	if cfg.Log == nil {
		cfg.Log = log.Root()
	}
	return &Registry{
		log:  cfg.Log,
		seen: make(map[string]struct{}),
	}
}

// Register appends one descriptor record. It fails on an empty or duplicate
// name, a kind/entry mismatch, or a sealed registry.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("test name is required")
	}
	switch d.Kind {
	case types.KindSync:
		if d.Sync == nil || d.Async != nil {
			return fmt.Errorf("test %q: sync descriptor requires exactly a Sync entry", d.Name)
		}
	case types.KindAsync:
		if d.Async == nil || d.Sync != nil {
			return fmt.Errorf("test %q: async descriptor requires exactly an Async entry", d.Name)
		}
	default:
		return fmt.Errorf("test %q: unknown kind %q", d.Name, d.Kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return fmt.Errorf("test %q: registry is sealed, the test set is fixed at build time", d.Name)
	}
	if _, ok := r.seen[d.Name]; ok {
		return fmt.Errorf("test %q already registered", d.Name)
	}

	r.seen[d.Name] = struct{}{}
	r.entries = append(r.entries, linkEntry{sync: d.Sync, async: d.Async})
	r.appendRecord(d)
	r.log.Debug("Registered test", "name", d.Name, "kind", d.Kind)
	return nil
}

// MustRegister is Register for init() paths; a bad declaration is a build
// defect, not a runtime condition.
func (r *Registry) MustRegister(d Descriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Descriptors seals the registry and scans the record region, resolving each
// record's entry reference through the link table. The count is derived from
// the region span; it is not stored anywhere else. A span that is not an
// exact multiple of the record size, or an unresolvable reference, is
// reported as corruption, never silently truncated. An empty region yields
// an empty, valid sequence.
func (r *Registry) Descriptors() ([]Descriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
	descs, err := r.scan()
	if err != nil {
		return nil, err
	}
	r.log.Debug("Registry scanned", "len(descriptors)", len(descs))
	return descs, nil
}

// Sealed reports whether the registry has been scanned and closed to
// further registration.
func (r *Registry) Sealed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sealed
}
