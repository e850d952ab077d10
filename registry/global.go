package registry

import "github.com/baremetal-ci/kt-harness/types"

// The global registry is what suite packages target from init(). It plays
// the role of the linker-aggregated descriptor section: the set of imported
// suite packages in the final binary determines its contents, and nothing
// can be added once the runner has scanned it.
var global = New(Config{})

// Default returns the global registry.
func Default() *Registry { return global }

// MustRegisterSync declares a synchronous test {name, body} on the global
// registry. The sole effect is adding one descriptor.
func MustRegisterSync(name string, body SyncFunc) {
	global.MustRegister(Descriptor{Name: name, Kind: types.KindSync, Sync: body})
}

// MustRegisterAsync declares an asynchronous test {name, test} on the global
// registry.
func MustRegisterAsync(name string, test AsyncTest) {
	global.MustRegister(Descriptor{Name: name, Kind: types.KindAsync, Async: test})
}
