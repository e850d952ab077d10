package runner

import (
	"github.com/baremetal-ci/kt-harness/check"
	"github.com/baremetal-ci/kt-harness/registry"
	"github.com/baremetal-ci/kt-harness/types"
)

// runSync invokes a synchronous test's entry point directly on the runner's
// calling context. The body runs to completion or unwinds on a failed
// signal before control comes back here; there is no scheduling hand-off
// and no suspension.
func (r *Runner) runSync(desc registry.Descriptor) (types.Outcome, string) {
	t := check.NewT(desc.Name, r.log)
	check.Invoke(t, desc.Sync)

	outcome, message := t.Outcome()
	if !outcome.Terminal() {
		// The body returned without signaling pass or fail. That is a
		// harness-detectable defect in the test, not a silent pass.
		return types.OutcomeFail, "test did not report a result"
	}
	return outcome, message
}
