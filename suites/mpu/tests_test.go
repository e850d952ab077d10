package mpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/baremetal-ci/kt-harness/check"
	"github.com/baremetal-ci/kt-harness/types"
)

// Every registered body must pass against the shipped region model: one bad
// invariant here fails the suite in every image built with this package.
func TestRegisteredBodiesPass(t *testing.T) {
	bodies := map[string]func(*check.T){
		"mpu_basic_configuration":     basicConfiguration,
		"mpu_region_boundaries":       regionBoundaries,
		"mpu_flash_protection":        flashProtection,
		"mpu_peripheral_isolation":    peripheralIsolation,
		"mpu_overlapping_regions":     overlappingRegions,
		"mpu_null_pointer_protection": nullPointerProtection,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			ct := check.NewT(name, nil)
			check.Invoke(ct, body)
			outcome, msg := ct.Outcome()
			assert.Equal(t, types.OutcomePass, outcome, msg)
		})
	}
}
