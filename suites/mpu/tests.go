package mpu

import (
	"github.com/baremetal-ci/kt-harness/check"
	"github.com/baremetal-ci/kt-harness/registry"
)

func init() {
	registry.MustRegisterSync("mpu_basic_configuration", basicConfiguration)
	registry.MustRegisterSync("mpu_region_boundaries", regionBoundaries)
	registry.MustRegisterSync("mpu_flash_protection", flashProtection)
	registry.MustRegisterSync("mpu_peripheral_isolation", peripheralIsolation)
	registry.MustRegisterSync("mpu_overlapping_regions", overlappingRegions)
	registry.MustRegisterSync("mpu_null_pointer_protection", nullPointerProtection)
}

// basicConfiguration verifies the minimum-region invariants hold for the
// smallest configurable region at the start of RAM.
func basicConfiguration(t *check.T) {
	r := Region{Base: ramBase, Size: minRegionSize}
	t.AssertTrue(r.PowerOfTwoSized(), "minimum region size must be a power of two")
	t.AssertTrue(r.Aligned(), "RAM base must be aligned to the minimum region size")
	t.Pass()
}

// regionBoundaries checks alignment and sizing constraints across the range
// of sizes the MPU accepts.
func regionBoundaries(t *check.T) {
	for size := minRegionSize; size <= 0x10000; size <<= 1 {
		r := Region{Base: ramBase, Size: size}
		if !r.PowerOfTwoSized() {
			t.Failf("region size %#x is not a power of two", size)
		}
		if !r.Aligned() {
			t.Failf("region base %#x not aligned to size %#x", r.Base, size)
		}
	}
	// A base inside the size stride must be rejected.
	misaligned := Region{Base: ramBase + minRegionSize/2, Size: minRegionSize}
	t.AssertEqual(misaligned.Aligned(), false, "misaligned region accepted")
	t.Pass()
}

// flashProtection verifies flash regions handed to processes are read-only.
func flashProtection(t *check.T) {
	flash := Region{Base: flashBase + 0x4000, Size: 0x4000, Writable: false}
	t.AssertEqual(flash.Writable, false, "flash region writability")
	t.AssertTrue(flash.Aligned(), "flash region must be naturally aligned")
	t.Pass()
}

// peripheralIsolation verifies the peripheral window sits on a 64KB
// boundary so it can be isolated as one region.
func peripheralIsolation(t *check.T) {
	t.AssertEqual(peripheralBase&0xFFFF, uint32(0), "peripheral base 64KB alignment")
	t.Pass()
}

// overlappingRegions verifies the overlap detector catches partially and
// fully contained regions and accepts adjacent ones.
func overlappingRegions(t *check.T) {
	a := Region{Base: ramBase, Size: 0x1000}
	partial := Region{Base: ramBase + 0x800, Size: 0x1000}
	contained := Region{Base: ramBase + 0x100, Size: 0x100}
	adjacent := Region{Base: a.End(), Size: 0x1000}

	t.AssertTrue(a.Overlaps(partial), "partial overlap not detected")
	t.AssertTrue(a.Overlaps(contained), "contained region not detected")
	t.AssertEqual(a.Overlaps(adjacent), false, "adjacent regions flagged as overlapping")
	t.Pass()
}

// nullPointerProtection verifies no region candidate may map the null page.
func nullPointerProtection(t *check.T) {
	null := Region{Base: 0, Size: minRegionSize}
	t.AssertTrue(null.CoversNullPage(), "null page detector missed address zero")

	ram := Region{Base: ramBase, Size: 0x1000}
	t.AssertEqual(ram.CoversNullPage(), false, "RAM region flagged as covering the null page")
	t.Pass()
}
