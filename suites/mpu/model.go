// Package mpu holds kernel tests for memory-protection region invariants:
// the alignment, sizing and isolation rules the MPU configuration code must
// uphold before regions are ever programmed into hardware.
package mpu

// Cortex-M style constraints: regions are power-of-two sized, at least 32
// bytes, and naturally aligned to their size.
const (
	minRegionSize  uint32 = 32
	ramBase        uint32 = 0x2000_0000
	flashBase      uint32 = 0x0000_0000
	peripheralBase uint32 = 0x4000_0000
	pageSize       uint32 = 0x1000
)

// Region is one protection region candidate.
type Region struct {
	Base uint32
	Size uint32
	// Writable marks regions the owning process may write.
	Writable bool
}

// Aligned reports whether the region base is naturally aligned to its size.
func (r Region) Aligned() bool {
	if r.Size == 0 {
		return false
	}
	return r.Base&(r.Size-1) == 0
}

// PowerOfTwoSized reports whether the region size is an exact power of two.
func (r Region) PowerOfTwoSized() bool {
	return r.Size != 0 && r.Size&(r.Size-1) == 0
}

// End returns the first address past the region.
func (r Region) End() uint32 {
	return r.Base + r.Size
}

// Overlaps reports whether two regions share any address.
func (r Region) Overlaps(o Region) bool {
	return r.Base < o.End() && o.Base < r.End()
}

// CoversNullPage reports whether the region maps any address in the first
// page. The null page must stay unmapped to catch nil dereferences.
func (r Region) CoversNullPage() bool {
	return r.Base < pageSize
}
