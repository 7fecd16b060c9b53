// Package mmu provides the address translation helper spec.md §3/§4
// describes: segment lookup and TLB probe, called from within the IC and DC
// stages. Segment windows follow the canonical VR4300/N64 32-bit
// compatibility memory map (kuseg/kseg0/kseg1/ksseg/kseg3), the same
// KSEG1-keyed convention other_examples/clktmr-n64 regs.go assumes for its
// MMIO base address.
package mmu

// Segment describes a virtual address window with shared mapping,
// cacheability, and offset properties, per spec.md §3.
type Segment struct {
	Name    string
	Start   uint64
	Length  uint64
	Offset  uint64 // subtracted from VA to form the PA baseline
	Mapped  bool   // requires TLB translation
	Cached  bool   // goes through the appropriate cache
}

// Contains reports whether va falls within the segment's [Start,
// Start+Length) window, the test the IC latch's cached-segment-handle
// invariant (spec.md §3) relies on to decide when a re-lookup is needed.
func (s *Segment) Contains(va uint64) bool {
	return va >= s.Start && va-s.Start < s.Length
}

// Translate computes the physical address for an unmapped segment:
// PA = VA - segment.Offset, per spec.md §4.1 RF.
func (s *Segment) Translate(va uint64) uint64 {
	return va - s.Offset
}

// Kseg0Base and Kseg1Base are the virtual base addresses of the cached and
// uncached unmapped windows, exposed so a host driver (or test) can compute
// a virtual alias of a physical address without reaching into
// package-private segment state.
const (
	Kseg0Base = 0xFFFFFFFF80000000
	Kseg1Base = 0xFFFFFFFFA0000000
)

// Standard VR4300 segment windows in 32-bit compatibility mode.
var (
	kuseg = Segment{Name: "kuseg", Start: 0x0000000000000000, Length: 0x80000000, Offset: 0, Mapped: true, Cached: true}
	kseg0 = Segment{Name: "kseg0", Start: Kseg0Base, Length: 0x20000000, Offset: Kseg0Base, Mapped: false, Cached: true}
	kseg1 = Segment{Name: "kseg1", Start: Kseg1Base, Length: 0x20000000, Offset: Kseg1Base, Mapped: false, Cached: false}
	ksseg = Segment{Name: "ksseg", Start: 0xFFFFFFFFC0000000, Length: 0x20000000, Offset: 0, Mapped: true, Cached: true}
	kseg3 = Segment{Name: "kseg3", Start: 0xFFFFFFFFE0000000, Length: 0x20000000, Offset: 0, Mapped: true, Cached: true}
)

// StatusKSU bits of the Status register gate whether kuseg is the only
// window visible (user mode) or the kernel windows are too.
const statusKSUMask = 0x18

// Table resolves virtual addresses to segment descriptors.
type Table struct{}

// NewTable creates a segment table with the standard VR4300 windows.
func NewTable() *Table {
	return &Table{}
}

// Lookup returns the segment covering va, consulting cp0Status only to
// decide whether kernel-only segments are reachable (user mode traps to
// kuseg alone), per spec.md §6's get_segment(va, cp0_status) collaborator
// contract. Returns false if va falls outside every configured window.
func (t *Table) Lookup(va uint64, cp0Status uint32) (Segment, bool) {
	userMode := cp0Status&statusKSUMask != 0
	if kuseg.Contains(va) {
		return kuseg, true
	}
	if userMode {
		return Segment{}, false
	}
	switch {
	case kseg0.Contains(va):
		return kseg0, true
	case kseg1.Contains(va):
		return kseg1, true
	case ksseg.Contains(va):
		return ksseg, true
	case kseg3.Contains(va):
		return kseg3, true
	}
	return Segment{}, false
}

// Default returns the segment seeded into fresh latches at reset, per
// spec.md §6's get_default_segment() collaborator. The VR4300 resets into
// kseg1 (uncached, unmapped) so early boot code runs before the cache and
// TLB are configured.
func (t *Table) Default() Segment {
	return kseg1
}
