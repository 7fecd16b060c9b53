package mmu

// tlbEntries is the VR4300's architectural TLB size.
const tlbEntries = 32

// tlbEntry models one joint TLB entry: a single virtual page pair (even/odd
// physical pages selected by VA bit 12) tagged by ASID, per spec.md §6.
type tlbEntry struct {
	valid    bool
	global   bool
	asid     uint8
	vpn2     uint64 // virtual page number / 2 (even/odd pair selector)
	pageMask uint64
	pfn      [2]uint64 // physical frame number, indexed by the even/odd select bit
	validBit [2]bool
	dirty    [2]bool
}

// TLB is a 32-entry translation lookaside buffer. Real VR4300 TLB hardware
// is content-addressable: every entry is compared against the lookup key in
// parallel. A linear scan over a small fixed array is the literal software
// analogue of that behavior, not a hardware cache with set/way structure, so
// this does not reuse the set-associative directory used for the
// instruction and data caches.
type TLB struct {
	entries [tlbEntries]tlbEntry
}

// NewTLB creates an empty TLB (all entries invalid, as at power-on reset).
func NewTLB() *TLB {
	return &TLB{}
}

// Probe searches for an entry matching va's page and asid (or a global
// entry, which ignores asid), per spec.md §4.1 RF's "TLB probe by (VA,
// ASID)". Returns the physical frame number, its dirty bit, and whether a
// matching valid mapping was found.
func (t *TLB) Probe(va uint64, asid uint8) (pfn uint64, dirty bool, ok bool) {
	for i := range t.entries {
		e := &t.entries[i]
		if !e.valid {
			continue
		}
		mask := e.pageMask | 0x1FFF
		if (va &^ mask) != (e.vpn2<<13)&^mask {
			continue
		}
		if !e.global && e.asid != asid {
			continue
		}
		sel := (va >> 12) & 1
		if !e.validBit[sel] {
			continue
		}
		return e.pfn[sel], e.dirty[sel], true
	}
	return 0, false, false
}

// Write installs or overwrites the TLB entry at index, the operation a
// TLBWR/TLBWI handler drives. index must be in [0, tlbEntries).
func (t *TLB) Write(index int, asid uint8, global bool, vpn2, pageMask uint64, pfnEven, pfnOdd uint64, validEven, validOdd, dirtyEven, dirtyOdd bool) {
	t.entries[index] = tlbEntry{
		valid:    true,
		global:   global,
		asid:     asid,
		vpn2:     vpn2,
		pageMask: pageMask,
		pfn:      [2]uint64{pfnEven, pfnOdd},
		validBit: [2]bool{validEven, validOdd},
		dirty:    [2]bool{dirtyEven, dirtyOdd},
	}
}

// Invalidate clears the entry at index back to not-present.
func (t *TLB) Invalidate(index int) {
	t.entries[index] = tlbEntry{}
}
