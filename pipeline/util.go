package pipeline

import "github.com/n64cpu/vr4300/mmu"

// beWord reads a big-endian 32-bit word from a 4-byte slice.
func beWord(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// translate resolves va to a physical address under seg: a direct offset
// subtraction for unmapped segments, or a TLB probe keyed by (va, ASID) for
// mapped segments. ok is false only when a mapped segment's TLB probe
// misses.
func (p *Pipeline) translate(seg mmu.Segment, va uint64) (uint64, bool) {
	if !seg.Mapped {
		return seg.Translate(va), true
	}
	pfn, _, ok := p.TLB.Probe(va, p.CP0.ASID())
	if !ok {
		return 0, false
	}
	return pfn<<12 | (va & 0xFFF), true
}
