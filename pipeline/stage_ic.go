package pipeline

// stageIC fetches the next instruction's address. It does not read the
// instruction cache itself — that happens in RF — it only resolves the
// segment the fetch address falls under and advances the program counter.
func (p *Pipeline) stageIC() bool {
	seg := p.icrf.Segment
	if !p.icrf.SegmentValid || !seg.Contains(p.pc) {
		s, ok := p.Segs.Lookup(p.pc, p.CP0.Status)
		if !ok {
			p.icrf.CLatch = CLatch{VPC: p.pc}
			p.raiseFault(StageIC, &p.icrf.CLatch, FaultInstructionAddressError)
			p.icrf.SegmentValid = false
			return true
		}
		seg = s
	}

	p.icrf.CLatch = CLatch{VPC: p.pc, Fault: FaultNone}
	p.icrf.CLatch.SetDelaySlot(p.lastWasBranch)
	p.icrf.Segment = seg
	p.icrf.SegmentValid = true

	p.pc += 4
	return false
}
