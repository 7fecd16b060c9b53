package pipeline

import "github.com/n64cpu/vr4300/isa"

// stageRF translates the fetch address, probes the instruction cache, and
// decodes the resulting word into the RF/EX latch.
func (p *Pipeline) stageRF() bool {
	if p.icrf.Fault != FaultNone {
		p.rfex.CLatch = p.icrf.CLatch
		p.rfex.IW, p.rfex.Mask = 0, 0
		p.rfex.Op = isa.Instruction{}
		return true
	}

	var iw uint32
	var ok bool

	if p.icPending {
		iw, ok = p.resumeFetch(p.icPendingPA, p.icPendingCached)
		if !ok {
			p.raiseStall()
			return true
		}
		p.icPending = false
	} else {
		seg := p.icrf.Segment
		pa, translated := p.translate(seg, p.icrf.VPC)
		if !translated {
			p.rfex.CLatch = p.icrf.CLatch
			p.raiseFault(StageRF, &p.rfex.CLatch, FaultTLBRefill)
			// Tag icrf itself too: without this, a drain tick that re-enters
			// stageRF would re-translate the same stale VPC and re-raise
			// instead of squashing, resetting ExceptionHistory every tick
			// and never letting the drain complete.
			p.icrf.Fault = FaultTLBRefill
			return true
		}

		if !seg.Cached {
			p.icPending, p.icPendingPA, p.icPendingCached = true, pa, false
			p.raiseStall()
			return true
		}

		line, hit := p.ICache.Probe(pa)
		if !hit {
			p.icPending, p.icPendingPA, p.icPendingCached = true, pa, true
			p.raiseStall()
			return true
		}
		off := p.ICache.LineOffset(pa) &^ 0x3
		iw = beWord(line.Data[off : off+4])
	}

	p.rfex.CLatch = p.icrf.CLatch
	p.rfex.Mask = 0xFFFFFFFF
	p.rfex.IW = iw & p.rfex.Mask

	inst := p.decoder.Decode(p.rfex.IW)
	p.rfex.Op = *inst
	p.lastWasBranch = inst.IsBranch

	return false
}

// resumeFetch completes a fetch whose cache line has since been filled (or,
// for an uncached segment, reads the word directly off the bus).
func (p *Pipeline) resumeFetch(pa uint64, cached bool) (uint32, bool) {
	if !cached {
		return p.Mem.Read32(pa), true
	}
	line, hit := p.ICache.Probe(pa)
	if !hit {
		return 0, false
	}
	off := p.ICache.LineOffset(pa) &^ 0x3
	return beWord(line.Data[off : off+4]), true
}
