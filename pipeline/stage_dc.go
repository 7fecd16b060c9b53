package pipeline

// stageDC checks for a pending interrupt (there is no cold-reset check),
// then — if EX left a memory request pending — runs the same
// segment/TLB/cache pipeline stageRF runs for fetches, but against the data
// cache, and folds the resulting or supplied datum into the DC/WB latch.
func (p *Pipeline) stageDC() bool {
	if p.exdc.Fault != FaultNone {
		p.dcwb.CLatch = p.exdc.CLatch
		p.dcwb.Dest, p.dcwb.Result = 0, 0
		return true
	}

	// Cold reset is not checked here: nothing in this core signals one
	// after construction, and the reset vector is only entered via Init.
	// A pending interrupt is the only precedence check DC makes.
	if p.CP0.InterruptPending() {
		p.dcwb.CLatch = p.exdc.CLatch
		p.raiseFault(StageDC, &p.dcwb.CLatch, FaultInterrupt)
		p.exdc.Fault = FaultInterrupt
		return true
	}

	p.dcwb.CLatch = p.exdc.CLatch
	p.dcwb.Dest = p.exdc.Dest
	p.dcwb.Result = p.exdc.Result

	req := p.exdc.Req
	if req.Type == ReqNone {
		return false
	}

	if !p.exdc.SegmentValid {
		p.raiseFault(StageDC, &p.dcwb.CLatch, FaultDataAddressError)
		// Tag exdc itself too: it carries the same stale request forever
		// otherwise, so a later drain tick would re-derive this same fault
		// from it instead of squashing, resetting ExceptionHistory every
		// tick and never letting the drain complete.
		p.exdc.Fault = FaultDataAddressError
		return true
	}

	var pa uint64
	if p.dcPending {
		pa = p.dcPendingPA
	} else {
		translated, ok := p.translate(p.exdc.Segment, req.VA)
		if !ok {
			p.raiseFault(StageDC, &p.dcwb.CLatch, FaultTLBRefill)
			p.exdc.Fault = FaultTLBRefill
			return true
		}
		pa = translated
	}

	switch req.Type {
	case ReqRead:
		return p.dcRead(req, pa, p.exdc.Segment.Cached)
	case ReqWrite:
		return p.dcWrite(req, pa, p.exdc.Segment.Cached)
	default:
		panic("pipeline: unknown DC bus request type")
	}
}

// dcRead satisfies a load, stalling once on a cache miss. Unlike stageRF's
// fetches, an uncached load reads the bus directly without stalling.
func (p *Pipeline) dcRead(req BusRequest, pa uint64, cached bool) bool {
	if !cached {
		word := p.Mem.Read32(pa)
		if req.TwoWord {
			hi := word
			lo := p.Mem.Read32(pa + 4)
			p.dcwb.Result = assembleTwoWord(hi, lo)
		} else {
			// Read32 already starts at pa itself, so the addressed byte
			// sits at the word's top lane with no further shift needed.
			p.dcwb.Result = extractLoad(word, 0, req)
		}
		p.dcPending = false
		return false
	}

	line, hit := p.DCache.Probe(pa)
	if !hit {
		p.dcPending, p.dcPendingPA, p.dcPendingCached = true, pa, true
		p.raiseStall()
		return true
	}

	off := p.DCache.LineOffset(pa) &^ 0x3
	hi := beWord(line.Data[off : off+4])

	if req.TwoWord {
		lo := hi
		if off+8 <= len(line.Data) {
			lo = beWord(line.Data[off+4 : off+8])
		}
		p.dcwb.Result = assembleTwoWord(hi, lo)
	} else {
		// hi is the word containing pa but aligned down to it, so the
		// addressed byte lane still needs shifting up before extraction.
		p.dcwb.Result = extractLoad(hi, uint(pa&0x3)<<3, req)
	}

	p.dcPending = false
	return false
}

// dcWrite satisfies a store, masked-merging StoreData into the addressed
// word(s) via DQM.
func (p *Pipeline) dcWrite(req BusRequest, pa uint64, cached bool) bool {
	if !cached {
		if req.TwoWord {
			hiWord, loWord := splitTwoWord(req.StoreData)
			p.Mem.Write32(pa, hiWord)
			p.Mem.Write32(pa+4, loWord)
		} else {
			aligned := pa &^ 0x3
			p.Mem.Write32(aligned, mergeStore(p.Mem.Read32(aligned), req))
		}
		p.dcPending = false
		return false
	}

	line, hit := p.DCache.Probe(pa)
	if !hit {
		p.dcPending, p.dcPendingPA, p.dcPendingCached = true, pa, true
		p.raiseStall()
		return true
	}

	off := p.DCache.LineOffset(pa) &^ 0x3

	if req.TwoWord {
		hiWord, loWord := splitTwoWord(req.StoreData)
		putWord(line.Data[off:off+4], hiWord)
		if off+8 <= len(line.Data) {
			putWord(line.Data[off+4:off+8], loWord)
		}
	} else {
		merged := mergeStore(beWord(line.Data[off:off+4]), req)
		putWord(line.Data[off:off+4], merged)
	}
	line.MarkDirty()

	p.dcPending = false
	return false
}

// extractLoad pulls a size-byte value out of a big-endian 32-bit bus word.
// shift is the addressed byte's offset within word, in bits (0, 8, 16, or
// 24): word is first shifted left by it so the target lane lands at the
// top, then treated as signed and shifted right by (4-size)*8, an
// arithmetic shift that both drops the lanes that were never addressed and
// sign-extends the result in the same step. SignEx false re-masks that
// result down to an unsigned size-byte width afterward.
func extractLoad(word uint32, shift uint, req BusRequest) uint64 {
	rshift := uint(4-req.Size) * 8
	sdata := int32(word<<shift) >> rshift
	val := uint64(int64(sdata))

	if !req.SignEx {
		width := uint64(1)<<(uint(req.Size)*8) - 1
		val &= width
	}
	return val
}

// mergeStore masks req.StoreData's contribution into word via DQM, leaving
// every other byte lane untouched.
func mergeStore(word uint32, req BusRequest) uint32 {
	data := uint32(req.StoreData) << req.PostShift
	mask := uint32(req.DQM)
	return (word &^ mask) | (data & mask)
}

// assembleTwoWord and splitTwoWord encode the double-word load/store
// half-swap: a store swaps the two 32-bit halves of its payload before
// writing them (the low half lands at the lower address), while a load
// reassembles the two words in VA order with no reciprocal swap. The
// asymmetry is kept as is; a store followed by a load of the same address
// yields the value with its halves swapped.
func assembleTwoWord(hi, lo uint32) uint64 {
	return uint64(hi)<<32 | uint64(lo)
}

func splitTwoWord(v uint64) (hiWord, loWord uint32) {
	return uint32(v), uint32(v >> 32)
}

func putWord(b []byte, w uint32) {
	b[0] = byte(w >> 24)
	b[1] = byte(w >> 16)
	b[2] = byte(w >> 8)
	b[3] = byte(w)
}
