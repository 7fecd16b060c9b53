package pipeline

import "github.com/n64cpu/vr4300/cp0"

// stageWB commits the pipeline's result: a clean DC/WB latch writes its
// result back to the register file, while a faulted one is handed to CP0 for
// vectoring instead. Vectoring kills every younger instruction still in
// flight: the RF/EX and EX/DC latches become bubbles and fetch restarts at
// the vector.
func (p *Pipeline) stageWB() bool {
	if p.dcwb.Fault == FaultNone {
		p.Regs.Write(p.dcwb.Dest, p.dcwb.Result)
		p.stats.Instructions++
		return false
	}

	var vector uint64
	if p.dcwb.Fault == FaultColdReset {
		vector = p.CP0.EnterReset()
	} else {
		vector = p.CP0.EnterException(excCodeFor(p.dcwb.Fault), p.dcwb.VPC, p.dcwb.InDelaySlot())
	}

	p.rfex = RFEXLatch{Mask: 0xFFFFFFFF}
	p.exdc = EXDCLatch{Segment: p.Segs.Default()}
	p.icPending, p.dcPending, p.lastWasBranch = false, false, false
	p.resetFetch(vector)
	return true
}

// excCodeFor maps a true-fault kind to the CP0 exception code WB vectors on.
// The pipeline does not thread the faulting access's read/write direction
// through to WB, so both address-error and both TLB-refill variants collapse
// to their load-side code; a store-side fault vectors identically to a
// load-side one short of the ExcCode field itself.
func excCodeFor(f FaultKind) cp0.ExcCode {
	switch f {
	case FaultInstructionAddressError, FaultDataAddressError:
		return cp0.ExcAdEL
	case FaultTLBRefill:
		return cp0.ExcTLBL
	case FaultInterrupt:
		return cp0.ExcInt
	default:
		return cp0.ExcRI
	}
}
