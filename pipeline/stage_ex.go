package pipeline

import "github.com/n64cpu/vr4300/dispatch"

// stageEX resolves operands (with load-use interlock detection and
// same-tick forwarding from the DC/WB latch), then invokes the opcode
// dispatch handler to populate the EX/DC latch.
func (p *Pipeline) stageEX() bool {
	if p.rfex.Fault != FaultNone {
		p.exdc.CLatch = p.rfex.CLatch
		p.exdc.Dest, p.exdc.Result, p.exdc.Req = 0, 0, BusRequest{}
		return true
	}

	op := &p.rfex.Op

	// Load-use interlock: the instruction that finished DC this very tick
	// (still sitting, pre-overwrite, in the EX/DC latch) is a load whose
	// destination this instruction needs.
	if p.exdc.Req.Type == ReqRead && p.exdc.Dest != 0 &&
		((op.ReadsRs && op.Rs == p.exdc.Dest) || (op.ReadsRt && op.Rt == p.exdc.Dest)) {
		p.raiseStall()
		// The load already completed DC this tick; leave a bubble behind it
		// so the retry neither runs the load through DC again nor interlocks
		// on it a second time.
		p.exdc.Dest, p.exdc.Result, p.exdc.Req = 0, 0, BusRequest{}
		return true
	}

	rsVal := p.readOperand(op.Rs)
	rtVal := p.readOperand(op.Rt)

	ctx := dispatch.Context{Inst: op, RsVal: rsVal, RtVal: rtVal, PC: p.rfex.VPC}
	if op.IsCP0 {
		ctx.CP0Value = p.CP0.ReadReg(op.Rd)
	}

	handler := p.dispatch.Lookup(op.Op)
	var result dispatch.Result
	if handler != nil {
		result = handler(ctx)
	}

	if result.WritesCP0 {
		p.CP0.WriteReg(result.CP0Reg, result.CP0Value)
	}

	if result.Branch {
		p.pc = result.Target
		if op.IsBranch && result.Target == p.rfex.VPC {
			// A branch that targets its own address is the tight
			// idle-loop idiom the busy-wait shortcut recognizes.
			p.State = StateBusyWait
		}
	}

	p.exdc.CLatch = p.rfex.CLatch
	p.exdc.Dest = result.Dest
	p.exdc.Result = result.Value

	if result.Req.Type != dispatch.ReqNone {
		seg, ok := p.Segs.Lookup(result.Req.VA, p.CP0.Status)
		p.exdc.Segment, p.exdc.SegmentValid = seg, ok
	} else {
		p.exdc.SegmentValid = false
	}

	p.exdc.Req = BusRequest{
		Type:      ReqType(result.Req.Type),
		VA:        result.Req.VA,
		Size:      result.Req.Size,
		TwoWord:   result.Req.TwoWord,
		DQM:       result.Req.DQM,
		PostShift: result.Req.PostShift,
		SignEx:    result.Req.SignEx,
		StoreData: result.Req.StoreData,
	}

	return false
}

// readOperand reads an architectural register, forwarding from the DC/WB
// latch when it was just produced (this same tick, by DC) for the same
// destination, ahead of writeback.
func (p *Pipeline) readOperand(reg uint8) uint64 {
	if reg != 0 && reg == p.dcwb.Dest {
		return p.dcwb.Result
	}
	return p.Regs.Read(reg)
}
