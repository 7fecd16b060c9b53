package pipeline

// Tick advances the pipeline by one master clock. It is the single entry
// point every other package drives the core through.
func (p *Pipeline) Tick() {
	p.stats.Cycles++
	p.CP0.TickCount()

	if p.CyclesToStall > 0 {
		p.CyclesToStall--
		return
	}

	if p.State == StateBusyWait {
		p.tickBusyWait()
		return
	}

	if p.FaultPresent {
		p.tickSlow()
		return
	}

	p.tickFast()
}

// tickFast runs all five stages in their natural back-to-front data order
// (WB, DC, EX, RF, IC), so that a stage consuming a latch always runs after
// the stage that just produced the fresher one this same tick. A stage that
// reports an abort — either a one-tick stall or the first tick of a true
// fault — stops the chain: every stage still to be called this tick sits
// earlier in the pipeline than the one that aborted, so leaving it uncalled
// is exactly the freeze a clean retry (or a draining fault) needs.
func (p *Pipeline) tickFast() {
	if p.stageWB() {
		return
	}
	if p.stageDC() {
		return
	}
	if p.stageEX() {
		return
	}
	if p.stageRF() {
		return
	}
	p.stageIC()
}

// tickSlow drains a latched fault by running every stage each tick, exactly
// as tickFast does in data order (WB, DC, EX, RF, IC), except that a fault
// already sitting in a stage's upstream latch no longer aborts the chain:
// the stage squashes instead (copies the fault's header forward and clears
// its own payload — killing whatever younger instruction was riding it) and
// the cascade always continues past a squash. A stage whose upstream is
// clean still runs its real work and, if that real call aborts — a fresh
// stall or a newly discovered fault — stops the chain exactly as it would
// in tickFast, since every stage still to be called this tick sits earlier
// in the pipeline than the one that just aborted. WB is the one exception:
// its own abort (delivering a fault or cold reset) never stops the chain,
// since the whole point of draining is for the older, already in-flight
// instructions downstream of WB to keep completing while a fault works its
// way down to it. Draining runs until pipelineDepth+1 writeback ticks have
// passed since the fault (or the most recent compounding one raised during
// the drain) was latched, long enough for every latch alive at that moment
// to have squashed or retired.
func (p *Pipeline) tickSlow() {
	p.stageWB()

	p.ExceptionHistory++
	if p.ExceptionHistory > pipelineDepth {
		p.FaultPresent = false
		p.ExceptionHistory = 0
		p.State = StateFast
	}

	if p.exdc.Fault != FaultNone {
		p.stageDC()
	} else if p.stageDC() {
		return
	}

	if p.rfex.Fault != FaultNone {
		p.stageEX()
	} else if p.stageEX() {
		return
	}

	if p.icrf.Fault != FaultNone {
		p.stageRF()
	} else if p.stageRF() {
		return
	}

	p.stageIC()
}

// tickBusyWait holds the pipeline in its self-branch idle loop: every latch
// stays exactly as EX left it, and the only thing checked each tick is
// whether an interrupt has arrived to break the loop.
func (p *Pipeline) tickBusyWait() {
	if !p.CP0.InterruptPending() {
		return
	}
	p.raiseFault(StageEX, &p.exdc.CLatch, FaultInterrupt)
}
