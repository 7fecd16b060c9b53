package pipeline

// raiseFault latches a true fault (one that must drain down to writeback
// for delivery) into c, and arms the slow-path drain starting at stage.
func (p *Pipeline) raiseFault(stage Stage, c *CLatch, kind FaultKind) {
	c.Fault = kind
	p.FaultPresent = true
	p.CycleType = stage
	p.ExceptionHistory = 0
	p.State = StateSlow
	p.stats.Faults++
}

// raiseStall arms a one-tick stall. Stalls never touch a latch's fault
// field: the stalling stage's upstream latch is left untouched so the next
// attempt re-runs from a clean slate.
func (p *Pipeline) raiseStall() {
	p.CyclesToStall = 1
	p.stats.Stalls++
}
