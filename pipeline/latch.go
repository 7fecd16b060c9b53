// Package pipeline implements the five-stage in-order pipeline core: the
// inter-stage latches, the stage functions, and the fast/slow/busy drivers
// that advance them one master clock tick at a time.
package pipeline

import (
	"github.com/n64cpu/vr4300/isa"
	"github.com/n64cpu/vr4300/mmu"
)

// FaultKind enumerates the signaled-value fault taxonomy carried in a
// C-latch. None means the stage that produced the latch completed without
// raising anything.
type FaultKind uint8

const (
	FaultNone FaultKind = iota
	FaultInstructionAddressError
	FaultInstructionCacheBusy
	FaultLoadDelayInterlock
	FaultDataAddressError
	FaultDataCacheMiss
	FaultDataCacheBusy
	FaultInterrupt
	FaultColdReset
	// FaultTLBRefill is raised when a TLB probe misses against a mapped
	// segment. The original behavior aborted the process on this path;
	// real VR4300 hardware instead vectors to the TLB-refill exception
	// handler, which is the behavior implemented here.
	FaultTLBRefill
)

// isStall reports whether a fault kind resolves by re-running the same
// instruction next tick (a stall) rather than by draining down to
// writeback for delivery (a true fault).
func (f FaultKind) isStall() bool {
	switch f {
	case FaultInstructionCacheBusy, FaultLoadDelayInterlock, FaultDataCacheBusy, FaultDataCacheMiss:
		return true
	default:
		return false
	}
}

// CLatch is the common header every inter-stage latch carries forward.
type CLatch struct {
	VPC   uint64
	Fault FaultKind
	// CauseData's high bit records whether this instruction occupies a
	// branch delay slot, consulted when composing the Cause register.
	CauseData uint32
}

const causeDataBranchDelay = 1 << 31

// InDelaySlot reports the branch-delay bit of CauseData.
func (c *CLatch) InDelaySlot() bool {
	return c.CauseData&causeDataBranchDelay != 0
}

// SetDelaySlot sets or clears the branch-delay bit.
func (c *CLatch) SetDelaySlot(v bool) {
	if v {
		c.CauseData |= causeDataBranchDelay
	} else {
		c.CauseData &^= causeDataBranchDelay
	}
}

// ICRFLatch carries the fetch address and cached segment handle from IC to
// RF.
type ICRFLatch struct {
	CLatch
	Segment      mmu.Segment
	SegmentValid bool
}

// RFEXLatch carries the decoded instruction from RF to EX.
type RFEXLatch struct {
	CLatch

	IW   uint32
	Mask uint32 // applied to IW before decode; zeroed to force a no-op on abort

	Op isa.Instruction // decoded opcode record
}

// destReg returns the architectural register index op writes, or 0 (the
// zero register, a harmless bubble target) if it writes nothing.
func destReg(op *isa.Instruction) uint8 {
	switch {
	case op.WritesViaRt:
		return op.Rt
	case op.WritesViaRd:
		return op.Rd
	default:
		return 0
	}
}

// ReqType enumerates the EX/DC latch's bus request kind.
type ReqType uint8

const (
	ReqNone ReqType = iota
	ReqRead
	ReqWrite
)

// BusRequest is the EX/DC latch's memory-access record, populated by the
// opcode dispatch handler for load/store instructions.
type BusRequest struct {
	Type ReqType

	VA, PA  uint64
	Size    int
	TwoWord bool // request spans two halves of a cache line (8-byte access)

	DQM       uint64 // write-enable mask for the low Size bytes of a partial-word store
	PostShift uint   // shift applied to StoreData before it is masked into the addressed word
	SignEx    bool   // sign- vs zero-extend a load narrower than a full word

	StoreData uint64
}

// EXDCLatch carries the execute stage's result and any pending memory
// access from EX to DC.
type EXDCLatch struct {
	CLatch

	Dest         uint8
	Result       uint64
	Segment      mmu.Segment
	SegmentValid bool

	Req BusRequest
}

// DCWBLatch carries the final result to WB.
type DCWBLatch struct {
	CLatch

	Dest   uint8
	Result uint64
}
