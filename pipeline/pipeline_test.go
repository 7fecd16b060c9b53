package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/n64cpu/vr4300/bus"
	"github.com/n64cpu/vr4300/cp0"
	"github.com/n64cpu/vr4300/mmu"
	"github.com/n64cpu/vr4300/pipeline"
)

func iWord(op, rs, rt uint32, imm uint16) uint32 {
	return op<<26 | rs<<21 | rt<<16 | uint32(imm)
}

func rWord(op, rs, rt, rd, shamt, funct uint32) uint32 {
	return op<<26 | rs<<21 | rt<<16 | rd<<11 | shamt<<6 | funct
}

const (
	opLUI, opORI, opADDIU = 0xF, 0xD, 0x9
	opLW, opBEQ           = 0x23, 0x4
	opSW, opLB            = 0x2B, 0x20
	fnADD, fnJR           = 0x20, 0x08
)

// newTestPipeline builds a pipeline whose code runs from the cached kseg0
// window (so only the first fetch of a cache line stalls), starting at
// kseg0's base address.
func newTestPipeline(code []uint32) *pipeline.Pipeline {
	mem := bus.New(1 << 20)
	for i, w := range code {
		mem.Write32(uint64(i*4), w)
	}
	p := pipeline.New(mem)
	p.SetPC(mmu.Kseg0Base)
	return p
}

func runTicks(p *pipeline.Pipeline, n int) {
	for i := 0; i < n; i++ {
		p.Tick()
	}
}

var _ = Describe("Pipeline", func() {
	It("executes LUI/ORI to build a 32-bit immediate into a register", func() {
		code := []uint32{
			iWord(opLUI, 0, 1, 0x1234),
			iWord(opORI, 1, 1, 0x5678),
			0, 0, 0, 0, 0, 0,
		}
		p := newTestPipeline(code)
		runTicks(p, 30)

		Expect(p.Regs.Read(1)).To(Equal(uint64(0x12345678)))
		Expect(p.Regs.Read(0)).To(Equal(uint64(0)))
	})

	It("ignores writes to the zero register", func() {
		code := []uint32{
			iWord(opADDIU, 0, 0, 7), // ADDIU r0, r0, 7 -- destination is r0
			0, 0, 0, 0, 0,
		}
		p := newTestPipeline(code)
		runTicks(p, 20)

		Expect(p.Regs.Read(0)).To(Equal(uint64(0)))
	})

	It("resolves a load-use hazard via a one-tick interlock and forwarding", func() {
		dataVA := mmu.Kseg1Base + 0x2000 // uncached: no cache-fill stall on the data side
		code := []uint32{
			iWord(opLW, 1, 2, 0),           // LW r2, 0(r1)
			rWord(0, 2, 2, 3, 0, fnADD),    // ADD r3, r2, r2
			0, 0, 0, 0, 0, 0,
		}
		p := newTestPipeline(code)
		p.Regs.Write(1, dataVA)
		p.Mem.Write32(dataVA-mmu.Kseg1Base, 0x00000041)

		runTicks(p, 30)

		Expect(p.Regs.Read(2)).To(Equal(uint64(0x41)))
		Expect(p.Regs.Read(3)).To(Equal(uint64(0x82)))
		Expect(p.Stats().Stalls).To(BeNumerically(">=", 1))
	})

	It("executes a branch's delay slot but skips the instruction after it", func() {
		code := []uint32{
			iWord(opBEQ, 0, 0, 2),    // BEQ r0, r0, +2 (always taken; target = delay slot + 8)
			iWord(opADDIU, 0, 4, 1),  // ADDIU r4, r0, 1 -- delay slot, always runs
			iWord(opADDIU, 0, 5, 2),  // ADDIU r5, r0, 2 -- branch target skips this
			iWord(opADDIU, 0, 6, 3),  // ADDIU r6, r0, 3 -- branch lands here
			0, 0, 0, 0,
		}
		p := newTestPipeline(code)
		runTicks(p, 30)

		Expect(p.Regs.Read(4)).To(Equal(uint64(1)))
		Expect(p.Regs.Read(5)).To(Equal(uint64(0)))
		Expect(p.Regs.Read(6)).To(Equal(uint64(3)))
	})

	It("holds a self-branch busy-wait loop with frozen state until an interrupt arrives", func() {
		code := []uint32{
			iWord(opBEQ, 0, 0, 0xFFFF), // BEQ r0, r0, -1: branches to itself
			iWord(opADDIU, 0, 4, 1),    // delay slot
		}
		p := newTestPipeline(code)
		runTicks(p, 50)

		Expect(p.State).To(Equal(pipeline.StateBusyWait))
		before := p.Stats().Cycles
		regBefore := p.Regs.Read(4)

		runTicks(p, 1000)

		Expect(p.Stats().Cycles).To(Equal(before + 1000))
		Expect(p.Regs.Read(4)).To(Equal(regBefore))

		// Clear the reset-time EXL/ERL mode bits (nothing in this loop ever
		// executes an ERET to do it) and BEV (so the exception vector lands
		// inside the test's backing memory), then unmask and enable an
		// interrupt: the busy-wait loop must end.
		p.CP0.Status &^= cp0.StatusEXL | cp0.StatusERL | cp0.StatusBEV
		p.CP0.Status |= cp0.StatusIE | (1 << 8)
		p.CP0.Cause |= 1 << 8
		runTicks(p, 10)

		Expect(p.State).NotTo(Equal(pipeline.StateBusyWait))
	})

	It("round-trips a full word through a cached store and load", func() {
		dataVA := mmu.Kseg0Base + 0x100
		code := []uint32{
			iWord(opADDIU, 0, 2, 0x1234), // ADDIU r2, r0, 0x1234
			iWord(opSW, 1, 2, 0),         // SW r2, 0(r1)
			iWord(opLW, 1, 3, 0),         // LW r3, 0(r1)
			0, 0, 0, 0, 0,
		}
		p := newTestPipeline(code)
		p.Regs.Write(1, dataVA)

		runTicks(p, 40)

		Expect(p.Regs.Read(3)).To(Equal(uint64(0x1234)))
	})

	It("extracts every byte lane of a cached word regardless of its offset", func() {
		dataVA := mmu.Kseg0Base + 0x300
		code := []uint32{
			iWord(opLB, 1, 2, 0), // LB r2, 0(r1)
			iWord(opLB, 1, 3, 1), // LB r3, 1(r1)
			iWord(opLB, 1, 4, 2), // LB r4, 2(r1)
			iWord(opLB, 1, 5, 3), // LB r5, 3(r1)
			0, 0, 0, 0, 0,
		}
		p := newTestPipeline(code)
		p.Regs.Write(1, dataVA)
		p.Mem.Write32(dataVA-mmu.Kseg0Base, 0xAABBCCDD)

		runTicks(p, 40)

		Expect(p.Regs.Read(2)).To(Equal(uint64(0xFFFFFFFFFFFFFFAA)))
		Expect(p.Regs.Read(3)).To(Equal(uint64(0xFFFFFFFFFFFFFFBB)))
		Expect(p.Regs.Read(4)).To(Equal(uint64(0xFFFFFFFFFFFFFFCC)))
		Expect(p.Regs.Read(5)).To(Equal(uint64(0xFFFFFFFFFFFFFFDD)))
	})

	It("kills younger in-flight instructions while draining a fault, but lets the delay slot finish", func() {
		code := []uint32{
			rWord(0, 1, 0, 0, 0, fnJR),    // JR r1 -- jumps into the unmapped gap
			iWord(opADDIU, 0, 4, 0x11),    // delay slot: still architecturally committed
			iWord(opADDIU, 0, 5, 0x22),    // would-be branch target: must never run
			0, 0, 0, 0, 0,
		}
		p := newTestPipeline(code)
		// Route the exception vector to kseg0 (general vector at physical
		// 0x180, past this program's own code and so zero-filled) instead of
		// the default BEV vector, whose physical address lands outside the
		// test's backing memory.
		p.CP0.Status &^= cp0.StatusBEV
		p.Regs.Write(1, 0x80000000) // the unmapped gap between kuseg and kseg0

		runTicks(p, 40)

		Expect(p.Regs.Read(4)).To(Equal(uint64(0x11)))
		Expect(p.Regs.Read(5)).To(Equal(uint64(0)))
		Expect(p.Stats().Faults).To(BeNumerically(">=", 1))
		Expect(p.State).To(Equal(pipeline.StateFast))
	})
})
