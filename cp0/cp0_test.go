package cp0_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/n64cpu/vr4300/cp0"
)

var _ = Describe("Block", func() {
	var b *cp0.Block

	BeforeEach(func() {
		b = cp0.New()
	})

	It("powers on with EXL, ERL, and BEV set", func() {
		Expect(b.Status & cp0.StatusEXL).NotTo(BeZero())
		Expect(b.Status & cp0.StatusERL).NotTo(BeZero())
		Expect(b.Status & cp0.StatusBEV).NotTo(BeZero())
	})

	It("advances Count once every two ticks", func() {
		b.TickCount()
		Expect(b.Count).To(Equal(uint32(1)))
		b.TickCount()
		Expect(b.Count).To(Equal(uint32(1)))
		b.TickCount()
		Expect(b.Count).To(Equal(uint32(2)))
		b.TickCount()
		Expect(b.Count).To(Equal(uint32(2)))
	})

	It("sets the compare-interrupt pending bit the tick Count reaches Compare", func() {
		b.Compare = 2
		for i := 0; i < 4; i++ {
			b.TickCount()
		}
		Expect(b.Count).To(Equal(uint32(2)))
		Expect(b.Cause & (1 << 15)).NotTo(BeZero())
	})

	It("clears the compare-interrupt pending bit when Compare is rewritten", func() {
		b.Cause |= 1 << 15
		b.WriteReg(cp0.RegCompare, 100)
		Expect(b.Cause & (1 << 15)).To(BeZero())
	})

	Describe("InterruptPending", func() {
		BeforeEach(func() {
			b.Status = 0 // clear the power-on EXL/ERL for these cases
		})

		It("is false with no pending bits", func() {
			Expect(b.InterruptPending()).To(BeFalse())
		})

		It("is false when pending but masked off", func() {
			b.Cause |= 1 << 8
			Expect(b.InterruptPending()).To(BeFalse())
		})

		It("is false when masked-and-pending but IE is clear", func() {
			b.Cause |= 1 << 8
			b.Status |= 1 << 8
			Expect(b.InterruptPending()).To(BeFalse())
		})

		It("is true when masked, pending, and enabled", func() {
			b.Cause |= 1 << 8
			b.Status |= (1 << 8) | cp0.StatusIE
			Expect(b.InterruptPending()).To(BeTrue())
		})

		It("is blocked by EXL even when otherwise ready", func() {
			b.Cause |= 1 << 8
			b.Status |= (1 << 8) | cp0.StatusIE | cp0.StatusEXL
			Expect(b.InterruptPending()).To(BeFalse())
		})

		It("is blocked by ERL even when otherwise ready", func() {
			b.Cause |= 1 << 8
			b.Status |= (1 << 8) | cp0.StatusIE | cp0.StatusERL
			Expect(b.InterruptPending()).To(BeFalse())
		})
	})

	Describe("EnterException", func() {
		It("records EPC directly and clears BD outside a delay slot", func() {
			b.Status = 0
			pc := b.EnterException(cp0.ExcRI, 0x1000, false)
			Expect(b.EPC).To(Equal(uint64(0x1000)))
			Expect(b.Cause & cp0.CauseBD).To(BeZero())
			Expect(b.Status & cp0.StatusEXL).NotTo(BeZero())
			Expect(pc).To(Equal(uint64(0xFFFFFFFF80000180)))
		})

		It("biases EPC back one instruction and sets BD in a delay slot", func() {
			b.Status = 0
			b.EnterException(cp0.ExcRI, 0x1000, true)
			Expect(b.EPC).To(Equal(uint64(0x0FFC)))
			Expect(b.Cause & cp0.CauseBD).NotTo(BeZero())
		})

		It("vectors a first TLB refill to the dedicated refill vector", func() {
			b.Status = 0
			pc := b.EnterException(cp0.ExcTLBL, 0x1000, false)
			Expect(pc).To(Equal(uint64(0xFFFFFFFF80000000)))
		})

		It("vectors a TLB refill while already in EXL to the general vector", func() {
			b.Status = cp0.StatusEXL
			pc := b.EnterException(cp0.ExcTLBL, 0x1000, false)
			Expect(pc).To(Equal(uint64(0xFFFFFFFF80000180)))
		})

		It("uses the BEV vector set when BEV is set", func() {
			b.Status = cp0.StatusBEV
			pc := b.EnterException(cp0.ExcRI, 0x1000, false)
			Expect(pc).To(Equal(uint64(0xFFFFFFFFBFC00380)))
		})

		It("stamps the ExcCode field into Cause", func() {
			b.Status = 0
			b.EnterException(cp0.ExcAdEL, 0x1000, false)
			code := (b.Cause >> 2) & 0x1F
			Expect(code).To(Equal(uint32(cp0.ExcAdEL)))
		})
	})

	Describe("ReturnFromException", func() {
		It("clears ERL first when both ERL and EXL are set", func() {
			b.Status = cp0.StatusEXL | cp0.StatusERL
			b.ReturnFromException()
			Expect(b.Status & cp0.StatusERL).To(BeZero())
			Expect(b.Status & cp0.StatusEXL).NotTo(BeZero())
		})

		It("clears EXL once ERL is already clear", func() {
			b.Status = cp0.StatusEXL
			b.ReturnFromException()
			Expect(b.Status & cp0.StatusEXL).To(BeZero())
		})
	})

	It("reads and writes the register subset MFC0/MTC0 expose", func() {
		b.WriteReg(cp0.RegEntryHi, 0xAB)
		Expect(b.ReadReg(cp0.RegEntryHi)).To(Equal(uint32(0xAB)))
		Expect(b.ASID()).To(Equal(uint8(0xAB)))
	})

	It("only applies the IP field of a Cause write", func() {
		b.Cause = 0xFFFFFFFF
		b.WriteReg(cp0.RegCause, 0)
		Expect(b.Cause & cp0.CauseIP).To(BeZero())
		Expect(b.Cause &^ cp0.CauseIP).To(Equal(uint32(0xFFFFFFFF) &^ cp0.CauseIP))
	})
})
