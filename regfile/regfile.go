// Package regfile provides the VR4300 architectural register file: 32
// general-purpose registers and 32 coprocessor-1 (FPU) registers addressed
// through a single combined index space, as spec.md's data model requires.
package regfile

// NumGPR is the number of general-purpose registers.
const NumGPR = 32

// NumCP1 is the number of coprocessor-1 registers.
const NumCP1 = 32

// CP1Base is the index of the first coprocessor-1 register in the combined
// encoding; indices [0, NumGPR) address the GPRs, [CP1Base, CP1Base+NumCP1)
// address the CP1 file.
const CP1Base = NumGPR

// File is the dense combined GPR+CP1 register array. Index 0 is the
// architectural zero register: it always reads zero and ignores writes.
type File struct {
	regs [NumGPR + NumCP1]uint64
}

// Read returns the value at a combined register index. Reading index 0
// always yields zero, matching the hard-wired GPR zero register.
func (f *File) Read(index uint8) uint64 {
	if index == 0 {
		return 0
	}
	return f.regs[index]
}

// Write stores a value at a combined register index. Writes to index 0 are
// silently discarded, so zero reads as zero after every writeback.
func (f *File) Write(index uint8, value uint64) {
	if index == 0 {
		return
	}
	f.regs[index] = value
}

// CP1Index maps an FPU register number to its slot in the combined space,
// applying the even-register-pair rule: when the FR status bit is clear,
// the low bit of the register index is forced to zero so that odd-numbered
// CP1 registers alias their preceding even partner.
func CP1Index(fpr uint8, frBitSet bool) uint8 {
	if !frBitSet {
		fpr &^= 1
	}
	return CP1Base + fpr
}
