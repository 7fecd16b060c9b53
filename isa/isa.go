// Package isa provides MIPS III instruction definitions and decoding, the
// opaque instruction-decode collaborator spec.md §6 names as a dependency
// of the RF stage.
//
// Usage:
//
//	decoder := isa.NewDecoder()
//	inst := decoder.Decode(0x24090001) // ADDIU t1, zero, 1
//	fmt.Printf("Op: %v, Rt: %d, Imm: %d\n", inst.Op, inst.Rt, inst.Imm)
package isa

// Op represents a decoded MIPS III opcode.
type Op uint16

// Supported opcodes.
const (
	OpUnknown Op = iota
	OpNOP
	OpLUI
	OpORI
	OpANDI
	OpXORI
	OpADDIU
	OpSLTI
	OpSLTIU
	OpADD
	OpADDU
	OpSUB
	OpSUBU
	OpAND
	OpOR
	OpXOR
	OpNOR
	OpSLT
	OpSLTU
	OpSLL
	OpSRL
	OpSRA
	OpLB
	OpLBU
	OpLH
	OpLHU
	OpLW
	OpLD
	OpSB
	OpSH
	OpSW
	OpSD
	OpBEQ
	OpBNE
	OpBLEZ
	OpBGTZ
	OpJ
	OpJAL
	OpJR
	OpJALR
	OpMTC0
	OpMFC0
)

// Format represents the instruction's operand encoding shape.
type Format uint8

// Instruction formats, per the MIPS III instruction set architecture.
const (
	FormatUnknown Format = iota
	FormatI               // rs, rt, imm16
	FormatR               // rs, rt, rd, shamt, funct
	FormatJ               // 26-bit jump target
)

// Instruction is a decoded MIPS III instruction together with the flag
// bits spec.md §3 requires the RF/EX latch to carry: which operand fields
// are live, whether it is a branch, and whether its destination comes via
// Rt or Rd.
type Instruction struct {
	Op     Op
	Format Format

	Rs, Rt, Rd uint8
	Shamt      uint8
	Imm        uint16 // raw 16-bit immediate field, sign-extend at use site
	Target     uint32 // 26-bit jump target field

	ReadsRs     bool
	ReadsRt     bool
	IsBranch    bool
	IsCP0       bool
	WritesViaRt bool
	WritesViaRd bool
}

// SignExtImm sign-extends the instruction's 16-bit immediate field to 64
// bits, the form every I-type ALU and memory opcode consumes.
func (i *Instruction) SignExtImm() uint64 {
	return uint64(int64(int16(i.Imm)))
}

// Decoder decodes MIPS III machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new MIPS III instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit big-endian-loaded MIPS III instruction word.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{Op: OpUnknown, Format: FormatUnknown}

	opcode := (word >> 26) & 0x3F

	switch opcode {
	case 0x00:
		d.decodeSpecial(word, inst)
	case 0x02, 0x03:
		d.decodeJump(word, inst, opcode == 0x03)
	case 0x04, 0x05, 0x06, 0x07:
		d.decodeBranch(word, inst, opcode)
	case 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F:
		d.decodeImmALU(word, inst, opcode)
	case 0x10:
		d.decodeCOP0(word, inst)
	case 0x20, 0x21, 0x23, 0x24, 0x25, 0x27, 0x37:
		d.decodeLoad(word, inst, opcode)
	case 0x28, 0x29, 0x2B, 0x3F:
		d.decodeStore(word, inst, opcode)
	}

	return inst
}

func rFields(word uint32) (rs, rt, rd, shamt uint8) {
	rs = uint8((word >> 21) & 0x1F)
	rt = uint8((word >> 16) & 0x1F)
	rd = uint8((word >> 11) & 0x1F)
	shamt = uint8((word >> 6) & 0x1F)
	return
}

func iFields(word uint32) (rs, rt uint8, imm uint16) {
	rs = uint8((word >> 21) & 0x1F)
	rt = uint8((word >> 16) & 0x1F)
	imm = uint16(word & 0xFFFF)
	return
}

// decodeSpecial handles the R-type SPECIAL opcode (primary opcode 0x00),
// dispatched on the 6-bit funct field.
func (d *Decoder) decodeSpecial(word uint32, inst *Instruction) {
	inst.Format = FormatR
	rs, rt, rd, shamt := rFields(word)
	inst.Rs, inst.Rt, inst.Rd, inst.Shamt = rs, rt, rd, shamt

	funct := word & 0x3F
	switch funct {
	case 0x00:
		if word == 0 {
			inst.Op = OpNOP
			return
		}
		inst.Op = OpSLL
		inst.ReadsRt = true
		inst.WritesViaRd = true
	case 0x02:
		inst.Op = OpSRL
		inst.ReadsRt = true
		inst.WritesViaRd = true
	case 0x03:
		inst.Op = OpSRA
		inst.ReadsRt = true
		inst.WritesViaRd = true
	case 0x08:
		inst.Op = OpJR
		inst.ReadsRs = true
		inst.IsBranch = true
	case 0x09:
		inst.Op = OpJALR
		inst.ReadsRs = true
		inst.IsBranch = true
		inst.WritesViaRd = true
	case 0x20:
		inst.Op = OpADD
		inst.ReadsRs, inst.ReadsRt, inst.WritesViaRd = true, true, true
	case 0x21:
		inst.Op = OpADDU
		inst.ReadsRs, inst.ReadsRt, inst.WritesViaRd = true, true, true
	case 0x22:
		inst.Op = OpSUB
		inst.ReadsRs, inst.ReadsRt, inst.WritesViaRd = true, true, true
	case 0x23:
		inst.Op = OpSUBU
		inst.ReadsRs, inst.ReadsRt, inst.WritesViaRd = true, true, true
	case 0x24:
		inst.Op = OpAND
		inst.ReadsRs, inst.ReadsRt, inst.WritesViaRd = true, true, true
	case 0x25:
		inst.Op = OpOR
		inst.ReadsRs, inst.ReadsRt, inst.WritesViaRd = true, true, true
	case 0x26:
		inst.Op = OpXOR
		inst.ReadsRs, inst.ReadsRt, inst.WritesViaRd = true, true, true
	case 0x27:
		inst.Op = OpNOR
		inst.ReadsRs, inst.ReadsRt, inst.WritesViaRd = true, true, true
	case 0x2A:
		inst.Op = OpSLT
		inst.ReadsRs, inst.ReadsRt, inst.WritesViaRd = true, true, true
	case 0x2B:
		inst.Op = OpSLTU
		inst.ReadsRs, inst.ReadsRt, inst.WritesViaRd = true, true, true
	}
}

func (d *Decoder) decodeJump(word uint32, inst *Instruction, link bool) {
	inst.Format = FormatJ
	inst.Target = word & 0x3FFFFFF
	inst.IsBranch = true
	if link {
		inst.Op = OpJAL
		inst.Rd = 31
		inst.WritesViaRd = true
	} else {
		inst.Op = OpJ
	}
}

func (d *Decoder) decodeBranch(word uint32, inst *Instruction, opcode uint32) {
	inst.Format = FormatI
	rs, rt, imm := iFields(word)
	inst.Rs, inst.Rt, inst.Imm = rs, rt, imm
	inst.IsBranch = true
	inst.ReadsRs = true

	switch opcode {
	case 0x04:
		inst.Op = OpBEQ
		inst.ReadsRt = true
	case 0x05:
		inst.Op = OpBNE
		inst.ReadsRt = true
	case 0x06:
		inst.Op = OpBLEZ
	case 0x07:
		inst.Op = OpBGTZ
	}
}

func (d *Decoder) decodeImmALU(word uint32, inst *Instruction, opcode uint32) {
	inst.Format = FormatI
	rs, rt, imm := iFields(word)
	inst.Rs, inst.Rt, inst.Imm = rs, rt, imm
	inst.ReadsRs = true
	inst.WritesViaRt = true

	switch opcode {
	case 0x08:
		inst.Op = OpADDIU // ADDI aliased to ADDIU: no overflow trap modeled
	case 0x09:
		inst.Op = OpADDIU
	case 0x0A:
		inst.Op = OpSLTI
	case 0x0B:
		inst.Op = OpSLTIU
	case 0x0C:
		inst.Op = OpANDI
	case 0x0D:
		inst.Op = OpORI
	case 0x0E:
		inst.Op = OpXORI
	case 0x0F:
		inst.Op = OpLUI
		inst.ReadsRs = false
	}
}

func (d *Decoder) decodeCOP0(word uint32, inst *Instruction) {
	inst.Format = FormatR
	rs, rt, rd, _ := rFields(word)
	inst.Rs, inst.Rt, inst.Rd = rs, rt, rd
	inst.IsCP0 = true

	switch rs {
	case 0x00: // MFC0
		inst.Op = OpMFC0
		inst.WritesViaRt = true
	case 0x04: // MTC0
		inst.Op = OpMTC0
		inst.ReadsRt = true
	}
}

func (d *Decoder) decodeLoad(word uint32, inst *Instruction, opcode uint32) {
	inst.Format = FormatI
	rs, rt, imm := iFields(word)
	inst.Rs, inst.Rt, inst.Imm = rs, rt, imm
	inst.ReadsRs = true
	inst.WritesViaRt = true

	switch opcode {
	case 0x20:
		inst.Op = OpLB
	case 0x21:
		inst.Op = OpLH
	case 0x23:
		inst.Op = OpLW
	case 0x24:
		inst.Op = OpLBU
	case 0x25:
		inst.Op = OpLHU
	case 0x27:
		inst.Op = OpLW // LWU treated as LW: no distinct sign behavior in this core
	case 0x37:
		inst.Op = OpLD
	}
}

func (d *Decoder) decodeStore(word uint32, inst *Instruction, opcode uint32) {
	inst.Format = FormatI
	rs, rt, imm := iFields(word)
	inst.Rs, inst.Rt, inst.Imm = rs, rt, imm
	inst.ReadsRs = true
	inst.ReadsRt = true

	switch opcode {
	case 0x28:
		inst.Op = OpSB
	case 0x29:
		inst.Op = OpSH
	case 0x2B:
		inst.Op = OpSW
	case 0x3F:
		inst.Op = OpSD
	}
}
