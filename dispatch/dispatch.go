// Package dispatch provides the per-opcode execute handlers: the opaque
// function_table[opcode_id] collaborator the EX stage invokes once it has
// resolved rs/rt operand values. Each handler observes a narrow view (the
// decoded instruction, its operand values, and the current PC) and returns
// a Result describing the EX/DC latch fields to populate — it never sees
// the pipeline object itself.
package dispatch

import "github.com/n64cpu/vr4300/isa"

// ReqType enumerates a handler's requested memory access.
type ReqType uint8

const (
	ReqNone ReqType = iota
	ReqRead
	ReqWrite
)

// Request describes a load or store a handler wants the DC stage to carry
// out.
type Request struct {
	Type      ReqType
	VA        uint64
	Size      int
	TwoWord   bool
	DQM       uint64
	PostShift uint
	SignEx    bool
	StoreData uint64
}

// Result is a handler's output: the value (and destination) to write back,
// plus an optional memory request and an optional CP0 register write.
type Result struct {
	Dest   uint8
	Value  uint64
	Req    Request
	Branch bool
	Target uint64

	WritesCP0 bool
	CP0Reg    uint8
	CP0Value  uint32

	ReadsCP0 bool
	CP0Read  uint8
}

// Context is the narrow view a handler is given: the instruction, its
// resolved operand values, and the PC of the instruction itself (for
// PC-relative branches and link-register computation).
type Context struct {
	Inst       *isa.Instruction
	RsVal      uint64
	RtVal      uint64
	PC         uint64
	CP0Value   uint32 // populated for MFC0, the register named by Inst.Rd
}

// Handler computes an instruction's result given its resolved operands.
type Handler func(ctx Context) Result

// Table maps opcodes to their handlers.
type Table struct {
	handlers [int(isa.OpMFC0) + 1]Handler
}

// New builds the dispatch table covering every opcode isa.Decoder
// produces.
func New() *Table {
	t := &Table{}
	t.handlers[isa.OpNOP] = nop
	t.handlers[isa.OpLUI] = lui
	t.handlers[isa.OpORI] = ori
	t.handlers[isa.OpANDI] = andi
	t.handlers[isa.OpXORI] = xori
	t.handlers[isa.OpADDIU] = addiu
	t.handlers[isa.OpSLTI] = slti
	t.handlers[isa.OpSLTIU] = sltiu
	t.handlers[isa.OpADD] = add
	t.handlers[isa.OpADDU] = add
	t.handlers[isa.OpSUB] = sub
	t.handlers[isa.OpSUBU] = sub
	t.handlers[isa.OpAND] = and
	t.handlers[isa.OpOR] = or
	t.handlers[isa.OpXOR] = xor
	t.handlers[isa.OpNOR] = nor
	t.handlers[isa.OpSLT] = slt
	t.handlers[isa.OpSLTU] = sltu
	t.handlers[isa.OpSLL] = sll
	t.handlers[isa.OpSRL] = srl
	t.handlers[isa.OpSRA] = sra
	t.handlers[isa.OpLB] = load(1, true)
	t.handlers[isa.OpLBU] = load(1, false)
	t.handlers[isa.OpLH] = load(2, true)
	t.handlers[isa.OpLHU] = load(2, false)
	t.handlers[isa.OpLW] = load(4, true)
	t.handlers[isa.OpLD] = load(8, false)
	t.handlers[isa.OpSB] = store(1)
	t.handlers[isa.OpSH] = store(2)
	t.handlers[isa.OpSW] = store(4)
	t.handlers[isa.OpSD] = store(8)
	t.handlers[isa.OpBEQ] = branch(func(rs, rt uint64) bool { return rs == rt })
	t.handlers[isa.OpBNE] = branch(func(rs, rt uint64) bool { return rs != rt })
	t.handlers[isa.OpBLEZ] = branch(func(rs, _ uint64) bool { return int64(rs) <= 0 })
	t.handlers[isa.OpBGTZ] = branch(func(rs, _ uint64) bool { return int64(rs) > 0 })
	t.handlers[isa.OpJ] = jump
	t.handlers[isa.OpJAL] = jal
	t.handlers[isa.OpJR] = jr
	t.handlers[isa.OpJALR] = jalr
	t.handlers[isa.OpMFC0] = mfc0
	t.handlers[isa.OpMTC0] = mtc0
	return t
}

// Lookup returns the handler for op, or nil if op has no handler (treated
// as a bubble: no register write, no memory request).
func (t *Table) Lookup(op isa.Op) Handler {
	if int(op) >= len(t.handlers) {
		return nil
	}
	return t.handlers[op]
}

func nop(ctx Context) Result { return Result{} }

func lui(ctx Context) Result {
	return Result{Dest: ctx.Inst.Rt, Value: ctx.Inst.SignExtImm() << 16}
}

func ori(ctx Context) Result {
	return Result{Dest: ctx.Inst.Rt, Value: ctx.RsVal | uint64(ctx.Inst.Imm)}
}

func andi(ctx Context) Result {
	return Result{Dest: ctx.Inst.Rt, Value: ctx.RsVal & uint64(ctx.Inst.Imm)}
}

func xori(ctx Context) Result {
	return Result{Dest: ctx.Inst.Rt, Value: ctx.RsVal ^ uint64(ctx.Inst.Imm)}
}

func addiu(ctx Context) Result {
	return Result{Dest: ctx.Inst.Rt, Value: ctx.RsVal + ctx.Inst.SignExtImm()}
}

func slti(ctx Context) Result {
	v := uint64(0)
	if int64(ctx.RsVal) < int64(ctx.Inst.SignExtImm()) {
		v = 1
	}
	return Result{Dest: ctx.Inst.Rt, Value: v}
}

func sltiu(ctx Context) Result {
	v := uint64(0)
	if ctx.RsVal < ctx.Inst.SignExtImm() {
		v = 1
	}
	return Result{Dest: ctx.Inst.Rt, Value: v}
}

func add(ctx Context) Result {
	return Result{Dest: ctx.Inst.Rd, Value: ctx.RsVal + ctx.RtVal}
}

func sub(ctx Context) Result {
	return Result{Dest: ctx.Inst.Rd, Value: ctx.RsVal - ctx.RtVal}
}

func and(ctx Context) Result { return Result{Dest: ctx.Inst.Rd, Value: ctx.RsVal & ctx.RtVal} }
func or(ctx Context) Result  { return Result{Dest: ctx.Inst.Rd, Value: ctx.RsVal | ctx.RtVal} }
func xor(ctx Context) Result { return Result{Dest: ctx.Inst.Rd, Value: ctx.RsVal ^ ctx.RtVal} }
func nor(ctx Context) Result { return Result{Dest: ctx.Inst.Rd, Value: ^(ctx.RsVal | ctx.RtVal)} }

func slt(ctx Context) Result {
	v := uint64(0)
	if int64(ctx.RsVal) < int64(ctx.RtVal) {
		v = 1
	}
	return Result{Dest: ctx.Inst.Rd, Value: v}
}

func sltu(ctx Context) Result {
	v := uint64(0)
	if ctx.RsVal < ctx.RtVal {
		v = 1
	}
	return Result{Dest: ctx.Inst.Rd, Value: v}
}

func sll(ctx Context) Result {
	return Result{Dest: ctx.Inst.Rd, Value: uint64(uint32(ctx.RtVal) << ctx.Inst.Shamt)}
}

func srl(ctx Context) Result {
	return Result{Dest: ctx.Inst.Rd, Value: uint64(uint32(ctx.RtVal) >> ctx.Inst.Shamt)}
}

func sra(ctx Context) Result {
	return Result{Dest: ctx.Inst.Rd, Value: uint64(int64(int32(ctx.RtVal)) >> ctx.Inst.Shamt)}
}

// load builds a handler for a size-byte load, optionally sign-extended.
func load(size int, signEx bool) Handler {
	return func(ctx Context) Result {
		va := ctx.RsVal + ctx.Inst.SignExtImm()
		return Result{
			Dest: ctx.Inst.Rt,
			Req: Request{
				Type:    ReqRead,
				VA:      va,
				Size:    size,
				TwoWord: size == 8,
				SignEx:  signEx,
			},
		}
	}
}

// store builds a handler for a size-byte store. DQM is the write-enable
// mask for the low size bytes of the addressed word: the lanes StoreData
// actually occupies, not their complement.
func store(size int) Handler {
	dqm := ^uint64(0)
	if size < 8 {
		dqm = uint64(1)<<(uint(size)*8) - 1
	}
	return func(ctx Context) Result {
		va := ctx.RsVal + ctx.Inst.SignExtImm()
		return Result{
			Req: Request{
				Type:      ReqWrite,
				VA:        va,
				Size:      size,
				TwoWord:   size == 8,
				DQM:       dqm,
				StoreData: ctx.RtVal,
			},
		}
	}
}

// branch builds a handler for a conditional PC-relative branch.
func branch(taken func(rs, rt uint64) bool) Handler {
	return func(ctx Context) Result {
		if !taken(ctx.RsVal, ctx.RtVal) {
			return Result{}
		}
		target := ctx.PC + 4 + ctx.Inst.SignExtImm()<<2
		return Result{Branch: true, Target: target}
	}
}

func jump(ctx Context) Result {
	target := (ctx.PC+4)&0xFFFFFFFFF0000000 | uint64(ctx.Inst.Target)<<2
	return Result{Branch: true, Target: target}
}

func jal(ctx Context) Result {
	r := jump(ctx)
	r.Dest = 31
	r.Value = ctx.PC + 8
	return r
}

func jr(ctx Context) Result {
	return Result{Branch: true, Target: ctx.RsVal}
}

func jalr(ctx Context) Result {
	return Result{Branch: true, Target: ctx.RsVal, Dest: ctx.Inst.Rd, Value: ctx.PC + 8}
}

func mfc0(ctx Context) Result {
	return Result{Dest: ctx.Inst.Rt, Value: uint64(ctx.CP0Value), ReadsCP0: true, CP0Read: ctx.Inst.Rd}
}

func mtc0(ctx Context) Result {
	return Result{WritesCP0: true, CP0Reg: ctx.Inst.Rd, CP0Value: uint32(ctx.RtVal)}
}
