package pipeline

import (
	"github.com/n64cpu/vr4300/bus"
	"github.com/n64cpu/vr4300/cache"
	"github.com/n64cpu/vr4300/cp0"
	"github.com/n64cpu/vr4300/dispatch"
	"github.com/n64cpu/vr4300/isa"
	"github.com/n64cpu/vr4300/mmu"
	"github.com/n64cpu/vr4300/regfile"
)

// pipelineDepth is the number of stages; used for the exception-history
// re-engagement threshold (depth + 1 fault-free writeback ticks).
const pipelineDepth = 5

// Stage identifies one of the five pipeline stages. CycleType records which
// one most recently raised a fault, kept for diagnostics; the slow-path
// drain itself always walks the full WB-through-IC chain every tick rather
// than branching on where the fault started.
type Stage uint8

const (
	StageNone Stage = iota
	StageIC
	StageRF
	StageEX
	StageDC
	StageWB
)

// State is the pipeline's macro state: StateFast runs all five stages every
// tick and stops the chain on a stage's first abort, StateSlow instead lets
// a stage whose upstream already carries a fault squash and keep cascading
// regardless of abort, stopping the chain only when a stage with a clean
// upstream aborts on its own account, until the fault has fully drained.
// StateBusyWait holds the idle self-branch loop EX detects, and
// StateDataCacheBlock is reserved for a data-side multi-cycle block distinct
// from the single-tick stall CyclesToStall already models; nothing
// currently drives the pipeline into it.
type State uint8

const (
	StateFast State = iota
	StateSlow
	StateBusyWait
	StateDataCacheBlock
)

// Statistics tracks externally observable pipeline counters.
type Statistics struct {
	Cycles       uint64
	Instructions uint64
	Stalls       uint64
	Faults       uint64
}

// Pipeline is the cycle-accurate five-stage pipeline core.
type Pipeline struct {
	Regs *regfile.File
	CP0  *cp0.Block
	Segs *mmu.Table
	TLB  *mmu.TLB
	ICache *cache.Cache
	DCache *cache.Cache
	Mem    *bus.Memory

	decoder  *isa.Decoder
	dispatch *dispatch.Table

	icrf ICRFLatch
	rfex RFEXLatch
	exdc EXDCLatch
	dcwb DCWBLatch

	pc uint64

	CyclesToStall int
	FaultPresent  bool
	ExceptionHistory int
	CycleType     Stage
	State         State

	lastWasBranch bool // feeds the next IC/RF latch's delay-slot bit

	// icPending* bookkeeping resumes an instruction fetch that stalled on
	// a cache miss or an uncached segment, without re-running address
	// translation on the retry tick. This is pipeline-internal bookkeeping,
	// not part of the architectural latch state.
	icPending       bool
	icPendingPA     uint64
	icPendingCached bool

	// dcPending mirrors icPending for the data side.
	dcPending       bool
	dcPendingPA     uint64
	dcPendingCached bool

	stats Statistics
}

// Option configures a Pipeline at construction time.
type Option func(*Pipeline)

// WithMemory attaches the physical bus backing store.
func WithMemory(mem *bus.Memory) Option {
	return func(p *Pipeline) { p.Mem = mem }
}

// New creates a Pipeline with fresh architectural state. Caches use their
// package default geometry (no option changes it) and are backed by the
// same memory as the pipeline's uncached accesses.
func New(mem *bus.Memory, opts ...Option) *Pipeline {
	p := &Pipeline{
		Regs:     &regfile.File{},
		CP0:      cp0.New(),
		Segs:     mmu.NewTable(),
		TLB:      mmu.NewTLB(),
		Mem:      mem,
		decoder:  isa.NewDecoder(),
		dispatch: dispatch.New(),
	}
	for _, o := range opts {
		o(p)
	}

	p.ICache = cache.New(cache.DefaultICacheConfig(), p.Mem)
	p.DCache = cache.New(cache.DefaultDCacheConfig(), p.Mem)

	p.Init()
	return p
}

// Init resets all latches and seeds the IC and EX/DC latches with the
// default segment descriptor, per the pipeline_init(P) contract.
func (p *Pipeline) Init() {
	p.rfex = RFEXLatch{Mask: 0xFFFFFFFF}
	p.exdc = EXDCLatch{Segment: p.Segs.Default()}
	p.dcwb = DCWBLatch{}

	p.CyclesToStall = 0
	p.FaultPresent = false
	p.ExceptionHistory = 0
	p.CycleType = StageNone
	p.State = StateFast
	p.lastWasBranch = false
	p.stats = Statistics{}

	p.resetFetch(p.CP0.EnterReset())
}

// resetFetch seeds the IC/RF latch as though IC had already fetched the
// instruction at pc, with pc itself advanced one word past it — so the very
// next RF call decodes the instruction at pc while the very next IC call
// fetches the one after it, instead of both stages colliding on the same
// address on the first tick.
func (p *Pipeline) resetFetch(pc uint64) {
	seg, ok := p.Segs.Lookup(pc, p.CP0.Status)
	if !ok {
		seg = p.Segs.Default()
	}
	p.icrf = ICRFLatch{CLatch: CLatch{VPC: pc}, Segment: seg, SegmentValid: ok}
	p.pc = pc + 4
}

// Stats returns a snapshot of pipeline statistics.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// PC returns the current fetch program counter.
func (p *Pipeline) PC() uint64 {
	return p.pc
}

// SetPC overrides the fetch program counter, for host drivers that load a
// program directly rather than relying on the cold-reset vector.
func (p *Pipeline) SetPC(pc uint64) {
	p.resetFetch(pc)
}
