// Package cache provides the instruction and data cache probes the IC and
// DC stages call into, per spec.md §3/§6. Both caches reuse Akita's
// set-associative directory component for tag and LRU-state management,
// the same component the pipeline's cache modeling leans on elsewhere.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/n64cpu/vr4300/bus"
)

// Config holds cache geometry parameters, per spec.md §3's cache line
// fields (size, associativity, line size).
type Config struct {
	Size          int
	Associativity int
	LineSize      int
}

// DefaultICacheConfig returns a 16KB 2-way set-associative instruction
// cache geometry (32-byte lines).
func DefaultICacheConfig() Config {
	return Config{Size: 16 * 1024, Associativity: 2, LineSize: 32}
}

// DefaultDCacheConfig returns an 8KB 2-way set-associative data cache
// geometry (32-byte lines).
func DefaultDCacheConfig() Config {
	return Config{Size: 8 * 1024, Associativity: 2, LineSize: 32}
}

// Line is the addressable view of one resident cache line: a raw byte
// buffer the DC stage's masked partial-word merge-write reads and modifies
// directly, plus the dirty bit spec.md §4.1 DC sets on every store hit.
type Line struct {
	Data  []byte
	Dirty bool

	block *akitacache.Block
}

// MarkDirty sets the line's dirty bit, mirroring it onto the backing
// directory block so a future eviction knows to write the line back.
func (l *Line) MarkDirty() {
	l.Dirty = true
	if l.block != nil {
		l.block.IsDirty = true
	}
}

// Cache is a set-associative cache probed by physical address.
type Cache struct {
	config    Config
	directory *akitacache.DirectoryImpl
	dataStore [][]byte
	backing   *bus.Memory

	stats Statistics
}

// Statistics holds probe counters.
type Statistics struct {
	Probes  uint64
	Hits    uint64
	Misses  uint64
	Fills   uint64
	Writebacks uint64
}

// New creates a cache of the given geometry backed by mem.
func New(config Config, mem *bus.Memory) *Cache {
	numSets := config.Size / (config.Associativity * config.LineSize)
	totalBlocks := numSets * config.Associativity

	dataStore := make([][]byte, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]byte, config.LineSize)
	}

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.LineSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		backing:   mem,
	}
}

func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

func (c *Cache) lineAddr(pa uint64) uint64 {
	return (pa / uint64(c.config.LineSize)) * uint64(c.config.LineSize)
}

// Probe looks up the line containing pa. On a hit it returns the resident
// line immediately. On a miss it fills the line from the backing store
// (writing back the evicted victim first if dirty) and reports the miss, so
// the caller's stall-then-retry-next-tick pattern resolves to a hit on the
// following probe, per spec.md §4.1's cache-miss-stalls-the-pipeline
// behavior.
func (c *Cache) Probe(pa uint64) (*Line, bool) {
	c.stats.Probes++
	lineAddr := c.lineAddr(pa)

	block := c.directory.Lookup(0, lineAddr)
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		return &Line{Data: c.dataStore[c.blockIndex(block)], Dirty: block.IsDirty, block: block}, true
	}

	c.stats.Misses++
	c.fill(lineAddr)
	return nil, false
}

func (c *Cache) fill(lineAddr uint64) {
	victim := c.directory.FindVictim(lineAddr)
	if victim == nil {
		return
	}

	victimData := c.dataStore[c.blockIndex(victim)]
	if victim.IsValid && victim.IsDirty {
		c.stats.Writebacks++
		c.backing.WriteBlock(victim.Tag, victimData)
	}

	copy(victimData, c.backing.ReadBlock(lineAddr, c.config.LineSize))
	victim.Tag = lineAddr
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)
	c.stats.Fills++
}

// Invalidate marks the line containing pa as not present, without
// writeback.
func (c *Cache) Invalidate(pa uint64) {
	block := c.directory.Lookup(0, c.lineAddr(pa))
	if block != nil {
		block.IsValid = false
		block.IsDirty = false
	}
}

// Stats returns probe statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// LineOffset returns pa's byte offset within its containing line.
func (c *Cache) LineOffset(pa uint64) int {
	return int(pa % uint64(c.config.LineSize))
}
