// Package core wraps the pipeline package behind the small surface a host
// driver needs: construct against a backing bus, tick it, and read back
// statistics.
package core

import (
	"github.com/n64cpu/vr4300/bus"
	"github.com/n64cpu/vr4300/pipeline"
)

// Core is a cycle-accurate VR4300 pipeline core bound to a physical memory.
type Core struct {
	Pipeline *pipeline.Pipeline
}

// New creates a Core backed by mem, with the pipeline already reset to its
// cold-start state.
func New(mem *bus.Memory) *Core {
	return &Core{Pipeline: pipeline.New(mem)}
}

// Tick advances the core by one master clock.
func (c *Core) Tick() {
	c.Pipeline.Tick()
}

// Run ticks the core until it reaches maxCycles, returning the statistics
// snapshot at that point. It never stops early: unlike the host emulator
// this core is distilled from, nothing here models process exit, so the
// caller supplies the cycle budget.
func (c *Core) Run(maxCycles uint64) pipeline.Statistics {
	for c.Pipeline.Stats().Cycles < maxCycles {
		c.Tick()
	}
	return c.Pipeline.Stats()
}

// Stats returns the current statistics snapshot.
func (c *Core) Stats() pipeline.Statistics {
	return c.Pipeline.Stats()
}

// PC returns the current fetch program counter.
func (c *Core) PC() uint64 {
	return c.Pipeline.PC()
}

// SetPC overrides the fetch program counter.
func (c *Core) SetPC(pc uint64) {
	c.Pipeline.SetPC(pc)
}
