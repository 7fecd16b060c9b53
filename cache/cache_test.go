package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/n64cpu/vr4300/bus"
	"github.com/n64cpu/vr4300/cache"
)

var _ = Describe("Cache", func() {
	var (
		mem *bus.Memory
		c   *cache.Cache
	)

	BeforeEach(func() {
		mem = bus.New(64 * 1024)
		c = cache.New(cache.DefaultDCacheConfig(), mem)
	})

	It("reports a miss and fills on the first probe, then hits on the next", func() {
		mem.Write32(0x100, 0xDEADBEEF)

		line, hit := c.Probe(0x100)
		Expect(hit).To(BeFalse())
		Expect(line).To(BeNil())

		line, hit = c.Probe(0x100)
		Expect(hit).To(BeTrue())
		Expect(line).NotTo(BeNil())

		off := c.LineOffset(0x100)
		got := uint32(line.Data[off])<<24 | uint32(line.Data[off+1])<<16 |
			uint32(line.Data[off+2])<<8 | uint32(line.Data[off+3])
		Expect(got).To(Equal(uint32(0xDEADBEEF)))
	})

	It("writes back a dirty victim before reusing its slot", func() {
		cfg := cache.Config{Size: 64, Associativity: 1, LineSize: 32}
		small := cache.New(cfg, mem)

		_, hit := small.Probe(0x0)
		Expect(hit).To(BeFalse())
		line, hit := small.Probe(0x0)
		Expect(hit).To(BeTrue())
		line.Data[0] = 0x7F
		line.MarkDirty()

		// 0x1000 maps to the same set as 0x0 (both line numbers are even,
		// with two sets), so its fill evicts the dirty line.
		small.Probe(0x1000)
		small.Probe(0x1000)

		Expect(mem.Read8(0x0)).To(Equal(byte(0x7F)))
		Expect(small.Stats().Writebacks).To(Equal(uint64(1)))
	})

	It("tracks probe/hit/miss counters", func() {
		c.Probe(0x200)
		c.Probe(0x200)
		c.Probe(0x200)

		stats := c.Stats()
		Expect(stats.Probes).To(Equal(uint64(3)))
		Expect(stats.Misses).To(Equal(uint64(1)))
		Expect(stats.Hits).To(Equal(uint64(2)))
	})

	It("invalidates a resident line without writeback", func() {
		c.Probe(0x300)
		c.Probe(0x300)
		c.Invalidate(0x300)

		_, hit := c.Probe(0x300)
		Expect(hit).To(BeFalse())
	})
})
