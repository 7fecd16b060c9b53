// Package main provides the entry point for vr4300sim, a cycle-accurate
// simulator of the VR4300's five-stage in-order pipeline.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/n64cpu/vr4300/bus"
	"github.com/n64cpu/vr4300/core"
	"github.com/n64cpu/vr4300/mmu"
)

var (
	loadAddr  = flag.Uint64("load-addr", 0, "physical address to load the image at")
	memSize   = flag.Int("mem-size", 8*1024*1024, "backing physical memory size in bytes")
	maxCycles = flag.Uint64("cycles", 100000, "cycle budget to run before stopping")
	verbose   = flag.Bool("v", false, "verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: vr4300sim [options] <image.bin>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	imagePath := flag.Arg(0)
	image, err := os.ReadFile(imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading image: %v\n", err)
		os.Exit(1)
	}

	mem := bus.New(*memSize)
	mem.LoadBytes(*loadAddr, image)

	c := core.New(mem)
	// Fetch through kseg1's uncached, unmapped alias of the load address,
	// rather than the real cold-reset vector: this core has no boot ROM,
	// so the loaded image itself is the first thing to run.
	c.SetPC(mmu.Kseg1Base + *loadAddr)

	if *verbose {
		fmt.Printf("Loaded: %s (%d bytes at physical 0x%X)\n", imagePath, len(image), *loadAddr)
		fmt.Printf("Entry PC: 0x%X\n", c.PC())
	}

	stats := c.Run(*maxCycles)

	fmt.Printf("\n")
	fmt.Printf("Cycles:       %d\n", stats.Cycles)
	fmt.Printf("Instructions: %d\n", stats.Instructions)
	fmt.Printf("Stalls:       %d\n", stats.Stalls)
	fmt.Printf("Faults:       %d\n", stats.Faults)
	if stats.Instructions > 0 {
		fmt.Printf("CPI:          %.2f\n", float64(stats.Cycles)/float64(stats.Instructions))
	}
}
