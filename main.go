// Package main provides a banner entry point for vr4300sim, a cycle-accurate
// simulator of the VR4300's five-stage in-order pipeline, built on Akita's
// cache component.
//
// For the full CLI, use: go run ./cmd/vr4300sim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("vr4300sim - VR4300 pipeline simulator")
	fmt.Println("")
	fmt.Println("Usage: vr4300sim [options] <image.bin>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -load-addr  physical address to load the image at")
	fmt.Println("  -mem-size   backing physical memory size in bytes")
	fmt.Println("  -cycles     cycle budget to run before stopping")
	fmt.Println("  -v          verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/vr4300sim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/vr4300sim' instead.")
	}
}
