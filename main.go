// Package main provides a placeholder entry point for rv32sim.
// rv32sim is a cycle-level simulator for the base 32-bit RISC-V integer
// instruction set (RV32I).
//
// For the full CLI, use: go run ./cmd/rv32sim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("rv32sim - RV32I pipeline simulator")
	fmt.Println("")
	fmt.Println("Usage: rv32sim [options] <program.elf>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -i            Execution mode: P (pipelined) or S (single-cycle)")
	fmt.Println("  -max-cycles   Abort after this many cycles")
	fmt.Println("  -stats        Print execution statistics on exit")
	fmt.Println("  -history      Print retired pipeline registers after each tick")
	fmt.Println("  -v            Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/rv32sim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/rv32sim' instead.")
	}
}
