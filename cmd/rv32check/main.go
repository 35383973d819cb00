// Package main provides rv32check, a properties checker that runs an
// RV32I program under both the 5-stage timing pipeline and the
// single-cycle reference emulator and fails loudly if their final
// architectural state diverges.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/loader"
	"github.com/sarchlab/rv32sim/mmu"
	"github.com/sarchlab/rv32sim/timing/core"
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: rv32check <program.elf>\n")
		os.Exit(1)
	}

	programPath := flag.Arg(0)

	prog, err := loader.Load(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	pipeExit, pipeRegs := runPipelined(prog)
	oracleExit, oracleRegs := runOracle(prog)

	ok := true

	if pipeExit != oracleExit {
		fmt.Printf("MISMATCH: exit code pipeline=%d oracle=%d\n", pipeExit, oracleExit)
		ok = false
	}

	for reg := uint8(0); reg < 32; reg++ {
		if pipeRegs[reg] != oracleRegs[reg] {
			fmt.Printf("MISMATCH: x%d pipeline=0x%08x oracle=0x%08x\n", reg, pipeRegs[reg], oracleRegs[reg])
			ok = false
		}
	}

	if !ok {
		fmt.Println("FAIL: pipelined and single-cycle execution diverged")
		os.Exit(1)
	}

	fmt.Println("PASS: pipelined and single-cycle execution agree")
}

func loadMemory(prog *loader.Program) *mmu.Memory {
	memory := mmu.NewMemory()
	for _, seg := range prog.Segments {
		memory.WriteBytes(seg.VirtAddr, seg.Data)
	}
	return memory
}

func runPipelined(prog *loader.Program) (int32, [32]uint32) {
	memory := loadMemory(prog)
	regFile := emu.NewRegFile()
	regFile.WriteReg(2, prog.InitialSP)

	c := core.NewCore(regFile, memory)
	c.SetPC(prog.EntryPoint)
	exitCode := c.Run()

	return exitCode, regFile.Snapshot()
}

func runOracle(prog *loader.Program) (int32, [32]uint32) {
	memory := loadMemory(prog)

	emulator := emu.NewEmulator(memory, emu.WithStackPointer(prog.InitialSP))
	emulator.SetSyscallHandler(emu.NewDefaultSyscallHandler(
		emulator.RegFile(), memory, nil, nil, nil))
	emulator.SetPC(prog.EntryPoint)

	exitCode, err := emulator.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Oracle execution error: %v\n", err)
		os.Exit(1)
	}

	return exitCode, emulator.RegFile().Snapshot()
}
