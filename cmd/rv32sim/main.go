// Package main provides the entry point for rv32sim.
// rv32sim is a cycle-level simulator for the base 32-bit RISC-V integer
// instruction set (RV32I).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/loader"
	"github.com/sarchlab/rv32sim/mmu"
	"github.com/sarchlab/rv32sim/timing/core"
	"github.com/sarchlab/rv32sim/timing/pipeline"
)

var (
	impl      = flag.String("i", "P", "Execution mode: P (pipelined) or S (single-cycle)")
	maxCycles = flag.Uint64("max-cycles", 0, "Abort after this many cycles (0 = no limit, pipelined mode only)")
	stats     = flag.Bool("stats", false, "Print execution statistics on exit")
	history   = flag.Bool("history", false, "Print retired pipeline registers after each tick (pipelined mode only)")
	verbose   = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: rv32sim [options] <program.elf>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	programPath := flag.Arg(0)

	prog, err := loader.Load(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Loaded: %s\n", programPath)
		fmt.Printf("Entry point: 0x%X\n", prog.EntryPoint)
		fmt.Printf("Segments: %d\n", len(prog.Segments))
	}

	var exitCode int32
	switch *impl {
	case "S":
		exitCode = runSingleCycle(prog, programPath)
	case "P":
		exitCode = runPipelined(prog, programPath)
	default:
		fmt.Fprintf(os.Stderr, "Unknown execution mode %q (expected P or S)\n", *impl)
		os.Exit(1)
	}

	os.Exit(int(exitCode))
}

func loadMemory(prog *loader.Program) *mmu.Memory {
	memory := mmu.NewMemory()
	for _, seg := range prog.Segments {
		memory.WriteBytes(seg.VirtAddr, seg.Data)
	}
	return memory
}

// runSingleCycle runs the program through the single-cycle reference
// emulator, useful as a quick functional check independent of pipeline
// timing.
func runSingleCycle(prog *loader.Program, programPath string) int32 {
	memory := loadMemory(prog)

	emulator := emu.NewEmulator(memory, emu.WithStackPointer(prog.InitialSP))
	emulator.SetSyscallHandler(emu.NewDefaultSyscallHandler(
		emulator.RegFile(), memory, os.Stdout, os.Stderr, nil))
	emulator.SetPC(prog.EntryPoint)

	exitCode, err := emulator.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Execution error: %v\n", err)
		return 1
	}

	if *verbose {
		fmt.Printf("\nProgram: %s\n", programPath)
		fmt.Printf("Exit code: %d\n", exitCode)
		fmt.Printf("Instructions executed: %d\n", emulator.InstructionCount())
	}

	return exitCode
}

// runPipelined runs the program through the 5-stage timing pipeline,
// printing statistics and per-cycle pipeline register history if
// requested.
func runPipelined(prog *loader.Program, programPath string) int32 {
	memory := loadMemory(prog)
	regFile := emu.NewRegFile()
	regFile.WriteReg(2, prog.InitialSP)

	syscallHandler := emu.NewDefaultSyscallHandler(regFile, memory, os.Stdout, os.Stderr, nil)
	c := core.NewCore(regFile, memory, pipeline.WithSyscallHandler(syscallHandler))
	c.SetPC(prog.EntryPoint)

	var exitCode int32
	var ranOut bool

	if *maxCycles > 0 {
		for i := uint64(0); i < *maxCycles && !c.Halted(); i++ {
			c.Tick()
			if *history {
				printHistory(c)
			}
		}
		ranOut = !c.Halted()
	} else {
		for !c.Halted() {
			c.Tick()
			if *history {
				printHistory(c)
			}
		}
	}

	if ranOut {
		fmt.Fprintf(os.Stderr, "Cycle limit of %d reached without halting\n", *maxCycles)
		exitCode = 1
	} else {
		exitCode = c.ExitCode()
	}

	if *verbose {
		fmt.Printf("\nProgram: %s\n", programPath)
		fmt.Printf("Exit code: %d\n", exitCode)
	}

	if *stats {
		printStats(c)
	}

	return exitCode
}

// printHistory prints one line per cycle: the cycle number and the
// currently retired MEM/WB pipeline register, or "bubble" when that
// latch holds no instruction, giving a cycle-by-cycle trace of
// committed instructions.
func printHistory(c *core.Core) {
	cycle := c.Stats().Cycles
	memwb := c.Pipeline.GetMEMWB()
	if !memwb.Valid {
		fmt.Printf("cycle=%d bubble\n", cycle)
		return
	}
	fmt.Printf("cycle=%d pc=0x%08x rd=x%d alu=0x%08x mem=0x%08x regwrite=%v\n",
		cycle, memwb.PC, memwb.Rd, memwb.ALUResult, memwb.MemData, memwb.RegWrite)
}

// printStats prints the pipeline's performance counters.
func printStats(c *core.Core) {
	s := c.Stats()
	bp := c.BranchPredictorStats()

	fmt.Printf("\n")
	fmt.Printf("Cycles:       %d\n", s.Cycles)
	fmt.Printf("Instructions: %d\n", s.Instructions)
	fmt.Printf("CPI:          %.2f\n", s.CPI)
	fmt.Printf("Stalls:       %d\n", s.Stalls)
	fmt.Printf("Flushes:      %d\n", s.Flushes)
	fmt.Printf("\n")
	fmt.Printf("Branch predictions:   %d\n", bp.Predictions)
	fmt.Printf("Branch mispredictions: %d (%.1f%%)\n", bp.Mispredictions, bp.MispredictionRate())
}
