package emu

import (
	"errors"
	"fmt"

	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/mmu"
)

// ErrDecode is returned when the instruction word at PC does not match
// any recognized RV32I encoding.
var ErrDecode = errors.New("emu: undecodable instruction")

// ErrInstructionLimit is returned when the emulator has executed
// MaxInstructions without the program halting on its own.
var ErrInstructionLimit = errors.New("emu: instruction limit exceeded")

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Exited is true if the program terminated (via the exit syscall).
	Exited bool

	// ExitCode is the exit status if Exited is true.
	ExitCode int32
}

// Emulator is the single-cycle reference implementation of the RV32I
// base integer ISA: every instruction is fetched, decoded, executed,
// accesses memory and writes back within a single Step call, using the
// exact same stage primitives (the decoder, ALUCompute, EvaluateBranch,
// LoadValue/StoreValue, the syscall handler) as the timing-accurate
// pipeline. It carries no pipeline latches, no hazard detection and no
// branch prediction; it exists to serve as an architectural oracle that
// the pipeline's committed register state and syscall-exit behavior can
// be checked against.
type Emulator struct {
	regFile        *RegFile
	memory         *mmu.Memory
	decoder        *insts.Decoder
	syscallHandler SyscallHandler

	halted           bool
	exitCode         int32
	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption configures an Emulator at construction time.
type EmulatorOption func(*Emulator)

// WithSyscallHandler sets a custom syscall handler.
func WithSyscallHandler(handler SyscallHandler) EmulatorOption {
	return func(e *Emulator) {
		e.syscallHandler = handler
	}
}

// WithStackPointer sets the initial value of x2 (the conventional
// stack pointer register).
func WithStackPointer(sp uint32) EmulatorOption {
	return func(e *Emulator) {
		e.regFile.WriteReg(2, sp)
	}
}

// WithMaxInstructions sets the maximum number of instructions to
// execute before Run gives up and returns ErrInstructionLimit. A value
// of 0 (the default) means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// NewEmulator creates a single-cycle RV32I emulator over the given
// memory. If no syscall handler is supplied via WithSyscallHandler, a
// DefaultSyscallHandler writing to stdout/stderr passed to
// NewDefaultSyscallHandler is expected to be installed by the caller
// before Run is called; NewEmulator itself wires no stdout/stderr so
// callers that need syscalls must configure a handler explicitly.
func NewEmulator(memory *mmu.Memory, opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile: NewRegFile(),
		memory:  memory,
		decoder: insts.NewDecoder(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// RegFile exposes the emulator's register file for inspection, e.g. by
// an equivalence checker comparing final architectural state against
// the pipeline.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// SetPC sets the program counter, typically to a loaded program's
// entry point.
func (e *Emulator) SetPC(pc uint32) {
	e.regFile.PC = pc
}

// SetSyscallHandler installs a syscall handler after construction.
// This is the natural way to wire a DefaultSyscallHandler, since it
// needs the emulator's own RegFile and Memory and so cannot be built
// before NewEmulator returns.
func (e *Emulator) SetSyscallHandler(handler SyscallHandler) {
	e.syscallHandler = handler
}

// Memory exposes the emulator's memory for inspection.
func (e *Emulator) Memory() *mmu.Memory {
	return e.memory
}

// Halted reports whether the program has exited.
func (e *Emulator) Halted() bool {
	return e.halted
}

// Step fetches, decodes and executes exactly one instruction.
func (e *Emulator) Step() (StepResult, error) {
	if e.halted {
		return StepResult{Exited: true, ExitCode: e.exitCode}, nil
	}

	pc := e.regFile.PC
	word := e.memory.FetchU32(pc)
	inst := e.decoder.Decode(word)

	if inst.Op == insts.OpUnknown {
		return StepResult{}, fmt.Errorf("%w: pc=0x%08x word=0x%08x", ErrDecode, pc, word)
	}

	e.instructionCount++

	nextPC := pc + 4

	rs1Value := e.regFile.ReadReg(inst.Rs1)
	rs2Value := e.regFile.ReadReg(inst.Rs2)

	switch inst.Format {
	case insts.FormatR:
		result := ALUCompute(inst.Op, rs1Value, rs2Value)
		e.regFile.WriteReg(inst.Rd, result)

	case insts.FormatI:
		result := ALUCompute(inst.Op, rs1Value, uint32(inst.Imm))
		e.regFile.WriteReg(inst.Rd, result)

	case insts.FormatILoad:
		addr := rs1Value + uint32(inst.Imm)
		value := LoadValue(e.memory, inst.Op, addr)
		e.regFile.WriteReg(inst.Rd, value)

	case insts.FormatS:
		addr := rs1Value + uint32(inst.Imm)
		StoreValue(e.memory, inst.Op, addr, rs2Value)

	case insts.FormatB:
		if EvaluateBranch(inst.Op, rs1Value, rs2Value) {
			nextPC = BranchTarget(pc, inst.Imm)
		}

	case insts.FormatU:
		if inst.Op == insts.OpAUIPC {
			e.regFile.WriteReg(inst.Rd, pc+uint32(inst.Imm))
		} else {
			e.regFile.WriteReg(inst.Rd, uint32(inst.Imm))
		}

	case insts.FormatJ:
		e.regFile.WriteReg(inst.Rd, pc+4)
		nextPC = BranchTarget(pc, inst.Imm)

	case insts.FormatIJump:
		linkValue := pc + 4
		nextPC = JALRTarget(rs1Value, inst.Imm)
		e.regFile.WriteReg(inst.Rd, linkValue)

	case insts.FormatSystem:
		if inst.Op == insts.OpECALL {
			result := e.syscallHandler.Handle()
			if result.Exited {
				e.halted = true
				e.exitCode = result.ExitCode
				return StepResult{Exited: true, ExitCode: result.ExitCode}, nil
			}
		}
		// EBREAK is treated as a debugger trap with no architectural
		// effect in this emulator; execution simply continues.
	}

	e.regFile.PC = nextPC

	return StepResult{}, nil
}

// Run steps the emulator until the program exits via the exit syscall,
// a decode error occurs, or MaxInstructions is exceeded.
func (e *Emulator) Run() (int32, error) {
	for {
		result, err := e.Step()
		if err != nil {
			return 0, err
		}
		if result.Exited {
			return result.ExitCode, nil
		}
		if e.maxInstructions != 0 && e.instructionCount >= e.maxInstructions {
			return 0, ErrInstructionLimit
		}
	}
}

// InstructionCount returns the number of instructions executed so far.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}
