// Package pipeline provides a 5-stage pipeline model for cycle-accurate timing simulation.
//
// The pipeline implements the classic 5-stage design:
//   - Fetch (IF): Read instruction from memory, predict conditional branches
//   - Decode (ID): Decode instruction, read registers
//   - Execute (EX): ALU operations, address calculation, branch/jump resolution
//   - Memory (MEM): Load/Store memory access
//   - Writeback (WB): Write results to register file
//
// Features:
//   - Pipeline registers between stages (IF/ID, ID/EX, EX/MEM, MEM/WB)
//   - Hazard detection for RAW (Read-After-Write) dependencies
//   - Data forwarding from EX/MEM and MEM/WB stages into EX, and from
//     MEM/WB into ID (WB-to-ID forwarding)
//   - Stalling for load-use hazards
//   - Dynamic branch prediction and misprediction-driven pipeline flushing
package pipeline

import (
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/mmu"
)

// Pipeline represents a 5-stage instruction pipeline.
type Pipeline struct {
	// Pipeline stages.
	fetchStage     *FetchStage
	decodeStage    *DecodeStage
	executeStage   *ExecuteStage
	memoryStage    *MemoryStage
	writebackStage *WritebackStage

	// Pipeline registers.
	ifid  IFIDRegister
	idex  IDEXRegister
	exmem EXMEMRegister
	memwb MEMWBRegister

	// Next-cycle pipeline registers (for synchronous update).
	nextIfid  IFIDRegister
	nextIdex  IDEXRegister
	nextExmem EXMEMRegister
	nextMemwb MEMWBRegister

	hazardUnit *HazardUnit
	predictor  *BranchPredictor

	regFile *emu.RegFile
	memory  *mmu.Memory
	pc      uint32

	// Statistics.
	cycleCount       uint64
	instructionCount uint64
	stallCount       uint64
	branchCount      uint64
	flushCount       uint64

	halted   bool
	exitCode int32

	syscallHandler emu.SyscallHandler
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithSyscallHandler sets a custom syscall handler.
func WithSyscallHandler(handler emu.SyscallHandler) PipelineOption {
	return func(p *Pipeline) {
		p.syscallHandler = handler
	}
}

// WithBranchPredictorConfig overrides the default branch predictor
// sizing.
func WithBranchPredictorConfig(config BranchPredictorConfig) PipelineOption {
	return func(p *Pipeline) {
		p.predictor = NewBranchPredictor(config)
	}
}

// NewPipeline creates a new 5-stage pipeline.
func NewPipeline(regFile *emu.RegFile, memory *mmu.Memory, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		hazardUnit: NewHazardUnit(),
		predictor:  NewBranchPredictor(DefaultBranchPredictorConfig()),
		regFile:    regFile,
		memory:     memory,
	}

	for _, opt := range opts {
		opt(p)
	}

	p.fetchStage = NewFetchStage(memory, p.predictor)
	p.decodeStage = NewDecodeStage(p.hazardUnit)
	p.executeStage = NewExecuteStage(p.predictor)
	p.memoryStage = NewMemoryStage(memory)
	p.writebackStage = NewWritebackStage(regFile)

	if p.syscallHandler == nil {
		p.syscallHandler = emu.NewDefaultSyscallHandler(regFile, memory, nil, nil, nil)
	}

	return p
}

// SetPC sets the program counter (entry point).
func (p *Pipeline) SetPC(pc uint32) {
	p.pc = pc
	p.regFile.PC = pc
}

// PC returns the current program counter.
func (p *Pipeline) PC() uint32 {
	return p.pc
}

// Halted returns true if the pipeline has halted (program exited).
func (p *Pipeline) Halted() bool {
	return p.halted
}

// ExitCode returns the exit code if halted.
func (p *Pipeline) ExitCode() int32 {
	return p.exitCode
}

// Stats holds pipeline performance counters.
type Stats struct {
	Cycles       uint64
	Instructions uint64
	Stalls       uint64
	Branches     uint64
	Flushes      uint64
	CPI          float64
}

// Stats returns pipeline performance statistics.
func (p *Pipeline) Stats() Stats {
	s := Stats{
		Cycles:       p.cycleCount,
		Instructions: p.instructionCount,
		Stalls:       p.stallCount,
		Branches:     p.branchCount,
		Flushes:      p.flushCount,
	}
	if s.Instructions > 0 {
		s.CPI = float64(s.Cycles) / float64(s.Instructions)
	}
	return s
}

// BranchPredictorStats exposes the predictor's own statistics.
func (p *Pipeline) BranchPredictorStats() BranchPredictorStats {
	return p.predictor.Stats()
}

// Tick advances the pipeline by one cycle.
func (p *Pipeline) Tick() {
	if p.halted {
		return
	}

	p.cycleCount++

	// Snapshot the register file as it stands at the start of this
	// cycle (i.e. as of the end of the previous cycle's writeback),
	// before this cycle's own writeback mutates it. Decode reads from
	// this snapshot rather than the live register file, and relies on
	// WB-to-ID forwarding (inside doDecode) to see this same cycle's
	// writeback commit.
	snapshot := p.regFile.Snapshot()

	p.doWriteback()
	p.doMemory()
	redirect := p.doExecute()
	decodeHazard := p.doDecode(snapshot)
	p.doFetch()

	stallResult := p.hazardUnit.ComputeStalls(decodeHazard)

	if stallResult.StallIF || stallResult.StallID {
		p.stallCount++
	}

	if stallResult.InsertBubbleEX {
		p.nextIdex.Clear()
	}

	if redirect.flush {
		p.flushCount++
		p.nextIfid.Clear()
		p.nextIdex.Clear()
		p.pc = redirect.target
	}

	if stallResult.StallIF {
		p.nextIfid = p.ifid
	}

	if stallResult.StallID {
		p.nextIdex = p.idex
	}

	p.ifid = p.nextIfid
	p.idex = p.nextIdex
	p.exmem = p.nextExmem
	p.memwb = p.nextMemwb

	// Absent a stall or a misprediction/jump flush, the PC follows
	// fetch's own speculation: if the instruction just fetched is a
	// predicted-taken branch, speculatively continue from its
	// predicted target rather than the fall-through PC+4. A wrong
	// prediction is caught and corrected by the flush above once the
	// branch resolves in EX.
	switch {
	case stallResult.StallIF, redirect.flush:
		// PC already held or already redirected above.
	case p.ifid.PredictedValid && p.ifid.PredictedTaken:
		p.pc = p.ifid.PredictedTarget
	default:
		p.pc += 4
	}
}

// doFetch performs the fetch stage.
func (p *Pipeline) doFetch() {
	result := p.fetchStage.Fetch(p.pc)

	p.nextIfid.Valid = true
	p.nextIfid.PC = result.PC
	p.nextIfid.InstructionWord = result.InstructionWord
	p.nextIfid.PredictedValid = result.PredictedValid
	p.nextIfid.PredictedTaken = result.PredictedTaken
	p.nextIfid.PredictedTarget = result.PredictedTarget
}

// doDecode performs the decode stage, returning whether a load-use
// hazard or a syscall-operand hazard was detected against an
// instruction still in flight ahead of it.
func (p *Pipeline) doDecode(snapshot [32]uint32) bool {
	if !p.ifid.Valid {
		p.nextIdex.Clear()
		return false
	}

	result := p.decodeStage.Decode(p.ifid.InstructionWord, snapshot, &p.idex, &p.exmem, &p.memwb)

	loadUseHazard := false
	if p.idex.Valid && p.idex.MemRead {
		usesRs1 := result.Rs1 != 0
		usesRs2 := result.Rs2 != 0
		loadUseHazard = p.hazardUnit.DetectLoadUseHazardDecoded(
			p.idex.Rd, result.Rs1, result.Rs2, usesRs1, usesRs2)
	}

	syscallHazard := p.hazardUnit.DetectSyscallOperandHazard(result.IsSyscall, &p.idex, &p.exmem)

	if loadUseHazard || syscallHazard {
		return true
	}

	p.nextIdex.Valid = true
	p.nextIdex.PC = p.ifid.PC
	p.nextIdex.Inst = result.Inst
	p.nextIdex.Rs1Value = result.Rs1Value
	p.nextIdex.Rs2Value = result.Rs2Value
	p.nextIdex.Rd = result.Rd
	p.nextIdex.Rs1 = result.Rs1
	p.nextIdex.Rs2 = result.Rs2
	p.nextIdex.MemRead = result.MemRead
	p.nextIdex.MemWrite = result.MemWrite
	p.nextIdex.RegWrite = result.RegWrite
	p.nextIdex.MemToReg = result.MemToReg
	p.nextIdex.IsBranch = result.IsBranch
	p.nextIdex.IsJump = result.IsJump
	p.nextIdex.IsSyscall = result.IsSyscall
	p.nextIdex.PredictedValid = p.ifid.PredictedValid
	p.nextIdex.PredictedTaken = p.ifid.PredictedTaken
	p.nextIdex.PredictedTarget = p.ifid.PredictedTarget

	return false
}

// controlRedirect describes a pipeline flush/PC-override decision made
// in EX.
type controlRedirect struct {
	flush  bool
	target uint32
}

// doExecute performs the execute stage and resolves any control flow
// carried by the instruction in ID/EX.
func (p *Pipeline) doExecute() controlRedirect {
	if !p.idex.Valid {
		p.nextExmem.Clear()
		return controlRedirect{}
	}

	if p.idex.IsSyscall {
		result := p.syscallHandler.Handle()
		if result.Exited {
			p.halted = true
			p.exitCode = result.ExitCode
		}
		p.nextExmem.Clear()
		p.instructionCount++
		return controlRedirect{}
	}

	forwarding := p.hazardUnit.DetectForwarding(&p.idex, &p.exmem, &p.memwb)
	rs1Val := p.hazardUnit.GetForwardedValue(forwarding.ForwardRs1, p.idex.Rs1Value, &p.exmem, &p.memwb)
	rs2Val := p.hazardUnit.GetForwardedValue(forwarding.ForwardRs2, p.idex.Rs2Value, &p.exmem, &p.memwb)

	result := p.executeStage.Execute(&p.idex, rs1Val, rs2Val)

	p.nextExmem.Valid = true
	p.nextExmem.PC = p.idex.PC
	p.nextExmem.Inst = p.idex.Inst
	p.nextExmem.ALUResult = result.ALUResult
	p.nextExmem.StoreValue = result.StoreValue
	p.nextExmem.Rd = p.idex.Rd
	p.nextExmem.MemRead = p.idex.MemRead
	p.nextExmem.MemWrite = p.idex.MemWrite
	p.nextExmem.RegWrite = p.idex.RegWrite
	p.nextExmem.MemToReg = p.idex.MemToReg

	if p.idex.IsBranch {
		p.branchCount++
	}

	if result.Mispredicted {
		return controlRedirect{flush: true, target: result.RedirectPC}
	}

	return controlRedirect{}
}

// doMemory performs the memory stage.
func (p *Pipeline) doMemory() {
	if !p.exmem.Valid {
		p.nextMemwb.Clear()
		return
	}

	result := p.memoryStage.Access(&p.exmem)

	p.nextMemwb.Valid = true
	p.nextMemwb.PC = p.exmem.PC
	p.nextMemwb.Inst = p.exmem.Inst
	p.nextMemwb.ALUResult = p.exmem.ALUResult
	p.nextMemwb.MemData = result.MemData
	p.nextMemwb.Rd = p.exmem.Rd
	p.nextMemwb.RegWrite = p.exmem.RegWrite
	p.nextMemwb.MemToReg = p.exmem.MemToReg
}

// doWriteback performs the writeback stage.
func (p *Pipeline) doWriteback() {
	if !p.memwb.Valid {
		return
	}

	p.writebackStage.Writeback(&p.memwb)
	p.instructionCount++
}

// Run executes the pipeline until the program halts.
func (p *Pipeline) Run() int32 {
	for !p.halted {
		p.Tick()
	}
	return p.exitCode
}

// RunCycles executes the pipeline for up to n cycles, stopping early if
// the program halts. It returns true if the pipeline is still running.
func (p *Pipeline) RunCycles(n uint64) bool {
	for i := uint64(0); i < n && !p.halted; i++ {
		p.Tick()
	}
	return !p.halted
}

// Reset clears all pipeline state, including statistics, latches, and the
// branch predictor, as if the pipeline had just been constructed.
func (p *Pipeline) Reset() {
	p.ifid = IFIDRegister{}
	p.idex = IDEXRegister{}
	p.exmem = EXMEMRegister{}
	p.memwb = MEMWBRegister{}
	p.nextIfid = IFIDRegister{}
	p.nextIdex = IDEXRegister{}
	p.nextExmem = EXMEMRegister{}
	p.nextMemwb = MEMWBRegister{}

	p.pc = 0
	p.cycleCount = 0
	p.instructionCount = 0
	p.stallCount = 0
	p.branchCount = 0
	p.flushCount = 0
	p.halted = false
	p.exitCode = 0

	p.predictor.Reset()
}

// GetIFID returns the current IF/ID register for inspection.
func (p *Pipeline) GetIFID() IFIDRegister { return p.ifid }

// GetIDEX returns the current ID/EX register for inspection.
func (p *Pipeline) GetIDEX() IDEXRegister { return p.idex }

// GetEXMEM returns the current EX/MEM register for inspection.
func (p *Pipeline) GetEXMEM() EXMEMRegister { return p.exmem }

// GetMEMWB returns the current MEM/WB register for inspection.
func (p *Pipeline) GetMEMWB() MEMWBRegister { return p.memwb }
