package pipeline

import (
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/mmu"
)

// FetchStage handles instruction fetch from memory, plus the cheap
// pre-decode needed to consult the branch predictor in the same cycle
// an instruction is fetched. RV32I branch targets are always derivable
// from the raw word (PC + the immediate the decoder extracts), so no
// BTB lookup is needed to predict a target the way a register-indirect
// ISA would require.
type FetchStage struct {
	memory    *mmu.Memory
	decoder   *insts.Decoder
	predictor *BranchPredictor
}

// NewFetchStage creates a new fetch stage.
func NewFetchStage(memory *mmu.Memory, predictor *BranchPredictor) *FetchStage {
	return &FetchStage{
		memory:    memory,
		decoder:   insts.NewDecoder(),
		predictor: predictor,
	}
}

// FetchResult holds the result of the fetch stage.
type FetchResult struct {
	PC              uint32
	InstructionWord uint32

	PredictedValid  bool
	PredictedTaken  bool
	PredictedTarget uint32
}

// Fetch reads the instruction at the given PC and, if it decodes to a
// conditional branch, consults the predictor for a direction and
// target.
func (s *FetchStage) Fetch(pc uint32) FetchResult {
	word := s.memory.FetchU32(pc)
	result := FetchResult{PC: pc, InstructionWord: word}

	inst := s.decoder.Decode(word)
	if inst.Format == insts.FormatB {
		taken := s.predictor.Predict(pc)
		result.PredictedValid = true
		result.PredictedTaken = taken
		if taken {
			result.PredictedTarget = pc + uint32(inst.Imm)
		} else {
			result.PredictedTarget = pc + 4
		}
	}

	return result
}

// DecodeStage handles instruction decode, register read (from a
// start-of-cycle register file snapshot) and WB-to-ID forwarding.
type DecodeStage struct {
	decoder *insts.Decoder
	hazard  *HazardUnit
}

// NewDecodeStage creates a new decode stage.
func NewDecodeStage(hazard *HazardUnit) *DecodeStage {
	return &DecodeStage{
		decoder: insts.NewDecoder(),
		hazard:  hazard,
	}
}

// DecodeResult holds the result of the decode stage.
type DecodeResult struct {
	Inst *insts.Instruction

	Rs1Value uint32
	Rs2Value uint32

	Rd  uint8
	Rs1 uint8
	Rs2 uint8

	MemRead   bool
	MemWrite  bool
	RegWrite  bool
	MemToReg  bool
	IsBranch  bool
	IsJump    bool
	IsSyscall bool
}

// Decode decodes the instruction word fetched this cycle, reading
// operands from snapshot (the register file as of the start of the
// cycle) and patching in any value that the instruction committing in
// MEM/WB this same cycle supplies via WB-to-ID forwarding.
func (s *DecodeStage) Decode(word uint32, snapshot [32]uint32, idex *IDEXRegister, exmem *EXMEMRegister, memwb *MEMWBRegister) DecodeResult {
	inst := s.decoder.Decode(word)
	result := DecodeResult{
		Inst: inst,
		Rd:   inst.Rd,
		Rs1:  inst.Rs1,
		Rs2:  inst.Rs2,
	}

	usesRs1 := inst.Format != insts.FormatU && inst.Format != insts.FormatJ &&
		inst.Format != insts.FormatSystem
	usesRs2 := inst.Format == insts.FormatR || inst.Format == insts.FormatS ||
		inst.Format == insts.FormatB

	result.Rs1Value = snapshot[inst.Rs1]
	result.Rs2Value = snapshot[inst.Rs2]

	if forwarded, ok := s.hazard.ForwardToDecode(inst.Rs1, usesRs1, idex, exmem, memwb); ok {
		result.Rs1Value = forwarded
	}
	if forwarded, ok := s.hazard.ForwardToDecode(inst.Rs2, usesRs2, idex, exmem, memwb); ok {
		result.Rs2Value = forwarded
	}

	switch inst.Format {
	case insts.FormatR, insts.FormatI, insts.FormatU:
		result.RegWrite = inst.Rd != 0
	case insts.FormatILoad:
		result.MemRead = true
		result.MemToReg = true
		result.RegWrite = inst.Rd != 0
	case insts.FormatS:
		result.MemWrite = true
	case insts.FormatB:
		result.IsBranch = true
	case insts.FormatJ, insts.FormatIJump:
		result.IsJump = true
		result.RegWrite = inst.Rd != 0
	case insts.FormatSystem:
		result.IsSyscall = inst.Op == insts.OpECALL
	}

	return result
}

// ExecuteStage performs ALU computation, address calculation and
// control-flow resolution.
type ExecuteStage struct {
	predictor *BranchPredictor
}

// NewExecuteStage creates a new execute stage.
func NewExecuteStage(predictor *BranchPredictor) *ExecuteStage {
	return &ExecuteStage{predictor: predictor}
}

// ExecuteResult holds the result of the execute stage.
type ExecuteResult struct {
	ALUResult  uint32
	StoreValue uint32

	// Mispredicted is set when a conditional branch's actual outcome
	// or target disagrees with what fetch-time prediction assumed.
	Mispredicted bool
	// RedirectPC is the PC execution must resume from on a
	// misprediction or an unconditional jump.
	RedirectPC uint32
}

// Execute computes the ALU result or effective address for idex, and
// resolves any branch or jump it carries against the prediction it was
// fetched with. forwardedRs1/forwardedRs2 are the EX-stage-forwarded
// operand values (see HazardUnit.GetForwardedValue), which may differ
// from idex.Rs1Value/Rs2Value when an in-flight instruction hasn't
// committed yet.
func (s *ExecuteStage) Execute(idex *IDEXRegister, forwardedRs1, forwardedRs2 uint32) ExecuteResult {
	result := ExecuteResult{}
	inst := idex.Inst
	if inst == nil {
		return result
	}

	switch inst.Format {
	case insts.FormatR:
		result.ALUResult = emu.ALUCompute(inst.Op, forwardedRs1, forwardedRs2)

	case insts.FormatI:
		result.ALUResult = emu.ALUCompute(inst.Op, forwardedRs1, uint32(inst.Imm))

	case insts.FormatILoad, insts.FormatS:
		result.ALUResult = forwardedRs1 + uint32(inst.Imm)
		result.StoreValue = forwardedRs2

	case insts.FormatU:
		if inst.Op == insts.OpAUIPC {
			result.ALUResult = idex.PC + uint32(inst.Imm)
		} else {
			result.ALUResult = uint32(inst.Imm)
		}

	case insts.FormatB:
		taken := emu.EvaluateBranch(inst.Op, forwardedRs1, forwardedRs2)
		target := idex.PC + 4
		if taken {
			target = emu.BranchTarget(idex.PC, inst.Imm)
		}

		s.predictor.Update(idex.PC, taken)

		mispredicted := !idex.PredictedValid ||
			idex.PredictedTaken != taken ||
			idex.PredictedTarget != target
		result.Mispredicted = mispredicted
		result.RedirectPC = target

	case insts.FormatJ:
		result.ALUResult = idex.PC + 4
		result.RedirectPC = emu.BranchTarget(idex.PC, inst.Imm)
		result.Mispredicted = true

	case insts.FormatIJump:
		result.ALUResult = idex.PC + 4
		result.RedirectPC = emu.JALRTarget(forwardedRs1, inst.Imm)
		result.Mispredicted = true
	}

	return result
}

// MemoryStage handles memory load/store operations.
type MemoryStage struct {
	memory *mmu.Memory
}

// NewMemoryStage creates a new memory stage.
func NewMemoryStage(memory *mmu.Memory) *MemoryStage {
	return &MemoryStage{memory: memory}
}

// MemoryResult holds the result of the memory stage.
type MemoryResult struct {
	MemData uint32
}

// Access performs the memory read or write carried by exmem.
func (s *MemoryStage) Access(exmem *EXMEMRegister) MemoryResult {
	result := MemoryResult{}
	if !exmem.Valid || exmem.Inst == nil {
		return result
	}

	switch {
	case exmem.MemRead:
		result.MemData = emu.LoadValue(s.memory, exmem.Inst.Op, exmem.ALUResult)
	case exmem.MemWrite:
		emu.StoreValue(s.memory, exmem.Inst.Op, exmem.ALUResult, exmem.StoreValue)
	}

	return result
}

// WritebackStage handles register file writeback.
type WritebackStage struct {
	regFile *emu.RegFile
}

// NewWritebackStage creates a new writeback stage.
func NewWritebackStage(regFile *emu.RegFile) *WritebackStage {
	return &WritebackStage{regFile: regFile}
}

// Writeback writes the result carried by memwb to the register file.
func (s *WritebackStage) Writeback(memwb *MEMWBRegister) {
	if !memwb.Valid || !memwb.RegWrite || memwb.Rd == 0 {
		return
	}

	value := memwb.ALUResult
	if memwb.MemToReg {
		value = memwb.MemData
	}

	s.regFile.WriteReg(memwb.Rd, value)
}
