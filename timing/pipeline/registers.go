// Package pipeline implements a classic 5-stage in-order RV32I pipeline
// (IF/ID/EX/MEM/WB) with forwarding, load-use stalling and dynamic
// branch prediction. The single-cycle reference used for equivalence
// checking is emu.Emulator, not part of this package.
package pipeline

import (
	"github.com/sarchlab/rv32sim/insts"
)

// IFIDRegister holds state between Fetch and Decode.
type IFIDRegister struct {
	Valid bool

	PC              uint32
	InstructionWord uint32

	// PredictedValid is set when the fetched word decodes (via the
	// cheap pre-decode performed during fetch) to a conditional
	// branch; PredictedTaken/PredictedTarget then hold the direction
	// predictor's verdict for this PC and the target it computed from
	// the immediate. JAL/JALR are never predicted here: the spec
	// resolves them unconditionally in EX.
	PredictedValid  bool
	PredictedTaken  bool
	PredictedTarget uint32
}

// IDEXRegister holds state between Decode and Execute.
type IDEXRegister struct {
	Valid bool

	PC   uint32
	Inst *insts.Instruction

	// Register values read during decode (start-of-cycle snapshot,
	// patched by WB-to-ID forwarding where applicable).
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

	PredictedValid  bool
	PredictedTaken  bool
	PredictedTarget uint32
}

// EXMEMRegister holds state between Execute and Memory.
type EXMEMRegister struct {
	Valid bool

	PC   uint32
	Inst *insts.Instruction

	ALUResult  uint32
	StoreValue uint32

	Rd uint8

	MemRead  bool
	MemWrite bool
	RegWrite bool
	MemToReg bool
}

// MEMWBRegister holds state between Memory and Writeback.
type MEMWBRegister struct {
	Valid bool

	PC   uint32
	Inst *insts.Instruction

	ALUResult uint32
	MemData   uint32

	Rd uint8

	RegWrite bool
	MemToReg bool
}

// Clear resets the register to a bubble.
func (r *IFIDRegister) Clear() {
	*r = IFIDRegister{}
}

// Clear resets the register to a bubble.
func (r *IDEXRegister) Clear() {
	*r = IDEXRegister{}
}

// Clear resets the register to a bubble.
func (r *EXMEMRegister) Clear() {
	*r = EXMEMRegister{}
}

// Clear resets the register to a bubble.
func (r *MEMWBRegister) Clear() {
	*r = MEMWBRegister{}
}
