package emu

import "github.com/sarchlab/rv32sim/insts"

// EvaluateBranch evaluates an RV32I conditional branch's condition
// given the raw values of its two register operands (rs1, rs2). RV32I
// has no flags register: every branch condition is a direct comparison
// between two register values, so this is a pure function of its
// arguments, shared between the pipeline's execute stage (where it
// decides whether a branch was actually taken) and the single-cycle
// emulator.
func EvaluateBranch(op insts.Op, rs1Value, rs2Value uint32) bool {
	switch op {
	case insts.OpBEQ:
		return rs1Value == rs2Value
	case insts.OpBNE:
		return rs1Value != rs2Value
	case insts.OpBLT:
		return int32(rs1Value) < int32(rs2Value)
	case insts.OpBGE:
		return int32(rs1Value) >= int32(rs2Value)
	case insts.OpBLTU:
		return rs1Value < rs2Value
	case insts.OpBGEU:
		return rs1Value >= rs2Value
	default:
		return false
	}
}

// BranchTarget computes the PC-relative target of a branch or JAL given
// the PC of the instruction itself. Both use the same encoding idiom:
// target = PC + sign-extended immediate.
func BranchTarget(pc uint32, imm int32) uint32 {
	return uint32(int32(pc) + imm)
}

// JALRTarget computes the target of a JALR: (rs1 + imm) with bit 0
// cleared, per the RV32I base ISA.
func JALRTarget(rs1Value uint32, imm int32) uint32 {
	target := uint32(int32(rs1Value) + imm)
	return target &^ 1
}
