package emu

import "github.com/sarchlab/rv32sim/insts"

// ALUCompute evaluates the arithmetic/logic/compare result of an
// RV32I R-type or OP-IMM instruction given its two raw 32-bit operands.
// For the immediate forms, b is the caller-supplied sign-extended
// immediate; for the register forms, b is the value read from rs2.
//
// ALUCompute has no side effects and no receiver: it is the single
// piece of arithmetic logic shared by the pipeline's execute stage and
// the single-cycle emulator, so the two can never disagree on what an
// ALU op computes.
func ALUCompute(op insts.Op, a, b uint32) uint32 {
	switch op {
	case insts.OpADD, insts.OpADDI:
		return a + b
	case insts.OpSUB:
		return a - b
	case insts.OpAND, insts.OpANDI:
		return a & b
	case insts.OpOR, insts.OpORI:
		return a | b
	case insts.OpXOR, insts.OpXORI:
		return a ^ b
	case insts.OpSLL, insts.OpSLLI:
		return a << (b & 0x1F)
	case insts.OpSRL, insts.OpSRLI:
		return a >> (b & 0x1F)
	case insts.OpSRA, insts.OpSRAI:
		return uint32(int32(a) >> (b & 0x1F))
	case insts.OpSLT, insts.OpSLTI:
		if int32(a) < int32(b) {
			return 1
		}
		return 0
	case insts.OpSLTU, insts.OpSLTIU:
		if a < b {
			return 1
		}
		return 0
	default:
		return 0
	}
}
