// Package insts provides RV32I instruction definitions and decoding.
//
// This package implements decoding of RV32I machine code into structured
// instruction representations. It supports the full base integer ISA:
//   - LUI, AUIPC (U-type)
//   - JAL (J-type), JALR (I-type)
//   - BEQ, BNE, BLT, BGE, BLTU, BGEU (B-type)
//   - LB, LH, LW, LBU, LHU (I-type loads)
//   - SB, SH, SW (S-type stores)
//   - ADDI, SLTI, SLTIU, XORI, ORI, ANDI, SLLI, SRLI, SRAI (I-type arithmetic)
//   - ADD, SUB, SLL, SLT, SLTU, XOR, SRL, SRA, OR, AND (R-type)
//   - ECALL, EBREAK (system)
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x00500093) // ADDI x1, x0, 5
//	fmt.Printf("Op: %v, Rd: %d, Imm: %d\n", inst.Op, inst.Rd, inst.Imm)
package insts
