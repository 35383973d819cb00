package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/insts"
)

// encode builds a raw RV32I word from its fields, used so the test
// cases read as "what the assembler would emit" rather than opaque
// hex literals.

func encodeR(funct7, rs2, rs1, funct3, rd, opcode uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encodeI(imm uint32, rs1, funct3, rd, opcode uint32) uint32 {
	return (imm&0xFFF)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encodeS(imm uint32, rs2, rs1, funct3, opcode uint32) uint32 {
	return ((imm>>5)&0x7F)<<25 | rs2<<20 | rs1<<15 | funct3<<12 | (imm&0x1F)<<7 | opcode
}

func encodeB(imm uint32, rs2, rs1, funct3, opcode uint32) uint32 {
	bit12 := (imm >> 12) & 0x1
	bit11 := (imm >> 11) & 0x1
	bits10to5 := (imm >> 5) & 0x3F
	bits4to1 := (imm >> 1) & 0xF
	return bit12<<31 | bits10to5<<25 | rs2<<20 | rs1<<15 | funct3<<12 |
		bits4to1<<8 | bit11<<7 | opcode
}

func encodeU(imm uint32, rd, opcode uint32) uint32 {
	return (imm & 0xFFFFF000) | rd<<7 | opcode
}

func encodeJ(imm uint32, rd, opcode uint32) uint32 {
	bit20 := (imm >> 20) & 0x1
	bits10to1 := (imm >> 1) & 0x3FF
	bit11 := (imm >> 11) & 0x1
	bits19to12 := (imm >> 12) & 0xFF
	return bit20<<31 | bits10to1<<21 | bit11<<20 | bits19to12<<12 | rd<<7 | opcode
}

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("U-type", func() {
		It("decodes LUI x1, 0x12345", func() {
			word := encodeU(0x12345000, 1, 0x37)
			inst := decoder.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpLUI))
			Expect(inst.Format).To(Equal(insts.FormatU))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Imm).To(Equal(int32(0x12345000)))
		})

		It("decodes AUIPC x2, 0x1000", func() {
			word := encodeU(0x00001000, 2, 0x17)
			inst := decoder.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpAUIPC))
			Expect(inst.Rd).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int32(0x1000)))
		})
	})

	Describe("J-type", func() {
		It("decodes JAL x1, 16", func() {
			word := encodeJ(16, 1, 0x6F)
			inst := decoder.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpJAL))
			Expect(inst.Format).To(Equal(insts.FormatJ))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Imm).To(Equal(int32(16)))
		})

		It("decodes a negative JAL offset", func() {
			word := encodeJ(uint32(int32(-8)), 0, 0x6F)
			inst := decoder.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpJAL))
			Expect(inst.Imm).To(Equal(int32(-8)))
		})
	})

	Describe("I-type jump", func() {
		It("decodes JALR x1, x5, 4", func() {
			word := encodeI(4, 5, 0x0, 1, 0x67)
			inst := decoder.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpJALR))
			Expect(inst.Format).To(Equal(insts.FormatIJump))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(5)))
			Expect(inst.Imm).To(Equal(int32(4)))
		})
	})

	Describe("B-type", func() {
		It("decodes BEQ x1, x2, 8", func() {
			word := encodeB(8, 2, 1, 0x0, 0x63)
			inst := decoder.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpBEQ))
			Expect(inst.Format).To(Equal(insts.FormatB))
			Expect(inst.IsBranch()).To(BeTrue())
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Rs2).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int32(8)))
		})

		It("decodes a negative BNE offset (backward branch)", func() {
			word := encodeB(uint32(int32(-16)), 2, 1, 0x1, 0x63)
			inst := decoder.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpBNE))
			Expect(inst.Imm).To(Equal(int32(-16)))
		})

		It("decodes BLT, BGE, BLTU, BGEU by funct3", func() {
			Expect(decoder.Decode(encodeB(0, 2, 1, 0x4, 0x63)).Op).To(Equal(insts.OpBLT))
			Expect(decoder.Decode(encodeB(0, 2, 1, 0x5, 0x63)).Op).To(Equal(insts.OpBGE))
			Expect(decoder.Decode(encodeB(0, 2, 1, 0x6, 0x63)).Op).To(Equal(insts.OpBLTU))
			Expect(decoder.Decode(encodeB(0, 2, 1, 0x7, 0x63)).Op).To(Equal(insts.OpBGEU))
		})
	})

	Describe("Loads", func() {
		It("decodes LW x3, 4(x1)", func() {
			word := encodeI(4, 1, 0x2, 3, 0x03)
			inst := decoder.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpLW))
			Expect(inst.Format).To(Equal(insts.FormatILoad))
			Expect(inst.IsLoad()).To(BeTrue())
			Expect(inst.Rd).To(Equal(uint8(3)))
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Imm).To(Equal(int32(4)))
		})

		It("decodes LB, LH, LBU, LHU by funct3", func() {
			Expect(decoder.Decode(encodeI(0, 1, 0x0, 3, 0x03)).Op).To(Equal(insts.OpLB))
			Expect(decoder.Decode(encodeI(0, 1, 0x1, 3, 0x03)).Op).To(Equal(insts.OpLH))
			Expect(decoder.Decode(encodeI(0, 1, 0x4, 3, 0x03)).Op).To(Equal(insts.OpLBU))
			Expect(decoder.Decode(encodeI(0, 1, 0x5, 3, 0x03)).Op).To(Equal(insts.OpLHU))
		})
	})

	Describe("Stores", func() {
		It("decodes SW x2, 12(x1)", func() {
			word := encodeS(12, 2, 1, 0x2, 0x23)
			inst := decoder.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpSW))
			Expect(inst.Format).To(Equal(insts.FormatS))
			Expect(inst.IsStore()).To(BeTrue())
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Rs2).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int32(12)))
		})

		It("decodes a negative store offset", func() {
			word := encodeS(uint32(int32(-4)), 2, 1, 0x0, 0x23)
			inst := decoder.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpSB))
			Expect(inst.Imm).To(Equal(int32(-4)))
		})
	})

	Describe("OP-IMM", func() {
		It("decodes ADDI x0, x0, 0 as the canonical NOP", func() {
			word := encodeI(0, 0, 0x0, 0, 0x13)
			inst := decoder.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.IsNop()).To(BeTrue())
		})

		It("decodes ADDI x5, x1, -1", func() {
			word := encodeI(uint32(int32(-1)), 1, 0x0, 5, 0x13)
			inst := decoder.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.Imm).To(Equal(int32(-1)))
			Expect(inst.Rd).To(Equal(uint8(5)))
			Expect(inst.Rs1).To(Equal(uint8(1)))
		})

		It("decodes SLTI, SLTIU, XORI, ORI, ANDI by funct3", func() {
			Expect(decoder.Decode(encodeI(0, 1, 0x2, 5, 0x13)).Op).To(Equal(insts.OpSLTI))
			Expect(decoder.Decode(encodeI(0, 1, 0x3, 5, 0x13)).Op).To(Equal(insts.OpSLTIU))
			Expect(decoder.Decode(encodeI(0, 1, 0x4, 5, 0x13)).Op).To(Equal(insts.OpXORI))
			Expect(decoder.Decode(encodeI(0, 1, 0x6, 5, 0x13)).Op).To(Equal(insts.OpORI))
			Expect(decoder.Decode(encodeI(0, 1, 0x7, 5, 0x13)).Op).To(Equal(insts.OpANDI))
		})

		It("decodes SLLI x1, x2, 3 (shamt in rs2 field)", func() {
			word := encodeR(0x00, 3, 2, 0x1, 1, 0x13)
			inst := decoder.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpSLLI))
			Expect(inst.Imm).To(Equal(int32(3)))
		})

		It("distinguishes SRLI from SRAI by funct7 bit 30", func() {
			srli := decoder.Decode(encodeR(0x00, 7, 2, 0x5, 1, 0x13))
			srai := decoder.Decode(encodeR(0x20, 7, 2, 0x5, 1, 0x13))

			Expect(srli.Op).To(Equal(insts.OpSRLI))
			Expect(srai.Op).To(Equal(insts.OpSRAI))
			Expect(srli.Imm).To(Equal(int32(7)))
		})
	})

	Describe("OP (register-register)", func() {
		It("decodes ADD x3, x1, x2", func() {
			word := encodeR(0x00, 2, 1, 0x0, 3, 0x33)
			inst := decoder.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpADD))
			Expect(inst.Format).To(Equal(insts.FormatR))
			Expect(inst.Rd).To(Equal(uint8(3)))
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Rs2).To(Equal(uint8(2)))
		})

		It("distinguishes SUB from ADD by funct7", func() {
			add := decoder.Decode(encodeR(0x00, 2, 1, 0x0, 3, 0x33))
			sub := decoder.Decode(encodeR(0x20, 2, 1, 0x0, 3, 0x33))

			Expect(add.Op).To(Equal(insts.OpADD))
			Expect(sub.Op).To(Equal(insts.OpSUB))
		})

		It("distinguishes SRL from SRA by funct7", func() {
			srl := decoder.Decode(encodeR(0x00, 2, 1, 0x5, 3, 0x33))
			sra := decoder.Decode(encodeR(0x20, 2, 1, 0x5, 3, 0x33))

			Expect(srl.Op).To(Equal(insts.OpSRL))
			Expect(sra.Op).To(Equal(insts.OpSRA))
		})

		It("decodes SLL, SLT, SLTU, XOR, OR, AND by funct3", func() {
			Expect(decoder.Decode(encodeR(0, 2, 1, 0x1, 3, 0x33)).Op).To(Equal(insts.OpSLL))
			Expect(decoder.Decode(encodeR(0, 2, 1, 0x2, 3, 0x33)).Op).To(Equal(insts.OpSLT))
			Expect(decoder.Decode(encodeR(0, 2, 1, 0x3, 3, 0x33)).Op).To(Equal(insts.OpSLTU))
			Expect(decoder.Decode(encodeR(0, 2, 1, 0x4, 3, 0x33)).Op).To(Equal(insts.OpXOR))
			Expect(decoder.Decode(encodeR(0, 2, 1, 0x6, 3, 0x33)).Op).To(Equal(insts.OpOR))
			Expect(decoder.Decode(encodeR(0, 2, 1, 0x7, 3, 0x33)).Op).To(Equal(insts.OpAND))
		})
	})

	Describe("System", func() {
		It("decodes ECALL", func() {
			inst := decoder.Decode(0x00000073)

			Expect(inst.Op).To(Equal(insts.OpECALL))
			Expect(inst.Format).To(Equal(insts.FormatSystem))
		})

		It("decodes EBREAK", func() {
			inst := decoder.Decode(0x00100073)

			Expect(inst.Op).To(Equal(insts.OpEBREAK))
		})
	})

	Describe("unrecognized encodings", func() {
		It("decodes to OpUnknown/FormatUnknown without error", func() {
			inst := decoder.Decode(0xFFFFFFFF)

			Expect(inst.Op).To(Equal(insts.OpUnknown))
			Expect(inst.Format).To(Equal(insts.FormatUnknown))
		})
	})

	Describe("Decode purity", func() {
		It("returns identical results for repeated calls on the same word", func() {
			word := encodeR(0x00, 2, 1, 0x0, 3, 0x33)

			first := decoder.Decode(word)
			second := decoder.Decode(word)

			Expect(*first).To(Equal(*second))
		})
	})
})
