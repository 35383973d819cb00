package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
)

var _ = Describe("ALUCompute", func() {
	It("computes ADD", func() {
		Expect(emu.ALUCompute(insts.OpADD, 2, 3)).To(Equal(uint32(5)))
	})

	It("computes SUB", func() {
		Expect(emu.ALUCompute(insts.OpSUB, 10, 3)).To(Equal(uint32(7)))
	})

	It("wraps SUB on unsigned underflow", func() {
		Expect(emu.ALUCompute(insts.OpSUB, 0, 1)).To(Equal(uint32(0xFFFFFFFF)))
	})

	It("computes AND, OR, XOR", func() {
		Expect(emu.ALUCompute(insts.OpAND, 0xFF, 0x0F)).To(Equal(uint32(0x0F)))
		Expect(emu.ALUCompute(insts.OpOR, 0xF0, 0x0F)).To(Equal(uint32(0xFF)))
		Expect(emu.ALUCompute(insts.OpXOR, 0xFF, 0x0F)).To(Equal(uint32(0xF0)))
	})

	It("shifts logically", func() {
		Expect(emu.ALUCompute(insts.OpSLL, 1, 4)).To(Equal(uint32(16)))
		Expect(emu.ALUCompute(insts.OpSRL, 0x80000000, 4)).To(Equal(uint32(0x08000000)))
	})

	It("shifts arithmetically, preserving the sign bit", func() {
		Expect(emu.ALUCompute(insts.OpSRA, 0x80000000, 4)).To(Equal(uint32(0xF8000000)))
	})

	It("masks the shift amount to 5 bits", func() {
		Expect(emu.ALUCompute(insts.OpSLL, 1, 32+4)).To(Equal(uint32(16)))
	})

	It("computes signed SLT", func() {
		Expect(emu.ALUCompute(insts.OpSLT, uint32(int32(-1)), 0)).To(Equal(uint32(1)))
		Expect(emu.ALUCompute(insts.OpSLT, 0, uint32(int32(-1)))).To(Equal(uint32(0)))
	})

	It("computes unsigned SLTU", func() {
		Expect(emu.ALUCompute(insts.OpSLTU, uint32(int32(-1)), 0)).To(Equal(uint32(0)))
		Expect(emu.ALUCompute(insts.OpSLTU, 0, uint32(int32(-1)))).To(Equal(uint32(1)))
	})

	It("treats the *I immediate forms identically to their register counterparts", func() {
		Expect(emu.ALUCompute(insts.OpADDI, 2, 3)).To(Equal(emu.ALUCompute(insts.OpADD, 2, 3)))
		Expect(emu.ALUCompute(insts.OpSLTIU, 1, 2)).To(Equal(emu.ALUCompute(insts.OpSLTU, 1, 2)))
	})
})
