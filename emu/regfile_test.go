package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
)

var _ = Describe("RegFile", func() {
	var rf *emu.RegFile

	BeforeEach(func() {
		rf = emu.NewRegFile()
	})

	It("reads x0 as zero even after a write", func() {
		rf.WriteReg(0, 0xFFFFFFFF)
		Expect(rf.ReadReg(0)).To(Equal(uint32(0)))
	})

	It("round-trips a write to a general-purpose register", func() {
		rf.WriteReg(5, 12345)
		Expect(rf.ReadReg(5)).To(Equal(uint32(12345)))
	})

	It("ignores writes and reads to out-of-range register numbers", func() {
		rf.WriteReg(40, 42)
		Expect(rf.ReadReg(40)).To(Equal(uint32(0)))
	})

	It("snapshot reflects the register state at the time it was taken", func() {
		rf.WriteReg(1, 1)
		snap := rf.Snapshot()
		rf.WriteReg(1, 2)

		Expect(snap[1]).To(Equal(uint32(1)))
		Expect(rf.ReadReg(1)).To(Equal(uint32(2)))
	})
})
