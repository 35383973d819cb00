package emu

import (
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/mmu"
)

// LoadValue performs an RV32I load of the given op against addr,
// applying the appropriate width and sign/zero extension, and returns
// the 32-bit value that should be written back to rd.
func LoadValue(mem *mmu.Memory, op insts.Op, addr uint32) uint32 {
	switch op {
	case insts.OpLB:
		return uint32(int32(int8(mem.ReadU8(addr))))
	case insts.OpLBU:
		return uint32(mem.ReadU8(addr))
	case insts.OpLH:
		return uint32(int32(int16(mem.ReadU16(addr))))
	case insts.OpLHU:
		return uint32(mem.ReadU16(addr))
	case insts.OpLW:
		return mem.ReadU32(addr)
	default:
		return 0
	}
}

// StoreValue performs an RV32I store of the given op, writing the
// appropriate low-order width of value to addr.
func StoreValue(mem *mmu.Memory, op insts.Op, addr uint32, value uint32) {
	switch op {
	case insts.OpSB:
		mem.WriteU8(addr, uint8(value))
	case insts.OpSH:
		mem.WriteU16(addr, uint16(value))
	case insts.OpSW:
		mem.WriteU32(addr, value)
	}
}
