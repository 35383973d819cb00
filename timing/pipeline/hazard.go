package pipeline

import "github.com/sarchlab/rv32sim/emu"

// HazardUnit detects data hazards and controls forwarding/stalling.
type HazardUnit struct{}

// NewHazardUnit creates a new hazard detection unit.
func NewHazardUnit() *HazardUnit {
	return &HazardUnit{}
}

// ForwardingSource indicates where EX should take an operand from.
type ForwardingSource uint8

const (
	// ForwardNone means no forwarding, use the value latched at decode.
	ForwardNone ForwardingSource = iota
	// ForwardFromEXMEM means forward from the EX/MEM pipeline register.
	ForwardFromEXMEM
	// ForwardFromMEMWB means forward from the MEM/WB pipeline register.
	ForwardFromMEMWB
)

// ForwardingResult contains forwarding decisions for both source operands.
type ForwardingResult struct {
	ForwardRs1 ForwardingSource
	ForwardRs2 ForwardingSource
}

// DetectForwarding determines whether EX should substitute a forwarded
// value for the instruction currently in ID/EX. EX/MEM has priority
// over MEM/WB on a tie, since it holds the more recently produced
// value.
func (h *HazardUnit) DetectForwarding(idex *IDEXRegister, exmem *EXMEMRegister, memwb *MEMWBRegister) ForwardingResult {
	result := ForwardingResult{}

	if !idex.Valid {
		return result
	}

	if idex.Rs1 != 0 {
		switch {
		case exmem.Valid && exmem.RegWrite && exmem.Rd == idex.Rs1:
			result.ForwardRs1 = ForwardFromEXMEM
		case memwb.Valid && memwb.RegWrite && memwb.Rd == idex.Rs1:
			result.ForwardRs1 = ForwardFromMEMWB
		}
	}

	if idex.Rs2 != 0 {
		switch {
		case exmem.Valid && exmem.RegWrite && exmem.Rd == idex.Rs2:
			result.ForwardRs2 = ForwardFromEXMEM
		case memwb.Valid && memwb.RegWrite && memwb.Rd == idex.Rs2:
			result.ForwardRs2 = ForwardFromMEMWB
		}
	}

	return result
}

// DetectLoadUseHazardDecoded reports whether the load currently in
// ID/EX (destination loadRd) must stall the instruction now in IF/ID
// because that instruction reads loadRd before the load's value is
// available via forwarding.
func (h *HazardUnit) DetectLoadUseHazardDecoded(loadRd, nextRs1, nextRs2 uint8, nextUsesRs1, nextUsesRs2 bool) bool {
	if loadRd == 0 {
		return false
	}
	if nextUsesRs1 && nextRs1 == loadRd {
		return true
	}
	if nextUsesRs2 && nextRs2 == loadRd {
		return true
	}
	return false
}

// GetForwardedValue resolves a forwarding decision to an actual value.
func (h *HazardUnit) GetForwardedValue(source ForwardingSource, originalValue uint32, exmem *EXMEMRegister, memwb *MEMWBRegister) uint32 {
	switch source {
	case ForwardFromEXMEM:
		return exmem.ALUResult
	case ForwardFromMEMWB:
		if memwb.MemToReg {
			return memwb.MemData
		}
		return memwb.ALUResult
	default:
		return originalValue
	}
}

// ForwardToDecode implements the WB-to-ID forwarding path: when the
// instruction committing in MEM/WB this cycle writes a register that
// the instruction now in decode reads, and neither ID/EX nor EX/MEM
// (pre-shift, this cycle's values) already targets that same register
// with a more recent write, the committed value is substituted for the
// stale start-of-cycle register-file snapshot. This closes the window
// where, immediately after a load-use stall resolves, the dependent
// instruction's decode would otherwise read stale data: the register
// file mutation and the decode read happen in the same cycle, and
// decode reads the architectural state as of the start of the cycle
// unless this path patches it.
func (h *HazardUnit) ForwardToDecode(reg uint8, used bool, idex *IDEXRegister, exmem *EXMEMRegister, memwb *MEMWBRegister) (uint32, bool) {
	if !used || reg == 0 {
		return 0, false
	}
	if idex.Valid && idex.RegWrite && idex.Rd == reg {
		return 0, false
	}
	if exmem.Valid && exmem.RegWrite && exmem.Rd == reg {
		return 0, false
	}
	if memwb.Valid && memwb.RegWrite && memwb.Rd == reg {
		if memwb.MemToReg {
			return memwb.MemData, true
		}
		return memwb.ALUResult, true
	}
	return 0, false
}

// syscallOperandRegs are the RV32 Linux syscall ABI registers an ecall
// reads directly out of the register file when it reaches EX: a0-a2
// (arguments) and a7 (syscall number). ECALL encodes none of these as
// rs1/rs2 in the instruction word, so the ordinary decoded-operand
// forwarding path can never reach them.
var syscallOperandRegs = [4]uint8{emu.RegA0, emu.RegA1, emu.RegA2, emu.RegA7}

// DetectSyscallOperandHazard reports whether an ecall now in IF/ID must
// stall in decode because an instruction ahead of it, still in ID/EX or
// EX/MEM, will write one of the syscall ABI registers before it
// commits. ecall reads a0-a2/a7 straight from the register file once it
// reaches EX rather than through rs1/rs2 forwarding, so it must wait
// until those producers have cleared EX/MEM; anything already in
// MEM/WB has already committed by the time decode runs this cycle,
// since writeback happens earlier in the same Tick.
func (h *HazardUnit) DetectSyscallOperandHazard(isSyscall bool, idex *IDEXRegister, exmem *EXMEMRegister) bool {
	if !isSyscall {
		return false
	}
	for _, reg := range syscallOperandRegs {
		if idex.Valid && idex.RegWrite && idex.Rd == reg {
			return true
		}
		if exmem.Valid && exmem.RegWrite && exmem.Rd == reg {
			return true
		}
	}
	return false
}

// StallResult indicates what pipeline actions are needed this cycle.
type StallResult struct {
	StallIF        bool
	StallID        bool
	InsertBubbleEX bool
}

// ComputeStalls determines the stall actions needed for a decode-stage
// hazard — a load-use hazard or a syscall-operand hazard, both of which
// require holding the instruction in IF/ID and bubbling ID/EX for one
// cycle. Flushing on control-flow resolution (branch misprediction or
// JAL/JALR) is handled directly by Pipeline.Tick, since it also needs
// to set the recovery PC.
func (h *HazardUnit) ComputeStalls(decodeHazard bool) StallResult {
	if !decodeHazard {
		return StallResult{}
	}
	return StallResult{
		StallIF:        true,
		StallID:        true,
		InsertBubbleEX: true,
	}
}
