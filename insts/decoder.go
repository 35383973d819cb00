package insts

// Op represents an RV32I opcode (the operation actually performed, not
// the raw 7-bit opcode field).
type Op uint16

// RV32I opcodes.
const (
	OpUnknown Op = iota

	OpLUI
	OpAUIPC

	OpJAL
	OpJALR

	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU

	OpLB
	OpLH
	OpLW
	OpLBU
	OpLHU

	OpSB
	OpSH
	OpSW

	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI

	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND

	OpECALL
	OpEBREAK
)

// Format represents an instruction encoding format.
type Format uint8

// RV32I instruction formats.
const (
	FormatUnknown Format = iota
	FormatR
	FormatI
	FormatILoad
	FormatIJump // JALR
	FormatS
	FormatB
	FormatU
	FormatJ
	FormatSystem
)

// Raw opcode field values (bits [6:0] of the instruction word).
const (
	opcodeLUI      = 0x37
	opcodeAUIPC    = 0x17
	opcodeJAL      = 0x6F
	opcodeJALR     = 0x67
	opcodeBranch   = 0x63
	opcodeLoad     = 0x03
	opcodeStore    = 0x23
	opcodeOpImm    = 0x13
	opcodeOp       = 0x33
	opcodeSystem   = 0x73
)

// Instruction is a decoded RV32I instruction.
type Instruction struct {
	Op     Op
	Format Format

	Rd  uint8
	Rs1 uint8
	Rs2 uint8

	// Imm holds the sign-extended immediate. For U-type instructions it
	// holds the already-shifted upper-20-bits value (word & 0xFFFFF000),
	// reinterpreted as a signed 32-bit quantity.
	Imm int32

	Raw uint32
}

// IsNop reports whether the instruction is the canonical RV32I NOP,
// encoded as ADDI x0, x0, 0.
func (inst *Instruction) IsNop() bool {
	return inst.Op == OpADDI && inst.Rd == 0 && inst.Rs1 == 0 && inst.Imm == 0
}

// IsBranch reports whether the instruction is a conditional branch
// (B-type). JAL/JALR are unconditional jumps and are not branches.
func (inst *Instruction) IsBranch() bool {
	switch inst.Op {
	case OpBEQ, OpBNE, OpBLT, OpBGE, OpBLTU, OpBGEU:
		return true
	default:
		return false
	}
}

// IsJump reports whether the instruction is an unconditional jump
// (JAL or JALR).
func (inst *Instruction) IsJump() bool {
	return inst.Op == OpJAL || inst.Op == OpJALR
}

// IsLoad reports whether the instruction reads memory.
func (inst *Instruction) IsLoad() bool {
	switch inst.Op {
	case OpLB, OpLH, OpLW, OpLBU, OpLHU:
		return true
	default:
		return false
	}
}

// IsStore reports whether the instruction writes memory.
func (inst *Instruction) IsStore() bool {
	switch inst.Op {
	case OpSB, OpSH, OpSW:
		return true
	default:
		return false
	}
}

// WritesRd reports whether the instruction writes a destination register.
// x0 as a destination is architecturally a discard, but the control
// signal itself is independent of which register number is named.
func (inst *Instruction) WritesRd() bool {
	switch inst.Op {
	case OpSB, OpSH, OpSW, OpBEQ, OpBNE, OpBLT, OpBGE, OpBLTU, OpBGEU,
		OpECALL, OpEBREAK, OpUnknown:
		return false
	default:
		return true
	}
}

// Decoder decodes RV32I machine words into Instructions. It holds no
// state and may be used concurrently; Decode may be called any number
// of times per cycle with no side effects.
type Decoder struct{}

// NewDecoder creates a new Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit RV32I instruction word. Instructions that do
// not match any recognized encoding decode to Op: OpUnknown,
// Format: FormatUnknown; Decode never returns an error, matching the
// base ISA's total decode-or-reject contract described for the caller.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{Raw: word}

	opcode := word & 0x7F
	rd := uint8((word >> 7) & 0x1F)
	funct3 := (word >> 12) & 0x7
	rs1 := uint8((word >> 15) & 0x1F)
	rs2 := uint8((word >> 20) & 0x1F)
	funct7 := (word >> 25) & 0x7F

	switch opcode {
	case opcodeLUI:
		inst.Format = FormatU
		inst.Op = OpLUI
		inst.Rd = rd
		inst.Imm = decodeUImm(word)

	case opcodeAUIPC:
		inst.Format = FormatU
		inst.Op = OpAUIPC
		inst.Rd = rd
		inst.Imm = decodeUImm(word)

	case opcodeJAL:
		inst.Format = FormatJ
		inst.Op = OpJAL
		inst.Rd = rd
		inst.Imm = decodeJImm(word)

	case opcodeJALR:
		if funct3 == 0 {
			inst.Format = FormatIJump
			inst.Op = OpJALR
			inst.Rd = rd
			inst.Rs1 = rs1
			inst.Imm = decodeIImm(word)
		}

	case opcodeBranch:
		inst.Format = FormatB
		inst.Rs1 = rs1
		inst.Rs2 = rs2
		inst.Imm = decodeBImm(word)
		switch funct3 {
		case 0x0:
			inst.Op = OpBEQ
		case 0x1:
			inst.Op = OpBNE
		case 0x4:
			inst.Op = OpBLT
		case 0x5:
			inst.Op = OpBGE
		case 0x6:
			inst.Op = OpBLTU
		case 0x7:
			inst.Op = OpBGEU
		}

	case opcodeLoad:
		inst.Format = FormatILoad
		inst.Rd = rd
		inst.Rs1 = rs1
		inst.Imm = decodeIImm(word)
		switch funct3 {
		case 0x0:
			inst.Op = OpLB
		case 0x1:
			inst.Op = OpLH
		case 0x2:
			inst.Op = OpLW
		case 0x4:
			inst.Op = OpLBU
		case 0x5:
			inst.Op = OpLHU
		}

	case opcodeStore:
		inst.Format = FormatS
		inst.Rs1 = rs1
		inst.Rs2 = rs2
		inst.Imm = decodeSImm(word)
		switch funct3 {
		case 0x0:
			inst.Op = OpSB
		case 0x1:
			inst.Op = OpSH
		case 0x2:
			inst.Op = OpSW
		}

	case opcodeOpImm:
		inst.Format = FormatI
		inst.Rd = rd
		inst.Rs1 = rs1
		switch funct3 {
		case 0x0:
			inst.Op = OpADDI
			inst.Imm = decodeIImm(word)
		case 0x2:
			inst.Op = OpSLTI
			inst.Imm = decodeIImm(word)
		case 0x3:
			inst.Op = OpSLTIU
			inst.Imm = decodeIImm(word)
		case 0x4:
			inst.Op = OpXORI
			inst.Imm = decodeIImm(word)
		case 0x6:
			inst.Op = OpORI
			inst.Imm = decodeIImm(word)
		case 0x7:
			inst.Op = OpANDI
			inst.Imm = decodeIImm(word)
		case 0x1:
			if funct7 == 0x00 {
				inst.Op = OpSLLI
				inst.Imm = int32(rs2) // shamt lives in the rs2 field
			}
		case 0x5:
			shamt := int32(rs2)
			switch funct7 {
			case 0x00:
				inst.Op = OpSRLI
				inst.Imm = shamt
			case 0x20:
				inst.Op = OpSRAI
				inst.Imm = shamt
			}
		}

	case opcodeOp:
		inst.Format = FormatR
		inst.Rd = rd
		inst.Rs1 = rs1
		inst.Rs2 = rs2
		switch {
		case funct3 == 0x0 && funct7 == 0x00:
			inst.Op = OpADD
		case funct3 == 0x0 && funct7 == 0x20:
			inst.Op = OpSUB
		case funct3 == 0x1 && funct7 == 0x00:
			inst.Op = OpSLL
		case funct3 == 0x2 && funct7 == 0x00:
			inst.Op = OpSLT
		case funct3 == 0x3 && funct7 == 0x00:
			inst.Op = OpSLTU
		case funct3 == 0x4 && funct7 == 0x00:
			inst.Op = OpXOR
		case funct3 == 0x5 && funct7 == 0x00:
			inst.Op = OpSRL
		case funct3 == 0x5 && funct7 == 0x20:
			inst.Op = OpSRA
		case funct3 == 0x6 && funct7 == 0x00:
			inst.Op = OpOR
		case funct3 == 0x7 && funct7 == 0x00:
			inst.Op = OpAND
		}

	case opcodeSystem:
		if funct3 == 0 && rd == 0 && rs1 == 0 {
			inst.Format = FormatSystem
			imm12 := (word >> 20) & 0xFFF
			switch imm12 {
			case 0x0:
				inst.Op = OpECALL
			case 0x1:
				inst.Op = OpEBREAK
			}
		}
	}

	if inst.Op == OpUnknown {
		inst.Format = FormatUnknown
	}

	return inst
}

func decodeIImm(word uint32) int32 {
	return int32(word) >> 20
}

func decodeSImm(word uint32) int32 {
	imm := ((word >> 25) << 5) | ((word >> 7) & 0x1F)
	return signExtend(imm, 12)
}

func decodeBImm(word uint32) int32 {
	imm := ((word >> 31) << 12) |
		(((word >> 7) & 0x1) << 11) |
		(((word >> 25) & 0x3F) << 5) |
		(((word >> 8) & 0xF) << 1)
	return signExtend(imm, 13)
}

func decodeUImm(word uint32) int32 {
	return int32(word & 0xFFFFF000)
}

func decodeJImm(word uint32) int32 {
	imm := ((word >> 31) << 20) |
		(((word >> 12) & 0xFF) << 12) |
		(((word >> 20) & 0x1) << 11) |
		(((word >> 21) & 0x3FF) << 1)
	return signExtend(imm, 21)
}

// signExtend sign-extends the low `bits` bits of value to a full int32.
func signExtend(value uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(value<<shift) >> shift
}
