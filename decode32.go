// decode32.go - 32-bit instruction opcode-family decode

package emu64

// 5-bit opcode field values (instr bits [6:2]).
//
// Grounded on other_examples/759cba5a_LMMilewski-riscv-emu__decode.go.go
// and other_examples/7fc0a09e_tinyrange-cc_..._cpu.go.go's opcode/funct
// constant blocks.
const (
	opLoad     = 0b00000
	opLoadFP   = 0b00001
	opMiscMem  = 0b00011
	opOpImm    = 0b00100
	opAuipc    = 0b00101
	opOpImm32  = 0b00110
	opStore    = 0b01000
	opStoreFP  = 0b01001
	opAmo      = 0b01011
	opOp       = 0b01100
	opLui      = 0b01101
	opOp32     = 0b01110
	opMadd     = 0b10000
	opMsub     = 0b10001
	opNmsub    = 0b10010
	opNmadd    = 0b10011
	opOpFP     = 0b10100
	opBranch   = 0b11000
	opJalr     = 0b11001
	opJal      = 0b11011
	opSystem   = 0b11100
)

func opcodeOf(instr uint32) uint32  { return (instr >> 2) & 0x1F }
func rdOf(instr uint32) RegIndex    { return GP(uint8((instr >> 7) & 0x1F)) }
func rs1Of(instr uint32) RegIndex   { return GP(uint8((instr >> 15) & 0x1F)) }
func rs2Of(instr uint32) RegIndex   { return GP(uint8((instr >> 20) & 0x1F)) }
func rs3Of(instr uint32) RegIndex   { return GP(uint8((instr >> 27) & 0x1F)) }
func frdOf(instr uint32) RegIndex   { return FP(uint8((instr >> 7) & 0x1F)) }
func frs1Of(instr uint32) RegIndex  { return FP(uint8((instr >> 15) & 0x1F)) }
func frs2Of(instr uint32) RegIndex  { return FP(uint8((instr >> 20) & 0x1F)) }
func frs3Of(instr uint32) RegIndex  { return FP(uint8((instr >> 27) & 0x1F)) }
func funct3Of(instr uint32) uint32  { return (instr >> 12) & 0x7 }
func funct7Of(instr uint32) uint32  { return (instr >> 25) & 0x7F }
func funct5Of(instr uint32) uint32  { return (instr >> 27) & 0x1F }
func rmOf(instr uint32) RoundingMode { return RoundingMode(funct3Of(instr)) }

// reservedRM reports whether rm is one of the two static encodings the
// F extension never assigns a meaning to (spec.md §4.3); 0b111 (Dynamic)
// is resolved against fcsr at execution time, not rejected here.
func reservedRM(rm RoundingMode) bool {
	return rm == 0b101 || rm == 0b110
}

// decodeRM reads the rounding-mode field and traps immediately on a
// statically reserved encoding.
func (c *CPU) decodeRM(instr uint32, pc uint64) (RoundingMode, bool) {
	rm := rmOf(instr)
	if reservedRM(rm) {
		c.RequestTrap(CauseIllegalInstruction, pc)
		return 0, false
	}
	return rm, true
}
func csrAddrOf(instr uint32) uint16 { return uint16(instr >> 20) }

func (c *CPU) decode32(instr uint32, pc uint64) (Instr, bool) {
	switch opcodeOf(instr) {
	case opLoad:
		return c.decodeLoad(instr, pc)
	case opLoadFP:
		return c.decodeLoadFP(instr, pc)
	case opMiscMem:
		return Instr{Family: FamInteger, Op: OpFence}, true
	case opOpImm:
		return c.decodeOpImm(instr, pc)
	case opAuipc:
		return Instr{Family: FamInteger, Op: OpAuipc, Rd: rdOf(instr), Imm: decodeImmU(instr)}, true
	case opOpImm32:
		return c.decodeOpImm32(instr, pc)
	case opStore:
		return c.decodeStore(instr, pc)
	case opStoreFP:
		return c.decodeStoreFP(instr, pc)
	case opAmo:
		return c.decodeAmo(instr, pc)
	case opOp:
		return c.decodeOp(instr, pc)
	case opLui:
		return Instr{Family: FamInteger, Op: OpLui, Rd: rdOf(instr), Imm: decodeImmU(instr)}, true
	case opOp32:
		return c.decodeOp32(instr, pc)
	case opMadd, opMsub, opNmsub, opNmadd:
		return c.decodeFusedMul(instr, pc)
	case opOpFP:
		return c.decodeOpFP(instr, pc)
	case opBranch:
		return c.decodeBranch(instr, pc)
	case opJalr:
		if funct3Of(instr) != 0 {
			c.RequestTrap(CauseIllegalInstruction, pc)
			return Instr{}, false
		}
		return Instr{Family: FamInteger, Op: OpJalr, Rd: rdOf(instr), Rs1: rs1Of(instr), Imm: decodeImmI(instr)}, true
	case opJal:
		return Instr{Family: FamInteger, Op: OpJal, Rd: rdOf(instr), Imm: decodeImmJ(instr)}, true
	case opSystem:
		return c.decodeSystem(instr, pc)
	default:
		c.RequestTrap(CauseIllegalInstruction, pc)
		return Instr{}, false
	}
}

func (c *CPU) requireExt(ext Extension, pc uint64) bool {
	if !c.ext.Has(ext) {
		c.RequestTrap(CauseIllegalInstruction, pc)
		return false
	}
	return true
}

func (c *CPU) decodeLoad(instr uint32, pc uint64) (Instr, bool) {
	var op Op
	switch funct3Of(instr) {
	case 0b000:
		op = OpLb
	case 0b001:
		op = OpLh
	case 0b010:
		op = OpLw
	case 0b011:
		op = OpLd
	case 0b100:
		op = OpLbu
	case 0b101:
		op = OpLhu
	case 0b110:
		op = OpLwu
	default:
		c.RequestTrap(CauseIllegalInstruction, pc)
		return Instr{}, false
	}
	return Instr{Family: FamInteger, Op: op, Rd: rdOf(instr), Rs1: rs1Of(instr), Imm: decodeImmI(instr)}, true
}

func (c *CPU) decodeStore(instr uint32, pc uint64) (Instr, bool) {
	var op Op
	switch funct3Of(instr) {
	case 0b000:
		op = OpSb
	case 0b001:
		op = OpSh
	case 0b010:
		op = OpSw
	case 0b011:
		op = OpSd
	default:
		c.RequestTrap(CauseIllegalInstruction, pc)
		return Instr{}, false
	}
	return Instr{Family: FamInteger, Op: op, Rs1: rs1Of(instr), Rs2: rs2Of(instr), Imm: decodeImmS(instr)}, true
}

func (c *CPU) decodeOpImm(instr uint32, pc uint64) (Instr, bool) {
	f3 := funct3Of(instr)
	shamt := uint8((instr >> 20) & 0x3F)
	switch f3 {
	case 0b000:
		return Instr{Family: FamInteger, Op: OpAddI, Rd: rdOf(instr), Rs1: rs1Of(instr), Imm: decodeImmI(instr)}, true
	case 0b010:
		return Instr{Family: FamInteger, Op: OpSltI, Rd: rdOf(instr), Rs1: rs1Of(instr), Imm: decodeImmI(instr)}, true
	case 0b011:
		return Instr{Family: FamInteger, Op: OpSltuI, Rd: rdOf(instr), Rs1: rs1Of(instr), Imm: decodeImmI(instr)}, true
	case 0b100:
		return Instr{Family: FamInteger, Op: OpXorI, Rd: rdOf(instr), Rs1: rs1Of(instr), Imm: decodeImmI(instr)}, true
	case 0b110:
		return Instr{Family: FamInteger, Op: OpOrI, Rd: rdOf(instr), Rs1: rs1Of(instr), Imm: decodeImmI(instr)}, true
	case 0b111:
		return Instr{Family: FamInteger, Op: OpAndI, Rd: rdOf(instr), Rs1: rs1Of(instr), Imm: decodeImmI(instr)}, true
	case 0b001:
		return Instr{Family: FamInteger, Op: OpSllI, Rd: rdOf(instr), Rs1: rs1Of(instr), Shamt: shamt}, true
	case 0b101:
		if funct7Of(instr)>>1 == 0b010000 {
			return Instr{Family: FamInteger, Op: OpSraI, Rd: rdOf(instr), Rs1: rs1Of(instr), Shamt: shamt}, true
		}
		return Instr{Family: FamInteger, Op: OpSrlI, Rd: rdOf(instr), Rs1: rs1Of(instr), Shamt: shamt}, true
	default:
		c.RequestTrap(CauseIllegalInstruction, pc)
		return Instr{}, false
	}
}

func (c *CPU) decodeOpImm32(instr uint32, pc uint64) (Instr, bool) {
	f3 := funct3Of(instr)
	shamt := uint8((instr >> 20) & 0x1F)
	switch f3 {
	case 0b000:
		return Instr{Family: FamInteger, Op: OpAddIW, Rd: rdOf(instr), Rs1: rs1Of(instr), Imm: decodeImmI(instr)}, true
	case 0b001:
		return Instr{Family: FamInteger, Op: OpSllIW, Rd: rdOf(instr), Rs1: rs1Of(instr), Shamt: shamt}, true
	case 0b101:
		if funct7Of(instr) == 0b0100000 {
			return Instr{Family: FamInteger, Op: OpSraIW, Rd: rdOf(instr), Rs1: rs1Of(instr), Shamt: shamt}, true
		}
		return Instr{Family: FamInteger, Op: OpSrlIW, Rd: rdOf(instr), Rs1: rs1Of(instr), Shamt: shamt}, true
	default:
		c.RequestTrap(CauseIllegalInstruction, pc)
		return Instr{}, false
	}
}

func (c *CPU) decodeOp(instr uint32, pc uint64) (Instr, bool) {
	f3, f7 := funct3Of(instr), funct7Of(instr)
	rd, rs1, rs2 := rdOf(instr), rs1Of(instr), rs2Of(instr)
	if f7 == 0b0000001 {
		if !c.requireExt(ExtM, pc) {
			return Instr{}, false
		}
		var op Op
		switch f3 {
		case 0b000:
			op = OpMul
		case 0b001:
			op = OpMulh
		case 0b010:
			op = OpMulhsu
		case 0b011:
			op = OpMulhu
		case 0b100:
			op = OpDiv
		case 0b101:
			op = OpDivu
		case 0b110:
			op = OpRem
		case 0b111:
			op = OpRemu
		}
		return Instr{Family: FamInteger, Op: op, Rd: rd, Rs1: rs1, Rs2: rs2}, true
	}
	switch f3 {
	case 0b000:
		if f7 == 0b0100000 {
			return Instr{Family: FamInteger, Op: OpSub, Rd: rd, Rs1: rs1, Rs2: rs2}, true
		}
		return Instr{Family: FamInteger, Op: OpAdd, Rd: rd, Rs1: rs1, Rs2: rs2}, true
	case 0b001:
		return Instr{Family: FamInteger, Op: OpSll, Rd: rd, Rs1: rs1, Rs2: rs2}, true
	case 0b010:
		return Instr{Family: FamInteger, Op: OpSlt, Rd: rd, Rs1: rs1, Rs2: rs2}, true
	case 0b011:
		return Instr{Family: FamInteger, Op: OpSltu, Rd: rd, Rs1: rs1, Rs2: rs2}, true
	case 0b100:
		return Instr{Family: FamInteger, Op: OpXor, Rd: rd, Rs1: rs1, Rs2: rs2}, true
	case 0b101:
		if f7 == 0b0100000 {
			return Instr{Family: FamInteger, Op: OpSra, Rd: rd, Rs1: rs1, Rs2: rs2}, true
		}
		return Instr{Family: FamInteger, Op: OpSrl, Rd: rd, Rs1: rs1, Rs2: rs2}, true
	case 0b110:
		return Instr{Family: FamInteger, Op: OpOr, Rd: rd, Rs1: rs1, Rs2: rs2}, true
	case 0b111:
		return Instr{Family: FamInteger, Op: OpAnd, Rd: rd, Rs1: rs1, Rs2: rs2}, true
	}
	c.RequestTrap(CauseIllegalInstruction, pc)
	return Instr{}, false
}

func (c *CPU) decodeOp32(instr uint32, pc uint64) (Instr, bool) {
	f3, f7 := funct3Of(instr), funct7Of(instr)
	rd, rs1, rs2 := rdOf(instr), rs1Of(instr), rs2Of(instr)
	if f7 == 0b0000001 {
		if !c.requireExt(ExtM, pc) {
			return Instr{}, false
		}
		var op Op
		switch f3 {
		case 0b000:
			op = OpMulw
		case 0b100:
			op = OpDivw
		case 0b101:
			op = OpDivuw
		case 0b110:
			op = OpRemw
		case 0b111:
			op = OpRemuw
		default:
			c.RequestTrap(CauseIllegalInstruction, pc)
			return Instr{}, false
		}
		return Instr{Family: FamInteger, Op: op, Rd: rd, Rs1: rs1, Rs2: rs2}, true
	}
	switch f3 {
	case 0b000:
		if f7 == 0b0100000 {
			return Instr{Family: FamInteger, Op: OpSubw, Rd: rd, Rs1: rs1, Rs2: rs2}, true
		}
		return Instr{Family: FamInteger, Op: OpAddw, Rd: rd, Rs1: rs1, Rs2: rs2}, true
	case 0b001:
		return Instr{Family: FamInteger, Op: OpSllw, Rd: rd, Rs1: rs1, Rs2: rs2}, true
	case 0b101:
		if f7 == 0b0100000 {
			return Instr{Family: FamInteger, Op: OpSraw, Rd: rd, Rs1: rs1, Rs2: rs2}, true
		}
		return Instr{Family: FamInteger, Op: OpSrlw, Rd: rd, Rs1: rs1, Rs2: rs2}, true
	}
	c.RequestTrap(CauseIllegalInstruction, pc)
	return Instr{}, false
}

func (c *CPU) decodeBranch(instr uint32, pc uint64) (Instr, bool) {
	var op Op
	switch funct3Of(instr) {
	case 0b000:
		op = OpBeq
	case 0b001:
		op = OpBne
	case 0b100:
		op = OpBlt
	case 0b101:
		op = OpBge
	case 0b110:
		op = OpBltu
	case 0b111:
		op = OpBgeu
	default:
		c.RequestTrap(CauseIllegalInstruction, pc)
		return Instr{}, false
	}
	return Instr{Family: FamInteger, Op: op, Rs1: rs1Of(instr), Rs2: rs2Of(instr), Imm: decodeImmB(instr)}, true
}

func (c *CPU) decodeSystem(instr uint32, pc uint64) (Instr, bool) {
	f3 := funct3Of(instr)
	if f3 == 0 {
		switch instr >> 20 {
		case 0x000:
			return Instr{Family: FamSystem, Op: OpECall}, true
		case 0x001:
			return Instr{Family: FamSystem, Op: OpEBreak}, true
		default:
			c.RequestTrap(CauseIllegalInstruction, pc)
			return Instr{}, false
		}
	}
	var op Op
	switch f3 {
	case 0b001:
		op = OpCSRRW
	case 0b010:
		op = OpCSRRS
	case 0b011:
		op = OpCSRRC
	case 0b101:
		op = OpCSRRWI
	case 0b110:
		op = OpCSRRSI
	case 0b111:
		op = OpCSRRCI
	default:
		c.RequestTrap(CauseIllegalInstruction, pc)
		return Instr{}, false
	}
	in := Instr{Family: FamCSR, Op: op, Rd: rdOf(instr), CSR: csrAddrOf(instr)}
	if f3 >= 0b101 {
		in.UImm = uint8(rs1Of(instr).Num())
	} else {
		in.Rs1 = rs1Of(instr)
	}
	return in, true
}

func (c *CPU) decodeAmo(instr uint32, pc uint64) (Instr, bool) {
	if !c.requireExt(ExtA, pc) {
		return Instr{}, false
	}
	width := funct3Of(instr)
	if width != 0b010 && width != 0b011 {
		c.RequestTrap(CauseIllegalInstruction, pc)
		return Instr{}, false
	}
	isWord := width == 0b010
	f5 := funct5Of(instr)
	aq := instr&(1<<26) != 0
	rl := instr&(1<<25) != 0

	var op Op
	switch f5 {
	case 0b00010:
		op = pick(isWord, OpLRW, OpLRD)
	case 0b00011:
		op = pick(isWord, OpSCW, OpSCD)
	case 0b00001:
		op = pick(isWord, OpAmoswapW, OpAmoswapD)
	case 0b00000:
		op = pick(isWord, OpAmoaddW, OpAmoaddD)
	case 0b00100:
		op = pick(isWord, OpAmoxorW, OpAmoxorD)
	case 0b01100:
		op = pick(isWord, OpAmoandW, OpAmoandD)
	case 0b01000:
		op = pick(isWord, OpAmoorW, OpAmoorD)
	case 0b10000:
		op = pick(isWord, OpAmominW, OpAmominD)
	case 0b10100:
		op = pick(isWord, OpAmomaxW, OpAmomaxD)
	case 0b11000:
		op = pick(isWord, OpAmominuW, OpAmominuD)
	case 0b11100:
		op = pick(isWord, OpAmomaxuW, OpAmomaxuD)
	default:
		c.RequestTrap(CauseIllegalInstruction, pc)
		return Instr{}, false
	}
	return Instr{Family: FamAtomic, Op: op, Rd: rdOf(instr), Rs1: rs1Of(instr), Rs2: rs2Of(instr), Aq: aq, Rl: rl}, true
}

func pick(cond bool, a, b Op) Op {
	if cond {
		return a
	}
	return b
}

func (c *CPU) decodeLoadFP(instr uint32, pc uint64) (Instr, bool) {
	if !c.requireExt(ExtF, pc) {
		return Instr{}, false
	}
	if funct3Of(instr) != 0b010 {
		c.RequestTrap(CauseIllegalInstruction, pc)
		return Instr{}, false
	}
	return Instr{Family: FamFloat, Op: OpFlw, Rd: frdOf(instr), Rs1: rs1Of(instr), Imm: decodeImmI(instr)}, true
}

func (c *CPU) decodeStoreFP(instr uint32, pc uint64) (Instr, bool) {
	if !c.requireExt(ExtF, pc) {
		return Instr{}, false
	}
	if funct3Of(instr) != 0b010 {
		c.RequestTrap(CauseIllegalInstruction, pc)
		return Instr{}, false
	}
	return Instr{Family: FamFloat, Op: OpFsw, Rs1: rs1Of(instr), Rs2: frs2Of(instr), Imm: decodeImmS(instr)}, true
}

func (c *CPU) decodeFusedMul(instr uint32, pc uint64) (Instr, bool) {
	if !c.requireExt(ExtF, pc) {
		return Instr{}, false
	}
	var op Op
	switch opcodeOf(instr) {
	case opMadd:
		op = OpFmaddS
	case opMsub:
		op = OpFmsubS
	case opNmsub:
		op = OpFnmsubS
	case opNmadd:
		op = OpFnmaddS
	}
	rm, ok := c.decodeRM(instr, pc)
	if !ok {
		return Instr{}, false
	}
	return Instr{Family: FamFloat, Op: op, Rd: frdOf(instr), Rs1: frs1Of(instr), Rs2: frs2Of(instr), Rs3: frs3Of(instr), RM: rm}, true
}

func (c *CPU) decodeOpFP(instr uint32, pc uint64) (Instr, bool) {
	if !c.requireExt(ExtF, pc) {
		return Instr{}, false
	}
	f7 := funct7Of(instr)
	f3 := funct3Of(instr)
	rd, rs1, rs2 := frdOf(instr), frs1Of(instr), frs2Of(instr)
	switch f7 {
	case 0b0000000:
		rm, ok := c.decodeRM(instr, pc)
		if !ok {
			return Instr{}, false
		}
		return Instr{Family: FamFloat, Op: OpFaddS, Rd: rd, Rs1: rs1, Rs2: rs2, RM: rm}, true
	case 0b0000100:
		rm, ok := c.decodeRM(instr, pc)
		if !ok {
			return Instr{}, false
		}
		return Instr{Family: FamFloat, Op: OpFsubS, Rd: rd, Rs1: rs1, Rs2: rs2, RM: rm}, true
	case 0b0001000:
		rm, ok := c.decodeRM(instr, pc)
		if !ok {
			return Instr{}, false
		}
		return Instr{Family: FamFloat, Op: OpFmulS, Rd: rd, Rs1: rs1, Rs2: rs2, RM: rm}, true
	case 0b0001100:
		rm, ok := c.decodeRM(instr, pc)
		if !ok {
			return Instr{}, false
		}
		return Instr{Family: FamFloat, Op: OpFdivS, Rd: rd, Rs1: rs1, Rs2: rs2, RM: rm}, true
	case 0b0101100:
		rm, ok := c.decodeRM(instr, pc)
		if !ok {
			return Instr{}, false
		}
		return Instr{Family: FamFloat, Op: OpFsqrtS, Rd: rd, Rs1: rs1, RM: rm}, true
	case 0b0010000:
		switch f3 {
		case 0b000:
			return Instr{Family: FamFloat, Op: OpFsgnjS, Rd: rd, Rs1: rs1, Rs2: rs2}, true
		case 0b001:
			return Instr{Family: FamFloat, Op: OpFsgnjnS, Rd: rd, Rs1: rs1, Rs2: rs2}, true
		case 0b010:
			return Instr{Family: FamFloat, Op: OpFsgnjxS, Rd: rd, Rs1: rs1, Rs2: rs2}, true
		}
	case 0b0010100:
		if f3 == 0 {
			return Instr{Family: FamFloat, Op: OpFminS, Rd: rd, Rs1: rs1, Rs2: rs2}, true
		}
		return Instr{Family: FamFloat, Op: OpFmaxS, Rd: rd, Rs1: rs1, Rs2: rs2}, true
	case 0b1100000:
		gprRd := rdOf(instr)
		rm, ok := c.decodeRM(instr, pc)
		if !ok {
			return Instr{}, false
		}
		if rs2Of(instr).Num() == 0 {
			return Instr{Family: FamFloat, Op: OpFcvtWS, Rd: gprRd, Rs1: rs1, RM: rm}, true
		}
		return Instr{Family: FamFloat, Op: OpFcvtWuS, Rd: gprRd, Rs1: rs1, RM: rm}, true
	case 0b1110000:
		// fmv.x.w and fclass.s share this funct7 and are distinguished by
		// funct3 (000 -> fmv.x.w, 001 -> fclass.s).
		gprRd := rdOf(instr)
		switch f3 {
		case 0b000:
			return Instr{Family: FamFloat, Op: OpFmvXW, Rd: gprRd, Rs1: rs1}, true
		case 0b001:
			return Instr{Family: FamFloat, Op: OpFclassS, Rd: gprRd, Rs1: rs1}, true
		}
	case 0b1010000:
		gprRd := rdOf(instr)
		switch f3 {
		case 0b010:
			return Instr{Family: FamFloat, Op: OpFeqS, Rd: gprRd, Rs1: rs1, Rs2: rs2}, true
		case 0b001:
			return Instr{Family: FamFloat, Op: OpFltS, Rd: gprRd, Rs1: rs1, Rs2: rs2}, true
		case 0b000:
			return Instr{Family: FamFloat, Op: OpFleS, Rd: gprRd, Rs1: rs1, Rs2: rs2}, true
		}
	case 0b1101000:
		gprRs1 := rs1Of(instr)
		rm, ok := c.decodeRM(instr, pc)
		if !ok {
			return Instr{}, false
		}
		if rs2Of(instr).Num() == 0 {
			return Instr{Family: FamFloat, Op: OpFcvtSW, Rd: rd, Rs1: gprRs1, RM: rm}, true
		}
		return Instr{Family: FamFloat, Op: OpFcvtSWu, Rd: rd, Rs1: gprRs1, RM: rm}, true
	case 0b1111000:
		gprRs1 := rs1Of(instr)
		return Instr{Family: FamFloat, Op: OpFmvWX, Rd: rd, Rs1: gprRs1}, true
	}
	c.RequestTrap(CauseIllegalInstruction, pc)
	return Instr{}, false
}
