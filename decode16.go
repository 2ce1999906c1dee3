// decode16.go - 16-bit compressed instruction decode

package emu64

// compressedReg maps a compressed 3-bit register field (c.*'s rs1'/rs2'/
// rd' operands) to the full 5-bit register number x8..x15.
func compressedReg(field uint16) RegIndex {
	return GP(uint8(field&0x7) + 8)
}

func quadrant(instr uint16) uint16  { return instr & 0x3 }
func c16Funct3(instr uint16) uint16 { return (instr >> 13) & 0x7 }

// decode16 expands a 16-bit compressed instruction into its full integer
// equivalent and dispatches it through the same FamInteger executor plain
// ADDI/etc. instructions use. A distinguished NOP expansion is kept for
// the all-zero c.nop encoding so it is never folded into a register-zero
// ADDI at the instruction-record level (per spec.md §4.1).
//
// Grounded on other_examples/.../insn16/mod.rs (via original_source/) for
// the reserved-encoding traps on several all-zero-immediate forms
// (SPEC_FULL §10); bit layouts follow the RISC-V ISA manual's C-extension
// chapter as assembled by immediates.go's decodeImmC* helpers.
func (c *CPU) decode16(instr uint16, pc uint64) (Instr, bool) {
	if !c.requireExt16(pc) {
		return Instr{}, false
	}
	switch quadrant(instr) {
	case 0b00:
		return c.decode16Quadrant0(instr, pc)
	case 0b01:
		return c.decode16Quadrant1(instr, pc)
	case 0b10:
		return c.decode16Quadrant2(instr, pc)
	default:
		c.RequestTrap(CauseIllegalInstruction, pc)
		return Instr{}, false
	}
}

func (c *CPU) requireExt16(pc uint64) bool {
	return c.requireExt(ExtC, pc)
}

func (c *CPU) decode16Quadrant0(instr uint16, pc uint64) (Instr, bool) {
	f3 := c16Funct3(instr)
	rdp := compressedReg(instr >> 2)
	rs1p := compressedReg(instr >> 7)
	switch f3 {
	case 0b000: // c.addi4spn
		nzuimm := decodeImmCIW(instr)
		if nzuimm == 0 {
			c.RequestTrap(CauseIllegalInstruction, pc) // reserved
			return Instr{}, false
		}
		return Instr{Family: FamInteger, Op: OpAddI, Rd: rdp, Rs1: GP(RegSP), Imm: int64(nzuimm)}, true
	case 0b010: // c.lw
		return Instr{Family: FamInteger, Op: OpLw, Rd: rdp, Rs1: rs1p, Imm: int64(decodeImmCLSW(instr))}, true
	case 0b011: // c.ld
		return Instr{Family: FamInteger, Op: OpLd, Rd: rdp, Rs1: rs1p, Imm: int64(decodeImmCLSD(instr))}, true
	case 0b110: // c.sw
		rs2p := compressedReg(instr >> 2)
		return Instr{Family: FamInteger, Op: OpSw, Rs1: rs1p, Rs2: rs2p, Imm: int64(decodeImmCLSW(instr))}, true
	case 0b111: // c.sd
		rs2p := compressedReg(instr >> 2)
		return Instr{Family: FamInteger, Op: OpSd, Rs1: rs1p, Rs2: rs2p, Imm: int64(decodeImmCLSD(instr))}, true
	default:
		c.RequestTrap(CauseIllegalInstruction, pc)
		return Instr{}, false
	}
}

func (c *CPU) decode16Quadrant1(instr uint16, pc uint64) (Instr, bool) {
	f3 := c16Funct3(instr)
	rd := GP(uint8((instr >> 7) & 0x1F))
	switch f3 {
	case 0b000: // c.addi / c.nop
		imm := decodeImmCI(instr)
		if rd.IsZero() && imm == 0 { // c.nop: the all-zero encoding
			return Instr{Family: FamInteger, Op: OpNop}, true
		}
		return Instr{Family: FamInteger, Op: OpAddI, Rd: rd, Rs1: rd, Imm: imm}, true
	case 0b001: // c.addiw
		if rd.IsZero() {
			c.RequestTrap(CauseIllegalInstruction, pc) // reserved
			return Instr{}, false
		}
		imm := decodeImmCI(instr)
		return Instr{Family: FamInteger, Op: OpAddIW, Rd: rd, Rs1: rd, Imm: imm}, true
	case 0b010: // c.li
		imm := decodeImmCI(instr)
		return Instr{Family: FamInteger, Op: OpAddI, Rd: rd, Rs1: GP(RegZero), Imm: imm}, true
	case 0b011:
		if rd.Num() == RegSP { // c.addi16sp
			imm := decodeImmCAddi16sp(instr)
			if imm == 0 {
				c.RequestTrap(CauseIllegalInstruction, pc)
				return Instr{}, false
			}
			return Instr{Family: FamInteger, Op: OpAddI, Rd: rd, Rs1: rd, Imm: imm}, true
		}
		// c.lui
		imm := decodeImmCILui(instr)
		if imm == 0 {
			c.RequestTrap(CauseIllegalInstruction, pc) // reserved
			return Instr{}, false
		}
		return Instr{Family: FamInteger, Op: OpLui, Rd: rd, Imm: imm}, true
	case 0b100:
		return c.decode16Arith(instr, pc)
	case 0b101: // c.j
		return Instr{Family: FamInteger, Op: OpJal, Rd: GP(RegZero), Imm: decodeImmCJ(instr)}, true
	case 0b110: // c.beqz
		rs1p := compressedReg(instr >> 7)
		return Instr{Family: FamInteger, Op: OpBeq, Rs1: rs1p, Rs2: GP(RegZero), Imm: decodeImmCB(instr)}, true
	case 0b111: // c.bnez
		rs1p := compressedReg(instr >> 7)
		return Instr{Family: FamInteger, Op: OpBne, Rs1: rs1p, Rs2: GP(RegZero), Imm: decodeImmCB(instr)}, true
	default:
		c.RequestTrap(CauseIllegalInstruction, pc)
		return Instr{}, false
	}
}

func (c *CPU) decode16Arith(instr uint16, pc uint64) (Instr, bool) {
	rdp := compressedReg(instr >> 7)
	funct2High := (instr >> 10) & 0x3
	switch funct2High {
	case 0b00: // c.srli
		shamt := uint8((((instr >> 12) & 0x1) << 5) | ((instr >> 2) & 0x1F))
		return Instr{Family: FamInteger, Op: OpSrlI, Rd: rdp, Rs1: rdp, Shamt: shamt}, true
	case 0b01: // c.srai
		shamt := uint8((((instr >> 12) & 0x1) << 5) | ((instr >> 2) & 0x1F))
		return Instr{Family: FamInteger, Op: OpSraI, Rd: rdp, Rs1: rdp, Shamt: shamt}, true
	case 0b10: // c.andi
		imm := decodeImmCI(instr)
		return Instr{Family: FamInteger, Op: OpAndI, Rd: rdp, Rs1: rdp, Imm: imm}, true
	case 0b11:
		rs2p := compressedReg(instr >> 2)
		isWord := (instr>>12)&0x1 != 0
		switch (instr >> 5) & 0x3 {
		case 0b00:
			if isWord {
				return Instr{Family: FamInteger, Op: OpSubw, Rd: rdp, Rs1: rdp, Rs2: rs2p}, true
			}
			return Instr{Family: FamInteger, Op: OpSub, Rd: rdp, Rs1: rdp, Rs2: rs2p}, true
		case 0b01:
			if isWord { // c.addw
				return Instr{Family: FamInteger, Op: OpAddw, Rd: rdp, Rs1: rdp, Rs2: rs2p}, true
			}
			return Instr{Family: FamInteger, Op: OpXor, Rd: rdp, Rs1: rdp, Rs2: rs2p}, true
		case 0b10:
			return Instr{Family: FamInteger, Op: OpOr, Rd: rdp, Rs1: rdp, Rs2: rs2p}, true
		case 0b11:
			return Instr{Family: FamInteger, Op: OpAnd, Rd: rdp, Rs1: rdp, Rs2: rs2p}, true
		}
	}
	c.RequestTrap(CauseIllegalInstruction, pc)
	return Instr{}, false
}

func (c *CPU) decode16Quadrant2(instr uint16, pc uint64) (Instr, bool) {
	f3 := c16Funct3(instr)
	rd := GP(uint8((instr >> 7) & 0x1F))
	switch f3 {
	case 0b000: // c.slli
		shamt := uint8((((instr >> 12) & 0x1) << 5) | ((instr >> 2) & 0x1F))
		return Instr{Family: FamInteger, Op: OpSllI, Rd: rd, Rs1: rd, Shamt: shamt}, true
	case 0b010: // c.lwsp
		if rd.IsZero() {
			c.RequestTrap(CauseIllegalInstruction, pc) // reserved
			return Instr{}, false
		}
		return Instr{Family: FamInteger, Op: OpLw, Rd: rd, Rs1: GP(RegSP), Imm: int64(decodeImmCLWSP(instr))}, true
	case 0b011: // c.ldsp
		if rd.IsZero() {
			c.RequestTrap(CauseIllegalInstruction, pc) // reserved
			return Instr{}, false
		}
		return Instr{Family: FamInteger, Op: OpLd, Rd: rd, Rs1: GP(RegSP), Imm: int64(decodeImmCLDSP(instr))}, true
	case 0b100:
		rs2 := GP(uint8((instr >> 2) & 0x1F))
		bit12 := (instr>>12)&0x1 != 0
		switch {
		case !bit12 && rs2.IsZero(): // c.jr
			if rd.IsZero() {
				c.RequestTrap(CauseIllegalInstruction, pc) // reserved
				return Instr{}, false
			}
			return Instr{Family: FamInteger, Op: OpJalr, Rd: GP(RegZero), Rs1: rd, Imm: 0}, true
		case !bit12 && !rs2.IsZero(): // c.mv
			return Instr{Family: FamInteger, Op: OpAdd, Rd: rd, Rs1: GP(RegZero), Rs2: rs2}, true
		case bit12 && rd.IsZero() && rs2.IsZero(): // c.ebreak
			return Instr{Family: FamSystem, Op: OpEBreak}, true
		case bit12 && rs2.IsZero(): // c.jalr
			return Instr{Family: FamInteger, Op: OpJalr, Rd: GP(RegRA), Rs1: rd, Imm: 0}, true
		default: // c.add
			return Instr{Family: FamInteger, Op: OpAdd, Rd: rd, Rs1: rd, Rs2: rs2}, true
		}
	case 0b110: // c.swsp
		rs2 := GP(uint8((instr >> 2) & 0x1F))
		return Instr{Family: FamInteger, Op: OpSw, Rs1: GP(RegSP), Rs2: rs2, Imm: int64(decodeImmCSSW(instr))}, true
	case 0b111: // c.sdsp
		rs2 := GP(uint8((instr >> 2) & 0x1F))
		return Instr{Family: FamInteger, Op: OpSd, Rs1: GP(RegSP), Rs2: rs2, Imm: int64(decodeImmCSSD(instr))}, true
	default:
		c.RequestTrap(CauseIllegalInstruction, pc)
		return Instr{}, false
	}
}
