// immediates.go - immediate sign-extension for every 32-bit and
// compressed instruction format

package emu64

// signExtend sign-extends the low `bits` bits of v to a full 64-bit
// int64.
func signExtend(v uint32, bits uint) int64 {
	shift := 32 - bits
	return int64(int32(v<<shift)) >> shift
}

// signExtend64 sign-extends the low `bits` bits of a 64-bit accumulator
// (used by the few compressed formats whose assembled immediate exceeds
// 32 bits of working width).
func signExtend64(v uint64, bits uint) int64 {
	shift := 64 - bits
	return int64(v<<shift) >> shift
}

// decodeImmI extracts the I-type immediate: bits [31:20], sign-extended
// from 12 bits.
func decodeImmI(instr uint32) int64 {
	return signExtend(instr>>20, 12)
}

// decodeImmS extracts the S-type immediate: {[31:25],[11:7]}, sign
// extended from 12 bits.
func decodeImmS(instr uint32) int64 {
	v := ((instr >> 25) << 5) | ((instr >> 7) & 0x1F)
	return signExtend(v, 12)
}

// decodeImmB extracts the B-type (branch) immediate: bit layout
// {[31],[7],[30:25],[11:8],0}, sign-extended from 13 bits (the implicit
// low zero is included in the bit width, not the shift).
func decodeImmB(instr uint32) int64 {
	v := ((instr >> 31) << 12) |
		(((instr >> 7) & 0x1) << 11) |
		(((instr >> 25) & 0x3F) << 5) |
		(((instr >> 8) & 0xF) << 1)
	return signExtend(v, 13)
}

// decodeImmU extracts the U-type immediate: bits [31:12] shifted left by
// 12, sign-extended at bit 31.
func decodeImmU(instr uint32) int64 {
	return int64(int32(instr & 0xFFFFF000))
}

// decodeImmJ extracts the J-type (jump) immediate: bit layout
// {[31],[19:12],[20],[30:21],0}, sign-extended from 21 bits.
func decodeImmJ(instr uint32) int64 {
	v := ((instr >> 31) << 20) |
		(((instr >> 12) & 0xFF) << 12) |
		(((instr >> 20) & 0x1) << 11) |
		(((instr >> 21) & 0x3FF) << 1)
	return signExtend(v, 21)
}

// Compressed-instruction immediate assembly. Each decodes the scattered
// bit layout the ISA manual specifies for that format and sign-extends
// (shift amounts are zero-extended, per format CB-shift/CI-shift).

// decodeImmCIW assembles the CIW-format immediate (used by c.addi4spn):
// nzuimm[5:4|9:6|2|3], zero-extended, scaled by 4.
func decodeImmCIW(instr uint16) uint32 {
	i := uint32(instr)
	return (((i >> 11) & 0x3) << 4) |
		(((i >> 7) & 0xF) << 6) |
		(((i >> 6) & 0x1) << 2) |
		(((i >> 5) & 0x1) << 3)
}

// decodeImmCLSW assembles the CL/CS-format word-offset immediate (used by
// c.lw/c.sw): uimm[5:3|2|6], zero-extended.
func decodeImmCLSW(instr uint16) uint32 {
	i := uint32(instr)
	return (((i >> 10) & 0x7) << 3) |
		(((i >> 6) & 0x1) << 2) |
		(((i >> 5) & 0x1) << 6)
}

// decodeImmCLSD assembles the CL/CS-format doubleword-offset immediate
// (used by c.ld/c.sd): uimm[5:3|7:6], zero-extended.
func decodeImmCLSD(instr uint16) uint32 {
	i := uint32(instr)
	return (((i >> 10) & 0x7) << 3) |
		(((i >> 5) & 0x3) << 6)
}

// decodeImmCI assembles the CI-format signed immediate (used by c.addi,
// c.li, c.addiw, c.slli's shamt is separate): imm[5|4:0], sign-extended
// from 6 bits.
func decodeImmCI(instr uint16) int64 {
	i := uint32(instr)
	v := (((i >> 12) & 0x1) << 5) | ((i >> 2) & 0x1F)
	return signExtend(v, 6)
}

// decodeImmCILui assembles c.lui's immediate: nzimm[17|16:12], placed at
// bit 12 (matching U-type placement) and sign-extended from 18 bits.
func decodeImmCILui(instr uint16) int64 {
	i := uint32(instr)
	v := (((i >> 12) & 0x1) << 17) | (((i >> 2) & 0x1F) << 12)
	return signExtend(v, 18)
}

// decodeImmCAddi16sp assembles c.addi16sp's immediate:
// nzimm[9|4|6|8:7|5], sign-extended from 10 bits.
func decodeImmCAddi16sp(instr uint16) int64 {
	i := uint32(instr)
	v := (((i >> 12) & 0x1) << 9) |
		(((i >> 6) & 0x1) << 4) |
		(((i >> 5) & 0x1) << 6) |
		(((i >> 3) & 0x3) << 7) |
		(((i >> 2) & 0x1) << 5)
	return signExtend(v, 10)
}

// decodeImmCSSW assembles the CSS-format word-offset immediate (c.swsp):
// uimm[5:2|7:6], zero-extended.
func decodeImmCSSW(instr uint16) uint32 {
	i := uint32(instr)
	return (((i >> 9) & 0xF) << 2) | (((i >> 7) & 0x3) << 6)
}

// decodeImmCSSD assembles the CSS-format doubleword-offset immediate
// (c.sdsp): uimm[5:3|8:6], zero-extended.
func decodeImmCSSD(instr uint16) uint32 {
	i := uint32(instr)
	return (((i >> 10) & 0x7) << 3) | (((i >> 7) & 0x7) << 6)
}

// decodeImmCLWSP assembles the CI-format word-offset immediate used by
// c.lwsp: uimm[5|4:2|7:6], zero-extended.
func decodeImmCLWSP(instr uint16) uint32 {
	i := uint32(instr)
	return (((i >> 12) & 0x1) << 5) |
		(((i >> 4) & 0x7) << 2) |
		(((i >> 2) & 0x3) << 6)
}

// decodeImmCLDSP assembles the CI-format doubleword-offset immediate used
// by c.ldsp: uimm[5|4:3|8:6], zero-extended.
func decodeImmCLDSP(instr uint16) uint32 {
	i := uint32(instr)
	return (((i >> 12) & 0x1) << 5) |
		(((i >> 5) & 0x3) << 3) |
		(((i >> 2) & 0x7) << 6)
}

// decodeImmCB assembles the CB-format branch immediate (c.beqz/c.bnez):
// imm[8|4:3|7:6|2:1|5], sign-extended from 9 bits.
func decodeImmCB(instr uint16) int64 {
	i := uint32(instr)
	v := (((i >> 12) & 0x1) << 8) |
		(((i >> 10) & 0x3) << 3) |
		(((i >> 5) & 0x3) << 6) |
		(((i >> 3) & 0x3) << 1) |
		(((i >> 2) & 0x1) << 5)
	return signExtend(v, 9)
}

// decodeImmCJ assembles the CJ-format jump immediate (c.j/c.jal):
// imm[11|4|9:8|10|6|7|3:1|5], sign-extended from 12 bits.
func decodeImmCJ(instr uint16) int64 {
	i := uint32(instr)
	v := (((i >> 12) & 0x1) << 11) |
		(((i >> 11) & 0x1) << 4) |
		(((i >> 9) & 0x3) << 8) |
		(((i >> 8) & 0x1) << 10) |
		(((i >> 7) & 0x1) << 6) |
		(((i >> 6) & 0x1) << 7) |
		(((i >> 3) & 0x7) << 1) |
		(((i >> 2) & 0x1) << 5)
	return signExtend(v, 12)
}
