// decode.go - top-level variable-length decode state machine

package emu64

// decode reads the instruction stream at virtual address pc and returns
// the decoded Instr and its size in bytes. On any failure (misaligned PC,
// disabled extension, unimplemented 48/64-bit form, translation failure,
// or an opcode family decode.go/decode32.go/decode16.go themselves
// reject) it has already called c.RequestTrap and returns ok=false; the
// caller (Step) still reports Stepped, since the trap fires at the start
// of the following step.
//
// Grounded on other_examples/759cba5a_LMMilewski-riscv-emu__decode.go.go's
// top-level prefix-detection shape.
func (c *CPU) decode(pc uint64) (Instr, uint8, bool) {
	alignment := uint64(4)
	if c.ext.Has(ExtC) {
		alignment = 2
	}
	if pc%alignment != 0 {
		c.RequestTrap(CauseInstrAddrMisaligned, pc)
		return Instr{}, 0, false
	}

	low16, err := c.mem.ReadU16(pc)
	if err != nil {
		c.RequestTrap(CauseInstrPageFault, pc)
		return Instr{}, 0, false
	}

	if low16&0x3 != 0x3 {
		if !c.ext.Has(ExtC) {
			c.RequestTrap(CauseIllegalInstruction, pc)
			return Instr{}, 0, false
		}
		in, ok := c.decode16(low16, pc)
		if !ok {
			return Instr{}, 0, false
		}
		return in, 2, true
	}

	if low16&0x1C != 0x1C {
		word, err := c.mem.ReadU32(pc)
		if err != nil {
			c.RequestTrap(CauseInstrPageFault, pc)
			return Instr{}, 0, false
		}
		in, ok := c.decode32(word, pc)
		if !ok {
			return Instr{}, 0, false
		}
		return in, 4, true
	}

	if low16&0x3F == 0x1F {
		c.RequestTrap(CauseIllegalInstruction, pc) // 48-bit: not implemented
		return Instr{}, 0, false
	}
	if low16&0x7F == 0x3F {
		c.RequestTrap(CauseIllegalInstruction, pc) // 64-bit: not implemented
		return Instr{}, 0, false
	}
	c.RequestTrap(CauseIllegalInstruction, pc)
	return Instr{}, 0, false
}
