// exec_system.go - ecall/ebreak and the six CSR instruction forms

package emu64

// execSystem dispatches FamSystem and FamCSR instructions: ecall, ebreak,
// and the CSRRW/CSRRS/CSRRC/CSRRWI/CSRRSI/CSRRCI family.
//
// Grounded on the teacher's debug_cpu_ie64.go breakpoint-trap idiom for
// ebreak, and on the RISC-V ISA manual's CSR-instruction table for the
// read-then-modify-then-write semantics. rs1==x0 for CSRRS/CSRRC and
// uimm==0 for CSRRSI/CSRRCI skip the write entirely, so a read-only CSR can
// still be targeted for its read; CSRRC/CSRRCI clear with AND-NOT, the
// Open Question decision recorded in DESIGN.md.
func (c *CPU) execSystem(in Instr, startPC uint64) {
	switch in.Op {
	case OpECall:
		c.RequestTrap(CauseECallFromMMode, 0)
		return
	case OpEBreak:
		c.RequestTrap(CauseBreakpoint, startPC)
		return
	}
	c.execCSR(in)
}

func (c *CPU) execCSR(in Instr) {
	addr := in.CSR
	old, ok := c.csrRead(addr)
	if !ok {
		c.RequestTrap(CauseIllegalInstruction, 0)
		return
	}

	var write bool
	var newVal uint64
	switch in.Op {
	case OpCSRRW:
		newVal = c.GPR.Get(in.Rs1)
		write = true
	case OpCSRRS:
		newVal = old | c.GPR.Get(in.Rs1)
		write = !in.Rs1.IsZero()
	case OpCSRRC:
		newVal = old &^ c.GPR.Get(in.Rs1)
		write = !in.Rs1.IsZero()
	case OpCSRRWI:
		newVal = uint64(in.UImm)
		write = true
	case OpCSRRSI:
		newVal = old | uint64(in.UImm)
		write = in.UImm != 0
	case OpCSRRCI:
		newVal = old &^ uint64(in.UImm)
		write = in.UImm != 0
	default:
		c.RequestTrap(CauseIllegalInstruction, 0)
		return
	}

	if write {
		if !c.csrWrite(addr, newVal) {
			c.RequestTrap(CauseIllegalInstruction, 0)
			return
		}
	}
	c.GPR.Set(in.Rd, old)
}

// csrRead and csrWrite route the three fcsr sub-views (fflags at 0x001,
// frm at 0x002, the whole register at 0x003) onto the single CSRFCSR bank
// entry, and fall back to CSRBank.Read/Write for every other address.
func (c *CPU) csrRead(addr uint16) (uint64, bool) {
	switch addr {
	case CSRFFlags:
		return c.CSR.Flags(), true
	case CSRFRM:
		return uint64(c.CSR.RoundingMode()), true
	default:
		return c.CSR.Read(addr)
	}
}

func (c *CPU) csrWrite(addr uint16, value uint64) bool {
	switch addr {
	case CSRFFlags:
		full, _ := c.CSR.Read(CSRFCSR)
		return c.CSR.Write(CSRFCSR, (full&^uint64(fcsrFlagsMask))|(value&fcsrFlagsMask))
	case CSRFRM:
		c.CSR.SetRoundingMode(RoundingMode(value & 0x7))
		return true
	default:
		return c.CSR.Write(addr, value)
	}
}
