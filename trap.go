// trap.go - trap cause codes and the pending-trap record

package emu64

// TrapCause is a 64-bit trap index: the high bit distinguishes interrupt
// from exception, the low 63 bits are the cause code. Only exception
// causes are modeled; the core never raises an interrupt itself.
type TrapCause uint64

const interruptBit = uint64(1) << 63

// Exception cause codes recognized by this core, numbered per the RISC-V
// privileged spec's mcause encoding.
//
// Grounded on other_examples/7fc0a09e_tinyrange-cc_..._cpu.go.go's
// exception-cause constant block.
const (
	CauseInstrAddrMisaligned TrapCause = 0
	CauseInstrPageFault      TrapCause = 12
	CauseIllegalInstruction  TrapCause = 2
	CauseBreakpoint          TrapCause = 3
	CauseLoadPageFault       TrapCause = 13
	CauseStorePageFault      TrapCause = 15
	CauseECallFromMMode      TrapCause = 11
)

// IsInterrupt reports whether c's high bit marks it as an interrupt rather
// than a synchronous exception.
func (c TrapCause) IsInterrupt() bool { return uint64(c)&interruptBit != 0 }

// pendingTrap records a trap requested by request_trap but not yet
// entered. Entry happens at the start of the next step().
type pendingTrap struct {
	active bool
	cause  TrapCause
	mtval  uint64
}
