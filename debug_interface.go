// debug_interface.go - the debugger-facing surface a remote debugger drives

package emu64

// DebugAdapter is the capability surface described in spec.md §6: a
// debugger-agnostic wrapper over a *CPU, exposing state it can read/write
// and control-flow actions it can drive, isolated from decode/execute
// details.
//
// Grounded on the teacher's DebuggableCPU interface, trimmed to the
// registers, byte-range, breakpoint, and run-control surface this core's
// single-architecture design actually has (no flags register, no
// per-source-architecture disassembler hookup, no watchpoints: the
// teacher's multi-backend monitor supports several CPU families this
// core does not need to emulate).
type DebugAdapter interface {
	// ReadAllRegisters returns 32 GPRs, then PC, then 32 FPRs, each as a
	// little-endian 8-byte group, in that order (spec.md §6).
	ReadAllRegisters() []byte

	// WriteAllRegisters accepts the same 65*8-byte layout ReadAllRegisters
	// produces. A write to GPR x0 is silently discarded rather than
	// applied.
	WriteAllRegisters(data []byte) error

	// RegisterWidths reports the natural byte width of every register in
	// ReadAllRegisters/WriteAllRegisters order: 8 for each GPR and for PC,
	// 4 for each FPR, since this core implements F (single precision) and
	// not D, even though FPR storage is NaN-boxed into 8 bytes internally.
	RegisterWidths() []uint8

	// ReadMemory reads up to len(out) bytes starting at addr, returning the
	// number of bytes actually read before the first translation failure.
	ReadMemory(addr uint64, out []byte) int

	// WriteMemory writes data starting at addr, returning an error on the
	// first translation failure.
	WriteMemory(addr uint64, data []byte) error

	AddBreakpoint(addr uint64)
	RemoveBreakpoint(addr uint64) bool

	Resume()
	Interrupt()
	StepOne() StepResult
}
