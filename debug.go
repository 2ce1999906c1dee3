// debug.go - the concrete DebugAdapter wrapping *CPU

package emu64

import "encoding/binary"

// cpuDebugAdapter is the sole DebugAdapter implementation: a thin wrapper
// over *CPU translating spec.md §6's wire-level register/memory layout
// into GPR/FPR/Memory calls.
//
// Grounded on the teacher's DebugIE64 (debug_cpu_ie64.go): one adapter
// struct per CPU type, wrapping rather than embedding, so debugger
// concerns never leak into CPU itself.
type cpuDebugAdapter struct {
	cpu *CPU
}

// NewDebugAdapter wraps cpu for use by a remote debugger front end.
func NewDebugAdapter(cpu *CPU) DebugAdapter {
	return &cpuDebugAdapter{cpu: cpu}
}

const registerBlockCount = 65 // 32 GPR + PC + 32 FPR

// ReadAllRegisters lays out 32 GPRs, then PC, then 32 FPRs, each as 8
// little-endian bytes, per spec.md §6.
func (d *cpuDebugAdapter) ReadAllRegisters() []byte {
	out := make([]byte, registerBlockCount*8)
	off := 0
	for i := 0; i < 32; i++ {
		binary.LittleEndian.PutUint64(out[off:], d.cpu.GPR.Get(GP(uint8(i))))
		off += 8
	}
	binary.LittleEndian.PutUint64(out[off:], d.cpu.PC)
	off += 8
	for i := 0; i < 32; i++ {
		binary.LittleEndian.PutUint64(out[off:], d.cpu.FPR.GetRaw(FP(uint8(i))))
		off += 8
	}
	return out
}

// WriteAllRegisters accepts the same layout. A write to GPR x0 is
// silently discarded (spec.md §6), matching the GPR file's own r0-is-
// hardwired-zero invariant rather than raising an error for it.
func (d *cpuDebugAdapter) WriteAllRegisters(data []byte) error {
	if len(data) < registerBlockCount*8 {
		return &shortBufferError{want: registerBlockCount * 8, got: len(data)}
	}
	off := 0
	for i := 0; i < 32; i++ {
		v := binary.LittleEndian.Uint64(data[off:])
		if i != 0 {
			d.cpu.GPR.Set(GP(uint8(i)), v)
		}
		off += 8
	}
	d.cpu.PC = binary.LittleEndian.Uint64(data[off:])
	off += 8
	for i := 0; i < 32; i++ {
		d.cpu.FPR.SetRaw(FP(uint8(i)), binary.LittleEndian.Uint64(data[off:]))
		off += 8
	}
	return nil
}

// RegisterWidths reports 8 bytes for each GPR and for PC, and 4 bytes for
// each FPR: the register file stores FPRs NaN-boxed into 8 bytes, but this
// core's actual value width is single precision, and a debugger formatting
// register contents needs the latter, not the storage width.
func (d *cpuDebugAdapter) RegisterWidths() []uint8 {
	widths := make([]uint8, registerBlockCount)
	for i := 0; i < 33; i++ { // 32 GPRs + PC
		widths[i] = 8
	}
	for i := 33; i < registerBlockCount; i++ { // 32 FPRs
		widths[i] = 4
	}
	return widths
}

// ReadMemory reads up to len(out) bytes, returning the count successfully
// read before the first translation failure (a short count, not an
// error, per spec.md §6's debug-adapter error taxonomy).
func (d *cpuDebugAdapter) ReadMemory(addr uint64, out []byte) int {
	n := 0
	for n < len(out) {
		b, err := d.cpu.mem.ReadByte(addr + uint64(n))
		if err != nil {
			return n
		}
		out[n] = b
		n++
	}
	return n
}

// WriteMemory writes data starting at addr, stopping and returning an
// error on the first translation failure.
func (d *cpuDebugAdapter) WriteMemory(addr uint64, data []byte) error {
	return d.cpu.mem.WriteSlice(addr, data)
}

func (d *cpuDebugAdapter) AddBreakpoint(addr uint64)          { d.cpu.AddBreakpoint(addr) }
func (d *cpuDebugAdapter) RemoveBreakpoint(addr uint64) bool  { return d.cpu.RemoveBreakpoint(addr) }

// Resume and Interrupt move the CPU between running and paused run-states;
// the actual run loop lives in CPU.RunWithPoll, driven by the host command
// (cmd/emu or cmd/tuidbg), not by this adapter.
func (d *cpuDebugAdapter) Resume()    { d.cpu.SetState(StateRunning) }
func (d *cpuDebugAdapter) Interrupt() { d.cpu.SetState(StatePaused) }

func (d *cpuDebugAdapter) StepOne() StepResult { return d.cpu.Step() }

type shortBufferError struct{ want, got int }

func (e *shortBufferError) Error() string {
	return "register buffer too short for write-all"
}
