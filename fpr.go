// fpr.go - floating-point register file with NaN-boxed single precision

package emu64

// nanBoxHigh is the all-ones upper 32 bits a NaN-boxed single-precision
// value must carry so that any reader of the full 64-bit width sees a
// canonical quiet NaN if it forgets to narrow.
const nanBoxHigh = uint64(0xFFFFFFFF) << 32

// FPRFile holds the 32 floating-point registers as raw 64-bit storage.
// Single-precision values are NaN-boxed on write: the low 32 bits hold the
// payload, the high 32 bits are forced to all-ones.
//
// Grounded on the teacher's fpu_ie64.go register storage shape; the
// NaN-boxing discipline itself is new (the teacher's FPU is natively
// 32-bit and has no wider register to box into).
type FPRFile struct {
	regs [32]uint64
}

// SetSingle writes a NaN-boxed single-precision value (given as its raw
// bit pattern) to register idx.
func (f *FPRFile) SetSingle(idx RegIndex, bits uint32) {
	f.regs[idx.n] = nanBoxHigh | uint64(bits)
}

// GetSingle reads the low 32 bits of register idx, ignoring the NaN-box
// (a register never written as single-precision reads back its raw low
// bits, which is what guest code relying on this path gets too).
func (f *FPRFile) GetSingle(idx RegIndex) uint32 {
	return uint32(f.regs[idx.n])
}

// SetRaw writes the full 64-bit raw value to register idx, bypassing
// NaN-boxing. Used for debugger register-write transport.
func (f *FPRFile) SetRaw(idx RegIndex, value uint64) {
	f.regs[idx.n] = value
}

// GetRaw reads the full 64-bit raw value of register idx, used for
// debugger register-read transport.
func (f *FPRFile) GetRaw(idx RegIndex) uint64 {
	return f.regs[idx.n]
}

// Snapshot returns all 32 raw register values for debugger transport.
func (f *FPRFile) Snapshot() [32]uint64 {
	return f.regs
}

// Restore loads all 32 raw register values from a debugger snapshot.
func (f *FPRFile) Restore(values [32]uint64) {
	f.regs = values
}

// Reset zeroes every register.
func (f *FPRFile) Reset() {
	f.regs = [32]uint64{}
}
