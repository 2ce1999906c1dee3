// gpr.go - general-purpose register file

package emu64

// GPRFile holds the 32 general-purpose registers. Index 0 is hard-wired to
// zero: writes are silently discarded and reads always return 0.
//
// Grounded on the teacher's cpu_ie64.go setReg/getReg r0-hardwire pattern,
// generalized from IE64's 32-register word size to RV64's 64-bit words.
type GPRFile struct {
	regs [32]uint64
}

// Get reads register idx. Index 0 always reads 0.
func (g *GPRFile) Get(idx RegIndex) uint64 {
	if idx.IsZero() {
		return 0
	}
	return g.regs[idx.n]
}

// Set writes value to register idx. Writes to index 0 are silently
// discarded.
func (g *GPRFile) Set(idx RegIndex, value uint64) {
	if idx.IsZero() {
		return
	}
	g.regs[idx.n] = value
}

// BulkSet copies values[0..31) into registers 1..31 (values[0] feeds
// register 1, and so on); register 0 is never touched. len(values) must be
// 31; a shorter slice is zero-padded.
func (g *GPRFile) BulkSet(values []uint64) {
	for i := 1; i < 32; i++ {
		if i-1 < len(values) {
			g.regs[i] = values[i-1]
		} else {
			g.regs[i] = 0
		}
	}
}

// BulkGet returns a fresh 31-element slice holding registers 1..31 in
// order.
func (g *GPRFile) BulkGet() []uint64 {
	out := make([]uint64, 31)
	copy(out, g.regs[1:])
	return out
}

// Snapshot returns all 32 registers, including the always-zero r0, for
// debugger transport.
func (g *GPRFile) Snapshot() [32]uint64 {
	snap := g.regs
	snap[0] = 0
	return snap
}

// Restore loads all 32 registers from a debugger-supplied snapshot. Index 0
// is ignored (it must be zero, but even a nonzero value is discarded
// rather than rejected, matching the spec's "silently discarded" rule for
// write-all).
func (g *GPRFile) Restore(values [32]uint64) {
	g.regs = values
	g.regs[0] = 0
}

// Reset zeroes every register.
func (g *GPRFile) Reset() {
	g.regs = [32]uint64{}
}
