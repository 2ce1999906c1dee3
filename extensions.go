// extensions.go - supported-extension set

package emu64

// Extension identifies one of the 26 one-letter RISC-V ISA extension
// names. Only a handful are meaningful to this core; the rest exist so a
// caller can construct a full Extensions set matching a real misa value
// without the API rejecting unknown letters.
type Extension uint8

const (
	ExtA Extension = iota
	ExtB
	ExtC
	ExtD
	ExtE
	ExtF
	ExtG
	ExtH
	ExtI
	ExtJ
	ExtK
	ExtL
	ExtM
	ExtN
	ExtO
	ExtP
	ExtQ
	ExtR
	ExtS
	ExtT
	ExtU
	ExtV
	ExtW
	ExtX
	ExtY
	ExtZ
)

// Extensions is a bitset over the 26 extension letters. The core requires
// at least Integer, Compressed, Atomic, Float and Multiply to be set to
// execute programs using those encodings; decoding an instruction whose
// family needs a disabled extension raises illegal-instruction.
//
// Grounded on the teacher's features.go runtime capability-flag set,
// generalized from a fixed struct of booleans to a letter-indexed bitset
// matching RISC-V's own misa convention.
type Extensions uint32

// Set marks ext as supported and returns the updated set.
func (e Extensions) Set(ext Extension) Extensions {
	return e | (1 << uint(ext))
}

// Has reports whether ext is supported.
func (e Extensions) Has(ext Extension) bool {
	return e&(1<<uint(ext)) != 0
}

// Base returns the conventional RV64IMAFC set: integer, multiply/divide,
// atomic, single-precision float, compressed.
func Base() Extensions {
	var e Extensions
	for _, ext := range []Extension{ExtI, ExtM, ExtA, ExtF, ExtC} {
		e = e.Set(ext)
	}
	return e
}

// MisaBits returns the read-only misa CSR value this set implies: bits
// 63:62 hold MXL=2 (64-bit), and bit `ext-'A'` is set for every supported
// extension letter A..Z.
func (e Extensions) MisaBits() uint64 {
	const mxl64 = uint64(2) << 62
	return mxl64 | uint64(e)&0x03FFFFFF
}
