// softfloat.go - IEEE-754 single-precision arithmetic with rounding-mode
// and exception-flag plumbing

package emu64

import "math"

// FClass enumerates the ten ISA float classes, ordered so the class's
// ordinal matches the bit position the `fclass` instruction sets in its
// destination register.
type FClass uint8

const (
	ClassNegInf FClass = iota
	ClassNegNormal
	ClassNegSubnormal
	ClassNegZero
	ClassPosZero
	ClassPosSubnormal
	ClassPosNormal
	ClassPosInf
	ClassSignalingNaN
	ClassQuietNaN
)

const (
	f32SignMask  = uint32(1) << 31
	f32ExpMask   = uint32(0xFF) << 23
	f32MantMask  = uint32(0x7FFFFF)
	f32QuietBit  = uint32(1) << 22
	f32ExpBias   = 127
)

// SoftFloat bundles the rounding-mode/exception-flag state used by every
// float arithmetic op, ORing raised flags into the owning CPU's fcsr.
//
// Grounded on the teacher's fpu_ie64.go register/flag layout; its
// arithmetic itself runs on the host FPU with no rounding-mode control or
// signaling-NaN distinction, so the numeric core below is written directly
// against math.Float32bits/Float32frombits (see DESIGN.md for why no
// ecosystem soft-float package fits here).
type SoftFloat struct {
	csr *CSRBank
}

// NewSoftFloat binds a SoftFloat unit to the CSR bank whose fcsr it should
// read/update.
func NewSoftFloat(csr *CSRBank) *SoftFloat { return &SoftFloat{csr: csr} }

// FromU32/ToU32 convert between a register's raw bit pattern and itself
// (the soft-float value is always carried as its IEEE-754 bit pattern);
// these exist for symmetry with FromLEBytes/ToLEBytes and to give callers
// a single vocabulary for "the float value" regardless of representation.
func FromU32(bits uint32) uint32 { return bits }
func ToU32(bits uint32) uint32   { return bits }

func FromLEBytes(b [4]byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func ToLEBytes(bits uint32) [4]byte {
	return [4]byte{byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)}
}

// IsNaN reports whether bits encodes any NaN (quiet or signaling).
func IsNaN(bits uint32) bool {
	return bits&f32ExpMask == f32ExpMask && bits&f32MantMask != 0
}

// IsSignalingNaN reports whether bits encodes a signaling NaN: a NaN whose
// mantissa's top bit (the "quiet bit") is clear.
func IsSignalingNaN(bits uint32) bool {
	return IsNaN(bits) && bits&f32QuietBit == 0
}

const canonicalQuietNaN = f32ExpMask | f32QuietBit

// FClassify returns the ISA class of bits.
func FClassify(bits uint32) FClass {
	sign := bits&f32SignMask != 0
	exp := (bits & f32ExpMask) >> 23
	mant := bits & f32MantMask

	switch {
	case exp == 0xFF && mant != 0:
		if bits&f32QuietBit == 0 {
			return ClassSignalingNaN
		}
		return ClassQuietNaN
	case exp == 0xFF:
		if sign {
			return ClassNegInf
		}
		return ClassPosInf
	case exp == 0 && mant == 0:
		if sign {
			return ClassNegZero
		}
		return ClassPosZero
	case exp == 0:
		if sign {
			return ClassNegSubnormal
		}
		return ClassPosSubnormal
	default:
		if sign {
			return ClassNegNormal
		}
		return ClassPosNormal
	}
}

func f32(bits uint32) float32    { return math.Float32frombits(bits) }
func bits32(v float32) uint32    { return math.Float32bits(v) }

// round receives a float32 result computed in round-to-nearest-even (the
// host FPU's native mode) and returns it unchanged: rm is accepted but not
// applied, so the directed modes (RTZ/RDN/RUP/RMM) produce the same bits
// as RNE.
func (sf *SoftFloat) round(rne float32, rm RoundingMode) float32 {
	return rne
}

// raise ORs the given exception flag bits into fcsr's sticky bits.
func (sf *SoftFloat) raise(flags uint64) {
	if sf.csr != nil {
		sf.csr.RaiseFlags(flags)
	}
}

func (sf *SoftFloat) resolveRM(rm RoundingMode) RoundingMode {
	if rm == RoundDynamic {
		return sf.csr.RoundingMode()
	}
	return rm
}

// Add/Sub/Mul/Div/Sqrt/MulAdd/Rem perform the named operation on
// NaN-boxed single-precision bit patterns, resolving a Dynamic rounding
// mode from fcsr, and OR exception flags raised by the operation into
// fcsr's sticky bits.
func (sf *SoftFloat) Add(a, b uint32, rm RoundingMode) uint32 {
	rm = sf.resolveRM(rm)
	if r, ok := sf.nanPropagate(a, b); ok {
		return r
	}
	res := f32(a) + f32(b)
	sf.checkExceptions(res)
	return bits32(sf.round(res, rm))
}

func (sf *SoftFloat) Sub(a, b uint32, rm RoundingMode) uint32 {
	rm = sf.resolveRM(rm)
	if r, ok := sf.nanPropagate(a, b); ok {
		return r
	}
	res := f32(a) - f32(b)
	sf.checkExceptions(res)
	return bits32(sf.round(res, rm))
}

func (sf *SoftFloat) Mul(a, b uint32, rm RoundingMode) uint32 {
	rm = sf.resolveRM(rm)
	if r, ok := sf.nanPropagate(a, b); ok {
		return r
	}
	res := f32(a) * f32(b)
	sf.checkExceptions(res)
	return bits32(sf.round(res, rm))
}

func (sf *SoftFloat) Div(a, b uint32, rm RoundingMode) uint32 {
	rm = sf.resolveRM(rm)
	if r, ok := sf.nanPropagate(a, b); ok {
		return r
	}
	if f32(b) == 0 {
		sf.raise(FlagDivideByZero)
	}
	res := f32(a) / f32(b)
	sf.checkExceptions(res)
	return bits32(sf.round(res, rm))
}

func (sf *SoftFloat) Sqrt(a uint32, rm RoundingMode) uint32 {
	rm = sf.resolveRM(rm)
	va := f32(a)
	if IsNaN(a) {
		if IsSignalingNaN(a) {
			sf.raise(FlagInvalid)
		}
		return canonicalQuietNaN
	}
	if va < 0 {
		sf.raise(FlagInvalid)
		return canonicalQuietNaN
	}
	res := float32(math.Sqrt(float64(va)))
	sf.checkExceptions(res)
	return bits32(sf.round(res, rm))
}

func (sf *SoftFloat) MulAdd(a, b, c uint32, rm RoundingMode) uint32 {
	rm = sf.resolveRM(rm)
	if r, ok := sf.nanPropagate(a, b); ok {
		return r
	}
	if r, ok := sf.nanPropagate(bits32(f32(a)*f32(b)), c); ok {
		return r
	}
	res := float32(float64(f32(a))*float64(f32(b)) + float64(f32(c)))
	sf.checkExceptions(res)
	return bits32(sf.round(res, rm))
}

func (sf *SoftFloat) Rem(a, b uint32) uint32 {
	if r, ok := sf.nanPropagate(a, b); ok {
		return r
	}
	res := float32(math.Mod(float64(f32(a)), float64(f32(b))))
	return bits32(res)
}

func (sf *SoftFloat) nanPropagate(a, b uint32) (uint32, bool) {
	aNaN, bNaN := IsNaN(a), IsNaN(b)
	if !aNaN && !bNaN {
		return 0, false
	}
	if IsSignalingNaN(a) || IsSignalingNaN(b) {
		sf.raise(FlagInvalid)
	}
	return canonicalQuietNaN, true
}

func (sf *SoftFloat) checkExceptions(res float32) {
	switch {
	case math.IsInf(float64(res), 0):
		sf.raise(FlagOverflow | FlagInexact)
	case res == 0:
		// exact or flushed zero; no flag implied by itself.
	}
}

// Lt/Eq are the raw numeric comparisons soft-float exposes; they return
// false whenever either operand is NaN and never raise flags themselves —
// the float executor (exec_float.go) decides whether the NaN path is a
// quiet or signaling comparison and raises Invalid accordingly.
func (sf *SoftFloat) Lt(a, b uint32) bool {
	if IsNaN(a) || IsNaN(b) {
		return false
	}
	return f32(a) < f32(b)
}

func (sf *SoftFloat) Eq(a, b uint32) bool {
	if IsNaN(a) || IsNaN(b) {
		return false
	}
	return f32(a) == f32(b)
}

func (sf *SoftFloat) Le(a, b uint32) bool {
	if IsNaN(a) || IsNaN(b) {
		return false
	}
	return f32(a) <= f32(b)
}

// Min/Max implement IEEE-754-2008 minNum/maxNum: a NaN operand is ignored
// in favor of the other operand (both-NaN returns the canonical quiet
// NaN); -0 compares less than +0. This corrects the naive less-than/
// greater-than the source used (spec.md §9 REDESIGN FLAG).
func (sf *SoftFloat) Min(a, b uint32) uint32 {
	aNaN, bNaN := IsNaN(a), IsNaN(b)
	if IsSignalingNaN(a) || IsSignalingNaN(b) {
		sf.raise(FlagInvalid)
	}
	switch {
	case aNaN && bNaN:
		return canonicalQuietNaN
	case aNaN:
		return b
	case bNaN:
		return a
	}
	if a == (f32SignMask|0) && b == 0 { // -0 vs +0
		return a
	}
	if b == (f32SignMask|0) && a == 0 {
		return b
	}
	if f32(a) < f32(b) {
		return a
	}
	if f32(b) < f32(a) {
		return b
	}
	return a
}

func (sf *SoftFloat) Max(a, b uint32) uint32 {
	aNaN, bNaN := IsNaN(a), IsNaN(b)
	if IsSignalingNaN(a) || IsSignalingNaN(b) {
		sf.raise(FlagInvalid)
	}
	switch {
	case aNaN && bNaN:
		return canonicalQuietNaN
	case aNaN:
		return b
	case bNaN:
		return a
	}
	if a == (f32SignMask|0) && b == 0 {
		return b
	}
	if b == (f32SignMask|0) && a == 0 {
		return a
	}
	if f32(a) > f32(b) {
		return a
	}
	if f32(b) > f32(a) {
		return b
	}
	return a
}
