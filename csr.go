// csr.go - control/status register bank

package emu64

// Privilege is the minimum privilege level required to access a CSR. The
// core runs machine-mode-only: the field is recorded with each entry but
// is never checked on access.
type Privilege uint8

const (
	PrivUser Privilege = iota
	PrivSupervisor
	PrivHypervisor
	PrivMachine
)

// csrEntry is one CSR bank slot.
type csrEntry struct {
	value     uint64
	writable  bool
	privilege Privilege
}

// Well-known CSR addresses used directly by the core.
const (
	CSRFFlags   = 0x001
	CSRFRM      = 0x002
	CSRFCSR     = 0x003
	CSRMStatus  = 0x300
	CSRMISA     = 0x301
	CSRMTVec    = 0x305
	CSRMEPC     = 0x341
	CSRMCause   = 0x342
	CSRMTVal    = 0x343
	CSRMVendorID = 0xF11
	CSRMArchID   = 0xF12
	CSRMImpID    = 0xF13
	CSRMHartID   = 0xF14
)

// fcsr bit layout.
const (
	fcsrFlagsMask = 0x1F
	fcsrRMShift   = 5
	fcsrRMMask    = 0x07 << fcsrRMShift
)

// Soft-float exception flag bits, occupying fcsr[4:0].
const (
	FlagInexact      = 0x01
	FlagUnderflow    = 0x02
	FlagOverflow     = 0x04
	FlagDivideByZero = 0x08 // "Infinite" in some reference sources
	FlagInvalid      = 0x10
)

// RoundingMode selects how soft-float operations round their result.
type RoundingMode uint8

const (
	RoundNearestEven RoundingMode = 0
	RoundTowardZero  RoundingMode = 1
	RoundDown        RoundingMode = 2
	RoundUp          RoundingMode = 3
	RoundNearestMax  RoundingMode = 4
	// 5, 6 reserved.
	RoundDynamic RoundingMode = 7
)

// CSRBank is the sparse CSR register bank: only explicitly-registered
// addresses exist. Any other 12-bit address traps illegal-instruction at
// the CSR instruction executor.
//
// Grounded on the teacher's capability/feature-table idiom (features.go)
// for "only recognized entries exist"; the fcsr sticky-flag semantics and
// the misa/mhartid additions are SPEC_FULL §10 recoveries from
// original_source/'s csr.rs.
type CSRBank struct {
	entries map[uint16]*csrEntry
}

// NewCSRBank builds a bank with every CSR the spec requires at minimum:
// mvendorid/marchid/mimpid (RO zero), mtvec (writable, init 0x40000000),
// mepc/mcause/mtval (writable), fcsr (writable), plus misa/mhartid/mstatus
// recovered from original_source/.
func NewCSRBank(ext Extensions) *CSRBank {
	b := &CSRBank{entries: make(map[uint16]*csrEntry)}
	b.define(CSRMVendorID, 0, false, PrivMachine)
	b.define(CSRMArchID, 0, false, PrivMachine)
	b.define(CSRMImpID, 0, false, PrivMachine)
	b.define(CSRMHartID, 0, false, PrivMachine)
	b.define(CSRMISA, ext.MisaBits(), false, PrivMachine)
	b.define(CSRMTVec, 0x40000000, true, PrivMachine)
	b.define(CSRMEPC, 0, true, PrivMachine)
	b.define(CSRMCause, 0, true, PrivMachine)
	b.define(CSRMTVal, 0, true, PrivMachine)
	b.define(CSRMStatus, 0, true, PrivMachine)
	b.define(CSRFCSR, 0, true, PrivUser)
	return b
}

func (b *CSRBank) define(addr uint16, initial uint64, writable bool, priv Privilege) {
	b.entries[addr] = &csrEntry{value: initial, writable: writable, privilege: priv}
}

// Read returns the CSR's current value and whether the address is
// recognized.
func (b *CSRBank) Read(addr uint16) (uint64, bool) {
	e, ok := b.entries[addr]
	if !ok {
		return 0, false
	}
	return e.value, true
}

// Write stores value into the CSR at addr. Reports false if the address is
// unrecognized or the CSR is read-only; callers are responsible for
// raising illegal-instruction in that case.
func (b *CSRBank) Write(addr uint16, value uint64) bool {
	e, ok := b.entries[addr]
	if !ok || !e.writable {
		return false
	}
	e.value = value
	return true
}

// Writable reports whether addr exists and is writable, without mutating
// anything.
func (b *CSRBank) Writable(addr uint16) bool {
	e, ok := b.entries[addr]
	return ok && e.writable
}

// Exists reports whether addr is a recognized CSR.
func (b *CSRBank) Exists(addr uint16) bool {
	_, ok := b.entries[addr]
	return ok
}

// RoundingMode returns the dynamic rounding mode currently selected by
// fcsr[7:5].
func (b *CSRBank) RoundingMode() RoundingMode {
	v, _ := b.Read(CSRFCSR)
	return RoundingMode((v & fcsrRMMask) >> fcsrRMShift)
}

// SetRoundingMode overwrites fcsr[7:5], leaving the sticky flags alone.
func (b *CSRBank) SetRoundingMode(rm RoundingMode) {
	e := b.entries[CSRFCSR]
	e.value = (e.value &^ uint64(fcsrRMMask)) | (uint64(rm) << fcsrRMShift)
}

// RaiseFlags ORs the given soft-float exception flag bits into fcsr[4:0].
// Flags are sticky: only an explicit CSR write clears them.
func (b *CSRBank) RaiseFlags(flags uint64) {
	e := b.entries[CSRFCSR]
	e.value |= flags & fcsrFlagsMask
}

// Flags returns the current sticky exception flag bits.
func (b *CSRBank) Flags() uint64 {
	v, _ := b.Read(CSRFCSR)
	return v & fcsrFlagsMask
}

// Reset restores every CSR to its construction-time value. mtvec returns
// to 0x40000000; RO identity CSRs stay zero.
func (b *CSRBank) Reset(ext Extensions) {
	*b = *NewCSRBank(ext)
}
