// memory.go - page-granular physical memory with MMIO dispatch

package emu64

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// PageSize is the fixed page granularity of the mapping table.
const PageSize = 4096

const pageMask = PageSize - 1

// pageKind distinguishes the three page-entry variants the spec requires.
type pageKind uint8

const (
	pagePhysBacked pageKind = iota
	pageBootrom
	pageMMIO
)

// MMIOReader/MMIOWriter are the per-byte callbacks an MMIO page entry
// invokes. They are owned function values bound to whatever device state
// the caller closes over; Memory itself holds no device logic.
type MMIOReader func(addr uint64) uint8
type MMIOWriter func(addr uint64, v uint8)

// pageEntry is one mapping-table slot. Exactly one of the phys/bootrom/MMIO
// fields is meaningful, selected by kind.
type pageEntry struct {
	kind       pageKind
	physOffset uint64 // pagePhysBacked
	romOffset  uint64 // pageBootrom
	onRead     MMIOReader
	onWrite    MMIOWriter
}

// TranslationError reports the virtual address at which a memory access
// failed to translate (no mapping covers its page).
type TranslationError struct {
	Addr uint64
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("emu64: unmapped address %#x", e.Addr)
}

// Memory is the unified physical address space: a page table dispatching
// to physically-backed RAM, a bootrom image, or MMIO callbacks, plus the
// atomic reservation machinery described in atomic.go.
//
// Grounded on the teacher's memory_bus.go (PAGE_MASK/PAGE_SIZE constants,
// RWMutex-guarded flat-buffer access, MapIO) generalized from a single
// buffer-plus-IO-map into the three-entry-kind page table the spec
// requires, and from machine_bus.go's region-registration idiom for the
// builder.
type Memory struct {
	mu      sync.RWMutex
	pages   map[uint64]*pageEntry
	phys    []byte
	bootrom []byte

	atomicMu     sync.Mutex
	reservations map[uint64]int // line-aligned phys addr -> hart id
}

func pageBase(addr uint64) uint64 { return addr &^ pageMask }

func (m *Memory) lookup(addr uint64) (*pageEntry, uint64, bool) {
	e, ok := m.pages[pageBase(addr)]
	if !ok {
		return nil, 0, false
	}
	return e, addr & pageMask, true
}

// ReadByte reads one byte at virt addr.
func (m *Memory) ReadByte(addr uint64) (uint8, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.readByteLocked(addr)
}

func (m *Memory) readByteLocked(addr uint64) (uint8, error) {
	e, off, ok := m.lookup(addr)
	if !ok {
		return 0, &TranslationError{Addr: addr}
	}
	switch e.kind {
	case pagePhysBacked:
		return m.phys[e.physOffset+off], nil
	case pageBootrom:
		return m.bootrom[e.romOffset+off], nil
	case pageMMIO:
		return e.onRead(addr), nil
	default:
		return 0, &TranslationError{Addr: addr}
	}
}

// WriteByte writes one byte at virt addr. A write to a physically-backed
// byte evicts any reservation on its 64-byte-aligned line, regardless of
// which hart holds it.
func (m *Memory) WriteByte(addr uint64, v uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeByteLocked(addr, v)
}

func (m *Memory) writeByteLocked(addr uint64, v uint8) error {
	e, off, ok := m.lookup(addr)
	if !ok {
		return &TranslationError{Addr: addr}
	}
	switch e.kind {
	case pagePhysBacked:
		m.phys[e.physOffset+off] = v
		m.evictLine(e.physOffset + off)
		return nil
	case pageBootrom:
		m.bootrom[e.romOffset+off] = v
		return nil
	case pageMMIO:
		e.onWrite(addr, v)
		return nil
	default:
		return &TranslationError{Addr: addr}
	}
}

// writeU32NoEvict/writeU64NoEvict write without touching reservation
// state, for use by callers (AtomicOpWord/Dword) that already hold
// atomicMu and manage eviction themselves — going through WriteU32/WriteU64
// there would re-enter atomicMu and deadlock.
func (m *Memory) writeU32NoEvict(addr uint64, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range buf {
		e, off, ok := m.lookup(addr + uint64(i))
		if !ok {
			return &TranslationError{Addr: addr + uint64(i)}
		}
		switch e.kind {
		case pagePhysBacked:
			m.phys[e.physOffset+off] = b
		case pageBootrom:
			m.bootrom[e.romOffset+off] = b
		case pageMMIO:
			e.onWrite(addr+uint64(i), b)
		}
	}
	return nil
}

func (m *Memory) writeU64NoEvict(addr uint64, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range buf {
		e, off, ok := m.lookup(addr + uint64(i))
		if !ok {
			return &TranslationError{Addr: addr + uint64(i)}
		}
		switch e.kind {
		case pagePhysBacked:
			m.phys[e.physOffset+off] = b
		case pageBootrom:
			m.bootrom[e.romOffset+off] = b
		case pageMMIO:
			e.onWrite(addr+uint64(i), b)
		}
	}
	return nil
}

// ReadSlice fills out byte-by-byte starting at virt addr. On the first
// translation failure it returns the failing virtual address and stops;
// bytes already filled remain as written.
func (m *Memory) ReadSlice(addr uint64, out []byte) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range out {
		b, err := m.readByteLocked(addr + uint64(i))
		if err != nil {
			return err
		}
		out[i] = b
	}
	return nil
}

// WriteSlice writes data byte-by-byte starting at virt addr, same
// failure contract as ReadSlice.
func (m *Memory) WriteSlice(addr uint64, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range data {
		if err := m.writeByteLocked(addr+uint64(i), b); err != nil {
			return err
		}
	}
	return nil
}

// ReadU16/U32/U64 and WriteU16/U32/U64 are little-endian typed helpers;
// each succeeds only if the entire span translates.
func (m *Memory) ReadU16(addr uint64) (uint16, error) {
	var buf [2]byte
	if err := m.ReadSlice(addr, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

func (m *Memory) ReadU32(addr uint64) (uint32, error) {
	var buf [4]byte
	if err := m.ReadSlice(addr, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (m *Memory) ReadU64(addr uint64) (uint64, error) {
	var buf [8]byte
	if err := m.ReadSlice(addr, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func (m *Memory) WriteU16(addr uint64, v uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return m.WriteSlice(addr, buf[:])
}

func (m *Memory) WriteU32(addr uint64, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return m.WriteSlice(addr, buf[:])
}

func (m *Memory) WriteU64(addr uint64, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return m.WriteSlice(addr, buf[:])
}

// Reset zeroes physical RAM; the bootrom image and the page table are left
// intact (the bootrom is reloaded by whoever constructed the Memory, not
// recreated here).
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.phys {
		m.phys[i] = 0
	}
	m.atomicMu.Lock()
	m.reservations = make(map[uint64]int)
	m.atomicMu.Unlock()
}
