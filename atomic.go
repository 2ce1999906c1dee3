// atomic.go - atomic reservations and the AMO/LR/SC primitives

package emu64

const reservationLineSize = 64
const reservationLineMask = reservationLineSize - 1

func lineBase(physAddr uint64) uint64 { return physAddr &^ reservationLineMask }

// evictLine drops any reservation covering physAddr's 64-byte line,
// regardless of which hart holds it. Called on every physically-backed
// byte write (see WriteByte/WriteSlice).
//
// Grounded on original_source/'s insn32/amo.rs eviction-on-any-store rule;
// no teacher file models reservations (none of its CPU cores are
// multi-hart/atomic), so the sync.Mutex-guarded map idiom instead follows
// the teacher's own memory_bus.go bus-locking convention.
func (m *Memory) evictLine(physAddr uint64) {
	m.atomicMu.Lock()
	delete(m.reservations, lineBase(physAddr))
	m.atomicMu.Unlock()
}

// physAddrOf resolves addr to the flat physical buffer offset backing it,
// for reservation bookkeeping. Only physically-backed pages can carry a
// reservation; bootrom and MMIO pages cannot.
func (m *Memory) physAddrOf(addr uint64) (uint64, bool) {
	e, off, ok := m.lookup(addr)
	if !ok || e.kind != pagePhysBacked {
		return 0, false
	}
	return e.physOffset + off, true
}

// LoadReservedWord/Dword translate addr, install a reservation for hartID
// at the line-aligned physical address, and return the loaded value.
func (m *Memory) LoadReservedWord(addr uint64, hartID int) (uint32, error) {
	v, err := m.ReadU32(addr)
	if err != nil {
		return 0, err
	}
	m.installReservation(addr, hartID)
	return v, nil
}

func (m *Memory) LoadReservedDword(addr uint64, hartID int) (uint64, error) {
	v, err := m.ReadU64(addr)
	if err != nil {
		return 0, err
	}
	m.installReservation(addr, hartID)
	return v, nil
}

func (m *Memory) installReservation(addr uint64, hartID int) {
	m.mu.RLock()
	phys, ok := m.physAddrOf(addr)
	m.mu.RUnlock()
	if !ok {
		return
	}
	m.atomicMu.Lock()
	m.reservations[lineBase(phys)] = hartID
	m.atomicMu.Unlock()
}

// StoreConditionalWord/Dword check the reservation for hartID at addr; if
// held, perform the store, clear the reservation, and report success. If
// not held, report failure without storing. Translation failure is
// reported as an error regardless of reservation state.
func (m *Memory) StoreConditionalWord(addr uint64, hartID int, value uint32) (bool, error) {
	m.mu.RLock()
	phys, ok := m.physAddrOf(addr)
	m.mu.RUnlock()
	if !ok {
		return false, &TranslationError{Addr: addr}
	}
	m.atomicMu.Lock()
	holder, reserved := m.reservations[lineBase(phys)]
	held := reserved && holder == hartID
	if held {
		delete(m.reservations, lineBase(phys))
	}
	m.atomicMu.Unlock()
	if !held {
		return false, nil
	}
	if err := m.WriteU32(addr, value); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) StoreConditionalDword(addr uint64, hartID int, value uint64) (bool, error) {
	m.mu.RLock()
	phys, ok := m.physAddrOf(addr)
	m.mu.RUnlock()
	if !ok {
		return false, &TranslationError{Addr: addr}
	}
	m.atomicMu.Lock()
	holder, reserved := m.reservations[lineBase(phys)]
	held := reserved && holder == hartID
	if held {
		delete(m.reservations, lineBase(phys))
	}
	m.atomicMu.Unlock()
	if !held {
		return false, nil
	}
	if err := m.WriteU64(addr, value); err != nil {
		return false, err
	}
	return true, nil
}

// AtomicOpWord/Dword perform a read-modify-write under the atomic lock:
// read the current value, call transform to get the new value, write it
// back, and return the value as it was *before* the write (the value an
// AMO instruction's destination register receives).
//
// The write bypasses the normal WriteU32/WriteU64 path because those
// evict a reservation by taking atomicMu themselves, which this function
// already holds; eviction is instead performed inline while the lock is
// held.
func (m *Memory) AtomicOpWord(addr uint64, transform func(uint32) uint32) (uint32, error) {
	m.atomicMu.Lock()
	defer m.atomicMu.Unlock()
	old, err := m.ReadU32(addr)
	if err != nil {
		return 0, err
	}
	m.mu.RLock()
	phys, hasPhys := m.physAddrOf(addr)
	m.mu.RUnlock()
	if err := m.writeU32NoEvict(addr, transform(old)); err != nil {
		return 0, err
	}
	if hasPhys {
		delete(m.reservations, lineBase(phys))
	}
	return old, nil
}

func (m *Memory) AtomicOpDword(addr uint64, transform func(uint64) uint64) (uint64, error) {
	m.atomicMu.Lock()
	defer m.atomicMu.Unlock()
	old, err := m.ReadU64(addr)
	if err != nil {
		return 0, err
	}
	m.mu.RLock()
	phys, hasPhys := m.physAddrOf(addr)
	m.mu.RUnlock()
	if err := m.writeU64NoEvict(addr, transform(old)); err != nil {
		return 0, err
	}
	if hasPhys {
		delete(m.reservations, lineBase(phys))
	}
	return old, nil
}
