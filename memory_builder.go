// memory_builder.go - staged configuration for building a Memory

package emu64

import "fmt"

// MemoryBuilder stages a Memory's page table before construction: a
// bootrom image and its virtual load address, the physical RAM size,
// zero or more physical virt-to-phys mappings, and zero or more MMIO
// regions. Build() expands each mapping into per-page entries and rejects
// any overlap.
//
// Grounded on the teacher's machine_bus.go region-registration pattern
// (register a device's address window once, up front, before the machine
// runs) adapted from a single flat IO map into the page-table builder the
// spec's three-entry-kind model requires.
type MemoryBuilder struct {
	bootrom      []byte
	bootromVirt  uint64
	physSize     uint64
	physMappings []physMapping
	mmioRegions  []mmioMapping

	err error
}

type physMapping struct {
	virtPageBase uint64
	physPageBase uint64
	size         uint64
}

type mmioMapping struct {
	virtPageBase uint64
	onRead       MMIOReader
	onWrite      MMIOWriter
}

// NewMemoryBuilder starts a fresh builder.
func NewMemoryBuilder() *MemoryBuilder {
	return &MemoryBuilder{}
}

func roundUpPage(n uint64) uint64 {
	return (n + PageSize - 1) &^ (PageSize - 1)
}

// WithBootrom stages a bootrom image to be mapped at virtAddr, which must
// be page-aligned. The image is zero-padded up to a whole number of
// pages.
func (b *MemoryBuilder) WithBootrom(virtAddr uint64, image []byte) *MemoryBuilder {
	if b.err != nil {
		return b
	}
	if virtAddr&pageMask != 0 {
		b.err = fmt.Errorf("emu64: bootrom virtual address %#x is not page-aligned", virtAddr)
		return b
	}
	if b.bootrom != nil {
		b.err = fmt.Errorf("emu64: bootrom already configured")
		return b
	}
	padded := make([]byte, roundUpPage(uint64(len(image))))
	copy(padded, image)
	b.bootrom = padded
	b.bootromVirt = virtAddr
	return b
}

// WithPhysicalSize stages the size of the flat physical RAM buffer, which
// must be a whole number of pages.
func (b *MemoryBuilder) WithPhysicalSize(size uint64) *MemoryBuilder {
	if b.err != nil {
		return b
	}
	if size&pageMask != 0 {
		b.err = fmt.Errorf("emu64: physical size %#x is not a multiple of the page size", size)
		return b
	}
	b.physSize = size
	return b
}

// WithMapping stages a virt-to-phys mapping of sizeBytes (a multiple of
// the page size) starting at virtPageBase/physPageBase, both of which
// must be page-aligned.
func (b *MemoryBuilder) WithMapping(virtPageBase, physPageBase, sizeBytes uint64) *MemoryBuilder {
	if b.err != nil {
		return b
	}
	if virtPageBase&pageMask != 0 || physPageBase&pageMask != 0 {
		b.err = fmt.Errorf("emu64: mapping addresses %#x/%#x are not page-aligned", virtPageBase, physPageBase)
		return b
	}
	if sizeBytes&pageMask != 0 {
		b.err = fmt.Errorf("emu64: mapping size %#x is not a multiple of the page size", sizeBytes)
		return b
	}
	b.physMappings = append(b.physMappings, physMapping{virtPageBase, physPageBase, sizeBytes})
	return b
}

// WithMMIO stages a single page of MMIO at virtPageBase, which must be
// page-aligned.
func (b *MemoryBuilder) WithMMIO(virtPageBase uint64, onRead MMIOReader, onWrite MMIOWriter) *MemoryBuilder {
	if b.err != nil {
		return b
	}
	if virtPageBase&pageMask != 0 {
		b.err = fmt.Errorf("emu64: MMIO address %#x is not page-aligned", virtPageBase)
		return b
	}
	b.mmioRegions = append(b.mmioRegions, mmioMapping{virtPageBase, onRead, onWrite})
	return b
}

// Build materializes the staged configuration into a Memory, expanding
// each mapping into per-page entries and rejecting any page base claimed
// twice.
func (b *MemoryBuilder) Build() (*Memory, error) {
	if b.err != nil {
		return nil, b.err
	}
	m := &Memory{
		pages:        make(map[uint64]*pageEntry),
		phys:         make([]byte, b.physSize),
		bootrom:      b.bootrom,
		reservations: make(map[uint64]int),
	}

	insert := func(virtPage uint64, e *pageEntry) error {
		if _, dup := m.pages[virtPage]; dup {
			return fmt.Errorf("emu64: page base %#x mapped more than once", virtPage)
		}
		m.pages[virtPage] = e
		return nil
	}

	for page := uint64(0); page < uint64(len(b.bootrom)); page += PageSize {
		if err := insert(b.bootromVirt+page, &pageEntry{kind: pageBootrom, romOffset: page}); err != nil {
			return nil, err
		}
	}

	for _, pm := range b.physMappings {
		for off := uint64(0); off < pm.size; off += PageSize {
			e := &pageEntry{kind: pagePhysBacked, physOffset: pm.physPageBase + off}
			if e.physOffset+PageSize > uint64(len(m.phys)) {
				return nil, fmt.Errorf("emu64: mapping at phys %#x exceeds configured physical size", e.physOffset)
			}
			if err := insert(pm.virtPageBase+off, e); err != nil {
				return nil, err
			}
		}
	}

	for _, mm := range b.mmioRegions {
		e := &pageEntry{kind: pageMMIO, onRead: mm.onRead, onWrite: mm.onWrite}
		if err := insert(mm.virtPageBase, e); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// BootromBase returns the virtual page base the bootrom was staged at,
// used by the CPU to initialize PC.
func (b *MemoryBuilder) BootromBase() uint64 { return b.bootromVirt }
