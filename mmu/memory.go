// Package mmu implements a demand-allocated, two-level page-table memory
// abstraction for the RV32 address space. It presents a flat,
// byte-addressable Memory to its callers; the paging structure beneath
// it exists purely to avoid allocating the entire 4GiB address space
// up front.
package mmu

import "errors"

// ErrMemoryFault identifies an access to an address with no backing
// page. Memory has no faulting mode and never returns it: unmapped pages
// read as zero and are allocated lazily on first write, matching a
// typical demand-paged emulator rather than a strict MMU with access
// control.
var ErrMemoryFault = errors.New("mmu: memory fault")

const (
	pageBits = 12
	pageSize = 1 << pageBits // 4 KiB pages

	l2Bits = 10
	l2Size = 1 << l2Bits

	l1Bits = 10
	l1Size = 1 << l1Bits
)

type page [pageSize]byte

type l2Table [l2Size]*page

// Memory is a byte-addressable RV32 address space backed by a
// demand-allocated two-level page table: a 1024-entry first-level
// directory of 1024-entry second-level tables, each pointing at a
// lazily-allocated 4 KiB page. Unmapped pages read as zero; a page is
// allocated the first time any byte within it is written.
//
// Memory is not safe for concurrent use; the simulator drives it from
// a single goroutine per run.
type Memory struct {
	l1 [l1Size]*l2Table
}

// NewMemory creates an empty Memory with no pages allocated.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) pageFor(addr uint32, alloc bool) *page {
	l1idx := addr >> (l2Bits + pageBits)
	l2idx := (addr >> pageBits) & (l2Size - 1)

	table := m.l1[l1idx]
	if table == nil {
		if !alloc {
			return nil
		}
		table = &l2Table{}
		m.l1[l1idx] = table
	}

	p := table[l2idx]
	if p == nil {
		if !alloc {
			return nil
		}
		p = &page{}
		table[l2idx] = p
	}

	return p
}

func pageOffset(addr uint32) uint32 {
	return addr & (pageSize - 1)
}

// ReadU8 reads a single byte. Unmapped addresses read as zero.
func (m *Memory) ReadU8(addr uint32) uint8 {
	p := m.pageFor(addr, false)
	if p == nil {
		return 0
	}
	return p[pageOffset(addr)]
}

// WriteU8 writes a single byte, allocating the backing page on demand.
func (m *Memory) WriteU8(addr uint32, value uint8) {
	p := m.pageFor(addr, true)
	p[pageOffset(addr)] = value
}

// ReadU16 reads a little-endian halfword. The access need not be
// aligned; it is decomposed into two independent byte reads.
func (m *Memory) ReadU16(addr uint32) uint16 {
	lo := uint16(m.ReadU8(addr))
	hi := uint16(m.ReadU8(addr + 1))
	return lo | hi<<8
}

// WriteU16 writes a little-endian halfword, byte by byte.
func (m *Memory) WriteU16(addr uint32, value uint16) {
	m.WriteU8(addr, uint8(value))
	m.WriteU8(addr+1, uint8(value>>8))
}

// ReadU32 reads a little-endian word. The access need not be aligned;
// it is decomposed into four independent byte reads, so it never
// straddles a page in a way that requires special-casing.
func (m *Memory) ReadU32(addr uint32) uint32 {
	b0 := uint32(m.ReadU8(addr))
	b1 := uint32(m.ReadU8(addr + 1))
	b2 := uint32(m.ReadU8(addr + 2))
	b3 := uint32(m.ReadU8(addr + 3))
	return b0 | b1<<8 | b2<<16 | b3<<24
}

// WriteU32 writes a little-endian word, byte by byte.
func (m *Memory) WriteU32(addr uint32, value uint32) {
	m.WriteU8(addr, uint8(value))
	m.WriteU8(addr+1, uint8(value>>8))
	m.WriteU8(addr+2, uint8(value>>16))
	m.WriteU8(addr+3, uint8(value>>24))
}

// FetchU32 reads an instruction word. It is identical to ReadU32; it
// exists as a distinct name so fetch and load accesses remain visibly
// distinct call sites in the pipeline and single-cycle emulator.
func (m *Memory) FetchU32(addr uint32) uint32 {
	return m.ReadU32(addr)
}

// WriteBytes copies a contiguous byte slice into memory starting at
// addr, used by the ELF loader to populate PT_LOAD segments.
func (m *Memory) WriteBytes(addr uint32, data []byte) {
	for i, b := range data {
		m.WriteU8(addr+uint32(i), b)
	}
}
