// Copyright (c) 2026 Robert Clausecker <fuz@fuz.su>

package fppop

import "unsafe"

// largest alignment a Buffer keeps track of
const maxAlignment = 64

// A Buffer is a read-only view of a caller-owned fingerprint record,
// usually one fixed-stride record of an arena.  The start address
// residue modulo 64 is recorded when the view is made; the selector
// only ever looks at the recorded residue.
type Buffer struct {
	buf     []byte
	residue uint8
}

// NewBuffer returns a view of buf.  The memory is neither copied nor
// retained beyond the lifetime of the view.
func NewBuffer(buf []byte) Buffer {
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	return Buffer{buf: buf, residue: uint8(addr % maxAlignment)}
}

// Bytes returns the underlying record.
func (b Buffer) Bytes() []byte {
	return b.buf
}

// Len returns the length of the underlying record in bytes.
func (b Buffer) Len() int {
	return len(b.buf)
}

// Residue returns the start address of b modulo w.  w must be a power
// of two no larger than 64.
func (b Buffer) Residue(w int) int {
	if w <= 0 || w > maxAlignment || w&(w-1) != 0 {
		panic("fppop: alignment must be a power of two no larger than 64")
	}

	return int(b.residue) & (w - 1)
}

// Aligned reports whether b starts at a multiple of w bytes.
func (b Buffer) Aligned(w int) bool {
	return b.Residue(w) == 0
}

// AlignedBytes allocates size bytes starting at a multiple of align
// bytes, a power of two no larger than 64.  Use it to allocate arenas
// of OptimalAlignment aligned records.
func AlignedBytes(size, align int) []byte {
	if align <= 0 || align > maxAlignment || align&(align-1) != 0 {
		panic("fppop: alignment must be a power of two no larger than 64")
	}

	buf := make([]byte, size+align-1)
	off := 0
	if r := int(uintptr(unsafe.Pointer(unsafe.SliceData(buf))) & uintptr(align-1)); r != 0 {
		off = align - r
	}

	return buf[off : off+size : off+size]
}
