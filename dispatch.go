// Copyright (c) 2026 Robert Clausecker <fuz@fuz.su>

// Fingerprint population counts.
//
// This package computes the population count and the intersection
// population count (the population count of a AND b) of fixed-length
// binary fingerprints as used for molecular similarity search.  A
// family of counting kernels is provided: a byte-wise table lookup that
// works on any buffer, 32-bit table lookups for 4 byte aligned records,
// and several 64-bit kernels (Lauradoux tree merging, Gillies, nibble
// counting, and the POPCNT instruction) for 8 byte aligned records.
//
// Which kernel may be used depends on the fingerprint length, the
// storage length of each record (the arena stride), the alignment of
// the record's start address, and the instruction set extensions
// available on your CPU.  The selector functions take this metadata,
// wrapped in a Buffer, and return a Kernel that is then used for all
// subsequent counts with the same layout.  Kernels do not check their
// preconditions; the selector does.
//
// See the examples on SelectPopcount and SelectIntersect.
package fppop

import "fmt"
import "strings"

// Method identifies a counting kernel.
type Method uint8

const (
	LUT8x1    Method = iota // byte-wise 8-bit table lookup, any alignment
	LUT8x4                  // 8-bit table lookups on 32-bit words
	LUT16x4                 // 16-bit table lookups on 32-bit words
	Lauradoux               // 64-bit tree merging, 96 byte blocks
	POPCNT                  // hardware population count on 64-bit words
	Gillies                 // Gillies-Miller bit twiddling on 64-bit words
	Shuffle                 // nibble counts accumulated in byte lanes
	numMethods
)

// Alignment identifies an alignment class.  Each class has an ordered
// list of candidate methods; the first one available on this machine
// is the class's active method.
type Alignment uint8

const (
	Align1      Alignment = iota // no alignment
	Align4                       // 4 byte aligned
	Align8Small                  // 8 byte aligned, short fingerprints
	Align8Large                  // 8 byte aligned, at least 96 bytes
	AlignSSSE3                   // 64 byte aligned, at least 64 bytes
	numAlignments
)

// each platform must provide the variables hasPOPCNT and hasShuffle
// telling whether the corresponding kernels are worth running on this
// machine.  The remaining kernels are portable and always available.

type method struct {
	name      string
	alignment int // required start address and storage length multiple
	minSize   int // smallest byte count the kernel is worth using for
	available bool
	popcount  func(n int, fp []byte) int
	intersect func(n int, fp1, fp2 []byte) int
}

var methods = [numMethods]method{
	LUT8x1:    {"lut8-1", 1, 0, true, popcountLUT8x1, intersectLUT8x1},
	LUT8x4:    {"lut8-4", 4, 4, true, popcountLUT8x4, intersectLUT8x4},
	LUT16x4:   {"lut16-4", 4, 4, true, popcountLUT16x4, intersectLUT16x4},
	Lauradoux: {"Lauradoux", 8, 96, true, popcountLauradoux, intersectLauradoux},
	POPCNT:    {"POPCNT", 8, 8, hasPOPCNT, popcountPOPCNT, intersectPOPCNT},
	Gillies:   {"Gillies", 8, 8, true, popcountGillies, intersectGillies},
	Shuffle:   {"ssse3", 8, 64, hasShuffle, popcountShuffle, intersectShuffle},
}

type alignment struct {
	name       string
	alignment  int
	minSize    int
	candidates []Method
	active     Method
}

// alignment classes and their active methods, fixed at startup
var alignments = func() [numAlignments]alignment {
	a := [numAlignments]alignment{
		Align1:      {"align1", 1, 0, []Method{LUT8x1}, 0},
		Align4:      {"align4", 4, 0, []Method{LUT8x4, LUT16x4}, 0},
		Align8Small: {"align8-small", 8, 0, []Method{POPCNT, Gillies}, 0},
		Align8Large: {"align8-large", 8, 96, []Method{POPCNT, Lauradoux}, 0},
		AlignSSSE3:  {"align-ssse3", 64, 64, []Method{POPCNT, Shuffle, Lauradoux}, 0},
	}

	for i := range a {
		a[i].active = firstAvailable(&a[i])
	}

	return a
}()

func firstAvailable(a *alignment) Method {
	for _, m := range a.candidates {
		if methods[m].available {
			return m
		}
	}

	panic("no method available for alignment class " + a.name)
}

// String returns the name of m, e.g. "lut8-4" or "Lauradoux".
func (m Method) String() string {
	if m >= numMethods {
		return fmt.Sprintf("Method(%d)", uint8(m))
	}

	return methods[m].name
}

// ParseMethod looks up a method by name.  Case is ignored.
func ParseMethod(name string) (Method, error) {
	for i := range methods {
		if strings.EqualFold(methods[i].name, strings.TrimSpace(name)) {
			return Method(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
}

// Available reports whether the CPU supports m.  Detection runs once
// when the package is initialised.
func (m Method) Available() bool {
	return m < numMethods && methods[m].available
}

// Alignment returns the byte alignment m requires of both the start
// address and the storage length of a record.
func (m Method) Alignment() int {
	return methods[m].alignment
}

// MinSize returns the smallest fingerprint byte count for which m is
// worth using.  Smaller counts are still computed correctly.
func (m Method) MinSize() int {
	return methods[m].minSize
}

// Popcount counts the set bits in the first n bytes of fp using m.
// The caller must honour m's preconditions: fp must start at a
// multiple of m.Alignment() and hold n bytes rounded up to a multiple
// of m.Alignment(), with all bytes past the fingerprint cleared.
func (m Method) Popcount(n int, fp []byte) int {
	return methods[m].popcount(n, fp)
}

// Intersect counts the bits set in both of the first n bytes of fp1
// and fp2 using m.  The preconditions of Popcount apply to both
// buffers.
func (m Method) Intersect(n int, fp1, fp2 []byte) int {
	return methods[m].intersect(n, fp1, fp2)
}

// Methods returns all methods, available or not, in registry order.
func Methods() []Method {
	ms := make([]Method, numMethods)
	for i := range ms {
		ms[i] = Method(i)
	}

	return ms
}

// AvailableMethods returns the methods the CPU supports.
func AvailableMethods() []Method {
	var ms []Method
	for i := range methods {
		if methods[i].available {
			ms = append(ms, Method(i))
		}
	}

	return ms
}

// String returns the name of a, e.g. "align8-large".
func (a Alignment) String() string {
	if a >= numAlignments {
		return fmt.Sprintf("Alignment(%d)", uint8(a))
	}

	return alignments[a].name
}

// ParseAlignment looks up an alignment class by name.  Case is ignored.
func ParseAlignment(name string) (Alignment, error) {
	for i := range alignments {
		if strings.EqualFold(alignments[i].name, strings.TrimSpace(name)) {
			return Alignment(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownAlignment, name)
}

// Alignments returns all alignment classes.
func Alignments() []Alignment {
	as := make([]Alignment, numAlignments)
	for i := range as {
		as[i] = Alignment(i)
	}

	return as
}

// Bytes returns the start address and storage length multiple
// records of class a have.
func (a Alignment) Bytes() int {
	return alignments[a].alignment
}

// MinSize returns the smallest fingerprint byte count class a is
// used for.
func (a Alignment) MinSize() int {
	return alignments[a].minSize
}

// Candidates returns the methods of class a in order of preference.
func (a Alignment) Candidates() []Method {
	return append([]Method(nil), alignments[a].candidates...)
}

// Method returns the active method of class a, i.e. the first of its
// candidates available on this machine.
func (a Alignment) Method() Method {
	return alignments[a].active
}

// OptimalAlignment returns the record alignment in bytes an arena of
// numBits bit fingerprints should use so the fastest method on this
// machine applies.  The storage length should be padded to a multiple
// of the same value.
func OptimalAlignment(numBits int) int {
	return Default().OptimalAlignment(numBits)
}
