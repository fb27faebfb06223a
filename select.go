// Copyright (c) 2026 Robert Clausecker <fuz@fuz.su>

package fppop

import "fmt"
import "log/slog"
import "maps"

// A Kernel is a counting method bound to a fingerprint length.  It is
// returned by the selectors and used for every count of fingerprints
// with the layout it was selected for.  Kernels are plain values and
// safe for concurrent use.
type Kernel struct {
	method   Method
	numBytes int
}

// Method returns the counting method k uses.
func (k Kernel) Method() Method {
	return k.method
}

// NumBytes returns the fingerprint length in bytes k counts.
func (k Kernel) NumBytes() int {
	return k.numBytes
}

// Popcount returns the number of set bits of the fingerprint stored in
// record fp.  fp must be laid out like the buffer k was selected for.
func (k Kernel) Popcount(fp []byte) int {
	return methods[k.method].popcount(k.numBytes, fp)
}

// Intersect returns the number of bits set in both fingerprints fp1
// and fp2.  Both must be laid out like the buffers k was selected for.
func (k Kernel) Intersect(fp1, fp2 []byte) int {
	return methods[k.method].intersect(k.numBytes, fp1, fp2)
}

func (k Kernel) String() string {
	return fmt.Sprintf("%s/%d", k.method, k.numBytes)
}

// A Selector picks counting kernels for fingerprint layouts.  Its
// configuration is fixed when it is made; only the reporting flags can
// be toggled later.  A Selector is safe for concurrent use.
type Selector struct {
	cfg       Config
	popcount  notice
	intersect notice
}

// NewSelector returns a Selector configured by DefaultConfig and opts.
func NewSelector(opts ...Option) (*Selector, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.ClassMethods = maps.Clone(cfg.ClassMethods)

	s := &Selector{cfg: cfg}
	s.popcount.msg = "using popcount method"
	s.intersect.msg = "using intersect popcount method"
	s.popcount.enabled.Store(cfg.ReportPopcount)
	s.intersect.enabled.Store(cfg.ReportIntersect)

	return s, nil
}

var defaultSelector = func() *Selector {
	s, err := NewSelector()
	if err != nil {
		panic(err)
	}

	return s
}()

// Default returns the process wide Selector used by the package level
// functions.
func Default() *Selector {
	return defaultSelector
}

// Config returns the configuration of s.  The reporting flags reflect
// their current values.
func (s *Selector) Config() Config {
	cfg := s.cfg
	cfg.ClassMethods = maps.Clone(s.cfg.ClassMethods)
	cfg.ReportPopcount = s.popcount.enabled.Load()
	cfg.ReportIntersect = s.intersect.enabled.Load()

	return cfg
}

func (s *Selector) logger() *slog.Logger {
	if s.cfg.Logger != nil {
		return s.cfg.Logger
	}

	return slog.Default()
}

// ReportPopcount reports whether popcount selections are logged.
func (s *Selector) ReportPopcount() bool {
	return s.popcount.enabled.Load()
}

// SetReportPopcount enables or disables logging of popcount
// selections.  Enabling it logs the next selection even if its method
// was reported before.
func (s *Selector) SetReportPopcount(report bool) {
	s.popcount.setEnabled(report)
}

// ReportIntersect reports whether intersect selections are logged.
func (s *Selector) ReportIntersect() bool {
	return s.intersect.enabled.Load()
}

// SetReportIntersect enables or disables logging of intersect
// selections.
func (s *Selector) SetReportIntersect(report bool) {
	s.intersect.setEnabled(report)
}

// active method of class a under this configuration
func (s *Selector) classMethod(a Alignment) Method {
	if m, ok := s.cfg.ClassMethods[a]; ok {
		return m
	}

	return alignments[a].active
}

// bytes needed for numBits bits, without overflowing near math.MaxInt
func byteCount(numBits int) int {
	n := numBits / 8
	if numBits%8 > 0 {
		n++
	}

	return n
}

func kernel(m Method, numBytes int) Kernel {
	return Kernel{method: m, numBytes: numBytes}
}

// SelectPopcount returns the fastest kernel for counting numBits bit
// fingerprints stored in records of storageLen bytes laid out like buf.
// A *CapacityError is returned if the fingerprint does not fit the
// storage.
func (s *Selector) SelectPopcount(numBits, storageLen int, buf Buffer) (Kernel, error) {
	numBytes := byteCount(numBits)
	if numBits < 0 || storageLen < 0 || numBytes > storageLen {
		return Kernel{}, &CapacityError{numBits, numBytes, storageLen}
	}

	m := s.popcountMethod(numBytes, storageLen, buf)
	s.popcount.report(s.logger(), m)

	return kernel(m, numBytes), nil
}

func (s *Selector) popcountMethod(numBytes, storageLen int, buf Buffer) Method {
	switch {
	case numBytes < 4:
		// no reason to optimise this
		return LUT8x1
	case !buf.Aligned(4):
		return LUT8x1
	case storageLen%4 != 0:
		// the first record is aligned but the next one is not
		return LUT8x1
	}

	if buf.Aligned(8) && storageLen%8 == 0 {
		switch {
		case buf.Aligned(64) && storageLen%64 == 0 && numBytes >= alignments[AlignSSSE3].minSize:
			return s.classMethod(AlignSSSE3)
		case numBytes >= alignments[Align8Large].minSize:
			return s.classMethod(Align8Large)
		case s.cfg.PreferWideWords:
			return s.classMethod(Align8Small)
		}
	}

	return s.classMethod(Align4)
}

// SelectIntersect returns the fastest kernel for intersecting numBits
// bit fingerprints stored in records of storageLen1 bytes laid out like
// buf1 with those stored in records of storageLen2 bytes laid out like
// buf2.  A *CapacityError is returned if the fingerprint does not fit
// the smaller storage.
func (s *Selector) SelectIntersect(numBits, storageLen1 int, buf1 Buffer, storageLen2 int, buf2 Buffer) (Kernel, error) {
	numBytes := byteCount(numBits)
	storageLen := min(storageLen1, storageLen2)
	if numBits < 0 || storageLen < 0 || numBytes > storageLen {
		return Kernel{}, &CapacityError{numBits, numBytes, storageLen}
	}

	m := s.intersectMethod(numBits, storageLen1, buf1, storageLen2, buf2)
	s.intersect.report(s.logger(), m)

	return kernel(m, numBytes), nil
}

func (s *Selector) intersectMethod(numBits, storageLen1 int, buf1 Buffer, storageLen2 int, buf2 Buffer) Method {
	numBytes := byteCount(numBits)

	switch {
	case numBytes < 4:
		return LUT8x1
	case buf1.Residue(4) != buf2.Residue(4):
		// words of the two records do not line up
		return LUT8x1
	case buf1.Residue(4) != 0:
		return LUT8x1
	case storageLen1%4 != 0 || storageLen2%4 != 0:
		return LUT8x1
	case numBits < 256:
		// fixed overhead not worth it
		return LUT8x1
	}

	if s.cfg.Intersect != IntersectLUT &&
		buf1.Aligned(8) && buf2.Aligned(8) &&
		storageLen1%8 == 0 && storageLen2%8 == 0 &&
		numBytes >= alignments[Align8Large].minSize {
		if s.cfg.Intersect == IntersectNative {
			return s.classMethod(Align8Large)
		}

		return Lauradoux
	}

	return s.classMethod(Align4)
}

// OptimalAlignment returns the record alignment in bytes an arena of
// numBits bit fingerprints should use under the configuration of s.
func (s *Selector) OptimalAlignment(numBits int) int {
	switch {
	case numBits <= 8:
		return 1
	case numBits <= 32:
		return 4
	case numBits <= 224:
		// the nibble kernel needs 512 bits before it pays off
		return 8
	}

	// with POPCNT there is no reason for a larger alignment
	class := Align8Small
	if numBits >= 768 {
		class = Align8Large
	}

	if s.classMethod(class) == POPCNT {
		return 8
	}

	if s.classMethod(AlignSSSE3) != Shuffle {
		return 8
	}

	return alignments[AlignSSSE3].alignment
}

// SelectPopcount selects a popcount kernel using the default Selector.
func SelectPopcount(numBits, storageLen int, buf Buffer) (Kernel, error) {
	return defaultSelector.SelectPopcount(numBits, storageLen, buf)
}

// SelectIntersect selects an intersect kernel using the default
// Selector.
func SelectIntersect(numBits, storageLen1 int, buf1 Buffer, storageLen2 int, buf2 Buffer) (Kernel, error) {
	return defaultSelector.SelectIntersect(numBits, storageLen1, buf1, storageLen2, buf2)
}

// ReportPopcount reports whether the default Selector logs popcount
// selections.  The default is false.
func ReportPopcount() bool {
	return defaultSelector.ReportPopcount()
}

// SetReportPopcount sets whether the default Selector logs popcount
// selections.
func SetReportPopcount(report bool) {
	defaultSelector.SetReportPopcount(report)
}

// ReportIntersect reports whether the default Selector logs intersect
// selections.  The default is false.
func ReportIntersect() bool {
	return defaultSelector.ReportIntersect()
}

// SetReportIntersect sets whether the default Selector logs intersect
// selections.
func SetReportIntersect(report bool) {
	defaultSelector.SetReportIntersect(report)
}
