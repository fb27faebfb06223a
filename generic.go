// Copyright (c) 2026 Robert Clausecker <fuz@fuz.su>

package fppop

import "math/bits"
import "sync"
import "unsafe"

// number of set bits in each byte value
var lut8 = func() (t [256]uint8) {
	for i := range t {
		t[i] = uint8(bits.OnesCount8(uint8(i)))
	}

	return
}()

// number of set bits in each 16-bit value, built on first use
var (
	lut16     *[1 << 16]uint8
	lut16once sync.Once
)

func lut16table() *[1 << 16]uint8 {
	lut16once.Do(func() {
		t := new([1 << 16]uint8)
		for i := range t {
			t[i] = lut8[i&0xff] + lut8[i>>8]
		}

		lut16 = t
	})

	return lut16
}

// View the first n 32-bit words of fp.  fp must be 4 byte aligned.
// Reslicing first makes a short record panic instead of reading past
// the end of the record.
func words32(fp []byte, n int) []uint32 {
	if n == 0 {
		return nil
	}

	fp = fp[:4*n]
	return unsafe.Slice((*uint32)(unsafe.Pointer(&fp[0])), n)
}

// View the first n 64-bit words of fp.  fp must be 8 byte aligned.
func words64(fp []byte, n int) []uint64 {
	if n == 0 {
		return nil
	}

	fp = fp[:8*n]
	return unsafe.Slice((*uint64)(unsafe.Pointer(&fp[0])), n)
}

// lut8-1 popcount: one table lookup per byte
func popcountLUT8x1(n int, fp []byte) int {
	cnt := 0
	for _, c := range fp[:n] {
		cnt += int(lut8[c])
	}

	return cnt
}

func intersectLUT8x1(n int, fp1, fp2 []byte) int {
	fp1, fp2 = fp1[:n], fp2[:n]

	cnt := 0
	for i := range fp1 {
		cnt += int(lut8[fp1[i]&fp2[i]])
	}

	return cnt
}

// lut8-4 popcount.  The byte count is rounded up to whole words; the
// selector makes sure the storage length covers the rounding.
func popcountLUT8x4(n int, fp []byte) int {
	cnt := 0
	for _, x := range words32(fp, (n+3)/4) {
		cnt += int(lut8[x&0xff])
		cnt += int(lut8[x>>8&0xff])
		cnt += int(lut8[x>>16&0xff])
		cnt += int(lut8[x>>24])
	}

	return cnt
}

func intersectLUT8x4(n int, fp1, fp2 []byte) int {
	w1, w2 := words32(fp1, (n+3)/4), words32(fp2, (n+3)/4)

	cnt := 0
	for i := range w1 {
		x := w1[i] & w2[i]
		cnt += int(lut8[x&0xff])
		cnt += int(lut8[x>>8&0xff])
		cnt += int(lut8[x>>16&0xff])
		cnt += int(lut8[x>>24])
	}

	return cnt
}

// lut16-4 popcount: two lookups per 32-bit word
func popcountLUT16x4(n int, fp []byte) int {
	lut := lut16table()

	cnt := 0
	for _, x := range words32(fp, (n+3)/4) {
		cnt += int(lut[x&0xffff])
		cnt += int(lut[x>>16])
	}

	return cnt
}

func intersectLUT16x4(n int, fp1, fp2 []byte) int {
	lut := lut16table()
	w1, w2 := words32(fp1, (n+3)/4), words32(fp2, (n+3)/4)

	cnt := 0
	for i := range w1 {
		x := w1[i] & w2[i]
		cnt += int(lut[x&0xffff])
		cnt += int(lut[x>>16])
	}

	return cnt
}

// Gillies-Miller population count of one word.  Unlike popcount64,
// the byte counts are folded with shifts instead of a multiplication.
func gillies64(x uint64) int {
	x -= x >> 1 & m1
	x = x&m2 + x>>2&m2
	x = (x + x>>4) & m4
	x += x >> 8
	x += x >> 16
	x += x >> 32
	return int(x & 0x7f)
}

func popcountGillies(n int, fp []byte) int {
	cnt := 0
	for _, x := range words64(fp, (n+7)/8) {
		cnt += gillies64(x)
	}

	return cnt
}

func intersectGillies(n int, fp1, fp2 []byte) int {
	w1, w2 := words64(fp1, (n+7)/8), words64(fp2, (n+7)/8)

	cnt := 0
	for i := range w1 {
		cnt += gillies64(w1[i] & w2[i])
	}

	return cnt
}

// POPCNT popcount.  math/bits compiles to the POPCNT instruction (or
// its equivalent) where the CPU has one.
func popcountPOPCNT(n int, fp []byte) int {
	cnt := 0
	for _, x := range words64(fp, (n+7)/8) {
		cnt += bits.OnesCount64(x)
	}

	return cnt
}

func intersectPOPCNT(n int, fp1, fp2 []byte) int {
	w1, w2 := words64(fp1, (n+7)/8), words64(fp2, (n+7)/8)

	cnt := 0
	for i := range w1 {
		cnt += bits.OnesCount64(w1[i] & w2[i])
	}

	return cnt
}
