// Copyright (c) 2026 Robert Clausecker <fuz@fuz.su>

package fppop

// Population count using 64-bit tree merging.  This uses only 8
// operations per 8 bytes.  The algorithm is due to Cédric Lauradoux
// and is described and benchmarked against lookup tables and bit
// slicing in his paper "Hamming weight".  Blocks of 12 words (96 bytes)
// are processed per iteration so fingerprints as short as 881 bits
// still profit from it.

const (
	m1  = 0x5555555555555555
	m2  = 0x3333333333333333
	m4  = 0x0f0f0f0f0f0f0f0f
	m8  = 0x00ff00ff00ff00ff
	m16 = 0x0000ffff0000ffff
	h01 = 0x0101010101010101
)

// words per tree merging block
const lauradouxBlock = 12

// Merge three words into byte-wise bit counts of at most 24 each.
// The third word is split into its even and odd bits, which are added
// to the 2-bit counts of the first two words.  A 2-bit field holds at
// most 2 bits of its own word plus 1 bit of the third word, so nothing
// overflows.
func merge3(count1, count2, half uint64) uint64 {
	half1 := half & m1
	half2 := half >> 1 & m1
	count1 -= count1 >> 1 & m1
	count2 -= count2 >> 1 & m1
	count1 += half1
	count2 += half2
	count1 = count1&m2 + count1>>2&m2
	count1 += count2&m2 + count2>>2&m2
	return count1&m4 + count1>>4&m4
}

// Sum the byte-wise counts of a block (at most 96 per byte).
func collapse(acc uint64) int {
	acc = acc&m8 + acc>>8&m8
	acc = (acc + acc>>16) & m16
	acc += acc >> 32
	return int(uint32(acc))
}

// Count the bits in a single word, "Counting bits set, in parallel"
// from the bit twiddling hacks.  Used for the words after the last
// full block (at most 88 bytes).
func popcount64(x uint64) int {
	x -= x >> 1 & m1
	x = x&m2 + x>>2&m2
	x = (x + x>>4) & m4
	return int(x * h01 >> 56)
}

// Lauradoux popcount.  n is the fingerprint length in bytes, like for
// every other kernel; it is rounded up to whole 64-bit words here.
func popcountLauradoux(n int, fp []byte) int {
	w := words64(fp, (n+7)/8)
	limit := len(w) - len(w)%lauradouxBlock

	cnt := 0
	for i := 0; i < limit; i += lauradouxBlock {
		b := w[i : i+lauradouxBlock : i+lauradouxBlock]
		var acc uint64
		for j := 0; j < lauradouxBlock; j += 3 {
			acc += merge3(b[j], b[j+1], b[j+2])
		}

		cnt += collapse(acc)
	}

	for _, x := range w[limit:] {
		cnt += popcount64(x)
	}

	return cnt
}

func intersectLauradoux(n int, fp1, fp2 []byte) int {
	w1, w2 := words64(fp1, (n+7)/8), words64(fp2, (n+7)/8)
	w2 = w2[:len(w1)]
	limit := len(w1) - len(w1)%lauradouxBlock

	cnt := 0
	for i := 0; i < limit; i += lauradouxBlock {
		b1 := w1[i : i+lauradouxBlock : i+lauradouxBlock]
		b2 := w2[i : i+lauradouxBlock : i+lauradouxBlock]
		var acc uint64
		for j := 0; j < lauradouxBlock; j += 3 {
			acc += merge3(b1[j]&b2[j], b1[j+1]&b2[j+1], b1[j+2]&b2[j+2])
		}

		cnt += collapse(acc)
	}

	for i := limit; i < len(w1); i++ {
		cnt += popcount64(w1[i] & w2[i])
	}

	return cnt
}
