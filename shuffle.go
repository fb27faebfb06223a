// Copyright (c) 2026 Robert Clausecker <fuz@fuz.su>

package fppop

// Nibble counting kernel.  This follows the SSSE3 shuffle kernel: the
// bit counts of each nibble are computed and added into byte lanes
// over a 64 byte block, and the lanes are summed horizontally once per
// block.  Instead of looking up the nibble counts with a shuffle, they
// are computed arithmetically as v - v/2 - v/4 - v/8 in 64-bit
// registers.

// words per block
const shuffleBlock = 8

const (
	n1   = 0x7777777777777777
	n3   = 0x1111111111111111
	h001 = 0x0001000100010001
)

// bit counts of each byte of x (at most 8 each)
func byteCounts(x uint64) uint64 {
	x -= x>>1&n1 + x>>2&m2 + x>>3&n3
	return (x + x>>4) & m4
}

// sum of the byte lanes of acc (at most 64 each)
func sumLanes(acc uint64) int {
	acc = acc&m8 + acc>>8&m8
	return int(acc * h001 >> 48)
}

func popcountShuffle(n int, fp []byte) int {
	w := words64(fp, (n+7)/8)
	limit := len(w) - len(w)%shuffleBlock

	cnt := 0
	for i := 0; i < limit; i += shuffleBlock {
		var acc uint64
		for _, x := range w[i : i+shuffleBlock] {
			acc += byteCounts(x)
		}

		cnt += sumLanes(acc)
	}

	for _, x := range w[limit:] {
		cnt += popcount64(x)
	}

	return cnt
}

func intersectShuffle(n int, fp1, fp2 []byte) int {
	w1, w2 := words64(fp1, (n+7)/8), words64(fp2, (n+7)/8)
	w2 = w2[:len(w1)]
	limit := len(w1) - len(w1)%shuffleBlock

	cnt := 0
	for i := 0; i < limit; i += shuffleBlock {
		var acc uint64
		for j := i; j < i+shuffleBlock; j++ {
			acc += byteCounts(w1[j] & w2[j])
		}

		cnt += sumLanes(acc)
	}

	for i := limit; i < len(w1); i++ {
		cnt += popcount64(w1[i] & w2[i])
	}

	return cnt
}
