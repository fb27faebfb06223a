// Copyright (c) 2026 Robert Clausecker <fuz@fuz.su>

package fppop

// popcount reference implementation for tests.  Do not alter.
func popcountSafe(n int, fp []byte) int {
	cnt := 0
	for i := 0; i < n; i++ {
		for j := 0; j < 8; j++ {
			cnt += int(fp[i] >> j & 1)
		}
	}

	return cnt
}

// intersect popcount reference implementation for tests.  Do not alter.
func intersectSafe(n int, fp1, fp2 []byte) int {
	cnt := 0
	for i := 0; i < n; i++ {
		for j := 0; j < 8; j++ {
			cnt += int(fp1[i] & fp2[i] >> j & 1)
		}
	}

	return cnt
}
