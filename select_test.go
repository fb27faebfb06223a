// Copyright (c) 2026 Robert Clausecker <fuz@fuz.su>

package fppop

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// a view of a storageLen byte record starting residue bytes past a 64
// byte boundary
func bufferAt(storageLen, residue int) Buffer {
	return NewBuffer(AlignedBytes(storageLen+residue, 64)[residue:])
}

// 2048 bit fingerprints, both 8 byte aligned
func TestSelectIntersectLarge(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	fp1 := randomRecord(rng, 2048, 256, 0)
	fp2 := randomRecord(rng, 2048, 256, 8)

	k, err := SelectIntersect(2048, 256, NewBuffer(fp1), 256, NewBuffer(fp2))
	require.NoError(t, err)
	assert.Equal(t, Lauradoux, k.Method())
	assert.Equal(t, 256, k.NumBytes())
	assert.Equal(t, intersectSafe(256, fp1, fp2), k.Intersect(fp1, fp2))
}

// 16 bit fingerprints never need anything but the byte-wise table
func TestSelectShort(t *testing.T) {
	for residue := 0; residue < 8; residue++ {
		for _, storageLen := range []int{2, 4, 8, 64} {
			buf := bufferAt(storageLen, residue)

			k, err := SelectPopcount(16, storageLen, buf)
			require.NoError(t, err)
			assert.Equal(t, LUT8x1, k.Method(), "popcount, residue %d, storage %d", residue, storageLen)

			k, err = SelectIntersect(16, storageLen, buf, storageLen, buf)
			require.NoError(t, err)
			assert.Equal(t, LUT8x1, k.Method(), "intersect, residue %d, storage %d", residue, storageLen)
		}
	}
}

// records whose words do not line up are intersected byte by byte
func TestSelectIntersectMisaligned(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	fp1 := randomRecord(rng, 2048, 256, 0)
	fp2 := randomRecord(rng, 2048, 256, 2)

	k, err := SelectIntersect(2048, 256, NewBuffer(fp1), 256, NewBuffer(fp2))
	require.NoError(t, err)
	assert.Equal(t, LUT8x1, k.Method())
	assert.Equal(t, intersectSafe(256, fp1, fp2), k.Intersect(fp1, fp2))
}

func TestSelectPopcountRules(t *testing.T) {
	tests := []struct {
		name       string
		numBits    int
		storageLen int
		residue    int
		want       Method
	}{
		{"3 bytes", 24, 64, 0, LUT8x1},
		{"odd address", 64, 8, 1, LUT8x1},
		{"2 byte aligned", 64, 8, 2, LUT8x1},
		{"odd stride", 40, 6, 0, LUT8x1},
		{"4 byte aligned", 64, 8, 4, Align4.Method()},
		{"4 byte stride", 96, 12, 0, Align4.Method()},
		{"8 byte aligned short", 64, 8, 0, Align8Small.Method()},
		{"63 bytes", 504, 64, 0, Align8Small.Method()},
		{"64 bytes", 512, 64, 0, AlignSSSE3.Method()},
		{"128 bytes", 1024, 128, 0, AlignSSSE3.Method()},
		{"8 byte aligned large", 1024, 128, 8, Align8Large.Method()},
		{"8 byte stride large", 1024, 136, 0, Align8Large.Method()},
		{"exactly 96 bytes", 768, 96, 8, Align8Large.Method()},
		{"95 bytes", 760, 96, 8, Align8Small.Method()},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			k, err := SelectPopcount(tc.numBits, tc.storageLen, bufferAt(tc.storageLen, tc.residue))
			require.NoError(t, err)
			assert.Equal(t, tc.want, k.Method())
			assert.Equal(t, (tc.numBits+7)/8, k.NumBytes())
		})
	}
}

func TestSelectPopcountNarrowWords(t *testing.T) {
	sel, err := NewSelector(WithPreferWideWords(false))
	require.NoError(t, err)

	k, err := sel.SelectPopcount(64, 8, bufferAt(8, 0))
	require.NoError(t, err)
	assert.Equal(t, Align4.Method(), k.Method())

	// large fingerprints are not affected
	k, err = sel.SelectPopcount(1024, 128, bufferAt(128, 8))
	require.NoError(t, err)
	assert.Equal(t, Align8Large.Method(), k.Method())
}

func TestSelectIntersectRules(t *testing.T) {
	tests := []struct {
		name        string
		numBits     int
		storageLen1 int
		residue1    int
		storageLen2 int
		residue2    int
		want        Method
	}{
		{"3 bytes", 24, 64, 0, 64, 0, LUT8x1},
		{"residues differ", 1024, 128, 0, 128, 2, LUT8x1},
		{"both odd", 1024, 128, 1, 128, 1, LUT8x1},
		{"odd stride", 1024, 130, 0, 128, 0, LUT8x1},
		{"odd stride 2", 1024, 128, 0, 130, 0, LUT8x1},
		{"255 bits", 255, 32, 0, 32, 0, LUT8x1},
		{"256 bits", 256, 32, 0, 32, 0, LUT8x4},
		{"95 bytes", 760, 96, 0, 96, 0, LUT8x4},
		{"4 byte aligned", 1024, 128, 4, 128, 4, LUT8x4},
		{"4 and 8 byte aligned", 1024, 128, 4, 128, 0, LUT8x4},
		{"4 byte stride", 1024, 128, 0, 132, 0, LUT8x4},
		{"96 bytes", 768, 96, 0, 96, 0, Lauradoux},
		{"8 and 64 byte aligned", 1024, 128, 8, 128, 0, Lauradoux},
		{"different strides", 1024, 128, 0, 136, 16, Lauradoux},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf1 := bufferAt(tc.storageLen1, tc.residue1)
			buf2 := bufferAt(tc.storageLen2, tc.residue2)

			k, err := SelectIntersect(tc.numBits, tc.storageLen1, buf1, tc.storageLen2, buf2)
			require.NoError(t, err)
			assert.Equal(t, tc.want, k.Method())
		})
	}
}

func TestSelectIntersectAlgorithm(t *testing.T) {
	buf := bufferAt(128, 0)

	sel, err := NewSelector(WithIntersectAlgorithm(IntersectLUT))
	require.NoError(t, err)
	k, err := sel.SelectIntersect(1024, 128, buf, 128, buf)
	require.NoError(t, err)
	assert.Equal(t, LUT8x4, k.Method())

	sel, err = NewSelector(WithIntersectAlgorithm(IntersectNative))
	require.NoError(t, err)
	k, err = sel.SelectIntersect(1024, 128, buf, 128, buf)
	require.NoError(t, err)
	assert.Equal(t, Align8Large.Method(), k.Method())

	// short fingerprints are unaffected
	k, err = sel.SelectIntersect(512, 64, buf, 64, buf)
	require.NoError(t, err)
	assert.Equal(t, LUT8x4, k.Method())
}

func TestSelectClassOverride(t *testing.T) {
	sel, err := NewSelector(
		WithClassMethod(Align4, LUT16x4),
		WithClassMethod(Align8Small, Gillies),
		WithClassMethod(Align8Large, Lauradoux),
	)
	require.NoError(t, err)

	k, err := sel.SelectPopcount(64, 8, bufferAt(8, 4))
	require.NoError(t, err)
	assert.Equal(t, LUT16x4, k.Method())

	k, err = sel.SelectPopcount(64, 8, bufferAt(8, 0))
	require.NoError(t, err)
	assert.Equal(t, Gillies, k.Method())

	k, err = sel.SelectPopcount(1024, 128, bufferAt(128, 8))
	require.NoError(t, err)
	assert.Equal(t, Lauradoux, k.Method())

	buf := bufferAt(32, 0)
	k, err = sel.SelectIntersect(256, 32, buf, 32, buf)
	require.NoError(t, err)
	assert.Equal(t, LUT16x4, k.Method())

	// the default selector is not affected
	k, err = SelectPopcount(64, 8, bufferAt(8, 4))
	require.NoError(t, err)
	assert.Equal(t, Align4.Method(), k.Method())
}

func TestSelectCapacity(t *testing.T) {
	buf := bufferAt(64, 0)

	tests := []struct {
		name        string
		numBits     int
		storageLen1 int
		storageLen2 int
		want        CapacityError
	}{
		{"one byte short", 17, 2, 2, CapacityError{17, 3, 2}},
		{"negative bits", -1, 8, 8, CapacityError{-1, 0, 8}},
		{"negative storage", 8, -8, 8, CapacityError{8, 1, -8}},
		{"smaller second storage", 64, 8, 4, CapacityError{64, 8, 4}},
		{"huge bits", math.MaxInt, 8, 8, CapacityError{math.MaxInt, math.MaxInt/8 + 1, 8}},
		{"huge bits, not a multiple of 8", math.MaxInt - 2, 8, 8, CapacityError{math.MaxInt - 2, (math.MaxInt-2)/8 + 1, 8}},
		{"huge bits, huge storage", math.MaxInt, math.MaxInt / 8, math.MaxInt / 8, CapacityError{math.MaxInt, math.MaxInt/8 + 1, math.MaxInt / 8}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := SelectIntersect(tc.numBits, tc.storageLen1, buf, tc.storageLen2, buf)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCapacity)

			var capErr *CapacityError
			require.True(t, errors.As(err, &capErr))
			assert.Equal(t, tc.want, *capErr)

			if tc.storageLen1 == tc.storageLen2 {
				_, err = SelectPopcount(tc.numBits, tc.storageLen1, buf)
				assert.ErrorIs(t, err, ErrCapacity)
			}
		})
	}

	// a fingerprint exactly filling its storage fits
	_, err := SelectPopcount(17, 3, buf)
	assert.NoError(t, err)
	_, err = SelectIntersect(0, 0, buf, 0, buf)
	assert.NoError(t, err)
}

func TestByteCount(t *testing.T) {
	for _, tc := range []struct{ numBits, want int }{
		{0, 0}, {1, 1}, {8, 1}, {9, 2}, {2048, 256}, {-1, 0}, {-8, -1},
		{math.MaxInt, math.MaxInt/8 + 1}, {math.MaxInt - 7, math.MaxInt / 8},
	} {
		assert.Equal(t, tc.want, byteCount(tc.numBits), "%d bits", tc.numBits)
	}
}

func TestSelectDeterministic(t *testing.T) {
	buf1, buf2 := bufferAt(128, 0), bufferAt(128, 8)

	for numBits := 0; numBits <= 1024; numBits += 8 {
		k1, err1 := SelectPopcount(numBits, 128, buf1)
		k2, err2 := SelectPopcount(numBits, 128, buf1)
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.Equal(t, k1, k2)

		k1, err1 = SelectIntersect(numBits, 128, buf1, 128, buf2)
		k2, err2 = SelectIntersect(numBits, 128, buf1, 128, buf2)
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.Equal(t, k1, k2)
	}
}

// whatever the selector picks must count correctly for the layout it
// was picked for
func TestSelectedKernels(t *testing.T) {
	rng := rand.New(rand.NewSource(6))

	for i := 0; i < 5000; i++ {
		numBits := rng.Intn(maxTestBits + 1)
		n := (numBits + 7) / 8
		storageLen := roundUp(n, []int{1, 4, 8, 64}[rng.Intn(4)]) + 8*rng.Intn(3)
		residue1 := testResidues[rng.Intn(len(testResidues))]
		residue2 := testResidues[rng.Intn(len(testResidues))]
		fp1 := randomRecord(rng, numBits, storageLen, residue1)
		fp2 := randomRecord(rng, numBits, storageLen, residue2)

		pk, err := SelectPopcount(numBits, storageLen, NewBuffer(fp1))
		require.NoError(t, err)
		if cnt, ref := pk.Popcount(fp1), popcountSafe(n, fp1); cnt != ref {
			t.Fatalf("%s: %d bits, storage %d, residue %d: popcount %d, want %d",
				pk, numBits, storageLen, residue1, cnt, ref)
		}

		ik, err := SelectIntersect(numBits, storageLen, NewBuffer(fp1), storageLen, NewBuffer(fp2))
		require.NoError(t, err)
		if cnt, ref := ik.Intersect(fp1, fp2), intersectSafe(n, fp1, fp2); cnt != ref {
			t.Fatalf("%s: %d bits, storage %d, residues %d/%d: intersect %d, want %d",
				ik, numBits, storageLen, residue1, residue2, cnt, ref)
		}
	}
}

func TestKernelString(t *testing.T) {
	k, err := SelectPopcount(16, 2, bufferAt(2, 0))
	require.NoError(t, err)
	assert.Equal(t, "lut8-1/2", k.String())
}

func TestOptimalAlignment(t *testing.T) {
	for _, tc := range []struct{ numBits, want int }{
		{0, 1}, {8, 1}, {9, 4}, {32, 4}, {33, 8}, {166, 8}, {224, 8},
	} {
		assert.Equal(t, tc.want, OptimalAlignment(tc.numBits), "%d bits", tc.numBits)
	}

	// no class uses POPCNT or the nibble kernel
	sel, err := NewSelector(
		WithClassMethod(Align8Small, Gillies),
		WithClassMethod(Align8Large, Lauradoux),
		WithClassMethod(AlignSSSE3, Lauradoux),
	)
	require.NoError(t, err)
	assert.Equal(t, 8, sel.OptimalAlignment(881))
	assert.Equal(t, 8, sel.OptimalAlignment(2048))

	if Shuffle.Available() {
		sel, err = NewSelector(
			WithClassMethod(Align8Small, Gillies),
			WithClassMethod(Align8Large, Lauradoux),
			WithClassMethod(AlignSSSE3, Shuffle),
		)
		require.NoError(t, err)
		assert.Equal(t, 64, sel.OptimalAlignment(225))
		assert.Equal(t, 64, sel.OptimalAlignment(2048))
	}

	if POPCNT.Available() && Shuffle.Available() {
		sel, err = NewSelector(
			WithClassMethod(Align8Small, Gillies),
			WithClassMethod(Align8Large, POPCNT),
			WithClassMethod(AlignSSSE3, Shuffle),
		)
		require.NoError(t, err)
		assert.Equal(t, 64, sel.OptimalAlignment(767))
		assert.Equal(t, 8, sel.OptimalAlignment(768))
	}

	// the optimal alignment makes the selector pick the class it is
	// meant for
	for _, numBits := range []int{166, 881, 1024, 2048} {
		align := OptimalAlignment(numBits)
		storageLen := roundUp((numBits+7)/8, align)
		k, err := SelectPopcount(numBits, storageLen, NewBuffer(AlignedBytes(storageLen, align)))
		require.NoError(t, err)
		assert.Equal(t, 0, storageLen%k.Method().Alignment(), "%d bits", numBits)
	}
}
