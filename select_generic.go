// Copyright (c) 2026 Robert Clausecker <fuz@fuz.su>

//go:build !amd64 && !386 && !arm64

package fppop

import "math/bits"

// no known population count instruction
var hasPOPCNT = false

var hasShuffle = bits.UintSize == 64
