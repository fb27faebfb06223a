// Copyright (c) 2026 Robert Clausecker <fuz@fuz.su>

package fppop

import "golang.org/x/sys/cpu"

var hasPOPCNT = cpu.X86.HasPOPCNT

// 64-bit arithmetic is emulated with register pairs, the nibble
// kernel is slower than the table lookups here
var hasShuffle = false
