// Copyright (c) 2026 Robert Clausecker <fuz@fuz.su>

package fppop

import "golang.org/x/sys/cpu"

// math/bits only emits POPCNT after checking for it at runtime
var hasPOPCNT = cpu.X86.HasPOPCNT

// 64-bit registers are native
var hasShuffle = true
