// Copyright (c) 2026 Robert Clausecker <fuz@fuz.su>

package fppop

import "golang.org/x/sys/cpu"

// math/bits.OnesCount64 is lowered to the ASIMD VCNT sequence
var hasPOPCNT = cpu.ARM64.HasASIMD

var hasShuffle = true
