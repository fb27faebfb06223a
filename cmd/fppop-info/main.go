// Copyright (c) 2026 Robert Clausecker <fuz@fuz.su>

// Command fppop-info prints the CPU features fppop detected, the
// resulting method registry, and the kernels it would pick for a
// fingerprint length.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"runtime"

	"golang.org/x/sys/cpu"

	"github.com/clausecker/fppop"
)

var (
	numBits   = flag.Int("bits", 0, "show the kernels selected for `n` bit fingerprints")
	intersect = flag.String("intersect", "auto", "intersect algorithm: auto, lut, or native")
	verbose   = flag.Bool("v", false, "log every selection")
)

// common fingerprint sizes: MACCS, PubChem, ECFP
var commonSizes = []int{166, 881, 1024, 2048}

func main() {
	log.SetFlags(0)
	log.SetPrefix("fppop-info: ")
	flag.Parse()

	alg, err := fppop.ParseIntersectAlgorithm(*intersect)
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	sel, err := fppop.NewSelector(
		fppop.WithIntersectAlgorithm(alg),
		fppop.WithReportPopcount(*verbose),
		fppop.WithReportIntersect(*verbose),
		fppop.WithLogger(logger),
	)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("GOOS: %s\n", runtime.GOOS)
	fmt.Printf("GOARCH: %s\n", runtime.GOARCH)
	fmt.Println()

	switch runtime.GOARCH {
	case "amd64", "386":
		fmt.Println("=== golang.org/x/sys/cpu.X86 ===")
		fmt.Printf("  HasPOPCNT: %v\n", cpu.X86.HasPOPCNT)
		fmt.Printf("  HasSSSE3:  %v\n", cpu.X86.HasSSSE3)
		fmt.Printf("  HasAVX2:   %v\n", cpu.X86.HasAVX2)
	case "arm64":
		fmt.Println("=== golang.org/x/sys/cpu.ARM64 ===")
		fmt.Printf("  HasASIMD:  %v\n", cpu.ARM64.HasASIMD)
	}
	fmt.Println()

	fmt.Println("=== methods ===")
	for _, m := range fppop.Methods() {
		fmt.Printf("  %-10s align %d  min %3d bytes  available %v\n",
			m, m.Alignment(), m.MinSize(), m.Available())
	}
	fmt.Println()

	fmt.Println("=== alignment classes ===")
	for _, a := range fppop.Alignments() {
		fmt.Printf("  %-13s align %2d  min %3d bytes  active %s\n",
			a, a.Bytes(), a.MinSize(), a.Method())
	}
	fmt.Println()

	fmt.Println("=== optimal alignment ===")
	for _, n := range commonSizes {
		fmt.Printf("  %4d bits: %d\n", n, sel.OptimalAlignment(n))
	}

	if *numBits > 0 {
		fmt.Println()
		showSelection(sel, *numBits)
	}
}

// select kernels for an arena record of the optimal layout
func showSelection(sel *fppop.Selector, n int) {
	align := sel.OptimalAlignment(n)
	storageLen := ((n+7)/8 + align - 1) / align * align
	buf := fppop.NewBuffer(fppop.AlignedBytes(storageLen, align))

	fmt.Printf("=== %d bits, %d byte records, %d byte aligned ===\n", n, storageLen, align)

	pk, err := sel.SelectPopcount(n, storageLen, buf)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("  popcount:  %s\n", pk.Method())

	ik, err := sel.SelectIntersect(n, storageLen, buf, storageLen, buf)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("  intersect: %s\n", ik.Method())
}
