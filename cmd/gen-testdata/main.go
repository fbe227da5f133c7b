// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// gen-testdata writes a random bit sequence, either as JSON on stdout or as
// a bitfile.
package main

import (
	crand "crypto/rand"
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/bpowers/bitvec"
	"github.com/bpowers/bitvec/bitfile"
	"github.com/bpowers/bitvec/bitset"
)

type config struct {
	bits        int64
	width       uint
	order       string
	density     int
	split       int64
	output      string
	compression string
}

func newRand() *rand.Rand {
	var seedBytes [16]byte
	if _, err := crand.Read(seedBytes[:]); err != nil {
		panic(err)
	}
	return rand.New(rand.NewPCG(
		binary.LittleEndian.Uint64(seedBytes[:8]),
		binary.LittleEndian.Uint64(seedBytes[8:])))
}

func parseCompression(s string) (bitfile.Compression, error) {
	for _, c := range []bitfile.Compression{bitfile.CompressionNone, bitfile.CompressionLZ4, bitfile.CompressionZstd} {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown compression %q", s)
}

func generate[C bitvec.Cursor, T bitvec.BitStore](rng *rand.Rand, cfg config, stdout io.Writer, logger *slog.Logger) error {
	b := bitset.New[C, T](cfg.bits)
	for off := int64(0); off < cfg.bits; off++ {
		if rng.IntN(100) < cfg.density {
			b.Set(off)
		}
	}
	// keep only the tail so the output starts part way into an element
	if cfg.split > 0 {
		_, right, err := b.SplitAt(cfg.split)
		if err != nil {
			return err
		}
		b = right
	}

	if cfg.output == "" {
		enc := json.NewEncoder(stdout)
		return enc.Encode(b)
	}

	c, err := parseCompression(cfg.compression)
	if err != nil {
		return err
	}
	return bitfile.WriteFile(cfg.output, b, bitfile.WithCompression(c), bitfile.WithLogger(logger))
}

func run(rng *rand.Rand, cfg config, stdout io.Writer, logger *slog.Logger) error {
	switch cfg.order {
	case "msb0":
		return runWidth[bitvec.Msb0](rng, cfg, stdout, logger)
	case "lsb0":
		return runWidth[bitvec.Lsb0](rng, cfg, stdout, logger)
	default:
		return fmt.Errorf("unknown order %q (want msb0 or lsb0)", cfg.order)
	}
}

func runWidth[C bitvec.Cursor](rng *rand.Rand, cfg config, stdout io.Writer, logger *slog.Logger) error {
	switch cfg.width {
	case 8:
		return generate[C, uint8](rng, cfg, stdout, logger)
	case 16:
		return generate[C, uint16](rng, cfg, stdout, logger)
	case 32:
		return generate[C, uint32](rng, cfg, stdout, logger)
	case 64:
		return generate[C, uint64](rng, cfg, stdout, logger)
	default:
		return fmt.Errorf("unsupported element width %d", cfg.width)
	}
}

func main() {
	var cfg config
	flag.Int64Var(&cfg.bits, "bits", 1024, "number of bits to generate")
	flag.UintVar(&cfg.width, "width", 8, "element width: 8, 16, 32 or 64")
	flag.StringVar(&cfg.order, "order", "msb0", "bit order: msb0 or lsb0")
	flag.IntVar(&cfg.density, "density", 50, "percentage of bits set")
	flag.Int64Var(&cfg.split, "split", 0, "drop this many leading bits")
	flag.StringVar(&cfg.output, "o", "", "write a bitfile here instead of JSON to stdout")
	flag.StringVar(&cfg.compression, "compression", "none", "bitfile compression: none, lz4 or zstd")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(newRand(), cfg, os.Stdout, logger); err != nil {
		logger.Error("gen-testdata failed", "error", err)
		os.Exit(1)
	}
}
