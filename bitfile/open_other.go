// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

//go:build !linux && !darwin && !freebsd

package bitfile

import (
	"fmt"
	"os"

	"github.com/bpowers/bitvec"
	"github.com/bpowers/bitvec/bitset"
)

// Open reads and decodes the bitfile at path.
func Open[C bitvec.Cursor, T bitvec.BitStore](path string, opts ...Option) (*bitset.Bitset[C, T], error) {
	o := newOptions(opts)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile(%s): %w", path, err)
	}
	b, err := decodeBytes[C, T](data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	o.logger.Debug("opened bitfile", "path", path, "bytes", len(data), "bits", b.Len())
	return b, nil
}
