// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

//go:build linux || darwin || freebsd

package bitfile

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/bpowers/bitvec"
	"github.com/bpowers/bitvec/bitset"
)

// Open maps the bitfile at path and decodes it.  The returned Bitset owns
// its elements; the mapping is released before Open returns.
func Open[C bitvec.Cursor, T bitvec.BitStore](path string, opts ...Option) (*bitset.Bitset[C, T], error) {
	o := newOptions(opts)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("os.Open(%s): %w", path, err)
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("f.Stat: %w", err)
	}
	size := fi.Size()
	if size < fileHeaderSize {
		return nil, fmt.Errorf("%w: file is %d bytes", ErrTruncated, size)
	}
	if size != int64(int(size)) {
		return nil, fmt.Errorf("file %s too large to map", path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap(%s): %w", path, err)
	}
	defer func() { _ = unix.Munmap(data) }()

	if err := unix.Madvise(data, unix.MADV_SEQUENTIAL); err != nil {
		return nil, fmt.Errorf("madvise: %w", err)
	}

	b, err := decodeBytes[C, T](data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	o.logger.Debug("opened bitfile", "path", path, "bytes", size, "bits", b.Len())
	return b, nil
}
