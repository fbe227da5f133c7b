// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgryski/go-farm"

	"github.com/bpowers/bitvec"
	"github.com/bpowers/bitvec/bitset"
)

var (
	ErrBadMagic           = errors.New("bad magic number")
	ErrVersion            = errors.New("unsupported format version")
	ErrTruncated          = errors.New("truncated bitfile")
	ErrChecksum           = errors.New("payload checksum mismatch")
	ErrMismatch           = errors.New("bitfile does not match requested element type")
	ErrUnknownCompression = errors.New("unknown compression")
	ErrUnsupportedCursor  = errors.New("cursor has no on-disk encoding")
)

// Option configures reading and writing bitfiles.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	compression Compression
}

// WithLogger sets an optional logger for progress updates.
// If not provided, no logging output will be produced.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithCompression selects the payload codec used when writing.  The payload
// is stored uncompressed if the codec would not shrink it.
func WithCompression(c Compression) Option {
	return func(opts *options) {
		opts.compression = c
	}
}

func newOptions(opts []Option) options {
	var o options
	o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func orderOf[C bitvec.Cursor]() (order, error) {
	var c C
	switch any(c).(type) {
	case bitvec.Msb0:
		return orderMsb0, nil
	case bitvec.Lsb0:
		return orderLsb0, nil
	}
	return 0, fmt.Errorf("%w: %T", ErrUnsupportedCursor, c)
}

// Encode writes b to w as a bitfile, returning the number of bytes written.
func Encode[C bitvec.Cursor, T bitvec.BitStore](w io.Writer, b *bitset.Bitset[C, T], opts ...Option) (int64, error) {
	o := newOptions(opts)

	ord, err := orderOf[C]()
	if err != nil {
		return 0, err
	}

	r := b.Repr()
	var raw []byte
	if len(r.Data) > 0 {
		if raw, err = binary.Append(nil, binary.LittleEndian, r.Data); err != nil {
			return 0, fmt.Errorf("binary.Append: %w", err)
		}
	}
	stored, used, err := compress(raw, o.compression)
	if err != nil {
		return 0, err
	}

	h := newFileHeader()
	h.width = bitvec.Width[T]()
	h.order = ord
	h.head = r.Head
	h.compression = used
	h.bits = r.Bits
	h.elemCount = uint64(len(r.Data))
	h.payloadLen = uint64(len(stored))
	h.checksum = farm.Hash64(raw)

	var headerBuf [fileHeaderSize]byte
	if err := h.MarshalTo(headerBuf[:]); err != nil {
		return 0, err
	}
	n, err := w.Write(headerBuf[:])
	if err != nil {
		return int64(n), fmt.Errorf("write header: %w", err)
	}
	m, err := w.Write(stored)
	if err != nil {
		return int64(n + m), fmt.Errorf("write payload: %w", err)
	}

	o.logger.Debug("encoded bit sequence",
		"width", h.width,
		"order", h.order,
		"bits", h.bits,
		"compression", used,
		"raw", len(raw),
		"stored", len(stored))

	return int64(n + m), nil
}

// WriteFile persists b at path.  The file is written to a temporary file in
// the same directory, synced, made read-only and renamed into place, so
// readers see either the old file or the complete new one.
func WriteFile[C bitvec.Cursor, T bitvec.BitStore](path string, b *bitset.Bitset[C, T], opts ...Option) (err error) {
	o := newOptions(opts)

	path, err = filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("filepath.Abs: %w", err)
	}
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "bitvec.*.bits")
	if err != nil {
		return fmt.Errorf("CreateTemp failed (may need permissions for dir %q): %w", dir, err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	n, err := Encode(f, b, opts...)
	if err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("f.Sync: %w", err)
	}
	// make the file read-only
	if err := os.Chmod(f.Name(), 0444); err != nil {
		return fmt.Errorf("os.Chmod(0444): %w", err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("os.Rename: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("f.Close: %w", err)
	}

	o.logger.Info("wrote bitfile", "path", path, "bytes", n)
	return nil
}
