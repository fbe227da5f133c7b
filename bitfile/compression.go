// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitfile

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/bpowers/bitvec/bitset"
)

// Compression is the codec applied to a bitfile's element payload.
type Compression uint8

const (
	CompressionNone Compression = 0
	// CompressionLZ4 is lz4 block compression: fast, modest ratio.
	CompressionLZ4 Compression = 1
	// CompressionZstd is zstd at the default level: slower, better ratio.
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(maxPayloadLen))
}

// lz4MaxExpansion is the most a valid lz4 block of n bytes can decode to:
// each sequence token can describe at most 255 output bytes per input byte.
func lz4MaxExpansion(n int) int64 {
	return 255*int64(n) + 16
}

// compress returns the stored form of raw and the codec actually used.  The
// raw bytes are kept when the codec does not make them smaller.
func compress(raw []byte, c Compression) ([]byte, Compression, error) {
	if c == CompressionNone || len(raw) == 0 {
		return raw, CompressionNone, nil
	}

	var stored []byte
	switch c {
	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, dst, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("lz4.CompressBlock: %w", err)
		}
		stored = dst[:n]
	case CompressionZstd:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, 0, fmt.Errorf("zstd.NewWriter: %w", err)
		}
		stored = enc.EncodeAll(raw, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, 0, fmt.Errorf("%w: %s", ErrUnknownCompression, c)
	}

	if len(stored) == 0 || len(stored) >= len(raw) {
		return raw, CompressionNone, nil
	}
	return stored, c, nil
}

// decompress inverts compress.  rawLen is the payload size recorded in the
// header; output of any other length is an error.
func decompress(stored []byte, c Compression, rawLen int) ([]byte, error) {
	switch c {
	case CompressionNone:
		if len(stored) != rawLen {
			return nil, fmt.Errorf("%w: payload is %d bytes, want %d", bitset.ErrMalformed, len(stored), rawLen)
		}
		return stored, nil
	case CompressionLZ4:
		if int64(rawLen) > lz4MaxExpansion(len(stored)) {
			return nil, fmt.Errorf("%w: %d lz4 bytes cannot expand to %d", bitset.ErrMalformed, len(stored), rawLen)
		}
		raw := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(stored, raw)
		if err != nil {
			return nil, fmt.Errorf("lz4.UncompressBlock: %w", err)
		}
		if n != rawLen {
			return nil, fmt.Errorf("%w: lz4 decompressed %d bytes, want %d", bitset.ErrMalformed, n, rawLen)
		}
		return raw, nil
	case CompressionZstd:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, fmt.Errorf("zstd.NewReader: %w", err)
		}
		defer zstdDecoderPool.Put(dec)

		// the output grows with what the frame actually holds, never with
		// what the header claims
		raw, err := dec.DecodeAll(stored, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd.DecodeAll: %w", err)
		}
		if len(raw) != rawLen {
			return nil, fmt.Errorf("%w: zstd decompressed %d bytes, want %d", bitset.ErrMalformed, len(raw), rawLen)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCompression, c)
	}
}
