// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/bitvec"
	"github.com/bpowers/bitvec/bitset"
)

type safeBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (s *safeBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return string(s.buf)
}

func (s *safeBuffer) Write(p []byte) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = append(s.buf, p...)
	return len(p), nil
}

type failingWriter struct {
	after int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.after <= 0 {
		return 0, errors.New("write failed")
	}
	w.after--
	return len(p), nil
}

var compressions = []Compression{CompressionNone, CompressionLZ4, CompressionZstd}

func randomBitset[C bitvec.Cursor, T bitvec.BitStore](rng *rand.Rand, length int64, density int) *bitset.Bitset[C, T] {
	b := bitset.New[C, T](length)
	for off := int64(0); off < length; off++ {
		if rng.IntN(100) < density {
			b.Set(off)
		}
	}
	return b
}

func TestEncodeDecode(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	testEncodeDecode[bitvec.Msb0, uint8](t, rng)
	testEncodeDecode[bitvec.Lsb0, uint8](t, rng)
	testEncodeDecode[bitvec.Msb0, uint16](t, rng)
	testEncodeDecode[bitvec.Lsb0, uint16](t, rng)
	testEncodeDecode[bitvec.Msb0, uint32](t, rng)
	testEncodeDecode[bitvec.Lsb0, uint32](t, rng)
	testEncodeDecode[bitvec.Msb0, uint64](t, rng)
	testEncodeDecode[bitvec.Lsb0, uint64](t, rng)
}

func testEncodeDecode[C bitvec.Cursor, T bitvec.BitStore](t *testing.T, rng *rand.Rand) {
	for _, c := range compressions {
		for _, length := range []int64{0, 1, 7, 64, 1000, 20000} {
			// sparse sequences compress, dense random ones mostly don't
			for _, density := range []int{2, 50} {
				b := randomBitset[C, T](rng, length, density)
				_, right, err := b.SplitAt(length / 3)
				require.NoError(t, err)

				var buf bytes.Buffer
				n, err := Encode(&buf, right, WithCompression(c))
				require.NoError(t, err)
				require.Equal(t, int64(buf.Len()), n)

				got, err := Decode[C, T](&buf)
				require.NoError(t, err)
				require.Equal(t, right.Repr(), got.Repr(), "%s length %d", c, length)
			}
		}
	}
}

func TestEncode_Format(t *testing.T) {
	b := bitset.New[bitvec.Msb0, uint8](8)
	for _, off := range []int64{0, 2, 3, 6} {
		b.Set(off)
	}

	var buf bytes.Buffer
	n, err := Encode(&buf, b)
	require.NoError(t, err)
	require.Equal(t, int64(fileHeaderSize+1), n)

	data := buf.Bytes()
	assert.Equal(t, uint32(magicBitHeader), binary.LittleEndian.Uint32(data[:4]))
	assert.Equal(t, uint32(fileFormatVersion), binary.LittleEndian.Uint32(data[4:8]))
	assert.Equal(t, uint8(8), data[widthOff])
	assert.Equal(t, uint8(orderMsb0), data[orderOff])
	assert.Equal(t, uint8(0), data[headOff])
	assert.Equal(t, uint8(CompressionNone), data[compressionOff])
	assert.Equal(t, uint64(8), binary.LittleEndian.Uint64(data[bitsOff:]))
	assert.Equal(t, uint64(1), binary.LittleEndian.Uint64(data[elemCountOff:]))
	assert.Equal(t, uint64(1), binary.LittleEndian.Uint64(data[payloadLenOff:]))
	assert.Equal(t, uint8(178), data[fileHeaderSize])

	u16 := bitset.New[bitvec.Lsb0, uint16](16)
	u16.Set(0)
	u16.Set(9)
	buf.Reset()
	_, err = Encode(&buf, u16)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, buf.Bytes()[fileHeaderSize:])
}

func TestEncode_Compression(t *testing.T) {
	// all zeros: every codec should shrink this
	b := bitset.New[bitvec.Lsb0, uint64](1 << 16)
	b.Set(100)
	for _, c := range []Compression{CompressionLZ4, CompressionZstd} {
		var buf bytes.Buffer
		n, err := Encode(&buf, b, WithCompression(c))
		require.NoError(t, err)
		assert.Less(t, n, int64(fileHeaderSize+(1<<16)/8))
		assert.Equal(t, uint8(c), buf.Bytes()[compressionOff])
	}

	// a single byte never gets smaller
	small := bitset.New[bitvec.Msb0, uint8](3)
	for _, c := range compressions {
		var buf bytes.Buffer
		_, err := Encode(&buf, small, WithCompression(c))
		require.NoError(t, err)
		assert.Equal(t, uint8(CompressionNone), buf.Bytes()[compressionOff], "%s", c)
	}

	_, err := Encode(&bytes.Buffer{}, small, WithCompression(Compression(7)))
	assert.ErrorIs(t, err, ErrUnknownCompression)
}

func TestEncode_WriteErrors(t *testing.T) {
	b := bitset.New[bitvec.Msb0, uint32](100)
	_, err := Encode(&failingWriter{after: 0}, b)
	assert.Error(t, err)
	_, err = Encode(&failingWriter{after: 1}, b)
	assert.Error(t, err)
}

type reversed struct{}

func (reversed) Position(idx, width uint8) uint8 { return idx ^ (width - 1) }

func TestEncode_UnsupportedCursor(t *testing.T) {
	b := bitset.New[reversed, uint8](8)
	_, err := Encode(&bytes.Buffer{}, b)
	assert.ErrorIs(t, err, ErrUnsupportedCursor)
}

func encoded(t *testing.T, c Compression) []byte {
	b := bitset.New[bitvec.Msb0, uint16](5000)
	for off := int64(0); off < b.Len(); off += 97 {
		b.Set(off)
	}
	var buf bytes.Buffer
	_, err := Encode(&buf, b, WithCompression(c))
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDecode_Corruption(t *testing.T) {
	data := encoded(t, CompressionNone)

	decode := func(data []byte) error {
		_, err := Decode[bitvec.Msb0, uint16](bytes.NewReader(data))
		return err
	}
	require.NoError(t, decode(data))

	flip := func(off int) []byte {
		out := bytes.Clone(data)
		out[off] ^= 0x10
		return out
	}

	assert.ErrorIs(t, decode(flip(fileHeaderSize+17)), ErrChecksum)
	assert.ErrorIs(t, decode(flip(0)), ErrBadMagic)
	assert.ErrorIs(t, decode(flip(4)), ErrVersion)
	assert.ErrorIs(t, decode(flip(checksumOff)), ErrChecksum)
	assert.ErrorIs(t, decode(flip(widthOff)), ErrMismatch)
	assert.ErrorIs(t, decode(flip(headOff)), bitset.ErrMalformed)
	assert.ErrorIs(t, decode(data[:len(data)-1]), ErrTruncated)
	assert.ErrorIs(t, decode(data[:fileHeaderSize-1]), ErrTruncated)
	assert.ErrorIs(t, decode(append(bytes.Clone(data), 0)), bitset.ErrMalformed)

	compressed := flip(compressionOff)
	compressed[compressionOff] = 0x0f
	assert.ErrorIs(t, decode(compressed), ErrUnknownCompression)

	_, err := Decode[bitvec.Lsb0, uint16](bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrMismatch)
	_, err = Decode[bitvec.Msb0, uint32](bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrMismatch)

	for _, c := range []Compression{CompressionLZ4, CompressionZstd} {
		data := encoded(t, c)
		require.Equal(t, uint8(c), data[compressionOff])
		data[len(data)-3] ^= 0xff
		_, err := Decode[bitvec.Msb0, uint16](bytes.NewReader(data))
		assert.Error(t, err, "%s", c)
	}

	// sizes in the header are not covered by the checksum; inflating them
	// must fail cleanly rather than allocate what they claim
	rewrite := func(data []byte, edit func(h *fileHeader)) []byte {
		out := bytes.Clone(data)
		var h fileHeader
		require.NoError(t, h.UnmarshalBytes(out))
		edit(&h)
		require.NoError(t, h.MarshalTo(out))
		return out
	}
	for _, c := range compressions {
		data := encoded(t, c)
		for name, edit := range map[string]func(h *fileHeader){
			"element count": func(h *fileHeader) {
				h.elemCount = 1 << 34
			},
			"bits and element count": func(h *fileHeader) {
				h.bits = 1 << 27
				h.elemCount = 1 << 23
			},
			"past limit": func(h *fileHeader) {
				h.bits = 1 << 40
				h.elemCount = 1 << 36
			},
		} {
			_, err := Decode[bitvec.Msb0, uint16](bytes.NewReader(rewrite(data, edit)))
			assert.ErrorIs(t, err, bitset.ErrMalformed, "%s: %s", c, name)
		}
	}
}

func TestDecode_OversizedHeader(t *testing.T) {
	for _, c := range []Compression{CompressionLZ4, CompressionZstd} {
		h := newFileHeader()
		h.width = 64
		h.order = orderMsb0
		h.compression = c
		h.elemCount = 1 << 34
		h.bits = h.elemCount * 64
		h.payloadLen = 2

		data := make([]byte, fileHeaderSize+2)
		require.NoError(t, h.MarshalTo(data))

		_, err := decodeBytes[bitvec.Msb0, uint64](data)
		assert.ErrorIs(t, err, bitset.ErrMalformed, "%s", c)
	}

	// the codecs bound their own output too
	_, err := decompress([]byte{0, 0}, CompressionLZ4, 1<<30)
	assert.ErrorIs(t, err, bitset.ErrMalformed)
	_, err = decompress(encodedZstd(t, 100), CompressionZstd, 1<<30)
	assert.ErrorIs(t, err, bitset.ErrMalformed)
	_, err = decompress([]byte{1, 2, 3}, CompressionNone, 4)
	assert.ErrorIs(t, err, bitset.ErrMalformed)
}

func encodedZstd(t *testing.T, n int) []byte {
	stored, used, err := compress(make([]byte, n), CompressionZstd)
	require.NoError(t, err)
	require.Equal(t, CompressionZstd, used)
	return stored
}

func TestWriteFile_Open(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seq.bits")

	var logs safeBuffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	rng := rand.New(rand.NewPCG(7, 8))
	b := randomBitset[bitvec.Lsb0, uint32](rng, 10000, 2)
	require.NoError(t, WriteFile(path, b, WithCompression(CompressionZstd), WithLogger(logger)))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0444), fi.Mode().Perm())

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	got, err := Open[bitvec.Lsb0, uint32](path, WithLogger(logger))
	require.NoError(t, err)
	assert.Equal(t, b.Repr(), got.Repr())

	assert.Contains(t, logs.String(), "wrote bitfile")
	assert.Contains(t, logs.String(), "compression=zstd")
	assert.Contains(t, logs.String(), "opened bitfile")

	_, err = Open[bitvec.Msb0, uint32](path)
	assert.ErrorIs(t, err, ErrMismatch)

	_, err = Open[bitvec.Lsb0, uint32](filepath.Join(dir, "missing.bits"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	short := filepath.Join(dir, "short.bits")
	require.NoError(t, os.WriteFile(short, []byte("nope"), 0644))
	_, err = Open[bitvec.Lsb0, uint32](short)
	assert.ErrorIs(t, err, ErrTruncated)

	empty := bitset.New[bitvec.Msb0, uint8](0)
	emptyPath := filepath.Join(dir, "empty.bits")
	require.NoError(t, WriteFile(emptyPath, empty))
	gotEmpty, err := Open[bitvec.Msb0, uint8](emptyPath)
	require.NoError(t, err)
	assert.Equal(t, int64(0), gotEmpty.Len())
}

func TestWriteFile_Errors(t *testing.T) {
	b := bitset.New[bitvec.Msb0, uint8](8)
	err := WriteFile(filepath.Join(t.TempDir(), "missing", "seq.bits"), b)
	assert.Error(t, err)

	dir := t.TempDir()
	err = WriteFile(filepath.Join(dir, "seq.bits"), bitset.New[reversed, uint8](8))
	assert.ErrorIs(t, err, ErrUnsupportedCursor)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
