// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitfile

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dgryski/go-farm"

	"github.com/bpowers/bitvec"
	"github.com/bpowers/bitvec/bitset"
)

// largest payload a header may declare, compressed or not; fits an int on
// every platform
const maxPayloadLen = 1<<31 - 1

// Decode reads a bitfile from r.  The file must have been written with the
// same cursor and element width.
func Decode[C bitvec.Cursor, T bitvec.BitStore](r io.Reader) (*bitset.Bitset[C, T], error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll: %w", err)
	}
	return decodeBytes[C, T](data)
}

// decodeBytes never retains data; the result owns its elements.
func decodeBytes[C bitvec.Cursor, T bitvec.BitStore](data []byte) (*bitset.Bitset[C, T], error) {
	var h fileHeader
	if err := h.UnmarshalBytes(data); err != nil {
		return nil, err
	}

	ord, err := orderOf[C]()
	if err != nil {
		return nil, err
	}
	w := bitvec.Width[T]()
	if h.width != w || h.order != ord {
		return nil, fmt.Errorf("%w: file has %d-bit %s elements, want %d-bit %s", ErrMismatch, h.width, h.order, w, ord)
	}

	// the header is not checksummed: every size in it is cross-checked
	// before anything is allocated from it
	size := uint64(w / 8)
	if h.head >= w {
		return nil, fmt.Errorf("%w: head %d >= element width %d", bitset.ErrMalformed, h.head, w)
	}
	if h.bits > maxPayloadLen*8 || h.payloadLen > maxPayloadLen {
		return nil, fmt.Errorf("%w: %d bits in %d bytes", bitset.ErrMalformed, h.bits, h.payloadLen)
	}
	if want := (uint64(h.head) + h.bits + uint64(w) - 1) / uint64(w); h.elemCount != want {
		return nil, fmt.Errorf("%w: %d bits from head %d need %d elements, header says %d", bitset.ErrMalformed, h.bits, h.head, want, h.elemCount)
	}
	if h.elemCount*size > maxPayloadLen {
		return nil, fmt.Errorf("%w: %d elements too large", bitset.ErrMalformed, h.elemCount)
	}
	if avail := uint64(len(data) - fileHeaderSize); h.payloadLen > avail {
		return nil, fmt.Errorf("%w: payload is %d bytes, only %d present", ErrTruncated, h.payloadLen, avail)
	} else if h.payloadLen < avail {
		return nil, fmt.Errorf("%w: %d trailing bytes", bitset.ErrMalformed, avail-h.payloadLen)
	}
	stored := data[fileHeaderSize:]

	raw, err := decompress(stored, h.compression, int(h.elemCount*size))
	if err != nil {
		return nil, err
	}
	if sum := farm.Hash64(raw); sum != h.checksum {
		return nil, fmt.Errorf("%w: %x != %x", ErrChecksum, sum, h.checksum)
	}

	elems := make([]T, h.elemCount)
	if len(elems) > 0 {
		if _, err := binary.Decode(raw, binary.LittleEndian, elems); err != nil {
			return nil, fmt.Errorf("binary.Decode: %w", err)
		}
	}

	return bitset.FromRepr[C](bitset.Repr[T]{
		Head: h.head,
		Bits: h.bits,
		Data: elems,
	})
}
