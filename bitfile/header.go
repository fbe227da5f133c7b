// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitfile

import (
	"encoding/binary"
	"fmt"
)

const (
	magicBitHeader    = 0xC0FFEE0B
	fileFormatVersion = 1
	fileHeaderSize    = 64

	widthOff       = 8
	orderOff       = 9
	headOff        = 10
	compressionOff = 11
	bitsOff        = 16
	elemCountOff   = 24
	payloadLenOff  = 32
	checksumOff    = 40
)

// order identifies the cursor a file was written with.
type order uint8

const (
	orderMsb0 order = 1
	orderLsb0 order = 2
)

func (o order) String() string {
	switch o {
	case orderMsb0:
		return "Msb0"
	case orderLsb0:
		return "Lsb0"
	default:
		return fmt.Sprintf("order(%d)", uint8(o))
	}
}

type fileHeader struct {
	magic         uint32
	formatVersion uint32
	width         uint8
	order         order
	head          uint8
	compression   Compression
	bits          uint64
	elemCount     uint64
	payloadLen    uint64
	checksum      uint64
}

func newFileHeader() *fileHeader {
	return &fileHeader{
		magic:         magicBitHeader,
		formatVersion: fileFormatVersion,
	}
}

func (h *fileHeader) MarshalTo(buf []byte) error {
	if len(buf) < fileHeaderSize {
		return fmt.Errorf("buf too short: %d < %d", len(buf), fileHeaderSize)
	}
	buf = buf[:fileHeaderSize]
	clear(buf)

	binary.LittleEndian.PutUint32(buf[:4], h.magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.formatVersion)
	buf[widthOff] = h.width
	buf[orderOff] = uint8(h.order)
	buf[headOff] = h.head
	buf[compressionOff] = uint8(h.compression)
	binary.LittleEndian.PutUint64(buf[bitsOff:bitsOff+8], h.bits)
	binary.LittleEndian.PutUint64(buf[elemCountOff:elemCountOff+8], h.elemCount)
	binary.LittleEndian.PutUint64(buf[payloadLenOff:payloadLenOff+8], h.payloadLen)
	binary.LittleEndian.PutUint64(buf[checksumOff:checksumOff+8], h.checksum)

	return nil
}

func (h *fileHeader) UnmarshalBytes(headerBytes []byte) error {
	if len(headerBytes) < fileHeaderSize {
		return fmt.Errorf("%w: header is %d bytes, want %d", ErrTruncated, len(headerBytes), fileHeaderSize)
	}

	headerBytes = headerBytes[:fileHeaderSize]

	h.magic = binary.LittleEndian.Uint32(headerBytes[:4])
	if h.magic != magicBitHeader {
		return fmt.Errorf("%w (%x): not a bitfile or corrupted", ErrBadMagic, h.magic)
	}

	h.formatVersion = binary.LittleEndian.Uint32(headerBytes[4:8])
	if h.formatVersion != fileFormatVersion {
		return fmt.Errorf("%w: can only read v%d bitfiles; found v%d", ErrVersion, fileFormatVersion, h.formatVersion)
	}

	h.width = headerBytes[widthOff]
	h.order = order(headerBytes[orderOff])
	h.head = headerBytes[headOff]
	h.compression = Compression(headerBytes[compressionOff])
	h.bits = binary.LittleEndian.Uint64(headerBytes[bitsOff : bitsOff+8])
	h.elemCount = binary.LittleEndian.Uint64(headerBytes[elemCountOff : elemCountOff+8])
	h.payloadLen = binary.LittleEndian.Uint64(headerBytes[payloadLenOff : payloadLenOff+8])
	h.checksum = binary.LittleEndian.Uint64(headerBytes[checksumOff : checksumOff+8])

	return nil
}
