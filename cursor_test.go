// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitvec

import (
	"math/bits"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaskBijection(t *testing.T) {
	testMaskBijection[Msb0, uint8](t)
	testMaskBijection[Msb0, uint16](t)
	testMaskBijection[Msb0, uint32](t)
	testMaskBijection[Msb0, uint64](t)
	testMaskBijection[Lsb0, uint8](t)
	testMaskBijection[Lsb0, uint16](t)
	testMaskBijection[Lsb0, uint32](t)
	testMaskBijection[Lsb0, uint64](t)
}

func testMaskBijection[C Cursor, T BitStore](t *testing.T) {
	w := Width[T]()
	var seen T
	for p := uint(0); p < uint(w); p++ {
		m := Mask[C](MustBitIdx[T](p))
		require.Equal(t, 1, bits.OnesCount64(uint64(m)), "mask for %d has more than one bit", p)
		require.Zero(t, seen&m, "mask for %d collides with an earlier index", p)
		seen |= m
	}
	// every bit reachable
	require.Equal(t, ^T(0), seen)
}

func TestMaskOrder(t *testing.T) {
	require.Equal(t, uint8(0x80), Mask[Msb0](MustBitIdx[uint8](0)))
	require.Equal(t, uint8(0x01), Mask[Msb0](MustBitIdx[uint8](7)))
	require.Equal(t, uint8(0x01), Mask[Lsb0](MustBitIdx[uint8](0)))
	require.Equal(t, uint8(0x80), Mask[Lsb0](MustBitIdx[uint8](7)))

	require.Equal(t, uint64(1<<63), Mask[Msb0](MustBitIdx[uint64](0)))
	require.Equal(t, uint16(1<<5), Mask[Lsb0](MustBitIdx[uint16](5)))
	require.Equal(t, uint32(1<<26), Mask[Msb0](MustBitIdx[uint32](5)))
}

func TestCursorString(t *testing.T) {
	require.Equal(t, "Msb0", Msb0{}.String())
	require.Equal(t, "Lsb0", Lsb0{}.String())
}
