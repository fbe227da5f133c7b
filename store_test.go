// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitvec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWidth(t *testing.T) {
	assert.Equal(t, uint8(8), Width[uint8]())
	assert.Equal(t, uint8(16), Width[uint16]())
	assert.Equal(t, uint8(32), Width[uint32]())
	assert.Equal(t, uint8(64), Width[uint64]())
}

func TestNewBitIdx(t *testing.T) {
	idx, err := NewBitIdx[uint8](7)
	require.NoError(t, err)
	require.Equal(t, uint8(7), idx.Value())
	require.Equal(t, "7", idx.String())

	_, err = NewBitIdx[uint8](8)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrIndexOutOfRange))

	var ie *IndexError
	require.True(t, errors.As(err, &ie))
	require.Equal(t, uint(8), ie.Index)
	require.Equal(t, uint8(8), ie.Width)

	testBitIdxBounds[uint16](t)
	testBitIdxBounds[uint32](t)
	testBitIdxBounds[uint64](t)
}

func testBitIdxBounds[T BitStore](t *testing.T) {
	w := uint(Width[T]())
	for raw := uint(0); raw < w; raw++ {
		idx, err := NewBitIdx[T](raw)
		require.NoError(t, err)
		require.Equal(t, uint8(raw), idx.Value())
	}
	for _, raw := range []uint{w, w + 1, 255, 1 << 20} {
		_, err := NewBitIdx[T](raw)
		require.ErrorIs(t, err, ErrIndexOutOfRange)
	}
}

func TestMustBitIdx(t *testing.T) {
	require.Equal(t, uint8(63), MustBitIdx[uint64](63).Value())
	require.Panics(t, func() {
		MustBitIdx[uint16](16)
	})

	// the zero value is a valid index
	var zero BitIdx[uint32]
	require.Equal(t, uint8(0), zero.Value())
}
