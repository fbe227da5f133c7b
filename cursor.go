// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitvec

// Cursor is a bit ordering.  It translates a logical bit index into the
// physical position of that bit in an element, counted from the least
// significant bit.  For every width it must map [0, width) onto [0, width)
// one-to-one.
type Cursor interface {
	Position(idx, width uint8) uint8
}

// Msb0 numbers bits from the most significant end: index 0 is the high bit.
type Msb0 struct{}

func (Msb0) Position(idx, width uint8) uint8 {
	return width - 1 - idx
}

func (Msb0) String() string { return "Msb0" }

// Lsb0 numbers bits from the least significant end: index 0 is the low bit.
type Lsb0 struct{}

func (Lsb0) Position(idx, _ uint8) uint8 {
	return idx
}

func (Lsb0) String() string { return "Lsb0" }

var (
	_ Cursor = Msb0{}
	_ Cursor = Lsb0{}
)

// Mask returns the single-bit mask that cursor C assigns to idx.
func Mask[C Cursor, T BitStore](idx BitIdx[T]) T {
	var c C
	return T(1) << c.Position(idx.idx, Width[T]())
}
