// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitvec

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
)

// BitStore is the closed set of unsigned integer types usable as storage
// elements.
type BitStore interface {
	uint8 | uint16 | uint32 | uint64
}

var (
	ErrIndexOutOfRange = errors.New("bit index out of range for element width")
)

// IndexError reports a bit index that does not fit in an element.
type IndexError struct {
	Index uint
	Width uint8
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("bit index %d out of range for %d-bit element", e.Index, e.Width)
}

func (e *IndexError) Is(target error) bool {
	return target == ErrIndexOutOfRange
}

// Width returns the number of bits in T.
func Width[T BitStore]() uint8 {
	return uint8(bits.OnesCount64(uint64(^T(0))))
}

// BitIdx is a bit position inside one element of type T.  Values are always
// in [0, Width[T]()); the zero value is index 0.
type BitIdx[T BitStore] struct {
	idx uint8
}

// NewBitIdx returns the index raw, or an *IndexError if raw >= Width[T]().
func NewBitIdx[T BitStore](raw uint) (BitIdx[T], error) {
	if w := Width[T](); raw >= uint(w) {
		return BitIdx[T]{}, &IndexError{Index: raw, Width: w}
	}
	return BitIdx[T]{idx: uint8(raw)}, nil
}

// MustBitIdx is like NewBitIdx but panics if raw is out of range.
func MustBitIdx[T BitStore](raw uint) BitIdx[T] {
	idx, err := NewBitIdx[T](raw)
	if err != nil {
		panic(err)
	}
	return idx
}

// Value returns the index as an integer.
func (i BitIdx[T]) Value() uint8 {
	return i.idx
}

func (i BitIdx[T]) String() string {
	return strconv.Itoa(int(i.idx))
}
