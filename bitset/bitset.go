// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package bitset is a packed bit sequence over bitvec storage elements.
//
// A Bitset can be split into two halves that are safe to mutate from
// different goroutines.  When the split point falls inside an element, that
// element is reachable from both halves and all access to it switches to
// bitvec.Atomic; every other element keeps using the unsynchronized path.
package bitset

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/bpowers/bitvec"
)

var (
	ErrSplitOutOfRange = errors.New("split offset out of range")
)

// Bitset is a run of length bits starting head bits into its first element.
type Bitset[C bitvec.Cursor, T bitvec.BitStore] struct {
	elems  []T
	head   uint8
	length int64
	// hotHead and hotTail are the addresses of the aligned 32-bit words at
	// either end that another Bitset may also touch, or 0.  Elements in a
	// hot word are only accessed atomically.
	hotHead uintptr
	hotTail uintptr
}

func elemsFor(head uint8, length int64, width uint8) int {
	return int((int64(head) + length + int64(width) - 1) / int64(width))
}

// makeElems pads the allocation out to whole 32-bit words: atomics on 8-
// and 16-bit elements operate on the enclosing word, which must not overlap
// some other allocation.
func makeElems[T bitvec.BitStore](n int) []T {
	size := int(bitvec.Width[T]() / 8)
	return make([]T, n, (n*size+3)/4*4/size)
}

// New returns a zeroed bitset of length bits.
func New[C bitvec.Cursor, T bitvec.BitStore](length int64) *Bitset[C, T] {
	if length < 0 {
		length = 0
	}
	return &Bitset[C, T]{
		elems:  makeElems[T](elemsFor(0, length, bitvec.Width[T]())),
		length: length,
	}
}

// Len returns the number of live bits.
func (b *Bitset[C, T]) Len() int64 {
	return b.length
}

// Head returns the position of the first live bit in the first element.
func (b *Bitset[C, T]) Head() uint8 {
	return b.head
}

func wordOf[T bitvec.BitStore](p *T) uintptr {
	return uintptr(unsafe.Pointer(p)) &^ 3
}

func (b *Bitset[C, T]) hot(w uintptr) bool {
	return w != 0 && (w == b.hotHead || w == b.hotTail)
}

// shared reports whether element i needs the atomic path.  Atomics on 8- and
// 16-bit elements write their whole enclosing 32-bit word, so sharing is
// tracked per word rather than per element.
func (b *Bitset[C, T]) shared(i int) bool {
	return b.hot(wordOf(&b.elems[i]))
}

func (b *Bitset[C, T]) access(i int) bitvec.ElementAccess[T] {
	return bitvec.Access[C](&b.elems[i], b.shared(i))
}

func (b *Bitset[C, T]) locate(off int64) (elem int, bit bitvec.BitIdx[T]) {
	w := int64(bitvec.Width[T]())
	pos := int64(b.head) + off
	return int(pos / w), bitvec.MustBitIdx[T](uint(pos % w))
}

// Set sets the bit at position `off` to 1.
func (b *Bitset[C, T]) Set(off int64) {
	if off < 0 || off >= b.length {
		return
	}
	i, bit := b.locate(off)
	b.access(i).Set(bit)
}

// Clear sets the bit at position `off` to 0.
func (b *Bitset[C, T]) Clear(off int64) {
	if off < 0 || off >= b.length {
		return
	}
	i, bit := b.locate(off)
	b.access(i).Clear(bit)
}

// SetTo sets the bit at position `off` to v.
func (b *Bitset[C, T]) SetTo(off int64, v bool) {
	if off < 0 || off >= b.length {
		return
	}
	i, bit := b.locate(off)
	bitvec.Store(b.access(i), bit, v)
}

// Invert flips the bit at position `off`.
func (b *Bitset[C, T]) Invert(off int64) {
	if off < 0 || off >= b.length {
		return
	}
	i, bit := b.locate(off)
	b.access(i).Invert(bit)
}

// IsSet returns true if the bit at position `off` is 1.
func (b *Bitset[C, T]) IsSet(off int64) bool {
	if off < 0 || off >= b.length {
		return false
	}
	i, bit := b.locate(off)
	return b.access(i).Test(bit)
}

// Elements returns a copy of the backing elements, including any dead bits
// before head and after the last live bit.
func (b *Bitset[C, T]) Elements() []T {
	out := make([]T, len(b.elems))
	for i := range b.elems {
		out[i] = b.access(i).Get()
	}
	return out
}

// SplitAt divides b into [0, off) and [off, Len()).  The halves share b's
// memory and may be used concurrently with each other; b itself must not be
// used while they are live.
//
// When off falls strictly inside an element, that element (and, for 8- and
// 16-bit elements, its whole 32-bit word) becomes shared and both halves
// switch to atomic access for it.  A split between two 8- or 16-bit
// elements of the same 32-bit word shares that word too; a split on a word
// boundary shares nothing new.
func (b *Bitset[C, T]) SplitAt(off int64) (left, right *Bitset[C, T], err error) {
	if off < 0 || off > b.length {
		return nil, nil, fmt.Errorf("%w: %d not in [0, %d]", ErrSplitOutOfRange, off, b.length)
	}
	w := int64(bitvec.Width[T]())
	pos := int64(b.head) + off
	split := int(pos / w)
	inner := uint8(pos % w)
	leftLen := elemsFor(b.head, off, uint8(w))

	// the word holding the split point is touched by both halves unless the
	// split lands on a 32-bit word boundary
	var splitWord uintptr
	if inner != 0 {
		splitWord = wordOf(&b.elems[split])
	} else if split > 0 && split < len(b.elems) {
		if p := uintptr(unsafe.Pointer(&b.elems[split])); p&3 != 0 {
			splitWord = p &^ 3
		}
	}

	left = &Bitset[C, T]{
		elems:  b.elems[:leftLen:leftLen],
		head:   b.head,
		length: off,
	}
	left.inheritHot(b, splitWord)
	right = &Bitset[C, T]{
		elems:  b.elems[split:],
		head:   inner,
		length: b.length - off,
	}
	right.inheritHot(b, splitWord)
	return left, right, nil
}

func (b *Bitset[C, T]) inheritHot(parent *Bitset[C, T], splitWord uintptr) {
	if len(b.elems) == 0 {
		return
	}
	isHot := func(w uintptr) bool {
		return w == splitWord || parent.hot(w)
	}
	if w := wordOf(&b.elems[0]); isHot(w) {
		b.hotHead = w
	}
	if w := wordOf(&b.elems[len(b.elems)-1]); isHot(w) {
		b.hotTail = w
	}
}
