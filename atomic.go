// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitvec

import (
	"sync/atomic"

	"github.com/bpowers/bitvec/internal/atomicx"
)

// Atomic is synchronized element access.  Every mutation is one atomic
// read-modify-write of the whole element, so any number of goroutines may
// change disjoint or overlapping bits of the same element concurrently
// without losing updates, and Get never observes a partially applied
// update.
//
// No ordering is promised between operations on different elements, and a
// Get following an Invert may already reflect another goroutine's later
// write.
//
// While an element may be aliased, every access to it (and, for 8- and
// 16-bit elements, to the rest of its aligned 32-bit word) must go through
// Atomic.
type Atomic[C Cursor, T BitStore] struct {
	p *T
}

// NewAtomic returns synchronized access to the element at p.
//
// A *uint64 must be 8-byte aligned, or sync/atomic panics on 32-bit
// platforms; slice elements and the first word of an allocation are, but a
// uint64 struct field may not be.  A *uint8 or *uint16 is updated through
// its aligned 32-bit word, so no other memory in that word may be written
// without Atomic while p is in use.
func NewAtomic[C Cursor, T BitStore](p *T) Atomic[C, T] {
	return Atomic[C, T]{p: p}
}

// Clear atomically ANDs the element with the complement of bit's mask.
func (a Atomic[C, T]) Clear(bit BitIdx[T]) {
	a.and(^Mask[C](bit))
}

// Set atomically ORs bit's mask into the element.
func (a Atomic[C, T]) Set(bit BitIdx[T]) {
	a.or(Mask[C](bit))
}

// Invert atomically XORs bit's mask into the element.
func (a Atomic[C, T]) Invert(bit BitIdx[T]) {
	a.xor(Mask[C](bit))
}

// Get atomically loads the element.
func (a Atomic[C, T]) Get() T {
	switch p := any(a.p).(type) {
	case *uint8:
		return T(atomicx.Load8(p))
	case *uint16:
		return T(atomicx.Load16(p))
	case *uint32:
		return T(atomic.LoadUint32(p))
	case *uint64:
		return T(atomic.LoadUint64(p))
	}
	panic("unreachable")
}

func (a Atomic[C, T]) Test(bit BitIdx[T]) bool {
	return a.Get()&Mask[C](bit) != 0
}

func (a Atomic[C, T]) and(m T) {
	switch p := any(a.p).(type) {
	case *uint8:
		atomicx.And8(p, uint8(m))
	case *uint16:
		atomicx.And16(p, uint16(m))
	case *uint32:
		atomic.AndUint32(p, uint32(m))
	case *uint64:
		atomic.AndUint64(p, uint64(m))
	}
}

func (a Atomic[C, T]) or(m T) {
	switch p := any(a.p).(type) {
	case *uint8:
		atomicx.Or8(p, uint8(m))
	case *uint16:
		atomicx.Or16(p, uint16(m))
	case *uint32:
		atomic.OrUint32(p, uint32(m))
	case *uint64:
		atomic.OrUint64(p, uint64(m))
	}
}

func (a Atomic[C, T]) xor(m T) {
	switch p := any(a.p).(type) {
	case *uint8:
		atomicx.Xor8(p, uint8(m))
	case *uint16:
		atomicx.Xor16(p, uint16(m))
	case *uint32:
		atomicx.Xor32(p, uint32(m))
	case *uint64:
		atomicx.Xor64(p, uint64(m))
	}
}
