// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitvec

// ElementAccess reads and modifies single bits of one storage element.
// Implementations borrow the element; they never own it.
type ElementAccess[T BitStore] interface {
	// Clear sets bit to 0.
	Clear(bit BitIdx[T])
	// Set sets bit to 1.
	Set(bit BitIdx[T])
	// Invert flips bit.
	Invert(bit BitIdx[T])
	// Get returns the whole element.
	Get() T
	// Test reports whether bit is 1.
	Test(bit BitIdx[T]) bool
}

// Access returns the access path for the element at p.  Elements that may
// be referenced by another live view (aliased) get the atomic path; all
// others get the unsynchronized one.  Whether an element is aliased is the
// caller's call: nothing in the element records it.
func Access[C Cursor, T BitStore](p *T, aliased bool) ElementAccess[T] {
	if aliased {
		return Atomic[C, T]{p: p}
	}
	return Plain[C, T]{p: p}
}

// Store sets bit to value through a.
func Store[T BitStore](a ElementAccess[T], bit BitIdx[T], value bool) {
	if value {
		a.Set(bit)
	} else {
		a.Clear(bit)
	}
}

// Plain is unsynchronized element access.  It is only correct when no other
// goroutine can touch the element at the same time.
type Plain[C Cursor, T BitStore] struct {
	p *T
}

// NewPlain returns unsynchronized access to the element at p.
func NewPlain[C Cursor, T BitStore](p *T) Plain[C, T] {
	return Plain[C, T]{p: p}
}

func (a Plain[C, T]) Clear(bit BitIdx[T]) {
	*a.p &^= Mask[C](bit)
}

func (a Plain[C, T]) Set(bit BitIdx[T]) {
	*a.p |= Mask[C](bit)
}

func (a Plain[C, T]) Invert(bit BitIdx[T]) {
	*a.p ^= Mask[C](bit)
}

func (a Plain[C, T]) Get() T {
	return *a.p
}

func (a Plain[C, T]) Test(bit BitIdx[T]) bool {
	return *a.p&Mask[C](bit) != 0
}

var (
	_ ElementAccess[uint8]  = Plain[Msb0, uint8]{}
	_ ElementAccess[uint64] = Atomic[Lsb0, uint64]{}
)
