// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package atomicx fills the gaps in sync/atomic needed for bit-level
// element access: and/or/xor/load on 8- and 16-bit values, and xor on 32-
// and 64-bit values.
//
// There are no 8- or 16-bit atomic instructions exposed by sync/atomic, so
// sub-word operations are performed on the naturally aligned 32-bit word
// that contains the value, touching only the value's own bits.  The bytes
// around the value are never changed.  Every access to such a value must go
// through this package while it may be shared; mixing in plain writes to the
// same 32-bit word is a data race.
package atomicx

import (
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// word32 returns the aligned 32-bit word containing the size-byte value at
// p, and the shift of that value within the word.
func word32(p unsafe.Pointer, size uintptr) (*uint32, uint) {
	off := uintptr(p) & 3
	w := (*uint32)(unsafe.Pointer(uintptr(p) &^ 3))
	if cpu.IsBigEndian {
		return w, uint(4-off-size) * 8
	}
	return w, uint(off) * 8
}

func or32(w *uint32, bits uint32) {
	atomic.OrUint32(w, bits)
}

func and32(w *uint32, bits uint32) {
	atomic.AndUint32(w, bits)
}

// Xor32 atomically computes *p ^= v and returns the previous value.
func Xor32(p *uint32, v uint32) (old uint32) {
	for {
		old = atomic.LoadUint32(p)
		if atomic.CompareAndSwapUint32(p, old, old^v) {
			return old
		}
	}
}

// Xor64 atomically computes *p ^= v and returns the previous value.
func Xor64(p *uint64, v uint64) (old uint64) {
	for {
		old = atomic.LoadUint64(p)
		if atomic.CompareAndSwapUint64(p, old, old^v) {
			return old
		}
	}
}

// Load8 atomically loads *p.
func Load8(p *uint8) uint8 {
	w, shift := word32(unsafe.Pointer(p), 1)
	return uint8(atomic.LoadUint32(w) >> shift)
}

// Or8 atomically computes *p |= v.
func Or8(p *uint8, v uint8) {
	w, shift := word32(unsafe.Pointer(p), 1)
	or32(w, uint32(v)<<shift)
}

// And8 atomically computes *p &= v.
func And8(p *uint8, v uint8) {
	w, shift := word32(unsafe.Pointer(p), 1)
	and32(w, uint32(v)<<shift|^(uint32(0xff)<<shift))
}

// Xor8 atomically computes *p ^= v.
func Xor8(p *uint8, v uint8) {
	w, shift := word32(unsafe.Pointer(p), 1)
	Xor32(w, uint32(v)<<shift)
}

// Load16 atomically loads *p.  p must be 2-byte aligned, which Go
// guarantees for any addressable uint16.
func Load16(p *uint16) uint16 {
	w, shift := word32(unsafe.Pointer(p), 2)
	return uint16(atomic.LoadUint32(w) >> shift)
}

// Or16 atomically computes *p |= v.
func Or16(p *uint16, v uint16) {
	w, shift := word32(unsafe.Pointer(p), 2)
	or32(w, uint32(v)<<shift)
}

// And16 atomically computes *p &= v.
func And16(p *uint16, v uint16) {
	w, shift := word32(unsafe.Pointer(p), 2)
	and32(w, uint32(v)<<shift|^(uint32(0xffff)<<shift))
}

// Xor16 atomically computes *p ^= v.
func Xor16(p *uint16, v uint16) {
	w, shift := word32(unsafe.Pointer(p), 2)
	Xor32(w, uint32(v)<<shift)
}
