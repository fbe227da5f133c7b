// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package bitvec provides element-level access to packed bit sequences.
//
// A bit sequence is stored in a run of fixed-width unsigned integers
// (storage elements).  When a sequence is split at a position that is not
// a multiple of the element width, both halves end up referring to the same
// element:
//
//	element:  [ b0 b1 b2 b3 | b4 b5 b6 b7 ]
//	            left half      right half
//
// Updating one bit means reading the whole element, changing it, and
// writing it back.  Two halves doing that concurrently can silently undo
// each other's writes.  Atomic performs every mutation as a single atomic
// read-modify-write of the whole element, so concurrent single-bit updates
// through any number of aliasing views compose without loss.  Plain does
// the same updates without synchronization for elements that a container
// knows are not shared; Access picks between the two per element.
//
// A BitIdx is a bit position already validated against the element width.
// A Cursor decides which physical bit a BitIdx refers to: Msb0 counts from
// the most significant bit, Lsb0 from the least significant bit.
//
// Atomic gives no ordering guarantees across different elements.  Callers
// that need one element's update to be visible before another's must
// synchronize themselves.
package bitvec
