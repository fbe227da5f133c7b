// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package bitfile reads and writes the binary form of a bit sequence.
//
// A bitfile looks like:
//
//	┌───────────────────┐
//	│ file header       │
//	├───────────────────┤
//	│ element payload   │
//	│ (maybe compressed)│
//	│                   │
//	└───────────────────┘
//
// The 64-byte header is little-endian:
//
//	 0    1    2    3    4    5    6    7
//	+----+----+----+----+----+----+----+----+
//	| magic             | format version    |
//	+----+----+----+----+----+----+----+----+
//	|wdth|ordr|head|comp| reserved          |
//	+----+----+----+----+----+----+----+----+
//	| live bit count                        |
//	+----+----+----+----+----+----+----+----+
//	| element count                         |
//	+----+----+----+----+----+----+----+----+
//	| stored payload length                 |
//	+----+----+----+----+----+----+----+----+
//	| payload checksum                      |
//	+----+----+----+----+----+----+----+----+
//	| reserved                              |
//	|                                       |
//	+----+----+----+----+----+----+----+----+
//
// The payload is every storage element, including dead bits, written
// little-endian at its native width and then optionally compressed with lz4
// or zstd.  The checksum is farm.Hash64 of the uncompressed payload, so
// on-disk corruption is caught (with high probability) whichever codec was
// used.
package bitfile
