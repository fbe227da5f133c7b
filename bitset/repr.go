// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitset

import (
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/bpowers/bitvec"
)

var (
	ErrMalformed = errors.New("malformed bit sequence")
)

// Repr is the external form of a bit sequence: the offset of the first live
// bit in the first element, the number of live bits, and the raw elements
// covering them in the sequence's cursor order.
type Repr[T bitvec.BitStore] struct {
	Head uint8
	Bits uint64
	Data []T
}

// Validate checks that r describes a well-formed sequence.
func (r Repr[T]) Validate() error {
	w := bitvec.Width[T]()
	if r.Head >= w {
		return fmt.Errorf("%w: head %d >= element width %d", ErrMalformed, r.Head, w)
	}
	if r.Bits > uint64(maxLength) {
		return fmt.Errorf("%w: bits %d too large", ErrMalformed, r.Bits)
	}
	if want := elemsFor(r.Head, int64(r.Bits), w); len(r.Data) != want {
		return fmt.Errorf("%w: %d bits from head %d need %d elements, have %d", ErrMalformed, r.Bits, r.Head, want, len(r.Data))
	}
	return nil
}

// keeps head+bits+width-1 from overflowing int64
const maxLength = 1<<62 - 1

// Repr returns the external form of b.
func (b *Bitset[C, T]) Repr() Repr[T] {
	return Repr[T]{
		Head: b.head,
		Bits: uint64(b.length),
		Data: b.Elements(),
	}
}

// FromRepr builds a Bitset that owns a copy of r.Data.
func FromRepr[C bitvec.Cursor, T bitvec.BitStore](r Repr[T]) (*Bitset[C, T], error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	elems := makeElems[T](len(r.Data))
	copy(elems, r.Data)
	return &Bitset[C, T]{
		elems:  elems,
		head:   r.Head,
		length: int64(r.Bits),
	}, nil
}

// wireRepr fixes the field names and order of the structured encodings.
// Data is widened so that uint8 elements encode as numbers, not base64.
type wireRepr struct {
	Head uint8    `json:"head" yaml:"head"`
	Bits uint64   `json:"bits" yaml:"bits"`
	Data []uint64 `json:"data" yaml:"data"`
}

func toWire[T bitvec.BitStore](r Repr[T]) wireRepr {
	data := make([]uint64, len(r.Data))
	for i, v := range r.Data {
		data[i] = uint64(v)
	}
	return wireRepr{Head: r.Head, Bits: r.Bits, Data: data}
}

func fromWire[T bitvec.BitStore](wr wireRepr) (Repr[T], error) {
	limit := uint64(^T(0))
	data := makeElems[T](len(wr.Data))
	for i, v := range wr.Data {
		if v > limit {
			return Repr[T]{}, fmt.Errorf("%w: data[%d] = %d overflows %d-bit element", ErrMalformed, i, v, bitvec.Width[T]())
		}
		data[i] = T(v)
	}
	r := Repr[T]{Head: wr.Head, Bits: wr.Bits, Data: data}
	if err := r.Validate(); err != nil {
		return Repr[T]{}, err
	}
	return r, nil
}

func (b *Bitset[C, T]) load(wr wireRepr) error {
	r, err := fromWire[T](wr)
	if err != nil {
		return err
	}
	*b = Bitset[C, T]{
		elems:  r.Data,
		head:   r.Head,
		length: int64(r.Bits),
	}
	return nil
}

// MarshalJSON encodes b as {"head":H,"bits":N,"data":[...]}.
func (b *Bitset[C, T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(toWire(b.Repr()))
}

// UnmarshalJSON replaces b with the decoded sequence.  Inconsistent input is
// rejected with ErrMalformed rather than truncated.  A JSON null leaves b
// unchanged.
func (b *Bitset[C, T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var wr wireRepr
	if err := json.Unmarshal(data, &wr); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return b.load(wr)
}

// MarshalYAML encodes b as a mapping with head, bits and data keys.
func (b *Bitset[C, T]) MarshalYAML() (interface{}, error) {
	return toWire(b.Repr()), nil
}

// UnmarshalYAML replaces b with the decoded sequence.
func (b *Bitset[C, T]) UnmarshalYAML(value *yaml.Node) error {
	var wr wireRepr
	if err := value.Decode(&wr); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return b.load(wr)
}

var (
	_ json.Marshaler   = (*Bitset[bitvec.Msb0, uint8])(nil)
	_ json.Unmarshaler = (*Bitset[bitvec.Msb0, uint8])(nil)
	_ yaml.Marshaler   = (*Bitset[bitvec.Lsb0, uint64])(nil)
	_ yaml.Unmarshaler = (*Bitset[bitvec.Lsb0, uint64])(nil)
)
