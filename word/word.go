// Copyright 2022 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package word holds types and functions to handle the raw 32-bit words
// read out from a crate of digitizers.
package word // import "github.com/go-lpc/digi/word"

import (
	"encoding/binary"
	"fmt"
)

// Size is the size in bytes of a raw word.
const Size = 4

// Word is a raw 32-bit readout word.
type Word uint32

// Field returns the n-bit wide field of w starting at bit offset off.
func (w Word) Field(off, n uint) uint32 {
	return uint32(w>>off) & (1<<n - 1)
}

// Bit returns whether bit i of w is set.
func (w Word) Bit(i uint) bool {
	return w&(1<<i) != 0
}

// IsDefining returns whether w is the first word of a record,
// ie: whether w carries a record-kind tag.
func (w Word) IsDefining() bool {
	return w.Bit(31)
}

// Tag returns the 4-bit record-kind tag of a defining word.
func (w Word) Tag() uint8 {
	return uint8(w.Field(27, 4))
}

func (w Word) String() string {
	return fmt.Sprintf("0x%08x", uint32(w))
}

// Pack returns a word with the n-bit wide field at offset off set to v.
// Bits of v beyond n are discarded.
func Pack(v uint32, off, n uint) Word {
	return Word((v & (1<<n - 1)) << off)
}

// FromBytes decodes raw bytes into words, using the provided byte order.
// Trailing bytes that do not fill a whole word are ignored.
func FromBytes(p []byte, order binary.ByteOrder) []Word {
	n := len(p) / Size
	ws := make([]Word, n)
	for i := range ws {
		ws[i] = Word(order.Uint32(p[i*Size:]))
	}
	return ws
}

// Bytes encodes words into raw bytes, using the provided byte order.
func Bytes(ws []Word, order binary.ByteOrder) []byte {
	p := make([]byte, len(ws)*Size)
	for i, w := range ws {
		order.PutUint32(p[i*Size:], uint32(w))
	}
	return p
}
