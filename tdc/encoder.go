// Copyright 2022 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tdc

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-lpc/digi/word"
)

// Encoder writes TDC words, big-endian, to an output stream.
type Encoder struct {
	w    io.Writer
	slot uint32
	lay  layout
	buf  []byte
	n    uint32 // number of words since the last global header
	err  error
}

// NewEncoder returns a new Encoder that writes words of the TDC model
// at the provided slot to w.
func NewEncoder(w io.Writer, slot int, model Model) *Encoder {
	enc := &Encoder{
		w:    w,
		slot: uint32(slot),
		buf:  make([]byte, word.Size),
	}
	lay, ok := layouts[model]
	if !ok {
		enc.err = fmt.Errorf("tdc: model=%v: %w", model, ErrModel)
	}
	enc.lay = lay
	return enc
}

// Err returns the first error that occurred while writing.
func (enc *Encoder) Err() error { return enc.err }

// Word writes a raw word.
func (enc *Encoder) Word(w word.Word) {
	if enc.err != nil {
		return
	}
	binary.BigEndian.PutUint32(enc.buf, uint32(w))
	_, enc.err = enc.w.Write(enc.buf)
	enc.n++
}

func (enc *Encoder) define(k Kind, payload word.Word) {
	enc.Word(word.Pack(uint32(k), 27, 5) | payload)
}

// GlobalHeader writes a global header.
func (enc *Encoder) GlobalHeader(count uint32) {
	enc.n = 0
	enc.define(GlobalHeader, word.Pack(count, 5, 22)|word.Pack(enc.slot, 0, 5))
}

// GlobalTrailer writes a global trailer holding the number of words of the event.
func (enc *Encoder) GlobalTrailer(status uint32) {
	enc.define(GlobalTrailer,
		word.Pack(status, 24, 3)|word.Pack(enc.n+1, 5, 16)|word.Pack(enc.slot, 0, 5),
	)
}

// TDCHeader writes the header of the chip tdc.
func (enc *Encoder) TDCHeader(tdc, evtid, bunch uint32) {
	enc.define(TDCHeader, word.Pack(tdc, 24, 2)|word.Pack(evtid, 12, 12)|word.Pack(bunch, 0, 12))
}

// TDCTrailer writes the trailer of the chip tdc.
func (enc *Encoder) TDCTrailer(tdc, evtid, nwords uint32) {
	enc.define(TDCTrailer, word.Pack(tdc, 24, 2)|word.Pack(evtid, 12, 12)|word.Pack(nwords, 0, 12))
}

// Measurement writes a measurement of the hardware channel ch.
func (enc *Encoder) Measurement(ch int, trailing bool, v uint32) {
	var edge uint32
	if trailing {
		edge = 1
	}
	enc.define(Measurement,
		word.Pack(edge, 26, 1)|
			word.Pack(uint32(ch), enc.lay.chOff, enc.lay.chLen)|
			word.Pack(v, 0, enc.lay.valLen),
	)
}

// Error writes a TDC error word.
func (enc *Encoder) Error(tdc, flags uint32) {
	enc.define(TDCError, word.Pack(tdc, 24, 2)|word.Pack(flags, 0, 15))
}

// ExtTrigger writes an extended trigger time tag.
func (enc *Encoder) ExtTrigger(t uint32) {
	enc.define(ExtTrigger, word.Pack(t, 0, 27))
}

// Filler writes a filler word.
func (enc *Encoder) Filler() {
	enc.define(Filler, 0)
}
