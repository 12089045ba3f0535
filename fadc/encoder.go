// Copyright 2022 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fadc

import (
	"encoding/binary"
	"io"

	"github.com/go-lpc/digi/word"
)

// Sample is a raw ADC sample.
type Sample struct {
	Value   uint32
	Invalid bool
}

// Pulse holds the parameters of one pulse of a pulse-parameter record.
type Pulse struct {
	Integral      uint32
	NSAExtended   bool
	Overflow      bool
	Underflow     bool
	OverThreshold uint32 // number of samples over threshold

	Coarse      uint32
	Fine        uint32
	Peak        uint32
	BeyondNSA   bool
	PeakInvalid bool
	AboveMaxPed bool
}

// Encoder writes fADC words, big-endian, to an output stream.
type Encoder struct {
	w    io.Writer
	slot uint32
	buf  []byte
	n    uint32 // number of words since the last block header
	err  error
}

// NewEncoder returns a new Encoder that writes words of the module at
// the provided slot to w.
func NewEncoder(w io.Writer, slot int) *Encoder {
	return &Encoder{
		w:    w,
		slot: uint32(slot),
		buf:  make([]byte, word.Size),
	}
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
	enc.Word(word.Pack(1, 31, 1) | word.Pack(uint32(k), 27, 4) | payload)
}

func (enc *Encoder) slotField() word.Word {
	return word.Pack(enc.slot, 22, 5)
}

// BlockHeader writes a block header declaring nevts events.
func (enc *Encoder) BlockHeader(module, block, nevts uint32) {
	enc.n = 0
	enc.define(BlockHeader,
		enc.slotField()|word.Pack(module, 18, 4)|word.Pack(block, 8, 10)|word.Pack(nevts, 0, 8),
	)
}

// BlockTrailer writes a block trailer holding the number of words of the block.
func (enc *Encoder) BlockTrailer() {
	enc.define(BlockTrailer, enc.slotField()|word.Pack(enc.n+1, 0, 22))
}

// EventHeader writes an event header.
func (enc *Encoder) EventHeader(trig uint32) {
	enc.define(EventHeader, enc.slotField()|word.Pack(trig, 0, 22))
}

// TriggerTime writes the two words of a 48-bit trigger time.
func (enc *Encoder) TriggerTime(t uint64) {
	enc.define(TriggerTime, word.Pack(uint32(t), 0, 24))
	enc.Word(word.Pack(uint32(t>>24), 0, 24))
}

// WindowRaw writes the raw samples of a readout window.
func (enc *Encoder) WindowRaw(ch int, samples []Sample) {
	enc.define(WindowRaw, word.Pack(uint32(ch), 23, 4)|word.Pack(uint32(len(samples)), 0, 12))
	enc.samples(samples)
}

// PulseRaw writes the raw samples of a pulse.
func (enc *Encoder) PulseRaw(ch, pulse, first int, samples []Sample) {
	enc.define(PulseRaw,
		word.Pack(uint32(ch), 23, 4)|word.Pack(uint32(pulse), 21, 2)|word.Pack(uint32(first), 0, 10),
	)
	enc.samples(samples)
}

func (enc *Encoder) samples(samples []Sample) {
	for i := 0; i < len(samples); i += 2 {
		s1 := samples[i]
		s2 := Sample{Invalid: true}
		if i+1 < len(samples) {
			s2 = samples[i+1]
		}
		enc.Word(
			word.Pack(b2u(s1.Invalid), 29, 1) | word.Pack(s1.Value, 16, 13) |
				word.Pack(b2u(s2.Invalid), 13, 1) | word.Pack(s2.Value, 0, 13),
		)
	}
}

// PulseIntegral writes a pulse integral.
func (enc *Encoder) PulseIntegral(ch, pulse, quality int, v uint32) {
	enc.define(PulseIntegral,
		word.Pack(uint32(ch), 23, 4)|word.Pack(uint32(pulse), 21, 2)|
			word.Pack(uint32(quality), 19, 2)|word.Pack(v, 0, 19),
	)
}

// PulseTime writes a pulse time.
func (enc *Encoder) PulseTime(ch, pulse, quality int, coarse, fine uint32) {
	enc.define(PulseTime,
		word.Pack(uint32(ch), 23, 4)|word.Pack(uint32(pulse), 21, 2)|
			word.Pack(uint32(quality), 19, 2)|word.Pack(coarse, 6, 10)|word.Pack(fine, 0, 6),
	)
}

// PulsePedestal writes a pulse pedestal.
func (enc *Encoder) PulsePedestal(ch, pulse int, ped, peak uint32) {
	enc.define(PulsePedestal,
		word.Pack(uint32(ch), 23, 4)|word.Pack(uint32(pulse), 21, 2)|
			word.Pack(ped, 12, 9)|word.Pack(peak, 0, 12),
	)
}

// PulseParam writes a pulse-parameter record: the pedestal of the channel,
// followed by two words per pulse.
func (enc *Encoder) PulseParam(ch, evt, pedQuality int, pedSum uint32, pulses []Pulse) {
	enc.define(PulseParam,
		word.Pack(uint32(evt), 19, 8)|word.Pack(uint32(ch), 15, 4)|
			word.Pack(uint32(pedQuality), 14, 1)|word.Pack(pedSum, 0, 14),
	)
	for _, p := range pulses {
		enc.Word(
			word.Pack(1, 30, 1) | word.Pack(p.Integral, 12, 18) |
				word.Pack(b2u(p.NSAExtended), 11, 1) | word.Pack(b2u(p.Overflow), 10, 1) |
				word.Pack(b2u(p.Underflow), 9, 1) | word.Pack(p.OverThreshold, 0, 9),
		)
		enc.Word(
			word.Pack(p.Coarse, 21, 9) | word.Pack(p.Fine, 15, 6) | word.Pack(p.Peak, 3, 12) |
				word.Pack(b2u(p.BeyondNSA), 2, 1) | word.Pack(b2u(p.PeakInvalid), 1, 1) |
				word.Pack(b2u(p.AboveMaxPed), 0, 1),
		)
	}
}

// ScalerHeader writes a scaler header declaring n scaler words.
func (enc *Encoder) ScalerHeader(n int) {
	enc.define(ScalerHeader, word.Pack(uint32(n), 0, 6))
}

// Filler writes a filler word.
func (enc *Encoder) Filler() {
	enc.define(Filler, 0)
}

func b2u(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}
