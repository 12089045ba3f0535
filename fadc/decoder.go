// Copyright 2022 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fadc

import (
	"fmt"

	"github.com/go-lpc/digi/block"
	"github.com/go-lpc/digi/hit"
	"github.com/go-lpc/digi/word"
)

// Status describes the state of the decoder after a word.
type Status uint8

const (
	Continue      Status = iota // more words are expected
	EventComplete               // block trailer seen
)

// Decoder decodes the words of one fADC module, one word at a time.
// A Decoder is not safe for concurrent use: independent modules
// should use independent decoders.
type Decoder struct {
	cfg   Config
	store *hit.Store

	kind Kind   // kind of the last defining word
	gate bool   // words belong to the slot of the decoder
	rec  record // open multi-word record
	obs  uint16 // mask of observed record kinds

	evt   header
	width []int // window width, per channel
	npraw []int // number of pulse-raw records, per channel

	dropped int // values for out-of-range channels
}

// record holds the scratch state of a multi-word record.
type record struct {
	open  bool
	chn   int
	nsamp int // number of samples decoded so far
}

type header struct {
	module uint32
	block  uint32
	nevts  uint32
	nwords uint32
	trig   uint32

	tlo   uint32 // trigger time, first word
	ttime uint64

	scalers uint32
}

// NewDecoder creates a new decoder for the module described by cfg.
func NewDecoder(cfg Config) *Decoder {
	cfg.defaults()
	dec := &Decoder{
		cfg:   cfg,
		store: hit.NewStore(cfg.Slot, cfg.Channels),
		width: make([]int, cfg.Channels),
		npraw: make([]int, cfg.Channels),
	}
	dec.Clear()
	return dec
}

// Slot returns the slot of the module.
func (dec *Decoder) Slot() int { return dec.cfg.Slot }

// Config returns the configuration of the decoder.
func (dec *Decoder) Config() Config { return dec.cfg }

// Store returns the collections of decoded values.
func (dec *Decoder) Store() *hit.Store { return dec.store }

// Framing returns the framing of fADC modules.
func (dec *Decoder) Framing() block.Framing { return Framing{} }

// Clear discards the decoded values and the decoding state.
// Clear is idempotent.
func (dec *Decoder) Clear() {
	dec.store.Clear()
	dec.kind = Filler
	dec.gate = true
	dec.rec = record{}
	dec.obs = 0
	dec.evt = header{}
	for i := range dec.width {
		dec.width[i] = 0
		dec.npraw[i] = 0
	}
	dec.dropped = 0
}

// DecodeEvent clears the decoder and decodes the words of one event
// buffer, until the block trailer or the end of the buffer.
func (dec *Decoder) DecodeEvent(words []word.Word) error {
	dec.Clear()
	for i, w := range words {
		st, err := dec.Decode(w)
		if err != nil {
			return fmt.Errorf("fadc: slot=%d could not decode word %d: %w", dec.cfg.Slot, i, err)
		}
		if st == EventComplete {
			break
		}
	}
	return nil
}

// Decode decodes one word.
// Decode returns a *FramingError when a framing word carries another slot
// than the one of the decoder, unless the decoder is lenient.
func (dec *Decoder) Decode(w word.Word) (Status, error) {
	if !w.IsDefining() {
		dec.extend(w)
		return Continue, nil
	}

	dec.kind = Kind(w.Tag())
	dec.rec = record{}

	switch dec.kind {
	case BlockHeader, BlockTrailer, EventHeader:
		err := dec.frame(w)
		if err != nil {
			return Continue, err
		}
	}

	if !dec.gate {
		return Continue, nil
	}
	dec.obs |= 1 << dec.kind

	switch dec.kind {
	case BlockHeader:
		dec.evt.module = w.Field(18, 4)
		dec.evt.block = w.Field(8, 10)
		dec.evt.nevts = w.Field(0, 8)

	case BlockTrailer:
		dec.evt.nwords = w.Field(0, 22)
		return EventComplete, nil

	case EventHeader:
		dec.evt.trig = w.Field(0, 22)
		dec.evt.tlo = 0
		dec.evt.ttime = 0

	case TriggerTime:
		dec.evt.tlo = w.Field(0, 24)
		dec.evt.ttime = uint64(dec.evt.tlo)
		dec.rec.open = true

	case WindowRaw:
		dec.rec = record{
			open: true,
			chn:  int(w.Field(23, 4)),
		}
		if ch := dec.rec.chn; ch < len(dec.width) {
			dec.width[ch] = int(w.Field(0, 12))
		}

	case PulseRaw:
		dec.rec = record{
			open: true,
			chn:  int(w.Field(23, 4)),
		}
		if ch := dec.rec.chn; ch < len(dec.npraw) {
			dec.npraw[ch]++
		}

	case PulseIntegral:
		var (
			ch  = int(w.Field(23, 4))
			bad = isInvalid(w.Field(19, 2))
		)
		dec.add(hit.Integral, ch, w.Field(0, 19), bad)

	case PulseTime:
		var (
			ch  = int(w.Field(23, 4))
			bad = isInvalid(w.Field(19, 2))
		)
		dec.add(hit.Time, ch, w.Field(0, 16), bad)
		dec.add(hit.CoarseTime, ch, w.Field(6, 10), bad)
		dec.add(hit.FineTime, ch, w.Field(0, 6), bad)

	case PulseParam:
		dec.rec = record{
			open: true,
			chn:  int(w.Field(15, 4)),
		}
		ped := w.Field(0, 14)
		if dec.cfg.Firmware == FirmwareMean {
			ped /= uint32(dec.cfg.NPed)
		}
		dec.add(hit.Pedestal, dec.rec.chn, ped, false)
		dec.add(hit.PedestalQuality, dec.rec.chn, w.Field(14, 1), false)

	case PulsePedestal:
		ch := int(w.Field(23, 4))
		dec.add(hit.Pedestal, ch, w.Field(12, 9), false)
		dec.add(hit.Peak, ch, w.Field(0, 12), false)

	case ScalerHeader:
		dec.evt.scalers = w.Field(0, 6)

	default:
		// undefined, not-valid, filler and unassigned tags: no-op.
	}

	return Continue, nil
}

// frame checks the slot of a framing word.
func (dec *Decoder) frame(w word.Word) error {
	slot := int(w.Field(22, 5))
	if slot == dec.cfg.Slot {
		dec.gate = true
		return nil
	}

	dec.gate = false
	if dec.cfg.Lenient {
		return nil
	}
	return &FramingError{
		Kind: dec.kind,
		Slot: slot,
		Want: dec.cfg.Slot,
		Word: w,
	}
}

// extend decodes a continuation word of the open record.
func (dec *Decoder) extend(w word.Word) {
	if !dec.rec.open {
		return
	}

	switch dec.kind {
	case TriggerTime:
		hi := w.Field(0, 24)
		dec.evt.ttime = uint64(hi)<<24 | uint64(dec.evt.tlo)
		dec.rec.open = false

	case WindowRaw:
		width := -1
		if ch := dec.rec.chn; ch < len(dec.width) {
			width = dec.width[ch]
		}
		dec.sample(w.Field(16, 13), w.Bit(29), width)
		dec.sample(w.Field(0, 13), w.Bit(13), width)

	case PulseRaw:
		dec.sample(w.Field(16, 13), w.Bit(29), -1)
		dec.sample(w.Field(0, 13), w.Bit(13), -1)

	case PulseParam:
		ch := dec.rec.chn
		switch {
		case w.Bit(30):
			dec.add(hit.Integral, ch, w.Field(12, 18), false)
			dec.add(hit.Overflow, ch, w.Field(10, 1), false)
			dec.add(hit.Underflow, ch, w.Field(9, 1), false)
		default:
			dec.add(hit.Time, ch, w.Field(15, 16), false)
			dec.add(hit.CoarseTime, ch, w.Field(21, 9), false)
			dec.add(hit.FineTime, ch, w.Field(15, 6), false)
			dec.add(hit.Peak, ch, w.Field(3, 12), w.Bit(1))
		}
	}
}

// sample appends a raw sample of the open record.
// Samples beyond the window width are padding.
func (dec *Decoder) sample(v uint32, bad bool, width int) {
	if width >= 0 && dec.rec.nsamp >= width {
		return
	}
	dec.rec.nsamp++
	dec.add(hit.Sample, dec.rec.chn, v, bad)
}

// add appends a value to the store.
// Invalid values are stored as 0, to keep the collections of a pulse aligned.
func (dec *Decoder) add(k hit.Kind, ch int, v uint32, bad bool) {
	if !dec.gate {
		return
	}
	if bad {
		v = 0
	}
	if !dec.store.Append(k, ch, int32(v), bad) {
		dec.dropped++
	}
}

// isInvalid returns whether the quality bits of a pulse integral or
// pulse time flag the value as invalid.
func isInvalid(quality uint32) bool {
	return quality&0x1 != 0
}

// Data returns the i-th value of kind k decoded for channel ch.
func (dec *Decoder) Data(k hit.Kind, ch, i int) (int32, error) {
	return dec.store.At(k, ch, i)
}

// Len returns the number of values of kind k decoded for channel ch.
func (dec *Decoder) Len(k hit.Kind, ch int) (int, error) {
	return dec.store.Len(k, ch)
}

// LoadInto pushes all the values decoded for the current event into sink.
func (dec *Decoder) LoadInto(sink hit.Sink) error {
	return dec.store.LoadInto(sink)
}

// Observed returns whether a record of kind k was decoded since the last Clear.
func (dec *Decoder) Observed(k Kind) bool {
	return k < numKinds && dec.obs&(1<<k) != 0
}

// TriggerTime returns the 48-bit trigger time of the current event.
func (dec *Decoder) TriggerTime() uint64 { return dec.evt.ttime }

// TriggerNumber returns the trigger number of the current event.
func (dec *Decoder) TriggerNumber() uint32 { return dec.evt.trig }

// ModuleID returns the module identifier from the block header.
func (dec *Decoder) ModuleID() uint32 { return dec.evt.module }

// BlockNumber returns the block number from the block header.
func (dec *Decoder) BlockNumber() uint32 { return dec.evt.block }

// EventsInBlock returns the number of events declared by the block header.
func (dec *Decoder) EventsInBlock() uint32 { return dec.evt.nevts }

// WordsInBlock returns the number of words declared by the block trailer.
func (dec *Decoder) WordsInBlock() uint32 { return dec.evt.nwords }

// ScalerWords returns the number of scaler words declared by the scaler header.
func (dec *Decoder) ScalerWords() uint32 { return dec.evt.scalers }

// WindowWidth returns the window width of the raw window of channel ch.
func (dec *Decoder) WindowWidth(ch int) int {
	if ch < 0 || ch >= len(dec.width) {
		return 0
	}
	return dec.width[ch]
}

// Dropped returns the number of values dropped because of an
// out-of-range channel.
func (dec *Decoder) Dropped() int { return dec.dropped }
