// Copyright 2022 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tdc

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
	EventComplete               // global trailer seen
)

// Decoder decodes the words of one TDC, one word at a time.
// A Decoder is not safe for concurrent use.
type Decoder struct {
	cfg   Config
	lay   layout
	store *hit.Store

	gate bool // words belong to the slot of the decoder
	evt  header

	dropped int
}

type header struct {
	count  uint32 // event counter, from the global header
	evtid  uint32 // event id, from the last TDC header
	bunch  uint32 // bunch id, from the last TDC header
	ext    uint32 // extended trigger time
	status uint32 // global trailer status
	nwords uint32 // global trailer word count
	nerrs  int    // number of TDC error words
	flags  uint32 // or-ed TDC error flags
}

// NewDecoder creates a new decoder for the TDC described by cfg.
func NewDecoder(cfg Config) (*Decoder, error) {
	lay, ok := layouts[cfg.Model]
	if !ok {
		return nil, fmt.Errorf("tdc: slot=%d model=%v: %w", cfg.Slot, cfg.Model, ErrModel)
	}
	if cfg.Channels <= 0 {
		cfg.Channels = Channel(lay.nchans-1, cfg.HighRes) + 1
	}

	dec := &Decoder{
		cfg:   cfg,
		lay:   lay,
		store: hit.NewStore(cfg.Slot, cfg.Channels),
	}
	dec.Clear()
	return dec, nil
}

// Slot returns the slot of the module.
func (dec *Decoder) Slot() int { return dec.cfg.Slot }

// Config returns the configuration of the decoder.
func (dec *Decoder) Config() Config { return dec.cfg }

// Store returns the collections of decoded values.
func (dec *Decoder) Store() *hit.Store { return dec.store }

// Framing returns the framing of TDC modules.
func (dec *Decoder) Framing() block.Framing { return Framing{} }

// Clear discards the decoded values and the decoding state.
// Clear is idempotent.
func (dec *Decoder) Clear() {
	dec.store.Clear()
	dec.gate = true
	dec.evt = header{}
	dec.dropped = 0
}

// DecodeEvent clears the decoder and decodes the words of one event
// buffer, until the global trailer or the end of the buffer.
func (dec *Decoder) DecodeEvent(words []word.Word) error {
	dec.Clear()
	for i, w := range words {
		st, err := dec.Decode(w)
		if err != nil {
			return fmt.Errorf("tdc: slot=%d could not decode word %d: %w", dec.cfg.Slot, i, err)
		}
		if st == EventComplete {
			break
		}
	}
	return nil
}

// Decode decodes one word.
// Decode returns a *FramingError when a global header or trailer carries
// another slot than the one of the decoder, unless the decoder is lenient.
func (dec *Decoder) Decode(w word.Word) (Status, error) {
	kind := kindOf(w)
	switch kind {
	case GlobalHeader, GlobalTrailer:
		err := dec.frame(kind, w)
		if err != nil {
			return Continue, err
		}
	}

	if !dec.gate {
		return Continue, nil
	}

	switch kind {
	case GlobalHeader:
		dec.evt.count = w.Field(5, 22)

	case GlobalTrailer:
		dec.evt.status = w.Field(24, 3)
		dec.evt.nwords = w.Field(5, 16)
		return EventComplete, nil

	case TDCHeader:
		dec.evt.evtid = w.Field(12, 12)
		dec.evt.bunch = w.Field(0, 12)

	case Measurement:
		var (
			raw = int(w.Field(dec.lay.chOff, dec.lay.chLen))
			ch  = Channel(raw, dec.cfg.HighRes)
			v   = int32(w.Field(0, dec.lay.valLen))
		)
		if dec.cfg.Trigger == CommonStop {
			v = -v
		}
		if !dec.store.Append(hit.Time, ch, v, false) {
			dec.dropped++
			break
		}
		dec.store.Append(hit.Edge, ch, int32(w.Field(26, 1)), false)

	case TDCError:
		dec.evt.nerrs++
		dec.evt.flags |= w.Field(0, 15)

	case ExtTrigger:
		dec.evt.ext = w.Field(0, 27)

	default:
		// TDC trailer, filler and unassigned kinds: no-op.
	}

	return Continue, nil
}

func (dec *Decoder) frame(kind Kind, w word.Word) error {
	slot := int(w.Field(0, 5))
	if slot == dec.cfg.Slot {
		dec.gate = true
		return nil
	}

	dec.gate = false
	if dec.cfg.Lenient {
		return nil
	}
	return &FramingError{
		Kind: kind,
		Slot: slot,
		Want: dec.cfg.Slot,
		Word: w,
	}
}

// Data returns the i-th value of kind k decoded for channel ch.
func (dec *Decoder) Data(k hit.Kind, ch, i int) (int32, error) {
	return dec.store.At(k, ch, i)
}

// Len returns the number of values of kind k decoded for channel ch.
func (dec *Decoder) Len(k hit.Kind, ch int) (int, error) {
	return dec.store.Len(k, ch)
}

// NumHits returns the number of measurements decoded for channel ch.
func (dec *Decoder) NumHits(ch int) (int, error) {
	return dec.store.Len(hit.Time, ch)
}

// LoadInto pushes all the values decoded for the current event into sink.
func (dec *Decoder) LoadInto(sink hit.Sink) error {
	return dec.store.LoadInto(sink)
}

// Check reports the error words and error status flagged by the board
// for the current event.
func (dec *Decoder) Check() error {
	if dec.evt.nerrs == 0 && dec.evt.status == 0 {
		return nil
	}
	return fmt.Errorf(
		"tdc: slot=%d error-words=%d (flags=0x%04x) status=0x%x: %w",
		dec.cfg.Slot, dec.evt.nerrs, dec.evt.flags, dec.evt.status, ErrHardware,
	)
}

// EventCount returns the event counter of the current event.
func (dec *Decoder) EventCount() uint32 { return dec.evt.count }

// EventID returns the event id of the last TDC header.
func (dec *Decoder) EventID() uint32 { return dec.evt.evtid }

// BunchID returns the bunch id of the last TDC header.
func (dec *Decoder) BunchID() uint32 { return dec.evt.bunch }

// ExtTriggerTime returns the extended trigger time of the current event.
func (dec *Decoder) ExtTriggerTime() uint32 { return dec.evt.ext }

// WordCount returns the number of words declared by the global trailer.
func (dec *Decoder) WordCount() uint32 { return dec.evt.nwords }

// Errors returns the number of TDC error words of the current event.
func (dec *Decoder) Errors() int { return dec.evt.nerrs }

// Dropped returns the number of measurements dropped because of an
// out-of-range channel.
func (dec *Decoder) Dropped() int { return dec.dropped }
