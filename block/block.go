// Copyright 2022 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package block splits the raw readout of a crate slot into events.
//
// Digitizers may pack 1..N events in a block, bracketed by a block header
// (declaring the number of events) and a block trailer.
// Within a block, each event starts with an event header, unless the
// framing of the module family implements SingleEventFraming.
// Splitting only relies on fixed-position bit fields: the number of words
// declared in the block trailer is not trusted.
package block // import "github.com/go-lpc/digi/block"

import (
	"io"

	"github.com/go-daq/tdaq/log"
	"github.com/go-lpc/digi/word"
)

// Landmark describes the framing role of a word.
type Landmark uint8

const (
	Other Landmark = iota
	BlockHeader
	BlockTrailer
	EventHeader
)

func (lm Landmark) String() string {
	switch lm {
	case Other:
		return "other"
	case BlockHeader:
		return "block-header"
	case BlockTrailer:
		return "block-trailer"
	case EventHeader:
		return "event-header"
	}
	return "invalid"
}

// Framing classifies words of a module family.
type Framing interface {
	// Landmark returns the framing role of w and, for framing
	// words, the slot encoded in w.
	Landmark(w word.Word) (Landmark, int)

	// NumEvents returns the number of events declared by a block header.
	NumEvents(hdr word.Word) int
}

// SingleEventFraming is implemented by framings whose blocks hold exactly
// one event and no event header: the block header starts the event.
type SingleEventFraming interface {
	Framing
	SingleEvent()
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithMsgStream sets the stream used to report structural warnings.
func WithMsgStream(msg log.MsgStream) Option {
	return func(sp *Splitter) {
		sp.msg = msg
	}
}

// WithoutHeader disables the seeding of each event with the block header.
func WithoutHeader() Option {
	return func(sp *Splitter) {
		sp.hdr = false
	}
}

// Splitter splits the words of one slot into event buffers, and exposes
// them through a forward-only cursor.
type Splitter struct {
	slot  int
	frame Framing
	msg   log.MsgStream
	hdr   bool // seed each event with the cached block header
	one   bool // blocks hold a single event, without event header

	multi bool // at least one block declared more than one event
	found bool // last Split saw a block header for the slot

	evts [][]word.Word
	cur  int
}

// New creates a new splitter for the module at the provided slot.
// A nil framing considers the whole input as a single event.
func New(slot int, frame Framing, opts ...Option) *Splitter {
	sp := &Splitter{
		slot:  slot,
		frame: frame,
		msg:   log.NewMsgStream("block", log.LvlWarning, io.Discard),
		hdr:   true,
	}
	for _, opt := range opts {
		opt(sp)
	}
	_, sp.one = frame.(SingleEventFraming)
	return sp
}

// Slot returns the slot the splitter selects.
func (sp *Splitter) Slot() int { return sp.slot }

// MultiBlock returns whether a block with more than one event has been
// seen during the lifetime of the splitter.
func (sp *Splitter) MultiBlock() bool { return sp.multi }

// Found returns whether the last Split saw a block header for the slot.
func (sp *Splitter) Found() bool { return sp.found }

// Split scans words once and builds the list of event buffers for the slot.
// Split resets the cursor.
//
// If no block header for the slot is found, the whole input is considered
// as one event buffer.
// Event buffers share no memory with the input, except in that case.
func (sp *Splitter) Split(words []word.Word) {
	sp.evts = sp.evts[:0]
	sp.cur = 0

	var (
		hdr   word.Word // cached block header
		seen  bool      // a block header for this slot was seen
		block bool      // a block for this slot is open
		open  bool      // data words are accepted
		want  int       // declared number of events in block
		nevts int       // number of events split in block
		acc   []word.Word
	)

	flush := func() {
		if acc != nil {
			sp.evts = append(sp.evts, acc)
			acc = nil
		}
	}

	check := func() {
		if nevts != want {
			sp.msg.Warnf(
				"slot=%d: block header declared %d events, found %d",
				sp.slot, want, nevts,
			)
		}
	}

	for _, w := range words {
		lm, slot := sp.landmark(w)
		if lm != Other && slot != sp.slot {
			if block && lm != EventHeader {
				sp.msg.Warnf(
					"slot=%d: %v from slot=%d inside block (word=%v)",
					sp.slot, lm, slot, w,
				)
			}
			open = false
			continue
		}

		switch lm {
		case BlockHeader:
			if block {
				sp.msg.Warnf("slot=%d: missing block trailer", sp.slot)
				flush()
				check()
			}
			hdr = w
			seen = true
			block = true
			open = true
			want = sp.frame.NumEvents(w)
			nevts = 0
			if want > 1 {
				sp.multi = true
			}
			if sp.one {
				acc = append(make([]word.Word, 0, 16), w)
				nevts = 1
			}

		case EventHeader:
			if !block {
				continue
			}
			flush()
			acc = make([]word.Word, 0, 16)
			if sp.hdr {
				acc = append(acc, hdr)
			}
			acc = append(acc, w)
			open = true
			nevts++

		case BlockTrailer:
			if !block {
				continue
			}
			if acc == nil {
				sp.msg.Warnf("slot=%d: block trailer without event header", sp.slot)
			} else {
				acc = append(acc, w)
			}
			flush()
			check()
			block = false
			open = false

		default:
			if open && acc != nil {
				acc = append(acc, w)
			}
		}
	}

	if block {
		sp.msg.Warnf("slot=%d: missing block trailer", sp.slot)
		flush()
		check()
	}

	sp.found = seen
	if !seen {
		sp.evts = append(sp.evts, words)
	}
}

func (sp *Splitter) landmark(w word.Word) (Landmark, int) {
	if sp.frame == nil {
		return Other, sp.slot
	}
	return sp.frame.Landmark(w)
}

// Len returns the number of event buffers found by the last Split.
func (sp *Splitter) Len() int { return len(sp.evts) }

// Done returns whether all event buffers have been consumed.
func (sp *Splitter) Done() bool { return sp.cur >= len(sp.evts) }

// Next returns the next event buffer, or nil when all event buffers
// have been consumed.
func (sp *Splitter) Next() []word.Word {
	if sp.Done() {
		return nil
	}
	evt := sp.evts[sp.cur]
	sp.cur++
	return evt
}

// Restart rewinds the cursor to the first event buffer.
func (sp *Splitter) Restart() { sp.cur = 0 }
