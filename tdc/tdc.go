// Copyright 2022 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tdc decodes the readout of multi-hit time digitizers
// (CAEN V1190/V1290 family).
//
// Each 32-bit word carries its kind in bits 31..27.
// Events are bracketed by a global header and a global trailer, both
// holding the geographical address (slot) of the module.
package tdc // import "github.com/go-lpc/digi/tdc"

import (
	"errors"
	"fmt"

	"github.com/go-lpc/digi/block"
	"github.com/go-lpc/digi/word"
)

// Kind is the kind of a word.
type Kind uint8

const (
	Measurement   Kind = 0x00
	TDCHeader     Kind = 0x01
	TDCTrailer    Kind = 0x03
	TDCError      Kind = 0x04
	GlobalHeader  Kind = 0x08
	GlobalTrailer Kind = 0x10
	ExtTrigger    Kind = 0x11
	Filler        Kind = 0x18
)

func (k Kind) String() string {
	switch k {
	case Measurement:
		return "measurement"
	case TDCHeader:
		return "tdc-header"
	case TDCTrailer:
		return "tdc-trailer"
	case TDCError:
		return "tdc-error"
	case GlobalHeader:
		return "global-header"
	case GlobalTrailer:
		return "global-trailer"
	case ExtTrigger:
		return "ext-trigger"
	case Filler:
		return "filler"
	}
	return fmt.Sprintf("Kind(0x%02x)", uint8(k))
}

func kindOf(w word.Word) Kind { return Kind(w.Field(27, 5)) }

// Model identifies a TDC board.
type Model uint8

const (
	V1190 Model = iota
	V1290
)

func (m Model) String() string {
	switch m {
	case V1190:
		return "V1190"
	case V1290:
		return "V1290"
	}
	return fmt.Sprintf("Model(%d)", uint8(m))
}

// layout describes the measurement word of a model.
type layout struct {
	nchans int  // number of hardware channels
	chOff  uint // offset of the channel field
	chLen  uint // width of the channel field
	valLen uint // width of the value field
}

var layouts = map[Model]layout{
	V1190: {nchans: 128, chOff: 19, chLen: 7, valLen: 19},
	V1290: {nchans: 32, chOff: 21, chLen: 5, valLen: 21},
}

// fold is the number of adjacent hardware channels read out as one
// logical channel, per resolution mode.
var fold = map[bool]int{
	false: 1,
	true:  2,
}

// Channel returns the logical channel of the raw hardware channel,
// in high-resolution mode or not.
func Channel(raw int, hires bool) int {
	return raw / fold[hires]
}

// Trigger is the trigger polarity of the acquisition.
type Trigger uint8

const (
	// CommonStart stores measurements as is.
	CommonStart Trigger = iota
	// CommonStop stores measurements negated, so that later hits
	// have larger times.
	CommonStop
)

func (t Trigger) String() string {
	switch t {
	case CommonStart:
		return "common-start"
	case CommonStop:
		return "common-stop"
	}
	return fmt.Sprintf("Trigger(%d)", uint8(t))
}

// Config holds the per-slot configuration of a TDC.
type Config struct {
	Slot     int
	Model    Model
	Channels int  // number of logical channels (default: from model and resolution)
	HighRes  bool // fold pairs of adjacent hardware channels
	Trigger  Trigger

	// Lenient disables framing errors: framing words from another slot
	// only suspend the decoding until the next framing word of this slot.
	Lenient bool
}

var (
	ErrModel    = errors.New("tdc: unknown model")
	ErrHardware = errors.New("tdc: hardware error")
)

// FramingError describes a global header or trailer whose slot disagrees
// with the slot of the decoder.
type FramingError struct {
	Kind Kind
	Slot int // slot encoded in the word
	Want int // slot of the decoder
	Word word.Word
}

func (e *FramingError) Error() string {
	return fmt.Sprintf(
		"tdc: %v with invalid slot (got=%d, want=%d, word=%v)",
		e.Kind, e.Slot, e.Want, e.Word,
	)
}

// Framing classifies TDC words for the block splitter.
// Each global header/trailer pair holds exactly one event.
type Framing struct{}

// Landmark implements block.Framing.
func (Framing) Landmark(w word.Word) (block.Landmark, int) {
	switch kindOf(w) {
	case GlobalHeader:
		return block.BlockHeader, int(w.Field(0, 5))
	case GlobalTrailer:
		return block.BlockTrailer, int(w.Field(0, 5))
	}
	return block.Other, 0
}

// NumEvents implements block.Framing.
func (Framing) NumEvents(word.Word) int { return 1 }

// SingleEvent implements block.SingleEventFraming.
func (Framing) SingleEvent() {}

var (
	_ block.SingleEventFraming = (*Framing)(nil)
)
