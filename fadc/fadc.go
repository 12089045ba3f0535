// Copyright 2022 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fadc decodes the readout of flash-ADC waveform digitizers.
//
// Each 32-bit word is either a defining word (bit 31 set, bits 30..27
// holding the record kind) or a continuation word extending the record
// opened by the last defining word.
package fadc // import "github.com/go-lpc/digi/fadc"

import (
	"errors"
	"fmt"

	"github.com/go-lpc/digi/block"
	"github.com/go-lpc/digi/word"
)

// NumChannels is the number of channels of a module.
const NumChannels = 16

// Kind is the kind of a record.
type Kind uint8

const (
	BlockHeader   Kind = 0
	BlockTrailer  Kind = 1
	EventHeader   Kind = 2
	TriggerTime   Kind = 3
	WindowRaw     Kind = 4
	PulseRaw      Kind = 6
	PulseIntegral Kind = 7
	PulseTime     Kind = 8
	PulseParam    Kind = 9
	PulsePedestal Kind = 10
	ScalerHeader  Kind = 12
	Undefined     Kind = 13
	DataNotValid  Kind = 14
	Filler        Kind = 15

	numKinds = 16
)

func (k Kind) String() string {
	switch k {
	case BlockHeader:
		return "block-header"
	case BlockTrailer:
		return "block-trailer"
	case EventHeader:
		return "event-header"
	case TriggerTime:
		return "trigger-time"
	case WindowRaw:
		return "window-raw"
	case PulseRaw:
		return "pulse-raw"
	case PulseIntegral:
		return "pulse-integral"
	case PulseTime:
		return "pulse-time"
	case PulseParam:
		return "pulse-param"
	case PulsePedestal:
		return "pulse-pedestal"
	case ScalerHeader:
		return "scaler-header"
	case Undefined:
		return "undefined"
	case DataNotValid:
		return "not-valid"
	case Filler:
		return "filler"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Firmware selects the firmware generation of a module.
type Firmware uint8

const (
	// FirmwareLegacy emits the pulse integral/time/pedestal/raw records.
	FirmwareLegacy Firmware = iota
	// FirmwareSum emits pulse-parameter records, whose pedestal is
	// the sum over the pedestal samples.
	FirmwareSum
	// FirmwareMean emits pulse-parameter records, whose pedestal is
	// stored as the mean over the pedestal samples.
	FirmwareMean
)

func (fw Firmware) String() string {
	switch fw {
	case FirmwareLegacy:
		return "legacy"
	case FirmwareSum:
		return "ped-sum"
	case FirmwareMean:
		return "ped-mean"
	}
	return fmt.Sprintf("Firmware(%d)", uint8(fw))
}

// Config holds the per-slot calibration of a module.
type Config struct {
	Slot     int
	Channels int      // number of channels (default: NumChannels)
	Firmware Firmware // firmware generation
	NPed     int      // number of pedestal samples (default: 4)
	Mode     Mode     // expected mode. ModeUnknown disables the cross-check.

	// Lenient disables framing errors: framing words from another slot
	// only suspend the decoding until the next framing word of this slot.
	Lenient bool
}

func (cfg *Config) defaults() {
	if cfg.Channels <= 0 {
		cfg.Channels = NumChannels
	}
	if cfg.NPed <= 0 {
		cfg.NPed = 4
	}
}

var (
	ErrUnknownMode  = errors.New("fadc: unknown mode")
	ErrInconsistent = errors.New("fadc: inconsistent hit collections")
	ErrModeMismatch = errors.New("fadc: mode mismatch")
)

// FramingError describes a framing word whose slot disagrees with the
// slot of the decoder.
type FramingError struct {
	Kind Kind
	Slot int // slot encoded in the word
	Want int // slot of the decoder
	Word word.Word
}

func (e *FramingError) Error() string {
	return fmt.Sprintf(
		"fadc: %v with invalid slot (got=%d, want=%d, word=%v)",
		e.Kind, e.Slot, e.Want, e.Word,
	)
}

// Framing classifies fADC words for the block splitter.
type Framing struct{}

// Landmark implements block.Framing.
func (Framing) Landmark(w word.Word) (block.Landmark, int) {
	if !w.IsDefining() {
		return block.Other, 0
	}
	slot := int(w.Field(22, 5))
	switch Kind(w.Tag()) {
	case BlockHeader:
		return block.BlockHeader, slot
	case BlockTrailer:
		return block.BlockTrailer, slot
	case EventHeader:
		return block.EventHeader, slot
	}
	return block.Other, 0
}

// NumEvents implements block.Framing.
func (Framing) NumEvents(hdr word.Word) int {
	return int(hdr.Field(0, 8))
}

var (
	_ block.Framing = (*Framing)(nil)
)
