// Copyright 2022 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hit holds the per-channel collections of quantities decoded
// from digitizers, and the interface to push them to a reconstruction layer.
package hit // import "github.com/go-lpc/digi/hit"

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when querying a channel, kind or index
	// that has not been decoded.
	ErrNotFound = errors.New("hit: not found")
)

// Kind describes a decoded quantity.
type Kind uint8

const (
	Integral        Kind = iota // integrated charge
	Time                        // arrival time
	CoarseTime                  // coarse part of the arrival time
	FineTime                    // fine part of the arrival time
	Peak                        // peak amplitude
	Pedestal                    // pedestal (or pedestal sum)
	PedestalQuality             // pedestal quality flag
	Sample                      // raw sample
	Overflow                    // overflow flag
	Underflow                   // underflow flag
	Edge                        // TDC edge (0: leading, 1: trailing)

	numKinds
)

// Kinds returns all the known quantity kinds.
func Kinds() []Kind {
	ks := make([]Kind, numKinds)
	for i := range ks {
		ks[i] = Kind(i)
	}
	return ks
}

func (k Kind) String() string {
	switch k {
	case Integral:
		return "integral"
	case Time:
		return "time"
	case CoarseTime:
		return "coarse-time"
	case FineTime:
		return "fine-time"
	case Peak:
		return "peak"
	case Pedestal:
		return "pedestal"
	case PedestalQuality:
		return "ped-quality"
	case Sample:
		return "sample"
	case Overflow:
		return "overflow"
	case Underflow:
		return "underflow"
	case Edge:
		return "edge"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

func (k Kind) valid() bool { return k < numKinds }

// Hit is one decoded value.
type Hit struct {
	Slot    int
	Channel int
	Kind    Kind
	Index   int // position of the value in its (channel, kind) collection
	Value   int32
	Invalid bool // value was flagged as invalid by the firmware
}

func (h Hit) String() string {
	s := fmt.Sprintf("slot=%02d ch=%03d %-11s [%d] = %d", h.Slot, h.Channel, h.Kind, h.Index, h.Value)
	if h.Invalid {
		s += " (invalid)"
	}
	return s
}

// Sink consumes decoded hits.
type Sink interface {
	AddHit(h Hit) error
}

// Collector is an in-memory hit sink.
type Collector struct {
	Hits []Hit
}

// AddHit implements the Sink interface.
func (c *Collector) AddHit(h Hit) error {
	c.Hits = append(c.Hits, h)
	return nil
}

// Reset drops all the collected hits, keeping the allocated memory.
func (c *Collector) Reset() {
	c.Hits = c.Hits[:0]
}

var (
	_ Sink = (*Collector)(nil)
)
