// Copyright 2022 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-daq/tdaq"
	"github.com/go-lpc/digi/crate"
	"github.com/go-lpc/digi/hit"
)

// minimal encoded sizes, used to bound counts read from untrusted bodies.
const (
	maxSlots = 32
	slotSize = 4     // slot
	evtSize  = 4 + 4 // index, number of hits
	hitSize  = 1 + 2 + 1 + 4 + 4 + 1
)

func encodeSlots(w io.Writer, slots []crate.Slot) error {
	enc := tdaq.NewEncoder(w)
	enc.WriteU32(uint32(len(slots)))
	for _, slot := range slots {
		enc.WriteU32(uint32(slot.Slot))
		enc.WriteStr(slot.Model)
	}
	return enc.Err()
}

func decodeSlots(p []byte) ([]crate.Slot, error) {
	dec := tdaq.NewDecoder(bytes.NewReader(p))
	n := int(dec.ReadU32())
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("could not decode number of slots: %w", err)
	}
	if n > maxSlots || n*slotSize > len(p) {
		return nil, fmt.Errorf("invalid number of slots (n=%d, len=%d)", n, len(p))
	}

	slots := make([]crate.Slot, n)
	for i := range slots {
		slots[i].Slot = int(dec.ReadU32())
		slots[i].Model = dec.ReadStr()
	}
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("could not decode slots: %w", err)
	}
	return slots, nil
}

// encodeEvents encodes the decoded events of a crate buffer.
// Each event holds its index, its number of hits and the hits.
func encodeEvents(w io.Writer, evts []crate.Event) error {
	enc := tdaq.NewEncoder(w)
	enc.WriteU32(uint32(len(evts)))
	for _, evt := range evts {
		enc.WriteU32(uint32(evt.Index))
		enc.WriteU32(uint32(len(evt.Hits)))
		for _, h := range evt.Hits {
			enc.WriteU8(uint8(h.Slot))
			enc.WriteU16(uint16(h.Channel))
			enc.WriteU8(uint8(h.Kind))
			enc.WriteU32(uint32(h.Index))
			enc.WriteI32(h.Value)
			enc.WriteBool(h.Invalid)
		}
	}
	return enc.Err()
}

func decodeEvents(p []byte) ([]crate.Event, error) {
	dec := tdaq.NewDecoder(bytes.NewReader(p))
	n := int(dec.ReadU32())
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("could not decode number of events: %w", err)
	}
	if n*evtSize > len(p) {
		return nil, fmt.Errorf("invalid number of events (n=%d, len=%d)", n, len(p))
	}

	evts := make([]crate.Event, n)
	for i := range evts {
		evt := &evts[i]
		evt.Index = int(dec.ReadU32())
		n := int(dec.ReadU32())
		if err := dec.Err(); err != nil {
			return nil, fmt.Errorf("could not decode event header: %w", err)
		}
		if n == 0 {
			continue
		}
		if n*hitSize > len(p) {
			return nil, fmt.Errorf("invalid number of hits in event %d (n=%d, len=%d)", i, n, len(p))
		}
		evt.Hits = make([]hit.Hit, n)
		for j := range evt.Hits {
			h := &evt.Hits[j]
			h.Slot = int(dec.ReadU8())
			h.Channel = int(dec.ReadU16())
			h.Kind = hit.Kind(dec.ReadU8())
			h.Index = int(dec.ReadU32())
			h.Value = dec.ReadI32()
			h.Invalid = dec.ReadBool()
		}
	}
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("could not decode events: %w", err)
	}
	return evts, nil
}
