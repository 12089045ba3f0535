// Copyright 2022 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package block

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/go-daq/tdaq/log"
	"github.com/go-lpc/digi/word"
)

// framing mimics the fADC layout: tag 30..27, slot 26..22, nevents 7..0.
type framing struct{}

func (framing) Landmark(w word.Word) (Landmark, int) {
	if !w.IsDefining() {
		return Other, 0
	}
	slot := int(w.Field(22, 5))
	switch w.Tag() {
	case 0:
		return BlockHeader, slot
	case 1:
		return BlockTrailer, slot
	case 2:
		return EventHeader, slot
	}
	return Other, 0
}

func (framing) NumEvents(w word.Word) int { return int(w.Field(0, 8)) }

func bhdr(slot, n int) word.Word {
	return word.Pack(1, 31, 1) | word.Pack(0, 27, 4) | word.Pack(uint32(slot), 22, 5) | word.Pack(uint32(n), 0, 8)
}

func btrl(slot int) word.Word {
	return word.Pack(1, 31, 1) | word.Pack(1, 27, 4) | word.Pack(uint32(slot), 22, 5)
}

func ehdr(slot, trig int) word.Word {
	return word.Pack(1, 31, 1) | word.Pack(2, 27, 4) | word.Pack(uint32(slot), 22, 5) | word.Pack(uint32(trig), 0, 22)
}

// pint returns a pulse-integral word.
func pint(ch, v int) word.Word {
	return word.Pack(1, 31, 1) | word.Pack(7, 27, 4) | word.Pack(uint32(ch), 23, 4) | word.Pack(uint32(v), 0, 19)
}

func data(v int) word.Word { return word.Word(v) & 0x7fffffff }

func collect(sp *Splitter) [][]word.Word {
	var evts [][]word.Word
	for !sp.Done() {
		evts = append(evts, sp.Next())
	}
	return evts
}

func TestSplitNoBlockHeader(t *testing.T) {
	for _, tc := range []struct {
		name  string
		words []word.Word
	}{
		{"empty", []word.Word{}},
		{"data", []word.Word{data(1), data(2), pint(3, 4)}},
		{"event-headers", []word.Word{ehdr(3, 1), pint(1, 2), ehdr(3, 2), pint(1, 3), btrl(3)}},
		{"other-slot", []word.Word{bhdr(4, 1), ehdr(4, 1), pint(1, 2), btrl(4)}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			sp := New(3, framing{})
			sp.Split(tc.words)

			if got, want := sp.Len(), 1; got != want {
				t.Fatalf("invalid number of events: got=%d, want=%d", got, want)
			}
			if got, want := sp.Next(), tc.words; !reflect.DeepEqual(got, want) {
				t.Fatalf("invalid event:\ngot= %v\nwant=%v", got, want)
			}
			if !sp.Done() {
				t.Fatalf("splitter should be done")
			}
			if sp.MultiBlock() {
				t.Fatalf("splitter should not be in multi-block mode")
			}
			if sp.Found() {
				t.Fatalf("splitter should not have found a block header")
			}
		})
	}
}

func TestSplitBlock(t *testing.T) {
	const slot = 5
	hdr := bhdr(slot, 3)
	words := []word.Word{
		hdr,
		ehdr(slot, 1), pint(0, 10), pint(1, 11),
		ehdr(slot, 2), pint(0, 20),
		ehdr(slot, 3), pint(2, 30), data(31),
		btrl(slot),
	}

	sp := New(slot, framing{})
	sp.Split(words)

	want := [][]word.Word{
		{hdr, ehdr(slot, 1), pint(0, 10), pint(1, 11)},
		{hdr, ehdr(slot, 2), pint(0, 20)},
		{hdr, ehdr(slot, 3), pint(2, 30), data(31), btrl(slot)},
	}

	if got, want := sp.Len(), len(want); got != want {
		t.Fatalf("invalid number of events: got=%d, want=%d", got, want)
	}
	if got := collect(sp); !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid events:\ngot= %v\nwant=%v", got, want)
	}
	if !sp.MultiBlock() {
		t.Fatalf("splitter should be in multi-block mode")
	}
	if !sp.Found() {
		t.Fatalf("splitter should have found a block header")
	}

	// multi-block mode is sticky.
	sp.Split([]word.Word{bhdr(slot, 1), ehdr(slot, 4), pint(0, 1), btrl(slot)})
	if got, want := sp.Len(), 1; got != want {
		t.Fatalf("invalid number of events: got=%d, want=%d", got, want)
	}
	if !sp.MultiBlock() {
		t.Fatalf("multi-block mode should be sticky")
	}

	// block-header state is not sticky.
	sp.Split([]word.Word{bhdr(slot+1, 1), ehdr(slot+1, 1), btrl(slot + 1)})
	if sp.Found() {
		t.Fatalf("splitter should not have found a block header")
	}
}

func TestSplitInterleaved(t *testing.T) {
	const (
		slot  = 7
		other = 9
	)
	hdr := bhdr(slot, 3)
	words := []word.Word{
		bhdr(other, 1), ehdr(other, 1), pint(0, 900), btrl(other),
		hdr,
		ehdr(slot, 1), pint(0, 10),
		ehdr(other, 2), pint(0, 901), data(902),
		ehdr(slot, 2), pint(1, 20),
		ehdr(other, 3), pint(1, 903),
		ehdr(slot, 3), pint(2, 30),
		btrl(slot),
		data(904),
		bhdr(other, 1), ehdr(other, 4), pint(3, 905), btrl(other),
	}

	sp := New(slot, framing{})
	sp.Split(words)

	want := [][]word.Word{
		{hdr, ehdr(slot, 1), pint(0, 10)},
		{hdr, ehdr(slot, 2), pint(1, 20)},
		{hdr, ehdr(slot, 3), pint(2, 30), btrl(slot)},
	}
	if got := collect(sp); !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid events:\ngot= %v\nwant=%v", got, want)
	}
}

func TestSplitWithoutHeader(t *testing.T) {
	const slot = 2
	sp := New(slot, framing{}, WithoutHeader())
	sp.Split([]word.Word{
		bhdr(slot, 2),
		ehdr(slot, 1), pint(0, 1),
		ehdr(slot, 2), pint(0, 2),
		btrl(slot),
	})

	want := [][]word.Word{
		{ehdr(slot, 1), pint(0, 1)},
		{ehdr(slot, 2), pint(0, 2), btrl(slot)},
	}
	if got := collect(sp); !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid events:\ngot= %v\nwant=%v", got, want)
	}
}

func TestSplitWarnings(t *testing.T) {
	const slot = 3
	for _, tc := range []struct {
		name  string
		words []word.Word
		n     int
		warn  string
	}{
		{
			name: "count-mismatch",
			words: []word.Word{
				bhdr(slot, 3),
				ehdr(slot, 1), pint(0, 1),
				ehdr(slot, 2), pint(0, 2),
				btrl(slot),
			},
			n:    2,
			warn: "slot=3: block header declared 3 events, found 2",
		},
		{
			name: "foreign-trailer",
			words: []word.Word{
				bhdr(slot, 1),
				ehdr(slot, 1), pint(0, 1),
				btrl(slot + 1),
				btrl(slot),
			},
			n:    1,
			warn: "slot=3: block-trailer from slot=4 inside block",
		},
		{
			name: "missing-trailer",
			words: []word.Word{
				bhdr(slot, 1),
				ehdr(slot, 1), pint(0, 1),
			},
			n:    1,
			warn: "slot=3: missing block trailer",
		},
		{
			name: "missing-trailer-new-block",
			words: []word.Word{
				bhdr(slot, 1),
				ehdr(slot, 1), pint(0, 1),
				bhdr(slot, 1),
				ehdr(slot, 2), pint(0, 2),
				btrl(slot),
			},
			n:    2,
			warn: "slot=3: missing block trailer",
		},
		{
			name: "trailer-without-event",
			words: []word.Word{
				bhdr(slot, 0),
				btrl(slot),
			},
			n:    0,
			warn: "slot=3: block trailer without event header",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			out := new(bytes.Buffer)
			sp := New(slot, framing{}, WithMsgStream(log.NewMsgStream("block", log.LvlWarning, out)))
			sp.Split(tc.words)

			if got, want := sp.Len(), tc.n; got != want {
				t.Fatalf("invalid number of events: got=%d, want=%d", got, want)
			}
			if got, want := out.String(), tc.warn; !strings.Contains(got, want) {
				t.Fatalf("missing warning:\ngot= %q\nwant=%q", got, want)
			}
		})
	}
}

func TestCursor(t *testing.T) {
	const slot = 1
	sp := New(slot, framing{})
	if !sp.Done() {
		t.Fatalf("empty splitter should be done")
	}
	if evt := sp.Next(); evt != nil {
		t.Fatalf("invalid event from empty splitter: %v", evt)
	}

	sp.Split([]word.Word{
		bhdr(slot, 2),
		ehdr(slot, 1), ehdr(slot, 2),
		btrl(slot),
	})

	first := sp.Next()
	second := sp.Next()
	if !sp.Done() {
		t.Fatalf("splitter should be done")
	}

	sp.Restart()
	if sp.Done() {
		t.Fatalf("splitter should not be done after restart")
	}
	if got, want := sp.Next(), first; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid event after restart:\ngot= %v\nwant=%v", got, want)
	}
	if got, want := sp.Next(), second; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid event after restart:\ngot= %v\nwant=%v", got, want)
	}
	if got, want := sp.Slot(), slot; got != want {
		t.Fatalf("invalid slot: got=%d, want=%d", got, want)
	}
}

func TestNilFraming(t *testing.T) {
	words := []word.Word{bhdr(1, 2), ehdr(1, 1), btrl(1)}
	sp := New(1, nil)
	sp.Split(words)
	if got := collect(sp); !reflect.DeepEqual(got, [][]word.Word{words}) {
		t.Fatalf("invalid events: %v", got)
	}
}

func TestLandmarkString(t *testing.T) {
	for _, tc := range []struct {
		lm   Landmark
		want string
	}{
		{Other, "other"},
		{BlockHeader, "block-header"},
		{BlockTrailer, "block-trailer"},
		{EventHeader, "event-header"},
		{Landmark(42), "invalid"},
	} {
		if got, want := tc.lm.String(), tc.want; got != want {
			t.Fatalf("invalid string: got=%q, want=%q", got, want)
		}
	}
}

// single mimics a TDC layout: one event per block, no event header.
type single struct{ framing }

func (single) SingleEvent() {}

func TestSplitSingleEvent(t *testing.T) {
	words := []word.Word{
		bhdr(3, 1), pint(1, 10), data(1), btrl(3),
		bhdr(4, 1), pint(2, 20), btrl(4),
		bhdr(3, 1), pint(1, 11), btrl(3),
		data(2),
	}

	sp := New(3, single{})
	sp.Split(words)

	want := [][]word.Word{
		{bhdr(3, 1), pint(1, 10), data(1), btrl(3)},
		{bhdr(3, 1), pint(1, 11), btrl(3)},
	}
	if got := collect(sp); !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid events:\ngot= %v\nwant=%v", got, want)
	}
	if sp.MultiBlock() {
		t.Fatalf("single-event blocks should not switch to multi-block mode")
	}
}
