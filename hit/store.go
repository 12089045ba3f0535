// Copyright 2022 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hit

import "fmt"

// Store holds, for one module and one decode pass, the ordered collections
// of decoded values for each (channel, kind) pair.
//
// Values are appended in word-arrival order. A value flagged invalid by
// the firmware is still appended (as 0) so that the collections describing
// one pulse stay aligned.
type Store struct {
	slot  int
	nchan int

	vals [numKinds][][]int32
	bad  [numKinds][][]bool
}

// NewStore creates a new store for the module at the provided slot,
// with nchans channels.
func NewStore(slot, nchans int) *Store {
	if nchans < 0 {
		nchans = 0
	}
	s := &Store{slot: slot, nchan: nchans}
	for k := range s.vals {
		s.vals[k] = make([][]int32, nchans)
		s.bad[k] = make([][]bool, nchans)
	}
	return s
}

// Slot returns the slot of the module whose data is held by the store.
func (s *Store) Slot() int { return s.slot }

// NumChannels returns the number of channels handled by the store.
func (s *Store) NumChannels() int { return s.nchan }

// Append appends v to the (kind, channel) collection.
// Append returns false if the channel or kind is out of range.
func (s *Store) Append(k Kind, ch int, v int32, invalid bool) bool {
	if !k.valid() || ch < 0 || ch >= s.nchan {
		return false
	}
	s.vals[k][ch] = append(s.vals[k][ch], v)
	s.bad[k][ch] = append(s.bad[k][ch], invalid)
	return true
}

// Len returns the number of values decoded for the (kind, channel) pair.
func (s *Store) Len(k Kind, ch int) (int, error) {
	if !k.valid() || ch < 0 || ch >= s.nchan {
		return 0, fmt.Errorf("hit: slot=%d kind=%v channel=%d: %w", s.slot, k, ch, ErrNotFound)
	}
	return len(s.vals[k][ch]), nil
}

// At returns the i-th value decoded for the (kind, channel) pair.
func (s *Store) At(k Kind, ch, i int) (int32, error) {
	n, err := s.Len(k, ch)
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("hit: slot=%d kind=%v channel=%d index=%d: %w", s.slot, k, ch, i, ErrNotFound)
	}
	return s.vals[k][ch][i], nil
}

// Invalid returns whether the i-th value decoded for the (kind, channel)
// pair was flagged as invalid.
func (s *Store) Invalid(k Kind, ch, i int) (bool, error) {
	n, err := s.Len(k, ch)
	if err != nil {
		return false, err
	}
	if i < 0 || i >= n {
		return false, fmt.Errorf("hit: slot=%d kind=%v channel=%d index=%d: %w", s.slot, k, ch, i, ErrNotFound)
	}
	return s.bad[k][ch][i], nil
}

// Values returns the values decoded for the (kind, channel) pair.
// The returned slice must not be modified and is only valid until
// the next call to Clear.
func (s *Store) Values(k Kind, ch int) []int32 {
	if !k.valid() || ch < 0 || ch >= s.nchan {
		return nil
	}
	return s.vals[k][ch]
}

// Empty returns whether no value has been decoded.
func (s *Store) Empty() bool {
	for k := range s.vals {
		for _, vs := range s.vals[k] {
			if len(vs) != 0 {
				return false
			}
		}
	}
	return true
}

// Clear discards all decoded values, keeping the allocated memory.
// Clear can be called any number of times, at any point.
func (s *Store) Clear() {
	for k := range s.vals {
		for ch := range s.vals[k] {
			s.vals[k][ch] = s.vals[k][ch][:0]
			s.bad[k][ch] = s.bad[k][ch][:0]
		}
	}
}

// LoadInto pushes every decoded value into the provided sink,
// channel by channel, kind by kind, in decoding order.
func (s *Store) LoadInto(sink Sink) error {
	for ch := 0; ch < s.nchan; ch++ {
		for k := range s.vals {
			for i, v := range s.vals[k][ch] {
				err := sink.AddHit(Hit{
					Slot:    s.slot,
					Channel: ch,
					Kind:    Kind(k),
					Index:   i,
					Value:   v,
					Invalid: s.bad[k][ch][i],
				})
				if err != nil {
					return fmt.Errorf("hit: could not load slot=%d channel=%d %v[%d]: %w",
						s.slot, ch, Kind(k), i, err,
					)
				}
			}
		}
	}
	return nil
}
