// Copyright 2022 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fadc

import (
	"fmt"

	"github.com/go-lpc/digi/hit"
)

// Mode describes the combination of record kinds produced by a module.
// Values follow the firmware mode numbers.
type Mode uint8

const (
	ModeUnknown              Mode = 0
	ModeRawWindow            Mode = 1  // window raw samples
	ModePulseRaw             Mode = 2  // pulse raw samples
	ModeIntegralTime         Mode = 3  // pulse integral + pulse time
	ModeTimePedestal         Mode = 4  // pulse time + pulse pedestal
	ModeIntegralTimePedestal Mode = 7  // pulse integral + pulse time + pulse pedestal
	ModeRawTime              Mode = 8  // window raw samples + pulse time
	ModePulseParam           Mode = 9  // pulse parameters
	ModeRawPulseParam        Mode = 10 // window raw samples + pulse parameters
)

func (m Mode) String() string {
	switch m {
	case ModeUnknown:
		return "mode-unknown"
	case ModeRawWindow:
		return "mode-1 (raw-window)"
	case ModePulseRaw:
		return "mode-2 (pulse-raw)"
	case ModeIntegralTime:
		return "mode-3 (integral+time)"
	case ModeTimePedestal:
		return "mode-4 (time+pedestal)"
	case ModeIntegralTimePedestal:
		return "mode-7 (integral+time+pedestal)"
	case ModeRawTime:
		return "mode-8 (raw-window+time)"
	case ModePulseParam:
		return "mode-9 (pulse-param)"
	case ModeRawPulseParam:
		return "mode-10 (raw-window+pulse-param)"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

func bit(k Kind) uint16 { return 1 << k }

var (
	dataKinds = bit(WindowRaw) | bit(PulseRaw) | bit(PulseIntegral) |
		bit(PulseTime) | bit(PulseParam) | bit(PulsePedestal)

	// record kinds only emitted by legacy firmwares.
	legacyKinds = bit(PulseRaw) | bit(PulseIntegral) | bit(PulseTime) | bit(PulsePedestal)

	modes = map[uint16]Mode{
		bit(WindowRaw):                                           ModeRawWindow,
		bit(PulseRaw):                                            ModePulseRaw,
		bit(PulseIntegral) | bit(PulseTime):                      ModeIntegralTime,
		bit(PulseTime) | bit(PulsePedestal):                      ModeTimePedestal,
		bit(PulseIntegral) | bit(PulseTime) | bit(PulsePedestal): ModeIntegralTimePedestal,
		bit(WindowRaw) | bit(PulseTime):                          ModeRawTime,
		bit(PulseParam):                                          ModePulseParam,
		bit(WindowRaw) | bit(PulseParam):                         ModeRawPulseParam,
	}

	// hit collections that describe one pulse, per mode.
	// they must have the same length.
	pulseKinds = map[Mode][]hit.Kind{
		ModeIntegralTime: {
			hit.Integral, hit.Time, hit.CoarseTime, hit.FineTime,
		},
		ModeTimePedestal: {
			hit.Time, hit.CoarseTime, hit.FineTime, hit.Pedestal, hit.Peak,
		},
		ModeIntegralTimePedestal: {
			hit.Integral, hit.Time, hit.CoarseTime, hit.FineTime, hit.Pedestal, hit.Peak,
		},
		ModeRawTime: {
			hit.Time, hit.CoarseTime, hit.FineTime,
		},
		ModePulseParam: {
			hit.Integral, hit.Overflow, hit.Underflow,
			hit.Time, hit.CoarseTime, hit.FineTime, hit.Peak,
		},
		ModeRawPulseParam: {
			hit.Integral, hit.Overflow, hit.Underflow,
			hit.Time, hit.CoarseTime, hit.FineTime, hit.Peak,
		},
	}
)

// ModeFrom returns the mode corresponding to the provided set of observed
// record kinds, for the provided firmware generation.
// Framing and no-op kinds are ignored.
func ModeFrom(fw Firmware, kinds ...Kind) Mode {
	var obs uint16
	for _, k := range kinds {
		if k < numKinds {
			obs |= bit(k)
		}
	}
	return modeFrom(obs, fw)
}

func modeFrom(obs uint16, fw Firmware) Mode {
	obs &= dataKinds
	m, ok := modes[obs]
	if !ok {
		return ModeUnknown
	}

	switch fw {
	case FirmwareLegacy:
		if obs&bit(PulseParam) != 0 {
			return ModeUnknown
		}
	default:
		if obs&legacyKinds != 0 {
			return ModeUnknown
		}
	}
	return m
}

// Mode returns the mode inferred from the record kinds decoded since
// the last Clear.
func (dec *Decoder) Mode() Mode {
	return modeFrom(dec.obs, dec.cfg.Firmware)
}

// NumHits returns the number of pulses decoded for channel ch,
// according to the inferred mode.
func (dec *Decoder) NumHits(ch int) (int, error) {
	if dec.obs&dataKinds == 0 {
		_, err := dec.store.Len(hit.Sample, ch)
		return 0, err
	}
	return dec.NumHitsForMode(dec.Mode(), ch)
}

// NumHitsForMode returns the number of pulses decoded for channel ch,
// according to mode m.
// NumHitsForMode returns ErrInconsistent if the collections describing
// a pulse for that mode do not have the same length.
func (dec *Decoder) NumHitsForMode(m Mode, ch int) (int, error) {
	_, err := dec.store.Len(hit.Sample, ch)
	if err != nil {
		return 0, err
	}

	switch m {
	case ModeRawWindow:
		if len(dec.store.Values(hit.Sample, ch)) > 0 {
			return 1, nil
		}
		return 0, nil
	case ModePulseRaw:
		return dec.npraw[ch], nil
	}

	kinds, ok := pulseKinds[m]
	if !ok {
		return 0, fmt.Errorf("fadc: slot=%d channel=%d %v: %w", dec.cfg.Slot, ch, m, ErrUnknownMode)
	}

	n := len(dec.store.Values(kinds[0], ch))
	for _, k := range kinds[1:] {
		if v := len(dec.store.Values(k, ch)); v != n {
			return 0, fmt.Errorf(
				"fadc: slot=%d channel=%d %v: %v has %d entries, %v has %d: %w",
				dec.cfg.Slot, ch, m, kinds[0], n, k, v, ErrInconsistent,
			)
		}
	}
	return n, nil
}

// Check cross-checks the inferred mode against the expected one, and
// the consistency of the hit collections of all channels.
func (dec *Decoder) Check() error {
	if dec.obs&dataKinds == 0 {
		return nil
	}

	m := dec.Mode()
	if m == ModeUnknown {
		return fmt.Errorf("fadc: slot=%d firmware=%v: %w", dec.cfg.Slot, dec.cfg.Firmware, ErrUnknownMode)
	}

	if want := dec.cfg.Mode; want != ModeUnknown && m != want {
		return fmt.Errorf("fadc: slot=%d got=%v, want=%v: %w", dec.cfg.Slot, m, want, ErrModeMismatch)
	}

	for ch := 0; ch < dec.store.NumChannels(); ch++ {
		_, err := dec.NumHitsForMode(m, ch)
		if err != nil {
			return err
		}
	}
	return nil
}
