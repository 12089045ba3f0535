// Copyright 2022 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fadc

import (
	"testing"
)

func TestModeFrom(t *testing.T) {
	for _, tc := range []struct {
		fw    Firmware
		kinds []Kind
		want  Mode
	}{
		{FirmwareLegacy, nil, ModeUnknown},
		{FirmwareLegacy, []Kind{BlockHeader, EventHeader, Filler}, ModeUnknown},
		{FirmwareLegacy, []Kind{WindowRaw}, ModeRawWindow},
		{FirmwareSum, []Kind{WindowRaw}, ModeRawWindow},
		{FirmwareMean, []Kind{WindowRaw, TriggerTime, BlockTrailer}, ModeRawWindow},
		{FirmwareLegacy, []Kind{PulseRaw}, ModePulseRaw},
		{FirmwareLegacy, []Kind{PulseIntegral, PulseTime}, ModeIntegralTime},
		{FirmwareLegacy, []Kind{PulseTime, PulsePedestal}, ModeTimePedestal},
		{FirmwareLegacy, []Kind{PulseIntegral, PulseTime, PulsePedestal}, ModeIntegralTimePedestal},
		{FirmwareLegacy, []Kind{WindowRaw, PulseTime}, ModeRawTime},
		{FirmwareLegacy, []Kind{PulseIntegral}, ModeUnknown},
		{FirmwareLegacy, []Kind{PulseIntegral, PulsePedestal}, ModeUnknown},
		{FirmwareLegacy, []Kind{WindowRaw, PulseRaw}, ModeUnknown},
		{FirmwareLegacy, []Kind{PulseParam}, ModeUnknown},
		{FirmwareSum, []Kind{PulseParam}, ModePulseParam},
		{FirmwareMean, []Kind{PulseParam, ScalerHeader}, ModePulseParam},
		{FirmwareSum, []Kind{WindowRaw, PulseParam}, ModeRawPulseParam},
		{FirmwareSum, []Kind{PulseIntegral, PulseTime}, ModeUnknown},
		{FirmwareMean, []Kind{WindowRaw, PulseTime}, ModeUnknown},
		{FirmwareSum, []Kind{PulseParam, PulseTime}, ModeUnknown},
		{FirmwareSum, []Kind{Kind(42)}, ModeUnknown},
	} {
		t.Run("", func(t *testing.T) {
			got := ModeFrom(tc.fw, tc.kinds...)
			if got != tc.want {
				t.Fatalf("invalid mode for fw=%v, kinds=%v:\ngot= %v\nwant=%v", tc.fw, tc.kinds, got, tc.want)
			}
		})
	}
}

func TestStrings(t *testing.T) {
	for _, tc := range []struct {
		v    interface{ String() string }
		want string
	}{
		{BlockHeader, "block-header"},
		{PulseParam, "pulse-param"},
		{DataNotValid, "not-valid"},
		{Kind(5), "Kind(5)"},
		{FirmwareLegacy, "legacy"},
		{FirmwareMean, "ped-mean"},
		{Firmware(9), "Firmware(9)"},
		{ModeUnknown, "mode-unknown"},
		{ModeRawPulseParam, "mode-10 (raw-window+pulse-param)"},
		{Mode(5), "Mode(5)"},
	} {
		t.Run(tc.want, func(t *testing.T) {
			if got, want := tc.v.String(), tc.want; got != want {
				t.Fatalf("invalid string: got=%q, want=%q", got, want)
			}
		})
	}
}

func TestFraming(t *testing.T) {
	var (
		frame = Framing{}
		w     = encode(t, 7, func(enc *Encoder) {
			enc.BlockHeader(0, 1, 12)
			enc.BlockTrailer()
			enc.EventHeader(3)
			enc.PulseIntegral(1, 0, 0, 1)
			enc.TriggerTime(1 << 30)
		})
	)

	for i, tc := range []struct {
		lm   string
		slot int
	}{
		{"block-header", 7},
		{"block-trailer", 7},
		{"event-header", 7},
		{"other", 0},
		{"other", 0},
		{"other", 0},
	} {
		lm, slot := frame.Landmark(w[i])
		if lm.String() != tc.lm || slot != tc.slot {
			t.Fatalf("word[%d]: invalid landmark: got=(%v, %d), want=(%s, %d)", i, lm, slot, tc.lm, tc.slot)
		}
	}

	if got, want := frame.NumEvents(w[0]), 12; got != want {
		t.Fatalf("invalid number of events: got=%d, want=%d", got, want)
	}
}
