// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package digi holds code to decode the readout of waveform and time digitizers.
//
// Raw crate buffers are flat sequences of 32-bit words (package word).
// They are cut into per-slot event buffers (package block) and decoded by
// the flash ADC (package fadc) and multi-hit TDC (package tdc) decoders
// into per-channel hit collections (package hit).
// Package crate drives the decoders of all the slots of a crate.
package digi // import "github.com/go-lpc/digi"

import (
	"fmt"
	"runtime/debug"
)

// Version returns the version of the digi module and its checksum, as
// printed by digi-dump -version.
// The returned values are only valid in binaries built with module support.
func Version() (version, sum string) {
	b, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	return versionOf(b)
}

func versionOf(b *debug.BuildInfo) (version, sum string) {
	if b == nil {
		return "", ""
	}

	const root = "github.com/go-lpc/digi"
	for _, m := range b.Deps {
		if m.Path != root {
			continue
		}
		if m.Replace != nil {
			switch {
			case m.Replace.Version != "" && m.Replace.Path != "":
				return fmt.Sprintf("%s %s", m.Replace.Path, m.Replace.Version), m.Replace.Sum
			case m.Replace.Version != "":
				return m.Replace.Version, m.Replace.Sum
			case m.Replace.Path != "":
				return m.Replace.Path, m.Replace.Sum
			default:
				return m.Version + "*", ""
			}
		}
		return m.Version, m.Sum
	}
	return "", ""
}
