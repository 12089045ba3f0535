// Copyright 2022 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package crate

import (
	"github.com/go-lpc/digi/fadc"
	"github.com/go-lpc/digi/tdc"
)

// FADC returns a constructor of fADC modules configured with cfg.
// The slot of cfg is overridden by the slot of the module.
func FADC(cfg fadc.Config) func(slot int) (Module, error) {
	return func(slot int) (Module, error) {
		cfg := cfg
		cfg.Slot = slot
		return fadc.NewDecoder(cfg), nil
	}
}

// TDC returns a constructor of TDC modules configured with cfg.
// The slot of cfg is overridden by the slot of the module.
func TDC(cfg tdc.Config) func(slot int) (Module, error) {
	return func(slot int) (Module, error) {
		cfg := cfg
		cfg.Slot = slot
		dec, err := tdc.NewDecoder(cfg)
		if err != nil {
			return nil, err
		}
		return dec, nil
	}
}

// DefaultModels returns a registry of the supported models, with their
// default configuration.
func DefaultModels() Models {
	return Models{
		"fadc250":      FADC(fadc.Config{Firmware: fadc.FirmwareLegacy}),
		"fadc250-sum":  FADC(fadc.Config{Firmware: fadc.FirmwareSum}),
		"fadc250-mean": FADC(fadc.Config{Firmware: fadc.FirmwareMean}),
		"v1190":        TDC(tdc.Config{Model: tdc.V1190}),
		"v1190-hires":  TDC(tdc.Config{Model: tdc.V1190, HighRes: true}),
		"v1290":        TDC(tdc.Config{Model: tdc.V1290}),
	}
}
