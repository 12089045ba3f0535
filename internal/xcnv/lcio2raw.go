// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xcnv

import (
	"fmt"
	"log"

	"github.com/go-lpc/digi/word"
	"go-hep.org/x/hep/lcio"
)

// LCIO2Raw reads the raw crate buffers stored in the named collection
// of each LCIO event, and hands them to f.
// The words passed to f are only valid for the duration of the call.
func LCIO2Raw(r *lcio.Reader, coll string, freq int, msg *log.Logger, f func(evt int, words []word.Word) error) error {
	var (
		buf []word.Word
		i   = 0
	)

	for r.Next() {
		if freq > 0 && i%freq == 0 {
			msg.Printf("processing evt %d...", i)
		}
		evt := r.Event()
		if !evt.Has(coll) {
			return fmt.Errorf("xcnv: event %d has no collection %q", i, coll)
		}
		obj, ok := evt.Get(coll).(*lcio.GenericObject)
		if !ok || len(obj.Data) == 0 {
			return fmt.Errorf("xcnv: event %d: collection %q is not a raw buffer", i, coll)
		}

		var err error
		buf, err = wordsFrom(buf[:0], obj.Data[0].I32s)
		if err != nil {
			return fmt.Errorf("xcnv: could not decode event %d: %w", i, err)
		}

		err = f(i, buf)
		if err != nil {
			return err
		}
		i++
	}

	err := r.Err()
	if err != nil {
		return fmt.Errorf("xcnv: could not read LCIO events: %w", err)
	}
	return nil
}

func wordsFrom(ws []word.Word, raw []int32) ([]word.Word, error) {
	if len(raw) < hdrLen {
		return nil, fmt.Errorf("%w (len=%d)", errLength, len(raw))
	}
	if raw[0] != magic {
		return nil, fmt.Errorf("%w (magic=0x%x)", errMagic, uint32(raw[0]))
	}
	if n := int(raw[2]); n != len(raw)-hdrLen {
		return nil, fmt.Errorf("%w (header=%d, payload=%d)", errLength, n, len(raw)-hdrLen)
	}
	for _, v := range raw[hdrLen:] {
		ws = append(ws, word.Word(uint32(v)))
	}
	return ws, nil
}
