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

// Raw2LCIO writes each raw crate buffer of bufs as one LCIO event.
func Raw2LCIO(w *lcio.Writer, bufs [][]word.Word, run, crate int32, msg *log.Logger) error {
	raw := &lcio.GenericObject{
		Data: []lcio.GenericObjectData{
			{I32s: nil},
		},
	}

	err := w.WriteRunHeader(&lcio.RunHeader{
		RunNumber: run,
		Detector:  "digi",
		Params: lcio.Params{
			Ints: map[string][]int32{
				"Crate": {crate},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("xcnv: could not write run header: %w", err)
	}

	for i, buf := range bufs {
		if i%100 == 0 {
			msg.Printf("processing evt %d...", i)
		}

		evt := lcio.Event{
			RunNumber:   run,
			EventNumber: int32(i),
			Detector:    "digi",
		}
		raw.Data[0].I32s = i32sFrom(buf, crate)
		evt.Add(Collection, raw)

		err = w.WriteEvent(&evt)
		if err != nil {
			return fmt.Errorf("xcnv: could not write event %d: %w", i, err)
		}
	}

	return nil
}

func i32sFrom(ws []word.Word, crate int32) []int32 {
	raw := make([]int32, hdrLen+len(ws))
	raw[0] = magic
	raw[1] = crate
	raw[2] = int32(len(ws))
	for i, w := range ws {
		raw[hdrLen+i] = int32(w)
	}
	return raw
}
