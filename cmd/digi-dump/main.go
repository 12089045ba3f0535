// Copyright 2022 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// digi-dump decodes and displays raw digitizer crate buffers.
//
// Usage: digi-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> digi-dump -slots=3:fadc250,5:v1190 ./testdata/crate.raw
//	=== buffer 0 ===
//	--- event 0 (hits=2) ---
//	slot=03 ch=000 integral    [0] = 10
//	slot=05 ch=002 time        [0] = 1234
//	[...]
package main // import "github.com/go-lpc/digi/cmd/digi-dump"

import (
	"bufio"
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	tlog "github.com/go-daq/tdaq/log"
	"github.com/go-lpc/digi"
	"github.com/go-lpc/digi/crate"
	"github.com/go-lpc/digi/internal/mmap"
	"github.com/go-lpc/digi/internal/xcnv"
	"github.com/go-lpc/digi/word"
	"go-hep.org/x/hep/lcio"
)

const usage = `digi-dump decodes and displays raw digitizer crate buffers.

Usage: digi-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> digi-dump -slots=3:fadc250,5:v1190 ./testdata/crate.raw
 === buffer 0 ===
 --- event 0 (hits=2) ---
 slot=03 ch=000 integral    [0] = 10
 slot=05 ch=002 time        [0] = 1234
 [...]

options:
`

func main() {
	xmain(os.Stdout, os.Args[1:])
}

func xmain(w io.Writer, args []string) {
	log.SetPrefix("digi-dump: ")
	log.SetFlags(0)

	var (
		fset = flag.NewFlagSet("digi-dump", flag.ExitOnError)

		slots  = fset.String("slots", "", "comma-separated list of slot:model modules of the crate")
		isLCIO = fset.Bool("lcio", false, "read raw buffers embedded in LCIO files")
		coll   = fset.String("coll", xcnv.Collection, "name of the LCIO collection holding raw buffers")
		vers   = fset.Bool("version", false, "print version and exit")
	)

	fset.Usage = func() {
		fmt.Print(usage)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	if *vers {
		v, sum := digi.Version()
		fmt.Fprintf(w, "digi-dump version=%q sum=%q\n", v, sum)
		return
	}

	if fset.NArg() == 0 {
		fset.Usage()
		log.Fatalf("missing path to input file")
	}

	mods, err := parseSlots(*slots)
	if err != nil {
		fset.Usage()
		log.Fatalf("could not parse slots: %+v", err)
	}

	cfg := config{
		slots: mods,
		lcio:  *isLCIO,
		coll:  *coll,
		msg:   tlog.NewMsgStream("digi-dump", tlog.LvlWarning, os.Stderr),
	}

	for _, fname := range fset.Args() {
		err := process(w, fname, cfg)
		if err != nil {
			log.Fatalf("could not dump file %q: %+v", fname, err)
		}
	}
}

type config struct {
	slots []crate.Slot
	lcio  bool
	coll  string
	msg   tlog.MsgStream
}

func process(w io.Writer, fname string, cfg config) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	c, err := crate.New(crate.DefaultModels(), cfg.slots, crate.WithMsgStream(cfg.msg))
	if err != nil {
		return fmt.Errorf("could not create crate: %w", err)
	}

	dump := func(i int, words []word.Word) error {
		evts, err := c.Decode(context.Background(), words)
		if err != nil {
			return fmt.Errorf("could not decode buffer %d: %w", i, err)
		}
		fmt.Fprintf(wbuf, "=== buffer %d ===\n", i)
		for _, evt := range evts {
			fmt.Fprintf(wbuf, "--- event %d (hits=%d) ---\n", evt.Index, len(evt.Hits))
			for _, h := range evt.Hits {
				fmt.Fprintf(wbuf, "%v\n", h)
			}
		}
		return nil
	}

	if cfg.lcio {
		r, err := lcio.Open(fname)
		if err != nil {
			return fmt.Errorf("could not open LCIO file: %w", err)
		}
		defer r.Close()

		msg := log.New(io.Discard, "", 0)
		return xcnv.LCIO2Raw(r, cfg.coll, 0, msg, dump)
	}

	h, err := mmap.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open raw file: %w", err)
	}
	defer h.Close()

	words, err := h.Words(binary.BigEndian)
	if err != nil {
		return fmt.Errorf("could not read raw file: %w", err)
	}

	return dump(0, words)
}

// parseSlots parses a list of slot:model pairs.
func parseSlots(v string) ([]crate.Slot, error) {
	if v == "" {
		return nil, fmt.Errorf("empty list of slots")
	}

	var slots []crate.Slot
	for _, tok := range strings.Split(v, ",") {
		sid, model, ok := strings.Cut(strings.TrimSpace(tok), ":")
		if !ok || model == "" {
			return nil, fmt.Errorf("invalid slot definition %q", tok)
		}
		slot, err := strconv.Atoi(sid)
		if err != nil {
			return nil, fmt.Errorf("invalid slot number %q: %w", sid, err)
		}
		if slot < 0 || slot > 31 {
			return nil, fmt.Errorf("invalid slot number %d", slot)
		}
		slots = append(slots, crate.Slot{Slot: slot, Model: model})
	}
	return slots, nil
}
