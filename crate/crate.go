// Copyright 2022 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package crate decodes the raw readout of a crate of digitizer modules.
package crate // import "github.com/go-lpc/digi/crate"

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-daq/tdaq/log"
	"github.com/go-lpc/digi/block"
	"github.com/go-lpc/digi/fadc"
	"github.com/go-lpc/digi/hit"
	"github.com/go-lpc/digi/tdc"
	"github.com/go-lpc/digi/word"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

// Module is a digitizer module plugged in a crate slot.
type Module interface {
	Slot() int

	// Framing returns the framing of the module family.
	// A nil framing reads the whole crate buffer as a single event.
	Framing() block.Framing

	DecodeEvent(words []word.Word) error
	Check() error
	LoadInto(sink hit.Sink) error
	Clear()
}

var (
	_ Module = (*fadc.Decoder)(nil)
	_ Module = (*tdc.Decoder)(nil)
)

var (
	ErrModel = errors.New("crate: unknown model")
	ErrSlot  = errors.New("crate: slot already in use")
)

// Registry creates modules from their model name.
type Registry interface {
	Module(model string, slot int) (Module, error)
}

// Models is a Registry of module constructors, indexed by model name.
type Models map[string]func(slot int) (Module, error)

// Module implements Registry.
func (reg Models) Module(model string, slot int) (Module, error) {
	f, ok := reg[model]
	if !ok {
		return nil, fmt.Errorf("crate: could not create module %q (slot=%d): %w", model, slot, ErrModel)
	}
	return f(slot)
}

// Slot describes the module plugged in a slot.
type Slot struct {
	Slot  int
	Model string
}

// Event holds the hits of one event of a crate.
type Event struct {
	Index int
	Hits  []hit.Hit // hits, ordered by slot
}

// Crate decodes the raw readout of a set of modules.
type Crate struct {
	msg  log.MsgStream
	nwrk int

	mods []Module
	sps  []*block.Splitter
}

// Option configures a Crate.
type Option func(*Crate)

// WithMsgStream sets the stream used to report warnings.
func WithMsgStream(msg log.MsgStream) Option {
	return func(c *Crate) {
		c.msg = msg
	}
}

// WithWorkers limits the number of modules decoded concurrently.
func WithWorkers(n int) Option {
	return func(c *Crate) {
		c.nwrk = n
	}
}

// New creates a new crate from the provided slots, using reg to create
// the module of each slot.
func New(reg Registry, slots []Slot, opts ...Option) (*Crate, error) {
	c := &Crate{
		msg:  log.NewMsgStream("crate", log.LvlWarning, io.Discard),
		nwrk: -1,
	}
	for _, opt := range opts {
		opt(c)
	}

	used := make(map[int]bool, len(slots))
	for _, slot := range slots {
		if used[slot.Slot] {
			return nil, fmt.Errorf("crate: slot=%d (model=%q): %w", slot.Slot, slot.Model, ErrSlot)
		}
		used[slot.Slot] = true

		mod, err := reg.Module(slot.Model, slot.Slot)
		if err != nil {
			return nil, fmt.Errorf("crate: could not create module for slot=%d: %w", slot.Slot, err)
		}
		c.mods = append(c.mods, mod)
	}

	slices.SortFunc(c.mods, func(a, b Module) bool {
		return a.Slot() < b.Slot()
	})

	c.sps = make([]*block.Splitter, len(c.mods))
	for i, mod := range c.mods {
		c.sps[i] = block.New(mod.Slot(), mod.Framing(), block.WithMsgStream(c.msg))
	}

	return c, nil
}

// Slots returns the slots of the crate, in increasing order.
func (c *Crate) Slots() []int {
	slots := make([]int, len(c.mods))
	for i, mod := range c.mods {
		slots[i] = mod.Slot()
	}
	return slots
}

// Module returns the module plugged in the provided slot.
func (c *Crate) Module(slot int) (Module, bool) {
	i, ok := c.index(slot)
	if !ok {
		return nil, false
	}
	return c.mods[i], true
}

func (c *Crate) index(slot int) (int, bool) {
	i := slices.IndexFunc(c.mods, func(mod Module) bool {
		return mod.Slot() == slot
	})
	return i, i >= 0
}

// Decode splits the raw readout words into events and decodes them.
// Modules are decoded concurrently.
// Events are merged by their index within the readout.
// Modules with a framing whose block header is absent from the buffer
// contribute no event.
// Decode must not be called concurrently on the same crate.
func (c *Crate) Decode(ctx context.Context, words []word.Word) ([]Event, error) {
	hits := make([][][]hit.Hit, len(c.mods))

	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(c.nwrk)
	for i := range c.mods {
		i := i
		grp.Go(func() error {
			var err error
			hits[i], err = c.decode(ctx, i, words)
			return err
		})
	}

	err := grp.Wait()
	if err != nil {
		return nil, err
	}

	nevts := 0
	for i, evts := range hits {
		if i > 0 && len(evts) != nevts {
			c.msg.Warnf(
				"slot=%d: found %d events, slot=%d found %d",
				c.mods[i].Slot(), len(evts), c.mods[0].Slot(), len(hits[0]),
			)
		}
		if len(evts) > nevts {
			nevts = len(evts)
		}
	}

	evts := make([]Event, nevts)
	for i := range evts {
		evts[i].Index = i
		for _, mod := range hits {
			if i >= len(mod) {
				continue
			}
			evts[i].Hits = append(evts[i].Hits, mod[i]...)
		}
	}

	return evts, nil
}

func (c *Crate) decode(ctx context.Context, i int, words []word.Word) ([][]hit.Hit, error) {
	var (
		mod  = c.mods[i]
		sp   = c.sps[i]
		evts = make([][]hit.Hit, 0, 1)
		sink hit.Collector
	)
	defer mod.Clear()

	sp.Split(words)
	if mod.Framing() != nil && !sp.Found() {
		c.msg.Warnf("slot=%d: no block header in buffer", mod.Slot())
		return evts, nil
	}

	for ievt := 0; !sp.Done(); ievt++ {
		err := ctx.Err()
		if err != nil {
			return nil, err
		}

		err = mod.DecodeEvent(sp.Next())
		if err != nil {
			return nil, fmt.Errorf("crate: could not decode event %d of slot=%d: %w", ievt, mod.Slot(), err)
		}

		err = mod.Check()
		if err != nil {
			c.msg.Warnf("slot=%d event=%d: %+v", mod.Slot(), ievt, err)
		}

		sink.Hits = nil
		err = mod.LoadInto(&sink)
		if err != nil {
			return nil, fmt.Errorf("crate: could not load hits of event %d of slot=%d: %w", ievt, mod.Slot(), err)
		}
		evts = append(evts, sink.Hits)
	}

	return evts, nil
}
