// Copyright 2022 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/go-daq/tdaq"
	"github.com/go-lpc/digi/crate"
	"github.com/go-lpc/digi/word"
)

type server struct {
	name string

	reg   crate.Registry
	slots []crate.Slot
	crate *crate.Crate

	n    int // number of decoded raw buffers
	nerr int // number of raw buffers that could not be decoded
	out  chan []byte
}

func newServer(name string) *server {
	return &server{
		name: name,
		reg:  crate.DefaultModels(),
	}
}

// OnConfig declares the modules of the crate.
// The request body holds the number of modules, followed by the
// slot and model name of each module.
func (srv *server) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")

	slots, err := decodeSlots(req.Body)
	if err != nil {
		ctx.Msg.Errorf("could not decode crate configuration: %+v", err)
		return fmt.Errorf("could not decode crate configuration: %w", err)
	}

	c, err := crate.New(srv.reg, slots, crate.WithMsgStream(ctx.Msg))
	if err != nil {
		ctx.Msg.Errorf("could not create crate: %+v", err)
		return fmt.Errorf("could not create crate: %w", err)
	}

	for _, slot := range slots {
		ctx.Msg.Infof("slot=%02d: %s", slot.Slot, slot.Model)
	}

	srv.slots = slots
	srv.crate = c
	return nil
}

func (srv *server) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	if srv.crate == nil {
		return fmt.Errorf("crate %q not configured", srv.name)
	}
	srv.reset()
	return nil
}

func (srv *server) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	srv.reset()
	return nil
}

func (srv *server) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	return nil
}

func (srv *server) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /stop command... -> n=%d, errs=%d", srv.n, srv.nerr)
	return nil
}

func (srv *server) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	return nil
}

func (srv *server) reset() {
	srv.n = 0
	srv.nerr = 0
	srv.out = make(chan []byte, 1024)
}

// raw decodes a raw crate buffer and queues the encoded hits.
// Buffers that cannot be decoded, or that do not hold a whole number of
// words, are reported and dropped.
func (srv *server) raw(ctx tdaq.Context, src tdaq.Frame) error {
	if srv.crate == nil || srv.out == nil {
		return fmt.Errorf("crate %q not initialized", srv.name)
	}

	if n := len(src.Body); n%word.Size != 0 {
		srv.nerr++
		ctx.Msg.Warnf("could not decode raw buffer %d: %d trailing bytes", srv.n, n%word.Size)
		return nil
	}

	words := word.FromBytes(src.Body, binary.BigEndian)
	evts, err := srv.crate.Decode(ctx.Ctx, words)
	if err != nil {
		srv.nerr++
		ctx.Msg.Warnf("could not decode raw buffer %d: %+v", srv.n, err)
		return nil
	}
	srv.n++

	buf := new(bytes.Buffer)
	err = encodeEvents(buf, evts)
	if err != nil {
		return fmt.Errorf("could not encode hits: %w", err)
	}

	select {
	case <-ctx.Ctx.Done():
	case srv.out <- buf.Bytes():
	}
	return nil
}

func (srv *server) hits(ctx tdaq.Context, dst *tdaq.Frame) error {
	select {
	case <-ctx.Ctx.Done():
		dst.Body = nil
		return nil
	case data := <-srv.out:
		dst.Body = data
	}
	return nil
}
