// Copyright 2022 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command digi-srv starts a TDAQ server decoding raw digitizer crate
// buffers into hits.
//
// Raw crate buffers (big-endian 32-bit words) are received on the /raw
// input; decoded hits are published on the /hits output.
// The modules of the crate are declared with the /config command.
package main // import "github.com/go-lpc/digi/cmd/digi-srv"

import (
	"context"
	"log"
	"os"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
)

func main() {
	cmd := flags.New()

	srv := newServer(cmd.Args[0])

	dev := tdaq.New(cmd, os.Stdout)
	dev.CmdHandle("/config", srv.OnConfig)
	dev.CmdHandle("/init", srv.OnInit)
	dev.CmdHandle("/reset", srv.OnReset)
	dev.CmdHandle("/start", srv.OnStart)
	dev.CmdHandle("/stop", srv.OnStop)
	dev.CmdHandle("/quit", srv.OnQuit)

	dev.InputHandle("/raw", srv.raw)
	dev.OutputHandle("/hits", srv.hits)

	err := dev.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}
