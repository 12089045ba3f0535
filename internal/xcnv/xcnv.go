// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xcnv provides tools to convert raw crate buffers to/from LCIO.
//
// Each LCIO event holds one raw crate buffer, stored as the int32
// payload of a generic object, preceded by a small header.
package xcnv // import "github.com/go-lpc/digi/internal/xcnv"

import (
	"errors"
)

// Collection is the default name of the LCIO collection holding the raw
// crate buffers.
const Collection = "RU_XDAQ"

const (
	magic  = 0xcafe
	hdrLen = 3 // magic, crate, number of words
)

var (
	errMagic  = errors.New("xcnv: invalid raw buffer magic")
	errLength = errors.New("xcnv: invalid raw buffer length")
)
