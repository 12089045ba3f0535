// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mmap

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/go-lpc/digi/word"
)

func TestHandle(t *testing.T) {
	t.Run("nil-handle", func(t *testing.T) {
		var h *Handle

		_, err := h.ReadAt(nil, 0)
		if !errors.Is(err, os.ErrInvalid) {
			t.Fatalf("invalid read-at error: %+v", err)
		}

		_, err = h.Words(binary.BigEndian)
		if !errors.Is(err, os.ErrInvalid) {
			t.Fatalf("invalid words error: %+v", err)
		}

		err = h.Close()
		if !errors.Is(err, os.ErrInvalid) {
			t.Fatalf("invalid close error: %+v", err)
		}
	})
	t.Run("nil-data", func(t *testing.T) {
		var h Handle

		_, err := h.ReadAt(nil, 0)
		if !errors.Is(err, errClosed) {
			t.Fatalf("invalid read-at error: %+v", err)
		}

		_, err = h.Words(binary.BigEndian)
		if !errors.Is(err, errClosed) {
			t.Fatalf("invalid words error: %+v", err)
		}

		err = h.Close()
		if err != nil {
			t.Fatalf("error closing nil-data handle: %+v", err)
		}
	})
}

func TestOpen(t *testing.T) {
	tmp, err := os.MkdirTemp("", "digi-mmap-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	want := []word.Word{0x80000000, 0x12345678, 0xcafebabe}

	t.Run("words", func(t *testing.T) {
		fname := filepath.Join(tmp, "words.raw")
		err := os.WriteFile(fname, word.Bytes(want, binary.BigEndian), 0644)
		if err != nil {
			t.Fatalf("could not create raw file: %+v", err)
		}

		h, err := Open(fname)
		if err != nil {
			t.Fatalf("could not open mmap file: %+v", err)
		}
		defer h.Close()

		if got, want := h.Len(), len(want)*word.Size; got != want {
			t.Fatalf("invalid length: got=%d, want=%d", got, want)
		}

		got, err := h.Words(binary.BigEndian)
		if err != nil {
			t.Fatalf("could not read words: %+v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("invalid words:\ngot= %v\nwant=%v", got, want)
		}

		p := make([]byte, 4)
		n, err := h.ReadAt(p, 4)
		if err != nil {
			t.Fatalf("could not read-at: %+v", err)
		}
		if got, want := binary.BigEndian.Uint32(p[:n]), uint32(0x12345678); got != want {
			t.Fatalf("invalid read-at: got=0x%x, want=0x%x", got, want)
		}

		_, err = h.ReadAt(p, 10)
		if !errors.Is(err, io.EOF) {
			t.Fatalf("invalid read-at error: %+v", err)
		}

		err = h.Close()
		if err != nil {
			t.Fatalf("could not close mmap file: %+v", err)
		}

		_, err = h.Words(binary.BigEndian)
		if !errors.Is(err, errClosed) {
			t.Fatalf("invalid error after close: %+v", err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		fname := filepath.Join(tmp, "empty.raw")
		err := os.WriteFile(fname, nil, 0644)
		if err != nil {
			t.Fatalf("could not create raw file: %+v", err)
		}

		h, err := Open(fname)
		if err != nil {
			t.Fatalf("could not open mmap file: %+v", err)
		}
		defer h.Close()

		got, err := h.Words(binary.BigEndian)
		if err != nil {
			t.Fatalf("could not read words: %+v", err)
		}
		if len(got) != 0 {
			t.Fatalf("invalid number of words: got=%d, want=0", len(got))
		}
	})

	t.Run("trailing-bytes", func(t *testing.T) {
		fname := filepath.Join(tmp, "trailing.raw")
		err := os.WriteFile(fname, []byte{1, 2, 3, 4, 5}, 0644)
		if err != nil {
			t.Fatalf("could not create raw file: %+v", err)
		}

		h, err := Open(fname)
		if err != nil {
			t.Fatalf("could not open mmap file: %+v", err)
		}
		defer h.Close()

		_, err = h.Words(binary.BigEndian)
		if err == nil {
			t.Fatalf("expected an error")
		}
	})

	t.Run("not-there", func(t *testing.T) {
		_, err := Open(filepath.Join(tmp, "not-there.raw"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("invalid error: %+v", err)
		}
	})
}
