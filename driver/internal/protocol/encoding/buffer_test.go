// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package encoding

import (
	"bytes"
	"errors"
	"testing"
)

func TestBufferGrow(t *testing.T) {
	buf := NewBufferCap(4)
	if buf.Cap() != 4 || buf.Len() != 0 {
		t.Fatalf("new buffer: cap %d len %d", buf.Cap(), buf.Len())
	}
	buf.WriteUint8(0x01, 0)
	if buf.Len() != 1 {
		t.Fatalf("len after byte write: %d", buf.Len())
	}
	// write past the capacity, forcing a grow that preserves content
	buf.WriteUint32(0xdeadbeef, 1)
	if buf.Len() != 5 {
		t.Fatalf("len after grow: %d", buf.Len())
	}
	if buf.Cap() < 5 {
		t.Fatalf("cap after grow: %d", buf.Cap())
	}
	want := []byte{0x01, 0xde, 0xad, 0xbe, 0xef}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("bytes after grow: %x, want %x", buf.Bytes(), want)
	}
}

func TestBufferSparseWrite(t *testing.T) {
	buf := NewBufferCap(2)
	buf.WriteUint16(0x0102, 10)
	if buf.Len() != 12 {
		t.Fatalf("len after sparse write: %d", buf.Len())
	}
	v, err := buf.ReadUint16(10)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if v != 0x0102 {
		t.Fatalf("read back: %#x", v)
	}
}

func TestBufferReadBounds(t *testing.T) {
	buf := NewBufferBytes([]byte{1, 2, 3})
	if _, err := buf.ReadUint32(0); !errors.Is(err, ErrEndOfInput) {
		t.Fatalf("read past length: %v", err)
	}
	if _, err := buf.ReadUint8(-1); !errors.Is(err, ErrEndOfInput) {
		t.Fatalf("negative offset: %v", err)
	}
	if _, err := buf.ReadUint8(3); !errors.Is(err, ErrEndOfInput) {
		t.Fatalf("offset at length: %v", err)
	}
	if v, err := buf.ReadUint8(2); err != nil || v != 3 {
		t.Fatalf("last byte: %d, %v", v, err)
	}
}

func TestBufferSlice(t *testing.T) {
	buf := NewBufferBytes([]byte{1, 2, 3, 4})
	p, err := buf.Slice(1, 3)
	if err != nil {
		t.Fatalf("slice: %v", err)
	}
	if !bytes.Equal(p, []byte{2, 3}) {
		t.Fatalf("slice: %v", p)
	}
	if _, err := buf.Slice(1, 5); !errors.Is(err, ErrEndOfInput) {
		t.Fatalf("slice past length: %v", err)
	}
	if _, err := buf.Slice(3, 2); !errors.Is(err, ErrEndOfInput) {
		t.Fatalf("inverted slice: %v", err)
	}
}

func TestBufferClear(t *testing.T) {
	buf := NewBufferCap(8)
	buf.WriteUint64(1, 0)
	cap := buf.Cap()
	buf.Clear()
	if buf.Len() != 0 {
		t.Fatalf("len after clear: %d", buf.Len())
	}
	if buf.Cap() != cap {
		t.Fatalf("cap after clear: %d, want %d", buf.Cap(), cap)
	}
}

func TestBufferEnsureExtraCapacity(t *testing.T) {
	buf := NewBufferCap(2)
	buf.WriteUint8(7, 0)
	buf.EnsureExtraCapacity(100)
	if buf.Len() != 1 {
		t.Fatalf("len changed: %d", buf.Len())
	}
	if buf.Cap() < 101 {
		t.Fatalf("cap: %d", buf.Cap())
	}
	if v, err := buf.ReadUint8(0); err != nil || v != 7 {
		t.Fatalf("content lost: %d, %v", v, err)
	}
}
