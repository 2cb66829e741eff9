// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package encoding

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestCodecPrimitives(t *testing.T) {
	buf := NewBuffer()
	enc := NewEncoder(buf)
	enc.Byte(0x7f)
	enc.Bool(true)
	enc.Bool(false)
	enc.Int16(-12345)
	enc.Int32(1 << 30)
	enc.Float64(3.5)
	enc.PackedInt(-1000000)
	enc.PackedLong(1 << 50)
	enc.Bytes([]byte{1, 2, 3})

	dec := NewDecoder(buf)
	if v := dec.Byte(); v != 0x7f {
		t.Fatalf("byte: %#x", v)
	}
	if !dec.Bool() || dec.Bool() {
		t.Fatal("bool round trip")
	}
	if v := dec.Int16(); v != -12345 {
		t.Fatalf("int16: %d", v)
	}
	if v := dec.Int32(); v != 1<<30 {
		t.Fatalf("int32: %d", v)
	}
	if v := dec.Float64(); v != 3.5 {
		t.Fatalf("float64: %g", v)
	}
	if v := dec.PackedInt(); v != -1000000 {
		t.Fatalf("packed int: %d", v)
	}
	if v := dec.PackedLong(); v != 1<<50 {
		t.Fatalf("packed long: %d", v)
	}
	if p := dec.Bytes(3); !bytes.Equal(p, []byte{1, 2, 3}) {
		t.Fatalf("bytes: %v", p)
	}
	if err := dec.Error(); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if dec.Pos() != enc.Pos() {
		t.Fatalf("cursor mismatch: dec %d enc %d", dec.Pos(), enc.Pos())
	}
}

func TestCodecStrings(t *testing.T) {
	buf := NewBuffer()
	enc := NewEncoder(buf)
	enc.String("")
	enc.String("café")
	enc.NullString()
	s := "set"
	enc.StringPtr(&s)
	enc.StringPtr(nil)

	dec := NewDecoder(buf)
	if v, ok := dec.String(); !ok || v != "" {
		t.Fatalf("empty string: %q, %v", v, ok)
	}
	if v, ok := dec.String(); !ok || v != "café" {
		t.Fatalf("string: %q, %v", v, ok)
	}
	if v, ok := dec.String(); ok {
		t.Fatalf("null string decoded as present: %q", v)
	}
	if v, ok := dec.String(); !ok || v != "set" {
		t.Fatalf("string ptr: %q, %v", v, ok)
	}
	if _, ok := dec.String(); ok {
		t.Fatal("nil string ptr decoded as present")
	}
	if err := dec.Error(); err != nil {
		t.Fatalf("decode error: %v", err)
	}
}

func TestCodecStringRepair(t *testing.T) {
	// a lone continuation byte is replaced, never propagated
	buf := NewBuffer()
	enc := NewEncoder(buf)
	enc.PackedInt(3)
	enc.Bytes([]byte{'a', 0x80, 'b'})

	dec := NewDecoder(buf)
	v, ok := dec.String()
	if !ok {
		t.Fatal("string reported absent")
	}
	if v != "a�b" {
		t.Fatalf("repaired string: %q", v)
	}
}

func TestCodecNonNullString(t *testing.T) {
	buf := NewBuffer()
	enc := NewEncoder(buf)
	enc.NullString()

	dec := NewDecoder(buf)
	dec.NonNullString()
	if dec.Error() == nil {
		t.Fatal("null accepted by NonNullString")
	}
}

func TestCodecBinary(t *testing.T) {
	buf := NewBuffer()
	enc := NewEncoder(buf)
	enc.Binary([]byte{9, 8, 7})
	enc.Binary(nil)
	enc.Binary2([]byte{4, 5})

	dec := NewDecoder(buf)
	if p := dec.Binary(); !bytes.Equal(p, []byte{9, 8, 7}) {
		t.Fatalf("binary: %v", p)
	}
	if p := dec.Binary(); p != nil {
		t.Fatalf("nil binary: %v", p)
	}
	if p := dec.Binary2(); !bytes.Equal(p, []byte{4, 5}) {
		t.Fatalf("binary2: %v", p)
	}
	if err := dec.Error(); err != nil {
		t.Fatalf("decode error: %v", err)
	}
}

func TestCodecBinaryCopies(t *testing.T) {
	buf := NewBuffer()
	enc := NewEncoder(buf)
	enc.Binary([]byte{1, 2, 3})

	dec := NewDecoder(buf)
	p := dec.Binary()
	buf.WriteBytes([]byte{0xff, 0xff, 0xff, 0xff}, 0)
	if !bytes.Equal(p, []byte{1, 2, 3}) {
		t.Fatalf("binary aliases buffer storage: %v", p)
	}
}

func TestCodecDate(t *testing.T) {
	in := time.Date(2024, 6, 15, 10, 30, 45, 123_000_000, time.UTC)
	buf := NewBuffer()
	enc := NewEncoder(buf)
	enc.Date(in)

	dec := NewDecoder(buf)
	out, err := dec.Date()
	if err != nil {
		t.Fatalf("date: %v", err)
	}
	if !out.Equal(in) {
		t.Fatalf("date round trip: got %v, want %v", out, in)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-06-15T10:30:45.123", time.Date(2024, 6, 15, 10, 30, 45, 123_000_000, time.UTC)},
		{"2024-06-15T10:30:45", time.Date(2024, 6, 15, 10, 30, 45, 0, time.UTC)},
		{"2024-06-15T10:30:45.123456789", time.Date(2024, 6, 15, 10, 30, 45, 123_456_789, time.UTC)},
		{"2024-06-15T10:30:45Z", time.Date(2024, 6, 15, 10, 30, 45, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if err != nil {
			t.Fatalf("%q: %v", tt.in, err)
		}
		if !got.Equal(tt.want) {
			t.Fatalf("%q: got %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseDate("not a date"); err == nil {
		t.Fatal("invalid date accepted")
	}
}

func TestDecoderErrorLatch(t *testing.T) {
	dec := NewDecoder(NewBufferBytes([]byte{0x01}))
	dec.Byte()
	if err := dec.Error(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dec.Int32() // past the end
	if !errors.Is(dec.Error(), ErrEndOfInput) {
		t.Fatalf("latched error: %v", dec.Error())
	}
	// subsequent reads keep returning zero values, error stays latched
	if v := dec.PackedLong(); v != 0 {
		t.Fatalf("read after latch: %d", v)
	}
	if err := dec.ResetError(); !errors.Is(err, ErrEndOfInput) {
		t.Fatalf("reset error: %v", err)
	}
	if dec.Error() != nil {
		t.Fatal("error not cleared")
	}
}
