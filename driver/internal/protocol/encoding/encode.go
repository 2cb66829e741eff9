// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package encoding

import (
	"time"
)

// Encoder writes protocol primitives sequentially into a Buffer,
// growing it as needed. A position cursor tracks the write offset;
// offset-addressed writes (header back-patching) go through the Buffer
// directly.
type Encoder struct {
	buf *Buffer
	pos int
}

// NewEncoder creates an Encoder writing to buf starting at offset 0.
func NewEncoder(buf *Buffer) *Encoder { return &Encoder{buf: buf} }

// Reset moves the cursor back to the buffer start.
func (e *Encoder) Reset() { e.pos = 0 }

// Pos returns the current write offset.
func (e *Encoder) Pos() int { return e.pos }

// SetPos moves the write offset.
func (e *Encoder) SetPos(pos int) { e.pos = pos }

// Buffer returns the underlying buffer.
func (e *Encoder) Buffer() *Buffer { return e.buf }

// Byte writes a single byte.
func (e *Encoder) Byte(v byte) {
	e.buf.WriteUint8(v, e.pos)
	e.pos++
}

// Bytes writes p verbatim.
func (e *Encoder) Bytes(p []byte) {
	e.buf.WriteBytes(p, e.pos)
	e.pos += len(p)
}

// Bool writes a boolean as one byte (0/1).
func (e *Encoder) Bool(v bool) {
	if v {
		e.Byte(1)
	} else {
		e.Byte(0)
	}
}

// Int16 writes a big-endian int16.
func (e *Encoder) Int16(v int16) {
	e.buf.WriteInt16(v, e.pos)
	e.pos += 2
}

// Int32 writes a big-endian int32.
func (e *Encoder) Int32(v int32) {
	e.buf.WriteInt32(v, e.pos)
	e.pos += 4
}

// Float64 writes a big-endian IEEE-754 double.
func (e *Encoder) Float64(v float64) {
	e.buf.WriteFloat64(v, e.pos)
	e.pos += 8
}

// PackedInt writes a sort-preserving packed int32.
func (e *Encoder) PackedInt(v int) {
	e.pos = WriteSortedInt32(e.buf, e.pos, int32(v))
}

// PackedLong writes a sort-preserving packed int64.
func (e *Encoder) PackedLong(v int64) {
	e.pos = WriteSortedInt64(e.buf, e.pos, v)
}

// String writes a packed length followed by the UTF-8 bytes of s.
// Length 0 is a present empty string; use NullString for absence.
func (e *Encoder) String(s string) {
	e.PackedInt(len(s))
	e.Bytes([]byte(s))
}

// NullString writes the absent-string marker (packed length -1).
func (e *Encoder) NullString() { e.PackedInt(-1) }

// StringPtr writes s as String or, if nil, as NullString. The nullable
// distinction is preserved on round trip.
func (e *Encoder) StringPtr(s *string) {
	if s == nil {
		e.NullString()
		return
	}
	e.String(*s)
}

// Binary writes a packed length followed by the bytes. nil writes
// length 0.
func (e *Encoder) Binary(p []byte) {
	e.PackedInt(len(p))
	e.Bytes(p)
}

// Binary2 writes a 4-byte big-endian length followed by the bytes.
// Used for opaque prepared-statement blobs.
func (e *Encoder) Binary2(p []byte) {
	e.Int32(int32(len(p)))
	e.Bytes(p)
}

// Date writes t as a length-prefixed ISO-8601 UTC string without the
// trailing 'Z'.
func (e *Encoder) Date(t time.Time) {
	e.String(FormatDate(t))
}

// FormatDate renders t in the wire date format: ISO-8601 at UTC with
// millisecond precision and no trailing 'Z'.
func FormatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000")
}
