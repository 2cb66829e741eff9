// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package encoding

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/transform"

	"github.com/SAP/go-nosql/driver/unicode/utf8s"
)

// ErrEndOfInput reports a read past the buffer's logical length. At the
// protocol layer it surfaces as a protocol (malformed response) error.
var ErrEndOfInput = errors.New("unexpected end of input")

// Decoder reads protocol primitives sequentially from a Buffer.
//
// The first read error is latched: subsequent reads return zero values
// and the error is reported by Error(). Conversion errors (bad date
// format and the like) are returned by the reading method itself and
// are not latched.
type Decoder struct {
	buf *Buffer
	pos int
	err error
	tr  transform.Transformer
}

// NewDecoder creates a Decoder reading buf from offset 0, repairing
// invalid UTF-8 in wire strings with the default transformer.
func NewDecoder(buf *Buffer) *Decoder {
	return &Decoder{buf: buf, tr: utf8s.DefaultDecoder()}
}

// NewDecoderTransformer creates a Decoder with a caller-supplied string
// transformer.
func NewDecoderTransformer(buf *Buffer, decoder func() transform.Transformer) *Decoder {
	return &Decoder{buf: buf, tr: decoder()}
}

// Reset moves the cursor back to the buffer start and clears the
// latched error.
func (d *Decoder) Reset() {
	d.pos = 0
	d.err = nil
}

// Pos returns the current read offset.
func (d *Decoder) Pos() int { return d.pos }

// SetPos moves the read offset.
func (d *Decoder) SetPos(pos int) { d.pos = pos }

// Buffer returns the underlying buffer.
func (d *Decoder) Buffer() *Buffer { return d.buf }

// Error returns the latched read error, nil if none occurred.
func (d *Decoder) Error() error { return d.err }

// ResetError returns and clears the latched read error.
func (d *Decoder) ResetError() error {
	err := d.err
	d.err = nil
	return err
}

func (d *Decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

// Skip advances the cursor by n bytes.
func (d *Decoder) Skip(n int) {
	if err := d.buf.checkRead(d.pos, n); err != nil {
		d.fail(err)
		return
	}
	d.pos += n
}

// Byte reads a single byte.
func (d *Decoder) Byte() byte {
	v, err := d.buf.ReadUint8(d.pos)
	if err != nil {
		d.fail(err)
		return 0
	}
	d.pos++
	return v
}

// Bytes reads n bytes. The returned slice aliases the buffer.
func (d *Decoder) Bytes(n int) []byte {
	p, err := d.buf.Slice(d.pos, d.pos+n)
	if err != nil {
		d.fail(err)
		return nil
	}
	d.pos += n
	return p
}

// Bool reads a boolean.
func (d *Decoder) Bool() bool { return d.Byte() != 0 }

// Int16 reads a big-endian int16.
func (d *Decoder) Int16() int16 {
	v, err := d.buf.ReadInt16(d.pos)
	if err != nil {
		d.fail(err)
		return 0
	}
	d.pos += 2
	return v
}

// Int32 reads a big-endian int32.
func (d *Decoder) Int32() int32 {
	v, err := d.buf.ReadInt32(d.pos)
	if err != nil {
		d.fail(err)
		return 0
	}
	d.pos += 4
	return v
}

// Float64 reads a big-endian IEEE-754 double.
func (d *Decoder) Float64() float64 {
	v, err := d.buf.ReadFloat64(d.pos)
	if err != nil {
		d.fail(err)
		return 0
	}
	d.pos += 8
	return v
}

// PackedInt reads a sort-preserving packed int32.
func (d *Decoder) PackedInt() int {
	v, next, err := ReadSortedInt32(d.buf, d.pos)
	if err != nil {
		d.fail(err)
		return 0
	}
	d.pos = next
	return int(v)
}

// PackedLong reads a sort-preserving packed int64.
func (d *Decoder) PackedLong() int64 {
	v, next, err := ReadSortedInt64(d.buf, d.pos)
	if err != nil {
		d.fail(err)
		return 0
	}
	d.pos = next
	return v
}

// String reads a nullable string: packed length -1 is absent (reported
// by the second return value), 0 is the empty string.
func (d *Decoder) String() (string, bool) {
	n := d.PackedInt()
	if d.err != nil || n < 0 {
		return "", false
	}
	p := d.Bytes(n)
	if d.err != nil {
		return "", false
	}
	r, _, err := transform.Bytes(d.tr, p)
	if err != nil {
		// the repair transformer replaces, it does not fail; raw
		// bytes are the fallback if a custom transformer errors
		return string(p), true
	}
	return string(r), true
}

// NonNullString reads a string, treating absence as a decode error.
func (d *Decoder) NonNullString() string {
	s, ok := d.String()
	if !ok && d.err == nil {
		d.fail(fmt.Errorf("unexpected null string: %w", ErrEndOfInput))
	}
	return s
}

// Binary reads a packed length followed by that many bytes. The result
// is a copy, valid after the buffer is released.
func (d *Decoder) Binary() []byte {
	n := d.PackedInt()
	if d.err != nil || n <= 0 {
		return nil
	}
	p := d.Bytes(n)
	if d.err != nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, p)
	return out
}

// Binary2 reads a 4-byte big-endian length followed by that many bytes.
func (d *Decoder) Binary2() []byte {
	n := int(d.Int32())
	if d.err != nil || n <= 0 {
		return nil
	}
	p := d.Bytes(n)
	if d.err != nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, p)
	return out
}

// Date reads a length-prefixed wire date string.
func (d *Decoder) Date() (time.Time, error) {
	s, ok := d.String()
	if d.err != nil {
		return time.Time{}, d.err
	}
	if !ok || s == "" {
		return time.Time{}, nil
	}
	return ParseDate(s)
}

// dateLayouts are tried in order; the server omits fractional seconds
// for whole-second instants.
var dateLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
}

// ParseDate parses a wire date string (ISO-8601, UTC, no trailing 'Z';
// a trailing 'Z' is tolerated via the RFC3339 fallback).
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date string %q", s)
}
