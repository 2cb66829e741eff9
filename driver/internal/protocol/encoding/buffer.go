// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

// Package encoding implements the primitive wire encoding layer of the
// NoSQL driver: a growable big-endian byte buffer with a process-wide
// free list, the sort-preserving packed-integer codec and the primitive
// Encoder / Decoder used by the protocol serializers.
package encoding

import (
	"encoding/binary"
	"fmt"
	"math"
)

const defaultBufferCap = 256

// Buffer is a growable byte region with a logical length <= capacity.
// All write methods may grow the buffer; all read methods validate the
// accessed range against the logical length. The exposed byte span is
// always [0, Len()).
type Buffer struct {
	b      []byte
	length int
}

// NewBuffer returns an empty buffer with a default capacity.
func NewBuffer() *Buffer { return NewBufferCap(defaultBufferCap) }

// NewBufferCap returns an empty buffer with capacity cap.
func NewBufferCap(cap int) *Buffer { return &Buffer{b: make([]byte, cap)} }

// NewBufferBytes returns a buffer reading the given bytes. The buffer
// takes ownership of p.
func NewBufferBytes(p []byte) *Buffer { return &Buffer{b: p, length: len(p)} }

// Len returns the logical length.
func (b *Buffer) Len() int { return b.length }

// Cap returns the current capacity.
func (b *Buffer) Cap() int { return len(b.b) }

// Bytes returns the byte span [0, Len()). The slice aliases the buffer's
// storage and is invalidated by the next growing write.
func (b *Buffer) Bytes() []byte { return b.b[:b.length] }

// Clear resets the logical length to zero keeping the capacity.
func (b *Buffer) Clear() { b.length = 0 }

// grow makes room for a write ending at offset end and extends the
// logical length. New capacity is max(2*cap, required).
func (b *Buffer) grow(end int) {
	if end > len(b.b) {
		newCap := 2 * len(b.b)
		if end > newCap {
			newCap = end
		}
		nb := make([]byte, newCap)
		copy(nb, b.b[:b.length])
		b.b = nb
	}
	if end > b.length {
		b.length = end
	}
}

// EnsureExtraCapacity guarantees that n more bytes can be appended
// without another allocation.
func (b *Buffer) EnsureExtraCapacity(n int) { // does not extend length
	if need := b.length + n; need > len(b.b) {
		newCap := 2 * len(b.b)
		if need > newCap {
			newCap = need
		}
		nb := make([]byte, newCap)
		copy(nb, b.b[:b.length])
		b.b = nb
	}
}

// checkRead validates a read of width bytes at off.
func (b *Buffer) checkRead(off, width int) error {
	if off < 0 || off+width > b.length {
		return fmt.Errorf("buffer: read of %d bytes at offset %d exceeds length %d: %w", width, off, b.length, ErrEndOfInput)
	}
	return nil
}

// Slice returns the bytes in [start, end).
func (b *Buffer) Slice(start, end int) ([]byte, error) {
	if start < 0 || end < start || end > b.length {
		return nil, fmt.Errorf("buffer: slice [%d,%d) exceeds length %d: %w", start, end, b.length, ErrEndOfInput)
	}
	return b.b[start:end], nil
}

// ReadUint8 reads a byte at off.
func (b *Buffer) ReadUint8(off int) (byte, error) {
	if err := b.checkRead(off, 1); err != nil {
		return 0, err
	}
	return b.b[off], nil
}

// ReadInt8 reads a signed byte at off.
func (b *Buffer) ReadInt8(off int) (int8, error) {
	v, err := b.ReadUint8(off)
	return int8(v), err
}

// ReadUint16 reads a big-endian uint16 at off.
func (b *Buffer) ReadUint16(off int) (uint16, error) {
	if err := b.checkRead(off, 2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b.b[off:]), nil
}

// ReadInt16 reads a big-endian int16 at off.
func (b *Buffer) ReadInt16(off int) (int16, error) {
	v, err := b.ReadUint16(off)
	return int16(v), err
}

// ReadUint32 reads a big-endian uint32 at off.
func (b *Buffer) ReadUint32(off int) (uint32, error) {
	if err := b.checkRead(off, 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b.b[off:]), nil
}

// ReadInt32 reads a big-endian int32 at off.
func (b *Buffer) ReadInt32(off int) (int32, error) {
	v, err := b.ReadUint32(off)
	return int32(v), err
}

// ReadUint64 reads a big-endian uint64 at off.
func (b *Buffer) ReadUint64(off int) (uint64, error) {
	if err := b.checkRead(off, 8); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b.b[off:]), nil
}

// ReadFloat64 reads a big-endian IEEE-754 double at off.
func (b *Buffer) ReadFloat64(off int) (float64, error) {
	v, err := b.ReadUint64(off)
	return math.Float64frombits(v), err
}

// WriteUint8 writes a byte at off, growing the buffer as needed.
func (b *Buffer) WriteUint8(v byte, off int) {
	b.grow(off + 1)
	b.b[off] = v
}

// WriteInt8 writes a signed byte at off.
func (b *Buffer) WriteInt8(v int8, off int) { b.WriteUint8(byte(v), off) }

// WriteUint16 writes a big-endian uint16 at off.
func (b *Buffer) WriteUint16(v uint16, off int) {
	b.grow(off + 2)
	binary.BigEndian.PutUint16(b.b[off:], v)
}

// WriteInt16 writes a big-endian int16 at off.
func (b *Buffer) WriteInt16(v int16, off int) { b.WriteUint16(uint16(v), off) }

// WriteUint32 writes a big-endian uint32 at off.
func (b *Buffer) WriteUint32(v uint32, off int) {
	b.grow(off + 4)
	binary.BigEndian.PutUint32(b.b[off:], v)
}

// WriteInt32 writes a big-endian int32 at off.
func (b *Buffer) WriteInt32(v int32, off int) { b.WriteUint32(uint32(v), off) }

// WriteUint64 writes a big-endian uint64 at off.
func (b *Buffer) WriteUint64(v uint64, off int) {
	b.grow(off + 8)
	binary.BigEndian.PutUint64(b.b[off:], v)
}

// WriteFloat64 writes a big-endian IEEE-754 double at off.
func (b *Buffer) WriteFloat64(v float64, off int) { b.WriteUint64(math.Float64bits(v), off) }

// WriteBytes writes p at off.
func (b *Buffer) WriteBytes(p []byte, off int) {
	b.grow(off + len(p))
	copy(b.b[off:], p)
}

// AppendBytes appends p at the logical end.
func (b *Buffer) AppendBytes(p []byte) { b.WriteBytes(p, b.length) }
