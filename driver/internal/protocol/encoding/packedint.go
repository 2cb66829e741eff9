// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package encoding

/*
Sort-preserving packed integers.

Bytes 0x08..0xF7 form the single-byte region covering [-119, 120]
(stored as value+127). A first byte below 0x08 starts a negative
multi-byte form: 0x08-b1 further bytes hold the big-endian two's
complement of value+119 with leading 0xFF bytes omitted. A first byte
above 0xF7 starts a positive multi-byte form: b1-0xF7 further bytes
hold the big-endian magnitude of value-121 with leading zero bytes
omitted. Byte-lexicographic order of the encodings equals numeric order
of the values. Maximum encoded size: 5 bytes (int32), 9 bytes (int64).
*/

const (
	negAdjust = 119
	posAdjust = 121
)

// MaxPackedInt32Size is the maximum encoded size of an int32.
const MaxPackedInt32Size = 5

// MaxPackedInt64Size is the maximum encoded size of an int64.
const MaxPackedInt64Size = 9

// WriteSortedInt32 writes the packed encoding of v at off and returns
// the offset past the last byte written.
func WriteSortedInt32(b *Buffer, off int, v int32) int {
	return WriteSortedInt64(b, off, int64(v))
}

// WriteSortedInt64 writes the packed encoding of v at off and returns
// the offset past the last byte written.
func WriteSortedInt64(b *Buffer, off int, v int64) int {
	switch {
	case v < -negAdjust:
		a := v + negAdjust // < 0, no overflow: MinInt64+119 still fits
		// smallest n with a representable in n sign-extended bytes,
		// i.e. a >= -(1 << 8n)
		n := 1
		for lim := int64(-1) << 8; n < 8 && a < lim; n++ {
			lim <<= 8
		}
		b.WriteUint8(byte(0x08-n), off)
		off++
		for i := n - 1; i >= 0; i-- {
			b.WriteUint8(byte(a>>uint(i*8)), off)
			off++
		}
		return off
	case v > 120:
		a := v - posAdjust // >= 0
		n := 1
		for lim := int64(1) << 8; n < 8 && a >= lim; n++ {
			lim <<= 8
		}
		b.WriteUint8(byte(0xF7+n), off)
		off++
		for i := n - 1; i >= 0; i-- {
			b.WriteUint8(byte(a>>uint(i*8)), off)
			off++
		}
		return off
	default:
		b.WriteUint8(byte(v+127), off)
		return off + 1
	}
}

// ReadSortedInt32 reads a packed int32 at off and returns the value and
// the offset past the last byte read.
func ReadSortedInt32(b *Buffer, off int) (int32, int, error) {
	v, next, err := ReadSortedInt64(b, off)
	if err != nil {
		return 0, next, err
	}
	return int32(v), next, nil
}

// ReadSortedInt64 reads a packed int64 at off and returns the value and
// the offset past the last byte read.
func ReadSortedInt64(b *Buffer, off int) (int64, int, error) {
	b1, err := b.ReadUint8(off)
	if err != nil {
		return 0, off, err
	}
	off++
	switch {
	case b1 < 0x08: // negative multi-byte
		n := int(0x08 - b1)
		if err := b.checkRead(off, n); err != nil {
			return 0, off, err
		}
		v := int64(-1) // sign extension for the omitted 0xFF bytes
		for i := 0; i < n; i++ {
			c, _ := b.ReadUint8(off)
			v = v<<8 | int64(c)
			off++
		}
		return v - negAdjust, off, nil
	case b1 > 0xF7: // positive multi-byte
		n := int(b1 - 0xF7)
		if err := b.checkRead(off, n); err != nil {
			return 0, off, err
		}
		var v int64
		for i := 0; i < n; i++ {
			c, _ := b.ReadUint8(off)
			v = v<<8 | int64(c)
			off++
		}
		return v + posAdjust, off, nil
	default:
		return int64(b1) - 127, off, nil
	}
}
