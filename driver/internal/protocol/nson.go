// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"
	"time"

	"github.com/SAP/go-nosql/driver/internal/protocol/encoding"
	"github.com/SAP/go-nosql/driver/types"
)

/*
NSON is the self-describing V4 wire format: every value is preceded by
its one-byte type code. MAP and ARRAY carry an 8-byte header after the
type code: a 4-byte byte length covering everything after the length
field (element count plus contents) and a 4-byte element count. MAP
entries are a length-prefixed string key followed by an NSON value;
ARRAY entries are just NSON values.
*/

type nsonWriterFrame struct {
	lenOff int // offset of the 4-byte length field to back-patch
	count  int
}

// NsonWriter builds NSON values depth-first into a buffer. Starting a
// composite reserves the 8-byte header; ending it back-patches the
// header with the actual byte length and element count.
type NsonWriter struct {
	enc   *encoding.Encoder
	stack []nsonWriterFrame
}

// NewNsonWriter creates a writer on top of e.
func NewNsonWriter(e *encoding.Encoder) *NsonWriter {
	return &NsonWriter{enc: e}
}

// Encoder returns the underlying encoder.
func (w *NsonWriter) Encoder() *encoding.Encoder { return w.enc }

// incr counts one value written at the current depth.
func (w *NsonWriter) incr() {
	if n := len(w.stack); n > 0 {
		w.stack[n-1].count++
	}
}

func (w *NsonWriter) startComposite(tc TypeCode) {
	w.incr()
	w.enc.Byte(byte(tc))
	w.stack = append(w.stack, nsonWriterFrame{lenOff: w.enc.Pos()})
	w.enc.Int32(0) // byte length, patched on end
	w.enc.Int32(0) // element count, patched on end
}

func (w *NsonWriter) endComposite() {
	n := len(w.stack)
	frame := w.stack[n-1]
	w.stack = w.stack[:n-1]
	w.enc.Buffer().WriteInt32(int32(w.enc.Pos()-frame.lenOff-4), frame.lenOff)
	w.enc.Buffer().WriteInt32(int32(frame.count), frame.lenOff+4)
}

// StartMap begins a MAP value.
func (w *NsonWriter) StartMap() { w.startComposite(TypeMap) }

// EndMap ends the innermost MAP.
func (w *NsonWriter) EndMap() { w.endComposite() }

// StartArray begins an ARRAY value.
func (w *NsonWriter) StartArray() { w.startComposite(TypeArray) }

// EndArray ends the innermost ARRAY.
func (w *NsonWriter) EndArray() { w.endComposite() }

// Key writes the field key of the next value. Only legal directly
// inside a MAP.
func (w *NsonWriter) Key(key string) { w.enc.String(key) }

// StartMapField begins a MAP value under key.
func (w *NsonWriter) StartMapField(key string) {
	w.Key(key)
	w.StartMap()
}

// StartArrayField begins an ARRAY value under key.
func (w *NsonWriter) StartArrayField(key string) {
	w.Key(key)
	w.StartArray()
}

func (w *NsonWriter) scalar(tc TypeCode) {
	w.incr()
	w.enc.Byte(byte(tc))
}

// WriteInt writes an INTEGER value.
func (w *NsonWriter) WriteInt(v int) {
	w.scalar(TypeInteger)
	w.enc.PackedInt(v)
}

// WriteLong writes a LONG value.
func (w *NsonWriter) WriteLong(v int64) {
	w.scalar(TypeLong)
	w.enc.PackedLong(v)
}

// WriteDouble writes a DOUBLE value.
func (w *NsonWriter) WriteDouble(v float64) {
	w.scalar(TypeDouble)
	w.enc.Float64(v)
}

// WriteBoolean writes a BOOLEAN value.
func (w *NsonWriter) WriteBoolean(v bool) {
	w.scalar(TypeBoolean)
	w.enc.Bool(v)
}

// WriteString writes a STRING value.
func (w *NsonWriter) WriteString(v string) {
	w.scalar(TypeString)
	w.enc.String(v)
}

// WriteBinary writes a BINARY value.
func (w *NsonWriter) WriteBinary(v []byte) {
	w.scalar(TypeBinary)
	w.enc.Binary(v)
}

// WriteTimestamp writes a TIMESTAMP value.
func (w *NsonWriter) WriteTimestamp(v time.Time) {
	w.scalar(TypeTimestamp)
	w.enc.Date(v)
}

// WriteNumber writes a NUMBER value from its decimal string form.
func (w *NsonWriter) WriteNumber(v string) {
	w.scalar(TypeNumber)
	w.enc.String(v)
}

// Field-typed helpers: key then value.

// WriteIntField writes key and an INTEGER value.
func (w *NsonWriter) WriteIntField(key string, v int) { w.Key(key); w.WriteInt(v) }

// WriteLongField writes key and a LONG value.
func (w *NsonWriter) WriteLongField(key string, v int64) { w.Key(key); w.WriteLong(v) }

// WriteDoubleField writes key and a DOUBLE value.
func (w *NsonWriter) WriteDoubleField(key string, v float64) { w.Key(key); w.WriteDouble(v) }

// WriteBooleanField writes key and a BOOLEAN value.
func (w *NsonWriter) WriteBooleanField(key string, v bool) { w.Key(key); w.WriteBoolean(v) }

// WriteStringField writes key and a STRING value.
func (w *NsonWriter) WriteStringField(key string, v string) { w.Key(key); w.WriteString(v) }

// WriteBinaryField writes key and a BINARY value.
func (w *NsonWriter) WriteBinaryField(key string, v []byte) { w.Key(key); w.WriteBinary(v) }

// WriteTimestampField writes key and a TIMESTAMP value.
func (w *NsonWriter) WriteTimestampField(key string, v time.Time) { w.Key(key); w.WriteTimestamp(v) }

// WriteValue writes an arbitrary FieldValue. Map entries serialize in
// insertion order unless sorted is set.
func (w *NsonWriter) WriteValue(v types.FieldValue, sorted bool) error {
	tc, err := TypeCodeOf(v)
	if err != nil {
		return err
	}
	switch tc {
	case TypeJSONNull, TypeNull, TypeEmpty:
		w.scalar(tc)
	case TypeBoolean:
		w.WriteBoolean(v.(bool))
	case TypeInteger:
		w.WriteInt(asInt(v))
	case TypeLong:
		w.WriteLong(asLong(v))
	case TypeDouble:
		w.WriteDouble(v.(float64))
	case TypeString:
		w.WriteString(v.(string))
	case TypeTimestamp:
		w.WriteTimestamp(v.(time.Time))
	case TypeNumber:
		w.WriteNumber(NumberString(v))
	case TypeBinary:
		w.WriteBinary(v.([]byte))
	case TypeArray:
		w.StartArray()
		for _, elem := range v.([]types.FieldValue) {
			if err := w.WriteValue(elem, sorted); err != nil {
				return err
			}
		}
		w.EndArray()
	case TypeMap:
		m := v.(*types.MapValue)
		w.StartMap()
		keys := m.Keys()
		if sorted {
			keys = m.SortedKeys()
		}
		for _, k := range keys {
			mv, _ := m.Get(k)
			w.Key(k)
			if err := w.WriteValue(mv, sorted); err != nil {
				return err
			}
		}
		w.EndMap()
	}
	return nil
}

// WriteValueField writes key and an arbitrary FieldValue.
func (w *NsonWriter) WriteValueField(key string, v types.FieldValue, sorted bool) error {
	w.Key(key)
	return w.WriteValue(v, sorted)
}

type nsonReaderFrame struct {
	typ      TypeCode
	byteLen  int
	start    int // offset directly after the length field
	declared int
	consumed int
}

// NsonReader walks an NSON message depth-first. Next advances to the
// next value of the innermost composite (reading its key when inside a
// map); the caller then consumes the value with a typed accessor,
// enters it with Enter, or skips it with SkipValue. When a frame's
// values are exhausted Next pops it and verifies that the bytes
// consumed match the declared byte length.
type NsonReader struct {
	dec   *encoding.Decoder
	stack []nsonReaderFrame
	typ   TypeCode
	key   string
	root  bool // root value already delivered
}

// NewNsonReader creates a reader on top of d.
func NewNsonReader(d *encoding.Decoder) *NsonReader {
	return &NsonReader{dec: d}
}

// Type returns the type code of the current value.
func (r *NsonReader) Type() TypeCode { return r.typ }

// Key returns the field key of the current value; empty outside maps.
func (r *NsonReader) Key() string { return r.key }

// Depth returns the current composite nesting depth.
func (r *NsonReader) Depth() int { return len(r.stack) }

// Next advances to the next value. It returns false without error when
// the innermost composite is exhausted (popping it), or at the end of
// the root value.
func (r *NsonReader) Next() (bool, error) {
	if len(r.stack) == 0 {
		if r.root {
			return false, nil
		}
		r.root = true
		r.key = ""
		r.typ = TypeCode(r.dec.Byte())
		return true, r.dec.Error()
	}
	top := &r.stack[len(r.stack)-1]
	if top.consumed == top.declared {
		if got := r.dec.Pos() - top.start; got != top.byteLen {
			return false, fmt.Errorf("composite length mismatch: declared %d consumed %d", top.byteLen, got)
		}
		r.stack = r.stack[:len(r.stack)-1]
		return false, nil
	}
	top.consumed++
	r.key = ""
	if top.typ == TypeMap {
		r.key = r.dec.NonNullString()
	}
	r.typ = TypeCode(r.dec.Byte())
	return true, r.dec.Error()
}

// Enter pushes a frame for the current MAP or ARRAY value.
func (r *NsonReader) Enter() error {
	if r.typ != TypeMap && r.typ != TypeArray {
		return fmt.Errorf("cannot enter scalar type %s", r.typ)
	}
	byteLen := int(r.dec.Int32())
	start := r.dec.Pos()
	declared := int(r.dec.Int32())
	if err := r.dec.Error(); err != nil {
		return err
	}
	if byteLen < 4 || declared < 0 || declared > MaxElemCount {
		return fmt.Errorf("invalid composite header: length %d count %d", byteLen, declared)
	}
	r.stack = append(r.stack, nsonReaderFrame{typ: r.typ, byteLen: byteLen, start: start, declared: declared})
	return nil
}

// SkipValue skips the current value of any type, including nested
// composites (by jumping over their declared byte length).
func (r *NsonReader) SkipValue() error {
	switch r.typ {
	case TypeJSONNull, TypeNull, TypeEmpty:
		return nil
	case TypeBoolean:
		r.dec.Byte()
	case TypeInteger:
		r.dec.PackedInt()
	case TypeLong:
		r.dec.PackedLong()
	case TypeDouble:
		r.dec.Float64()
	case TypeString, TypeTimestamp, TypeNumber:
		r.dec.String()
	case TypeBinary:
		r.dec.Binary()
	case TypeMap, TypeArray:
		byteLen := int(r.dec.Int32())
		if byteLen < 4 {
			return fmt.Errorf("invalid composite length %d", byteLen)
		}
		r.dec.Skip(byteLen)
	default:
		return fmt.Errorf("cannot skip unknown type code %d", r.typ)
	}
	return r.dec.Error()
}

func (r *NsonReader) expect(tc TypeCode) error {
	if r.typ != tc {
		return fmt.Errorf("unexpected wire type %s, want %s", r.typ, tc)
	}
	return nil
}

// Int consumes the current INTEGER value.
func (r *NsonReader) Int() (int, error) {
	if err := r.expect(TypeInteger); err != nil {
		return 0, err
	}
	v := r.dec.PackedInt()
	return v, r.dec.Error()
}

// Long consumes the current LONG or INTEGER value.
func (r *NsonReader) Long() (int64, error) {
	if r.typ == TypeInteger {
		v := r.dec.PackedInt()
		return int64(v), r.dec.Error()
	}
	if err := r.expect(TypeLong); err != nil {
		return 0, err
	}
	v := r.dec.PackedLong()
	return v, r.dec.Error()
}

// Double consumes the current DOUBLE value.
func (r *NsonReader) Double() (float64, error) {
	if err := r.expect(TypeDouble); err != nil {
		return 0, err
	}
	v := r.dec.Float64()
	return v, r.dec.Error()
}

// Boolean consumes the current BOOLEAN value.
func (r *NsonReader) Boolean() (bool, error) {
	if err := r.expect(TypeBoolean); err != nil {
		return false, err
	}
	v := r.dec.Bool()
	return v, r.dec.Error()
}

// String consumes the current STRING value.
func (r *NsonReader) String() (string, error) {
	if err := r.expect(TypeString); err != nil {
		return "", err
	}
	s, _ := r.dec.String()
	return s, r.dec.Error()
}

// Binary consumes the current BINARY value.
func (r *NsonReader) Binary() ([]byte, error) {
	if err := r.expect(TypeBinary); err != nil {
		return nil, err
	}
	p := r.dec.Binary()
	return p, r.dec.Error()
}

// Timestamp consumes the current TIMESTAMP value.
func (r *NsonReader) Timestamp() (time.Time, error) {
	if err := r.expect(TypeTimestamp); err != nil {
		return time.Time{}, err
	}
	return r.dec.Date()
}

// Value consumes the current value of any type as a FieldValue.
func (r *NsonReader) Value() (types.FieldValue, error) {
	switch r.typ {
	case TypeJSONNull:
		return nil, nil
	case TypeNull:
		return types.NullValue{}, nil
	case TypeEmpty:
		return types.EmptyValue{}, nil
	case TypeBoolean:
		return r.Boolean()
	case TypeInteger:
		return r.Int()
	case TypeLong:
		return r.Long()
	case TypeDouble:
		return r.Double()
	case TypeString:
		return r.String()
	case TypeTimestamp:
		return r.Timestamp()
	case TypeNumber:
		s, _ := r.dec.String()
		if err := r.dec.Error(); err != nil {
			return nil, err
		}
		return ParseNumber(s)
	case TypeBinary:
		return r.Binary()
	case TypeArray:
		if err := r.Enter(); err != nil {
			return nil, err
		}
		a := []types.FieldValue{}
		for {
			ok, err := r.Next()
			if err != nil {
				return nil, err
			}
			if !ok {
				return a, nil
			}
			elem, err := r.Value()
			if err != nil {
				return nil, err
			}
			a = append(a, elem)
		}
	case TypeMap:
		if err := r.Enter(); err != nil {
			return nil, err
		}
		m := types.NewMapValue()
		for {
			ok, err := r.Next()
			if err != nil {
				return nil, err
			}
			if !ok {
				return m, nil
			}
			k := r.Key()
			v, err := r.Value()
			if err != nil {
				return nil, err
			}
			m.Put(k, v)
		}
	default:
		return nil, fmt.Errorf("unknown wire type code %d", r.typ)
	}
}

// MapValue consumes the current MAP value.
func (r *NsonReader) MapValue() (*types.MapValue, error) {
	if err := r.expect(TypeMap); err != nil {
		return nil, err
	}
	v, err := r.Value()
	if err != nil {
		return nil, err
	}
	return v.(*types.MapValue), nil
}
