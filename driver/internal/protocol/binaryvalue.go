// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/SAP/go-nosql/driver/internal/protocol/encoding"
	"github.com/SAP/go-nosql/driver/types"
)

// TypeCodeOf classifies a FieldValue into its wire type.
func TypeCodeOf(v types.FieldValue) (TypeCode, error) {
	switch tv := v.(type) {
	case nil:
		return TypeJSONNull, nil
	case types.NullValue:
		return TypeNull, nil
	case types.EmptyValue:
		return TypeEmpty, nil
	case bool:
		return TypeBoolean, nil
	case int:
		if tv >= math.MinInt32 && tv <= math.MaxInt32 {
			return TypeInteger, nil
		}
		return TypeLong, nil
	case int32:
		return TypeInteger, nil
	case int64:
		return TypeLong, nil
	case float64:
		return TypeDouble, nil
	case *big.Int:
		if tv.IsInt64() {
			return TypeLong, nil
		}
		return TypeNumber, nil
	case *big.Rat:
		return TypeNumber, nil
	case types.DecimalAdapter:
		return TypeNumber, nil
	case string:
		return TypeString, nil
	case time.Time:
		return TypeTimestamp, nil
	case []byte:
		return TypeBinary, nil
	case []types.FieldValue:
		return TypeArray, nil
	case *types.MapValue:
		return TypeMap, nil
	default:
		return 0, fmt.Errorf("unsupported field value type %T", v)
	}
}

// NumberString renders an arbitrary-precision value in the wire NUMBER
// format (a decimal string).
func NumberString(v types.FieldValue) string {
	switch tv := v.(type) {
	case *big.Int:
		return tv.String()
	case *big.Rat:
		return ratString(tv)
	case types.DecimalAdapter:
		return tv.StringValue()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ratString renders r as an exact decimal when its expansion is
// finite, with 50 digits of precision otherwise.
func ratString(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	// finite expansion iff the denominator is 2^a * 5^b
	d := new(big.Int).Set(r.Denom())
	scale := 0
	for _, p := range []int64{2, 5} {
		pb := big.NewInt(p)
		m := new(big.Int)
		for {
			q, mod := new(big.Int).QuoRem(d, pb, m)
			if mod.Sign() != 0 {
				break
			}
			d.Set(q)
			scale++
		}
	}
	if d.Cmp(big.NewInt(1)) == 0 {
		return r.FloatString(scale)
	}
	return r.FloatString(50)
}

// ParseNumber parses a wire NUMBER string into a *big.Rat.
func ParseNumber(s string) (*big.Rat, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("invalid number string %q", s)
	}
	return r, nil
}

// WriteFieldValue writes v in the positional binary format: one type
// code byte followed by the type-specific body. Composite values carry
// a 4-byte total byte length and a 4-byte element count. Map entries
// serialize in insertion order unless sorted is set (key-sorted order,
// used by the query engine for grouping columns).
func WriteFieldValue(e *encoding.Encoder, v types.FieldValue, sorted bool) error {
	tc, err := TypeCodeOf(v)
	if err != nil {
		return err
	}
	e.Byte(byte(tc))
	switch tc {
	case TypeJSONNull, TypeNull, TypeEmpty:
		return nil
	case TypeBoolean:
		e.Bool(v.(bool))
	case TypeInteger:
		e.PackedInt(asInt(v))
	case TypeLong:
		e.PackedLong(asLong(v))
	case TypeDouble:
		e.Float64(v.(float64))
	case TypeString:
		e.String(v.(string))
	case TypeTimestamp:
		e.Date(v.(time.Time))
	case TypeNumber:
		e.String(NumberString(v))
	case TypeBinary:
		e.Binary(v.([]byte))
	case TypeArray:
		return writeArrayBody(e, v.([]types.FieldValue), sorted)
	case TypeMap:
		return writeMapBody(e, v.(*types.MapValue), sorted)
	}
	return nil
}

func asInt(v types.FieldValue) int {
	switch tv := v.(type) {
	case int:
		return tv
	case int32:
		return int(tv)
	default:
		return 0
	}
}

func asLong(v types.FieldValue) int64 {
	switch tv := v.(type) {
	case int:
		return int64(tv)
	case int64:
		return tv
	case *big.Int:
		return tv.Int64()
	default:
		return 0
	}
}

// composite body: 4-byte total byte length (count field + elements),
// 4-byte element count, elements. The length is back-patched.
func writeArrayBody(e *encoding.Encoder, a []types.FieldValue, sorted bool) error {
	lenOff := e.Pos()
	e.Int32(0)
	e.Int32(int32(len(a)))
	for _, elem := range a {
		if err := WriteFieldValue(e, elem, sorted); err != nil {
			return err
		}
	}
	e.Buffer().WriteInt32(int32(e.Pos()-lenOff-4), lenOff)
	return nil
}

func writeMapBody(e *encoding.Encoder, m *types.MapValue, sorted bool) error {
	lenOff := e.Pos()
	e.Int32(0)
	e.Int32(int32(m.Len()))
	keys := m.Keys()
	if sorted {
		keys = m.SortedKeys()
	}
	for _, k := range keys {
		v, _ := m.Get(k)
		e.String(k)
		if err := WriteFieldValue(e, v, sorted); err != nil {
			return err
		}
	}
	e.Buffer().WriteInt32(int32(e.Pos()-lenOff-4), lenOff)
	return nil
}

// ReadFieldValue reads a positional binary field value.
func ReadFieldValue(d *encoding.Decoder) (types.FieldValue, error) {
	tc := TypeCode(d.Byte())
	if err := d.Error(); err != nil {
		return nil, err
	}
	switch tc {
	case TypeJSONNull:
		return nil, d.Error()
	case TypeNull:
		return types.NullValue{}, d.Error()
	case TypeEmpty:
		return types.EmptyValue{}, d.Error()
	case TypeBoolean:
		return d.Bool(), d.Error()
	case TypeInteger:
		return d.PackedInt(), d.Error()
	case TypeLong:
		return d.PackedLong(), d.Error()
	case TypeDouble:
		return d.Float64(), d.Error()
	case TypeString:
		s, _ := d.String()
		return s, d.Error()
	case TypeTimestamp:
		t, err := d.Date()
		if err != nil {
			return nil, err
		}
		return t, d.Error()
	case TypeNumber:
		s := d.NonNullString()
		if err := d.Error(); err != nil {
			return nil, err
		}
		return ParseNumber(s)
	case TypeBinary:
		return d.Binary(), d.Error()
	case TypeArray:
		return readArrayBody(d)
	case TypeMap:
		return readMapBody(d)
	default:
		return nil, fmt.Errorf("unknown wire type code %d", tc)
	}
}

func readComposite(d *encoding.Decoder) (count int, err error) {
	byteLen := int(d.Int32())
	count = int(d.Int32())
	if err := d.Error(); err != nil {
		return 0, err
	}
	if byteLen < 4 || count < 0 || count > MaxElemCount {
		return 0, fmt.Errorf("invalid composite header: length %d count %d", byteLen, count)
	}
	return count, nil
}

func readArrayBody(d *encoding.Decoder) (types.FieldValue, error) {
	count, err := readComposite(d)
	if err != nil {
		return nil, err
	}
	a := make([]types.FieldValue, count)
	for i := 0; i < count; i++ {
		if a[i], err = ReadFieldValue(d); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func readMapBody(d *encoding.Decoder) (types.FieldValue, error) {
	count, err := readComposite(d)
	if err != nil {
		return nil, err
	}
	m := types.NewMapValue()
	for i := 0; i < count; i++ {
		k := d.NonNullString()
		v, err := ReadFieldValue(d)
		if err != nil {
			return nil, err
		}
		m.Put(k, v)
	}
	return m, nil
}

// WriteTTL writes a time to live: packed long duration, 1 byte unit.
// Unset encodes as -1; infinity as (0, Days).
func WriteTTL(e *encoding.Encoder, ttl types.TimeToLive) {
	if !ttl.IsSet() {
		e.PackedLong(-1)
		return
	}
	e.PackedLong(ttl.Value)
	e.Byte(byte(ttl.Unit))
}

// ReadTTL reads a time to live.
func ReadTTL(d *encoding.Decoder) types.TimeToLive {
	v := d.PackedLong()
	if v < 0 {
		return types.TimeToLive{}
	}
	return types.TimeToLive{Value: v, Unit: types.TTLUnit(d.Byte())}
}

// WriteDurability writes the single packed durability byte (V3+ only).
func WriteDurability(e *encoding.Encoder, dur types.Durability) {
	e.Byte(dur.WireByte())
}

// WriteFieldRange writes a field range: present flag, then for each
// side a present flag, the bound value and the inclusive flag.
func WriteFieldRange(e *encoding.Encoder, r *types.FieldRange) error {
	if r == nil {
		e.Bool(false)
		return nil
	}
	e.Bool(true)
	e.String(r.FieldPath)
	if r.Start != nil {
		e.Bool(true)
		if err := WriteFieldValue(e, r.Start, false); err != nil {
			return err
		}
		e.Bool(r.StartInclusive)
	} else {
		e.Bool(false)
	}
	if r.End != nil {
		e.Bool(true)
		if err := WriteFieldValue(e, r.End, false); err != nil {
			return err
		}
		e.Bool(r.EndInclusive)
	} else {
		e.Bool(false)
	}
	return nil
}

// Capacity is the consumed-capacity triple parsed after every
// data-path response. WriteUnits always equals WriteKB.
type Capacity struct {
	ReadUnits int
	ReadKB    int
	WriteKB   int
}

// ReadCapacity reads the consumed-capacity triple.
func ReadCapacity(d *encoding.Decoder) Capacity {
	return Capacity{
		ReadUnits: d.PackedInt(),
		ReadKB:    d.PackedInt(),
		WriteKB:   d.PackedInt(),
	}
}

// WriteCapacity writes the consumed-capacity triple. Used by test
// fixtures standing in for the server.
func WriteCapacity(e *encoding.Encoder, c Capacity) {
	e.PackedInt(c.ReadUnits)
	e.PackedInt(c.ReadKB)
	e.PackedInt(c.WriteKB)
}

// Row is a row carried by a read or return-row response.
type Row struct {
	Value            *types.MapValue
	ExpirationTime   int64 // ms since epoch, 0 if the row does not expire
	ModificationTime int64 // ms since epoch, V3+ only
	Version          types.Version
}

// ReadRow reads the row section of a response: a present flag, the row
// as a MAP value, the expiration time, at V3+ the modification time,
// and the row version.
func ReadRow(d *encoding.Decoder, serialVersion int16) (*Row, error) {
	if !d.Bool() {
		return nil, d.Error()
	}
	v, err := ReadFieldValue(d)
	if err != nil {
		return nil, err
	}
	m, ok := v.(*types.MapValue)
	if !ok {
		return nil, fmt.Errorf("row is not a MAP value: %T", v)
	}
	row := &Row{Value: m}
	row.ExpirationTime = d.PackedLong()
	if serialVersion >= SerialV3 {
		row.ModificationTime = d.PackedLong()
	}
	row.Version = d.Binary()
	return row, d.Error()
}

// WriteRow writes the row section. Used by test fixtures.
func WriteRow(e *encoding.Encoder, row *Row, serialVersion int16) error {
	if row == nil {
		e.Bool(false)
		return nil
	}
	e.Bool(true)
	if err := WriteFieldValue(e, row.Value, false); err != nil {
		return err
	}
	e.PackedLong(row.ExpirationTime)
	if serialVersion >= SerialV3 {
		e.PackedLong(row.ModificationTime)
	}
	e.Binary(row.Version)
	return nil
}
