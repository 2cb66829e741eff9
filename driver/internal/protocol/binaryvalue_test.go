// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/SAP/go-nosql/driver/internal/protocol/encoding"
	"github.com/SAP/go-nosql/driver/types"
)

func TestFieldValueRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   types.FieldValue
	}{
		{"json null", nil},
		{"null", types.NullValue{}},
		{"empty", types.EmptyValue{}},
		{"bool", true},
		{"int", 42},
		{"int negative", -1},
		{"int min32", math.MinInt32},
		{"long", int64(1 << 40)},
		{"int promoted to long", math.MaxInt32 + 1},
		{"double", 1.5},
		{"string", "héllo"},
		{"empty string", ""},
		{"timestamp", time.Date(2024, 3, 1, 12, 30, 0, 250_000_000, time.UTC)},
		{"number", new(big.Rat).SetFrac64(1, 4)},
		{"binary", []byte{1, 2, 3}},
		{"array", []types.FieldValue{1, "two", 3.0}},
		{"map", testMapValue()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := encoding.NewBuffer()
			if err := WriteFieldValue(encoding.NewEncoder(buf), tt.in, false); err != nil {
				t.Fatalf("write: %v", err)
			}
			out, err := ReadFieldValue(encoding.NewDecoder(buf))
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if !types.Equal(out, tt.in) {
				t.Fatalf("round trip: got %v (%T), want %v (%T)", out, out, tt.in, tt.in)
			}
		})
	}
}

func TestFieldValueUnsupportedType(t *testing.T) {
	buf := encoding.NewBuffer()
	err := WriteFieldValue(encoding.NewEncoder(buf), struct{}{}, false)
	if err == nil {
		t.Fatal("unsupported type accepted")
	}
}

func TestTypeCodeOf(t *testing.T) {
	tests := []struct {
		in   types.FieldValue
		want TypeCode
	}{
		{nil, TypeJSONNull},
		{types.NullValue{}, TypeNull},
		{types.EmptyValue{}, TypeEmpty},
		{false, TypeBoolean},
		{1, TypeInteger},
		{math.MaxInt32 + 1, TypeLong},
		{math.MinInt32 - 1, TypeLong},
		{int32(1), TypeInteger},
		{int64(1), TypeLong},
		{1.0, TypeDouble},
		{big.NewInt(1), TypeLong},
		{new(big.Int).Lsh(big.NewInt(1), 80), TypeNumber},
		{new(big.Rat).SetFrac64(1, 3), TypeNumber},
		{"s", TypeString},
		{time.Now(), TypeTimestamp},
		{[]byte{1}, TypeBinary},
		{[]types.FieldValue{}, TypeArray},
		{types.NewMapValue(), TypeMap},
	}
	for _, tt := range tests {
		got, err := TypeCodeOf(tt.in)
		if err != nil {
			t.Fatalf("%T: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("%v (%T): got %s, want %s", tt.in, tt.in, got, tt.want)
		}
	}
}

func TestNumberString(t *testing.T) {
	tests := []struct {
		in   types.FieldValue
		want string
	}{
		{big.NewInt(-7), "-7"},
		{new(big.Rat).SetFrac64(1, 4), "0.25"},
		{new(big.Rat).SetFrac64(3, 1), "3"},
		{new(big.Rat).SetFrac64(1, 8), "0.125"},
	}
	for _, tt := range tests {
		if got := NumberString(tt.in); got != tt.want {
			t.Fatalf("%v: got %q, want %q", tt.in, got, tt.want)
		}
	}
	// non-terminating expansion falls back to fixed precision
	s := NumberString(new(big.Rat).SetFrac64(1, 3))
	r, err := ParseNumber(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	if r.Sign() <= 0 {
		t.Fatalf("1/3 rendered as %q", s)
	}
}

func TestParseNumberInvalid(t *testing.T) {
	if _, err := ParseNumber("12..3"); err == nil {
		t.Fatal("invalid number accepted")
	}
}

func TestSortedMapEncoding(t *testing.T) {
	m := types.NewMapValue()
	m.Put("b", 2)
	m.Put("a", 1)

	buf := encoding.NewBuffer()
	if err := WriteFieldValue(encoding.NewEncoder(buf), m, true); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := ReadFieldValue(encoding.NewDecoder(buf))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	keys := out.(*types.MapValue).Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("sorted keys: %v", keys)
	}
}

func TestCompositeHeaderValidation(t *testing.T) {
	buf := encoding.NewBuffer()
	e := encoding.NewEncoder(buf)
	e.Byte(byte(TypeArray))
	e.Int32(8)
	e.Int32(int32(MaxElemCount + 1))
	if _, err := ReadFieldValue(encoding.NewDecoder(buf)); err == nil {
		t.Fatal("oversized element count accepted")
	}

	buf2 := encoding.NewBuffer()
	e2 := encoding.NewEncoder(buf2)
	e2.Byte(byte(TypeMap))
	e2.Int32(2) // below the minimum of 4
	e2.Int32(0)
	if _, err := ReadFieldValue(encoding.NewDecoder(buf2)); err == nil {
		t.Fatal("undersized byte length accepted")
	}
}

func TestTTLRoundTrip(t *testing.T) {
	tests := []types.TimeToLive{
		{},
		{Value: 5, Unit: types.Days},
		{Value: 12, Unit: types.Hours},
		{Value: 0, Unit: types.Days}, // infinite
	}
	for _, ttl := range tests {
		buf := encoding.NewBuffer()
		WriteTTL(encoding.NewEncoder(buf), ttl)
		got := ReadTTL(encoding.NewDecoder(buf))
		if got != ttl {
			t.Fatalf("round trip: got %v, want %v", got, ttl)
		}
	}
}

func TestCapacityRoundTrip(t *testing.T) {
	in := Capacity{ReadUnits: 2, ReadKB: 1, WriteKB: 3}
	buf := encoding.NewBuffer()
	WriteCapacity(encoding.NewEncoder(buf), in)
	if got := ReadCapacity(encoding.NewDecoder(buf)); got != in {
		t.Fatalf("round trip: got %v, want %v", got, in)
	}
}

func TestRowRoundTrip(t *testing.T) {
	value := types.NewMapValue()
	value.Put("id", 1)
	in := &Row{
		Value:            value,
		ExpirationTime:   1700000000000,
		ModificationTime: 1690000000000,
		Version:          types.Version{9, 9, 9},
	}
	for _, sv := range []int16{SerialV2, SerialV3, SerialV4} {
		buf := encoding.NewBuffer()
		if err := WriteRow(encoding.NewEncoder(buf), in, sv); err != nil {
			t.Fatalf("V%d write: %v", sv, err)
		}
		got, err := ReadRow(encoding.NewDecoder(buf), sv)
		if err != nil {
			t.Fatalf("V%d read: %v", sv, err)
		}
		if !types.Equal(got.Value, in.Value) {
			t.Fatalf("V%d value: %v", sv, got.Value)
		}
		if got.ExpirationTime != in.ExpirationTime {
			t.Fatalf("V%d expiration: %d", sv, got.ExpirationTime)
		}
		wantMod := in.ModificationTime
		if sv < SerialV3 {
			wantMod = 0
		}
		if got.ModificationTime != wantMod {
			t.Fatalf("V%d modification: %d, want %d", sv, got.ModificationTime, wantMod)
		}
		if string(got.Version) != string(in.Version) {
			t.Fatalf("V%d version: %v", sv, got.Version)
		}
	}

	// absent row
	buf := encoding.NewBuffer()
	if err := WriteRow(encoding.NewEncoder(buf), nil, SerialV4); err != nil {
		t.Fatalf("nil write: %v", err)
	}
	got, err := ReadRow(encoding.NewDecoder(buf), SerialV4)
	if err != nil {
		t.Fatalf("nil read: %v", err)
	}
	if got != nil {
		t.Fatalf("absent row decoded as %v", got)
	}
}

func TestWriteFieldRange(t *testing.T) {
	buf := encoding.NewBuffer()
	e := encoding.NewEncoder(buf)
	fr := &types.FieldRange{
		FieldPath:      "id",
		Start:          10,
		StartInclusive: true,
		End:            20,
	}
	if err := WriteFieldRange(e, fr); err != nil {
		t.Fatalf("write: %v", err)
	}

	d := encoding.NewDecoder(buf)
	if !d.Bool() {
		t.Fatal("present flag")
	}
	if s, _ := d.String(); s != "id" {
		t.Fatalf("field path: %q", s)
	}
	if !d.Bool() {
		t.Fatal("start present flag")
	}
	v, err := ReadFieldValue(d)
	if err != nil || v != 10 {
		t.Fatalf("start: %v, %v", v, err)
	}
	if !d.Bool() {
		t.Fatal("start inclusive flag")
	}
	if !d.Bool() {
		t.Fatal("end present flag")
	}
	v, err = ReadFieldValue(d)
	if err != nil || v != 20 {
		t.Fatalf("end: %v, %v", v, err)
	}
	if d.Bool() {
		t.Fatal("end inclusive flag")
	}

	// nil range is a single absent flag
	buf2 := encoding.NewBuffer()
	if err := WriteFieldRange(encoding.NewEncoder(buf2), nil); err != nil {
		t.Fatalf("nil write: %v", err)
	}
	if buf2.Len() != 1 {
		t.Fatalf("nil range length: %d", buf2.Len())
	}
}
