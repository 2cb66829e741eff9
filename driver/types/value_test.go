// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"math/big"
	"reflect"
	"testing"
	"time"
)

func TestMapValueOrder(t *testing.T) {
	m := NewMapValue()
	m.Put("c", 1).Put("a", 2).Put("b", 3)
	if got := m.Keys(); !reflect.DeepEqual(got, []string{"c", "a", "b"}) {
		t.Fatalf("insertion order: %v", got)
	}
	if got := m.SortedKeys(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("sorted order: %v", got)
	}
	// overwriting keeps the original position
	m.Put("c", 9)
	if got := m.Keys(); !reflect.DeepEqual(got, []string{"c", "a", "b"}) {
		t.Fatalf("order after overwrite: %v", got)
	}
	if v, ok := m.Get("c"); !ok || v != 9 {
		t.Fatalf("overwritten value: %v, %v", v, ok)
	}
}

func TestMapValueDelete(t *testing.T) {
	m := NewMapValue()
	m.Put("a", 1).Put("b", 2).Put("c", 3)
	m.Delete("b")
	if got := m.Keys(); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Fatalf("keys after delete: %v", got)
	}
	if _, ok := m.Get("b"); ok {
		t.Fatal("deleted key still present")
	}
	m.Delete("missing") // no-op
	if m.Len() != 2 {
		t.Fatalf("len: %d", m.Len())
	}
}

func TestNewMapValueFrom(t *testing.T) {
	m := NewMapValueFrom(map[string]FieldValue{"z": 1, "a": 2})
	if got := m.Keys(); !reflect.DeepEqual(got, []string{"a", "z"}) {
		t.Fatalf("keys: %v", got)
	}
}

func TestMapValueRange(t *testing.T) {
	m := NewMapValue()
	m.Put("a", 1).Put("b", 2).Put("c", 3)
	var visited []string
	m.Range(func(k string, v FieldValue) bool {
		visited = append(visited, k)
		return k != "b"
	})
	if !reflect.DeepEqual(visited, []string{"a", "b"}) {
		t.Fatalf("range stop: %v", visited)
	}
}

func TestEqual(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		a, b FieldValue
		want bool
	}{
		{nil, nil, true},
		{nil, NullValue{}, false},
		{NullValue{}, NullValue{}, true},
		{EmptyValue{}, EmptyValue{}, true},
		{1, 1, true},
		{1, int64(1), true},
		{int32(1), 1, true},
		{1, big.NewInt(1), true},
		{1, 2, false},
		{1, 1.0, false},
		{1.5, 1.5, true},
		{"a", "a", true},
		{"a", "b", false},
		{ts, ts.In(time.FixedZone("x", 3600)), true},
		{[]byte{1, 2}, []byte{1, 2}, true},
		{[]byte{1, 2}, []byte{1, 3}, false},
		{new(big.Rat).SetFrac64(1, 2), new(big.Rat).SetFrac64(2, 4), true},
		{[]FieldValue{1, "a"}, []FieldValue{1, "a"}, true},
		{[]FieldValue{1}, []FieldValue{1, 2}, false},
		{NewMapValue().Put("a", 1), NewMapValue().Put("a", int64(1)), true},
		{NewMapValue().Put("a", 1), NewMapValue().Put("b", 1), false},
		{struct{}{}, struct{}{}, false},
	}
	for _, tt := range tests {
		if got := Equal(tt.a, tt.b); got != tt.want {
			t.Fatalf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestDurabilityWireByte(t *testing.T) {
	if got := (Durability{}).WireByte(); got != 0 {
		t.Fatalf("zero durability: %#x", got)
	}
	d := Durability{MasterSync: SyncPolicySync, ReplicaSync: SyncPolicyNoSync, ReplicaAck: ReplicaAckSimpleMajority}
	b := d.WireByte()
	if got := DurabilityFromWire(b); got != d {
		t.Fatalf("round trip: got %+v, want %+v", got, d)
	}
	if !((Durability{}).IsZero()) || d.IsZero() {
		t.Fatal("IsZero")
	}
}

func TestTTL(t *testing.T) {
	var unset TimeToLive
	if unset.IsSet() {
		t.Fatal("zero TTL reported set")
	}
	if err := unset.Validate(); err != nil {
		t.Fatalf("unset validate: %v", err)
	}
	if DoNotExpire.Duration() != 0 {
		t.Fatal("DoNotExpire duration")
	}
	if got := TTLOf(5, Hours).Duration(); got != 5*time.Hour {
		t.Fatalf("hours duration: %v", got)
	}
	if got := TTLOf(2, Days).Duration(); got != 48*time.Hour {
		t.Fatalf("days duration: %v", got)
	}
	if err := TTLOf(-1, Days).Validate(); err == nil {
		t.Fatal("negative TTL accepted")
	}
	if err := (TimeToLive{Value: 1, Unit: TTLUnit(7)}).Validate(); err == nil {
		t.Fatal("invalid unit accepted")
	}
	if got := TTLOf(3, Days).String(); got != "3 Days" {
		t.Fatalf("string: %q", got)
	}
}

func TestFieldRangeValidate(t *testing.T) {
	if err := (&FieldRange{Start: 1}).Validate(); err == nil {
		t.Fatal("missing field path accepted")
	}
	if err := (&FieldRange{FieldPath: "id"}).Validate(); err == nil {
		t.Fatal("unbounded range accepted")
	}
	if err := (&FieldRange{FieldPath: "id", End: 5}).Validate(); err != nil {
		t.Fatalf("valid range rejected: %v", err)
	}
}

func TestParseEnums(t *testing.T) {
	if c, err := ParseConsistency("Absolute"); err != nil || c != Absolute {
		t.Fatalf("consistency: %v, %v", c, err)
	}
	if _, err := ParseConsistency("bogus"); err == nil {
		t.Fatal("bogus consistency accepted")
	}
	if s, err := ParseTableState("Dropping"); err != nil || s != Dropping {
		t.Fatalf("table state: %v, %v", s, err)
	}
	if _, err := ParseTableState("bogus"); err == nil {
		t.Fatal("bogus table state accepted")
	}
	if !Active.IsTerminal() || !Dropped.IsTerminal() || Creating.IsTerminal() || Updating.IsTerminal() {
		t.Fatal("terminal states")
	}
}
