// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

// Package types defines the value model of the NoSQL driver: the
// polymorphic FieldValue row-cell type, ordered maps, row versions and
// the enumerations shared by requests and results.
package types

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"
	"time"
)

/*
FieldValue is the polymorphic row-cell type. Accepted dynamic types:

	nil                 JSON null
	NullValue           SQL null (driver null)
	EmptyValue          query EMPTY sentinel (internal)
	bool                BOOLEAN
	int                 INTEGER or LONG depending on magnitude
	int32               INTEGER
	int64               LONG
	float64             DOUBLE
	*big.Int            LONG (arbitrary precision, NUMBER on overflow)
	*big.Rat            NUMBER (arbitrary precision decimal)
	string              STRING
	time.Time           TIMESTAMP
	[]byte              BINARY
	[]FieldValue        ARRAY
	*MapValue           MAP

Any other dynamic type is rejected at serialization time.
*/
type FieldValue any

// NullValue is the driver-side SQL null, distinct from JSON null.
type NullValue struct{}

// EmptyValue is the distinguished EMPTY sentinel used by the query
// engine for non-existing values. It never appears in stored rows.
type EmptyValue struct{}

// Version is the opaque byte string identifying a row revision, used
// for compare-and-set put/delete.
type Version []byte

// MapValue is an insertion-ordered map of string to FieldValue. The
// zero value is not usable; create instances with NewMapValue.
type MapValue struct {
	keys   []string
	values map[string]FieldValue
}

// NewMapValue creates an empty MapValue.
func NewMapValue() *MapValue {
	return &MapValue{values: map[string]FieldValue{}}
}

// NewMapValueFrom creates a MapValue from a plain map. Keys are sorted
// to make the insertion order deterministic.
func NewMapValueFrom(m map[string]FieldValue) *MapValue {
	mv := NewMapValue()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		mv.Put(k, m[k])
	}
	return mv
}

// Len returns the number of entries.
func (m *MapValue) Len() int { return len(m.keys) }

// Put sets key to value, appending the key on first insertion.
func (m *MapValue) Put(key string, value FieldValue) *MapValue {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
	return m
}

// Get returns the value stored under key.
func (m *MapValue) Get(key string) (FieldValue, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Delete removes key.
func (m *MapValue) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order. The slice is shared; do
// not modify.
func (m *MapValue) Keys() []string { return m.keys }

// SortedKeys returns the keys in ascending byte order.
func (m *MapValue) SortedKeys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	sort.Strings(keys)
	return keys
}

// Range calls fn for each entry in insertion order until fn returns
// false.
func (m *MapValue) Range(fn func(key string, value FieldValue) bool) {
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

func (m *MapValue) String() string {
	var sb bytes.Buffer
	sb.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%q:%v", k, m.values[k])
	}
	sb.WriteByte('}')
	return sb.String()
}

// Equal reports deep equality of two field values, with numeric types
// compared within their own kind.
func Equal(a, b FieldValue) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case NullValue:
		_, ok := b.(NullValue)
		return ok
	case EmptyValue:
		_, ok := b.(EmptyValue)
		return ok
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case int:
		return intEqual(int64(av), b)
	case int32:
		return intEqual(int64(av), b)
	case int64:
		return intEqual(av, b)
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case *big.Int:
		if bv, ok := b.(*big.Int); ok {
			return av.Cmp(bv) == 0
		}
		return intEqualBig(av, b)
	case *big.Rat:
		bv, ok := b.(*big.Rat)
		return ok && av.Cmp(bv) == 0
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	case []FieldValue:
		bv, ok := b.([]FieldValue)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case *MapValue:
		bv, ok := b.(*MapValue)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		equal := true
		av.Range(func(k string, v FieldValue) bool {
			ov, ok := bv.Get(k)
			if !ok || !Equal(v, ov) {
				equal = false
				return false
			}
			return true
		})
		return equal
	default:
		return false
	}
}

func intEqual(a int64, b FieldValue) bool {
	switch bv := b.(type) {
	case int:
		return a == int64(bv)
	case int32:
		return a == int64(bv)
	case int64:
		return a == bv
	case *big.Int:
		return bv.IsInt64() && bv.Int64() == a
	default:
		return false
	}
}

func intEqualBig(a *big.Int, b FieldValue) bool {
	if !a.IsInt64() {
		return false
	}
	return intEqual(a.Int64(), b)
}
