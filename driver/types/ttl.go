// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"fmt"
	"time"
)

// TTLUnit is the time unit of a TimeToLive.
type TTLUnit int

// TTLUnit wire values.
const (
	Hours TTLUnit = 1
	Days  TTLUnit = 2
)

func (u TTLUnit) String() string {
	switch u {
	case Hours:
		return "Hours"
	case Days:
		return "Days"
	default:
		return fmt.Sprintf("TTLUnit(%d)", int(u))
	}
}

// TimeToLive is the time to live of a row: a non-negative number of
// hours or days. The zero value means "unset" (use the table default),
// encoded as -1 on the wire. DoNotExpire marks a row as never expiring,
// encoded as (0, Days).
type TimeToLive struct {
	Value int64
	Unit  TTLUnit
}

// DoNotExpire is the infinite TTL sentinel.
var DoNotExpire = TimeToLive{Value: 0, Unit: Days}

// TTLOf returns a TimeToLive of value units.
func TTLOf(value int64, unit TTLUnit) TimeToLive { return TimeToLive{Value: value, Unit: unit} }

// IsSet reports whether the TTL was specified at all.
func (t TimeToLive) IsSet() bool { return t.Unit != 0 }

// Validate checks value range and unit.
func (t TimeToLive) Validate() error {
	if !t.IsSet() {
		return nil
	}
	if t.Unit != Hours && t.Unit != Days {
		return fmt.Errorf("invalid TTL unit %d", int(t.Unit))
	}
	if t.Value < 0 {
		return fmt.Errorf("invalid TTL value %d", t.Value)
	}
	return nil
}

// Duration returns the TTL as a duration, 0 if unset or infinite.
func (t TimeToLive) Duration() time.Duration {
	if !t.IsSet() {
		return 0
	}
	switch t.Unit {
	case Hours:
		return time.Duration(t.Value) * time.Hour
	default:
		return time.Duration(t.Value) * 24 * time.Hour
	}
}

func (t TimeToLive) String() string {
	if !t.IsSet() {
		return "unset"
	}
	if t == DoNotExpire {
		return "never"
	}
	return fmt.Sprintf("%d %s", t.Value, t.Unit)
}

// FieldRange is a bounded interval over one column of a composite
// primary key, used by multi-delete. Either bound may be absent (nil);
// each present bound is inclusive or exclusive.
type FieldRange struct {
	FieldPath      string
	Start          FieldValue
	End            FieldValue
	StartInclusive bool
	EndInclusive   bool
}

// Validate checks that the range names a field and has at least one
// bound.
func (r *FieldRange) Validate() error {
	if r.FieldPath == "" {
		return fmt.Errorf("field range requires a field path")
	}
	if r.Start == nil && r.End == nil {
		return fmt.Errorf("field range requires at least one bound")
	}
	return nil
}
