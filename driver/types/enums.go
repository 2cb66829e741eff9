// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package types

import "fmt"

// Consistency is the read consistency of a read operation. The zero
// value means "not set" and inherits the client default.
type Consistency int

// Consistency values.
const (
	UnsetConsistency Consistency = 0
	Eventual         Consistency = 1
	Absolute         Consistency = 2
)

var consistencyStrs = []string{"Unset", "Eventual", "Absolute"}

func (c Consistency) String() string {
	if c < 0 || int(c) >= len(consistencyStrs) {
		return fmt.Sprintf("Consistency(%d)", int(c))
	}
	return consistencyStrs[c]
}

// WireByte returns the 1-byte wire code: Eventual=0, Absolute=1.
func (c Consistency) WireByte() byte {
	if c == Absolute {
		return 1
	}
	return 0
}

// ParseConsistency converts a user-facing name to a Consistency.
func ParseConsistency(s string) (Consistency, error) {
	for i, name := range consistencyStrs[1:] {
		if name == s {
			return Consistency(i + 1), nil
		}
	}
	return 0, fmt.Errorf("invalid consistency %q", s)
}

// CapacityMode is the table limits mode.
type CapacityMode int

// CapacityMode values.
const (
	Provisioned CapacityMode = 1
	OnDemand    CapacityMode = 2
)

func (m CapacityMode) String() string {
	switch m {
	case Provisioned:
		return "Provisioned"
	case OnDemand:
		return "OnDemand"
	default:
		return fmt.Sprintf("CapacityMode(%d)", int(m))
	}
}

// TableState is the lifecycle state of a table.
type TableState int

// TableState values.
const (
	Active   TableState = 0
	Creating TableState = 1
	Dropped  TableState = 2
	Dropping TableState = 3
	Updating TableState = 4
)

var tableStateStrs = []string{"Active", "Creating", "Dropped", "Dropping", "Updating"}

func (s TableState) String() string {
	if s < 0 || int(s) >= len(tableStateStrs) {
		return fmt.Sprintf("TableState(%d)", int(s))
	}
	return tableStateStrs[s]
}

// ParseTableState converts a wire state name to a TableState.
func ParseTableState(s string) (TableState, error) {
	for i, name := range tableStateStrs {
		if name == s {
			return TableState(i), nil
		}
	}
	return 0, fmt.Errorf("invalid table state %q", s)
}

// IsTerminal reports whether no further state transitions can occur
// without another DDL operation.
func (s TableState) IsTerminal() bool { return s == Active || s == Dropped }

// OperationState is the state of a system (admin) operation.
type OperationState int

// OperationState values.
const (
	OperationComplete OperationState = 0
	OperationWorking  OperationState = 1
)

func (s OperationState) String() string {
	switch s {
	case OperationComplete:
		return "Complete"
	case OperationWorking:
		return "Working"
	default:
		return fmt.Sprintf("OperationState(%d)", int(s))
	}
}

// SyncPolicy is the durability sync policy of a commit, on-prem only.
type SyncPolicy int

// SyncPolicy values. The zero value means server default.
const (
	SyncPolicyNone        SyncPolicy = 0
	SyncPolicySync        SyncPolicy = 1
	SyncPolicyNoSync      SyncPolicy = 2
	SyncPolicyWriteNoSync SyncPolicy = 3
)

// ReplicaAckPolicy is the replica acknowledgment policy of a commit,
// on-prem only.
type ReplicaAckPolicy int

// ReplicaAckPolicy values. The zero value means server default.
const (
	ReplicaAckNone           ReplicaAckPolicy = 0
	ReplicaAckAll            ReplicaAckPolicy = 1
	ReplicaAckNoneRequired   ReplicaAckPolicy = 2
	ReplicaAckSimpleMajority ReplicaAckPolicy = 3
)

// Durability is the durability of a write operation: sync policies for
// master and replicas plus the replica acknowledgment policy. The zero
// value means server default and encodes as wire byte 0.
type Durability struct {
	MasterSync  SyncPolicy
	ReplicaSync SyncPolicy
	ReplicaAck  ReplicaAckPolicy
}

// IsZero reports whether d is the server-default durability.
func (d Durability) IsZero() bool {
	return d.MasterSync == 0 && d.ReplicaSync == 0 && d.ReplicaAck == 0
}

// WireByte packs the three 2-bit fields into the single wire byte.
func (d Durability) WireByte() byte {
	return byte(d.MasterSync)&0x3 | (byte(d.ReplicaSync)&0x3)<<2 | (byte(d.ReplicaAck)&0x3)<<4
}

// DurabilityFromWire unpacks the single wire byte.
func DurabilityFromWire(b byte) Durability {
	return Durability{
		MasterSync:  SyncPolicy(b & 0x3),
		ReplicaSync: SyncPolicy((b >> 2) & 0x3),
		ReplicaAck:  ReplicaAckPolicy((b >> 4) & 0x3),
	}
}
