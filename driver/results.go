// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"time"

	"github.com/SAP/go-nosql/driver/types"
)

// Capacity is the throughput consumed by one operation. WriteUnits
// always equals WriteKB. The rate-limit delay fields report how long
// client-side rate limiting slowed this operation down; they are zero
// unless rate limiting is enabled.
type Capacity struct {
	ReadUnits  int
	ReadKB     int
	WriteUnits int
	WriteKB    int

	ReadRateLimitDelay  time.Duration
	WriteRateLimitDelay time.Duration
}

// Result is implemented by all operation results.
type Result interface {
	// Consumed returns the capacity consumed by the operation.
	Consumed() *Capacity
}

// resultBase carries the consumed capacity common to all results.
type resultBase struct {
	Capacity Capacity
}

// Consumed implements the Result interface.
func (r *resultBase) Consumed() *Capacity { return &r.Capacity }

// GetResult is the result of Client.Get. Row is nil when the key does
// not exist.
type GetResult struct {
	resultBase
	Row *types.MapValue
	// Version identifies the row revision, for conditional put/delete.
	Version types.Version
	// ExpirationTime is ms since epoch; 0 means the row does not
	// expire.
	ExpirationTime int64
	// ModificationTime is ms since epoch. Only reported by V3+
	// servers.
	ModificationTime int64
}

// PutResult is the result of Client.Put. On a failed conditional put,
// Version is nil; with ReturnRow set the existing row is reported.
type PutResult struct {
	resultBase
	// Version is the new row version; nil when a conditional put did
	// not apply.
	Version types.Version
	// GeneratedValue carries the value filled in by an identity column
	// or generated UUID column, if any.
	GeneratedValue types.FieldValue

	ExistingValue            *types.MapValue
	ExistingVersion          types.Version
	ExistingModificationTime int64
}

// Success reports whether the put was applied.
func (r *PutResult) Success() bool { return r.Version != nil }

// DeleteResult is the result of Client.Delete.
type DeleteResult struct {
	resultBase
	// Success reports whether a row was deleted.
	Success bool

	ExistingValue            *types.MapValue
	ExistingVersion          types.Version
	ExistingModificationTime int64
}

// MultiDeleteResult is the result of Client.MultiDelete. A non-nil
// ContinuationKey means the range was not exhausted within the size
// limit and the request should be re-issued with it.
type MultiDeleteResult struct {
	resultBase
	NumDeleted      int
	ContinuationKey []byte
}

// OperationResult is the per-entry result of a WriteMultiple batch.
type OperationResult struct {
	Success                  bool
	Version                  types.Version
	GeneratedValue           types.FieldValue
	ExistingValue            *types.MapValue
	ExistingVersion          types.Version
	ExistingModificationTime int64
}

// WriteMultipleResult is the result of Client.WriteMultiple. On an
// aborted batch Results is nil and the failing entry is reported.
type WriteMultipleResult struct {
	resultBase
	Results []OperationResult
	// FailedOperationIndex is -1 on success.
	FailedOperationIndex  int
	FailedOperationResult *OperationResult
}

// Success reports whether every entry of the batch was applied.
func (r *WriteMultipleResult) Success() bool { return r.FailedOperationIndex < 0 }

// PrepareResult is the result of Client.Prepare.
type PrepareResult struct {
	resultBase
	PreparedStatement *PreparedStatement
}

// QueryResult is one batch of query results. A nil ContinuationKey
// means the query is complete; otherwise the key must be set on the
// next QueryRequest verbatim.
type QueryResult struct {
	resultBase
	Rows            []*types.MapValue
	ContinuationKey *ContinuationKey
	// ReachedLimit reports that the batch stopped on a size limit
	// rather than exhaustion.
	ReachedLimit bool
}

// TableLimits is the provisioned throughput and storage of a table. In
// on-demand capacity mode only StorageGB is meaningful.
type TableLimits struct {
	ReadUnits  int
	WriteUnits int
	StorageGB  int
	Mode       types.CapacityMode
}

// TableResult describes a table: its state, limits and schema. DDL
// operations return it with an OperationID usable for GetTable
// polling.
type TableResult struct {
	resultBase
	TableName   string
	Namespace   string
	State       types.TableState
	Limits      *TableLimits
	Schema      string
	DDL         string
	OperationID string
}

// IndexInfo describes one index of a table.
type IndexInfo struct {
	IndexName  string
	FieldNames []string
}

// GetIndexesResult is the result of Client.GetIndexes.
type GetIndexesResult struct {
	resultBase
	Indexes []IndexInfo
}

// ListTablesResult is one page of table names. LastIndexReturned is
// the StartIndex for the next page.
type ListTablesResult struct {
	resultBase
	Tables            []string
	LastIndexReturned int
}

// TableUsage is one usage sample of a table.
type TableUsage struct {
	StartTime            time.Time
	SecondsInPeriod      int
	ReadUnits            int
	WriteUnits           int
	StorageGB            int
	ReadThrottleCount    int
	WriteThrottleCount   int
	StorageThrottleCount int
}

// TableUsageResult is the result of Client.GetTableUsage.
type TableUsageResult struct {
	resultBase
	TableName         string
	Usage             []TableUsage
	LastIndexReturned int
}

// SystemResult is the result of system requests (on-prem admin DDL).
type SystemResult struct {
	resultBase
	State       types.OperationState
	OperationID string
	Statement   string
	// ResultString is the operation output, e.g. a listing.
	ResultString string
}

// TopologyInfo is the shard topology reported by query responses. A
// higher SeqNum supersedes any cached value.
type TopologyInfo struct {
	SeqNum   int
	ShardIDs []int
}

// ContinuationKey is the opaque query cursor. The exact bytes last
// returned by the server are sent verbatim on the next query of the
// sequence. The virtual form marks a multi-round advanced query that
// must re-enter the driver-side plan before contacting the server.
type ContinuationKey struct {
	bytes   []byte
	virtual bool
}

// NewContinuationKey wraps server-returned cursor bytes.
func NewContinuationKey(b []byte) *ContinuationKey {
	return &ContinuationKey{bytes: b}
}

// Bytes returns the server cursor bytes; nil for the virtual form.
func (ck *ContinuationKey) Bytes() []byte {
	if ck == nil {
		return nil
	}
	return ck.bytes
}
