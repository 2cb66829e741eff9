// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	p "github.com/SAP/go-nosql/driver/internal/protocol"
	"github.com/SAP/go-nosql/driver/types"
)

// operation is the static descriptor of one operation kind: its wire
// opcode and the pipeline policy flags.
type operation struct {
	name string
	code p.OpCode
	// neverRetry marks operations the pipeline must not retry (DDL,
	// listings, usage, admin, prepare).
	neverRetry bool
	// rateLimited marks operations subject to per-table rate limiting.
	rateLimited  bool
	reads        bool
	writes       bool
	tableRequest bool // uses the table-request timeout default
}

var (
	opGet           = &operation{name: "Get", code: p.OpGet, rateLimited: true, reads: true}
	opPut           = &operation{name: "Put", code: p.OpPut, rateLimited: true, writes: true}
	opDelete        = &operation{name: "Delete", code: p.OpDelete, rateLimited: true, writes: true}
	opMultiDelete   = &operation{name: "MultiDelete", code: p.OpMultiDelete, rateLimited: true, writes: true}
	opWriteMultiple = &operation{name: "WriteMultiple", code: p.OpWriteMultiple, rateLimited: true, writes: true}
	opPrepare       = &operation{name: "Prepare", code: p.OpPrepare, neverRetry: true, rateLimited: true, reads: true}
	opQuery         = &operation{name: "Query", code: p.OpQuery, rateLimited: true, reads: true}
	opGetTable      = &operation{name: "GetTable", code: p.OpGetTable, neverRetry: true, tableRequest: true}
	opTableRequest  = &operation{name: "TableRequest", code: p.OpTableRequest, neverRetry: true, tableRequest: true}
	opGetIndexes    = &operation{name: "GetIndexes", code: p.OpGetIndexes, neverRetry: true, tableRequest: true}
	opListTables    = &operation{name: "ListTables", code: p.OpListTables, neverRetry: true, tableRequest: true}
	opTableUsage    = &operation{name: "GetTableUsage", code: p.OpGetTableUsage, neverRetry: true, tableRequest: true}
	opSystem        = &operation{name: "SystemRequest", code: p.OpSystemRequest, neverRetry: true, tableRequest: true}
	opSystemStatus  = &operation{name: "SystemStatusRequest", code: p.OpSystemStatusRequest, neverRetry: true, tableRequest: true}
)

// Request is implemented by all operation requests. The exported
// request structs embed requestBase for the pipeline bookkeeping.
type Request interface {
	base() *requestBase
	op() *operation
	// table returns the table name the request addresses, empty when
	// not table-scoped.
	table() string
	setDefaults(cfg *Config)
	validate() error

	serializeBinary(ctx *serialCtx) error
	deserializeBinary(ctx *serialCtx) (Result, error)
	serializeNson(ctx *serialCtx) error
	deserializeNson(ctx *serialCtx) (Result, error)
}

// requestBase is the per-request pipeline state. It is reset on every
// public API call; requests must not be shared across concurrent
// calls.
type requestBase struct {
	timeout     time.Duration
	compartment string
	namespace   string

	lastErr    error
	numRetries int

	doesReads    bool
	doesWrites   bool
	readLimiter  RateLimiter
	writeLimiter RateLimiter
	readDelay    time.Duration
	writeDelay   time.Duration

	// serialVersionUsed is the protocol version the request body was
	// encoded against, for the downgrade race check.
	serialVersionUsed int16
	queryVersionUsed  int16

	backoff backoff.BackOff
}

func (b *requestBase) base() *requestBase { return b }

func (b *requestBase) rateLimited() bool {
	return b.readLimiter != nil || b.writeLimiter != nil
}

func (b *requestBase) reset() {
	*b = requestBase{}
}

// common applies the shared option defaults.
func (b *requestBase) common(cfg *Config, timeout time.Duration, compartment, namespace string, tableReq bool) {
	b.timeout = timeout
	if b.timeout == 0 {
		if tableReq {
			b.timeout = cfg.TableRequestTimeout
		} else {
			b.timeout = cfg.Timeout
		}
	}
	b.compartment = compartment
	if b.compartment == "" {
		b.compartment = cfg.Compartment
	}
	b.namespace = namespace
	if b.namespace == "" {
		b.namespace = cfg.Namespace
	}
}

// GetRequest reads a single row by primary key.
type GetRequest struct {
	requestBase
	TableName   string
	Key         *types.MapValue
	Consistency types.Consistency
	Timeout     time.Duration
	Compartment string
	Namespace   string
}

func (r *GetRequest) op() *operation { return opGet }

func (r *GetRequest) table() string { return r.TableName }

func (r *GetRequest) setDefaults(cfg *Config) {
	r.reset()
	r.common(cfg, r.Timeout, r.Compartment, r.Namespace, false)
	if r.Consistency == types.UnsetConsistency {
		r.Consistency = cfg.Consistency
	}
}

func (r *GetRequest) validate() error {
	if r.TableName == "" {
		return argErrf("Get", "table name must not be empty")
	}
	if r.Key == nil || r.Key.Len() == 0 {
		return argErrf("Get", "key must not be empty")
	}
	return nil
}

// PutOption selects the conditional variant of a put.
type PutOption int

const (
	// PutAlways writes unconditionally.
	PutAlways PutOption = iota
	// PutIfAbsent writes only when no row exists for the key.
	PutIfAbsent
	// PutIfPresent writes only when a row exists for the key.
	PutIfPresent
	// PutIfVersion writes only when the existing row version equals
	// MatchVersion.
	PutIfVersion
)

// PutRequest writes a single row.
type PutRequest struct {
	requestBase
	TableName string
	Value     *types.MapValue
	Option    PutOption
	// MatchVersion is required with PutIfVersion and illegal otherwise.
	MatchVersion types.Version
	// TTL overrides the table default time to live for this row.
	TTL types.TimeToLive
	// UseTableTTL re-applies the table default TTL on update.
	UseTableTTL bool
	// ExactMatch rejects values carrying fields not in the schema.
	ExactMatch bool
	// IdentityCacheSize tunes client-side identity column caching.
	IdentityCacheSize int
	// ReturnRow requests the existing row on a failed conditional put.
	ReturnRow   bool
	Durability  types.Durability
	Timeout     time.Duration
	Compartment string
	Namespace   string
}

func (r *PutRequest) op() *operation {
	o := *opPut
	switch r.Option {
	case PutIfAbsent:
		o.code = p.OpPutIfAbsent
	case PutIfPresent:
		o.code = p.OpPutIfPresent
	case PutIfVersion:
		o.code = p.OpPutIfVersion
	}
	return &o
}

func (r *PutRequest) table() string { return r.TableName }

func (r *PutRequest) setDefaults(cfg *Config) {
	r.reset()
	r.common(cfg, r.Timeout, r.Compartment, r.Namespace, false)
}

func (r *PutRequest) validate() error {
	if r.TableName == "" {
		return argErrf("Put", "table name must not be empty")
	}
	if r.Value == nil || r.Value.Len() == 0 {
		return argErrf("Put", "value must not be empty")
	}
	if r.Option == PutIfVersion && len(r.MatchVersion) == 0 {
		return argErrf("Put", "PutIfVersion requires a match version")
	}
	if r.Option != PutIfVersion && len(r.MatchVersion) != 0 {
		return argErrf("Put", "match version is only legal with PutIfVersion")
	}
	if r.TTL.IsSet() {
		if err := r.TTL.Validate(); err != nil {
			return argErrf("Put", "%v", err)
		}
		if r.UseTableTTL {
			return argErrf("Put", "TTL and UseTableTTL are mutually exclusive")
		}
	}
	return nil
}

// DeleteRequest deletes a single row by primary key.
type DeleteRequest struct {
	requestBase
	TableName string
	Key       *types.MapValue
	// MatchVersion makes the delete conditional on the row version.
	MatchVersion types.Version
	// ReturnRow requests the existing row on a failed conditional
	// delete.
	ReturnRow   bool
	Durability  types.Durability
	Timeout     time.Duration
	Compartment string
	Namespace   string
}

func (r *DeleteRequest) op() *operation {
	o := *opDelete
	if len(r.MatchVersion) != 0 {
		o.code = p.OpDeleteIfVersion
	}
	return &o
}

func (r *DeleteRequest) table() string { return r.TableName }

func (r *DeleteRequest) setDefaults(cfg *Config) {
	r.reset()
	r.common(cfg, r.Timeout, r.Compartment, r.Namespace, false)
}

func (r *DeleteRequest) validate() error {
	if r.TableName == "" {
		return argErrf("Delete", "table name must not be empty")
	}
	if r.Key == nil || r.Key.Len() == 0 {
		return argErrf("Delete", "key must not be empty")
	}
	return nil
}

// MultiDeleteRequest deletes a range of rows sharing a shard key. The
// server bounds the work per call; a returned continuation key must be
// re-submitted to continue. All makes the client loop internally until
// the range is exhausted.
type MultiDeleteRequest struct {
	requestBase
	TableName string
	// Key is the partial (shard) key.
	Key        *types.MapValue
	FieldRange *types.FieldRange
	// MaxWriteKB bounds the write work of one call; 0 means the server
	// default.
	MaxWriteKB      int
	ContinuationKey []byte
	All             bool
	Durability      types.Durability
	Timeout         time.Duration
	Compartment     string
	Namespace       string
}

func (r *MultiDeleteRequest) op() *operation { return opMultiDelete }

func (r *MultiDeleteRequest) table() string { return r.TableName }

func (r *MultiDeleteRequest) setDefaults(cfg *Config) {
	r.reset()
	r.common(cfg, r.Timeout, r.Compartment, r.Namespace, false)
}

func (r *MultiDeleteRequest) validate() error {
	if r.TableName == "" {
		return argErrf("MultiDelete", "table name must not be empty")
	}
	if r.Key == nil || r.Key.Len() == 0 {
		return argErrf("MultiDelete", "key must not be empty")
	}
	if r.MaxWriteKB < 0 {
		return argErrf("MultiDelete", "MaxWriteKB must not be negative")
	}
	if r.FieldRange != nil {
		if err := r.FieldRange.Validate(); err != nil {
			return argErrf("MultiDelete", "%v", err)
		}
	}
	return nil
}

// WriteOperation is one entry of a WriteMultiple batch: exactly one of
// Put or Delete is set.
type WriteOperation struct {
	Put    *PutRequest
	Delete *DeleteRequest
	// AbortOnFail aborts the whole batch when this entry fails.
	AbortOnFail bool
}

// WriteMultipleRequest executes up to 50 put/delete operations on one
// table atomically. All entries must share the table's shard key.
type WriteMultipleRequest struct {
	requestBase
	TableName   string
	Operations  []WriteOperation
	Durability  types.Durability
	Timeout     time.Duration
	Compartment string
	Namespace   string
}

func (r *WriteMultipleRequest) op() *operation { return opWriteMultiple }

func (r *WriteMultipleRequest) table() string { return r.TableName }

func (r *WriteMultipleRequest) setDefaults(cfg *Config) {
	r.reset()
	r.common(cfg, r.Timeout, r.Compartment, r.Namespace, false)
	for i := range r.Operations {
		if sub := r.Operations[i].Put; sub != nil {
			sub.TableName = r.TableName
			sub.setDefaults(cfg)
		}
		if sub := r.Operations[i].Delete; sub != nil {
			sub.TableName = r.TableName
			sub.setDefaults(cfg)
		}
	}
}

func (r *WriteMultipleRequest) validate() error {
	if r.TableName == "" {
		return argErrf("WriteMultiple", "table name must not be empty")
	}
	if len(r.Operations) == 0 {
		return argErrf("WriteMultiple", "operations must not be empty")
	}
	if len(r.Operations) > p.BatchOpNumberLimit {
		return argErrf("WriteMultiple", "too many operations: %d > %d", len(r.Operations), p.BatchOpNumberLimit)
	}
	for i, o := range r.Operations {
		switch {
		case o.Put != nil && o.Delete != nil:
			return argErrf("WriteMultiple", "operation %d sets both put and delete", i)
		case o.Put == nil && o.Delete == nil:
			return argErrf("WriteMultiple", "operation %d sets neither put nor delete", i)
		case o.Put != nil:
			if err := o.Put.validate(); err != nil {
				return err
			}
		default:
			if err := o.Delete.validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// PrepareRequest compiles a query statement for repeated execution.
type PrepareRequest struct {
	requestBase
	Statement string
	// GetQueryPlan requests the server's plan printout alongside the
	// compiled statement.
	GetQueryPlan bool
	Timeout      time.Duration
	Compartment  string
	Namespace    string
}

func (r *PrepareRequest) op() *operation { return opPrepare }

func (r *PrepareRequest) table() string { return "" }

func (r *PrepareRequest) setDefaults(cfg *Config) {
	r.reset()
	r.common(cfg, r.Timeout, r.Compartment, r.Namespace, false)
}

func (r *PrepareRequest) validate() error {
	if r.Statement == "" {
		return argErrf("Prepare", "statement must not be empty")
	}
	return nil
}

// QueryRequest executes a query, either from a statement string or a
// prepared statement. Results arrive in batches; re-issue the request
// with the returned continuation key until it is nil.
type QueryRequest struct {
	requestBase
	Statement         string
	PreparedStatement *PreparedStatement
	// Limit bounds the number of rows per batch; 0 means no limit.
	Limit int
	// MaxReadKB and MaxWriteKB bound the per-batch throughput use.
	MaxReadKB  int
	MaxWriteKB int
	// MaxMemoryConsumption bounds driver-side buffering in bytes.
	MaxMemoryConsumption int64
	Consistency          types.Consistency
	Durability           types.Durability
	ContinuationKey      *ContinuationKey
	// ShardID routes the batch to one shard. Shard ids start at 1;
	// 0 or negative means unset.
	ShardID     int
	Timeout     time.Duration
	Compartment string
	Namespace   string
}

func (r *QueryRequest) op() *operation { return opQuery }

// shardIDWire maps the unset shard id to the wire sentinel -1.
func (r *QueryRequest) shardIDWire() int {
	if r.ShardID <= 0 {
		return -1
	}
	return r.ShardID
}

func (r *QueryRequest) table() string {
	if r.PreparedStatement != nil {
		return r.PreparedStatement.TableName()
	}
	return ""
}

func (r *QueryRequest) setDefaults(cfg *Config) {
	r.reset()
	r.common(cfg, r.Timeout, r.Compartment, r.Namespace, false)
	if r.Consistency == types.UnsetConsistency {
		r.Consistency = cfg.Consistency
	}
}

func (r *QueryRequest) validate() error {
	if r.Statement == "" && r.PreparedStatement == nil {
		return argErrf("Query", "either statement or prepared statement is required")
	}
	if r.Limit < 0 || r.MaxReadKB < 0 || r.MaxWriteKB < 0 {
		return argErrf("Query", "limits must not be negative")
	}
	return nil
}

// GetTableRequest fetches table metadata. With OperationID set it
// reports the progress of that DDL operation.
type GetTableRequest struct {
	requestBase
	TableName   string
	OperationID string
	Timeout     time.Duration
	Compartment string
	Namespace   string
}

func (r *GetTableRequest) op() *operation { return opGetTable }

func (r *GetTableRequest) table() string { return r.TableName }

func (r *GetTableRequest) setDefaults(cfg *Config) {
	r.reset()
	r.common(cfg, r.Timeout, r.Compartment, r.Namespace, true)
}

func (r *GetTableRequest) validate() error {
	if r.TableName == "" {
		return argErrf("GetTable", "table name must not be empty")
	}
	return nil
}

// TableRequest performs table DDL (create/alter/drop, index DDL) via
// Statement, or changes table limits via TableName+Limits. DDL is
// asynchronous; the result carries an operation id for polling.
type TableRequest struct {
	requestBase
	Statement   string
	TableName   string
	Limits      *TableLimits
	Timeout     time.Duration
	Compartment string
	Namespace   string
}

func (r *TableRequest) op() *operation { return opTableRequest }

func (r *TableRequest) table() string { return r.TableName }

func (r *TableRequest) setDefaults(cfg *Config) {
	r.reset()
	r.common(cfg, r.Timeout, r.Compartment, r.Namespace, true)
}

func (r *TableRequest) validate() error {
	if r.Statement == "" && (r.TableName == "" || r.Limits == nil) {
		return argErrf("TableRequest", "either statement or table name with limits is required")
	}
	if r.Statement != "" && r.Limits != nil {
		return argErrf("TableRequest", "statement and limits are mutually exclusive")
	}
	if r.Limits != nil && (r.Limits.ReadUnits < 0 || r.Limits.WriteUnits < 0 || r.Limits.StorageGB < 0) {
		return argErrf("TableRequest", "limits must not be negative")
	}
	return nil
}

// GetIndexesRequest lists the indexes of a table, or one index when
// IndexName is set.
type GetIndexesRequest struct {
	requestBase
	TableName   string
	IndexName   string
	Timeout     time.Duration
	Compartment string
	Namespace   string
}

func (r *GetIndexesRequest) op() *operation { return opGetIndexes }

func (r *GetIndexesRequest) table() string { return r.TableName }

func (r *GetIndexesRequest) setDefaults(cfg *Config) {
	r.reset()
	r.common(cfg, r.Timeout, r.Compartment, r.Namespace, true)
}

func (r *GetIndexesRequest) validate() error {
	if r.TableName == "" {
		return argErrf("GetIndexes", "table name must not be empty")
	}
	return nil
}

// ListTablesRequest lists table names, paged by StartIndex/Limit.
type ListTablesRequest struct {
	requestBase
	StartIndex  int
	Limit       int
	Timeout     time.Duration
	Compartment string
	Namespace   string
}

func (r *ListTablesRequest) op() *operation { return opListTables }

func (r *ListTablesRequest) table() string { return "" }

func (r *ListTablesRequest) setDefaults(cfg *Config) {
	r.reset()
	r.common(cfg, r.Timeout, r.Compartment, r.Namespace, true)
}

func (r *ListTablesRequest) validate() error {
	if r.StartIndex < 0 || r.Limit < 0 {
		return argErrf("ListTables", "start index and limit must not be negative")
	}
	return nil
}

// TableUsageRequest fetches throughput usage samples of a table over a
// time window.
type TableUsageRequest struct {
	requestBase
	TableName   string
	StartTime   time.Time
	EndTime     time.Time
	Limit       int
	StartIndex  int
	Timeout     time.Duration
	Compartment string
	Namespace   string
}

func (r *TableUsageRequest) op() *operation { return opTableUsage }

func (r *TableUsageRequest) table() string { return r.TableName }

func (r *TableUsageRequest) setDefaults(cfg *Config) {
	r.reset()
	r.common(cfg, r.Timeout, r.Compartment, r.Namespace, true)
}

func (r *TableUsageRequest) validate() error {
	if r.TableName == "" {
		return argErrf("GetTableUsage", "table name must not be empty")
	}
	if !r.StartTime.IsZero() && !r.EndTime.IsZero() && r.EndTime.Before(r.StartTime) {
		return argErrf("GetTableUsage", "end time precedes start time")
	}
	if r.Limit < 0 || r.StartIndex < 0 {
		return argErrf("GetTableUsage", "limit and start index must not be negative")
	}
	return nil
}

// SystemRequest executes an on-prem admin DDL statement (users, roles,
// namespaces). Asynchronous like table DDL.
type SystemRequest struct {
	requestBase
	Statement string
	Timeout   time.Duration
}

func (r *SystemRequest) op() *operation { return opSystem }

func (r *SystemRequest) table() string { return "" }

func (r *SystemRequest) setDefaults(cfg *Config) {
	r.reset()
	r.common(cfg, r.Timeout, "", "", true)
}

func (r *SystemRequest) validate() error {
	if r.Statement == "" {
		return argErrf("SystemRequest", "statement must not be empty")
	}
	return nil
}

// SystemStatusRequest polls the progress of a SystemRequest.
type SystemStatusRequest struct {
	requestBase
	OperationID string
	Statement   string
	Timeout     time.Duration
}

func (r *SystemStatusRequest) op() *operation { return opSystemStatus }

func (r *SystemStatusRequest) table() string { return "" }

func (r *SystemStatusRequest) setDefaults(cfg *Config) {
	r.reset()
	r.common(cfg, r.Timeout, "", "", true)
}

func (r *SystemStatusRequest) validate() error {
	if r.OperationID == "" {
		return argErrf("SystemStatusRequest", "operation id must not be empty")
	}
	return nil
}

// limiterKey is the rate-limiter map key of a table name.
func limiterKey(table string) string { return strings.ToLower(table) }
