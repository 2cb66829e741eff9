// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package driver

// Positional binary protocol, serial versions 2 and 3. The request
// body is a 2-byte serial version, a 1-byte opcode and fixed
// per-opcode fields; the response starts with the error code byte,
// zero meaning success.

import (
	"fmt"
	"time"

	p "github.com/SAP/go-nosql/driver/internal/protocol"
	"github.com/SAP/go-nosql/driver/internal/protocol/encoding"
	"github.com/SAP/go-nosql/driver/types"
)

func (ctx *serialCtx) writeBinaryHeader(code p.OpCode) {
	ctx.enc.Int16(ctx.serialVersion)
	ctx.enc.Byte(byte(code))
	ctx.enc.Int32(ctx.timeoutMs())
}

// readBinaryError consumes the leading error code byte and, when
// non-zero, the trailing message. ctx.dec's latched error takes
// precedence (truncated response).
func (ctx *serialCtx) readBinaryError() error {
	code := p.ErrorCode(ctx.dec.Byte())
	if err := ctx.dec.Error(); err != nil {
		return &ProtocolError{Op: ctx.req.op().name, Cause: err}
	}
	if code == 0 {
		return nil
	}
	msg := readOptString(ctx.dec)
	return &ServerError{Code: code, Message: msg}
}

func (ctx *serialCtx) readBinaryCapacity() Capacity {
	c := p.ReadCapacity(ctx.dec)
	return Capacity{
		ReadUnits:  c.ReadUnits,
		ReadKB:     c.ReadKB,
		WriteUnits: c.WriteKB,
		WriteKB:    c.WriteKB,
	}
}

func (ctx *serialCtx) writeDurability(d byte) {
	if ctx.serialVersion >= p.SerialV3 {
		ctx.enc.Byte(d)
	}
}

// Get

func (r *GetRequest) serializeBinary(ctx *serialCtx) error {
	ctx.writeBinaryHeader(r.op().code)
	ctx.enc.String(r.TableName)
	ctx.enc.Byte(r.Consistency.WireByte())
	return p.WriteFieldValue(ctx.enc, r.Key, false)
}

func (r *GetRequest) deserializeBinary(ctx *serialCtx) (Result, error) {
	if err := ctx.readBinaryError(); err != nil {
		return nil, err
	}
	res := &GetResult{}
	res.Capacity = ctx.readBinaryCapacity()
	row, err := p.ReadRow(ctx.dec, ctx.serialVersion)
	if err != nil {
		return nil, err
	}
	if row != nil {
		res.Row = row.Value
		res.Version = row.Version
		res.ExpirationTime = row.ExpirationTime
		res.ModificationTime = row.ModificationTime
	}
	return res, ctx.dec.Error()
}

// Put and Delete share their body serialization with WriteMultiple.

func (r *PutRequest) writeBinaryBody(ctx *serialCtx) error {
	ctx.enc.Bool(r.ReturnRow)
	ctx.enc.Bool(r.ExactMatch)
	ctx.enc.PackedInt(r.IdentityCacheSize)
	if err := p.WriteFieldValue(ctx.enc, r.Value, false); err != nil {
		return err
	}
	ctx.enc.Bool(r.TTL.IsSet() || r.UseTableTTL)
	p.WriteTTL(ctx.enc, r.TTL)
	if r.Option == PutIfVersion {
		ctx.enc.Binary(r.MatchVersion)
	}
	return nil
}

func (r *PutRequest) serializeBinary(ctx *serialCtx) error {
	ctx.writeBinaryHeader(r.op().code)
	ctx.enc.String(r.TableName)
	ctx.writeDurability(r.Durability.WireByte())
	return r.writeBinaryBody(ctx)
}

// readBinaryReturnInfo reads the optional existing-row section of a
// conditional write response.
func readBinaryReturnInfo(ctx *serialCtx) (*p.Row, error) {
	return p.ReadRow(ctx.dec, ctx.serialVersion)
}

func readBinaryWriteResult(ctx *serialCtx) (OperationResult, error) {
	var res OperationResult
	res.Success = ctx.dec.Bool()
	if ctx.dec.Bool() {
		res.Version = ctx.dec.Binary()
	}
	existing, err := readBinaryReturnInfo(ctx)
	if err != nil {
		return res, err
	}
	if existing != nil {
		res.ExistingValue = existing.Value
		res.ExistingVersion = existing.Version
		res.ExistingModificationTime = existing.ModificationTime
	}
	if ctx.dec.Bool() {
		gen, err := p.ReadFieldValue(ctx.dec)
		if err != nil {
			return res, err
		}
		res.GeneratedValue = gen
	}
	return res, ctx.dec.Error()
}

func (r *PutRequest) deserializeBinary(ctx *serialCtx) (Result, error) {
	if err := ctx.readBinaryError(); err != nil {
		return nil, err
	}
	res := &PutResult{}
	res.Capacity = ctx.readBinaryCapacity()
	op, err := readBinaryWriteResult(ctx)
	if err != nil {
		return nil, err
	}
	res.Version = op.Version
	res.GeneratedValue = op.GeneratedValue
	res.ExistingValue = op.ExistingValue
	res.ExistingVersion = op.ExistingVersion
	res.ExistingModificationTime = op.ExistingModificationTime
	return res, ctx.dec.Error()
}

func (r *DeleteRequest) writeBinaryBody(ctx *serialCtx) error {
	ctx.enc.Bool(r.ReturnRow)
	if err := p.WriteFieldValue(ctx.enc, r.Key, false); err != nil {
		return err
	}
	if len(r.MatchVersion) != 0 {
		ctx.enc.Binary(r.MatchVersion)
	}
	return nil
}

func (r *DeleteRequest) serializeBinary(ctx *serialCtx) error {
	ctx.writeBinaryHeader(r.op().code)
	ctx.enc.String(r.TableName)
	ctx.writeDurability(r.Durability.WireByte())
	return r.writeBinaryBody(ctx)
}

func (r *DeleteRequest) deserializeBinary(ctx *serialCtx) (Result, error) {
	if err := ctx.readBinaryError(); err != nil {
		return nil, err
	}
	res := &DeleteResult{}
	res.Capacity = ctx.readBinaryCapacity()
	res.Success = ctx.dec.Bool()
	existing, err := readBinaryReturnInfo(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		res.ExistingValue = existing.Value
		res.ExistingVersion = existing.Version
		res.ExistingModificationTime = existing.ModificationTime
	}
	return res, ctx.dec.Error()
}

// MultiDelete

func (r *MultiDeleteRequest) serializeBinary(ctx *serialCtx) error {
	ctx.writeBinaryHeader(r.op().code)
	ctx.enc.String(r.TableName)
	ctx.writeDurability(r.Durability.WireByte())
	if err := p.WriteFieldValue(ctx.enc, r.Key, false); err != nil {
		return err
	}
	if err := p.WriteFieldRange(ctx.enc, r.FieldRange); err != nil {
		return err
	}
	ctx.enc.PackedInt(r.MaxWriteKB)
	ctx.enc.Binary(r.ContinuationKey)
	return nil
}

func (r *MultiDeleteRequest) deserializeBinary(ctx *serialCtx) (Result, error) {
	if err := ctx.readBinaryError(); err != nil {
		return nil, err
	}
	res := &MultiDeleteResult{}
	res.Capacity = ctx.readBinaryCapacity()
	res.NumDeleted = ctx.dec.PackedInt()
	if ck := ctx.dec.Binary(); len(ck) > 0 {
		res.ContinuationKey = ck
	}
	return res, ctx.dec.Error()
}

// WriteMultiple

func (r *WriteMultipleRequest) serializeBinary(ctx *serialCtx) error {
	ctx.writeBinaryHeader(r.op().code)
	ctx.enc.String(r.TableName)
	ctx.enc.PackedInt(len(r.Operations))
	ctx.writeDurability(r.Durability.WireByte())
	for _, op := range r.Operations {
		ctx.enc.Bool(op.AbortOnFail)
		if sub := op.Put; sub != nil {
			ctx.enc.Byte(byte(sub.op().code))
			if err := sub.writeBinaryBody(ctx); err != nil {
				return err
			}
			continue
		}
		ctx.enc.Byte(byte(op.Delete.op().code))
		if err := op.Delete.writeBinaryBody(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *WriteMultipleRequest) deserializeBinary(ctx *serialCtx) (Result, error) {
	if err := ctx.readBinaryError(); err != nil {
		return nil, err
	}
	res := &WriteMultipleResult{FailedOperationIndex: -1}
	res.Capacity = ctx.readBinaryCapacity()
	if ctx.dec.Bool() { // batch succeeded
		n := ctx.dec.PackedInt()
		if err := ctx.dec.Error(); err != nil {
			return nil, err
		}
		res.Results = make([]OperationResult, n)
		for i := 0; i < n; i++ {
			op, err := readBinaryWriteResult(ctx)
			if err != nil {
				return nil, err
			}
			res.Results[i] = op
		}
		return res, ctx.dec.Error()
	}
	res.FailedOperationIndex = ctx.dec.PackedInt()
	op, err := readBinaryWriteResult(ctx)
	if err != nil {
		return nil, err
	}
	res.FailedOperationResult = &op
	return res, ctx.dec.Error()
}

// Prepare and Query

// readBinaryPrepared reads the prepared-statement section: the opaque
// blob, the optional plan printout, the driver-side plan (unused
// here), two reserved counters and the variable table.
func readBinaryPrepared(ctx *serialCtx, sqlText string) (*PreparedStatement, error) {
	blob := ctx.dec.Binary2()
	queryPlan := readOptString(ctx.dec)
	readOptString(ctx.dec) // driver-side plan, absent for simple queries
	ctx.dec.PackedInt()
	ctx.dec.PackedInt()
	numVars := ctx.dec.PackedInt()
	for i := 0; i < numVars; i++ {
		ctx.dec.NonNullString()
		ctx.dec.PackedInt()
	}
	if err := ctx.dec.Error(); err != nil {
		return nil, err
	}
	return newPreparedStatement(sqlText, blob, queryPlan)
}

func (r *PrepareRequest) serializeBinary(ctx *serialCtx) error {
	ctx.writeBinaryHeader(r.op().code)
	ctx.enc.String(r.Statement)
	ctx.enc.Bool(r.GetQueryPlan)
	return nil
}

func (r *PrepareRequest) deserializeBinary(ctx *serialCtx) (Result, error) {
	if err := ctx.readBinaryError(); err != nil {
		return nil, err
	}
	res := &PrepareResult{}
	res.Capacity = ctx.readBinaryCapacity()
	ps, err := readBinaryPrepared(ctx, r.Statement)
	if err != nil {
		return nil, err
	}
	res.PreparedStatement = ps
	return res, ctx.dec.Error()
}

func (r *QueryRequest) serializeBinary(ctx *serialCtx) error {
	ctx.writeBinaryHeader(r.op().code)
	ctx.enc.Byte(r.Consistency.WireByte())
	ctx.enc.PackedInt(r.Limit)
	ctx.enc.PackedInt(r.MaxReadKB)
	ctx.enc.Binary(r.ContinuationKey.Bytes())
	ctx.enc.Bool(r.PreparedStatement != nil)
	ctx.enc.Int16(ctx.queryVersion)
	ctx.enc.PackedInt(r.MaxWriteKB)
	ctx.enc.PackedLong(r.MaxMemoryConsumption)
	ctx.enc.PackedInt(r.shardIDWire())
	if ps := r.PreparedStatement; ps != nil {
		ctx.enc.Binary2(ps.statement)
		vars := ps.variables()
		ctx.enc.PackedInt(len(vars))
		for _, v := range vars {
			ctx.enc.String(v.name)
			if err := p.WriteFieldValue(ctx.enc, v.value, false); err != nil {
				return err
			}
		}
		return nil
	}
	ctx.enc.String(r.Statement)
	return nil
}

// readBinaryTopology reads the optional topology section: a sequence
// number (-1 absent) and the shard id list.
func readBinaryTopology(ctx *serialCtx) *TopologyInfo {
	seq := ctx.dec.PackedInt()
	if seq < 0 {
		return nil
	}
	n := ctx.dec.PackedInt()
	ti := &TopologyInfo{SeqNum: seq, ShardIDs: make([]int, 0, max(n, 0))}
	for i := 0; i < n; i++ {
		ti.ShardIDs = append(ti.ShardIDs, ctx.dec.PackedInt())
	}
	return ti
}

func (r *QueryRequest) deserializeBinary(ctx *serialCtx) (Result, error) {
	if err := ctx.readBinaryError(); err != nil {
		return nil, err
	}
	res := &QueryResult{}
	res.Capacity = ctx.readBinaryCapacity()
	n := ctx.dec.PackedInt()
	if err := ctx.dec.Error(); err != nil {
		return nil, err
	}
	res.Rows = make([]*types.MapValue, 0, max(n, 0))
	for i := 0; i < n; i++ {
		v, err := p.ReadFieldValue(ctx.dec)
		if err != nil {
			return nil, err
		}
		m, ok := v.(*types.MapValue)
		if !ok {
			return nil, &ProtocolError{Op: "Query", Cause: fmt.Errorf("result row is not a MAP: %T", v)}
		}
		res.Rows = append(res.Rows, m)
	}
	if ck := ctx.dec.Binary(); len(ck) > 0 {
		res.ContinuationKey = NewContinuationKey(ck)
	}
	res.ReachedLimit = ctx.dec.Bool()
	if r.PreparedStatement == nil && ctx.dec.Bool() {
		ps, err := readBinaryPrepared(ctx, r.Statement)
		if err != nil {
			return nil, err
		}
		r.PreparedStatement = ps
	}
	if ti := readBinaryTopology(ctx); ti != nil && r.PreparedStatement != nil {
		r.PreparedStatement.setTopology(ti)
	}
	return res, ctx.dec.Error()
}

// Table metadata operations

// readBinaryTableResult reads the table description shared by GetTable
// and TableRequest responses.
func readBinaryTableResult(ctx *serialCtx) (*TableResult, error) {
	res := &TableResult{}
	res.Namespace = readOptString(ctx.dec)
	res.TableName = ctx.dec.NonNullString()
	res.State = types.TableState(ctx.dec.Byte())
	if ctx.dec.Bool() {
		res.Limits = &TableLimits{
			ReadUnits:  ctx.dec.PackedInt(),
			WriteUnits: ctx.dec.PackedInt(),
			StorageGB:  ctx.dec.PackedInt(),
			Mode:       types.CapacityMode(ctx.dec.Byte()),
		}
	}
	res.Schema = readOptString(ctx.dec)
	res.DDL = readOptString(ctx.dec)
	res.OperationID = readOptString(ctx.dec)
	return res, ctx.dec.Error()
}

func writeBinaryLimits(e *encoding.Encoder, l *TableLimits) {
	e.PackedInt(l.ReadUnits)
	e.PackedInt(l.WriteUnits)
	e.PackedInt(l.StorageGB)
	mode := l.Mode
	if mode == 0 {
		mode = types.Provisioned
	}
	e.Byte(byte(mode))
}

func (r *GetTableRequest) serializeBinary(ctx *serialCtx) error {
	ctx.writeBinaryHeader(r.op().code)
	ctx.enc.String(r.TableName)
	optString(ctx.enc, r.OperationID)
	return nil
}

func (r *GetTableRequest) deserializeBinary(ctx *serialCtx) (Result, error) {
	if err := ctx.readBinaryError(); err != nil {
		return nil, err
	}
	return readBinaryTableResult(ctx)
}

func (r *TableRequest) serializeBinary(ctx *serialCtx) error {
	ctx.writeBinaryHeader(r.op().code)
	optString(ctx.enc, r.Statement)
	if r.Limits != nil {
		ctx.enc.Bool(true)
		writeBinaryLimits(ctx.enc, r.Limits)
		optString(ctx.enc, r.TableName)
	} else {
		ctx.enc.Bool(false)
	}
	return nil
}

func (r *TableRequest) deserializeBinary(ctx *serialCtx) (Result, error) {
	if err := ctx.readBinaryError(); err != nil {
		return nil, err
	}
	return readBinaryTableResult(ctx)
}

func (r *GetIndexesRequest) serializeBinary(ctx *serialCtx) error {
	ctx.writeBinaryHeader(r.op().code)
	ctx.enc.String(r.TableName)
	optString(ctx.enc, r.IndexName)
	return nil
}

func (r *GetIndexesRequest) deserializeBinary(ctx *serialCtx) (Result, error) {
	if err := ctx.readBinaryError(); err != nil {
		return nil, err
	}
	res := &GetIndexesResult{}
	n := ctx.dec.PackedInt()
	if err := ctx.dec.Error(); err != nil {
		return nil, err
	}
	res.Indexes = make([]IndexInfo, 0, max(n, 0))
	for i := 0; i < n; i++ {
		var info IndexInfo
		info.IndexName = ctx.dec.NonNullString()
		nf := ctx.dec.PackedInt()
		for j := 0; j < nf; j++ {
			info.FieldNames = append(info.FieldNames, ctx.dec.NonNullString())
		}
		res.Indexes = append(res.Indexes, info)
	}
	return res, ctx.dec.Error()
}

func (r *ListTablesRequest) serializeBinary(ctx *serialCtx) error {
	ctx.writeBinaryHeader(r.op().code)
	ctx.enc.PackedInt(r.StartIndex)
	ctx.enc.PackedInt(r.Limit)
	optString(ctx.enc, r.base().namespace)
	return nil
}

func (r *ListTablesRequest) deserializeBinary(ctx *serialCtx) (Result, error) {
	if err := ctx.readBinaryError(); err != nil {
		return nil, err
	}
	res := &ListTablesResult{}
	n := ctx.dec.PackedInt()
	if err := ctx.dec.Error(); err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		res.Tables = append(res.Tables, ctx.dec.NonNullString())
	}
	res.LastIndexReturned = ctx.dec.PackedInt()
	return res, ctx.dec.Error()
}

func (r *TableUsageRequest) serializeBinary(ctx *serialCtx) error {
	ctx.writeBinaryHeader(r.op().code)
	ctx.enc.String(r.TableName)
	ctx.enc.PackedLong(millis(r.StartTime))
	ctx.enc.PackedLong(millis(r.EndTime))
	ctx.enc.PackedInt(r.Limit)
	ctx.enc.PackedInt(r.StartIndex)
	return nil
}

func (r *TableUsageRequest) deserializeBinary(ctx *serialCtx) (Result, error) {
	if err := ctx.readBinaryError(); err != nil {
		return nil, err
	}
	res := &TableUsageResult{}
	res.TableName = ctx.dec.NonNullString()
	res.LastIndexReturned = ctx.dec.PackedInt()
	n := ctx.dec.PackedInt()
	if err := ctx.dec.Error(); err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		res.Usage = append(res.Usage, TableUsage{
			StartTime:            time.UnixMilli(ctx.dec.PackedLong()),
			SecondsInPeriod:      ctx.dec.PackedInt(),
			ReadUnits:            ctx.dec.PackedInt(),
			WriteUnits:           ctx.dec.PackedInt(),
			StorageGB:            ctx.dec.PackedInt(),
			ReadThrottleCount:    ctx.dec.PackedInt(),
			WriteThrottleCount:   ctx.dec.PackedInt(),
			StorageThrottleCount: ctx.dec.PackedInt(),
		})
	}
	return res, ctx.dec.Error()
}

// System operations

func readBinarySystemResult(ctx *serialCtx) (*SystemResult, error) {
	res := &SystemResult{}
	res.State = types.OperationState(ctx.dec.Byte())
	res.OperationID = readOptString(ctx.dec)
	res.Statement = readOptString(ctx.dec)
	res.ResultString = readOptString(ctx.dec)
	return res, ctx.dec.Error()
}

func (r *SystemRequest) serializeBinary(ctx *serialCtx) error {
	ctx.writeBinaryHeader(r.op().code)
	ctx.enc.String(r.Statement)
	return nil
}

func (r *SystemRequest) deserializeBinary(ctx *serialCtx) (Result, error) {
	if err := ctx.readBinaryError(); err != nil {
		return nil, err
	}
	return readBinarySystemResult(ctx)
}

func (r *SystemStatusRequest) serializeBinary(ctx *serialCtx) error {
	ctx.writeBinaryHeader(r.op().code)
	ctx.enc.String(r.OperationID)
	optString(ctx.enc, r.Statement)
	return nil
}

func (r *SystemStatusRequest) deserializeBinary(ctx *serialCtx) (Result, error) {
	if err := ctx.readBinaryError(); err != nil {
		return nil, err
	}
	return readBinarySystemResult(ctx)
}
