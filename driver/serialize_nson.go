// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package driver

// NSON protocol, serial version 4. The request body is the 2-byte
// serial version followed by one NSON MAP holding a HEADER map
// (version, table, opcode, timeout, topology seq) and a PAYLOAD map
// with operation-specific fields. Responses are one NSON MAP; readers
// skip unknown keys so the server can add fields freely.

import (
	"fmt"
	"time"

	p "github.com/SAP/go-nosql/driver/internal/protocol"
	"github.com/SAP/go-nosql/driver/types"
)

// nsonWriter starts a V4 request: serial version prefix, root map,
// header map. The caller writes the payload map and calls EndMap for
// the root.
func (ctx *serialCtx) nsonWriter(table string, topoSeq int) *p.NsonWriter {
	r := ctx.req
	ctx.enc.Int16(ctx.serialVersion)
	w := p.NewNsonWriter(ctx.enc)
	w.StartMap()
	w.StartMapField(p.FieldHeader)
	w.WriteIntField(p.FieldVersion, int(ctx.serialVersion))
	if table != "" {
		w.WriteStringField(p.FieldTableName, table)
	}
	w.WriteIntField(p.FieldOpCode, int(r.op().code))
	w.WriteIntField(p.FieldTimeout, int(ctx.timeoutMs()))
	w.WriteIntField(p.FieldTopoSeqNum, topoSeq)
	w.EndMap()
	w.StartMapField(p.FieldPayload)
	return w
}

func finishNsonRequest(w *p.NsonWriter) {
	w.EndMap() // payload
	w.EndMap() // root
}

// nsonEnvelope is the standard response envelope shared by all
// operations.
type nsonEnvelope struct {
	code     p.ErrorCode
	message  string
	capacity Capacity
	topology *TopologyInfo
}

// readNsonResponse walks the top-level response map. handle consumes
// operation-specific keys and reports whether it recognized the key;
// unrecognized values are skipped.
func (ctx *serialCtx) readNsonResponse(handle func(r *p.NsonReader, key string) (bool, error)) (*nsonEnvelope, error) {
	op := ctx.req.op().name
	r := p.NewNsonReader(ctx.dec)
	if ok, err := r.Next(); err != nil || !ok {
		return nil, &ProtocolError{Op: op, Cause: fmt.Errorf("empty response: %v", err)}
	}
	if r.Type() != p.TypeMap {
		return nil, &ProtocolError{Op: op, Cause: fmt.Errorf("response is not a MAP: %s", r.Type())}
	}
	if err := r.Enter(); err != nil {
		return nil, &ProtocolError{Op: op, Cause: err}
	}
	env := &nsonEnvelope{}
	for {
		ok, err := r.Next()
		if err != nil {
			return nil, &ProtocolError{Op: op, Cause: err}
		}
		if !ok {
			break
		}
		switch r.Key() {
		case p.FieldErrorCode:
			code, err := r.Int()
			if err != nil {
				return nil, &ProtocolError{Op: op, Cause: err}
			}
			env.code = p.ErrorCode(code)
		case p.FieldException:
			if env.message, err = r.String(); err != nil {
				return nil, &ProtocolError{Op: op, Cause: err}
			}
		case p.FieldConsumed:
			if err := readNsonCapacity(r, &env.capacity); err != nil {
				return nil, &ProtocolError{Op: op, Cause: err}
			}
		case p.FieldTopologyInfo:
			ti, err := readNsonTopology(r)
			if err != nil {
				return nil, &ProtocolError{Op: op, Cause: err}
			}
			env.topology = ti
		default:
			handled := false
			if env.code == 0 && handle != nil {
				if handled, err = handle(r, r.Key()); err != nil {
					return nil, err
				}
			}
			if !handled {
				if err := r.SkipValue(); err != nil {
					return nil, &ProtocolError{Op: op, Cause: err}
				}
			}
		}
	}
	if env.code != 0 {
		return env, &ServerError{Code: env.code, Message: env.message}
	}
	return env, nil
}

func readNsonCapacity(r *p.NsonReader, c *Capacity) error {
	return eachNsonField(r, func(key string) error {
		switch key {
		case p.FieldReadUnits:
			v, err := r.Int()
			c.ReadUnits = v
			return err
		case p.FieldReadKB:
			v, err := r.Int()
			c.ReadKB = v
			return err
		case p.FieldWriteKB:
			v, err := r.Int()
			c.WriteKB = v
			c.WriteUnits = v
			return err
		default:
			return r.SkipValue()
		}
	})
}

func readNsonTopology(r *p.NsonReader) (*TopologyInfo, error) {
	ti := &TopologyInfo{SeqNum: -1}
	err := eachNsonField(r, func(key string) error {
		switch key {
		case p.FieldTopoSeqNum:
			v, err := r.Int()
			ti.SeqNum = v
			return err
		case p.FieldShardIDs:
			return eachNsonElem(r, func() error {
				v, err := r.Int()
				ti.ShardIDs = append(ti.ShardIDs, v)
				return err
			})
		default:
			return r.SkipValue()
		}
	})
	if err != nil {
		return nil, err
	}
	if ti.SeqNum < 0 {
		return nil, nil
	}
	return ti, nil
}

// eachNsonField enters the current MAP value and calls fn per entry,
// positioned at the entry's value.
func eachNsonField(r *p.NsonReader, fn func(key string) error) error {
	if err := r.Enter(); err != nil {
		return err
	}
	for {
		ok, err := r.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := fn(r.Key()); err != nil {
			return err
		}
	}
}

// eachNsonElem enters the current ARRAY value and calls fn per
// element.
func eachNsonElem(r *p.NsonReader, fn func() error) error {
	if err := r.Enter(); err != nil {
		return err
	}
	for {
		ok, err := r.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := fn(); err != nil {
			return err
		}
	}
}

// nsonRow is the row section of a read response.
type nsonRow struct {
	value            *types.MapValue
	version          types.Version
	expirationTime   int64
	modificationTime int64
}

func readNsonRow(r *p.NsonReader) (*nsonRow, error) {
	row := &nsonRow{}
	err := eachNsonField(r, func(key string) error {
		switch key {
		case p.FieldValue:
			m, err := r.MapValue()
			row.value = m
			return err
		case p.FieldRowVersion:
			v, err := r.Binary()
			row.version = v
			return err
		case p.FieldExpiration:
			v, err := r.Long()
			row.expirationTime = v
			return err
		case p.FieldModified:
			v, err := r.Long()
			row.modificationTime = v
			return err
		default:
			return r.SkipValue()
		}
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// Get

func (r *GetRequest) serializeNson(ctx *serialCtx) error {
	w := ctx.nsonWriter(r.TableName, -1)
	w.WriteIntField(p.FieldConsistency, int(r.Consistency.WireByte()))
	if err := w.WriteValueField(p.FieldKey, r.Key, false); err != nil {
		return err
	}
	finishNsonRequest(w)
	return nil
}

func (r *GetRequest) deserializeNson(ctx *serialCtx) (Result, error) {
	res := &GetResult{}
	env, err := ctx.readNsonResponse(func(nr *p.NsonReader, key string) (bool, error) {
		if key != p.FieldRow {
			return false, nil
		}
		row, err := readNsonRow(nr)
		if err != nil {
			return false, err
		}
		res.Row = row.value
		res.Version = row.version
		res.ExpirationTime = row.expirationTime
		res.ModificationTime = row.modificationTime
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	res.Capacity = env.capacity
	return res, nil
}

// Put and Delete payload bodies are shared with WriteMultiple.

func (r *PutRequest) writeNsonBody(w *p.NsonWriter) error {
	if r.ReturnRow {
		w.WriteBooleanField(p.FieldReturnRow, true)
	}
	if r.ExactMatch {
		w.WriteBooleanField(p.FieldExactMatch, true)
	}
	if r.IdentityCacheSize > 0 {
		w.WriteIntField(p.FieldIdentityCacheSize, r.IdentityCacheSize)
	}
	if r.TTL.IsSet() {
		w.WriteStringField(p.FieldTTL, r.TTL.String())
	}
	if r.UseTableTTL {
		w.WriteBooleanField(p.FieldUpdateTTL, true)
	}
	if r.Option == PutIfVersion {
		w.WriteBinaryField(p.FieldMatchVersion, r.MatchVersion)
	}
	return w.WriteValueField(p.FieldValue, r.Value, false)
}

func (r *PutRequest) serializeNson(ctx *serialCtx) error {
	w := ctx.nsonWriter(r.TableName, -1)
	w.WriteIntField(p.FieldDurability, int(r.Durability.WireByte()))
	if err := r.writeNsonBody(w); err != nil {
		return err
	}
	finishNsonRequest(w)
	return nil
}

// readNsonReturnInfo parses the existing-row section of a failed
// conditional write.
func readNsonReturnInfo(r *p.NsonReader, res *OperationResult) error {
	return eachNsonField(r, func(key string) error {
		switch key {
		case p.FieldExistingValue:
			m, err := r.MapValue()
			res.ExistingValue = m
			return err
		case p.FieldExistingVersion:
			v, err := r.Binary()
			res.ExistingVersion = v
			return err
		case p.FieldExistingModTime:
			v, err := r.Long()
			res.ExistingModificationTime = v
			return err
		default:
			return r.SkipValue()
		}
	})
}

// handleNsonWriteResult consumes per-write response keys shared by
// Put, Delete and WriteMultiple entries.
func handleNsonWriteResult(r *p.NsonReader, key string, res *OperationResult) (bool, error) {
	switch key {
	case p.FieldSuccess:
		v, err := r.Boolean()
		res.Success = v
		return true, err
	case p.FieldRowVersion:
		v, err := r.Binary()
		res.Version = v
		return true, err
	case p.FieldGenerated:
		v, err := r.Value()
		res.GeneratedValue = v
		return true, err
	case p.FieldReturnInfo:
		return true, readNsonReturnInfo(r, res)
	default:
		return false, nil
	}
}

func (r *PutRequest) deserializeNson(ctx *serialCtx) (Result, error) {
	var op OperationResult
	env, err := ctx.readNsonResponse(func(nr *p.NsonReader, key string) (bool, error) {
		return handleNsonWriteResult(nr, key, &op)
	})
	if err != nil {
		return nil, err
	}
	res := &PutResult{
		Version:                  op.Version,
		GeneratedValue:           op.GeneratedValue,
		ExistingValue:            op.ExistingValue,
		ExistingVersion:          op.ExistingVersion,
		ExistingModificationTime: op.ExistingModificationTime,
	}
	res.Capacity = env.capacity
	return res, nil
}

func (r *DeleteRequest) writeNsonBody(w *p.NsonWriter) error {
	if r.ReturnRow {
		w.WriteBooleanField(p.FieldReturnRow, true)
	}
	if len(r.MatchVersion) != 0 {
		w.WriteBinaryField(p.FieldMatchVersion, r.MatchVersion)
	}
	return w.WriteValueField(p.FieldKey, r.Key, false)
}

func (r *DeleteRequest) serializeNson(ctx *serialCtx) error {
	w := ctx.nsonWriter(r.TableName, -1)
	w.WriteIntField(p.FieldDurability, int(r.Durability.WireByte()))
	if err := r.writeNsonBody(w); err != nil {
		return err
	}
	finishNsonRequest(w)
	return nil
}

func (r *DeleteRequest) deserializeNson(ctx *serialCtx) (Result, error) {
	var op OperationResult
	env, err := ctx.readNsonResponse(func(nr *p.NsonReader, key string) (bool, error) {
		return handleNsonWriteResult(nr, key, &op)
	})
	if err != nil {
		return nil, err
	}
	res := &DeleteResult{
		Success:                  op.Success,
		ExistingValue:            op.ExistingValue,
		ExistingVersion:          op.ExistingVersion,
		ExistingModificationTime: op.ExistingModificationTime,
	}
	res.Capacity = env.capacity
	return res, nil
}

// MultiDelete

func (r *MultiDeleteRequest) serializeNson(ctx *serialCtx) error {
	w := ctx.nsonWriter(r.TableName, -1)
	w.WriteIntField(p.FieldDurability, int(r.Durability.WireByte()))
	if err := w.WriteValueField(p.FieldKey, r.Key, false); err != nil {
		return err
	}
	if fr := r.FieldRange; fr != nil {
		w.StartMapField(p.FieldRange)
		w.WriteStringField(p.FieldRangePath, fr.FieldPath)
		if fr.Start != nil {
			w.StartMapField(p.FieldStart)
			if err := w.WriteValueField(p.FieldValue, fr.Start, false); err != nil {
				return err
			}
			w.WriteBooleanField(p.FieldInclusive, fr.StartInclusive)
			w.EndMap()
		}
		if fr.End != nil {
			w.StartMapField(p.FieldEnd)
			if err := w.WriteValueField(p.FieldValue, fr.End, false); err != nil {
				return err
			}
			w.WriteBooleanField(p.FieldInclusive, fr.EndInclusive)
			w.EndMap()
		}
		w.EndMap()
	}
	if r.MaxWriteKB > 0 {
		w.WriteIntField(p.FieldMaxWriteKB, r.MaxWriteKB)
	}
	if len(r.ContinuationKey) != 0 {
		w.WriteBinaryField(p.FieldContinuationKey, r.ContinuationKey)
	}
	finishNsonRequest(w)
	return nil
}

func (r *MultiDeleteRequest) deserializeNson(ctx *serialCtx) (Result, error) {
	res := &MultiDeleteResult{}
	env, err := ctx.readNsonResponse(func(nr *p.NsonReader, key string) (bool, error) {
		switch key {
		case p.FieldNumDeletions:
			v, err := nr.Int()
			res.NumDeleted = v
			return true, err
		case p.FieldContinuationKey:
			v, err := nr.Binary()
			if len(v) > 0 {
				res.ContinuationKey = v
			}
			return true, err
		default:
			return false, nil
		}
	})
	if err != nil {
		return nil, err
	}
	res.Capacity = env.capacity
	return res, nil
}

// WriteMultiple

func (r *WriteMultipleRequest) serializeNson(ctx *serialCtx) error {
	w := ctx.nsonWriter(r.TableName, -1)
	w.WriteIntField(p.FieldDurability, int(r.Durability.WireByte()))
	w.WriteIntField(p.FieldNumOperations, len(r.Operations))
	w.StartArrayField(p.FieldOperations)
	for _, op := range r.Operations {
		w.StartMap()
		if op.AbortOnFail {
			w.WriteBooleanField(p.FieldAbortOnFail, true)
		}
		if sub := op.Put; sub != nil {
			w.WriteIntField(p.FieldOpCode, int(sub.op().code))
			if err := sub.writeNsonBody(w); err != nil {
				return err
			}
		} else {
			w.WriteIntField(p.FieldOpCode, int(op.Delete.op().code))
			if err := op.Delete.writeNsonBody(w); err != nil {
				return err
			}
		}
		w.EndMap()
	}
	w.EndArray()
	finishNsonRequest(w)
	return nil
}

func readNsonOperationResult(r *p.NsonReader) (OperationResult, error) {
	var res OperationResult
	err := eachNsonField(r, func(key string) error {
		handled, err := handleNsonWriteResult(r, key, &res)
		if err != nil {
			return err
		}
		if !handled {
			return r.SkipValue()
		}
		return nil
	})
	return res, err
}

func (r *WriteMultipleRequest) deserializeNson(ctx *serialCtx) (Result, error) {
	res := &WriteMultipleResult{FailedOperationIndex: -1}
	env, err := ctx.readNsonResponse(func(nr *p.NsonReader, key string) (bool, error) {
		switch key {
		case p.FieldWMSuccess:
			return true, eachNsonElem(nr, func() error {
				op, err := readNsonOperationResult(nr)
				if err != nil {
					return err
				}
				res.Results = append(res.Results, op)
				return nil
			})
		case p.FieldWMFailure:
			return true, eachNsonField(nr, func(key string) error {
				switch key {
				case p.FieldWMFailIndex:
					v, err := nr.Int()
					res.FailedOperationIndex = v
					return err
				case p.FieldWMFailResult:
					op, err := readNsonOperationResult(nr)
					if err != nil {
						return err
					}
					res.FailedOperationResult = &op
					return nil
				default:
					return nr.SkipValue()
				}
			})
		default:
			return false, nil
		}
	})
	if err != nil {
		return nil, err
	}
	res.Capacity = env.capacity
	return res, nil
}

// Prepare and Query

func (r *PrepareRequest) serializeNson(ctx *serialCtx) error {
	w := ctx.nsonWriter("", -1)
	w.WriteIntField(p.FieldQueryVersion, int(ctx.queryVersion))
	w.WriteStringField(p.FieldStatement, r.Statement)
	if r.GetQueryPlan {
		w.WriteBooleanField(p.FieldGetQueryPlan, true)
	}
	finishNsonRequest(w)
	return nil
}

// nsonPrepared collects the prepared-statement keys of a prepare or
// query response.
type nsonPrepared struct {
	blob      []byte
	queryPlan string
}

func (np *nsonPrepared) handle(r *p.NsonReader, key string) (bool, error) {
	switch key {
	case p.FieldPreparedQuery:
		v, err := r.Binary()
		np.blob = v
		return true, err
	case p.FieldQueryPlanString:
		v, err := r.String()
		np.queryPlan = v
		return true, err
	default:
		return false, nil
	}
}

func (np *nsonPrepared) statement(sqlText string) (*PreparedStatement, error) {
	if len(np.blob) == 0 {
		return nil, fmt.Errorf("response carries no prepared query")
	}
	return newPreparedStatement(sqlText, np.blob, np.queryPlan)
}

func (r *PrepareRequest) deserializeNson(ctx *serialCtx) (Result, error) {
	var np nsonPrepared
	env, err := ctx.readNsonResponse(np.handle)
	if err != nil {
		return nil, err
	}
	ps, err := np.statement(r.Statement)
	if err != nil {
		return nil, &ProtocolError{Op: "Prepare", Cause: err}
	}
	res := &PrepareResult{PreparedStatement: ps}
	res.Capacity = env.capacity
	return res, nil
}

func (r *QueryRequest) serializeNson(ctx *serialCtx) error {
	topoSeq := -1
	if ps := r.PreparedStatement; ps != nil {
		topoSeq = ps.topoSeqNum()
	}
	w := ctx.nsonWriter(r.table(), topoSeq)
	w.WriteIntField(p.FieldQueryVersion, int(ctx.queryVersion))
	w.WriteIntField(p.FieldConsistency, int(r.Consistency.WireByte()))
	if r.Limit > 0 {
		w.WriteIntField(p.FieldNumResults, r.Limit)
	}
	if r.MaxReadKB > 0 {
		w.WriteIntField(p.FieldMaxReadKB, r.MaxReadKB)
	}
	if r.MaxWriteKB > 0 {
		w.WriteIntField(p.FieldMaxWriteKB, r.MaxWriteKB)
	}
	w.WriteIntField(p.FieldDurability, int(r.Durability.WireByte()))
	if ck := r.ContinuationKey.Bytes(); len(ck) != 0 {
		w.WriteBinaryField(p.FieldContinuationKey, ck)
	}
	if id := r.shardIDWire(); id >= 0 {
		w.WriteIntField(p.FieldShardID, id)
	}
	if ps := r.PreparedStatement; ps != nil {
		w.WriteBooleanField(p.FieldIsPrepared, true)
		w.WriteBooleanField(p.FieldIsSimpleQuery, true)
		w.WriteBinaryField(p.FieldPreparedQuery, ps.statement)
		if vars := ps.variables(); len(vars) != 0 {
			w.StartArrayField(p.FieldBindVariables)
			for _, v := range vars {
				w.StartMap()
				w.WriteStringField(p.FieldName, v.name)
				if err := w.WriteValueField(p.FieldValue, v.value, false); err != nil {
					return err
				}
				w.EndMap()
			}
			w.EndArray()
		}
	} else {
		w.WriteStringField(p.FieldStatement, r.Statement)
	}
	finishNsonRequest(w)
	return nil
}

func (r *QueryRequest) deserializeNson(ctx *serialCtx) (Result, error) {
	res := &QueryResult{}
	var np nsonPrepared
	env, err := ctx.readNsonResponse(func(nr *p.NsonReader, key string) (bool, error) {
		switch key {
		case p.FieldQueryResults:
			return true, eachNsonElem(nr, func() error {
				m, err := nr.MapValue()
				if err != nil {
					return err
				}
				res.Rows = append(res.Rows, m)
				return nil
			})
		case p.FieldContinuationKey:
			v, err := nr.Binary()
			if len(v) > 0 {
				res.ContinuationKey = NewContinuationKey(v)
			}
			return true, err
		case p.FieldReachedLimit:
			v, err := nr.Boolean()
			res.ReachedLimit = v
			return true, err
		default:
			return np.handle(nr, key)
		}
	})
	if err != nil {
		return nil, err
	}
	if r.PreparedStatement == nil && len(np.blob) != 0 {
		ps, err := np.statement(r.Statement)
		if err != nil {
			return nil, &ProtocolError{Op: "Query", Cause: err}
		}
		r.PreparedStatement = ps
	}
	if env.topology != nil && r.PreparedStatement != nil {
		r.PreparedStatement.setTopology(env.topology)
	}
	res.Capacity = env.capacity
	return res, nil
}

// Table metadata operations

func readNsonLimits(r *p.NsonReader) (*TableLimits, error) {
	l := &TableLimits{Mode: types.Provisioned}
	err := eachNsonField(r, func(key string) error {
		switch key {
		case p.FieldReadUnits:
			v, err := r.Int()
			l.ReadUnits = v
			return err
		case p.FieldWriteUnits:
			v, err := r.Int()
			l.WriteUnits = v
			return err
		case p.FieldStorageGB:
			v, err := r.Int()
			l.StorageGB = v
			return err
		case p.FieldLimitsMode:
			v, err := r.Int()
			l.Mode = types.CapacityMode(v)
			return err
		default:
			return r.SkipValue()
		}
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

// handleNsonTableResult consumes the table description keys shared by
// GetTable and TableRequest responses.
func handleNsonTableResult(r *p.NsonReader, key string, res *TableResult) (bool, error) {
	switch key {
	case p.FieldNamespace:
		v, err := r.String()
		res.Namespace = v
		return true, err
	case p.FieldTableName:
		v, err := r.String()
		res.TableName = v
		return true, err
	case p.FieldTableState:
		v, err := r.Int()
		res.State = types.TableState(v)
		return true, err
	case p.FieldLimits:
		l, err := readNsonLimits(r)
		res.Limits = l
		return true, err
	case p.FieldTableSchema:
		v, err := r.String()
		res.Schema = v
		return true, err
	case p.FieldTableDDL:
		v, err := r.String()
		res.DDL = v
		return true, err
	case p.FieldOperationID:
		v, err := r.String()
		res.OperationID = v
		return true, err
	default:
		return false, nil
	}
}

func (r *GetTableRequest) serializeNson(ctx *serialCtx) error {
	w := ctx.nsonWriter(r.TableName, -1)
	if r.OperationID != "" {
		w.WriteStringField(p.FieldOperationID, r.OperationID)
	}
	finishNsonRequest(w)
	return nil
}

func (r *GetTableRequest) deserializeNson(ctx *serialCtx) (Result, error) {
	res := &TableResult{}
	env, err := ctx.readNsonResponse(func(nr *p.NsonReader, key string) (bool, error) {
		return handleNsonTableResult(nr, key, res)
	})
	if err != nil {
		return nil, err
	}
	res.Capacity = env.capacity
	return res, nil
}

func (r *TableRequest) serializeNson(ctx *serialCtx) error {
	w := ctx.nsonWriter(r.TableName, -1)
	if r.Statement != "" {
		w.WriteStringField(p.FieldStatement, r.Statement)
	}
	if l := r.Limits; l != nil {
		w.StartMapField(p.FieldLimits)
		w.WriteIntField(p.FieldReadUnits, l.ReadUnits)
		w.WriteIntField(p.FieldWriteUnits, l.WriteUnits)
		w.WriteIntField(p.FieldStorageGB, l.StorageGB)
		mode := l.Mode
		if mode == 0 {
			mode = types.Provisioned
		}
		w.WriteIntField(p.FieldLimitsMode, int(mode))
		w.EndMap()
	}
	finishNsonRequest(w)
	return nil
}

func (r *TableRequest) deserializeNson(ctx *serialCtx) (Result, error) {
	res := &TableResult{}
	env, err := ctx.readNsonResponse(func(nr *p.NsonReader, key string) (bool, error) {
		return handleNsonTableResult(nr, key, res)
	})
	if err != nil {
		return nil, err
	}
	res.Capacity = env.capacity
	return res, nil
}

func (r *GetIndexesRequest) serializeNson(ctx *serialCtx) error {
	w := ctx.nsonWriter(r.TableName, -1)
	if r.IndexName != "" {
		w.WriteStringField(p.FieldIndex, r.IndexName)
	}
	finishNsonRequest(w)
	return nil
}

func (r *GetIndexesRequest) deserializeNson(ctx *serialCtx) (Result, error) {
	res := &GetIndexesResult{}
	env, err := ctx.readNsonResponse(func(nr *p.NsonReader, key string) (bool, error) {
		if key != p.FieldIndexes {
			return false, nil
		}
		return true, eachNsonElem(nr, func() error {
			var info IndexInfo
			err := eachNsonField(nr, func(key string) error {
				switch key {
				case p.FieldName:
					v, err := nr.String()
					info.IndexName = v
					return err
				case p.FieldFields:
					return eachNsonElem(nr, func() error {
						v, err := nr.String()
						info.FieldNames = append(info.FieldNames, v)
						return err
					})
				default:
					return nr.SkipValue()
				}
			})
			if err != nil {
				return err
			}
			res.Indexes = append(res.Indexes, info)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	res.Capacity = env.capacity
	return res, nil
}

func (r *ListTablesRequest) serializeNson(ctx *serialCtx) error {
	w := ctx.nsonWriter("", -1)
	if r.StartIndex > 0 {
		w.WriteIntField(p.FieldListStartIndex, r.StartIndex)
	}
	if r.Limit > 0 {
		w.WriteIntField(p.FieldListMaxToRead, r.Limit)
	}
	if ns := r.base().namespace; ns != "" {
		w.WriteStringField(p.FieldNamespace, ns)
	}
	finishNsonRequest(w)
	return nil
}

func (r *ListTablesRequest) deserializeNson(ctx *serialCtx) (Result, error) {
	res := &ListTablesResult{}
	env, err := ctx.readNsonResponse(func(nr *p.NsonReader, key string) (bool, error) {
		switch key {
		case p.FieldTables:
			return true, eachNsonElem(nr, func() error {
				v, err := nr.String()
				res.Tables = append(res.Tables, v)
				return err
			})
		case p.FieldLastIndex:
			v, err := nr.Int()
			res.LastIndexReturned = v
			return true, err
		default:
			return false, nil
		}
	})
	if err != nil {
		return nil, err
	}
	res.Capacity = env.capacity
	return res, nil
}

func (r *TableUsageRequest) serializeNson(ctx *serialCtx) error {
	w := ctx.nsonWriter(r.TableName, -1)
	if !r.StartTime.IsZero() {
		w.WriteLongField(p.FieldStart, millis(r.StartTime))
	}
	if !r.EndTime.IsZero() {
		w.WriteLongField(p.FieldEnd, millis(r.EndTime))
	}
	if r.Limit > 0 {
		w.WriteIntField(p.FieldListMaxToRead, r.Limit)
	}
	if r.StartIndex > 0 {
		w.WriteIntField(p.FieldListStartIndex, r.StartIndex)
	}
	finishNsonRequest(w)
	return nil
}

func (r *TableUsageRequest) deserializeNson(ctx *serialCtx) (Result, error) {
	res := &TableUsageResult{}
	env, err := ctx.readNsonResponse(func(nr *p.NsonReader, key string) (bool, error) {
		switch key {
		case p.FieldTableName:
			v, err := nr.String()
			res.TableName = v
			return true, err
		case p.FieldLastIndex:
			v, err := nr.Int()
			res.LastIndexReturned = v
			return true, err
		case p.FieldTableUsage:
			return true, eachNsonElem(nr, func() error {
				var u TableUsage
				err := eachNsonField(nr, func(key string) error {
					switch key {
					case p.FieldStart:
						v, err := nr.Long()
						u.StartTime = time.UnixMilli(v)
						return err
					case p.FieldTableUsagePeriod:
						v, err := nr.Int()
						u.SecondsInPeriod = v
						return err
					case p.FieldReadUnits:
						v, err := nr.Int()
						u.ReadUnits = v
						return err
					case p.FieldWriteUnits:
						v, err := nr.Int()
						u.WriteUnits = v
						return err
					case p.FieldStorageGB:
						v, err := nr.Int()
						u.StorageGB = v
						return err
					case p.FieldReadThrottleCount:
						v, err := nr.Int()
						u.ReadThrottleCount = v
						return err
					case p.FieldWriteThrottleCount:
						v, err := nr.Int()
						u.WriteThrottleCount = v
						return err
					case p.FieldStorageThrottleCount:
						v, err := nr.Int()
						u.StorageThrottleCount = v
						return err
					default:
						return nr.SkipValue()
					}
				})
				if err != nil {
					return err
				}
				res.Usage = append(res.Usage, u)
				return nil
			})
		default:
			return false, nil
		}
	})
	if err != nil {
		return nil, err
	}
	res.Capacity = env.capacity
	return res, nil
}

// System operations

func handleNsonSystemResult(r *p.NsonReader, key string, res *SystemResult) (bool, error) {
	switch key {
	case p.FieldSysopState:
		v, err := r.Int()
		res.State = types.OperationState(v)
		return true, err
	case p.FieldOperationID:
		v, err := r.String()
		res.OperationID = v
		return true, err
	case p.FieldStatement:
		v, err := r.String()
		res.Statement = v
		return true, err
	case p.FieldSysopResult:
		v, err := r.String()
		res.ResultString = v
		return true, err
	default:
		return false, nil
	}
}

func (r *SystemRequest) serializeNson(ctx *serialCtx) error {
	w := ctx.nsonWriter("", -1)
	w.WriteStringField(p.FieldStatement, r.Statement)
	finishNsonRequest(w)
	return nil
}

func (r *SystemRequest) deserializeNson(ctx *serialCtx) (Result, error) {
	res := &SystemResult{}
	env, err := ctx.readNsonResponse(func(nr *p.NsonReader, key string) (bool, error) {
		return handleNsonSystemResult(nr, key, res)
	})
	if err != nil {
		return nil, err
	}
	res.Capacity = env.capacity
	return res, nil
}

func (r *SystemStatusRequest) serializeNson(ctx *serialCtx) error {
	w := ctx.nsonWriter("", -1)
	w.WriteStringField(p.FieldOperationID, r.OperationID)
	if r.Statement != "" {
		w.WriteStringField(p.FieldStatement, r.Statement)
	}
	finishNsonRequest(w)
	return nil
}

func (r *SystemStatusRequest) deserializeNson(ctx *serialCtx) (Result, error) {
	res := &SystemResult{}
	env, err := ctx.readNsonResponse(func(nr *p.NsonReader, key string) (bool, error) {
		return handleNsonSystemResult(nr, key, res)
	})
	if err != nil {
		return nil, err
	}
	res.Capacity = env.capacity
	return res, nil
}
