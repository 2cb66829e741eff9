// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"testing"
	"time"

	p "github.com/SAP/go-nosql/driver/internal/protocol"
	"github.com/SAP/go-nosql/driver/types"
)

func testKey() *types.MapValue   { return types.NewMapValue().Put("id", 1) }
func testValue() *types.MapValue { return types.NewMapValue().Put("id", 1).Put("name", "x") }

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"get ok", &GetRequest{TableName: "t", Key: testKey()}, false},
		{"get no table", &GetRequest{Key: testKey()}, true},
		{"get no key", &GetRequest{TableName: "t"}, true},
		{"get empty key", &GetRequest{TableName: "t", Key: types.NewMapValue()}, true},

		{"put ok", &PutRequest{TableName: "t", Value: testValue()}, false},
		{"put no value", &PutRequest{TableName: "t"}, true},
		{"put if version ok", &PutRequest{TableName: "t", Value: testValue(), Option: PutIfVersion, MatchVersion: types.Version{1}}, false},
		{"put if version without version", &PutRequest{TableName: "t", Value: testValue(), Option: PutIfVersion}, true},
		{"put version without if version", &PutRequest{TableName: "t", Value: testValue(), MatchVersion: types.Version{1}}, true},
		{"put ttl conflict", &PutRequest{TableName: "t", Value: testValue(), TTL: types.TTLOf(1, types.Days), UseTableTTL: true}, true},
		{"put bad ttl", &PutRequest{TableName: "t", Value: testValue(), TTL: types.TTLOf(-1, types.Days)}, true},

		{"delete ok", &DeleteRequest{TableName: "t", Key: testKey()}, false},
		{"delete no key", &DeleteRequest{TableName: "t"}, true},

		{"multidelete ok", &MultiDeleteRequest{TableName: "t", Key: testKey()}, false},
		{"multidelete negative kb", &MultiDeleteRequest{TableName: "t", Key: testKey(), MaxWriteKB: -1}, true},
		{"multidelete bad range", &MultiDeleteRequest{TableName: "t", Key: testKey(), FieldRange: &types.FieldRange{FieldPath: "id"}}, true},

		{"writemultiple ok", &WriteMultipleRequest{TableName: "t", Operations: []WriteOperation{
			{Put: &PutRequest{TableName: "t", Value: testValue()}},
		}}, false},
		{"writemultiple empty", &WriteMultipleRequest{TableName: "t"}, true},
		{"writemultiple both set", &WriteMultipleRequest{TableName: "t", Operations: []WriteOperation{
			{Put: &PutRequest{TableName: "t", Value: testValue()}, Delete: &DeleteRequest{TableName: "t", Key: testKey()}},
		}}, true},
		{"writemultiple neither set", &WriteMultipleRequest{TableName: "t", Operations: []WriteOperation{{}}}, true},

		{"prepare ok", &PrepareRequest{Statement: "select * from t"}, false},
		{"prepare empty", &PrepareRequest{}, true},

		{"query statement ok", &QueryRequest{Statement: "select * from t"}, false},
		{"query neither", &QueryRequest{}, true},
		{"query negative limit", &QueryRequest{Statement: "s", Limit: -1}, true},

		{"gettable ok", &GetTableRequest{TableName: "t"}, false},
		{"gettable empty", &GetTableRequest{}, true},

		{"tablerequest statement", &TableRequest{Statement: "create table t"}, false},
		{"tablerequest limits", &TableRequest{TableName: "t", Limits: &TableLimits{ReadUnits: 1, WriteUnits: 1, StorageGB: 1}}, false},
		{"tablerequest neither", &TableRequest{}, true},
		{"tablerequest both", &TableRequest{Statement: "s", TableName: "t", Limits: &TableLimits{}}, true},
		{"tablerequest negative limits", &TableRequest{TableName: "t", Limits: &TableLimits{ReadUnits: -1}}, true},

		{"getindexes ok", &GetIndexesRequest{TableName: "t"}, false},
		{"getindexes empty", &GetIndexesRequest{}, true},

		{"listtables ok", &ListTablesRequest{}, false},
		{"listtables negative", &ListTablesRequest{StartIndex: -1}, true},

		{"usage ok", &TableUsageRequest{TableName: "t"}, false},
		{"usage inverted window", &TableUsageRequest{TableName: "t",
			StartTime: time.Now(), EndTime: time.Now().Add(-time.Hour)}, true},

		{"system ok", &SystemRequest{Statement: "show users"}, false},
		{"system empty", &SystemRequest{}, true},

		{"systemstatus ok", &SystemStatusRequest{OperationID: "op1"}, false},
		{"systemstatus empty", &SystemStatusRequest{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.validate()
			if tt.wantErr && err == nil {
				t.Fatal("want validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err != nil {
				if _, ok := err.(*ArgumentError); !ok {
					t.Fatalf("error type %T, want *ArgumentError", err)
				}
			}
		})
	}
}

func TestPutDeleteOpCodes(t *testing.T) {
	put := &PutRequest{}
	if got := put.op().code; got != p.OpPut {
		t.Fatalf("put: %s", got)
	}
	put.Option = PutIfAbsent
	if got := put.op().code; got != p.OpPutIfAbsent {
		t.Fatalf("put if absent: %s", got)
	}
	put.Option = PutIfPresent
	if got := put.op().code; got != p.OpPutIfPresent {
		t.Fatalf("put if present: %s", got)
	}
	put.Option = PutIfVersion
	if got := put.op().code; got != p.OpPutIfVersion {
		t.Fatalf("put if version: %s", got)
	}
	// the shared descriptor must not be mutated
	if opPut.code != p.OpPut {
		t.Fatalf("shared descriptor mutated: %s", opPut.code)
	}

	del := &DeleteRequest{}
	if got := del.op().code; got != p.OpDelete {
		t.Fatalf("delete: %s", got)
	}
	del.MatchVersion = types.Version{1}
	if got := del.op().code; got != p.OpDeleteIfVersion {
		t.Fatalf("delete if version: %s", got)
	}
	if opDelete.code != p.OpDelete {
		t.Fatalf("shared descriptor mutated: %s", opDelete.code)
	}
}

func TestRequestDefaults(t *testing.T) {
	cfg := Config{
		Timeout:             2 * time.Second,
		TableRequestTimeout: 7 * time.Second,
		Consistency:         types.Absolute,
		Compartment:         "comp",
		Namespace:           "ns",
	}

	get := &GetRequest{TableName: "t", Key: testKey()}
	get.setDefaults(&cfg)
	if get.base().timeout != 2*time.Second {
		t.Fatalf("get timeout: %v", get.base().timeout)
	}
	if get.Consistency != types.Absolute {
		t.Fatalf("get consistency: %v", get.Consistency)
	}
	if get.base().compartment != "comp" || get.base().namespace != "ns" {
		t.Fatalf("get scope: %q %q", get.base().compartment, get.base().namespace)
	}

	// explicit request values win over config defaults
	get2 := &GetRequest{TableName: "t", Key: testKey(),
		Timeout: time.Second, Consistency: types.Eventual, Compartment: "other"}
	get2.setDefaults(&cfg)
	if get2.base().timeout != time.Second {
		t.Fatalf("get2 timeout: %v", get2.base().timeout)
	}
	if get2.Consistency != types.Eventual {
		t.Fatalf("get2 consistency: %v", get2.Consistency)
	}
	if get2.base().compartment != "other" {
		t.Fatalf("get2 compartment: %q", get2.base().compartment)
	}

	// DDL operations take the table-request timeout
	tr := &TableRequest{Statement: "create table t"}
	tr.setDefaults(&cfg)
	if tr.base().timeout != 7*time.Second {
		t.Fatalf("table request timeout: %v", tr.base().timeout)
	}

	// sub-requests of a batch inherit the batch table
	wm := &WriteMultipleRequest{TableName: "t", Operations: []WriteOperation{
		{Put: &PutRequest{Value: testValue()}},
		{Delete: &DeleteRequest{Key: testKey()}},
	}}
	wm.setDefaults(&cfg)
	if wm.Operations[0].Put.TableName != "t" || wm.Operations[1].Delete.TableName != "t" {
		t.Fatal("batch table not propagated")
	}
}

func TestRequestReset(t *testing.T) {
	cfg := Config{Timeout: time.Second}
	get := &GetRequest{TableName: "t", Key: testKey()}
	get.setDefaults(&cfg)
	rb := get.base()
	rb.numRetries = 3
	rb.lastErr = &NetworkError{Cause: errTest}
	get.setDefaults(&cfg)
	if rb.numRetries != 0 || rb.lastErr != nil {
		t.Fatal("bookkeeping survived reset")
	}
}

func TestShardIDWire(t *testing.T) {
	q := &QueryRequest{}
	if got := q.shardIDWire(); got != -1 {
		t.Fatalf("unset shard: %d", got)
	}
	q.ShardID = -5
	if got := q.shardIDWire(); got != -1 {
		t.Fatalf("negative shard: %d", got)
	}
	q.ShardID = 3
	if got := q.shardIDWire(); got != 3 {
		t.Fatalf("shard: %d", got)
	}
}

func TestLimiterKey(t *testing.T) {
	if limiterKey("Users") != "users" || limiterKey("USERS") != "users" {
		t.Fatal("limiter key not case-folded")
	}
}
