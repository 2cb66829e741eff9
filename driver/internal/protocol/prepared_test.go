// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"testing"

	"github.com/SAP/go-nosql/driver/internal/protocol/encoding"
)

func preparedBlob(namespace *string, table string, op OpCode, tableCount int) []byte {
	buf := encoding.NewBuffer()
	e := encoding.NewEncoder(buf)
	e.Int32(0) // prefix length, ignored
	e.Bytes(make([]byte, 32))
	e.Byte(byte(tableCount))
	e.StringPtr(namespace)
	e.String(table)
	e.Byte(byte(op))
	e.Bytes([]byte("opaque query plan remainder"))
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out
}

func TestParsePreparedInfo(t *testing.T) {
	ns := "myns"
	info, err := ParsePreparedInfo(preparedBlob(&ns, "users", OpQuery, 1))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if info.Namespace != "myns" || info.TableName != "users" {
		t.Fatalf("identity: %q.%q", info.Namespace, info.TableName)
	}
	if info.OpCode != OpQuery {
		t.Fatalf("opcode: %s", info.OpCode)
	}
	if info.TableCount != 1 {
		t.Fatalf("table count: %d", info.TableCount)
	}
}

func TestParsePreparedInfoNoNamespace(t *testing.T) {
	info, err := ParsePreparedInfo(preparedBlob(nil, "users", OpPut, 1))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if info.Namespace != "" {
		t.Fatalf("namespace: %q", info.Namespace)
	}
	if info.TableName != "users" {
		t.Fatalf("table: %q", info.TableName)
	}
}

func TestParsePreparedInfoTruncated(t *testing.T) {
	blob := preparedBlob(nil, "users", OpQuery, 1)
	for _, n := range []int{0, 3, 20, 36} {
		if _, err := ParsePreparedInfo(blob[:n]); err == nil {
			t.Fatalf("truncated blob of %d bytes accepted", n)
		}
	}
}
