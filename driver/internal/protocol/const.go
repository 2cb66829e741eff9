// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

// Package protocol implements the wire protocol of the NoSQL service:
// the fixed constant tables (serial versions, opcodes, value type
// codes, server error codes, NSON field keys), the FieldValue codecs
// for the positional binary format (V2/V3) and the self-describing
// NSON format (V4), and prepared-statement blob handling.
package protocol

import "fmt"

// Serial (protocol) versions. V4 switches the body format from the
// positional binary encoding to NSON.
const (
	SerialV2 int16 = 2
	SerialV3 int16 = 3
	SerialV4 int16 = 4
)

// DefaultQueryVersion is the query sub-protocol version sent by V4
// query requests.
const DefaultQueryVersion int16 = 3

// Request size limits enforced client-side.
const (
	RequestSizeLimit      = 2 * 1024 * 1024  // single request
	BatchRequestSizeLimit = 25 * 1024 * 1024 // WriteMultiple
	BatchOpNumberLimit    = 50               // WriteMultiple entries
)

// OpCode identifies an operation on the wire.
type OpCode int

// OpCode values are fixed by the server contract.
const (
	OpDelete              OpCode = 0
	OpDeleteIfVersion     OpCode = 1
	OpGet                 OpCode = 2
	OpPut                 OpCode = 3
	OpPutIfAbsent         OpCode = 4
	OpPutIfPresent        OpCode = 5
	OpPutIfVersion        OpCode = 6
	OpQuery               OpCode = 7
	OpPrepare             OpCode = 8
	OpWriteMultiple       OpCode = 9
	OpMultiDelete         OpCode = 10
	OpGetTable            OpCode = 11
	OpGetIndexes          OpCode = 12
	OpGetTableUsage       OpCode = 13
	OpListTables          OpCode = 14
	OpTableRequest        OpCode = 15
	OpScan                OpCode = 16
	OpIndexScan           OpCode = 17
	OpCreateTable         OpCode = 18
	OpAlterTable          OpCode = 19
	OpDropTable           OpCode = 20
	OpCreateIndex         OpCode = 21
	OpDropIndex           OpCode = 22
	OpSystemRequest       OpCode = 23
	OpSystemStatusRequest OpCode = 24
)

var opCodeStrs = map[OpCode]string{
	OpDelete:              "Delete",
	OpDeleteIfVersion:     "DeleteIfVersion",
	OpGet:                 "Get",
	OpPut:                 "Put",
	OpPutIfAbsent:         "PutIfAbsent",
	OpPutIfPresent:        "PutIfPresent",
	OpPutIfVersion:        "PutIfVersion",
	OpQuery:               "Query",
	OpPrepare:             "Prepare",
	OpWriteMultiple:       "WriteMultiple",
	OpMultiDelete:         "MultiDelete",
	OpGetTable:            "GetTable",
	OpGetIndexes:          "GetIndexes",
	OpGetTableUsage:       "GetTableUsage",
	OpListTables:          "ListTables",
	OpTableRequest:        "TableRequest",
	OpScan:                "Scan",
	OpIndexScan:           "IndexScan",
	OpCreateTable:         "CreateTable",
	OpAlterTable:          "AlterTable",
	OpDropTable:           "DropTable",
	OpCreateIndex:         "CreateIndex",
	OpDropIndex:           "DropIndex",
	OpSystemRequest:       "SystemRequest",
	OpSystemStatusRequest: "SystemStatusRequest",
}

func (o OpCode) String() string {
	if s, ok := opCodeStrs[o]; ok {
		return s
	}
	return fmt.Sprintf("OpCode(%d)", int(o))
}

// TypeCode is the wire type tag of a FieldValue.
type TypeCode byte

// TypeCode values are fixed by the server contract.
const (
	TypeArray     TypeCode = 0
	TypeBinary    TypeCode = 1
	TypeBoolean   TypeCode = 2
	TypeDouble    TypeCode = 3
	TypeInteger   TypeCode = 4
	TypeLong      TypeCode = 5
	TypeMap       TypeCode = 6
	TypeString    TypeCode = 7
	TypeTimestamp TypeCode = 8
	TypeNumber    TypeCode = 9
	TypeJSONNull  TypeCode = 10
	TypeNull      TypeCode = 11
	TypeEmpty     TypeCode = 12
)

var typeCodeStrs = []string{
	"Array", "Binary", "Boolean", "Double", "Integer", "Long", "Map",
	"String", "Timestamp", "Number", "JsonNull", "Null", "Empty",
}

func (t TypeCode) String() string {
	if int(t) < len(typeCodeStrs) {
		return typeCodeStrs[t]
	}
	return fmt.Sprintf("TypeCode(%d)", int(t))
}

// MaxElemCount caps the element count of any composite value; larger
// declared counts on adversarial input are rejected instead of looped
// over.
const MaxElemCount = 1_000_000_000
