// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"

	"github.com/SAP/go-nosql/driver/internal/protocol/encoding"
)

// PreparedInfo is the driver-visible prefix of the opaque prepared
// statement blob: the blob itself is sent back to the server verbatim,
// the driver only peeks at the fixed header to learn the statement's
// table, namespace and operation.
type PreparedInfo struct {
	Namespace  string
	TableName  string
	OpCode     OpCode
	TableCount int
}

// preparedHashSize is the size of the statement hash inside the blob
// prefix.
const preparedHashSize = 32

// ParsePreparedInfo parses the fixed blob prefix: a 4-byte length, a
// 32-byte hash, a 1-byte table count, the namespace string, the table
// string and the opcode byte. The blob bytes are read in place; the
// caller's view of the blob is not modified.
func ParsePreparedInfo(blob []byte) (*PreparedInfo, error) {
	d := encoding.NewDecoder(encoding.NewBufferBytes(blob))
	d.Int32() // prefix length, unused by the driver
	d.Bytes(preparedHashSize)
	info := &PreparedInfo{}
	info.TableCount = int(d.Byte())
	ns, _ := d.String()
	info.Namespace = ns
	info.TableName = d.NonNullString()
	info.OpCode = OpCode(d.Byte())
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("malformed prepared statement prefix: %w", err)
	}
	return info, nil
}
