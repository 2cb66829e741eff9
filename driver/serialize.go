// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"time"

	p "github.com/SAP/go-nosql/driver/internal/protocol"
	"github.com/SAP/go-nosql/driver/internal/protocol/encoding"
)

// serialCtx bundles the request, the pooled encoder/decoder pair and
// the protocol versions captured at attempt start. The versions are
// snapshots; a concurrent downgrade does not affect an attempt in
// flight.
type serialCtx struct {
	req           Request
	enc           *encoding.Encoder
	dec           *encoding.Decoder
	serialVersion int16
	queryVersion  int16
}

func (ctx *serialCtx) nson() bool { return ctx.serialVersion >= p.SerialV4 }

// serialize encodes the request body for the active protocol version.
func (ctx *serialCtx) serialize() error {
	if ctx.nson() {
		return ctx.req.serializeNson(ctx)
	}
	return ctx.req.serializeBinary(ctx)
}

// deserialize parses the response body for the version the request was
// encoded against.
func (ctx *serialCtx) deserialize() (Result, error) {
	if ctx.nson() {
		return ctx.req.deserializeNson(ctx)
	}
	return ctx.req.deserializeBinary(ctx)
}

// timeoutMs returns the request timeout in milliseconds as sent on the
// wire.
func (ctx *serialCtx) timeoutMs() int32 {
	return int32(ctx.req.base().timeout / time.Millisecond)
}

// optString writes s nullable: an empty string encodes as absent.
func optString(e *encoding.Encoder, s string) {
	if s == "" {
		e.NullString()
		return
	}
	e.String(s)
}

// readOptString reads a nullable string; absent reads as "".
func readOptString(d *encoding.Decoder) string {
	s, _ := d.String()
	return s
}

// millis converts a wall-clock time to epoch milliseconds; the zero
// time maps to 0.
func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
