// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	p "github.com/SAP/go-nosql/driver/internal/protocol"
)

// dataPath is the single service endpoint path.
const dataPath = "/V2/nosql/data"

const contentTypeOctetStream = "application/octet-stream"

// errUnsupportedProtocol marks a response revealing that the server
// does not speak the serial version the request was encoded with. The
// pipeline reacts by downgrading and re-serializing.
var errUnsupportedProtocol = &ServerError{Code: UnsupportedProtocol, Message: "server does not support this protocol version"}

// sessionCookiePrefix identifies the sticky-session cookie some
// deployments set behind load balancers.
const sessionCookiePrefix = "session="

// doAttempt performs one HTTP attempt: serialize, authorize, POST,
// parse. The rate-limit gate and retry decisions live in the caller.
func (c *Client) doAttempt(ctx context.Context, req Request, remaining time.Duration) (Result, error) {
	rb := req.base()
	serialVersion := int16(c.serialVersion.Load())
	rb.serialVersionUsed = serialVersion
	rb.queryVersionUsed = p.DefaultQueryVersion

	reqBuf, enc, _ := c.pool.Acquire()
	enc.Reset()
	sctx := &serialCtx{
		req:           req,
		enc:           enc,
		serialVersion: serialVersion,
		queryVersion:  rb.queryVersionUsed,
	}
	if err := sctx.serialize(); err != nil {
		c.pool.Release(reqBuf)
		return nil, argErrf(req.op().name, "serialization failed: %v", err)
	}
	body := reqBuf.Bytes()[:enc.Pos()]
	if err := checkRequestSize(req, len(body)); err != nil {
		c.pool.Release(reqBuf)
		return nil, err
	}

	attemptTimeout := remaining
	if attemptTimeout > maxAttemptTimeout {
		attemptTimeout = maxAttemptTimeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
	defer cancel()

	httpReq, err := c.newHTTPRequest(attemptCtx, req, body)
	if err != nil {
		c.pool.Release(reqBuf)
		return nil, err
	}

	c.metrics.bytesWritten.Add(uint64(len(body)))
	resp, err := c.cfg.HTTPClient.Do(httpReq)
	// the request body has been written (or the send failed); either
	// way the buffer is done
	c.pool.Release(reqBuf)
	if err != nil {
		c.metrics.networkFailures.Add(1)
		return nil, &NetworkError{Cause: err}
	}
	defer resp.Body.Close()

	c.captureSessionCookie(resp)

	respBuf, _, dec := c.pool.Acquire()
	defer c.pool.Release(respBuf)
	if err := readBody(respBuf.AppendBytes, resp.Body); err != nil {
		c.metrics.networkFailures.Add(1)
		return nil, &NetworkError{Cause: err}
	}
	c.metrics.bytesRead.Add(uint64(respBuf.Len()))

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusBadRequest:
		return nil, &ServiceError{StatusCode: resp.StatusCode, Detail: strings.TrimSpace(string(respBuf.Bytes()))}
	default:
		return nil, &ServiceError{StatusCode: resp.StatusCode, Detail: fmt.Sprintf("unexpected HTTP status %s", resp.Status)}
	}

	// A pre-V4 server answers a V4 request in the binary format, so
	// the first byte is the raw error code 17 (BAD_PROTOCOL_MESSAGE)
	// or 24 (UNSUPPORTED_PROTOCOL). Neither value is a valid NSON type
	// tag (a V4 response always starts with the MAP tag), which makes
	// the sniff unambiguous.
	if serialVersion >= p.SerialV4 {
		if b := respBuf.Bytes(); len(b) > 0 &&
			(p.ErrorCode(b[0]) == BadProtocolMessage || p.ErrorCode(b[0]) == UnsupportedProtocol) {
			return nil, errUnsupportedProtocol
		}
	}

	sctx.dec = dec
	res, err := sctx.deserialize()
	if err != nil {
		return nil, err
	}
	return res, nil
}

// checkRequestSize enforces the client-side payload caps.
func checkRequestSize(req Request, size int) error {
	limit := p.RequestSizeLimit
	if _, ok := req.(*WriteMultipleRequest); ok {
		limit = p.BatchRequestSizeLimit
	}
	if size > limit {
		return &ServerError{
			Code:    RequestSizeLimitExceeded,
			Message: fmt.Sprintf("request size %d exceeds the limit of %d", size, limit),
		}
	}
	return nil
}

func (c *Client) newHTTPRequest(ctx context.Context, req Request, body []byte) (*http.Request, error) {
	rb := req.base()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.requestURL, bytes.NewReader(body))
	if err != nil {
		return nil, argErrf(req.op().name, "building HTTP request: %v", err)
	}

	authReq := &AuthRequest{
		Method:      http.MethodPost,
		URL:         c.requestURL,
		Body:        body,
		Compartment: rb.compartment,
		LastError:   rb.lastErr,
	}
	authHeaders, err := c.cfg.AuthProvider.Authorization(ctx, authReq)
	if err != nil {
		return nil, fmt.Errorf("%s: authorization failed: %w", req.op().name, err)
	}
	for key, vals := range authHeaders {
		for _, v := range vals {
			httpReq.Header.Add(key, v)
		}
	}

	httpReq.Header.Set("Content-Type", contentTypeOctetStream)
	httpReq.Header.Set("Accept", contentTypeOctetStream)
	httpReq.Header.Set("Connection", "keep-alive")
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("x-nosql-request-id", strconv.FormatInt(c.requestID.Add(1), 10))
	if rb.compartment != "" {
		httpReq.Header.Set("x-nosql-compartment-id", rb.compartment)
	}
	if rb.namespace != "" {
		httpReq.Header.Set("x-nosql-namespace", rb.namespace)
	}
	if cookie, ok := c.sessionCookie.Load().(string); ok && cookie != "" {
		httpReq.Header.Set("Cookie", cookie)
	}
	return httpReq, nil
}

// captureSessionCookie stores a session= cookie for replay on
// subsequent requests. Last writer wins; racing updates are benign.
func (c *Client) captureSessionCookie(resp *http.Response) {
	for _, sc := range resp.Header.Values("Set-Cookie") {
		if !strings.HasPrefix(sc, sessionCookiePrefix) {
			continue
		}
		if i := strings.IndexByte(sc, ';'); i >= 0 {
			sc = sc[:i]
		}
		c.sessionCookie.Store(sc)
		c.logger.Debug("session cookie updated")
		return
	}
}

// readBody drains r into the pooled buffer through appendFn.
func readBody(appendFn func([]byte), r io.Reader) error {
	var chunk [4096]byte
	for {
		n, err := r.Read(chunk[:])
		if n > 0 {
			appendFn(chunk[:n])
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
