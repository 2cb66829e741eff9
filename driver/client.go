// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	p "github.com/SAP/go-nosql/driver/internal/protocol"
	"github.com/SAP/go-nosql/driver/internal/protocol/encoding"
)

// Client is the entry point to the service. It is safe for concurrent
// use; all operations share the protocol version state, the buffer
// pool, the HTTP connection pool, the session cookie and the
// rate-limiter map.
type Client struct {
	cfg        Config
	requestURL string
	logger     *slog.Logger

	// serialVersion is the active protocol version. It only moves
	// down, via the downgrade rule.
	serialVersion atomic.Int32
	requestID     atomic.Int64
	sessionCookie atomic.Value // string

	pool      *encoding.Pool
	limiters  *rateLimiterMap
	metrics   *metrics
	observers []Observer

	closed atomic.Bool
}

// NewClient creates a client from cfg. The returned client holds
// background resources; call Close when done.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	u, err := normalizeEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	c := &Client{
		cfg:        cfg,
		requestURL: u.String() + dataPath,
		logger:     cfg.Logger,
		pool:       encoding.NewPool(),
		metrics:    newMetrics(),
		observers:  cfg.Observers,
	}
	c.serialVersion.Store(int32(p.SerialV4))
	c.sessionCookie.Store("")
	if cfg.RateLimitingEnabled {
		c.limiters = newRateLimiterMap(c)
	}
	c.logger.Debug("client created", slog.String("endpoint", u.String()))
	return c, nil
}

// Close releases background resources: the rate-limiter refresh loop,
// idle HTTP connections and, when the auth provider implements
// io.Closer, the provider itself.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c.limiters != nil {
		c.limiters.close()
	}
	c.cfg.HTTPClient.CloseIdleConnections()
	if closer, ok := c.cfg.AuthProvider.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SerialVersion reports the active protocol version, for diagnostics.
func (c *Client) SerialVersion() int { return int(c.serialVersion.Load()) }

// decrementSerialVersion applies the downgrade rule after an
// unsupported-protocol response. usedVersion is the version the
// failed request was encoded against; when it no longer matches the
// active version another request already downgraded and this one just
// retries. Returns false when there is no version left to try.
func (c *Client) decrementSerialVersion(usedVersion int16) bool {
	for {
		cur := c.serialVersion.Load()
		if int16(cur) != usedVersion {
			return true // concurrent downgrade won the race
		}
		if cur <= int32(p.SerialV2) {
			return false
		}
		if c.serialVersion.CompareAndSwap(cur, cur-1) {
			c.logger.Info("protocol version downgraded",
				slog.Int("from", int(cur)), slog.Int("to", int(cur-1)))
			return true
		}
	}
}

// execute runs the request pipeline: defaults, validation, the
// rate-limit gate and the retry loop around HTTP attempts.
func (c *Client) execute(ctx context.Context, req Request) (Result, error) {
	req.setDefaults(&c.cfg)
	if err := req.validate(); err != nil {
		c.emitError(req, err)
		return nil, err
	}
	c.metrics.requests.Add(1)
	start := time.Now()
	res, err := c.executeWithRetry(ctx, req)
	c.metrics.requestTime.add(time.Since(start))
	if err != nil {
		c.emitError(req, err)
		return nil, err
	}
	c.onResult(req, res)
	return res, nil
}

func (c *Client) executeWithRetry(ctx context.Context, req Request) (Result, error) {
	rb := req.base()
	op := req.op()
	deadline := time.Now().Add(rb.timeout)
	// SECURITY_INFO_UNAVAILABLE may extend the budget: freshly created
	// credentials propagate through the service asynchronously.
	secDeadline := deadline
	if d := time.Now().Add(c.cfg.SecurityInfoTimeout); d.After(secDeadline) {
		secDeadline = d
	}

	if c.limiters != nil {
		c.limiters.initRequest(req)
	}

	for attempt := 0; ; attempt++ {
		eff := deadline
		if errIs(rb.lastErr, SecurityInfoUnavailable) {
			eff = secDeadline
		}
		remaining := time.Until(eff)
		if remaining <= 0 {
			return nil, c.timeoutError(req, attempt)
		}

		if c.limiters != nil {
			if err := c.limiters.startRequest(ctx, req, remaining); err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				rb.lastErr = err
				return nil, c.timeoutError(req, attempt+1)
			}
			remaining = time.Until(eff)
			if remaining <= 0 {
				return nil, c.timeoutError(req, attempt+1)
			}
		}

		res, err := c.doAttempt(ctx, req, remaining)
		if err == nil {
			if c.limiters != nil {
				c.limiters.finishRequest(ctx, req, res, time.Until(eff))
			}
			return res, nil
		}
		rb.lastErr = err

		if errors.Is(err, errUnsupportedProtocol) || errIs(err, UnsupportedProtocol) || errIs(err, BadProtocolMessage) {
			if !c.decrementSerialVersion(rb.serialVersionUsed) {
				return nil, err
			}
			// a version change is not a retry
			continue
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if throttleError(err) {
			c.metrics.throttleErrors.Add(1)
			if c.limiters != nil {
				c.limiters.onError(req, err)
			}
		}
		if !c.cfg.RetryHandler.ShouldRetry(req, rb.numRetries, err) {
			return nil, err
		}
		delay := c.cfg.RetryHandler.Delay(req, rb.numRetries, err)
		if time.Until(eff)-delay <= 0 {
			return nil, c.timeoutError(req, attempt+1)
		}
		c.emitRetryable(req, err)
		c.metrics.retries.Add(1)
		rb.numRetries++
		c.logger.Debug("retrying request",
			slog.String("op", op.name),
			slog.Int("retries", rb.numRetries),
			slog.Duration("delay", delay),
			slog.Any("error", err))
		if delay > 0 {
			t := time.NewTimer(delay)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			}
		}
	}
}

func (c *Client) timeoutError(req Request, attempts int) error {
	rb := req.base()
	return &TimeoutError{
		Op:       req.op().name,
		Timeout:  rb.timeout,
		Attempts: attempts,
		Cause:    rb.lastErr,
	}
}

// onResult runs the post-success hooks: observer events and limiter
// refreshes driven by table results.
func (c *Client) onResult(req Request, res Result) {
	c.emitConsumedCapacity(req, res.Consumed())
	if tr, ok := res.(*TableResult); ok {
		c.emitTableState(req, tr.TableName, tr.State)
		if c.limiters != nil {
			c.limiters.update(tr)
		}
	}
}

// Get reads a single row.
func (c *Client) Get(ctx context.Context, req *GetRequest) (*GetResult, error) {
	res, err := c.execute(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.(*GetResult), nil
}

// Put writes a single row.
func (c *Client) Put(ctx context.Context, req *PutRequest) (*PutResult, error) {
	res, err := c.execute(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.(*PutResult), nil
}

// Delete deletes a single row.
func (c *Client) Delete(ctx context.Context, req *DeleteRequest) (*DeleteResult, error) {
	res, err := c.execute(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.(*DeleteResult), nil
}

// MultiDelete deletes a range of rows sharing a shard key. With
// req.All set the client loops over continuation keys until the range
// is exhausted; on a mid-loop error the partial deletion count is
// reported inside the returned result alongside the error.
func (c *Client) MultiDelete(ctx context.Context, req *MultiDeleteRequest) (*MultiDeleteResult, error) {
	res, err := c.execute(ctx, req)
	if err != nil || !req.All {
		if err != nil {
			return nil, err
		}
		return res.(*MultiDeleteResult), nil
	}
	total := res.(*MultiDeleteResult)
	for total.ContinuationKey != nil {
		req.ContinuationKey = total.ContinuationKey
		res, err = c.execute(ctx, req)
		if err != nil {
			// partial progress is reported, not rolled back
			total.ContinuationKey = req.ContinuationKey
			return total, err
		}
		next := res.(*MultiDeleteResult)
		total.NumDeleted += next.NumDeleted
		total.Capacity.ReadUnits += next.Capacity.ReadUnits
		total.Capacity.ReadKB += next.Capacity.ReadKB
		total.Capacity.WriteUnits += next.Capacity.WriteUnits
		total.Capacity.WriteKB += next.Capacity.WriteKB
		total.ContinuationKey = next.ContinuationKey
	}
	return total, nil
}

// WriteMultiple executes a batch of put/delete operations atomically.
func (c *Client) WriteMultiple(ctx context.Context, req *WriteMultipleRequest) (*WriteMultipleResult, error) {
	res, err := c.execute(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.(*WriteMultipleResult), nil
}

// Prepare compiles a query statement.
func (c *Client) Prepare(ctx context.Context, req *PrepareRequest) (*PrepareResult, error) {
	res, err := c.execute(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.(*PrepareResult), nil
}

// Query executes one batch of a query. Re-issue the request with the
// returned continuation key until it is nil.
func (c *Client) Query(ctx context.Context, req *QueryRequest) (*QueryResult, error) {
	res, err := c.execute(ctx, req)
	if err != nil {
		return nil, err
	}
	qr := res.(*QueryResult)
	req.ContinuationKey = qr.ContinuationKey
	return qr, nil
}

// GetTable fetches table metadata.
func (c *Client) GetTable(ctx context.Context, req *GetTableRequest) (*TableResult, error) {
	res, err := c.execute(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.(*TableResult), nil
}

// DoTableRequest starts a DDL or limits change. DDL is asynchronous;
// poll with GetTable or use DoTableRequestAndWait.
func (c *Client) DoTableRequest(ctx context.Context, req *TableRequest) (*TableResult, error) {
	res, err := c.execute(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.(*TableResult), nil
}

// DoTableRequestAndWait starts a DDL operation and polls until it
// leaves its transitional state or waitTimeout elapses.
func (c *Client) DoTableRequestAndWait(ctx context.Context, req *TableRequest, waitTimeout, pollInterval time.Duration) (*TableResult, error) {
	res, err := c.DoTableRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	return c.WaitForCompletion(ctx, res, waitTimeout, pollInterval)
}

// WaitForCompletion polls GetTable until the table reaches a terminal
// state (ACTIVE or DROPPED).
func (c *Client) WaitForCompletion(ctx context.Context, res *TableResult, waitTimeout, pollInterval time.Duration) (*TableResult, error) {
	if res == nil {
		return nil, argErrf("WaitForCompletion", "table result must not be nil")
	}
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	deadline := time.Now().Add(waitTimeout)
	cur := res
	for !cur.State.IsTerminal() {
		if time.Now().After(deadline) {
			return cur, &TimeoutError{Op: "WaitForCompletion", Timeout: waitTimeout}
		}
		t := time.NewTimer(pollInterval)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return cur, ctx.Err()
		}
		next, err := c.GetTable(ctx, &GetTableRequest{
			TableName:   cur.TableName,
			OperationID: res.OperationID,
		})
		if err != nil {
			return cur, err
		}
		cur = next
	}
	return cur, nil
}

// GetIndexes lists the indexes of a table.
func (c *Client) GetIndexes(ctx context.Context, req *GetIndexesRequest) (*GetIndexesResult, error) {
	res, err := c.execute(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.(*GetIndexesResult), nil
}

// ListTables lists table names.
func (c *Client) ListTables(ctx context.Context, req *ListTablesRequest) (*ListTablesResult, error) {
	res, err := c.execute(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.(*ListTablesResult), nil
}

// GetTableUsage fetches table usage samples.
func (c *Client) GetTableUsage(ctx context.Context, req *TableUsageRequest) (*TableUsageResult, error) {
	res, err := c.execute(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.(*TableUsageResult), nil
}

// DoSystemRequest executes an on-prem admin DDL statement.
func (c *Client) DoSystemRequest(ctx context.Context, req *SystemRequest) (*SystemResult, error) {
	res, err := c.execute(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.(*SystemResult), nil
}

// GetSystemStatus polls the progress of a system request.
func (c *Client) GetSystemStatus(ctx context.Context, req *SystemStatusRequest) (*SystemResult, error) {
	res, err := c.execute(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.(*SystemResult), nil
}
