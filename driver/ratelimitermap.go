// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP/go-nosql/driver/types"
)

const (
	// limiterRefreshInterval is the cadence of the background limiter
	// refresh.
	limiterRefreshInterval = 10 * time.Minute
	// limiterFetchTimeout is the internal budget of a background
	// GetTable issued to size a limiter, covering its own retries.
	limiterFetchTimeout = 5 * time.Minute
)

// rateLimiterEntry is the cached limiter pair of one table. The
// cached unit counts mirror what was last applied to the limiters so
// refreshes only touch limiters whose units actually changed.
type rateLimiterEntry struct {
	mu         sync.Mutex
	readUnits  float64
	writeUnits float64
	readRL     RateLimiter
	writeRL    RateLimiter
	noLimits   bool
}

// update applies new table limits, scaled by percent, touching only
// the limiters whose units changed.
func (e *rateLimiterEntry) update(limits *TableLimits, percent float64, newLimiter func(float64) RateLimiter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if limits == nil || (limits.ReadUnits <= 0 && limits.WriteUnits <= 0) {
		// on-demand tables have no client-enforceable limits
		e.noLimits = true
		return
	}
	e.noLimits = false
	ru := float64(limits.ReadUnits) * percent / 100
	wu := float64(limits.WriteUnits) * percent / 100
	if ru != e.readUnits {
		if e.readRL == nil {
			e.readRL = newLimiter(ru)
		} else {
			e.readRL.SetLimit(ru)
		}
		e.readUnits = ru
	}
	if wu != e.writeUnits {
		if e.writeRL == nil {
			e.writeRL = newLimiter(wu)
		} else {
			e.writeRL.SetLimit(wu)
		}
		e.writeUnits = wu
	}
}

func (e *rateLimiterEntry) limiters() (read, write RateLimiter, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.noLimits {
		return nil, nil, false
	}
	return e.readRL, e.writeRL, true
}

// rateLimiterMap tracks per-table limiter entries, keyed by lowercased
// table name. Unknown tables trigger a background GetTable to size the
// limiters; a periodic loop refreshes all entries so shared-percentage
// clients converge on limit changes.
type rateLimiterMap struct {
	c *Client

	mu       sync.Mutex
	entries  map[string]*rateLimiterEntry
	fetching map[string]bool

	done chan struct{}
	wg   sync.WaitGroup
}

func newRateLimiterMap(c *Client) *rateLimiterMap {
	m := &rateLimiterMap{
		c:        c,
		entries:  map[string]*rateLimiterEntry{},
		fetching: map[string]bool{},
		done:     make(chan struct{}),
	}
	m.wg.Add(1)
	go m.refreshLoop()
	return m
}

func (m *rateLimiterMap) close() {
	close(m.done)
	m.wg.Wait()
}

func (m *rateLimiterMap) refreshLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(limiterRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.mu.Lock()
			tables := make([]string, 0, len(m.entries))
			for table := range m.entries {
				tables = append(tables, table)
			}
			m.mu.Unlock()
			for _, table := range tables {
				m.fetchTable(table)
			}
		}
	}
}

// lookup returns the entry for table, spawning a background fetch when
// the table is unknown.
func (m *rateLimiterMap) lookup(table string) *rateLimiterEntry {
	if table == "" {
		return nil
	}
	key := limiterKey(table)
	m.mu.Lock()
	e, ok := m.entries[key]
	fetch := !ok && !m.fetching[key]
	if fetch {
		m.fetching[key] = true
	}
	m.mu.Unlock()
	if fetch {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.fetchTable(key)
		}()
	}
	return e
}

func (m *rateLimiterMap) fetchTable(table string) {
	ctx, cancel := context.WithTimeout(context.Background(), limiterFetchTimeout)
	defer cancel()
	res, err := m.c.GetTable(ctx, &GetTableRequest{TableName: table, Timeout: limiterFetchTimeout})
	m.mu.Lock()
	delete(m.fetching, limiterKey(table))
	m.mu.Unlock()
	if err != nil {
		m.c.logger.LogAttrs(ctx, slog.LevelWarn, "rate limiter table fetch failed",
			slog.String("table", table), slog.Any("error", err))
		return
	}
	m.update(res)
}

// update refreshes the entry from a table result delivered through the
// pipeline. A DROPPED table loses its entry.
func (m *rateLimiterMap) update(res *TableResult) {
	if res == nil || res.TableName == "" {
		return
	}
	key := limiterKey(res.TableName)
	if res.State == types.Dropped {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return
	}
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &rateLimiterEntry{}
		m.entries[key] = e
	}
	m.mu.Unlock()
	e.update(res.Limits, m.c.cfg.RateLimiterPercent, m.c.cfg.NewRateLimiter)
}

// initRequest caches the read/write hints and the limiter pair on the
// request.
func (m *rateLimiterMap) initRequest(req Request) {
	op := req.op()
	if !op.rateLimited {
		return
	}
	rb := req.base()
	rb.doesReads = op.reads
	rb.doesWrites = op.writes
	e := m.lookup(req.table())
	if e == nil {
		return
	}
	read, write, ok := e.limiters()
	if !ok {
		return
	}
	if rb.doesReads {
		rb.readLimiter = read
	}
	if rb.doesWrites {
		rb.writeLimiter = write
	}
}

// startRequest gates an attempt on the limiters, waiting for bucket
// capacity. The wait counts against the operation deadline.
func (m *rateLimiterMap) startRequest(ctx context.Context, req Request, remaining time.Duration) error {
	rb := req.base()
	for _, rl := range []RateLimiter{rb.readLimiter, rb.writeLimiter} {
		if rl == nil {
			continue
		}
		d, err := rl.ConsumeUnits(ctx, 0, remaining, false)
		if err != nil {
			return err
		}
		if rl == rb.readLimiter {
			rb.readDelay += d
		} else {
			rb.writeDelay += d
		}
		m.c.metrics.addRateLimitDelay(d)
	}
	return nil
}

// finishRequest settles the units the server reports as consumed and
// folds the observed delays into the result's consumed capacity.
func (m *rateLimiterMap) finishRequest(ctx context.Context, req Request, res Result, remaining time.Duration) {
	rb := req.base()
	if rb.readLimiter == nil && rb.writeLimiter == nil {
		// the table may have become known mid-request (prepared query)
		m.initRequest(req)
	}
	cc := res.Consumed()
	if rl := rb.readLimiter; rl != nil && cc.ReadUnits > 0 {
		d, _ := rl.ConsumeUnits(ctx, cc.ReadUnits, remaining, true)
		rb.readDelay += d
		m.c.metrics.addRateLimitDelay(d)
	}
	if rl := rb.writeLimiter; rl != nil && cc.WriteUnits > 0 {
		d, _ := rl.ConsumeUnits(ctx, cc.WriteUnits, remaining, true)
		rb.writeDelay += d
		m.c.metrics.addRateLimitDelay(d)
	}
	cc.ReadRateLimitDelay = rb.readDelay
	cc.WriteRateLimitDelay = rb.writeDelay
}

// onError reacts to server throttling: the read/write hints are forced
// on (detection may have been wrong) and the limiter is penalized.
func (m *rateLimiterMap) onError(req Request, err error) {
	rb := req.base()
	if errIs(err, ReadLimitExceeded) {
		rb.doesReads = true
		if rb.readLimiter == nil {
			m.initRequest(req)
		}
		if rb.readLimiter != nil {
			rb.readLimiter.OnThrottle(err)
		}
	}
	if errIs(err, WriteLimitExceeded) {
		rb.doesWrites = true
		if rb.writeLimiter == nil {
			m.initRequest(req)
		}
		if rb.writeLimiter != nil {
			rb.writeLimiter.OnThrottle(err)
		}
	}
}
