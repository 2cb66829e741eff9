// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// TimeStat represents a statistic of spent time.
type TimeStat struct {
	// Count holds the number of measurements.
	Count uint64
	// Sum holds the sum of the spent time in milliseconds.
	Sum uint64
	// The bucket key is the upper time limit in milliseconds for a
	// measurement falling in this category; the value is the number of
	// measurements below that limit.
	Buckets map[uint64]uint64
}

func (s *TimeStat) String() string {
	return fmt.Sprintf("count %d sum %d values %v", s.Count, s.Sum, s.Buckets)
}

// timeUpperBounds are the request-duration histogram bounds in
// milliseconds.
var timeUpperBounds = []uint64{1, 10, 100, 1000, 10000, 100000}

type timeHistogram struct {
	mu      sync.Mutex
	count   uint64
	sum     uint64
	buckets map[uint64]uint64
}

func newTimeHistogram() *timeHistogram {
	return &timeHistogram{buckets: make(map[uint64]uint64, len(timeUpperBounds))}
}

func (h *timeHistogram) add(d time.Duration) {
	ms := uint64(d.Milliseconds())
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += ms
	i := sort.Search(len(timeUpperBounds), func(i int) bool { return ms <= timeUpperBounds[i] })
	if i < len(timeUpperBounds) {
		h.buckets[timeUpperBounds[i]]++
	}
}

func (h *timeHistogram) stat() TimeStat {
	h.mu.Lock()
	defer h.mu.Unlock()
	buckets := make(map[uint64]uint64, len(h.buckets))
	for k, v := range h.buckets {
		buckets[k] = v
	}
	return TimeStat{Count: h.count, Sum: h.sum, Buckets: buckets}
}

// Stats contains client statistics.
type Stats struct {
	// Requests is the number of public operations executed.
	Requests uint64
	// Retries is the number of retry attempts across all operations.
	Retries uint64
	// NetworkFailures counts attempts that failed at the socket level.
	NetworkFailures uint64
	// ThrottleErrors counts server throughput throttling responses.
	ThrottleErrors uint64
	// BytesWritten and BytesRead are request and response payload
	// bytes.
	BytesWritten uint64
	BytesRead    uint64
	// RateLimitDelay is the cumulative time operations spent waiting on
	// client-side rate limiters.
	RateLimitDelay time.Duration
	// RequestTime is the request duration histogram.
	RequestTime TimeStat
}

func (s *Stats) String() string {
	return fmt.Sprintf("requests %d retries %d networkFailures %d throttleErrors %d bytesWritten %d bytesRead %d rateLimitDelay %v",
		s.Requests, s.Retries, s.NetworkFailures, s.ThrottleErrors, s.BytesWritten, s.BytesRead, s.RateLimitDelay)
}

// metrics holds the live counters behind Stats.
type metrics struct {
	requests        atomic.Uint64
	retries         atomic.Uint64
	networkFailures atomic.Uint64
	throttleErrors  atomic.Uint64
	bytesWritten    atomic.Uint64
	bytesRead       atomic.Uint64
	rateLimitDelay  atomic.Int64 // nanoseconds
	requestTime     *timeHistogram
}

func newMetrics() *metrics {
	return &metrics{requestTime: newTimeHistogram()}
}

func (m *metrics) addRateLimitDelay(d time.Duration) {
	if d > 0 {
		m.rateLimitDelay.Add(int64(d))
	}
}

func (m *metrics) stats() *Stats {
	return &Stats{
		Requests:        m.requests.Load(),
		Retries:         m.retries.Load(),
		NetworkFailures: m.networkFailures.Load(),
		ThrottleErrors:  m.throttleErrors.Load(),
		BytesWritten:    m.bytesWritten.Load(),
		BytesRead:       m.bytesRead.Load(),
		RateLimitDelay:  time.Duration(m.rateLimitDelay.Load()),
		RequestTime:     m.requestTime.stat(),
	}
}

// Stats returns a snapshot of the client counters.
func (c *Client) Stats() *Stats { return c.metrics.stats() }
