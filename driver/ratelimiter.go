// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter is the pluggable per-table limiter strategy. One
// instance limits one direction (read or write) of one table.
// Implementations must be safe for concurrent use.
type RateLimiter interface {
	// SetLimit reconfigures the limit in units per second.
	SetLimit(unitsPerSecond float64)
	// Limit returns the configured units per second.
	Limit() float64
	// ConsumeUnits consumes units, waiting up to timeout when the
	// bucket is exhausted and reporting the time actually waited.
	// With alreadyConsumed the units have been spent on the server
	// already (post-request accounting); the call still settles the
	// debt against the bucket and reports the imposed delay.
	ConsumeUnits(ctx context.Context, units int, timeout time.Duration, alreadyConsumed bool) (time.Duration, error)
	// OnThrottle notifies the limiter that the server throttled a
	// request despite client-side limiting.
	OnThrottle(err error)
}

// DefaultBurstSeconds is the burst window of SimpleRateLimiter:
// unused capacity accumulates for this many seconds.
const DefaultBurstSeconds = 30.0

// SimpleRateLimiter is the default leaky-bucket limiter, implemented
// on a token bucket with a burst of burstSeconds worth of units.
type SimpleRateLimiter struct {
	mu           sync.Mutex
	lim          *rate.Limiter
	units        float64
	burstSeconds float64
}

// NewSimpleRateLimiter creates a limiter of unitsPerSecond with the
// default burst window.
func NewSimpleRateLimiter(unitsPerSecond float64) *SimpleRateLimiter {
	return NewSimpleRateLimiterWithBurst(unitsPerSecond, DefaultBurstSeconds)
}

// NewSimpleRateLimiterWithBurst creates a limiter of unitsPerSecond
// accumulating up to burstSeconds seconds of unused capacity.
func NewSimpleRateLimiterWithBurst(unitsPerSecond, burstSeconds float64) *SimpleRateLimiter {
	if burstSeconds <= 0 {
		burstSeconds = DefaultBurstSeconds
	}
	s := &SimpleRateLimiter{burstSeconds: burstSeconds}
	s.lim = rate.NewLimiter(rate.Limit(unitsPerSecond), s.burst(unitsPerSecond))
	s.units = unitsPerSecond
	return s
}

func (s *SimpleRateLimiter) burst(unitsPerSecond float64) int {
	b := int(unitsPerSecond * s.burstSeconds)
	if b < 1 {
		b = 1
	}
	return b
}

// SetLimit implements the RateLimiter interface.
func (s *SimpleRateLimiter) SetLimit(unitsPerSecond float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units = unitsPerSecond
	s.lim.SetLimit(rate.Limit(unitsPerSecond))
	s.lim.SetBurst(s.burst(unitsPerSecond))
}

// Limit implements the RateLimiter interface.
func (s *SimpleRateLimiter) Limit() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.units
}

// ConsumeUnits implements the RateLimiter interface. Consumption
// beyond the burst size is reserved in burst-sized chunks; the
// reported delay is the wait until the last chunk becomes available.
func (s *SimpleRateLimiter) ConsumeUnits(ctx context.Context, units int, timeout time.Duration, alreadyConsumed bool) (time.Duration, error) {
	if units < 0 {
		units = 0
	}
	s.mu.Lock()
	lim := s.lim
	s.mu.Unlock()

	now := time.Now()
	var delay time.Duration
	remaining := units
	var reservations []*rate.Reservation
	for {
		chunk := remaining
		if b := lim.Burst(); chunk > b {
			chunk = b
		}
		r := lim.ReserveN(now, chunk)
		if !r.OK() {
			break // burst shrank concurrently, drop the remainder
		}
		reservations = append(reservations, r)
		if d := r.DelayFrom(now); d > delay {
			delay = d
		}
		remaining -= chunk
		if remaining <= 0 {
			break
		}
	}
	if timeout > 0 && delay > timeout && !alreadyConsumed {
		for _, r := range reservations {
			r.CancelAt(now)
		}
		return 0, context.DeadlineExceeded
	}
	if delay <= 0 {
		return 0, nil
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return delay, nil
	case <-ctx.Done():
		return time.Since(now), ctx.Err()
	}
}

// OnThrottle implements the RateLimiter interface: the bucket is
// drained so subsequent consumers back off.
func (s *SimpleRateLimiter) OnThrottle(error) {
	s.mu.Lock()
	lim := s.lim
	s.mu.Unlock()
	lim.ReserveN(time.Now(), lim.Burst())
}
