// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"testing"
	"time"

	p "github.com/SAP/go-nosql/driver/internal/protocol"
)

func TestNewDefaultRetryHandler(t *testing.T) {
	h := NewDefaultRetryHandler(0).(*defaultRetryHandler)
	if h.MaxRetries != DefaultRetryMaxRetries {
		t.Fatalf("max retries: %d", h.MaxRetries)
	}
	h = NewDefaultRetryHandler(3).(*defaultRetryHandler)
	if h.MaxRetries != 3 {
		t.Fatalf("max retries: %d", h.MaxRetries)
	}
}

func TestShouldRetry(t *testing.T) {
	h := NewDefaultRetryHandler(5)
	get := &GetRequest{TableName: "t", Key: testKey()}
	ddl := &TableRequest{Statement: "create table t"}

	serverErr := &ServerError{Code: p.ServerError}
	if !h.ShouldRetry(get, 0, serverErr) {
		t.Fatal("transient server error not retried")
	}
	if h.ShouldRetry(get, 5, serverErr) {
		t.Fatal("budget exceeded but retried")
	}
	if h.ShouldRetry(ddl, 0, serverErr) {
		t.Fatal("never-retry operation retried")
	}
	if h.ShouldRetry(get, 0, &ServerError{Code: TableNotFound}) {
		t.Fatal("fatal error retried")
	}
	if !h.ShouldRetry(get, 0, &NetworkError{Cause: errTest}) {
		t.Fatal("network error not retried")
	}

	// security info retries are not counted against the budget
	secErr := &ServerError{Code: SecurityInfoUnavailable}
	if !h.ShouldRetry(get, 100, secErr) {
		t.Fatal("security info retry bounded by budget")
	}
	if !h.ShouldRetry(get, 100, &ServerError{Code: RetryAuthentication}) {
		t.Fatal("retry authentication bounded by budget")
	}

	// throttling with an active limiter retries on the limiter's schedule
	throttled := &ServerError{Code: ReadLimitExceeded}
	if h.ShouldRetry(get, 5, throttled) {
		t.Fatal("throttle without limiter retried past budget")
	}
	get.readLimiter = NewSimpleRateLimiter(1)
	if !h.ShouldRetry(get, 100, throttled) {
		t.Fatal("throttle with limiter not retried")
	}
}

func TestRetryDelay(t *testing.T) {
	h := NewDefaultRetryHandler(5)
	get := &GetRequest{TableName: "t", Key: testKey()}

	secErr := &ServerError{Code: SecurityInfoUnavailable}
	for n := 0; n < securityInfoFlatRetries; n++ {
		if d := h.Delay(get, n, secErr); d != securityInfoDelay {
			t.Fatalf("security info delay at retry %d: %v", n, d)
		}
	}
	if d := h.Delay(get, securityInfoFlatRetries, secErr); d == securityInfoDelay {
		t.Fatal("flat delay past the flat retry window")
	}

	// exponential with full jitter around the initial interval
	get2 := &GetRequest{TableName: "t", Key: testKey()}
	d := h.Delay(get2, 0, &ServerError{Code: p.ServerError})
	if d < defaultRetryInitialDelay/2 || d > defaultRetryInitialDelay*3/2 {
		t.Fatalf("first backoff delay: %v", d)
	}
	// the backoff state lives on the request and grows across calls
	var max time.Duration
	for n := 1; n < 20; n++ {
		if d := h.Delay(get2, n, &ServerError{Code: p.ServerError}); d > max {
			max = d
		}
	}
	if max <= defaultRetryInitialDelay {
		t.Fatalf("backoff never grew: %v", max)
	}
	if max > defaultRetryMaxDelay*3/2 {
		t.Fatalf("backoff exceeded cap: %v", max)
	}

	// throttling with an active limiter gets no extra handler delay
	get3 := &GetRequest{TableName: "t", Key: testKey()}
	get3.readLimiter = NewSimpleRateLimiter(1)
	if d := h.Delay(get3, 0, &ServerError{Code: ReadLimitExceeded}); d != 0 {
		t.Fatalf("throttle delay with limiter: %v", d)
	}
}
