// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryHandler decides whether and when a failed request attempt is
// retried. It is consulted only for errors that are retryable at all;
// fatal errors (argument, protocol, authorization) never reach it.
type RetryHandler interface {
	// ShouldRetry reports whether req should be attempted again after
	// err. numRetries is the number of retries already performed.
	ShouldRetry(req Request, numRetries int, err error) bool
	// Delay returns the wait before the next attempt.
	Delay(req Request, numRetries int, err error) time.Duration
}

// Default retry tuning.
const (
	DefaultRetryMaxRetries   = 10
	defaultRetryInitialDelay = 200 * time.Millisecond
	defaultRetryMaxDelay     = 10 * time.Second
	// securityInfoDelay is the fixed short delay applied while
	// authorization material propagates through the service.
	securityInfoDelay = 100 * time.Millisecond
	// securityInfoFlatRetries is the number of flat short delays before
	// exponential growth kicks in for SECURITY_INFO_UNAVAILABLE.
	securityInfoFlatRetries = 10
)

// defaultRetryHandler retries up to MaxRetries times with exponential
// backoff and full jitter. Throttling errors are not retried here at
// all when a rate limiter is active on the request, since the limiter
// already imposes the delay.
type defaultRetryHandler struct {
	MaxRetries int
}

// NewDefaultRetryHandler returns the stock retry handler. maxRetries
// <= 0 selects DefaultRetryMaxRetries.
func NewDefaultRetryHandler(maxRetries int) RetryHandler {
	if maxRetries <= 0 {
		maxRetries = DefaultRetryMaxRetries
	}
	return &defaultRetryHandler{MaxRetries: maxRetries}
}

// ShouldRetry implements the RetryHandler interface.
func (h *defaultRetryHandler) ShouldRetry(req Request, numRetries int, err error) bool {
	if req.op().neverRetry {
		return false
	}
	// SECURITY_INFO_UNAVAILABLE retries are not counted against the
	// budget; the pipeline bounds them by the security info timeout.
	if errIs(err, SecurityInfoUnavailable) || errIs(err, RetryAuthentication) {
		return true
	}
	if !retryableError(err) {
		return false
	}
	if throttleError(err) && req.base().rateLimited() {
		// the limiter was notified via OnThrottle; retry immediately
		// on its schedule rather than the handler's
		return true
	}
	return numRetries < h.MaxRetries
}

// Delay implements the RetryHandler interface.
func (h *defaultRetryHandler) Delay(req Request, numRetries int, err error) time.Duration {
	if errIs(err, SecurityInfoUnavailable) && numRetries < securityInfoFlatRetries {
		return securityInfoDelay
	}
	if throttleError(err) && req.base().rateLimited() {
		return 0
	}
	rb := req.base()
	if rb.backoff == nil {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = defaultRetryInitialDelay
		b.MaxInterval = defaultRetryMaxDelay
		b.MaxElapsedTime = 0
		b.Reset()
		rb.backoff = b
	}
	return rb.backoff.NextBackOff()
}
