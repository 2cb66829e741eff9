// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"errors"
	"fmt"
	"time"

	p "github.com/SAP/go-nosql/driver/internal/protocol"
)

// ErrorCode is a typed server error code.
type ErrorCode = p.ErrorCode

// Server error codes. See the protocol package for the full table.
const (
	TableNotFound            = p.TableNotFound
	IllegalArgument          = p.IllegalArgument
	RequestSizeLimitExceeded = p.RequestSizeLimitExceeded
	InvalidAuthorization     = p.InvalidAuthorization
	BadProtocolMessage       = p.BadProtocolMessage
	UnsupportedProtocol      = p.UnsupportedProtocol
	TableNotReady            = p.TableNotReady
	ReadLimitExceeded        = p.ReadLimitExceeded
	WriteLimitExceeded       = p.WriteLimitExceeded
	SizeLimitExceeded        = p.SizeLimitExceeded
	OperationLimitExceeded   = p.OperationLimitExceeded
	RequestTimeout           = p.RequestTimeout
	ServiceUnavailable       = p.ServiceUnavailable
	TableBusy                = p.TableBusy
	SecurityInfoUnavailable  = p.SecurityInfoUnavailable
	RetryAuthentication      = p.RetryAuthentication
)

// ArgumentError reports caller misuse. It is raised synchronously and
// never retried.
type ArgumentError struct {
	Op  string
	Msg string
}

func (e *ArgumentError) Error() string {
	if e.Op == "" {
		return "invalid argument: " + e.Msg
	}
	return fmt.Sprintf("%s: invalid argument: %s", e.Op, e.Msg)
}

func argErrf(op, format string, args ...any) error {
	return &ArgumentError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// ProtocolError reports a malformed response. It is fatal for the
// attempt and never retried.
type ProtocolError struct {
	Op    string
	Cause error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: protocol error: %v", e.Op, e.Cause)
}

func (e *ProtocolError) Unwrap() error { return e.Cause }

// ServiceError reports a non-200 HTTP response with the server detail.
type ServiceError struct {
	StatusCode int
	Detail     string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service error: HTTP %d: %s", e.StatusCode, e.Detail)
}

// NetworkError reports a socket-level failure. Retryable.
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string { return "network error: " + e.Cause.Error() }

func (e *NetworkError) Unwrap() error { return e.Cause }

// TimeoutError reports an exceeded operation deadline. It wraps the
// number of attempts performed and the last underlying cause. The
// client does not retry it; the caller may.
type TimeoutError struct {
	Op       string
	Timeout  time.Duration
	Attempts int
	Cause    error
}

func (e *TimeoutError) Error() string {
	s := fmt.Sprintf("%s: timeout after %v (%d attempts)", e.Op, e.Timeout, e.Attempts)
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *TimeoutError) Unwrap() error { return e.Cause }

// ServerError is a typed error returned by the service with a fixed
// error code.
type ServerError struct {
	Code    ErrorCode
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %s: %s", e.Code, e.Message)
}

// Retryable reports whether the operation may succeed when retried.
func (e *ServerError) Retryable() bool { return e.Code.Retryable() }

// errIs reports whether err carries the given server error code.
func errIs(err error, code ErrorCode) bool {
	var se *ServerError
	return errors.As(err, &se) && se.Code == code
}

// retryableError reports whether err is worth retrying at all,
// independent of the operation's own retry policy.
func retryableError(err error) bool {
	var se *ServerError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	var ne *NetworkError
	return errors.As(err, &ne)
}

// throttleError reports whether err is a throughput throttling
// response.
func throttleError(err error) bool {
	return errIs(err, ReadLimitExceeded) || errIs(err, WriteLimitExceeded) ||
		errIs(err, SizeLimitExceeded) || errIs(err, OperationLimitExceeded)
}
