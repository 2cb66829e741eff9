// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import "fmt"

// ErrorCode is a typed server error code.
type ErrorCode int

// ErrorCode values are fixed by the server contract.
//
// Codes below 50 report caller problems and are not retryable. Codes
// 50..59 report throttling and are retryable after a delay. Codes at
// 100 and above report transient server conditions and are retryable.
const (
	NoError                        ErrorCode = 0
	UnknownOperation               ErrorCode = 1
	TableNotFound                  ErrorCode = 2
	IndexNotFound                  ErrorCode = 3
	IllegalArgument                ErrorCode = 4
	RowSizeLimitExceeded           ErrorCode = 5
	KeySizeLimitExceeded           ErrorCode = 6
	BatchOpNumberLimitExceeded     ErrorCode = 7
	RequestSizeLimitExceeded       ErrorCode = 8
	TableExists                    ErrorCode = 9
	IndexExists                    ErrorCode = 10
	InvalidAuthorization           ErrorCode = 11
	InsufficientPermission         ErrorCode = 12
	ResourceExists                 ErrorCode = 13
	ResourceNotFound               ErrorCode = 14
	TableLimitExceeded             ErrorCode = 15
	IndexLimitExceeded             ErrorCode = 16
	BadProtocolMessage             ErrorCode = 17
	EvolutionLimitExceeded         ErrorCode = 18
	TableDeploymentLimitExceeded   ErrorCode = 19
	TenantDeploymentLimitExceeded  ErrorCode = 20
	OperationNotSupported          ErrorCode = 21
	EtagMismatch                   ErrorCode = 22
	CannotCancelWorkRequest        ErrorCode = 23
	UnsupportedProtocol            ErrorCode = 24
	TableNotReady                  ErrorCode = 26
	UnsupportedQueryVersion        ErrorCode = 27
	ReadLimitExceeded              ErrorCode = 50
	WriteLimitExceeded             ErrorCode = 51
	SizeLimitExceeded              ErrorCode = 52
	OperationLimitExceeded         ErrorCode = 53
	RequestTimeout                 ErrorCode = 100
	ServerError                    ErrorCode = 101
	ServiceUnavailable             ErrorCode = 102
	TableBusy                      ErrorCode = 103
	SecurityInfoUnavailable        ErrorCode = 104
	RetryAuthentication            ErrorCode = 105
	UnknownError                   ErrorCode = 125
	IllegalState                   ErrorCode = 126
)

var errorCodeStrs = map[ErrorCode]string{
	NoError:                       "NoError",
	UnknownOperation:              "UnknownOperation",
	TableNotFound:                 "TableNotFound",
	IndexNotFound:                 "IndexNotFound",
	IllegalArgument:               "IllegalArgument",
	RowSizeLimitExceeded:          "RowSizeLimitExceeded",
	KeySizeLimitExceeded:          "KeySizeLimitExceeded",
	BatchOpNumberLimitExceeded:    "BatchOpNumberLimitExceeded",
	RequestSizeLimitExceeded:      "RequestSizeLimitExceeded",
	TableExists:                   "TableExists",
	IndexExists:                   "IndexExists",
	InvalidAuthorization:          "InvalidAuthorization",
	InsufficientPermission:        "InsufficientPermission",
	ResourceExists:                "ResourceExists",
	ResourceNotFound:              "ResourceNotFound",
	TableLimitExceeded:            "TableLimitExceeded",
	IndexLimitExceeded:            "IndexLimitExceeded",
	BadProtocolMessage:            "BadProtocolMessage",
	EvolutionLimitExceeded:        "EvolutionLimitExceeded",
	TableDeploymentLimitExceeded:  "TableDeploymentLimitExceeded",
	TenantDeploymentLimitExceeded: "TenantDeploymentLimitExceeded",
	OperationNotSupported:         "OperationNotSupported",
	EtagMismatch:                  "EtagMismatch",
	CannotCancelWorkRequest:       "CannotCancelWorkRequest",
	UnsupportedProtocol:           "UnsupportedProtocol",
	TableNotReady:                 "TableNotReady",
	UnsupportedQueryVersion:       "UnsupportedQueryVersion",
	ReadLimitExceeded:             "ReadLimitExceeded",
	WriteLimitExceeded:            "WriteLimitExceeded",
	SizeLimitExceeded:             "SizeLimitExceeded",
	OperationLimitExceeded:        "OperationLimitExceeded",
	RequestTimeout:                "RequestTimeout",
	ServerError:                   "ServerError",
	ServiceUnavailable:            "ServiceUnavailable",
	TableBusy:                     "TableBusy",
	SecurityInfoUnavailable:       "SecurityInfoUnavailable",
	RetryAuthentication:           "RetryAuthentication",
	UnknownError:                  "UnknownError",
	IllegalState:                  "IllegalState",
}

func (c ErrorCode) String() string {
	if s, ok := errorCodeStrs[c]; ok {
		return s
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// Retryable reports whether an operation failing with this code may
// succeed when retried.
func (c ErrorCode) Retryable() bool {
	switch c {
	case ReadLimitExceeded, WriteLimitExceeded, SizeLimitExceeded,
		OperationLimitExceeded, ServerError, ServiceUnavailable,
		TableBusy, SecurityInfoUnavailable, RetryAuthentication,
		TableNotReady:
		return true
	default:
		return false
	}
}
