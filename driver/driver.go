// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

// Package driver is a client for the NoSQL database service. A Client
// is created from a Config and executes typed operations (Get, Put,
// Delete, Query, table DDL and more) against the service's HTTP
// endpoint, handling protocol version negotiation, retries, timeouts
// and optional client-side per-table rate limiting.
package driver

import (
	"fmt"
	"runtime"
)

// DriverVersion is the version number of the driver.
const DriverVersion = "1.0.0"

// userAgent identifies the driver on the wire.
var userAgent = fmt.Sprintf("NoSQL-GoSDK/%s (go %s; %s/%s)",
	DriverVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
