// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SAP/go-nosql/driver/types"
)

// Configuration defaults. Zero Config fields are replaced by these on
// NewClient.
const (
	DefaultTimeout             = 5 * time.Second
	DefaultTableRequestTimeout = 10 * time.Second
	DefaultSecurityInfoTimeout = 10 * time.Second
	DefaultConsistency         = types.Eventual
	// maxAttemptTimeout caps the network timeout of a single attempt;
	// the operation deadline may be longer and spans retries.
	maxAttemptTimeout = 30 * time.Second
	minTimeout        = 1 * time.Millisecond
)

// Config collects the client configuration. The zero value of every
// optional field selects the documented default; Endpoint and
// AuthProvider are mandatory.
type Config struct {
	// Endpoint is the service base URL, e.g. "https://host:443". A bare
	// host gets scheme https and port 443; scheme http defaults to port
	// 8080.
	Endpoint string

	// AuthProvider supplies authorization headers per request.
	AuthProvider AuthProvider

	// HTTPClient is the transport used for requests. Defaults to a
	// client with sane connection pooling.
	HTTPClient *http.Client

	// Timeout bounds a data operation including retries.
	Timeout time.Duration
	// TableRequestTimeout bounds DDL operations including retries.
	TableRequestTimeout time.Duration
	// SecurityInfoTimeout bounds waiting for authorization material to
	// become available on the service side.
	SecurityInfoTimeout time.Duration

	// Consistency is the default read consistency.
	Consistency types.Consistency

	// RetryHandler replaces the default exponential backoff policy.
	RetryHandler RetryHandler

	// RateLimitingEnabled turns on client-side per-table rate limiting.
	RateLimitingEnabled bool
	// RateLimiterPercent restricts this client to the given percentage
	// of each table's throughput. 0 means 100.
	RateLimiterPercent float64
	// NewRateLimiter overrides the limiter constructor, for custom
	// RateLimiter implementations.
	NewRateLimiter func(unitsPerSecond float64) RateLimiter

	// Compartment is the default compartment or tenant qualifier.
	Compartment string
	// Namespace is the default table namespace (on-prem only).
	Namespace string

	// Logger receives structured pipeline logs. Defaults to
	// slog.Default.
	Logger *slog.Logger

	// Observers receive pipeline events.
	Observers []Observer
}

// clamp returns d normalized into [minTimeout, +inf), with def for the
// zero value.
func clamp(d, def time.Duration) time.Duration {
	if d == 0 {
		return def
	}
	if d < minTimeout {
		return minTimeout
	}
	return d
}

func (c *Config) setDefaults() {
	c.Timeout = clamp(c.Timeout, DefaultTimeout)
	c.TableRequestTimeout = clamp(c.TableRequestTimeout, DefaultTableRequestTimeout)
	c.SecurityInfoTimeout = clamp(c.SecurityInfoTimeout, DefaultSecurityInfoTimeout)
	if c.Consistency == types.UnsetConsistency {
		c.Consistency = DefaultConsistency
	}
	if c.RetryHandler == nil {
		c.RetryHandler = NewDefaultRetryHandler(0)
	}
	if c.RateLimiterPercent <= 0 || c.RateLimiterPercent > 100 {
		c.RateLimiterPercent = 100
	}
	if c.NewRateLimiter == nil {
		c.NewRateLimiter = func(units float64) RateLimiter { return NewSimpleRateLimiter(units) }
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
}

// normalizeEndpoint parses and completes the endpoint URL.
func normalizeEndpoint(endpoint string) (*url.URL, error) {
	if endpoint == "" {
		return nil, argErrf("config", "endpoint must not be empty")
	}
	s := endpoint
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, argErrf("config", "invalid endpoint %q: %v", endpoint, err)
	}
	switch u.Scheme {
	case "https":
		if u.Port() == "" {
			u.Host = u.Hostname() + ":443"
		}
	case "http":
		if u.Port() == "" {
			u.Host = u.Hostname() + ":8080"
		}
	default:
		return nil, argErrf("config", "unsupported endpoint scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u, nil
}

func (c *Config) validate() error {
	if c.AuthProvider == nil {
		return argErrf("config", "auth provider must not be nil")
	}
	if _, err := normalizeEndpoint(c.Endpoint); err != nil {
		return err
	}
	return nil
}

// String renders the config without secrets, for logs.
func (c *Config) String() string {
	return fmt.Sprintf("endpoint %s timeout %v tableRequestTimeout %v consistency %s rateLimiting %t",
		c.Endpoint, c.Timeout, c.TableRequestTimeout, c.Consistency, c.RateLimitingEnabled)
}
