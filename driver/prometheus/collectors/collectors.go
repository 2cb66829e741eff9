// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

// Package collectors implements go-nosql prometheus collectors.
package collectors

import (
	"strings"

	"github.com/SAP/go-nosql/driver"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "go_nosql"

type stats interface {
	Stats() *driver.Stats
}

type collector struct {
	s stats

	requests        *prometheus.Desc
	retries         *prometheus.Desc
	networkFailures *prometheus.Desc
	throttleErrors  *prometheus.Desc
	readBytes       *prometheus.Desc
	writtenBytes    *prometheus.Desc
	rateLimitDelay  *prometheus.Desc
	requestTime     *prometheus.Desc
}

func newCollector(s stats, labels prometheus.Labels) prometheus.Collector {
	// fqName: namespace, subsystem, name
	fqName := func(name string) string { return strings.Join([]string{namespace, "client", name}, "_") }
	return &collector{
		s: s,
		requests: prometheus.NewDesc(
			fqName("requests"),
			"The total number of operations executed.",
			nil,
			labels,
		),
		retries: prometheus.NewDesc(
			fqName("retries"),
			"The total number of retry attempts.",
			nil,
			labels,
		),
		networkFailures: prometheus.NewDesc(
			fqName("network_failures"),
			"The total number of attempts failed at the socket level.",
			nil,
			labels,
		),
		throttleErrors: prometheus.NewDesc(
			fqName("throttle_errors"),
			"The total number of server throughput throttling responses.",
			nil,
			labels,
		),
		readBytes: prometheus.NewDesc(
			fqName("bytes_read"),
			"The total response payload bytes read from the service.",
			nil,
			labels,
		),
		writtenBytes: prometheus.NewDesc(
			fqName("bytes_written"),
			"The total request payload bytes written to the service.",
			nil,
			labels,
		),
		rateLimitDelay: prometheus.NewDesc(
			fqName("rate_limit_delay_seconds"),
			"The cumulative time operations spent waiting on client-side rate limiters.",
			nil,
			labels,
		),
		requestTime: prometheus.NewDesc(
			fqName("request_time"),
			"The operation duration measured in milliseconds.",
			nil,
			labels,
		),
	}
}

// Describe implements Collector.
func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.requests
	ch <- c.retries
	ch <- c.networkFailures
	ch <- c.throttleErrors
	ch <- c.readBytes
	ch <- c.writtenBytes
	ch <- c.rateLimitDelay
	ch <- c.requestTime
}

func buckets(s *driver.TimeStat) map[float64]uint64 {
	buckets := map[float64]uint64{}
	for k, v := range s.Buckets {
		buckets[float64(k)] = v
	}
	return buckets
}

// Collect implements Collector.
func (c *collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.s.Stats()
	ch <- prometheus.MustNewConstMetric(c.requests, prometheus.CounterValue, float64(stats.Requests))
	ch <- prometheus.MustNewConstMetric(c.retries, prometheus.CounterValue, float64(stats.Retries))
	ch <- prometheus.MustNewConstMetric(c.networkFailures, prometheus.CounterValue, float64(stats.NetworkFailures))
	ch <- prometheus.MustNewConstMetric(c.throttleErrors, prometheus.CounterValue, float64(stats.ThrottleErrors))
	ch <- prometheus.MustNewConstMetric(c.readBytes, prometheus.CounterValue, float64(stats.BytesRead))
	ch <- prometheus.MustNewConstMetric(c.writtenBytes, prometheus.CounterValue, float64(stats.BytesWritten))
	ch <- prometheus.MustNewConstMetric(c.rateLimitDelay, prometheus.CounterValue, stats.RateLimitDelay.Seconds())
	ch <- prometheus.MustNewConstHistogram(c.requestTime, stats.RequestTime.Count, float64(stats.RequestTime.Sum), buckets(&stats.RequestTime))
}

// NewClientCollector returns a collector that exports *driver.Client metrics.
func NewClientCollector(c *driver.Client, dbName string) prometheus.Collector {
	return newCollector(c, prometheus.Labels{"db_name": dbName})
}
