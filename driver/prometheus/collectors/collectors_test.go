// SPDX-FileCopyrightText: 2025 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package collectors

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/SAP/go-nosql/driver"
)

type stubStats struct{ stats *driver.Stats }

func (s stubStats) Stats() *driver.Stats { return s.stats }

func TestClientCollector(t *testing.T) {
	src := stubStats{stats: &driver.Stats{
		Requests:        5,
		Retries:         2,
		ThrottleErrors:  1,
		BytesWritten:    100,
		BytesRead:       200,
		RateLimitDelay:  1500 * time.Millisecond,
		RequestTime:     driver.TimeStat{Count: 5, Sum: 50, Buckets: map[uint64]uint64{10: 3, 100: 2}},
	}}
	c := newCollector(src, prometheus.Labels{"db_name": "testdb"})

	descs := make(chan *prometheus.Desc, 16)
	c.Describe(descs)
	close(descs)
	numDescs := 0
	for range descs {
		numDescs++
	}
	if numDescs != 8 {
		t.Fatalf("descriptors: %d", numDescs)
	}

	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		t.Fatalf("register: %v", err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) != 8 {
		t.Fatalf("metric families: %d", len(families))
	}

	counters := map[string]float64{}
	var sampleCount uint64
	for _, mf := range families {
		name := mf.GetName()
		if !strings.HasPrefix(name, "go_nosql_client_") {
			t.Fatalf("metric name: %q", name)
		}
		m := mf.GetMetric()[0]
		for _, lp := range m.GetLabel() {
			if lp.GetName() == "db_name" && lp.GetValue() != "testdb" {
				t.Fatalf("db_name label: %q", lp.GetValue())
			}
		}
		if h := m.GetHistogram(); h != nil {
			sampleCount = h.GetSampleCount()
			continue
		}
		counters[name] = m.GetCounter().GetValue()
	}
	if got := counters["go_nosql_client_requests"]; got != 5 {
		t.Fatalf("requests: %v", got)
	}
	if got := counters["go_nosql_client_retries"]; got != 2 {
		t.Fatalf("retries: %v", got)
	}
	if got := counters["go_nosql_client_rate_limit_delay_seconds"]; got != 1.5 {
		t.Fatalf("rate limit delay: %v", got)
	}
	if sampleCount != 5 {
		t.Fatalf("request time samples: %d", sampleCount)
	}
}
