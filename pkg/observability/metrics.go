// Copyright 2026 DocGen AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package observability

import (
	"sort"
	"strings"
	"sync"
	"time"
)

const defaultMaxSamples = 1000

// MetricConfig configures the metrics collector.
type MetricConfig struct {
	Enabled       bool
	FlushInterval time.Duration
	MaxSamples    int
}

// MetricsCollector collects counters, gauges and histograms for a
// planning run. All methods are safe for concurrent use.
type MetricsCollector struct {
	mu         sync.Mutex
	enabled    bool
	maxSamples int
	counters   map[string]float64
	gauges     map[string]float64
	histograms map[string][]float64
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector(config MetricConfig) *MetricsCollector {
	maxSamples := config.MaxSamples
	if maxSamples <= 0 {
		maxSamples = defaultMaxSamples
	}
	return &MetricsCollector{
		enabled:    config.Enabled,
		maxSamples: maxSamples,
		counters:   make(map[string]float64),
		gauges:     make(map[string]float64),
		histograms: make(map[string][]float64),
	}
}

// Counter increments a counter by value.
func (m *MetricsCollector) Counter(name string, value float64, labels map[string]string) {
	if !m.enabled {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[metricKey("counter", name, labels)] += value
}

// CounterGet returns the summed value of a counter across all label
// sets, or def when the counter has never been incremented.
func (m *MetricsCollector) CounterGet(name string, def float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := "counter." + name
	found := false
	total := 0.0
	for k, v := range m.counters {
		if k == prefix || strings.HasPrefix(k, prefix+".") {
			total += v
			found = true
		}
	}
	if !found {
		return def
	}
	return total
}

// Gauge sets a gauge to value.
func (m *MetricsCollector) Gauge(name string, value float64, labels map[string]string) {
	if !m.enabled {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[metricKey("gauge", name, labels)] = value
}

// Histogram records a sample. Sample slices are capped at MaxSamples;
// older samples are dropped first.
func (m *MetricsCollector) Histogram(name string, value float64, labels map[string]string) {
	if !m.enabled {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := metricKey("histogram", name, labels)
	samples := append(m.histograms[key], value)
	if len(samples) > m.maxSamples {
		samples = samples[len(samples)-m.maxSamples:]
	}
	m.histograms[key] = samples
}

// Timing records a duration as a calls counter plus a duration histogram.
func (m *MetricsCollector) Timing(name string, d time.Duration, labels map[string]string) {
	m.Counter(name+".calls", 1, labels)
	m.Histogram(name+".duration_ms", float64(d.Milliseconds()), labels)
}

// GetSnapshot returns a copy of all recorded metrics keyed by
// "<kind>.<name>.<label:value>...".
func (m *MetricsCollector) GetSnapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[string]interface{}, len(m.counters)+len(m.gauges)+len(m.histograms))
	for k, v := range m.counters {
		snapshot[k] = v
	}
	for k, v := range m.gauges {
		snapshot[k] = v
	}
	for k, v := range m.histograms {
		samples := make([]float64, len(v))
		copy(samples, v)
		snapshot[k] = samples
	}
	return snapshot
}

// metricKey builds a stable key from kind, name and sorted labels.
func metricKey(kind, name string, labels map[string]string) string {
	parts := []string{kind, name}
	if len(labels) > 0 {
		keys := make([]string, 0, len(labels))
		for k := range labels {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, k+":"+labels[k])
		}
	}
	return strings.Join(parts, ".")
}

// Planning-domain record helpers.

// RecordStrategyRun records one strategy pass and its batch yield.
func (m *MetricsCollector) RecordStrategyRun(strategy string, d time.Duration, batches int) {
	labels := map[string]string{"strategy": strategy}
	m.Timing("strategy_run", d, labels)
	m.Counter("batches_created", float64(batches), labels)
}

// RecordRejection records one excluded file by stage.
func (m *MetricsCollector) RecordRejection(stage string) {
	m.Counter("files_rejected", 1, map[string]string{"stage": stage})
}

// RecordFallback records one degraded split by cause.
func (m *MetricsCollector) RecordFallback(cause string) {
	m.Counter("split_fallbacks", 1, map[string]string{"cause": cause})
}

// RecordCacheHit records an estimate cache hit or miss.
func (m *MetricsCollector) RecordCacheHit(hit bool) {
	if hit {
		m.Counter("estimate_cache.hits", 1, nil)
		return
	}
	m.Counter("estimate_cache.misses", 1, nil)
}
