package oteladapters

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
)

const (
	descDuration = "loan engine operation duration"
	descCounter  = "loan engine operation counter"
	descValue    = "loan engine current value"
	unitSeconds  = "s"
)

// MetricsCollector implements loanstore.ContextualMetricsCollector with OpenTelemetry instruments:
//   - RecordDuration -> Float64Histogram in seconds
//   - IncrementCounter -> Int64Counter
//   - RecordValue -> Float64Gauge
//
// Instruments are created on first use and shared by all goroutines.
type MetricsCollector struct {
	meter      metric.Meter
	mu         sync.RWMutex
	histograms map[string]metric.Float64Histogram
	counters   map[string]metric.Int64Counter
	gauges     map[string]metric.Float64Gauge
}

// NewMetricsCollector creates a collector on the given meter.
func NewMetricsCollector(meter metric.Meter) *MetricsCollector {
	return &MetricsCollector{
		meter:      meter,
		histograms: make(map[string]metric.Float64Histogram),
		counters:   make(map[string]metric.Int64Counter),
		gauges:     make(map[string]metric.Float64Gauge),
	}
}

// RecordDuration records a duration in seconds.
func (m *MetricsCollector) RecordDuration(metricName string, duration time.Duration, labels map[string]string) {
	m.RecordDurationContext(context.Background(), metricName, duration, labels)
}

// RecordDurationContext records a duration in seconds with trace correlation.
func (m *MetricsCollector) RecordDurationContext(ctx context.Context, metricName string, duration time.Duration, labels map[string]string) {
	histogram := instrument(m, m.histograms, metricName, func(name string) (metric.Float64Histogram, error) {
		return m.meter.Float64Histogram(name, metric.WithDescription(descDuration), metric.WithUnit(unitSeconds))
	})
	if histogram == nil {
		return
	}

	histogram.Record(ctx, duration.Seconds(), metric.WithAttributes(toAttributes(labels)...))
}

// IncrementCounter adds one to a counter.
func (m *MetricsCollector) IncrementCounter(metricName string, labels map[string]string) {
	m.IncrementCounterContext(context.Background(), metricName, labels)
}

// IncrementCounterContext adds one to a counter with trace correlation.
func (m *MetricsCollector) IncrementCounterContext(ctx context.Context, metricName string, labels map[string]string) {
	counter := instrument(m, m.counters, metricName, func(name string) (metric.Int64Counter, error) {
		return m.meter.Int64Counter(name, metric.WithDescription(descCounter))
	})
	if counter == nil {
		return
	}

	counter.Add(ctx, 1, metric.WithAttributes(toAttributes(labels)...))
}

// RecordValue sets a gauge.
func (m *MetricsCollector) RecordValue(metricName string, value float64, labels map[string]string) {
	m.RecordValueContext(context.Background(), metricName, value, labels)
}

// RecordValueContext sets a gauge with trace correlation.
func (m *MetricsCollector) RecordValueContext(ctx context.Context, metricName string, value float64, labels map[string]string) {
	gauge := instrument(m, m.gauges, metricName, func(name string) (metric.Float64Gauge, error) {
		return m.meter.Float64Gauge(name, metric.WithDescription(descValue))
	})
	if gauge == nil {
		return
	}

	gauge.Record(ctx, value, metric.WithAttributes(toAttributes(labels)...))
}

// instrument returns the cached instrument for name or creates it. A failed creation yields the zero value.
func instrument[I comparable](m *MetricsCollector, cache map[string]I, name string, create func(string) (I, error)) I {
	var zero I

	m.mu.RLock()
	existing, ok := cache[name]
	m.mu.RUnlock()

	if ok {
		return existing
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok = cache[name]; ok {
		return existing
	}

	created, err := create(sanitizeName(name))
	if err != nil {
		return zero
	}

	cache[name] = created

	return created
}

// sanitizeName keeps instrument names within the OpenTelemetry name syntax.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_', r == '.', r == '-', r == '/':
			return r
		default:
			return '_'
		}
	}, name)
}

func toAttributes(labels map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for key, value := range labels {
		attrs = append(attrs, attribute.String(key, value))
	}

	return attrs
}

var _ loanstore.ContextualMetricsCollector = (*MetricsCollector)(nil)
