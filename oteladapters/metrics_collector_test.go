package oteladapters_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/AntonStoeckl/bike-loan-engine-go/features/notify/latenotice"
	"github.com/AntonStoeckl/bike-loan-engine-go/oteladapters"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell"
)

func newCollector() (*oteladapters.MetricsCollector, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return oteladapters.NewMetricsCollector(provider.Meter("test")), reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &resourceMetrics))

	return resourceMetrics
}

func Test_MetricsCollector_RecordDuration(t *testing.T) {
	// arrange
	collector, reader := newCollector()
	labels := shell.BuildCommandLabels("ApproveLoan", shell.StatusSuccess)

	// act
	collector.RecordDuration(shell.CommandHandlerDurationMetric, 150*time.Millisecond, labels)

	// assert
	histogram := findHistogramMetric(t, collect(t, reader), shell.CommandHandlerDurationMetric)
	require.Len(t, histogram.DataPoints, 1)
	assert.Equal(t, uint64(1), histogram.DataPoints[0].Count)
	assert.InDelta(t, 0.15, histogram.DataPoints[0].Sum, 0.001)

	expected := attribute.NewSet(
		attribute.String("command_type", "ApproveLoan"),
		attribute.String("status", shell.StatusSuccess),
	)
	assert.True(t, histogram.DataPoints[0].Attributes.Equals(&expected))
}

func Test_MetricsCollector_IncrementCounterContext(t *testing.T) {
	// arrange
	collector, reader := newCollector()
	labels := map[string]string{"outcome": "sent"}

	// act
	collector.IncrementCounterContext(context.Background(), latenotice.LateNoticeSentMetric, labels)
	collector.IncrementCounter(latenotice.LateNoticeSentMetric, labels)
	collector.IncrementCounter(latenotice.LateNoticeSentMetric, labels)

	// assert
	counter := findCounterMetric(t, collect(t, reader), latenotice.LateNoticeSentMetric)
	require.Len(t, counter.DataPoints, 1)
	assert.Equal(t, int64(3), counter.DataPoints[0].Value)
}

func Test_MetricsCollector_RecordValue(t *testing.T) {
	// arrange
	collector, reader := newCollector()

	// act
	collector.RecordValue("loans_open", 7, nil)
	collector.RecordValueContext(context.Background(), "loans_open", 9, nil)

	// assert
	gauge := findGaugeMetric(t, collect(t, reader), "loans_open")
	require.Len(t, gauge.DataPoints, 1)
	assert.InDelta(t, 9.0, gauge.DataPoints[0].Value, 0.0001)
}

func Test_MetricsCollector_ConcurrentFirstUse(t *testing.T) {
	// arrange
	collector, reader := newCollector()
	var wg sync.WaitGroup

	// act
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.IncrementCounter(latenotice.LateNoticeFailedMetric, nil)
		}()
	}
	wg.Wait()

	// assert
	counter := findCounterMetric(t, collect(t, reader), latenotice.LateNoticeFailedMetric)
	require.Len(t, counter.DataPoints, 1)
	assert.Equal(t, int64(50), counter.DataPoints[0].Value)
}

func Test_MetricsCollector_SanitizesInstrumentNames(t *testing.T) {
	// arrange
	collector, reader := newCollector()

	// act
	collector.IncrementCounter("loanstore operation: claim notice", nil)

	// assert
	counter := findCounterMetric(t, collect(t, reader), "loanstore_operation__claim_notice")
	assert.Len(t, counter.DataPoints, 1)
}

func findHistogramMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) metricdata.Histogram[float64] {
	t.Helper()

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if h, ok := m.Data.(metricdata.Histogram[float64]); ok && m.Name == name {
				return h
			}
		}
	}

	t.Fatalf("histogram metric %s not found", name)

	return metricdata.Histogram[float64]{}
}

func findCounterMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) metricdata.Sum[int64] {
	t.Helper()

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if c, ok := m.Data.(metricdata.Sum[int64]); ok && m.Name == name {
				return c
			}
		}
	}

	t.Fatalf("counter metric %s not found", name)

	return metricdata.Sum[int64]{}
}

func findGaugeMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) metricdata.Gauge[float64] {
	t.Helper()

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if g, ok := m.Data.(metricdata.Gauge[float64]); ok && m.Name == name {
				return g
			}
		}
	}

	t.Fatalf("gauge metric %s not found", name)

	return metricdata.Gauge[float64]{}
}
