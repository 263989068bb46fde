package oteladapters_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/AntonStoeckl/bike-loan-engine-go/oteladapters"
	. "github.com/AntonStoeckl/bike-loan-engine-go/testutil/spies" //nolint:revive
)

func Test_SlogBridgeLoggerWithHandler_AddsTraceCorrelation(t *testing.T) {
	// arrange
	var buf bytes.Buffer
	local := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := oteladapters.NewSlogBridgeLoggerWithHandler("test", local)

	provider := sdktrace.NewTracerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()

	ctx, span := provider.Tracer("test").Start(context.Background(), "dispatch")
	defer span.End()

	// act
	logger.InfoContext(ctx, "late notice sent", "loan_id", "L-1")

	// assert
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "late notice sent", record["msg"])
	assert.Equal(t, "L-1", record["loan_id"])
	assert.Equal(t, span.SpanContext().TraceID().String(), record["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), record["span_id"])
}

func Test_SlogBridgeLoggerWithHandler_WithoutSpan(t *testing.T) {
	// arrange
	var buf bytes.Buffer
	logger := oteladapters.NewSlogBridgeLoggerWithHandler("test", slog.NewJSONHandler(&buf, nil))

	// act
	logger.WarnContext(context.Background(), "late notice delivery failed, claim released")

	// assert
	assert.Contains(t, buf.String(), "late notice delivery failed")
	assert.NotContains(t, buf.String(), "trace_id")
}

func Test_FanoutHandler_RespectsLevels(t *testing.T) {
	// arrange
	debugSpy := NewLogHandlerSpy(false)
	var buf bytes.Buffer
	infoOnly := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(oteladapters.NewFanoutHandler(debugSpy, infoOnly)).With("component", "sweep")

	// act
	logger.Debug("scheduled job finished")
	logger.Error("scheduled job failed")

	// assert
	assert.True(t, debugSpy.HasLog(slog.LevelDebug, "scheduled job finished"))
	assert.True(t, debugSpy.HasLog(slog.LevelError, "scheduled job failed"))
	assert.NotContains(t, buf.String(), "scheduled job finished")
	assert.Contains(t, buf.String(), "scheduled job failed")
	assert.Contains(t, buf.String(), "component=sweep")
}

func Test_SlogBridgeLogger_UsesGlobalProvider(t *testing.T) {
	// arrange
	logger := oteladapters.NewSlogBridgeLogger("test")
	ctx := context.Background()

	// act & assert
	assert.NotPanics(t, func() {
		logger.DebugContext(ctx, "debug", "k", "v")
		logger.InfoContext(ctx, "info", "k", "v")
		logger.WarnContext(ctx, "warn", "k", "v")
		logger.ErrorContext(ctx, "error", "k", "v")
	})
	assert.NotNil(t, logger.Logger())
}
