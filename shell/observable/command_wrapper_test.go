package observable_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/observable"
	. "github.com/AntonStoeckl/bike-loan-engine-go/testutil/spies" //nolint:revive
)

func Test_CommandWrapper_NewCommandWrapper_Success(t *testing.T) {
	// arrange
	handler := newMockHandler(shell.HandlerResult{}, nil)
	metricsCollector := NewMetricsCollectorSpy(true)

	// act
	wrapper, err := observable.NewCommandWrapper[mockCommand](
		handler,
		observable.WithCommandMetrics[mockCommand](metricsCollector),
	)

	// assert
	assert.NoError(t, err, "Should create wrapper successfully")
	assert.NotNil(t, wrapper, "Should return wrapper instance")
}

func Test_CommandWrapper_Handle_Success(t *testing.T) {
	// arrange
	expectedResult := shell.HandlerResult{RetryAttempts: 1, LastErrorType: "none"}
	handler := newMockHandler(expectedResult, nil)
	metricsCollector := NewMetricsCollectorSpy(true)
	tracingCollector := NewTracingCollectorSpy(true)
	contextualLogger := NewContextualLoggerSpy(true)

	wrapper, err := observable.NewCommandWrapper[mockCommand](
		handler,
		observable.WithCommandMetrics[mockCommand](metricsCollector),
		observable.WithCommandTracing[mockCommand](tracingCollector),
		observable.WithCommandContextualLogging[mockCommand](contextualLogger),
	)
	assert.NoError(t, err, "Should create wrapper")

	command := mockCommand{LoanID: "loan-1"}

	// act
	result, err := wrapper.Handle(context.Background(), command)

	// assert
	assert.NoError(t, err, "Should handle command successfully")
	assert.Equal(t, expectedResult, result, "Should return handler result")

	calls := handler.GetCalls()
	assert.Len(t, calls, 1, "Should call handler once")
	assert.Equal(t, command, calls[0], "Should pass command to handler")

	assert.True(t, metricsCollector.HasCounterRecordForMetric(shell.CommandHandlerCallsMetric).
		WithLabel("command_type", "TestCommand").
		WithStatus("success").
		Assert(), "Should record success metric")
	assert.True(t, metricsCollector.HasDurationRecordForMetric(shell.CommandHandlerDurationMetric).
		WithLabel("command_type", "TestCommand").
		WithStatus("success").
		Assert(), "Should record duration metric")

	assert.True(t, tracingCollector.HasFinishedSpan(shell.SpanNameCommandHandle, shell.StatusSuccess),
		"Should finish the command span as success")

	assert.True(t, contextualLogger.HasInfoLog(shell.LogMsgCommandStarted), "Should log command start")
	assert.True(t, contextualLogger.HasInfoLog(shell.LogMsgCommandCompleted), "Should log command completion")
}

func Test_CommandWrapper_Handle_Idempotent(t *testing.T) {
	// arrange
	handler := newMockHandler(shell.HandlerResult{Idempotent: true, RetryAttempts: 1}, nil)
	metricsCollector := NewMetricsCollectorSpy(true)

	wrapper, err := observable.NewCommandWrapper[mockCommand](
		handler,
		observable.WithCommandMetrics[mockCommand](metricsCollector),
	)
	assert.NoError(t, err, "Should create wrapper")

	// act
	_, err = wrapper.Handle(context.Background(), mockCommand{})

	// assert
	assert.NoError(t, err)
	assert.True(t, metricsCollector.HasCounterRecordForMetric(shell.CommandHandlerIdempotentMetric).
		WithLabel("command_type", "TestCommand").
		Assert(), "Should record idempotent metric")
}

func Test_CommandWrapper_Handle_Superseded(t *testing.T) {
	// arrange
	handler := newMockHandler(shell.NewSupersededResult(shell.RetryMetrics{Attempts: 1}), nil)
	metricsCollector := NewMetricsCollectorSpy(true)

	wrapper, err := observable.NewCommandWrapper[mockCommand](
		handler,
		observable.WithCommandMetrics[mockCommand](metricsCollector),
	)
	assert.NoError(t, err, "Should create wrapper")

	// act
	result, err := wrapper.Handle(context.Background(), mockCommand{})

	// assert
	assert.NoError(t, err)
	assert.True(t, result.Superseded)
	assert.True(t, metricsCollector.HasCounterRecordForMetric(shell.CommandHandlerSupersededMetric).
		WithStatus(shell.StatusSuperseded).
		Assert(), "Should record superseded metric")
	assert.False(t, metricsCollector.HasCounterRecordForMetric(shell.CommandHandlerIdempotentMetric).Assert(),
		"Superseded writes are not counted as plain idempotent")
}

func Test_CommandWrapper_Handle_WithRetries_RecordsMetrics(t *testing.T) {
	// arrange
	resultWithRetries := shell.HandlerResult{
		RetryAttempts:   3,
		TotalRetryDelay: 15 * time.Millisecond,
		LastErrorType:   "concurrency_conflict",
	}

	handler := newMockHandler(resultWithRetries, nil)
	metricsCollector := NewMetricsCollectorSpy(true)

	wrapper, err := observable.NewCommandWrapper[mockCommand](
		handler,
		observable.WithCommandMetrics[mockCommand](metricsCollector),
	)
	assert.NoError(t, err, "Should create wrapper")

	// act
	result, err := wrapper.Handle(context.Background(), mockCommand{})

	// assert
	assert.NoError(t, err)
	assert.Equal(t, resultWithRetries, result, "Should return handler result with retry metadata")
	assert.True(t, metricsCollector.HasCounterRecordForMetric(shell.CommandHandlerRetriesMetric).
		WithLabel("command_type", "TestCommand").
		WithLabel("attempt_number", "2").
		WithErrorType("concurrency_conflict").
		Assert(), "Should record retry attempts metric")
	assert.True(t, metricsCollector.HasDurationRecordForMetric(shell.CommandHandlerRetryDelayMetric).
		WithLabel("command_type", "TestCommand").
		Assert(), "Should record retry delay metric")
}

func Test_CommandWrapper_Handle_RetriesExhausted(t *testing.T) {
	// arrange
	handler := newMockHandler(
		shell.HandlerResult{RetryAttempts: 6, RetriesExhausted: true, LastErrorType: "concurrency_conflict"},
		loanstore.ErrConcurrencyConflict,
	)
	metricsCollector := NewMetricsCollectorSpy(true)

	wrapper, err := observable.NewCommandWrapper[mockCommand](
		handler,
		observable.WithCommandMetrics[mockCommand](metricsCollector),
	)
	assert.NoError(t, err, "Should create wrapper")

	// act
	_, err = wrapper.Handle(context.Background(), mockCommand{})

	// assert
	assert.ErrorIs(t, err, loanstore.ErrConcurrencyConflict)
	assert.True(t, metricsCollector.HasCounterRecordForMetric(shell.CommandHandlerMaxRetriesReachedMetric).Assert())
	assert.True(t, metricsCollector.HasCounterRecordForMetric(shell.CommandHandlerConcurrencyConflictMetric).
		WithStatus(shell.StatusConcurrencyConflict).
		Assert())
}

func Test_CommandWrapper_Handle_Error_RecordsFailureMetrics(t *testing.T) {
	// arrange
	expectedError := errors.New("database is gone")
	expectedResult := shell.HandlerResult{RetryAttempts: 1}

	handler := newMockHandler(expectedResult, expectedError)
	metricsCollector := NewMetricsCollectorSpy(true)
	tracingCollector := NewTracingCollectorSpy(true)
	contextualLogger := NewContextualLoggerSpy(true)

	wrapper, err := observable.NewCommandWrapper[mockCommand](
		handler,
		observable.WithCommandMetrics[mockCommand](metricsCollector),
		observable.WithCommandTracing[mockCommand](tracingCollector),
		observable.WithCommandContextualLogging[mockCommand](contextualLogger),
	)
	assert.NoError(t, err, "Should create wrapper")

	// act
	result, err := wrapper.Handle(context.Background(), mockCommand{})

	// assert
	assert.Equal(t, expectedError, err, "Should return exact error")
	assert.Equal(t, expectedResult, result, "Should return handler result even on error")
	assert.True(t, metricsCollector.HasCounterRecordForMetric(shell.CommandHandlerCallsMetric).
		WithLabel("command_type", "TestCommand").
		WithStatus("error").
		Assert(), "Should record error metric")
	assert.True(t, tracingCollector.HasFinishedSpan(shell.SpanNameCommandHandle, shell.StatusError))
	assert.True(t, contextualLogger.HasErrorLog(shell.LogMsgCommandFailed), "Should log command failure")
}

func Test_CommandWrapper_Handle_BusinessRefusal_LogsWarning(t *testing.T) {
	// arrange
	refusal := fmt.Errorf("%w: cannot APPROVE a COMPLETED loan", core.ErrInvalidTransition)
	handler := newMockHandler(shell.HandlerResult{RetryAttempts: 1}, refusal)
	metricsCollector := NewMetricsCollectorSpy(true)
	contextualLogger := NewContextualLoggerSpy(true)

	wrapper, err := observable.NewCommandWrapper[mockCommand](
		handler,
		observable.WithCommandMetrics[mockCommand](metricsCollector),
		observable.WithCommandContextualLogging[mockCommand](contextualLogger),
	)
	assert.NoError(t, err, "Should create wrapper")

	// act
	_, err = wrapper.Handle(context.Background(), mockCommand{})

	// assert
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
	assert.True(t, metricsCollector.HasCounterRecordForMetric(shell.CommandHandlerRefusedMetric).
		WithStatus(shell.StatusRefused).
		Assert(), "Should record refusal metric")
	assert.True(t, contextualLogger.HasWarnLog(shell.LogMsgCommandRefused), "Should log refusal as warning")
	assert.False(t, contextualLogger.HasErrorLog(shell.LogMsgCommandFailed), "Refusals are not failures")
}

func Test_CommandWrapper_Handle_ContextCanceled(t *testing.T) {
	// arrange
	handler := newMockHandler(shell.HandlerResult{}, context.Canceled)
	metricsCollector := NewMetricsCollectorSpy(true)

	wrapper, err := observable.NewCommandWrapper[mockCommand](
		handler,
		observable.WithCommandMetrics[mockCommand](metricsCollector),
	)
	assert.NoError(t, err, "Should create wrapper")

	// act
	_, err = wrapper.Handle(context.Background(), mockCommand{})

	// assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, metricsCollector.HasCounterRecordForMetric(shell.CommandHandlerCanceledMetric).
		WithStatus(shell.StatusCanceled).
		Assert())
}

func Test_CommandWrapper_Handle_FallsBackToBasicLogger(t *testing.T) {
	// arrange
	logHandler := NewLogHandlerSpy(false)
	handler := newMockHandler(shell.HandlerResult{RetryAttempts: 1}, nil)

	wrapper, err := observable.NewCommandWrapper[mockCommand](
		handler,
		observable.WithCommandLogging[mockCommand](slog.New(logHandler)),
	)
	assert.NoError(t, err, "Should create wrapper")

	// act
	_, err = wrapper.Handle(context.Background(), mockCommand{})

	// assert
	assert.NoError(t, err)
	assert.True(t, logHandler.HasLog(slog.LevelInfo, shell.LogMsgCommandCompleted))
}

func Test_CommandWrapper_Handle_WithoutObservability(t *testing.T) {
	// arrange
	handler := newMockHandler(shell.HandlerResult{RetryAttempts: 1}, nil)

	wrapper, err := observable.NewCommandWrapper[mockCommand](handler)
	assert.NoError(t, err, "Should create wrapper")

	// act
	_, err = wrapper.Handle(context.Background(), mockCommand{})

	// assert
	assert.NoError(t, err, "Should work without any observability configured")
	assert.Len(t, handler.GetCalls(), 1)
}
