package postgresengine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
)

const (
	operationQuery          = "query"
	operationInsertLoan     = "insert_loan"
	operationTransition     = "transition"
	operationClaimNotice    = "claim_notice"
	operationCompleteNotice = "complete_notice"
	operationReleaseNotice  = "release_notice"
	operationSaveInventory  = "save_inventory"

	metricQueryDuration        = "loanstore_query_duration_seconds"
	metricWriteDuration        = "loanstore_write_duration_seconds"
	metricRowsReturned         = "loanstore_rows_returned"
	metricDatabaseErrors       = "loanstore_database_errors_total"
	metricPreconditionFailures = "loanstore_precondition_failures_total"

	spanNamePrefix         = "loanstore."
	spanAttrOperation      = "operation"
	spanAttrErrorType      = "error_type"
	spanAttrRowCount       = "row_count"
	spanAttrDurationMS     = "duration_ms"
	labelStatus            = "status"
	statusSuccess          = "success"
	statusError            = "error"
	statusConflict         = "conflict"
	errorTypeBuildQuery    = "build_query"
	errorTypeDatabaseQuery = "database_query"
	errorTypeDatabaseExec  = "database_exec"
	errorTypeTransaction   = "transaction"
)

// operationObserver records duration, errors and the tracing span of one store operation.
type operationObserver struct {
	ls        *LoanStore
	ctx       context.Context
	operation string
	span      SpanContext
	start     time.Time
}

// startOperation opens a span for the operation (if tracing is configured) and starts the clock.
func (ls *LoanStore) startOperation(ctx context.Context, operation string) (context.Context, *operationObserver) {
	var span SpanContext

	if ls.tracingCollector != nil {
		ctx, span = ls.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, map[string]string{
			spanAttrOperation: operation,
		})
	}

	return ctx, &operationObserver{
		ls:        ls,
		ctx:       ctx,
		operation: operation,
		span:      span,
		start:     time.Now(),
	}
}

func (o *operationObserver) finishSuccess(rows int) {
	duration := time.Since(o.start)

	o.ls.recordDurationMetricsContext(o.ctx, o.durationMetric(), duration, o.operation, statusSuccess)
	if o.operation == operationQuery {
		o.ls.recordValueMetricsContext(o.ctx, metricRowsReturned, float64(rows), o.operation, statusSuccess)
	}

	o.finishSpan(statusSuccess, map[string]string{
		spanAttrRowCount:   fmt.Sprintf("%d", rows),
		spanAttrDurationMS: fmt.Sprintf("%.2f", toMilliseconds(duration)),
	})
}

func (o *operationObserver) finishError(errorType string, _ error) {
	duration := time.Since(o.start)

	o.ls.recordDurationMetricsContext(o.ctx, o.durationMetric(), duration, o.operation, statusError)
	o.ls.recordErrorMetricsContext(o.ctx, o.operation, errorType)

	o.finishSpan(statusError, map[string]string{
		spanAttrErrorType:  errorType,
		spanAttrDurationMS: fmt.Sprintf("%.2f", toMilliseconds(duration)),
	})
}

// finishConflict is used when a guarded write lost its precondition. This is an expected outcome, not an error.
func (o *operationObserver) finishConflict() {
	duration := time.Since(o.start)

	o.ls.recordDurationMetricsContext(o.ctx, o.durationMetric(), duration, o.operation, statusConflict)

	if o.ls.metricsCollector != nil {
		o.ls.metricsCollector.IncrementCounter(metricPreconditionFailures, map[string]string{
			spanAttrOperation: o.operation,
		})
	}

	o.finishSpan(statusConflict, map[string]string{
		spanAttrDurationMS: fmt.Sprintf("%.2f", toMilliseconds(duration)),
	})
}

func (o *operationObserver) durationMetric() string {
	if o.operation == operationQuery {
		return metricQueryDuration
	}

	return metricWriteDuration
}

func (o *operationObserver) finishSpan(status string, attrs map[string]string) {
	if o.ls.tracingCollector == nil || o.span == nil {
		return
	}

	o.ls.tracingCollector.FinishSpan(o.span, status, attrs)
}

// recordErrorMetricsContext records error metrics with context if the collector supports it.
func (ls *LoanStore) recordErrorMetricsContext(ctx context.Context, operation, errorType string) {
	if ls.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		labelStatus:       statusError,
		spanAttrErrorType: errorType,
	}

	if contextualCollector, ok := ls.metricsCollector.(loanstore.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metricDatabaseErrors, labels)
	} else {
		ls.metricsCollector.IncrementCounter(metricDatabaseErrors, labels)
	}
}

// recordDurationMetricsContext records duration metrics with context if the collector supports it.
func (ls *LoanStore) recordDurationMetricsContext(
	ctx context.Context,
	metricName string,
	duration time.Duration,
	operation, status string,
) {
	if ls.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		labelStatus:       status,
	}

	if contextualCollector, ok := ls.metricsCollector.(loanstore.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metricName, duration, labels)
	} else {
		ls.metricsCollector.RecordDuration(metricName, duration, labels)
	}
}

// recordValueMetricsContext records value metrics with context if the collector supports it.
func (ls *LoanStore) recordValueMetricsContext(
	ctx context.Context,
	metricName string,
	value float64,
	operation, status string,
) {
	if ls.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		labelStatus:       status,
	}

	if contextualCollector, ok := ls.metricsCollector.(loanstore.ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ctx, metricName, value, labels)
	} else {
		ls.metricsCollector.RecordValue(metricName, value, labels)
	}
}

// === Logging ===
// The contextual logger wins when both are configured.

// logQueryWithDuration logs SQL statements with execution time at debug level.
func (ls *LoanStore) logQueryWithDuration(ctx context.Context, sqlQuery, action string, duration time.Duration) {
	args := []any{logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery}

	switch {
	case ls.contextualLogger != nil:
		ls.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, args...)
	case ls.logger != nil:
		ls.logger.Debug(logMsgSQLExecuted+action, args...)
	}
}

// logOperationContext logs operational information at info level.
func (ls *LoanStore) logOperationContext(ctx context.Context, action string, args ...any) {
	switch {
	case ls.contextualLogger != nil:
		ls.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	case ls.logger != nil:
		ls.logger.Info(logMsgOperation+action, args...)
	}
}

// logWarnContext logs non-critical issues at warn level.
func (ls *LoanStore) logWarnContext(ctx context.Context, message string, args ...any) {
	switch {
	case ls.contextualLogger != nil:
		ls.contextualLogger.WarnContext(ctx, message, args...)
	case ls.logger != nil:
		ls.logger.Warn(message, args...)
	}
}

// logErrorContext logs error information at error level.
func (ls *LoanStore) logErrorContext(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	switch {
	case ls.contextualLogger != nil:
		ls.contextualLogger.ErrorContext(ctx, message, allArgs...)
	case ls.logger != nil:
		ls.logger.Error(message, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
