package postgresengine

import (
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
)

// Logger is the basic logger the store writes SQL and operational messages to.
type Logger = loanstore.Logger

// ContextualLogger is the context-aware logger with trace correlation.
type ContextualLogger = loanstore.ContextualLogger

// MetricsCollector receives store metrics.
type MetricsCollector = loanstore.MetricsCollector

// TracingCollector receives store spans.
type TracingCollector = loanstore.TracingCollector

// SpanContext represents an active tracing span.
type SpanContext = loanstore.SpanContext

// Option defines a functional option for configuring LoanStore.
type Option func(*LoanStore) error

// WithLoansTableName sets the loans table name.
func WithLoansTableName(tableName string) Option {
	return func(ls *LoanStore) error {
		if tableName == "" {
			return loanstore.ErrEmptyTableNameSupplied
		}

		ls.loansTable = tableName

		return nil
	}
}

// WithAssetsTableName sets the assets table name.
func WithAssetsTableName(tableName string) Option {
	return func(ls *LoanStore) error {
		if tableName == "" {
			return loanstore.ErrEmptyTableNameSupplied
		}

		ls.assetsTable = tableName

		return nil
	}
}

// WithBorrowersTableName points the store at the identity subsystem's user table or view.
func WithBorrowersTableName(tableName string) Option {
	return func(ls *LoanStore) error {
		if tableName == "" {
			return loanstore.ErrEmptyTableNameSupplied
		}

		ls.borrowersTable = tableName

		return nil
	}
}

// WithLogger sets the logger for the LoanStore.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL statements with execution timing (development use)
// Info level: transitions and notice claims (production-safe)
// Warn level: non-critical issues like cleanup failures
// Error level: failures that cause operation failures.
func WithLogger(logger Logger) Option {
	return func(ls *LoanStore) error {
		ls.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the LoanStore.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(ls *LoanStore) error {
		ls.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the LoanStore.
// It receives statement durations, database errors and precondition failures.
func WithMetrics(collector MetricsCollector) Option {
	return func(ls *LoanStore) error {
		ls.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the LoanStore.
func WithTracing(collector TracingCollector) Option {
	return func(ls *LoanStore) error {
		ls.tracingCollector = collector
		return nil
	}
}
