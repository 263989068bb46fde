package oteladapters

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
)

const (
	logAttrTraceID = "trace_id"
	logAttrSpanID  = "span_id"
)

// SlogBridgeLogger implements loanstore.ContextualLogger on top of a slog.Logger.
type SlogBridgeLogger struct {
	logger *slog.Logger
}

// NewSlogBridgeLogger creates a contextual logger that emits through the global OpenTelemetry LoggerProvider.
func NewSlogBridgeLogger(name string) *SlogBridgeLogger {
	return &SlogBridgeLogger{logger: otelslog.NewLogger(name)}
}

// NewSlogBridgeLoggerWithHandler creates a contextual logger that writes to the local handler
// and to the OpenTelemetry bridge. Local records carry the trace and span id of the context.
func NewSlogBridgeLoggerWithHandler(name string, local slog.Handler) *SlogBridgeLogger {
	return &SlogBridgeLogger{
		logger: slog.New(NewFanoutHandler(NewTraceContextHandler(local), otelslog.NewHandler(name))),
	}
}

// Logger returns the underlying slog.Logger, it also satisfies loanstore.Logger.
func (l *SlogBridgeLogger) Logger() *slog.Logger {
	return l.logger
}

// DebugContext logs a debug message with context.
func (l *SlogBridgeLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.logger.DebugContext(ctx, msg, args...)
}

// InfoContext logs an info message with context.
func (l *SlogBridgeLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, msg, args...)
}

// WarnContext logs a warning message with context.
func (l *SlogBridgeLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, msg, args...)
}

// ErrorContext logs an error message with context.
func (l *SlogBridgeLogger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, args...)
}

var _ loanstore.ContextualLogger = (*SlogBridgeLogger)(nil)

// TraceContextHandler adds the trace and span id of an active span to every record.
type TraceContextHandler struct {
	next slog.Handler
}

// NewTraceContextHandler wraps next.
func NewTraceContextHandler(next slog.Handler) *TraceContextHandler {
	return &TraceContextHandler{next: next}
}

// Enabled implements slog.Handler.
func (h *TraceContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *TraceContextHandler) Handle(ctx context.Context, record slog.Record) error {
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		record = record.Clone()
		record.AddAttrs(
			slog.String(logAttrTraceID, spanCtx.TraceID().String()),
			slog.String(logAttrSpanID, spanCtx.SpanID().String()),
		)
	}

	return h.next.Handle(ctx, record)
}

// WithAttrs implements slog.Handler.
func (h *TraceContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceContextHandler{next: h.next.WithAttrs(attrs)}
}

// WithGroup implements slog.Handler.
func (h *TraceContextHandler) WithGroup(name string) slog.Handler {
	return &TraceContextHandler{next: h.next.WithGroup(name)}
}

// FanoutHandler hands every record to all handlers that accept its level.
type FanoutHandler struct {
	handlers []slog.Handler
}

// NewFanoutHandler combines handlers.
func NewFanoutHandler(handlers ...slog.Handler) *FanoutHandler {
	return &FanoutHandler{handlers: handlers}
}

// Enabled implements slog.Handler.
func (h *FanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

// Handle implements slog.Handler.
func (h *FanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error

	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}

		if err := handler.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// WithAttrs implements slog.Handler.
func (h *FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, 0, len(h.handlers))
	for _, handler := range h.handlers {
		handlers = append(handlers, handler.WithAttrs(attrs))
	}

	return &FanoutHandler{handlers: handlers}
}

// WithGroup implements slog.Handler.
func (h *FanoutHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, 0, len(h.handlers))
	for _, handler := range h.handlers {
		handlers = append(handlers, handler.WithGroup(name))
	}

	return &FanoutHandler{handlers: handlers}
}
