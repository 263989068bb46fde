// Package oteladapters implements the loanstore observability interfaces with OpenTelemetry.
//
// The store engines, command handlers, query handlers and the late-notice dispatcher only know the
// small Logger, ContextualLogger, MetricsCollector and TracingCollector interfaces. This package
// backs them with the OpenTelemetry API and sets up the SDK providers that export to an OTLP collector.
package oteladapters
