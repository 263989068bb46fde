package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
	"github.com/AntonStoeckl/bike-loan-engine-go/oteladapters"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/config"
)

const telemetryShutdownTimeout = 5 * time.Second

// observability bundles what every component receives. metrics and tracing stay nil without OpenTelemetry.
type observability struct {
	logger           *slog.Logger
	contextualLogger loanstore.ContextualLogger
	metrics          loanstore.MetricsCollector
	tracing          loanstore.TracingCollector
	providers        *oteladapters.Providers
}

func newObservability(ctx context.Context, cfg *config.Config) (*observability, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}

	handlerOptions := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, handlerOptions)
	if cfg.Telemetry.LogFormat == config.LogFormatText {
		handler = slog.NewTextHandler(os.Stdout, handlerOptions)
	}

	if !cfg.Telemetry.OTel {
		logger := slog.New(handler)
		return &observability{logger: logger, contextualLogger: logger}, nil
	}

	providers, err := oteladapters.NewProviders(ctx, oteladapters.ProviderConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: serviceVersion,
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		Insecure:       cfg.Telemetry.OTLPInsecure,
		MetricPeriod:   cfg.Telemetry.MetricPeriod,
	})
	if err != nil {
		return nil, err
	}

	bridge := oteladapters.NewSlogBridgeLoggerWithHandler(cfg.Telemetry.ServiceName, handler)

	return &observability{
		logger:           bridge.Logger(),
		contextualLogger: bridge,
		metrics:          oteladapters.NewMetricsCollector(otel.Meter(cfg.Telemetry.ServiceName)),
		tracing:          oteladapters.NewTracingCollector(otel.Tracer(cfg.Telemetry.ServiceName)),
		providers:        providers,
	}, nil
}

func (o *observability) shutdown() {
	if o.providers == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
	defer cancel()

	if err := o.providers.Shutdown(ctx); err != nil {
		o.logger.Warn("telemetry shutdown failed", "error", err.Error())
	}
}
