package observable

import (
	"context"
	"time"

	"github.com/AntonStoeckl/bike-loan-engine-go/shell"
)

// CommandWrapper provides observability instrumentation for any command handler.
// It wraps a core command handler and adds metrics, tracing and logging.
type CommandWrapper[C shell.Command] struct {
	coreHandler      shell.CoreCommandHandler[C]
	commandType      string
	metricsCollector shell.MetricsCollector
	tracingCollector shell.TracingCollector
	contextualLogger shell.ContextualLogger
	logger           shell.Logger
}

// NewCommandWrapper creates a new observable wrapper around the core command handler.
func NewCommandWrapper[C shell.Command](
	coreHandler shell.CoreCommandHandler[C],
	opts ...CommandOption[C],
) (*CommandWrapper[C], error) {
	// Extract command type from a zero-value instance
	var zeroCommand C
	commandType := zeroCommand.CommandType()

	wrapper := &CommandWrapper[C]{
		coreHandler: coreHandler,
		commandType: commandType,
	}

	for _, opt := range opts {
		if err := opt(wrapper); err != nil {
			return nil, err
		}
	}

	return wrapper, nil
}

// Handle delegates to the core handler and translates its HandlerResult into metrics, spans and logs.
func (w *CommandWrapper[C]) Handle(ctx context.Context, command C) (shell.HandlerResult, error) {
	commandStart := time.Now()
	ctx, span := shell.StartCommandSpan(ctx, w.tracingCollector, w.commandType)
	shell.LogCommandStart(ctx, w.logger, w.contextualLogger, w.commandType)

	result, err := w.coreHandler.Handle(ctx, command)

	w.recordRetryMetrics(ctx, result)

	if err != nil {
		w.recordCommandError(ctx, err, time.Since(commandStart), span)
		return result, err
	}

	w.recordCommandSuccess(ctx, result.BusinessOutcome(), time.Since(commandStart), span)

	return result, nil
}

// CommandOption defines a functional option for configuring CommandWrapper.
type CommandOption[C shell.Command] func(*CommandWrapper[C]) error

// WithCommandMetrics sets the metrics collector for the CommandWrapper.
func WithCommandMetrics[C shell.Command](collector shell.MetricsCollector) CommandOption[C] {
	return func(w *CommandWrapper[C]) error {
		w.metricsCollector = collector
		return nil
	}
}

// WithCommandTracing sets the tracing collector for the CommandWrapper.
func WithCommandTracing[C shell.Command](collector shell.TracingCollector) CommandOption[C] {
	return func(w *CommandWrapper[C]) error {
		w.tracingCollector = collector
		return nil
	}
}

// WithCommandContextualLogging sets the contextual logger for the CommandWrapper.
func WithCommandContextualLogging[C shell.Command](logger shell.ContextualLogger) CommandOption[C] {
	return func(w *CommandWrapper[C]) error {
		w.contextualLogger = logger
		return nil
	}
}

// WithCommandLogging sets the basic logger for the CommandWrapper.
func WithCommandLogging[C shell.Command](logger shell.Logger) CommandOption[C] {
	return func(w *CommandWrapper[C]) error {
		w.logger = logger
		return nil
	}
}

/*** Observability helper methods ***/

func (w *CommandWrapper[C]) recordCommandSuccess(ctx context.Context, businessOutcome string, duration time.Duration, span shell.SpanContext) {
	shell.RecordCommandMetrics(ctx, w.metricsCollector, w.commandType, businessOutcome, duration)
	shell.FinishCommandSpan(w.tracingCollector, span, businessOutcome, duration, nil)
	shell.LogCommandSuccess(ctx, w.logger, w.contextualLogger, w.commandType, businessOutcome, duration)
}

func (w *CommandWrapper[C]) recordCommandError(ctx context.Context, err error, duration time.Duration, span shell.SpanContext) {
	status := shell.StatusError

	switch {
	case shell.IsCancellationError(err):
		status = shell.StatusCanceled
	case shell.IsTimeoutError(err):
		status = shell.StatusTimeout
	case shell.IsConcurrencyConflictError(err):
		status = shell.StatusConcurrencyConflict
	case shell.IsBusinessRefusal(err):
		shell.RecordCommandMetrics(ctx, w.metricsCollector, w.commandType, shell.StatusRefused, duration)
		shell.FinishCommandSpan(w.tracingCollector, span, shell.StatusRefused, duration, err)
		shell.LogCommandRefused(ctx, w.logger, w.contextualLogger, w.commandType, err)

		return
	}

	shell.RecordCommandMetrics(ctx, w.metricsCollector, w.commandType, status, duration)
	shell.FinishCommandSpan(w.tracingCollector, span, status, duration, err)
	shell.LogCommandError(ctx, w.logger, w.contextualLogger, w.commandType, err)
}

// recordRetryMetrics records retry execution metadata from the handler result.
func (w *CommandWrapper[C]) recordRetryMetrics(ctx context.Context, result shell.HandlerResult) {
	if w.metricsCollector == nil {
		return
	}

	contextualCollector, isContextual := w.metricsCollector.(shell.ContextualMetricsCollector)

	if result.RetryAttempts > 1 {
		retryLabels := shell.BuildRetryLabels(w.commandType, result.RetryAttempts-1, result.LastErrorType)
		delayLabels := map[string]string{shell.LogAttrCommandType: w.commandType}

		if isContextual {
			contextualCollector.IncrementCounterContext(ctx, shell.CommandHandlerRetriesMetric, retryLabels)
			contextualCollector.RecordDurationContext(ctx, shell.CommandHandlerRetryDelayMetric, result.TotalRetryDelay, delayLabels)
		} else {
			w.metricsCollector.IncrementCounter(shell.CommandHandlerRetriesMetric, retryLabels)
			w.metricsCollector.RecordDuration(shell.CommandHandlerRetryDelayMetric, result.TotalRetryDelay, delayLabels)
		}
	}

	if result.RetriesExhausted {
		exhaustedLabels := map[string]string{shell.LogAttrCommandType: w.commandType}

		if isContextual {
			contextualCollector.IncrementCounterContext(ctx, shell.CommandHandlerMaxRetriesReachedMetric, exhaustedLabels)
		} else {
			w.metricsCollector.IncrementCounter(shell.CommandHandlerMaxRetriesReachedMetric, exhaustedLabels)
		}
	}
}
