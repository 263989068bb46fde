// Package observable provides wrapper components for instrumenting command and query handlers
// with metrics, tracing and logging while keeping the loan handlers free of observability code.
//
// The wrappers are applied externally at wiring time, not hidden inside factory functions:
//
//	coreHandler := approveloan.NewCommandHandler(store, clock)
//
//	observableHandler, err := observable.NewCommandWrapper[approveloan.Command](
//		coreHandler,
//		observable.WithCommandMetrics[approveloan.Command](metricsCollector),
//		observable.WithCommandTracing[approveloan.Command](tracingCollector),
//		observable.WithCommandContextualLogging[approveloan.Command](contextualLogger),
//	)
//
// Business refusals (invalid transition, bad return token, unavailable asset) are recorded
// with status "refused" and logged at warn level. Only infrastructure failures count as errors.
package observable
