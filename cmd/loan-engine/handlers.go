package main

import (
	"fmt"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/command/approveloan"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/command/cancelloan"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/command/rejectloan"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/command/requestloan"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/command/returnloan"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/notify/latenotice"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/query/borrowerloans"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/query/loandetail"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/sweep/markoverdue"
	"github.com/AntonStoeckl/bike-loan-engine-go/returntoken"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/attachments"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/observable"
)

// newHandlers creates every command and query handler and wraps it with metrics, tracing and logging.
func newHandlers(
	store *openedStore,
	obs *observability,
	schedule core.Schedule,
	dispatcher *latenotice.Dispatcher,
	remover attachments.Remover,
	codec returntoken.Codec,
) (*handlerSet, error) {
	var (
		set handlerSet
		err error
	)

	if set.requestLoan, err = instrumentCommand[requestloan.Command](obs,
		requestloan.NewCommandHandler(store.store, requestloan.WithSchedule(schedule))); err != nil {
		return nil, err
	}

	if set.approveLoan, err = instrumentCommand[approveloan.Command](obs,
		approveloan.NewCommandHandler(store.store)); err != nil {
		return nil, err
	}

	if set.rejectLoan, err = instrumentCommand[rejectloan.Command](obs,
		rejectloan.NewCommandHandler(store.store)); err != nil {
		return nil, err
	}

	if set.cancelLoan, err = instrumentCommand[cancelloan.Command](obs,
		cancelloan.NewCommandHandler(store.store,
			cancelloan.WithAttachmentRemover(remover),
			cancelloan.WithLogger(obs.logger),
		)); err != nil {
		return nil, err
	}

	if set.returnLoan, err = instrumentCommand[returnloan.Command](obs,
		returnloan.NewCommandHandler(store.store, codec,
			returnloan.WithAttachmentRemover(remover),
			returnloan.WithLogger(obs.logger),
		)); err != nil {
		return nil, err
	}

	if set.markOverdue, err = instrumentCommand[markoverdue.Command](obs,
		markoverdue.NewCommandHandler(store.store,
			markoverdue.WithSchedule(schedule),
			markoverdue.WithNotifier(dispatcher),
			markoverdue.WithLogger(obs.logger),
		)); err != nil {
		return nil, err
	}

	if set.loanDetail, err = instrumentQuery[loandetail.Query, loandetail.LoanDetail](obs,
		loandetail.NewQueryHandler(store.store, set.markOverdue, loandetail.WithSchedule(schedule))); err != nil {
		return nil, err
	}

	if set.borrowerLoans, err = instrumentQuery[borrowerloans.Query, borrowerloans.BorrowerLoans](obs,
		borrowerloans.NewQueryHandler(store.store)); err != nil {
		return nil, err
	}

	return &set, nil
}

func instrumentCommand[C shell.Command](obs *observability, handler shell.CoreCommandHandler[C]) (shell.CoreCommandHandler[C], error) {
	wrapper, err := observable.NewCommandWrapper(handler,
		observable.WithCommandLogging[C](obs.logger),
		observable.WithCommandContextualLogging[C](obs.contextualLogger),
		observable.WithCommandMetrics[C](obs.metrics),
		observable.WithCommandTracing[C](obs.tracing),
	)
	if err != nil {
		var zero C
		return nil, fmt.Errorf("instrumenting %s: %w", zero.CommandType(), err)
	}

	return wrapper, nil
}

func instrumentQuery[Q shell.Query, R any](obs *observability, handler shell.CoreQueryHandler[Q, R]) (shell.CoreQueryHandler[Q, R], error) {
	wrapper, err := observable.NewQueryWrapper(handler,
		observable.WithQueryLogging[Q, R](obs.logger),
		observable.WithQueryContextualLogging[Q, R](obs.contextualLogger),
		observable.WithQueryMetrics[Q, R](obs.metrics),
		observable.WithQueryTracing[Q, R](obs.tracing),
	)
	if err != nil {
		var zero Q
		return nil, fmt.Errorf("instrumenting %s: %w", zero.QueryType(), err)
	}

	return wrapper, nil
}
