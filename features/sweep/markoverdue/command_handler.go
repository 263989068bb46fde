package markoverdue

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell"
)

const (
	logMsgDispatchFailed = "late notice dispatch after overdue transition failed"
)

// LoanStore defines the store operations needed by the CommandHandler.
type LoanStore interface {
	LoanByID(ctx context.Context, loanID uuid.UUID) (core.Loan, error)
	ApplyTransition(ctx context.Context, req loanstore.TransitionRequest) error
}

// Notifier sends the late notice of a loan that just turned Overdue.
type Notifier interface {
	Dispatch(ctx context.Context, loanID uuid.UUID) (bool, error)
}

// CommandHandler marks a single loan Overdue: Read -> Decide -> Guarded write -> Notify.
type CommandHandler struct {
	store        LoanStore
	schedule     core.Schedule
	notifier     Notifier
	logger       shell.Logger
	retryOptions []shell.RetryOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// WithSchedule sets the facility schedule used to decide lateness.
func WithSchedule(schedule core.Schedule) Option {
	return func(h *CommandHandler) {
		h.schedule = schedule
	}
}

// WithNotifier sets the dispatcher invoked after every Active to Overdue transition.
func WithNotifier(notifier Notifier) Option {
	return func(h *CommandHandler) {
		h.notifier = notifier
	}
}

// WithLogger sets the logger for dispatch failures.
func WithLogger(logger shell.Logger) Option {
	return func(h *CommandHandler) {
		h.logger = logger
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(store LoanStore, opts ...Option) CommandHandler {
	handler := CommandHandler{
		store:    store,
		schedule: core.DefaultSchedule(),
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle marks the loan Overdue if it is late. A failed notice does not fail the command:
// the loan stays Overdue and unnotified, so the notification sweep retries it.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	var isIdempotent bool

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		idempotent, execErr := h.executeCommand(retryCtx, command)
		isIdempotent = idempotent

		return execErr
	}, h.retryOptions...)

	switch {
	case shell.IsPreconditionFailedError(err):
		return shell.NewSupersededResult(retryMetrics), nil
	case err != nil:
		return shell.NewErrorResult(retryMetrics), err
	case isIdempotent:
		return shell.NewIdempotentResult(retryMetrics), nil
	}

	h.notify(ctx, command.LoanID)

	return shell.NewSuccessResult(retryMetrics), nil
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (bool, error) {
	ctx = loanstore.WithStrongConsistency(ctx)

	loan, err := h.store.LoanByID(ctx, command.LoanID)
	if err != nil {
		return false, err
	}

	result := Decide(loan, h.schedule, command.Now)

	if decisionErr := result.HasError(); decisionErr != nil {
		return false, decisionErr
	}

	if result.IsIdempotent() {
		return true, nil
	}

	return false, h.store.ApplyTransition(ctx, loanstore.BuildTransitionRequest(loan, result.Transition, command.Now))
}

func (h CommandHandler) notify(ctx context.Context, loanID uuid.UUID) {
	if h.notifier == nil {
		return
	}

	if _, err := h.notifier.Dispatch(ctx, loanID); err != nil && h.logger != nil {
		h.logger.Warn(logMsgDispatchFailed, shell.LogAttrLoanID, loanID.String(), shell.LogAttrError, err.Error())
	}
}
