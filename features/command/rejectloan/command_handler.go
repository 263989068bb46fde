package rejectloan

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/identity"
)

// LoanStore defines the store operations needed by the CommandHandler.
type LoanStore interface {
	LoanByID(ctx context.Context, loanID uuid.UUID) (core.Loan, error)
	ApplyTransition(ctx context.Context, req loanstore.TransitionRequest) error
}

// CommandHandler orchestrates the rejection: Authorize -> Read -> Decide -> Guarded write.
type CommandHandler struct {
	store        LoanStore
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

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(store LoanStore, opts ...Option) CommandHandler {
	handler := CommandHandler{store: store}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the rejection.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	if err := identity.RequireAdmin(command.Actor); err != nil {
		return shell.NewErrorResult(shell.RetryMetrics{Attempts: 1}), err
	}

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
	default:
		return shell.NewSuccessResult(retryMetrics), nil
	}
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (bool, error) {
	ctx = loanstore.WithStrongConsistency(ctx)

	loan, err := h.store.LoanByID(ctx, command.LoanID)
	if err != nil {
		return false, err
	}

	result := Decide(loan)

	if decisionErr := result.HasError(); decisionErr != nil {
		return false, decisionErr
	}

	if result.IsIdempotent() {
		return true, nil
	}

	return false, h.store.ApplyTransition(ctx, loanstore.BuildTransitionRequest(loan, result.Transition, command.OccurredAt))
}
