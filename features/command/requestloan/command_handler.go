package requestloan

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/identity"
)

// LoanStore defines the store operations needed by the CommandHandler.
type LoanStore interface {
	LoanByID(ctx context.Context, loanID uuid.UUID) (core.Loan, error)
	FindAvailableAsset(ctx context.Context, kind string) (core.Asset, error)
	InsertLoan(ctx context.Context, loan core.Loan) error
}

// CommandHandler orchestrates the request workflow with pure business logic and retry:
// Authorize -> Pick asset -> Decide -> Insert.
// External wrappers handle all observability concerns.
type CommandHandler struct {
	store        LoanStore
	schedule     core.Schedule
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

// WithSchedule sets the facility schedule whose zone defines "today".
func WithSchedule(schedule core.Schedule) Option {
	return func(h *CommandHandler) {
		h.schedule = schedule
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

// Handle executes the request with retry on asset conflicts.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	if err := identity.RequireBorrower(command.Actor, command.BorrowerID); err != nil {
		return shell.NewErrorResult(shell.RetryMetrics{Attempts: 1}), err
	}

	var isIdempotent bool

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		idempotent, execErr := h.executeCommand(retryCtx, command)
		isIdempotent = idempotent

		return execErr
	}, h.retryOptions...)

	if isIdempotent {
		return shell.NewIdempotentResult(retryMetrics), err
	}

	if err != nil {
		return shell.NewErrorResult(retryMetrics), err
	}

	return shell.NewSuccessResult(retryMetrics), nil
}

// executeCommand contains the core command processing logic that can be retried.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) (bool, error) {
	ctx = loanstore.WithStrongConsistency(ctx)

	existing, err := h.store.LoanByID(ctx, command.LoanID)
	switch {
	case err == nil && existing.BorrowerID == command.BorrowerID:
		return true, nil
	case err == nil:
		return false, fmt.Errorf("%w: loan id %s is taken", core.ErrInvalidLoanRequest, command.LoanID)
	case !errors.Is(err, core.ErrLoanNotFound):
		return false, err
	}

	today := core.ToDate(command.OccurredAt.In(h.schedule.Location()))
	if validationErr := Validate(command, today); validationErr != nil {
		return false, validationErr
	}

	asset, err := h.store.FindAvailableAsset(ctx, command.AssetKind)
	if err != nil {
		return false, err
	}

	loan, err := Decide(command, asset, today)
	if err != nil {
		return false, err
	}

	return false, h.store.InsertLoan(ctx, loan)
}
