package returnloan

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
	"github.com/AntonStoeckl/bike-loan-engine-go/returntoken"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/attachments"
)

// LoanStore defines the store operations needed by the CommandHandler.
type LoanStore interface {
	LoanByID(ctx context.Context, loanID uuid.UUID) (core.Loan, error)
	ApplyTransition(ctx context.Context, req loanstore.TransitionRequest) error
}

// TokenVerifier checks that a return token names the expected serial.
type TokenVerifier interface {
	Verify(token, expectedSerial string) bool
}

// CommandHandler orchestrates the return: Read -> Verify token -> Decide -> Guarded write -> Purge.
type CommandHandler struct {
	store        LoanStore
	verifier     TokenVerifier
	remover      attachments.Remover
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

// WithAttachmentRemover sets where the attachments of completed loans are purged.
func WithAttachmentRemover(remover attachments.Remover) Option {
	return func(h *CommandHandler) {
		h.remover = remover
	}
}

// WithLogger sets the logger for purge failures.
func WithLogger(logger shell.Logger) Option {
	return func(h *CommandHandler) {
		h.logger = logger
	}
}

// NewCommandHandler creates a new CommandHandler. verifier is usually a returntoken.Codec.
func NewCommandHandler(store LoanStore, verifier TokenVerifier, opts ...Option) CommandHandler {
	handler := CommandHandler{store: store, verifier: verifier, remover: attachments.Nop{}}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the return.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	var isIdempotent bool
	var committed core.Loan

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		loan, idempotent, execErr := h.executeCommand(retryCtx, command)
		isIdempotent = idempotent
		committed = loan

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

	attachments.Purge(ctx, h.remover, h.logger, committed.ID, committed.Attachments)

	return shell.NewSuccessResult(retryMetrics), nil
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (core.Loan, bool, error) {
	ctx = loanstore.WithStrongConsistency(ctx)

	loan, err := h.store.LoanByID(ctx, command.LoanID)
	if err != nil {
		return core.Loan{}, false, err
	}

	result := Decide(loan, command, h.verifier.Verify(command.ReturnToken, loan.AssetSerial))

	if decisionErr := result.HasError(); decisionErr != nil {
		return loan, false, decisionErr
	}

	if result.IsIdempotent() {
		return loan, true, nil
	}

	return loan, false, h.store.ApplyTransition(ctx, loanstore.BuildTransitionRequest(loan, result.Transition, command.OccurredAt))
}

var _ TokenVerifier = returntoken.Codec{}
