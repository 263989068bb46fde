package shell

import (
	"context"
	"errors"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
)

// Outcome classifies the result of an operation for transports and metrics.
type Outcome string

const (
	// OutcomeSuccess means the operation completed, including idempotent no-ops.
	OutcomeSuccess Outcome = "success"

	// OutcomeRefusal means a business rule refused the operation. The caller can act on it.
	OutcomeRefusal Outcome = "refusal"

	// OutcomeNotFound means the addressed loan, asset or borrower does not exist.
	OutcomeNotFound Outcome = "not_found"

	// OutcomeUnauthorized means the actor may not perform the operation.
	OutcomeUnauthorized Outcome = "unauthorized"

	// OutcomeInfrastructure means a collaborator failed. Retrying later may help.
	OutcomeInfrastructure Outcome = "infrastructure"
)

// Classify maps an error to an Outcome. A nil error is OutcomeSuccess.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, core.ErrNotAuthorized):
		return OutcomeUnauthorized
	case errors.Is(err, core.ErrLoanNotFound),
		errors.Is(err, core.ErrAssetNotFound),
		errors.Is(err, core.ErrBorrowerNotFound):
		return OutcomeNotFound
	case errors.Is(err, core.ErrInvalidTransition),
		errors.Is(err, core.ErrInvalidReturnToken),
		errors.Is(err, core.ErrAssetUnavailable),
		errors.Is(err, core.ErrNoAssetAvailable),
		errors.Is(err, core.ErrInvalidLoanRequest):
		return OutcomeRefusal
	default:
		return OutcomeInfrastructure
	}
}

// IsCancellationError checks if an error is due to context cancellation.
func IsCancellationError(err error) bool {
	return errors.Is(err, context.Canceled)
}

// IsTimeoutError checks if an error is due to context deadline exceeded.
func IsTimeoutError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// IsConcurrencyConflictError checks if an error is due to a lost race for the same asset.
func IsConcurrencyConflictError(err error) bool {
	return errors.Is(err, loanstore.ErrConcurrencyConflict)
}

// IsBusinessRefusal reports whether err is a refusal by a business rule.
func IsBusinessRefusal(err error) bool {
	switch Classify(err) {
	case OutcomeRefusal, OutcomeNotFound, OutcomeUnauthorized:
		return true
	default:
		return false
	}
}

// IsPreconditionFailedError reports whether a guarded write found the loan already moved by someone else.
func IsPreconditionFailedError(err error) bool {
	return errors.Is(err, loanstore.ErrPreconditionFailed)
}
