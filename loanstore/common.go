package loanstore

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
)

var (
	// ErrPreconditionFailed is returned when a guarded update found the row no longer in the expected state.
	ErrPreconditionFailed = errors.New("precondition failed, no rows were affected")

	// ErrConcurrencyConflict is returned when a concurrent writer claimed the same asset first.
	ErrConcurrencyConflict = errors.New("concurrency error, a concurrent write won")

	ErrEmptyTableNameSupplied    = errors.New("empty table name supplied")
	ErrNilDatabaseConnection     = errors.New("database connection must not be nil")
	ErrBuildingQueryFailed       = errors.New("building the query failed")
	ErrQueryFailed               = errors.New("querying the database failed")
	ErrExecFailed                = errors.New("executing the statement failed")
	ErrScanningDBRowFailed       = errors.New("scanning db row failed")
	ErrGettingRowsAffectedFailed = errors.New("getting rows affected failed")
	ErrTransactionFailed         = errors.New("running the transaction failed")
)

// TransitionRequest is one guarded loan status change and the asset write paired with it.
type TransitionRequest struct {
	LoanID      uuid.UUID
	AssetSerial core.AssetSerialString
	Transition  core.Transition
	OccurredAt  core.OccurredAt
}

// BuildTransitionRequest creates a TransitionRequest for a loan.
func BuildTransitionRequest(loan core.Loan, transition core.Transition, occurredAt time.Time) TransitionRequest {
	return TransitionRequest{
		LoanID:      loan.ID,
		AssetSerial: loan.AssetSerial,
		Transition:  transition,
		OccurredAt:  core.ToOccurredAt(occurredAt),
	}
}

// StatusChange is published when a loan's status changes to one a listener subscribed to.
// Resync marks a synthetic event sent after a listener reconnected and may have missed changes.
type StatusChange struct {
	LoanID uuid.UUID
	Status core.LoanStatus
	Resync bool
}
