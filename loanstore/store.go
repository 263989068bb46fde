package loanstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
)

// LoanReader reads loans.
type LoanReader interface {
	LoanByID(ctx context.Context, loanID uuid.UUID) (core.Loan, error)
	LoansByStatus(ctx context.Context, status core.LoanStatus) ([]core.Loan, error)
	LoansByBorrower(ctx context.Context, borrowerID core.BorrowerIDString) ([]core.Loan, error)
	OverdueUnnotifiedLoans(ctx context.Context) ([]core.Loan, error)
}

// AssetReader reads assets.
type AssetReader interface {
	AssetBySerial(ctx context.Context, serial core.AssetSerialString) (core.Asset, error)
	FindAvailableAsset(ctx context.Context, kind string) (core.Asset, error)
}

// BorrowerDirectory reads the identity subsystem's contact data.
type BorrowerDirectory interface {
	BorrowerContact(ctx context.Context, borrowerID core.BorrowerIDString) (core.Borrower, error)
}

// LoanWriter performs the guarded writes of the loan lifecycle.
type LoanWriter interface {
	// InsertLoan stores a new Pending loan. It returns ErrConcurrencyConflict when
	// another open loan already references the same asset.
	InsertLoan(ctx context.Context, loan core.Loan) error

	// ApplyTransition updates the loan and its asset atomically.
	// It returns ErrPreconditionFailed when the loan is no longer in req.Transition.From
	// and core.ErrAssetUnavailable when a borrow finds the asset not Available.
	ApplyTransition(ctx context.Context, req TransitionRequest) error
}

// LateNoticeLedger gates the late notice of a loan behind a persisted flag and a short claim.
type LateNoticeLedger interface {
	// ClaimLateNotice takes the claim until leaseUntil if the loan is Overdue, not yet
	// notified and not claimed by someone else at now. Otherwise ErrPreconditionFailed.
	ClaimLateNotice(ctx context.Context, loanID uuid.UUID, now, leaseUntil time.Time) error

	// CompleteLateNotice sets the notified flag and clears the claim.
	CompleteLateNotice(ctx context.Context, loanID uuid.UUID, at time.Time) error

	// ReleaseLateNotice clears the claim and leaves the flag untouched.
	ReleaseLateNotice(ctx context.Context, loanID uuid.UUID) error
}

// Inventory maintains assets and the borrower contact mirror.
type Inventory interface {
	SaveAsset(ctx context.Context, asset core.Asset) error
	SaveBorrower(ctx context.Context, borrower core.Borrower) error
}

// Store is the full contract every engine implements.
type Store interface {
	LoanReader
	AssetReader
	BorrowerDirectory
	LoanWriter
	LateNoticeLedger
	Inventory
}
