package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DurationKind is the loan package a borrower picks when requesting a bike.
type DurationKind string

const (
	DurationDaily    DurationKind = "daily"
	DurationTwoMonth DurationKind = "two_month"
)

// ParseDurationKind accepts the persisted names.
func ParseDurationKind(s string) (DurationKind, error) {
	switch DurationKind(s) {
	case DurationDaily, DurationTwoMonth:
		return DurationKind(s), nil
	default:
		return "", fmt.Errorf("%w: unknown duration kind %q", ErrInvalidLoanRequest, s)
	}
}

// DueDateFor derives the due date from the loan date.
// Daily loans end the following day, two-month loans two calendar months later.
func DueDateFor(loanDate time.Time, kind DurationKind) (time.Time, error) {
	loanDate = ToDate(loanDate)

	switch kind {
	case DurationDaily:
		return loanDate.AddDate(0, 0, 1), nil
	case DurationTwoMonth:
		return loanDate.AddDate(0, 2, 0), nil
	default:
		return time.Time{}, fmt.Errorf("%w: unknown duration kind %q", ErrInvalidLoanRequest, kind)
	}
}

// Loan is one borrow episode of an asset by a borrower.
type Loan struct {
	ID               uuid.UUID
	BorrowerID       BorrowerIDString
	AssetSerial      AssetSerialString
	LoanDate         time.Time
	DueDate          time.Time
	DurationKind     DurationKind
	Status           LoanStatus
	NotificationSent bool
	ContactPhone     string
	Attachments      []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NeedsLateNotice reports whether the dispatcher still owes the borrower a late notice.
func (l Loan) NeedsLateNotice() bool {
	return l.Status == StatusOverdue && !l.NotificationSent
}
