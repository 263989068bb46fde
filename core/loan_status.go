package core

import "fmt"

// LoanStatus is the lifecycle status of a loan. The numeric values are persisted.
type LoanStatus int

const (
	StatusPending   LoanStatus = 1
	StatusActive    LoanStatus = 2
	StatusRejected  LoanStatus = 3
	StatusCompleted LoanStatus = 4
	StatusCancelled LoanStatus = 5
	StatusOverdue   LoanStatus = 6
)

var loanStatusNames = map[LoanStatus]string{
	StatusPending:   "pending",
	StatusActive:    "active",
	StatusRejected:  "rejected",
	StatusCompleted: "completed",
	StatusCancelled: "cancelled",
	StatusOverdue:   "overdue",
}

// String returns the lower-case name used in logs and API responses.
func (s LoanStatus) String() string {
	if name, ok := loanStatusNames[s]; ok {
		return name
	}

	return fmt.Sprintf("unknown(%d)", int(s))
}

// IsValid reports whether s is one of the six known statuses.
func (s LoanStatus) IsValid() bool {
	_, ok := loanStatusNames[s]
	return ok
}

// IsTerminal reports whether no further transition can leave s.
func (s LoanStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusCompleted || s == StatusCancelled
}

// IsOpen reports whether a loan in status s still holds its asset.
func (s LoanStatus) IsOpen() bool {
	return s == StatusPending || s == StatusActive || s == StatusOverdue
}

// HoldsAsset reports whether the asset of a loan in status s must be Borrowed.
func (s LoanStatus) HoldsAsset() bool {
	return s == StatusActive || s == StatusOverdue
}

// OpenLoanStatuses lists the statuses that reserve an asset.
func OpenLoanStatuses() []LoanStatus {
	return []LoanStatus{StatusPending, StatusActive, StatusOverdue}
}
