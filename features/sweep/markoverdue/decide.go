package markoverdue

import (
	"time"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
)

// Decide implements the business logic of the overdue check.
// Loans that are not Active or not late yet need no change, which is reported as idempotent.
func Decide(loan core.Loan, schedule core.Schedule, now time.Time) core.DecisionResult {
	if loan.Status != core.StatusActive {
		return core.IdempotentDecision()
	}

	if !schedule.IsLate(loan.DueDate, now) {
		return core.IdempotentDecision()
	}

	return core.DecideTransition(loan.Status, core.EventMarkOverdue)
}
