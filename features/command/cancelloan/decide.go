package cancelloan

import (
	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/identity"
)

// Decide implements the business logic to cancel a loan.
// Only the borrower who owns the loan may cancel it.
func Decide(loan core.Loan, command Command) core.DecisionResult {
	if err := identity.RequireBorrower(command.Actor, loan.BorrowerID); err != nil {
		return core.ErrorDecision(err)
	}

	return core.DecideTransition(loan.Status, core.EventCancel)
}
