package returnloan

import (
	"fmt"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/identity"
)

// Decide implements the business logic to complete a loan by a verified return.
// tokenMatches tells whether the presented token decodes to the loan's asset serial.
func Decide(loan core.Loan, command Command, tokenMatches bool) core.DecisionResult {
	if err := identity.RequireBorrowerOrAdmin(command.Actor, loan.BorrowerID); err != nil {
		return core.ErrorDecision(err)
	}

	decision := core.DecideTransition(loan.Status, core.EventReturn)
	if decision.HasError() != nil {
		return decision
	}

	if !tokenMatches {
		return core.ErrorDecision(fmt.Errorf("%w: token does not belong to %s", core.ErrInvalidReturnToken, loan.AssetSerial))
	}

	return decision
}
