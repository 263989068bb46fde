package rejectloan

import "github.com/AntonStoeckl/bike-loan-engine-go/core"

// Decide implements the business logic to reject a loan.
func Decide(loan core.Loan) core.DecisionResult {
	return core.DecideTransition(loan.Status, core.EventReject)
}
