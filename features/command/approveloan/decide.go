package approveloan

import (
	"fmt"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
)

// Decide implements the business logic to approve a loan.
// The asset must still be Available, otherwise the approval is refused.
func Decide(loan core.Loan, asset core.Asset) core.DecisionResult {
	result := core.DecideTransition(loan.Status, core.EventApprove)
	if !result.HasTransitionToApply() {
		return result
	}

	if asset.Status != core.AssetAvailable {
		return core.ErrorDecision(fmt.Errorf("%w: %s is %s", core.ErrAssetUnavailable, asset.Serial, asset.Status))
	}

	return result
}
