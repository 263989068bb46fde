package approveloan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/command/approveloan"
)

func Test_Decide(t *testing.T) {
	available := core.Asset{Serial: "BK-001", Status: core.AssetAvailable}
	borrowed := core.Asset{Serial: "BK-001", Status: core.AssetBorrowed}
	maintenance := core.Asset{Serial: "BK-001", Status: core.AssetUnderMaintenance}

	t.Run("pending loan with available asset is approved", func(t *testing.T) {
		result := approveloan.Decide(core.Loan{Status: core.StatusPending}, available)

		assert.True(t, result.HasTransitionToApply())
		assert.Equal(t, core.StatusActive, result.Transition.To)
		assert.Equal(t, core.AssetEffectBorrow, result.Transition.AssetEffect)
	})

	t.Run("active loan is idempotent", func(t *testing.T) {
		result := approveloan.Decide(core.Loan{Status: core.StatusActive}, borrowed)

		assert.True(t, result.IsIdempotent())
	})

	t.Run("asset under maintenance is refused", func(t *testing.T) {
		result := approveloan.Decide(core.Loan{Status: core.StatusPending}, maintenance)

		assert.ErrorIs(t, result.HasError(), core.ErrAssetUnavailable)
	})

	for _, status := range []core.LoanStatus{core.StatusRejected, core.StatusCompleted, core.StatusCancelled, core.StatusOverdue} {
		t.Run("refused from "+status.String(), func(t *testing.T) {
			result := approveloan.Decide(core.Loan{Status: status}, available)

			assert.ErrorIs(t, result.HasError(), core.ErrInvalidTransition)
		})
	}
}
