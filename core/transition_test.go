package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
)

func Test_LookupTransition_LegalRows(t *testing.T) {
	testCases := []struct {
		from   core.LoanStatus
		event  core.LoanEvent
		to     core.LoanStatus
		effect core.AssetEffect
		purge  bool
	}{
		{core.StatusPending, core.EventApprove, core.StatusActive, core.AssetEffectBorrow, false},
		{core.StatusPending, core.EventReject, core.StatusRejected, core.AssetEffectRelease, false},
		{core.StatusPending, core.EventCancel, core.StatusCancelled, core.AssetEffectRelease, true},
		{core.StatusActive, core.EventMarkOverdue, core.StatusOverdue, core.AssetEffectNone, false},
		{core.StatusActive, core.EventReturn, core.StatusCompleted, core.AssetEffectRelease, true},
		{core.StatusOverdue, core.EventReturn, core.StatusCompleted, core.AssetEffectRelease, true},
	}

	for _, tc := range testCases {
		t.Run(string(tc.event)+" from "+tc.from.String(), func(t *testing.T) {
			// act
			transition, err := core.LookupTransition(tc.from, tc.event)

			// assert
			require.NoError(t, err)
			assert.Equal(t, tc.to, transition.To)
			assert.Equal(t, tc.effect, transition.AssetEffect)
			assert.Equal(t, tc.purge, transition.PurgeAttachments)
		})
	}
}

func Test_LookupTransition_EverythingElseIsInvalid(t *testing.T) {
	statuses := []core.LoanStatus{
		core.StatusPending, core.StatusActive, core.StatusRejected,
		core.StatusCompleted, core.StatusCancelled, core.StatusOverdue,
	}
	events := []core.LoanEvent{
		core.EventApprove, core.EventReject, core.EventCancel, core.EventMarkOverdue, core.EventReturn,
	}

	legal := 0

	for _, from := range statuses {
		for _, event := range events {
			_, err := core.LookupTransition(from, event)
			if err == nil {
				legal++
				continue
			}

			assert.ErrorIs(t, err, core.ErrInvalidTransition)
		}
	}

	assert.Equal(t, len(core.Transitions()), legal)
}

func Test_LookupTransition_TerminalStatusesHaveNoExit(t *testing.T) {
	for _, transition := range core.Transitions() {
		assert.False(t, transition.From.IsTerminal(), "%s must not leave a terminal status", transition.Event)
	}
}

func Test_DecideTransition(t *testing.T) {
	// act
	idempotent := core.DecideTransition(core.StatusActive, core.EventApprove)
	success := core.DecideTransition(core.StatusPending, core.EventApprove)
	refused := core.DecideTransition(core.StatusCompleted, core.EventApprove)

	// assert
	assert.True(t, idempotent.IsIdempotent())
	assert.False(t, idempotent.HasTransitionToApply())
	assert.NoError(t, idempotent.HasError())

	assert.True(t, success.HasTransitionToApply())
	assert.Equal(t, core.StatusActive, success.Transition.To)

	assert.False(t, refused.HasTransitionToApply())
	assert.ErrorIs(t, refused.HasError(), core.ErrInvalidTransition)
	assert.True(t, refused.Transition.IsZero())
}

func Test_DueDateFor(t *testing.T) {
	// arrange
	loanDate := time.Date(2024, 12, 31, 9, 0, 0, 0, time.UTC)

	// act
	daily, errDaily := core.DueDateFor(loanDate, core.DurationDaily)
	twoMonth, errTwoMonth := core.DueDateFor(loanDate, core.DurationTwoMonth)
	_, errUnknown := core.DueDateFor(loanDate, "weekly")

	// assert
	require.NoError(t, errDaily)
	require.NoError(t, errTwoMonth)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), daily)
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), twoMonth, "Go normalizes February 31st")
	assert.ErrorIs(t, errUnknown, core.ErrInvalidLoanRequest)
}

func Test_LoanStatus_Predicates(t *testing.T) {
	assert.True(t, core.StatusOverdue.HoldsAsset())
	assert.False(t, core.StatusPending.HoldsAsset())
	assert.True(t, core.StatusPending.IsOpen())
	assert.False(t, core.StatusCancelled.IsOpen())
	assert.Equal(t, "overdue", core.StatusOverdue.String())
	assert.False(t, core.LoanStatus(9).IsValid())
}
