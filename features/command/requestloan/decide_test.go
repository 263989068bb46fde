package requestloan_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/command/requestloan"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/identity"
)

var today = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

func buildCommand(loanDate time.Time, kind core.DurationKind) requestloan.Command {
	return requestloan.BuildCommand(
		uuid.New(),
		identity.Actor{ID: "b-1", Role: identity.RoleBorrower},
		"b-1",
		"Mountain",
		loanDate,
		kind,
		"+62 812 1111 2222",
		[]string{"photo.jpg", "student-card.jpg"},
		today.Add(9*time.Hour),
	)
}

func Test_Decide_BuildsPendingLoan(t *testing.T) {
	testCases := []struct {
		name        string
		kind        core.DurationKind
		expectedDue time.Time
	}{
		{name: "daily", kind: core.DurationDaily, expectedDue: today.AddDate(0, 0, 1)},
		{name: "two month", kind: core.DurationTwoMonth, expectedDue: time.Date(2024, 8, 3, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			command := buildCommand(today, tc.kind)
			asset := core.Asset{Serial: "BK-001", Status: core.AssetAvailable, Kind: "Mountain"}

			// act
			loan, err := requestloan.Decide(command, asset, today)

			// assert
			require.NoError(t, err)
			assert.Equal(t, command.LoanID, loan.ID)
			assert.Equal(t, core.StatusPending, loan.Status)
			assert.Equal(t, "BK-001", loan.AssetSerial)
			assert.Equal(t, tc.expectedDue, loan.DueDate)
			assert.False(t, loan.NotificationSent)
			assert.Equal(t, []string{"photo.jpg", "student-card.jpg"}, loan.Attachments)
		})
	}
}

func Test_Decide_RefusesInvalidRequests(t *testing.T) {
	asset := core.Asset{Serial: "BK-001", Status: core.AssetAvailable, Kind: "Mountain"}

	past := buildCommand(today.AddDate(0, 0, -1), core.DurationDaily)
	unknownKind := buildCommand(today, core.DurationKind("weekly"))
	noPhone := buildCommand(today, core.DurationDaily)
	noPhone.ContactPhone = "  "
	noAssetKind := buildCommand(today, core.DurationDaily)
	noAssetKind.AssetKind = ""

	for name, command := range map[string]requestloan.Command{
		"loan date in the past": past,
		"unknown duration":      unknownKind,
		"missing phone":         noPhone,
		"missing asset kind":    noAssetKind,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := requestloan.Decide(command, asset, today)
			assert.ErrorIs(t, err, core.ErrInvalidLoanRequest)
		})
	}
}

func Test_Decide_RefusesUnavailableAsset(t *testing.T) {
	asset := core.Asset{Serial: "BK-001", Status: core.AssetUnderMaintenance, Kind: "Mountain"}

	_, err := requestloan.Decide(buildCommand(today, core.DurationDaily), asset, today)

	assert.ErrorIs(t, err, core.ErrAssetUnavailable)
}
