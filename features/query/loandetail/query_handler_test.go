package loandetail_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/query/loandetail"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/sweep/markoverdue"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/identity"
	. "github.com/AntonStoeckl/bike-loan-engine-go/testutil/fixtures" //nolint:revive
)

var (
	borrower = identity.Actor{ID: "b-1", Role: identity.RoleBorrower}
	admin    = identity.Actor{ID: "admin-1", Role: identity.RoleAdmin}
	stranger = identity.Actor{ID: "b-2", Role: identity.RoleBorrower}

	// tuesday 2024-06-04 after closing, the loans from monday are late
	afterClosing = time.Date(2024, 6, 4, 17, 0, 0, 0, core.FacilityLocation())
)

func Test_QueryHandler_Handle_ReturnsDetail(t *testing.T) {
	// arrange
	store := NewStore(t)
	GivenAsset(t, store, "BK-001", "Mountain", core.AssetAvailable)
	loan := GivenLoan(t, store, "b-1", "BK-001", FakeNow, core.StatusActive)
	handler := loandetail.NewQueryHandler(store, markoverdue.NewCommandHandler(store))

	// act
	detail, err := handler.Handle(context.Background(), loandetail.BuildQuery(loan.ID, borrower, FakeNow))

	// assert
	require.NoError(t, err)
	assert.Equal(t, loan.ID, detail.LoanID)
	assert.Equal(t, core.StatusActive.String(), detail.Status)
	assert.Equal(t, "2024-06-03", detail.LoanDate)
	assert.Equal(t, "2024-06-04", detail.DueDate)
	assert.Equal(t, time.Date(2024, 6, 4, 16, 0, 0, 0, core.FacilityLocation()).Unix(), detail.ReturnDeadline.Unix())
	assert.Equal(t, 0, detail.DaysLate)
	assert.Equal(t, "BK-001", detail.Asset.Serial)
	assert.Equal(t, core.AssetBorrowed, detail.Asset.Status)
	assert.Equal(t, []string{"loans/BK-001/photo.jpg"}, detail.Attachments)
}

func Test_QueryHandler_Handle_MarksLateLoanOverdue(t *testing.T) {
	// arrange
	store := NewStore(t)
	GivenAsset(t, store, "BK-001", "Mountain", core.AssetAvailable)
	loan := GivenLoan(t, store, "b-1", "BK-001", FakeNow, core.StatusActive)
	handler := loandetail.NewQueryHandler(store, markoverdue.NewCommandHandler(store))

	// act
	detail, err := handler.Handle(context.Background(), loandetail.BuildQuery(loan.ID, admin, afterClosing))

	// assert
	require.NoError(t, err)
	assert.Equal(t, core.StatusOverdue.String(), detail.Status)
	assert.Equal(t, 1, detail.DaysLate)
	RequireLoanStatus(t, store, loan.ID, core.StatusOverdue)
}

func Test_QueryHandler_Handle_WithoutOverdueHandlerOnlyReads(t *testing.T) {
	// arrange
	store := NewStore(t)
	GivenAsset(t, store, "BK-001", "Mountain", core.AssetAvailable)
	loan := GivenLoan(t, store, "b-1", "BK-001", FakeNow, core.StatusActive)
	handler := loandetail.NewQueryHandler(store, nil)

	// act
	detail, err := handler.Handle(context.Background(), loandetail.BuildQuery(loan.ID, borrower, afterClosing))

	// assert
	require.NoError(t, err)
	assert.Equal(t, core.StatusActive.String(), detail.Status)
	RequireLoanStatus(t, store, loan.ID, core.StatusActive)
}

func Test_QueryHandler_Handle_RefusesOtherBorrowers(t *testing.T) {
	// arrange
	store := NewStore(t)
	GivenAsset(t, store, "BK-001", "Mountain", core.AssetAvailable)
	loan := GivenLoan(t, store, "b-1", "BK-001", FakeNow, core.StatusActive)
	handler := loandetail.NewQueryHandler(store, markoverdue.NewCommandHandler(store))

	// act
	_, err := handler.Handle(context.Background(), loandetail.BuildQuery(loan.ID, stranger, afterClosing))

	// assert
	assert.ErrorIs(t, err, core.ErrNotAuthorized)
	RequireLoanStatus(t, store, loan.ID, core.StatusActive)
}

func Test_QueryHandler_Handle_UnknownLoan(t *testing.T) {
	store := NewStore(t)
	handler := loandetail.NewQueryHandler(store, markoverdue.NewCommandHandler(store))

	_, err := handler.Handle(context.Background(), loandetail.BuildQuery(uuid.New(), admin, FakeNow))

	assert.ErrorIs(t, err, core.ErrLoanNotFound)
}
