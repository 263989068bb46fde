// Package fixtures builds loan stores and seeds them for feature tests.
//
// Tests run against the in-memory engine by default. Setting LOANENGINE_TEST_STORE=postgres
// runs the same tests against PostgreSQL (LOANENGINE_TEST_DSN must point to a test database).
package fixtures

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore/memengine"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore/postgresengine"
	"github.com/AntonStoeckl/bike-loan-engine-go/testutil/pgtest"
)

// EnvStoreType selects the engine used by NewStore.
const EnvStoreType = "LOANENGINE_TEST_STORE"

const (
	storeTypeMemory   = "memory"
	storeTypePostgres = "postgres"
)

// FakeNow is a Monday morning in the facility zone (2024-06-03 15:00 WIB).
var FakeNow = time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)

// NewStore creates the store selected by EnvStoreType.
func NewStore(t *testing.T) loanstore.Store {
	t.Helper()

	switch storeType := strings.ToLower(os.Getenv(EnvStoreType)); storeType {
	case storeTypeMemory, "":
		return memengine.NewEngine()

	case storeTypePostgres:
		store, err := postgresengine.NewLoanStoreFromPGXPool(pgtest.NewTestPool(t))
		require.NoError(t, err)

		return store

	default:
		panic(fmt.Sprintf("unsupported store type from env: %s", storeType))
	}
}

// GivenAsset saves an asset.
func GivenAsset(t *testing.T, store loanstore.Inventory, serial, kind string, status core.AssetStatus) core.Asset {
	t.Helper()

	asset := core.Asset{
		Serial:      serial,
		Status:      status,
		Brand:       "Polygon",
		Kind:        kind,
		Description: "test bike " + serial,
	}
	require.NoError(t, store.SaveAsset(context.Background(), asset), "error in arranging test data")

	return asset
}

// GivenBorrower saves a borrower contact.
func GivenBorrower(t *testing.T, store loanstore.Inventory, id string) core.Borrower {
	t.Helper()

	borrower := core.Borrower{ID: id, Name: "Borrower " + id, Email: id + "@apps.example.org"}
	require.NoError(t, store.SaveBorrower(context.Background(), borrower), "error in arranging test data")

	return borrower
}

// pathTo lists the events that lead from Pending to a status.
var pathTo = map[core.LoanStatus][]core.LoanEvent{
	core.StatusPending:   nil,
	core.StatusActive:    {core.EventApprove},
	core.StatusOverdue:   {core.EventApprove, core.EventMarkOverdue},
	core.StatusRejected:  {core.EventReject},
	core.StatusCancelled: {core.EventCancel},
	core.StatusCompleted: {core.EventApprove, core.EventReturn},
}

// GivenLoan inserts a daily loan starting on loanDate and walks it to status through the store.
func GivenLoan(
	t *testing.T,
	store loanstore.Store,
	borrowerID string,
	serial string,
	loanDate time.Time,
	status core.LoanStatus,
) core.Loan {
	t.Helper()

	ctx := context.Background()

	dueDate, err := core.DueDateFor(loanDate, core.DurationDaily)
	require.NoError(t, err)

	loan := core.Loan{
		ID:           uuid.New(),
		BorrowerID:   borrowerID,
		AssetSerial:  serial,
		LoanDate:     core.ToDate(loanDate),
		DueDate:      dueDate,
		DurationKind: core.DurationDaily,
		Status:       core.StatusPending,
		ContactPhone: "+62 812 0000 0000",
		Attachments:  []string{"loans/" + serial + "/photo.jpg"},
		CreatedAt:    core.ToOccurredAt(FakeNow),
		UpdatedAt:    core.ToOccurredAt(FakeNow),
	}
	require.NoError(t, store.InsertLoan(ctx, loan), "error in arranging test data")

	for _, event := range pathTo[status] {
		transition, lookupErr := core.LookupTransition(loan.Status, event)
		require.NoError(t, lookupErr)
		require.NoError(t, store.ApplyTransition(ctx, loanstore.BuildTransitionRequest(loan, transition, FakeNow)))
		loan.Status = transition.To
	}

	stored, err := store.LoanByID(ctx, loan.ID)
	require.NoError(t, err)

	return stored
}

// RequireLoanStatus reads the loan and checks its status.
func RequireLoanStatus(t *testing.T, store loanstore.LoanReader, loanID uuid.UUID, expected core.LoanStatus) core.Loan {
	t.Helper()

	loan, err := store.LoanByID(context.Background(), loanID)
	require.NoError(t, err)
	require.Equal(t, expected, loan.Status, "unexpected loan status")

	return loan
}

// RequireAssetStatus reads the asset and checks its status.
func RequireAssetStatus(t *testing.T, store loanstore.AssetReader, serial string, expected core.AssetStatus) {
	t.Helper()

	asset, err := store.AssetBySerial(context.Background(), serial)
	require.NoError(t, err)
	require.Equal(t, expected, asset.Status, "unexpected asset status")
}
