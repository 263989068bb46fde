package borrowerloans

import (
	"context"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/identity"
)

// LoanStore defines the store operations needed by the QueryHandler.
type LoanStore interface {
	LoansByBorrower(ctx context.Context, borrowerID core.BorrowerIDString) ([]core.Loan, error)
}

// QueryHandler orchestrates the query: Authorize -> Read -> Project.
type QueryHandler struct {
	store LoanStore
}

// NewQueryHandler creates a new QueryHandler with the provided store dependency.
func NewQueryHandler(store LoanStore) QueryHandler {
	return QueryHandler{
		store: store,
	}
}

// Handle returns the borrower's loan history. Borrowers may only list their own loans.
func (h QueryHandler) Handle(ctx context.Context, query Query) (BorrowerLoans, error) {
	if err := identity.RequireBorrowerOrAdmin(query.Actor, query.BorrowerID); err != nil {
		return BorrowerLoans{}, err
	}

	ctx = loanstore.WithEventualConsistency(ctx)

	loans, err := h.store.LoansByBorrower(ctx, query.BorrowerID)
	if err != nil {
		return BorrowerLoans{}, err
	}

	return Project(query.BorrowerID, loans), nil
}
