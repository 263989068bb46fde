package loandetail

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/sweep/markoverdue"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/identity"
)

// LoanStore defines the store operations needed by the QueryHandler.
type LoanStore interface {
	LoanByID(ctx context.Context, loanID uuid.UUID) (core.Loan, error)
	AssetBySerial(ctx context.Context, serial core.AssetSerialString) (core.Asset, error)
}

// QueryHandler orchestrates the query: Read -> Authorize -> Lazy overdue check -> Project.
type QueryHandler struct {
	store    LoanStore
	overdue  shell.CoreCommandHandler[markoverdue.Command]
	schedule core.Schedule
}

// Option configures a QueryHandler.
type Option func(*QueryHandler)

// WithSchedule sets the facility schedule. It must match the one the overdue handler uses.
func WithSchedule(schedule core.Schedule) Option {
	return func(h *QueryHandler) {
		h.schedule = schedule
	}
}

// NewQueryHandler creates a new QueryHandler. overdue runs the lazy overdue check.
func NewQueryHandler(store LoanStore, overdue shell.CoreCommandHandler[markoverdue.Command], opts ...Option) QueryHandler {
	handler := QueryHandler{
		store:    store,
		overdue:  overdue,
		schedule: core.DefaultSchedule(),
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle returns the loan detail. Only the loan's borrower or an admin may read it.
func (h QueryHandler) Handle(ctx context.Context, query Query) (LoanDetail, error) {
	// the lazy check may write, so the read must see the latest status
	ctx = loanstore.WithStrongConsistency(ctx)

	loan, err := h.store.LoanByID(ctx, query.LoanID)
	if err != nil {
		return LoanDetail{}, err
	}

	if authErr := identity.RequireBorrowerOrAdmin(query.Actor, loan.BorrowerID); authErr != nil {
		return LoanDetail{}, authErr
	}

	if loan.Status == core.StatusActive && h.schedule.IsLate(loan.DueDate, query.Now) {
		if loan, err = h.markOverdue(ctx, loan, query); err != nil {
			return LoanDetail{}, err
		}
	}

	asset, err := h.store.AssetBySerial(ctx, loan.AssetSerial)
	if err != nil {
		return LoanDetail{}, err
	}

	return Project(loan, asset, h.schedule, query.Now), nil
}

func (h QueryHandler) markOverdue(ctx context.Context, loan core.Loan, query Query) (core.Loan, error) {
	if h.overdue == nil {
		return loan, nil
	}

	if _, err := h.overdue.Handle(ctx, markoverdue.BuildCommand(loan.ID, query.Now)); err != nil {
		return core.Loan{}, err
	}

	return h.store.LoanByID(ctx, loan.ID)
}
