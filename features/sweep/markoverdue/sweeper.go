package markoverdue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell"
)

const (
	logMsgSweepFinished = "overdue sweep finished"
	logAttrChecked      = "checked"
	logAttrMarked       = "marked_overdue"
	logAttrFailed       = "failed"
)

// ActiveLoans lists the loans the sweep has to look at.
type ActiveLoans interface {
	LoansByStatus(ctx context.Context, status core.LoanStatus) ([]core.Loan, error)
}

// SweepReport summarizes one overdue sweep.
type SweepReport struct {
	Checked       int         `json:"checked"`
	MarkedOverdue int         `json:"markedOverdue"`
	LoanIDs       []uuid.UUID `json:"loanIds"`
}

// Sweeper runs the overdue check over all Active loans.
type Sweeper struct {
	loans   ActiveLoans
	handler shell.CoreCommandHandler[Command]
	logger  shell.Logger
}

// NewSweeper creates a Sweeper. handler is usually a CommandHandler, optionally wrapped for observability.
func NewSweeper(loans ActiveLoans, handler shell.CoreCommandHandler[Command], logger shell.Logger) Sweeper {
	return Sweeper{loans: loans, handler: handler, logger: logger}
}

// RunOverdueSweep marks every late Active loan Overdue.
// A failing loan does not stop the sweep; all failures are joined into the returned error.
func (s Sweeper) RunOverdueSweep(ctx context.Context, now time.Time) (SweepReport, error) {
	report := SweepReport{LoanIDs: []uuid.UUID{}}

	loans, err := s.loans.LoansByStatus(ctx, core.StatusActive)
	if err != nil {
		return report, err
	}

	var errs []error

	for _, loan := range loans {
		if ctxErr := ctx.Err(); ctxErr != nil {
			errs = append(errs, ctxErr)
			break
		}

		report.Checked++

		result, handleErr := s.handler.Handle(ctx, BuildCommand(loan.ID, now))
		if handleErr != nil {
			errs = append(errs, handleErr)
			continue
		}

		if !result.Idempotent {
			report.MarkedOverdue++
			report.LoanIDs = append(report.LoanIDs, loan.ID)
		}
	}

	if s.logger != nil {
		s.logger.Info(logMsgSweepFinished,
			logAttrChecked, report.Checked,
			logAttrMarked, report.MarkedOverdue,
			logAttrFailed, len(errs),
		)
	}

	return report, errors.Join(errs...)
}
