package postgresengine

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore/postgresengine/internal/adapters"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// LoanByID implements loanstore.LoanReader.
func (ls *LoanStore) LoanByID(ctx context.Context, loanID uuid.UUID) (core.Loan, error) {
	loans, err := ls.selectLoans(ctx, ls.db, goqu.Ex{colID: loanID.String()})
	if err != nil {
		return core.Loan{}, err
	}

	if len(loans) == 0 {
		return core.Loan{}, core.ErrLoanNotFound
	}

	return loans[0], nil
}

// LoansByStatus implements loanstore.LoanReader.
func (ls *LoanStore) LoansByStatus(ctx context.Context, status core.LoanStatus) ([]core.Loan, error) {
	return ls.selectLoans(ctx, ls.db, goqu.Ex{colStatus: int(status)},
		goqu.C(colDueDate).Asc(), goqu.C(colID).Asc())
}

// LoansByBorrower implements loanstore.LoanReader.
func (ls *LoanStore) LoansByBorrower(ctx context.Context, borrowerID core.BorrowerIDString) ([]core.Loan, error) {
	return ls.selectLoans(ctx, ls.db, goqu.Ex{colBorrowerID: borrowerID},
		goqu.C(colCreatedAt).Desc(), goqu.C(colID).Asc())
}

// OverdueUnnotifiedLoans implements loanstore.LoanReader.
func (ls *LoanStore) OverdueUnnotifiedLoans(ctx context.Context) ([]core.Loan, error) {
	return ls.selectLoans(ctx, ls.db, goqu.Ex{
		colStatus:           int(core.StatusOverdue),
		colNotificationSent: false,
	}, goqu.C(colDueDate).Asc(), goqu.C(colID).Asc())
}

func (ls *LoanStore) selectLoans(
	ctx context.Context,
	db adapters.DBExecutor,
	where exp.Expression,
	order ...exp.OrderedExpression,
) ([]core.Loan, error) {
	ctx, observer := ls.startOperation(ctx, operationQuery)

	ds := ls.dialect.
		From(ls.loansTable).
		Select(
			goqu.Cast(goqu.C(colID), castText).As(colID),
			goqu.C(colBorrowerID),
			goqu.C(colAssetSerial),
			goqu.C(colLoanDate),
			goqu.C(colDueDate),
			goqu.C(colDurationKind),
			goqu.C(colStatus),
			goqu.C(colNotificationSent),
			goqu.C(colContactPhone),
			goqu.Cast(goqu.C(colAttachments), castText).As(colAttachments),
			goqu.C(colCreatedAt),
			goqu.C(colUpdatedAt),
		).
		Where(where).
		Order(order...)

	sqlQuery, err := ls.toSQL(ctx, ds)
	if err != nil {
		observer.finishError(errorTypeBuildQuery, err)
		return nil, err
	}

	loans := make([]core.Loan, 0)
	_, err = ls.queryRows(ctx, db, sqlQuery, func(rows adapters.DBRows) error {
		loan, scanErr := scanLoan(rows)
		if scanErr != nil {
			return scanErr
		}
		loans = append(loans, loan)

		return nil
	})
	if err != nil {
		observer.finishError(errorTypeDatabaseQuery, err)
		return nil, err
	}

	observer.finishSuccess(len(loans))

	return loans, nil
}

func scanLoan(rows adapters.DBRows) (core.Loan, error) {
	var (
		id, borrowerID, serial, durationKind, phone, attachments string
		loanDate, dueDate, createdAt, updatedAt                  time.Time
		status                                                   int
		notificationSent                                         bool
	)

	if err := rows.Scan(
		&id, &borrowerID, &serial, &loanDate, &dueDate, &durationKind,
		&status, &notificationSent, &phone, &attachments, &createdAt, &updatedAt,
	); err != nil {
		return core.Loan{}, err
	}

	loanID, err := uuid.Parse(id)
	if err != nil {
		return core.Loan{}, err
	}

	refs := make([]string, 0)
	if err := json.Unmarshal([]byte(attachments), &refs); err != nil {
		return core.Loan{}, err
	}

	return core.Loan{
		ID:               loanID,
		BorrowerID:       borrowerID,
		AssetSerial:      serial,
		LoanDate:         core.ToDate(loanDate),
		DueDate:          core.ToDate(dueDate),
		DurationKind:     core.DurationKind(durationKind),
		Status:           core.LoanStatus(status),
		NotificationSent: notificationSent,
		ContactPhone:     phone,
		Attachments:      refs,
		CreatedAt:        createdAt.UTC(),
		UpdatedAt:        updatedAt.UTC(),
	}, nil
}

func openStatusValues() []int {
	statuses := core.OpenLoanStatuses()
	values := make([]int, 0, len(statuses))

	for _, s := range statuses {
		values = append(values, int(s))
	}

	return values
}
