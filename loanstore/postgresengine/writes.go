package postgresengine

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore/postgresengine/internal/adapters"
)

// InsertLoan implements loanstore.LoanWriter.
// The partial unique index on open loans per asset turns a lost race into loanstore.ErrConcurrencyConflict.
func (ls *LoanStore) InsertLoan(ctx context.Context, loan core.Loan) error {
	ctx, observer := ls.startOperation(ctx, operationInsertLoan)

	attachments := loan.Attachments
	if attachments == nil {
		attachments = []string{}
	}

	attachmentsJSON, err := json.Marshal(attachments)
	if err != nil {
		observer.finishError(errorTypeBuildQuery, err)
		return errors.Join(loanstore.ErrBuildingQueryFailed, err)
	}

	ds := ls.dialect.
		Insert(ls.loansTable).
		Rows(goqu.Record{
			colID:               loan.ID.String(),
			colBorrowerID:       loan.BorrowerID,
			colAssetSerial:      loan.AssetSerial,
			colLoanDate:         loan.LoanDate.Format(dateLayout),
			colDueDate:          loan.DueDate.Format(dateLayout),
			colDurationKind:     string(loan.DurationKind),
			colStatus:           int(loan.Status),
			colNotificationSent: loan.NotificationSent,
			colContactPhone:     loan.ContactPhone,
			colAttachments:      goqu.L(castJsonb, string(attachmentsJSON)),
			colCreatedAt:        core.ToOccurredAt(loan.CreatedAt),
			colUpdatedAt:        core.ToOccurredAt(loan.UpdatedAt),
		})

	sqlQuery, err := ls.toSQL(ctx, ds)
	if err != nil {
		observer.finishError(errorTypeBuildQuery, err)
		return err
	}

	if _, err = ls.execStatement(ctx, ls.db, sqlQuery, logActionInsertLoan); err != nil {
		switch {
		case isUniqueViolation(err):
			observer.finishConflict()
			return errors.Join(loanstore.ErrConcurrencyConflict, err)
		case isForeignKeyViolation(err):
			observer.finishError(errorTypeDatabaseExec, err)
			return errors.Join(core.ErrAssetNotFound, err)
		default:
			observer.finishError(errorTypeDatabaseExec, err)
			return err
		}
	}

	ls.logOperationContext(ctx, logMsgLoanInserted,
		logAttrLoanID, loan.ID.String(),
		logAttrAssetSerial, loan.AssetSerial,
	)
	observer.finishSuccess(1)

	return nil
}

// ApplyTransition implements loanstore.LoanWriter.
func (ls *LoanStore) ApplyTransition(ctx context.Context, req loanstore.TransitionRequest) error {
	ctx, observer := ls.startOperation(ctx, operationTransition)

	err := ls.db.InTx(ctx, func(tx adapters.DBExecutor) error {
		if err := ls.updateLoanStatus(ctx, tx, req); err != nil {
			return err
		}

		return ls.applyAssetEffect(ctx, tx, req)
	})

	switch {
	case err == nil:
	case errors.Is(err, loanstore.ErrPreconditionFailed):
		ls.logOperationContext(ctx, logMsgPreconditionFailed, logAttrLoanID, req.LoanID.String())
		observer.finishConflict()
		return err
	case errors.Is(err, core.ErrAssetUnavailable), errors.Is(err, core.ErrLoanNotFound):
		observer.finishSuccess(0)
		return err
	default:
		observer.finishError(errorTypeTransaction, err)
		return errors.Join(loanstore.ErrTransactionFailed, err)
	}

	ls.logOperationContext(ctx, logMsgTransitionApplied,
		logAttrLoanID, req.LoanID.String(),
		logAttrEvent, string(req.Transition.Event),
		logAttrFromStatus, req.Transition.From.String(),
		logAttrToStatus, req.Transition.To.String(),
	)
	observer.finishSuccess(1)

	return nil
}

func (ls *LoanStore) updateLoanStatus(ctx context.Context, tx adapters.DBExecutor, req loanstore.TransitionRequest) error {
	ds := ls.dialect.
		Update(ls.loansTable).
		Set(goqu.Record{
			colStatus:    int(req.Transition.To),
			colUpdatedAt: req.OccurredAt,
		}).
		Where(goqu.Ex{
			colID:     req.LoanID.String(),
			colStatus: int(req.Transition.From),
		})

	sqlQuery, err := ls.toSQL(ctx, ds)
	if err != nil {
		return err
	}

	rowsAffected, err := ls.execStatement(ctx, tx, sqlQuery, logActionTransition)
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		exists, existsErr := ls.loanExists(ctx, tx, req)
		if existsErr != nil {
			return existsErr
		}

		if !exists {
			return core.ErrLoanNotFound
		}

		return loanstore.ErrPreconditionFailed
	}

	return nil
}

func (ls *LoanStore) loanExists(ctx context.Context, tx adapters.DBExecutor, req loanstore.TransitionRequest) (bool, error) {
	ds := ls.dialect.
		From(ls.loansTable).
		Select(goqu.L("1")).
		Where(goqu.Ex{colID: req.LoanID.String()})

	sqlQuery, err := ls.toSQL(ctx, ds)
	if err != nil {
		return false, err
	}

	count, err := ls.queryRows(ctx, tx, sqlQuery, func(rows adapters.DBRows) error {
		var one int
		return rows.Scan(&one)
	})

	return count > 0, err
}

func (ls *LoanStore) applyAssetEffect(ctx context.Context, tx adapters.DBExecutor, req loanstore.TransitionRequest) error {
	var ds *goqu.UpdateDataset

	switch req.Transition.AssetEffect {
	case core.AssetEffectBorrow:
		ds = ls.dialect.
			Update(ls.assetsTable).
			Set(goqu.Record{colStatus: string(core.AssetBorrowed)}).
			Where(goqu.Ex{
				colSerial: req.AssetSerial,
				colStatus: string(core.AssetAvailable),
			})
	case core.AssetEffectRelease:
		ds = ls.dialect.
			Update(ls.assetsTable).
			Set(goqu.Record{colStatus: string(core.AssetAvailable)}).
			Where(
				goqu.C(colSerial).Eq(req.AssetSerial),
				goqu.C(colStatus).Neq(string(core.AssetUnderMaintenance)),
			)
	default:
		return nil
	}

	sqlQuery, err := ls.toSQL(ctx, ds)
	if err != nil {
		return err
	}

	rowsAffected, err := ls.execStatement(ctx, tx, sqlQuery, logActionTransition)
	if err != nil {
		return err
	}

	if req.Transition.AssetEffect == core.AssetEffectBorrow && rowsAffected == 0 {
		return core.ErrAssetUnavailable
	}

	return nil
}
