package postgresengine

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
)

// ClaimLateNotice implements loanstore.LateNoticeLedger.
func (ls *LoanStore) ClaimLateNotice(ctx context.Context, loanID uuid.UUID, now, leaseUntil time.Time) error {
	ds := ls.dialect.
		Update(ls.loansTable).
		Set(goqu.Record{colNoticeClaimed: core.ToOccurredAt(leaseUntil)}).
		Where(
			goqu.C(colID).Eq(loanID.String()),
			goqu.C(colStatus).Eq(int(core.StatusOverdue)),
			goqu.C(colNotificationSent).IsFalse(),
			goqu.Or(
				goqu.C(colNoticeClaimed).IsNull(),
				goqu.C(colNoticeClaimed).Lte(core.ToOccurredAt(now)),
			),
		)

	err := ls.guardedNoticeUpdate(ctx, operationClaimNotice, logActionClaimNotice, ds)
	if err == nil {
		ls.logOperationContext(ctx, logMsgNoticeClaimed, logAttrLoanID, loanID.String())
	}

	return err
}

// CompleteLateNotice implements loanstore.LateNoticeLedger.
func (ls *LoanStore) CompleteLateNotice(ctx context.Context, loanID uuid.UUID, at time.Time) error {
	ds := ls.dialect.
		Update(ls.loansTable).
		Set(goqu.Record{
			colNotificationSent: true,
			colNoticeClaimed:    nil,
			colUpdatedAt:        core.ToOccurredAt(at),
		}).
		Where(
			goqu.C(colID).Eq(loanID.String()),
			goqu.C(colNotificationSent).IsFalse(),
		)

	return ls.guardedNoticeUpdate(ctx, operationCompleteNotice, logActionCompleteNotice, ds)
}

// ReleaseLateNotice implements loanstore.LateNoticeLedger.
func (ls *LoanStore) ReleaseLateNotice(ctx context.Context, loanID uuid.UUID) error {
	ctx, observer := ls.startOperation(ctx, operationReleaseNotice)

	ds := ls.dialect.
		Update(ls.loansTable).
		Set(goqu.Record{colNoticeClaimed: nil}).
		Where(goqu.C(colID).Eq(loanID.String()))

	sqlQuery, err := ls.toSQL(ctx, ds)
	if err != nil {
		observer.finishError(errorTypeBuildQuery, err)
		return err
	}

	rowsAffected, err := ls.execStatement(ctx, ls.db, sqlQuery, logActionReleaseNotice)
	if err != nil {
		observer.finishError(errorTypeDatabaseExec, err)
		return err
	}

	observer.finishSuccess(int(rowsAffected))

	return nil
}

func (ls *LoanStore) guardedNoticeUpdate(ctx context.Context, operation, action string, ds *goqu.UpdateDataset) error {
	ctx, observer := ls.startOperation(ctx, operation)

	sqlQuery, err := ls.toSQL(ctx, ds)
	if err != nil {
		observer.finishError(errorTypeBuildQuery, err)
		return err
	}

	rowsAffected, err := ls.execStatement(ctx, ls.db, sqlQuery, action)
	if err != nil {
		observer.finishError(errorTypeDatabaseExec, err)
		return err
	}

	if rowsAffected == 0 {
		observer.finishConflict()
		return loanstore.ErrPreconditionFailed
	}

	observer.finishSuccess(int(rowsAffected))

	return nil
}
