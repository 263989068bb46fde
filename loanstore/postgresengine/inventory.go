package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore/postgresengine/internal/adapters"
)

// AssetBySerial implements loanstore.AssetReader.
func (ls *LoanStore) AssetBySerial(ctx context.Context, serial core.AssetSerialString) (core.Asset, error) {
	assets, err := ls.selectAssets(ctx, goqu.Ex{colSerial: serial}, 1)
	if err != nil {
		return core.Asset{}, err
	}

	if len(assets) == 0 {
		return core.Asset{}, core.ErrAssetNotFound
	}

	return assets[0], nil
}

// FindAvailableAsset implements loanstore.AssetReader.
// The kind is compared case-insensitively and assets referenced by an open loan are skipped.
func (ls *LoanStore) FindAvailableAsset(ctx context.Context, kind string) (core.Asset, error) {
	reserved := ls.dialect.
		From(ls.loansTable).
		Select(goqu.C(colAssetSerial)).
		Where(goqu.C(colStatus).In(openStatusValues()))

	where := goqu.And(
		goqu.C(colStatus).Eq(string(core.AssetAvailable)),
		goqu.L("LOWER(?) = ?", goqu.C(colKind), strings.ToLower(kind)),
		goqu.C(colSerial).NotIn(reserved),
	)

	assets, err := ls.selectAssets(ctx, where, 1)
	if err != nil {
		return core.Asset{}, err
	}

	if len(assets) == 0 {
		return core.Asset{}, core.ErrNoAssetAvailable
	}

	return assets[0], nil
}

func (ls *LoanStore) selectAssets(ctx context.Context, where exp.Expression, limit uint) ([]core.Asset, error) {
	ctx, observer := ls.startOperation(ctx, operationQuery)

	ds := ls.dialect.
		From(ls.assetsTable).
		Select(
			goqu.C(colSerial),
			goqu.C(colStatus),
			goqu.C(colBrand),
			goqu.C(colKind),
			goqu.C(colDescription),
			goqu.C(colLastMaintainedOn),
		).
		Where(where).
		Order(goqu.C(colSerial).Asc()).
		Limit(limit)

	sqlQuery, err := ls.toSQL(ctx, ds)
	if err != nil {
		observer.finishError(errorTypeBuildQuery, err)
		return nil, err
	}

	assets := make([]core.Asset, 0, limit)
	_, err = ls.queryRows(ctx, ls.db, sqlQuery, func(rows adapters.DBRows) error {
		var (
			asset        core.Asset
			status       string
			maintainedOn sql.NullTime
		)

		if scanErr := rows.Scan(
			&asset.Serial, &status, &asset.Brand, &asset.Kind, &asset.Description, &maintainedOn,
		); scanErr != nil {
			return scanErr
		}

		asset.Status = core.AssetStatus(status)
		if maintainedOn.Valid {
			date := core.ToDate(maintainedOn.Time)
			asset.LastMaintainedOn = &date
		}

		assets = append(assets, asset)

		return nil
	})
	if err != nil {
		observer.finishError(errorTypeDatabaseQuery, err)
		return nil, err
	}

	observer.finishSuccess(len(assets))

	return assets, nil
}

// BorrowerContact implements loanstore.BorrowerDirectory.
func (ls *LoanStore) BorrowerContact(ctx context.Context, borrowerID core.BorrowerIDString) (core.Borrower, error) {
	ctx, observer := ls.startOperation(ctx, operationQuery)

	ds := ls.dialect.
		From(ls.borrowersTable).
		Select(goqu.C(colID), goqu.C(colName), goqu.C(colEmail)).
		Where(goqu.Ex{colID: borrowerID})

	sqlQuery, err := ls.toSQL(ctx, ds)
	if err != nil {
		observer.finishError(errorTypeBuildQuery, err)
		return core.Borrower{}, err
	}

	var borrower core.Borrower
	count, err := ls.queryRows(ctx, ls.db, sqlQuery, func(rows adapters.DBRows) error {
		return rows.Scan(&borrower.ID, &borrower.Name, &borrower.Email)
	})
	if err != nil {
		observer.finishError(errorTypeDatabaseQuery, err)
		return core.Borrower{}, err
	}

	observer.finishSuccess(count)

	if count == 0 {
		return core.Borrower{}, core.ErrBorrowerNotFound
	}

	return borrower, nil
}

// SaveAsset implements loanstore.Inventory. An existing asset with the same serial is overwritten.
func (ls *LoanStore) SaveAsset(ctx context.Context, asset core.Asset) error {
	if !asset.Status.IsValid() {
		return errors.Join(core.ErrInvalidLoanRequest, errors.New("unknown asset status "+string(asset.Status)))
	}

	var maintainedOn any
	if asset.LastMaintainedOn != nil {
		maintainedOn = asset.LastMaintainedOn.Format(dateLayout)
	}

	record := goqu.Record{
		colSerial:           asset.Serial,
		colStatus:           string(asset.Status),
		colBrand:            asset.Brand,
		colKind:             asset.Kind,
		colDescription:      asset.Description,
		colLastMaintainedOn: maintainedOn,
	}

	ds := ls.dialect.
		Insert(ls.assetsTable).
		Rows(record).
		OnConflict(goqu.DoUpdate(colSerial, goqu.Record{
			colStatus:           goqu.L("EXCLUDED." + colStatus),
			colBrand:            goqu.L("EXCLUDED." + colBrand),
			colKind:             goqu.L("EXCLUDED." + colKind),
			colDescription:      goqu.L("EXCLUDED." + colDescription),
			colLastMaintainedOn: goqu.L("EXCLUDED." + colLastMaintainedOn),
		}))

	return ls.saveInventory(ctx, ds, logActionSaveAsset)
}

// SaveBorrower implements loanstore.Inventory. It mirrors the identity subsystem's contact data.
func (ls *LoanStore) SaveBorrower(ctx context.Context, borrower core.Borrower) error {
	ds := ls.dialect.
		Insert(ls.borrowersTable).
		Rows(goqu.Record{
			colID:    borrower.ID,
			colName:  borrower.Name,
			colEmail: borrower.Email,
		}).
		OnConflict(goqu.DoUpdate(colID, goqu.Record{
			colName:  goqu.L("EXCLUDED." + colName),
			colEmail: goqu.L("EXCLUDED." + colEmail),
		}))

	return ls.saveInventory(ctx, ds, logActionSaveBorrower)
}

func (ls *LoanStore) saveInventory(ctx context.Context, ds *goqu.InsertDataset, action string) error {
	ctx, observer := ls.startOperation(ctx, operationSaveInventory)

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

	observer.finishSuccess(int(rowsAffected))

	return nil
}
