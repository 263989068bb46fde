package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore/postgresengine/internal/adapters"
)

const (
	defaultLoansTableName     = "loans"
	defaultAssetsTableName    = "assets"
	defaultBorrowersTableName = "borrowers"
	dialectPostgres           = "postgres"
	dateLayout                = "2006-01-02"
	castText                  = "TEXT"
	castJsonb                 = "?::jsonb"

	colID               = "id"
	colBorrowerID       = "borrower_id"
	colAssetSerial      = "asset_serial"
	colLoanDate         = "loan_date"
	colDueDate          = "due_date"
	colDurationKind     = "duration_kind"
	colStatus           = "status"
	colNotificationSent = "notification_sent"
	colNoticeClaimed    = "notice_claimed_until"
	colContactPhone     = "contact_phone"
	colAttachments      = "attachments"
	colCreatedAt        = "created_at"
	colUpdatedAt        = "updated_at"
	colSerial           = "serial"
	colBrand            = "brand"
	colKind             = "kind"
	colDescription      = "description"
	colLastMaintainedOn = "last_maintained_on"
	colName             = "name"
	colEmail            = "email"

	logMsgBuildQueryFailed   = "failed to build query"
	logMsgDBQueryFailed      = "database query execution failed"
	logMsgDBExecFailed       = "database statement execution failed"
	logMsgCloseRowsFailed    = "failed to close database rows"
	logMsgScanRowFailed      = "failed to scan database row"
	logMsgTransitionApplied  = "loan transition applied"
	logMsgPreconditionFailed = "guarded update lost its precondition"
	logMsgLoanInserted       = "loan inserted"
	logMsgNoticeClaimed      = "late notice claimed"
	logMsgSQLExecuted        = "executed sql for: "
	logMsgOperation          = "loanstore operation: "
	logAttrError             = "error"
	logAttrQuery             = "query"
	logAttrDurationMS        = "duration_ms"
	logAttrRowsAffected      = "rows_affected"
	logAttrLoanID            = "loan_id"
	logAttrAssetSerial       = "asset_serial"
	logAttrEvent             = "event"
	logAttrFromStatus        = "from_status"
	logAttrToStatus          = "to_status"
	logActionQuery           = "query"
	logActionInsertLoan      = "insert_loan"
	logActionTransition      = "transition"
	logActionClaimNotice     = "claim_notice"
	logActionCompleteNotice  = "complete_notice"
	logActionReleaseNotice   = "release_notice"
	logActionSaveAsset       = "save_asset"
	logActionSaveBorrower    = "save_borrower"
	pgUniqueViolation        = "23505"
	pgForeignKeyViolation    = "23503"
)

// LoanStore is the PostgreSQL engine of the loanstore contract.
type LoanStore struct {
	db               adapters.DBAdapter
	dialect          goqu.DialectWrapper
	loansTable       string
	assetsTable      string
	borrowersTable   string
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

// NewLoanStoreFromPGXPool creates a new LoanStore using a pgx Pool with optional configuration.
func NewLoanStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*LoanStore, error) {
	if db == nil {
		return nil, loanstore.ErrNilDatabaseConnection
	}

	return newLoanStore(adapters.NewPGXAdapter(db), options...)
}

// NewLoanStoreFromPGXPoolWithReplica creates a new LoanStore that serves eventually consistent
// reads from the replica pool.
func NewLoanStoreFromPGXPoolWithReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (*LoanStore, error) {
	if db == nil || replica == nil {
		return nil, loanstore.ErrNilDatabaseConnection
	}

	return newLoanStore(adapters.NewPGXAdapterWithReplica(db, replica), options...)
}

// NewLoanStoreFromSQLDB creates a new LoanStore using a sql.DB with optional configuration.
func NewLoanStoreFromSQLDB(db *sql.DB, options ...Option) (*LoanStore, error) {
	if db == nil {
		return nil, loanstore.ErrNilDatabaseConnection
	}

	return newLoanStore(adapters.NewSQLAdapter(db), options...)
}

// NewLoanStoreFromSQLX creates a new LoanStore using a sqlx.DB with optional configuration.
func NewLoanStoreFromSQLX(db *sqlx.DB, options ...Option) (*LoanStore, error) {
	if db == nil {
		return nil, loanstore.ErrNilDatabaseConnection
	}

	return newLoanStore(adapters.NewSQLXAdapter(db), options...)
}

func newLoanStore(db adapters.DBAdapter, options ...Option) (*LoanStore, error) {
	ls := &LoanStore{
		db:             db,
		dialect:        goqu.Dialect(dialectPostgres),
		loansTable:     defaultLoansTableName,
		assetsTable:    defaultAssetsTableName,
		borrowersTable: defaultBorrowersTableName,
	}

	for _, option := range options {
		if err := option(ls); err != nil {
			return nil, err
		}
	}

	return ls, nil
}

// toSQL renders a goqu statement as a plain SQL string.
func (ls *LoanStore) toSQL(ctx context.Context, ds interface {
	ToSQL() (string, []any, error)
}) (string, error) {
	sqlQuery, _, err := ds.ToSQL()
	if err != nil {
		ls.logErrorContext(ctx, logMsgBuildQueryFailed, err)
		return "", errors.Join(loanstore.ErrBuildingQueryFailed, err)
	}

	return sqlQuery, nil
}

// queryRows runs a query and hands every row to scan. Rows are always closed before returning.
func (ls *LoanStore) queryRows(
	ctx context.Context,
	db adapters.DBExecutor,
	sqlQuery string,
	scan func(rows adapters.DBRows) error,
) (int, error) {
	start := time.Now()

	rows, err := db.Query(ctx, sqlQuery)
	if err != nil {
		ls.logErrorContext(ctx, logMsgDBQueryFailed, err, logAttrQuery, sqlQuery)
		return 0, errors.Join(loanstore.ErrQueryFailed, err)
	}
	defer ls.closeRows(ctx, rows)

	count := 0
	for rows.Next() {
		if scanErr := scan(rows); scanErr != nil {
			ls.logErrorContext(ctx, logMsgScanRowFailed, scanErr)
			return count, errors.Join(loanstore.ErrScanningDBRowFailed, scanErr)
		}
		count++
	}

	if err := rows.Err(); err != nil {
		ls.logErrorContext(ctx, logMsgDBQueryFailed, err, logAttrQuery, sqlQuery)
		return count, errors.Join(loanstore.ErrQueryFailed, err)
	}

	ls.logQueryWithDuration(ctx, sqlQuery, logActionQuery, time.Since(start))

	return count, nil
}

// execStatement runs a statement and returns the number of affected rows.
func (ls *LoanStore) execStatement(
	ctx context.Context,
	db adapters.DBExecutor,
	sqlQuery string,
	action string,
) (int64, error) {
	start := time.Now()

	result, err := db.Exec(ctx, sqlQuery)
	if err != nil {
		ls.logErrorContext(ctx, logMsgDBExecFailed, err, logAttrQuery, sqlQuery)
		return 0, errors.Join(loanstore.ErrExecFailed, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Join(loanstore.ErrGettingRowsAffectedFailed, err)
	}

	ls.logQueryWithDuration(ctx, sqlQuery, action, time.Since(start))

	return rowsAffected, nil
}

// closeRows closes database rows and logs any error.
func (ls *LoanStore) closeRows(ctx context.Context, rows adapters.DBRows) {
	if err := rows.Close(); err != nil {
		ls.logWarnContext(ctx, logMsgCloseRowsFailed, logAttrError, err.Error())
	}
}

var _ loanstore.Store = (*LoanStore)(nil)
