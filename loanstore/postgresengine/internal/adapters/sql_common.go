package adapters

import (
	"context"
	"database/sql"
	"errors"
)

// stdQuerier is satisfied by *sql.DB, *sql.Tx, *sqlx.DB and *sqlx.Tx.
type stdQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// stdExecutor implements DBExecutor on top of a stdQuerier.
type stdExecutor struct {
	q stdQuerier
}

// Query executes a query and returns wrapped rows.
func (s stdExecutor) Query(ctx context.Context, query string) (DBRows, error) {
	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	return &stdRows{rows: rows}, nil
}

// Exec executes a statement and returns the wrapped result.
func (s stdExecutor) Exec(ctx context.Context, query string) (DBResult, error) {
	result, err := s.q.ExecContext(ctx, query)
	if err != nil {
		return nil, err
	}

	return &stdResult{result: result}, nil
}

// runStdTx commits when fn succeeds and rolls back otherwise.
func runStdTx(tx *sql.Tx, fn func(tx DBExecutor) error) error {
	if err := fn(stdExecutor{q: tx}); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			return errors.Join(err, rollbackErr)
		}

		return err
	}

	return tx.Commit()
}

// stdRows wraps standard library sql.Rows to implement DBRows interface.
type stdRows struct {
	rows *sql.Rows
}

// Next advances to the next row.
func (s *stdRows) Next() bool {
	return s.rows.Next()
}

// Scan copies row values into provided destinations.
func (s *stdRows) Scan(dest ...any) error {
	return s.rows.Scan(dest...)
}

// Err returns the error encountered during iteration.
func (s *stdRows) Err() error {
	return s.rows.Err()
}

// Close closes the rows iterator.
func (s *stdRows) Close() error {
	return s.rows.Close()
}

// stdResult wraps standard library sql.Result to implement DBResult interface.
type stdResult struct {
	result sql.Result
}

// RowsAffected returns the number of rows affected by the command.
func (s *stdResult) RowsAffected() (int64, error) {
	return s.result.RowsAffected()
}
