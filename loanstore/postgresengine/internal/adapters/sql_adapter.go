package adapters

import (
	"context"
	"database/sql"
)

// SQLAdapter implements DBAdapter for sql.DB
type SQLAdapter struct {
	stdExecutor
	db *sql.DB
}

// NewSQLAdapter creates a new SQL adapter
func NewSQLAdapter(db *sql.DB) *SQLAdapter {
	return &SQLAdapter{stdExecutor: stdExecutor{q: db}, db: db}
}

// InTx runs fn inside a database/sql transaction.
func (s *SQLAdapter) InTx(ctx context.Context, fn func(tx DBExecutor) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	return runStdTx(tx, fn)
}
