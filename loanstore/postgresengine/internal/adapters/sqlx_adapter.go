package adapters

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// SQLXAdapter implements DBAdapter for sqlx.DB
type SQLXAdapter struct {
	stdExecutor
	db *sqlx.DB
}

// NewSQLXAdapter creates a new SQLX adapter
func NewSQLXAdapter(db *sqlx.DB) *SQLXAdapter {
	return &SQLXAdapter{stdExecutor: stdExecutor{q: db}, db: db}
}

// InTx runs fn inside an sqlx transaction.
func (s *SQLXAdapter) InTx(ctx context.Context, fn func(tx DBExecutor) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	return runStdTx(tx.Tx, fn)
}
