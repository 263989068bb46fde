package adapters

import "context"

// DBExecutor runs single statements, either on the pool or inside a transaction.
type DBExecutor interface {
	Query(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, query string) (DBResult, error)
}

// DBAdapter defines the interface for database operations needed by the loan store.
type DBAdapter interface {
	DBExecutor

	// InTx runs fn inside one transaction. It commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx DBExecutor) error) error
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}
