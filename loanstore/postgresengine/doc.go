// Package postgresengine provides a PostgreSQL implementation of the loanstore contract.
//
// The store accepts a pgxpool.Pool, a sql.DB (lib/pq) or a sqlx.DB through the
// internal adapters and builds every statement with goqu's postgres dialect.
// Loan transitions run inside one transaction: a guarded UPDATE of the loan
// ("where id = ? and status = ?") followed by the paired asset UPDATE. Zero
// affected loan rows roll the transaction back and surface loanstore.ErrPreconditionFailed.
//
// Basic usage:
//
//	store, err := postgresengine.NewLoanStoreFromPGXPool(pool,
//		postgresengine.WithLogger(logger),
//		postgresengine.WithMetrics(metrics),
//	)
//
//	err = store.ApplyTransition(ctx, loanstore.BuildTransitionRequest(loan, transition, now))
//
// The schema, including the trigger that feeds the change feed, lives in the migrations package.
package postgresengine
