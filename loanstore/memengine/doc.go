// Package memengine is an in-process implementation of the loanstore contract.
//
// It serializes all writes behind one mutex, so every guarded transition is
// linearizable the same way a row-level guarded UPDATE is in PostgreSQL.
// Loans that turn Overdue are published to subscribers, mirroring the
// database trigger that feeds the change feed.
//
// The engine is used by feature tests and for local development without a database.
package memengine
