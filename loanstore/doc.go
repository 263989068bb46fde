// Package loanstore defines the persistence contract of the loan engine:
// the error values shared by all engines, the guarded transition request,
// the change events published when a loan turns overdue, and the
// dependency-free observability interfaces that engines and handlers report to.
//
// Two engines implement the contract:
//   - postgresengine: the production engine on PostgreSQL (pgx pool, database/sql or sqlx)
//   - memengine: an in-process engine for tests and local development
//
// Every write that touches a loan and its asset runs as one atomic unit and is
// guarded by the loan's current status. A lost guard surfaces as ErrPreconditionFailed.
package loanstore
