// Package borrowerloans implements the Borrower Loans query use case: a borrower's loan history,
// newest first. It tolerates slightly stale data and reads with eventual consistency.
package borrowerloans
