// Package approveloan implements the Approve Loan use case.
//
// An admin approves a Pending loan. The loan becomes Active and its asset moves from Available
// to Borrowed in the same guarded write. Approving an Active loan again is an idempotent no-op,
// and an approval that loses the race against a concurrent reject or cancel is reported as
// superseded instead of failing.
package approveloan
