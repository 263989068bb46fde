// Package identity turns bearer tokens into actors and checks whether an actor may act on a loan.
//
// Authentication itself belongs to the identity subsystem. This package only verifies the HS256
// tokens it issues and evaluates the authorization preconditions of the loan lifecycle:
// admins approve and reject, a borrower cancels their own loan, and a return may be recorded
// by the loan's borrower or an admin.
package identity
