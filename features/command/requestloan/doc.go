// Package requestloan implements the Request Loan use case.
//
// A borrower asks for a bike of a kind for a loan date and a duration package. The handler picks
// an Available asset of that kind that no open loan reserves and stores the loan as Pending.
// Two requests racing for the same asset are serialized by the store: the loser gets a
// concurrency conflict, retries with exponential backoff and picks the next free asset.
//
// The loan ID is part of the command, so re-sending the same command is an idempotent no-op.
package requestloan
