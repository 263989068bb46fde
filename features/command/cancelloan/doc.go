// Package cancelloan implements the Cancel Loan use case.
//
// A borrower withdraws their own Pending loan request. The asset is released and the submitted
// attachments are purged once the cancellation committed.
package cancelloan
