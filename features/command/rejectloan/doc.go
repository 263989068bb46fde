// Package rejectloan implements the Reject Loan use case.
//
// An admin rejects a Pending loan. The asset reservation ends with it: the asset goes back to
// Available unless it was put under maintenance in the meantime.
package rejectloan
