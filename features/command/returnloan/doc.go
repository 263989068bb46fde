// Package returnloan implements the Return Loan use case.
//
// The borrower scans the return token shown at the facility. The token must decode to the serial
// of the loan's asset, otherwise the return is refused and the loan stays unchanged. A verified
// return completes an Active or Overdue loan, releases the asset and purges the attachments.
package returnloan
