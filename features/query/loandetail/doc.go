// Package loandetail implements the Loan Detail query use case.
//
// Reading a loan also runs the overdue check for it: an Active loan past its deadline is moved to
// Overdue before the detail is returned, so a borrower never sees a stale Active status.
package loandetail
