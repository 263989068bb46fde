// Package markoverdue implements the overdue sweep.
//
// A loan is late once the facility closed on its due date (a due date on a closed day rolls
// forward to the next open day) and the current day is an open day. The CommandHandler moves one
// late Active loan to Overdue and hands it to the late notice dispatcher. The Sweeper runs the
// handler over every Active loan; the loan detail view runs it lazily for the loan it shows.
//
// Both drivers are idempotent: a loan already Overdue, no longer Active or not yet late is left alone.
package markoverdue
