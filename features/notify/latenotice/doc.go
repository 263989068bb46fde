// Package latenotice sends the late notice of an Overdue loan at most once.
//
// A dispatcher claims the loan with a short lease before sending, so concurrent triggers
// (the overdue sweep, the change feed and the periodic notification sweep) cannot send twice.
// When delivery fails the claim is released and the notified flag stays false, so the next
// notification sweep picks the loan up again.
package latenotice
