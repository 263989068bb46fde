package core

import (
	"time"
)

// Instead of implementing full value objects, I'm using some alias types and helper methods here ...

// BorrowerIDString represents a borrower identifier owned by the identity subsystem
type BorrowerIDString = string

// AssetSerialString represents the unique serial number painted on a bike
type AssetSerialString = string

// OccurredAt represents when a transition happened
type OccurredAt = time.Time

// ToOccurredAt converts a time to OccurredAt with UTC normalization and microsecond precision
func ToOccurredAt(t time.Time) OccurredAt {
	return t.UTC().Truncate(time.Microsecond)
}

// ToDate strips the clock part and returns the calendar date of t at 00:00 UTC.
// The calendar date is taken in t's own location.
func ToDate(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
