package core

import "errors"

var (
	// ErrInvalidTransition is returned when an event is not legal from the loan's current status.
	ErrInvalidTransition = errors.New("invalid loan transition")

	// ErrInvalidReturnToken is returned when a scanned return token does not belong to the loan's asset.
	ErrInvalidReturnToken = errors.New("invalid return token")

	// ErrNotificationDeliveryFailed is returned when the mail provider refused a late notice.
	ErrNotificationDeliveryFailed = errors.New("late notice delivery failed")

	// ErrLoanNotFound is returned when no loan exists for an ID.
	ErrLoanNotFound = errors.New("loan not found")

	// ErrAssetNotFound is returned when no asset exists for a serial.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrBorrowerNotFound is returned when the identity subsystem has no contact for a borrower.
	ErrBorrowerNotFound = errors.New("borrower not found")

	// ErrAssetUnavailable is returned when an approval finds the asset not Available.
	ErrAssetUnavailable = errors.New("asset is not available")

	// ErrNoAssetAvailable is returned when a loan request finds no free asset of the requested kind.
	ErrNoAssetAvailable = errors.New("no asset of the requested kind is available")

	// ErrInvalidLoanRequest is returned for malformed loan requests.
	ErrInvalidLoanRequest = errors.New("invalid loan request")

	// ErrNotAuthorized is returned when the actor may not perform an operation.
	ErrNotAuthorized = errors.New("actor is not authorized")
)
