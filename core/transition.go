package core

import "fmt"

// LoanEvent is something that happens to a loan and may move it to another status.
type LoanEvent string

const (
	EventApprove     LoanEvent = "approve"
	EventReject      LoanEvent = "reject"
	EventCancel      LoanEvent = "cancel"
	EventMarkOverdue LoanEvent = "mark_overdue"
	EventReturn      LoanEvent = "verified_return"
)

// AssetEffect is the asset write paired with a loan transition.
type AssetEffect int

const (
	// AssetEffectNone leaves the asset untouched.
	AssetEffectNone AssetEffect = iota

	// AssetEffectBorrow moves the asset from Available to Borrowed and fails for any other status.
	AssetEffectBorrow

	// AssetEffectRelease moves the asset back to Available unless it is under maintenance.
	AssetEffectRelease
)

// String returns a label for logs.
func (e AssetEffect) String() string {
	switch e {
	case AssetEffectBorrow:
		return "borrow"
	case AssetEffectRelease:
		return "release"
	default:
		return "none"
	}
}

// Transition is one row of the loan state machine.
type Transition struct {
	From             LoanStatus
	Event            LoanEvent
	To               LoanStatus
	AssetEffect      AssetEffect
	PurgeAttachments bool
}

// IsZero reports whether t is the empty transition carried by non-success decisions.
func (t Transition) IsZero() bool {
	return t == Transition{}
}

var transitionTable = []Transition{
	{From: StatusPending, Event: EventApprove, To: StatusActive, AssetEffect: AssetEffectBorrow},
	{From: StatusPending, Event: EventReject, To: StatusRejected, AssetEffect: AssetEffectRelease},
	{From: StatusPending, Event: EventCancel, To: StatusCancelled, AssetEffect: AssetEffectRelease, PurgeAttachments: true},
	{From: StatusActive, Event: EventMarkOverdue, To: StatusOverdue, AssetEffect: AssetEffectNone},
	{From: StatusActive, Event: EventReturn, To: StatusCompleted, AssetEffect: AssetEffectRelease, PurgeAttachments: true},
	{From: StatusOverdue, Event: EventReturn, To: StatusCompleted, AssetEffect: AssetEffectRelease, PurgeAttachments: true},
}

// LookupTransition is the single authority on legal status changes.
func LookupTransition(from LoanStatus, event LoanEvent) (Transition, error) {
	for _, t := range transitionTable {
		if t.From == from && t.Event == event {
			return t, nil
		}
	}

	return Transition{}, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, event, from)
}

// Transitions returns a copy of the whole table.
func Transitions() []Transition {
	out := make([]Transition, len(transitionTable))
	copy(out, transitionTable)

	return out
}

// TargetStatus returns the status an event leads to. Every event has exactly one target.
func (e LoanEvent) TargetStatus() LoanStatus {
	for _, t := range transitionTable {
		if t.Event == e {
			return t.To
		}
	}

	return 0
}

// DecideTransition applies the table to the current status.
// Re-issuing the event that produced the current status is idempotent.
func DecideTransition(current LoanStatus, event LoanEvent) DecisionResult {
	if current == event.TargetStatus() {
		return IdempotentDecision()
	}

	t, err := LookupTransition(current, event)
	if err != nil {
		return ErrorDecision(err)
	}

	return SuccessDecision(t)
}
