package core

// DecisionResult represents the outcome of a business decision in a Decide function.
//
// IMPORTANT: DecisionResult should only be constructed using the provided factory methods:
// IdempotentDecision(), SuccessDecision(transition), or ErrorDecision(err).
type DecisionResult struct {
	Outcome    string     // "idempotent", "success", or "error"
	Transition Transition // zero for idempotent and error decisions
	Err        error
}

const (
	idempotentOutcome = "idempotent"
	successOutcome    = "success"
	errorOutcome      = "error"
)

// IdempotentDecision creates a DecisionResult indicating no state change is needed.
func IdempotentDecision() DecisionResult {
	return DecisionResult{
		Outcome: idempotentOutcome,
	}
}

// SuccessDecision creates a DecisionResult carrying the transition to apply.
func SuccessDecision(transition Transition) DecisionResult {
	return DecisionResult{
		Outcome:    successOutcome,
		Transition: transition,
	}
}

// ErrorDecision creates a DecisionResult indicating a business rule violation.
// Nothing is written for error decisions.
func ErrorDecision(err error) DecisionResult {
	return DecisionResult{
		Outcome: errorOutcome,
		Err:     err,
	}
}

// HasTransitionToApply returns true if the loan must be written.
func (r DecisionResult) HasTransitionToApply() bool {
	return r.Outcome == successOutcome
}

// IsIdempotent returns true if the loan is already where the command wants it.
func (r DecisionResult) IsIdempotent() bool {
	return r.Outcome == idempotentOutcome
}

// HasError returns the error if there is one, otherwise nil.
func (r DecisionResult) HasError() error {
	if r.Outcome == errorOutcome {
		return r.Err
	}

	return nil
}
