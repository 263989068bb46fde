package changefeed

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
)

// Channel is the notification channel the loan_status_changed trigger publishes on.
const Channel = "loan_overdue"

// ErrMalformedPayload is returned for notifications that do not carry a loan status change.
var ErrMalformedPayload = errors.New("malformed change feed payload")

type payload struct {
	LoanID string `json:"loan_id"`
	Status int    `json:"status"`
}

// ParsePayload decodes the JSON payload of a loan_overdue notification.
func ParsePayload(raw string) (loanstore.StatusChange, error) {
	var p payload
	if err := jsoniter.ConfigFastest.UnmarshalFromString(raw, &p); err != nil {
		return loanstore.StatusChange{}, errors.Join(ErrMalformedPayload, err)
	}

	loanID, err := uuid.Parse(p.LoanID)
	if err != nil {
		return loanstore.StatusChange{}, errors.Join(ErrMalformedPayload, err)
	}

	status := core.LoanStatus(p.Status)
	if !status.IsValid() {
		return loanstore.StatusChange{}, fmt.Errorf("%w: unknown status %d", ErrMalformedPayload, p.Status)
	}

	return loanstore.StatusChange{LoanID: loanID, Status: status}, nil
}
