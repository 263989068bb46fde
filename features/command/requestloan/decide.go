package requestloan

import (
	"fmt"
	"strings"
	"time"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
)

// Validate checks the request independent of the fleet.
// today is the current calendar date in the facility zone.
func Validate(command Command, today time.Time) error {
	switch {
	case strings.TrimSpace(command.BorrowerID) == "":
		return fmt.Errorf("%w: borrower is missing", core.ErrInvalidLoanRequest)
	case strings.TrimSpace(command.AssetKind) == "":
		return fmt.Errorf("%w: asset kind is missing", core.ErrInvalidLoanRequest)
	case strings.TrimSpace(command.ContactPhone) == "":
		return fmt.Errorf("%w: contact phone is missing", core.ErrInvalidLoanRequest)
	case command.LoanDate.Before(today):
		return fmt.Errorf("%w: loan date %s is in the past", core.ErrInvalidLoanRequest, command.LoanDate.Format(time.DateOnly))
	}

	if _, err := core.ParseDurationKind(string(command.DurationKind)); err != nil {
		return err
	}

	return nil
}

// Decide builds the Pending loan for the picked asset.
func Decide(command Command, asset core.Asset, today time.Time) (core.Loan, error) {
	if err := Validate(command, today); err != nil {
		return core.Loan{}, err
	}

	if asset.Status != core.AssetAvailable {
		return core.Loan{}, fmt.Errorf("%w: %s is %s", core.ErrAssetUnavailable, asset.Serial, asset.Status)
	}

	dueDate, err := core.DueDateFor(command.LoanDate, command.DurationKind)
	if err != nil {
		return core.Loan{}, err
	}

	return core.Loan{
		ID:           command.LoanID,
		BorrowerID:   command.BorrowerID,
		AssetSerial:  asset.Serial,
		LoanDate:     command.LoanDate,
		DueDate:      dueDate,
		DurationKind: command.DurationKind,
		Status:       core.StatusPending,
		ContactPhone: strings.TrimSpace(command.ContactPhone),
		Attachments:  command.Attachments,
		CreatedAt:    command.OccurredAt,
		UpdatedAt:    command.OccurredAt,
	}, nil
}
