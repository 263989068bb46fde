package requestloan

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/identity"
)

const (
	commandType = "RequestLoan"
)

// Command represents the intent of a borrower to borrow a bike of a kind.
type Command struct {
	LoanID       uuid.UUID
	Actor        identity.Actor
	BorrowerID   core.BorrowerIDString
	AssetKind    string
	LoanDate     time.Time
	DurationKind core.DurationKind
	ContactPhone string
	Attachments  []string
	OccurredAt   core.OccurredAt
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(
	loanID uuid.UUID,
	actor identity.Actor,
	borrowerID core.BorrowerIDString,
	assetKind string,
	loanDate time.Time,
	durationKind core.DurationKind,
	contactPhone string,
	attachments []string,
	occurredAt time.Time,
) Command {
	return Command{
		LoanID:       loanID,
		Actor:        actor,
		BorrowerID:   borrowerID,
		AssetKind:    assetKind,
		LoanDate:     core.ToDate(loanDate),
		DurationKind: durationKind,
		ContactPhone: contactPhone,
		Attachments:  attachments,
		OccurredAt:   core.ToOccurredAt(occurredAt),
	}
}
