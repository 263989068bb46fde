package returnloan

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/identity"
)

const (
	commandType = "ReturnLoan"
)

// Command represents the intent to return a borrowed bike by presenting a return token.
type Command struct {
	LoanID      uuid.UUID
	Actor       identity.Actor
	ReturnToken string
	OccurredAt  core.OccurredAt
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(loanID uuid.UUID, actor identity.Actor, returnToken string, occurredAt time.Time) Command {
	return Command{
		LoanID:      loanID,
		Actor:       actor,
		ReturnToken: returnToken,
		OccurredAt:  core.ToOccurredAt(occurredAt),
	}
}
