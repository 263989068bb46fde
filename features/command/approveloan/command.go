package approveloan

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/shell/identity"
)

const (
	commandType = "ApproveLoan"
)

// Command represents the intent of an admin to approve a loan request.
type Command struct {
	LoanID     uuid.UUID
	Actor      identity.Actor
	OccurredAt core.OccurredAt
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(loanID uuid.UUID, actor identity.Actor, occurredAt time.Time) Command {
	return Command{
		LoanID:     loanID,
		Actor:      actor,
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}
