package markoverdue

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
)

const (
	commandType = "MarkLoanOverdue"
)

// Command asks to mark a loan Overdue if it is late at Now.
type Command struct {
	LoanID uuid.UUID
	Now    core.OccurredAt
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(loanID uuid.UUID, now time.Time) Command {
	return Command{
		LoanID: loanID,
		Now:    core.ToOccurredAt(now),
	}
}
