package borrowerloans

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
)

// LoanSummary is one row of the history.
type LoanSummary struct {
	LoanID      uuid.UUID              `json:"loanId"`
	AssetSerial core.AssetSerialString `json:"assetSerial"`
	Status      string                 `json:"status"`
	LoanDate    string                 `json:"loanDate"`
	DueDate     string                 `json:"dueDate"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// BorrowerLoans is the query result.
type BorrowerLoans struct {
	BorrowerID core.BorrowerIDString `json:"borrowerId"`
	Loans      []LoanSummary         `json:"loans"`
	Count      int                   `json:"count"`
	OpenCount  int                   `json:"openCount"`
}
