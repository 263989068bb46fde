package loandetail

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
)

// AssetInfo describes the borrowed bike.
type AssetInfo struct {
	Serial core.AssetSerialString `json:"serial"`
	Brand  string                 `json:"brand"`
	Kind   string                 `json:"kind"`
	Status core.AssetStatus       `json:"status"`
}

// LoanDetail is the query result.
type LoanDetail struct {
	LoanID           uuid.UUID             `json:"loanId"`
	BorrowerID       core.BorrowerIDString `json:"borrowerId"`
	Status           string                `json:"status"`
	LoanDate         string                `json:"loanDate"`
	DueDate          string                `json:"dueDate"`
	ReturnDeadline   time.Time             `json:"returnDeadline"`
	DurationKind     core.DurationKind     `json:"durationKind"`
	DaysLate         int                   `json:"daysLate"`
	NotificationSent bool                  `json:"notificationSent"`
	ContactPhone     string                `json:"contactPhone"`
	Attachments      []string              `json:"attachments"`
	Asset            AssetInfo             `json:"asset"`
	UpdatedAt        time.Time             `json:"updatedAt"`
}
