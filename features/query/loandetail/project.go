package loandetail

import (
	"time"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
)

const dateLayout = "2006-01-02"

// Project builds the detail view. DaysLate is only filled for Overdue loans.
func Project(loan core.Loan, asset core.Asset, schedule core.Schedule, now time.Time) LoanDetail {
	detail := LoanDetail{
		LoanID:           loan.ID,
		BorrowerID:       loan.BorrowerID,
		Status:           loan.Status.String(),
		LoanDate:         loan.LoanDate.Format(dateLayout),
		DueDate:          loan.DueDate.Format(dateLayout),
		ReturnDeadline:   schedule.Deadline(loan.DueDate),
		DurationKind:     loan.DurationKind,
		NotificationSent: loan.NotificationSent,
		ContactPhone:     loan.ContactPhone,
		Attachments:      append([]string{}, loan.Attachments...),
		Asset: AssetInfo{
			Serial: asset.Serial,
			Brand:  asset.Brand,
			Kind:   asset.Kind,
			Status: asset.Status,
		},
		UpdatedAt: loan.UpdatedAt,
	}

	if loan.Status == core.StatusOverdue {
		detail.DaysLate = schedule.DaysLate(loan.DueDate, now)
	}

	return detail
}
