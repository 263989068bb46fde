package borrowerloans

import (
	"cmp"
	"slices"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
)

const dateLayout = "2006-01-02"

// Project builds the history, newest loan first.
func Project(borrowerID core.BorrowerIDString, loans []core.Loan) BorrowerLoans {
	result := BorrowerLoans{
		BorrowerID: borrowerID,
		Loans:      make([]LoanSummary, 0, len(loans)),
	}

	for _, loan := range loans {
		result.Loans = append(result.Loans, LoanSummary{
			LoanID:      loan.ID,
			AssetSerial: loan.AssetSerial,
			Status:      loan.Status.String(),
			LoanDate:    loan.LoanDate.Format(dateLayout),
			DueDate:     loan.DueDate.Format(dateLayout),
			CreatedAt:   loan.CreatedAt,
		})

		if loan.Status.IsOpen() {
			result.OpenCount++
		}
	}

	slices.SortStableFunc(result.Loans, func(a, b LoanSummary) int {
		if byDate := cmp.Compare(b.LoanDate, a.LoanDate); byDate != 0 {
			return byDate
		}

		return b.CreatedAt.Compare(a.CreatedAt)
	})

	result.Count = len(result.Loans)

	return result
}
