package latenotice_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/notify/latenotice"
)

func Test_BuildNotice(t *testing.T) {
	loan := core.Loan{
		LoanDate: time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC),
		DueDate:  time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC),
	}
	asset := core.Asset{Serial: "BK-2023-001", Brand: "Polygon", Kind: "Mountain Bike"}
	borrower := core.Borrower{ID: "b-1", Name: "Mahasiswa IPB", Email: "mhs@apps.example.org"}

	// friday 17 May counts, monday 20 May 09:00 WIB is three whole days later
	now := time.Date(2024, 5, 20, 9, 0, 0, 0, core.FacilityLocation())

	notice := latenotice.BuildNotice(loan, asset, borrower, core.DefaultSchedule(), now)

	assert.Equal(t, "15 May 2024", notice.LoanDate)
	assert.Equal(t, "17 May 2024", notice.DueDate)
	assert.Equal(t, 3, notice.DaysLate)
	assert.Equal(t, "mhs@apps.example.org", notice.Email)
}

func Test_Notice_Compose_EscapesBorrowerInput(t *testing.T) {
	notice := latenotice.Notice{
		BorrowerName: "<script>alert(1)</script>",
		Email:        "b@apps.example.org",
		Serial:       "BK-001",
		DaysLate:     1,
		ContactEmail: "bikecenter@apps.example.org",
	}

	msg, err := notice.Compose()

	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, "&lt;script&gt;")
	assert.Contains(t, msg.HTML, "mailto:bikecenter@apps.example.org")
	assert.NoError(t, msg.Validate())
}
