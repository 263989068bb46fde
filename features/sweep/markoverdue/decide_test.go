package markoverdue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/features/sweep/markoverdue"
)

func wib(day, hour, minute int) time.Time {
	return time.Date(2024, 6, day, hour, minute, 0, 0, core.FacilityLocation())
}

func date(day int) time.Time {
	return time.Date(2024, 6, day, 0, 0, 0, 0, time.UTC)
}

func Test_Decide(t *testing.T) {
	schedule := core.DefaultSchedule()

	testCases := []struct {
		name      string
		status    core.LoanStatus
		dueDate   time.Time
		now       time.Time
		expectNew bool
	}{
		{name: "weekday before closing", status: core.StatusActive, dueDate: date(4), now: wib(4, 15, 59), expectNew: false},
		{name: "weekday after closing", status: core.StatusActive, dueDate: date(4), now: wib(4, 16, 1), expectNew: true},
		{name: "saturday after noon", status: core.StatusActive, dueDate: date(8), now: wib(8, 12, 30), expectNew: true},
		{name: "due saturday, checked on sunday", status: core.StatusActive, dueDate: date(8), now: wib(9, 10, 0), expectNew: false},
		{name: "due saturday, checked on monday", status: core.StatusActive, dueDate: date(8), now: wib(10, 8, 0), expectNew: true},
		{name: "due sunday rolls to monday closing", status: core.StatusActive, dueDate: date(9), now: wib(10, 15, 0), expectNew: false},
		{name: "due sunday, monday after closing", status: core.StatusActive, dueDate: date(9), now: wib(10, 16, 30), expectNew: true},
		{name: "already overdue", status: core.StatusOverdue, dueDate: date(4), now: wib(20, 9, 0), expectNew: false},
		{name: "pending is never late", status: core.StatusPending, dueDate: date(4), now: wib(20, 9, 0), expectNew: false},
		{name: "completed is never late", status: core.StatusCompleted, dueDate: date(4), now: wib(20, 9, 0), expectNew: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := markoverdue.Decide(core.Loan{Status: tc.status, DueDate: tc.dueDate}, schedule, tc.now)

			assert.NoError(t, result.HasError())
			assert.Equal(t, tc.expectNew, result.HasTransitionToApply())
			if tc.expectNew {
				assert.Equal(t, core.StatusOverdue, result.Transition.To)
			}
		})
	}
}
