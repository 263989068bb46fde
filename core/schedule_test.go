package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
)

func facilityTime(t *testing.T, value string) time.Time {
	t.Helper()

	parsed, err := time.ParseInLocation("2006-01-02 15:04", value, core.FacilityLocation())
	require.NoError(t, err)

	return parsed
}

func dueDate(t *testing.T, value string) time.Time {
	t.Helper()

	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)

	return parsed
}

func Test_Schedule_IsLate_DueSaturday(t *testing.T) {
	// arrange
	schedule := core.DefaultSchedule()
	due := dueDate(t, "2024-06-08") // Saturday

	testCases := []struct {
		name     string
		now      string
		expected bool
	}{
		{name: "saturday before noon", now: "2024-06-08 11:59", expected: false},
		{name: "saturday after noon", now: "2024-06-08 12:01", expected: true},
		{name: "sunday morning", now: "2024-06-09 10:00", expected: false},
		{name: "monday 16:01", now: "2024-06-10 16:01", expected: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			late := schedule.IsLate(due, facilityTime(t, tc.now))

			// assert
			assert.Equal(t, tc.expected, late)
		})
	}
}

func Test_Schedule_IsLate_DueFriday(t *testing.T) {
	// arrange
	schedule := core.DefaultSchedule()
	due := dueDate(t, "2024-06-07") // Friday

	// act & assert
	assert.False(t, schedule.IsLate(due, facilityTime(t, "2024-06-07 15:59")), "15:59 is before closing")
	assert.False(t, schedule.IsLate(due, facilityTime(t, "2024-06-07 16:00")), "closing instant itself is not late")
	assert.True(t, schedule.IsLate(due, facilityTime(t, "2024-06-07 16:01")), "16:01 is after closing")
}

func Test_Schedule_Deadline_SundayRollsToMonday(t *testing.T) {
	// arrange
	schedule := core.DefaultSchedule()
	due := dueDate(t, "2024-06-09") // Sunday

	// act
	deadline := schedule.Deadline(due)

	// assert
	assert.True(t, deadline.Equal(facilityTime(t, "2024-06-10 16:00")), "got %s", deadline)
	assert.False(t, schedule.IsLate(due, facilityTime(t, "2024-06-10 15:00")))
	assert.True(t, schedule.IsLate(due, facilityTime(t, "2024-06-10 16:01")))
}

func Test_Schedule_IsLate_UsesFacilityZone(t *testing.T) {
	// arrange
	schedule := core.DefaultSchedule()
	due := dueDate(t, "2024-06-05") // Wednesday

	// 09:30 UTC is 16:30 WIB
	now := time.Date(2024, 6, 5, 9, 30, 0, 0, time.UTC)

	// act
	late := schedule.IsLate(due, now)

	// assert
	assert.True(t, late)
}

func Test_Schedule_IsLate_IsDeterministic(t *testing.T) {
	// arrange
	schedule := core.DefaultSchedule()
	due := dueDate(t, "2024-06-05")
	now := facilityTime(t, "2024-06-06 08:00")

	// act
	first := schedule.IsLate(due, now)
	second := schedule.IsLate(due, now)

	// assert
	assert.Equal(t, first, second)
	assert.True(t, first)
}

func Test_Schedule_DaysLate(t *testing.T) {
	// arrange
	schedule := core.DefaultSchedule()
	due := dueDate(t, "2024-06-03")

	// act & assert
	assert.Equal(t, 1, schedule.DaysLate(due, facilityTime(t, "2024-06-03 16:30")), "minimum is one day")
	assert.Equal(t, 3, schedule.DaysLate(due, facilityTime(t, "2024-06-06 09:00")))
}

func Test_NewSchedule_Validation(t *testing.T) {
	// act
	_, errNoDay := core.NewSchedule(nil, nil)
	_, errBadHour := core.NewSchedule(nil, map[time.Weekday]core.ClosingTime{time.Monday: {Hour: 25}})
	custom, errOK := core.NewSchedule(nil, map[time.Weekday]core.ClosingTime{time.Monday: {Hour: 9, Minute: 30}})

	// assert
	assert.ErrorIs(t, errNoDay, core.ErrNoOpenDay)
	assert.ErrorIs(t, errBadHour, core.ErrInvalidClosingTime)
	require.NoError(t, errOK)
	assert.True(t, custom.Deadline(dueDate(t, "2024-06-05")).Equal(facilityTime(t, "2024-06-10 09:30")),
		"wednesday rolls to the next monday")
}

func Test_ParseClosingTime(t *testing.T) {
	// act
	closing, err := core.ParseClosingTime("12:00")
	_, errInvalid := core.ParseClosingTime("noon")

	// assert
	require.NoError(t, err)
	assert.Equal(t, core.ClosingTime{Hour: 12}, closing)
	assert.Equal(t, "12:00", closing.String())
	assert.ErrorIs(t, errInvalid, core.ErrInvalidClosingTime)
}
