package core

import (
	"errors"
	"fmt"
	"time"
)

const (
	facilityZoneName   = "WIB"
	facilityUTCOffset  = 7 * 60 * 60
	hoursPerDay        = 24
	daysPerWeek        = 7
	defaultWeekdayHour = 16
	defaultSaturday    = 12
)

var (
	// ErrNoOpenDay is returned when a schedule would never close, so no deadline could be computed.
	ErrNoOpenDay = errors.New("schedule must have at least one open day")

	// ErrInvalidClosingTime is returned for hours or minutes outside a day.
	ErrInvalidClosingTime = errors.New("closing time must be within the day")
)

// ClosingTime is the local wall-clock time at which the facility stops accepting returns.
type ClosingTime struct {
	Hour   int
	Minute int
}

// ParseClosingTime parses "HH:MM".
func ParseClosingTime(s string) (ClosingTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClosingTime{}, errors.Join(ErrInvalidClosingTime, err)
	}

	return ClosingTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// String renders "HH:MM".
func (c ClosingTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// FacilityLocation is the fixed UTC+7 zone the bike center operates in.
func FacilityLocation() *time.Location {
	return time.FixedZone(facilityZoneName, facilityUTCOffset)
}

// Schedule is the weekly operating schedule. A weekday without a closing time is closed all day.
type Schedule struct {
	location *time.Location
	closing  map[time.Weekday]ClosingTime
}

// NewSchedule validates and builds a schedule.
func NewSchedule(location *time.Location, closing map[time.Weekday]ClosingTime) (Schedule, error) {
	if location == nil {
		location = FacilityLocation()
	}

	if len(closing) == 0 {
		return Schedule{}, ErrNoOpenDay
	}

	cp := make(map[time.Weekday]ClosingTime, len(closing))
	for day, c := range closing {
		if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 {
			return Schedule{}, fmt.Errorf("%w: %s %s", ErrInvalidClosingTime, day, c)
		}
		cp[day] = c
	}

	return Schedule{location: location, closing: cp}, nil
}

// DefaultSchedule closes at 16:00 Monday to Friday, at 12:00 on Saturday and stays closed on Sunday.
func DefaultSchedule() Schedule {
	weekday := ClosingTime{Hour: defaultWeekdayHour}

	return Schedule{
		location: FacilityLocation(),
		closing: map[time.Weekday]ClosingTime{
			time.Monday:    weekday,
			time.Tuesday:   weekday,
			time.Wednesday: weekday,
			time.Thursday:  weekday,
			time.Friday:    weekday,
			time.Saturday:  {Hour: defaultSaturday},
		},
	}
}

// Location returns the facility's time zone.
func (s Schedule) Location() *time.Location {
	return s.location
}

// IsOpenDay reports whether the facility opens on the given weekday.
func (s Schedule) IsOpenDay(day time.Weekday) bool {
	_, ok := s.closing[day]
	return ok
}

// Deadline returns the closing instant of the due date.
// A due date on a closed day rolls forward to the next open day's closing instant.
func (s Schedule) Deadline(dueDate time.Time) time.Time {
	y, m, d := dueDate.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, s.location)

	for range daysPerWeek {
		if c, ok := s.closing[day.Weekday()]; ok {
			return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, s.location)
		}

		day = day.AddDate(0, 0, 1)
	}

	// only reachable for a schedule without open days, which NewSchedule refuses
	return day
}

// IsLate reports whether a loan due on dueDate is late at now.
// Closed days never count toward lateness, so now must also fall on an open day.
func (s Schedule) IsLate(dueDate, now time.Time) bool {
	if !now.After(s.Deadline(dueDate)) {
		return false
	}

	return s.IsOpenDay(now.In(s.location).Weekday())
}

// DaysLate returns the number of whole days between the start of the due date and now, at least 1.
func (s Schedule) DaysLate(dueDate, now time.Time) int {
	y, m, d := dueDate.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, s.location)

	days := int(now.Sub(start).Hours() / hoursPerDay)
	if days < 1 {
		return 1
	}

	return days
}
