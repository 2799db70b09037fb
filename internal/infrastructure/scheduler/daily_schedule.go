package scheduler

import (
	"fmt"
	"time"
)

// DailySchedule runs a job once per day at a fixed wall-clock time in the
// scheduler's timezone. Used for the end-of-day low attendance scan, which
// should land after the last class slot.
type DailySchedule struct {
	Hour   int
	Minute int
}

// NewDailySchedule creates a schedule for hour:minute each day. Values
// outside the valid clock range are clamped.
func NewDailySchedule(hour, minute int) *DailySchedule {
	if hour < 0 {
		hour = 0
	}
	if hour > 23 {
		hour = 23
	}
	if minute < 0 {
		minute = 0
	}
	if minute > 59 {
		minute = 59
	}
	return &DailySchedule{Hour: hour, Minute: minute}
}

// Next returns the next occurrence of the configured wall-clock time
// strictly after t, in t's location.
func (s *DailySchedule) Next(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), t.Day(), s.Hour, s.Minute, 0, 0, t.Location())
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// String returns the string representation of the schedule.
func (s *DailySchedule) String() string {
	return fmt.Sprintf("@daily %02d:%02d", s.Hour, s.Minute)
}
