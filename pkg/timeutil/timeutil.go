// Package timeutil provides timezone utilities for Indian Standard Time
// (UTC+5:30). The attendance core anchors "today", week boundaries and
// trailing windows to IST because all institute branches operate there.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// InstituteTZ is the institute's operating timezone (IST, UTC+5:30, no DST).
var InstituteTZ = time.FixedZone("Asia/Kolkata", 5*60*60+30*60)

// Now returns the current time in the institute timezone.
func Now() time.Time {
	return time.Now().In(InstituteTZ)
}

// ToInstitute converts a time to the institute timezone.
func ToInstitute(t time.Time) time.Time {
	return t.In(InstituteTZ)
}

// ToUTC converts a time to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// Date creates a midnight time in the institute timezone.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, InstituteTZ)
}

// DateTime creates a time in the institute timezone with the given clock.
func DateTime(year, month, day, hour, min, sec int) time.Time {
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, InstituteTZ)
}

// StartOfDay returns the start of the day (00:00:00) in institute time.
func StartOfDay(t time.Time) time.Time {
	local := ToInstitute(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, InstituteTZ)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in institute time.
func EndOfDay(t time.Time) time.Time {
	local := ToInstitute(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 999999999, InstituteTZ)
}

// StartOfWeek returns Monday 00:00:00 of the week containing t.
func StartOfWeek(t time.Time) time.Time {
	local := ToInstitute(t)
	weekday := int(local.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return StartOfDay(local.AddDate(0, 0, -(weekday - 1)))
}

// EndOfWeek returns Sunday 23:59:59 of the week containing t.
func EndOfWeek(t time.Time) time.Time {
	return EndOfDay(StartOfWeek(t).AddDate(0, 0, 6))
}

// StartOfMonth returns the first day of the month at 00:00:00.
func StartOfMonth(t time.Time) time.Time {
	local := ToInstitute(t)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, InstituteTZ)
}

// EndOfMonth returns the last instant of the month.
func EndOfMonth(t time.Time) time.Time {
	return EndOfDay(StartOfMonth(t).AddDate(0, 1, -1))
}

// IsToday checks if the given time falls on today's institute-time date.
func IsToday(t time.Time) bool {
	now := Now()
	local := ToInstitute(t)
	return local.Year() == now.Year() &&
		local.Month() == now.Month() &&
		local.Day() == now.Day()
}

// DaysSince counts whole institute-time days between t and now.
func DaysSince(t time.Time) int {
	now := StartOfDay(Now())
	then := StartOfDay(t)
	return int(now.Sub(then).Hours() / 24)
}

// Class hours for the institute. Sessions are only ever scheduled inside
// this band; the marking UI treats anything outside it as a data problem.
const (
	// ClassDayStart is when the first batch can begin (7:00 AM).
	ClassDayStart = 7
	// ClassDayEnd is when the last batch must end (10:00 PM).
	ClassDayEnd = 22
)

// IsClassHours checks if the given time is within teaching hours.
func IsClassHours(t time.Time) bool {
	hour := ToInstitute(t).Hour()
	return hour >= ClassDayStart && hour < ClassDayEnd
}

// IsSunday checks if the given time is on a Sunday, the institute's
// weekly holiday.
func IsSunday(t time.Time) bool {
	return ToInstitute(t).Weekday() == time.Sunday
}

// NextClassDay returns the next day classes run (skipping Sundays).
func NextClassDay(t time.Time) time.Time {
	next := ToInstitute(t).AddDate(0, 0, 1)
	for IsSunday(next) {
		next = next.AddDate(0, 0, 1)
	}
	return StartOfDay(next)
}

// FormatDate formats a time as an ISO calendar date in institute time.
func FormatDate(t time.Time) string {
	return ToInstitute(t).Format("2006-01-02")
}

// FormatTime formats a time as HH:MM in institute time.
func FormatTime(t time.Time) string {
	return ToInstitute(t).Format("15:04")
}

// FormatDateTime formats a full timestamp in institute time.
func FormatDateTime(t time.Time) string {
	return ToInstitute(t).Format("2006-01-02 15:04:05")
}

// HumanizeDuration renders a duration like "2h 15m" for display.
func HumanizeDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
