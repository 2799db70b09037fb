// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// SessionID represents a unique class session identifier. The server issues
// these as opaque strings; the core never interprets them.
type SessionID string

// IsValid checks that the session ID is non-empty and has no whitespace.
func (s SessionID) IsValid() bool {
	v := string(s)
	return len(v) > 0 && len(v) <= 64 && !strings.ContainsAny(v, " \t\n\r")
}

// String returns the string representation.
func (s SessionID) String() string {
	return string(s)
}

// NewSessionID creates a new SessionID with validation.
func NewSessionID(id string) (SessionID, error) {
	sid := SessionID(strings.TrimSpace(id))
	if !sid.IsValid() {
		return "", NewDomainError("shared", "NewSessionID", ErrInvalidID, "invalid session ID")
	}
	return sid, nil
}

// StudentID represents a unique student identifier.
type StudentID string

// IsValid checks that the student ID is non-empty and has no whitespace.
func (s StudentID) IsValid() bool {
	v := string(s)
	return len(v) > 0 && len(v) <= 64 && !strings.ContainsAny(v, " \t\n\r")
}

// String returns the string representation.
func (s StudentID) String() string {
	return string(s)
}

// IsEmpty checks if the ID is empty.
func (s StudentID) IsEmpty() bool {
	return s == ""
}

// NewStudentID creates a new StudentID with validation.
func NewStudentID(id string) (StudentID, error) {
	sid := StudentID(strings.TrimSpace(id))
	if !sid.IsValid() {
		return "", NewDomainError("shared", "NewStudentID", ErrInvalidID, "invalid student ID")
	}
	return sid, nil
}

// Batch represents a student batch/cohort tag (e.g., "jee-2026-a").
type Batch string

// Batch format: lowercase slug segments.
var batchRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// BatchAll means no batch filter.
const BatchAll Batch = ""

// IsValid checks the batch tag format.
func (b Batch) IsValid() bool {
	if b == BatchAll {
		return true
	}
	s := string(b)
	return len(s) >= 2 && len(s) <= 40 && batchRegex.MatchString(s)
}

// String returns the string representation.
func (b Batch) String() string {
	if b == BatchAll {
		return "all"
	}
	return string(b)
}

// IsFiltered returns true if this is a filter for a specific batch.
func (b Batch) IsFiltered() bool {
	return b != BatchAll
}

// ═══════════════════════════════════════════════════════════════════════════
// Attendance Status Value Object
// ═══════════════════════════════════════════════════════════════════════════

// AttendanceStatus is the outcome recorded for one student in one session.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "present"
	StatusAbsent  AttendanceStatus = "absent"
	StatusLate    AttendanceStatus = "late"
	StatusExcused AttendanceStatus = "excused"
)

// IsValid checks that the status is one of the four supported values.
func (s AttendanceStatus) IsValid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s AttendanceStatus) String() string {
	return string(s)
}

// CountsAsPresent reports whether the status contributes to the attendance
// rate numerator. Only present counts; late and excused stay out of the
// numerator, matching the server's official statistics.
func (s AttendanceStatus) CountsAsPresent() bool {
	return s == StatusPresent
}

// ParseAttendanceStatus parses a status string, case-insensitively.
func ParseAttendanceStatus(v string) (AttendanceStatus, error) {
	s := AttendanceStatus(strings.ToLower(strings.TrimSpace(v)))
	if !s.IsValid() {
		return "", NewDomainError("shared", "ParseAttendanceStatus", ErrValidation,
			fmt.Sprintf("unknown attendance status %q", v))
	}
	return s, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Date Value Object (calendar day, no time component)
// ═══════════════════════════════════════════════════════════════════════════

// Date is a calendar day. It is comparable and usable as a map key, which
// the trend computation relies on when bucketing records by day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateLayout is the wire format for dates.
const DateLayout = "2006-01-02"

// DateOf truncates a time to its calendar day in the time's location.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// ParseDate parses a date in "2006-01-02" format.
func ParseDate(v string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(v))
	if err != nil {
		return Date{}, WrapError("shared", "ParseDate", ErrInvalidFormat, "expected YYYY-MM-DD", err)
	}
	return DateOf(t), nil
}

// IsZero reports whether the date is the zero value.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Time returns the start of the day in the given location.
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns the date shifted by n calendar days (n may be negative).
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time(time.UTC).AddDate(0, 0, n))
}

// Before reports whether d is before other.
func (d Date) Before(other Date) bool {
	return d.Time(time.UTC).Before(other.Time(time.UTC))
}

// After reports whether d is after other.
func (d Date) After(other Date) bool {
	return other.Before(d)
}

// Weekday returns the day of the week.
func (d Date) Weekday() time.Weekday {
	return d.Time(time.UTC).Weekday()
}

// String returns the date in "2006-01-02" format.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// DateRange represents an inclusive range of calendar days.
type DateRange struct {
	From Date
	To   Date
}

// IsValid checks that both bounds are set and ordered.
func (r DateRange) IsValid() bool {
	return !r.From.IsZero() && !r.To.IsZero() && !r.From.After(r.To)
}

// Contains checks if a date falls within the range.
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.From) && !d.After(r.To)
}

// DayCount returns the number of days in the range, inclusive.
func (r DateRange) DayCount() int {
	if !r.IsValid() {
		return 0
	}
	return int(r.To.Time(time.UTC).Sub(r.From.Time(time.UTC)).Hours()/24) + 1
}

// Days returns every day in the range in chronological order. Charts built
// on this never silently drop a day even when it had no classes.
func (r DateRange) Days() []Date {
	if !r.IsValid() {
		return nil
	}
	days := make([]Date, 0, r.DayCount())
	for d := r.From; !d.After(r.To); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// NewDateRange creates a DateRange with validation.
func NewDateRange(from, to Date) (DateRange, error) {
	r := DateRange{From: from, To: to}
	if !r.IsValid() {
		return DateRange{}, NewDomainError("shared", "NewDateRange", ErrInvalidInput, "'from' must not be after 'to'")
	}
	return r, nil
}

// LastNDays returns the range ending at the given day, spanning n days.
func LastNDays(end Date, n int) DateRange {
	if n < 1 {
		n = 1
	}
	return DateRange{From: end.AddDays(-(n - 1)), To: end}
}

// ═══════════════════════════════════════════════════════════════════════════
// Time-of-day Value Object (session start/end times)
// ═══════════════════════════════════════════════════════════════════════════

// TimeOfDay is a wall-clock time within a day, minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "15:04" format.
func ParseTimeOfDay(v string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(v))
	if err != nil {
		return TimeOfDay{}, WrapError("shared", "ParseTimeOfDay", ErrInvalidFormat, "expected HH:MM", err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// IsValid checks the time is within a day.
func (t TimeOfDay) IsValid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

// Minutes returns minutes since midnight, used for ordering.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Before reports whether t is earlier in the day than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.Minutes() < other.Minutes()
}

// String returns the time in "15:04" format.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}
