// Package session contains the class-session domain model: one scheduled
// teaching slot, its enrolled roster and its derived attendance summary.
// Sessions are created by the external scheduling subsystem; this core only
// reads them and writes summary counts back after a successful marking
// submission.
package session

import (
	"fmt"
	"time"

	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROSTER
// ══════════════════════════════════════════════════════════════════════════════

// RosterEntry is one enrolled student on a session's roster. CurrentStatus
// is nil until attendance has been marked for the student at least once.
type RosterEntry struct {
	StudentID     shared.StudentID
	DisplayName   string
	CurrentStatus *shared.AttendanceStatus
}

// IsMarked reports whether the student already has a recorded status.
func (r RosterEntry) IsMarked() bool {
	return r.CurrentStatus != nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SUMMARY
// ══════════════════════════════════════════════════════════════════════════════

// Summary holds the derived per-status counts for one session. Excused is
// stored explicitly so that Present+Absent+Late+Excused always equals the
// roster size after a successful submit.
type Summary struct {
	Present int
	Absent  int
	Late    int
	Excused int
}

// Total returns the number of counted decisions.
func (s Summary) Total() int {
	return s.Present + s.Absent + s.Late + s.Excused
}

// Count returns the count for a single status.
func (s Summary) Count(status shared.AttendanceStatus) int {
	switch status {
	case shared.StatusPresent:
		return s.Present
	case shared.StatusAbsent:
		return s.Absent
	case shared.StatusLate:
		return s.Late
	case shared.StatusExcused:
		return s.Excused
	default:
		return 0
	}
}

// Add increments the count for a status.
func (s *Summary) Add(status shared.AttendanceStatus) {
	switch status {
	case shared.StatusPresent:
		s.Present++
	case shared.StatusAbsent:
		s.Absent++
	case shared.StatusLate:
		s.Late++
	case shared.StatusExcused:
		s.Excused++
	}
}

// String returns a compact representation for logging.
func (s Summary) String() string {
	return fmt.Sprintf("Summary{P:%d A:%d L:%d E:%d}", s.Present, s.Absent, s.Late, s.Excused)
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: CLASS SESSION
// ══════════════════════════════════════════════════════════════════════════════

// Teacher identifies the assigned teacher for display purposes.
type Teacher struct {
	ID          string
	DisplayName string
}

// ClassSession is one scheduled teaching slot for which attendance may be
// marked.
type ClassSession struct {
	// ID is the opaque identifier issued by the scheduling subsystem.
	ID shared.SessionID

	// Subject and Topic describe what is being taught.
	Subject string
	Topic   string

	// Batch is the cohort tag the session belongs to.
	Batch shared.Batch

	// Date is the calendar day of the session, no time component.
	Date shared.Date

	// StartTime and EndTime bound the slot within the day.
	StartTime shared.TimeOfDay
	EndTime   shared.TimeOfDay

	// Venue is the room or hall.
	Venue string

	// Teacher is the assigned teacher.
	Teacher Teacher

	// TotalStudents is the enrolled student count. It equals len(Roster)
	// when the roster is populated; list endpoints may omit the roster.
	TotalStudents int

	// Roster is the ordered list of enrolled students.
	Roster []RosterEntry

	// Summary holds the derived attendance counts. Mutated only through
	// ApplySummary after a successful submit.
	Summary Summary

	// AttendanceMarked reports whether this session has been finalized at
	// least once.
	AttendanceMarked bool
}

// Validate checks the structural invariants of a fetched session.
func (s *ClassSession) Validate() error {
	if !s.ID.IsValid() {
		return shared.ErrInvalidSessionID
	}
	if s.Subject == "" {
		return shared.NewDomainError("session", "Validate", shared.ErrEmptyValue, "subject is required")
	}
	if s.Date.IsZero() {
		return shared.NewDomainError("session", "Validate", shared.ErrEmptyValue, "date is required")
	}
	if !s.StartTime.IsValid() || !s.EndTime.IsValid() {
		return shared.NewDomainError("session", "Validate", shared.ErrInvalidInput, "invalid start or end time")
	}
	if s.TotalStudents < 0 {
		return shared.NewDomainError("session", "Validate", shared.ErrValueOutOfRange, "negative student count")
	}
	seen := make(map[shared.StudentID]struct{}, len(s.Roster))
	for _, entry := range s.Roster {
		if !entry.StudentID.IsValid() {
			return shared.NewDomainError("session", "Validate", shared.ErrInvalidID, "invalid student ID on roster")
		}
		if _, dup := seen[entry.StudentID]; dup {
			return shared.ErrDuplicateRosterEntry
		}
		seen[entry.StudentID] = struct{}{}
	}
	return nil
}

// ApplySummary replaces the derived counts after a successful submit and
// marks the session as finalized. It is the only mutation path for summary
// fields; re-marking supersedes the prior counts wholesale.
func (s *ClassSession) ApplySummary(summary Summary) error {
	if s.TotalStudents > 0 && summary.Total() != s.TotalStudents {
		return shared.ErrSummaryMismatch
	}
	s.Summary = summary
	s.AttendanceMarked = true
	return nil
}

// RecordRosterStatuses stamps the submitted statuses onto the roster so a
// re-opened marking session can seed from them.
func (s *ClassSession) RecordRosterStatuses(statuses map[shared.StudentID]shared.AttendanceStatus) {
	for i := range s.Roster {
		if status, ok := statuses[s.Roster[i].StudentID]; ok {
			st := status
			s.Roster[i].CurrentStatus = &st
		}
	}
}

// StartsBefore orders sessions by start time, subject name as tiebreak.
// The ordering is deterministic so "upcoming classes" slicing and tests are
// reproducible.
func (s *ClassSession) StartsBefore(other *ClassSession) bool {
	if s.StartTime.Minutes() != other.StartTime.Minutes() {
		return s.StartTime.Before(other.StartTime)
	}
	return s.Subject < other.Subject
}

// IsUpcoming reports whether the session starts at or after the given
// wall-clock time on its own day.
func (s *ClassSession) IsUpcoming(now time.Time) bool {
	return s.StartTime.Minutes() >= now.Hour()*60+now.Minute()
}

// Clone creates a deep copy of the session.
func (s *ClassSession) Clone() *ClassSession {
	if s == nil {
		return nil
	}
	clone := *s
	clone.Roster = make([]RosterEntry, len(s.Roster))
	for i, entry := range s.Roster {
		clone.Roster[i] = entry
		if entry.CurrentStatus != nil {
			st := *entry.CurrentStatus
			clone.Roster[i].CurrentStatus = &st
		}
	}
	return &clone
}

// String returns a compact representation for logging.
func (s *ClassSession) String() string {
	return fmt.Sprintf("ClassSession{ID: %s, Subject: %s, Date: %s, Start: %s, Marked: %t}",
		s.ID, s.Subject, s.Date, s.StartTime, s.AttendanceMarked)
}
