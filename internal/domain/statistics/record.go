// Package statistics computes attendance rates, period trends and
// low-attendance alerts from windows of historical attendance records. All
// computations are pure; the aggregator's most recent result is a cache for
// display, never authoritative — the server owns the official numbers.
package statistics

import (
	"time"

	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
)

// Record is the durable, read-only result of a submitted attendance
// decision. The remote store owns it; this core only reads it back for
// history and statistics. Records are immutable once created — corrections
// arrive as a new submission superseding the session's summary counts, not
// as in-place mutation.
type Record struct {
	ID          string
	StudentID   shared.StudentID
	StudentName string
	SessionID   shared.SessionID
	Subject     string
	Batch       shared.Batch
	Date        shared.Date
	Status      shared.AttendanceStatus
	MarkedAt    time.Time
	MarkedBy    string
	Remark      string
}

// Validate checks a fetched record's structural invariants.
func (r *Record) Validate() error {
	if r.ID == "" {
		return shared.NewDomainError("statistics", "Validate", shared.ErrEmptyValue, "record id is required")
	}
	if !r.StudentID.IsValid() {
		return shared.NewDomainError("statistics", "Validate", shared.ErrInvalidID, "invalid student ID on record")
	}
	if !r.SessionID.IsValid() {
		return shared.NewDomainError("statistics", "Validate", shared.ErrInvalidID, "invalid session ID on record")
	}
	if !r.Status.IsValid() {
		return shared.NewDomainError("statistics", "Validate", shared.ErrValidation, "invalid status on record")
	}
	if r.Date.IsZero() {
		return shared.NewDomainError("statistics", "Validate", shared.ErrEmptyValue, "record date is required")
	}
	return nil
}

// GroupByDay buckets records by their calendar day.
func GroupByDay(records []Record) map[shared.Date][]Record {
	out := make(map[shared.Date][]Record)
	for _, r := range records {
		out[r.Date] = append(out[r.Date], r)
	}
	return out
}
