// Package marking contains the editable decision set and the state machine
// that drives one attendance-marking operation: seeding defaults for a
// session's roster, applying bulk and per-student edits, validating
// completeness, and submitting the result to the remote store.
package marking

import (
	"strings"

	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
)

// Decision is one student's in-progress attendance status within a marking
// operation. Decisions are transient: they are seeded when a marking session
// opens, mutated by the user or by bulk operations, converted into durable
// records on submit, then discarded from editable state.
type Decision struct {
	StudentID shared.StudentID
	Status    shared.AttendanceStatus
	Remark    string
}

// MaxRemarkLength bounds the free-text remark.
const MaxRemarkLength = 500

// Validate checks a single decision.
func (d Decision) Validate() error {
	if !d.StudentID.IsValid() {
		return shared.NewDomainError("marking", "Validate", shared.ErrInvalidID, "invalid student ID on decision")
	}
	if !d.Status.IsValid() {
		return shared.ErrInvalidMarkingStatus
	}
	if len(d.Remark) > MaxRemarkLength {
		return shared.NewDomainError("marking", "Validate", shared.ErrValueOutOfRange, "remark too long")
	}
	return nil
}

// NormalizeRemark trims whitespace; empty remarks are stored as "".
func NormalizeRemark(text string) string {
	return strings.TrimSpace(text)
}
