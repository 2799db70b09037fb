package marking

import (
	"github.com/coaching-hub/attendance-hub/internal/domain/session"
	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
)

// RecordStore holds the per-student decisions for one class session being
// edited, keyed by student ID with roster order preserved. The invariant it
// protects: exactly one decision per enrolled student, no unknown student
// may be added, no student may be dropped.
type RecordStore struct {
	order     []shared.StudentID
	decisions map[shared.StudentID]*Decision
}

// newRecordStore seeds one decision per roster entry. If the student already
// has a prior status for this exact session (re-opening an already-marked
// session) that status is reused; otherwise the default applies.
func newRecordStore(roster []session.RosterEntry, defaultStatus shared.AttendanceStatus) *RecordStore {
	s := &RecordStore{
		order:     make([]shared.StudentID, 0, len(roster)),
		decisions: make(map[shared.StudentID]*Decision, len(roster)),
	}
	for _, entry := range roster {
		status := defaultStatus
		if entry.CurrentStatus != nil {
			status = *entry.CurrentStatus
		}
		s.order = append(s.order, entry.StudentID)
		s.decisions[entry.StudentID] = &Decision{
			StudentID: entry.StudentID,
			Status:    status,
		}
	}
	return s
}

// Get returns a copy of the decision for the given student.
func (s *RecordStore) Get(studentID shared.StudentID) (Decision, error) {
	d, ok := s.decisions[studentID]
	if !ok {
		return Decision{}, shared.ErrStudentNotOnRoster
	}
	return *d, nil
}

// setStatus mutates exactly one decision.
func (s *RecordStore) setStatus(studentID shared.StudentID, status shared.AttendanceStatus) error {
	if !status.IsValid() {
		return shared.ErrInvalidMarkingStatus
	}
	d, ok := s.decisions[studentID]
	if !ok {
		return shared.ErrStudentNotOnRoster
	}
	d.Status = status
	return nil
}

// setRemark mutates the remark field only; the status is untouched.
func (s *RecordStore) setRemark(studentID shared.StudentID, text string) error {
	d, ok := s.decisions[studentID]
	if !ok {
		return shared.ErrStudentNotOnRoster
	}
	remark := NormalizeRemark(text)
	if len(remark) > MaxRemarkLength {
		return shared.NewDomainError("marking", "SetRemark", shared.ErrValueOutOfRange, "remark too long")
	}
	d.Remark = remark
	return nil
}

// bulkSet sets every decision to the given status in one atomic step. The
// only failure mode is the precondition check; once it passes, all decisions
// update.
func (s *RecordStore) bulkSet(status shared.AttendanceStatus) error {
	if !status.IsValid() {
		return shared.ErrInvalidMarkingStatus
	}
	for _, d := range s.decisions {
		d.Status = status
	}
	return nil
}

// validate enforces the completeness invariant: one valid decision for
// every roster student. An empty roster validates trivially.
func (s *RecordStore) validate() error {
	for _, id := range s.order {
		d, ok := s.decisions[id]
		if !ok || !d.Status.IsValid() {
			return shared.ErrDecisionIncomplete
		}
	}
	return nil
}

// Decisions returns copies of all decisions in roster order.
func (s *RecordStore) Decisions() []Decision {
	out := make([]Decision, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.decisions[id])
	}
	return out
}

// Statuses returns the student-to-status map, used for roster write-back.
func (s *RecordStore) Statuses() map[shared.StudentID]shared.AttendanceStatus {
	out := make(map[shared.StudentID]shared.AttendanceStatus, len(s.order))
	for id, d := range s.decisions {
		out[id] = d.Status
	}
	return out
}

// Len returns the roster size.
func (s *RecordStore) Len() int {
	return len(s.order)
}

// TallySummary derives the per-status counts from a decision set. The engine
// uses it after a successful submit so the catalog reflects the new state
// without waiting for a second fetch.
func TallySummary(decisions []Decision) session.Summary {
	var summary session.Summary
	for _, d := range decisions {
		summary.Add(d.Status)
	}
	return summary
}
