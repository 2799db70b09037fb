package session

import (
	"sort"
	"time"

	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
)

// Catalog holds the class sessions for the active date and filter set. It is
// the single shared source of truth for current summaries: the marking
// engine writes back into it only after a successful submit, and nothing
// else may mutate a session's summary fields.
type Catalog struct {
	date     shared.Date
	filters  Filters
	sessions []*ClassSession
	byID     map[shared.SessionID]*ClassSession
}

// Filters narrows which sessions a load returns.
type Filters struct {
	Subject string
	Batch   shared.Batch
	// OnlyUnmarked keeps only sessions still awaiting attendance.
	OnlyUnmarked bool
}

// Matches reports whether a session passes the filter set.
func (f Filters) Matches(s *ClassSession) bool {
	if f.Subject != "" && s.Subject != f.Subject {
		return false
	}
	if f.Batch.IsFiltered() && s.Batch != f.Batch {
		return false
	}
	if f.OnlyUnmarked && s.AttendanceMarked {
		return false
	}
	return true
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		byID: make(map[shared.SessionID]*ClassSession),
	}
}

// ReplaceForDate replaces the held session list wholesale. Stale entries are
// discarded rather than merged so out-of-date summaries can never linger
// after a reload. The list is sorted by start time ascending, subject name
// as tiebreak.
func (c *Catalog) ReplaceForDate(date shared.Date, filters Filters, sessions []*ClassSession) error {
	kept := make([]*ClassSession, 0, len(sessions))
	byID := make(map[shared.SessionID]*ClassSession, len(sessions))
	for _, s := range sessions {
		if s == nil {
			continue
		}
		if err := s.Validate(); err != nil {
			return shared.WrapError("session", "ReplaceForDate", shared.ErrInvalidInput, "rejecting session list", err)
		}
		if _, dup := byID[s.ID]; dup {
			return shared.NewDomainError("session", "ReplaceForDate", shared.ErrAlreadyExists, "duplicate session id in list")
		}
		if !filters.Matches(s) {
			continue
		}
		kept = append(kept, s)
		byID[s.ID] = s
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].StartsBefore(kept[j])
	})

	c.date = date
	c.filters = filters
	c.sessions = kept
	c.byID = byID
	return nil
}

// Get returns the session with the given ID.
func (c *Catalog) Get(id shared.SessionID) (*ClassSession, error) {
	s, ok := c.byID[id]
	if !ok {
		return nil, shared.ErrSessionNotFound
	}
	return s, nil
}

// All returns the held sessions in display order.
func (c *Catalog) All() []*ClassSession {
	out := make([]*ClassSession, len(c.sessions))
	copy(out, c.sessions)
	return out
}

// Upcoming returns up to n sessions that start at or after the given time.
// Relies on the deterministic catalog ordering.
func (c *Catalog) Upcoming(now time.Time, n int) []*ClassSession {
	if n <= 0 {
		return nil
	}
	out := make([]*ClassSession, 0, n)
	for _, s := range c.sessions {
		if !s.IsUpcoming(now) {
			continue
		}
		out = append(out, s)
		if len(out) == n {
			break
		}
	}
	return out
}

// ApplySummary writes a submitted summary back to the identified session.
// This is the sole mutation path for summary fields.
func (c *Catalog) ApplySummary(id shared.SessionID, summary Summary, statuses map[shared.StudentID]shared.AttendanceStatus) error {
	s, err := c.Get(id)
	if err != nil {
		return err
	}
	if err := s.ApplySummary(summary); err != nil {
		return err
	}
	s.RecordRosterStatuses(statuses)
	return nil
}

// Date returns the date the catalog currently holds sessions for.
func (c *Catalog) Date() shared.Date {
	return c.date
}

// Filters returns the filter set of the last load.
func (c *Catalog) Filters() Filters {
	return c.filters
}

// Len returns the number of held sessions.
func (c *Catalog) Len() int {
	return len(c.sessions)
}

// MarkedCount returns how many held sessions have finalized attendance.
func (c *Catalog) MarkedCount() int {
	n := 0
	for _, s := range c.sessions {
		if s.AttendanceMarked {
			n++
		}
	}
	return n
}
