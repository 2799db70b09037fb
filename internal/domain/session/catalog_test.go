package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
)

func makeSession(id shared.SessionID, subject string, startHour int) *ClassSession {
	return &ClassSession{
		ID:        id,
		Subject:   subject,
		Batch:     "jee-2026-a",
		Date:      shared.Date{Year: 2026, Month: time.August, Day: 28},
		StartTime: shared.TimeOfDay{Hour: startHour, Minute: 0},
		EndTime:   shared.TimeOfDay{Hour: startHour + 1, Minute: 30},
		Roster: []RosterEntry{
			{StudentID: "stu-1", DisplayName: "Aarav"},
			{StudentID: "stu-2", DisplayName: "Diya"},
		},
		TotalStudents: 2,
	}
}

func TestCatalogReplaceForDateSortsByStartTime(t *testing.T) {
	catalog := NewCatalog()
	date := shared.Date{Year: 2026, Month: time.August, Day: 28}

	err := catalog.ReplaceForDate(date, Filters{}, []*ClassSession{
		makeSession("ses-3", "Chemistry", 14),
		makeSession("ses-1", "Physics", 9),
		makeSession("ses-2", "Mathematics", 11),
	})
	require.NoError(t, err)

	all := catalog.All()
	require.Len(t, all, 3)
	assert.Equal(t, shared.SessionID("ses-1"), all[0].ID)
	assert.Equal(t, shared.SessionID("ses-2"), all[1].ID)
	assert.Equal(t, shared.SessionID("ses-3"), all[2].ID)
	assert.Equal(t, date, catalog.Date())
}

func TestCatalogReplaceSubjectTiebreak(t *testing.T) {
	catalog := NewCatalog()
	date := shared.Date{Year: 2026, Month: time.August, Day: 28}

	err := catalog.ReplaceForDate(date, Filters{}, []*ClassSession{
		makeSession("ses-b", "Physics", 9),
		makeSession("ses-a", "Chemistry", 9),
	})
	require.NoError(t, err)

	all := catalog.All()
	assert.Equal(t, "Chemistry", all[0].Subject)
	assert.Equal(t, "Physics", all[1].Subject)
}

func TestCatalogReplaceDiscardsStaleEntries(t *testing.T) {
	catalog := NewCatalog()
	date := shared.Date{Year: 2026, Month: time.August, Day: 28}

	require.NoError(t, catalog.ReplaceForDate(date, Filters{}, []*ClassSession{
		makeSession("ses-old", "Physics", 9),
	}))

	require.NoError(t, catalog.ReplaceForDate(date.AddDays(1), Filters{}, []*ClassSession{
		makeSession("ses-new", "Biology", 10),
	}))

	_, err := catalog.Get("ses-old")
	assert.ErrorIs(t, err, shared.ErrSessionNotFound)

	s, err := catalog.Get("ses-new")
	require.NoError(t, err)
	assert.Equal(t, "Biology", s.Subject)
	assert.Equal(t, 1, catalog.Len())
}

func TestCatalogReplaceRejectsInvalidSession(t *testing.T) {
	catalog := NewCatalog()
	date := shared.Date{Year: 2026, Month: time.August, Day: 28}

	bad := makeSession("ses-1", "", 9)
	err := catalog.ReplaceForDate(date, Filters{}, []*ClassSession{bad})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.Equal(t, 0, catalog.Len())
}

func TestCatalogReplaceRejectsDuplicateIDs(t *testing.T) {
	catalog := NewCatalog()
	date := shared.Date{Year: 2026, Month: time.August, Day: 28}

	err := catalog.ReplaceForDate(date, Filters{}, []*ClassSession{
		makeSession("ses-1", "Physics", 9),
		makeSession("ses-1", "Chemistry", 11),
	})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestCatalogFilters(t *testing.T) {
	catalog := NewCatalog()
	date := shared.Date{Year: 2026, Month: time.August, Day: 28}

	physics := makeSession("ses-1", "Physics", 9)
	chemistry := makeSession("ses-2", "Chemistry", 11)
	marked := makeSession("ses-3", "Physics", 14)
	marked.AttendanceMarked = true
	otherBatch := makeSession("ses-4", "Physics", 16)
	otherBatch.Batch = "neet-2026-b"

	load := func(f Filters) []*ClassSession {
		require.NoError(t, catalog.ReplaceForDate(date, f, []*ClassSession{physics, chemistry, marked, otherBatch}))
		return catalog.All()
	}

	bySubject := load(Filters{Subject: "Physics"})
	assert.Len(t, bySubject, 3)

	byBatch := load(Filters{Batch: "jee-2026-a"})
	assert.Len(t, byBatch, 3)

	unmarked := load(Filters{OnlyUnmarked: true})
	assert.Len(t, unmarked, 3)

	combined := load(Filters{Subject: "Physics", Batch: "jee-2026-a", OnlyUnmarked: true})
	assert.Len(t, combined, 1)
	assert.Equal(t, shared.SessionID("ses-1"), combined[0].ID)
}

func TestCatalogApplySummary(t *testing.T) {
	catalog := NewCatalog()
	date := shared.Date{Year: 2026, Month: time.August, Day: 28}

	require.NoError(t, catalog.ReplaceForDate(date, Filters{}, []*ClassSession{
		makeSession("ses-1", "Physics", 9),
	}))

	summary := Summary{Present: 1, Absent: 1}
	statuses := map[shared.StudentID]shared.AttendanceStatus{
		"stu-1": shared.StatusPresent,
		"stu-2": shared.StatusAbsent,
	}
	require.NoError(t, catalog.ApplySummary("ses-1", summary, statuses))

	s, err := catalog.Get("ses-1")
	require.NoError(t, err)
	assert.True(t, s.AttendanceMarked)
	assert.Equal(t, summary, s.Summary)
	assert.Equal(t, 1, catalog.MarkedCount())

	// Roster statuses are stamped so re-opening seeds from them.
	require.NotNil(t, s.Roster[0].CurrentStatus)
	assert.Equal(t, shared.StatusPresent, *s.Roster[0].CurrentStatus)
	require.NotNil(t, s.Roster[1].CurrentStatus)
	assert.Equal(t, shared.StatusAbsent, *s.Roster[1].CurrentStatus)
}

func TestCatalogApplySummaryMismatch(t *testing.T) {
	catalog := NewCatalog()
	date := shared.Date{Year: 2026, Month: time.August, Day: 28}

	require.NoError(t, catalog.ReplaceForDate(date, Filters{}, []*ClassSession{
		makeSession("ses-1", "Physics", 9),
	}))

	// Roster has 2 students, summary counts only 1.
	err := catalog.ApplySummary("ses-1", Summary{Present: 1}, nil)
	assert.ErrorIs(t, err, shared.ErrSummaryMismatch)

	s, _ := catalog.Get("ses-1")
	assert.False(t, s.AttendanceMarked)
}

func TestCatalogApplySummaryUnknownSession(t *testing.T) {
	catalog := NewCatalog()
	err := catalog.ApplySummary("ses-missing", Summary{}, nil)
	assert.ErrorIs(t, err, shared.ErrSessionNotFound)
}

func TestCatalogUpcoming(t *testing.T) {
	catalog := NewCatalog()
	date := shared.Date{Year: 2026, Month: time.August, Day: 28}

	require.NoError(t, catalog.ReplaceForDate(date, Filters{}, []*ClassSession{
		makeSession("ses-1", "Physics", 9),
		makeSession("ses-2", "Chemistry", 11),
		makeSession("ses-3", "Mathematics", 15),
	}))

	noon := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)
	upcoming := catalog.Upcoming(noon, 5)
	require.Len(t, upcoming, 1)
	assert.Equal(t, shared.SessionID("ses-3"), upcoming[0].ID)

	morning := time.Date(2026, time.August, 28, 8, 0, 0, 0, time.UTC)
	assert.Len(t, catalog.Upcoming(morning, 2), 2)
	assert.Empty(t, catalog.Upcoming(morning, 0))
}
