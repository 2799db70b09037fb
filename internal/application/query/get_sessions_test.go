package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coaching-hub/attendance-hub/internal/domain/session"
	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
)

type fakeSessionSource struct {
	sessions []*session.ClassSession
	err      error

	forDateCalls   int
	scheduledCalls int
	gotDate        shared.Date
	gotFilters     session.Filters
}

func (f *fakeSessionSource) LoadForDate(_ context.Context, date shared.Date, filters session.Filters) ([]*session.ClassSession, error) {
	f.forDateCalls++
	f.gotDate = date
	f.gotFilters = filters
	return f.sessions, f.err
}

func (f *fakeSessionSource) LoadScheduled(_ context.Context, date shared.Date, filters session.Filters) ([]*session.ClassSession, error) {
	f.scheduledCalls++
	f.gotDate = date
	f.gotFilters = filters
	return f.sessions, f.err
}

type fakePublisher struct {
	events []shared.Event
}

func (f *fakePublisher) Publish(event shared.Event) error {
	f.events = append(f.events, event)
	return nil
}

func querySession(id shared.SessionID, subject string, startHour int) *session.ClassSession {
	return &session.ClassSession{
		ID:        id,
		Subject:   subject,
		Topic:     "Rotational Motion",
		Batch:     "jee-2026-a",
		Date:      shared.Date{Year: 2026, Month: time.August, Day: 28},
		StartTime: shared.TimeOfDay{Hour: startHour, Minute: 0},
		EndTime:   shared.TimeOfDay{Hour: startHour + 1, Minute: 30},
		Venue:     "Hall B",
		Teacher:   session.Teacher{ID: "t-101", DisplayName: "R. Iyer"},
		Roster: []session.RosterEntry{
			{StudentID: "stu-1", DisplayName: "Aarav"},
			{StudentID: "stu-2", DisplayName: "Diya"},
		},
		TotalStudents: 2,
	}
}

func TestGetSessionsLoadsAndPublishesReload(t *testing.T) {
	source := &fakeSessionSource{sessions: []*session.ClassSession{
		querySession("ses-2", "Chemistry", 11),
		querySession("ses-1", "Physics", 9),
	}}
	publisher := &fakePublisher{}
	catalog := session.NewCatalog()
	handler := NewGetSessionsHandler(source, catalog, publisher, nil)

	result, err := handler.Handle(context.Background(), GetSessionsQuery{Date: "2026-08-28"})
	require.NoError(t, err)

	assert.Equal(t, 1, source.forDateCalls)
	assert.Equal(t, shared.Date{Year: 2026, Month: time.August, Day: 28}, source.gotDate)

	require.Len(t, result.Sessions, 2)
	assert.Equal(t, "ses-1", result.Sessions[0].ID)
	assert.Equal(t, "Physics", result.Sessions[0].Subject)
	assert.Equal(t, "09:00", result.Sessions[0].StartTime)
	assert.Equal(t, "R. Iyer", result.Sessions[0].TeacherName)
	assert.Equal(t, 2, result.Sessions[0].TotalStudents)
	assert.False(t, result.Sessions[0].Marked)
	assert.Empty(t, result.Sessions[0].SummaryLine)
	assert.Equal(t, "ses-2", result.Sessions[1].ID)
	assert.Equal(t, 2, result.Total)
	assert.Zero(t, result.Marked)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, shared.EventSessionsReloaded, publisher.events[0].EventType())
}

func TestGetSessionsMarkedSummaryLine(t *testing.T) {
	marked := querySession("ses-1", "Physics", 9)
	marked.AttendanceMarked = true
	marked.Summary = session.Summary{Present: 1, Absent: 1}
	source := &fakeSessionSource{sessions: []*session.ClassSession{marked}}
	catalog := session.NewCatalog()
	handler := NewGetSessionsHandler(source, catalog, nil, nil)

	result, err := handler.Handle(context.Background(), GetSessionsQuery{Date: "2026-08-28"})
	require.NoError(t, err)
	require.Len(t, result.Sessions, 1)
	assert.True(t, result.Sessions[0].Marked)
	assert.NotEmpty(t, result.Sessions[0].SummaryLine)
	assert.Equal(t, 1, result.Marked)

	// A reload replaces the catalog wholesale, so the fresh payload decides
	// the marked flag.
	source.sessions = []*session.ClassSession{querySession("ses-1", "Physics", 9)}
	result, err = handler.Handle(context.Background(), GetSessionsQuery{Date: "2026-08-28"})
	require.NoError(t, err)
	require.Len(t, result.Sessions, 1)
	assert.False(t, result.Sessions[0].Marked)
	assert.Zero(t, result.Marked)
}

func TestGetSessionsScheduledUsesScheduleSource(t *testing.T) {
	source := &fakeSessionSource{}
	handler := NewGetSessionsHandler(source, session.NewCatalog(), nil, nil)

	_, err := handler.Handle(context.Background(), GetSessionsQuery{Date: "2026-08-29", Scheduled: true})
	require.NoError(t, err)
	assert.Equal(t, 1, source.scheduledCalls)
	assert.Zero(t, source.forDateCalls)
}

func TestGetSessionsFiltersPassedThrough(t *testing.T) {
	source := &fakeSessionSource{}
	handler := NewGetSessionsHandler(source, session.NewCatalog(), nil, nil)

	_, err := handler.Handle(context.Background(), GetSessionsQuery{
		Date:         "2026-08-28",
		Subject:      "Physics",
		Batch:        "jee-2026-a",
		OnlyUnmarked: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Physics", source.gotFilters.Subject)
	assert.Equal(t, shared.Batch("jee-2026-a"), source.gotFilters.Batch)
	assert.True(t, source.gotFilters.OnlyUnmarked)
}

func TestGetSessionsRejectsBadDate(t *testing.T) {
	source := &fakeSessionSource{}
	handler := NewGetSessionsHandler(source, session.NewCatalog(), nil, nil)

	_, err := handler.Handle(context.Background(), GetSessionsQuery{Date: "28-08-2026"})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Zero(t, source.forDateCalls)
}

func TestGetSessionsSourceErrorLeavesCatalogAlone(t *testing.T) {
	catalog := session.NewCatalog()
	good := &fakeSessionSource{sessions: []*session.ClassSession{querySession("ses-1", "Physics", 9)}}
	handler := NewGetSessionsHandler(good, catalog, nil, nil)
	_, err := handler.Handle(context.Background(), GetSessionsQuery{Date: "2026-08-28"})
	require.NoError(t, err)

	bad := &fakeSessionSource{err: shared.NewDomainError("institute", "ListSessions", shared.ErrServiceUnavailable, "api down")}
	handler = NewGetSessionsHandler(bad, catalog, nil, nil)
	_, err = handler.Handle(context.Background(), GetSessionsQuery{Date: "2026-08-28"})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)

	assert.Equal(t, 1, catalog.Len())
}
