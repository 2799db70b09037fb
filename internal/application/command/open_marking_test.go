package command

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coaching-hub/attendance-hub/internal/domain/marking"
	"github.com/coaching-hub/attendance-hub/internal/domain/session"
	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
)

type fakeSubmitter struct {
	mu            sync.Mutex
	err           error
	calls         int
	gotSessionID  shared.SessionID
	gotDecisions  []marking.Decision
	gotIdempotent string
}

func (f *fakeSubmitter) SubmitMarking(_ context.Context, sessionID shared.SessionID, decisions []marking.Decision, idempotencyKey string) (session.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.gotSessionID = sessionID
	f.gotDecisions = decisions
	f.gotIdempotent = idempotencyKey
	if f.err != nil {
		return session.Summary{}, f.err
	}
	var summary session.Summary
	for _, d := range decisions {
		summary.Add(d.Status)
	}
	return summary, nil
}

type capturingPublisher struct {
	events []shared.Event
	err    error
}

func (p *capturingPublisher) Publish(event shared.Event) error {
	p.events = append(p.events, event)
	return p.err
}

func loadedCatalog(t *testing.T) *session.Catalog {
	t.Helper()
	catalog := session.NewCatalog()
	date := shared.Date{Year: 2026, Month: time.August, Day: 28}
	err := catalog.ReplaceForDate(date, session.Filters{}, []*session.ClassSession{{
		ID:        "ses-001",
		Subject:   "Physics",
		Batch:     "jee-2026-a",
		Date:      date,
		StartTime: shared.TimeOfDay{Hour: 9, Minute: 0},
		EndTime:   shared.TimeOfDay{Hour: 10, Minute: 30},
		Teacher:   session.Teacher{ID: "t-101", DisplayName: "R. Iyer"},
		Roster: []session.RosterEntry{
			{StudentID: "stu-1", DisplayName: "Aarav"},
			{StudentID: "stu-2", DisplayName: "Diya"},
			{StudentID: "stu-3", DisplayName: "Ishaan"},
		},
		TotalStudents: 3,
	}})
	require.NoError(t, err)
	return catalog
}

func TestOpenMarkingSeedsRoster(t *testing.T) {
	publisher := &capturingPublisher{}
	handler := NewOpenMarkingHandler(loadedCatalog(t), &fakeSubmitter{}, publisher, nil)

	result, err := handler.Handle(context.Background(), OpenMarkingCommand{SessionID: "ses-001"})
	require.NoError(t, err)

	assert.Equal(t, "ses-001", result.SessionID)
	assert.Equal(t, "Physics", result.Subject)
	assert.Equal(t, "jee-2026-a", result.Batch)
	assert.False(t, result.Reopened)
	require.NotNil(t, result.Engine)

	require.Len(t, result.Decisions, 3)
	assert.Equal(t, "stu-1", result.Decisions[0].StudentID)
	assert.Equal(t, "Aarav", result.Decisions[0].StudentName)
	for _, d := range result.Decisions {
		assert.Equal(t, "present", d.Status)
	}

	require.Len(t, publisher.events, 1)
	assert.Equal(t, shared.EventMarkingOpened, publisher.events[0].EventType())
}

func TestOpenMarkingDefaultStatusOverride(t *testing.T) {
	handler := NewOpenMarkingHandler(loadedCatalog(t), &fakeSubmitter{}, nil, nil)

	result, err := handler.Handle(context.Background(), OpenMarkingCommand{
		SessionID:     "ses-001",
		DefaultStatus: "absent",
	})
	require.NoError(t, err)
	for _, d := range result.Decisions {
		assert.Equal(t, "absent", d.Status)
	}
}

func TestOpenMarkingUnknownSession(t *testing.T) {
	handler := NewOpenMarkingHandler(loadedCatalog(t), &fakeSubmitter{}, nil, nil)

	_, err := handler.Handle(context.Background(), OpenMarkingCommand{SessionID: "ses-999"})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrSessionNotFound)
}

func TestOpenMarkingInvalidCommand(t *testing.T) {
	handler := NewOpenMarkingHandler(loadedCatalog(t), &fakeSubmitter{}, nil, nil)

	_, err := handler.Handle(context.Background(), OpenMarkingCommand{SessionID: ""})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = handler.Handle(context.Background(), OpenMarkingCommand{
		SessionID:     "ses-001",
		DefaultStatus: "vanished",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestOpenMarkingReopenedFlag(t *testing.T) {
	catalog := loadedCatalog(t)
	require.NoError(t, catalog.ApplySummary("ses-001", session.Summary{Present: 2, Late: 1}, map[shared.StudentID]shared.AttendanceStatus{
		"stu-1": shared.StatusPresent,
		"stu-2": shared.StatusPresent,
		"stu-3": shared.StatusLate,
	}))
	handler := NewOpenMarkingHandler(catalog, &fakeSubmitter{}, nil, nil)

	result, err := handler.Handle(context.Background(), OpenMarkingCommand{SessionID: "ses-001"})
	require.NoError(t, err)
	assert.True(t, result.Reopened)

	// Prior statuses survive the reopen so corrections start from the
	// committed state.
	assert.Equal(t, "late", result.Decisions[2].Status)
}

func TestOpenMarkingPublishFailureIsNonFatal(t *testing.T) {
	publisher := &capturingPublisher{err: errors.New("bus closed")}
	handler := NewOpenMarkingHandler(loadedCatalog(t), &fakeSubmitter{}, publisher, nil)

	result, err := handler.Handle(context.Background(), OpenMarkingCommand{SessionID: "ses-001"})
	require.NoError(t, err)
	assert.NotNil(t, result.Engine)
}
