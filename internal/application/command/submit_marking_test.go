package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coaching-hub/attendance-hub/internal/domain/marking"
	"github.com/coaching-hub/attendance-hub/internal/domain/session"
	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
)

type fakeSessionInvalidator struct {
	dates []shared.Date
}

func (f *fakeSessionInvalidator) InvalidateDate(_ context.Context, date shared.Date) {
	f.dates = append(f.dates, date)
}

type fakeStatsInvalidator struct {
	calls int
	err   error
}

func (f *fakeStatsInvalidator) Invalidate(_ context.Context) error {
	f.calls++
	return f.err
}

func openEngine(t *testing.T, catalog *session.Catalog, submitter marking.Submitter) *marking.Engine {
	t.Helper()
	openHandler := NewOpenMarkingHandler(catalog, submitter, nil, nil)
	opened, err := openHandler.Handle(context.Background(), OpenMarkingCommand{SessionID: "ses-001"})
	require.NoError(t, err)
	return opened.Engine
}

func TestSubmitMarkingCommitFanout(t *testing.T) {
	catalog := loadedCatalog(t)
	submitter := &fakeSubmitter{}
	engine := openEngine(t, catalog, submitter)
	require.NoError(t, engine.SetStatus("stu-2", shared.StatusAbsent))
	require.NoError(t, engine.SetStatus("stu-3", shared.StatusLate))

	publisher := &capturingPublisher{}
	sessionCache := &fakeSessionInvalidator{}
	statsCache := &fakeStatsInvalidator{}
	handler := NewSubmitMarkingHandler(catalog, publisher, sessionCache, statsCache, nil)

	result, err := handler.Handle(context.Background(), engine)
	require.NoError(t, err)

	assert.Equal(t, "ses-001", result.SessionID)
	assert.Equal(t, 1, result.Present)
	assert.Equal(t, 1, result.Absent)
	assert.Equal(t, 1, result.Late)
	assert.Zero(t, result.Excused)
	assert.False(t, result.CommittedAt.IsZero())

	sess, err := catalog.Get("ses-001")
	require.NoError(t, err)
	assert.True(t, sess.AttendanceMarked)
	assert.Equal(t, session.Summary{Present: 1, Absent: 1, Late: 1}, sess.Summary)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, shared.EventMarkingCommitted, publisher.events[0].EventType())

	require.Len(t, sessionCache.dates, 1)
	assert.Equal(t, shared.Date{Year: 2026, Month: time.August, Day: 28}, sessionCache.dates[0])
	assert.Equal(t, 1, statsCache.calls)
}

func TestSubmitMarkingNilEngine(t *testing.T) {
	handler := NewSubmitMarkingHandler(loadedCatalog(t), nil, nil, nil, nil)

	_, err := handler.Handle(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrMarkingNotOpen)
}

func TestSubmitMarkingFailurePublishesFailedEvent(t *testing.T) {
	catalog := loadedCatalog(t)
	submitter := &fakeSubmitter{err: shared.NewDomainError("institute", "SubmitMarking", shared.ErrServiceUnavailable, "api down")}
	engine := openEngine(t, catalog, submitter)

	publisher := &capturingPublisher{}
	sessionCache := &fakeSessionInvalidator{}
	statsCache := &fakeStatsInvalidator{}
	handler := NewSubmitMarkingHandler(catalog, publisher, sessionCache, statsCache, nil)

	_, err := handler.Handle(context.Background(), engine)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, shared.EventMarkingFailed, publisher.events[0].EventType())

	// Nothing committed, so the caches stay warm and the catalog is
	// untouched.
	assert.Empty(t, sessionCache.dates)
	assert.Zero(t, statsCache.calls)
	sess, getErr := catalog.Get("ses-001")
	require.NoError(t, getErr)
	assert.False(t, sess.AttendanceMarked)

	// The engine stays editable for a retry on the same handler.
	submitter.mu.Lock()
	submitter.err = nil
	submitter.mu.Unlock()
	result, err := handler.Handle(context.Background(), engine)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Present)
	assert.Equal(t, 1, statsCache.calls)
}

func TestSubmitMarkingNilCachesTolerated(t *testing.T) {
	catalog := loadedCatalog(t)
	engine := openEngine(t, catalog, &fakeSubmitter{})
	handler := NewSubmitMarkingHandler(catalog, nil, nil, nil, nil)

	result, err := handler.Handle(context.Background(), engine)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Present)
}

func TestDiscardMarkingClosesEngine(t *testing.T) {
	catalog := loadedCatalog(t)
	engine := openEngine(t, catalog, &fakeSubmitter{})

	publisher := &capturingPublisher{}
	handler := NewDiscardMarkingHandler(publisher, nil)
	require.NoError(t, handler.Handle(engine))

	require.Len(t, publisher.events, 1)
	assert.Equal(t, shared.EventMarkingDiscarded, publisher.events[0].EventType())

	err := engine.SetStatus("stu-1", shared.StatusAbsent)
	assert.ErrorIs(t, err, shared.ErrMarkingClosed)
}

func TestDiscardMarkingNilEngine(t *testing.T) {
	handler := NewDiscardMarkingHandler(nil, nil)
	err := handler.Handle(nil)
	assert.ErrorIs(t, err, shared.ErrMarkingNotOpen)
}
