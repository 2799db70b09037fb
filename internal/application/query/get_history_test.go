package query

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
	"github.com/coaching-hub/attendance-hub/internal/domain/statistics"
)

type fakeRecordSource struct {
	records    []statistics.Record
	err        error
	calls      int
	gotFilters statistics.HistoryFilters
}

func (f *fakeRecordSource) FetchHistory(_ context.Context, filters statistics.HistoryFilters) ([]statistics.Record, error) {
	f.calls++
	f.gotFilters = filters
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func historyRecord(id string, day int, markedAt time.Time) statistics.Record {
	return statistics.Record{
		ID:          id,
		StudentID:   "stu-1",
		StudentName: "Aarav Sharma",
		SessionID:   "ses-1",
		Subject:     "Physics",
		Batch:       "jee-2026-a",
		Date:        shared.Date{Year: 2026, Month: time.August, Day: day},
		Status:      shared.StatusPresent,
		MarkedAt:    markedAt,
		MarkedBy:    "t-101",
	}
}

func TestGetHistoryNewestFirst(t *testing.T) {
	markedEarly := time.Date(2026, time.August, 20, 10, 0, 0, 0, time.UTC)
	markedLate := time.Date(2026, time.August, 20, 12, 0, 0, 0, time.UTC)

	source := &fakeRecordSource{records: []statistics.Record{
		historyRecord("rec-1", 18, markedEarly),
		historyRecord("rec-2", 20, markedEarly),
		historyRecord("rec-3", 20, markedLate),
		historyRecord("rec-4", 19, markedEarly),
	}}
	handler := NewGetHistoryHandler(source, nil)

	result, err := handler.Handle(context.Background(), GetHistoryQuery{})
	require.NoError(t, err)
	require.Len(t, result.Records, 4)

	assert.Equal(t, "rec-3", result.Records[0].ID)
	assert.Equal(t, "rec-2", result.Records[1].ID)
	assert.Equal(t, "rec-4", result.Records[2].ID)
	assert.Equal(t, "rec-1", result.Records[3].ID)

	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 50, result.PerPage)
	assert.Equal(t, 1, result.TotalPages)
	assert.Equal(t, 4, result.Total)
}

func TestGetHistorySameDayTiebreakByID(t *testing.T) {
	marked := time.Date(2026, time.August, 20, 10, 0, 0, 0, time.UTC)
	source := &fakeRecordSource{records: []statistics.Record{
		historyRecord("rec-b", 20, marked),
		historyRecord("rec-a", 20, marked),
	}}
	handler := NewGetHistoryHandler(source, nil)

	result, err := handler.Handle(context.Background(), GetHistoryQuery{})
	require.NoError(t, err)
	assert.Equal(t, "rec-a", result.Records[0].ID)
	assert.Equal(t, "rec-b", result.Records[1].ID)
}

func TestGetHistoryPassesFiltersThrough(t *testing.T) {
	source := &fakeRecordSource{}
	handler := NewGetHistoryHandler(source, nil)

	_, err := handler.Handle(context.Background(), GetHistoryQuery{
		StudentSearch: "aarav",
		Subject:       "Physics",
		Batch:         "jee-2026-a",
		DateFrom:      "2026-08-01",
		DateTo:        "2026-08-20",
	})
	require.NoError(t, err)

	assert.Equal(t, "aarav", source.gotFilters.StudentSearch)
	assert.Equal(t, "Physics", source.gotFilters.Subject)
	assert.Equal(t, shared.Batch("jee-2026-a"), source.gotFilters.Batch)
	assert.Equal(t, shared.Date{Year: 2026, Month: time.August, Day: 1}, source.gotFilters.DateFrom)
	assert.Equal(t, shared.Date{Year: 2026, Month: time.August, Day: 20}, source.gotFilters.DateTo)
}

func TestGetHistoryPaging(t *testing.T) {
	marked := time.Date(2026, time.August, 20, 10, 0, 0, 0, time.UTC)
	records := make([]statistics.Record, 0, 5)
	for i := 0; i < 5; i++ {
		records = append(records, historyRecord(fmt.Sprintf("rec-%d", i), 20-i, marked))
	}
	source := &fakeRecordSource{records: records}
	handler := NewGetHistoryHandler(source, nil)

	result, err := handler.Handle(context.Background(), GetHistoryQuery{Page: 2, PerPage: 2})
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "rec-2", result.Records[0].ID)
	assert.Equal(t, "rec-3", result.Records[1].ID)
	assert.Equal(t, 3, result.TotalPages)
	assert.Equal(t, 5, result.Total)

	// Pages past the end come back empty, not as an error.
	result, err = handler.Handle(context.Background(), GetHistoryQuery{Page: 10, PerPage: 2})
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	assert.Equal(t, 5, result.Total)
	assert.Equal(t, 3, result.TotalPages)
}

func TestGetHistoryEmptyWindow(t *testing.T) {
	handler := NewGetHistoryHandler(&fakeRecordSource{}, nil)

	result, err := handler.Handle(context.Background(), GetHistoryQuery{})
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	assert.Equal(t, 0, result.Total)
	assert.Equal(t, 1, result.TotalPages)
}

func TestGetHistoryPerPageCapped(t *testing.T) {
	handler := NewGetHistoryHandler(&fakeRecordSource{}, nil)

	result, err := handler.Handle(context.Background(), GetHistoryQuery{PerPage: 5000})
	require.NoError(t, err)
	assert.Equal(t, 200, result.PerPage)
}

func TestGetHistoryRejectsInvalidQuery(t *testing.T) {
	source := &fakeRecordSource{}
	handler := NewGetHistoryHandler(source, nil)

	_, err := handler.Handle(context.Background(), GetHistoryQuery{DateFrom: "2026-08-20", DateTo: "2026-08-01"})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = handler.Handle(context.Background(), GetHistoryQuery{Batch: "Bad Batch!"})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidation)

	assert.Zero(t, source.calls)
}

func TestGetHistorySourceErrorPropagates(t *testing.T) {
	source := &fakeRecordSource{err: shared.NewDomainError("institute", "ListRecords", shared.ErrServiceUnavailable, "api down")}
	handler := NewGetHistoryHandler(source, nil)

	_, err := handler.Handle(context.Background(), GetHistoryQuery{})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
}
