package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
	"github.com/coaching-hub/attendance-hub/internal/domain/statistics"
)

type fakeAggregateSource struct {
	stats     *statistics.AttendanceStatistics
	statsErr  error
	alerts    []statistics.LowAttendanceAlert
	alertsErr error

	statsCalls   int
	alertCalls   int
	gotWindow    shared.DateRange
	gotThreshold float64
	gotLimit     int
}

func (f *fakeAggregateSource) FetchStatistics(_ context.Context, window shared.DateRange) (*statistics.AttendanceStatistics, error) {
	f.statsCalls++
	f.gotWindow = window
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return f.stats, nil
}

func (f *fakeAggregateSource) FetchLowAttendanceAlerts(_ context.Context, threshold float64, limit int) ([]statistics.LowAttendanceAlert, error) {
	f.alertCalls++
	f.gotThreshold = threshold
	f.gotLimit = limit
	if f.alertsErr != nil {
		return nil, f.alertsErr
	}
	return f.alerts, nil
}

func statRecord(id string, studentID shared.StudentID, day int, status shared.AttendanceStatus) statistics.Record {
	return statistics.Record{
		ID:          id,
		StudentID:   studentID,
		StudentName: "Student " + string(studentID),
		SessionID:   "ses-1",
		Subject:     "Physics",
		Batch:       "jee-2026-a",
		Date:        shared.Date{Year: 2026, Month: time.August, Day: day},
		Status:      status,
		MarkedAt:    time.Date(2026, time.August, day, 12, 0, 0, 0, time.UTC),
	}
}

func serverStats(window shared.DateRange) *statistics.AttendanceStatistics {
	return &statistics.AttendanceStatistics{
		Window:         window,
		TotalClasses:   40,
		Present:        950,
		Absent:         40,
		Late:           8,
		Excused:        2,
		AttendanceRate: 95.0,
		MonthlyRate:    94.2,
		WeeklyTrend: []statistics.TrendPoint{
			{Date: window.To, Rate: 96.0},
		},
		WeekTrend:   statistics.Trend{Direction: statistics.TrendUp, Delta: 1.4},
		GeneratedAt: time.Date(2026, time.August, 20, 6, 0, 0, 0, time.UTC),
	}
}

func TestGetStatisticsPrefersServerAggregate(t *testing.T) {
	window, err := shared.NewDateRange(
		shared.Date{Year: 2026, Month: time.August, Day: 1},
		shared.Date{Year: 2026, Month: time.August, Day: 20},
	)
	require.NoError(t, err)

	records := &fakeRecordSource{}
	aggregates := &fakeAggregateSource{stats: serverStats(window)}
	handler := NewGetStatisticsHandler(records, aggregates, statistics.NewAggregator(), nil, nil)

	result, err := handler.Handle(context.Background(), GetStatisticsQuery{From: "2026-08-01", To: "2026-08-20"})
	require.NoError(t, err)

	assert.Equal(t, 1, aggregates.statsCalls)
	assert.Equal(t, window, aggregates.gotWindow)
	assert.Zero(t, records.calls)

	assert.Equal(t, "2026-08-01", result.From)
	assert.Equal(t, "2026-08-20", result.To)
	assert.Equal(t, 40, result.TotalClasses)
	assert.Equal(t, 950, result.Present)
	assert.InDelta(t, 95.0, result.AttendanceRate, 0.001)
	assert.Equal(t, "up", result.TrendDirection)
	assert.InDelta(t, 1.4, result.TrendDelta, 0.001)
	assert.False(t, result.FromCache)
}

func TestGetStatisticsFallsBackToLocalCompute(t *testing.T) {
	records := &fakeRecordSource{records: []statistics.Record{
		statRecord("rec-1", "stu-1", 19, shared.StatusPresent),
		statRecord("rec-2", "stu-2", 19, shared.StatusAbsent),
	}}
	aggregates := &fakeAggregateSource{
		statsErr: shared.NewDomainError("institute", "GetStatistics", shared.ErrServiceUnavailable, "api down"),
	}
	handler := NewGetStatisticsHandler(records, aggregates, statistics.NewAggregator(), nil, nil)

	result, err := handler.Handle(context.Background(), GetStatisticsQuery{From: "2026-08-01", To: "2026-08-20"})
	require.NoError(t, err)

	assert.Equal(t, 1, aggregates.statsCalls)
	assert.Equal(t, 1, records.calls)
	assert.Equal(t, 1, result.TotalClasses)
	assert.Equal(t, 1, result.Present)
	assert.Equal(t, 1, result.Absent)
	assert.InDelta(t, 50.0, result.AttendanceRate, 0.001)
	assert.False(t, result.FromCache)
}

func TestGetStatisticsBatchFilterSkipsServer(t *testing.T) {
	records := &fakeRecordSource{records: []statistics.Record{
		statRecord("rec-1", "stu-1", 19, shared.StatusPresent),
	}}
	aggregates := &fakeAggregateSource{}
	handler := NewGetStatisticsHandler(records, aggregates, statistics.NewAggregator(), nil, nil)

	result, err := handler.Handle(context.Background(), GetStatisticsQuery{
		From:  "2026-08-01",
		To:    "2026-08-20",
		Batch: "jee-2026-a",
	})
	require.NoError(t, err)

	// Batch-narrowed aggregates are always computed locally; the server
	// endpoint only serves the all-batches view.
	assert.Zero(t, aggregates.statsCalls)
	assert.Equal(t, shared.Batch("jee-2026-a"), records.gotFilters.Batch)
	assert.InDelta(t, 100.0, result.AttendanceRate, 0.001)
}

func TestGetStatisticsDefaultWindowIsNinetyDays(t *testing.T) {
	aggregates := &fakeAggregateSource{}
	aggregates.stats = serverStats(shared.DateRange{})
	handler := NewGetStatisticsHandler(&fakeRecordSource{}, aggregates, statistics.NewAggregator(), nil, nil)

	_, err := handler.Handle(context.Background(), GetStatisticsQuery{})
	require.NoError(t, err)

	days := 0
	for d := aggregates.gotWindow.From; !d.After(aggregates.gotWindow.To); d = d.AddDays(1) {
		days++
	}
	assert.Equal(t, 90, days)
}

func TestGetStatisticsRejectsInvalidWindow(t *testing.T) {
	handler := NewGetStatisticsHandler(&fakeRecordSource{}, &fakeAggregateSource{}, statistics.NewAggregator(), nil, nil)

	_, err := handler.Handle(context.Background(), GetStatisticsQuery{From: "2026-08-20", To: "2026-08-01"})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = handler.Handle(context.Background(), GetStatisticsQuery{From: "20/08/2026", To: "2026-08-21"})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestGetStatisticsRecordErrorPropagates(t *testing.T) {
	records := &fakeRecordSource{err: shared.NewDomainError("institute", "ListRecords", shared.ErrNetwork, "connection reset")}
	handler := NewGetStatisticsHandler(records, nil, statistics.NewAggregator(), nil, nil)

	_, err := handler.Handle(context.Background(), GetStatisticsQuery{From: "2026-08-01", To: "2026-08-20"})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrNetwork)
}
