package statistics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
)

func day(d int) shared.Date {
	return shared.Date{Year: 2026, Month: time.August, Day: d}
}

// record builds a minimal valid record for aggregate tests.
func record(id string, studentID shared.StudentID, name string, sessionID shared.SessionID, date shared.Date, status shared.AttendanceStatus) Record {
	return Record{
		ID:          id,
		StudentID:   studentID,
		StudentName: name,
		SessionID:   sessionID,
		Subject:     "Physics",
		Batch:       "jee-2026-a",
		Date:        date,
		Status:      status,
		MarkedAt:    date.Time(time.UTC).Add(10 * time.Hour),
		MarkedBy:    "tch-01",
	}
}

func TestComputeRate(t *testing.T) {
	assert.Equal(t, 0.0, ComputeRate(0, 0))
	assert.Equal(t, 0.0, ComputeRate(0, 10))
	assert.Equal(t, 50.0, ComputeRate(5, 10))
	assert.Equal(t, 100.0, ComputeRate(10, 10))
	assert.Equal(t, 33.3, ComputeRate(1, 3))
	assert.Equal(t, 66.7, ComputeRate(2, 3))
}

func TestComputeTrend(t *testing.T) {
	up := ComputeTrend(80.0, 75.5)
	assert.Equal(t, TrendUp, up.Direction)
	assert.Equal(t, 4.5, up.Delta)

	down := ComputeTrend(70.0, 82.0)
	assert.Equal(t, TrendDown, down.Direction)
	assert.Equal(t, -12.0, down.Delta)

	stable := ComputeTrend(75.0, 75.0)
	assert.Equal(t, TrendStable, stable.Direction)
	assert.Equal(t, 0.0, stable.Delta)
}

func TestComputeWeeklyTrendKeepsEmptyDays(t *testing.T) {
	window := shared.DateRange{From: day(1), To: day(7)}
	byDay := map[shared.Date][]Record{
		day(1): {
			record("r1", "s1", "Aarav", "ses-1", day(1), shared.StatusPresent),
			record("r2", "s2", "Diya", "ses-1", day(1), shared.StatusAbsent),
		},
		// Days 2..6 had no classes.
		day(7): {
			record("r3", "s1", "Aarav", "ses-2", day(7), shared.StatusPresent),
		},
	}

	points := ComputeWeeklyTrend(window, byDay)
	require.Len(t, points, 7)

	assert.Equal(t, day(1), points[0].Date)
	assert.Equal(t, 50.0, points[0].Rate)
	for i := 1; i < 6; i++ {
		assert.Equal(t, 0.0, points[i].Rate)
	}
	assert.Equal(t, day(7), points[6].Date)
	assert.Equal(t, 100.0, points[6].Rate)
}

func TestPerStudentRates(t *testing.T) {
	records := []Record{
		record("r1", "s1", "Aarav", "ses-1", day(1), shared.StatusPresent),
		record("r2", "s1", "Aarav", "ses-2", day(2), shared.StatusAbsent),
		record("r3", "s1", "Aarav", "ses-3", day(3), shared.StatusLate),
		record("r4", "s2", "Diya", "ses-1", day(1), shared.StatusPresent),
		record("r5", "s2", "Diya", "ses-2", day(2), shared.StatusPresent),
	}

	rates := PerStudentRates(records)
	require.Len(t, rates, 2)

	// Deterministic ordering by display name.
	assert.Equal(t, shared.StudentID("s1"), rates[0].StudentID)
	assert.Equal(t, "Aarav", rates[0].DisplayName)
	// Late does not count toward the rate numerator.
	assert.Equal(t, 33.3, rates[0].Rate)
	assert.Equal(t, 1, rates[0].DaysAbsent)
	assert.Equal(t, 3, rates[0].TotalDays)

	assert.Equal(t, shared.StudentID("s2"), rates[1].StudentID)
	assert.Equal(t, 100.0, rates[1].Rate)
	assert.Equal(t, 0, rates[1].DaysAbsent)
}

func TestComputeLowAttendanceAlerts(t *testing.T) {
	rates := []StudentRate{
		{StudentID: "s1", DisplayName: "Aarav", Rate: 74.9, DaysAbsent: 5},
		{StudentID: "s2", DisplayName: "Diya", Rate: 75.0, DaysAbsent: 4},
		{StudentID: "s3", DisplayName: "Ishaan", Rate: 40.0, DaysAbsent: 12},
		{StudentID: "s4", DisplayName: "Meera", Rate: 90.0, DaysAbsent: 1},
	}

	alerts := ComputeLowAttendanceAlerts(rates, 75.0)
	require.Len(t, alerts, 2)

	// Ascending by rate so the most urgent cases surface first. Exactly
	// the threshold is not flagged.
	assert.Equal(t, shared.StudentID("s3"), alerts[0].StudentID)
	assert.Equal(t, 40.0, alerts[0].Rate)
	assert.Equal(t, shared.StudentID("s1"), alerts[1].StudentID)
	assert.Equal(t, 74.9, alerts[1].Rate)
}

func TestComputeLowAttendanceAlertsDefaultThreshold(t *testing.T) {
	rates := []StudentRate{
		{StudentID: "s1", DisplayName: "Aarav", Rate: 60.0},
	}
	alerts := ComputeLowAttendanceAlerts(rates, 0)
	require.Len(t, alerts, 1)
	assert.Equal(t, shared.StudentID("s1"), alerts[0].StudentID)
}

func TestAggregatorCompute(t *testing.T) {
	window := shared.DateRange{From: day(1), To: day(10)}
	records := []Record{
		record("r1", "s1", "Aarav", "ses-1", day(2), shared.StatusPresent),
		record("r2", "s2", "Diya", "ses-1", day(2), shared.StatusAbsent),
		record("r3", "s1", "Aarav", "ses-2", day(5), shared.StatusLate),
		record("r4", "s2", "Diya", "ses-2", day(5), shared.StatusPresent),
		record("r5", "s1", "Aarav", "ses-3", day(9), shared.StatusExcused),
		record("r6", "s2", "Diya", "ses-3", day(9), shared.StatusPresent),
	}

	agg := NewAggregator()
	stats, err := agg.Compute(window, records)
	require.NoError(t, err)
	require.NotNil(t, stats)

	assert.Equal(t, 3, stats.TotalClasses)
	assert.Equal(t, 3, stats.Present)
	assert.Equal(t, 1, stats.Absent)
	assert.Equal(t, 1, stats.Late)
	assert.Equal(t, 1, stats.Excused)
	assert.Equal(t, 50.0, stats.AttendanceRate)
	assert.Len(t, stats.WeeklyTrend, 7)
	assert.False(t, stats.GeneratedAt.IsZero())

	assert.Same(t, stats, agg.Last())
}

func TestAggregatorComputeEmptyWindow(t *testing.T) {
	agg := NewAggregator()
	stats, err := agg.Compute(shared.DateRange{From: day(1), To: day(7)}, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.TotalClasses)
	assert.Equal(t, 0.0, stats.AttendanceRate)
	assert.Equal(t, 0.0, stats.MonthlyRate)
	assert.Equal(t, TrendStable, stats.WeekTrend.Direction)
}

func TestAggregatorComputeInvalidWindow(t *testing.T) {
	agg := NewAggregator()
	_, err := agg.Compute(shared.DateRange{From: day(10), To: day(1)}, nil)
	assert.ErrorIs(t, err, shared.ErrInvalidDateWindow)
}

func TestAggregatorWeekTrend(t *testing.T) {
	// Window ends day 14; this week is days 8-14, prior week 1-7.
	window := shared.DateRange{From: day(1), To: day(14)}
	records := []Record{
		// Prior week: 1 of 2 present.
		record("r1", "s1", "Aarav", "ses-1", day(3), shared.StatusPresent),
		record("r2", "s2", "Diya", "ses-1", day(3), shared.StatusAbsent),
		// This week: 2 of 2 present.
		record("r3", "s1", "Aarav", "ses-2", day(10), shared.StatusPresent),
		record("r4", "s2", "Diya", "ses-2", day(10), shared.StatusPresent),
	}

	agg := NewAggregator()
	stats, err := agg.Compute(window, records)
	require.NoError(t, err)

	assert.Equal(t, TrendUp, stats.WeekTrend.Direction)
	assert.Equal(t, 50.0, stats.WeekTrend.Delta)
}

func TestGroupByDay(t *testing.T) {
	records := []Record{
		record("r1", "s1", "Aarav", "ses-1", day(2), shared.StatusPresent),
		record("r2", "s2", "Diya", "ses-1", day(2), shared.StatusAbsent),
		record("r3", "s1", "Aarav", "ses-2", day(5), shared.StatusPresent),
	}
	byDay := GroupByDay(records)
	assert.Len(t, byDay, 2)
	assert.Len(t, byDay[day(2)], 2)
	assert.Len(t, byDay[day(5)], 1)
}
