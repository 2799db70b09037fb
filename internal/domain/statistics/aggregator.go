package statistics

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
)

// DefaultLowAttendanceThreshold is the rate below which a student is
// flagged, in percent.
const DefaultLowAttendanceThreshold = 75.0

// ══════════════════════════════════════════════════════════════════════════════
// RATE
// ══════════════════════════════════════════════════════════════════════════════

// ComputeRate returns present/total as a percentage, rounded half-up to one
// decimal. A zero total yields a defined rate of 0 — empty date ranges are a
// normal occurrence (a newly created batch has no history) and must not
// produce NaN or an error.
func ComputeRate(present, total int) float64 {
	if total <= 0 || present <= 0 {
		return 0
	}
	rate := float64(present) / float64(total) * 100
	return math.Round(rate*10) / 10
}

// ══════════════════════════════════════════════════════════════════════════════
// TREND
// ══════════════════════════════════════════════════════════════════════════════

// TrendDirection is the direction of change between two period rates.
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// Trend compares the most recent period's rate to the prior period's. It is
// never stored independently of the two rates it compares.
type Trend struct {
	Direction TrendDirection
	Delta     float64
}

// ComputeTrend derives the direction from two consecutive period rates.
// Stable only when the rates are exactly equal. Direction is never inferred
// from a single data point — the caller must supply both periods.
func ComputeTrend(currentRate, priorRate float64) Trend {
	delta := math.Round((currentRate-priorRate)*10) / 10
	switch {
	case delta > 0:
		return Trend{Direction: TrendUp, Delta: delta}
	case delta < 0:
		return Trend{Direction: TrendDown, Delta: delta}
	default:
		return Trend{Direction: TrendStable, Delta: 0}
	}
}

// TrendPoint is one day's rate within a trend window.
type TrendPoint struct {
	Date shared.Date
	Rate float64
}

// ComputeWeeklyTrend produces one point per day of the window in
// chronological order. Days with zero classes get rate 0 rather than being
// omitted, so charts keep a continuous axis.
func ComputeWeeklyTrend(window shared.DateRange, recordsByDay map[shared.Date][]Record) []TrendPoint {
	days := window.Days()
	points := make([]TrendPoint, 0, len(days))
	for _, day := range days {
		present, total := tally(recordsByDay[day])
		points = append(points, TrendPoint{Date: day, Rate: ComputeRate(present, total)})
	}
	return points
}

// tally counts present-equivalent and markable decisions in a record set.
func tally(records []Record) (present, total int) {
	for _, r := range records {
		total++
		if r.Status.CountsAsPresent() {
			present++
		}
	}
	return present, total
}

// ══════════════════════════════════════════════════════════════════════════════
// LOW ATTENDANCE ALERTS
// ══════════════════════════════════════════════════════════════════════════════

// StudentRate is one student's rolling attendance within a window.
type StudentRate struct {
	StudentID   shared.StudentID
	DisplayName string
	Rate        float64
	DaysAbsent  int
	TotalDays   int
}

// LowAttendanceAlert flags a student whose rolling rate fell below the
// threshold. Alerts are recomputed on each statistics refresh and never
// persisted by this core.
type LowAttendanceAlert struct {
	StudentID   shared.StudentID
	DisplayName string
	Rate        float64
	DaysAbsent  int
}

// PerStudentRates groups a record window by student and computes each
// student's rate and absence count.
func PerStudentRates(records []Record) []StudentRate {
	type acc struct {
		name    string
		present int
		absent  int
		total   int
	}
	byStudent := make(map[shared.StudentID]*acc)
	for _, r := range records {
		a, ok := byStudent[r.StudentID]
		if !ok {
			a = &acc{name: r.StudentName}
			byStudent[r.StudentID] = a
		}
		a.total++
		if r.Status.CountsAsPresent() {
			a.present++
		}
		if r.Status == shared.StatusAbsent {
			a.absent++
		}
	}

	rates := make([]StudentRate, 0, len(byStudent))
	for id, a := range byStudent {
		rates = append(rates, StudentRate{
			StudentID:   id,
			DisplayName: a.name,
			Rate:        ComputeRate(a.present, a.total),
			DaysAbsent:  a.absent,
			TotalDays:   a.total,
		})
	}

	// Deterministic order for downstream consumers and tests.
	sort.Slice(rates, func(i, j int) bool {
		if rates[i].DisplayName != rates[j].DisplayName {
			return rates[i].DisplayName < rates[j].DisplayName
		}
		return rates[i].StudentID < rates[j].StudentID
	})
	return rates
}

// ComputeLowAttendanceAlerts returns an alert for every student whose rate
// is strictly below the threshold, ordered ascending by rate so the most
// urgent cases surface first, display name as tiebreak.
func ComputeLowAttendanceAlerts(rates []StudentRate, threshold float64) []LowAttendanceAlert {
	if threshold <= 0 {
		threshold = DefaultLowAttendanceThreshold
	}
	alerts := make([]LowAttendanceAlert, 0)
	for _, r := range rates {
		if r.Rate >= threshold {
			continue
		}
		alerts = append(alerts, LowAttendanceAlert{
			StudentID:   r.StudentID,
			DisplayName: r.DisplayName,
			Rate:        r.Rate,
			DaysAbsent:  r.DaysAbsent,
		})
	}
	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].Rate != alerts[j].Rate {
			return alerts[i].Rate < alerts[j].Rate
		}
		return alerts[i].DisplayName < alerts[j].DisplayName
	})
	return alerts
}

// ══════════════════════════════════════════════════════════════════════════════
// AGGREGATE
// ══════════════════════════════════════════════════════════════════════════════

// AttendanceStatistics is a computed, non-persisted aggregate over a window
// of records.
type AttendanceStatistics struct {
	Window       shared.DateRange
	TotalClasses int
	Present      int
	Absent       int
	Late         int
	Excused      int

	// AttendanceRate is present over total markable decisions, percent.
	AttendanceRate float64

	// MonthlyRate covers only the trailing 30 days of the window.
	MonthlyRate float64

	// WeeklyTrend is one point per day over the trailing 7 days.
	WeeklyTrend []TrendPoint

	// WeekTrend compares this week's rate with the prior week's.
	WeekTrend Trend

	GeneratedAt time.Time
}

// Aggregator computes statistics over record windows. Its only state is the
// most recent result, kept as a display cache.
type Aggregator struct {
	mu   sync.RWMutex
	last *AttendanceStatistics
}

// NewAggregator creates an Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Compute derives the full aggregate for a window of records. The window
// end anchors the trailing weekly and monthly sub-windows.
func (a *Aggregator) Compute(window shared.DateRange, records []Record) (*AttendanceStatistics, error) {
	if !window.IsValid() {
		return nil, shared.ErrInvalidDateWindow
	}

	byDay := GroupByDay(records)
	sessions := make(map[shared.SessionID]struct{})

	stats := &AttendanceStatistics{
		Window:      window,
		GeneratedAt: time.Now().UTC(),
	}
	for _, r := range records {
		sessions[r.SessionID] = struct{}{}
		switch r.Status {
		case shared.StatusPresent:
			stats.Present++
		case shared.StatusAbsent:
			stats.Absent++
		case shared.StatusLate:
			stats.Late++
		case shared.StatusExcused:
			stats.Excused++
		}
	}
	stats.TotalClasses = len(sessions)
	stats.AttendanceRate = ComputeRate(stats.Present, len(records))

	monthWindow := shared.LastNDays(window.To, 30)
	monthPresent, monthTotal := tallyWindow(monthWindow, byDay)
	stats.MonthlyRate = ComputeRate(monthPresent, monthTotal)

	weekWindow := shared.LastNDays(window.To, 7)
	stats.WeeklyTrend = ComputeWeeklyTrend(weekWindow, byDay)

	priorWeek := shared.LastNDays(weekWindow.From.AddDays(-1), 7)
	weekPresent, weekTotal := tallyWindow(weekWindow, byDay)
	priorPresent, priorTotal := tallyWindow(priorWeek, byDay)
	stats.WeekTrend = ComputeTrend(ComputeRate(weekPresent, weekTotal), ComputeRate(priorPresent, priorTotal))

	a.mu.Lock()
	a.last = stats
	a.mu.Unlock()
	return stats, nil
}

// Last returns the most recently computed result, or nil. Treat it as a
// cache: a view may show it while a refresh is outstanding, but it never
// overrides a fresh computation.
func (a *Aggregator) Last() *AttendanceStatistics {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// tallyWindow counts present and total decisions falling inside a window.
func tallyWindow(window shared.DateRange, byDay map[shared.Date][]Record) (present, total int) {
	for day, records := range byDay {
		if !window.Contains(day) {
			continue
		}
		p, t := tally(records)
		present += p
		total += t
	}
	return present, total
}
