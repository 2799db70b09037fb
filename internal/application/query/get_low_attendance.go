package query

import (
	"context"
	"log/slog"
	"time"

	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
	"github.com/coaching-hub/attendance-hub/internal/domain/statistics"
	rediscache "github.com/coaching-hub/attendance-hub/internal/infrastructure/persistence/redis"
	"github.com/coaching-hub/attendance-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LOW ATTENDANCE QUERY
// Lists students whose rolling attendance fell below the threshold, most
// urgent first. Same resolution order as statistics: cache, server, local.
// ══════════════════════════════════════════════════════════════════════════════

// GetLowAttendanceQuery contains the parameters for an alert load.
type GetLowAttendanceQuery struct {
	// Threshold is the rate below which a student is flagged, percent
	// (0 = default threshold).
	Threshold float64

	// Limit caps the returned list (0 = default 100).
	Limit int

	// WindowDays is the rolling window for local computation (0 = 30).
	WindowDays int

	// SkipCache forces a fresh load.
	SkipCache bool
}

// Validate checks and normalizes the parameters.
func (q *GetLowAttendanceQuery) Validate() error {
	if q.Threshold == 0 {
		q.Threshold = statistics.DefaultLowAttendanceThreshold
	}
	if q.Threshold < 0 || q.Threshold > 100 {
		return shared.ErrInvalidThreshold
	}
	if q.Limit <= 0 {
		q.Limit = 100
	}
	if q.WindowDays <= 0 {
		q.WindowDays = 30
	}
	return nil
}

// AlertDTO is one flagged student for display.
type AlertDTO struct {
	// StudentID and StudentName identify the student.
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`

	// Rate is the student's rolling attendance rate, percent.
	Rate float64 `json:"rate"`

	// DaysAbsent counts absences inside the window.
	DaysAbsent int `json:"days_absent"`
}

// GetLowAttendanceResult contains the alert list.
type GetLowAttendanceResult struct {
	// Threshold echoes the applied threshold.
	Threshold float64 `json:"threshold"`

	// Alerts ordered by rate ascending, most urgent first.
	Alerts []AlertDTO `json:"alerts"`

	// FromCache reports whether the list came from the warm cache.
	FromCache bool `json:"from_cache"`

	// GeneratedAt is when the result was built.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetLowAttendanceHandler handles alert loads.
type GetLowAttendanceHandler struct {
	records    statistics.RecordSource
	aggregates statistics.ServerAggregateSource
	cache      *rediscache.StatisticsCache
	logger     *slog.Logger
}

// NewGetLowAttendanceHandler creates the handler.
func NewGetLowAttendanceHandler(
	records statistics.RecordSource,
	aggregates statistics.ServerAggregateSource,
	cache *rediscache.StatisticsCache,
	logger *slog.Logger,
) *GetLowAttendanceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetLowAttendanceHandler{
		records:    records,
		aggregates: aggregates,
		cache:      cache,
		logger:     logger,
	}
}

// Handle executes the query.
func (h *GetLowAttendanceHandler) Handle(ctx context.Context, query GetLowAttendanceQuery) (*GetLowAttendanceResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	if !query.SkipCache && h.cache != nil {
		alerts, err := h.cache.GetAlerts(ctx, query.Threshold)
		if err == nil {
			return buildAlertsResult(query.Threshold, alerts, query.Limit, true), nil
		}
	}

	if h.aggregates != nil {
		alerts, err := h.aggregates.FetchLowAttendanceAlerts(ctx, query.Threshold, query.Limit)
		if err == nil {
			return buildAlertsResult(query.Threshold, alerts, query.Limit, false), nil
		}
		h.logger.Warn("server alerts unavailable, scanning locally", "error", err)
	}

	today := shared.DateOf(timeutil.Now())
	window := shared.LastNDays(today, query.WindowDays)
	records, err := h.records.FetchHistory(ctx, statistics.HistoryFilters{
		DateFrom: window.From,
		DateTo:   window.To,
	})
	if err != nil {
		return nil, err
	}

	rates := statistics.PerStudentRates(records)
	alerts := statistics.ComputeLowAttendanceAlerts(rates, query.Threshold)
	return buildAlertsResult(query.Threshold, alerts, query.Limit, false), nil
}

// buildAlertsResult converts alerts to their display form.
func buildAlertsResult(threshold float64, alerts []statistics.LowAttendanceAlert, limit int, fromCache bool) *GetLowAttendanceResult {
	if limit > 0 && len(alerts) > limit {
		alerts = alerts[:limit]
	}
	items := make([]AlertDTO, 0, len(alerts))
	for _, a := range alerts {
		items = append(items, AlertDTO{
			StudentID:   a.StudentID.String(),
			StudentName: a.DisplayName,
			Rate:        a.Rate,
			DaysAbsent:  a.DaysAbsent,
		})
	}
	return &GetLowAttendanceResult{
		Threshold:   threshold,
		Alerts:      items,
		FromCache:   fromCache,
		GeneratedAt: time.Now().UTC(),
	}
}
