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
// GET STATISTICS QUERY
// Produces the attendance aggregate for a window. Resolution order: warm
// Redis cache, then the server's statistics endpoint, then local
// recomputation from raw records. The server owns the official numbers;
// local computation is the degraded path.
// ══════════════════════════════════════════════════════════════════════════════

// GetStatisticsQuery contains the parameters for a statistics load.
type GetStatisticsQuery struct {
	// From and To bound the window, "2006-01-02". Both empty defaults to
	// the trailing 90 days.
	From string
	To   string

	// Batch narrows local recomputation to one batch. Ignored on the
	// cached and server paths, which aggregate across all batches.
	Batch string

	// SkipCache forces a fresh load.
	SkipCache bool

	window shared.DateRange
	batch  shared.Batch
}

// Validate checks and normalizes the parameters.
func (q *GetStatisticsQuery) Validate() error {
	q.batch = shared.Batch(q.Batch)
	if !q.batch.IsValid() {
		return shared.NewDomainError("query", "GetStatistics", shared.ErrValidation, "invalid batch tag")
	}

	if q.From == "" && q.To == "" {
		today := shared.DateOf(timeutil.Now())
		q.window = shared.LastNDays(today, 90)
		return nil
	}

	from, err := shared.ParseDate(q.From)
	if err != nil {
		return err
	}
	to, err := shared.ParseDate(q.To)
	if err != nil {
		return err
	}
	window, err := shared.NewDateRange(from, to)
	if err != nil {
		return err
	}
	q.window = window
	return nil
}

// TrendPointDTO is one day's rate on the weekly chart.
type TrendPointDTO struct {
	Date string  `json:"date"`
	Rate float64 `json:"rate"`
}

// GetStatisticsResult contains the aggregate for display.
type GetStatisticsResult struct {
	// From and To echo the window, "2006-01-02".
	From string `json:"from"`
	To   string `json:"to"`

	// TotalClasses is the distinct session count in the window.
	TotalClasses int `json:"total_classes"`

	// Present, Absent, Late and Excused are decision counts.
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
	Excused int `json:"excused"`

	// AttendanceRate is the window-wide rate, percent.
	AttendanceRate float64 `json:"attendance_rate"`

	// MonthlyRate covers the trailing 30 days of the window.
	MonthlyRate float64 `json:"monthly_rate"`

	// WeeklyTrend is one point per day over the trailing 7 days.
	WeeklyTrend []TrendPointDTO `json:"weekly_trend"`

	// TrendDirection compares this week's rate with the prior week's:
	// "up", "down" or "stable". TrendDelta is the signed difference.
	TrendDirection string  `json:"trend_direction"`
	TrendDelta     float64 `json:"trend_delta"`

	// FromCache reports whether the result came from the warm cache.
	FromCache bool `json:"from_cache"`

	// GeneratedAt is when the aggregate was computed.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetStatisticsHandler handles statistics loads.
type GetStatisticsHandler struct {
	records    statistics.RecordSource
	aggregates statistics.ServerAggregateSource
	aggregator *statistics.Aggregator
	cache      *rediscache.StatisticsCache
	logger     *slog.Logger
}

// NewGetStatisticsHandler creates the handler.
func NewGetStatisticsHandler(
	records statistics.RecordSource,
	aggregates statistics.ServerAggregateSource,
	aggregator *statistics.Aggregator,
	cache *rediscache.StatisticsCache,
	logger *slog.Logger,
) *GetStatisticsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetStatisticsHandler{
		records:    records,
		aggregates: aggregates,
		aggregator: aggregator,
		cache:      cache,
		logger:     logger,
	}
}

// Handle executes the query.
func (h *GetStatisticsHandler) Handle(ctx context.Context, query GetStatisticsQuery) (*GetStatisticsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetStatistics", shared.ErrValidation, "invalid query", err)
	}

	if !query.SkipCache && !query.batch.IsFiltered() && h.cache != nil {
		stats, err := h.cache.GetStatistics(ctx, query.window)
		if err == nil {
			return buildStatisticsResult(stats, true), nil
		}
	}

	if h.aggregates != nil && !query.batch.IsFiltered() {
		stats, err := h.aggregates.FetchStatistics(ctx, query.window)
		if err == nil {
			h.cacheStatistics(ctx, query.window, stats)
			return buildStatisticsResult(stats, false), nil
		}
		h.logger.Warn("server statistics unavailable, recomputing locally", "error", err)
	}

	records, err := h.records.FetchHistory(ctx, statistics.HistoryFilters{
		Batch:    query.batch,
		DateFrom: query.window.From,
		DateTo:   query.window.To,
	})
	if err != nil {
		return nil, err
	}

	stats, err := h.aggregator.Compute(query.window, records)
	if err != nil {
		return nil, err
	}
	if !query.batch.IsFiltered() {
		h.cacheStatistics(ctx, query.window, stats)
	}
	return buildStatisticsResult(stats, false), nil
}

// cacheStatistics best-effort warms the cache.
func (h *GetStatisticsHandler) cacheStatistics(ctx context.Context, window shared.DateRange, stats *statistics.AttendanceStatistics) {
	if h.cache == nil {
		return
	}
	if err := h.cache.SetStatistics(ctx, window, stats); err != nil {
		h.logger.Warn("failed to cache statistics", "error", err)
	}
}

// buildStatisticsResult converts the aggregate to its display form.
func buildStatisticsResult(stats *statistics.AttendanceStatistics, fromCache bool) *GetStatisticsResult {
	trend := make([]TrendPointDTO, 0, len(stats.WeeklyTrend))
	for _, p := range stats.WeeklyTrend {
		trend = append(trend, TrendPointDTO{Date: p.Date.String(), Rate: p.Rate})
	}

	return &GetStatisticsResult{
		From:           stats.Window.From.String(),
		To:             stats.Window.To.String(),
		TotalClasses:   stats.TotalClasses,
		Present:        stats.Present,
		Absent:         stats.Absent,
		Late:           stats.Late,
		Excused:        stats.Excused,
		AttendanceRate: stats.AttendanceRate,
		MonthlyRate:    stats.MonthlyRate,
		WeeklyTrend:    trend,
		TrendDirection: string(stats.WeekTrend.Direction),
		TrendDelta:     stats.WeekTrend.Delta,
		FromCache:      fromCache,
		GeneratedAt:    stats.GeneratedAt,
	}
}
