// Package jobs contains the scheduled jobs of the attendance worker.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
	"github.com/coaching-hub/attendance-hub/internal/domain/statistics"
	rediscache "github.com/coaching-hub/attendance-hub/internal/infrastructure/persistence/redis"
	"github.com/coaching-hub/attendance-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// REFRESH STATISTICS JOB
// ══════════════════════════════════════════════════════════════════════════════

// RefreshStatisticsJob recomputes the attendance aggregate over the rolling
// window and warms the Redis cache, so the statistics view opens on warm
// data instead of waiting on the remote API.
type RefreshStatisticsJob struct {
	records    statistics.RecordSource
	aggregates statistics.ServerAggregateSource
	aggregator *statistics.Aggregator
	cache      *rediscache.StatisticsCache
	publisher  shared.EventPublisher
	logger     *slog.Logger

	config RefreshStatisticsConfig

	lastRefresh atomic.Value // *RefreshStats
}

// RefreshStatisticsConfig configures the refresh job.
type RefreshStatisticsConfig struct {
	// WindowDays is the rolling window the aggregate covers.
	WindowDays int

	// UseServerAggregates prefers the server's statistics endpoint over
	// local recomputation. Local recomputation is the fallback when the
	// endpoint errors.
	UseServerAggregates bool

	// Timeout is the maximum duration for one refresh.
	Timeout time.Duration
}

// DefaultRefreshStatisticsConfig returns sensible defaults.
func DefaultRefreshStatisticsConfig() RefreshStatisticsConfig {
	return RefreshStatisticsConfig{
		WindowDays:          90,
		UseServerAggregates: true,
		Timeout:             2 * time.Minute,
	}
}

// RefreshStats records the outcome of one refresh run.
type RefreshStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Window      shared.DateRange
	Records     int
	FromServer  bool
	Rate        float64
}

// NewRefreshStatisticsJob creates the refresh job.
func NewRefreshStatisticsJob(
	records statistics.RecordSource,
	aggregates statistics.ServerAggregateSource,
	aggregator *statistics.Aggregator,
	cache *rediscache.StatisticsCache,
	publisher shared.EventPublisher,
	logger *slog.Logger,
	config RefreshStatisticsConfig,
) *RefreshStatisticsJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.WindowDays <= 0 {
		config.WindowDays = 90
	}

	return &RefreshStatisticsJob{
		records:    records,
		aggregates: aggregates,
		aggregator: aggregator,
		cache:      cache,
		publisher:  publisher,
		logger:     logger,
		config:     config,
	}
}

// Name returns the job name.
func (j *RefreshStatisticsJob) Name() string {
	return "refresh_statistics"
}

// Description returns a human-readable description.
func (j *RefreshStatisticsJob) Description() string {
	return "Recomputes the rolling attendance aggregate and warms the statistics cache"
}

// Run executes the refresh.
func (j *RefreshStatisticsJob) Run(ctx context.Context) error {
	startedAt := time.Now()

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	today := shared.DateOf(timeutil.Now())
	window := shared.LastNDays(today, j.config.WindowDays)

	stats, recordCount, fromServer, err := j.refresh(ctx, window)
	if err != nil {
		return err
	}

	if j.cache != nil {
		if err := j.cache.SetStatistics(ctx, window, stats); err != nil {
			j.logger.Warn("failed to cache statistics", "error", err)
		}
	}

	if j.publisher != nil {
		if err := j.publisher.Publish(statistics.NewRefreshedEvent(stats)); err != nil {
			j.logger.Warn("failed to publish refresh event", "error", err)
		}
	}

	completedAt := time.Now()
	j.lastRefresh.Store(&RefreshStats{
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		Duration:    completedAt.Sub(startedAt),
		Window:      window,
		Records:     recordCount,
		FromServer:  fromServer,
		Rate:        stats.AttendanceRate,
	})

	j.logger.Info("statistics refreshed",
		"window_from", window.From.String(),
		"window_to", window.To.String(),
		"rate", stats.AttendanceRate,
		"from_server", fromServer,
		"duration", completedAt.Sub(startedAt).String(),
	)
	return nil
}

// refresh fetches the aggregate, preferring the server endpoint when
// configured and falling back to local recomputation from raw records.
func (j *RefreshStatisticsJob) refresh(ctx context.Context, window shared.DateRange) (*statistics.AttendanceStatistics, int, bool, error) {
	if j.config.UseServerAggregates && j.aggregates != nil {
		stats, err := j.aggregates.FetchStatistics(ctx, window)
		if err == nil {
			return stats, 0, true, nil
		}
		j.logger.Warn("server statistics unavailable, recomputing locally", "error", err)
	}

	records, err := j.records.FetchHistory(ctx, statistics.HistoryFilters{
		DateFrom: window.From,
		DateTo:   window.To,
	})
	if err != nil {
		return nil, 0, false, fmt.Errorf("fetch history: %w", err)
	}

	stats, err := j.aggregator.Compute(window, records)
	if err != nil {
		return nil, 0, false, fmt.Errorf("compute statistics: %w", err)
	}
	return stats, len(records), false, nil
}

// LastRefresh returns the outcome of the most recent run, or nil.
func (j *RefreshStatisticsJob) LastRefresh() *RefreshStats {
	stats := j.lastRefresh.Load()
	if stats == nil {
		return nil
	}
	return stats.(*RefreshStats)
}
