package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
	"github.com/coaching-hub/attendance-hub/internal/domain/statistics"
	rediscache "github.com/coaching-hub/attendance-hub/internal/infrastructure/persistence/redis"
	"github.com/coaching-hub/attendance-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOW ATTENDANCE SCAN JOB
// ══════════════════════════════════════════════════════════════════════════════

// LowAttendanceScanJob finds students whose rolling attendance fell below
// the alert threshold and caches the list. Runs after the last class slot
// so the day's marking is included.
type LowAttendanceScanJob struct {
	records    statistics.RecordSource
	aggregates statistics.ServerAggregateSource
	cache      *rediscache.StatisticsCache
	publisher  shared.EventPublisher
	logger     *slog.Logger

	config LowAttendanceScanConfig
}

// LowAttendanceScanConfig configures the scan job.
type LowAttendanceScanConfig struct {
	// Threshold is the rate below which a student is flagged, in percent.
	Threshold float64

	// WindowDays is the rolling window the rates are computed over.
	WindowDays int

	// MaxAlerts caps the cached alert list (0 = unlimited).
	MaxAlerts int

	// UseServerAggregates prefers the server's alerts endpoint over a
	// local scan of raw records.
	UseServerAggregates bool

	// Timeout is the maximum duration for one scan.
	Timeout time.Duration
}

// DefaultLowAttendanceScanConfig returns sensible defaults.
func DefaultLowAttendanceScanConfig() LowAttendanceScanConfig {
	return LowAttendanceScanConfig{
		Threshold:           statistics.DefaultLowAttendanceThreshold,
		WindowDays:          30,
		MaxAlerts:           100,
		UseServerAggregates: true,
		Timeout:             2 * time.Minute,
	}
}

// NewLowAttendanceScanJob creates the scan job.
func NewLowAttendanceScanJob(
	records statistics.RecordSource,
	aggregates statistics.ServerAggregateSource,
	cache *rediscache.StatisticsCache,
	publisher shared.EventPublisher,
	logger *slog.Logger,
	config LowAttendanceScanConfig,
) *LowAttendanceScanJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Threshold <= 0 {
		config.Threshold = statistics.DefaultLowAttendanceThreshold
	}
	if config.WindowDays <= 0 {
		config.WindowDays = 30
	}

	return &LowAttendanceScanJob{
		records:    records,
		aggregates: aggregates,
		cache:      cache,
		publisher:  publisher,
		logger:     logger,
		config:     config,
	}
}

// Name returns the job name.
func (j *LowAttendanceScanJob) Name() string {
	return "low_attendance_scan"
}

// Description returns a human-readable description.
func (j *LowAttendanceScanJob) Description() string {
	return "Flags students below the attendance threshold and caches the alert list"
}

// Run executes the scan.
func (j *LowAttendanceScanJob) Run(ctx context.Context) error {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	alerts, err := j.scan(ctx)
	if err != nil {
		return err
	}

	if j.config.MaxAlerts > 0 && len(alerts) > j.config.MaxAlerts {
		alerts = alerts[:j.config.MaxAlerts]
	}

	if j.cache != nil {
		if err := j.cache.SetAlerts(ctx, j.config.Threshold, alerts); err != nil {
			j.logger.Warn("failed to cache alerts", "error", err)
		}
	}

	if len(alerts) > 0 && j.publisher != nil {
		if err := j.publisher.Publish(statistics.NewLowAttendanceEvent(j.config.Threshold, alerts)); err != nil {
			j.logger.Warn("failed to publish low attendance event", "error", err)
		}
	}

	j.logger.Info("low attendance scan completed",
		"threshold", j.config.Threshold,
		"alerts", len(alerts),
	)
	return nil
}

// scan produces the alert list, preferring the server endpoint when
// configured and falling back to a local per-student computation.
func (j *LowAttendanceScanJob) scan(ctx context.Context) ([]statistics.LowAttendanceAlert, error) {
	if j.config.UseServerAggregates && j.aggregates != nil {
		alerts, err := j.aggregates.FetchLowAttendanceAlerts(ctx, j.config.Threshold, j.config.MaxAlerts)
		if err == nil {
			return alerts, nil
		}
		j.logger.Warn("server alerts unavailable, scanning locally", "error", err)
	}

	today := shared.DateOf(timeutil.Now())
	window := shared.LastNDays(today, j.config.WindowDays)

	records, err := j.records.FetchHistory(ctx, statistics.HistoryFilters{
		DateFrom: window.From,
		DateTo:   window.To,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	rates := statistics.PerStudentRates(records)
	return statistics.ComputeLowAttendanceAlerts(rates, j.config.Threshold), nil
}
