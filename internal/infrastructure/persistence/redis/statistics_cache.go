package redis

import (
	"context"
	"time"

	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
	"github.com/coaching-hub/attendance-hub/internal/domain/statistics"
)

// StatisticsCache caches computed attendance statistics and low-attendance
// alert lists. Both are derived data, so staleness only delays a refresh
// and never corrupts marking state.
type StatisticsCache struct {
	cache    *Cache
	statsTTL time.Duration
	alertTTL time.Duration
}

// NewStatisticsCache creates a statistics cache over the shared Cache.
func NewStatisticsCache(cache *Cache, statsTTL, alertTTL time.Duration) *StatisticsCache {
	if statsTTL <= 0 {
		statsTTL = TTLStatistics
	}
	if alertTTL <= 0 {
		alertTTL = TTLAlerts
	}
	return &StatisticsCache{cache: cache, statsTTL: statsTTL, alertTTL: alertTTL}
}

// GetStatistics returns cached statistics for a date window.
// Returns ErrCacheMiss when absent.
func (sc *StatisticsCache) GetStatistics(ctx context.Context, window shared.DateRange) (*statistics.AttendanceStatistics, error) {
	var stats statistics.AttendanceStatistics
	key := StatisticsKey(window.From.String(), window.To.String())
	if err := sc.cache.Get(ctx, key, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// SetStatistics stores statistics for a date window.
func (sc *StatisticsCache) SetStatistics(ctx context.Context, window shared.DateRange, stats *statistics.AttendanceStatistics) error {
	key := StatisticsKey(window.From.String(), window.To.String())
	return sc.cache.Set(ctx, key, stats, sc.statsTTL)
}

// GetAlerts returns the cached alert list for a threshold.
// Returns ErrCacheMiss when absent.
func (sc *StatisticsCache) GetAlerts(ctx context.Context, threshold float64) ([]statistics.LowAttendanceAlert, error) {
	var alerts []statistics.LowAttendanceAlert
	if err := sc.cache.Get(ctx, AlertsKey(threshold), &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// SetAlerts stores the alert list for a threshold.
func (sc *StatisticsCache) SetAlerts(ctx context.Context, threshold float64, alerts []statistics.LowAttendanceAlert) error {
	return sc.cache.Set(ctx, AlertsKey(threshold), alerts, sc.alertTTL)
}

// Invalidate drops all cached statistics and alerts. Called after a
// marking submit commits, since new records shift every derived number.
func (sc *StatisticsCache) Invalidate(ctx context.Context) error {
	if err := sc.cache.DeleteByPattern(ctx, PrefixStatistics+"*"); err != nil {
		return err
	}
	return sc.cache.DeleteByPattern(ctx, PrefixAlerts+"*")
}
