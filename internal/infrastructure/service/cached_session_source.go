package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/coaching-hub/attendance-hub/internal/domain/session"
	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
	rediscache "github.com/coaching-hub/attendance-hub/internal/infrastructure/persistence/redis"
)

// CachedSessionSource wraps a session.Source with a Redis read-through
// cache. The remote API stays authoritative: cache failures degrade to a
// direct load and are logged, never surfaced to the caller. Scheduled
// (future) loads bypass the cache entirely since they are rare and cheap.
type CachedSessionSource struct {
	source session.Source
	cache  *rediscache.SessionCache
	logger *slog.Logger
}

// NewCachedSessionSource creates a cached wrapper over a session source.
func NewCachedSessionSource(source session.Source, cache *rediscache.SessionCache, logger *slog.Logger) *CachedSessionSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSessionSource{source: source, cache: cache, logger: logger}
}

// LoadForDate returns the cached session list for the date when present,
// otherwise loads from the source and fills the cache.
func (c *CachedSessionSource) LoadForDate(ctx context.Context, date shared.Date, filters session.Filters) ([]*session.ClassSession, error) {
	if c.cache != nil {
		sessions, err := c.cache.GetSessions(ctx, date, filters)
		if err == nil {
			return sessions, nil
		}
		if !errors.Is(err, rediscache.ErrCacheMiss) {
			c.logger.Warn("session cache read failed, loading direct",
				slog.String("date", date.String()),
				slog.String("error", err.Error()))
		}
	}

	sessions, err := c.source.LoadForDate(ctx, date, filters)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.SetSessions(ctx, date, filters, sessions); err != nil {
			c.logger.Warn("session cache write failed",
				slog.String("date", date.String()),
				slog.String("error", err.Error()))
		}
	}
	return sessions, nil
}

// LoadScheduled fetches future scheduled sessions, always from the source.
func (c *CachedSessionSource) LoadScheduled(ctx context.Context, date shared.Date, filters session.Filters) ([]*session.ClassSession, error) {
	return c.source.LoadScheduled(ctx, date, filters)
}

// InvalidateDate drops all cached entries for a date. Called after a
// marking submit commits so the next load sees fresh summaries.
func (c *CachedSessionSource) InvalidateDate(ctx context.Context, date shared.Date) {
	if c.cache == nil {
		return
	}
	if err := c.cache.InvalidateDate(ctx, date); err != nil {
		c.logger.Warn("session cache invalidation failed",
			slog.String("date", date.String()),
			slog.String("error", err.Error()))
	}
}
