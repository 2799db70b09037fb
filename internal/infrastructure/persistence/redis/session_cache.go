package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/coaching-hub/attendance-hub/internal/domain/session"
	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
)

// SessionCache caches per-day class session lists. Entries are keyed by
// date plus a filter fingerprint, so "today, physics only" and "today,
// everything" never collide. A committed submit invalidates the whole day
// rather than patching one entry: summaries come back from the server on
// the next load.
type SessionCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewSessionCache creates a session cache over the shared Cache.
func NewSessionCache(cache *Cache, ttl time.Duration) *SessionCache {
	if ttl <= 0 {
		ttl = TTLSessions
	}
	return &SessionCache{cache: cache, ttl: ttl}
}

// GetSessions returns the cached session list for a date and filter set.
// Returns ErrCacheMiss when absent.
func (sc *SessionCache) GetSessions(ctx context.Context, date shared.Date, filters session.Filters) ([]*session.ClassSession, error) {
	var sessions []*session.ClassSession
	key := SessionsKey(date.String(), filterFingerprint(filters))
	if err := sc.cache.Get(ctx, key, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// SetSessions stores the session list for a date and filter set.
func (sc *SessionCache) SetSessions(ctx context.Context, date shared.Date, filters session.Filters, sessions []*session.ClassSession) error {
	key := SessionsKey(date.String(), filterFingerprint(filters))
	return sc.cache.Set(ctx, key, sessions, sc.ttl)
}

// InvalidateDate drops every cached entry for a date, all filter
// variants included.
func (sc *SessionCache) InvalidateDate(ctx context.Context, date shared.Date) error {
	return sc.cache.DeleteByPattern(ctx, PrefixSessions+date.String()+"*")
}

// filterFingerprint renders a filter set as a stable key fragment.
func filterFingerprint(f session.Filters) string {
	if f.Subject == "" && !f.Batch.IsFiltered() && !f.OnlyUnmarked {
		return ""
	}
	return fmt.Sprintf("s=%s:b=%s:u=%t", f.Subject, f.Batch, f.OnlyUnmarked)
}
