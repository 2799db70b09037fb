package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/coaching-hub/attendance-hub/internal/domain/marking"
	"github.com/coaching-hub/attendance-hub/internal/domain/session"
	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT MARKING COMMAND
// Submits the finalized decision set of an open marking session. On
// success the catalog summary is updated and derived caches are dropped;
// on failure the decisions stay editable for a retry.
// ══════════════════════════════════════════════════════════════════════════════

// SessionCacheInvalidator drops cached session lists for a date after a
// submit commits.
type SessionCacheInvalidator interface {
	InvalidateDate(ctx context.Context, date shared.Date)
}

// StatisticsCacheInvalidator drops cached statistics and alerts after new
// records shift the derived numbers.
type StatisticsCacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// SubmitMarkingResult contains the committed outcome.
type SubmitMarkingResult struct {
	// SessionID echoes the class session.
	SessionID string `json:"session_id"`

	// Present, Absent, Late and Excused are the committed counts.
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
	Excused int `json:"excused"`

	// CommittedAt is when the submit resolved.
	CommittedAt time.Time `json:"committed_at"`
}

// SubmitMarkingHandler handles marking submits.
type SubmitMarkingHandler struct {
	catalog      *session.Catalog
	publisher    shared.EventPublisher
	sessionCache SessionCacheInvalidator
	statsCache   StatisticsCacheInvalidator
	logger       *slog.Logger
}

// NewSubmitMarkingHandler creates the handler. Both cache invalidators
// may be nil when Redis is not configured.
func NewSubmitMarkingHandler(
	catalog *session.Catalog,
	publisher shared.EventPublisher,
	sessionCache SessionCacheInvalidator,
	statsCache StatisticsCacheInvalidator,
	logger *slog.Logger,
) *SubmitMarkingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmitMarkingHandler{
		catalog:      catalog,
		publisher:    publisher,
		sessionCache: sessionCache,
		statsCache:   statsCache,
		logger:       logger,
	}
}

// Handle submits the engine's decisions. The engine enforces the state
// machine; this handler owns the post-commit fan-out.
func (h *SubmitMarkingHandler) Handle(ctx context.Context, engine *marking.Engine) (*SubmitMarkingResult, error) {
	if engine == nil {
		return nil, shared.ErrMarkingNotOpen
	}

	sess := engine.Session()

	result, err := engine.Submit(ctx)
	if err != nil {
		if h.publisher != nil && sess != nil {
			if pubErr := h.publisher.Publish(marking.NewFailedEvent(sess.ID, err.Error())); pubErr != nil {
				h.logger.Warn("failed to publish marking failed event", "error", pubErr)
			}
		}
		return nil, err
	}

	// The catalog write happens before the event so a subscriber reading
	// the catalog always sees the committed summary.
	if err := h.catalog.ApplySummary(result.SessionID, result.Summary, result.Statuses); err != nil {
		h.logger.Warn("committed summary could not be applied to catalog",
			"session_id", result.SessionID.String(),
			"error", err,
		)
	}

	if h.publisher != nil {
		if err := h.publisher.Publish(marking.NewCommittedEvent(result)); err != nil {
			h.logger.Warn("failed to publish marking committed event", "error", err)
		}
	}

	if sess != nil && h.sessionCache != nil {
		h.sessionCache.InvalidateDate(ctx, sess.Date)
	}
	if h.statsCache != nil {
		if err := h.statsCache.Invalidate(ctx); err != nil {
			h.logger.Warn("failed to invalidate statistics cache", "error", err)
		}
	}

	h.logger.Info("marking committed",
		"session_id", result.SessionID.String(),
		"summary", result.Summary.String(),
	)

	return &SubmitMarkingResult{
		SessionID:   result.SessionID.String(),
		Present:     result.Summary.Present,
		Absent:      result.Summary.Absent,
		Late:        result.Summary.Late,
		Excused:     result.Summary.Excused,
		CommittedAt: time.Now().UTC(),
	}, nil
}
