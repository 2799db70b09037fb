// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"log/slog"
	"time"

	"github.com/coaching-hub/attendance-hub/internal/domain/session"
	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
	"github.com/coaching-hub/attendance-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET SESSIONS QUERY
// Loads the class sessions for one date into the catalog and returns the
// list in display order. Serves both the today view and the schedule view;
// the scheduled variant skips rosters.
// ══════════════════════════════════════════════════════════════════════════════

// GetSessionsQuery contains the parameters for a session list load.
type GetSessionsQuery struct {
	// Date is the calendar day to load (empty = today, institute time).
	Date string

	// Subject filters by subject name (empty = all subjects).
	Subject string

	// Batch filters by batch tag (empty = all batches).
	Batch string

	// OnlyUnmarked keeps only sessions still awaiting attendance.
	OnlyUnmarked bool

	// Scheduled loads the day as future schedule entries, without rosters.
	Scheduled bool

	date  shared.Date
	batch shared.Batch
}

// Validate checks and normalizes the parameters.
func (q *GetSessionsQuery) Validate() error {
	if q.Date == "" {
		q.date = shared.DateOf(timeutil.Now())
	} else {
		d, err := shared.ParseDate(q.Date)
		if err != nil {
			return err
		}
		q.date = d
	}

	q.batch = shared.Batch(q.Batch)
	if !q.batch.IsValid() {
		return shared.NewDomainError("query", "GetSessions", shared.ErrValidation, "invalid batch tag")
	}
	return nil
}

// SessionItemDTO is one session row for display.
type SessionItemDTO struct {
	// ID is the session identifier.
	ID string `json:"id"`

	// Subject and Topic describe what is taught.
	Subject string `json:"subject"`
	Topic   string `json:"topic,omitempty"`

	// Batch is the cohort tag.
	Batch string `json:"batch"`

	// Date is the calendar day, "2006-01-02".
	Date string `json:"date"`

	// StartTime and EndTime bound the slot, "15:04".
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`

	// Venue is the room or hall.
	Venue string `json:"venue,omitempty"`

	// TeacherName is the assigned teacher's display name.
	TeacherName string `json:"teacher_name"`

	// TotalStudents is the enrolled count.
	TotalStudents int `json:"total_students"`

	// Marked reports whether attendance has been finalized.
	Marked bool `json:"marked"`

	// SummaryLine is the compact count line, e.g. "38P 2A 1L 0E".
	SummaryLine string `json:"summary_line,omitempty"`
}

// GetSessionsResult contains the loaded session list.
type GetSessionsResult struct {
	// Date is the loaded day, "2006-01-02".
	Date string `json:"date"`

	// Sessions in display order (start time ascending).
	Sessions []SessionItemDTO `json:"sessions"`

	// Total and Marked are the list-level counters for the header.
	Total  int `json:"total"`
	Marked int `json:"marked"`

	// GeneratedAt is when the result was built.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetSessionsHandler handles session list loads.
type GetSessionsHandler struct {
	source    session.Source
	catalog   *session.Catalog
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewGetSessionsHandler creates the handler.
func NewGetSessionsHandler(
	source session.Source,
	catalog *session.Catalog,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *GetSessionsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetSessionsHandler{
		source:    source,
		catalog:   catalog,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle executes the query. The catalog is replaced wholesale on every
// load so stale summaries never linger after a reload.
func (h *GetSessionsHandler) Handle(ctx context.Context, query GetSessionsQuery) (*GetSessionsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetSessions", shared.ErrValidation, "invalid query", err)
	}

	filters := session.Filters{
		Subject:      query.Subject,
		Batch:        query.batch,
		OnlyUnmarked: query.OnlyUnmarked,
	}

	var (
		sessions []*session.ClassSession
		err      error
	)
	if query.Scheduled {
		sessions, err = h.source.LoadScheduled(ctx, query.date, filters)
	} else {
		sessions, err = h.source.LoadForDate(ctx, query.date, filters)
	}
	if err != nil {
		return nil, err
	}

	if err := h.catalog.ReplaceForDate(query.date, filters, sessions); err != nil {
		return nil, err
	}

	if h.publisher != nil {
		if err := h.publisher.Publish(session.NewReloadedEvent(query.date, h.catalog.Len())); err != nil {
			h.logger.Warn("failed to publish reload event", "error", err)
		}
	}

	held := h.catalog.All()
	items := make([]SessionItemDTO, 0, len(held))
	for _, s := range held {
		items = append(items, buildSessionItem(s))
	}

	return &GetSessionsResult{
		Date:        query.date.String(),
		Sessions:    items,
		Total:       h.catalog.Len(),
		Marked:      h.catalog.MarkedCount(),
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// buildSessionItem converts one session to its display row.
func buildSessionItem(s *session.ClassSession) SessionItemDTO {
	item := SessionItemDTO{
		ID:            s.ID.String(),
		Subject:       s.Subject,
		Topic:         s.Topic,
		Batch:         string(s.Batch),
		Date:          s.Date.String(),
		StartTime:     s.StartTime.String(),
		EndTime:       s.EndTime.String(),
		Venue:         s.Venue,
		TeacherName:   s.Teacher.DisplayName,
		TotalStudents: s.TotalStudents,
		Marked:        s.AttendanceMarked,
	}
	if s.AttendanceMarked {
		item.SummaryLine = s.Summary.String()
	}
	return item
}
