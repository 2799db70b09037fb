// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"log/slog"

	"github.com/coaching-hub/attendance-hub/internal/domain/marking"
	"github.com/coaching-hub/attendance-hub/internal/domain/session"
	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// OPEN MARKING COMMAND
// Opens a marking session for one class session from the catalog. Every
// roster student is seeded with a decision up front, so the common case
// (everyone present) is a single submit away.
// ══════════════════════════════════════════════════════════════════════════════

// OpenMarkingCommand contains the parameters for opening a marking session.
type OpenMarkingCommand struct {
	// SessionID identifies the class session in the loaded catalog.
	SessionID string

	// DefaultStatus overrides the status seeded for unmarked students
	// (empty = present).
	DefaultStatus string

	sessionID     shared.SessionID
	defaultStatus shared.AttendanceStatus
}

// Validate checks and normalizes the parameters.
func (c *OpenMarkingCommand) Validate() error {
	id, err := shared.NewSessionID(c.SessionID)
	if err != nil {
		return err
	}
	c.sessionID = id

	if c.DefaultStatus != "" {
		status, err := shared.ParseAttendanceStatus(c.DefaultStatus)
		if err != nil {
			return err
		}
		c.defaultStatus = status
	}
	return nil
}

// DecisionDTO is one editable decision row for display.
type DecisionDTO struct {
	// StudentID and StudentName identify the student.
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`

	// Status is the current decision.
	Status string `json:"status"`

	// Remark is the optional free-text note.
	Remark string `json:"remark,omitempty"`
}

// OpenMarkingResult contains the opened marking session.
type OpenMarkingResult struct {
	// SessionID echoes the class session.
	SessionID string `json:"session_id"`

	// Subject and Batch describe the session for the marking header.
	Subject string `json:"subject"`
	Batch   string `json:"batch"`

	// Decisions is the seeded decision list in roster order.
	Decisions []DecisionDTO `json:"decisions"`

	// Reopened reports whether the session was already marked; prior
	// statuses are reused in that case.
	Reopened bool `json:"reopened"`

	// Engine is the live marking engine for this session. The caller
	// owns it until Submit commits or the session is discarded.
	Engine *marking.Engine `json:"-"`
}

// OpenMarkingHandler handles marking opens.
type OpenMarkingHandler struct {
	catalog   *session.Catalog
	submitter marking.Submitter
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewOpenMarkingHandler creates the handler.
func NewOpenMarkingHandler(
	catalog *session.Catalog,
	submitter marking.Submitter,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *OpenMarkingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenMarkingHandler{
		catalog:   catalog,
		submitter: submitter,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle executes the command.
func (h *OpenMarkingHandler) Handle(ctx context.Context, cmd OpenMarkingCommand) (*OpenMarkingResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "OpenMarking", shared.ErrValidation, "invalid command", err)
	}

	sess, err := h.catalog.Get(cmd.sessionID)
	if err != nil {
		return nil, err
	}

	opts := []marking.Option{}
	if cmd.defaultStatus != "" {
		opts = append(opts, marking.WithDefaultStatus(cmd.defaultStatus))
	}

	engine := marking.NewEngine(h.submitter, opts...)
	store, err := engine.Open(sess)
	if err != nil {
		return nil, err
	}

	if h.publisher != nil {
		if err := h.publisher.Publish(marking.NewOpenedEvent(sess.ID, store.Len())); err != nil {
			h.logger.Warn("failed to publish marking opened event", "error", err)
		}
	}

	h.logger.Info("marking opened",
		"session_id", sess.ID.String(),
		"students", store.Len(),
		"reopened", sess.AttendanceMarked,
	)

	return &OpenMarkingResult{
		SessionID: sess.ID.String(),
		Subject:   sess.Subject,
		Batch:     string(sess.Batch),
		Decisions: buildDecisionList(sess, store),
		Reopened:  sess.AttendanceMarked,
		Engine:    engine,
	}, nil
}

// buildDecisionList renders the seeded decisions in roster order.
func buildDecisionList(sess *session.ClassSession, store *marking.RecordStore) []DecisionDTO {
	out := make([]DecisionDTO, 0, len(sess.Roster))
	for _, entry := range sess.Roster {
		d, err := store.Get(entry.StudentID)
		if err != nil {
			continue
		}
		out = append(out, DecisionDTO{
			StudentID:   entry.StudentID.String(),
			StudentName: entry.DisplayName,
			Status:      d.Status.String(),
			Remark:      d.Remark,
		})
	}
	return out
}
