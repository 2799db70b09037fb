package command

import (
	"log/slog"

	"github.com/coaching-hub/attendance-hub/internal/domain/marking"
	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISCARD MARKING COMMAND
// Closes an open marking session without submitting. An in-flight submit
// is not cancelled; its result still lands in the catalog when it resolves.
// ══════════════════════════════════════════════════════════════════════════════

// DiscardMarkingHandler handles marking discards.
type DiscardMarkingHandler struct {
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewDiscardMarkingHandler creates the handler.
func NewDiscardMarkingHandler(publisher shared.EventPublisher, logger *slog.Logger) *DiscardMarkingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiscardMarkingHandler{publisher: publisher, logger: logger}
}

// Handle closes the engine and announces the discard.
func (h *DiscardMarkingHandler) Handle(engine *marking.Engine) error {
	if engine == nil {
		return shared.ErrMarkingNotOpen
	}

	sess := engine.Session()
	engine.Close()

	if h.publisher != nil && sess != nil {
		if err := h.publisher.Publish(marking.NewDiscardedEvent(sess.ID)); err != nil {
			h.logger.Warn("failed to publish marking discarded event", "error", err)
		}
	}

	if sess != nil {
		h.logger.Info("marking discarded", "session_id", sess.ID.String())
	}
	return nil
}
