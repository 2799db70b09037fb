package session

import (
	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
)

// ReloadedEvent is published after the catalog is replaced with a fresh
// load from the server, so views re-render their session lists.
type ReloadedEvent struct {
	shared.BaseEvent

	Date  shared.Date
	Count int
}

// NewReloadedEvent builds the event for a completed catalog reload.
func NewReloadedEvent(date shared.Date, count int) *ReloadedEvent {
	return &ReloadedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventSessionsReloaded, date.String()),
		Date:      date,
		Count:     count,
	}
}
