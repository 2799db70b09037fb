package marking

import (
	"github.com/coaching-hub/attendance-hub/internal/domain/session"
	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
)

// OpenedEvent is published when a marking session opens for a class
// session, so views can show the in-progress indicator.
type OpenedEvent struct {
	shared.BaseEvent

	SessionID shared.SessionID
	Students  int
}

// NewOpenedEvent builds the event for a freshly opened marking session.
func NewOpenedEvent(sessionID shared.SessionID, students int) *OpenedEvent {
	return &OpenedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventMarkingOpened, sessionID.String()),
		SessionID: sessionID,
		Students:  students,
	}
}

// FailedEvent is published when a submit is rejected by the server. The
// decisions stay editable; subscribers surface the error to the teacher.
type FailedEvent struct {
	shared.BaseEvent

	SessionID shared.SessionID
	Reason    string
}

// NewFailedEvent builds the event for a rejected submit.
func NewFailedEvent(sessionID shared.SessionID, reason string) *FailedEvent {
	return &FailedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventMarkingFailed, sessionID.String()),
		SessionID: sessionID,
		Reason:    reason,
	}
}

// CommittedEvent is published after a successful submit. Subscribers apply
// the recomputed summary to the session catalog; a submit that resolves
// after the marking view was closed still reaches the catalog this way.
type CommittedEvent struct {
	shared.BaseEvent

	SessionID shared.SessionID
	Summary   session.Summary
	Statuses  map[shared.StudentID]shared.AttendanceStatus
}

// NewCommittedEvent builds the event from a commit result.
func NewCommittedEvent(result *CommitResult) *CommittedEvent {
	return &CommittedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventMarkingCommitted, result.SessionID.String()),
		SessionID: result.SessionID,
		Summary:   result.Summary,
		Statuses:  result.Statuses,
	}
}

// DiscardedEvent is published when a marking session is closed without a
// submit, so views can drop any "unsaved changes" affordances.
type DiscardedEvent struct {
	shared.BaseEvent

	SessionID shared.SessionID
}

// NewDiscardedEvent builds the discard event.
func NewDiscardedEvent(sessionID shared.SessionID) *DiscardedEvent {
	return &DiscardedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventMarkingDiscarded, sessionID.String()),
		SessionID: sessionID,
	}
}
