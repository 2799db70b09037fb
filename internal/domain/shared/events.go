// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened in the attendance core.
const (
	// Marking events
	EventMarkingOpened    EventType = "marking.opened"
	EventMarkingCommitted EventType = "marking.committed"
	EventMarkingFailed    EventType = "marking.failed"
	EventMarkingDiscarded EventType = "marking.discarded"

	// Session events
	EventSessionsReloaded EventType = "session.reloaded"

	// Statistics events
	EventStatisticsRefreshed EventType = "statistics.refreshed"
	EventLowAttendanceFound  EventType = "statistics.low_attendance_found"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// AggregateID returns the ID of the aggregate the event belongs to.
	AggregateID() string

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time
}

// BaseEvent provides the common fields for domain events. Concrete events
// embed it and add their payload as typed fields.
type BaseEvent struct {
	Type       EventType
	Aggregate  string
	OccurredOn time.Time
}

// NewBaseEvent creates a BaseEvent stamped with the current UTC time.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:       eventType,
		Aggregate:  aggregateID,
		OccurredOn: time.Now().UTC(),
	}
}

// EventType returns the type of the event.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// AggregateID returns the ID of the aggregate the event belongs to.
func (e BaseEvent) AggregateID() string {
	return e.Aggregate
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.OccurredOn
}

// EventHandler processes a published event. A returned error is logged by
// the bus and never propagated back to the publisher.
type EventHandler func(event Event) error

// EventPublisher publishes domain events to interested subscribers.
type EventPublisher interface {
	Publish(event Event) error
}

// EventBus is the full publish/subscribe contract implemented by the
// messaging layer.
type EventBus interface {
	EventPublisher
	Subscribe(eventType EventType, handler EventHandler) error
	SubscribeAll(handler EventHandler) error
	Close() error
}
