// Package view coordinates the teacher-facing views of the attendance
// client: which view is active, which date it looks at, and which views
// need a refresh after domain events.
package view

import (
	"log/slog"
	"sync"

	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
	"github.com/coaching-hub/attendance-hub/pkg/timeutil"
)

// View identifies one of the four teacher-facing views.
type View string

const (
	ViewToday      View = "today"
	ViewHistory    View = "history"
	ViewStatistics View = "statistics"
	ViewSchedule   View = "schedule"
)

// IsValid checks that the view is one of the supported values.
func (v View) IsValid() bool {
	switch v {
	case ViewToday, ViewHistory, ViewStatistics, ViewSchedule:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (v View) String() string {
	return string(v)
}

// Snapshot is the coordinator state handed to change listeners.
type Snapshot struct {
	View View
	Date shared.Date
}

// Coordinator holds the active view and the shared date cursor. The two
// are independent: switching views never moves the date, and moving the
// date applies to every date-scoped view. All methods are safe for
// concurrent use; change listeners run on the caller's goroutine.
type Coordinator struct {
	mu sync.Mutex

	view View
	date shared.Date

	// stale marks views whose data is outdated after a domain event.
	stale map[View]bool

	listeners []func(Snapshot)
	logger    *slog.Logger
}

// NewCoordinator creates a coordinator starting on the today view with
// the date cursor on today, institute time.
func NewCoordinator(logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		view:   ViewToday,
		date:   shared.DateOf(timeutil.Now()),
		stale:  make(map[View]bool),
		logger: logger,
	}
}

// Subscribe wires the coordinator to the event bus so domain events mark
// the affected views stale.
func (c *Coordinator) Subscribe(bus shared.EventBus) error {
	return bus.SubscribeAll(c.handleEvent)
}

// handleEvent maps domain events onto view staleness.
func (c *Coordinator) handleEvent(event shared.Event) error {
	c.mu.Lock()
	switch event.EventType() {
	case shared.EventMarkingCommitted:
		// New records shift the list counters, the history window and
		// every derived number.
		c.stale[ViewToday] = true
		c.stale[ViewHistory] = true
		c.stale[ViewStatistics] = true
	case shared.EventSessionsReloaded:
		c.stale[ViewToday] = false
		c.stale[ViewSchedule] = false
	case shared.EventStatisticsRefreshed, shared.EventLowAttendanceFound:
		c.stale[ViewStatistics] = true
	}
	snapshot := c.snapshotLocked()
	listeners := c.listeners
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
	return nil
}

// OnChange registers a listener invoked after every state change.
func (c *Coordinator) OnChange(fn func(Snapshot)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// SelectView switches the active view. The date cursor is untouched.
func (c *Coordinator) SelectView(v View) error {
	if !v.IsValid() {
		return shared.NewDomainError("view", "SelectView", shared.ErrValidation, "unknown view")
	}

	c.mu.Lock()
	if c.view == v {
		c.mu.Unlock()
		return nil
	}
	c.view = v
	snapshot := c.snapshotLocked()
	listeners := c.listeners
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
	return nil
}

// NavigateDate moves the date cursor by n calendar days (n may be
// negative). Every date-scoped view follows the cursor.
func (c *Coordinator) NavigateDate(n int) Snapshot {
	c.mu.Lock()
	c.date = c.date.AddDays(n)
	c.markDateViewsStaleLocked()
	snapshot := c.snapshotLocked()
	listeners := c.listeners
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
	return snapshot
}

// SetDate moves the date cursor to an explicit day.
func (c *Coordinator) SetDate(date shared.Date) (Snapshot, error) {
	if date.IsZero() {
		return Snapshot{}, shared.NewDomainError("view", "SetDate", shared.ErrEmptyValue, "date is required")
	}

	c.mu.Lock()
	c.date = date
	c.markDateViewsStaleLocked()
	snapshot := c.snapshotLocked()
	listeners := c.listeners
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
	return snapshot, nil
}

// ResetToToday snaps the date cursor back to today, institute time.
func (c *Coordinator) ResetToToday() Snapshot {
	c.mu.Lock()
	c.date = shared.DateOf(timeutil.Now())
	c.markDateViewsStaleLocked()
	snapshot := c.snapshotLocked()
	listeners := c.listeners
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
	return snapshot
}

// Current returns the active view and date cursor.
func (c *Coordinator) Current() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// NeedsRefresh reports whether a view's data is outdated.
func (c *Coordinator) NeedsRefresh(v View) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale[v]
}

// MarkRefreshed clears a view's staleness after its data was reloaded.
func (c *Coordinator) MarkRefreshed(v View) {
	c.mu.Lock()
	c.stale[v] = false
	c.mu.Unlock()
}

// markDateViewsStaleLocked flags every date-scoped view after the cursor
// moved. The statistics view is window-based, not cursor-based, and is
// left alone.
func (c *Coordinator) markDateViewsStaleLocked() {
	c.stale[ViewToday] = true
	c.stale[ViewHistory] = true
	c.stale[ViewSchedule] = true
}

func (c *Coordinator) snapshotLocked() Snapshot {
	return Snapshot{View: c.view, Date: c.date}
}
