package statistics

import (
	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
)

// RefreshedEvent is published after a statistics recomputation so the
// statistics view swaps in the new aggregate.
type RefreshedEvent struct {
	shared.BaseEvent

	Window shared.DateRange
	Rate   float64
}

// NewRefreshedEvent builds the event for a completed refresh.
func NewRefreshedEvent(stats *AttendanceStatistics) *RefreshedEvent {
	return &RefreshedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventStatisticsRefreshed, stats.Window.From.String()),
		Window:    stats.Window,
		Rate:      stats.AttendanceRate,
	}
}

// LowAttendanceEvent is published when a scan finds students below the
// alert threshold.
type LowAttendanceEvent struct {
	shared.BaseEvent

	Threshold float64
	Alerts    []LowAttendanceAlert
}

// NewLowAttendanceEvent builds the event for a completed scan.
func NewLowAttendanceEvent(threshold float64, alerts []LowAttendanceAlert) *LowAttendanceEvent {
	return &LowAttendanceEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventLowAttendanceFound, "attendance"),
		Threshold: threshold,
		Alerts:    alerts,
	}
}
