// Package institute implements the institute management server API client.
// This package handles all communication with the remote server: fetching
// class sessions and rosters, submitting attendance marking, and reading
// back history, statistics and low-attendance alerts.
package institute

import (
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// API RESPONSE WRAPPERS
// ══════════════════════════════════════════════════════════════════════════════

// APIResponse represents a generic API response wrapper.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

// Meta contains pagination and additional metadata.
type Meta struct {
	Total      int `json:"total,omitempty"`
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION DTOs
// ══════════════════════════════════════════════════════════════════════════════

// SessionDTO represents a class session as returned by the server.
// This is the external representation that gets mapped to the domain model.
type SessionDTO struct {
	// ID is the unique session identifier issued by the scheduler
	ID string `json:"id" validate:"required"`

	// Subject is the subject being taught (e.g., "Physics")
	Subject string `json:"subject" validate:"required"`

	// Topic is the specific topic of the slot, may be empty
	Topic string `json:"topic,omitempty"`

	// Batch is the cohort tag (e.g., "jee-2026-morning")
	Batch string `json:"batch" validate:"required"`

	// Date is the calendar day in "2006-01-02" form
	Date string `json:"date" validate:"required,datetime=2006-01-02"`

	// StartTime and EndTime bound the slot, "15:04" form
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`

	// Venue is the room or hall
	Venue string `json:"venue,omitempty"`

	// Teacher is the assigned teacher
	Teacher TeacherDTO `json:"teacher"`

	// TotalStudents is the enrolled headcount
	TotalStudents int `json:"total_students" validate:"gte=0"`

	// AttendanceMarked indicates attendance was already submitted
	AttendanceMarked bool `json:"attendance_marked"`

	// Summary holds per-status counts once attendance is marked
	Summary *SummaryDTO `json:"summary,omitempty"`

	// Roster lists the enrolled students; empty until requested with
	// include_roster
	Roster []RosterEntryDTO `json:"roster,omitempty" validate:"dive"`
}

// TeacherDTO identifies the assigned teacher.
type TeacherDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RosterEntryDTO is one enrolled student on a session roster.
type RosterEntryDTO struct {
	// StudentID is the unique student identifier
	StudentID string `json:"student_id" validate:"required"`

	// Name is the student's display name
	Name string `json:"name" validate:"required"`

	// CurrentStatus is the already-marked status, empty if unmarked
	CurrentStatus string `json:"current_status,omitempty" validate:"omitempty,oneof=present absent late excused"`
}

// SummaryDTO holds per-status counts for one session.
type SummaryDTO struct {
	Present int `json:"present" validate:"gte=0"`
	Absent  int `json:"absent" validate:"gte=0"`
	Late    int `json:"late" validate:"gte=0"`
	Excused int `json:"excused" validate:"gte=0"`
}

// ══════════════════════════════════════════════════════════════════════════════
// MARKING DTOs
// ══════════════════════════════════════════════════════════════════════════════

// DecisionDTO is one student's attendance decision in a submission.
type DecisionDTO struct {
	StudentID string `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=present absent late excused"`
	Remark    string `json:"remark,omitempty" validate:"max=500"`
}

// SubmitMarkingRequestDTO is the payload for an attendance submission.
type SubmitMarkingRequestDTO struct {
	SessionID string        `json:"session_id" validate:"required"`
	Decisions []DecisionDTO `json:"decisions" validate:"required,min=1,dive"`
}

// SubmitMarkingResponseDTO is the server's acknowledgement of a submission.
type SubmitMarkingResponseDTO struct {
	SessionID string     `json:"session_id" validate:"required"`
	Summary   SummaryDTO `json:"summary"`
	MarkedAt  time.Time  `json:"marked_at"`
}

// ══════════════════════════════════════════════════════════════════════════════
// RECORD DTOs
// ══════════════════════════════════════════════════════════════════════════════

// RecordDTO is one historical attendance record.
type RecordDTO struct {
	// ID is the unique record identifier
	ID string `json:"id" validate:"required"`

	// StudentID and StudentName identify the marked student
	StudentID   string `json:"student_id" validate:"required"`
	StudentName string `json:"student_name"`

	// SessionID links back to the class session
	SessionID string `json:"session_id" validate:"required"`

	// Subject and Batch are denormalized from the session for filtering
	Subject string `json:"subject"`
	Batch   string `json:"batch"`

	// Date is the session's calendar day, "2006-01-02" form
	Date string `json:"date" validate:"required,datetime=2006-01-02"`

	// Status is the recorded attendance status
	Status string `json:"status" validate:"required,oneof=present absent late excused"`

	// MarkedAt is when the decision was committed
	MarkedAt time.Time `json:"marked_at"`

	// MarkedBy identifies who submitted the marking
	MarkedBy string `json:"marked_by,omitempty"`

	// Remark is the optional per-student note
	Remark string `json:"remark,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// STATISTICS DTOs
// ══════════════════════════════════════════════════════════════════════════════

// StatisticsDTO is the server's pre-aggregated attendance statistics.
type StatisticsDTO struct {
	// From and To bound the aggregation window, "2006-01-02" form
	From string `json:"from" validate:"required,datetime=2006-01-02"`
	To   string `json:"to" validate:"required,datetime=2006-01-02"`

	// TotalClasses is the number of distinct sessions in the window
	TotalClasses int `json:"total_classes" validate:"gte=0"`

	// Per-status decision counts over the window
	Present int `json:"present" validate:"gte=0"`
	Absent  int `json:"absent" validate:"gte=0"`
	Late    int `json:"late" validate:"gte=0"`
	Excused int `json:"excused" validate:"gte=0"`

	// AttendanceRate is the window's overall rate, percent
	AttendanceRate float64 `json:"attendance_rate" validate:"gte=0,lte=100"`

	// MonthlyRate covers the trailing 30 days
	MonthlyRate float64 `json:"monthly_rate" validate:"gte=0,lte=100"`

	// WeeklyTrend is one point per day over the trailing 7 days
	WeeklyTrend []TrendPointDTO `json:"weekly_trend" validate:"dive"`

	// WeekTrend compares this week against the prior week
	WeekTrend TrendDTO `json:"week_trend"`

	// GeneratedAt is when the server computed these numbers
	GeneratedAt time.Time `json:"generated_at"`
}

// TrendPointDTO is one day's rate within a trend window.
type TrendPointDTO struct {
	Date string  `json:"date" validate:"required,datetime=2006-01-02"`
	Rate float64 `json:"rate" validate:"gte=0,lte=100"`
}

// TrendDTO compares two consecutive periods.
type TrendDTO struct {
	Direction string  `json:"direction" validate:"omitempty,oneof=up down stable"`
	Delta     float64 `json:"delta"`
}

// AlertDTO flags a student below the low-attendance threshold.
type AlertDTO struct {
	StudentID   string  `json:"student_id" validate:"required"`
	StudentName string  `json:"student_name"`
	Rate        float64 `json:"rate" validate:"gte=0,lte=100"`
	DaysAbsent  int     `json:"days_absent" validate:"gte=0"`
}

// ══════════════════════════════════════════════════════════════════════════════
// EXPORT DTOs
// ══════════════════════════════════════════════════════════════════════════════

// ExportResultDTO is the server's handle for a prepared history export.
// The server renders the file; this core only passes the link through.
type ExportResultDTO struct {
	// URL is the signed download link
	URL string `json:"url" validate:"required,url"`

	// Format is the rendered file format (csv, xlsx, pdf)
	Format string `json:"format" validate:"required,oneof=csv xlsx pdf"`

	// ExpiresAt is when the link stops working
	ExpiresAt time.Time `json:"expires_at"`
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR DTOs
// ══════════════════════════════════════════════════════════════════════════════

// APIErrorDTO represents an error response from the server.
type APIErrorDTO struct {
	// Code is the machine-readable error code
	Code string `json:"code"`

	// Message is the human-readable error message
	Message string `json:"message"`

	// Details contains field-level error details
	Details map[string]any `json:"details,omitempty"`

	// RequestID echoes the X-Request-ID header for log correlation
	RequestID string `json:"request_id,omitempty"`
}

// Error implements the error interface.
func (e *APIErrorDTO) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST DTOs
// ══════════════════════════════════════════════════════════════════════════════

// SessionsRequestDTO represents parameters for fetching sessions.
type SessionsRequestDTO struct {
	// Date is the calendar day to load, "2006-01-02" form
	Date string

	// Subject filters by subject (optional)
	Subject string

	// Batch filters by batch tag (optional)
	Batch string

	// OnlyUnmarked keeps only sessions without submitted attendance
	OnlyUnmarked bool

	// IncludeRoster asks the server to embed each session's roster
	IncludeRoster bool
}

// HistoryRequestDTO represents parameters for fetching attendance records.
type HistoryRequestDTO struct {
	// StudentSearch matches against student name or ID
	StudentSearch string

	// Subject and Batch narrow the record set
	Subject string
	Batch   string

	// DateFrom and DateTo bound the window, "2006-01-02" form
	DateFrom string
	DateTo   string

	// Page and PerPage control pagination
	Page    int
	PerPage int
}

// StatisticsRequestDTO represents parameters for fetching statistics.
type StatisticsRequestDTO struct {
	// From and To bound the aggregation window, "2006-01-02" form
	From string
	To   string

	// Batch narrows the aggregation (optional)
	Batch string
}

// AlertsRequestDTO represents parameters for fetching low-attendance alerts.
type AlertsRequestDTO struct {
	// Threshold is the rate below which a student is flagged, percent
	Threshold float64

	// Limit caps the number of returned alerts
	Limit int
}

// ExportRequestDTO represents parameters for a history export.
type ExportRequestDTO struct {
	// Format is the requested file format (csv, xlsx, pdf)
	Format string

	// Filters narrow the exported record set
	Filters HistoryRequestDTO
}
