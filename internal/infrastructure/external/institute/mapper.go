// Package institute implements the institute management server API client.
package institute

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/coaching-hub/attendance-hub/internal/domain/marking"
	"github.com/coaching-hub/attendance-hub/internal/domain/session"
	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
	"github.com/coaching-hub/attendance-hub/internal/domain/statistics"
)

// ErrNilDTO is returned when a nil DTO is passed to a mapping function.
var ErrNilDTO = errors.New("nil DTO")

// ══════════════════════════════════════════════════════════════════════════════
// MAPPER - DTO to Domain Entity transformations
// ══════════════════════════════════════════════════════════════════════════════

// Mapper handles transformation between server DTOs and domain entities.
// This is the anti-corruption layer: every payload is structurally
// validated before anything crosses into the domain, so a malformed server
// response can never produce a half-built session or record.
type Mapper struct {
	validate *validator.Validate
}

// NewMapper creates a new Mapper instance.
func NewMapper() *Mapper {
	return &Mapper{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// SessionFromDTO converts a SessionDTO to a domain ClassSession.
func (m *Mapper) SessionFromDTO(dto *SessionDTO) (*session.ClassSession, error) {
	if dto == nil {
		return nil, ErrNilDTO
	}
	if err := m.validate.Struct(dto); err != nil {
		return nil, shared.WrapError("institute", "Parse", shared.ErrServer, "malformed session payload", err)
	}

	id, err := shared.NewSessionID(dto.ID)
	if err != nil {
		return nil, shared.WrapError("institute", "Parse", shared.ErrServer, "bad session id", err)
	}

	date, err := shared.ParseDate(dto.Date)
	if err != nil {
		return nil, shared.WrapError("institute", "Parse", shared.ErrServer, "bad session date", err)
	}

	start, err := shared.ParseTimeOfDay(dto.StartTime)
	if err != nil {
		return nil, shared.WrapError("institute", "Parse", shared.ErrServer, "bad session start time", err)
	}
	end, err := shared.ParseTimeOfDay(dto.EndTime)
	if err != nil {
		return nil, shared.WrapError("institute", "Parse", shared.ErrServer, "bad session end time", err)
	}

	roster := make([]session.RosterEntry, 0, len(dto.Roster))
	for i := range dto.Roster {
		entry, err := m.rosterEntryFromDTO(&dto.Roster[i])
		if err != nil {
			return nil, err
		}
		roster = append(roster, entry)
	}

	s := &session.ClassSession{
		ID:               id,
		Subject:          dto.Subject,
		Topic:            dto.Topic,
		Batch:            shared.Batch(dto.Batch),
		Date:             date,
		StartTime:        start,
		EndTime:          end,
		Venue:            dto.Venue,
		Teacher:          session.Teacher{ID: dto.Teacher.ID, DisplayName: dto.Teacher.Name},
		TotalStudents:    dto.TotalStudents,
		Roster:           roster,
		AttendanceMarked: dto.AttendanceMarked,
	}
	if dto.Summary != nil {
		s.Summary = m.SummaryFromDTO(*dto.Summary)
	}

	if err := s.Validate(); err != nil {
		return nil, shared.WrapError("institute", "Parse", shared.ErrServer, "session payload violates invariants", err)
	}
	return s, nil
}

// SessionsFromDTO converts a slice of session DTOs, failing on the first
// malformed element. A partially usable list is worse than an error: the
// catalog replaces its contents wholesale.
func (m *Mapper) SessionsFromDTO(dtos []SessionDTO) ([]*session.ClassSession, error) {
	sessions := make([]*session.ClassSession, 0, len(dtos))
	for i := range dtos {
		s, err := m.SessionFromDTO(&dtos[i])
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func (m *Mapper) rosterEntryFromDTO(dto *RosterEntryDTO) (session.RosterEntry, error) {
	studentID, err := shared.NewStudentID(dto.StudentID)
	if err != nil {
		return session.RosterEntry{}, shared.WrapError("institute", "Parse", shared.ErrServer, "bad roster student id", err)
	}

	entry := session.RosterEntry{
		StudentID:   studentID,
		DisplayName: dto.Name,
	}
	if dto.CurrentStatus != "" {
		status, err := shared.ParseAttendanceStatus(dto.CurrentStatus)
		if err != nil {
			return session.RosterEntry{}, shared.WrapError("institute", "Parse", shared.ErrServer, "bad roster status", err)
		}
		entry.CurrentStatus = &status
	}
	return entry, nil
}

// SummaryFromDTO converts summary counts.
func (m *Mapper) SummaryFromDTO(dto SummaryDTO) session.Summary {
	return session.Summary{
		Present: dto.Present,
		Absent:  dto.Absent,
		Late:    dto.Late,
		Excused: dto.Excused,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MARKING MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// DecisionsToDTO converts domain decisions to the wire form.
func (m *Mapper) DecisionsToDTO(decisions []marking.Decision) []DecisionDTO {
	out := make([]DecisionDTO, 0, len(decisions))
	for _, d := range decisions {
		out = append(out, DecisionDTO{
			StudentID: d.StudentID.String(),
			Status:    d.Status.String(),
			Remark:    d.Remark,
		})
	}
	return out
}

// SubmitResponseSummary extracts the summary counts from a submit
// acknowledgement.
func (m *Mapper) SubmitResponseSummary(dto *SubmitMarkingResponseDTO) (session.Summary, error) {
	if dto == nil {
		return session.Summary{}, ErrNilDTO
	}
	if err := m.validate.Struct(dto); err != nil {
		return session.Summary{}, shared.WrapError("institute", "Parse", shared.ErrServer, "malformed submit acknowledgement", err)
	}
	return m.SummaryFromDTO(dto.Summary), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RECORD MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// RecordFromDTO converts a RecordDTO to a domain Record.
func (m *Mapper) RecordFromDTO(dto *RecordDTO) (statistics.Record, error) {
	if dto == nil {
		return statistics.Record{}, ErrNilDTO
	}
	if err := m.validate.Struct(dto); err != nil {
		return statistics.Record{}, shared.WrapError("institute", "Parse", shared.ErrServer, "malformed record payload", err)
	}

	studentID, err := shared.NewStudentID(dto.StudentID)
	if err != nil {
		return statistics.Record{}, shared.WrapError("institute", "Parse", shared.ErrServer, "bad record student id", err)
	}
	sessionID, err := shared.NewSessionID(dto.SessionID)
	if err != nil {
		return statistics.Record{}, shared.WrapError("institute", "Parse", shared.ErrServer, "bad record session id", err)
	}
	date, err := shared.ParseDate(dto.Date)
	if err != nil {
		return statistics.Record{}, shared.WrapError("institute", "Parse", shared.ErrServer, "bad record date", err)
	}
	status, err := shared.ParseAttendanceStatus(dto.Status)
	if err != nil {
		return statistics.Record{}, shared.WrapError("institute", "Parse", shared.ErrServer, "bad record status", err)
	}

	r := statistics.Record{
		ID:          dto.ID,
		StudentID:   studentID,
		StudentName: dto.StudentName,
		SessionID:   sessionID,
		Subject:     dto.Subject,
		Batch:       shared.Batch(dto.Batch),
		Date:        date,
		Status:      status,
		MarkedAt:    dto.MarkedAt,
		MarkedBy:    dto.MarkedBy,
		Remark:      dto.Remark,
	}
	if err := r.Validate(); err != nil {
		return statistics.Record{}, shared.WrapError("institute", "Parse", shared.ErrServer, "record payload violates invariants", err)
	}
	return r, nil
}

// RecordsFromDTO converts a slice of record DTOs. Unlike sessions, a
// single bad record is skipped rather than failing the whole page, because
// history is append-only and one corrupt row should not hide a month of
// good data. The number of skipped rows is returned for logging.
func (m *Mapper) RecordsFromDTO(dtos []RecordDTO) (records []statistics.Record, skipped int) {
	records = make([]statistics.Record, 0, len(dtos))
	for i := range dtos {
		r, err := m.RecordFromDTO(&dtos[i])
		if err != nil {
			skipped++
			continue
		}
		records = append(records, r)
	}
	return records, skipped
}

// ══════════════════════════════════════════════════════════════════════════════
// STATISTICS MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// StatisticsFromDTO converts the server's pre-aggregated statistics.
func (m *Mapper) StatisticsFromDTO(dto *StatisticsDTO) (*statistics.AttendanceStatistics, error) {
	if dto == nil {
		return nil, ErrNilDTO
	}
	if err := m.validate.Struct(dto); err != nil {
		return nil, shared.WrapError("institute", "Parse", shared.ErrServer, "malformed statistics payload", err)
	}

	from, err := shared.ParseDate(dto.From)
	if err != nil {
		return nil, shared.WrapError("institute", "Parse", shared.ErrServer, "bad statistics window start", err)
	}
	to, err := shared.ParseDate(dto.To)
	if err != nil {
		return nil, shared.WrapError("institute", "Parse", shared.ErrServer, "bad statistics window end", err)
	}
	window, err := shared.NewDateRange(from, to)
	if err != nil {
		return nil, shared.WrapError("institute", "Parse", shared.ErrServer, "bad statistics window", err)
	}

	trend := make([]statistics.TrendPoint, 0, len(dto.WeeklyTrend))
	for _, p := range dto.WeeklyTrend {
		d, err := shared.ParseDate(p.Date)
		if err != nil {
			return nil, shared.WrapError("institute", "Parse", shared.ErrServer, "bad trend point date", err)
		}
		trend = append(trend, statistics.TrendPoint{Date: d, Rate: p.Rate})
	}

	return &statistics.AttendanceStatistics{
		Window:         window,
		TotalClasses:   dto.TotalClasses,
		Present:        dto.Present,
		Absent:         dto.Absent,
		Late:           dto.Late,
		Excused:        dto.Excused,
		AttendanceRate: dto.AttendanceRate,
		MonthlyRate:    dto.MonthlyRate,
		WeeklyTrend:    trend,
		WeekTrend: statistics.Trend{
			Direction: statistics.TrendDirection(dto.WeekTrend.Direction),
			Delta:     dto.WeekTrend.Delta,
		},
		GeneratedAt: dto.GeneratedAt,
	}, nil
}

// AlertsFromDTO converts low-attendance alerts.
func (m *Mapper) AlertsFromDTO(dtos []AlertDTO) ([]statistics.LowAttendanceAlert, error) {
	alerts := make([]statistics.LowAttendanceAlert, 0, len(dtos))
	for i := range dtos {
		dto := &dtos[i]
		if err := m.validate.Struct(dto); err != nil {
			return nil, shared.WrapError("institute", "Parse", shared.ErrServer, "malformed alert payload", err)
		}
		studentID, err := shared.NewStudentID(dto.StudentID)
		if err != nil {
			return nil, shared.WrapError("institute", "Parse", shared.ErrServer, "bad alert student id", err)
		}
		alerts = append(alerts, statistics.LowAttendanceAlert{
			StudentID:   studentID,
			DisplayName: dto.StudentName,
			Rate:        dto.Rate,
			DaysAbsent:  dto.DaysAbsent,
		})
	}
	return alerts, nil
}

// ExportResultFromDTO converts an export response into the domain result.
func (m *Mapper) ExportResultFromDTO(dto *ExportResultDTO) (*statistics.ExportResult, error) {
	if dto == nil {
		return nil, ErrNilDTO
	}
	if err := m.validate.Struct(dto); err != nil {
		return nil, shared.WrapError("institute", "Parse", shared.ErrServer, "malformed export payload", err)
	}
	format := statistics.ExportFormat(dto.Format)
	if !format.IsValid() {
		return nil, shared.NewDomainError("institute", "Parse", shared.ErrServer, "unknown export format")
	}
	return &statistics.ExportResult{
		URL:       dto.URL,
		Format:    format,
		ExpiresAt: dto.ExpiresAt,
	}, nil
}
