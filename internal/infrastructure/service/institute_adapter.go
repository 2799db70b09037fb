// Package service adapts the institute API client onto the domain ports.
// Each adapter is a thin translation layer: request building, DTO mapping,
// and nothing else. Resilience (retry, circuit breaking, rate limiting)
// lives inside the client.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/coaching-hub/attendance-hub/internal/domain/marking"
	"github.com/coaching-hub/attendance-hub/internal/domain/session"
	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
	"github.com/coaching-hub/attendance-hub/internal/domain/statistics"
	"github.com/coaching-hub/attendance-hub/internal/infrastructure/external/institute"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION SOURCE
// ══════════════════════════════════════════════════════════════════════════════

// SessionSourceAdapter adapts institute.Client to the session.Source port.
type SessionSourceAdapter struct {
	client *institute.Client
	mapper *institute.Mapper
}

// NewSessionSourceAdapter creates a session source over the API client.
func NewSessionSourceAdapter(client *institute.Client) *SessionSourceAdapter {
	return &SessionSourceAdapter{
		client: client,
		mapper: institute.NewMapper(),
	}
}

// LoadForDate fetches the sessions teachable on the given day, rosters
// included so the marking engine can open any of them without another
// round trip.
func (a *SessionSourceAdapter) LoadForDate(ctx context.Context, date shared.Date, filters session.Filters) ([]*session.ClassSession, error) {
	dtos, _, err := a.client.ListSessions(ctx, institute.SessionsRequestDTO{
		Date:          date.String(),
		Subject:       filters.Subject,
		Batch:         string(filters.Batch),
		OnlyUnmarked:  filters.OnlyUnmarked,
		IncludeRoster: true,
	})
	if err != nil {
		return nil, fmt.Errorf("load sessions for %s: %w", date, err)
	}
	return a.mapper.SessionsFromDTO(dtos)
}

// LoadScheduled fetches future scheduled sessions without rosters; the
// schedule view only needs the slot metadata.
func (a *SessionSourceAdapter) LoadScheduled(ctx context.Context, date shared.Date, filters session.Filters) ([]*session.ClassSession, error) {
	dtos, _, err := a.client.ListSessions(ctx, institute.SessionsRequestDTO{
		Date:    date.String(),
		Subject: filters.Subject,
		Batch:   string(filters.Batch),
	})
	if err != nil {
		return nil, fmt.Errorf("load scheduled sessions for %s: %w", date, err)
	}
	return a.mapper.SessionsFromDTO(dtos)
}

// ══════════════════════════════════════════════════════════════════════════════
// MARKING SUBMITTER
// ══════════════════════════════════════════════════════════════════════════════

// SubmitterAdapter adapts institute.Client to the marking.Submitter port.
type SubmitterAdapter struct {
	client *institute.Client
	mapper *institute.Mapper
	logger *slog.Logger
}

// NewSubmitterAdapter creates a marking submitter over the API client.
func NewSubmitterAdapter(client *institute.Client, logger *slog.Logger) *SubmitterAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmitterAdapter{
		client: client,
		mapper: institute.NewMapper(),
		logger: logger,
	}
}

// SubmitMarking sends the finalized decision set for a session and returns
// the server's summary counts.
func (a *SubmitterAdapter) SubmitMarking(ctx context.Context, sessionID shared.SessionID, decisions []marking.Decision, idempotencyKey string) (session.Summary, error) {
	req := institute.SubmitMarkingRequestDTO{
		SessionID: sessionID.String(),
		Decisions: a.mapper.DecisionsToDTO(decisions),
	}

	resp, err := a.client.SubmitMarking(ctx, req, idempotencyKey)
	if err != nil {
		return session.Summary{}, err
	}

	summary, err := a.mapper.SubmitResponseSummary(resp)
	if err != nil {
		return session.Summary{}, err
	}

	a.logger.Info("attendance submitted",
		"session_id", sessionID.String(),
		"decisions", len(decisions),
		"summary", summary.String(),
	)
	return summary, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RECORD AND STATISTICS SOURCES
// ══════════════════════════════════════════════════════════════════════════════

// RecordSourceAdapter adapts institute.Client to statistics.RecordSource
// and statistics.ServerAggregateSource.
type RecordSourceAdapter struct {
	client *institute.Client
	mapper *institute.Mapper
	logger *slog.Logger
}

// NewRecordSourceAdapter creates a record source over the API client.
func NewRecordSourceAdapter(client *institute.Client, logger *slog.Logger) *RecordSourceAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordSourceAdapter{
		client: client,
		mapper: institute.NewMapper(),
		logger: logger,
	}
}

// FetchHistory loads all attendance records matching the filters.
func (a *RecordSourceAdapter) FetchHistory(ctx context.Context, filters statistics.HistoryFilters) ([]statistics.Record, error) {
	req := institute.HistoryRequestDTO{
		StudentSearch: filters.StudentSearch,
		Subject:       filters.Subject,
		Batch:         string(filters.Batch),
	}
	if !filters.DateFrom.IsZero() {
		req.DateFrom = filters.DateFrom.String()
	}
	if !filters.DateTo.IsZero() {
		req.DateTo = filters.DateTo.String()
	}

	dtos, err := a.client.ListAllRecords(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	records, skipped := a.mapper.RecordsFromDTO(dtos)
	if skipped > 0 {
		a.logger.Warn("skipped malformed history records", "skipped", skipped, "kept", len(records))
	}
	return records, nil
}

// FetchStatistics loads the server's pre-aggregated statistics for a window.
func (a *RecordSourceAdapter) FetchStatistics(ctx context.Context, window shared.DateRange) (*statistics.AttendanceStatistics, error) {
	dto, err := a.client.GetStatistics(ctx, institute.StatisticsRequestDTO{
		From: window.From.String(),
		To:   window.To.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("fetch statistics: %w", err)
	}
	return a.mapper.StatisticsFromDTO(dto)
}

// FetchLowAttendanceAlerts loads students flagged below the threshold.
func (a *RecordSourceAdapter) FetchLowAttendanceAlerts(ctx context.Context, threshold float64, limit int) ([]statistics.LowAttendanceAlert, error) {
	dtos, err := a.client.GetLowAttendanceAlerts(ctx, institute.AlertsRequestDTO{
		Threshold: threshold,
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch low attendance alerts: %w", err)
	}
	return a.mapper.AlertsFromDTO(dtos)
}

// CreateExport asks the server to render the filtered history window as a
// downloadable file and returns the signed link.
func (a *RecordSourceAdapter) CreateExport(ctx context.Context, format statistics.ExportFormat, filters statistics.HistoryFilters) (*statistics.ExportResult, error) {
	req := institute.ExportRequestDTO{
		Format: string(format),
		Filters: institute.HistoryRequestDTO{
			StudentSearch: filters.StudentSearch,
			Subject:       filters.Subject,
			Batch:         string(filters.Batch),
		},
	}
	if !filters.DateFrom.IsZero() {
		req.Filters.DateFrom = filters.DateFrom.String()
	}
	if !filters.DateTo.IsZero() {
		req.Filters.DateTo = filters.DateTo.String()
	}

	dto, err := a.client.CreateExport(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create export: %w", err)
	}

	result, err := a.mapper.ExportResultFromDTO(dto)
	if err != nil {
		return nil, err
	}

	a.logger.Info("history export created",
		"format", string(result.Format),
		"expires_at", result.ExpiresAt,
	)
	return result, nil
}
