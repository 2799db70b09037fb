package query

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
	"github.com/coaching-hub/attendance-hub/internal/domain/statistics"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET HISTORY QUERY
// Loads the filtered attendance record history, newest first, paged for
// display. The full filtered window is fetched once; paging happens
// locally so flipping pages never re-hits the API.
// ══════════════════════════════════════════════════════════════════════════════

// GetHistoryQuery contains the parameters for a history load.
type GetHistoryQuery struct {
	// StudentSearch matches against student name or ID (empty = all).
	StudentSearch string

	// Subject filters by subject name (empty = all subjects).
	Subject string

	// Batch filters by batch tag (empty = all batches).
	Batch string

	// DateFrom and DateTo bound the window, "2006-01-02". Both empty
	// defaults to the trailing 30 days.
	DateFrom string
	DateTo   string

	// Page is 1-based; PerPage defaults to 50.
	Page    int
	PerPage int

	from  shared.Date
	to    shared.Date
	batch shared.Batch
}

// Validate checks and normalizes the parameters.
func (q *GetHistoryQuery) Validate() error {
	q.batch = shared.Batch(q.Batch)
	if !q.batch.IsValid() {
		return shared.NewDomainError("query", "GetHistory", shared.ErrValidation, "invalid batch tag")
	}

	if q.DateFrom != "" {
		d, err := shared.ParseDate(q.DateFrom)
		if err != nil {
			return err
		}
		q.from = d
	}
	if q.DateTo != "" {
		d, err := shared.ParseDate(q.DateTo)
		if err != nil {
			return err
		}
		q.to = d
	}
	if !q.from.IsZero() && !q.to.IsZero() && q.from.After(q.to) {
		return shared.ErrInvalidDateWindow
	}

	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PerPage <= 0 {
		q.PerPage = 50
	}
	if q.PerPage > 200 {
		q.PerPage = 200
	}
	return nil
}

// HistoryRecordDTO is one historical record row for display.
type HistoryRecordDTO struct {
	// ID is the record identifier.
	ID string `json:"id"`

	// StudentID and StudentName identify the student.
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`

	// Subject and Batch place the record.
	Subject string `json:"subject"`
	Batch   string `json:"batch"`

	// Date is the class day, "2006-01-02".
	Date string `json:"date"`

	// Status is the recorded outcome.
	Status string `json:"status"`

	// MarkedAt and MarkedBy record who finalized the decision and when.
	MarkedAt time.Time `json:"marked_at"`
	MarkedBy string    `json:"marked_by,omitempty"`

	// Remark is the optional free-text note.
	Remark string `json:"remark,omitempty"`
}

// GetHistoryResult contains one page of history.
type GetHistoryResult struct {
	// Records for the requested page, newest first.
	Records []HistoryRecordDTO `json:"records"`

	// Page, PerPage and TotalPages describe the pagination.
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`

	// Total is the full filtered record count across all pages.
	Total int `json:"total"`

	// GeneratedAt is when the result was built.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetHistoryHandler handles history loads.
type GetHistoryHandler struct {
	records statistics.RecordSource
	logger  *slog.Logger
}

// NewGetHistoryHandler creates the handler.
func NewGetHistoryHandler(records statistics.RecordSource, logger *slog.Logger) *GetHistoryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetHistoryHandler{records: records, logger: logger}
}

// Handle executes the query.
func (h *GetHistoryHandler) Handle(ctx context.Context, query GetHistoryQuery) (*GetHistoryResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetHistory", shared.ErrValidation, "invalid query", err)
	}

	records, err := h.records.FetchHistory(ctx, statistics.HistoryFilters{
		StudentSearch: query.StudentSearch,
		Subject:       query.Subject,
		Batch:         query.batch,
		DateFrom:      query.from,
		DateTo:        query.to,
	})
	if err != nil {
		return nil, err
	}

	sortRecordsNewestFirst(records)

	total := len(records)
	totalPages := (total + query.PerPage - 1) / query.PerPage
	if totalPages == 0 {
		totalPages = 1
	}

	start := (query.Page - 1) * query.PerPage
	if start > total {
		start = total
	}
	end := start + query.PerPage
	if end > total {
		end = total
	}

	page := make([]HistoryRecordDTO, 0, end-start)
	for _, r := range records[start:end] {
		page = append(page, HistoryRecordDTO{
			ID:          r.ID,
			StudentID:   r.StudentID.String(),
			StudentName: r.StudentName,
			Subject:     r.Subject,
			Batch:       string(r.Batch),
			Date:        r.Date.String(),
			Status:      r.Status.String(),
			MarkedAt:    r.MarkedAt,
			MarkedBy:    r.MarkedBy,
			Remark:      r.Remark,
		})
	}

	return &GetHistoryResult{
		Records:     page,
		Page:        query.Page,
		PerPage:     query.PerPage,
		TotalPages:  totalPages,
		Total:       total,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// sortRecordsNewestFirst orders by class day descending, marked time as
// tiebreak, record ID last so the order is fully deterministic.
func sortRecordsNewestFirst(records []statistics.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			return records[j].Date.Before(records[i].Date)
		}
		if !records[i].MarkedAt.Equal(records[j].MarkedAt) {
			return records[i].MarkedAt.After(records[j].MarkedAt)
		}
		return records[i].ID < records[j].ID
	})
}
