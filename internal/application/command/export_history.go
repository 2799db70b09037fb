package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
	"github.com/coaching-hub/attendance-hub/internal/domain/statistics"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPORT HISTORY COMMAND
// Asks the server to render a filtered history window as a downloadable
// file. The file itself is generated and stored server-side; the result
// is a short-lived signed link.
// ══════════════════════════════════════════════════════════════════════════════

// ExportHistoryCommand contains the parameters for an export request.
type ExportHistoryCommand struct {
	// Format is the requested file format: csv, xlsx or pdf.
	Format string

	// StudentSearch, Subject and Batch narrow the exported record set.
	StudentSearch string
	Subject       string
	Batch         string

	// DateFrom and DateTo bound the window, "2006-01-02".
	DateFrom string
	DateTo   string

	format statistics.ExportFormat
	batch  shared.Batch
	from   shared.Date
	to     shared.Date
}

// Validate checks and normalizes the parameters.
func (c *ExportHistoryCommand) Validate() error {
	c.format = statistics.ExportFormat(c.Format)
	if !c.format.IsValid() {
		return shared.NewDomainError("command", "ExportHistory", shared.ErrValidation, "unsupported export format")
	}

	c.batch = shared.Batch(c.Batch)
	if !c.batch.IsValid() {
		return shared.NewDomainError("command", "ExportHistory", shared.ErrValidation, "invalid batch tag")
	}

	if c.DateFrom != "" {
		d, err := shared.ParseDate(c.DateFrom)
		if err != nil {
			return err
		}
		c.from = d
	}
	if c.DateTo != "" {
		d, err := shared.ParseDate(c.DateTo)
		if err != nil {
			return err
		}
		c.to = d
	}
	if !c.from.IsZero() && !c.to.IsZero() && c.from.After(c.to) {
		return shared.ErrInvalidDateWindow
	}
	return nil
}

// ExportHistoryResult contains the export artifact.
type ExportHistoryResult struct {
	// URL is the signed download link.
	URL string `json:"url"`

	// Format echoes the rendered format.
	Format string `json:"format"`

	// ExpiresAt is when the link stops working.
	ExpiresAt time.Time `json:"expires_at"`
}

// ExportHistoryHandler handles export requests.
type ExportHistoryHandler struct {
	exporter statistics.Exporter
	logger   *slog.Logger
}

// NewExportHistoryHandler creates the handler.
func NewExportHistoryHandler(exporter statistics.Exporter, logger *slog.Logger) *ExportHistoryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportHistoryHandler{exporter: exporter, logger: logger}
}

// Handle executes the command.
func (h *ExportHistoryHandler) Handle(ctx context.Context, cmd ExportHistoryCommand) (*ExportHistoryResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "ExportHistory", shared.ErrValidation, "invalid command", err)
	}

	result, err := h.exporter.CreateExport(ctx, cmd.format, statistics.HistoryFilters{
		StudentSearch: cmd.StudentSearch,
		Subject:       cmd.Subject,
		Batch:         cmd.batch,
		DateFrom:      cmd.from,
		DateTo:        cmd.to,
	})
	if err != nil {
		return nil, err
	}

	return &ExportHistoryResult{
		URL:       result.URL,
		Format:    string(result.Format),
		ExpiresAt: result.ExpiresAt,
	}, nil
}
