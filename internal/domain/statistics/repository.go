package statistics

import (
	"context"
	"time"

	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
)

// HistoryFilters narrows a record history fetch. Zero values mean "no
// filter"; an empty result is valid and is not an error.
type HistoryFilters struct {
	StudentSearch string
	Subject       string
	Batch         shared.Batch
	DateFrom      shared.Date
	DateTo        shared.Date
}

// RecordSource reads historical attendance records from the remote store.
type RecordSource interface {
	FetchHistory(ctx context.Context, filters HistoryFilters) ([]Record, error)
}

// ServerAggregateSource reads the server's pre-aggregated statistics and
// alerts. The worker uses it to warm caches; views fall back to local
// computation from records when it is unavailable.
type ServerAggregateSource interface {
	FetchStatistics(ctx context.Context, window shared.DateRange) (*AttendanceStatistics, error)
	FetchLowAttendanceAlerts(ctx context.Context, threshold float64, limit int) ([]LowAttendanceAlert, error)
}

// ExportFormat is a supported history export format.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
	ExportPDF  ExportFormat = "pdf"
)

// IsValid checks that the format is one of the supported values.
func (f ExportFormat) IsValid() bool {
	switch f {
	case ExportCSV, ExportXLSX, ExportPDF:
		return true
	default:
		return false
	}
}

// ExportResult is the server-generated export artifact. The URL is
// short-lived; ExpiresAt tells the caller when it stops working.
type ExportResult struct {
	URL       string
	Format    ExportFormat
	ExpiresAt time.Time
}

// Exporter asks the server to render a filtered history window as a
// downloadable file. Generation happens server-side; the core never
// builds export files itself.
type Exporter interface {
	CreateExport(ctx context.Context, format ExportFormat, filters HistoryFilters) (*ExportResult, error)
}
