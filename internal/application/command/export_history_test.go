package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
	"github.com/coaching-hub/attendance-hub/internal/domain/statistics"
)

type fakeExporter struct {
	result     *statistics.ExportResult
	err        error
	gotFormat  statistics.ExportFormat
	gotFilters statistics.HistoryFilters
}

func (f *fakeExporter) CreateExport(_ context.Context, format statistics.ExportFormat, filters statistics.HistoryFilters) (*statistics.ExportResult, error) {
	f.gotFormat = format
	f.gotFilters = filters
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestExportHistoryCreatesArtifact(t *testing.T) {
	expires := time.Date(2026, time.August, 28, 18, 0, 0, 0, time.UTC)
	exporter := &fakeExporter{result: &statistics.ExportResult{
		URL:       "https://files.institute.example/exports/att-42.csv?sig=abc",
		Format:    statistics.ExportCSV,
		ExpiresAt: expires,
	}}
	handler := NewExportHistoryHandler(exporter, nil)

	result, err := handler.Handle(context.Background(), ExportHistoryCommand{
		Format:   "csv",
		Subject:  "Physics",
		Batch:    "jee-2026-a",
		DateFrom: "2026-08-01",
		DateTo:   "2026-08-28",
	})
	require.NoError(t, err)

	assert.Equal(t, statistics.ExportCSV, exporter.gotFormat)
	assert.Equal(t, "Physics", exporter.gotFilters.Subject)
	assert.Equal(t, shared.Batch("jee-2026-a"), exporter.gotFilters.Batch)
	assert.Equal(t, shared.Date{Year: 2026, Month: time.August, Day: 1}, exporter.gotFilters.DateFrom)

	assert.Equal(t, "https://files.institute.example/exports/att-42.csv?sig=abc", result.URL)
	assert.Equal(t, "csv", result.Format)
	assert.Equal(t, expires, result.ExpiresAt)
}

func TestExportHistoryRejectsBadInput(t *testing.T) {
	exporter := &fakeExporter{}
	handler := NewExportHistoryHandler(exporter, nil)

	_, err := handler.Handle(context.Background(), ExportHistoryCommand{Format: "doc"})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = handler.Handle(context.Background(), ExportHistoryCommand{
		Format:   "csv",
		DateFrom: "2026-08-28",
		DateTo:   "2026-08-01",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidation)

	assert.Empty(t, exporter.gotFormat)
}

func TestExportHistoryServerErrorPropagates(t *testing.T) {
	exporter := &fakeExporter{err: shared.NewDomainError("institute", "CreateExport", shared.ErrRateLimited, "too many exports")}
	handler := NewExportHistoryHandler(exporter, nil)

	_, err := handler.Handle(context.Background(), ExportHistoryCommand{Format: "pdf"})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrRateLimited)
}
