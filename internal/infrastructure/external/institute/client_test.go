package institute

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
	"github.com/coaching-hub/attendance-hub/pkg/retry"
)

// newTestClient builds a client against the test server with retries and
// the client-side minimum interval disabled, so error tests finish fast.
func newTestClient(serverURL string) *Client {
	cfg := DefaultClientConfig(serverURL, "test-token")
	cfg.Timeout = 2 * time.Second
	cfg.Retrier = retry.New(retry.WithMaxAttempts(1))
	cfg.RateLimiterConfig.MinInterval = 0
	return NewClient(cfg)
}

func TestClientListSessions(t *testing.T) {
	var gotPath string
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
            "success": true,
            "data": [
                {"id": "ses-1", "subject": "Physics", "batch": "jee-2026-a",
                 "date": "2026-08-28", "start_time": "09:00", "end_time": "10:30",
                 "total_students": 40}
            ],
            "meta": {"total": 1}
        }`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	sessions, meta, err := client.ListSessions(context.Background(), SessionsRequestDTO{
		Date:         "2026-08-28",
		Batch:        "jee-2026-a",
		OnlyUnmarked: true,
	})
	require.NoError(t, err)

	require.Len(t, sessions, 1)
	assert.Equal(t, "ses-1", sessions[0].ID)
	assert.Equal(t, 40, sessions[0].TotalStudents)
	require.NotNil(t, meta)
	assert.Equal(t, 1, meta.Total)

	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Contains(t, gotPath, "date=2026-08-28")
	assert.Contains(t, gotPath, "batch=jee-2026-a")
	assert.Contains(t, gotPath, "only_unmarked=true")
}

func TestClientSubmitMarkingSendsIdempotencyKey(t *testing.T) {
	var gotKey string
	var gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		gotMethod = r.Method
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
            "success": true,
            "data": {"session_id": "ses-1",
                     "summary": {"present": 38, "absent": 2, "late": 0, "excused": 0},
                     "marked_at": "2026-08-28T10:35:00Z"}
        }`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	resp, err := client.SubmitMarking(context.Background(), SubmitMarkingRequestDTO{
		SessionID: "ses-1",
		Decisions: []DecisionDTO{{StudentID: "stu-1", Status: "present"}},
	}, "idem-key-42")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "idem-key-42", gotKey)
	assert.Equal(t, 38, resp.Summary.Present)
	assert.Equal(t, 2, resp.Summary.Absent)
}

func TestClientStatusCodeMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, shared.ErrUnauthorized},
		{"forbidden", http.StatusForbidden, shared.ErrForbidden},
		{"not found", http.StatusNotFound, shared.ErrNotFound},
		{"bad request", http.StatusBadRequest, shared.ErrInvalidInput},
		{"validation", http.StatusUnprocessableEntity, shared.ErrInvalidInput},
		{"rate limited", http.StatusTooManyRequests, shared.ErrRateLimited},
		{"unavailable", http.StatusServiceUnavailable, shared.ErrServiceUnavailable},
		{"server error", http.StatusInternalServerError, shared.ErrServer},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"code": "boom", "message": "nope"}`))
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			_, _, err := client.ListSessions(context.Background(), SessionsRequestDTO{Date: "2026-08-28"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestClientAPILevelError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": false, "error": "window too large"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GetStatistics(context.Background(), StatisticsRequestDTO{From: "2020-01-01", To: "2026-08-28"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "window too large")

	// A failure envelope on a 2xx is a broken contract and must classify
	// as a server error, not fall outside the taxonomy.
	assert.ErrorIs(t, err, shared.ErrServer)
	assert.True(t, shared.IsRetryable(err))
}

func TestClientGetLowAttendanceAlerts(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
            "success": true,
            "data": [{"student_id": "stu-9", "student_name": "Rohan", "rate": 62.5, "days_absent": 9}]
        }`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	alerts, err := client.GetLowAttendanceAlerts(context.Background(), AlertsRequestDTO{Threshold: 75, Limit: 50})
	require.NoError(t, err)

	require.Len(t, alerts, 1)
	assert.Equal(t, "stu-9", alerts[0].StudentID)
	assert.Contains(t, gotPath, "threshold=75.0")
	assert.Contains(t, gotPath, "limit=50")
}

func TestClientListAllRecordsPaginates(t *testing.T) {
	pagesServed := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pagesServed++
		page := r.URL.Query().Get("page")
		w.Header().Set("Content-Type", "application/json")
		if page == "1" {
			_, _ = w.Write([]byte(`{
                "success": true,
                "data": [{"id": "rec-1", "student_id": "stu-1", "session_id": "ses-1",
                          "date": "2026-08-20", "status": "present", "marked_at": "2026-08-20T11:00:00Z"}],
                "meta": {"total": 2, "page": 1, "per_page": 1, "total_pages": 2}
            }`))
			return
		}
		_, _ = w.Write([]byte(`{
            "success": true,
            "data": [{"id": "rec-2", "student_id": "stu-2", "session_id": "ses-1",
                      "date": "2026-08-20", "status": "absent", "marked_at": "2026-08-20T11:00:00Z"}],
            "meta": {"total": 2, "page": 2, "per_page": 1, "total_pages": 2}
        }`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	records, err := client.ListAllRecords(context.Background(), HistoryRequestDTO{PerPage: 1})
	require.NoError(t, err)

	assert.Equal(t, 2, pagesServed)
	require.Len(t, records, 2)
	assert.Equal(t, "rec-1", records[0].ID)
	assert.Equal(t, "rec-2", records[1].ID)
}

func TestClientIsHealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "data": {"status": "ok"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	assert.True(t, client.IsHealthy(context.Background()))
}
