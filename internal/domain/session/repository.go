package session

import (
	"context"

	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
)

// Source loads class sessions from the remote scheduling/attendance API.
// Implementations live in the infrastructure layer; the domain only sees
// this port. Errors carry the shared taxonomy kinds: ErrNetwork on transport
// failure, ErrUnauthorized/ErrForbidden when the caller's role may not view
// the requested batch, ErrServer on a malformed or 5xx response.
type Source interface {
	// LoadForDate fetches the sessions teachable on the given day.
	LoadForDate(ctx context.Context, date shared.Date, filters Filters) ([]*ClassSession, error)

	// LoadScheduled fetches future scheduled sessions for the given day.
	LoadScheduled(ctx context.Context, date shared.Date, filters Filters) ([]*ClassSession, error)
}
