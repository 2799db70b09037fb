package marking

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/coaching-hub/attendance-hub/internal/domain/session"
	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATE MACHINE
// ══════════════════════════════════════════════════════════════════════════════

// State is the lifecycle state of one marking session.
type State string

const (
	// StateUnopened - the engine exists but Open has not been called.
	StateUnopened State = "unopened"
	// StateInitializing - decisions are being seeded from the roster.
	StateInitializing State = "initializing"
	// StateEditing - decisions may be mutated and submitted.
	StateEditing State = "editing"
	// StateSubmitting - a submission is in flight; edits and a second
	// submit for the same session are refused.
	StateSubmitting State = "submitting"
	// StateCommitted - terminal success.
	StateCommitted State = "committed"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// ══════════════════════════════════════════════════════════════════════════════
// PORTS
// ══════════════════════════════════════════════════════════════════════════════

// Submitter persists a finalized decision set to the remote store.
// Implementations map transport and server failures onto the shared error
// kinds; the engine never retries on its own.
type Submitter interface {
	// SubmitMarking sends the decisions for a session. The idempotency key
	// is stable for the lifetime of one marking session so a retry after a
	// transient failure cannot double-apply on the server.
	SubmitMarking(ctx context.Context, sessionID shared.SessionID, decisions []Decision, idempotencyKey string) (session.Summary, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// Engine manages the editable decision set for exactly one session at a
// time. Edits are applied strictly in the order issued. A submit in flight
// blocks a second submit for the same session; submissions for different
// sessions belong to different engines and are independent.
type Engine struct {
	mu sync.Mutex

	sess      *session.ClassSession
	store     *RecordStore
	state     State
	closed    bool
	lastErr   error
	submitter Submitter

	// idemKey is generated once per marking session and reused across
	// submit retries.
	idemKey string

	// defaultStatus seeds unmarked roster entries on Open. The observed
	// product behavior defaults to present; the policy is configurable
	// because a silent false-positive is a deliberate product choice, not
	// an invariant.
	defaultStatus shared.AttendanceStatus
}

// Option configures an Engine.
type Option func(*Engine)

// WithDefaultStatus overrides the status seeded for unmarked students.
func WithDefaultStatus(status shared.AttendanceStatus) Option {
	return func(e *Engine) {
		if status.IsValid() {
			e.defaultStatus = status
		}
	}
}

// NewEngine creates an engine for one session.
func NewEngine(submitter Submitter, opts ...Option) *Engine {
	e := &Engine{
		state:         StateUnopened,
		submitter:     submitter,
		defaultStatus: shared.StatusPresent,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Open seeds one decision per roster student and moves the engine to
// Editing. Prior statuses are reused when re-opening an already-marked
// session; everything else gets the default status. Open immediately
// followed by Validate succeeds for any roster.
func (e *Engine) Open(sess *session.ClassSession) (*RecordStore, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if sess == nil {
		return nil, shared.ErrNilSession
	}
	if e.state != StateUnopened {
		return nil, shared.ErrMarkingAlreadyOpened
	}

	e.state = StateInitializing
	e.sess = sess
	e.store = newRecordStore(sess.Roster, e.defaultStatus)
	e.idemKey = uuid.NewString()
	e.state = StateEditing
	return e.store, nil
}

// SetStatus mutates exactly one decision.
func (e *Engine) SetStatus(studentID shared.StudentID, status shared.AttendanceStatus) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.editable(); err != nil {
		return err
	}
	return e.store.setStatus(studentID, status)
}

// SetRemark mutates the remark field of one decision; no status side effect.
func (e *Engine) SetRemark(studentID shared.StudentID, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.editable(); err != nil {
		return err
	}
	return e.store.setRemark(studentID, text)
}

// BulkSet sets every decision to the given status in one atomic step.
func (e *Engine) BulkSet(status shared.AttendanceStatus) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.editable(); err != nil {
		return err
	}
	return e.store.bulkSet(status)
}

// Validate checks that submission would satisfy the completeness invariant.
func (e *Engine) Validate() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return shared.ErrMarkingClosed
	}
	if e.state != StateEditing {
		return e.stateError()
	}
	return e.store.validate()
}

// CommitResult is the outcome of a successful submit.
type CommitResult struct {
	SessionID shared.SessionID
	// Summary is recomputed locally from the submitted decisions so the
	// UI reflects the new state without a second fetch.
	Summary  session.Summary
	Statuses map[shared.StudentID]shared.AttendanceStatus
}

// Submit validates, converts the store into the wire payload and calls the
// remote mark-attendance endpoint. On success the engine is Committed and
// the summary is tallied locally. On failure the engine returns to Editing
// with every decision intact so a retry does not require re-entering data.
func (e *Engine) Submit(ctx context.Context) (*CommitResult, error) {
	e.mu.Lock()
	if e.state == StateSubmitting {
		e.mu.Unlock()
		return nil, shared.ErrMarkingSubmitting
	}
	if e.closed {
		e.mu.Unlock()
		return nil, shared.ErrMarkingClosed
	}
	if e.state != StateEditing {
		err := e.stateError()
		e.mu.Unlock()
		return nil, err
	}
	if err := e.store.validate(); err != nil {
		e.mu.Unlock()
		return nil, err
	}

	decisions := e.store.Decisions()
	sessionID := e.sess.ID
	idemKey := e.idemKey
	e.state = StateSubmitting
	e.mu.Unlock()

	// The network call runs without the lock so Close and state queries
	// stay responsive while the submit is outstanding.
	_, err := e.submitter.SubmitMarking(ctx, sessionID, decisions, idemKey)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err != nil {
		e.state = StateEditing
		e.lastErr = err
		// No kind of our own: the submitter already classified the failure
		// and a 403 must not come back out looking retryable.
		return nil, shared.WrapError("marking", "Submit", nil, "submission failed, edits retained", err)
	}

	e.state = StateCommitted
	e.lastErr = nil
	return &CommitResult{
		SessionID: sessionID,
		Summary:   TallySummary(decisions),
		Statuses:  e.store.Statuses(),
	}, nil
}

// Close discards the editable state. An in-flight submit is not cancelled;
// its result is still returned to the caller of Submit when it resolves, so
// the session summary stays correct if the user returns later.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	if e.state != StateSubmitting {
		e.store = nil
	}
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// LastError returns the error from the most recent failed submit, if any.
func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// Session returns the session this engine was opened for.
func (e *Engine) Session() *session.ClassSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess
}

// editable guards all mutation paths.
func (e *Engine) editable() error {
	if e.closed && e.state != StateSubmitting {
		return shared.ErrMarkingClosed
	}
	if e.state != StateEditing {
		return e.stateError()
	}
	return nil
}

// stateError maps the current state to the matching domain error.
func (e *Engine) stateError() error {
	switch e.state {
	case StateSubmitting:
		return shared.ErrMarkingSubmitting
	case StateCommitted:
		return shared.ErrMarkingCommitted
	default:
		return shared.ErrMarkingNotOpen
	}
}
