// Package session defines the abstract session-state collaborator the
// orchestrator depends on, plus an in-memory and a SQLite-backed
// implementation. Grounded on the teacher's quota-store interface shape and
// its SQLite-backed persistent cache.
package session

import (
	"context"
	"time"

	"github.com/yourorg/pretriaged/internal/triage"
)

// ErrNotFound and ErrConflict are aliases of the orchestrator's own sentinel
// errors: the Store interface is consumed by internal/triage, so Get/Update
// return triage's sentinels directly rather than defining a second pair
// errors.Is would need to bridge.
var (
	ErrNotFound = triage.ErrSessionNotFound
	ErrConflict = triage.ErrSessionConflict
)

// Event is one append-only event-log record for a session.
type Event struct {
	Type      string
	Payload   map[string]any
	Timestamp time.Time
}

// Store is the session-state collaborator: create, read, optimistically
// update, and append events. Implementations must be safe for concurrent
// use by multiple goroutines across different session ids.
type Store interface {
	// Create allocates a brand-new session and returns its initial state.
	Create(ctx context.Context, locale string) (*triage.TurnContext, error)

	// Get returns the current state for sessionID, or ErrNotFound.
	Get(ctx context.Context, sessionID string) (*triage.TurnContext, error)

	// Update persists tc if tc.TurnIndex still matches what Get would
	// currently return's turn index via expectedTurnIndex (optimistic
	// concurrency); otherwise it returns ErrConflict and leaves the stored
	// state untouched.
	Update(ctx context.Context, sessionID string, expectedTurnIndex int, tc *triage.TurnContext) error

	// AppendEvent records one event-log entry for sessionID. Failures here
	// are non-critical per the error-handling contract: callers should log
	// and continue rather than fail the turn.
	AppendEvent(ctx context.Context, sessionID string, eventType string, payload map[string]any) error
}
