package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/pretriaged/internal/triage"
)

type sessionRecord struct {
	state  *triage.TurnContext
	events []Event
}

// MemoryStore is the default in-process Store, grounded on the teacher's
// InMemoryQuotaStore: a single mutex guarding a map keyed by session id.
// Good enough for a single-process deployment or for tests; state does not
// survive a restart.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]*sessionRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]*sessionRecord)}
}

func (s *MemoryStore) Create(ctx context.Context, locale string) (*triage.TurnContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	tc := triage.NewTurnContext(id, locale)
	s.data[id] = &sessionRecord{state: tc}
	return tc.Clone(), nil
}

func (s *MemoryStore) Get(ctx context.Context, sessionID string) (*triage.TurnContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.data[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.state.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, sessionID string, expectedTurnIndex int, tc *triage.TurnContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.data[sessionID]
	if !ok {
		return ErrNotFound
	}
	if rec.state.TurnIndex != expectedTurnIndex {
		return ErrConflict
	}
	rec.state = tc.Clone()
	return nil
}

func (s *MemoryStore) AppendEvent(ctx context.Context, sessionID string, eventType string, payload map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.data[sessionID]
	if !ok {
		return ErrNotFound
	}
	rec.events = append(rec.events, Event{Type: eventType, Payload: payload, Timestamp: time.Now().UTC()})
	return nil
}

// Events returns a copy of sessionID's event log, chiefly for tests and
// debug endpoints.
func (s *MemoryStore) Events(sessionID string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.data[sessionID]
	if !ok {
		return nil
	}
	return append([]Event{}, rec.events...)
}
