package triage

import (
	"context"
	"sync"

	"testing"
)

// fakeStore is a minimal in-memory SessionStore for orchestrator tests,
// avoiding a dependency on internal/session (which itself depends on this
// package).
type fakeStore struct {
	mu      sync.Mutex
	states  map[string]*TurnContext
	events  map[string][]string
	nextID  int
	conflictOnce bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{states: map[string]*TurnContext{}, events: map[string][]string{}}
}

func (s *fakeStore) Create(ctx context.Context, locale string) (*TurnContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := "sess-" + string(rune('0'+s.nextID))
	tc := NewTurnContext(id, locale)
	s.states[id] = tc
	return tc.Clone(), nil
}

func (s *fakeStore) Get(ctx context.Context, sessionID string) (*TurnContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tc, ok := s.states[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return tc.Clone(), nil
}

func (s *fakeStore) Update(ctx context.Context, sessionID string, expectedTurnIndex int, tc *TurnContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conflictOnce {
		s.conflictOnce = false
		return ErrSessionConflict
	}
	current, ok := s.states[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if current.TurnIndex != expectedTurnIndex {
		return ErrSessionConflict
	}
	s.states[sessionID] = tc.Clone()
	return nil
}

func (s *fakeStore) AppendEvent(ctx context.Context, sessionID string, eventType string, payload map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[sessionID] = append(s.events[sessionID], eventType)
	return nil
}

func TestHandleTurn_NewSessionFreeTextProducesQuestionOrResult(t *testing.T) {
	rt := testRuntime(t)
	store := newFakeStore()
	o := NewOrchestrator(store, rt)

	env := o.HandleTurn(context.Background(), HandleTurnRequest{
		Locale:      "tr-TR",
		UserMessage: "idrar yaparken yanıyor",
	})

	if env.Type != EnvelopeQuestion && env.Type != EnvelopeResult {
		t.Fatalf("expected QUESTION or RESULT on first turn, got %s: %+v", env.Type, env)
	}
	if env.SessionID == "" {
		t.Error("expected a session id to be assigned")
	}
}

func TestHandleTurn_EmptyMessageAndNoAnswerIsValidationError(t *testing.T) {
	rt := testRuntime(t)
	store := newFakeStore()
	o := NewOrchestrator(store, rt)

	env := o.HandleTurn(context.Background(), HandleTurnRequest{Locale: "tr-TR"})
	if env.Type != EnvelopeError || env.Error.Code != "EMPTY_INPUT" {
		t.Fatalf("expected EMPTY_INPUT error envelope, got %+v", env)
	}
}

func TestHandleTurn_UnknownSessionIsSessionNotFound(t *testing.T) {
	rt := testRuntime(t)
	store := newFakeStore()
	o := NewOrchestrator(store, rt)

	env := o.HandleTurn(context.Background(), HandleTurnRequest{
		SessionID:   "does-not-exist",
		Locale:      "tr-TR",
		UserMessage: "baş ağrısı var",
	})
	if env.Type != EnvelopeError || env.Error.Code != "SESSION_NOT_FOUND" {
		t.Fatalf("expected SESSION_NOT_FOUND error envelope, got %+v", env)
	}
}

func TestHandleTurn_CompletedSessionRejectsFurtherTurns(t *testing.T) {
	rt := testRuntime(t)
	store := newFakeStore()
	o := NewOrchestrator(store, rt)

	created, _ := store.Create(context.Background(), "tr-TR")
	created.IsComplete = true
	store.Update(context.Background(), created.SessionID, 0, created)

	env := o.HandleTurn(context.Background(), HandleTurnRequest{
		SessionID:   created.SessionID,
		Locale:      "tr-TR",
		UserMessage: "baş ağrısı var",
	})
	if env.Type != EnvelopeError || env.Error.Code != "SESSION_COMPLETE" {
		t.Fatalf("expected SESSION_COMPLETE error envelope, got %+v", env)
	}
}

func TestHandleTurn_EmergencyTextShortCircuitsToEmergencyEnvelope(t *testing.T) {
	rt := testRuntime(t)
	store := newFakeStore()
	o := NewOrchestrator(store, rt)

	env := o.HandleTurn(context.Background(), HandleTurnRequest{
		Locale:      "tr-TR",
		UserMessage: "göğsümde baskı ve nefes darlığı var",
	})
	if env.Type != EnvelopeEmergency {
		t.Fatalf("expected EMERGENCY envelope for a chest-pain hard trigger, got %s: %+v", env.Type, env)
	}
}

func TestHandleTurn_RetriesOnceOnSessionConflict(t *testing.T) {
	rt := testRuntime(t)
	store := newFakeStore()
	o := NewOrchestrator(store, rt)

	created, _ := store.Create(context.Background(), "tr-TR")
	store.conflictOnce = true

	env := o.HandleTurn(context.Background(), HandleTurnRequest{
		SessionID:   created.SessionID,
		Locale:      "tr-TR",
		UserMessage: "baş ağrısı var",
	})
	if env.Type == EnvelopeError {
		t.Fatalf("expected the single retry to succeed past one conflict, got %+v", env)
	}
}
