package triage

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/yourorg/pretriaged/internal/ai"
	"github.com/yourorg/pretriaged/internal/diff"
	"github.com/yourorg/pretriaged/internal/reference"
)

// SessionStore is the minimal collaborator the orchestrator needs: load,
// create, CAS-update, and append an event-log record. Defined here rather
// than imported from internal/session so internal/session can depend on
// this package's TurnContext and error sentinels without a cycle;
// internal/session's Store implementations satisfy this interface
// structurally.
type SessionStore interface {
	Create(ctx context.Context, locale string) (*TurnContext, error)
	Get(ctx context.Context, sessionID string) (*TurnContext, error)
	Update(ctx context.Context, sessionID string, expectedTurnIndex int, tc *TurnContext) error
	AppendEvent(ctx context.Context, sessionID string, eventType string, payload map[string]any) error
}

// TurnAnswer is the structured answer a caller attaches to a free-text
// message when responding to the previous turn's QUESTION.
type TurnAnswer struct {
	Canonical string
	Value     string
}

// HandleTurnRequest is the Turn Orchestrator's (C11) input.
type HandleTurnRequest struct {
	SessionID     string // empty starts a new session
	Locale        string
	UserMessage   string
	Answer        *TurnAnswer
	Profile       Profile
	DurationDays  *int
	SameDayActive bool
}

var (
	affirmativeAnswers = map[string]struct{}{"yes": {}, "evet": {}, "var": {}, "oldu": {}, "oluyor": {}}
	negativeAnswers    = map[string]struct{}{"no": {}, "hayır": {}, "hayir": {}, "yok": {}, "olmadı": {}, "olmuyor": {}}
)

func isAffirmativeAnswer(v string) bool {
	_, ok := affirmativeAnswers[strings.ToLower(strings.TrimSpace(v))]
	return ok
}

func isNegativeAnswer(v string) bool {
	_, ok := negativeAnswers[strings.ToLower(strings.TrimSpace(v))]
	return ok
}

// Orchestrator wires C1–C10 around a SessionStore, grounded on the original
// orchestrator's SessionState step sequence and on the teacher's
// FallbackChain retry-on-transient-failure shape (here, retry-once on a
// session-conflict CAS failure rather than a transient provider error).
type Orchestrator struct {
	Store   SessionStore
	Runtime *reference.Runtime

	// Phraser is optional and never on the decision path: when set, it
	// rewords the Question Selector's canonical text before it is placed
	// on the wire. A nil Phraser (the default) leaves the canonical text
	// untouched.
	Phraser *ai.Phraser
}

func NewOrchestrator(store SessionStore, rt *reference.Runtime) *Orchestrator {
	return &Orchestrator{Store: store, Runtime: rt}
}

// HandleTurn runs one turn end to end, retrying once on a session-conflict
// CAS failure at the persistence step.
func (o *Orchestrator) HandleTurn(ctx context.Context, req HandleTurnRequest) Envelope {
	env, err := o.attemptTurn(ctx, req)
	if err == nil {
		return env
	}
	if err == ErrSessionConflict {
		env, err = o.attemptTurn(ctx, req)
		if err == nil {
			return env
		}
	}
	return turnErrorEnvelope(req.SessionID, err)
}

func turnErrorEnvelope(sessionID string, err error) Envelope {
	if te, ok := err.(*TurnError); ok {
		return te.ToErrorEnvelope(sessionID, 0)
	}
	return NewDownstreamFailureError("Sunucu hatası oluştu, lütfen tekrar deneyin.").ToErrorEnvelope(sessionID, 0)
}

func (o *Orchestrator) attemptTurn(ctx context.Context, req HandleTurnRequest) (Envelope, error) {
	if strings.TrimSpace(req.UserMessage) == "" && req.Answer == nil {
		if req.SessionID == "" {
			return Envelope{}, &TurnError{Err: ErrInputValidation, Code: "EMPTY_INPUT", MessageTR: "Mesaj veya cevap boş olamaz.", Retryable: true}
		}
		return Envelope{}, NewInputValidationError("Mesaj veya cevap boş olamaz.")
	}

	// 1. Load or create session.
	tc, err := o.loadOrCreate(ctx, req)
	if err != nil {
		return Envelope{}, err
	}
	if tc.IsComplete {
		return Envelope{}, NewSessionCompleteError()
	}

	expectedTurnIndex := tc.TurnIndex
	working := tc.Clone()
	working.TurnIndex++
	working.Profile = req.Profile
	working.DurationDays = req.DurationDays
	working.SameDayActive = req.SameDayActive

	// 2. Redact PII, accumulate text, fold in the structured answer.
	if strings.TrimSpace(req.UserMessage) != "" {
		redacted := ai.RedactPII(req.UserMessage)
		before := working.RawTextAccumulated
		if before == "" {
			working.RawTextAccumulated = redacted
		} else {
			working.RawTextAccumulated = before + " " + redacted
		}
		textDiff := diff.Diff(before, working.RawTextAccumulated)
		if err := o.Store.AppendEvent(ctx, working.SessionID, "TEXT_APPENDED", map[string]any{
			"unified_diff":  diff.FormatUnified(textDiff),
			"added_lines":   textDiff.Added,
			"removed_lines": textDiff.Removed,
		}); err != nil {
			slog.Warn("orchestrator: failed to append text-diff event", "session_id", working.SessionID, "error", err)
		}
	}
	if req.Answer != nil {
		working.Answers[req.Answer.Canonical] = req.Answer.Value
		working.AskedCanonicals[req.Answer.Canonical] = struct{}{}
		switch {
		case isAffirmativeAnswer(req.Answer.Value):
			working.KnownSymptoms[req.Answer.Canonical] = struct{}{}
			delete(working.DeniedSymptoms, req.Answer.Canonical)
		case isNegativeAnswer(req.Answer.Value):
			working.DeniedSymptoms[req.Answer.Canonical] = struct{}{}
			delete(working.KnownSymptoms, req.Answer.Canonical)
		}
	}

	// 3. Normalize accumulated text, extract canonicals, merge into known.
	normalized := Normalize(working.RawTextAccumulated)
	extracted := ExtractCanonicals(normalized, working.Answers, o.Runtime)
	for _, c := range extracted {
		if _, denied := working.DeniedSymptoms[c]; denied {
			continue
		}
		working.KnownSymptoms[c] = struct{}{}
	}

	// 4. Safety Guard short-circuit.
	if emergency := CheckSafety(normalized, working.Profile, o.Runtime.EmergencyRules); emergency != nil {
		working.IsComplete = true
		working.StopReason = "EMERGENCY_" + emergency.RuleID
		env := BuildEmergencyEnvelope(working.SessionID, working.TurnIndex, *emergency)
		if err := o.persist(ctx, expectedTurnIndex, working, "EMERGENCY_TRIGGERED", map[string]any{"rule_id": emergency.RuleID}); err != nil {
			return Envelope{}, err
		}
		return env, nil
	}

	// 5. Specialty Scorer on accumulated evidence.
	working.SpecialtyScores = ScoreSpecialties(normalized, working.SpecialtyScores, o.Runtime)

	// 6. Disease Candidate Generator.
	knownSlice := sortedKeys(working.KnownSymptoms)
	working.DiseaseCandidates = GenerateCandidates(knownSlice, o.Runtime, DefaultMinScoreToInclude, DefaultTopK)

	// 7. Final Decision Merger.
	working.FinalScores = MergeFinalScores(working.SpecialtyScores, working.DiseaseCandidates, o.Runtime)

	// 8. Confidence.
	working.Confidence0to1 = computeConfidence(working.DiseaseCandidates)

	topDiseaseScore := 0.0
	if len(working.DiseaseCandidates) > 0 {
		topDiseaseScore = working.DiseaseCandidates[0].Score0to1
	}

	// 9/10. Stop Controller, falling back to Question Selector; if no
	// question is available, re-evaluate the stop decision as forced.
	decision := ShouldStop(working.TurnIndex, topDiseaseScore, working.FinalScores, false, o.Runtime.StopRules)
	var selected *SelectedQuestion
	if !decision.Stop {
		selected = SelectQuestion(working.DiseaseCandidates, working.KnownSymptoms, working.DeniedSymptoms, working.AskedCanonicals, o.Runtime)
		if selected == nil {
			decision = ShouldStop(working.TurnIndex, topDiseaseScore, working.FinalScores, true, o.Runtime.StopRules)
		}
	}

	if decision.Stop {
		risk := ComputeRisk(knownSlice, working.Confidence0to1, working.DurationDays, working.SameDayActive, working.Profile, o.Runtime.RiskRules)
		working.RiskLevel = risk.Level
		working.StopReason = decision.Reason
		working.IsComplete = true
		env := BuildResultEnvelope(working.SessionID, working.TurnIndex, working.KnownSymptoms, working.Answers, working.FinalScores, working.DiseaseCandidates, risk)
		if err := o.persist(ctx, expectedTurnIndex, working, "ENVELOPE_RESULT", map[string]any{"stop_reason": decision.Reason}); err != nil {
			return Envelope{}, err
		}
		return env, nil
	}

	// 11. Build QUESTION envelope; persist state.
	working.AskedCanonicals[selected.Canonical] = struct{}{}
	if o.Phraser != nil {
		selected.Text = o.Phraser.Rephrase(ctx, selected.Text)
	}
	env := BuildQuestionEnvelope(working.SessionID, working.TurnIndex, *selected)
	if err := o.persist(ctx, expectedTurnIndex, working, "QUESTION_EMITTED", map[string]any{"canonical": selected.Canonical}); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

func (o *Orchestrator) loadOrCreate(ctx context.Context, req HandleTurnRequest) (*TurnContext, error) {
	if req.SessionID == "" {
		tc, err := o.Store.Create(ctx, req.Locale)
		if err != nil {
			if isDeadlineExceeded(ctx, err) {
				return nil, NewDeadlineExceededError()
			}
			return nil, NewDownstreamFailureError("Oturum oluşturulamadı.")
		}
		return tc, nil
	}

	tc, err := o.Store.Get(ctx, req.SessionID)
	if err == ErrSessionNotFound {
		return nil, NewSessionNotFoundError()
	}
	if err != nil {
		if isDeadlineExceeded(ctx, err) {
			return nil, NewDeadlineExceededError()
		}
		return nil, NewDownstreamFailureError("Oturum okunamadı.")
	}
	return tc, nil
}

func (o *Orchestrator) persist(ctx context.Context, expectedTurnIndex int, working *TurnContext, eventType string, payload map[string]any) error {
	if err := o.Store.Update(ctx, working.SessionID, expectedTurnIndex, working); err != nil {
		if err == ErrSessionConflict {
			return ErrSessionConflict
		}
		if isDeadlineExceeded(ctx, err) {
			return NewDeadlineExceededError()
		}
		return NewDownstreamFailureError("Oturum kaydedilemedi.")
	}
	if err := o.Store.AppendEvent(ctx, working.SessionID, eventType, payload); err != nil {
		// Non-critical per the error-handling contract: log and continue.
		slog.Warn("orchestrator: failed to append event", "session_id", working.SessionID, "event_type", eventType, "error", err)
	}
	return nil
}

// isDeadlineExceeded reports whether a Store failure was caused by the
// request's deadline (propagated through database/sql's QueryRowContext /
// ExecContext / BeginTx) rather than a genuine downstream error.
func isDeadlineExceeded(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded
}

// computeConfidence applies min(1, 0.75*top1 + 0.6*max(0, top1-top2)) over
// the ranked disease candidates' score_0_1.
func computeConfidence(candidates []DiseaseCandidate) float64 {
	if len(candidates) == 0 {
		return 0
	}
	top1 := candidates[0].Score0to1
	var top2 float64
	if len(candidates) > 1 {
		top2 = candidates[1].Score0to1
	}
	gap := top1 - top2
	if gap < 0 {
		gap = 0
	}
	confidence := 0.75*top1 + 0.6*gap
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
