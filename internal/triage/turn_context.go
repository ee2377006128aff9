package triage

// TurnContext is the full per-session state the orchestrator threads
// through a turn, persisted by the session store between turns. Sets are
// represented as map[string]struct{} throughout this package; callers own
// the invariant known ∩ denied = ∅ and asked ⊇ known ∪ denied.
type TurnContext struct {
	SessionID           string
	Locale              string
	TurnIndex           int
	RawTextAccumulated  string
	Answers             map[string]string
	KnownSymptoms       map[string]struct{}
	DeniedSymptoms      map[string]struct{}
	AskedCanonicals     map[string]struct{}
	SpecialtyScores     map[string]SpecialtyScore
	DiseaseCandidates   []DiseaseCandidate
	FinalScores         []FinalScore
	Confidence0to1      float64
	RiskLevel           RiskLevel
	StopReason          string
	IsComplete          bool
	Profile             Profile
	DurationDays        *int
	SameDayActive       bool
}

// NewTurnContext builds a fresh, empty TurnContext for a brand-new session.
func NewTurnContext(sessionID, locale string) *TurnContext {
	return &TurnContext{
		SessionID:       sessionID,
		Locale:          locale,
		Answers:         map[string]string{},
		KnownSymptoms:   map[string]struct{}{},
		DeniedSymptoms:  map[string]struct{}{},
		AskedCanonicals: map[string]struct{}{},
		SpecialtyScores: map[string]SpecialtyScore{},
	}
}

// Clone returns a deep-enough copy so the orchestrator can mutate a working
// copy without corrupting the version the session store still holds if the
// optimistic-concurrency write fails.
func (tc *TurnContext) Clone() *TurnContext {
	clone := &TurnContext{
		SessionID:          tc.SessionID,
		Locale:             tc.Locale,
		TurnIndex:          tc.TurnIndex,
		RawTextAccumulated: tc.RawTextAccumulated,
		Confidence0to1:     tc.Confidence0to1,
		RiskLevel:          tc.RiskLevel,
		StopReason:         tc.StopReason,
		IsComplete:         tc.IsComplete,
		Profile:            tc.Profile,
		DurationDays:       tc.DurationDays,
		SameDayActive:      tc.SameDayActive,
		Answers:            make(map[string]string, len(tc.Answers)),
		KnownSymptoms:      make(map[string]struct{}, len(tc.KnownSymptoms)),
		DeniedSymptoms:     make(map[string]struct{}, len(tc.DeniedSymptoms)),
		AskedCanonicals:    make(map[string]struct{}, len(tc.AskedCanonicals)),
		SpecialtyScores:    make(map[string]SpecialtyScore, len(tc.SpecialtyScores)),
	}
	for k, v := range tc.Answers {
		clone.Answers[k] = v
	}
	for k := range tc.KnownSymptoms {
		clone.KnownSymptoms[k] = struct{}{}
	}
	for k := range tc.DeniedSymptoms {
		clone.DeniedSymptoms[k] = struct{}{}
	}
	for k := range tc.AskedCanonicals {
		clone.AskedCanonicals[k] = struct{}{}
	}
	for k, v := range tc.SpecialtyScores {
		clone.SpecialtyScores[k] = CloneSpecialtyScore(v)
	}
	// DiseaseCandidates and FinalScores are rebuilt from scratch every turn;
	// no need to deep-copy the previous turn's values.
	return clone
}
