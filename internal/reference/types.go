// Package reference loads and indexes the static corpora the triage
// pipeline scores against: synonyms, the disease-symptom matrix, the
// specialty keyword bank, the question bank, and the safety/risk/stop
// rule sets. Everything here is built once at startup and never mutated.
package reference

import "regexp"

// SynonymEntry pairs a variant phrase with the canonical symptom it maps to.
type SynonymEntry struct {
	Canonical string
	Phrase    string
}

// DiseaseSpecialty is a single disease → specialty routing entry.
type DiseaseSpecialty struct {
	DiseaseLabel string  `json:"disease_label"`
	SpecialtyID  string  `json:"specialty_id"`
	DisplayName  string  `json:"display_name"`
	Confidence   float64 `json:"confidence"`
}

// Specialty carries the keyword sets a single specialty is scored against.
type Specialty struct {
	ID               string            `json:"id"`
	DisplayName      string            `json:"display_name"`
	Keywords         []string          `json:"keywords"`
	NegativeKeywords []string          `json:"negative_keywords"`
	AnswerBoosts     map[string]string `json:"answer_boosts,omitempty"`
}

// ScoringConstants holds the fixed point values C5 awards.
type ScoringConstants struct {
	KeywordPoints   int `json:"keyword_points"`
	PhrasePoints    int `json:"phrase_points"`
	NegativePenalty int `json:"negative_penalty"`
}

// Question describes one entry in the question bank.
type Question struct {
	Canonical          string   `json:"canonical"`
	Text                string   `json:"text"`
	AnswerType          string   `json:"answer_type"`
	Choices             []string `json:"choices,omitempty"`
	PriorityWhenKnown   []string `json:"priority_when_known,omitempty"`
	SkipIfDenied        []string `json:"skip_if_denied,omitempty"`
}

// HardTrigger is a regex-and-keyword emergency rule; the regex is compiled
// once at load time. A nil Regex means there is no usable pattern (one that
// failed to compile is logged at load time); the trigger still matches on
// its Keywords.
type HardTrigger struct {
	ID           string
	Label        string
	Keywords     []string
	RegexPattern string
	Regex        *regexp.Regexp
	Instructions []string
}

// SoftTrigger requires an amplifying age condition before it escalates.
type SoftTrigger struct {
	ID                string
	Label             string
	Keywords          []string
	FollowUpQuestions []string
}

// AgeRisk describes the high-risk age bands soft triggers check against.
type AgeRisk struct {
	Min  int
	Max  int
	Min2 int
	Max2 int
}

// EmergencyRules is the C3 Safety Guard's compiled rule set.
type EmergencyRules struct {
	HardTriggers []HardTrigger
	SoftTriggers []SoftTrigger
	AgeRisk      AgeRisk
}

// RiskBand configures one of the HIGH/MEDIUM risk tiers of C7.
type RiskBand struct {
	CanonicalsAny     []string `json:"canonicals_any"`
	SameDayRequired   bool     `json:"same_day_required,omitempty"`
	SameDayIfTrue     bool     `json:"same_day_if_true,omitempty"`
	MinConfidenceFallback float64 `json:"min_confidence_fallback,omitempty"`
}

// RiskRules is the C7 configuration.
type RiskRules struct {
	High   RiskBand `json:"high"`
	Medium RiskBand `json:"medium"`
}

// StopRules is the C9 configuration.
type StopRules struct {
	MaxQuestions             int     `json:"max_questions"`
	HighConfidenceDiseaseScore float64 `json:"high_confidence_disease_score"`
	MinSpecialtyScoreGap     float64 `json:"min_specialty_score_gap"`
}

// QuestionEffectiveness is one optional historical-effectiveness row.
type QuestionEffectiveness struct {
	AskedCount       int     `json:"asked_count"`
	Effectiveness0_1 float64 `json:"effectiveness_0_1"`
	Balance0_1       float64 `json:"balance_0_1"`
}

// Runtime is the fully loaded, indexed, immutable reference corpus (C12).
// It is constructed once by Load and passed by pointer to every pipeline
// stage; it has no mutating methods after Load returns.
type Runtime struct {
	// synonym_index: sorted descending by phrase length then lexicographically.
	SynonymIndex []SynonymEntry
	CanonicalSet map[string]struct{}

	DiseaseSymptomMatrix map[string]map[string]struct{} // disease -> reference symptom set
	SeverityWeights      map[string]int                 // reference symptom -> weight
	ReferenceToCanonical map[string]string               // reference symptom -> canonical (null entries are omitted)

	DiseaseToSpecialty       map[string]DiseaseSpecialty
	FallbackSpecialtyID      string

	Specialties      []Specialty
	SpecialtyByID    map[string]Specialty
	ScoringConstants ScoringConstants

	QuestionBank          map[string]Question // canonical -> question
	QuestionBankEN        map[string]Question  // optional English companion

	EmergencyRules EmergencyRules
	RiskRules      RiskRules
	StopRules      StopRules

	QuestionEffectiveness map[string]QuestionEffectiveness // optional, empty if absent

	// CanonicalToReference is the inverse of ReferenceToCanonical, built at
	// load time: canonical -> set of reference symptoms that map to it.
	CanonicalToReference map[string]map[string]struct{}
}
