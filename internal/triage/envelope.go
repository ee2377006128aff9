package triage

import (
	"sort"
	"strings"
	"time"
)

// EnvelopeType discriminates which payload field of Envelope is populated.
type EnvelopeType string

const (
	EnvelopeQuestion  EnvelopeType = "QUESTION"
	EnvelopeResult    EnvelopeType = "RESULT"
	EnvelopeEmergency EnvelopeType = "EMERGENCY"
	EnvelopeError     EnvelopeType = "ERROR"
)

// QuestionPayload is the wire shape of a QUESTION envelope.
type QuestionPayload struct {
	Canonical  string   `json:"canonical"`
	Text       string   `json:"question_tr"`
	AnswerType string   `json:"answer_type"`
	Choices    []string `json:"choices_tr,omitempty"`
}

// RecommendedSpecialty names the specialty the RESULT payload routes to.
type RecommendedSpecialty struct {
	ID          string `json:"id"`
	DisplayName string `json:"name_tr"`
}

// TopConditionEntry is one ranked row in a RESULT payload's top_conditions.
type TopConditionEntry struct {
	DiseaseLabel string  `json:"disease_label"`
	Score0to1    float64 `json:"score_0_1"`
}

// ResultPayload is the wire shape of a RESULT envelope.
type ResultPayload struct {
	Urgency              string                 `json:"urgency"`
	RecommendedSpecialty RecommendedSpecialty   `json:"recommended_specialty"`
	TopConditions        []TopConditionEntry    `json:"top_conditions"`
	DoctorReadySummaryTR []string               `json:"doctor_ready_summary_tr"`
	SafetyNotesTR        []string               `json:"safety_notes_tr"`
	Risk                 RiskResult             `json:"risk"`
}

// EmergencyPayload is the wire shape of an EMERGENCY envelope.
type EmergencyPayload struct {
	ReasonTR               string   `json:"reason_tr"`
	InstructionsTR         []string `json:"instructions_tr"`
	MissingInfoToConfirmTR []string `json:"missing_info_to_confirm_tr"`
}

// ErrorPayload is the wire shape of an ERROR envelope.
type ErrorPayload struct {
	Code      string `json:"code"`
	MessageTR string `json:"message_tr"`
	Retryable bool   `json:"retryable"`
}

// EnvelopeMeta carries boundary metadata that rides along on every
// envelope regardless of type. FacilityDiscovery is left nil: nearest-
// facility lookup is an external collaborator outside this module's scope,
// but the field stays on the wire shape so a future gateway can populate it
// without changing the envelope contract.
type EnvelopeMeta struct {
	Timestamp         time.Time `json:"timestamp"`
	DisclaimerTR      string    `json:"disclaimer_tr"`
	FacilityDiscovery *string   `json:"facility_discovery,omitempty"`
}

const disclaimerTR = "Bu araç bir ön değerlendirme sağlar, tıbbi teşhis veya tedavi yerine geçmez."

func buildMeta() EnvelopeMeta {
	return EnvelopeMeta{Timestamp: time.Now().UTC(), DisclaimerTR: disclaimerTR}
}

// Envelope is the single response sum type every triage turn returns.
// Exactly one payload field is non-nil, matching Type.
type Envelope struct {
	Type      EnvelopeType      `json:"type"`
	SessionID string            `json:"session_id"`
	TurnIndex int               `json:"turn_index"`
	Question  *QuestionPayload  `json:"question,omitempty"`
	Result    *ResultPayload    `json:"result,omitempty"`
	Emergency *EmergencyPayload `json:"emergency,omitempty"`
	Error     *ErrorPayload     `json:"error,omitempty"`
	Meta      EnvelopeMeta      `json:"meta"`
}

const withinThreeDaysScoreThreshold = 0.5

var fixedSafetyNotes = []string{
	"Bu bir ön değerlendirmedir, tıbbi teşhis değildir.",
	"Şikayetler artarsa veya yeni belirtiler eklenirse doktora başvur.",
}

const neurologyCardiologyAmendment = "Ani bilinç kaybı, konuşma bozukluğu veya şiddetli ağrı durumunda acile başvur."

// BuildQuestionEnvelope assembles a QUESTION envelope from a selected question.
func BuildQuestionEnvelope(sessionID string, turnIndex int, q SelectedQuestion) Envelope {
	return Envelope{
		Type:      EnvelopeQuestion,
		SessionID: sessionID,
		TurnIndex: turnIndex,
		Question: &QuestionPayload{
			Canonical:  q.Canonical,
			Text:       q.Text,
			AnswerType: q.AnswerType,
			Choices:    q.Choices,
		},
		Meta: buildMeta(),
	}
}

// BuildResultEnvelope assembles a RESULT envelope from the merged final
// scores, the disease candidate ranking, the known/answered symptom state,
// and the risk block. Grounded on the original result-payload builder's
// summary-line and safety-note shape.
func BuildResultEnvelope(sessionID string, turnIndex int, known map[string]struct{}, answers map[string]string, finalScores []FinalScore, candidates []DiseaseCandidate, risk RiskResult) Envelope {
	summary := buildSummaryLines(known, answers)
	safetyNotes := append([]string{}, fixedSafetyNotes...)

	var topSpecialtyID, topSpecialtyName string
	if len(finalScores) > 0 {
		topSpecialtyID = finalScores[0].SpecialtyID
		topSpecialtyName = finalScores[0].DisplayName
	}
	if topSpecialtyID == "neurology" || topSpecialtyID == "cardiology" {
		safetyNotes = append(safetyNotes, neurologyCardiologyAmendment)
	}

	topConditions := make([]TopConditionEntry, 0, 3)
	for i, c := range candidates {
		if i == 3 {
			break
		}
		topConditions = append(topConditions, TopConditionEntry{
			DiseaseLabel: c.DiseaseLabel,
			Score0to1:    round2(c.Score0to1),
		})
	}

	urgency := "ROUTINE"
	switch risk.Level {
	case RiskHigh:
		urgency = "ER_NOW"
	case RiskMedium:
		urgency = "SAME_DAY"
	default:
		if len(topConditions) > 0 && topConditions[0].Score0to1 >= withinThreeDaysScoreThreshold {
			urgency = "WITHIN_3_DAYS"
		}
	}

	return Envelope{
		Type:      EnvelopeResult,
		SessionID: sessionID,
		TurnIndex: turnIndex,
		Result: &ResultPayload{
			Urgency:              urgency,
			RecommendedSpecialty: RecommendedSpecialty{ID: topSpecialtyID, DisplayName: topSpecialtyName},
			TopConditions:        topConditions,
			DoctorReadySummaryTR: summary,
			SafetyNotesTR:        safetyNotes,
			Risk:                 risk,
		},
		Meta: buildMeta(),
	}
}

// BuildEmergencyEnvelope assembles an EMERGENCY envelope from a fired Safety
// Guard rule.
func BuildEmergencyEnvelope(sessionID string, turnIndex int, result EmergencyResult) Envelope {
	return Envelope{
		Type:      EnvelopeEmergency,
		SessionID: sessionID,
		TurnIndex: turnIndex,
		Emergency: &EmergencyPayload{
			ReasonTR:               result.Label,
			InstructionsTR:         result.Instructions,
			MissingInfoToConfirmTR: result.MissingInfoToConfirm,
		},
		Meta: buildMeta(),
	}
}

// BuildErrorEnvelope assembles an ERROR envelope. Per the error-handling
// contract, errors never throw into the orchestrator — they are returned as
// a terminal envelope. The HTTP handler sends it with 200, except
// SESSION_NOT_FOUND, which it maps to 404.
func BuildErrorEnvelope(sessionID string, turnIndex int, code, messageTR string, retryable bool) Envelope {
	return Envelope{
		Type:      EnvelopeError,
		SessionID: sessionID,
		TurnIndex: turnIndex,
		Error: &ErrorPayload{
			Code:      code,
			MessageTR: messageTR,
			Retryable: retryable,
		},
		Meta: buildMeta(),
	}
}

// buildSummaryLines renders one line per known symptom, then one line per
// structured answer whose canonical isn't already covered by known, both in
// canonical-sorted order.
func buildSummaryLines(known map[string]struct{}, answers map[string]string) []string {
	knownSorted := make([]string, 0, len(known))
	for c := range known {
		knownSorted = append(knownSorted, c)
	}
	sort.Strings(knownSorted)

	lines := make([]string, 0, len(knownSorted)+len(answers))
	for _, c := range knownSorted {
		lines = append(lines, capitalizeTR(c)+" mevcut.")
	}

	answerKeys := make([]string, 0, len(answers))
	for k := range answers {
		answerKeys = append(answerKeys, k)
	}
	sort.Strings(answerKeys)

	for _, k := range answerKeys {
		if _, ok := known[k]; ok {
			continue
		}
		label := "yok"
		if isAffirmative(answers[k]) {
			label = "var"
		}
		lines = append(lines, capitalizeTR(k)+": "+label+".")
	}

	return lines
}

func isAffirmative(v string) bool {
	switch strings.ToLower(v) {
	case "yes", "evet", "var":
		return true
	default:
		return false
	}
}

func capitalizeTR(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	first := runes[0]
	switch first {
	case 'i':
		runes[0] = 'İ'
	case 'ı':
		runes[0] = 'I'
	default:
		runes[0] = []rune(strings.ToUpper(string(first)))[0]
	}
	return string(runes)
}
