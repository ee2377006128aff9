package reference

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

// ErrDataMissing is returned when a required reference file cannot be read.
// Per spec.md §7, this is startup-fatal: the process must refuse to serve.
var ErrDataMissing = errors.New("reference_data_missing")

// ErrMalformedRule names the malformed-rule error kind. No code path returns
// it: a hard-trigger regex that fails to compile is logged once by Load and
// only that regex is dropped (see compileEmergencyRules).
var ErrMalformedRule = errors.New("malformed_rule")

// fileSynonyms mirrors the on-disk synonyms.json shape.
type fileSynonyms struct {
	Synonyms []struct {
		Canonical string   `json:"canonical"`
		Variants  []string `json:"variants"`
	} `json:"synonyms"`
}

type fileDiseaseToSpecialty struct {
	FallbackSpecialtyID string `json:"fallback_specialty_id"`
	Map                 []DiseaseSpecialty `json:"map"`
}

type fileSpecialtyKeywords struct {
	Specialties []Specialty      `json:"specialties"`
	Scoring     ScoringConstants `json:"scoring"`
}

type fileQuestionBank struct {
	Questions []Question `json:"questions"`
}

type fileEmergencyRules struct {
	HardTriggers []struct {
		ID           string   `json:"id"`
		Label        string   `json:"label"`
		Keywords     []string `json:"keywords"`
		Regex        string   `json:"regex"`
		Instructions []string `json:"instructions"`
	} `json:"hard_triggers"`
	SoftTriggers []struct {
		ID                string   `json:"id"`
		Label             string   `json:"label"`
		Keywords          []string `json:"keywords"`
		FollowUpQuestions []string `json:"follow_up_questions"`
	} `json:"soft_triggers"`
	AgeRisk struct {
		Min  int `json:"min"`
		Max  int `json:"max"`
		Min2 int `json:"min2"`
		Max2 int `json:"max2"`
	} `json:"age_risk"`
}

type fileQuestionEffectiveness struct {
	QuestionEffectiveness []struct {
		Canonical        string  `json:"canonical"`
		AskedCount       int     `json:"asked_count"`
		Effectiveness0_1 float64 `json:"effectiveness_0_1"`
		Balance0_1       float64 `json:"balance_0_1"`
	} `json:"question_effectiveness"`
}

// Load reads every required reference file from dir, validates cross-
// references, compiles emergency regexes, and builds the derived inverse
// indices described in spec.md §4.12. Missing optional files (question
// effectiveness, English question bank) are logged and treated as empty;
// missing required files return a wrapped ErrDataMissing.
func Load(dir string) (*Runtime, error) {
	rt := &Runtime{
		CanonicalSet:         map[string]struct{}{},
		DiseaseSymptomMatrix: map[string]map[string]struct{}{},
		SeverityWeights:      map[string]int{},
		ReferenceToCanonical: map[string]string{},
		DiseaseToSpecialty:   map[string]DiseaseSpecialty{},
		SpecialtyByID:        map[string]Specialty{},
		QuestionBank:         map[string]Question{},
		QuestionBankEN:       map[string]Question{},
		QuestionEffectiveness: map[string]QuestionEffectiveness{},
		CanonicalToReference: map[string]map[string]struct{}{},
	}

	var syn fileSynonyms
	if err := loadRequired(dir, "synonyms.json", &syn); err != nil {
		return nil, err
	}
	buildSynonymIndex(rt, &syn)

	var matrix map[string][]string
	if err := loadRequired(dir, "disease_symptom_matrix.json", &matrix); err != nil {
		return nil, err
	}
	for disease, symptoms := range matrix {
		set := make(map[string]struct{}, len(symptoms))
		for _, s := range symptoms {
			set[s] = struct{}{}
		}
		rt.DiseaseSymptomMatrix[disease] = set
	}

	var severity map[string]int
	if err := loadRequired(dir, "severity_weights.json", &severity); err != nil {
		return nil, err
	}
	rt.SeverityWeights = severity

	var refToCanon map[string]*string
	if err := loadRequired(dir, "reference_to_canonical.json", &refToCanon); err != nil {
		return nil, err
	}
	for ref, canon := range refToCanon {
		if canon != nil {
			rt.ReferenceToCanonical[ref] = *canon
			rt.CanonicalToReference[*canon] = addToSet(rt.CanonicalToReference[*canon], ref)
		}
	}

	var d2s fileDiseaseToSpecialty
	if err := loadRequired(dir, "disease_to_specialty.json", &d2s); err != nil {
		return nil, err
	}
	rt.FallbackSpecialtyID = d2s.FallbackSpecialtyID
	for _, entry := range d2s.Map {
		if _, exists := rt.DiseaseToSpecialty[entry.DiseaseLabel]; !exists {
			rt.DiseaseToSpecialty[entry.DiseaseLabel] = entry
		}
	}
	// Every disease_label in the matrix must resolve somewhere, either via
	// the explicit map or the fallback specialty — spec.md §4.12.
	for disease := range rt.DiseaseSymptomMatrix {
		if _, ok := rt.DiseaseToSpecialty[disease]; !ok {
			if rt.FallbackSpecialtyID == "" {
				return nil, fmt.Errorf("%w: disease %q has no specialty mapping and no fallback is configured", ErrDataMissing, disease)
			}
		}
	}

	var keywords fileSpecialtyKeywords
	if err := loadRequired(dir, "specialty_keywords.json", &keywords); err != nil {
		return nil, err
	}
	rt.Specialties = keywords.Specialties
	rt.ScoringConstants = keywords.Scoring
	for _, sp := range keywords.Specialties {
		rt.SpecialtyByID[sp.ID] = sp
	}

	var bank fileQuestionBank
	if err := loadRequired(dir, "question_bank.json", &bank); err != nil {
		return nil, err
	}
	for _, q := range bank.Questions {
		rt.QuestionBank[q.Canonical] = q
	}

	var bankEN fileQuestionBank
	if found, err := loadOptional(dir, "question_bank_en.json", &bankEN); err != nil {
		slog.Warn("reference.Load: optional file unreadable, treating as empty", "file", "question_bank_en.json", "error", err)
	} else if !found {
		slog.Info("reference.Load: optional file absent, treating as empty", "file", "question_bank_en.json")
	} else {
		for _, q := range bankEN.Questions {
			rt.QuestionBankEN[q.Canonical] = q
		}
	}

	var emergency fileEmergencyRules
	if err := loadRequired(dir, "emergency_rules.json", &emergency); err != nil {
		return nil, err
	}
	rt.EmergencyRules = compileEmergencyRules(emergency)

	var risk RiskRules
	if err := loadRequired(dir, "risk_rules.json", &risk); err != nil {
		return nil, err
	}
	rt.RiskRules = risk

	var stop StopRules
	if err := loadRequired(dir, "stop_rules.json", &stop); err != nil {
		return nil, err
	}
	if stop.MaxQuestions <= 0 {
		return nil, fmt.Errorf("%w: stop_rules.max_questions must be positive", ErrDataMissing)
	}
	rt.StopRules = stop

	var eff fileQuestionEffectiveness
	if found, err := loadOptional(dir, "question_effectiveness.json", &eff); err != nil {
		slog.Warn("reference.Load: optional file unreadable, treating as empty", "file", "question_effectiveness.json", "error", err)
	} else if !found {
		slog.Info("reference.Load: optional file absent, treating as empty", "file", "question_effectiveness.json")
	} else {
		for _, row := range eff.QuestionEffectiveness {
			rt.QuestionEffectiveness[row.Canonical] = QuestionEffectiveness{
				AskedCount:       row.AskedCount,
				Effectiveness0_1: row.Effectiveness0_1,
				Balance0_1:       row.Balance0_1,
			}
		}
	}

	slog.Info("reference.Load complete",
		"synonyms", len(rt.SynonymIndex),
		"diseases", len(rt.DiseaseSymptomMatrix),
		"specialties", len(rt.Specialties),
		"questions", len(rt.QuestionBank),
		"hard_triggers", len(rt.EmergencyRules.HardTriggers),
		"question_effectiveness_rows", len(rt.QuestionEffectiveness),
	)

	return rt, nil
}

func addToSet(set map[string]struct{}, key string) map[string]struct{} {
	if set == nil {
		set = map[string]struct{}{}
	}
	set[key] = struct{}{}
	return set
}

// buildSynonymIndex constructs the synonym_index sorted by descending phrase
// length then lexicographically, matching spec.md §3 and the sort shape in
// canonical_extract.py's build_synonym_patterns / specialty_scorer.py's
// _build_synonym_index.
func buildSynonymIndex(rt *Runtime, syn *fileSynonyms) {
	seen := map[string]struct{}{}
	for _, entry := range syn.Synonyms {
		if entry.Canonical == "" {
			continue
		}
		rt.CanonicalSet[entry.Canonical] = struct{}{}
		addPhrase := func(phrase string) {
			if phrase == "" {
				return
			}
			key := entry.Canonical + "|" + phrase
			if _, ok := seen[key]; ok {
				return
			}
			seen[key] = struct{}{}
			rt.SynonymIndex = append(rt.SynonymIndex, SynonymEntry{Canonical: entry.Canonical, Phrase: phrase})
		}
		for _, v := range entry.Variants {
			addPhrase(v)
		}
		addPhrase(entry.Canonical)
	}
	sort.SliceStable(rt.SynonymIndex, func(i, j int) bool {
		a, b := rt.SynonymIndex[i].Phrase, rt.SynonymIndex[j].Phrase
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
}

// compileEmergencyRules compiles regex patterns once. A pattern that fails
// to compile is logged and only its regex is dropped: the trigger is kept
// with a nil Regex so its keywords still match (never returned to a caller,
// never panics).
func compileEmergencyRules(raw fileEmergencyRules) EmergencyRules {
	rules := EmergencyRules{
		AgeRisk: AgeRisk{
			Min:  raw.AgeRisk.Min,
			Max:  raw.AgeRisk.Max,
			Min2: raw.AgeRisk.Min2,
			Max2: raw.AgeRisk.Max2,
		},
	}
	for _, t := range raw.HardTriggers {
		ht := HardTrigger{
			ID:           t.ID,
			Label:        t.Label,
			Keywords:     t.Keywords,
			RegexPattern: t.Regex,
			Instructions: t.Instructions,
		}
		if t.Regex != "" {
			compiled, err := regexp.Compile("(?i)" + t.Regex)
			if err != nil {
				slog.Warn("reference.Load: malformed hard_trigger regex, falling back to keyword-only match",
					"trigger_id", t.ID, "regex", t.Regex, "error", err)
			} else {
				ht.Regex = compiled
			}
		}
		rules.HardTriggers = append(rules.HardTriggers, ht)
	}
	for _, t := range raw.SoftTriggers {
		rules.SoftTriggers = append(rules.SoftTriggers, SoftTrigger{
			ID:                t.ID,
			Label:             t.Label,
			Keywords:          t.Keywords,
			FollowUpQuestions: t.FollowUpQuestions,
		})
	}
	return rules
}

func loadRequired(dir, name string, out interface{}) error {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDataMissing, name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: invalid JSON: %v", ErrDataMissing, name, err)
	}
	return nil
}

// loadOptional reports whether the file was found, plus any read/parse error.
func loadOptional(dir, name string, out interface{}) (found bool, err error) {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return true, err
	}
	return true, nil
}
