package triage

import (
	"strings"

	"github.com/yourorg/pretriaged/internal/reference"
)

// EmergencyResult is the Safety Guard's (C3) non-OK outcome.
type EmergencyResult struct {
	RuleID               string
	Label                string
	Instructions         []string
	MissingInfoToConfirm []string // only populated for a soft-trigger escalation
}

// CheckSafety evaluates the hard and soft emergency rules against already-
// normalized text, first-hit-wins. Step order: hard keyword scan, then hard
// regex scan, then soft-trigger scan gated by the profile's age. A nil
// result means OK — the pipeline may proceed.
//
// Grounded on safety_guard.py's keyword+regex rule shape; the step order
// here (keyword before regex) matches this contract rather than the
// original source's regex-first ordering, since this contract governs.
func CheckSafety(normalizedText string, profile Profile, rules reference.EmergencyRules) *EmergencyResult {
	for _, trigger := range rules.HardTriggers {
		if hasAnyKeyword(normalizedText, trigger.Keywords) {
			return &EmergencyResult{
				RuleID:       trigger.ID,
				Label:        trigger.Label,
				Instructions: trigger.Instructions,
			}
		}
	}

	for _, trigger := range rules.HardTriggers {
		if trigger.Regex != nil && trigger.Regex.MatchString(normalizedText) {
			return &EmergencyResult{
				RuleID:       trigger.ID,
				Label:        trigger.Label,
				Instructions: trigger.Instructions,
			}
		}
	}

	var softHits []reference.SoftTrigger
	for _, trigger := range rules.SoftTriggers {
		if hasAnyKeyword(normalizedText, trigger.Keywords) {
			softHits = append(softHits, trigger)
		}
	}
	if len(softHits) > 0 && ageInHighRiskBand(profile.AgeYears, rules.AgeRisk) {
		var ids, labels, missing []string
		for _, hit := range softHits {
			ids = append(ids, hit.ID)
			labels = append(labels, hit.Label)
			missing = append(missing, hit.FollowUpQuestions...)
		}
		return &EmergencyResult{
			RuleID:               strings.Join(ids, "+"),
			Label:                strings.Join(labels, "; "),
			MissingInfoToConfirm: missing,
		}
	}

	return nil
}

func hasAnyKeyword(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// ageInHighRiskBand reports whether age falls in [min, max] or [min2, max2].
// A nil age never matches — age-gated escalation requires a known age.
func ageInHighRiskBand(age *int, band reference.AgeRisk) bool {
	if age == nil {
		return false
	}
	a := *age
	if a >= band.Min && a <= band.Max {
		return true
	}
	if a >= band.Min2 && a <= band.Max2 {
		return true
	}
	return false
}
