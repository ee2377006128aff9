package triage

import (
	"math"
	"sort"

	"github.com/yourorg/pretriaged/internal/reference"
)

// priorPoints mirrors PRIOR_POINTS from the original final-decision engine:
// rank-1 candidates contribute the most prior weight to their specialty.
var priorPoints = map[int]float64{1: 4, 2: 3, 3: 2, 4: 1, 5: 1}

// MergeFinalScores fuses the Specialty Scorer's cumulative rules_score with
// a disease-candidate-derived prior_score into a per-specialty final_score,
// returned in strict tie-break order: (-final_score, -keyword_score,
// specialty_id ascending). If every final score is zero, returns a single
// fallback-specialty row at score 0.
func MergeFinalScores(specialtyScores map[string]SpecialtyScore, diseaseCandidates []DiseaseCandidate, rt *reference.Runtime) []FinalScore {
	priors := map[string]float64{}
	for i, cand := range diseaseCandidates {
		rank := i + 1
		points, ok := priorPoints[rank]
		if !ok {
			continue
		}
		specialtyID := rt.FallbackSpecialtyID
		confidence := 0.5
		if mapping, ok := rt.DiseaseToSpecialty[cand.DiseaseLabel]; ok {
			specialtyID = mapping.SpecialtyID
			confidence = mapping.Confidence
		}
		if specialtyID == "" {
			continue
		}
		priors[specialtyID] += points * confidence
	}

	ids := map[string]struct{}{}
	for id := range specialtyScores {
		ids[id] = struct{}{}
	}
	for id := range priors {
		ids[id] = struct{}{}
	}

	out := make([]FinalScore, 0, len(ids))
	for id := range ids {
		rules := specialtyScores[id]
		rulesScore := round2(rules.Score)
		priorScore := round2(priors[id])
		out = append(out, FinalScore{
			SpecialtyID:  id,
			DisplayName:  rt.SpecialtyByID[id].DisplayName,
			RulesScore:   rulesScore,
			PriorScore:   priorScore,
			KeywordScore: rules.KeywordScore,
			FinalScore:   round2(rulesScore + priorScore),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].FinalScore != out[j].FinalScore {
			return out[i].FinalScore > out[j].FinalScore
		}
		if out[i].KeywordScore != out[j].KeywordScore {
			return out[i].KeywordScore > out[j].KeywordScore
		}
		return out[i].SpecialtyID < out[j].SpecialtyID
	})

	if len(out) == 0 || allFinalScoresZero(out) {
		return []FinalScore{{
			SpecialtyID: rt.FallbackSpecialtyID,
			DisplayName: rt.SpecialtyByID[rt.FallbackSpecialtyID].DisplayName,
		}}
	}

	return out
}

func allFinalScoresZero(scores []FinalScore) bool {
	for _, s := range scores {
		if s.FinalScore != 0 {
			return false
		}
	}
	return true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
