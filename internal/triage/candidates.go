package triage

import (
	"sort"
	"strings"

	"github.com/yourorg/pretriaged/internal/reference"
)

// DefaultMinScoreToInclude and DefaultTopK mirror the original candidate
// generator's defaults (min_score_to_include=0.05, top_k=5).
const (
	DefaultMinScoreToInclude = 0.05
	DefaultTopK              = 5
	defaultSymptomWeight     = 1.0
	severityWeightMultiplier = 0.25
)

// GenerateCandidates scores every disease in the matrix against the user's
// canonicals via weighted Jaccard and returns at most topK candidates sorted
// by (-score, disease_label). Canonicals are translated to the reference
// symptom space via the inverse of reference_to_canonical; a canonical with
// no inverse entry falls back to a direct-match probe against the severity
// table and the matrix itself (grounded on the original source's
// undocumented direct-match fallback).
func GenerateCandidates(canonicals []string, rt *reference.Runtime, minScore float64, topK int) []DiseaseCandidate {
	if minScore <= 0 {
		minScore = DefaultMinScoreToInclude
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	userSymptoms := canonicalsToReferenceSymptoms(canonicals, rt)
	if len(userSymptoms) == 0 {
		return nil
	}

	diseaseLabels := make([]string, 0, len(rt.DiseaseSymptomMatrix))
	for label := range rt.DiseaseSymptomMatrix {
		diseaseLabels = append(diseaseLabels, label)
	}
	sort.Strings(diseaseLabels)

	candidates := make([]DiseaseCandidate, 0, len(diseaseLabels))
	for _, label := range diseaseLabels {
		diseaseSymptoms := rt.DiseaseSymptomMatrix[label]

		var intersectionWeight, unionWeight float64
		var matched, missing []string
		seenUnion := map[string]struct{}{}

		for s := range userSymptoms {
			seenUnion[s] = struct{}{}
		}
		for s := range diseaseSymptoms {
			seenUnion[s] = struct{}{}
		}
		for s := range seenUnion {
			w := weight(s, rt.SeverityWeights)
			unionWeight += w
			_, inUser := userSymptoms[s]
			_, inDisease := diseaseSymptoms[s]
			if inUser && inDisease {
				intersectionWeight += w
				matched = append(matched, s)
			} else if inDisease {
				missing = append(missing, s)
			}
		}

		if unionWeight == 0 {
			continue
		}
		score := intersectionWeight / unionWeight
		if score < minScore {
			continue
		}

		sort.Strings(matched)
		sort.Strings(missing)
		candidates = append(candidates, DiseaseCandidate{
			DiseaseLabel: label,
			Score0to1:    score,
			Matched:      matched,
			Missing:      missing,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score0to1 != candidates[j].Score0to1 {
			return candidates[i].Score0to1 > candidates[j].Score0to1
		}
		return candidates[i].DiseaseLabel < candidates[j].DiseaseLabel
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates
}

func weight(referenceSymptom string, severity map[string]int) float64 {
	if sev, ok := severity[referenceSymptom]; ok {
		return defaultSymptomWeight + float64(sev)*severityWeightMultiplier
	}
	return defaultSymptomWeight
}

// canonicalsToReferenceSymptoms maps the user's canonicals into the
// reference-symptom space using CanonicalToReference. A canonical absent
// from that inverse index is tried as a direct match: normalize it to
// snake_case and check whether it already is a reference symptom key
// (present in severity_weights or any disease's symptom set).
func canonicalsToReferenceSymptoms(canonicals []string, rt *reference.Runtime) map[string]struct{} {
	out := map[string]struct{}{}
	for _, c := range canonicals {
		if refs, ok := rt.CanonicalToReference[c]; ok {
			for r := range refs {
				out[r] = struct{}{}
			}
			continue
		}
		direct := strings.ReplaceAll(c, " ", "_")
		if _, ok := rt.SeverityWeights[direct]; ok {
			out[direct] = struct{}{}
			continue
		}
		for _, symptoms := range rt.DiseaseSymptomMatrix {
			if _, ok := symptoms[direct]; ok {
				out[direct] = struct{}{}
				break
			}
		}
	}
	return out
}
