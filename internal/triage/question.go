package triage

import (
	"sort"

	"github.com/yourorg/pretriaged/internal/reference"
)

// priorityKnownBoost is added to the discriminative score when a
// priority_when_known token is already confirmed present.
const priorityKnownBoost = 0.35

// SelectQuestion picks the single most discriminative next question. known
// doubles as the "currently present" set the priority_when_known boost
// checks against — a canonical already known is by definition present.
//
// Grounded on the original question-selector's candidate-pool-intersection
// shape; the discriminative-score formula and the ascending-canonical tie-
// break follow this package's own documented contract rather than the
// original source's (inverted) formula and descending tie-break.
func SelectQuestion(candidates []DiseaseCandidate, known, denied, asked map[string]struct{}, rt *reference.Runtime) *SelectedQuestion {
	if len(candidates) < 2 {
		return nil
	}

	canonicalCandidateCount := map[string]int{}
	for _, cand := range candidates {
		canonicalsInCandidate := map[string]struct{}{}
		for _, r := range cand.Matched {
			if c := rt.ReferenceToCanonical[r]; c != "" {
				canonicalsInCandidate[c] = struct{}{}
			}
		}
		for _, r := range cand.Missing {
			if c := rt.ReferenceToCanonical[r]; c != "" {
				canonicalsInCandidate[c] = struct{}{}
			}
		}
		for c := range canonicalsInCandidate {
			canonicalCandidateCount[c]++
		}
	}

	type scoredCanonical struct {
		canonical string
		score     float64
	}
	var pool []scoredCanonical
	poolSize := float64(len(candidates))

	for canonical, count := range canonicalCandidateCount {
		if _, ok := known[canonical]; ok {
			continue
		}
		if _, ok := denied[canonical]; ok {
			continue
		}
		if _, ok := asked[canonical]; ok {
			continue
		}
		question, ok := rt.QuestionBank[canonical]
		if !ok {
			continue
		}
		if intersectsDenied(question.SkipIfDenied, denied) {
			continue
		}

		p := float64(count) / poolSize
		disc := 1 - absFloat(p-0.5)

		for _, token := range question.PriorityWhenKnown {
			if _, ok := known[token]; ok {
				disc += priorityKnownBoost
				break
			}
		}

		score := disc
		if eff, ok := rt.QuestionEffectiveness[canonical]; ok {
			coveragePenalty := 0.0
			if eff.AskedCount >= 80 && eff.Effectiveness0_1 < 0.35 {
				coveragePenalty = 0.10
			}
			score = 0.55*(2*disc) + 0.35*eff.Effectiveness0_1 + 0.10*eff.Balance0_1 - coveragePenalty
		}

		pool = append(pool, scoredCanonical{canonical: canonical, score: score})
	}

	if len(pool) == 0 {
		return nil
	}

	sort.Slice(pool, func(i, j int) bool {
		if pool[i].score != pool[j].score {
			return pool[i].score > pool[j].score
		}
		return pool[i].canonical < pool[j].canonical
	})

	top := pool[0]
	q := rt.QuestionBank[top.canonical]
	return &SelectedQuestion{
		Canonical:  top.canonical,
		Text:       q.Text,
		AnswerType: q.AnswerType,
		Choices:    q.Choices,
	}
}

func intersectsDenied(skipIfDenied []string, denied map[string]struct{}) bool {
	for _, s := range skipIfDenied {
		if _, ok := denied[s]; ok {
			return true
		}
	}
	return false
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
