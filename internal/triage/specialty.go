package triage

import (
	"strings"

	"github.com/yourorg/pretriaged/internal/reference"
)

// matchTier distinguishes how a canonical or keyword literal was detected,
// since a phrase hit outranks a keyword hit when both are possible.
type matchTier int

const (
	tierNone matchTier = iota
	tierKeyword
	tierPhrase
)

// ScoreSpecialties implements the NO_DOUBLE_COUNT_SAME_CANONICAL policy:
// within this call, lock phrase hits first (highest precedence), then
// keyword hits for remaining canonicals; credit each specialty at most once
// per canonical per call; apply negative-keyword penalties; then carry
// forward prior-turn scores so a canonical already credited to a specialty
// is never credited again, even if re-mentioned in a later turn.
//
// Grounded on the original specialty scorer's phrase/keyword/negative
// three-pass algorithm and its existing_scores carry-forward shape.
func ScoreSpecialties(normalizedText string, prior map[string]SpecialtyScore, rt *reference.Runtime) map[string]SpecialtyScore {
	phraseLocked := map[string]struct{}{}
	keywordLocked := map[string]struct{}{}

	for _, entry := range rt.SynonymIndex {
		if _, ok := phraseLocked[entry.Canonical]; ok {
			continue
		}
		if findWholeWord(normalizedText, entry.Phrase) >= 0 {
			phraseLocked[entry.Canonical] = struct{}{}
		}
	}
	for canonical := range rt.CanonicalSet {
		if _, locked := phraseLocked[canonical]; locked {
			continue
		}
		if findWholeWord(normalizedText, canonical) >= 0 {
			keywordLocked[canonical] = struct{}{}
		}
	}

	result := make(map[string]SpecialtyScore, len(rt.Specialties))
	for _, sp := range rt.Specialties {
		base := SpecialtyScore{MatchedCanonicals: map[string]struct{}{}}
		if p, ok := prior[sp.ID]; ok {
			base = CloneSpecialtyScore(p)
		}

		creditedThisCall := map[string]struct{}{}

		creditCanonical := func(canonical string, tier matchTier) {
			if _, already := base.MatchedCanonicals[canonical]; already {
				return
			}
			if !keywordSetContains(sp.Keywords, canonical) {
				return
			}
			if _, done := creditedThisCall[canonical]; done {
				return
			}
			switch tier {
			case tierPhrase:
				base.PhraseScore += float64(rt.ScoringConstants.PhrasePoints)
				base.Score += float64(rt.ScoringConstants.PhrasePoints)
			case tierKeyword:
				base.KeywordScore += float64(rt.ScoringConstants.KeywordPoints)
				base.Score += float64(rt.ScoringConstants.KeywordPoints)
			default:
				return
			}
			base.MatchedCanonicals[canonical] = struct{}{}
			creditedThisCall[canonical] = struct{}{}
		}

		for canonical := range phraseLocked {
			creditCanonical(canonical, tierPhrase)
		}
		for canonical := range keywordLocked {
			creditCanonical(canonical, tierKeyword)
		}

		// Step 4: raw specialty keyword literals present in text that were
		// not already credited via a canonical hit above.
		for _, kw := range sp.Keywords {
			if kw == "" {
				continue
			}
			if _, already := base.MatchedCanonicals[kw]; already {
				continue
			}
			if _, done := creditedThisCall[kw]; done {
				continue
			}
			if !strings.Contains(normalizedText, kw) {
				continue
			}
			tier := tierKeyword
			if strings.Contains(kw, " ") {
				tier = tierPhrase
			}
			creditCanonical(kw, tier)
		}

		// Step 5: negative penalty, once per distinct negative keyword present.
		for _, neg := range sp.NegativeKeywords {
			if neg == "" {
				continue
			}
			if strings.Contains(normalizedText, neg) {
				base.NegativePenalties += float64(absInt(rt.ScoringConstants.NegativePenalty))
				base.Score -= float64(absInt(rt.ScoringConstants.NegativePenalty))
			}
		}

		result[sp.ID] = base
	}

	return result
}

func keywordSetContains(keywords []string, target string) bool {
	for _, kw := range keywords {
		if kw == target {
			return true
		}
	}
	return false
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
