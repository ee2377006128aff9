// Package triage implements the deterministic single-turn triage pipeline:
// text normalization, canonical symptom extraction, safety screening,
// disease/specialty scoring, stop evaluation, question selection, and
// envelope assembly. No stage mutates the *reference.Runtime. The scoring,
// extraction, safety, stop and selection stages are pure; the envelope
// builders stamp the wall-clock time into EnvelopeMeta, and the Orchestrator
// reads and writes the session store.
package triage

import (
	"strings"
	"unicode"
)

const (
	turkishCapitalIWithDot = 'İ' // U+0130, folds to dotted lowercase i
	turkishCapitalI        = 'I' // U+0049, folds to dotless ı
	turkishLowerDottedI    = 'i'
	turkishLowerDotlessI   = 'ı'
)

// Normalize lowercases text with Turkish-locale casefolding applied before
// the generic case fold, replaces anything that isn't a letter, digit,
// underscore, or whitespace with a single space, and collapses whitespace
// runs. Empty input yields empty output; there are no failure modes.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	folded := foldTurkishCase(text)

	var out strings.Builder
	out.Grow(len(folded))
	for _, r := range folded {
		if isWordOrSpace(r) {
			out.WriteRune(r)
		} else {
			out.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(out.String()), " ")
}

// foldTurkishCase applies İ→i and I→ı before generic lowercasing, matching
// the order used to build the synonym index and scan raw free text alike.
func foldTurkishCase(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		switch r {
		case turkishCapitalIWithDot:
			sb.WriteRune(turkishLowerDottedI)
		case turkishCapitalI:
			sb.WriteRune(turkishLowerDotlessI)
		default:
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	return sb.String()
}

func isWordOrSpace(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r)
}
