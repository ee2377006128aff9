package triage

import (
	"sort"
	"unicode"

	"github.com/yourorg/pretriaged/internal/reference"
)

// negationTokens precede a match within NegationWindowChars and reject it.
// Grounded on the original source's DEFAULT_NEGATIONS list.
var negationTokens = []string{"yok", "değil", "hayır", "olmuyor", "olmadı", "değilim"}

// NegationWindowChars is the lookback window, in runes, checked immediately
// before a phrase match for a negation token.
const NegationWindowChars = 18

// ExtractCanonicals walks the reference runtime's pre-sorted synonym index
// (longest phrase first, then lexicographic) over already-normalized text,
// takes the first whole-word, non-negated hit per canonical, then adds every
// answer key whose canonical is itself known to the synonym set. The result
// is an ordered-unique, lexicographically sorted list of canonicals.
func ExtractCanonicals(normalizedText string, answers map[string]string, rt *reference.Runtime) []string {
	found := map[string]struct{}{}

	for _, entry := range rt.SynonymIndex {
		if _, already := found[entry.Canonical]; already {
			continue
		}
		idx := findWholeWord(normalizedText, entry.Phrase)
		if idx < 0 {
			continue
		}
		if isNegated(normalizedText, idx, negationTokens, NegationWindowChars) {
			continue
		}
		found[entry.Canonical] = struct{}{}
	}

	for canonical := range answers {
		if _, ok := rt.CanonicalSet[canonical]; ok {
			found[canonical] = struct{}{}
		}
	}

	out := make([]string, 0, len(found))
	for c := range found {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// findWholeWord returns the rune index of the first whole-word occurrence
// of phrase in text, or -1 if none exists. Whole-word means the character
// immediately before and after the match, if present, is not itself a word
// character — matching the synonym phrases' own space-delimited shape.
func findWholeWord(text, phrase string) int {
	if phrase == "" {
		return -1
	}
	runes := []rune(text)
	phraseRunes := []rune(phrase)
	n, m := len(runes), len(phraseRunes)
	for start := 0; start+m <= n; start++ {
		if !runesEqual(runes[start:start+m], phraseRunes) {
			continue
		}
		if start > 0 && isWordRune(runes[start-1]) {
			continue
		}
		if end := start + m; end < n && isWordRune(runes[end]) {
			continue
		}
		return start
	}
	return -1
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// isNegated reports whether a negation token appears, as a whole word, in
// the window of runes immediately preceding matchStart. Grounded on
// canonical_extract.py:is_negated's `\b{negator}\b` regex check — a plain
// substring test would let a negator match inside an unrelated word.
func isNegated(text string, matchStart int, negations []string, window int) bool {
	runes := []rune(text)
	from := matchStart - window
	if from < 0 {
		from = 0
	}
	lookback := string(runes[from:matchStart])
	for _, neg := range negations {
		if neg != "" && findWholeWord(lookback, neg) >= 0 {
			return true
		}
	}
	return false
}
