package triage

import (
	"reflect"
	"testing"

	"github.com/yourorg/pretriaged/internal/reference"
)

func testRuntime(t *testing.T) *reference.Runtime {
	t.Helper()
	rt, err := reference.Load("../../testdata/reference")
	if err != nil {
		t.Fatalf("failed to load test reference runtime: %v", err)
	}
	return rt
}

func TestExtractCanonicals_PhraseMatch(t *testing.T) {
	rt := testRuntime(t)
	text := Normalize("İdrar yaparken yanıyor ve çok sık idrara çıkıyorum")
	got := ExtractCanonicals(text, nil, rt)
	want := []string{"idrarda yanma", "sık idrara çıkma"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractCanonicals() = %v, want %v", got, want)
	}
}

func TestExtractCanonicals_Negated(t *testing.T) {
	rt := testRuntime(t)
	// Negation must precede the match to count, matching the window being
	// checked immediately before the phrase, not after it.
	text := Normalize("yok idrar yaparken yanma")
	got := ExtractCanonicals(text, nil, rt)
	if len(got) != 0 {
		t.Errorf("expected no canonicals for a negated phrase, got %v", got)
	}
}

func TestExtractCanonicals_NegationOutsideWindowStillMatches(t *testing.T) {
	rt := testRuntime(t)
	// "yok" here is far more than 18 runes before the phrase match, so it
	// must not suppress the later, unrelated phrase.
	text := Normalize("ateşim yok bu cümlede hiçbir ilgisi olmayan uzunca bir dolgu metni var sonra idrar yaparken yanıyor")
	got := ExtractCanonicals(text, nil, rt)
	found := false
	for _, c := range got {
		if c == "idrarda yanma" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected idrarda yanma to be extracted despite an out-of-window negation, got %v", got)
	}
}

func TestExtractCanonicals_LongestPhraseWins(t *testing.T) {
	rt := testRuntime(t)
	// Both "baş dönmesi" (canonical) and its own variant are candidates;
	// only the longer, earlier-sorted variant should be consumed once.
	text := Normalize("başım dönüyor")
	got := ExtractCanonicals(text, nil, rt)
	want := []string{"baş dönmesi"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractCanonicals() = %v, want %v", got, want)
	}
}

func TestExtractCanonicals_AnswerKeysAddedWhenCanonicalKnown(t *testing.T) {
	rt := testRuntime(t)
	answers := map[string]string{
		"bulantı":          "yes",
		"not_a_canonical":  "yes",
	}
	got := ExtractCanonicals("", answers, rt)
	want := []string{"bulantı"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractCanonicals() = %v, want %v", got, want)
	}
}

func TestExtractCanonicals_OrderedUniqueAndSorted(t *testing.T) {
	rt := testRuntime(t)
	text := Normalize("başım dönüyor, midem bulanıyor, başım dönüyor tekrar")
	got := ExtractCanonicals(text, nil, rt)
	want := []string{"baş dönmesi", "bulantı"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractCanonicals() = %v, want %v", got, want)
	}
}

func TestExtractCanonicals_NegatorSubstringOfUnrelatedWordDoesNotSuppress(t *testing.T) {
	rt := testRuntime(t)
	// "yoklama" ("roll call") contains "yok" as a substring but is a wholly
	// unrelated word; it must not be treated as the negator "yok".
	text := Normalize("yoklama sırasında idrar yaparken yanma başladı")
	got := ExtractCanonicals(text, nil, rt)
	found := false
	for _, c := range got {
		if c == "idrarda yanma" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected idrarda yanma to be extracted despite a negator-shaped substring in an unrelated word, got %v", got)
	}
}

func TestFindWholeWord_RejectsSubstringOfLargerWord(t *testing.T) {
	// "baş" must not match inside "başarı" (success), a longer word.
	idx := findWholeWord("hastanın başarı hikayesi", "baş")
	if idx != -1 {
		t.Errorf("expected no whole-word match for \"baş\" inside \"başarı\", got index %d", idx)
	}
}
