package triage

import "testing"

func TestScoreSpecialties_PhraseHitAwardsPhrasePoints(t *testing.T) {
	rt := testRuntime(t)
	text := Normalize("idrar yaparken yanıyor")
	scores := ScoreSpecialties(text, nil, rt)
	urology := scores["urology_internal"]
	if urology.PhraseScore != float64(rt.ScoringConstants.PhrasePoints) {
		t.Errorf("expected phrase score %d, got %f", rt.ScoringConstants.PhrasePoints, urology.PhraseScore)
	}
	if _, ok := urology.MatchedCanonicals["idrarda yanma"]; !ok {
		t.Error("expected idrarda yanma to be recorded as a matched canonical")
	}
}

func TestScoreSpecialties_NoDoubleCountAcrossTurns(t *testing.T) {
	rt := testRuntime(t)
	text := Normalize("idrar yaparken yanıyor")
	turn1 := ScoreSpecialties(text, nil, rt)
	turn2 := ScoreSpecialties(text, turn1, rt)

	if turn2["urology_internal"].Score != turn1["urology_internal"].Score {
		t.Errorf("expected score to stay flat across a repeated mention, turn1=%f turn2=%f",
			turn1["urology_internal"].Score, turn2["urology_internal"].Score)
	}
}

func TestScoreSpecialties_MonotonicNonDecreasingWithNewEvidence(t *testing.T) {
	rt := testRuntime(t)
	turn1 := ScoreSpecialties(Normalize("idrar yaparken yanıyor"), nil, rt)
	turn2 := ScoreSpecialties(Normalize("çok sık idrara çıkıyorum"), turn1, rt)

	if turn2["urology_internal"].Score < turn1["urology_internal"].Score {
		t.Errorf("expected non-decreasing score across turns with new positive evidence, turn1=%f turn2=%f",
			turn1["urology_internal"].Score, turn2["urology_internal"].Score)
	}
}

func TestScoreSpecialties_EmptyTextReturnsAllSpecialtiesAtZero(t *testing.T) {
	rt := testRuntime(t)
	scores := ScoreSpecialties("", nil, rt)
	if len(scores) != len(rt.Specialties) {
		t.Fatalf("expected one entry per specialty, got %d", len(scores))
	}
	for id, s := range scores {
		if s.Score != 0 {
			t.Errorf("expected zero score for %s on empty text, got %f", id, s.Score)
		}
	}
}
