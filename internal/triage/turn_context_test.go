package triage

import "testing"

func TestNewTurnContext_StartsEmpty(t *testing.T) {
	tc := NewTurnContext("s1", "tr-TR")
	if tc.TurnIndex != 0 || tc.IsComplete {
		t.Errorf("expected a fresh zero-value turn context, got %+v", tc)
	}
	if len(tc.KnownSymptoms) != 0 || len(tc.SpecialtyScores) != 0 {
		t.Error("expected empty sets/maps on a fresh context")
	}
}

func TestTurnContext_CloneIsIndependent(t *testing.T) {
	tc := NewTurnContext("s1", "tr-TR")
	tc.KnownSymptoms["baş ağrısı"] = struct{}{}
	tc.SpecialtyScores["neurology"] = SpecialtyScore{Score: 5, MatchedCanonicals: map[string]struct{}{"baş ağrısı": {}}}

	clone := tc.Clone()
	clone.KnownSymptoms["bulantı"] = struct{}{}
	clone.SpecialtyScores["neurology"] = SpecialtyScore{Score: 99, MatchedCanonicals: map[string]struct{}{}}

	if _, ok := tc.KnownSymptoms["bulantı"]; ok {
		t.Error("expected mutating the clone not to affect the original KnownSymptoms")
	}
	if tc.SpecialtyScores["neurology"].Score != 5 {
		t.Errorf("expected mutating the clone not to affect the original SpecialtyScores, got %+v", tc.SpecialtyScores["neurology"])
	}
}
