package triage

import "testing"

func TestGenerateCandidates_PerfectMatchScoresOne(t *testing.T) {
	rt := testRuntime(t)
	candidates := GenerateCandidates([]string{"idrarda yanma", "sık idrara çıkma"}, rt, 0, 0)
	if len(candidates) == 0 {
		t.Fatal("expected at least one candidate")
	}
	top := candidates[0]
	if top.DiseaseLabel != "urinary_tract_infection" {
		t.Errorf("expected top candidate urinary_tract_infection, got %s", top.DiseaseLabel)
	}
	if top.Score0to1 != 1.0 {
		t.Errorf("expected a perfect weighted-Jaccard score of 1.0, got %f", top.Score0to1)
	}
}

func TestGenerateCandidates_SortedByScoreThenLabel(t *testing.T) {
	rt := testRuntime(t)
	candidates := GenerateCandidates([]string{"baş dönmesi"}, rt, 0, 0)
	for i := 1; i < len(candidates); i++ {
		prev, cur := candidates[i-1], candidates[i]
		if prev.Score0to1 < cur.Score0to1 {
			t.Fatalf("candidates not sorted by descending score at %d", i)
		}
		if prev.Score0to1 == cur.Score0to1 && prev.DiseaseLabel > cur.DiseaseLabel {
			t.Fatalf("equal-score candidates not ascending by label at %d: %s before %s", i, prev.DiseaseLabel, cur.DiseaseLabel)
		}
	}
}

func TestGenerateCandidates_EmptyCanonicalsYieldsNoCandidates(t *testing.T) {
	rt := testRuntime(t)
	candidates := GenerateCandidates(nil, rt, 0, 0)
	if len(candidates) != 0 {
		t.Errorf("expected no candidates for empty input, got %d", len(candidates))
	}
}

func TestGenerateCandidates_RespectsTopK(t *testing.T) {
	rt := testRuntime(t)
	candidates := GenerateCandidates([]string{"baş dönmesi", "bulantı", "baş ağrısı", "idrarda yanma"}, rt, 0, 2)
	if len(candidates) > 2 {
		t.Errorf("expected at most 2 candidates, got %d", len(candidates))
	}
}

func TestGenerateCandidates_SeverityWeightMultiplierAppliesQuarterWeight(t *testing.T) {
	rt := testRuntime(t)
	// "idrarda yanma" (dysuria, severity 2) alone matches urinary_tract_infection
	// but leaves "frequent_urination" (severity 1) missing, so the score
	// depends on severityWeightMultiplier rather than collapsing to 1.0 or 0.
	// (1 + 2*0.25) / ((1 + 2*0.25) + (1 + 1*0.25)) = 1.5 / 2.75.
	candidates := GenerateCandidates([]string{"idrarda yanma"}, rt, 0, 0)
	var got *DiseaseCandidate
	for i := range candidates {
		if candidates[i].DiseaseLabel == "urinary_tract_infection" {
			got = &candidates[i]
		}
	}
	if got == nil {
		t.Fatal("expected urinary_tract_infection among candidates")
	}
	want := 1.5 / 2.75
	if diff := got.Score0to1 - want; diff < -1e-9 || diff > 1e-9 {
		t.Errorf("expected score %f reflecting severityWeightMultiplier=0.25, got %f", want, got.Score0to1)
	}
}

func TestGenerateCandidates_DropsBelowMinScore(t *testing.T) {
	rt := testRuntime(t)
	candidates := GenerateCandidates([]string{"idrarda yanma"}, rt, 0.99, 0)
	for _, c := range candidates {
		if c.Score0to1 < 0.99 {
			t.Errorf("expected no candidate below min_score_to_include, found %s at %f", c.DiseaseLabel, c.Score0to1)
		}
	}
}
