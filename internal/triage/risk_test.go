package triage

import "testing"

func TestComputeRisk_HighCanonicalHitWithSameDayRequiredSatisfied(t *testing.T) {
	rt := testRuntime(t)
	result := ComputeRisk([]string{"göğüs ağrısı"}, 0.8, nil, true, Profile{}, rt.RiskRules)
	if result.Level != RiskHigh {
		t.Errorf("expected HIGH, got %s (score=%f)", result.Level, result.Score0to1)
	}
	if len(result.Reasons) == 0 {
		t.Error("expected at least one reason")
	}
}

func TestComputeRisk_HighCanonicalHitWithoutSameDayDoesNotEscalate(t *testing.T) {
	rt := testRuntime(t)
	withoutSameDay := ComputeRisk([]string{"göğüs ağrısı"}, 0.8, nil, false, Profile{}, rt.RiskRules)
	withSameDay := ComputeRisk([]string{"göğüs ağrısı"}, 0.8, nil, true, Profile{}, rt.RiskRules)
	if withoutSameDay.Score0to1 >= withSameDay.Score0to1 {
		t.Errorf("expected the same_day_required HIGH band to contribute less without same_day_active: without=%f with=%f",
			withoutSameDay.Score0to1, withSameDay.Score0to1)
	}
}

func TestComputeRisk_ClampsToOne(t *testing.T) {
	rt := testRuntime(t)
	age := 70
	result := ComputeRisk([]string{"göğüs ağrısı"}, 0.1, intPtr(20), true, Profile{AgeYears: &age, Pregnant: true}, rt.RiskRules)
	if result.Score0to1 > 1.0 {
		t.Errorf("expected score clamped to 1.0, got %f", result.Score0to1)
	}
	if result.Level != RiskHigh {
		t.Errorf("expected HIGH at a clamped maximum score, got %s", result.Level)
	}
}

func TestComputeRisk_LowBandForBenignInput(t *testing.T) {
	rt := testRuntime(t)
	result := ComputeRisk(nil, 0.9, intPtr(1), false, Profile{}, rt.RiskRules)
	if result.Level != RiskLow {
		t.Errorf("expected LOW for high confidence, short duration, no risk canonicals, got %s (score=%f)", result.Level, result.Score0to1)
	}
}

func TestComputeRisk_ReasonsDedupedAndCapped(t *testing.T) {
	rt := testRuntime(t)
	age := 1
	result := ComputeRisk([]string{"göğüs ağrısı"}, 0.1, intPtr(20), true, Profile{AgeYears: &age}, rt.RiskRules)
	if len(result.Reasons) > maxRiskReasons {
		t.Errorf("expected at most %d reasons, got %d", maxRiskReasons, len(result.Reasons))
	}
	seen := map[string]bool{}
	for _, r := range result.Reasons {
		if seen[r] {
			t.Errorf("expected no duplicate reasons, found duplicate %q", r)
		}
		seen[r] = true
	}
}

func intPtr(v int) *int { return &v }
