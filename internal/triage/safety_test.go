package triage

import "testing"

func TestCheckSafety_HardKeywordFires(t *testing.T) {
	rt := testRuntime(t)
	text := Normalize("göğsümde baskı var, nefesim dar")
	result := CheckSafety(text, Profile{}, rt.EmergencyRules)
	if result == nil {
		t.Fatal("expected emergency to fire for cardiac chest pain text")
	}
	if result.RuleID != "cardiac_chest_pain" {
		t.Errorf("expected rule cardiac_chest_pain, got %q", result.RuleID)
	}
	if len(result.Instructions) == 0 {
		t.Error("expected non-empty instructions")
	}
}

func TestCheckSafety_OKForBenignText(t *testing.T) {
	rt := testRuntime(t)
	text := Normalize("başım dönüyor, midem bulanıyor")
	result := CheckSafety(text, Profile{}, rt.EmergencyRules)
	if result != nil {
		t.Fatalf("expected no emergency, got %+v", result)
	}
}

func TestCheckSafety_MalformedRegexRuleStillFiresByKeyword(t *testing.T) {
	rt := testRuntime(t)
	// "bilinç kaybı" is the keyword for the deliberately-malformed regex
	// rule; it must still fire via its keyword list, never panicking on
	// the rule's nil Regex.
	text := Normalize("bilinç kaybı yaşadım")
	result := CheckSafety(text, Profile{}, rt.EmergencyRules)
	if result == nil {
		t.Fatal("expected the malformed rule's keyword fallback to still fire")
	}
	if result.RuleID != "broken_regex_example" {
		t.Errorf("expected broken_regex_example, got %q", result.RuleID)
	}
}

func TestCheckSafety_SoftTriggerRequiresHighRiskAge(t *testing.T) {
	rt := testRuntime(t)
	text := Normalize("sürekli kusma yaşıyorum")

	withoutAge := CheckSafety(text, Profile{}, rt.EmergencyRules)
	if withoutAge != nil {
		t.Fatalf("expected no emergency without a known high-risk age, got %+v", withoutAge)
	}

	oldAge := 70
	withAge := CheckSafety(text, Profile{AgeYears: &oldAge}, rt.EmergencyRules)
	if withAge == nil {
		t.Fatal("expected emergency when a soft trigger hits and age is in the high-risk band")
	}
	if len(withAge.MissingInfoToConfirm) == 0 {
		t.Error("expected missing_info_to_confirm to be populated for a soft-trigger escalation")
	}
	for _, q := range withAge.MissingInfoToConfirm {
		if q == "Uzun süreli kusma" {
			t.Error("missing_info_to_confirm should carry the trigger's follow-up questions, not its label")
		}
	}
}

func TestCheckSafety_SoftTriggerAgeOutsideBandDoesNotFire(t *testing.T) {
	rt := testRuntime(t)
	text := Normalize("sürekli kusma yaşıyorum")
	midAge := 30
	result := CheckSafety(text, Profile{AgeYears: &midAge}, rt.EmergencyRules)
	if result != nil {
		t.Fatalf("expected no emergency for a mid-range age, got %+v", result)
	}
}
