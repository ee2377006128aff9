package triage

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"dotted capital I folds to dotted lowercase i", "İdrar", "idrar"},
		{"dotless capital I folds to dotless ı", "IŞIK", "ışık"},
		{"punctuation becomes space", "Göğsümde baskı var, nefesim dar!", "göğsümde baskı var nefesim dar"},
		{"collapses whitespace runs", "baş   dönmesi\t\tvar", "baş dönmesi var"},
		{"trims leading and trailing whitespace", "  idrarda yanma  ", "idrarda yanma"},
		{"keeps turkish letters untouched", "çğıöşü ÇĞİÖŞÜ", "çğıöşü çğiöşü"},
		{"digits are kept", "3 gündür ateşim var", "3 gündür ateşim var"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"İdrar yaparken yanıyor, ÇOK SIK idrara çıkıyorum!!!",
		"Göğsümde baskı var, nefes alamıyorum.",
		"",
		"   ",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: Normalize(x)=%q, Normalize(Normalize(x))=%q", in, once, twice)
		}
	}
}
