package triage

import (
	"github.com/yourorg/pretriaged/internal/reference"
)

const (
	lowConfidenceThreshold        = 0.35
	defaultMinConfidenceFallback  = 0.25
	maxRiskReasons                = 4
)

const (
	adviceHigh   = "Lütfen en kısa sürede bir sağlık kuruluşuna başvurun."
	adviceMedium = "Bugün içinde bir hekime görünmeniz önerilir."
	adviceLow    = "Belirtileriniz şu an için acil görünmüyor; gerekirse bir aile hekimine danışabilirsiniz."
)

// ComputeRisk accumulates risk points from confidence, duration, profile,
// and canonical hits against the HIGH/MEDIUM risk bands, clamps to [0,1],
// and bands the result. Grounded on the original risk engine's exact point
// values, reproduced verbatim in spec.md §4.7.
func ComputeRisk(canonicals []string, confidence float64, durationDays *int, sameDayActive bool, profile Profile, rules reference.RiskRules) RiskResult {
	var score float64
	var reasons []string

	addReason := func(points float64, reason string) {
		score += points
		reasons = append(reasons, reason)
	}

	if confidence < lowConfidenceThreshold {
		addReason(0.25, "Belirtiler üzerinden elde edilen güven düzeyi düşük")
	}

	if sameDayActive {
		addReason(0.35, "Şikayet bugün itibarıyla aktif")
	}

	if durationDays != nil {
		switch {
		case *durationDays >= 14:
			addReason(0.30, "Şikayet 14 günden uzun süredir devam ediyor")
		case *durationDays >= 7:
			addReason(0.20, "Şikayet bir haftadan uzun süredir devam ediyor")
		case *durationDays <= 2:
			score -= 0.05
		}
	}

	if profile.AgeYears != nil {
		switch {
		case *profile.AgeYears <= 2:
			addReason(0.25, "Hasta 2 yaş veya altında")
		case *profile.AgeYears >= 65:
			addReason(0.20, "Hasta 65 yaş veya üzerinde")
		}
	}

	if profile.Pregnant {
		addReason(0.20, "Hasta gebe")
	}

	canonicalSet := make(map[string]struct{}, len(canonicals))
	for _, c := range canonicals {
		canonicalSet[c] = struct{}{}
	}

	highHit := anyCanonicalIn(canonicalSet, rules.High.CanonicalsAny)
	if highHit && (!rules.High.SameDayRequired || sameDayActive) {
		addReason(0.55, "Yüksek riskli bir belirti grubu tespit edildi")
	} else {
		if highHit {
			// The HIGH band's points are withheld without same-day activity,
			// but the matched canonical is still listed as a reason.
			for _, c := range rules.High.CanonicalsAny {
				if _, ok := canonicalSet[c]; ok {
					reasons = append(reasons, "Yüksek riskli belirti bildirildi ("+c+"); bugün aktif olduğu doğrulanmadı")
					break
				}
			}
		}
		highHit = false
	}

	mediumHit := !highHit && anyCanonicalIn(canonicalSet, rules.Medium.CanonicalsAny)
	if mediumHit {
		addReason(0.25, "Orta riskli bir belirti grubu tespit edildi")
	}

	fallbackThreshold := rules.Medium.MinConfidenceFallback
	if fallbackThreshold <= 0 {
		fallbackThreshold = defaultMinConfidenceFallback
	}
	if confidence < fallbackThreshold && (highHit || mediumHit) {
		addReason(0.20, "Düşük güven düzeyiyle birlikte riskli belirti eşleşmesi")
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	level := RiskLow
	switch {
	case score >= 0.70:
		level = RiskHigh
	case score >= 0.40:
		level = RiskMedium
	}

	advice := adviceLow
	switch level {
	case RiskHigh:
		advice = adviceHigh
	case RiskMedium:
		advice = adviceMedium
	}

	return RiskResult{
		Level:     level,
		Score0to1: score,
		Reasons:   dedupeCapped(reasons, maxRiskReasons),
		Advice:    advice,
	}
}

func anyCanonicalIn(have map[string]struct{}, any []string) bool {
	for _, c := range any {
		if _, ok := have[c]; ok {
			return true
		}
	}
	return false
}

func dedupeCapped(items []string, limit int) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, limit)
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
		if len(out) == limit {
			break
		}
	}
	return out
}
