package ai

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// PIIType identifies the category of detected personally identifiable information.
type PIIType string

const (
	PIITypeEmail    PIIType = "email"
	PIITypePhone    PIIType = "phone"
	PIITypeTCKimlik PIIType = "tc_kimlik"
)

// PIIDetection describes a single PII finding within an input string.
type PIIDetection struct {
	Type     PIIType
	Start    int    // byte offset, inclusive
	End      int    // byte offset, exclusive
	Redacted string // replacement token, e.g. "[REDACTED_EMAIL]"
}

// piiRule pairs a compiled regexp with its category, redaction token, and an
// optional secondary validation function (e.g. the TC Kimlik checksum).
// All regexps are compiled once at init time — goroutine-safe.
type piiRule struct {
	piiType  PIIType
	re       *regexp.Regexp
	redacted string
	validate func(s string) bool
}

var piiRules []piiRule

func init() {
	piiRules = []piiRule{
		// Email — specific, run first
		{
			piiType:  PIITypeEmail,
			re:       regexp.MustCompile(`\b[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}\b`),
			redacted: "[REDACTED_EMAIL]",
		},
		// Phone — Turkish mobile/landline, optional +90 country code and
		// optional parenthesized area code, space/dot/dash separators.
		{
			piiType:  PIITypePhone,
			re:       regexp.MustCompile(`\b(?:\+?90[-.\s]?)?\(?0?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{2}[-.\s]?\d{2}\b`),
			redacted: "[REDACTED_PHONE]",
		},
		// TC Kimlik No — 11 digits, checksum-validated so plain 11-digit runs
		// (e.g. a phone number with no separators) aren't falsely redacted.
		{
			piiType:  PIITypeTCKimlik,
			re:       regexp.MustCompile(`\b\d{11}\b`),
			redacted: "[REDACTED_ID]",
			validate: tcKimlikCheck,
		},
	}
}

// tcKimlikCheck validates an 11-digit Turkish national ID number against its
// official checksum: digit 10 is derived from the odd/even digit sums of the
// first 9 digits, digit 11 from the sum of the first 10.
func tcKimlikCheck(s string) bool {
	if len(s) != 11 {
		return false
	}
	digits := make([]int, 11)
	for i, ch := range s {
		if !unicode.IsDigit(ch) {
			return false
		}
		digits[i] = int(ch - '0')
	}
	if digits[0] == 0 {
		return false
	}

	oddSum, evenSum := 0, 0
	for i := 0; i < 9; i++ {
		if i%2 == 0 {
			oddSum += digits[i]
		} else {
			evenSum += digits[i]
		}
	}
	d10 := ((oddSum * 7) - evenSum) % 10
	if d10 < 0 {
		d10 += 10
	}
	if d10 != digits[9] {
		return false
	}

	sumFirst10 := 0
	for i := 0; i < 10; i++ {
		sumFirst10 += digits[i]
	}
	return sumFirst10%10 == digits[10]
}

// DetectPII scans input for PII patterns and returns all findings sorted by
// start position. Overlapping matches are resolved greedily: the match with
// the earlier start (or longer length on ties) is kept.
// Safe for concurrent use.
func DetectPII(input string) []PIIDetection {
	type candidate struct {
		start, end int
		det        PIIDetection
	}

	var candidates []candidate

	for _, rule := range piiRules {
		for _, loc := range rule.re.FindAllStringIndex(input, -1) {
			match := input[loc[0]:loc[1]]
			if rule.validate != nil && !rule.validate(match) {
				continue
			}
			candidates = append(candidates, candidate{
				start: loc[0],
				end:   loc[1],
				det: PIIDetection{
					Type:     rule.piiType,
					Start:    loc[0],
					End:      loc[1],
					Redacted: rule.redacted,
				},
			})
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	// Sort: earlier start first; on ties prefer the longer match.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].start != candidates[j].start {
			return candidates[i].start < candidates[j].start
		}
		return (candidates[i].end - candidates[i].start) > (candidates[j].end - candidates[j].start)
	})

	// Remove overlapping matches (greedy, non-overlapping).
	result := make([]PIIDetection, 0, len(candidates))
	lastEnd := -1
	for _, c := range candidates {
		if c.start >= lastEnd {
			result = append(result, c.det)
			lastEnd = c.end
		}
	}

	slog.Info("PII detected",
		"count", len(result),
		"types", piiTypeNames(result),
		"input_len", len(input),
	)

	return result
}

// RedactPII returns input with every detected PII span replaced by its
// redaction token (e.g. "[REDACTED_EMAIL]"). Non-PII text is preserved as-is.
// Safe for concurrent use.
func RedactPII(input string) string {
	detections := DetectPII(input)
	if len(detections) == 0 {
		return input
	}

	var sb strings.Builder
	prev := 0
	for _, d := range detections {
		sb.WriteString(input[prev:d.Start])
		sb.WriteString(d.Redacted)
		prev = d.End
	}
	sb.WriteString(input[prev:])
	return sb.String()
}

// piiTypeNames returns the unique PII type names present in a detection list.
// Used only for structured logging — never logs the actual PII values.
func piiTypeNames(detections []PIIDetection) []string {
	seen := make(map[PIIType]bool, len(detections))
	names := make([]string, 0, len(detections))
	for _, d := range detections {
		if !seen[d.Type] {
			seen[d.Type] = true
			names = append(names, string(d.Type))
		}
	}
	return names
}
