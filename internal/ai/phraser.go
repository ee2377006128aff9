package ai

import (
	"context"
	"encoding/json"
	"log/slog"
)

const phraserSystemPrompt = "Soruyu anlamını değiştirmeden doğal, kibar bir Türkçe ile yeniden yaz. Sadece soru metnini döndür."

var phrasedQuestionSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"phrased_text": map[string]any{"type": "string"},
	},
	"required": []string{"phrased_text"},
}

type phrasedQuestion struct {
	PhrasedText string `json:"phrased_text"`
}

// Phraser rewords an already-selected canonical question into natural
// Turkish phrasing. It never decides what to ask and is never on the
// deterministic decision path: any failure, timeout, or malformed output
// falls back to the canonical question text unchanged.
type Phraser struct {
	chain     *FallbackChain
	maxTokens int
}

// NewPhraser builds a Phraser whose primary leg is primary (typically an
// OpenAIProvider) and whose terminal leg is a StaticProvider, so the chain
// always has somewhere safe to land.
func NewPhraser(primary LLMProvider, maxTokens int) *Phraser {
	return &Phraser{
		chain:     NewFallbackChain(primary, NewStaticProvider()),
		maxTokens: maxTokens,
	}
}

// Rephrase returns a naturally-phrased Turkish rendering of canonicalText,
// or canonicalText itself on any provider failure or malformed response.
func (p *Phraser) Rephrase(ctx context.Context, canonicalText string) string {
	if p == nil {
		return canonicalText
	}

	resp, err := p.chain.Call(ctx, LLMRequest{
		SystemPrompt: phraserSystemPrompt,
		UserContent:  canonicalText,
		Schema:       phrasedQuestionSchema,
		MaxTokens:    p.maxTokens,
	})
	if err != nil {
		slog.Warn("phraser: falling back to canonical question text", "error", err)
		return canonicalText
	}

	var parsed phrasedQuestion
	if err := json.Unmarshal([]byte(resp.Content), &parsed); err != nil || parsed.PhrasedText == "" {
		slog.Warn("phraser: malformed phrasing response, using canonical text", "error", err)
		return canonicalText
	}
	return parsed.PhrasedText
}
