package ai

import (
	"context"
	"errors"
	"testing"
)

func TestPhraser_UsesProviderOutputOnSuccess(t *testing.T) {
	mock := NewMockProvider()
	mock.CallStructuredFunc = func(ctx context.Context, req LLMRequest) (*LLMResponse, error) {
		return &LLMResponse{Content: `{"phrased_text": "Karın ağrınız var mı?"}`}, nil
	}
	p := NewPhraser(mock, 200)

	got := p.Rephrase(context.Background(), "karın ağrısı var mı")
	if got != "Karın ağrınız var mı?" {
		t.Errorf("expected the provider's phrasing, got %q", got)
	}
}

func TestPhraser_FallsBackToCanonicalTextOnProviderError(t *testing.T) {
	mock := NewMockProvider()
	mock.CallStructuredFunc = func(ctx context.Context, req LLMRequest) (*LLMResponse, error) {
		return nil, errors.New("boom")
	}
	p := NewPhraser(mock, 200)

	got := p.Rephrase(context.Background(), "karın ağrısı var mı")
	if got != "karın ağrısı var mı" {
		t.Errorf("expected fallback to canonical text on provider error, got %q", got)
	}
}

func TestPhraser_FallsBackOnMalformedJSON(t *testing.T) {
	mock := NewMockProvider()
	mock.CallStructuredFunc = func(ctx context.Context, req LLMRequest) (*LLMResponse, error) {
		return &LLMResponse{Content: `not json`}, nil
	}
	p := NewPhraser(mock, 200)

	got := p.Rephrase(context.Background(), "karın ağrısı var mı")
	if got != "karın ağrısı var mı" {
		t.Errorf("expected fallback to canonical text on malformed JSON, got %q", got)
	}
}

func TestPhraser_NilPhraserReturnsCanonicalText(t *testing.T) {
	var p *Phraser
	got := p.Rephrase(context.Background(), "karın ağrısı var mı")
	if got != "karın ağrısı var mı" {
		t.Errorf("expected nil phraser to pass text through unchanged, got %q", got)
	}
}
