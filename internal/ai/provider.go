package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// LLMRequest represents a structured LLM call. The engine only ever uses
// this for question phrasing: rewording an already-selected canonical
// question into natural Turkish. It never decides WHAT to ask or scores
// anything — that stays on the deterministic path.
type LLMRequest struct {
	SystemPrompt string
	UserContent  string
	Schema       interface{} // JSON schema for structured output
	MaxTokens    int
	Temperature  float64
	Model        string // optional override
}

// LLMResponse from the LLM
type LLMResponse struct {
	Content          string // raw JSON response
	Model            string // actual model used
	FinishReason     string // "stop", "length", "content_filter"
	Refusal          string // non-empty if model refused
	TokensUsed       int    // total tokens
	PromptTokens     int
	CompletionTokens int
	// Fallback chain metadata
	Attempts     int  // number of providers tried (1 = primary succeeded)
	FallbackUsed bool // true if a non-primary provider was used
}

// LLMProvider abstracts LLM backends for the optional phrasing step.
type LLMProvider interface {
	// CallStructured sends a prompt and expects structured JSON output matching the schema
	CallStructured(ctx context.Context, req LLMRequest) (*LLMResponse, error)
	// Name returns the provider name (e.g., "openai")
	Name() string
	// ModelID returns the active model identifier
	ModelID() string
}

// OpenAIProvider calls OpenAI directly for structured JSON output. It is
// never on the deterministic decision path: callers only use it to
// reword a question whose canonical text and underlying field were
// already fixed by the question selector.
type OpenAIProvider struct {
	client         openai.Client
	model          string
	requestTimeout time.Duration
	breaker        *CircuitBreaker
}

// NewOpenAIProvider creates an OpenAIProvider. apiKey empty means the
// provider is constructed but CallStructured will always fail with
// ErrAIUnavailable, letting the fallback chain skip straight to the
// static phraser. breakerCfg governs how many consecutive phrasing
// failures the circuit tolerates before giving every turn the static
// fallback rather than waiting out OpenAI's own timeout.
func NewOpenAIProvider(apiKey, model string, requestTimeout time.Duration, breakerCfg CircuitBreakerConfig) *OpenAIProvider {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &OpenAIProvider{
		client:         openai.NewClient(opts...),
		model:          model,
		requestTimeout: requestTimeout,
		breaker:        NewCircuitBreaker(breakerCfg),
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string { return "openai" }

// ModelID returns the active model identifier.
func (p *OpenAIProvider) ModelID() string { return p.model }

// CallStructured sends the phrasing request with response_format=json_schema
// and strict mode, matching the schema exactly. The circuit breaker guards
// against hammering a degraded endpoint on every turn of every session.
func (p *OpenAIProvider) CallStructured(ctx context.Context, req LLMRequest) (*LLMResponse, error) {
	if !p.breaker.Allow() {
		return nil, fmt.Errorf("%w: circuit open", ErrAIUnavailable)
	}

	reqCtx := ctx
	if p.requestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, p.requestTimeout)
		defer cancel()
	}

	model := req.Model
	if model == "" {
		model = p.model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 300
	}

	resp, err := p.client.Chat.Completions.New(reqCtx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.UserContent),
		},
		MaxCompletionTokens: openai.Int(int64(maxTokens)),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "phrased_question",
					Schema: req.Schema,
					Strict: openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		p.breaker.RecordFailure()
		return nil, fmt.Errorf("%w: %v", ErrAIUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		p.breaker.RecordFailure()
		return nil, ErrAIInvalidOutput
	}

	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		p.breaker.RecordFailure()
		return nil, fmt.Errorf("%w: %s", ErrAIRefused, choice.Message.Refusal)
	}
	if choice.FinishReason == "length" {
		p.breaker.RecordFailure()
		return nil, ErrAITruncated
	}

	p.breaker.RecordSuccess()
	return &LLMResponse{
		Content:          choice.Message.Content,
		Model:            string(resp.Model),
		FinishReason:     string(choice.FinishReason),
		TokensUsed:       int(resp.Usage.TotalTokens),
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
	}, nil
}

// StaticProvider is the terminal leg of the fallback chain: it always
// "succeeds" by returning the canonical question text untouched, coded
// as the schema's expected JSON shape. It never errors, so the fallback
// chain always has somewhere safe to land when OpenAI is unavailable.
type StaticProvider struct{}

// NewStaticProvider creates a StaticProvider.
func NewStaticProvider() *StaticProvider { return &StaticProvider{} }

// Name returns the provider name.
func (p *StaticProvider) Name() string { return "static" }

// ModelID returns a fixed identifier; there is no model.
func (p *StaticProvider) ModelID() string { return "none" }

// CallStructured echoes the user content back as the "phrased_text" field,
// which is exactly the canonical question text the caller passed in.
func (p *StaticProvider) CallStructured(_ context.Context, req LLMRequest) (*LLMResponse, error) {
	return &LLMResponse{
		Content:      fmt.Sprintf(`{"phrased_text": %q}`, req.UserContent),
		Model:        "none",
		FinishReason: "stop",
	}, nil
}
