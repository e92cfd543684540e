package llm

import (
	"context"
	"fmt"
	"log"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"docforge/internal/router"
)

// Request is one agent invocation. Tier is resolved to a concrete model ID
// by the client; MaxTokens comes from the routing decision.
type Request struct {
	System    string
	Prompt    string
	Tier      router.Tier
	MaxTokens int64
}

// Response carries the generated text and the token usage the caller
// reports to the ledger.
type Response struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// Agent is the language-model call abstraction the governance layer and
// the generation harness depend on. Tests substitute fakes.
type Agent interface {
	Invoke(ctx context.Context, req Request) (Response, error)
}

// Default model IDs per tier.
const (
	defaultOpusModel   = "claude-opus-4-1"
	defaultSonnetModel = "claude-sonnet-4-5"
	defaultHaikuModel  = "claude-haiku-4-5"
)

// ModelID maps a routing tier to the model identifier sent to the API.
// Unknown tiers map to the sonnet model, mirroring the pricing fallback.
func ModelID(tier router.Tier) string {
	switch tier {
	case router.TierOpus:
		return defaultOpusModel
	case router.TierHaiku:
		return defaultHaikuModel
	default:
		return defaultSonnetModel
	}
}

// AnthropicAgent calls the Anthropic Messages API.
type AnthropicAgent struct {
	client anthropic.Client
}

// NewAnthropicAgent builds an agent from an API key.
func NewAnthropicAgent(apiKey string) *AnthropicAgent {
	return &AnthropicAgent{client: anthropic.NewClient(option.WithAPIKey(apiKey))}
}

// Invoke sends one message. The system prompt is marked cacheable since
// section writers reuse the same instructions across a run.
func (a *AnthropicAgent) Invoke(ctx context.Context, req Request) (Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	model := ModelID(req.Tier)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.System, CacheControl: anthropic.NewCacheControlEphemeralParam()},
		}
	}

	message, err := a.client.Messages.New(ctx, params)
	if err != nil {
		log.Printf("llm anthropic error tier=%s model=%s: %v", req.Tier, model, err)
		return Response{}, fmt.Errorf("Anthropic API error: %w", err)
	}

	resp := Response{
		InputTokens:  message.Usage.InputTokens,
		OutputTokens: message.Usage.OutputTokens,
	}
	for _, block := range message.Content {
		if block.Type == "text" {
			resp.Text = block.Text
			log.Printf("llm anthropic response tier=%s model=%s size=%d tokens_in=%d tokens_out=%d",
				req.Tier, model, len(block.Text), resp.InputTokens, resp.OutputTokens)
			return resp, nil
		}
	}
	return resp, fmt.Errorf("no text content in Anthropic response")
}
