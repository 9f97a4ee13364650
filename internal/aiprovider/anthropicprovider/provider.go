// Package anthropicprovider wraps the Anthropic Messages API as an
// aiprovider.Provider, used as AIDispatcher's backup provider.
package anthropicprovider

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/jonesy-ops/ash/internal/aiprovider"
)

// Provider drives Anthropic's Messages endpoint.
type Provider struct {
	client anthropic.Client
}

// New constructs a Provider from an API key.
func New(apiKey string) *Provider {
	return &Provider{client: anthropic.NewClient(option.WithAPIKey(apiKey))}
}

// Name implements aiprovider.Provider.
func (p *Provider) Name() string { return "anthropic" }

// Generate implements aiprovider.Provider.
func (p *Provider) Generate(ctx context.Context, params aiprovider.GenerateParams) (*aiprovider.GenerateResponse, error) {
	messages := make([]anthropic.MessageParam, 0, len(params.Messages))
	for _, m := range params.Messages {
		switch m.Role {
		case aiprovider.RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case aiprovider.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	model := anthropic.Model(params.Model)
	if params.Model == "" {
		model = anthropic.ModelClaudeHaiku4_5
	}
	maxTokens := int64(params.MaxCompletionTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: maxTokens,
		System:    []anthropic.TextBlockParam{{Text: params.SystemPrompt}},
		Messages:  messages,
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return &aiprovider.GenerateResponse{
		Content:      text,
		FinishReason: string(resp.StopReason),
		PromptTokens: int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}, nil
}
