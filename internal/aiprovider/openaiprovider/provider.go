// Package openaiprovider wraps the OpenAI chat-completions API as an
// aiprovider.Provider. Grounded on the teacher's use of
// github.com/openai/openai-go/v3 as its primary provider client.
package openaiprovider

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/jonesy-ops/ash/internal/aiprovider"
)

// Provider drives OpenAI's chat completions endpoint.
type Provider struct {
	client openai.Client
}

// New constructs a Provider from an API key. An empty key produces a
// Provider whose calls always fail; the dispatcher reports such failures
// as provider errors, not as its "disabled" outcome.
func New(apiKey string) *Provider {
	return &Provider{client: openai.NewClient(option.WithAPIKey(apiKey))}
}

// Name implements aiprovider.Provider.
func (p *Provider) Name() string { return "openai" }

// Generate implements aiprovider.Provider.
func (p *Provider) Generate(ctx context.Context, params aiprovider.GenerateParams) (*aiprovider.GenerateResponse, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(params.Messages)+1)
	if params.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(params.SystemPrompt))
	}
	for _, m := range params.Messages {
		switch m.Role {
		case aiprovider.RoleUser:
			messages = append(messages, openai.UserMessage(m.Content))
		case aiprovider.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		case aiprovider.RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		}
	}

	model := params.Model
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       model,
		Messages:    messages,
		Temperature: openai.Float(params.Temperature),
		MaxTokens:   openai.Int(int64(params.MaxCompletionTokens)),
	})
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty response")
	}
	choice := resp.Choices[0]
	return &aiprovider.GenerateResponse{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		PromptTokens: int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
	}, nil
}
