// Package aiprovider defines the provider-agnostic interface AIDispatcher
// fronts, generalized from the teacher's pkg/aiprovider to the two
// concrete providers spec.md §4.5 calls for (a primary and a backup).
package aiprovider

import "context"

// MessageRole is the role of a message in a composed prompt.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is a single turn in a composed prompt.
type Message struct {
	Role    MessageRole
	Content string
}

// GenerateParams are the parameters for one non-streaming completion call.
type GenerateParams struct {
	Model               string
	Messages            []Message
	SystemPrompt        string
	Temperature         float64
	MaxCompletionTokens int
}

// GenerateResponse is the result of a completion call.
type GenerateResponse struct {
	Content      string
	FinishReason string
	PromptTokens int
	OutputTokens int
}

// Provider is a single model backend AIDispatcher can route requests to.
type Provider interface {
	// Name identifies the provider for logging and failover decisions.
	Name() string
	// Generate executes one non-streaming completion request.
	Generate(ctx context.Context, params GenerateParams) (*GenerateResponse, error)
}
