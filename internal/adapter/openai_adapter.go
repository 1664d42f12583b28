package adapter

import (
	"context"

	"github.com/hpn/hpn-blueprint/internal/domain"
)

// ChatAdapter implements TextGenerator for OpenAI-compatible chat completion APIs.
type ChatAdapter struct {
	client
}

// NewChatAdapter creates a chat completion adapter for provider (openai or groq).
func NewChatAdapter(provider domain.ProviderType, apiKey string, opts ...Option) *ChatAdapter {
	return &ChatAdapter{client: newClient(provider, apiKey, opts)}
}

// NewOpenAIAdapter creates an adapter for the OpenAI API.
func NewOpenAIAdapter(apiKey string, opts ...Option) *ChatAdapter {
	return NewChatAdapter(domain.ProviderOpenAI, apiKey, opts...)
}

// NewGroqAdapter creates an adapter for Groq's OpenAI-compatible endpoint.
func NewGroqAdapter(apiKey string, opts ...Option) *ChatAdapter {
	return NewChatAdapter(domain.ProviderGroq, apiKey, opts...)
}

// Generate performs a chat completion with the prompt as the only user message.
func (a *ChatAdapter) Generate(ctx context.Context, req TextRequest) (TextResponse, error) {
	model := a.modelFor(req)
	chatReq := ChatRequest{
		Model:       model,
		Messages:    []ChatMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:   req.maxTokens(),
		Temperature: req.temperature(),
	}

	var resp ChatResponse
	if err := a.postJSON(ctx, a.baseURL+"/chat/completions", a.bearer(), chatReq, &resp, nil); err != nil {
		return TextResponse{}, err
	}

	if len(resp.Choices) == 0 {
		return TextResponse{}, a.empty("no choices")
	}

	out := TextResponse{
		Text:         resp.Choices[0].Message.Content,
		Model:        model,
		FinishReason: resp.Choices[0].FinishReason,
	}
	if resp.Model != "" {
		out.Model = resp.Model
	}
	if resp.Usage != nil {
		out.Usage = &domain.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return out, nil
}
