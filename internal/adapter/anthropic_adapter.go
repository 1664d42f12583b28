package adapter

import (
	"context"

	"github.com/hpn/hpn-blueprint/internal/domain"
)

// AnthropicVersion is sent as the anthropic-version header.
const AnthropicVersion = "2023-06-01"

// AnthropicAdapter implements TextGenerator for the Anthropic Messages API.
type AnthropicAdapter struct {
	client
}

// NewAnthropicAdapter creates a new AnthropicAdapter with the given API key.
func NewAnthropicAdapter(apiKey string, opts ...Option) *AnthropicAdapter {
	return &AnthropicAdapter{client: newClient(domain.ProviderAnthropic, apiKey, opts)}
}

type anthropicRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []ChatMessage `json:"messages"`
}

type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage,omitempty"`
}

// Generate sends the prompt through /v1/messages.
// Temperature is left to the vendor default.
func (a *AnthropicAdapter) Generate(ctx context.Context, req TextRequest) (TextResponse, error) {
	model := a.modelFor(req)
	body := anthropicRequest{
		Model:     model,
		MaxTokens: req.maxTokens(),
		Messages:  []ChatMessage{{Role: "user", Content: req.Prompt}},
	}
	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": AnthropicVersion,
	}

	var resp anthropicResponse
	if err := a.postJSON(ctx, a.baseURL+"/v1/messages", headers, body, &resp, nil); err != nil {
		return TextResponse{}, err
	}

	if len(resp.Content) == 0 {
		return TextResponse{}, a.empty("no content blocks")
	}

	out := TextResponse{
		Text:         resp.Content[0].Text,
		Model:        model,
		FinishReason: resp.StopReason,
	}
	if resp.Model != "" {
		out.Model = resp.Model
	}
	if resp.Usage != nil {
		out.Usage = &domain.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		}
	}
	return out, nil
}
