// Package adapter provides implementations for external AI provider integrations.
// It uses the Adapter pattern to hide each vendor's request and response shape
// behind a single text-in, text-out interface.
package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/hpn/hpn-blueprint/internal/domain"
)

const (
	// DefaultMaxTokens is the completion budget used when a request does not set one.
	DefaultMaxTokens = 8000

	// DefaultTemperature is used when a request does not set one.
	DefaultTemperature = 0.7
)

// TextGenerator defines the interface for provider adapters.
// All vendor implementations must satisfy this interface.
type TextGenerator interface {
	// Generate sends a single prompt and returns the unwrapped model text.
	Generate(ctx context.Context, req TextRequest) (TextResponse, error)

	// Name returns the provider's identifier string.
	Name() string
}

// TextRequest is a vendor-neutral completion request.
type TextRequest struct {
	// Prompt is sent as the only user message.
	Prompt string

	// Model overrides the adapter's default model. Optional.
	Model string

	// MaxTokens limits the response length. Zero means DefaultMaxTokens.
	MaxTokens int

	// Temperature controls randomness. Nil means DefaultTemperature.
	Temperature *float64
}

func (r TextRequest) maxTokens() int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	return DefaultMaxTokens
}

func (r TextRequest) temperature() float64 {
	if r.Temperature != nil {
		return *r.Temperature
	}
	return DefaultTemperature
}

// Float returns a pointer to v, for TextRequest.Temperature.
func Float(v float64) *float64 {
	return &v
}

// TextResponse is what every adapter returns.
type TextResponse struct {
	Text         string
	Model        string
	FinishReason string

	// Usage is nil when the vendor does not report token counts.
	Usage *domain.Usage
}

// New selects the adapter for cfg.Provider.
//
// cfg.BaseURL and cfg.Model are applied first, so explicit options win over them.
func New(cfg domain.APIConfig, opts ...Option) (TextGenerator, error) {
	provider := domain.ParseProviderType(string(cfg.Provider))
	if !provider.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.Provider)
	}
	if provider.RequiresAPIKey() && strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w %s", ErrAPIKeyRequired, provider)
	}

	all := make([]Option, 0, len(opts)+2)
	if cfg.BaseURL != "" {
		all = append(all, WithBaseURL(cfg.BaseURL))
	}
	if cfg.Model != "" {
		all = append(all, WithModel(cfg.Model))
	}
	all = append(all, opts...)

	switch provider {
	case domain.ProviderOpenAI:
		return NewOpenAIAdapter(cfg.APIKey, all...), nil
	case domain.ProviderGroq:
		return NewGroqAdapter(cfg.APIKey, all...), nil
	case domain.ProviderAnthropic:
		return NewAnthropicAdapter(cfg.APIKey, all...), nil
	case domain.ProviderGoogle:
		return NewGeminiAdapter(cfg.APIKey, all...), nil
	case domain.ProviderCohere:
		return NewCohereAdapter(cfg.APIKey, all...), nil
	case domain.ProviderHuggingFace:
		return NewHuggingFaceAdapter(cfg.APIKey, all...), nil
	case domain.ProviderOllama:
		return NewOllamaAdapter(all...), nil
	case domain.ProviderTogether:
		return NewTogetherAdapter(cfg.APIKey, all...), nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.Provider)
}
