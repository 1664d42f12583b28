// Package domain contains the core business entities and value objects.
// These structs are framework-agnostic and represent the heart of the application.
package domain

import "strings"

// ProviderType identifies an LLM vendor (e.g., OpenAI, Anthropic, Google).
type ProviderType string

const (
	ProviderOpenAI      ProviderType = "openai"
	ProviderAnthropic   ProviderType = "anthropic"
	ProviderGoogle      ProviderType = "google"
	ProviderCohere      ProviderType = "cohere"
	ProviderHuggingFace ProviderType = "huggingface"
	ProviderOllama      ProviderType = "ollama"
	ProviderGroq        ProviderType = "groq"
	ProviderTogether    ProviderType = "together"
)

// AllProviders lists every supported vendor in display order.
var AllProviders = []ProviderType{
	ProviderOpenAI,
	ProviderAnthropic,
	ProviderGoogle,
	ProviderCohere,
	ProviderHuggingFace,
	ProviderOllama,
	ProviderGroq,
	ProviderTogether,
}

// ParseProviderType normalizes a user-supplied provider name.
func ParseProviderType(name string) ProviderType {
	return ProviderType(strings.ToLower(strings.TrimSpace(name)))
}

// IsValid reports whether p is one of the supported vendors.
func (p ProviderType) IsValid() bool {
	for _, known := range AllProviders {
		if p == known {
			return true
		}
	}
	return false
}

// RequiresAPIKey reports whether calls to p must carry an API key.
// Ollama runs locally and is the only keyless vendor.
func (p ProviderType) RequiresAPIKey() bool {
	return p != ProviderOllama
}

func (p ProviderType) String() string {
	return string(p)
}

// Provider represents an LLM vendor with its endpoint defaults.
type Provider struct {
	// Name is the human-readable name of the provider.
	Name string `json:"name" mapstructure:"name"`

	// Type identifies the provider type for adapter selection.
	Type ProviderType `json:"type" mapstructure:"type"`

	// BaseURL is the base endpoint for the provider's API.
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	// DefaultModel is used when a request does not name a model.
	DefaultModel string `json:"default_model" mapstructure:"default_model"`

	// Enabled indicates whether this provider is offered to clients.
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

// DefaultProviders returns the vendor defaults used when configuration is silent.
func DefaultProviders() []Provider {
	return []Provider{
		{Name: "OpenAI", Type: ProviderOpenAI, BaseURL: "https://api.openai.com/v1", DefaultModel: "gpt-4", Enabled: true},
		{Name: "Anthropic", Type: ProviderAnthropic, BaseURL: "https://api.anthropic.com", DefaultModel: "claude-3-5-sonnet-20241022", Enabled: true},
		{Name: "Google AI", Type: ProviderGoogle, BaseURL: "https://generativelanguage.googleapis.com/v1beta", DefaultModel: "gemini-1.5-flash", Enabled: true},
		{Name: "Cohere", Type: ProviderCohere, BaseURL: "https://api.cohere.ai/v1", DefaultModel: "command", Enabled: true},
		{Name: "HuggingFace", Type: ProviderHuggingFace, BaseURL: "https://api-inference.huggingface.co", DefaultModel: "mistralai/Mistral-7B-Instruct-v0.2", Enabled: true},
		{Name: "Ollama", Type: ProviderOllama, BaseURL: "http://localhost:11434", DefaultModel: "llama3", Enabled: true},
		{Name: "Groq", Type: ProviderGroq, BaseURL: "https://api.groq.com/openai/v1", DefaultModel: "llama3-70b-8192", Enabled: true},
		{Name: "Together AI", Type: ProviderTogether, BaseURL: "https://api.together.xyz", DefaultModel: "mistralai/Mixtral-8x7B-Instruct-v0.1", Enabled: true},
	}
}

// LookupProvider returns the built-in defaults for p.
func LookupProvider(p ProviderType) (Provider, bool) {
	for _, d := range DefaultProviders() {
		if d.Type == p {
			return d, true
		}
	}
	return Provider{}, false
}

// APIConfig is the per-request provider selection supplied by the client.
type APIConfig struct {
	Provider ProviderType `json:"provider" yaml:"provider" binding:"required,provider"`
	Model    string       `json:"model" yaml:"model"`
	APIKey   string       `json:"apiKey,omitempty" yaml:"-"`
	BaseURL  string       `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
}

// WithKey returns a copy of c carrying the given API key.
func (c APIConfig) WithKey(key string) APIConfig {
	c.APIKey = key
	return c
}
