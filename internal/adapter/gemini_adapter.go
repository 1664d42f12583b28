package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hpn/hpn-blueprint/internal/domain"
)

const (
	// DefaultGeminiModel replaces any model name that is not a Gemini model.
	DefaultGeminiModel = "gemini-1.5-flash"

	// TruncationNote is appended when Gemini stops at the token limit.
	TruncationNote = "\n\n---\n**Note:** This response was truncated due to length limits. " +
		"The content above is complete but may end abruptly. " +
		"Consider breaking down your requirements into smaller sections for more detailed responses."

	geminiTopK = 40
	geminiTopP = 0.95
)

// ErrSafetyBlocked is returned when Gemini refuses the prompt on safety grounds.
var ErrSafetyBlocked = errors.New("Content was blocked by Google AI safety filters. Try rephrasing your requirements.")

// GeminiAdapter implements TextGenerator for the Google Gemini API.
// The key travels in the x-goog-api-key header so it never shows up in URLs or error logs.
type GeminiAdapter struct {
	client
}

// NewGeminiAdapter creates a new GeminiAdapter with the given API key.
func NewGeminiAdapter(apiKey string, opts ...Option) *GeminiAdapter {
	return &GeminiAdapter{client: newClient(domain.ProviderGoogle, apiKey, opts)}
}

// Generate calls models/{model}:generateContent.
func (g *GeminiAdapter) Generate(ctx context.Context, req TextRequest) (TextResponse, error) {
	model := g.mapModelName(g.modelFor(req))
	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, model)

	temperature := req.temperature()
	maxTokens := req.maxTokens()
	topK := geminiTopK
	topP := geminiTopP
	geminiReq := GeminiRequest{
		Contents: []GeminiContent{{Parts: []GeminiPart{{Text: req.Prompt}}}},
		GenerationConfig: GeminiGenerationConfig{
			Temperature:     &temperature,
			TopK:            &topK,
			TopP:            &topP,
			MaxOutputTokens: &maxTokens,
		},
	}

	var resp GeminiResponse
	err := g.postJSON(ctx, url, map[string]string{"x-goog-api-key": g.apiKey}, geminiReq, &resp,
		func(status int, body []byte) error { return g.friendlyError(status, body, model) })
	if err != nil {
		return TextResponse{}, err
	}

	return g.unwrap(resp, model)
}

// unwrap validates the candidate envelope and pulls out the first text part.
func (g *GeminiAdapter) unwrap(resp GeminiResponse, model string) (TextResponse, error) {
	if resp.Error != nil {
		msg := resp.Error.Message
		if msg == "" {
			msg = "Unknown error"
		}
		return TextResponse{}, fmt.Errorf("Google AI API Error: %s", msg)
	}
	if resp.Candidates == nil {
		return TextResponse{}, g.empty("Google AI API returned no candidates. This might be due to content filtering or API quota limits.")
	}
	if len(resp.Candidates) == 0 {
		return TextResponse{}, g.empty("Google AI API returned empty candidates array. Content may have been filtered.")
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == "SAFETY" {
		return TextResponse{}, ErrSafetyBlocked
	}
	if len(candidate.Content.Parts) == 0 {
		return TextResponse{}, g.empty("Empty parts array in Google AI response")
	}

	text := candidate.Content.Parts[0].Text
	if text == "" {
		return TextResponse{}, g.empty("No text content in Google AI response")
	}
	if candidate.FinishReason == "MAX_TOKENS" {
		text += TruncationNote
	}

	out := TextResponse{
		Text:         text,
		Model:        model,
		FinishReason: candidate.FinishReason,
	}
	if resp.UsageMetadata != nil {
		out.Usage = &domain.Usage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		}
	}
	return out, nil
}

// friendlyError phrases the common Gemini failures for people rather than machines.
func (g *GeminiAdapter) friendlyError(status int, body []byte, model string) error {
	apiErr := &APIError{
		Provider:   string(g.provider),
		StatusCode: status,
		Message:    vendorMessage(status, body),
	}

	switch status {
	case http.StatusNotFound:
		apiErr.Summary = fmt.Sprintf("Google AI API 404: Model '%s' not found. Try using 'gemini-1.5-flash' or 'gemini-1.5-pro'", model)
	case http.StatusForbidden:
		apiErr.Summary = "Google AI API 403: Invalid API key or API not enabled. Check your Google AI Studio settings and ensure the Gemini API is enabled."
	case http.StatusBadRequest:
		msg := "Bad request"
		var e GeminiErrorResponse
		if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
			msg = e.Error.Message
		}
		apiErr.Summary = "Google AI API 400: " + msg
	case http.StatusTooManyRequests:
		apiErr.Summary = "Google AI API 429: Rate limit exceeded. Please wait a moment and try again."
	}
	return apiErr
}

// mapModelName keeps Gemini model names and replaces anything else.
func (g *GeminiAdapter) mapModelName(model string) string {
	if strings.Contains(model, "gemini") {
		return model
	}
	return DefaultGeminiModel
}

// ============================================================================
// Gemini API Types
// ============================================================================

// GeminiRequest represents a Gemini generateContent request.
type GeminiRequest struct {
	Contents         []GeminiContent        `json:"contents"`
	GenerationConfig GeminiGenerationConfig `json:"generationConfig"`
}

// GeminiContent represents a content block in Gemini format.
type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

// GeminiPart represents a part of a content block.
type GeminiPart struct {
	Text string `json:"text,omitempty"`
}

// GeminiGenerationConfig contains generation parameters.
type GeminiGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	TopK            *int     `json:"topK,omitempty"`
	TopP            *float64 `json:"topP,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
}

// GeminiResponse represents a Gemini generateContent response.
type GeminiResponse struct {
	Candidates    []GeminiCandidate    `json:"candidates"`
	UsageMetadata *GeminiUsageMetadata `json:"usageMetadata,omitempty"`
	Error         *GeminiErrorDetail   `json:"error,omitempty"`
}

// GeminiCandidate represents a single generated candidate.
type GeminiCandidate struct {
	Content      GeminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
	Index        int           `json:"index"`
}

// GeminiUsageMetadata contains token usage information.
type GeminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// GeminiErrorResponse represents an error response from Gemini API.
type GeminiErrorResponse struct {
	Error GeminiErrorDetail `json:"error"`
}

// GeminiErrorDetail contains error details.
type GeminiErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}
