package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hpn/hpn-blueprint/internal/domain"
)

// The adapters in this file talk to plain prompt-completion endpoints
// rather than chat APIs.

// CohereAdapter implements TextGenerator for Cohere's /generate endpoint.
type CohereAdapter struct {
	client
}

// NewCohereAdapter creates a new CohereAdapter with the given API key.
func NewCohereAdapter(apiKey string, opts ...Option) *CohereAdapter {
	return &CohereAdapter{client: newClient(domain.ProviderCohere, apiKey, opts)}
}

type promptRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type cohereResponse struct {
	Generations []struct {
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"generations"`
	Meta *struct {
		BilledUnits *struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"billed_units"`
	} `json:"meta,omitempty"`
}

// Generate returns generations[0].text.
func (a *CohereAdapter) Generate(ctx context.Context, req TextRequest) (TextResponse, error) {
	model := a.modelFor(req)
	body := promptRequest{
		Model:       model,
		Prompt:      req.Prompt,
		MaxTokens:   req.maxTokens(),
		Temperature: req.temperature(),
	}

	var resp cohereResponse
	if err := a.postJSON(ctx, a.baseURL+"/generate", a.bearer(), body, &resp, nil); err != nil {
		return TextResponse{}, err
	}
	if len(resp.Generations) == 0 {
		return TextResponse{}, a.empty("no generations")
	}

	out := TextResponse{
		Text:         resp.Generations[0].Text,
		Model:        model,
		FinishReason: resp.Generations[0].FinishReason,
	}
	if resp.Meta != nil && resp.Meta.BilledUnits != nil {
		in, gen := resp.Meta.BilledUnits.InputTokens, resp.Meta.BilledUnits.OutputTokens
		out.Usage = &domain.Usage{PromptTokens: in, CompletionTokens: gen, TotalTokens: in + gen}
	}
	return out, nil
}

// HuggingFaceAdapter implements TextGenerator for the HuggingFace Inference API.
type HuggingFaceAdapter struct {
	client
}

// NewHuggingFaceAdapter creates a new HuggingFaceAdapter with the given API key.
func NewHuggingFaceAdapter(apiKey string, opts ...Option) *HuggingFaceAdapter {
	return &HuggingFaceAdapter{client: newClient(domain.ProviderHuggingFace, apiKey, opts)}
}

type huggingFaceRequest struct {
	Inputs     string `json:"inputs"`
	Parameters struct {
		MaxNewTokens int     `json:"max_new_tokens"`
		Temperature  float64 `json:"temperature"`
	} `json:"parameters"`
}

type huggingFaceGeneration struct {
	GeneratedText string `json:"generated_text"`
}

// Generate calls models/{model}. The answer is either a list of generations or a single object.
func (a *HuggingFaceAdapter) Generate(ctx context.Context, req TextRequest) (TextResponse, error) {
	model := a.modelFor(req)
	body := huggingFaceRequest{Inputs: req.Prompt}
	body.Parameters.MaxNewTokens = req.maxTokens()
	body.Parameters.Temperature = req.temperature()

	var raw json.RawMessage
	if err := a.postJSON(ctx, a.baseURL+"/models/"+model, a.bearer(), body, &raw, nil); err != nil {
		return TextResponse{}, err
	}

	var list []huggingFaceGeneration
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return TextResponse{}, a.empty("no generations")
		}
		return TextResponse{Text: list[0].GeneratedText, Model: model}, nil
	}

	var single huggingFaceGeneration
	if err := json.Unmarshal(raw, &single); err != nil {
		return TextResponse{}, fmt.Errorf("failed to unmarshal %s response: %w", a.provider, err)
	}
	return TextResponse{Text: single.GeneratedText, Model: model}, nil
}

// OllamaAdapter implements TextGenerator for a local Ollama server. No key is needed.
type OllamaAdapter struct {
	client
}

// NewOllamaAdapter creates a new OllamaAdapter.
func NewOllamaAdapter(opts ...Option) *OllamaAdapter {
	return &OllamaAdapter{client: newClient(domain.ProviderOllama, "", opts)}
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	DoneReason      string `json:"done_reason"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// Generate calls /api/generate with streaming off.
func (a *OllamaAdapter) Generate(ctx context.Context, req TextRequest) (TextResponse, error) {
	model := a.modelFor(req)
	body := ollamaRequest{Model: model, Prompt: req.Prompt, Stream: false}

	var resp ollamaResponse
	if err := a.postJSON(ctx, a.baseURL+"/api/generate", nil, body, &resp, nil); err != nil {
		return TextResponse{}, err
	}

	out := TextResponse{Text: resp.Response, Model: model, FinishReason: resp.DoneReason}
	if resp.PromptEvalCount > 0 || resp.EvalCount > 0 {
		out.Usage = &domain.Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		}
	}
	return out, nil
}

// TogetherAdapter implements TextGenerator for Together AI's /inference endpoint.
type TogetherAdapter struct {
	client
}

// NewTogetherAdapter creates a new TogetherAdapter with the given API key.
func NewTogetherAdapter(apiKey string, opts ...Option) *TogetherAdapter {
	return &TogetherAdapter{client: newClient(domain.ProviderTogether, apiKey, opts)}
}

type togetherResponse struct {
	Output struct {
		Choices []struct {
			Text         string `json:"text"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage *ChatUsage `json:"usage,omitempty"`
	} `json:"output"`
}

// Generate returns output.choices[0].text.
func (a *TogetherAdapter) Generate(ctx context.Context, req TextRequest) (TextResponse, error) {
	model := a.modelFor(req)
	body := promptRequest{
		Model:       model,
		Prompt:      req.Prompt,
		MaxTokens:   req.maxTokens(),
		Temperature: req.temperature(),
	}

	var resp togetherResponse
	if err := a.postJSON(ctx, a.baseURL+"/inference", a.bearer(), body, &resp, nil); err != nil {
		return TextResponse{}, err
	}
	if len(resp.Output.Choices) == 0 {
		return TextResponse{}, a.empty("no choices")
	}

	out := TextResponse{
		Text:         resp.Output.Choices[0].Text,
		Model:        model,
		FinishReason: resp.Output.Choices[0].FinishReason,
	}
	if u := resp.Output.Usage; u != nil {
		out.Usage = &domain.Usage{PromptTokens: u.PromptTokens, CompletionTokens: u.CompletionTokens, TotalTokens: u.TotalTokens}
	}
	return out, nil
}
