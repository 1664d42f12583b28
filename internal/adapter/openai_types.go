package adapter

// Chat completion wire types shared by OpenAI and Groq.
// Groq serves the same schema under /openai/v1.

// ChatRequest represents a chat completion request.
type ChatRequest struct {
	// Model specifies which model to use (e.g., "gpt-4", "llama3-70b-8192").
	Model string `json:"model"`

	// Messages contains the conversation history.
	Messages []ChatMessage `json:"messages"`

	// MaxTokens limits the response length.
	MaxTokens int `json:"max_tokens"`

	// Temperature controls randomness (0.0-2.0).
	Temperature float64 `json:"temperature"`
}

// ChatMessage represents a single message in the conversation.
type ChatMessage struct {
	// Role is one of: "system", "user", "assistant".
	Role string `json:"role"`

	// Content is the message text content.
	Content string `json:"content"`
}

// ChatResponse represents a chat completion response.
type ChatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   *ChatUsage   `json:"usage,omitempty"`
}

// ChatChoice represents a single completion choice.
type ChatChoice struct {
	Index   int         `json:"index"`
	Message ChatMessage `json:"message"`

	// FinishReason indicates why the model stopped generating.
	// Values: "stop", "length", "content_filter".
	FinishReason string `json:"finish_reason"`
}

// ChatUsage contains token usage statistics.
type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
