package provider

import "time"

// Request configures a single completion call.
// The tool is single-shot: one prompt in, one response out, no
// conversation history.
type Request struct {
	// SystemPrompt sets the system message that guides the model's behavior.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// Prompt is the user message sent to the model.
	Prompt string `json:"prompt"`

	// Model overrides the client's configured model for this request.
	// Examples: "gemini-2.5-pro", "gemini-2.0-flash"
	Model string `json:"model,omitempty"`

	// MaxOutputTokens limits the response length. 0 uses the provider default.
	MaxOutputTokens int `json:"max_output_tokens,omitempty"`

	// Temperature controls response randomness (0.0 = deterministic).
	// The tool wants reproducible file contents, so callers usually leave
	// this at zero.
	Temperature float64 `json:"temperature,omitempty"`
}

// Response is the output of a completion call.
type Response struct {
	// Content is the raw text response from the model. This is what the
	// extraction stage consumes; it is untrusted until it survives the
	// full pipeline.
	Content string `json:"content"`

	// Model is the actual model used (may differ from requested).
	Model string `json:"model"`

	// FinishReason indicates why the model stopped generating.
	// Common values: "STOP", "MAX_TOKENS", "SAFETY"
	FinishReason string `json:"finish_reason"`

	// Usage tracks token consumption for this request.
	Usage TokenUsage `json:"usage"`

	// Duration is the time taken for the completion.
	Duration time.Duration `json:"duration"`
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Add combines token usage from another TokenUsage. Useful when a run
// includes a correction round trip.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
}
