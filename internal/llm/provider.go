package llm

import "context"

// Request is a single-turn completion request
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Response contains LLM generation result
type Response struct {
	Content    string
	Model      string
	TokensUsed int
	LatencyMs  int64
}

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// AvailableModels returns list of supported models
	AvailableModels() []string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Complete sends a prompt and returns the model's text output
	Complete(ctx context.Context, req Request, model string) (*Response, error)
}
