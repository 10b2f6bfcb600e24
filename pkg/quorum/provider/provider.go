// Package provider defines the model backend interface for quorum
package provider

import (
	"context"

	"github.com/quorumlabs/quorum/pkg/quorum/config"
)

// Provider represents one LLM backend
type Provider interface {
	// GenerateResponse sends the request and returns the normalized response
	GenerateResponse(ctx context.Context, request Request) (Response, error)

	// Information methods
	Name() string
	Model() string
}

// Request contains all parameters for a generation request
type Request struct {
	// Prompt is the text prompt or query
	Prompt string

	// Temperature controls randomness (0.0-1.0)
	Temperature float64

	// MaxTokens limits the response length
	MaxTokens int

	// Additional provider-specific parameters
	Parameters map[string]interface{}
}

// Response contains the normalized output from a backend. Adapters convert
// whatever shape the wire protocol uses into this struct at the boundary;
// nothing downstream branches on provider-specific fields.
type Response struct {
	// Content is the text response
	Content string

	// Usage contains token usage information, if the backend reported it
	Usage *UsageInfo

	// Model identifies the model used
	Model string

	// Provider identifies the provider used
	Provider string
}

// UsageInfo contains token usage statistics
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Factory creates Provider instances
type Factory interface {
	// Name returns the name of this provider factory
	Name() string

	// Create returns a new Provider instance
	Create(cfg config.Config) (Provider, error)
}
