package domain

import "context"

// GenerationRequest carries the instructions and assembled context for one
// text-generation call.
type GenerationRequest struct {
	System string
	Prompt string
}

// GenerationUsage is provider-reported usage metadata.
type GenerationUsage struct {
	Model            string `json:"model"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

// GenerationResult is the provider's answer plus usage metadata.
type GenerationResult struct {
	Text  string          `json:"text"`
	Usage GenerationUsage `json:"usage"`
}

// GenerationClient is the pluggable text-generation provider. Any provider
// satisfying this contract works; retries and multi-provider fallback are
// the provider's concern, not the pipeline's.
type GenerationClient interface {
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error)
	Name() string
}
