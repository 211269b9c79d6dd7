package llm

import (
	"context"

	"github.com/lexgraph/lexgraph/internal/domain"
)

// MockClient is a configurable generation client for testing.
// Set the response fields to control what Generate returns.
type MockClient struct {
	GenerateResponse *domain.GenerationResult
	GenerateError    error

	// Call tracking for assertions
	GenerateCalls []domain.GenerationRequest
}

func NewMockClient() *MockClient {
	return &MockClient{
		GenerateResponse: &domain.GenerationResult{
			Text: "Mock response. [Citation-1] This information is for educational purposes only and does not constitute legal advice.",
			Usage: domain.GenerationUsage{
				Model: "mock",
			},
		},
	}
}

func (c *MockClient) Name() string { return ProviderMock }

func (c *MockClient) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	c.GenerateCalls = append(c.GenerateCalls, req)
	if c.GenerateError != nil {
		return nil, c.GenerateError
	}
	return c.GenerateResponse, nil
}

// Reset clears all recorded calls and resets responses to defaults.
func (c *MockClient) Reset() {
	fresh := NewMockClient()
	c.GenerateResponse = fresh.GenerateResponse
	c.GenerateError = nil
	c.GenerateCalls = nil
}
