package llm

import (
	"context"
)

// Client is the language-model adapter used by every pipeline node. A call is
// one blocking round trip; transport and auth failures are returned as errors
// and are not retried by callers.
type Client interface {
	Generate(ctx context.Context, systemPrompt, userContent string) (string, error)
}

// Provider names accepted by New.
const (
	ProviderOpenAI    = "openai"
	ProviderGroq      = "groq"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderVertex    = "vertex"
	ProviderMock      = "mock"
)

// Config selects and configures a provider.
type Config struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	TimeoutMS   int
	// Vertex AI only.
	Project  string
	Location string
}
