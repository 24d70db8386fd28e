package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	groqBaseURL   = "https://api.groq.com/openai"
	openAIBaseURL = "https://api.openai.com"
)

// New returns a Client for cfg.Provider. An empty provider with no API key
// yields a MockClient so the service can run locally without credentials.
func New(ctx context.Context, cfg Config) (Client, error) {
	prov := strings.ToLower(strings.TrimSpace(cfg.Provider))
	key := strings.TrimSpace(cfg.APIKey)
	switch prov {
	case ProviderGroq, "":
		if key == "" && prov == "" {
			return &MockClient{}, nil
		}
		if key == "" {
			return nil, fmt.Errorf("llm: %s provider requires an API key", ProviderGroq)
		}
		return &OpenAIClient{
			APIKey:      key,
			Model:       modelWithDefault(cfg.Model, "llama-3.3-70b-versatile"),
			BaseURL:     baseWithDefault(cfg.BaseURL, groqBaseURL),
			Temperature: cfg.Temperature,
			Timeout:     timeout(cfg.TimeoutMS),
		}, nil
	case ProviderOpenAI:
		if key == "" {
			return nil, fmt.Errorf("llm: %s provider requires an API key", ProviderOpenAI)
		}
		return &OpenAIClient{
			APIKey:      key,
			Model:       modelWithDefault(cfg.Model, "gpt-4o-mini"),
			BaseURL:     baseWithDefault(cfg.BaseURL, openAIBaseURL),
			Temperature: cfg.Temperature,
			Timeout:     timeout(cfg.TimeoutMS),
		}, nil
	case ProviderAnthropic:
		if key == "" {
			return nil, fmt.Errorf("llm: %s provider requires an API key", ProviderAnthropic)
		}
		return NewAnthropic(key, modelWithDefault(cfg.Model, "claude-3-5-sonnet-latest"), cfg)
	case ProviderGemini:
		if key == "" {
			return nil, fmt.Errorf("llm: %s provider requires an API key", ProviderGemini)
		}
		return NewGemini(ctx, key, modelWithDefault(cfg.Model, "gemini-1.5-flash"), cfg)
	case ProviderVertex:
		if cfg.Project == "" {
			return nil, fmt.Errorf("llm: %s provider requires a project", ProviderVertex)
		}
		return NewVertex(ctx, modelWithDefault(cfg.Model, "gemini-2.0-flash"), cfg)
	case ProviderMock:
		return &MockClient{}, nil
	}
	return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
}

func modelWithDefault(model, def string) string {
	if v := strings.TrimSpace(model); v != "" {
		return v
	}
	return def
}

func baseWithDefault(base, def string) string {
	if v := strings.TrimRight(strings.TrimSpace(base), "/"); v != "" {
		return v
	}
	return def
}

func timeout(ms int) time.Duration {
	if ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return 45 * time.Second
}

func maxTokens(n int) int {
	if n > 0 {
		return n
	}
	return 2048
}
