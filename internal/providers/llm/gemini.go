package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient uses the Gemini API with an API key.
type GeminiClient struct {
	client *genai.Client
	model  string
	cfg    Config
}

func NewGemini(ctx context.Context, apiKey, model string, cfg Config) (*GeminiClient, error) {
	c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiClient{client: c, model: model, cfg: cfg}, nil
}

func (g *GeminiClient) Generate(ctx context.Context, systemPrompt, userContent string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout(g.cfg.TimeoutMS))
	defer cancel()

	m := g.client.GenerativeModel(g.model)
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	m.SetTemperature(float32(g.cfg.Temperature))
	m.SetMaxOutputTokens(int32(maxTokens(g.cfg.MaxTokens)))

	resp, err := m.GenerateContent(ctx, genai.Text(userContent))
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	txt := firstText(resp)
	if txt == "" {
		return "", errors.New("gemini: no candidates")
	}
	return txt, nil
}

// Close releases the underlying gRPC connection.
func (g *GeminiClient) Close() error { return g.client.Close() }

func firstText(r *genai.GenerateContentResponse) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Candidates {
		if c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, part := range c.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}
