package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// VertexClient calls Gemini models hosted on Vertex AI using application
// default credentials.
type VertexClient struct {
	client *genai.Client
	model  string
	cfg    Config
}

func NewVertex(ctx context.Context, model string, cfg Config) (*VertexClient, error) {
	location := cfg.Location
	if location == "" {
		location = "us-central1"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  cfg.Project,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("vertex: create client: %w", err)
	}
	return &VertexClient{client: c, model: model, cfg: cfg}, nil
}

func (v *VertexClient) Generate(ctx context.Context, systemPrompt, userContent string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout(v.cfg.TimeoutMS))
	defer cancel()

	conf := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(float32(v.cfg.Temperature)),
		MaxOutputTokens:   int32(maxTokens(v.cfg.MaxTokens)),
	}
	resp, err := v.client.Models.GenerateContent(ctx, v.model, genai.Text(userContent), conf)
	if err != nil {
		return "", fmt.Errorf("vertex: %w", err)
	}
	txt := resp.Text()
	if txt == "" {
		return "", errors.New("vertex: no candidates")
	}
	return txt, nil
}
