package llm

import (
	"context"
	"strings"
)

// MockClient is used when no real provider is configured. It recognises the
// plan and review prompts by the JSON keys they ask for.
type MockClient struct{}

func (m *MockClient) Generate(ctx context.Context, systemPrompt, userContent string) (string, error) {
	sp := strings.ToLower(systemPrompt)
	switch {
	case strings.Contains(sp, `"tasks"`):
		q := strings.ToLower(userContent)
		if strings.Contains(q, "code") || strings.Contains(q, "function") || strings.Contains(q, "write") {
			return `{"tasks":[{"agent":"researcher","task":"Gather background"},{"agent":"coder","task":"Write the code"}]}`, nil
		}
		return `{"tasks":[{"agent":"researcher","task":"Answer the question"}]}`, nil
	case strings.Contains(sp, `"score"`):
		return `{"score": 0.8, "feedback": "mock review"}`, nil
	case strings.Contains(sp, "coder"):
		return "```go\npackage main\n\nfunc main() {}\n```", nil
	}
	return "mock: " + firstLine(userContent), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i != -1 {
		return s[:i]
	}
	return s
}
