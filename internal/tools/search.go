package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// SearchResult is a single ranked hit.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// SearchProvider executes a query against a search backend.
type SearchProvider interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// MissingKeyError reports a provider that has no credentials configured.
type MissingKeyError struct{ Env string }

func (e *MissingKeyError) Error() string { return e.Env + " not set" }

// ErrNoSearchProvider is returned when WebSearch has nothing to call.
var ErrNoSearchProvider = errors.New("no search provider configured")

const (
	searchErrorPrefix  = "Error:"
	searchFailedPrefix = "Search failed:"
)

// WebSearch formats provider results as context text for the researcher.
// Provider failures are folded into the returned text; only a missing
// provider is reported as an error.
type WebSearch struct {
	Provider SearchProvider
	// Limit caps the number of formatted results (default 3).
	Limit int
}

func (w *WebSearch) Search(ctx context.Context, query string) (string, error) {
	if w == nil || w.Provider == nil {
		return "", ErrNoSearchProvider
	}
	results, err := w.Provider.Search(ctx, query)
	if err != nil {
		var mk *MissingKeyError
		if errors.As(err, &mk) {
			return fmt.Sprintf("%s %s", searchErrorPrefix, mk.Error()), nil
		}
		return fmt.Sprintf("%s %v", searchFailedPrefix, err), nil
	}
	limit := w.Limit
	if limit <= 0 {
		limit = 3
	}
	var parts []string
	for _, r := range results {
		if len(parts) >= limit {
			break
		}
		parts = append(parts, fmt.Sprintf("• %s\n  %s\n  Source: %s",
			orDefault(r.Title, "No title"), orDefault(r.Content, "No content"), orDefault(r.URL, "N/A")))
	}
	if len(parts) == 0 {
		return "No results found", nil
	}
	return strings.Join(parts, "\n\n"), nil
}

// IsSearchFailure reports whether text is a folded failure from WebSearch.
func IsSearchFailure(text string) bool {
	return strings.HasPrefix(text, searchErrorPrefix) || strings.HasPrefix(text, searchFailedPrefix)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// SearchTool exposes WebSearch through the registry.
// Inputs:
// - query: string (required)
type SearchTool struct{ Search *WebSearch }

func (t *SearchTool) Name() string { return "web_search" }

func (t *SearchTool) Execute(ctx context.Context, inputs map[string]any) (any, string, error) {
	q, _ := inputs["query"].(string)
	if strings.TrimSpace(q) == "" {
		return nil, "", fmt.Errorf("missing query")
	}
	out, err := t.Search.Search(ctx, q)
	if err != nil {
		return nil, "", err
	}
	logs := "ok"
	if IsSearchFailure(out) {
		logs = "failed"
	}
	return out, logs, nil
}

// NewSearchProvider selects a provider by name: tavily, duckduckgo, none, or
// auto (tavily when a key is present, else duckduckgo). none yields nil.
func NewSearchProvider(kind, tavilyKey, depth string, maxResults int) (SearchProvider, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "auto":
		if strings.TrimSpace(tavilyKey) != "" {
			return NewTavily(tavilyKey, depth, maxResults), nil
		}
		return NewDuckDuckGo(maxResults), nil
	case "tavily":
		return NewTavily(tavilyKey, depth, maxResults), nil
	case "duckduckgo":
		return NewDuckDuckGo(maxResults), nil
	case "none":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown search provider %q", kind)
}
