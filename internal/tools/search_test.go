package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type fakeProvider struct {
	results []SearchResult
	err     error
}

func (f fakeProvider) Search(context.Context, string) ([]SearchResult, error) {
	return f.results, f.err
}

func TestWebSearchFormatting(t *testing.T) {
	ws := &WebSearch{Provider: fakeProvider{results: []SearchResult{
		{Title: "Paris", URL: "https://a.example", Content: "Capital of France"},
		{Title: "", URL: "", Content: ""},
		{Title: "Lyon", URL: "https://b.example", Content: "Second city"},
		{Title: "Extra", URL: "https://c.example", Content: "Dropped"},
	}}}
	got, err := ws.Search(context.Background(), "capital")
	if err != nil {
		t.Fatal(err)
	}
	want := "• Paris\n  Capital of France\n  Source: https://a.example\n\n" +
		"• No title\n  No content\n  Source: N/A\n\n" +
		"• Lyon\n  Second city\n  Source: https://b.example"
	if got != want {
		t.Errorf("Search() =\n%s\nwant\n%s", got, want)
	}
}

func TestWebSearchFailuresAreText(t *testing.T) {
	tests := []struct {
		name     string
		provider SearchProvider
		want     string
		failure  bool
	}{
		{"no results", fakeProvider{}, "No results found", false},
		{"missing key", fakeProvider{err: &MissingKeyError{Env: "TAVILY_API_KEY"}}, "Error: TAVILY_API_KEY not set", true},
		{"transport", fakeProvider{err: errors.New("dial tcp: timeout")}, "Search failed: dial tcp: timeout", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := (&WebSearch{Provider: tt.provider}).Search(context.Background(), "q")
			if err != nil {
				t.Fatalf("err = %v, want folded text", err)
			}
			if got != tt.want {
				t.Errorf("Search() = %q, want %q", got, tt.want)
			}
			if IsSearchFailure(got) != tt.failure {
				t.Errorf("IsSearchFailure(%q) = %v", got, !tt.failure)
			}
		})
	}
}

func TestWebSearchWithoutProvider(t *testing.T) {
	var ws *WebSearch
	if _, err := ws.Search(context.Background(), "q"); !errors.Is(err, ErrNoSearchProvider) {
		t.Errorf("nil WebSearch: err = %v", err)
	}
	if _, err := (&WebSearch{}).Search(context.Background(), "q"); !errors.Is(err, ErrNoSearchProvider) {
		t.Errorf("empty WebSearch: err = %v", err)
	}
}

func TestTavily(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"results":[
			{"title":"A","url":"https://a","content":"alpha"},
			{"title":"B","url":"https://b","content":"beta"},
			{"title":"C","url":"https://c","content":"gamma"}]}`))
	}))
	defer srv.Close()

	tv := NewTavily("tvly-key", "", 2)
	tv.Endpoint = srv.URL
	got, err := tv.Search(context.Background(), "golang")
	if err != nil {
		t.Fatal(err)
	}
	want := []SearchResult{
		{Title: "A", URL: "https://a", Content: "alpha"},
		{Title: "B", URL: "https://b", Content: "beta"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("results (-want +got):\n%s", diff)
	}
	if gotBody["api_key"] != "tvly-key" || gotBody["query"] != "golang" || gotBody["search_depth"] != "basic" {
		t.Errorf("request body = %v", gotBody)
	}
}

func TestTavilyErrors(t *testing.T) {
	var mk *MissingKeyError
	if _, err := NewTavily("", "", 0).Search(context.Background(), "q"); !errors.As(err, &mk) {
		t.Errorf("missing key: err = %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	tv := NewTavily("bad", "", 0)
	tv.Endpoint = srv.URL
	if _, err := tv.Search(context.Background(), "q"); err == nil || !strings.Contains(err.Error(), "tavily http 401") {
		t.Errorf("401: err = %v", err)
	}
}

const ddgPage = `<html><body>
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2F&rut=x">The Go <b>Programming</b> Language</a>
  <a class="result__snippet" href="#">Go is an open source   programming language.</a>
</div>
<div class="result">
  <a class="result__a" href="https://pkg.go.dev">Go Packages</a>
</div>
<div class="result">
  <a class="result__a" href="https://example.org">Third</a>
</div>
</body></html>`

func TestDuckDuckGo(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(ddgPage))
	}))
	defer srv.Close()

	ddg := NewDuckDuckGo(2)
	ddg.Endpoint = srv.URL
	got, err := ddg.Search(context.Background(), "go lang")
	if err != nil {
		t.Fatal(err)
	}
	if gotQuery != "go lang" {
		t.Errorf("query = %q", gotQuery)
	}
	want := []SearchResult{
		{Title: "The Go Programming Language", URL: "https://go.dev/", Content: "Go is an open source programming language."},
		{Title: "Go Packages", URL: "https://pkg.go.dev"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("results (-want +got):\n%s", diff)
	}
}

func TestNewSearchProvider(t *testing.T) {
	tests := []struct {
		kind, key string
		wantType  string
	}{
		{"auto", "k", "*tools.Tavily"},
		{"auto", "", "*tools.DuckDuckGo"},
		{"tavily", "", "*tools.Tavily"},
		{"DuckDuckGo", "k", "*tools.DuckDuckGo"},
		{"none", "k", "<nil>"},
	}
	for _, tt := range tests {
		p, err := NewSearchProvider(tt.kind, tt.key, "basic", 3)
		if err != nil {
			t.Fatalf("%s: %v", tt.kind, err)
		}
		if got := typeName(p); got != tt.wantType {
			t.Errorf("NewSearchProvider(%q, %q) = %s, want %s", tt.kind, tt.key, got, tt.wantType)
		}
	}
	if _, err := NewSearchProvider("bing", "", "", 0); err == nil {
		t.Error("unknown provider should error")
	}
}

func typeName(p SearchProvider) string {
	switch p.(type) {
	case *Tavily:
		return "*tools.Tavily"
	case *DuckDuckGo:
		return "*tools.DuckDuckGo"
	case nil:
		return "<nil>"
	}
	return "other"
}

func TestRegistry(t *testing.T) {
	reg := NewDefaultRegistry(&WebSearch{Provider: fakeProvider{}})
	want := []string{"calculate", "code_validator", "document_extract", "html_to_text", "web_search"}
	if diff := cmp.Diff(want, reg.Names()); diff != "" {
		t.Errorf("Names() (-want +got):\n%s", diff)
	}

	out, logs, err := reg.Call(context.Background(), "web_search", map[string]any{"query": "q"})
	if err != nil || out != "No results found" || logs != "ok" {
		t.Errorf("web_search = %v, %q, %v", out, logs, err)
	}
	if _, _, err := reg.Call(context.Background(), "shell", nil); err == nil || !strings.Contains(err.Error(), "unknown tool") {
		t.Errorf("unknown tool err = %v", err)
	}
	if _, _, err := reg.Call(context.Background(), "web_search", nil); err == nil {
		t.Error("missing query should error")
	}
}
