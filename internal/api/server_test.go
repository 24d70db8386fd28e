package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/multi-agent/internal/agents"
	"github.com/example/multi-agent/internal/jobs"
	"github.com/example/multi-agent/internal/models"
	"github.com/example/multi-agent/internal/orchestrator"
	"github.com/example/multi-agent/internal/providers/llm"
	"github.com/example/multi-agent/internal/providers/llm/llmtest"
	"github.com/example/multi-agent/internal/tools"
)

const testKey = "secret"

type harness struct {
	srv   *Server
	store *jobs.Store
	h     http.Handler
}

func newHarness(t *testing.T, client llm.Client, opts Options) *harness {
	t.Helper()
	hub := orchestrator.NewHub()
	pipeline := orchestrator.NewPipeline(client, nil, hub)
	store := jobs.NewStore(pipeline, hub)
	reg := tools.NewDefaultRegistry(&tools.WebSearch{})
	if opts.DefaultMaxRetries == 0 {
		opts.DefaultMaxRetries = models.DefaultMaxRetries
	}
	srv := New(pipeline, store, reg, opts)
	t.Cleanup(store.Wait)
	return &harness{srv: srv, store: store, h: srv.Handler()}
}

func (h *harness) do(t *testing.T, method, path string, body any, key string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	rec := httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestRootAndCORS(t *testing.T) {
	h := newHarness(t, &llm.MockClient{}, Options{LLMConfigured: true})
	rec := h.do(t, http.MethodGet, "/", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode(t, rec)
	if body["service"] != ServiceName || body["status"] != "running" {
		t.Errorf("body = %v", body)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("CORS header missing: %v", rec.Header())
	}

	pre := h.do(t, http.MethodOptions, "/query", nil, "")
	if pre.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", pre.Code)
	}
}

func TestCORSAllowList(t *testing.T) {
	h := newHarness(t, &llm.MockClient{}, Options{CORSOrigins: []string{"https://app.example"}})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("allowed origin header = %q", got)
	}

	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign origin header = %q, want none", got)
	}
}

func TestHealth(t *testing.T) {
	h := newHarness(t, &llm.MockClient{}, Options{LLMProvider: "mock", LLMConfigured: true})
	body := decode(t, h.do(t, http.MethodGet, "/health", nil, ""))
	if body["status"] != "healthy" || body["timestamp"] == nil || body["tavily_api_key"] != "missing" {
		t.Errorf("healthy body = %v", body)
	}

	h = newHarness(t, &llm.MockClient{}, Options{LLMProvider: "groq"})
	body = decode(t, h.do(t, http.MethodGet, "/health", nil, ""))
	if body["status"] != "unhealthy" || body["llm_api_key"] != "missing" {
		t.Errorf("unhealthy body = %v", body)
	}
}

func TestAPIKey(t *testing.T) {
	h := newHarness(t, &llm.MockClient{}, Options{APIKey: testKey})
	if rec := h.do(t, http.MethodGet, "/jobs", nil, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("missing key status = %d", rec.Code)
	}
	for _, key := range []string{"nope", "secreT", "secre", testKey + "x"} {
		if rec := h.do(t, http.MethodGet, "/jobs", nil, key); rec.Code != http.StatusForbidden {
			t.Errorf("key %q status = %d, want 403", key, rec.Code)
		}
	}
	if rec := h.do(t, http.MethodGet, "/jobs", nil, testKey); rec.Code != http.StatusOK {
		t.Errorf("valid key status = %d", rec.Code)
	}
	if rec := h.do(t, http.MethodGet, "/health", nil, ""); rec.Code != http.StatusOK {
		t.Errorf("health must not need a key, status = %d", rec.Code)
	}
}

func TestSubmitValidation(t *testing.T) {
	h := newHarness(t, &llm.MockClient{}, Options{})
	tests := []struct {
		name string
		body any
		want int
	}{
		{"empty query", map[string]any{"query": ""}, http.StatusUnprocessableEntity},
		{"blank query", map[string]any{"query": "   "}, http.StatusUnprocessableEntity},
		{"retries too high", map[string]any{"query": "Test", "max_retries": 10}, http.StatusUnprocessableEntity},
		{"negative retries", map[string]any{"query": "Test", "max_retries": -1}, http.StatusUnprocessableEntity},
		{"valid retries", map[string]any{"query": "Test", "max_retries": 2}, http.StatusOK},
		{"default retries", map[string]any{"query": "Test"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := h.do(t, http.MethodPost, "/query", tt.body, ""); rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed JSON status = %d", rec.Code)
	}
}

func TestJobLifecycle(t *testing.T) {
	h := newHarness(t, &llm.MockClient{}, Options{})

	rec := h.do(t, http.MethodPost, "/query", map[string]any{"query": "Test query", "max_retries": 1}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d", rec.Code)
	}
	sub := decode(t, rec)
	id, _ := sub["job_id"].(string)
	if id == "" || sub["status"] != string(models.StatusQueued) {
		t.Fatalf("submit body = %v", sub)
	}

	h.store.Wait()
	var job models.Job
	rec = h.do(t, http.MethodGet, "/status/"+id, nil, "")
	if err := json.Unmarshal(rec.Body.Bytes(), &job); err != nil {
		t.Fatal(err)
	}
	if job.ID != id || job.Status != models.StatusCompleted || job.Result == nil {
		t.Errorf("job = %+v", job)
	}
	if job.MaxRetries != 1 {
		t.Errorf("MaxRetries = %d, want 1", job.MaxRetries)
	}

	list := decode(t, h.do(t, http.MethodGet, "/jobs", nil, ""))
	if list["total"] != float64(1) {
		t.Errorf("list = %v", list)
	}

	if rec := h.do(t, http.MethodDelete, "/job/"+id, nil, ""); rec.Code != http.StatusOK {
		t.Errorf("delete status = %d", rec.Code)
	}
	if rec := h.do(t, http.MethodGet, "/status/"+id, nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("status after delete = %d", rec.Code)
	}
	if rec := h.do(t, http.MethodDelete, "/job/"+id, nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete = %d", rec.Code)
	}
	if rec := h.do(t, http.MethodGet, "/status/nonexistent-job-id", nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown job = %d", rec.Code)
	}
}

func TestQuerySync(t *testing.T) {
	client := llmtest.New().
		On(agents.OrchestratorPrompt, `{"tasks":[{"agent":"researcher","task":"capital"}]}`).
		On(agents.ResearcherPrompt, "Paris.").
		On(agents.CriticPrompt, `{"score":0.95,"feedback":"correct"}`)
	h := newHarness(t, client, Options{})

	rec := h.do(t, http.MethodPost, "/query/sync", map[string]any{"query": "What is the capital of France?"}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp QueryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "success" || resp.ResearcherOutput != "Paris." || resp.CoderOutput != "" {
		t.Errorf("response = %+v", resp)
	}
	if len(resp.Plan.Tasks) != 1 || resp.Plan.Tasks[0].Agent != "researcher" || resp.QualityScore != 0.95 {
		t.Errorf("response = %+v", resp)
	}

	// The run's events stay available after it finished.
	ev := h.do(t, http.MethodGet, "/events/"+resp.RunID, nil, "")
	if ct := ev.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	stream := ev.Body.String()
	if !strings.HasPrefix(stream, "event: run_started\n") || !strings.Contains(stream, "event: run_completed\n") {
		t.Errorf("stream = %s", stream)
	}
}

func TestQuerySyncModelFailure(t *testing.T) {
	client := llmtest.New().Fail(agents.OrchestratorPrompt, errors.New("invalid api key"))
	h := newHarness(t, client, Options{})
	rec := h.do(t, http.MethodPost, "/query/sync", map[string]any{"query": "q"}, "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if detail := decode(t, rec)["detail"].(string); !strings.HasPrefix(detail, "Processing failed: ") || !strings.Contains(detail, "invalid api key") {
		t.Errorf("detail = %q", detail)
	}
}

func TestQueryWithDocuments(t *testing.T) {
	client := llmtest.New().
		On(agents.OrchestratorPrompt, `{"tasks":[{"agent":"researcher","task":"summarize"}]}`).
		On(agents.ResearcherPrompt, "summary").
		On(agents.CriticPrompt, `{"score":0.9}`)
	h := newHarness(t, client, Options{})

	body := map[string]any{
		"query": "Summarize the attachment",
		"documents": []map[string]string{{
			"name":        "notes.txt",
			"data_base64": base64.StdEncoding.EncodeToString([]byte("revenue grew 12%")),
		}},
	}
	if rec := h.do(t, http.MethodPost, "/query/sync", body, ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var researcherInput string
	for _, c := range client.Calls {
		if c.System == agents.ResearcherPrompt {
			researcherInput = c.User
		}
	}
	if !strings.Contains(researcherInput, "Attached documents:\n--- notes.txt ---\nrevenue grew 12%") {
		t.Errorf("researcher input = %q", researcherInput)
	}

	bad := map[string]any{
		"query":     "q",
		"documents": []map[string]string{{"name": "x.png", "content_type": "image/png", "data_base64": "iVBORw0K"}},
	}
	if rec := h.do(t, http.MethodPost, "/query/sync", bad, ""); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("unsupported document status = %d", rec.Code)
	}
}

func TestTools(t *testing.T) {
	h := newHarness(t, &llm.MockClient{}, Options{})

	rec := h.do(t, http.MethodPost, "/tools/calculate", map[string]any{"expression": "2 + 2"}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if out := decode(t, rec)["output"]; out != "Result: 4" {
		t.Errorf("output = %v", out)
	}

	rec = h.do(t, http.MethodPost, "/tools/code_validator", map[string]any{"code": "func f( {"}, "")
	check, _ := decode(t, rec)["output"].(map[string]any)
	if check["valid"] != false {
		t.Errorf("code_validator output = %v", check)
	}

	if rec := h.do(t, http.MethodPost, "/tools/shell", map[string]any{}, ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown tool status = %d", rec.Code)
	}
	if rec := h.do(t, http.MethodPost, "/tools/calculate", map[string]any{}, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("missing input status = %d", rec.Code)
	}

	names := decode(t, h.do(t, http.MethodGet, "/tools", nil, ""))["tools"].([]any)
	if len(names) != 5 {
		t.Errorf("tools = %v", names)
	}
}
