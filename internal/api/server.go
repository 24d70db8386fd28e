// Package api exposes the pipeline over HTTP: async jobs, a synchronous
// query endpoint, per-run event streams and direct tool calls.
package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/example/multi-agent/internal/jobs"
	"github.com/example/multi-agent/internal/models"
	"github.com/example/multi-agent/internal/orchestrator"
	"github.com/example/multi-agent/internal/tools"
)

const (
	ServiceName = "Multi-Agent System API"
	Version     = "1.0.0"
)

// Options carries the settings the handlers need from configuration.
type Options struct {
	// APIKey guards everything except / and /health. Empty disables the check.
	APIKey      string
	CORSOrigins []string
	// Health reporting.
	LLMProvider      string
	LLMConfigured    bool
	TavilyConfigured bool
	// DefaultMaxRetries applies when a request omits max_retries.
	DefaultMaxRetries int
	// MaxDocumentBytes caps each decoded attachment.
	MaxDocumentBytes int
}

// Server holds the handler dependencies.
type Server struct {
	pipeline *orchestrator.Pipeline
	jobs     *jobs.Store
	tools    *tools.Registry
	opts     Options
	now      func() time.Time
}

func New(pipeline *orchestrator.Pipeline, store *jobs.Store, reg *tools.Registry, opts Options) *Server {
	return &Server{pipeline: pipeline, jobs: store, tools: reg, opts: opts, now: time.Now}
}

// Handler returns the routed handler wrapped in logging and CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return requestLogger(cors(s.opts.CORSOrigins, mux))
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.Handle("POST /query", s.requireKey(http.HandlerFunc(s.handleSubmit)))
	mux.Handle("POST /query/sync", s.requireKey(http.HandlerFunc(s.handleQuerySync)))
	mux.Handle("GET /status/{id}", s.requireKey(http.HandlerFunc(s.handleStatus)))
	mux.Handle("GET /jobs", s.requireKey(http.HandlerFunc(s.handleListJobs)))
	mux.Handle("DELETE /job/{id}", s.requireKey(http.HandlerFunc(s.handleDeleteJob)))
	mux.Handle("GET /events/{id}", s.requireKey(http.HandlerFunc(s.handleEvents)))
	mux.Handle("GET /tools", s.requireKey(http.HandlerFunc(s.handleListTools)))
	mux.Handle("POST /tools/{name}", s.requireKey(http.HandlerFunc(s.handleTool)))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"service": ServiceName,
		"status":  "running",
		"version": Version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{
		"status":         "healthy",
		"api":            "running",
		"llm_provider":   s.opts.LLMProvider,
		"llm_api_key":    configured(s.opts.LLMConfigured),
		"tavily_api_key": configured(s.opts.TavilyConfigured),
		"timestamp":      s.now().UTC().Format(time.RFC3339),
	}
	if !s.opts.LLMConfigured {
		out["status"] = "unhealthy"
		out["error"] = "LLM provider " + s.opts.LLMProvider + " not configured"
	}
	respondJSON(w, http.StatusOK, out)
}

func configured(ok bool) string {
	if ok {
		return "configured"
	}
	return "missing"
}

// QueryRequest is the body of POST /query and POST /query/sync.
type QueryRequest struct {
	Query      string           `json:"query"`
	MaxRetries *int             `json:"max_retries,omitempty"`
	Documents  []tools.Document `json:"documents,omitempty"`
}

// QueryResponse is the body returned by POST /query/sync.
type QueryResponse struct {
	Status           string            `json:"status"`
	RunID            string            `json:"run_id"`
	UserRequest      string            `json:"user_request"`
	Plan             models.Plan       `json:"plan"`
	ResearcherOutput string            `json:"researcher_output"`
	CoderOutput      string            `json:"coder_output"`
	QualityScore     float64           `json:"quality_score"`
	RetryAttempts    int               `json:"retry_attempts"`
	Feedback         string            `json:"feedback,omitempty"`
	CodeCheck        *models.CodeCheck `json:"code_check,omitempty"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}
	job := s.jobs.Submit(r.Context(), req)
	respondJSON(w, http.StatusOK, map[string]any{
		"job_id":  job.ID,
		"status":  job.Status,
		"message": "Query submitted for processing",
	})
}

func (s *Server) handleQuerySync(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}
	res, err := s.pipeline.Run(r.Context(), req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Processing failed: "+err.Error())
		return
	}
	out := res.Output
	respondJSON(w, http.StatusOK, QueryResponse{
		Status:           "success",
		RunID:            res.ID,
		UserRequest:      out.UserRequest,
		Plan:             out.Plan,
		ResearcherOutput: out.ResearcherOutput,
		CoderOutput:      out.CoderOutput,
		QualityScore:     out.QualityScore,
		RetryAttempts:    out.RetryAttempts,
		Feedback:         out.Feedback,
		CodeCheck:        out.CodeCheck,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.Get(r.PathValue("id"))
	if errors.Is(err, jobs.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Job not found")
		return
	}
	respondJSON(w, http.StatusOK, job)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	list := s.jobs.List()
	respondJSON(w, http.StatusOK, map[string]any{"total": len(list), "jobs": list})
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.jobs.Delete(id); errors.Is(err, jobs.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Job not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": "Job deleted", "job_id": id})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"tools": s.tools.Names()})
}

func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if _, ok := s.tools.Get(name); !ok {
		respondError(w, http.StatusNotFound, "unknown tool: "+name)
		return
	}
	var inputs map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&inputs); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	output, logs, err := s.tools.Call(r.Context(), name, inputs)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"tool": name, "output": output, "logs": logs})
}

// requireKey rejects requests without a matching X-API-Key header.
func (s *Server) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.APIKey == "" {
			next.ServeHTTP(w, r)
			return
		}
		key := r.Header.Get("X-API-Key")
		switch {
		case key == "":
			respondError(w, http.StatusUnauthorized, "Missing API Key")
		case subtle.ConstantTimeCompare([]byte(key), []byte(s.opts.APIKey)) != 1:
			respondError(w, http.StatusForbidden, "Invalid API Key")
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}
