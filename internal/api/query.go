package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/example/multi-agent/internal/logging"
	"github.com/example/multi-agent/internal/models"
	"github.com/example/multi-agent/internal/orchestrator"
	"github.com/example/multi-agent/internal/tools"
)

const (
	maxBodyBytes = 32 << 20
	maxDocuments = 5
)

// decodeQuery parses and validates a QueryRequest. On failure it writes the
// response (400 for malformed JSON, 422 for invalid fields) and returns false.
func (s *Server) decodeQuery(w http.ResponseWriter, r *http.Request) (orchestrator.RunRequest, bool) {
	var body QueryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return orchestrator.RunRequest{}, false
	}
	req := orchestrator.RunRequest{Input: strings.TrimSpace(body.Query), MaxRetries: s.opts.DefaultMaxRetries}
	if req.Input == "" {
		respondError(w, http.StatusUnprocessableEntity, "query must not be empty")
		return req, false
	}
	if body.MaxRetries != nil {
		req.MaxRetries = *body.MaxRetries
	}
	if req.MaxRetries < 0 || req.MaxRetries > models.MaxAllowedRetries {
		respondError(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("max_retries must be between 0 and %d", models.MaxAllowedRetries))
		return req, false
	}
	if len(body.Documents) > maxDocuments {
		respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf("at most %d documents per query", maxDocuments))
		return req, false
	}
	docs, err := s.extractDocuments(r, body.Documents)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return req, false
	}
	req.Documents = docs
	return req, true
}

// extractDocuments turns attachments into one text block, one section per
// document.
func (s *Server) extractDocuments(r *http.Request, docs []tools.Document) (string, error) {
	var parts []string
	for i, d := range docs {
		if d.Name == "" {
			d.Name = fmt.Sprintf("document-%d", i+1)
		}
		buf, err := tools.DecodeDocument(d, s.opts.MaxDocumentBytes)
		if err != nil {
			return "", err
		}
		text, err := tools.ExtractText(r.Context(), d, buf, 0)
		if err != nil {
			return "", fmt.Errorf("%s: %w", d.Name, err)
		}
		logging.FromContext(r.Context()).Debug("document extracted", "name", d.Name, "bytes", len(buf), "chars", len(text))
		parts = append(parts, fmt.Sprintf("--- %s ---\n%s", d.Name, text))
	}
	return strings.Join(parts, "\n\n"), nil
}
