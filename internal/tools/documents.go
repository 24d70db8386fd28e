package tools

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	pdfx "github.com/ledongthuc/pdf"

	"github.com/example/multi-agent/internal/logging"
)

// Document is an attachment supplied with a run request.
type Document struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type,omitempty"`
	DataBase64  string `json:"data_base64"`
}

const (
	defaultDocMaxBytes = 20 * 1024 * 1024
	defaultDocMaxPages = 20
)

var ErrUnsupportedDocument = errors.New("unsupported file type; provide PDF/HTML/text/CSV/JSON/YAML")

// DecodeDocument decodes the base64 payload; data: URL prefixes are accepted.
func DecodeDocument(d Document, maxBytes int) ([]byte, error) {
	b64 := d.DataBase64
	if b64 == "" {
		return nil, fmt.Errorf("%s: missing data_base64", d.Name)
	}
	if i := strings.Index(b64, ","); i != -1 {
		b64 = b64[i+1:]
	}
	buf, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid base64: %w", d.Name, err)
	}
	if maxBytes <= 0 {
		maxBytes = defaultDocMaxBytes
	}
	if len(buf) > maxBytes {
		return nil, fmt.Errorf("%s: file too large: %d bytes > limit %d", d.Name, len(buf), maxBytes)
	}
	return buf, nil
}

// ExtractText converts a decoded attachment into plain text for the
// researcher's context.
func ExtractText(ctx context.Context, d Document, buf []byte, maxPages int) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(d.Name), "."))
	ctype := strings.ToLower(d.ContentType)

	if bytes.HasPrefix(buf, []byte("%PDF-")) || ext == "pdf" || strings.Contains(ctype, "pdf") {
		return extractPDF(ctx, buf, maxPages)
	}
	looksHTML := ext == "html" || ext == "htm" || strings.Contains(ctype, "html")
	if !looksHTML {
		s := strings.ToLower(string(buf))
		looksHTML = strings.Contains(s, "<html") || strings.Contains(s, "<body")
	}
	if looksHTML {
		return HTMLToText(string(buf))
	}
	switch ext {
	case "txt", "md", "markdown", "csv", "json", "log", "yaml", "yml", "go":
		return strings.TrimSpace(string(buf)), nil
	}
	if strings.Contains(ctype, "text/") || strings.Contains(ctype, "json") || strings.Contains(ctype, "yaml") {
		return strings.TrimSpace(string(buf)), nil
	}
	return "", ErrUnsupportedDocument
}

func extractPDF(ctx context.Context, buf []byte, maxPages int) (string, error) {
	r, err := pdfx.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	if maxPages <= 0 {
		maxPages = defaultDocMaxPages
	}
	n := min(r.NumPage(), maxPages)
	return joinPages(ctx, n, func(page int) (string, error) {
		p := r.Page(page)
		if p.V.IsNull() {
			return "", nil
		}
		return p.GetPlainText(nil)
	})
}

// joinPages concatenates the text of pages 1..n. Pages whose text cannot be
// read are skipped and logged.
func joinPages(ctx context.Context, n int, pageText func(page int) (string, error)) (string, error) {
	log := logging.FromContext(ctx)
	var out strings.Builder
	skipped := 0
	for page := 1; page <= n; page++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		txt, err := pageText(page)
		if err != nil {
			skipped++
			log.Debug("pdf page unreadable", "page", page, "err", err)
			continue
		}
		if t := strings.TrimSpace(txt); t != "" {
			out.WriteString(t)
			out.WriteString("\n\n")
		}
	}
	if skipped > 0 {
		log.Warn("pdf pages skipped", "skipped", skipped, "pages", n)
	}
	return strings.TrimSpace(out.String()), nil
}

// DocumentExtractTool exposes ExtractText through the registry.
// Inputs:
// - data_base64: string (required); a data: URL is accepted
// - filename: string (optional)
// - content_type: string (optional)
// - max_pages: number (optional; PDF only)
type DocumentExtractTool struct{}

func (t *DocumentExtractTool) Name() string { return "document_extract" }

func (t *DocumentExtractTool) Execute(ctx context.Context, inputs map[string]any) (any, string, error) {
	d := Document{}
	d.DataBase64, _ = inputs["data_base64"].(string)
	d.Name, _ = inputs["filename"].(string)
	d.ContentType, _ = inputs["content_type"].(string)
	buf, err := DecodeDocument(d, 0)
	if err != nil {
		return nil, "", err
	}
	text, err := ExtractText(ctx, d, buf, getInt(inputs, "max_pages", defaultDocMaxPages))
	if err != nil {
		return nil, "", err
	}
	return text, fmt.Sprintf("bytes=%d chars=%d", len(buf), len(text)), nil
}

func getInt(m map[string]any, key string, def int) int {
	if v, ok := m[key]; ok {
		switch t := v.(type) {
		case float64:
			return int(t)
		case int:
			return t
		case string:
			if n, err := strconv.Atoi(t); err == nil {
				return n
			}
		}
	}
	return def
}
