package agents

import (
	"encoding/json"
	"errors"
	"strings"
)

// ReplyShape describes how a model reply wrapped its JSON payload.
type ReplyShape int

const (
	ShapeRaw ReplyShape = iota
	ShapeFencedJSON
	ShapeFenced
	ShapeProse
)

func (s ReplyShape) String() string {
	switch s {
	case ShapeFencedJSON:
		return "fenced_json"
	case ShapeFenced:
		return "fenced"
	case ShapeProse:
		return "prose"
	default:
		return "raw"
	}
}

// Decoded is the typed outcome of parsing a model reply. When Fallback is
// true, Value holds the zero value and Err explains why parsing failed.
type Decoded[T any] struct {
	Value    T
	Shape    ReplyShape
	Fallback bool
	Err      error
}

var (
	errEmptyReply   = errors.New("empty reply")
	errMissingScore = errors.New("reply has no score")
	errNoSearcher   = errors.New("no search adapter")
)

// UnwrapReply extracts the JSON candidate from a model reply. Accepted inputs:
// raw JSON, a ```json fenced block, an unlabeled ``` fenced block, or prose
// with an embedded object.
func UnwrapReply(text string) (string, ReplyShape) {
	t := strings.TrimSpace(text)
	if i := strings.Index(t, "```json"); i != -1 {
		return fenceBody(t[i+len("```json"):]), ShapeFencedJSON
	}
	if i := strings.Index(t, "```"); i != -1 {
		body := t[i+3:]
		// drop a language hint such as ```JSON or ```js
		if nl := strings.IndexByte(body, '\n'); nl != -1 {
			if hint := strings.TrimSpace(body[:nl]); hint != "" && !strings.ContainsAny(hint, "{[") {
				body = body[nl+1:]
			}
		}
		return fenceBody(body), ShapeFenced
	}
	if strings.HasPrefix(t, "{") || strings.HasPrefix(t, "[") {
		return t, ShapeRaw
	}
	if obj := extractJSONObject(t); obj != "" {
		return obj, ShapeProse
	}
	return t, ShapeProse
}

// DecodeReply unwraps text and unmarshals it into T.
func DecodeReply[T any](text string) Decoded[T] {
	var out Decoded[T]
	body, shape := UnwrapReply(text)
	out.Shape = shape
	if body == "" {
		out.Fallback, out.Err = true, errEmptyReply
		return out
	}
	if err := json.Unmarshal([]byte(body), &out.Value); err != nil {
		var zero T
		out.Value, out.Fallback, out.Err = zero, true, err
	}
	return out
}

func fenceBody(s string) string {
	if j := strings.Index(s, "```"); j != -1 {
		s = s[:j]
	}
	return strings.TrimSpace(s)
}

// extractJSONObject returns the first balanced {...} span in s. Braces inside
// JSON strings are skipped.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ""
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
