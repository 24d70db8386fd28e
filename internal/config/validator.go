package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/example/multi-agent/internal/models"
	"github.com/example/multi-agent/internal/providers/llm"
)

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

func ValidLogLevels() []string { return []string{"debug", "info", "warn", "error"} }

func ValidLogFormats() []string { return []string{"text", "json"} }

func ValidProviders() []string {
	return []string{"", llm.ProviderGroq, llm.ProviderOpenAI, llm.ProviderAnthropic, llm.ProviderGemini, llm.ProviderVertex, llm.ProviderMock}
}

func ValidSearchProviders() []string { return []string{"auto", "tavily", "duckduckgo", "none"} }

// Validate checks all values and returns every failure found.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, ValidationError{Field: "server.addr", Value: c.Server.Addr, Message: "must not be empty"})
	}

	if p := strings.ToLower(c.LLM.Provider); !slices.Contains(ValidProviders(), p) {
		errs = append(errs, ValidationError{
			Field:   "llm.provider",
			Value:   c.LLM.Provider,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidProviders()[1:], ", ")),
		})
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, ValidationError{Field: "llm.temperature", Value: c.LLM.Temperature, Message: "must be between 0 and 2"})
	}
	if c.LLM.MaxTokens < 0 {
		errs = append(errs, ValidationError{Field: "llm.max_tokens", Value: c.LLM.MaxTokens, Message: "must be non-negative"})
	}
	if c.LLM.TimeoutMS < 0 {
		errs = append(errs, ValidationError{Field: "llm.timeout_ms", Value: c.LLM.TimeoutMS, Message: "must be non-negative"})
	}

	if !slices.Contains(ValidSearchProviders(), strings.ToLower(c.Search.Provider)) {
		errs = append(errs, ValidationError{
			Field:   "search.provider",
			Value:   c.Search.Provider,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidSearchProviders(), ", ")),
		})
	}
	if d := c.Search.Depth; d != "" && d != "basic" && d != "advanced" {
		errs = append(errs, ValidationError{Field: "search.depth", Value: d, Message: "must be basic or advanced"})
	}

	if c.Pipeline.MaxRetries < 0 || c.Pipeline.MaxRetries > models.MaxAllowedRetries {
		errs = append(errs, ValidationError{
			Field:   "pipeline.max_retries",
			Value:   c.Pipeline.MaxRetries,
			Message: fmt.Sprintf("must be between 0 and %d", models.MaxAllowedRetries),
		})
	}

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}
	if c.Logging.Format != "" && !slices.Contains(ValidLogFormats(), c.Logging.Format) {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Value:   c.Logging.Format,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogFormats(), ", ")),
		})
	}

	if c.Eval.Parallelism < 1 {
		errs = append(errs, ValidationError{Field: "eval.parallelism", Value: c.Eval.Parallelism, Message: "must be at least 1"})
	}

	return errs
}
