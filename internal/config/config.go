package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/example/multi-agent/internal/models"
	"github.com/example/multi-agent/internal/providers/llm"
)

// EnvPrefix is prepended to every nested key, e.g. AGENT_LLM_PROVIDER for llm.provider.
const EnvPrefix = "AGENT"

// Config is the complete service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Keys     KeysConfig     `mapstructure:"keys"`
	Search   SearchConfig   `mapstructure:"search"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Eval     EvalConfig     `mapstructure:"eval"`
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// APIKey guards the query and job endpoints via X-API-Key. Empty disables the check.
	APIKey      string   `mapstructure:"api_key"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// LLMConfig selects the language-model provider.
type LLMConfig struct {
	// Provider is one of groq, openai, anthropic, gemini, vertex, mock.
	// Empty picks groq when a Groq key is present and mock otherwise.
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	TimeoutMS   int     `mapstructure:"timeout_ms"`
	Project     string  `mapstructure:"project"`
	Location    string  `mapstructure:"location"`
}

// KeysConfig holds per-vendor credentials, usually read from the
// conventional environment variables.
type KeysConfig struct {
	Groq      string `mapstructure:"groq"`
	OpenAI    string `mapstructure:"openai"`
	Anthropic string `mapstructure:"anthropic"`
	Google    string `mapstructure:"google"`
	Tavily    string `mapstructure:"tavily"`
}

// SearchConfig controls the researcher's search adapter.
type SearchConfig struct {
	// Provider is tavily, duckduckgo, none, or auto (tavily when keyed, else duckduckgo).
	Provider   string `mapstructure:"provider"`
	Depth      string `mapstructure:"depth"`
	MaxResults int    `mapstructure:"max_results"`
}

// PipelineConfig holds run defaults.
type PipelineConfig struct {
	MaxRetries int `mapstructure:"max_retries"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// EvalConfig controls the evaluation harness.
type EvalConfig struct {
	CasesFile   string `mapstructure:"cases_file"`
	Output      string `mapstructure:"output"`
	Parallelism int    `mapstructure:"parallelism"`
}

// Default returns a Config with all default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":8000",
			CORSOrigins: []string{"*"},
		},
		LLM: LLMConfig{
			Temperature: 0,
			MaxTokens:   2048,
			TimeoutMS:   45000,
			Location:    "us-central1",
		},
		Search: SearchConfig{
			Provider:   "auto",
			Depth:      "basic",
			MaxResults: 5,
		},
		Pipeline: PipelineConfig{MaxRetries: models.DefaultMaxRetries},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Eval: EvalConfig{
			Output:      "evaluation_results.json",
			Parallelism: 2,
		},
	}
}

// SetDefaults registers defaults with viper so they apply even without a
// config file, and binds the conventional vendor environment variables.
func SetDefaults() {
	d := Default()

	viper.SetDefault("server.addr", d.Server.Addr)
	viper.SetDefault("server.api_key", d.Server.APIKey)
	viper.SetDefault("server.cors_origins", d.Server.CORSOrigins)

	viper.SetDefault("llm.provider", d.LLM.Provider)
	viper.SetDefault("llm.model", d.LLM.Model)
	viper.SetDefault("llm.base_url", d.LLM.BaseURL)
	viper.SetDefault("llm.api_key", d.LLM.APIKey)
	viper.SetDefault("llm.temperature", d.LLM.Temperature)
	viper.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	viper.SetDefault("llm.timeout_ms", d.LLM.TimeoutMS)
	viper.SetDefault("llm.project", d.LLM.Project)
	viper.SetDefault("llm.location", d.LLM.Location)

	viper.SetDefault("search.provider", d.Search.Provider)
	viper.SetDefault("search.depth", d.Search.Depth)
	viper.SetDefault("search.max_results", d.Search.MaxResults)

	viper.SetDefault("pipeline.max_retries", d.Pipeline.MaxRetries)

	viper.SetDefault("logging.level", d.Logging.Level)
	viper.SetDefault("logging.format", d.Logging.Format)

	viper.SetDefault("eval.cases_file", d.Eval.CasesFile)
	viper.SetDefault("eval.output", d.Eval.Output)
	viper.SetDefault("eval.parallelism", d.Eval.Parallelism)

	// Prefixed names win; the bare vendor names are what deployments usually set.
	_ = viper.BindEnv("server.api_key", EnvPrefix+"_SERVER_API_KEY", "API_KEY")
	_ = viper.BindEnv("keys.groq", EnvPrefix+"_KEYS_GROQ", "GROQ_API_KEY")
	_ = viper.BindEnv("keys.openai", EnvPrefix+"_KEYS_OPENAI", "OPENAI_API_KEY")
	_ = viper.BindEnv("keys.anthropic", EnvPrefix+"_KEYS_ANTHROPIC", "ANTHROPIC_API_KEY")
	_ = viper.BindEnv("keys.google", EnvPrefix+"_KEYS_GOOGLE", "GOOGLE_API_KEY", "GEMINI_API_KEY")
	_ = viper.BindEnv("keys.tavily", EnvPrefix+"_KEYS_TAVILY", "TAVILY_API_KEY")
	_ = viper.BindEnv("llm.project", EnvPrefix+"_LLM_PROJECT", "GOOGLE_CLOUD_PROJECT")
}

// Init wires viper: defaults, environment and an optional config file.
// An explicit cfgFile that cannot be read is an error; a missing default
// file is not.
func Init(cfgFile string) error {
	SetDefaults()
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		return viper.ReadInConfig()
	}
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath(ConfigDir())
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// Load reads the configuration from viper into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// ConfigDir returns the per-user config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "multi-agent")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".multi-agent"
	}
	return filepath.Join(home, ".config", "multi-agent")
}

// ResolvedProvider returns the effective provider name.
func (c *Config) ResolvedProvider() string {
	p := strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if p != "" {
		return p
	}
	if c.Keys.Groq != "" || c.LLM.APIKey != "" {
		return llm.ProviderGroq
	}
	return llm.ProviderMock
}

// ProviderKey returns the credential for the effective provider. An
// explicit llm.api_key takes precedence over vendor keys.
func (c *Config) ProviderKey() string {
	if c.LLM.APIKey != "" {
		return c.LLM.APIKey
	}
	switch c.ResolvedProvider() {
	case llm.ProviderGroq:
		return c.Keys.Groq
	case llm.ProviderOpenAI:
		return c.Keys.OpenAI
	case llm.ProviderAnthropic:
		return c.Keys.Anthropic
	case llm.ProviderGemini:
		return c.Keys.Google
	}
	return ""
}

// LLMClientConfig converts the llm section into provider settings.
func (c *Config) LLMClientConfig() llm.Config {
	return llm.Config{
		Provider:    c.ResolvedProvider(),
		Model:       c.LLM.Model,
		APIKey:      c.ProviderKey(),
		BaseURL:     c.LLM.BaseURL,
		Temperature: c.LLM.Temperature,
		MaxTokens:   c.LLM.MaxTokens,
		TimeoutMS:   c.LLM.TimeoutMS,
		Project:     c.LLM.Project,
		Location:    c.LLM.Location,
	}
}

// LLMConfigured reports whether the effective provider has what it needs
// to make calls. The mock provider always does.
func (c *Config) LLMConfigured() bool {
	switch c.ResolvedProvider() {
	case llm.ProviderMock:
		return true
	case llm.ProviderVertex:
		return c.LLM.Project != ""
	}
	return c.ProviderKey() != ""
}
