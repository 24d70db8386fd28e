package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/example/multi-agent/internal/agents"
	"github.com/example/multi-agent/internal/config"
	"github.com/example/multi-agent/internal/logging"
	"github.com/example/multi-agent/internal/orchestrator"
	"github.com/example/multi-agent/internal/providers/llm"
	"github.com/example/multi-agent/internal/tools"
)

// app is the wired dependency set shared by every subcommand.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	client   llm.Client
	hub      *orchestrator.Hub
	pipeline *orchestrator.Pipeline
	registry *tools.Registry
}

// newApp loads configuration and builds the model client, search adapter,
// pipeline and tool registry. Logs go to logw.
func newApp(ctx context.Context, logw io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logging.New(logw, cfg.Logging.Level, cfg.Logging.Format)
	ctx = logging.NewContext(ctx, log)

	client, err := llm.New(ctx, cfg.LLMClientConfig())
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}
	provider, err := tools.NewSearchProvider(cfg.Search.Provider, cfg.Keys.Tavily, cfg.Search.Depth, cfg.Search.MaxResults)
	if err != nil {
		return nil, err
	}
	search := &tools.WebSearch{Provider: provider}

	// A nil interface keeps the researcher in knowledge-only mode.
	var searcher agents.Searcher
	if provider != nil {
		searcher = search
	}
	hub := orchestrator.NewHub()
	a := &app{
		cfg:      cfg,
		log:      log,
		client:   client,
		hub:      hub,
		pipeline: orchestrator.NewPipeline(client, searcher, hub),
		registry: tools.NewDefaultRegistry(search),
	}
	log.Debug("app wired",
		"llm_provider", cfg.ResolvedProvider(),
		"search_provider", cfg.Search.Provider,
		"search_enabled", provider != nil)
	return a, nil
}

// context returns ctx carrying the app logger.
func (a *app) context(ctx context.Context) context.Context {
	return logging.NewContext(ctx, a.log)
}
