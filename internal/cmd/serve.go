package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/example/multi-agent/internal/api"
	"github.com/example/multi-agent/internal/jobs"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API. Queries submitted to POST /query run in the
background; poll GET /status/{id} or stream GET /events/{id}.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().String("addr", "", "listen address (default :8000)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	return serve(ctx, a)
}

// serve runs the HTTP server until ctx is done, then drains in-flight
// requests and background jobs.
func serve(ctx context.Context, a *app) error {
	cfg := a.cfg
	store := jobs.NewStore(a.pipeline, a.hub)
	srv := api.New(a.pipeline, store, a.registry, api.Options{
		APIKey:            cfg.Server.APIKey,
		CORSOrigins:       cfg.Server.CORSOrigins,
		LLMProvider:       cfg.ResolvedProvider(),
		LLMConfigured:     cfg.LLMConfigured(),
		TavilyConfigured:  cfg.Keys.Tavily != "",
		DefaultMaxRetries: cfg.Pipeline.MaxRetries,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return a.context(context.Background())
		},
	}

	errc := make(chan error, 1)
	go func() {
		a.log.Info("server listening", "addr", cfg.Server.Addr, "llm_provider", cfg.ResolvedProvider())
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("http shutdown", "err", err)
	}
	a.log.Info("waiting for background jobs")
	store.Wait()
	a.log.Info("stopped")
	return nil
}
