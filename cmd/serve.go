package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mj1618/focusorder/internal/cache"
	"github.com/mj1618/focusorder/internal/config"
	"github.com/mj1618/focusorder/internal/server"
	"github.com/mj1618/focusorder/internal/vision"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the annotation service",
	Long: `Run the annotation service over HTTP, or expose it as MCP tools.

Supported transports:
  http              JSON API: POST /annotate, GET /health (default)
  stdio             MCP over standard I/O
  streamable-http   MCP over streamable HTTP

Examples:
  focusorder serve
  focusorder serve --port 9000
  focusorder serve --transport stdio`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "", "Transport: http, stdio, streamable-http")
	serveCmd.Flags().Int("port", 0, "Listen port for http and streamable-http")
}

func runServe(cmd *cobra.Command, args []string) error {
	if transport, _ := cmd.Flags().GetString("transport"); transport != "" {
		cfg.Transport = transport
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, cleanup, err := buildService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	switch cfg.Transport {
	case config.TransportHTTP:
		return server.ListenAndServe(ctx, svc, server.HTTPConfig{
			Addr:    fmt.Sprintf(":%d", cfg.Port),
			MaxBody: cfg.Limits.MaxBody,
			RPS:     cfg.RateLimit.RPS,
			Burst:   cfg.RateLimit.Burst,
		}, logger)
	default:
		return server.NewMCP(svc, logger).Serve(ctx, server.MCPConfig{Transport: cfg.Transport, Port: cfg.Port})
	}
}

// buildService wires cache, model and pipeline options from c.
func buildService(ctx context.Context, c config.Config, logger *zap.Logger) (*server.Service, func(), error) {
	cleanup := func() {}
	var resultCache cache.Cache = cache.NewMemory(c.Cache.Size, c.Cache.TTL)
	if c.Cache.RedisURL != "" {
		shared, err := cache.NewRedis(c.Cache.RedisURL, c.Cache.TTL)
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		if err := shared.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, continuing with local cache only", zap.Error(err))
			_ = shared.Close()
		} else {
			resultCache = &cache.Tiered{Local: resultCache, Shared: shared}
			cleanup = func() { _ = shared.Close() }
		}
	}

	var m vision.Model
	gemini, err := vision.NewGemini(ctx, vision.GeminiConfig{
		APIKey:      c.Model.APIKey,
		Model:       c.Model.Name,
		Temperature: c.Model.Temperature,
		RPS:         c.Model.RPS,
	}, logger)
	switch {
	case errors.Is(err, vision.ErrNoCredential):
		logger.Warn("no model credential configured; serving heuristic orders only")
	case err != nil:
		return nil, nil, err
	default:
		policy := vision.DefaultRetryPolicy()
		policy.MaxAttempts = c.Model.RetryAttempts
		policy.BaseDelay = c.Model.RetryBase
		m = vision.WithRetry(gemini, policy, logger)
	}

	opts := server.DefaultOptions()
	opts.ModelNodeBudget = c.Limits.MaxNodes
	opts.MaxNodes = c.Limits.RejectNodes
	opts.ModelTimeout = c.Model.Timeout
	return server.NewService(resultCache, m, opts, logger), cleanup, nil
}
