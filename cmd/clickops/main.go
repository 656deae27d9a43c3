package main

import (
	"context"
	"fmt"
	"os"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/clickops/cache"
	"github.com/jonwraymond/clickops/clickup"
	"github.com/jonwraymond/clickops/config"
	"github.com/jonwraymond/clickops/format"
	"github.com/jonwraymond/clickops/observe"
	"github.com/jonwraymond/clickops/router"
	"github.com/jonwraymond/clickops/server"
)

// version is stamped at build time via -ldflags.
var version = "0.1.0-dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "clickops",
		Short:         "ClickUp MCP server",
		Long:          "clickops exposes ClickUp project-management operations as MCP tools over stdio.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	})

	return root
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	obs, err := observe.NewObserver(ctx, observe.Config{
		ServiceName: "clickops",
		Version:     version,
		Tracing: observe.TracingConfig{
			Enabled:   cfg.TracingExporter != "" && cfg.TracingExporter != "none",
			Exporter:  cfg.TracingExporter,
			SamplePct: cfg.TracingSamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  cfg.MetricsExporter != "" && cfg.MetricsExporter != "none",
			Exporter: cfg.MetricsExporter,
		},
		Logging: observe.LoggingConfig{Enabled: true, Level: cfg.LogLevel},
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(shutdownCtx)
	}()
	logger := obs.Logger()

	metrics, err := observe.MetricsFromObserver(obs)
	if err != nil {
		return err
	}

	client, err := clickup.New(clickup.Config{
		Token:          cfg.Token,
		TeamID:         cfg.TeamID,
		BaseURL:        cfg.BaseURL,
		RequestSpacing: cfg.RequestSpacing,
		MaxRetries:     cfg.MaxRetries,
		Timeout:        cfg.RequestTimeout,
		Metrics:        metrics,
	})
	if err != nil {
		return err
	}

	store := cache.NewStore(cache.Options{SweepInterval: cfg.SweepInterval})
	defer store.Close()

	rtr := router.New(router.Deps{
		Store:     client,
		Formatter: format.New(format.Config{
			UniformThreshold:    cfg.UniformThreshold,
			CommonFieldMinRatio: cfg.CommonFieldMinRatio,
			MinNormalizeItems:   cfg.MinNormalizeItems,
			DetailedMaxItems:    cfg.DetailedMaxItems,
		}),
		Caches: cache.NewDomain(store, cache.DomainTTLs{
			Hierarchy:    cfg.HierarchyTTL,
			Members:      cfg.MembersTTL,
			Tags:         cfg.TagsTTL,
			CustomFields: cfg.CustomFieldsTTL,
		}),
		SearchCache: cache.NewNamespace(store, "search", cfg.SearchTTL),
		Logger:      logger,
		Metrics:     metrics,
	})

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return err
	}

	srv := server.New(cfg, server.Deps{
		Router:     rtr,
		Middleware: mw,
		Logger:     logger,
		Version:    version,
	})

	if cfg.MetricsAddr != "" {
		sidecar := server.NewHTTP(cfg.MetricsAddr, store.Stats, logger)
		go func() {
			if err := sidecar.Start(); err != nil {
				logger.Error(ctx, "health listener failed",
					observe.Field{Key: "error", Value: err.Error()},
				)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = sidecar.Shutdown(shutdownCtx)
		}()
	}

	logger.Info(ctx, "serving MCP over stdio",
		observe.Field{Key: "version", Value: version},
		observe.Field{Key: "team_id", Value: cfg.TeamID},
	)
	return mcpserver.ServeStdio(srv)
}
