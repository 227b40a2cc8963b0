// Command packhost runs the local development harness: it loads the pack's
// formula catalog and serves it over HTTP, emulating the host platform's
// registration, validation, and caching duties.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/tjfontaine/promptpack/internal/api/openai"
	"github.com/tjfontaine/promptpack/internal/cache"
	cachesqlite "github.com/tjfontaine/promptpack/internal/cache/sqlite"
	"github.com/tjfontaine/promptpack/internal/config"
	"github.com/tjfontaine/promptpack/internal/formula"
	"github.com/tjfontaine/promptpack/internal/server"
	"github.com/tjfontaine/promptpack/internal/telemetry"
	"github.com/tjfontaine/promptpack/internal/tokens"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	// A .env file is optional; environment variables win either way.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.OpenAI.APIKey == "" {
		logger.Error("no API key configured; set PACK_OPENAI__API_KEY or openai.api_key")
		os.Exit(1)
	}

	shutdown, err := telemetry.InitTracer("packhost", logger)
	if err != nil {
		logger.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		_ = shutdown(context.Background())
	}()

	var clientOpts []openai.ClientOption
	if cfg.OpenAI.BaseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	client := openai.NewClient(cfg.OpenAI.APIKey, clientOpts...)

	catalog := formula.New(client, tokens.NewCounter(), formula.Defaults{
		Model:       cfg.Defaults.Model,
		MaxTokens:   cfg.Defaults.MaxTokens,
		Temperature: cfg.Defaults.Temperature,
	})

	var store cache.Store
	if cfg.Cache.Path != "" {
		store, err = cachesqlite.New(cfg.Cache.Path)
		if err != nil {
			logger.Error("failed to open cache", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer store.Close()
	} else {
		logger.Info("result caching disabled")
	}

	srv := server.New(cfg.Server.Port, logger)
	server.NewHandler(catalog, store, logger).Register(srv.Router)

	if err := srv.Start(); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
