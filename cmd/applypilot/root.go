package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/applypilot/applypilot/internal/adapter"
	"github.com/applypilot/applypilot/internal/aggregator"
	"github.com/applypilot/applypilot/internal/ai"
	"github.com/applypilot/applypilot/internal/cache"
	"github.com/applypilot/applypilot/internal/config"
	"github.com/applypilot/applypilot/internal/model"
	"github.com/applypilot/applypilot/internal/notifier"
	"github.com/applypilot/applypilot/internal/pipeline"
	"github.com/applypilot/applypilot/internal/ratelimit"
	"github.com/applypilot/applypilot/internal/retry"
	"github.com/applypilot/applypilot/internal/store"
	"github.com/applypilot/applypilot/internal/tracker"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "applypilot",
	Short: "Job application copilot",
	Long:  "ApplyPilot aggregates job postings, scores them against your profile, and drafts tailored application material for the good ones.",
	// Default to `run` so that `applypilot` with no args does one pass.
	RunE: runRun,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: APPLYPILOT_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > APPLYPILOT_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("APPLYPILOT_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func openStore(ctx context.Context, cfg *config.Config) (model.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgresStore(ctx, cfg.Store.DatabaseURL)
	default:
		return store.NewSQLiteStore(cfg.Store.Path)
	}
}

func buildAdapters(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) []model.SourceAdapter {
	limiter := ratelimit.NewLimiter(cfg.Throttle.SourceDelay)

	var adapters []model.SourceAdapter
	for _, src := range cfg.Sources {
		if !src.Enabled {
			continue
		}

		var a model.SourceAdapter
		switch src.Name {
		case "remotive":
			a = adapter.NewRemotiveAdapter("", httpClient)
		case "adzuna":
			a = adapter.NewAdzunaAdapter("", src.AppID, src.AppKey, src.Country, httpClient)
		default:
			logger.Warn("unknown source, skipping", "source", src.Name)
			continue
		}

		a = retry.NewRetryAdapter(a, 2, 5*time.Second, logger)
		a = ratelimit.NewRateLimitedAdapter(a, limiter)
		adapters = append(adapters, a)
		logger.Info("registered source", "source", src.Name)
	}
	return adapters
}

func setupAnalyzer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (model.Analyzer, error) {
	httpClient := &http.Client{Timeout: cfg.AI.Timeout}
	provider := ai.NewAnthropicProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, httpClient)

	var analyzer model.Analyzer = ai.NewService(provider, logger)

	if cfg.Cache.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		analyzer = cache.NewCachedAnalyzer(analyzer, client, cfg.Cache.TTL, logger)
		logger.Info("extraction cache enabled", "ttl", cfg.Cache.TTL.String())
	}

	return analyzer, nil
}

func setupTracker(cfg *config.Config, logger *slog.Logger) (model.Tracker, error) {
	switch cfg.Tracker.Type {
	case "csv":
		logger.Info("using csv tracker", "path", cfg.Tracker.Path)
		return tracker.NewCSVTracker(cfg.Tracker.Path)
	default:
		return tracker.NewLogTracker(logger), nil
	}
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "webhook":
		logger.Info("using slack webhook notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// buildProcessor wires the full pipeline against the given store.
func buildProcessor(ctx context.Context, cfg *config.Config, st model.Store, logger *slog.Logger) (*pipeline.Processor, error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	adapters := buildAdapters(cfg, httpClient, logger)
	if len(adapters) == 0 {
		return nil, fmt.Errorf("no sources enabled")
	}

	analyzer, err := setupAnalyzer(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	tr, err := setupTracker(cfg, logger)
	if err != nil {
		return nil, err
	}

	agg := aggregator.New(adapters, 60*time.Second, logger)
	n := setupNotifier(cfg, httpClient, logger)
	limiter := ratelimit.NewLimiter(cfg.Throttle.PipelineDelay)

	return pipeline.NewProcessor(agg, st, analyzer, tr, n, limiter, cfg.MinScore, logger), nil
}

// loadProfile reads the candidate profile text for a query, honoring
// per-query overrides.
func loadProfile(cfg *config.Config, query string) (string, error) {
	path := cfg.Profile.PathFor(query)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading profile %s: %w", path, err)
	}
	return string(data), nil
}
