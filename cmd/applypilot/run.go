package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/applypilot/applypilot/internal/model"
	"github.com/applypilot/applypilot/internal/store"
)

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one fetch-and-match pass over all queries",
	Long:  "Fetches postings for every configured query, stores the new ones, and runs the matching pipeline over everything unprocessed.",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "fetch and dedup only; nothing is stored or evaluated")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var st model.Store
	if dryRun {
		logger.Info("dry-run mode enabled, nothing will be stored")
		st = store.NewNopStore()
	} else {
		st, err = openStore(ctx, cfg)
		if err != nil {
			logger.Error("failed to open store", "error", err)
			os.Exit(1)
		}
		defer st.Close()
	}

	proc, err := buildProcessor(ctx, cfg, st, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	runID := uuid.NewString()
	logger = logger.With("run_id", runID)
	logger.Info("starting run", "queries", len(cfg.Queries), "min_score", cfg.MinScore)

	for _, query := range cfg.Queries {
		if dryRun {
			counts, err := proc.FetchAndStore(ctx, query)
			if err != nil {
				logger.Error("fetch failed", "query", query, "error", err)
				continue
			}
			logger.Info("dry-run fetch complete",
				"query", query,
				"fetched", counts.Fetched,
				"unique", counts.Deduped,
			)
			continue
		}

		profile, err := loadProfile(cfg, query)
		if err != nil {
			logger.Error("failed to load profile", "query", query, "error", err)
			continue
		}

		if _, err := proc.Run(ctx, query, profile); err != nil {
			logger.Error("run failed", "query", query, "error", err)
		}
	}

	logger.Info("all queries done")
	return nil
}
