package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/applypilot/applypilot/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline on a schedule",
	Long:  "Runs a full pass immediately, then repeats every schedule.interval; blocks until SIGINT/SIGTERM.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	proc, err := buildProcessor(ctx, cfg, st, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	cycle := func(ctx context.Context) {
		cycleLogger := logger.With("run_id", uuid.NewString())
		for _, query := range cfg.Queries {
			profile, err := loadProfile(cfg, query)
			if err != nil {
				cycleLogger.Error("failed to load profile", "query", query, "error", err)
				continue
			}
			if _, err := proc.Run(ctx, query, profile); err != nil {
				cycleLogger.Error("run failed", "query", query, "error", err)
			}
		}
	}

	sched := scheduler.New(cycle, cfg.Schedule.Interval, logger)
	if err := sched.Start(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	sched.Stop()
	logger.Info("goodbye")
	return nil
}
