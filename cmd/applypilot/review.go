package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/applypilot/applypilot/internal/review"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Browse generated applications",
	Long:  "Opens an interactive terminal UI over the stored applications: scores, skills, cover letters, and tailored resumes.",
	RunE:  runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	st, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	records, err := st.Applications(ctx)
	if err != nil {
		logger.Error("failed to load applications", "error", err)
		os.Exit(1)
	}

	return review.Run(records)
}
