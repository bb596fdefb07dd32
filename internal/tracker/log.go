package tracker

import (
	"context"
	"log/slog"
	"strings"

	"github.com/applypilot/applypilot/internal/model"
)

// LogTracker reports outcomes through the structured logger. Useful for
// dry runs and setups without a tracking file.
type LogTracker struct {
	logger *slog.Logger
}

func NewLogTracker(logger *slog.Logger) *LogTracker {
	return &LogTracker{logger: logger}
}

func (t *LogTracker) Append(_ context.Context, o model.Outcome) error {
	t.logger.Info("job evaluated",
		"title", o.Title,
		"company", o.Company,
		"location", o.Location,
		"score", o.MatchScore,
		"matched_skills", strings.Join(o.MatchedSkills, ", "),
		"missing_skills", strings.Join(o.MissingSkills, ", "),
		"recommendations", o.Recommendations,
		"url", o.URL,
		"source", o.Source,
	)
	return nil
}
