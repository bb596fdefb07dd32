package notifier

import (
	"context"
	"log/slog"

	"github.com/applypilot/applypilot/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes ready applications to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each ready application via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifyReady logs the application with company, title, score, and URL.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) NotifyReady(_ context.Context, app model.Application, job model.Job) error {
	n.logger.Info("application ready",
		"company", job.Company,
		"title", job.Title,
		"location", job.Location,
		"score", app.MatchScore,
		"url", job.URL,
	)
	return nil
}
