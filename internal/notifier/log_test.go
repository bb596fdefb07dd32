package notifier

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLogNotifier_NotifyReady_returnsNil(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	n := NewLogNotifier(logger)

	app, job := sampleReady()
	if err := n.NotifyReady(context.Background(), app, job); err != nil {
		t.Errorf("NotifyReady = %v, want nil", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Backend Engineer") || !strings.Contains(out, "score=82") {
		t.Errorf("log output missing application details: %s", out)
	}
}
