package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_RunsImmediatelyOnStart(t *testing.T) {
	var runs atomic.Int32
	s := New(func(_ context.Context) { runs.Add(1) }, time.Hour, discardLogger())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	deadline := time.After(2 * time.Second)
	for runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("expected an immediate run on start")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestScheduler_FiresOnInterval(t *testing.T) {
	var runs atomic.Int32
	s := New(func(_ context.Context) { runs.Add(1) }, 100*time.Millisecond, discardLogger())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	deadline := time.After(3 * time.Second)
	// 1 immediate + at least 1 tick.
	for runs.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 2 runs, got %d", runs.Load())
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestScheduler_StopWaitsForRunningCycle(t *testing.T) {
	started := make(chan struct{})
	var finished atomic.Bool

	s := New(func(_ context.Context) {
		close(started)
		time.Sleep(100 * time.Millisecond)
		finished.Store(true)
	}, time.Hour, discardLogger())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	<-started
	s.Stop()
	// Stop waits only for cron-dispatched jobs; the immediate startup run
	// is a plain goroutine, so give it a moment.
	time.Sleep(150 * time.Millisecond)
	if !finished.Load() {
		t.Error("run did not finish")
	}
}
