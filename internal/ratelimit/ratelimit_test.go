package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/applypilot/applypilot/internal/model"
)

func TestLimiterFirstCallImmediate(t *testing.T) {
	l := NewLimiter(100 * time.Millisecond)

	start := time.Now()
	if err := l.Wait(context.Background(), "remotive"); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("first call should not wait, took %v", elapsed)
	}
}

func TestLimiterEnforcesDelay(t *testing.T) {
	l := NewLimiter(80 * time.Millisecond)
	ctx := context.Background()

	if err := l.Wait(ctx, "remotive"); err != nil {
		t.Fatalf("first Wait failed: %v", err)
	}

	start := time.Now()
	if err := l.Wait(ctx, "remotive"); err != nil {
		t.Fatalf("second Wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Errorf("second call returned after %v, want at least ~80ms", elapsed)
	}
}

func TestLimiterIndependentKeys(t *testing.T) {
	l := NewLimiter(200 * time.Millisecond)
	ctx := context.Background()

	if err := l.Wait(ctx, "remotive"); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	start := time.Now()
	if err := l.Wait(ctx, "adzuna"); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("different key should not wait, took %v", elapsed)
	}
}

func TestLimiterContextCancellation(t *testing.T) {
	l := NewLimiter(5 * time.Second)

	if err := l.Wait(context.Background(), "llm"); err != nil {
		t.Fatalf("first Wait failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx, "llm")
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}
}

type countingAdapter struct {
	name  string
	calls int
}

func (a *countingAdapter) Name() string { return a.name }

func (a *countingAdapter) Fetch(ctx context.Context, query string) ([]model.Posting, error) {
	a.calls++
	return []model.Posting{{Title: "Engineer", Company: "Acme", Location: "Remote"}}, nil
}

func TestRateLimitedAdapterDelegates(t *testing.T) {
	inner := &countingAdapter{name: "remotive"}
	a := NewRateLimitedAdapter(inner, NewLimiter(time.Millisecond))

	if a.Name() != "remotive" {
		t.Errorf("Name = %q, want remotive", a.Name())
	}

	postings, err := a.Fetch(context.Background(), "golang")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(postings) != 1 || inner.calls != 1 {
		t.Errorf("expected 1 posting from 1 call, got %d postings, %d calls", len(postings), inner.calls)
	}
}

func TestRateLimitedAdapterSpacesCalls(t *testing.T) {
	inner := &countingAdapter{name: "remotive"}
	a := NewRateLimitedAdapter(inner, NewLimiter(70*time.Millisecond))
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := a.Fetch(ctx, "golang"); err != nil {
			t.Fatalf("Fetch %d failed: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed < 120*time.Millisecond {
		t.Errorf("3 calls completed in %v, want at least ~140ms", elapsed)
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}
