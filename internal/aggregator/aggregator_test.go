package aggregator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/applypilot/applypilot/internal/model"
)

// stubAdapter returns canned postings or an error, optionally after a delay.
type stubAdapter struct {
	name     string
	postings []model.Posting
	err      error
	delay    time.Duration
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Fetch(ctx context.Context, _ string) ([]model.Posting, error) {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.delay):
		}
	}
	return s.postings, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func posting(title, company, location, source string) model.Posting {
	return model.Posting{Title: title, Company: company, Location: location, Source: source}
}

func TestFetch_MergesAndCounts(t *testing.T) {
	agg := New([]model.SourceAdapter{
		&stubAdapter{name: "a", postings: []model.Posting{
			posting("SRE", "Acme", "Remote", "a"),
			posting("Backend", "Globex", "NYC", "a"),
		}},
		&stubAdapter{name: "b", postings: []model.Posting{
			posting("Frontend", "Initech", "Berlin", "b"),
		}},
	}, time.Second, discardLogger())

	jobs, fetched := agg.Fetch(context.Background(), "engineer")
	if fetched != 3 {
		t.Errorf("fetched = %d, want 3", fetched)
	}
	if len(jobs) != 3 {
		t.Errorf("unique jobs = %d, want 3", len(jobs))
	}
}

func TestFetch_DedupAcrossSourcesKeepsFirst(t *testing.T) {
	// Same (title, company, location) from two sources collapses to one,
	// keeping the first encountered (adapter order).
	agg := New([]model.SourceAdapter{
		&stubAdapter{name: "a", postings: []model.Posting{
			posting("SRE", "Acme", "Remote", "a"),
		}},
		&stubAdapter{name: "b", postings: []model.Posting{
			posting("SRE", "Acme", "Remote", "b"),
			posting("Backend", "Globex", "NYC", "b"),
		}},
	}, time.Second, discardLogger())

	jobs, fetched := agg.Fetch(context.Background(), "sre")
	if fetched != 3 {
		t.Errorf("fetched = %d, want 3", fetched)
	}
	if len(jobs) != 2 {
		t.Fatalf("unique jobs = %d, want 2", len(jobs))
	}
	if jobs[0].Source != "a" {
		t.Errorf("kept job source = %q, want first-encountered %q", jobs[0].Source, "a")
	}
}

func TestFetch_DedupWithinOneSource(t *testing.T) {
	agg := New([]model.SourceAdapter{
		&stubAdapter{name: "a", postings: []model.Posting{
			posting("SRE", "Acme", "Remote", "a"),
			posting("SRE", "Acme", "Remote", "a"),
		}},
	}, time.Second, discardLogger())

	jobs, _ := agg.Fetch(context.Background(), "sre")
	if len(jobs) != 1 {
		t.Errorf("unique jobs = %d, want 1", len(jobs))
	}
}

func TestFetch_FailingAdapterDoesNotAbortSiblings(t *testing.T) {
	agg := New([]model.SourceAdapter{
		&stubAdapter{name: "broken", err: errors.New("connection refused")},
		&stubAdapter{name: "ok", postings: []model.Posting{
			posting("SRE", "Acme", "Remote", "ok"),
		}},
	}, time.Second, discardLogger())

	jobs, fetched := agg.Fetch(context.Background(), "sre")
	if fetched != 1 {
		t.Errorf("fetched = %d, want 1", fetched)
	}
	if len(jobs) != 1 || jobs[0].Source != "ok" {
		t.Errorf("jobs = %+v, want the healthy source's job", jobs)
	}
}

func TestFetch_SlowAdapterTimesOutAsEmpty(t *testing.T) {
	agg := New([]model.SourceAdapter{
		&stubAdapter{name: "slow", delay: 500 * time.Millisecond, postings: []model.Posting{
			posting("Never", "Arrives", "Anywhere", "slow"),
		}},
		&stubAdapter{name: "fast", postings: []model.Posting{
			posting("SRE", "Acme", "Remote", "fast"),
		}},
	}, 50*time.Millisecond, discardLogger())

	jobs, fetched := agg.Fetch(context.Background(), "sre")
	if fetched != 1 {
		t.Errorf("fetched = %d, want 1 (slow adapter timed out)", fetched)
	}
	if len(jobs) != 1 || jobs[0].Source != "fast" {
		t.Errorf("jobs = %+v, want only the fast source's job", jobs)
	}
}

func TestFetch_PreservesOrderWithinAdapter(t *testing.T) {
	agg := New([]model.SourceAdapter{
		&stubAdapter{name: "a", postings: []model.Posting{
			posting("First", "Acme", "Remote", "a"),
			posting("Second", "Acme", "Remote", "a"),
			posting("Third", "Acme", "Remote", "a"),
		}},
	}, time.Second, discardLogger())

	jobs, _ := agg.Fetch(context.Background(), "x")
	want := []string{"First", "Second", "Third"}
	for i, w := range want {
		if jobs[i].Title != w {
			t.Errorf("jobs[%d].Title = %q, want %q", i, jobs[i].Title, w)
		}
	}
}
