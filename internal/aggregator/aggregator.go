// Package aggregator fans a search query out to every configured source
// adapter, normalizes the results, and deduplicates them by content identity.
package aggregator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/applypilot/applypilot/internal/model"
)

// Aggregator runs all source adapters concurrently for one query.
// An adapter failure contributes zero postings; it never aborts the batch
// or its sibling adapters.
type Aggregator struct {
	adapters     []model.SourceAdapter
	fetchTimeout time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

// New creates an aggregator over the given adapters. fetchTimeout bounds
// each adapter call individually.
func New(adapters []model.SourceAdapter, fetchTimeout time.Duration, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		adapters:     adapters,
		fetchTimeout: fetchTimeout,
		now:          time.Now,
		logger:       logger,
	}
}

// Fetch invokes every adapter concurrently, waits for all of them, and
// returns the deduplicated jobs plus the total count of postings fetched
// before dedup. Within one adapter's results input order is preserved;
// across adapters, results appear in configured adapter order. When two
// postings share an identity, the first encountered wins.
func (a *Aggregator) Fetch(ctx context.Context, query string) ([]model.Job, int) {
	results := make([][]model.Posting, len(a.adapters))

	var wg sync.WaitGroup
	for i, ad := range a.adapters {
		wg.Add(1)
		go func(slot int, ad model.SourceAdapter) {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
			defer cancel()

			postings, err := ad.Fetch(fetchCtx, query)
			if err != nil {
				// Failure isolation: a broken source yields nothing.
				a.logger.Warn("source fetch failed",
					"source", ad.Name(),
					"query", query,
					"error", err,
				)
				return
			}
			results[slot] = postings
		}(i, ad)
	}
	wg.Wait()

	fetched := 0
	seen := make(map[string]bool)
	var jobs []model.Job
	now := a.now()

	for _, postings := range results {
		fetched += len(postings)
		for _, p := range postings {
			job := model.NewJob(p, now)
			if seen[job.JobID] {
				continue
			}
			seen[job.JobID] = true
			jobs = append(jobs, job)
		}
	}

	a.logger.Info("aggregated sources",
		"query", query,
		"sources", len(a.adapters),
		"fetched", fetched,
		"unique", len(jobs),
	)

	return jobs, fetched
}
