package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/applypilot/applypilot/internal/model"
	"github.com/applypilot/applypilot/internal/ratelimit"
)

// skippedMarker replaces recommendations in the outcome row of a job that
// fell below the score threshold.
const skippedMarker = "Low match - skipped"

// throttleKey is the rate limiter key shared by all per-job AI passes.
const throttleKey = "pipeline"

// Fetcher aggregates postings from all sources into deduplicated jobs.
// The int result is the raw posting count before deduplication.
type Fetcher interface {
	Fetch(ctx context.Context, query string) ([]model.Job, int)
}

// RunCounts summarizes one pipeline run for logging and CLI output.
type RunCounts struct {
	Fetched   int // raw postings across all sources
	Deduped   int // unique jobs after batch dedup
	Stored    int // jobs newly persisted this run
	Processed int // jobs evaluated by the matching pipeline
	Ready     int // applications generated
	Skipped   int // jobs below the score threshold
	Failed    int // jobs whose evaluation errored out
}

// Processor owns the full run for one query: fetch → dedup → store gate →
// match → generate → record. One evaluation per job, ever.
type Processor struct {
	fetcher  Fetcher
	store    model.Store
	analyzer model.Analyzer
	tracker  model.Tracker
	notifier model.Notifier
	limiter  *ratelimit.Limiter
	minScore int
	logger   *slog.Logger
}

// NewProcessor creates a processor wired with all its dependencies.
func NewProcessor(
	fetcher Fetcher,
	store model.Store,
	analyzer model.Analyzer,
	tracker model.Tracker,
	notifier model.Notifier,
	limiter *ratelimit.Limiter,
	minScore int,
	logger *slog.Logger,
) *Processor {
	return &Processor{
		fetcher:  fetcher,
		store:    store,
		analyzer: analyzer,
		tracker:  tracker,
		notifier: notifier,
		limiter:  limiter,
		minScore: minScore,
		logger:   logger,
	}
}

// Run executes one full cycle for a query: fetch and store new jobs, then
// evaluate everything unprocessed (including leftovers from earlier runs).
func (p *Processor) Run(ctx context.Context, query, profile string) (RunCounts, error) {
	counts, err := p.FetchAndStore(ctx, query)
	if err != nil {
		return counts, err
	}

	if err := p.ProcessAll(ctx, profile, &counts); err != nil {
		return counts, err
	}

	p.logger.Info("run complete",
		"query", query,
		"fetched", counts.Fetched,
		"deduped", counts.Deduped,
		"stored", counts.Stored,
		"processed", counts.Processed,
		"ready", counts.Ready,
		"skipped", counts.Skipped,
		"failed", counts.Failed,
	)
	return counts, nil
}

// FetchAndStore pulls postings from all sources and persists the ones not
// seen before. Duplicate identities, whether within the batch or already
// stored, are silently dropped. Only store failures abort.
func (p *Processor) FetchAndStore(ctx context.Context, query string) (RunCounts, error) {
	var counts RunCounts

	jobs, fetched := p.fetcher.Fetch(ctx, query)
	counts.Fetched = fetched
	counts.Deduped = len(jobs)

	for _, job := range jobs {
		exists, err := p.store.HasJob(ctx, job.JobID)
		if err != nil {
			return counts, fmt.Errorf("checking job %s: %w", job.JobID, err)
		}
		if exists {
			continue
		}

		if err := p.store.InsertJob(ctx, job); err != nil {
			// Another writer got there first. Already stored is fine.
			if errors.Is(err, model.ErrDuplicateJob) {
				continue
			}
			return counts, fmt.Errorf("storing job %s: %w", job.JobID, err)
		}
		counts.Stored++
	}

	p.logger.Info("stored new jobs",
		"query", query,
		"fetched", counts.Fetched,
		"unique", counts.Deduped,
		"new", counts.Stored,
	)
	return counts, nil
}

// ProcessAll evaluates every stored job that has no application yet,
// recomputed fresh from the store. Jobs are processed sequentially with a
// throttle between AI passes; a failing job never stops its successors.
func (p *Processor) ProcessAll(ctx context.Context, profile string, counts *RunCounts) error {
	jobs, err := p.store.UnprocessedJobs(ctx)
	if err != nil {
		return fmt.Errorf("selecting unprocessed jobs: %w", err)
	}

	p.logger.Info("processing jobs", "count", len(jobs))

	for _, job := range jobs {
		// The first wait per key is free and seeds the limiter, so every
		// pair of consecutive jobs is separated by the minimum delay.
		if err := p.limiter.Wait(ctx, throttleKey); err != nil {
			return err
		}

		ready, err := p.processJobSafe(ctx, job, profile)
		counts.Processed++
		switch {
		case err != nil:
			counts.Failed++
			p.logger.Error("job evaluation failed",
				"job_id", job.JobID,
				"title", job.Title,
				"company", job.Company,
				"error", err,
			)
		case ready:
			counts.Ready++
		default:
			counts.Skipped++
		}
	}

	return nil
}

// processJobSafe runs one evaluation, converting panics into errors so a
// single bad job cannot take down the batch.
func (p *Processor) processJobSafe(ctx context.Context, job model.Job, profile string) (ready bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("evaluating job %s: panic: %v", job.JobID, r)
		}
	}()
	return p.processJob(ctx, job, profile)
}

// processJob is the per-job state machine: extract → score → gate →
// generate → record. Each AI step has a documented fallback; only store
// and tracker failures surface as errors.
func (p *Processor) processJob(ctx context.Context, job model.Job, profile string) (bool, error) {
	ext, err := p.analyzer.ExtractSkills(ctx, job.Description)
	if err != nil {
		p.logger.Warn("skill extraction failed, using empty extraction",
			"job_id", job.JobID, "error", err)
		ext = model.EmptyExtraction()
	}

	match, err := p.analyzer.MatchProfile(ctx, profile, ext)
	if err != nil {
		p.logger.Warn("profile match failed, scoring zero",
			"job_id", job.JobID, "error", err)
		match = model.ZeroMatch()
	}

	p.logger.Info("job scored",
		"job_id", job.JobID,
		"title", job.Title,
		"company", job.Company,
		"score", match.MatchScore,
	)

	if match.MatchScore < p.minScore {
		outcome := p.buildOutcome(job, match)
		outcome.Recommendations = skippedMarker
		if err := p.tracker.Append(ctx, outcome); err != nil {
			return false, fmt.Errorf("recording skipped outcome: %w", err)
		}
		return false, nil
	}

	resume, err := p.analyzer.RewriteProfile(ctx, profile, job.Description)
	if err != nil {
		p.logger.Warn("profile rewrite failed, keeping original",
			"job_id", job.JobID, "error", err)
		resume = profile
	}

	letter, err := p.analyzer.CoverLetter(ctx, profile, job.Description, job.Company)
	if err != nil {
		p.logger.Warn("cover letter generation failed, using template",
			"job_id", job.JobID, "error", err)
		letter = fallbackLetter(job.Company)
	}

	app := &model.Application{
		JobID:           job.JobID,
		MatchScore:      match.MatchScore,
		MatchedSkills:   match.MatchedSkills,
		MissingSkills:   match.MissingSkills,
		Recommendations: match.Recommendations,
		ResumeVersion:   resume,
		CoverLetter:     letter,
		Status:          model.StatusReady,
		CreatedAt:       time.Now().UTC(),
	}
	if err := p.store.InsertApplication(ctx, app); err != nil {
		return false, fmt.Errorf("storing application: %w", err)
	}

	if err := p.tracker.Append(ctx, p.buildOutcome(job, match)); err != nil {
		return false, fmt.Errorf("recording outcome: %w", err)
	}

	if p.notifier != nil {
		if err := p.notifier.NotifyReady(ctx, *app, job); err != nil {
			// Notification is best-effort; the application is already stored.
			p.logger.Warn("notification failed", "job_id", job.JobID, "error", err)
		}
	}

	return true, nil
}

func (p *Processor) buildOutcome(job model.Job, match model.MatchResult) model.Outcome {
	return model.Outcome{
		Timestamp:       time.Now().UTC(),
		Title:           job.Title,
		Company:         job.Company,
		Location:        job.Location,
		MatchScore:      match.MatchScore,
		MatchedSkills:   match.MatchedSkills,
		MissingSkills:   match.MissingSkills,
		Recommendations: match.Recommendations,
		URL:             job.URL,
		Source:          job.Source,
	}
}

func fallbackLetter(company string) string {
	return fmt.Sprintf("Dear Hiring Manager,\n\nI am writing to express my interest in the position at %s...", company)
}
