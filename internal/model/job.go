package model

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// Posting is a raw job listing as returned by a single source, before
// identity assignment and deduplication.
type Posting struct {
	Title       string
	Company     string
	Location    string
	Description string // may be empty; some sources expose no full text
	URL         string
	Source      string
	PostedAt    *time.Time // nullable (not all APIs provide this)
}

// Job is the canonical, deduplicated posting with stable identity.
// Created once on first successful insert; never mutated or deleted.
type Job struct {
	JobID       string // content hash of (title, company, location)
	Title       string
	Company     string
	Location    string
	Description string
	URL         string
	Source      string
	PostedAt    *time.Time
	FetchedAt   time.Time // our clock, set on first storage
}

// JobID derives the stable identity for a posting. Two postings with the
// same title, company, and location collapse to one Job regardless of
// source or fetch run.
func JobID(title, company, location string) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s-%s-%s", title, company, location)))
	return hex.EncodeToString(sum[:])
}

// NewJob normalizes a posting into a Job, assigning its identity hash.
func NewJob(p Posting, fetchedAt time.Time) Job {
	return Job{
		JobID:       JobID(p.Title, p.Company, p.Location),
		Title:       p.Title,
		Company:     p.Company,
		Location:    p.Location,
		Description: p.Description,
		URL:         p.URL,
		Source:      p.Source,
		PostedAt:    p.PostedAt,
		FetchedAt:   fetchedAt,
	}
}

// StatusReady marks an application whose artifacts were generated.
const StatusReady = "ready"

// Application is the durable outcome of matching a Job that passed the
// score threshold. Jobs below the threshold never get one.
type Application struct {
	ID              int64
	JobID           string
	MatchScore      int
	MatchedSkills   []string
	MissingSkills   []string
	Recommendations string
	ResumeVersion   string
	CoverLetter     string
	Status          string
	CreatedAt       time.Time
}

// ApplicationRecord pairs an Application with the Job it was generated for.
type ApplicationRecord struct {
	Application Application
	Job         Job
}

// Outcome is one row of the external audit trail: every evaluated job gets
// exactly one, whether it was skipped or produced an Application.
type Outcome struct {
	Timestamp       time.Time
	Title           string
	Company         string
	Location        string
	MatchScore      int
	MatchedSkills   []string
	MissingSkills   []string
	Recommendations string
	URL             string
	Source          string
}

// SourceAdapter fetches raw postings from one external source.
// Fetch errors are recovered by the aggregator, never by callers above it.
type SourceAdapter interface {
	Name() string
	Fetch(ctx context.Context, query string) ([]Posting, error)
}

// Store is the durable record store for jobs and applications.
type Store interface {
	// HasJob reports whether a job with this identity is already stored.
	HasJob(ctx context.Context, jobID string) (bool, error)
	// InsertJob stores a new job. Returns ErrDuplicateJob if another
	// writer stored the same identity first.
	InsertJob(ctx context.Context, job Job) error
	// UnprocessedJobs returns every stored job with no application yet,
	// in stable (fetched_at, insertion) order.
	UnprocessedJobs(ctx context.Context) ([]Job, error)
	// InsertApplication stores a new application and fills in its ID.
	InsertApplication(ctx context.Context, app *Application) error
	// Applications returns all stored applications joined to their jobs,
	// newest first.
	Applications(ctx context.Context) ([]ApplicationRecord, error)
	Close() error
}

// Tracker is the append-only outcome sink. Rows are never overwritten.
type Tracker interface {
	Append(ctx context.Context, o Outcome) error
}

// Notifier announces applications that are ready to send.
type Notifier interface {
	NotifyReady(ctx context.Context, app Application, job Job) error
}
