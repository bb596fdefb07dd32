package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/applypilot/applypilot/internal/model"
)

// PostgresStore implements the same semantics as SQLiteStore on a shared
// Postgres database, for deployments where several runners feed one store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS jobs (
	job_id      TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	company     TEXT NOT NULL DEFAULT '',
	location    TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	url         TEXT NOT NULL DEFAULT '',
	source      TEXT NOT NULL DEFAULT '',
	posted_at   TIMESTAMPTZ,
	fetched_at  TIMESTAMPTZ NOT NULL,
	seq         BIGINT GENERATED ALWAYS AS IDENTITY
);
CREATE TABLE IF NOT EXISTS applications (
	id              BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	job_id          TEXT NOT NULL REFERENCES jobs(job_id),
	match_score     INTEGER NOT NULL,
	matched_skills  TEXT NOT NULL DEFAULT '[]',
	missing_skills  TEXT NOT NULL DEFAULT '[]',
	recommendations TEXT NOT NULL DEFAULT '',
	resume_version  TEXT NOT NULL DEFAULT '',
	cover_letter    TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_applications_job_id ON applications(job_id);
`

// NewPostgresStore connects to databaseURL, verifies connectivity, and
// ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) HasJob(ctx context.Context, jobID string) (bool, error) {
	var exists int
	err := s.pool.QueryRow(ctx, "SELECT 1 FROM jobs WHERE job_id = $1", jobID).Scan(&exists)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking job %s: %w", jobID, err)
	}
	return true, nil
}

func (s *PostgresStore) InsertJob(ctx context.Context, job model.Job) error {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (job_id, title, company, location, description, url, source, posted_at, fetched_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (job_id) DO NOTHING`,
		job.JobID, job.Title, job.Company, job.Location, job.Description,
		job.URL, job.Source, job.PostedAt, job.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting job %s: %w", job.JobID, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrDuplicateJob
	}
	return nil
}

func (s *PostgresStore) UnprocessedJobs(ctx context.Context) ([]model.Job, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT j.job_id, j.title, j.company, j.location, j.description, j.url, j.source, j.posted_at, j.fetched_at
		 FROM jobs j
		 LEFT JOIN applications a ON a.job_id = j.job_id
		 WHERE a.id IS NULL
		 ORDER BY j.fetched_at, j.seq`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying unprocessed jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		var (
			job      model.Job
			postedAt *time.Time
		)
		if err := rows.Scan(&job.JobID, &job.Title, &job.Company, &job.Location,
			&job.Description, &job.URL, &job.Source, &postedAt, &job.FetchedAt); err != nil {
			return nil, fmt.Errorf("scanning unprocessed job: %w", err)
		}
		job.PostedAt = postedAt
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (s *PostgresStore) InsertApplication(ctx context.Context, app *model.Application) error {
	matched, missing, err := marshalSkills(app.MatchedSkills, app.MissingSkills)
	if err != nil {
		return fmt.Errorf("inserting application for %s: %w", app.JobID, err)
	}

	if app.CreatedAt.IsZero() {
		app.CreatedAt = time.Now().UTC()
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO applications
		 (job_id, match_score, matched_skills, missing_skills, recommendations, resume_version, cover_letter, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		app.JobID, app.MatchScore, matched, missing, app.Recommendations,
		app.ResumeVersion, app.CoverLetter, app.Status, app.CreatedAt,
	).Scan(&app.ID)
	if err != nil {
		return fmt.Errorf("inserting application for %s: %w", app.JobID, err)
	}
	return nil
}

func (s *PostgresStore) Applications(ctx context.Context) ([]model.ApplicationRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT a.id, a.job_id, a.match_score, a.matched_skills, a.missing_skills,
		        a.recommendations, a.resume_version, a.cover_letter, a.status, a.created_at,
		        j.title, j.company, j.location, j.description, j.url, j.source, j.posted_at, j.fetched_at
		 FROM applications a
		 JOIN jobs j ON j.job_id = a.job_id
		 ORDER BY a.created_at DESC, a.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying applications: %w", err)
	}
	defer rows.Close()

	var records []model.ApplicationRecord
	for rows.Next() {
		var (
			rec              model.ApplicationRecord
			matched, missing string
			postedAt         *time.Time
		)
		err := rows.Scan(
			&rec.Application.ID, &rec.Application.JobID, &rec.Application.MatchScore,
			&matched, &missing, &rec.Application.Recommendations,
			&rec.Application.ResumeVersion, &rec.Application.CoverLetter,
			&rec.Application.Status, &rec.Application.CreatedAt,
			&rec.Job.Title, &rec.Job.Company, &rec.Job.Location, &rec.Job.Description,
			&rec.Job.URL, &rec.Job.Source, &postedAt, &rec.Job.FetchedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning application: %w", err)
		}
		rec.Job.JobID = rec.Application.JobID
		rec.Job.PostedAt = postedAt
		if err := unmarshalSkills(matched, missing, &rec.Application); err != nil {
			return nil, fmt.Errorf("scanning application: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
