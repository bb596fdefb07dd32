package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/applypilot/applypilot/internal/model"
)

// SQLiteStore is the default durable store: jobs and their applications in
// a single SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS jobs (
	job_id      TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	company     TEXT NOT NULL DEFAULT '',
	location    TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	url         TEXT NOT NULL DEFAULT '',
	source      TEXT NOT NULL DEFAULT '',
	posted_at   DATETIME,
	fetched_at  DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS applications (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id          TEXT NOT NULL REFERENCES jobs(job_id),
	match_score     INTEGER NOT NULL,
	matched_skills  TEXT NOT NULL DEFAULT '[]',
	missing_skills  TEXT NOT NULL DEFAULT '[]',
	recommendations TEXT NOT NULL DEFAULT '',
	resume_version  TEXT NOT NULL DEFAULT '',
	cover_letter    TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL,
	created_at      DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_applications_job_id ON applications(job_id);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// HasJob reports whether a job with this identity is already stored.
func (s *SQLiteStore) HasJob(ctx context.Context, jobID string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM jobs WHERE job_id = ?", jobID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking job %s: %w", jobID, err)
	}
	return true, nil
}

// InsertJob stores a new job. A concurrent writer winning the identity race
// surfaces as ErrDuplicateJob, which callers treat as "already stored".
func (s *SQLiteStore) InsertJob(ctx context.Context, job model.Job) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO jobs
		 (job_id, title, company, location, description, url, source, posted_at, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.JobID, job.Title, job.Company, job.Location, job.Description,
		job.URL, job.Source, nullableTime(job.PostedAt), job.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting job %s: %w", job.JobID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("inserting job %s: %w", job.JobID, err)
	}
	if n == 0 {
		return model.ErrDuplicateJob
	}
	return nil
}

// UnprocessedJobs returns every stored job that has no application yet.
// Recomputed on each call; ordering is stable for a given store state.
func (s *SQLiteStore) UnprocessedJobs(ctx context.Context) ([]model.Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT j.job_id, j.title, j.company, j.location, j.description, j.url, j.source, j.posted_at, j.fetched_at
		 FROM jobs j
		 LEFT JOIN applications a ON a.job_id = j.job_id
		 WHERE a.id IS NULL
		 ORDER BY j.fetched_at, j.rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying unprocessed jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning unprocessed job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// InsertApplication stores a new application and fills in its ID.
func (s *SQLiteStore) InsertApplication(ctx context.Context, app *model.Application) error {
	matched, missing, err := marshalSkills(app.MatchedSkills, app.MissingSkills)
	if err != nil {
		return fmt.Errorf("inserting application for %s: %w", app.JobID, err)
	}

	if app.CreatedAt.IsZero() {
		app.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO applications
		 (job_id, match_score, matched_skills, missing_skills, recommendations, resume_version, cover_letter, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		app.JobID, app.MatchScore, matched, missing, app.Recommendations,
		app.ResumeVersion, app.CoverLetter, app.Status, app.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting application for %s: %w", app.JobID, err)
	}
	app.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("inserting application for %s: %w", app.JobID, err)
	}
	return nil
}

// Applications returns all applications joined to their jobs, newest first.
func (s *SQLiteStore) Applications(ctx context.Context) ([]model.ApplicationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
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
			postedAt         sql.NullTime
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
		if postedAt.Valid {
			t := postedAt.Time
			rec.Job.PostedAt = &t
		}
		if err := unmarshalSkills(matched, missing, &rec.Application); err != nil {
			return nil, fmt.Errorf("scanning application: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanJob(rows *sql.Rows) (model.Job, error) {
	var (
		job      model.Job
		postedAt sql.NullTime
	)
	err := rows.Scan(&job.JobID, &job.Title, &job.Company, &job.Location,
		&job.Description, &job.URL, &job.Source, &postedAt, &job.FetchedAt)
	if err != nil {
		return model.Job{}, err
	}
	if postedAt.Valid {
		t := postedAt.Time
		job.PostedAt = &t
	}
	return job, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// Skill lists are persisted as JSON text, one column each.

func marshalSkills(matched, missing []string) (string, string, error) {
	if matched == nil {
		matched = []string{}
	}
	if missing == nil {
		missing = []string{}
	}
	m, err := json.Marshal(matched)
	if err != nil {
		return "", "", err
	}
	n, err := json.Marshal(missing)
	if err != nil {
		return "", "", err
	}
	return string(m), string(n), nil
}

func unmarshalSkills(matched, missing string, app *model.Application) error {
	if err := json.Unmarshal([]byte(matched), &app.MatchedSkills); err != nil {
		return err
	}
	return json.Unmarshal([]byte(missing), &app.MissingSkills)
}
