package model

import "context"

// Extraction is the structured skill/requirement data pulled from a job
// description by the extraction backend.
type Extraction struct {
	TechnicalSkills     []string
	SoftSkills          []string
	ExperienceLevel     string
	KeyResponsibilities []string
}

// EmptyExtraction is the documented fallback when extraction fails: a
// zero-information result that still lets the match step run.
func EmptyExtraction() Extraction {
	return Extraction{ExperienceLevel: "Unknown"}
}

// MatchResult is the matching backend's verdict on one candidate/job pair.
type MatchResult struct {
	MatchScore      int // 0..100
	MatchedSkills   []string
	MissingSkills   []string
	Recommendations string
}

// ZeroMatch is the documented fallback when matching fails: the job is
// guaranteed to land below any positive threshold.
func ZeroMatch() MatchResult {
	return MatchResult{}
}

// Analyzer is the AI backend surface the matching pipeline consumes.
// Implementations return errors; fallback values are the caller's job.
type Analyzer interface {
	ExtractSkills(ctx context.Context, description string) (Extraction, error)
	MatchProfile(ctx context.Context, profile string, ext Extraction) (MatchResult, error)
	RewriteProfile(ctx context.Context, profile, description string) (string, error)
	CoverLetter(ctx context.Context, profile, description, company string) (string, error)
}
