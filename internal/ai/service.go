package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/applypilot/applypilot/internal/model"
)

// Input prefixes are bounded to respect backend limits; the tails of long
// documents carry little signal for these prompts anyway.
const (
	extractDescriptionLimit = 3000
	matchProfileLimit       = 2000
	rewriteProfileLimit     = 3000
	rewriteDescriptionLimit = 2000
	letterProfileLimit      = 2000
	letterDescriptionLimit  = 2000

	extractMaxTokens = 1024
	matchMaxTokens   = 1024
	rewriteMaxTokens = 2048
	letterMaxTokens  = 1536
)

// Service implements skill extraction, profile matching, and content
// generation over a single LLMProvider. It returns errors rather than
// fallback values; each pipeline step owns its documented fallback.
type Service struct {
	provider LLMProvider
	logger   *slog.Logger
}

// NewService creates an AI service backed by the given provider.
func NewService(provider LLMProvider, logger *slog.Logger) *Service {
	return &Service{provider: provider, logger: logger}
}

// rawExtraction is the JSON shape the extraction prompt asks for.
type rawExtraction struct {
	TechnicalSkills     []string `json:"technical_skills"`
	SoftSkills          []string `json:"soft_skills"`
	ExperienceLevel     string   `json:"experience_level"`
	KeyResponsibilities []string `json:"key_responsibilities"`
}

// ExtractSkills pulls structured requirement data out of a job description.
func (s *Service) ExtractSkills(ctx context.Context, description string) (model.Extraction, error) {
	prompt, err := render(extractSkillsTemplate, struct{ Description string }{
		Description: truncate(description, extractDescriptionLimit),
	})
	if err != nil {
		return model.Extraction{}, err
	}

	raw, err := s.provider.Complete(ctx, prompt, extractMaxTokens)
	if err != nil {
		return model.Extraction{}, fmt.Errorf("extract skills: %w", err)
	}

	var re rawExtraction
	if err := unmarshalResponse(raw, &re); err != nil {
		return model.Extraction{}, fmt.Errorf("extract skills: %w", err)
	}

	level := re.ExperienceLevel
	if level == "" {
		level = "Unknown"
	}
	return model.Extraction{
		TechnicalSkills:     re.TechnicalSkills,
		SoftSkills:          re.SoftSkills,
		ExperienceLevel:     level,
		KeyResponsibilities: re.KeyResponsibilities,
	}, nil
}

// rawMatch is the JSON shape the match prompt asks for. match_score is a
// float because models occasionally return one despite the instructions.
type rawMatch struct {
	MatchScore      float64  `json:"match_score"`
	MatchedSkills   []string `json:"matched_skills"`
	MissingSkills   []string `json:"missing_skills"`
	Recommendations string   `json:"recommendations"`
}

// MatchProfile scores the candidate profile against an extraction result.
func (s *Service) MatchProfile(ctx context.Context, profile string, ext model.Extraction) (model.MatchResult, error) {
	prompt, err := render(matchProfileTemplate, struct {
		Profile         string
		TechnicalSkills string
		SoftSkills      string
		ExperienceLevel string
	}{
		Profile:         truncate(profile, matchProfileLimit),
		TechnicalSkills: strings.Join(ext.TechnicalSkills, ", "),
		SoftSkills:      strings.Join(ext.SoftSkills, ", "),
		ExperienceLevel: ext.ExperienceLevel,
	})
	if err != nil {
		return model.MatchResult{}, err
	}

	raw, err := s.provider.Complete(ctx, prompt, matchMaxTokens)
	if err != nil {
		return model.MatchResult{}, fmt.Errorf("match profile: %w", err)
	}

	var rm rawMatch
	if err := unmarshalResponse(raw, &rm); err != nil {
		return model.MatchResult{}, fmt.Errorf("match profile: %w", err)
	}

	return model.MatchResult{
		MatchScore:      clampScore(int(rm.MatchScore)),
		MatchedSkills:   rm.MatchedSkills,
		MissingSkills:   rm.MissingSkills,
		Recommendations: rm.Recommendations,
	}, nil
}

// RewriteProfile produces a version of the profile tailored to one job.
func (s *Service) RewriteProfile(ctx context.Context, profile, description string) (string, error) {
	prompt, err := render(rewriteResumeTemplate, struct{ Profile, Description string }{
		Profile:     truncate(profile, rewriteProfileLimit),
		Description: truncate(description, rewriteDescriptionLimit),
	})
	if err != nil {
		return "", err
	}

	text, err := s.provider.Complete(ctx, prompt, rewriteMaxTokens)
	if err != nil {
		return "", fmt.Errorf("rewrite profile: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// CoverLetter generates a cover letter naming the company.
func (s *Service) CoverLetter(ctx context.Context, profile, description, company string) (string, error) {
	prompt, err := render(coverLetterTemplate, struct{ Profile, Description, Company string }{
		Profile:     truncate(profile, letterProfileLimit),
		Description: truncate(description, letterDescriptionLimit),
		Company:     company,
	})
	if err != nil {
		return "", err
	}

	text, err := s.provider.Complete(ctx, prompt, letterMaxTokens)
	if err != nil {
		return "", fmt.Errorf("cover letter: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

var (
	codeFenceRegex  = regexp.MustCompile("```json\n|\n```|```")
	jsonObjectRegex = regexp.MustCompile(`(?s)\{.*\}`)
)

// unmarshalResponse extracts a JSON object from an LLM response that may be
// wrapped in code fences or surrounded by prose, then unmarshals it into v.
func unmarshalResponse(raw string, v any) error {
	clean := strings.TrimSpace(codeFenceRegex.ReplaceAllString(raw, ""))
	obj := jsonObjectRegex.FindString(clean)
	if obj == "" {
		return fmt.Errorf("no JSON object in response")
	}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return fmt.Errorf("unmarshal response JSON: %w", err)
	}
	return nil
}
