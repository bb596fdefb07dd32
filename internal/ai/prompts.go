package ai

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/extract_skills.md
var extractSkillsPromptRaw string

//go:embed prompts/match_profile.md
var matchProfilePromptRaw string

//go:embed prompts/rewrite_resume.md
var rewriteResumePromptRaw string

//go:embed prompts/cover_letter.md
var coverLetterPromptRaw string

// Prompt templates, parsed once at package init and reused on every call.
var (
	extractSkillsTemplate = template.Must(template.New("extract_skills").Parse(extractSkillsPromptRaw))
	matchProfileTemplate  = template.Must(template.New("match_profile").Parse(matchProfilePromptRaw))
	rewriteResumeTemplate = template.Must(template.New("rewrite_resume").Parse(rewriteResumePromptRaw))
	coverLetterTemplate   = template.Must(template.New("cover_letter").Parse(coverLetterPromptRaw))
)
