package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validConfig = `
queries:
  - python developer
min_score: 60
profile:
  path: data/profile.txt
  overrides:
    python: data/profile_python.txt
sources:
  - name: remotive
    enabled: true
store:
  driver: sqlite
  path: test.db
ai:
  api_key: test-key
  model: claude-3-5-sonnet-latest
  timeout: 45s
throttle:
  pipeline_delay: 3s
`

func TestLoad_ValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MinScore != 60 {
		t.Errorf("MinScore = %d, want 60", cfg.MinScore)
	}
	if cfg.AI.Timeout != 45*time.Second {
		t.Errorf("AI.Timeout = %v, want 45s", cfg.AI.Timeout)
	}
	if cfg.Throttle.PipelineDelay != 3*time.Second {
		t.Errorf("PipelineDelay = %v, want 3s", cfg.Throttle.PipelineDelay)
	}
	if cfg.Throttle.SourceDelay != 1*time.Second {
		t.Errorf("SourceDelay = %v, want default 1s", cfg.Throttle.SourceDelay)
	}
	if cfg.Schedule.Interval != 6*time.Hour {
		t.Errorf("Schedule.Interval = %v, want default 6h", cfg.Schedule.Interval)
	}
	if cfg.AI.BaseURL != defaultAnthropicBaseURL {
		t.Errorf("AI.BaseURL = %q, want default", cfg.AI.BaseURL)
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_AI_KEY", "secret-from-env")
	content := `
queries: [engineer]
profile:
  path: data/profile.txt
sources:
  - name: remotive
    enabled: true
ai:
  api_key: ${TEST_AI_KEY}
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AI.APIKey != "secret-from-env" {
		t.Errorf("APIKey = %q, want value from environment", cfg.AI.APIKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}

func TestLoad_NoEnabledSources(t *testing.T) {
	content := `
queries: [engineer]
profile:
  path: data/profile.txt
sources:
  - name: remotive
    enabled: false
ai:
  api_key: k
`
	if _, err := Load(writeConfig(t, content)); err == nil {
		t.Fatal("Load: expected validation error when no source is enabled")
	}
}

func TestLoad_AdzunaRequiresCredentials(t *testing.T) {
	content := `
queries: [engineer]
profile:
  path: data/profile.txt
sources:
  - name: adzuna
    enabled: true
ai:
  api_key: k
`
	if _, err := Load(writeConfig(t, content)); err == nil {
		t.Fatal("Load: expected validation error for adzuna without credentials")
	}
}

func TestLoad_MinScoreOutOfRange(t *testing.T) {
	content := `
queries: [engineer]
min_score: 150
profile:
  path: data/profile.txt
sources:
  - name: remotive
    enabled: true
ai:
  api_key: k
`
	if _, err := Load(writeConfig(t, content)); err == nil {
		t.Fatal("Load: expected validation error for min_score > 100")
	}
}

func TestLoad_PostgresRequiresURL(t *testing.T) {
	content := `
queries: [engineer]
profile:
  path: data/profile.txt
sources:
  - name: remotive
    enabled: true
store:
  driver: postgres
ai:
  api_key: k
`
	if _, err := Load(writeConfig(t, content)); err == nil {
		t.Fatal("Load: expected validation error for postgres without database_url")
	}
}

func TestLoad_MissingAPIKey(t *testing.T) {
	content := `
queries: [engineer]
profile:
  path: data/profile.txt
sources:
  - name: remotive
    enabled: true
`
	if _, err := Load(writeConfig(t, content)); err == nil {
		t.Fatal("Load: expected validation error when ai.api_key is missing")
	}
}

func TestProfilePathFor_UsesOverrides(t *testing.T) {
	p := ProfileConfig{
		Path: "data/profile.txt",
		Overrides: map[string]string{
			"python": "data/profile_python.txt",
			"react":  "data/profile_react.txt",
		},
	}

	if got := p.PathFor("Senior Python Developer"); got != "data/profile_python.txt" {
		t.Errorf("PathFor(python query) = %q", got)
	}
	if got := p.PathFor("react developer"); got != "data/profile_react.txt" {
		t.Errorf("PathFor(react query) = %q", got)
	}
	if got := p.PathFor("golang engineer"); got != "data/profile.txt" {
		t.Errorf("PathFor(no override) = %q, want default", got)
	}
}
