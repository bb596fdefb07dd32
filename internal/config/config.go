package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the applypilot pipeline.
type Config struct {
	Queries      []string
	MinScore     int
	Profile      ProfileConfig
	Sources      []SourceConfig
	Store        StoreConfig
	AI           AIConfig
	Cache        CacheConfig
	Throttle     ThrottleConfig
	Tracker      TrackerConfig
	Notification NotificationConfig
	Schedule     ScheduleConfig
}

// ProfileConfig locates the candidate profile text used for matching.
type ProfileConfig struct {
	Path      string            `yaml:"path"`
	Overrides map[string]string `yaml:"overrides"` // query substring -> profile path
}

// PathFor returns the profile path for a query, honoring overrides whose
// key appears in the query (case-insensitive). Falls back to Path.
func (p ProfileConfig) PathFor(query string) string {
	q := strings.ToLower(query)
	for key, path := range p.Overrides {
		if strings.Contains(q, strings.ToLower(key)) {
			return path
		}
	}
	return p.Path
}

// SourceConfig describes a single job source to aggregate.
type SourceConfig struct {
	Name    string `yaml:"name"` // "remotive" or "adzuna"
	Enabled bool   `yaml:"enabled"`
	AppID   string `yaml:"app_id"`   // adzuna only
	AppKey  string `yaml:"app_key"`  // adzuna only
	Country string `yaml:"country"`  // adzuna only, e.g. "in", "gb", "us"
}

// StoreConfig selects and configures the durable store.
type StoreConfig struct {
	Driver      string `yaml:"driver"`       // "sqlite" (default) or "postgres"
	Path        string `yaml:"path"`         // sqlite file path
	DatabaseURL string `yaml:"database_url"` // postgres connection string
}

// AIConfig configures the LLM backend used for extraction, matching, and
// content generation.
type AIConfig struct {
	APIKey  string        // expanded from env var by Load
	BaseURL string        // defaults to https://api.anthropic.com/v1
	Model   string        // preferred model; fallback candidates tried on model errors
	Timeout time.Duration // per-request timeout
}

// CacheConfig enables the optional extraction cache. Empty URL disables it.
type CacheConfig struct {
	RedisURL string        // e.g. redis://localhost:6379/0
	TTL      time.Duration // how long cached extractions stay valid
}

// ThrottleConfig bounds outbound call rates.
type ThrottleConfig struct {
	PipelineDelay time.Duration // min gap between per-job pipeline runs
	SourceDelay   time.Duration // min gap between requests to the same source
}

// TrackerConfig selects the outcome sink.
type TrackerConfig struct {
	Type string `yaml:"type"` // "csv" or "log"
	Path string `yaml:"path"` // csv file path
}

// NotificationConfig controls how ready applications are announced.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "webhook"
	WebhookURL string `yaml:"webhook_url"` // required if type is "webhook"
}

// ScheduleConfig controls the serve daemon cadence.
type ScheduleConfig struct {
	Interval time.Duration
}

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com/v1"
	defaultModel            = "claude-3-5-sonnet-latest"
)

// rawConfig is used for YAML unmarshaling (snake_case fields and durations
// as strings).
type rawConfig struct {
	Queries      []string           `yaml:"queries"`
	MinScore     *int               `yaml:"min_score"`
	Profile      ProfileConfig      `yaml:"profile"`
	Sources      []SourceConfig     `yaml:"sources"`
	Store        StoreConfig        `yaml:"store"`
	AI           rawAIConfig        `yaml:"ai"`
	Cache        rawCacheConfig     `yaml:"cache"`
	Throttle     rawThrottleConfig  `yaml:"throttle"`
	Tracker      TrackerConfig      `yaml:"tracker"`
	Notification NotificationConfig `yaml:"notification"`
	Schedule     rawScheduleConfig  `yaml:"schedule"`
}

type rawAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

type rawCacheConfig struct {
	RedisURL string `yaml:"redis_url"`
	TTL      string `yaml:"ttl"`
}

type rawThrottleConfig struct {
	PipelineDelay string `yaml:"pipeline_delay"`
	SourceDelay   string `yaml:"source_delay"`
}

type rawScheduleConfig struct {
	Interval string `yaml:"interval"`
}

// Load reads and parses the YAML config file at path, expands environment
// variables, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables so secrets never live in the file.
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	minScore := 50 // default threshold
	if raw.MinScore != nil {
		minScore = *raw.MinScore
	}

	aiTimeout := 60 * time.Second // default
	if raw.AI.Timeout != "" {
		aiTimeout, err = time.ParseDuration(raw.AI.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse ai.timeout %q: %w", raw.AI.Timeout, err)
		}
	}

	aiBaseURL := raw.AI.BaseURL
	if aiBaseURL == "" {
		aiBaseURL = defaultAnthropicBaseURL
	}
	aiModel := raw.AI.Model
	if aiModel == "" {
		aiModel = defaultModel
	}

	cacheTTL := 30 * 24 * time.Hour // default: postings rarely change
	if raw.Cache.TTL != "" {
		cacheTTL, err = time.ParseDuration(raw.Cache.TTL)
		if err != nil {
			return nil, fmt.Errorf("parse cache.ttl %q: %w", raw.Cache.TTL, err)
		}
	}

	pipelineDelay := 2 * time.Second // default
	if raw.Throttle.PipelineDelay != "" {
		pipelineDelay, err = time.ParseDuration(raw.Throttle.PipelineDelay)
		if err != nil {
			return nil, fmt.Errorf("parse throttle.pipeline_delay %q: %w", raw.Throttle.PipelineDelay, err)
		}
	}

	sourceDelay := 1 * time.Second // default
	if raw.Throttle.SourceDelay != "" {
		sourceDelay, err = time.ParseDuration(raw.Throttle.SourceDelay)
		if err != nil {
			return nil, fmt.Errorf("parse throttle.source_delay %q: %w", raw.Throttle.SourceDelay, err)
		}
	}

	interval := 6 * time.Hour // default cadence
	if raw.Schedule.Interval != "" {
		interval, err = time.ParseDuration(raw.Schedule.Interval)
		if err != nil {
			return nil, fmt.Errorf("parse schedule.interval %q: %w", raw.Schedule.Interval, err)
		}
	}

	store := raw.Store
	if store.Driver == "" {
		store.Driver = "sqlite"
	}
	if store.Driver == "sqlite" && store.Path == "" {
		store.Path = "applypilot.db"
	}

	cfg := &Config{
		Queries:  raw.Queries,
		MinScore: minScore,
		Profile:  raw.Profile,
		Sources:  raw.Sources,
		Store:    store,
		AI: AIConfig{
			APIKey:  raw.AI.APIKey,
			BaseURL: aiBaseURL,
			Model:   aiModel,
			Timeout: aiTimeout,
		},
		Cache: CacheConfig{
			RedisURL: raw.Cache.RedisURL,
			TTL:      cacheTTL,
		},
		Throttle: ThrottleConfig{
			PipelineDelay: pipelineDelay,
			SourceDelay:   sourceDelay,
		},
		Tracker:      raw.Tracker,
		Notification: raw.Notification,
		Schedule:     ScheduleConfig{Interval: interval},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if len(cfg.Queries) == 0 {
		return fmt.Errorf("at least one query is required")
	}
	if cfg.MinScore < 0 || cfg.MinScore > 100 {
		return fmt.Errorf("min_score must be in [0, 100], got %d", cfg.MinScore)
	}
	if cfg.Profile.Path == "" {
		return fmt.Errorf("profile.path is required")
	}

	enabled := 0
	for _, s := range cfg.Sources {
		if !s.Enabled {
			continue
		}
		enabled++
		switch s.Name {
		case "remotive":
		case "adzuna":
			if s.AppID == "" || s.AppKey == "" {
				return fmt.Errorf("sources: adzuna requires app_id and app_key")
			}
		default:
			return fmt.Errorf("sources: unknown source %q", s.Name)
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}

	switch cfg.Store.Driver {
	case "sqlite":
		if cfg.Store.Path == "" {
			return fmt.Errorf("store.path is required for the sqlite driver")
		}
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return fmt.Errorf("store.database_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("store.driver must be \"sqlite\" or \"postgres\", got %q", cfg.Store.Driver)
	}

	if cfg.AI.APIKey == "" {
		return fmt.Errorf("ai.api_key is required")
	}

	if cfg.Tracker.Type == "csv" && cfg.Tracker.Path == "" {
		return fmt.Errorf("tracker.path is required when tracker.type is \"csv\"")
	}

	if cfg.Notification.Type == "webhook" && cfg.Notification.WebhookURL == "" {
		return fmt.Errorf("notification.webhook_url is required when type is \"webhook\"")
	}

	if cfg.Throttle.PipelineDelay < 0 || cfg.Throttle.SourceDelay < 0 {
		return fmt.Errorf("throttle delays must not be negative")
	}
	if cfg.Schedule.Interval <= 0 {
		return fmt.Errorf("schedule.interval must be positive, got %v", cfg.Schedule.Interval)
	}

	return nil
}
