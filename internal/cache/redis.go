package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/applypilot/applypilot/internal/model"
)

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// CachedAnalyzer decorates an Analyzer with a Redis cache over the
// extraction step. Job descriptions rarely change, so a hit skips one LLM
// round trip per job. Match, rewrite, and letter results depend on the
// candidate profile and are never cached.
type CachedAnalyzer struct {
	inner  model.Analyzer
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedAnalyzer wraps an Analyzer with extraction caching.
func NewCachedAnalyzer(inner model.Analyzer, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedAnalyzer {
	return &CachedAnalyzer{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// ExtractSkills returns a cached extraction when one exists for this
// description, otherwise delegates and caches the result. Cache failures
// degrade to a plain delegate call; only successful extractions are stored.
func (c *CachedAnalyzer) ExtractSkills(ctx context.Context, description string) (model.Extraction, error) {
	key := extractionKey(description)

	raw, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var ext model.Extraction
		if err := json.Unmarshal([]byte(raw), &ext); err == nil {
			return ext, nil
		}
		// Corrupt entry. Drop it and re-extract.
		c.client.Del(ctx, key)
	} else if err != redis.Nil {
		c.logger.Warn("extraction cache read failed", "error", err)
	}

	ext, err := c.inner.ExtractSkills(ctx, description)
	if err != nil {
		return ext, err
	}

	if data, err := json.Marshal(ext); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("extraction cache write failed", "error", err)
		}
	}

	return ext, nil
}

func (c *CachedAnalyzer) MatchProfile(ctx context.Context, profile string, ext model.Extraction) (model.MatchResult, error) {
	return c.inner.MatchProfile(ctx, profile, ext)
}

func (c *CachedAnalyzer) RewriteProfile(ctx context.Context, profile, description string) (string, error) {
	return c.inner.RewriteProfile(ctx, profile, description)
}

func (c *CachedAnalyzer) CoverLetter(ctx context.Context, profile, description, company string) (string, error) {
	return c.inner.CoverLetter(ctx, profile, description, company)
}

// extractionKey derives the cache key from the description text itself, so
// the same description reposted under a different job still hits.
func extractionKey(description string) string {
	sum := md5.Sum([]byte(description))
	return "applypilot:extract:" + hex.EncodeToString(sum[:])
}
