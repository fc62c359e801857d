// internal/app/system/jargon/cache.go
package jargon

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/linguashift/internal/domain/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultCacheTTL applies when NewCachedDetector is given ttl <= 0.
const DefaultCacheTTL = 10 * time.Minute

// CachedDetector memoizes another Detector in Redis, keyed by a hash of the
// text and glossary. Redis failures are logged and fall through to the
// wrapped detector; detector failures are never cached.
type CachedDetector struct {
	next   Detector
	client *redis.Client
	ttl    time.Duration
	prefix string
	log    *zap.Logger
}

func NewCachedDetector(next Detector, client *redis.Client, ttl time.Duration, log *zap.Logger) *CachedDetector {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedDetector{next: next, client: client, ttl: ttl, prefix: "jargon:", log: log}
}

// Unwrap returns the memoized detector.
func (c *CachedDetector) Unwrap() Detector { return c.next }

// NewRedisClient parses redisURL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

type cachedDetection struct {
	Spans    []Span  `json:"spans"`
	Score    float64 `json:"score"`
	HasScore bool    `json:"has_score"`
}

// cacheKey hashes the text and the glossary fields the detector sees, each
// length-prefixed so field boundaries cannot collide.
func (c *CachedDetector) cacheKey(text string, glossary []models.GlossaryEntry) string {
	h := sha256.New()
	write := func(s string) {
		fmt.Fprintf(h, "%d:%s|", len(s), s)
	}
	write(text)
	for _, e := range glossary {
		write(e.Term)
		write(e.Explanation)
		write(e.PlainLanguage)
	}
	return c.prefix + hex.EncodeToString(h.Sum(nil))
}

func (c *CachedDetector) Detect(ctx context.Context, text string, glossary []models.GlossaryEntry) (Detection, error) {
	key := c.cacheKey(text, glossary)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var hit cachedDetection
		if jerr := json.Unmarshal(raw, &hit); jerr == nil {
			return Detection{Spans: hit.Spans, Score: hit.Score, HasScore: hit.HasScore}, nil
		}
		c.log.Warn("discarding corrupt jargon cache entry", zap.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		c.log.Warn("jargon cache read failed", zap.Error(err))
	}

	det, err := c.next.Detect(ctx, text, glossary)
	if err != nil {
		return Detection{}, err
	}

	buf, err := json.Marshal(cachedDetection{Spans: det.Spans, Score: det.Score, HasScore: det.HasScore})
	if err == nil {
		if err := c.client.Set(ctx, key, buf, c.ttl).Err(); err != nil {
			c.log.Warn("jargon cache write failed", zap.Error(err))
		}
	}
	return det, nil
}
