package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/storyos/storyos-backend/internal/logger"
)

// FilterCache memoizes style-filter responses. Keys are content-addressed so
// identical (text, voice version, profile, constraints) tuples hit the cache;
// alert computation is never cached here (alerts are recomputed on every
// read).
type FilterCache interface {
	Get(ctx context.Context, key string) (CachedTransform, bool)
	Set(ctx context.Context, key string, val CachedTransform)
	Close() error
}

type CachedTransform struct {
	Text      string `json:"text"`
	Rationale string `json:"rationale"`
}

// CacheKey derives the deterministic cache key for one filter invocation.
func CacheKey(text, voiceID, voiceVersion, profile, constraints string) string {
	h := sha256.Sum256([]byte(strings.Join([]string{text, voiceID, voiceVersion, profile, constraints}, "\x00")))
	return "stylefilter:" + hex.EncodeToString(h[:])
}

type filterCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

// NewFilterCache connects to REDIS_ADDR. Returns an error when the variable
// is unset or the server is unreachable; callers treat the cache as optional.
func NewFilterCache(log *logger.Logger) (FilterCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttl := 24 * time.Hour
	if v := strings.TrimSpace(os.Getenv("STYLE_FILTER_CACHE_TTL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			ttl = d
		}
	}

	return &filterCache{
		log: log.With("service", "FilterCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func (c *filterCache) Get(ctx context.Context, key string) (CachedTransform, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Debug("Filter cache get failed", "error", err)
		}
		return CachedTransform{}, false
	}
	var out CachedTransform
	if err := json.Unmarshal(raw, &out); err != nil {
		c.log.Debug("Filter cache entry corrupt, ignoring", "error", err)
		return CachedTransform{}, false
	}
	return out, true
}

func (c *filterCache) Set(ctx context.Context, key string, val CachedTransform) {
	raw, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Debug("Filter cache set failed", "error", err)
	}
}

func (c *filterCache) Close() error {
	return c.rdb.Close()
}
